// Package jwt предоставляет работу с JWT токенами на основе RS256.
// Использует асимметричную криптографию: приватный ключ для подписи,
// публичный ключ для верификации.
//
// Claims несут полный контекст пользователя (роль, имя, категория клиента),
// чтобы ядро заказов получало готовую идентичность без похода в БД.
package jwt

import (
	"context"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims содержит данные JWT токена.
type Claims struct {
	jwt.RegisteredClaims
	UserID           string `json:"user_id"`                     // ID пользователя
	UserCode         string `json:"user_code,omitempty"`         // Человекочитаемый код (USR-...)
	Role             string `json:"role,omitempty"`              // Роль: SUPERADMIN, ADMIN, CUSTOMER
	FullName         string `json:"full_name,omitempty"`         // Имя для снапшота заказа
	PhoneNumber      string `json:"phone_number,omitempty"`      // Телефон для снапшота заказа
	CustomerCategory string `json:"customer_category,omitempty"` // Категория клиента (RETAIL, CORPORATE...)
}

// Token содержит подписанный access token.
type Token struct {
	AccessToken string `json:"access_token"`
	ExpiresAt   int64  `json:"expires_at"` // Unix timestamp истечения
}

// Identity — данные пользователя, попадающие в claims при выдаче токена.
type Identity struct {
	UserID           string
	UserCode         string
	Role             string
	FullName         string
	PhoneNumber      string
	CustomerCategory string
}

// Manager управляет созданием и валидацией JWT токенов (RS256).
type Manager struct {
	privateKey *rsa.PrivateKey // Приватный ключ (nil для режима "только валидация")
	publicKey  *rsa.PublicKey  // Публичный ключ (для верификации)
	blacklist  *Blacklist      // Blacklist для отзыва токенов (опционально)
	issuer     string          // Издатель токена
	tokenTTL   time.Duration   // Время жизни access token
}

// Config содержит параметры для создания Manager.
type Config struct {
	PrivateKeyPath string        // Путь к приватному ключу (опционально для валидаторов)
	PublicKeyPath  string        // Путь к публичному ключу (обязательно)
	Issuer         string        // Издатель токена
	TokenTTL       time.Duration // Время жизни access token
}

// NewManager создаёт новый менеджер JWT токенов.
// Если privateKeyPath пустой — менеджер работает только в режиме валидации.
func NewManager(cfg Config) (*Manager, error) {
	m := &Manager{
		issuer:   cfg.Issuer,
		tokenTTL: cfg.TokenTTL,
	}

	publicKey, err := LoadPublicKey(cfg.PublicKeyPath)
	if err != nil {
		return nil, fmt.Errorf("ошибка загрузки публичного ключа: %w", err)
	}
	m.publicKey = publicKey

	if cfg.PrivateKeyPath != "" {
		privateKey, err := LoadPrivateKey(cfg.PrivateKeyPath)
		if err != nil {
			return nil, fmt.Errorf("ошибка загрузки приватного ключа: %w", err)
		}
		m.privateKey = privateKey
	}

	return m, nil
}

// NewManagerFromKeys создаёт менеджер из готовой пары ключей.
// Удобен в тестах и при получении ключей не из файлов.
func NewManagerFromKeys(privateKey *rsa.PrivateKey, publicKey *rsa.PublicKey, issuer string, tokenTTL time.Duration) *Manager {
	return &Manager{
		privateKey: privateKey,
		publicKey:  publicKey,
		issuer:     issuer,
		tokenTTL:   tokenTTL,
	}
}

// Generate создаёт подписанный access token для пользователя.
// Требует наличия приватного ключа.
func (m *Manager) Generate(id Identity) (*Token, error) {
	if m.privateKey == nil {
		return nil, fmt.Errorf("приватный ключ не загружен: генерация токенов недоступна")
	}

	now := time.Now()
	expiry := now.Add(m.tokenTTL)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),        // jti — уникальный идентификатор токена
			Issuer:    m.issuer,                   // iss — издатель
			Subject:   id.UserID,                  // sub — ID пользователя
			IssuedAt:  jwt.NewNumericDate(now),    // iat — время выдачи
			ExpiresAt: jwt.NewNumericDate(expiry), // exp — время истечения
		},
		UserID:           id.UserID,
		UserCode:         id.UserCode,
		Role:             id.Role,
		FullName:         id.FullName,
		PhoneNumber:      id.PhoneNumber,
		CustomerCategory: id.CustomerCategory,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signed, err := token.SignedString(m.privateKey)
	if err != nil {
		return nil, fmt.Errorf("ошибка подписи access token: %w", err)
	}

	return &Token{
		AccessToken: signed,
		ExpiresAt:   expiry.Unix(),
	}, nil
}

// ValidateToken проверяет токен и возвращает claims.
// Требует только публичный ключ.
func (m *Manager) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Проверяем, что используется правильный алгоритм
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("неожиданный алгоритм подписи: %v", token.Header["alg"])
		}
		return m.publicKey, nil
	})

	if err != nil {
		return nil, fmt.Errorf("ошибка валидации токена: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("невалидные claims токена")
	}

	return claims, nil
}

// CanSign возвращает true, если менеджер может подписывать токены.
func (m *Manager) CanSign() bool {
	return m.privateKey != nil
}

// SetBlacklist устанавливает blacklist для проверки отозванных токенов.
func (m *Manager) SetBlacklist(bl *Blacklist) {
	m.blacklist = bl
}

// Blacklist возвращает blacklist (для операций Add, InvalidateUser).
func (m *Manager) Blacklist() *Blacklist {
	return m.blacklist
}

// TokenTTL возвращает время жизни access token.
// Используется для установки TTL при InvalidateUser.
func (m *Manager) TokenTTL() time.Duration {
	return m.tokenTTL
}

// ValidateWithBlacklist проверяет токен + blacklist.
// Возвращает ошибку, если токен отозван или невалиден.
func (m *Manager) ValidateWithBlacklist(ctx context.Context, tokenString string) (*Claims, error) {
	claims, err := m.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}

	// Если blacklist не настроен — возвращаем claims
	if m.blacklist == nil {
		return claims, nil
	}

	// Проверяем blacklist по jti (конкретный токен)
	blacklisted, err := m.blacklist.Check(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("ошибка проверки blacklist: %w", err)
	}
	if blacklisted {
		return nil, fmt.Errorf("токен отозван")
	}

	// Проверяем инвалидацию пользователя (массовый отзыв)
	if claims.IssuedAt != nil {
		invalidated, err := m.blacklist.IsUserInvalidated(ctx, claims.Subject, claims.IssuedAt.Time)
		if err != nil {
			return nil, fmt.Errorf("ошибка проверки инвалидации пользователя: %w", err)
		}
		if invalidated {
			return nil, fmt.Errorf("все токены пользователя отозваны")
		}
	}

	return claims, nil
}

// LoadPrivateKey загружает RSA приватный ключ из PEM файла.
func LoadPrivateKey(path string) (*rsa.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения файла %s: %w", path, err)
	}

	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("не удалось декодировать PEM блок из %s", path)
	}

	// Пробуем PKCS#1 формат (RSA PRIVATE KEY)
	if block.Type == "RSA PRIVATE KEY" {
		return x509.ParsePKCS1PrivateKey(block.Bytes)
	}

	// Пробуем PKCS#8 формат (PRIVATE KEY)
	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("ошибка парсинга приватного ключа: %w", err)
	}

	rsaKey, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("ключ не является RSA приватным ключом")
	}

	return rsaKey, nil
}

// LoadPublicKey загружает RSA публичный ключ из PEM файла.
func LoadPublicKey(path string) (*rsa.PublicKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения файла %s: %w", path, err)
	}

	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("не удалось декодировать PEM блок из %s", path)
	}

	// Пробуем PKIX формат (PUBLIC KEY)
	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		// Пробуем PKCS#1 формат (RSA PUBLIC KEY)
		return x509.ParsePKCS1PublicKey(block.Bytes)
	}

	rsaKey, ok := pub.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("ключ не является RSA публичным ключом")
	}

	return rsaKey, nil
}
