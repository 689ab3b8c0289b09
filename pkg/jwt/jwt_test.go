// Package jwt — тесты для JWT Manager.
// RSA ключи генерируются в тестах, blacklist проверяется через miniredis.
package jwt

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// generateTestKey генерирует RSA ключ для тестов.
func generateTestKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err, "не удалось сгенерировать RSA ключ")
	return key
}

// createTestManager создаёт Manager напрямую с ключами (без загрузки из файлов).
func createTestManager(t *testing.T, key *rsa.PrivateKey) *Manager {
	t.Helper()

	return &Manager{
		privateKey: key,
		publicKey:  &key.PublicKey,
		issuer:     "flower-shop-test",
		tokenTTL:   15 * time.Minute,
	}
}

// testIdentity возвращает типовую идентичность для тестов.
func testIdentity() Identity {
	return Identity{
		UserID:           "user-123",
		UserCode:         "USR-AB12CD-34EF56",
		Role:             "CUSTOMER",
		FullName:         "Иван Петров",
		PhoneNumber:      "+628123456789",
		CustomerCategory: "RETAIL",
	}
}

// TestManager_GenerateAndValidate проверяет выдачу и валидацию токена.
func TestManager_GenerateAndValidate(t *testing.T) {
	m := createTestManager(t, generateTestKey(t))

	token, err := m.Generate(testIdentity())
	require.NoError(t, err)
	require.NotEmpty(t, token.AccessToken)
	assert.Greater(t, token.ExpiresAt, time.Now().Unix())

	claims, err := m.ValidateToken(token.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.UserID)
	assert.Equal(t, "USR-AB12CD-34EF56", claims.UserCode)
	assert.Equal(t, "CUSTOMER", claims.Role)
	assert.Equal(t, "Иван Петров", claims.FullName)
	assert.Equal(t, "RETAIL", claims.CustomerCategory)
	assert.Equal(t, "flower-shop-test", claims.Issuer)
	assert.NotEmpty(t, claims.ID, "jti должен быть заполнен")
}

// TestManager_Generate_NoPrivateKey проверяет режим "только валидация".
func TestManager_Generate_NoPrivateKey(t *testing.T) {
	key := generateTestKey(t)
	m := &Manager{
		publicKey: &key.PublicKey,
		issuer:    "flower-shop-test",
		tokenTTL:  15 * time.Minute,
	}

	assert.False(t, m.CanSign())

	_, err := m.Generate(testIdentity())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "приватный ключ не загружен")
}

// TestManager_ValidateToken_WrongKey проверяет отклонение токена с чужой подписью.
func TestManager_ValidateToken_WrongKey(t *testing.T) {
	issuerManager := createTestManager(t, generateTestKey(t))
	validator := createTestManager(t, generateTestKey(t)) // другой ключ

	token, err := issuerManager.Generate(testIdentity())
	require.NoError(t, err)

	_, err = validator.ValidateToken(token.AccessToken)
	require.Error(t, err, "токен с чужой подписью должен отклоняться")
}

// TestManager_ValidateToken_Garbage проверяет отклонение мусорной строки.
func TestManager_ValidateToken_Garbage(t *testing.T) {
	m := createTestManager(t, generateTestKey(t))

	_, err := m.ValidateToken("not-a-jwt-token")
	require.Error(t, err)
}

// TestManager_ValidateWithBlacklist проверяет отзыв токена через blacklist.
func TestManager_ValidateWithBlacklist(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	m := createTestManager(t, generateTestKey(t))
	m.SetBlacklist(NewBlacklist(client))

	ctx := context.Background()

	token, err := m.Generate(testIdentity())
	require.NoError(t, err)

	// До отзыва — токен валиден
	claims, err := m.ValidateWithBlacklist(ctx, token.AccessToken)
	require.NoError(t, err)

	// Отзываем по jti
	err = m.Blacklist().Add(ctx, claims.ID, claims.ExpiresAt.Time)
	require.NoError(t, err)

	// После отзыва — токен отклоняется
	_, err = m.ValidateWithBlacklist(ctx, token.AccessToken)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "отозван")
}

// TestManager_ValidateWithBlacklist_UserInvalidated проверяет массовый отзыв токенов пользователя.
func TestManager_ValidateWithBlacklist_UserInvalidated(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	m := createTestManager(t, generateTestKey(t))
	m.SetBlacklist(NewBlacklist(client))

	ctx := context.Background()

	token, err := m.Generate(testIdentity())
	require.NoError(t, err)

	// Инвалидация должна произойти ПОСЛЕ выдачи токена (iat < timestamp инвалидации)
	mr.FastForward(time.Second)
	time.Sleep(1100 * time.Millisecond)

	err = m.Blacklist().InvalidateUser(ctx, "user-123", m.TokenTTL())
	require.NoError(t, err)

	_, err = m.ValidateWithBlacklist(ctx, token.AccessToken)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "отозваны")
}
