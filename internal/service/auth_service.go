package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"example.com/flower-shop/internal/domain"
	"example.com/flower-shop/internal/repository"
	"example.com/flower-shop/pkg/codes"
	"example.com/flower-shop/pkg/jwt"
	"example.com/flower-shop/pkg/logger"
)

// AuthService — регистрация, вход и выход пользователей.
type AuthService interface {
	// Register создаёт покупателя и возвращает токен доступа.
	Register(ctx context.Context, cmd RegisterCommand) (*domain.User, *jwt.Token, error)

	// Login проверяет учётные данные и выдаёт токен доступа.
	Login(ctx context.Context, login, password string) (*domain.User, *jwt.Token, error)

	// Logout отзывает токен через blacklist.
	Logout(ctx context.Context, tokenString string) error
}

// RegisterCommand — регистрация покупателя.
type RegisterCommand struct {
	Username         string
	Email            string
	Password         string
	FullName         string
	PhoneNumber      string
	CustomerCategory string
}

// authService — реализация AuthService.
type authService struct {
	repos *repository.Repositories
	jwt   *jwt.Manager
	codes *codes.Generator
}

// NewAuthService создаёт сервис аутентификации.
func NewAuthService(repos *repository.Repositories, jwtManager *jwt.Manager, gen *codes.Generator) AuthService {
	return &authService{
		repos: repos,
		jwt:   jwtManager,
		codes: gen,
	}
}

// Register создаёт покупателя.
func (s *authService) Register(ctx context.Context, cmd RegisterCommand) (*domain.User, *jwt.Token, error) {
	log := logger.FromContext(ctx)

	hash, err := bcrypt.GenerateFromPassword([]byte(cmd.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, fmt.Errorf("ошибка хэширования пароля: %w", err)
	}

	code, err := s.codes.Generate(codes.KindUser)
	if err != nil {
		return nil, nil, fmt.Errorf("ошибка генерации кода пользователя: %w", err)
	}

	user := &domain.User{
		ID:               uuid.NewString(),
		Code:             code,
		Username:         cmd.Username,
		Email:            cmd.Email,
		PasswordHash:     string(hash),
		FullName:         cmd.FullName,
		PhoneNumber:      cmd.PhoneNumber,
		CustomerCategory: cmd.CustomerCategory,
		Role:             domain.RoleCustomer,
	}

	if err := s.repos.Users.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrUserAlreadyExists) {
			log.Warn().Str("username", cmd.Username).Msg("Попытка регистрации с занятыми данными")
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("ошибка создания пользователя: %w", err)
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, nil, err
	}

	log.Info().
		Str("user_id", user.ID).
		Str("user_code", user.Code).
		Msg("Пользователь зарегистрирован")

	return user, token, nil
}

// Login проверяет учётные данные.
// Неверный логин и неверный пароль неразличимы для вызывающего.
func (s *authService) Login(ctx context.Context, login, password string) (*domain.User, *jwt.Token, error) {
	log := logger.FromContext(ctx)

	user, err := s.repos.Users.GetByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, nil, domain.ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("ошибка поиска пользователя: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		log.Warn().Str("user_id", user.ID).Msg("Неудачная попытка входа")
		return nil, nil, domain.ErrInvalidCredentials
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, nil, err
	}

	log.Info().Str("user_id", user.ID).Msg("Пользователь вошёл в систему")
	return user, token, nil
}

// Logout отзывает токен: его jti попадает в blacklist до истечения срока.
func (s *authService) Logout(ctx context.Context, tokenString string) error {
	claims, err := s.jwt.ValidateToken(tokenString)
	if err != nil {
		return err
	}

	bl := s.jwt.Blacklist()
	if bl == nil {
		return nil
	}

	expiresAt := time.Now().Add(s.jwt.TokenTTL())
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	if err := bl.Add(ctx, claims.ID, expiresAt); err != nil {
		return fmt.Errorf("ошибка отзыва токена: %w", err)
	}

	logger.Ctx(ctx).Info().
		Str("user_id", claims.UserID).
		Msg("Пользователь вышел из системы")

	return nil
}

// issueToken выдаёт токен доступа с полным снимком данных покупателя.
func (s *authService) issueToken(user *domain.User) (*jwt.Token, error) {
	token, err := s.jwt.Generate(jwt.Identity{
		UserID:           user.ID,
		UserCode:         user.Code,
		Role:             string(user.Role),
		FullName:         user.FullName,
		PhoneNumber:      user.PhoneNumber,
		CustomerCategory: user.CustomerCategory,
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка выпуска токена: %w", err)
	}
	return token, nil
}
