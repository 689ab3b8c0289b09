package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"example.com/flower-shop/internal/domain"
)

// UserRepository определяет интерфейс для работы с пользователями.
type UserRepository interface {
	// Create создаёт нового пользователя.
	Create(ctx context.Context, user *domain.User) error

	// GetByID возвращает пользователя по ID.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByLogin возвращает пользователя по username или email.
	GetByLogin(ctx context.Context, login string) (*domain.User, error)
}

// UserModel — GORM модель для таблицы users.
type UserModel struct {
	ID               string    `gorm:"column:id;type:varchar(36);primaryKey"`
	Code             string    `gorm:"column:code;type:varchar(32);uniqueIndex;not null"`
	Username         string    `gorm:"column:username;type:varchar(100);uniqueIndex;not null"`
	Email            string    `gorm:"column:email;type:varchar(255);uniqueIndex;not null"`
	PasswordHash     string    `gorm:"column:password_hash;type:varchar(255);not null"`
	FullName         string    `gorm:"column:full_name;type:varchar(255);not null"`
	PhoneNumber      string    `gorm:"column:phone_number;type:varchar(32)"`
	CustomerCategory string    `gorm:"column:customer_category;type:varchar(50)"`
	Role             string    `gorm:"column:role;type:varchar(15);not null"`
	CreatedAt        time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName возвращает имя таблицы в БД.
func (UserModel) TableName() string {
	return "users"
}

// toDomain конвертирует GORM модель пользователя в доменную сущность.
func (m *UserModel) toDomain() *domain.User {
	return &domain.User{
		ID:               m.ID,
		Code:             m.Code,
		Username:         m.Username,
		Email:            m.Email,
		PasswordHash:     m.PasswordHash,
		FullName:         m.FullName,
		PhoneNumber:      m.PhoneNumber,
		CustomerCategory: m.CustomerCategory,
		Role:             domain.Role(m.Role),
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

// userModelFromDomain конвертирует доменную сущность в GORM модель.
func userModelFromDomain(u *domain.User) *UserModel {
	return &UserModel{
		ID:               u.ID,
		Code:             u.Code,
		Username:         u.Username,
		Email:            u.Email,
		PasswordHash:     u.PasswordHash,
		FullName:         u.FullName,
		PhoneNumber:      u.PhoneNumber,
		CustomerCategory: u.CustomerCategory,
		Role:             string(u.Role),
	}
}

// userRepository — GORM реализация UserRepository.
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository создаёт новый репозиторий пользователей.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// Create создаёт нового пользователя.
func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	model := userModelFromDomain(user)

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if isDuplicateKeyError(err) {
			return domain.ErrUserAlreadyExists
		}
		return err
	}

	user.CreatedAt = model.CreatedAt
	user.UpdatedAt = model.UpdatedAt
	return nil
}

// GetByID возвращает пользователя по ID.
func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	var model UserModel

	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}

	return model.toDomain(), nil
}

// GetByLogin возвращает пользователя по username или email.
func (r *userRepository) GetByLogin(ctx context.Context, login string) (*domain.User, error) {
	var model UserModel

	if err := r.db.WithContext(ctx).
		Where("username = ? OR email = ?", login, login).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}

	return model.toDomain(), nil
}
