package domain

import "time"

// Role — роль пользователя в системе.
type Role string

const (
	// RoleSuperAdmin — владелец, полный доступ.
	RoleSuperAdmin Role = "SUPERADMIN"

	// RoleAdmin — администратор, работает через myrekap.
	RoleAdmin Role = "ADMIN"

	// RoleCustomer — покупатель, работает через витрину myflower.
	RoleCustomer Role = "CUSTOMER"
)

// IsAdmin проверяет, имеет ли роль административные права.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// User — пользователь системы.
type User struct {
	ID               string // Уникальный идентификатор (UUID)
	Code             string // Человекочитаемый код (USR-...)
	Username         string // Логин, уникальный
	Email            string // Email, уникальный
	PasswordHash     string // bcrypt-хэш пароля
	FullName         string // Полное имя
	PhoneNumber      string // Телефон
	CustomerCategory string // Категория покупателя (розница, опт и т.д.)
	Role             Role   // Роль
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Actor — аутентифицированный пользователь, от имени которого
// выполняется операция. Формируется middleware из JWT и передаётся
// в сервисы уже проверенным.
type Actor struct {
	ID               string
	Code             string
	FullName         string
	PhoneNumber      string
	CustomerCategory string
	Role             Role
}
