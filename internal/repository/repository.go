// Package repository содержит реализацию доступа к данным на GORM.
// Доменные сущности отделены от GORM-моделей; конвертация — через
// toDomain/fromDomain рядом с каждой моделью.
package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repositories — набор репозиториев, связанных одним подключением к БД.
// Позволяет выполнять многосущностные операции в одной транзакции
// через WithinTransaction.
type Repositories struct {
	db *gorm.DB

	Orders   OrderRepository
	Products ProductRepository
	Stock    StockRepository
	Carts    CartRepository
	Users    UserRepository
}

// New создаёт набор репозиториев поверх подключения db.
func New(db *gorm.DB) *Repositories {
	return &Repositories{
		db:       db,
		Orders:   NewOrderRepository(db),
		Products: NewProductRepository(db),
		Stock:    NewStockRepository(db),
		Carts:    NewCartRepository(db),
		Users:    NewUserRepository(db),
	}
}

// Assemble собирает набор из готовых репозиториев.
// Используется в тестах для подстановки моков; WithinTransaction
// на таком наборе выполняет fn без транзакции.
func Assemble(orders OrderRepository, products ProductRepository, stock StockRepository, carts CartRepository, users UserRepository) *Repositories {
	return &Repositories{
		Orders:   orders,
		Products: products,
		Stock:    stock,
		Carts:    carts,
		Users:    users,
	}
}

// WithinTransaction выполняет fn в одной транзакции БД.
// Внутрь передаётся набор репозиториев, привязанный к транзакции;
// ошибка из fn откатывает все записи, сделанные через этот набор.
func (r *Repositories) WithinTransaction(ctx context.Context, fn func(tx *Repositories) error) error {
	if r.db == nil {
		return fn(r)
	}
	return r.db.WithContext(ctx).Transaction(func(txDB *gorm.DB) error {
		return fn(New(txDB))
	})
}

// Migrate создаёт или обновляет схему БД по моделям.
// Вызывается один раз при старте приложения.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&UserModel{},
		&ProductModel{},
		&StockTransactionModel{},
		&OrderModel{},
		&OrderItemModel{},
		&OrderImageModel{},
		&CartItemModel{},
	)
}
