package domain

import (
	"fmt"
	"strings"
	"time"
)

// Product — товар каталога.
// Остаток (Stock) меняется только через складской журнал,
// прямые записи в поле из других мест запрещены.
type Product struct {
	ID          string    // Уникальный идентификатор (UUID)
	Code        string    // Человекочитаемый код (PRD-...)
	Name        string    // Название товара, уникальное
	Price       int64     // Цена за единицу в рупиях
	Description string    // Описание товара
	ImageURL    string    // Ссылка на изображение товара
	ImageID     string    // Идентификатор изображения в удалённом хранилище
	IsActive    bool      // Доступен ли товар для заказа
	Stock       int       // Текущий остаток, всегда >= 0
	CreatedAt   time.Time // Дата создания
	UpdatedAt   time.Time // Дата последнего обновления
}

// Validate проверяет корректность полей товара перед сохранением.
func (p *Product) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrProductNameRequired
	}
	if p.Price <= 0 {
		return ErrInvalidPrice
	}
	if p.Stock < 0 {
		return ErrInvalidQuantity
	}
	return nil
}

// HasStock проверяет, хватает ли остатка на запрошенное количество.
// Заказ ровно на весь остаток допустим.
func (p *Product) HasStock(quantity int) bool {
	return quantity <= p.Stock
}

// StockTransactionType — направление движения остатков.
type StockTransactionType string

const (
	// StockIn — приход товара на склад.
	StockIn StockTransactionType = "STOCK_IN"

	// StockOut — списание товара со склада.
	StockOut StockTransactionType = "STOCK_OUT"
)

// StockTransaction — запись складского журнала.
// Создаётся ровно одна на каждое изменение Product.Stock,
// никогда не обновляется и не удаляется.
type StockTransaction struct {
	ID        string               // Уникальный идентификатор (UUID)
	ProductID string               // ID товара
	Type      StockTransactionType // Направление движения
	Quantity  int                  // Количество, всегда > 0
	Note      string               // Причина движения
	CreatedAt time.Time            // Момент движения
}

// StockReason — причина движения остатков.
// Журнал синтезирует текст заметки из причины и кода заказа/актора,
// чтобы форматирование не расползалось по вызывающему коду.
type StockReason string

const (
	ReasonOrderCreated     StockReason = "order_created"
	ReasonOrderCanceled    StockReason = "order_canceled"
	ReasonOrderReactivated StockReason = "order_reactivated"
	ReasonOrderEdited      StockReason = "order_edited"
	ReasonManual           StockReason = "manual"
)

// StockNote синтезирует текст заметки складского журнала.
// orderCode и actorCode могут быть пустыми в зависимости от причины.
func StockNote(reason StockReason, orderCode, actorCode string) string {
	switch reason {
	case ReasonOrderCreated:
		return fmt.Sprintf("Order #%s", orderCode)
	case ReasonOrderCanceled:
		if actorCode != "" {
			return fmt.Sprintf("Order #%s canceled by admin #%s", orderCode, actorCode)
		}
		return fmt.Sprintf("Order #%s canceled", orderCode)
	case ReasonOrderReactivated:
		if actorCode != "" {
			return fmt.Sprintf("Order #%s reactivated by admin #%s", orderCode, actorCode)
		}
		return fmt.Sprintf("Order #%s reactivated", orderCode)
	case ReasonOrderEdited:
		return fmt.Sprintf("Order #%s updated", orderCode)
	default:
		return "Manual stock adjustment"
	}
}
