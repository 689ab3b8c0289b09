package domain

import "time"

// CartItem — позиция корзины покупателя.
// Пара (UserID, ProductID) уникальна; повторное добавление товара
// увеличивает количество существующей позиции.
//
// Корзина — промежуточное хранилище: при оформлении заказа позиции
// превращаются в OrderItem и корзина очищается. При деактивации или
// удалении товара его позиции удаляются из всех корзин.
type CartItem struct {
	ID        string   // Уникальный идентификатор (UUID)
	UserID    string   // ID владельца корзины
	ProductID string   // ID товара
	Quantity  int      // Количество, всегда >= 1
	Product   *Product // Товар; подгружается при чтении корзины
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate проверяет корректность позиции корзины.
func (ci *CartItem) Validate() error {
	if ci.ProductID == "" {
		return ErrProductNotFound
	}
	if ci.Quantity < 1 {
		return ErrInvalidQuantity
	}
	return nil
}
