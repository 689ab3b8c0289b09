package domain

import "fmt"

// PriceItems превращает запрошенные позиции в ценообразованные OrderItem
// по снимку каталога и возвращает их вместе с общей суммой.
//
// Чистая функция: остатки не меняются. Вызывающий обязан читать снимок
// каталога и проводить списание в одной транзакции, иначе между
// проверкой и списанием возможна гонка.
//
// Цена каждой позиции фиксируется на момент вызова; последующие
// изменения каталога на неё не влияют.
func PriceItems(requested []RequestedItem, catalog map[string]*Product) ([]OrderItem, int64, error) {
	if len(requested) == 0 {
		return nil, 0, ErrEmptyOrderItems
	}

	items := make([]OrderItem, 0, len(requested))
	var total int64

	for _, req := range requested {
		if req.Quantity <= 0 {
			return nil, 0, ErrInvalidQuantity
		}

		product, ok := catalog[req.ProductID]
		if !ok {
			return nil, 0, fmt.Errorf("%w: %s", ErrProductNotFound, req.ProductID)
		}
		if !product.IsActive {
			return nil, 0, fmt.Errorf("%w: %s", ErrProductInactive, product.Name)
		}
		if !product.HasStock(req.Quantity) {
			return nil, 0, fmt.Errorf("%w: %s (остаток %d, запрошено %d)",
				ErrStockInsufficient, product.Name, product.Stock, req.Quantity)
		}

		lineTotal := product.Price * int64(req.Quantity)
		items = append(items, OrderItem{
			ProductID:  product.ID,
			Quantity:   req.Quantity,
			UnitPrice:  product.Price,
			TotalPrice: lineTotal,
			Message:    req.Message,
		})
		total += lineTotal
	}

	return items, total, nil
}

// RepriceItems — прайсинг позиций при правке заказа.
// Отличается от PriceItems отсутствием проверки остатка: при правке
// достаточность проверяется по чистой разнице количеств уже в складском
// журнале, текущий остаток не учитывает ранее списанное этим же заказом.
func RepriceItems(requested []RequestedItem, catalog map[string]*Product) ([]OrderItem, int64, error) {
	if len(requested) == 0 {
		return nil, 0, ErrEmptyOrderItems
	}

	items := make([]OrderItem, 0, len(requested))
	var total int64

	for _, req := range requested {
		if req.Quantity <= 0 {
			return nil, 0, ErrInvalidQuantity
		}

		product, ok := catalog[req.ProductID]
		if !ok {
			return nil, 0, fmt.Errorf("%w: %s", ErrProductNotFound, req.ProductID)
		}

		lineTotal := product.Price * int64(req.Quantity)
		items = append(items, OrderItem{
			ProductID:  product.ID,
			Quantity:   req.Quantity,
			UnitPrice:  product.Price,
			TotalPrice: lineTotal,
			Message:    req.Message,
		})
		total += lineTotal
	}

	return items, total, nil
}

// StockDelta — подписанное изменение остатка товара при правке заказа.
type StockDelta struct {
	ProductID string
	Delta     int // > 0 — дополнительное списание, < 0 — возврат на склад
}

// DiffItems считает чистую разницу количеств между старым и новым
// набором позиций заказа. Выпавшие товары дают полный возврат,
// добавленные — полное списание, изменённые — разницу.
func DiffItems(old, next []OrderItem) []StockDelta {
	oldQty := make(map[string]int, len(old))
	for _, it := range old {
		oldQty[it.ProductID] += it.Quantity
	}

	nextQty := make(map[string]int, len(next))
	for _, it := range next {
		nextQty[it.ProductID] += it.Quantity
	}

	var deltas []StockDelta
	for productID, q := range nextQty {
		if d := q - oldQty[productID]; d != 0 {
			deltas = append(deltas, StockDelta{ProductID: productID, Delta: d})
		}
		delete(oldQty, productID)
	}
	for productID, q := range oldQty {
		deltas = append(deltas, StockDelta{ProductID: productID, Delta: -q})
	}

	return deltas
}
