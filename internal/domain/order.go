package domain

import (
	"time"
)

// OrderSource — канал, из которого создан заказ.
type OrderSource string

const (
	// SourceMyRekap — внутренний инструмент администратора.
	SourceMyRekap OrderSource = "MYREKAP"

	// SourceMyFlower — витрина для покупателей.
	SourceMyFlower OrderSource = "MYFLOWER"
)

// OrderStatus — статус заказа в системе.
type OrderStatus string

const (
	// OrderStatusInProcess — заказ создан и находится в работе.
	OrderStatusInProcess OrderStatus = "IN_PROCESS"

	// OrderStatusDelivery — заказ передан в доставку.
	OrderStatusDelivery OrderStatus = "DELIVERY"

	// OrderStatusCompleted — заказ выполнен и оплачен.
	OrderStatusCompleted OrderStatus = "COMPLETED"

	// OrderStatusCanceled — заказ отменён; админ может вернуть его в работу.
	OrderStatusCanceled OrderStatus = "CANCELED"
)

// Valid проверяет, что статус принадлежит известному набору.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusInProcess, OrderStatusDelivery, OrderStatusCompleted, OrderStatusCanceled:
		return true
	}
	return false
}

// DeliveryOption — способ получения заказа.
type DeliveryOption string

const (
	// DeliveryOptionDelivery — доставка по адресу.
	DeliveryOptionDelivery DeliveryOption = "DELIVERY"

	// DeliveryOptionSelfPickup — самовывоз из магазина.
	DeliveryOptionSelfPickup DeliveryOption = "SELF_PICKUP"
)

// PaymentMethod — способ оплаты заказа.
type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "CASH"
	PaymentMethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentMethodQRIS         PaymentMethod = "QRIS"
)

// PaymentStatus — статус оплаты заказа.
type PaymentStatus string

const (
	PaymentStatusPaid   PaymentStatus = "PAID"
	PaymentStatusUnpaid PaymentStatus = "UNPAID"
)

// OrderImageType — тип изображения заказа.
// На пару (заказ, тип) может существовать не более одного изображения.
type OrderImageType string

const (
	// ImagePaymentProof — подтверждение оплаты (чек, скриншот перевода).
	ImagePaymentProof OrderImageType = "PAYMENT_PROOF"

	// ImageFinishedProduct — фото готового букета, прикладывается админом.
	ImageFinishedProduct OrderImageType = "FINISHED_PRODUCT"
)

// OrderImage — изображение, привязанное к заказу.
// Хранит пару url/remoteID для последующего удаления из внешнего хранилища.
type OrderImage struct {
	ID        string         // Уникальный идентификатор (UUID)
	OrderID   string         // ID заказа
	Type      OrderImageType // Тип изображения
	URL       string         // Публичная ссылка
	RemoteID  string         // Идентификатор файла в удалённом хранилище
	CreatedAt time.Time
}

// OrderItem — позиция заказа.
// UnitPrice — снимок цены на момент заказа, последующие изменения
// каталога на него не влияют.
type OrderItem struct {
	ID         string // Уникальный идентификатор (UUID)
	OrderID    string // ID заказа
	ProductID  string // ID товара
	Quantity   int    // Количество, всегда > 0
	UnitPrice  int64  // Цена за единицу на момент заказа
	TotalPrice int64  // UnitPrice * Quantity
	Message    string // Пожелание к позиции (текст на открытке и т.п.)
}

// Validate проверяет корректность позиции заказа.
func (oi *OrderItem) Validate() error {
	if oi.ProductID == "" {
		return ErrProductNotFound
	}
	if oi.Quantity <= 0 {
		return ErrInvalidQuantity
	}
	if oi.UnitPrice <= 0 {
		return ErrInvalidPrice
	}
	return nil
}

// Order — заказ.
// Поля покупателя (CustomerName, CustomerCategory, PhoneNumber) — снимок
// на момент создания; правки профиля не меняют историю заказов.
type Order struct {
	ID               string         // Уникальный идентификатор (UUID)
	OrderCode        string         // Человекочитаемый код (ORD-...), уникальный
	Source           OrderSource    // Канал создания заказа
	UserID           string         // ID пользователя, оформившего заказ
	CustomerName     string         // Имя покупателя (снимок)
	CustomerCategory string         // Категория покупателя (снимок)
	PhoneNumber      string         // Телефон покупателя (снимок)
	DeliveryOption   DeliveryOption // Доставка или самовывоз
	DeliveryAddress  string         // Адрес; заполнен только при доставке
	ShippingCost     int64          // Стоимость доставки; 0 при самовывозе
	PaymentMethod    PaymentMethod  // Способ оплаты; пуст до оплаты
	PaymentStatus    PaymentStatus  // PAID или UNPAID
	OrderStatus      OrderStatus    // Текущий статус (машина состояний)
	TotalPrice       int64          // Сумма позиций; производное поле
	ReadyDate        time.Time      // Желаемая дата готовности
	OrderDate        time.Time      // Момент создания заказа
	Items            []OrderItem    // Позиции заказа
	Images           []OrderImage   // Изображения заказа
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// CalculateTotal пересчитывает общую сумму заказа из позиций.
func (o *Order) CalculateTotal() {
	var total int64
	for i := range o.Items {
		total += o.Items[i].TotalPrice
	}
	o.TotalPrice = total
}

// InCustomerEditableState проверяет, может ли покупатель отменить
// или подтвердить заказ. Допустимо только в работе или в доставке.
func (o *Order) InCustomerEditableState() bool {
	return o.OrderStatus == OrderStatusInProcess || o.OrderStatus == OrderStatusDelivery
}

// CancelByCustomer отменяет заказ по инициативе покупателя.
func (o *Order) CancelByCustomer() error {
	if !o.InCustomerEditableState() {
		return ErrOrderNotInProcess
	}
	o.OrderStatus = OrderStatusCanceled
	o.UpdatedAt = time.Now()
	return nil
}

// ConfirmByCustomer подтверждает получение заказа покупателем.
// Остатки не меняются: товар уже был списан при создании.
func (o *Order) ConfirmByCustomer() error {
	if !o.InCustomerEditableState() {
		return ErrOrderNotInProcess
	}
	o.OrderStatus = OrderStatusCompleted
	o.UpdatedAt = time.Now()
	return nil
}

// StockEffect — побочный эффект смены статуса на остатки.
type StockEffect int

const (
	// StockEffectNone — смена статуса не трогает остатки.
	StockEffectNone StockEffect = iota

	// StockEffectRestock — вернуть товар на склад (отмена заказа).
	StockEffectRestock

	// StockEffectDeduct — повторно списать товар (реактивация отменённого заказа).
	StockEffectDeduct
)

// PlanStatusChange проверяет допустимость перехода в target и возвращает
// требуемый эффект на остатки. Сам заказ не изменяется; применение —
// через ApplyStatus после успешного проведения складских движений.
//
// Правила:
//   - самовывозный заказ нельзя перевести в DELIVERY;
//   - переход в CANCELED возвращает товар на склад;
//   - выход из CANCELED повторно списывает товар;
//   - переход в COMPLETED помечает заказ оплаченным.
func (o *Order) PlanStatusChange(target OrderStatus) (StockEffect, error) {
	if !target.Valid() {
		return StockEffectNone, ErrInvalidOrderStatus
	}

	if target == OrderStatusDelivery && o.DeliveryOption != DeliveryOptionDelivery {
		return StockEffectNone, ErrDeliveryOptionMismatch
	}

	if target == o.OrderStatus {
		return StockEffectNone, nil
	}

	wasCanceled := o.OrderStatus == OrderStatusCanceled
	switch {
	case target == OrderStatusCanceled:
		return StockEffectRestock, nil
	case wasCanceled:
		return StockEffectDeduct, nil
	default:
		return StockEffectNone, nil
	}
}

// ApplyStatus применяет переход, спланированный PlanStatusChange.
// Переход в COMPLETED автоматически помечает заказ оплаченным.
func (o *Order) ApplyStatus(target OrderStatus) {
	o.OrderStatus = target
	if target == OrderStatusCompleted {
		o.PaymentStatus = PaymentStatusPaid
	}
	o.UpdatedAt = time.Now()
}

// AllowedForRecapUpdate проверяет, допустим ли статус target для
// обычного админского обновления заказа из покупательского канала.
// Заказы с витрины админ может переводить только в работу или в доставку;
// завершение и отмена идут через выделенные операции.
func (o *Order) AllowedForRecapUpdate(target OrderStatus) bool {
	if o.Source != SourceMyFlower {
		return true
	}
	return target == OrderStatusInProcess || target == OrderStatusDelivery
}

// ImageOfType возвращает изображение заданного типа, если оно есть.
func (o *Order) ImageOfType(t OrderImageType) (OrderImage, bool) {
	for _, img := range o.Images {
		if img.Type == t {
			return img, true
		}
	}
	return OrderImage{}, false
}
