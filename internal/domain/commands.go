package domain

import (
	"strings"
	"time"
)

// Команды — строго типизированный вход в бизнес-логику.
// Формируются один раз на границе HTTP из уже провалидированного
// запроса; сервисы никогда не разбирают сырой ввод повторно.

// FileUpload — загружаемый файл (подтверждение оплаты, фото букета).
type FileUpload struct {
	Name        string // Имя файла
	ContentType string // MIME-тип
	Data        []byte // Содержимое
}

// RequestedItem — запрошенная позиция заказа до прайсинга.
type RequestedItem struct {
	ProductID string
	Quantity  int
	Message   string
}

// CreateOrderCommand — создание заказа администратором (myrekap).
type CreateOrderCommand struct {
	Items            []RequestedItem
	CustomerName     string
	CustomerCategory string
	PhoneNumber      string
	DeliveryOption   DeliveryOption
	DeliveryAddress  string
	ShippingCost     int64
	PaymentMethod    PaymentMethod
	PaymentStatus    PaymentStatus
	ReadyDate        time.Time
	PaymentProof     *FileUpload // Обязателен при BANK_TRANSFER
}

// Validate проверяет бизнес-правила команды и нормализует
// зависящие от способа получения поля.
func (c *CreateOrderCommand) Validate() error {
	if len(c.Items) == 0 {
		return ErrEmptyOrderItems
	}
	for _, it := range c.Items {
		if it.Quantity <= 0 {
			return ErrInvalidQuantity
		}
	}

	if err := c.normalizeDelivery(); err != nil {
		return err
	}

	if c.PaymentStatus == PaymentStatusPaid && c.PaymentMethod == "" {
		return ErrPaymentMethodRequired
	}
	// Банковский перевод требует подтверждение независимо от статуса оплаты.
	if c.PaymentMethod == PaymentMethodBankTransfer && c.PaymentProof == nil {
		return ErrPaymentProofRequired
	}

	return nil
}

// normalizeDelivery применяет правила способа получения:
// доставка требует адрес, самовывоз обнуляет адрес и стоимость доставки.
func (c *CreateOrderCommand) normalizeDelivery() error {
	switch c.DeliveryOption {
	case DeliveryOptionDelivery:
		if strings.TrimSpace(c.DeliveryAddress) == "" {
			return ErrDeliveryAddressRequired
		}
	case DeliveryOptionSelfPickup:
		c.DeliveryAddress = ""
		c.ShippingCost = 0
	default:
		return ErrDeliveryAddressRequired
	}
	return nil
}

// UpdateOrderCommand — правка заказа администратором.
// Набор позиций заменяется целиком: старые удаляются, новые вставляются,
// складские движения считаются по разнице количеств.
type UpdateOrderCommand struct {
	OrderID          string
	Items            []RequestedItem
	CustomerName     string
	CustomerCategory string
	PhoneNumber      string
	DeliveryOption   DeliveryOption
	DeliveryAddress  string
	ShippingCost     int64
	PaymentMethod    PaymentMethod
	PaymentStatus    PaymentStatus
	ReadyDate        time.Time
	PaymentProof     *FileUpload // Заменяет существующее подтверждение, если задан
	RemoveProof      bool        // Удалить подтверждение без замены
}

// Validate проверяет бизнес-правила команды правки.
func (c *UpdateOrderCommand) Validate() error {
	if c.OrderID == "" {
		return ErrOrderNotFound
	}
	if len(c.Items) == 0 {
		return ErrEmptyOrderItems
	}
	for _, it := range c.Items {
		if it.Quantity <= 0 {
			return ErrInvalidQuantity
		}
	}

	cc := CreateOrderCommand{
		Items:           c.Items,
		DeliveryOption:  c.DeliveryOption,
		DeliveryAddress: c.DeliveryAddress,
		ShippingCost:    c.ShippingCost,
	}
	if err := cc.normalizeDelivery(); err != nil {
		return err
	}
	c.DeliveryAddress = cc.DeliveryAddress
	c.ShippingCost = cc.ShippingCost

	if c.PaymentStatus == PaymentStatusPaid && c.PaymentMethod == "" {
		return ErrPaymentMethodRequired
	}

	return nil
}

// UpdateStatusCommand — смена статуса заказа администратором.
type UpdateStatusCommand struct {
	OrderID         string
	Status          OrderStatus
	FinishedProduct *FileUpload // Фото готового букета, опционально
}

// CheckoutCommand — оформление заказа покупателем из корзины (myflower).
// Позиции берутся из корзины, данные покупателя — из Actor.
type CheckoutCommand struct {
	DeliveryOption  DeliveryOption
	DeliveryAddress string
	PaymentMethod   PaymentMethod
	ReadyDate       time.Time
	PaymentProof    *FileUpload
}

// Validate проверяет бизнес-правила оформления с витрины.
// Стоимость доставки для витрины всегда 0 — рассчитывается менеджером
// позже, при подтверждении заказа.
func (c *CheckoutCommand) Validate() error {
	switch c.DeliveryOption {
	case DeliveryOptionDelivery:
		if strings.TrimSpace(c.DeliveryAddress) == "" {
			return ErrDeliveryAddressRequired
		}
	case DeliveryOptionSelfPickup:
		c.DeliveryAddress = ""
	default:
		return ErrDeliveryAddressRequired
	}

	if c.PaymentMethod == PaymentMethodBankTransfer && c.PaymentProof == nil {
		return ErrPaymentProofRequired
	}

	return nil
}
