package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestOrder_PlanStatusChange проверяет машину состояний заказа:
// допустимость переходов и требуемые складские эффекты.
func TestOrder_PlanStatusChange(t *testing.T) {
	tests := []struct {
		name           string
		current        OrderStatus
		deliveryOption DeliveryOption
		target         OrderStatus
		wantEffect     StockEffect
		wantErr        error
	}{
		{
			name:           "отмена заказа в работе возвращает товар",
			current:        OrderStatusInProcess,
			deliveryOption: DeliveryOptionDelivery,
			target:         OrderStatusCanceled,
			wantEffect:     StockEffectRestock,
		},
		{
			name:           "отмена заказа в доставке возвращает товар",
			current:        OrderStatusDelivery,
			deliveryOption: DeliveryOptionDelivery,
			target:         OrderStatusCanceled,
			wantEffect:     StockEffectRestock,
		},
		{
			name:           "реактивация отменённого заказа повторно списывает товар",
			current:        OrderStatusCanceled,
			deliveryOption: DeliveryOptionDelivery,
			target:         OrderStatusInProcess,
			wantEffect:     StockEffectDeduct,
		},
		{
			name:           "реактивация сразу в завершённый тоже списывает товар",
			current:        OrderStatusCanceled,
			deliveryOption: DeliveryOptionSelfPickup,
			target:         OrderStatusCompleted,
			wantEffect:     StockEffectDeduct,
		},
		{
			name:           "завершение заказа в работе не трогает остатки",
			current:        OrderStatusInProcess,
			deliveryOption: DeliveryOptionSelfPickup,
			target:         OrderStatusCompleted,
			wantEffect:     StockEffectNone,
		},
		{
			name:           "перевод в доставку для самовывозного заказа запрещён",
			current:        OrderStatusInProcess,
			deliveryOption: DeliveryOptionSelfPickup,
			target:         OrderStatusDelivery,
			wantErr:        ErrDeliveryOptionMismatch,
		},
		{
			name:           "перевод в доставку для доставочного заказа разрешён",
			current:        OrderStatusInProcess,
			deliveryOption: DeliveryOptionDelivery,
			target:         OrderStatusDelivery,
			wantEffect:     StockEffectNone,
		},
		{
			name:           "повторная установка текущего статуса не даёт эффекта",
			current:        OrderStatusCanceled,
			deliveryOption: DeliveryOptionDelivery,
			target:         OrderStatusCanceled,
			wantEffect:     StockEffectNone,
		},
		{
			name:           "неизвестный статус отклоняется",
			current:        OrderStatusInProcess,
			deliveryOption: DeliveryOptionDelivery,
			target:         OrderStatus("SHIPPED"),
			wantErr:        ErrInvalidOrderStatus,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order := &Order{
				OrderStatus:    tt.current,
				DeliveryOption: tt.deliveryOption,
			}

			effect, err := order.PlanStatusChange(tt.target)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, tt.current, order.OrderStatus, "статус не должен меняться при ошибке")
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantEffect, effect)
		})
	}
}

// TestOrder_ApplyStatus проверяет, что завершение заказа помечает его оплаченным.
func TestOrder_ApplyStatus(t *testing.T) {
	t.Run("переход в COMPLETED проставляет оплату", func(t *testing.T) {
		order := &Order{
			OrderStatus:   OrderStatusCanceled,
			PaymentStatus: PaymentStatusUnpaid,
		}

		order.ApplyStatus(OrderStatusCompleted)

		assert.Equal(t, OrderStatusCompleted, order.OrderStatus)
		assert.Equal(t, PaymentStatusPaid, order.PaymentStatus)
	})

	t.Run("переход в DELIVERY не трогает оплату", func(t *testing.T) {
		order := &Order{
			OrderStatus:   OrderStatusInProcess,
			PaymentStatus: PaymentStatusUnpaid,
		}

		order.ApplyStatus(OrderStatusDelivery)

		assert.Equal(t, OrderStatusDelivery, order.OrderStatus)
		assert.Equal(t, PaymentStatusUnpaid, order.PaymentStatus)
	})
}

// TestOrder_CustomerTransitions проверяет переходы, доступные покупателю.
func TestOrder_CustomerTransitions(t *testing.T) {
	t.Run("отмена заказа в работе", func(t *testing.T) {
		order := &Order{OrderStatus: OrderStatusInProcess}

		require.NoError(t, order.CancelByCustomer())
		assert.Equal(t, OrderStatusCanceled, order.OrderStatus)
	})

	t.Run("подтверждение заказа в доставке", func(t *testing.T) {
		order := &Order{OrderStatus: OrderStatusDelivery}

		require.NoError(t, order.ConfirmByCustomer())
		assert.Equal(t, OrderStatusCompleted, order.OrderStatus)
	})

	t.Run("отмена завершённого заказа запрещена", func(t *testing.T) {
		order := &Order{OrderStatus: OrderStatusCompleted}

		err := order.CancelByCustomer()
		require.ErrorIs(t, err, ErrOrderNotInProcess)
		assert.Equal(t, OrderStatusCompleted, order.OrderStatus)
	})

	t.Run("подтверждение отменённого заказа запрещено", func(t *testing.T) {
		order := &Order{OrderStatus: OrderStatusCanceled}

		err := order.ConfirmByCustomer()
		require.ErrorIs(t, err, ErrOrderNotInProcess)
	})
}

// TestOrder_AllowedForRecapUpdate проверяет ограничение статусов
// для заказов с покупательской витрины.
func TestOrder_AllowedForRecapUpdate(t *testing.T) {
	tests := []struct {
		name   string
		source OrderSource
		target OrderStatus
		want   bool
	}{
		{"заказ админки — любой статус", SourceMyRekap, OrderStatusCompleted, true},
		{"заказ витрины — в работу", SourceMyFlower, OrderStatusInProcess, true},
		{"заказ витрины — в доставку", SourceMyFlower, OrderStatusDelivery, true},
		{"заказ витрины — завершение запрещено", SourceMyFlower, OrderStatusCompleted, false},
		{"заказ витрины — отмена запрещена", SourceMyFlower, OrderStatusCanceled, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order := &Order{Source: tt.source}
			assert.Equal(t, tt.want, order.AllowedForRecapUpdate(tt.target))
		})
	}
}

// TestOrder_CalculateTotal проверяет, что сумма заказа равна сумме позиций.
func TestOrder_CalculateTotal(t *testing.T) {
	order := &Order{
		Items: []OrderItem{
			{Quantity: 2, UnitPrice: 150_000, TotalPrice: 300_000},
			{Quantity: 1, UnitPrice: 75_000, TotalPrice: 75_000},
		},
	}

	order.CalculateTotal()

	assert.Equal(t, int64(375_000), order.TotalPrice)
}
