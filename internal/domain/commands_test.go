package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCreateOrderCommand_Validate проверяет бизнес-правила создания заказа.
func TestCreateOrderCommand_Validate(t *testing.T) {
	validItems := []RequestedItem{{ProductID: "p1", Quantity: 1}}

	t.Run("самовывоз обнуляет адрес и стоимость доставки", func(t *testing.T) {
		cmd := CreateOrderCommand{
			Items:           validItems,
			DeliveryOption:  DeliveryOptionSelfPickup,
			DeliveryAddress: "ул. Ленина, 1",
			ShippingCost:    25_000,
			PaymentStatus:   PaymentStatusUnpaid,
		}

		require.NoError(t, cmd.Validate())
		assert.Empty(t, cmd.DeliveryAddress)
		assert.Zero(t, cmd.ShippingCost)
	})

	t.Run("доставка без адреса отклоняется", func(t *testing.T) {
		cmd := CreateOrderCommand{
			Items:          validItems,
			DeliveryOption: DeliveryOptionDelivery,
			PaymentStatus:  PaymentStatusUnpaid,
		}

		require.ErrorIs(t, cmd.Validate(), ErrDeliveryAddressRequired)
	})

	t.Run("пустой список позиций отклоняется", func(t *testing.T) {
		cmd := CreateOrderCommand{
			DeliveryOption: DeliveryOptionSelfPickup,
		}

		require.ErrorIs(t, cmd.Validate(), ErrEmptyOrderItems)
	})

	t.Run("оплаченный заказ без способа оплаты отклоняется", func(t *testing.T) {
		cmd := CreateOrderCommand{
			Items:          validItems,
			DeliveryOption: DeliveryOptionSelfPickup,
			PaymentStatus:  PaymentStatusPaid,
		}

		require.ErrorIs(t, cmd.Validate(), ErrPaymentMethodRequired)
	})

	t.Run("банковский перевод без подтверждения отклоняется", func(t *testing.T) {
		cmd := CreateOrderCommand{
			Items:          validItems,
			DeliveryOption: DeliveryOptionSelfPickup,
			PaymentMethod:  PaymentMethodBankTransfer,
			PaymentStatus:  PaymentStatusPaid,
		}

		require.ErrorIs(t, cmd.Validate(), ErrPaymentProofRequired)
	})

	t.Run("банковский перевод требует подтверждение и без оплаты", func(t *testing.T) {
		cmd := CreateOrderCommand{
			Items:          validItems,
			DeliveryOption: DeliveryOptionSelfPickup,
			PaymentMethod:  PaymentMethodBankTransfer,
			PaymentStatus:  PaymentStatusUnpaid,
		}

		require.ErrorIs(t, cmd.Validate(), ErrPaymentProofRequired)
	})

	t.Run("банковский перевод с подтверждением проходит", func(t *testing.T) {
		cmd := CreateOrderCommand{
			Items:          validItems,
			DeliveryOption: DeliveryOptionSelfPickup,
			PaymentMethod:  PaymentMethodBankTransfer,
			PaymentStatus:  PaymentStatusPaid,
			PaymentProof:   &FileUpload{Name: "proof.jpg", Data: []byte{1}},
		}

		require.NoError(t, cmd.Validate())
	})
}

// TestCheckoutCommand_Validate проверяет оформление заказа с витрины.
func TestCheckoutCommand_Validate(t *testing.T) {
	t.Run("банковский перевод требует подтверждение сразу", func(t *testing.T) {
		cmd := CheckoutCommand{
			DeliveryOption: DeliveryOptionSelfPickup,
			PaymentMethod:  PaymentMethodBankTransfer,
		}

		require.ErrorIs(t, cmd.Validate(), ErrPaymentProofRequired)
	})

	t.Run("самовывоз очищает адрес", func(t *testing.T) {
		cmd := CheckoutCommand{
			DeliveryOption:  DeliveryOptionSelfPickup,
			DeliveryAddress: "не должен сохраниться",
			PaymentMethod:   PaymentMethodCash,
		}

		require.NoError(t, cmd.Validate())
		assert.Empty(t, cmd.DeliveryAddress)
	})

	t.Run("доставка без адреса отклоняется", func(t *testing.T) {
		cmd := CheckoutCommand{
			DeliveryOption: DeliveryOptionDelivery,
			PaymentMethod:  PaymentMethodCash,
		}

		require.ErrorIs(t, cmd.Validate(), ErrDeliveryAddressRequired)
	})
}
