package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"example.com/flower-shop/internal/domain"
	"example.com/flower-shop/internal/repository"
)

// cartFixture — собранный сервис корзин поверх моков.
type cartFixture struct {
	products *MockProductRepository
	carts    *MockCartRepository
	svc      CartService
}

func newCartFixture() *cartFixture {
	f := &cartFixture{
		products: new(MockProductRepository),
		carts:    new(MockCartRepository),
	}
	repos := repository.Assemble(new(MockOrderRepository), f.products, new(MockStockRepository), f.carts, new(MockUserRepository))
	f.svc = NewCartService(repos)
	return f
}

// TestCartService_Add тестирует добавление активного товара в корзину.
func TestCartService_Add(t *testing.T) {
	f := newCartFixture()

	f.products.On("GetByID", mock.Anything, "prod-1").
		Return(activeProduct("prod-1", 150000, 5), nil)
	f.carts.On("Upsert", mock.Anything, mock.MatchedBy(func(item *domain.CartItem) bool {
		return item.UserID == "cust-1" && item.ProductID == "prod-1" && item.Quantity == 2
	})).Return(nil)

	item, err := f.svc.Add(context.Background(), customerActor, "prod-1", 2)

	require.NoError(t, err)
	require.NotNil(t, item)
	assert.NotEmpty(t, item.ID)
	require.NotNil(t, item.Product)
	assert.Equal(t, "prod-1", item.Product.ID)
	f.carts.AssertExpectations(t)
}

// TestCartService_Add_Inactive тестирует запрет добавления
// недоступного товара.
func TestCartService_Add_Inactive(t *testing.T) {
	f := newCartFixture()

	inactive := activeProduct("prod-1", 150000, 5)
	inactive.IsActive = false
	f.products.On("GetByID", mock.Anything, "prod-1").Return(inactive, nil)

	item, err := f.svc.Add(context.Background(), customerActor, "prod-1", 1)

	require.ErrorIs(t, err, domain.ErrProductInactive)
	assert.Nil(t, item)
	f.carts.AssertNotCalled(t, "Upsert")
}

// TestCartService_Add_InvalidQuantity тестирует отказ при количестве < 1.
func TestCartService_Add_InvalidQuantity(t *testing.T) {
	f := newCartFixture()

	item, err := f.svc.Add(context.Background(), customerActor, "prod-1", 0)

	require.ErrorIs(t, err, domain.ErrInvalidQuantity)
	assert.Nil(t, item)
	f.products.AssertNotCalled(t, "GetByID")
}

// TestCartService_UpdateQuantity_Foreign тестирует, что чужая позиция
// неотличима от несуществующей.
func TestCartService_UpdateQuantity_Foreign(t *testing.T) {
	f := newCartFixture()

	f.carts.On("GetByID", mock.Anything, "cart-1").Return(&domain.CartItem{
		ID:     "cart-1",
		UserID: "someone-else",
	}, nil)

	err := f.svc.UpdateQuantity(context.Background(), customerActor, "cart-1", 3)

	require.ErrorIs(t, err, domain.ErrCartItemNotFound)
	f.carts.AssertNotCalled(t, "UpdateQuantity")
}

// TestCartService_UpdateQuantity тестирует установку нового количества.
func TestCartService_UpdateQuantity(t *testing.T) {
	f := newCartFixture()

	f.carts.On("GetByID", mock.Anything, "cart-1").Return(&domain.CartItem{
		ID:     "cart-1",
		UserID: customerActor.ID,
	}, nil)
	f.carts.On("UpdateQuantity", mock.Anything, "cart-1", 3).Return(nil)

	err := f.svc.UpdateQuantity(context.Background(), customerActor, "cart-1", 3)

	require.NoError(t, err)
	f.carts.AssertExpectations(t)
}

// TestCartService_Increment тестирует увеличение количества на единицу.
func TestCartService_Increment(t *testing.T) {
	f := newCartFixture()

	f.carts.On("GetByID", mock.Anything, "cart-1").Return(&domain.CartItem{
		ID:       "cart-1",
		UserID:   customerActor.ID,
		Quantity: 2,
	}, nil)
	f.carts.On("UpdateQuantity", mock.Anything, "cart-1", 3).Return(nil)

	err := f.svc.Increment(context.Background(), customerActor, "cart-1")

	require.NoError(t, err)
	f.carts.AssertExpectations(t)
}

// TestCartService_Decrement тестирует уменьшение количества на единицу.
func TestCartService_Decrement(t *testing.T) {
	f := newCartFixture()

	f.carts.On("GetByID", mock.Anything, "cart-1").Return(&domain.CartItem{
		ID:       "cart-1",
		UserID:   customerActor.ID,
		Quantity: 3,
	}, nil)
	f.carts.On("UpdateQuantity", mock.Anything, "cart-1", 2).Return(nil)

	err := f.svc.Decrement(context.Background(), customerActor, "cart-1")

	require.NoError(t, err)
	f.carts.AssertExpectations(t)
}

// TestCartService_Decrement_DeletesAtOne тестирует, что уменьшение
// единственной штуки удаляет позицию из корзины.
func TestCartService_Decrement_DeletesAtOne(t *testing.T) {
	f := newCartFixture()

	f.carts.On("GetByID", mock.Anything, "cart-1").Return(&domain.CartItem{
		ID:       "cart-1",
		UserID:   customerActor.ID,
		Quantity: 1,
	}, nil)
	f.carts.On("Delete", mock.Anything, "cart-1").Return(nil)

	err := f.svc.Decrement(context.Background(), customerActor, "cart-1")

	require.NoError(t, err)
	f.carts.AssertCalled(t, "Delete", mock.Anything, "cart-1")
	f.carts.AssertNotCalled(t, "UpdateQuantity")
}

// TestCartService_Decrement_Foreign тестирует сокрытие чужой позиции.
func TestCartService_Decrement_Foreign(t *testing.T) {
	f := newCartFixture()

	f.carts.On("GetByID", mock.Anything, "cart-1").Return(&domain.CartItem{
		ID:       "cart-1",
		UserID:   "someone-else",
		Quantity: 1,
	}, nil)

	err := f.svc.Decrement(context.Background(), customerActor, "cart-1")

	require.ErrorIs(t, err, domain.ErrCartItemNotFound)
	f.carts.AssertNotCalled(t, "Delete")
}

// TestCartService_Remove_Foreign тестирует сокрытие чужой позиции.
func TestCartService_Remove_Foreign(t *testing.T) {
	f := newCartFixture()

	f.carts.On("GetByID", mock.Anything, "cart-1").Return(&domain.CartItem{
		ID:     "cart-1",
		UserID: "someone-else",
	}, nil)

	err := f.svc.Remove(context.Background(), customerActor, "cart-1")

	require.ErrorIs(t, err, domain.ErrCartItemNotFound)
	f.carts.AssertNotCalled(t, "Delete")
}

// TestCartService_Clear тестирует очистку корзины.
func TestCartService_Clear(t *testing.T) {
	f := newCartFixture()

	f.carts.On("ClearByUser", mock.Anything, customerActor.ID).Return(nil)

	err := f.svc.Clear(context.Background(), customerActor)

	require.NoError(t, err)
	f.carts.AssertExpectations(t)
}
