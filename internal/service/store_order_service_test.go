package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"example.com/flower-shop/internal/domain"
	"example.com/flower-shop/internal/repository"
	"example.com/flower-shop/pkg/codes"
)

// storeFixture — собранный сервис витрины поверх моков.
type storeFixture struct {
	orders   *MockOrderRepository
	products *MockProductRepository
	stock    *MockStockRepository
	carts    *MockCartRepository
	files    *MockFileStore
	notifier *MockNotifier
	svc      StoreOrderService
}

func newStoreFixture() *storeFixture {
	f := &storeFixture{
		orders:   new(MockOrderRepository),
		products: new(MockProductRepository),
		stock:    new(MockStockRepository),
		carts:    new(MockCartRepository),
		files:    new(MockFileStore),
		notifier: new(MockNotifier),
	}
	repos := repository.Assemble(f.orders, f.products, f.stock, f.carts, new(MockUserRepository))
	f.svc = NewStoreOrderService(repos, codes.NewGenerator(), NewEffects(f.files, f.notifier))
	return f
}

var customerActor = domain.Actor{
	ID:               "cust-1",
	Code:             "USR-CU0001",
	FullName:         "Пётр Петров",
	PhoneNumber:      "+62822222222",
	CustomerCategory: "REGULAR",
	Role:             domain.RoleCustomer,
}

func storeOrder(status domain.OrderStatus) *domain.Order {
	return &domain.Order{
		ID:             "order-1",
		OrderCode:      "ORD-STORE01",
		Source:         domain.SourceMyFlower,
		UserID:         customerActor.ID,
		DeliveryOption: domain.DeliveryOptionSelfPickup,
		PaymentStatus:  domain.PaymentStatusUnpaid,
		OrderStatus:    status,
		Items: []domain.OrderItem{
			{ID: "item-1", OrderID: "order-1", ProductID: "prod-1", Quantity: 3, UnitPrice: 40000, TotalPrice: 120000},
		},
	}
}

// =====================================
// Тесты Checkout
// =====================================

// TestStoreOrderService_Checkout тестирует оформление заказа из корзины:
// снимок данных покупателя, нулевая доставка, очистка корзины после коммита.
func TestStoreOrderService_Checkout(t *testing.T) {
	f := newStoreFixture()

	f.carts.On("ListByUser", mock.Anything, "cust-1").Return([]*domain.CartItem{
		{ID: "cart-1", UserID: "cust-1", ProductID: "prod-1", Quantity: 2},
		{ID: "cart-2", UserID: "cust-1", ProductID: "prod-2", Quantity: 1},
	}, nil)
	f.products.On("GetByIDs", mock.Anything, []string{"prod-1", "prod-2"}).
		Return(catalogOf(
			activeProduct("prod-1", 40000, 10),
			activeProduct("prod-2", 25000, 5),
		), nil)
	f.orders.On("Create", mock.Anything, mock.AnythingOfType("*domain.Order")).Return(nil)
	expectStockDelta(f.stock, "prod-1", domain.StockOut, 2)
	expectStockDelta(f.stock, "prod-2", domain.StockOut, 1)
	f.carts.On("ClearByUser", mock.Anything, "cust-1").Return(nil)
	f.notifier.On("Notify", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return()

	order, err := f.svc.Checkout(context.Background(), customerActor, domain.CheckoutCommand{
		DeliveryOption: domain.DeliveryOptionSelfPickup,
		PaymentMethod:  domain.PaymentMethodCash,
		ReadyDate:      time.Now().Add(48 * time.Hour),
	})

	require.NoError(t, err)
	require.NotNil(t, order)
	assert.Equal(t, domain.SourceMyFlower, order.Source)
	assert.Equal(t, domain.OrderStatusInProcess, order.OrderStatus)
	assert.Equal(t, domain.PaymentStatusUnpaid, order.PaymentStatus)
	assert.Equal(t, int64(0), order.ShippingCost)
	assert.Equal(t, "Пётр Петров", order.CustomerName)
	assert.Equal(t, "+62822222222", order.PhoneNumber)
	assert.Equal(t, int64(105000), order.TotalPrice) // 2*40000 + 1*25000
	f.carts.AssertCalled(t, "ClearByUser", mock.Anything, "cust-1")
	f.stock.AssertExpectations(t)
	f.notifier.AssertNumberOfCalls(t, "Notify", 2) // покупателю и менеджеру
}

// TestStoreOrderService_Checkout_EmptyCart тестирует отказ при пустой корзине.
func TestStoreOrderService_Checkout_EmptyCart(t *testing.T) {
	f := newStoreFixture()

	f.carts.On("ListByUser", mock.Anything, "cust-1").Return([]*domain.CartItem{}, nil)

	order, err := f.svc.Checkout(context.Background(), customerActor, domain.CheckoutCommand{
		DeliveryOption: domain.DeliveryOptionSelfPickup,
		PaymentMethod:  domain.PaymentMethodCash,
	})

	require.ErrorIs(t, err, domain.ErrCartEmpty)
	assert.Nil(t, order)
	f.orders.AssertNotCalled(t, "Create")
}

// TestStoreOrderService_Checkout_InsufficientStock тестирует откат оформления:
// корзина не очищается, уведомления не уходят.
func TestStoreOrderService_Checkout_InsufficientStock(t *testing.T) {
	f := newStoreFixture()

	f.carts.On("ListByUser", mock.Anything, "cust-1").Return([]*domain.CartItem{
		{ID: "cart-1", UserID: "cust-1", ProductID: "prod-1", Quantity: 7},
	}, nil)
	f.products.On("GetByIDs", mock.Anything, mock.Anything).
		Return(catalogOf(activeProduct("prod-1", 40000, 3)), nil)

	order, err := f.svc.Checkout(context.Background(), customerActor, domain.CheckoutCommand{
		DeliveryOption: domain.DeliveryOptionSelfPickup,
		PaymentMethod:  domain.PaymentMethodCash,
	})

	require.ErrorIs(t, err, domain.ErrStockInsufficient)
	assert.Nil(t, order)
	f.carts.AssertNotCalled(t, "ClearByUser")
	f.notifier.AssertNotCalled(t, "Notify")
}

// TestStoreOrderService_Checkout_ValidationBankTransfer тестирует, что
// перевод с витрины всегда требует подтверждение оплаты.
func TestStoreOrderService_Checkout_ValidationBankTransfer(t *testing.T) {
	f := newStoreFixture()

	order, err := f.svc.Checkout(context.Background(), customerActor, domain.CheckoutCommand{
		DeliveryOption: domain.DeliveryOptionSelfPickup,
		PaymentMethod:  domain.PaymentMethodBankTransfer,
	})

	require.ErrorIs(t, err, domain.ErrPaymentProofRequired)
	assert.Nil(t, order)
	f.carts.AssertNotCalled(t, "ListByUser")
}

// =====================================
// Тесты Cancel и Confirm
// =====================================

// TestStoreOrderService_Cancel тестирует отмену покупателем:
// возврат остатков без пометки об админе, оплата не меняется.
func TestStoreOrderService_Cancel(t *testing.T) {
	f := newStoreFixture()

	f.orders.On("GetByID", mock.Anything, "order-1").Return(storeOrder(domain.OrderStatusInProcess), nil)
	f.stock.On("PostStockDelta", mock.Anything, mock.MatchedBy(func(req repository.StockDeltaRequest) bool {
		return req.ProductID == "prod-1" &&
			req.Type == domain.StockIn &&
			req.Quantity == 3 &&
			req.Reason == domain.ReasonOrderCanceled &&
			req.ActorCode == ""
	})).Return("stock-tx-1", nil)
	f.orders.On("Update", mock.Anything, mock.Anything).Return(nil)
	f.notifier.On("Notify", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return()

	updated, err := f.svc.Cancel(context.Background(), customerActor, "order-1")

	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCanceled, updated.OrderStatus)
	assert.Equal(t, domain.PaymentStatusUnpaid, updated.PaymentStatus)
	f.stock.AssertExpectations(t)
}

// TestStoreOrderService_Cancel_Foreign тестирует, что чужой заказ
// неотличим от несуществующего.
func TestStoreOrderService_Cancel_Foreign(t *testing.T) {
	f := newStoreFixture()

	other := storeOrder(domain.OrderStatusInProcess)
	other.UserID = "someone-else"
	f.orders.On("GetByID", mock.Anything, "order-1").Return(other, nil)

	updated, err := f.svc.Cancel(context.Background(), customerActor, "order-1")

	require.ErrorIs(t, err, domain.ErrOrderNotFound)
	assert.Nil(t, updated)
	f.stock.AssertNotCalled(t, "PostStockDelta")
}

// TestStoreOrderService_Cancel_Completed тестирует запрет отмены
// завершённого заказа.
func TestStoreOrderService_Cancel_Completed(t *testing.T) {
	f := newStoreFixture()

	f.orders.On("GetByID", mock.Anything, "order-1").Return(storeOrder(domain.OrderStatusCompleted), nil)

	updated, err := f.svc.Cancel(context.Background(), customerActor, "order-1")

	require.ErrorIs(t, err, domain.ErrOrderNotInProcess)
	assert.Nil(t, updated)
	f.stock.AssertNotCalled(t, "PostStockDelta")
	f.orders.AssertNotCalled(t, "Update")
}

// TestStoreOrderService_Confirm тестирует подтверждение получения:
// остатки не трогаются, оплата не выставляется автоматически.
func TestStoreOrderService_Confirm(t *testing.T) {
	f := newStoreFixture()

	f.orders.On("GetByID", mock.Anything, "order-1").Return(storeOrder(domain.OrderStatusDelivery), nil)
	f.orders.On("Update", mock.Anything, mock.Anything).Return(nil)
	f.notifier.On("Notify", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return()

	updated, err := f.svc.Confirm(context.Background(), customerActor, "order-1")

	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCompleted, updated.OrderStatus)
	assert.Equal(t, domain.PaymentStatusUnpaid, updated.PaymentStatus)
	f.stock.AssertNotCalled(t, "PostStockDelta")
}

// TestStoreOrderService_Confirm_Canceled тестирует запрет подтверждения
// отменённого заказа.
func TestStoreOrderService_Confirm_Canceled(t *testing.T) {
	f := newStoreFixture()

	f.orders.On("GetByID", mock.Anything, "order-1").Return(storeOrder(domain.OrderStatusCanceled), nil)

	updated, err := f.svc.Confirm(context.Background(), customerActor, "order-1")

	require.ErrorIs(t, err, domain.ErrOrderNotInProcess)
	assert.Nil(t, updated)
	f.orders.AssertNotCalled(t, "Update")
}

// =====================================
// Тесты Get и List
// =====================================

// TestStoreOrderService_Get_Foreign тестирует сокрытие чужих заказов.
func TestStoreOrderService_Get_Foreign(t *testing.T) {
	f := newStoreFixture()

	other := storeOrder(domain.OrderStatusInProcess)
	other.UserID = "someone-else"
	f.orders.On("GetByID", mock.Anything, "order-1").Return(other, nil)

	order, err := f.svc.Get(context.Background(), customerActor, "order-1")

	require.ErrorIs(t, err, domain.ErrOrderNotFound)
	assert.Nil(t, order)
}

// TestStoreOrderService_List тестирует фильтрацию списка по владельцу и каналу.
func TestStoreOrderService_List(t *testing.T) {
	f := newStoreFixture()

	f.orders.On("List", mock.Anything, mock.MatchedBy(func(filter repository.OrderFilter) bool {
		return filter.UserID == "cust-1" &&
			filter.Source == domain.SourceMyFlower &&
			filter.Offset == 0 && filter.Limit == 20
	})).Return([]*domain.Order{storeOrder(domain.OrderStatusInProcess)}, int64(1), nil)

	orders, total, err := f.svc.List(context.Background(), customerActor, "", 1, 20)

	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, orders, 1)
}
