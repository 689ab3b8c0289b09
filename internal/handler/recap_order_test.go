// Package handler содержит unit тесты для RecapOrderHandler.
package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/flower-shop/internal/domain"
	"example.com/flower-shop/internal/repository"
)

// MockRecapOrderService — мок для RecapOrderService.
type MockRecapOrderService struct {
	CreateFunc       func(ctx context.Context, actor domain.Actor, cmd domain.CreateOrderCommand) (*domain.Order, error)
	UpdateFunc       func(ctx context.Context, actor domain.Actor, cmd domain.UpdateOrderCommand) (*domain.Order, error)
	UpdateStatusFunc func(ctx context.Context, actor domain.Actor, cmd domain.UpdateStatusCommand) (*domain.Order, error)
	GetFunc          func(ctx context.Context, orderID string) (*domain.Order, error)
	ListFunc         func(ctx context.Context, filter repository.OrderFilter, page, pageSize int) ([]*domain.Order, int64, error)
	RemoveFunc       func(ctx context.Context, orderID string) error
}

func (m *MockRecapOrderService) Create(ctx context.Context, actor domain.Actor, cmd domain.CreateOrderCommand) (*domain.Order, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, actor, cmd)
	}
	return nil, nil
}

func (m *MockRecapOrderService) Update(ctx context.Context, actor domain.Actor, cmd domain.UpdateOrderCommand) (*domain.Order, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, actor, cmd)
	}
	return nil, nil
}

func (m *MockRecapOrderService) UpdateStatus(ctx context.Context, actor domain.Actor, cmd domain.UpdateStatusCommand) (*domain.Order, error) {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, actor, cmd)
	}
	return nil, nil
}

func (m *MockRecapOrderService) Get(ctx context.Context, orderID string) (*domain.Order, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, orderID)
	}
	return nil, nil
}

func (m *MockRecapOrderService) List(ctx context.Context, filter repository.OrderFilter, page, pageSize int) ([]*domain.Order, int64, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter, page, pageSize)
	}
	return nil, 0, nil
}

func (m *MockRecapOrderService) Remove(ctx context.Context, orderID string) error {
	if m.RemoveFunc != nil {
		return m.RemoveFunc(ctx, orderID)
	}
	return nil
}

// setupRecapTestRouter создаёт Gin router для тестов с установленным Actor.
func setupRecapTestRouter(handler *RecapOrderHandler, actor *domain.Actor) *gin.Engine {
	r := gin.New()

	// Имитация AuthMiddleware + RequireAdmin
	r.Use(func(c *gin.Context) {
		if actor != nil {
			c.Set("actor", *actor)
		}
		c.Next()
	})

	r.POST("/api/v1/recap/orders", handler.CreateOrder)
	r.GET("/api/v1/recap/orders", handler.ListOrders)
	r.GET("/api/v1/recap/orders/:id", handler.GetOrder)
	r.PUT("/api/v1/recap/orders/:id", handler.UpdateOrder)
	r.PATCH("/api/v1/recap/orders/:id/status", handler.UpdateStatus)
	r.DELETE("/api/v1/recap/orders/:id", handler.DeleteOrder)

	return r
}

// testAdmin возвращает администратора для тестов.
func testAdmin() domain.Actor {
	return domain.Actor{
		ID:       "admin-1",
		Code:     "USR-AD0001",
		FullName: "Анна Админова",
		Role:     domain.RoleAdmin,
	}
}

// testRecapOrder возвращает заказ админского канала для тестов.
func testRecapOrder(status domain.OrderStatus) *domain.Order {
	return &domain.Order{
		ID:              "order-7",
		OrderCode:       "ORD-MR0007",
		Source:          domain.SourceMyRekap,
		CustomerName:    "Иван Иванов",
		PhoneNumber:     "+79991112233",
		DeliveryOption:  domain.DeliveryOptionDelivery,
		DeliveryAddress: "ул. Цветочная, 7",
		ShippingCost:    20000,
		PaymentMethod:   domain.PaymentMethodBankTransfer,
		PaymentStatus:   domain.PaymentStatusPaid,
		OrderStatus:     status,
		TotalPrice:      270000,
		ReadyDate:       time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC),
		OrderDate:       time.Now(),
	}
}

// recapOrderFields возвращает валидный набор multipart полей создания заказа.
func recapOrderFields() map[string]string {
	return map[string]string{
		"items":            `[{"product_id":"prod-1","quantity":2,"message":"С 8 марта"}]`,
		"customer_name":    "Иван Иванов",
		"phone_number":     "+79991112233",
		"delivery_option":  "DELIVERY",
		"delivery_address": "ул. Цветочная, 7",
		"shipping_cost":    "20000",
		"payment_method":   "CASH",
		"payment_status":   "PAID",
		"ready_date":       "2026-03-08",
	}
}

// =====================================
// Тесты CreateOrder
// =====================================

func TestRecapCreateOrder_Success(t *testing.T) {
	actor := testAdmin()
	mock := &MockRecapOrderService{
		CreateFunc: func(_ context.Context, gotActor domain.Actor, cmd domain.CreateOrderCommand) (*domain.Order, error) {
			assert.Equal(t, actor.ID, gotActor.ID)
			require.Len(t, cmd.Items, 1)
			assert.Equal(t, "prod-1", cmd.Items[0].ProductID)
			assert.Equal(t, 2, cmd.Items[0].Quantity)
			assert.Equal(t, "С 8 марта", cmd.Items[0].Message)
			assert.Equal(t, domain.DeliveryOptionDelivery, cmd.DeliveryOption)
			assert.Equal(t, int64(20000), cmd.ShippingCost)
			assert.Equal(t, domain.PaymentStatusPaid, cmd.PaymentStatus)
			return testRecapOrder(domain.OrderStatusInProcess), nil
		},
	}

	router := setupRecapTestRouter(NewRecapOrderHandler(mock), &actor)

	body, contentType := checkoutRequestBody(t, recapOrderFields())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/recap/orders", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	var resp OrderResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ORD-MR0007", resp.OrderCode)
	assert.Equal(t, "MYREKAP", resp.Source)
}

func TestRecapCreateOrder_BadItemsJSON(t *testing.T) {
	actor := testAdmin()
	mock := &MockRecapOrderService{
		CreateFunc: func(context.Context, domain.Actor, domain.CreateOrderCommand) (*domain.Order, error) {
			t.Fatal("сервис не должен вызываться при невалидных позициях")
			return nil, nil
		},
	}

	router := setupRecapTestRouter(NewRecapOrderHandler(mock), &actor)

	fields := recapOrderFields()
	fields["items"] = "не json"
	body, contentType := checkoutRequestBody(t, fields)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/recap/orders", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRecapCreateOrder_ProofRequired(t *testing.T) {
	actor := testAdmin()
	mock := &MockRecapOrderService{
		CreateFunc: func(context.Context, domain.Actor, domain.CreateOrderCommand) (*domain.Order, error) {
			return nil, domain.ErrPaymentProofRequired
		},
	}

	router := setupRecapTestRouter(NewRecapOrderHandler(mock), &actor)

	fields := recapOrderFields()
	fields["payment_method"] = "BANK_TRANSFER"
	body, contentType := checkoutRequestBody(t, fields)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/recap/orders", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "validation_failed", resp.Error)
}

// =====================================
// Тесты ListOrders
// =====================================

func TestRecapListOrders_Filters(t *testing.T) {
	actor := testAdmin()
	mock := &MockRecapOrderService{
		ListFunc: func(_ context.Context, filter repository.OrderFilter, page, pageSize int) ([]*domain.Order, int64, error) {
			assert.Equal(t, domain.SourceMyFlower, filter.Source)
			assert.Equal(t, domain.OrderStatusInProcess, filter.Status)
			assert.Equal(t, domain.PaymentMethodQRIS, filter.PaymentMethod)
			assert.Equal(t, "CORPORATE", filter.CustomerCategory)
			return []*domain.Order{testRecapOrder(domain.OrderStatusInProcess)}, 1, nil
		},
	}

	router := setupRecapTestRouter(NewRecapOrderHandler(mock), &actor)

	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/recap/orders?source=MYFLOWER&status=IN_PROCESS&payment_method=QRIS&category=CORPORATE", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRecapListOrders_MonthYear(t *testing.T) {
	actor := testAdmin()
	mock := &MockRecapOrderService{
		ListFunc: func(_ context.Context, filter repository.OrderFilter, page, pageSize int) ([]*domain.Order, int64, error) {
			assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), filter.From)
			assert.Equal(t, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), filter.To)
			return nil, 0, nil
		},
	}

	router := setupRecapTestRouter(NewRecapOrderHandler(mock), &actor)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/recap/orders?month=3&year=2026", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRecapListOrders_BadMonth(t *testing.T) {
	actor := testAdmin()
	router := setupRecapTestRouter(NewRecapOrderHandler(&MockRecapOrderService{}), &actor)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/recap/orders?month=13&year=2026", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// =====================================
// Тесты UpdateStatus / DeleteOrder
// =====================================

func TestRecapUpdateStatus_Success(t *testing.T) {
	actor := testAdmin()
	mock := &MockRecapOrderService{
		UpdateStatusFunc: func(_ context.Context, _ domain.Actor, cmd domain.UpdateStatusCommand) (*domain.Order, error) {
			assert.Equal(t, "order-7", cmd.OrderID)
			assert.Equal(t, domain.OrderStatusCompleted, cmd.Status)
			order := testRecapOrder(domain.OrderStatusCompleted)
			order.PaymentStatus = domain.PaymentStatusPaid
			return order, nil
		},
	}

	router := setupRecapTestRouter(NewRecapOrderHandler(mock), &actor)

	body, contentType := checkoutRequestBody(t, map[string]string{"status": "COMPLETED"})
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/recap/orders/order-7/status", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp OrderResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "COMPLETED", resp.OrderStatus)
	assert.Equal(t, "PAID", resp.PaymentStatus)
}

func TestRecapUpdateStatus_BadStatus(t *testing.T) {
	actor := testAdmin()
	router := setupRecapTestRouter(NewRecapOrderHandler(&MockRecapOrderService{}), &actor)

	body, contentType := checkoutRequestBody(t, map[string]string{"status": "SHIPPED"})
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/recap/orders/order-7/status", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRecapDeleteOrder_Success(t *testing.T) {
	actor := testAdmin()
	removed := false
	mock := &MockRecapOrderService{
		RemoveFunc: func(_ context.Context, orderID string) error {
			assert.Equal(t, "order-7", orderID)
			removed = true
			return nil
		},
	}

	router := setupRecapTestRouter(NewRecapOrderHandler(mock), &actor)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/recap/orders/order-7", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, removed)
}
