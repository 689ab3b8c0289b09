// Package testutil содержит общие моки для unit-тестов сервисного слоя.
// Моки вынесены сюда для избежания дублирования между пакетами.
package testutil

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"example.com/flower-shop/internal/domain"
	"example.com/flower-shop/internal/filestore"
	"example.com/flower-shop/internal/notify"
	"example.com/flower-shop/internal/repository"
)

// =============================================================================
// MockOrderRepository — мок для repository.OrderRepository
// =============================================================================

// MockOrderRepository — мок OrderRepository для unit-тестов.
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	return m.Called(ctx, order).Error(0)
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderRepository) List(ctx context.Context, filter repository.OrderFilter) ([]*domain.Order, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*domain.Order), args.Get(1).(int64), args.Error(2)
}

func (m *MockOrderRepository) Update(ctx context.Context, order *domain.Order) error {
	return m.Called(ctx, order).Error(0)
}

func (m *MockOrderRepository) ReplaceItems(ctx context.Context, orderID string, items []domain.OrderItem) error {
	return m.Called(ctx, orderID, items).Error(0)
}

func (m *MockOrderRepository) UpsertImage(ctx context.Context, image *domain.OrderImage) error {
	return m.Called(ctx, image).Error(0)
}

func (m *MockOrderRepository) DeleteImage(ctx context.Context, orderID string, imageType domain.OrderImageType) (*domain.OrderImage, error) {
	args := m.Called(ctx, orderID, imageType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OrderImage), args.Error(1)
}

func (m *MockOrderRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

// =============================================================================
// MockProductRepository — мок для repository.ProductRepository
// =============================================================================

// MockProductRepository — мок ProductRepository для unit-тестов.
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	return m.Called(ctx, product).Error(0)
}

func (m *MockProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *MockProductRepository) GetByIDs(ctx context.Context, ids []string) (map[string]*domain.Product, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]*domain.Product), args.Error(1)
}

func (m *MockProductRepository) List(ctx context.Context, filter repository.ProductFilter) ([]*domain.Product, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*domain.Product), args.Get(1).(int64), args.Error(2)
}

func (m *MockProductRepository) Update(ctx context.Context, product *domain.Product) error {
	return m.Called(ctx, product).Error(0)
}

func (m *MockProductRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

// =============================================================================
// MockStockRepository — мок для repository.StockRepository
// =============================================================================

// MockStockRepository — мок StockRepository для unit-тестов.
type MockStockRepository struct {
	mock.Mock
}

func (m *MockStockRepository) PostStockDelta(ctx context.Context, req repository.StockDeltaRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *MockStockRepository) ListByProduct(ctx context.Context, productID string, offset, limit int) ([]*domain.StockTransaction, int64, error) {
	args := m.Called(ctx, productID, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*domain.StockTransaction), args.Get(1).(int64), args.Error(2)
}

func (m *MockStockRepository) MonthlyReport(ctx context.Context, year int, month time.Month) ([]repository.StockReportRow, error) {
	args := m.Called(ctx, year, month)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repository.StockReportRow), args.Error(1)
}

// =============================================================================
// MockCartRepository — мок для repository.CartRepository
// =============================================================================

// MockCartRepository — мок CartRepository для unit-тестов.
type MockCartRepository struct {
	mock.Mock
}

func (m *MockCartRepository) Upsert(ctx context.Context, item *domain.CartItem) error {
	return m.Called(ctx, item).Error(0)
}

func (m *MockCartRepository) ListByUser(ctx context.Context, userID string) ([]*domain.CartItem, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.CartItem), args.Error(1)
}

func (m *MockCartRepository) GetByID(ctx context.Context, id string) (*domain.CartItem, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CartItem), args.Error(1)
}

func (m *MockCartRepository) UpdateQuantity(ctx context.Context, id string, quantity int) error {
	return m.Called(ctx, id, quantity).Error(0)
}

func (m *MockCartRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockCartRepository) ClearByUser(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *MockCartRepository) DeleteByProduct(ctx context.Context, productID string) error {
	return m.Called(ctx, productID).Error(0)
}

// =============================================================================
// MockUserRepository — мок для repository.UserRepository
// =============================================================================

// MockUserRepository — мок UserRepository для unit-тестов.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetByLogin(ctx context.Context, login string) (*domain.User, error) {
	args := m.Called(ctx, login)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

// =============================================================================
// MockFileStore — мок для filestore.FileStore
// =============================================================================

// MockFileStore — мок удалённого хранилища файлов для unit-тестов.
type MockFileStore struct {
	mock.Mock
}

func (m *MockFileStore) Store(ctx context.Context, data []byte, folder, name string) (*filestore.UploadResult, error) {
	args := m.Called(ctx, data, folder, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*filestore.UploadResult), args.Error(1)
}

func (m *MockFileStore) Delete(ctx context.Context, remoteID string) error {
	return m.Called(ctx, remoteID).Error(0)
}

// =============================================================================
// MockNotifier — мок для notify.Notifier
// =============================================================================

// MockNotifier — мок отправителя уведомлений для unit-тестов.
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, kind notify.Kind, orderID string, extra map[string]string) {
	m.Called(ctx, kind, orderID, extra)
}
