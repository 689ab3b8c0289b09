package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"example.com/flower-shop/internal/domain"
	"example.com/flower-shop/internal/filestore"
	"example.com/flower-shop/internal/repository"
	"example.com/flower-shop/pkg/codes"
)

// productFixture — собранный сервис каталога поверх моков.
type productFixture struct {
	products *MockProductRepository
	stock    *MockStockRepository
	carts    *MockCartRepository
	files    *MockFileStore
	svc      ProductService
}

func newProductFixture() *productFixture {
	f := &productFixture{
		products: new(MockProductRepository),
		stock:    new(MockStockRepository),
		carts:    new(MockCartRepository),
		files:    new(MockFileStore),
	}
	repos := repository.Assemble(new(MockOrderRepository), f.products, f.stock, f.carts, new(MockUserRepository))
	f.svc = NewProductService(repos, codes.NewGenerator(), NewEffects(f.files, new(MockNotifier)), nil)
	return f
}

// =====================================
// Тесты Create
// =====================================

// TestProductService_Create тестирует создание товара: начальный остаток
// проводится через складской журнал, а не пишется в поле напрямую.
func TestProductService_Create(t *testing.T) {
	f := newProductFixture()

	f.products.On("Create", mock.Anything, mock.AnythingOfType("*domain.Product")).Return(nil)
	f.stock.On("PostStockDelta", mock.Anything, mock.MatchedBy(func(req repository.StockDeltaRequest) bool {
		return req.Type == domain.StockIn && req.Quantity == 15 && req.Note == "Initial stock"
	})).Return("stock-tx-1", nil)

	product, err := f.svc.Create(context.Background(), CreateProductCommand{
		Name:         "Букет роз",
		Price:        150000,
		Description:  "25 красных роз",
		InitialStock: 15,
	})

	require.NoError(t, err)
	require.NotNil(t, product)
	assert.True(t, codes.HasKind(product.Code, codes.KindProduct))
	assert.True(t, product.IsActive)
	assert.Equal(t, 15, product.Stock)
	f.products.AssertExpectations(t)
	f.stock.AssertExpectations(t)
}

// TestProductService_Create_NoInitialStock тестирует создание без остатка:
// складской журнал не трогается.
func TestProductService_Create_NoInitialStock(t *testing.T) {
	f := newProductFixture()

	f.products.On("Create", mock.Anything, mock.Anything).Return(nil)

	product, err := f.svc.Create(context.Background(), CreateProductCommand{
		Name:  "Букет тюльпанов",
		Price: 90000,
	})

	require.NoError(t, err)
	assert.Equal(t, 0, product.Stock)
	f.stock.AssertNotCalled(t, "PostStockDelta")
}

// TestProductService_Create_Validation тестирует отказы валидации товара.
func TestProductService_Create_Validation(t *testing.T) {
	tests := []struct {
		name    string
		cmd     CreateProductCommand
		wantErr error
	}{
		{
			name:    "пустое название",
			cmd:     CreateProductCommand{Name: "  ", Price: 1000},
			wantErr: domain.ErrProductNameRequired,
		},
		{
			name:    "нулевая цена",
			cmd:     CreateProductCommand{Name: "Букет", Price: 0},
			wantErr: domain.ErrInvalidPrice,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newProductFixture()

			product, err := f.svc.Create(context.Background(), tt.cmd)

			require.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, product)
			f.products.AssertNotCalled(t, "Create")
		})
	}
}

// TestProductService_Create_CompensatesUpload тестирует компенсацию:
// при откате транзакции загруженное изображение удаляется.
func TestProductService_Create_CompensatesUpload(t *testing.T) {
	f := newProductFixture()

	f.files.On("Store", mock.Anything, mock.Anything, "products", mock.Anything).
		Return(&filestore.UploadResult{URL: "https://cdn/rose.jpg", RemoteID: "remote-7"}, nil)
	f.products.On("Create", mock.Anything, mock.Anything).Return(domain.ErrProductNameTaken)
	f.files.On("Delete", mock.Anything, "remote-7").Return(nil)

	product, err := f.svc.Create(context.Background(), CreateProductCommand{
		Name:  "Букет роз",
		Price: 150000,
		Image: &domain.FileUpload{Name: "rose.jpg", ContentType: "image/jpeg", Data: []byte("img")},
	})

	require.ErrorIs(t, err, domain.ErrProductNameTaken)
	assert.Nil(t, product)
	f.files.AssertCalled(t, "Delete", mock.Anything, "remote-7")
}

// =====================================
// Тесты Update
// =====================================

// TestProductService_Update_DeactivationClearsCarts тестирует каскад
// деактивации: товар выносится из всех корзин в той же транзакции.
func TestProductService_Update_DeactivationClearsCarts(t *testing.T) {
	f := newProductFixture()

	existing := activeProduct("prod-1", 150000, 5)
	f.products.On("GetByID", mock.Anything, "prod-1").Return(existing, nil)
	f.products.On("Update", mock.Anything, mock.Anything).Return(nil)
	f.carts.On("DeleteByProduct", mock.Anything, "prod-1").Return(nil)

	updated, err := f.svc.Update(context.Background(), UpdateProductCommand{
		ID:       "prod-1",
		Name:     "Букет prod-1",
		Price:    150000,
		IsActive: false,
	})

	require.NoError(t, err)
	assert.False(t, updated.IsActive)
	f.carts.AssertCalled(t, "DeleteByProduct", mock.Anything, "prod-1")
}

// TestProductService_Update_StaysActive тестирует, что правка без
// деактивации не трогает корзины.
func TestProductService_Update_StaysActive(t *testing.T) {
	f := newProductFixture()

	existing := activeProduct("prod-1", 150000, 5)
	f.products.On("GetByID", mock.Anything, "prod-1").Return(existing, nil)
	f.products.On("Update", mock.Anything, mock.Anything).Return(nil)

	updated, err := f.svc.Update(context.Background(), UpdateProductCommand{
		ID:       "prod-1",
		Name:     "Новое название",
		Price:    175000,
		IsActive: true,
	})

	require.NoError(t, err)
	assert.Equal(t, "Новое название", updated.Name)
	f.carts.AssertNotCalled(t, "DeleteByProduct")
}

// TestProductService_Update_ReplacesImage тестирует замену изображения:
// старый файл чистится после коммита.
func TestProductService_Update_ReplacesImage(t *testing.T) {
	f := newProductFixture()

	existing := activeProduct("prod-1", 150000, 5)
	existing.ImageID = "remote-old"
	f.files.On("Store", mock.Anything, mock.Anything, "products", mock.Anything).
		Return(&filestore.UploadResult{URL: "https://cdn/new.jpg", RemoteID: "remote-new"}, nil)
	f.products.On("GetByID", mock.Anything, "prod-1").Return(existing, nil)
	f.products.On("Update", mock.Anything, mock.MatchedBy(func(p *domain.Product) bool {
		return p.ImageID == "remote-new"
	})).Return(nil)
	f.files.On("Delete", mock.Anything, "remote-old").Return(nil)

	_, err := f.svc.Update(context.Background(), UpdateProductCommand{
		ID:       "prod-1",
		Name:     "Букет prod-1",
		Price:    150000,
		IsActive: true,
		Image:    &domain.FileUpload{Name: "new.jpg", ContentType: "image/jpeg", Data: []byte("img")},
	})

	require.NoError(t, err)
	f.files.AssertCalled(t, "Delete", mock.Anything, "remote-old")
}

// =====================================
// Тесты ManageStock
// =====================================

// TestProductService_ManageStock тестирует ручное движение остатков.
func TestProductService_ManageStock(t *testing.T) {
	f := newProductFixture()

	f.stock.On("PostStockDelta", mock.Anything, mock.MatchedBy(func(req repository.StockDeltaRequest) bool {
		return req.ProductID == "prod-1" &&
			req.Type == domain.StockIn &&
			req.Quantity == 10 &&
			req.Reason == domain.ReasonManual &&
			req.Note == "Приход от поставщика"
	})).Return("stock-tx-1", nil)
	f.products.On("GetByID", mock.Anything, "prod-1").
		Return(activeProduct("prod-1", 150000, 15), nil)

	product, err := f.svc.ManageStock(context.Background(), "prod-1", domain.StockIn, 10, "Приход от поставщика")

	require.NoError(t, err)
	assert.Equal(t, 15, product.Stock)
	f.stock.AssertExpectations(t)
}

// TestProductService_ManageStock_Insufficient тестирует отказ ручного
// списания сверх остатка.
func TestProductService_ManageStock_Insufficient(t *testing.T) {
	f := newProductFixture()

	f.stock.On("PostStockDelta", mock.Anything, mock.Anything).
		Return("", domain.ErrStockInsufficient)

	product, err := f.svc.ManageStock(context.Background(), "prod-1", domain.StockOut, 100, "Списание брака")

	require.ErrorIs(t, err, domain.ErrStockInsufficient)
	assert.Nil(t, product)
}

// =====================================
// Тесты Delete
// =====================================

// TestProductService_Delete тестирует удаление товара: корзины чистятся
// в транзакции, изображение — после коммита.
func TestProductService_Delete(t *testing.T) {
	f := newProductFixture()

	existing := activeProduct("prod-1", 150000, 5)
	existing.ImageID = "remote-1"
	f.products.On("GetByID", mock.Anything, "prod-1").Return(existing, nil)
	f.carts.On("DeleteByProduct", mock.Anything, "prod-1").Return(nil)
	f.products.On("Delete", mock.Anything, "prod-1").Return(nil)
	f.files.On("Delete", mock.Anything, "remote-1").Return(nil)

	err := f.svc.Delete(context.Background(), "prod-1")

	require.NoError(t, err)
	f.products.AssertExpectations(t)
	f.carts.AssertExpectations(t)
	f.files.AssertExpectations(t)
}
