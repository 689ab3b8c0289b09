package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"example.com/flower-shop/internal/domain"
)

// ProductRepository определяет интерфейс для работы с каталогом товаров.
// Поле stock напрямую не изменяется — все движения идут через StockRepository.
type ProductRepository interface {
	// Create создаёт новый товар.
	Create(ctx context.Context, product *domain.Product) error

	// GetByID возвращает товар по ID.
	GetByID(ctx context.Context, id string) (*domain.Product, error)

	// GetByIDs возвращает снимок каталога для набора ID.
	// Используется для прайсинга позиций; читается в той же транзакции,
	// что и последующее списание.
	GetByIDs(ctx context.Context, ids []string) (map[string]*domain.Product, error)

	// List возвращает товары с фильтрацией и пагинацией.
	List(ctx context.Context, filter ProductFilter) ([]*domain.Product, int64, error)

	// Update обновляет поля товара, кроме остатка.
	// Доступность товара тоже меняется здесь.
	Update(ctx context.Context, product *domain.Product) error

	// Delete удаляет товар.
	Delete(ctx context.Context, id string) error
}

// ProductFilter — параметры выборки товаров.
type ProductFilter struct {
	Search     string // Подстрока названия
	OnlyActive bool   // Только доступные для заказа
	Offset     int
	Limit      int
}

// ProductModel — GORM модель для таблицы products.
type ProductModel struct {
	ID          string    `gorm:"column:id;type:varchar(36);primaryKey"`
	Code        string    `gorm:"column:code;type:varchar(32);uniqueIndex;not null"`
	Name        string    `gorm:"column:name;type:varchar(255);uniqueIndex;not null"`
	Price       int64     `gorm:"column:price;not null"`
	Description string    `gorm:"column:description;type:text"`
	ImageURL    string    `gorm:"column:image_url;type:varchar(512)"`
	ImageID     string    `gorm:"column:image_id;type:varchar(255)"`
	IsActive    bool      `gorm:"column:is_active;not null;default:true;index"`
	Stock       int       `gorm:"column:stock;not null;default:0"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName возвращает имя таблицы в БД.
func (ProductModel) TableName() string {
	return "products"
}

// toDomain конвертирует GORM модель товара в доменную сущность.
func (m *ProductModel) toDomain() *domain.Product {
	return &domain.Product{
		ID:          m.ID,
		Code:        m.Code,
		Name:        m.Name,
		Price:       m.Price,
		Description: m.Description,
		ImageURL:    m.ImageURL,
		ImageID:     m.ImageID,
		IsActive:    m.IsActive,
		Stock:       m.Stock,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// productModelFromDomain конвертирует доменную сущность товара в GORM модель.
func productModelFromDomain(p *domain.Product) *ProductModel {
	return &ProductModel{
		ID:          p.ID,
		Code:        p.Code,
		Name:        p.Name,
		Price:       p.Price,
		Description: p.Description,
		ImageURL:    p.ImageURL,
		ImageID:     p.ImageID,
		IsActive:    p.IsActive,
		Stock:       p.Stock,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// productRepository — GORM реализация ProductRepository.
type productRepository struct {
	db *gorm.DB
}

// NewProductRepository создаёт новый репозиторий каталога.
func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

// Create создаёт новый товар.
func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	model := productModelFromDomain(product)

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if isDuplicateKeyError(err) {
			return domain.ErrProductNameTaken
		}
		return err
	}

	product.CreatedAt = model.CreatedAt
	product.UpdatedAt = model.UpdatedAt
	return nil
}

// GetByID возвращает товар по ID.
func (r *productRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	var model ProductModel

	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrProductNotFound
		}
		return nil, err
	}

	return model.toDomain(), nil
}

// GetByIDs возвращает снимок каталога для набора ID.
// Отсутствующие товары просто не попадают в результат,
// проверку полноты делает вызывающий.
func (r *productRepository) GetByIDs(ctx context.Context, ids []string) (map[string]*domain.Product, error) {
	if len(ids) == 0 {
		return map[string]*domain.Product{}, nil
	}

	var models []ProductModel
	if err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&models).Error; err != nil {
		return nil, err
	}

	catalog := make(map[string]*domain.Product, len(models))
	for i := range models {
		catalog[models[i].ID] = models[i].toDomain()
	}

	return catalog, nil
}

// List возвращает товары с фильтрацией и пагинацией.
func (r *productRepository) List(ctx context.Context, filter ProductFilter) ([]*domain.Product, int64, error) {
	var models []ProductModel
	var totalCount int64

	query := r.db.WithContext(ctx).Model(&ProductModel{})

	if filter.OnlyActive {
		query = query.Where("is_active = ?", true)
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		query = query.Where("name LIKE ?", "%"+s+"%")
	}

	if err := query.Count(&totalCount).Error; err != nil {
		return nil, 0, err
	}

	if filter.Limit > 0 {
		query = query.Offset(filter.Offset).Limit(filter.Limit)
	}

	if err := query.Order("name ASC").Find(&models).Error; err != nil {
		return nil, 0, err
	}

	products := make([]*domain.Product, len(models))
	for i := range models {
		products[i] = models[i].toDomain()
	}

	return products, totalCount, nil
}

// Update обновляет поля товара, кроме остатка.
// Остаток меняется только через StockRepository.PostStockDelta.
func (r *productRepository) Update(ctx context.Context, product *domain.Product) error {
	result := r.db.WithContext(ctx).
		Model(&ProductModel{}).
		Where("id = ?", product.ID).
		Updates(map[string]interface{}{
			"name":        product.Name,
			"price":       product.Price,
			"description": product.Description,
			"image_url":   product.ImageURL,
			"image_id":    product.ImageID,
			"is_active":   product.IsActive,
			"updated_at":  time.Now(),
		})

	if result.Error != nil {
		if isDuplicateKeyError(result.Error) {
			return domain.ErrProductNameTaken
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrProductNotFound
	}

	return nil
}

// Delete удаляет товар.
func (r *productRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&ProductModel{})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrProductNotFound
	}

	return nil
}

// isDuplicateKeyError проверяет, является ли ошибка дубликатом ключа.
// MySQL возвращает ошибку с кодом 1062 при попытке вставить дубликат.
func isDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	errMsg := err.Error()
	return errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(errMsg, "Duplicate entry") ||
		strings.Contains(errMsg, "1062")
}
