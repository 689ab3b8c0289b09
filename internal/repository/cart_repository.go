package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"example.com/flower-shop/internal/domain"
)

// CartRepository определяет интерфейс для работы с корзинами покупателей.
type CartRepository interface {
	// Upsert добавляет товар в корзину; если товар уже там,
	// количество увеличивается.
	Upsert(ctx context.Context, item *domain.CartItem) error

	// ListByUser возвращает корзину пользователя с товарами.
	ListByUser(ctx context.Context, userID string) ([]*domain.CartItem, error)

	// GetByID возвращает позицию корзины.
	GetByID(ctx context.Context, id string) (*domain.CartItem, error)

	// UpdateQuantity устанавливает новое количество позиции.
	UpdateQuantity(ctx context.Context, id string, quantity int) error

	// Delete удаляет одну позицию корзины.
	Delete(ctx context.Context, id string) error

	// ClearByUser очищает корзину пользователя.
	ClearByUser(ctx context.Context, userID string) error

	// DeleteByProduct удаляет товар из всех корзин.
	// Вызывается при деактивации или удалении товара.
	DeleteByProduct(ctx context.Context, productID string) error
}

// CartItemModel — GORM модель для таблицы cart_items.
// Пара (user_id, product_id) уникальна.
type CartItemModel struct {
	ID        string        `gorm:"column:id;type:varchar(36);primaryKey"`
	UserID    string        `gorm:"column:user_id;type:varchar(36);not null;uniqueIndex:idx_cart_user_product"`
	ProductID string        `gorm:"column:product_id;type:varchar(36);not null;uniqueIndex:idx_cart_user_product"`
	Quantity  int           `gorm:"column:quantity;not null"`
	CreatedAt time.Time     `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time     `gorm:"column:updated_at;autoUpdateTime"`
	Product   *ProductModel `gorm:"foreignKey:ProductID;references:ID"`
}

// TableName возвращает имя таблицы в БД.
func (CartItemModel) TableName() string {
	return "cart_items"
}

// toDomain конвертирует GORM модель позиции корзины в доменную сущность.
func (m *CartItemModel) toDomain() *domain.CartItem {
	item := &domain.CartItem{
		ID:        m.ID,
		UserID:    m.UserID,
		ProductID: m.ProductID,
		Quantity:  m.Quantity,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
	if m.Product != nil {
		item.Product = m.Product.toDomain()
	}
	return item
}

// cartRepository — GORM реализация CartRepository.
type cartRepository struct {
	db *gorm.DB
}

// NewCartRepository создаёт новый репозиторий корзин.
func NewCartRepository(db *gorm.DB) CartRepository {
	return &cartRepository{db: db}
}

// Upsert добавляет товар в корзину или увеличивает количество.
func (r *cartRepository) Upsert(ctx context.Context, item *domain.CartItem) error {
	var existing CartItemModel

	err := r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", item.UserID, item.ProductID).
		First(&existing).Error

	switch {
	case err == nil:
		// Позиция уже есть — увеличиваем количество.
		result := r.db.WithContext(ctx).
			Model(&CartItemModel{}).
			Where("id = ?", existing.ID).
			Updates(map[string]interface{}{
				"quantity":   gorm.Expr("quantity + ?", item.Quantity),
				"updated_at": time.Now(),
			})
		if result.Error != nil {
			return result.Error
		}
		item.ID = existing.ID
		item.Quantity += existing.Quantity
		return nil

	case errors.Is(err, gorm.ErrRecordNotFound):
		model := &CartItemModel{
			ID:        item.ID,
			UserID:    item.UserID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		}
		return r.db.WithContext(ctx).Create(model).Error

	default:
		return err
	}
}

// ListByUser возвращает корзину пользователя с подгруженными товарами.
func (r *cartRepository) ListByUser(ctx context.Context, userID string) ([]*domain.CartItem, error) {
	var models []CartItemModel

	if err := r.db.WithContext(ctx).
		Preload("Product").
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&models).Error; err != nil {
		return nil, err
	}

	items := make([]*domain.CartItem, len(models))
	for i := range models {
		items[i] = models[i].toDomain()
	}

	return items, nil
}

// GetByID возвращает позицию корзины с товаром.
func (r *cartRepository) GetByID(ctx context.Context, id string) (*domain.CartItem, error) {
	var model CartItemModel

	if err := r.db.WithContext(ctx).
		Preload("Product").
		Where("id = ?", id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCartItemNotFound
		}
		return nil, err
	}

	return model.toDomain(), nil
}

// UpdateQuantity устанавливает новое количество позиции.
func (r *cartRepository) UpdateQuantity(ctx context.Context, id string, quantity int) error {
	if quantity < 1 {
		return domain.ErrInvalidQuantity
	}

	result := r.db.WithContext(ctx).
		Model(&CartItemModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"quantity":   quantity,
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrCartItemNotFound
	}

	return nil
}

// Delete удаляет одну позицию корзины.
func (r *cartRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&CartItemModel{})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrCartItemNotFound
	}

	return nil
}

// ClearByUser очищает корзину пользователя.
func (r *cartRepository) ClearByUser(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&CartItemModel{}).Error
}

// DeleteByProduct удаляет товар из всех корзин.
func (r *cartRepository) DeleteByProduct(ctx context.Context, productID string) error {
	return r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Delete(&CartItemModel{}).Error
}
