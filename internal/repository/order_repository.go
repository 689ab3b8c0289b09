package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"example.com/flower-shop/internal/domain"
)

// OrderRepository определяет интерфейс для работы с заказами.
type OrderRepository interface {
	// Create создаёт заказ вместе с позициями и изображениями.
	Create(ctx context.Context, order *domain.Order) error

	// GetByID возвращает заказ с позициями и изображениями.
	GetByID(ctx context.Context, id string) (*domain.Order, error)

	// List возвращает заказы по фильтру с пагинацией.
	List(ctx context.Context, filter OrderFilter) ([]*domain.Order, int64, error)

	// Update обновляет поля заказа (без позиций и изображений).
	Update(ctx context.Context, order *domain.Order) error

	// ReplaceItems целиком заменяет набор позиций заказа:
	// старые удаляются, новые вставляются.
	ReplaceItems(ctx context.Context, orderID string, items []domain.OrderItem) error

	// UpsertImage сохраняет изображение заказа, удаляя существующее
	// того же типа. Инвариант: не более одного изображения на (заказ, тип).
	UpsertImage(ctx context.Context, image *domain.OrderImage) error

	// DeleteImage удаляет изображение заданного типа и возвращает его
	// для последующей очистки удалённого хранилища.
	DeleteImage(ctx context.Context, orderID string, imageType domain.OrderImageType) (*domain.OrderImage, error)

	// Delete жёстко удаляет заказ вместе с позициями и изображениями.
	Delete(ctx context.Context, id string) error
}

// OrderFilter — параметры выборки заказов.
type OrderFilter struct {
	UserID           string               // Заказы конкретного пользователя
	Source           domain.OrderSource   // Канал создания
	Status           domain.OrderStatus   // Статус заказа
	PaymentMethod    domain.PaymentMethod // Способ оплаты
	CustomerCategory string               // Категория покупателя
	From, To         time.Time            // Интервал по дате заказа
	Search           string               // Подстрока кода заказа или имени покупателя
	Offset           int
	Limit            int
}

// OrderModel — GORM модель для таблицы orders.
type OrderModel struct {
	ID               string            `gorm:"column:id;type:varchar(36);primaryKey"`
	OrderCode        string            `gorm:"column:order_code;type:varchar(32);uniqueIndex;not null"`
	Source           string            `gorm:"column:source;type:varchar(10);not null;index"`
	UserID           string            `gorm:"column:user_id;type:varchar(36);not null;index"`
	CustomerName     string            `gorm:"column:customer_name;type:varchar(255);not null"`
	CustomerCategory string            `gorm:"column:customer_category;type:varchar(50)"`
	PhoneNumber      string            `gorm:"column:phone_number;type:varchar(32)"`
	DeliveryOption   string            `gorm:"column:delivery_option;type:varchar(15);not null"`
	DeliveryAddress  string            `gorm:"column:delivery_address;type:text"`
	ShippingCost     int64             `gorm:"column:shipping_cost;not null;default:0"`
	PaymentMethod    string            `gorm:"column:payment_method;type:varchar(20)"`
	PaymentStatus    string            `gorm:"column:payment_status;type:varchar(10);not null"`
	OrderStatus      string            `gorm:"column:order_status;type:varchar(15);not null;index"`
	TotalPrice       int64             `gorm:"column:total_price;not null"`
	ReadyDate        time.Time         `gorm:"column:ready_date"`
	OrderDate        time.Time         `gorm:"column:order_date;not null;index"`
	CreatedAt        time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time         `gorm:"column:updated_at;autoUpdateTime"`
	Items            []OrderItemModel  `gorm:"foreignKey:OrderID;references:ID"`
	Images           []OrderImageModel `gorm:"foreignKey:OrderID;references:ID"`
}

// TableName возвращает имя таблицы в БД.
func (OrderModel) TableName() string {
	return "orders"
}

// OrderItemModel — GORM модель для таблицы order_items.
type OrderItemModel struct {
	ID         string    `gorm:"column:id;type:varchar(36);primaryKey"`
	OrderID    string    `gorm:"column:order_id;type:varchar(36);not null;index"`
	ProductID  string    `gorm:"column:product_id;type:varchar(36);not null"`
	Quantity   int       `gorm:"column:quantity;not null"`
	UnitPrice  int64     `gorm:"column:unit_price;not null"`
	TotalPrice int64     `gorm:"column:total_price;not null"`
	Message    string    `gorm:"column:message;type:text"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName возвращает имя таблицы в БД.
func (OrderItemModel) TableName() string {
	return "order_items"
}

// OrderImageModel — GORM модель для таблицы order_images.
// Уникальный индекс на (order_id, type) закрепляет инвариант
// "одно изображение на тип" на уровне схемы.
type OrderImageModel struct {
	ID        string    `gorm:"column:id;type:varchar(36);primaryKey"`
	OrderID   string    `gorm:"column:order_id;type:varchar(36);not null;uniqueIndex:idx_order_image_type"`
	Type      string    `gorm:"column:type;type:varchar(20);not null;uniqueIndex:idx_order_image_type"`
	URL       string    `gorm:"column:url;type:varchar(512);not null"`
	RemoteID  string    `gorm:"column:remote_id;type:varchar(255);not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName возвращает имя таблицы в БД.
func (OrderImageModel) TableName() string {
	return "order_images"
}

// toDomain конвертирует GORM модель заказа в доменную сущность.
func (m *OrderModel) toDomain() *domain.Order {
	order := &domain.Order{
		ID:               m.ID,
		OrderCode:        m.OrderCode,
		Source:           domain.OrderSource(m.Source),
		UserID:           m.UserID,
		CustomerName:     m.CustomerName,
		CustomerCategory: m.CustomerCategory,
		PhoneNumber:      m.PhoneNumber,
		DeliveryOption:   domain.DeliveryOption(m.DeliveryOption),
		DeliveryAddress:  m.DeliveryAddress,
		ShippingCost:     m.ShippingCost,
		PaymentMethod:    domain.PaymentMethod(m.PaymentMethod),
		PaymentStatus:    domain.PaymentStatus(m.PaymentStatus),
		OrderStatus:      domain.OrderStatus(m.OrderStatus),
		TotalPrice:       m.TotalPrice,
		ReadyDate:        m.ReadyDate,
		OrderDate:        m.OrderDate,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
		Items:            make([]domain.OrderItem, len(m.Items)),
		Images:           make([]domain.OrderImage, len(m.Images)),
	}

	for i, item := range m.Items {
		order.Items[i] = domain.OrderItem{
			ID:         item.ID,
			OrderID:    item.OrderID,
			ProductID:  item.ProductID,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
			TotalPrice: item.TotalPrice,
			Message:    item.Message,
		}
	}
	for i, img := range m.Images {
		order.Images[i] = domain.OrderImage{
			ID:        img.ID,
			OrderID:   img.OrderID,
			Type:      domain.OrderImageType(img.Type),
			URL:       img.URL,
			RemoteID:  img.RemoteID,
			CreatedAt: img.CreatedAt,
		}
	}

	return order
}

// orderModelFromDomain конвертирует доменную сущность заказа в GORM модель.
func orderModelFromDomain(o *domain.Order) *OrderModel {
	model := &OrderModel{
		ID:               o.ID,
		OrderCode:        o.OrderCode,
		Source:           string(o.Source),
		UserID:           o.UserID,
		CustomerName:     o.CustomerName,
		CustomerCategory: o.CustomerCategory,
		PhoneNumber:      o.PhoneNumber,
		DeliveryOption:   string(o.DeliveryOption),
		DeliveryAddress:  o.DeliveryAddress,
		ShippingCost:     o.ShippingCost,
		PaymentMethod:    string(o.PaymentMethod),
		PaymentStatus:    string(o.PaymentStatus),
		OrderStatus:      string(o.OrderStatus),
		TotalPrice:       o.TotalPrice,
		ReadyDate:        o.ReadyDate,
		OrderDate:        o.OrderDate,
		Items:            make([]OrderItemModel, len(o.Items)),
		Images:           make([]OrderImageModel, len(o.Images)),
	}

	for i, item := range o.Items {
		model.Items[i] = orderItemModelFromDomain(&item)
	}
	for i, img := range o.Images {
		model.Images[i] = OrderImageModel{
			ID:       img.ID,
			OrderID:  img.OrderID,
			Type:     string(img.Type),
			URL:      img.URL,
			RemoteID: img.RemoteID,
		}
	}

	return model
}

// orderItemModelFromDomain конвертирует доменную позицию в GORM модель.
func orderItemModelFromDomain(oi *domain.OrderItem) OrderItemModel {
	return OrderItemModel{
		ID:         oi.ID,
		OrderID:    oi.OrderID,
		ProductID:  oi.ProductID,
		Quantity:   oi.Quantity,
		UnitPrice:  oi.UnitPrice,
		TotalPrice: oi.TotalPrice,
		Message:    oi.Message,
	}
}

// orderRepository — GORM реализация OrderRepository.
type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository создаёт новый репозиторий заказов.
func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

// Create создаёт заказ с позициями и изображениями.
// GORM вставляет ассоциации вместе с корневой записью.
func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	model := orderModelFromDomain(order)

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}

	order.CreatedAt = model.CreatedAt
	order.UpdatedAt = model.UpdatedAt
	return nil
}

// GetByID возвращает заказ с позициями и изображениями.
func (r *orderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	var model OrderModel

	if err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Images").
		Where("id = ?", id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, err
	}

	return model.toDomain(), nil
}

// List возвращает заказы по фильтру с пагинацией, новые первыми.
func (r *orderRepository) List(ctx context.Context, filter OrderFilter) ([]*domain.Order, int64, error) {
	var models []OrderModel
	var totalCount int64

	query := r.db.WithContext(ctx).Model(&OrderModel{})

	if filter.UserID != "" {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Source != "" {
		query = query.Where("source = ?", string(filter.Source))
	}
	if filter.Status != "" {
		query = query.Where("order_status = ?", string(filter.Status))
	}
	if filter.PaymentMethod != "" {
		query = query.Where("payment_method = ?", string(filter.PaymentMethod))
	}
	if filter.CustomerCategory != "" {
		query = query.Where("customer_category = ?", filter.CustomerCategory)
	}
	if !filter.From.IsZero() {
		query = query.Where("order_date >= ?", filter.From)
	}
	if !filter.To.IsZero() {
		query = query.Where("order_date < ?", filter.To)
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("order_code LIKE ? OR customer_name LIKE ?", pattern, pattern)
	}

	if err := query.Count(&totalCount).Error; err != nil {
		return nil, 0, err
	}

	if filter.Limit > 0 {
		query = query.Offset(filter.Offset).Limit(filter.Limit)
	}

	if err := query.
		Preload("Items").
		Preload("Images").
		Order("order_date DESC").
		Find(&models).Error; err != nil {
		return nil, 0, err
	}

	orders := make([]*domain.Order, len(models))
	for i := range models {
		orders[i] = models[i].toDomain()
	}

	return orders, totalCount, nil
}

// Update обновляет поля заказа. Позиции и изображения не трогает —
// для них есть ReplaceItems и UpsertImage.
func (r *orderRepository) Update(ctx context.Context, order *domain.Order) error {
	result := r.db.WithContext(ctx).
		Model(&OrderModel{}).
		Where("id = ?", order.ID).
		Updates(map[string]interface{}{
			"customer_name":     order.CustomerName,
			"customer_category": order.CustomerCategory,
			"phone_number":      order.PhoneNumber,
			"delivery_option":   string(order.DeliveryOption),
			"delivery_address":  order.DeliveryAddress,
			"shipping_cost":     order.ShippingCost,
			"payment_method":    string(order.PaymentMethod),
			"payment_status":    string(order.PaymentStatus),
			"order_status":      string(order.OrderStatus),
			"total_price":       order.TotalPrice,
			"ready_date":        order.ReadyDate,
			"updated_at":        time.Now(),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrOrderNotFound
	}

	return nil
}

// ReplaceItems целиком заменяет набор позиций заказа.
func (r *orderRepository) ReplaceItems(ctx context.Context, orderID string, items []domain.OrderItem) error {
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Delete(&OrderItemModel{}).Error; err != nil {
		return err
	}

	if len(items) == 0 {
		return nil
	}

	models := make([]OrderItemModel, len(items))
	for i := range items {
		items[i].OrderID = orderID
		models[i] = orderItemModelFromDomain(&items[i])
	}

	return r.db.WithContext(ctx).Create(&models).Error
}

// UpsertImage сохраняет изображение, удаляя существующее того же типа.
func (r *orderRepository) UpsertImage(ctx context.Context, image *domain.OrderImage) error {
	if err := r.db.WithContext(ctx).
		Where("order_id = ? AND type = ?", image.OrderID, string(image.Type)).
		Delete(&OrderImageModel{}).Error; err != nil {
		return err
	}

	model := &OrderImageModel{
		ID:       image.ID,
		OrderID:  image.OrderID,
		Type:     string(image.Type),
		URL:      image.URL,
		RemoteID: image.RemoteID,
	}
	return r.db.WithContext(ctx).Create(model).Error
}

// DeleteImage удаляет изображение заданного типа и возвращает его.
// Возвращает (nil, nil), если изображения не было.
func (r *orderRepository) DeleteImage(ctx context.Context, orderID string, imageType domain.OrderImageType) (*domain.OrderImage, error) {
	var model OrderImageModel

	err := r.db.WithContext(ctx).
		Where("order_id = ? AND type = ?", orderID, string(imageType)).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	if err := r.db.WithContext(ctx).
		Where("id = ?", model.ID).
		Delete(&OrderImageModel{}).Error; err != nil {
		return nil, err
	}

	return &domain.OrderImage{
		ID:        model.ID,
		OrderID:   model.OrderID,
		Type:      domain.OrderImageType(model.Type),
		URL:       model.URL,
		RemoteID:  model.RemoteID,
		CreatedAt: model.CreatedAt,
	}, nil
}

// Delete жёстко удаляет заказ вместе с позициями и изображениями.
func (r *orderRepository) Delete(ctx context.Context, id string) error {
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", id).
		Delete(&OrderItemModel{}).Error; err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", id).
		Delete(&OrderImageModel{}).Error; err != nil {
		return err
	}

	result := r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&OrderModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrOrderNotFound
	}

	return nil
}
