package handler

import (
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"example.com/flower-shop/internal/domain"
	"example.com/flower-shop/internal/middleware"
)

// === Общие DTO ===

// PaginationResponse — информация о пагинации.
type PaginationResponse struct {
	CurrentPage int   `json:"current_page"`
	PageSize    int   `json:"page_size"`
	TotalItems  int64 `json:"total_items"`
	TotalPages  int   `json:"total_pages"`
}

func paginationOf(page, pageSize int, total int64) PaginationResponse {
	totalPages := int(total) / pageSize
	if int(total)%pageSize != 0 {
		totalPages++
	}
	return PaginationResponse{
		CurrentPage: page,
		PageSize:    pageSize,
		TotalItems:  total,
		TotalPages:  totalPages,
	}
}

// OrderItemResponse — позиция заказа в ответе.
type OrderItemResponse struct {
	ID         string `json:"id"`
	ProductID  string `json:"product_id"`
	Quantity   int    `json:"quantity"`
	UnitPrice  int64  `json:"unit_price"`
	TotalPrice int64  `json:"total_price"`
	Message    string `json:"message,omitempty"`
}

// OrderImageResponse — изображение заказа в ответе.
type OrderImageResponse struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

// OrderResponse — заказ в ответе.
type OrderResponse struct {
	ID               string               `json:"id"`
	OrderCode        string               `json:"order_code"`
	Source           string               `json:"source"`
	CustomerName     string               `json:"customer_name"`
	CustomerCategory string               `json:"customer_category,omitempty"`
	PhoneNumber      string               `json:"phone_number"`
	DeliveryOption   string               `json:"delivery_option"`
	DeliveryAddress  string               `json:"delivery_address,omitempty"`
	ShippingCost     int64                `json:"shipping_cost"`
	PaymentMethod    string               `json:"payment_method,omitempty"`
	PaymentStatus    string               `json:"payment_status"`
	OrderStatus      string               `json:"order_status"`
	TotalPrice       int64                `json:"total_price"`
	ReadyDate        time.Time            `json:"ready_date"`
	OrderDate        time.Time            `json:"order_date"`
	Items            []OrderItemResponse  `json:"items"`
	Images           []OrderImageResponse `json:"images,omitempty"`
}

func orderToResponse(o *domain.Order) OrderResponse {
	items := make([]OrderItemResponse, len(o.Items))
	for i, it := range o.Items {
		items[i] = OrderItemResponse{
			ID:         it.ID,
			ProductID:  it.ProductID,
			Quantity:   it.Quantity,
			UnitPrice:  it.UnitPrice,
			TotalPrice: it.TotalPrice,
			Message:    it.Message,
		}
	}

	var images []OrderImageResponse
	for _, img := range o.Images {
		images = append(images, OrderImageResponse{
			Type: string(img.Type),
			URL:  img.URL,
		})
	}

	return OrderResponse{
		ID:               o.ID,
		OrderCode:        o.OrderCode,
		Source:           string(o.Source),
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
		Items:            items,
		Images:           images,
	}
}

// ProductResponse — товар в ответе.
type ProductResponse struct {
	ID          string `json:"id"`
	Code        string `json:"code"`
	Name        string `json:"name"`
	Price       int64  `json:"price"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
	IsActive    bool   `json:"is_active"`
	Stock       int    `json:"stock"`
}

func productToResponse(p *domain.Product) ProductResponse {
	return ProductResponse{
		ID:          p.ID,
		Code:        p.Code,
		Name:        p.Name,
		Price:       p.Price,
		Description: p.Description,
		ImageURL:    p.ImageURL,
		IsActive:    p.IsActive,
		Stock:       p.Stock,
	}
}

// CartItemResponse — позиция корзины в ответе.
type CartItemResponse struct {
	ID       string           `json:"id"`
	Quantity int              `json:"quantity"`
	Product  *ProductResponse `json:"product,omitempty"`
}

func cartItemToResponse(ci *domain.CartItem) CartItemResponse {
	resp := CartItemResponse{
		ID:       ci.ID,
		Quantity: ci.Quantity,
	}
	if ci.Product != nil {
		pr := productToResponse(ci.Product)
		resp.Product = &pr
	}
	return resp
}

// StockTransactionResponse — движение остатков в ответе.
type StockTransactionResponse struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Quantity  int       `json:"quantity"`
	Note      string    `json:"note"`
	CreatedAt time.Time `json:"created_at"`
}

func stockTransactionToResponse(tx *domain.StockTransaction) StockTransactionResponse {
	return StockTransactionResponse{
		ID:        tx.ID,
		Type:      string(tx.Type),
		Quantity:  tx.Quantity,
		Note:      tx.Note,
		CreatedAt: tx.CreatedAt,
	}
}

// === Вспомогательные функции ===

// maxUploadSize — предел размера загружаемого изображения (5 МБ).
const maxUploadSize = 5 << 20

// parsePagination читает query параметры page и page_size.
func parsePagination(c *gin.Context) (int, int) {
	page := 1
	pageSize := 20

	if pageStr := c.Query("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			page = p
		}
	}
	if pageSizeStr := c.Query("page_size"); pageSizeStr != "" {
		if ps, err := strconv.Atoi(pageSizeStr); err == nil && ps > 0 && ps <= 100 {
			pageSize = ps
		}
	}

	return page, pageSize
}

// actorOrAbort достаёт Actor из контекста; его отсутствие после
// AuthMiddleware — ошибка конфигурации маршрутов.
func actorOrAbort(c *gin.Context) (domain.Actor, bool) {
	actor, ok := middleware.ActorFromGin(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "Требуется авторизация",
		})
		return domain.Actor{}, false
	}
	return actor, true
}

// fileFromForm читает файл из multipart поля. Отсутствие поля — не ошибка.
func fileFromForm(c *gin.Context, field string) (*domain.FileUpload, error) {
	header, err := c.FormFile(field)
	if err != nil {
		if err == http.ErrMissingFile {
			return nil, nil
		}
		return nil, err
	}
	return readUpload(header)
}

func readUpload(header *multipart.FileHeader) (*domain.FileUpload, error) {
	file, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadSize))
	if err != nil {
		return nil, err
	}

	return &domain.FileUpload{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

// requestedItemsFromJSON разбирает позиции заказа из JSON строки
// multipart поля items.
func requestedItemsFromJSON(raw string) ([]domain.RequestedItem, error) {
	var items []struct {
		ProductID string `json:"product_id"`
		Quantity  int    `json:"quantity"`
		Message   string `json:"message"`
	}
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, err
	}

	result := make([]domain.RequestedItem, len(items))
	for i, it := range items {
		result[i] = domain.RequestedItem{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Message:   it.Message,
		}
	}
	return result, nil
}
