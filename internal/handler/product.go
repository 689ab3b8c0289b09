package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"example.com/flower-shop/internal/domain"
	"example.com/flower-shop/internal/repository"
	"example.com/flower-shop/internal/service"
	"example.com/flower-shop/pkg/logger"
)

// ProductHandler — обработчик каталога товаров и остатков.
// Чтение каталога открыто покупателям, правки — только админам.
type ProductHandler struct {
	products service.ProductService
}

// NewProductHandler создаёт обработчик каталога.
func NewProductHandler(products service.ProductService) *ProductHandler {
	return &ProductHandler{products: products}
}

// productForm — multipart поля создания и правки товара.
type productForm struct {
	Name        string `form:"name" binding:"required"`
	Price       int64  `form:"price" binding:"required"`
	Description string `form:"description"`
}

// CreateProduct создаёт товар.
// POST /api/v1/recap/products (multipart/form-data)
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	ctx := c.Request.Context()
	log := logger.FromContext(ctx)

	var form productForm
	if err := c.ShouldBind(&form); err != nil {
		log.Debug().Err(err).Msg("Невалидный запрос на создание товара")
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Невалидные данные запроса",
		})
		return
	}

	initialStock := 0
	if raw := c.PostForm("initial_stock"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_request",
				Message: "Невалидный начальный остаток",
			})
			return
		}
		initialStock = v
	}

	image, err := fileFromForm(c, "image")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Не удалось прочитать изображение",
		})
		return
	}

	product, err := h.products.Create(ctx, service.CreateProductCommand{
		Name:         form.Name,
		Price:        form.Price,
		Description:  form.Description,
		InitialStock: initialStock,
		Image:        image,
	})
	if err != nil {
		HandleDomainError(c, err, "CreateProduct")
		return
	}

	c.JSON(http.StatusCreated, productToResponse(product))
}

// ListProducts возвращает каталог с фильтрацией.
// Для покупателей маршрут витрины всегда ограничивает выдачу
// активными товарами.
// GET /api/v1/recap/products | /api/v1/store/products
func (h *ProductHandler) ListProducts(onlyActive bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, pageSize := parsePagination(c)

		filter := repository.ProductFilter{
			Search:     c.Query("search"),
			OnlyActive: onlyActive,
		}

		products, total, err := h.products.List(c.Request.Context(), filter, page, pageSize)
		if err != nil {
			HandleDomainError(c, err, "ListProducts")
			return
		}

		responses := make([]ProductResponse, len(products))
		for i, p := range products {
			responses[i] = productToResponse(p)
		}

		c.JSON(http.StatusOK, gin.H{
			"products":   responses,
			"pagination": paginationOf(page, pageSize, total),
		})
	}
}

// GetProduct возвращает товар по ID.
// GET /api/v1/store/products/:id
func (h *ProductHandler) GetProduct(c *gin.Context) {
	product, err := h.products.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleDomainError(c, err, "GetProduct")
		return
	}

	c.JSON(http.StatusOK, productToResponse(product))
}

// UpdateProduct правит карточку товара.
// PUT /api/v1/recap/products/:id (multipart/form-data)
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	ctx := c.Request.Context()
	log := logger.FromContext(ctx)

	var form productForm
	if err := c.ShouldBind(&form); err != nil {
		log.Debug().Err(err).Msg("Невалидный запрос на правку товара")
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Невалидные данные запроса",
		})
		return
	}

	image, err := fileFromForm(c, "image")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Не удалось прочитать изображение",
		})
		return
	}

	product, err := h.products.Update(ctx, service.UpdateProductCommand{
		ID:          c.Param("id"),
		Name:        form.Name,
		Price:       form.Price,
		Description: form.Description,
		IsActive:    c.PostForm("is_active") != "false",
		Image:       image,
	})
	if err != nil {
		HandleDomainError(c, err, "UpdateProduct")
		return
	}

	c.JSON(http.StatusOK, productToResponse(product))
}

// ManageStockRequest — запрос на ручное движение остатков.
type ManageStockRequest struct {
	Type     string `json:"type" binding:"required,oneof=STOCK_IN STOCK_OUT"`
	Quantity int    `json:"quantity" binding:"required,min=1"`
	Note     string `json:"note"`
}

// ManageStock проводит ручное движение остатков.
// POST /api/v1/recap/products/:id/stock
func (h *ProductHandler) ManageStock(c *gin.Context) {
	ctx := c.Request.Context()
	log := logger.FromContext(ctx)

	var req ManageStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Debug().Err(err).Msg("Невалидный запрос на движение остатков")
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Невалидные данные запроса",
		})
		return
	}

	product, err := h.products.ManageStock(ctx, c.Param("id"), domain.StockTransactionType(req.Type), req.Quantity, req.Note)
	if err != nil {
		HandleDomainError(c, err, "ManageStock")
		return
	}

	c.JSON(http.StatusOK, productToResponse(product))
}

// StockHistory возвращает историю движений товара.
// GET /api/v1/recap/products/:id/stock?page=1&page_size=20
func (h *ProductHandler) StockHistory(c *gin.Context) {
	page, pageSize := parsePagination(c)

	transactions, total, err := h.products.StockHistory(c.Request.Context(), c.Param("id"), page, pageSize)
	if err != nil {
		HandleDomainError(c, err, "StockHistory")
		return
	}

	responses := make([]StockTransactionResponse, len(transactions))
	for i, tx := range transactions {
		responses[i] = stockTransactionToResponse(tx)
	}

	c.JSON(http.StatusOK, gin.H{
		"transactions": responses,
		"pagination":   paginationOf(page, pageSize, total),
	})
}

// MonthlyStockReport возвращает сводку движений за месяц.
// GET /api/v1/recap/stock-report?year=2025&month=8
func (h *ProductHandler) MonthlyStockReport(c *gin.Context) {
	now := time.Now()
	year := now.Year()
	month := int(now.Month())

	if raw := c.Query("year"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_request",
				Message: "Невалидный год",
			})
			return
		}
		year = v
	}
	if raw := c.Query("month"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > 12 {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_request",
				Message: "Невалидный месяц",
			})
			return
		}
		month = v
	}

	rows, err := h.products.MonthlyStockReport(c.Request.Context(), year, time.Month(month))
	if err != nil {
		HandleDomainError(c, err, "MonthlyStockReport")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"year":   year,
		"month":  month,
		"report": rows,
	})
}

// DeleteProduct удаляет товар.
// DELETE /api/v1/recap/products/:id
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	if err := h.products.Delete(c.Request.Context(), c.Param("id")); err != nil {
		HandleDomainError(c, err, "DeleteProduct")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Товар удалён"})
}
