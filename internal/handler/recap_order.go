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

// RecapOrderHandler — обработчик заказов админского канала myrekap.
// Все маршруты закрыты AuthMiddleware + RequireAdmin.
type RecapOrderHandler struct {
	orders service.RecapOrderService
}

// NewRecapOrderHandler создаёт обработчик админских заказов.
func NewRecapOrderHandler(orders service.RecapOrderService) *RecapOrderHandler {
	return &RecapOrderHandler{orders: orders}
}

// recapOrderForm — общие multipart поля создания и правки заказа.
// Позиции передаются JSON строкой в поле items, файл —
// в поле payment_proof.
type recapOrderForm struct {
	Items            string `form:"items" binding:"required"`
	CustomerName     string `form:"customer_name" binding:"required"`
	CustomerCategory string `form:"customer_category"`
	PhoneNumber      string `form:"phone_number" binding:"required"`
	DeliveryOption   string `form:"delivery_option" binding:"required"`
	DeliveryAddress  string `form:"delivery_address"`
	ShippingCost     int64  `form:"shipping_cost"`
	PaymentMethod    string `form:"payment_method"`
	PaymentStatus    string `form:"payment_status" binding:"required"`
	ReadyDate        string `form:"ready_date" binding:"required"`
}

// parseReadyDate принимает дату с временем или без.
func parseReadyDate(raw string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// CreateOrder создаёт заказ от имени администратора.
// POST /api/v1/recap/orders (multipart/form-data)
func (h *RecapOrderHandler) CreateOrder(c *gin.Context) {
	ctx := c.Request.Context()
	log := logger.FromContext(ctx)

	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	var form recapOrderForm
	if err := c.ShouldBind(&form); err != nil {
		log.Debug().Err(err).Msg("Невалидный запрос на создание заказа")
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Невалидные данные запроса",
		})
		return
	}

	items, err := requestedItemsFromJSON(form.Items)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Невалидный формат позиций заказа",
		})
		return
	}

	readyDate, ok := parseReadyDate(form.ReadyDate)
	if !ok {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Невалидная дата готовности",
		})
		return
	}

	proof, err := fileFromForm(c, "payment_proof")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Не удалось прочитать подтверждение оплаты",
		})
		return
	}

	order, err := h.orders.Create(ctx, actor, domain.CreateOrderCommand{
		Items:            items,
		CustomerName:     form.CustomerName,
		CustomerCategory: form.CustomerCategory,
		PhoneNumber:      form.PhoneNumber,
		DeliveryOption:   domain.DeliveryOption(form.DeliveryOption),
		DeliveryAddress:  form.DeliveryAddress,
		ShippingCost:     form.ShippingCost,
		PaymentMethod:    domain.PaymentMethod(form.PaymentMethod),
		PaymentStatus:    domain.PaymentStatus(form.PaymentStatus),
		ReadyDate:        readyDate,
		PaymentProof:     proof,
	})
	if err != nil {
		HandleDomainError(c, err, "CreateOrder")
		return
	}

	c.JSON(http.StatusCreated, orderToResponse(order))
}

// UpdateOrder правит заказ: набор позиций заменяется целиком.
// PUT /api/v1/recap/orders/:id (multipart/form-data)
func (h *RecapOrderHandler) UpdateOrder(c *gin.Context) {
	ctx := c.Request.Context()
	log := logger.FromContext(ctx)

	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	var form recapOrderForm
	if err := c.ShouldBind(&form); err != nil {
		log.Debug().Err(err).Msg("Невалидный запрос на правку заказа")
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Невалидные данные запроса",
		})
		return
	}

	items, err := requestedItemsFromJSON(form.Items)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Невалидный формат позиций заказа",
		})
		return
	}

	readyDate, ok := parseReadyDate(form.ReadyDate)
	if !ok {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Невалидная дата готовности",
		})
		return
	}

	proof, err := fileFromForm(c, "payment_proof")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Не удалось прочитать подтверждение оплаты",
		})
		return
	}

	order, err := h.orders.Update(ctx, actor, domain.UpdateOrderCommand{
		OrderID:          c.Param("id"),
		Items:            items,
		CustomerName:     form.CustomerName,
		CustomerCategory: form.CustomerCategory,
		PhoneNumber:      form.PhoneNumber,
		DeliveryOption:   domain.DeliveryOption(form.DeliveryOption),
		DeliveryAddress:  form.DeliveryAddress,
		ShippingCost:     form.ShippingCost,
		PaymentMethod:    domain.PaymentMethod(form.PaymentMethod),
		PaymentStatus:    domain.PaymentStatus(form.PaymentStatus),
		ReadyDate:        readyDate,
		PaymentProof:     proof,
		RemoveProof:      c.PostForm("remove_proof") == "true",
	})
	if err != nil {
		HandleDomainError(c, err, "UpdateOrder")
		return
	}

	c.JSON(http.StatusOK, orderToResponse(order))
}

// UpdateStatus переводит заказ по машине состояний.
// PATCH /api/v1/recap/orders/:id/status (multipart/form-data)
func (h *RecapOrderHandler) UpdateStatus(c *gin.Context) {
	ctx := c.Request.Context()

	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	status := domain.OrderStatus(c.PostForm("status"))
	if !status.Valid() {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Невалидный статус: допустимые значения IN_PROCESS, DELIVERY, COMPLETED, CANCELED",
		})
		return
	}

	photo, err := fileFromForm(c, "finished_product")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Не удалось прочитать фото готового букета",
		})
		return
	}

	order, err := h.orders.UpdateStatus(ctx, actor, domain.UpdateStatusCommand{
		OrderID:         c.Param("id"),
		Status:          status,
		FinishedProduct: photo,
	})
	if err != nil {
		HandleDomainError(c, err, "UpdateStatus")
		return
	}

	c.JSON(http.StatusOK, orderToResponse(order))
}

// ListOrders возвращает заказы обоих каналов с фильтрацией.
// GET /api/v1/recap/orders?page=1&page_size=20&status=IN_PROCESS&source=MYFLOWER&search=ORD
// Период задаётся либо парой from/to, либо month+year (месяц имеет приоритет).
func (h *RecapOrderHandler) ListOrders(c *gin.Context) {
	ctx := c.Request.Context()

	page, pageSize := parsePagination(c)

	filter := repository.OrderFilter{
		Source:           domain.OrderSource(c.Query("source")),
		PaymentMethod:    domain.PaymentMethod(c.Query("payment_method")),
		CustomerCategory: c.Query("category"),
		Search:           c.Query("search"),
	}
	if statusStr := c.Query("status"); statusStr != "" {
		status := domain.OrderStatus(statusStr)
		if !status.Valid() {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_request",
				Message: "Невалидный статус: допустимые значения IN_PROCESS, DELIVERY, COMPLETED, CANCELED",
			})
			return
		}
		filter.Status = status
	}
	if fromStr := c.Query("from"); fromStr != "" {
		if ts, ok := parseReadyDate(fromStr); ok {
			filter.From = ts
		}
	}
	if toStr := c.Query("to"); toStr != "" {
		if ts, ok := parseReadyDate(toStr); ok {
			filter.To = ts
		}
	}
	if monthStr := c.Query("month"); monthStr != "" {
		month, errM := strconv.Atoi(monthStr)
		year, errY := strconv.Atoi(c.Query("year"))
		if errM != nil || errY != nil || month < 1 || month > 12 {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_request",
				Message: "Параметры month и year должны быть числами, month от 1 до 12",
			})
			return
		}
		filter.From = time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
		filter.To = filter.From.AddDate(0, 1, 0)
	}

	orders, total, err := h.orders.List(ctx, filter, page, pageSize)
	if err != nil {
		HandleDomainError(c, err, "ListOrders")
		return
	}

	responses := make([]OrderResponse, len(orders))
	for i, o := range orders {
		responses[i] = orderToResponse(o)
	}

	c.JSON(http.StatusOK, gin.H{
		"orders":     responses,
		"pagination": paginationOf(page, pageSize, total),
	})
}

// GetOrder возвращает заказ по ID.
// GET /api/v1/recap/orders/:id
func (h *RecapOrderHandler) GetOrder(c *gin.Context) {
	order, err := h.orders.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleDomainError(c, err, "GetOrder")
		return
	}

	c.JSON(http.StatusOK, orderToResponse(order))
}

// DeleteOrder жёстко удаляет заказ.
// DELETE /api/v1/recap/orders/:id
func (h *RecapOrderHandler) DeleteOrder(c *gin.Context) {
	if err := h.orders.Remove(c.Request.Context(), c.Param("id")); err != nil {
		HandleDomainError(c, err, "DeleteOrder")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Заказ удалён"})
}
