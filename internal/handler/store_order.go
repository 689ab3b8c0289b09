package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"example.com/flower-shop/internal/domain"
	"example.com/flower-shop/internal/service"
	"example.com/flower-shop/pkg/logger"
)

// StoreOrderHandler — обработчик заказов витрины myflower.
// Все маршруты закрыты AuthMiddleware; покупатель видит только свои заказы.
type StoreOrderHandler struct {
	orders service.StoreOrderService
}

// NewStoreOrderHandler создаёт обработчик заказов витрины.
func NewStoreOrderHandler(orders service.StoreOrderService) *StoreOrderHandler {
	return &StoreOrderHandler{orders: orders}
}

// checkoutForm — multipart поля оформления заказа из корзины.
type checkoutForm struct {
	DeliveryOption  string `form:"delivery_option" binding:"required"`
	DeliveryAddress string `form:"delivery_address"`
	PaymentMethod   string `form:"payment_method" binding:"required"`
	ReadyDate       string `form:"ready_date" binding:"required"`
}

// Checkout оформляет заказ из корзины покупателя.
// POST /api/v1/store/orders (multipart/form-data)
func (h *StoreOrderHandler) Checkout(c *gin.Context) {
	ctx := c.Request.Context()
	log := logger.FromContext(ctx)

	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	var form checkoutForm
	if err := c.ShouldBind(&form); err != nil {
		log.Debug().Err(err).Msg("Невалидный запрос на оформление заказа")
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Невалидные данные запроса",
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

	order, err := h.orders.Checkout(ctx, actor, domain.CheckoutCommand{
		DeliveryOption:  domain.DeliveryOption(form.DeliveryOption),
		DeliveryAddress: form.DeliveryAddress,
		PaymentMethod:   domain.PaymentMethod(form.PaymentMethod),
		ReadyDate:       readyDate,
		PaymentProof:    proof,
	})
	if err != nil {
		HandleDomainError(c, err, "Checkout")
		return
	}

	c.JSON(http.StatusCreated, orderToResponse(order))
}

// ListOrders возвращает заказы текущего покупателя.
// GET /api/v1/store/orders?page=1&page_size=20&status=IN_PROCESS
func (h *StoreOrderHandler) ListOrders(c *gin.Context) {
	ctx := c.Request.Context()

	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	page, pageSize := parsePagination(c)

	var status domain.OrderStatus
	if statusStr := c.Query("status"); statusStr != "" {
		status = domain.OrderStatus(statusStr)
		if !status.Valid() {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_request",
				Message: "Невалидный статус: допустимые значения IN_PROCESS, DELIVERY, COMPLETED, CANCELED",
			})
			return
		}
	}

	orders, total, err := h.orders.List(ctx, actor, status, page, pageSize)
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

// GetOrder возвращает заказ покупателя.
// GET /api/v1/store/orders/:id
func (h *StoreOrderHandler) GetOrder(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	order, err := h.orders.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		HandleDomainError(c, err, "GetOrder")
		return
	}

	c.JSON(http.StatusOK, orderToResponse(order))
}

// CancelOrder отменяет заказ покупателя, товар возвращается на склад.
// POST /api/v1/store/orders/:id/cancel
func (h *StoreOrderHandler) CancelOrder(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	order, err := h.orders.Cancel(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		HandleDomainError(c, err, "CancelOrder")
		return
	}

	c.JSON(http.StatusOK, orderToResponse(order))
}

// ConfirmOrder подтверждает получение заказа покупателем.
// POST /api/v1/store/orders/:id/confirm
func (h *StoreOrderHandler) ConfirmOrder(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	order, err := h.orders.Confirm(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		HandleDomainError(c, err, "ConfirmOrder")
		return
	}

	c.JSON(http.StatusOK, orderToResponse(order))
}
