package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"example.com/flower-shop/internal/service"
	"example.com/flower-shop/pkg/logger"
)

// CartHandler — обработчик корзины витрины myflower.
// Все маршруты закрыты AuthMiddleware; корзина привязана к покупателю.
type CartHandler struct {
	carts service.CartService
}

// NewCartHandler создаёт обработчик корзины.
func NewCartHandler(carts service.CartService) *CartHandler {
	return &CartHandler{carts: carts}
}

// addToCartRequest — запрос на добавление товара в корзину.
type addToCartRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
}

// updateCartItemRequest — запрос на изменение количества позиции:
// либо абсолютное количество, либо действие INCREMENT/DECREMENT.
type updateCartItemRequest struct {
	Quantity int    `json:"quantity" binding:"omitempty,min=1"`
	Action   string `json:"action" binding:"omitempty,oneof=INCREMENT DECREMENT"`
}

// AddItem добавляет товар в корзину; повторное добавление
// увеличивает количество.
// POST /api/v1/store/cart
func (h *CartHandler) AddItem(c *gin.Context) {
	ctx := c.Request.Context()
	log := logger.FromContext(ctx)

	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	var req addToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Debug().Err(err).Msg("Невалидный запрос на добавление в корзину")
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Невалидные данные запроса",
		})
		return
	}

	item, err := h.carts.Add(ctx, actor, req.ProductID, req.Quantity)
	if err != nil {
		HandleDomainError(c, err, "AddItem")
		return
	}

	c.JSON(http.StatusCreated, cartItemToResponse(item))
}

// ListItems возвращает корзину текущего покупателя.
// GET /api/v1/store/cart
func (h *CartHandler) ListItems(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	items, err := h.carts.List(c.Request.Context(), actor)
	if err != nil {
		HandleDomainError(c, err, "ListItems")
		return
	}

	responses := make([]CartItemResponse, len(items))
	for i, item := range items {
		responses[i] = cartItemToResponse(item)
	}

	c.JSON(http.StatusOK, gin.H{"items": responses})
}

// UpdateItem изменяет количество позиции: абсолютным значением
// или действием INCREMENT/DECREMENT. Уменьшение единственной штуки
// удаляет позицию.
// PATCH /api/v1/store/cart/:id
func (h *CartHandler) UpdateItem(c *gin.Context) {
	ctx := c.Request.Context()

	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	var req updateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil || (req.Quantity == 0) == (req.Action == "") {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Укажите либо quantity, либо action (INCREMENT/DECREMENT)",
		})
		return
	}

	var err error
	switch req.Action {
	case "INCREMENT":
		err = h.carts.Increment(ctx, actor, c.Param("id"))
	case "DECREMENT":
		err = h.carts.Decrement(ctx, actor, c.Param("id"))
	default:
		err = h.carts.UpdateQuantity(ctx, actor, c.Param("id"), req.Quantity)
	}
	if err != nil {
		HandleDomainError(c, err, "UpdateItem")
		return
	}

	c.Status(http.StatusNoContent)
}

// RemoveItem удаляет позицию из корзины.
// DELETE /api/v1/store/cart/:id
func (h *CartHandler) RemoveItem(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	if err := h.carts.Remove(c.Request.Context(), actor, c.Param("id")); err != nil {
		HandleDomainError(c, err, "RemoveItem")
		return
	}

	c.Status(http.StatusNoContent)
}

// Clear очищает корзину покупателя.
// DELETE /api/v1/store/cart
func (h *CartHandler) Clear(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	if err := h.carts.Clear(c.Request.Context(), actor); err != nil {
		HandleDomainError(c, err, "Clear")
		return
	}

	c.Status(http.StatusNoContent)
}
