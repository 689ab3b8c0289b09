// Package handler содержит HTTP обработчики для REST API.
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"example.com/flower-shop/internal/domain"
	"example.com/flower-shop/pkg/circuitbreaker"
	"example.com/flower-shop/pkg/logger"
)

// ErrorResponse — стандартный формат ошибки API.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// HandleDomainError преобразует ошибку бизнес-логики в HTTP ответ.
// Используется всеми handlers для единообразной обработки ошибок.
// ВАЖНО: err не должен быть nil — это баг в вызывающем коде.
func HandleDomainError(c *gin.Context, err error, method string) {
	if err == nil {
		logger.Error().Str("method", method).Msg("HandleDomainError вызван с nil ошибкой — баг в коде")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Внутренняя ошибка сервера",
		})
		return
	}

	log := logger.FromContext(c.Request.Context())

	httpStatus, errorCode := classifyError(err)
	if httpStatus == http.StatusInternalServerError {
		log.Error().Err(err).Str("method", method).Msg("Внутренняя ошибка")
		c.JSON(httpStatus, ErrorResponse{
			Error:   errorCode,
			Message: "Внутренняя ошибка сервера",
		})
		return
	}

	log.Debug().Err(err).Str("method", method).Msg("Ошибка бизнес-логики")
	c.JSON(httpStatus, ErrorResponse{
		Error:   errorCode,
		Message: err.Error(),
	})
}

// classifyError сопоставляет ошибку бизнес-логики с HTTP статусом.
func classifyError(err error) (int, string) {
	switch {
	// Не найдено
	case errors.Is(err, domain.ErrOrderNotFound),
		errors.Is(err, domain.ErrProductNotFound),
		errors.Is(err, domain.ErrCartItemNotFound),
		errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, "not_found"

	// Ошибки валидации входных данных
	case errors.Is(err, domain.ErrEmptyOrderItems),
		errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrInvalidPrice),
		errors.Is(err, domain.ErrProductNameRequired),
		errors.Is(err, domain.ErrDeliveryAddressRequired),
		errors.Is(err, domain.ErrPaymentProofRequired),
		errors.Is(err, domain.ErrPaymentMethodRequired),
		errors.Is(err, domain.ErrInvalidOrderStatus),
		errors.Is(err, domain.ErrCartEmpty),
		errors.Is(err, domain.ErrProductInactive):
		return http.StatusBadRequest, "validation_failed"

	// Нехватка остатка — отдельный код, фронт показывает его особо
	case errors.Is(err, domain.ErrStockInsufficient):
		return http.StatusConflict, "stock_insufficient"

	// Конфликты уникальности и состояния
	case errors.Is(err, domain.ErrProductNameTaken),
		errors.Is(err, domain.ErrUserAlreadyExists):
		return http.StatusConflict, "already_exists"
	case errors.Is(err, domain.ErrOrderNotInProcess),
		errors.Is(err, domain.ErrDeliveryOptionMismatch),
		errors.Is(err, domain.ErrOrderSourceMismatch):
		return http.StatusConflict, "conflict"

	// Аутентификация и доступ
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid_credentials"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "forbidden"

	// Внешнее хранилище недоступно (circuit breaker открыт)
	case errors.Is(err, circuitbreaker.ErrUnavailable):
		return http.StatusServiceUnavailable, "service_unavailable"

	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
