package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"example.com/flower-shop/internal/httputil"
	"example.com/flower-shop/internal/service"
	"example.com/flower-shop/pkg/logger"
)

// AuthHandler — обработчик аутентификации.
type AuthHandler struct {
	authService service.AuthService
}

// NewAuthHandler создаёт новый обработчик аутентификации.
func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// RegisterRequest — запрос на регистрацию покупателя.
type RegisterRequest struct {
	Username         string `json:"username" binding:"required,min=3"`
	Email            string `json:"email" binding:"required,email"`
	Password         string `json:"password" binding:"required,min=8"`
	FullName         string `json:"full_name" binding:"required,min=2"`
	PhoneNumber      string `json:"phone_number" binding:"required"`
	CustomerCategory string `json:"customer_category"`
}

// UserResponse — пользователь в ответе.
type UserResponse struct {
	ID               string `json:"id"`
	Code             string `json:"code"`
	Username         string `json:"username"`
	Email            string `json:"email"`
	FullName         string `json:"full_name"`
	PhoneNumber      string `json:"phone_number"`
	CustomerCategory string `json:"customer_category,omitempty"`
	Role             string `json:"role"`
}

// AuthResponse — ответ на регистрацию и вход.
type AuthResponse struct {
	User        UserResponse `json:"user"`
	AccessToken string       `json:"access_token"`
	ExpiresAt   int64        `json:"expires_at"`
}

// Register регистрирует нового покупателя.
// POST /api/v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	ctx := c.Request.Context()
	log := logger.FromContext(ctx)

	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Debug().Err(err).Msg("Невалидный запрос на регистрацию")
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Невалидные данные запроса",
		})
		return
	}

	user, token, err := h.authService.Register(ctx, service.RegisterCommand{
		Username:         req.Username,
		Email:            req.Email,
		Password:         req.Password,
		FullName:         req.FullName,
		PhoneNumber:      req.PhoneNumber,
		CustomerCategory: req.CustomerCategory,
	})
	if err != nil {
		HandleDomainError(c, err, "Register")
		return
	}

	c.JSON(http.StatusCreated, AuthResponse{
		User: UserResponse{
			ID:               user.ID,
			Code:             user.Code,
			Username:         user.Username,
			Email:            user.Email,
			FullName:         user.FullName,
			PhoneNumber:      user.PhoneNumber,
			CustomerCategory: user.CustomerCategory,
			Role:             string(user.Role),
		},
		AccessToken: token.AccessToken,
		ExpiresAt:   token.ExpiresAt,
	})
}

// LoginRequest — запрос на вход. Login принимает username или email.
type LoginRequest struct {
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login аутентифицирует пользователя.
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	ctx := c.Request.Context()
	log := logger.FromContext(ctx)

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Debug().Err(err).Msg("Невалидный запрос на вход")
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Невалидные данные запроса",
		})
		return
	}

	user, token, err := h.authService.Login(ctx, req.Login, req.Password)
	if err != nil {
		HandleDomainError(c, err, "Login")
		return
	}

	c.JSON(http.StatusOK, AuthResponse{
		User: UserResponse{
			ID:               user.ID,
			Code:             user.Code,
			Username:         user.Username,
			Email:            user.Email,
			FullName:         user.FullName,
			PhoneNumber:      user.PhoneNumber,
			CustomerCategory: user.CustomerCategory,
			Role:             string(user.Role),
		},
		AccessToken: token.AccessToken,
		ExpiresAt:   token.ExpiresAt,
	})
}

// Logout отзывает текущий токен.
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	ctx := c.Request.Context()
	log := logger.FromContext(ctx)

	token := httputil.ExtractBearerToken(c)
	if token == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "Требуется авторизация",
		})
		return
	}

	if err := h.authService.Logout(ctx, token); err != nil {
		log.Debug().Err(err).Msg("Не удалось отозвать токен")
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "Токен недействителен",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Выход выполнен"})
}
