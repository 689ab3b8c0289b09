// Package middleware содержит HTTP middleware для API магазина.
package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"example.com/flower-shop/internal/domain"
	"example.com/flower-shop/internal/httputil"
	"example.com/flower-shop/pkg/jwt"
	"example.com/flower-shop/pkg/logger"
)

// actorKey — ключ Gin context, под которым лежит аутентифицированный Actor.
const actorKey = "actor"

// TokenValidator — интерфейс для валидации токенов.
// Позволяет мокировать в тестах вместо реального jwt.Manager.
type TokenValidator interface {
	ValidateWithBlacklist(ctx context.Context, tokenString string) (*jwt.Claims, error)
}

// AuthMiddleware — middleware для проверки JWT токенов.
// Проверяет подпись, срок действия и blacklist, после чего кладёт
// в контекст Actor со снимком данных пользователя из claims.
type AuthMiddleware struct {
	tokenValidator TokenValidator
}

// NewAuthMiddleware создаёт новый middleware для аутентификации.
// Принимает TokenValidator (обычно *jwt.Manager).
func NewAuthMiddleware(tokenValidator TokenValidator) *AuthMiddleware {
	return &AuthMiddleware{
		tokenValidator: tokenValidator,
	}
}

// Handle возвращает Gin handler function для middleware.
func (m *AuthMiddleware) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		log := logger.FromContext(ctx)

		token := httputil.ExtractBearerToken(c)
		if token == "" {
			log.Debug().Msg("Отсутствует токен авторизации")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "Требуется авторизация",
			})
			return
		}

		claims, err := m.tokenValidator.ValidateWithBlacklist(ctx, token)
		if err != nil {
			log.Warn().Err(err).Msg("Ошибка валидации токена")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "Токен недействителен",
			})
			return
		}

		actor := domain.Actor{
			ID:               claims.UserID,
			Code:             claims.UserCode,
			FullName:         claims.FullName,
			PhoneNumber:      claims.PhoneNumber,
			CustomerCategory: claims.CustomerCategory,
			Role:             domain.Role(claims.Role),
		}
		c.Set(actorKey, actor)

		log.Debug().
			Str("user_id", actor.ID).
			Str("role", string(actor.Role)).
			Msg("Пользователь аутентифицирован")

		c.Next()
	}
}

// RequireAdmin пропускает только администраторов.
// Вешается после AuthMiddleware на маршруты канала myrekap.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFromGin(c)
		if !ok || !actor.Role.IsAdmin() {
			logger.Ctx(c.Request.Context()).Warn().
				Str("user_id", actor.ID).
				Str("role", string(actor.Role)).
				Str("path", c.Request.URL.Path).
				Msg("Доступ запрещён: требуется роль администратора")
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":   "forbidden",
				"message": "Недостаточно прав",
			})
			return
		}
		c.Next()
	}
}

// ActorFromGin возвращает аутентифицированного Actor из Gin context.
func ActorFromGin(c *gin.Context) (domain.Actor, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return domain.Actor{}, false
	}
	actor, ok := v.(domain.Actor)
	return actor, ok
}
