package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"example.com/flower-shop/pkg/logger"
)

// HTTP заголовки для трассировки.
const (
	HeaderTraceID       = "X-Trace-ID"
	HeaderCorrelationID = "X-Correlation-ID"
	HeaderRequestID     = "X-Request-ID" // Алиас для Trace ID
)

// TracingMiddleware добавляет trace_id и correlation_id к каждому запросу.
// Генерирует новые ID если они отсутствуют; ID попадают в context и
// дальше во все логи обработки запроса.
type TracingMiddleware struct{}

// NewTracingMiddleware создаёт новый middleware для трассировки.
func NewTracingMiddleware() *TracingMiddleware {
	return &TracingMiddleware{}
}

// Handle возвращает Gin handler function для middleware.
func (m *TracingMiddleware) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		traceID := c.GetHeader(HeaderTraceID)
		if traceID == "" {
			traceID = c.GetHeader(HeaderRequestID)
		}
		if traceID == "" {
			traceID = uuid.New().String()
		}

		correlationID := c.GetHeader(HeaderCorrelationID)
		if correlationID == "" {
			correlationID = uuid.New().String()
		}

		ctx := logger.NewContextWithIDs(c.Request.Context(), traceID, correlationID)
		c.Request = c.Request.WithContext(ctx)

		c.Header(HeaderTraceID, traceID)
		c.Header(HeaderCorrelationID, correlationID)

		c.Set("trace_id", traceID)
		c.Set("correlation_id", correlationID)

		log := logger.FromContext(ctx)
		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Str("client_ip", c.ClientIP()).
			Msg("Входящий запрос")

		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()

		logEvent := log.Info()
		if statusCode >= 400 {
			logEvent = log.Warn()
		}
		if statusCode >= 500 {
			logEvent = log.Error()
		}

		logEvent.
			Int("status", statusCode).
			Dur("duration", duration).
			Msg("Запрос завершён")
	}
}
