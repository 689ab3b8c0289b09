package middleware

import "github.com/gin-gonic/gin"

// SecurityHeaders добавляет заголовки безопасности ко всем ответам.
// Защищает от clickjacking (X-Frame-Options), MIME-sniffing
// (X-Content-Type-Options) и утечки информации о сервере.
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()

		h.Set("X-Frame-Options", "DENY")
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-XSS-Protection", "1; mode=block")
		h.Set("X-Powered-By", "")

		// Ответы API не кешируются: токены и данные покупателей
		h.Set("Cache-Control", "no-store")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")

		c.Next()
	}
}
