// Package handler содержит HTTP обработчики для REST API.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"example.com/flower-shop/internal/middleware"
	"example.com/flower-shop/internal/service"
	"example.com/flower-shop/pkg/metrics"
)

// ReadinessChecker — функция проверки готовности сервиса.
type ReadinessChecker func(ctx context.Context) error

// Router — конфигурация роутера.
type Router struct {
	engine         *gin.Engine
	authService    service.AuthService
	recapOrders    service.RecapOrderService
	storeOrders    service.StoreOrderService
	products       service.ProductService
	carts          service.CartService
	authMW         *middleware.AuthMiddleware
	rateLimitMW    *middleware.RateLimitMiddleware
	tracingMW      *middleware.TracingMiddleware
	readinessCheck ReadinessChecker // опциональная проверка готовности
}

// RouterConfig — параметры для создания роутера.
type RouterConfig struct {
	AuthService    service.AuthService
	RecapOrders    service.RecapOrderService
	StoreOrders    service.StoreOrderService
	Products       service.ProductService
	Carts          service.CartService
	AuthMW         *middleware.AuthMiddleware
	RateLimitMW    *middleware.RateLimitMiddleware
	TracingMW      *middleware.TracingMiddleware
	ReadinessCheck ReadinessChecker // опциональная проверка готовности для /readyz
	Debug          bool             // Режим отладки Gin
}

// NewRouter создаёт и настраивает HTTP роутер.
func NewRouter(cfg RouterConfig) *Router {
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	// Стандартные middleware Gin
	engine.Use(gin.Recovery())

	// CORS — обработка cross-origin запросов
	engine.Use(middleware.CORS(middleware.DefaultCORSConfig()))

	// Security headers — защита от clickjacking, MIME-sniffing, XSS
	engine.Use(middleware.SecurityHeaders())

	// OpenTelemetry tracing — создаёт spans для Jaeger
	engine.Use(otelgin.Middleware("flower-shop"))

	// Prometheus метрики — requests_total, request_duration_seconds
	engine.Use(metrics.GinMetricsMiddleware("flower-shop"))

	r := &Router{
		engine:         engine,
		authService:    cfg.AuthService,
		recapOrders:    cfg.RecapOrders,
		storeOrders:    cfg.StoreOrders,
		products:       cfg.Products,
		carts:          cfg.Carts,
		authMW:         cfg.AuthMW,
		rateLimitMW:    cfg.RateLimitMW,
		tracingMW:      cfg.TracingMW,
		readinessCheck: cfg.ReadinessCheck,
	}

	r.setupRoutes()
	return r
}

// setupRoutes настраивает все маршруты API.
func (r *Router) setupRoutes() {
	// Глобальные middleware
	if r.tracingMW != nil {
		r.engine.Use(r.tracingMW.Handle())
	}

	// Health endpoints (без rate limiting и auth)
	r.engine.GET("/health", r.healthCheck)
	r.engine.GET("/healthz", r.livenessCheck)        // k3s liveness probe
	r.engine.GET("/readyz", r.readinessCheckHandler) // k3s readiness probe

	// API v1
	v1 := r.engine.Group("/api/v1")

	// Rate limiting на уровне API (если включен)
	if r.rateLimitMW != nil {
		v1.Use(r.rateLimitMW.Handle())
	}

	// === Auth routes (публичные) ===
	authHandler := NewAuthHandler(r.authService)
	auth := v1.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/logout", authHandler.Logout) // Требует токен в заголовке
	}

	productHandler := NewProductHandler(r.products)

	// === Витрина myflower ===
	store := v1.Group("/store")
	{
		// Каталог — публичный, только активные товары
		store.GET("/products", productHandler.ListProducts(true))
		store.GET("/products/:id", productHandler.GetProduct)

		// Корзина — только для авторизованных покупателей
		cartHandler := NewCartHandler(r.carts)
		cart := store.Group("/cart")
		if r.authMW != nil {
			cart.Use(r.authMW.Handle())
		}
		{
			cart.POST("", cartHandler.AddItem)
			cart.GET("", cartHandler.ListItems)
			cart.PATCH("/:id", cartHandler.UpdateItem)
			cart.DELETE("/:id", cartHandler.RemoveItem)
			cart.DELETE("", cartHandler.Clear)
		}

		// Заказы покупателя
		storeOrderHandler := NewStoreOrderHandler(r.storeOrders)
		orders := store.Group("/orders")
		if r.authMW != nil {
			orders.Use(r.authMW.Handle())
		}
		{
			orders.POST("", storeOrderHandler.Checkout)
			orders.GET("", storeOrderHandler.ListOrders)
			orders.GET("/:id", storeOrderHandler.GetOrder)
			orders.POST("/:id/cancel", storeOrderHandler.CancelOrder)
			orders.POST("/:id/confirm", storeOrderHandler.ConfirmOrder)
		}
	}

	// === Админка myrekap (только для администраторов) ===
	recap := v1.Group("/recap")
	if r.authMW != nil {
		recap.Use(r.authMW.Handle())
	}
	recap.Use(middleware.RequireAdmin())
	{
		recapOrderHandler := NewRecapOrderHandler(r.recapOrders)
		orders := recap.Group("/orders")
		{
			orders.POST("", recapOrderHandler.CreateOrder)
			orders.GET("", recapOrderHandler.ListOrders)
			orders.GET("/:id", recapOrderHandler.GetOrder)
			orders.PUT("/:id", recapOrderHandler.UpdateOrder)
			orders.PATCH("/:id/status", recapOrderHandler.UpdateStatus)
			orders.DELETE("/:id", recapOrderHandler.DeleteOrder)
		}

		products := recap.Group("/products")
		{
			products.POST("", productHandler.CreateProduct)
			products.GET("", productHandler.ListProducts(false))
			products.GET("/:id", productHandler.GetProduct)
			products.PUT("/:id", productHandler.UpdateProduct)
			products.DELETE("/:id", productHandler.DeleteProduct)
			products.POST("/:id/stock", productHandler.ManageStock)
			products.GET("/:id/stock", productHandler.StockHistory)
		}

		recap.GET("/stock-report", productHandler.MonthlyStockReport)
	}
}

// Engine возвращает Gin engine для запуска сервера.
func (r *Router) Engine() *gin.Engine {
	return r.engine
}

// healthCheck — проверка работоспособности сервиса.
func (r *Router) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "flower-shop",
	})
}

// livenessCheck — liveness probe для Kubernetes.
// Возвращает 200 OK если процесс жив (сервер отвечает = процесс работает).
func (r *Router) livenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}

// readinessCheckHandler — readiness probe для Kubernetes.
// Возвращает 200 OK если сервис готов принимать трафик (все зависимости доступны).
func (r *Router) readinessCheckHandler(c *gin.Context) {
	// Если ReadinessChecker не установлен — считаем сервис готовым
	if r.readinessCheck == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
		return
	}

	// Проверяем готовность с таймаутом 5 секунд
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := r.readinessCheck(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
