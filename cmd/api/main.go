// Package main — точка входа API цветочного магазина.
// Один HTTP сервер обслуживает два канала: админку myrekap
// и покупательскую витрину myflower.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"example.com/flower-shop/internal/cache"
	"example.com/flower-shop/internal/filestore"
	"example.com/flower-shop/internal/handler"
	"example.com/flower-shop/internal/middleware"
	"example.com/flower-shop/internal/notify"
	"example.com/flower-shop/internal/repository"
	"example.com/flower-shop/internal/service"
	"example.com/flower-shop/pkg/codes"
	"example.com/flower-shop/pkg/config"
	"example.com/flower-shop/pkg/db"
	"example.com/flower-shop/pkg/healthcheck"
	"example.com/flower-shop/pkg/jwt"
	"example.com/flower-shop/pkg/kafka"
	"example.com/flower-shop/pkg/logger"
	"example.com/flower-shop/pkg/metrics"
	"example.com/flower-shop/pkg/tracing"
)

func main() {
	// Загружаем конфигурацию
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("Ошибка загрузки конфигурации")
	}

	// Инициализируем логгер
	logger.Init(logger.Config{
		Level:  cfg.App.LogLevel,
		Pretty: cfg.App.LogPretty,
	})

	logger.Info().
		Str("service", cfg.App.Name).
		Str("env", cfg.App.Env).
		Msg("Запуск Flower Shop API")

	// === Observability: Metrics + Tracing ===

	var metricsServer *metrics.Server
	if cfg.Metrics.Enabled {
		metricsServer = metrics.NewServer(cfg.Metrics.Addr(), cfg.App.Name)
		go func() {
			if err := metricsServer.Start(); err != nil {
				logger.Error().Err(err).Msg("Ошибка Metrics Server")
			}
		}()
	}

	shutdownTracing, err := tracing.InitTracer(tracing.Config{
		ServiceName:    cfg.App.Name,
		JaegerEndpoint: cfg.Jaeger.OTLPEndpoint(),
		Enabled:        cfg.Jaeger.Enabled,
	})
	if err != nil {
		logger.Warn().Err(err).Msg("Не удалось инициализировать tracing")
	}

	// === Хранилища ===

	// MySQL
	gormDB, err := db.ConnectMySQL(cfg.MySQL, cfg.IsDevelopment())
	if err != nil {
		logger.Fatal().Err(err).Msg("Ошибка подключения к MySQL")
	}
	logger.Info().Str("database", cfg.MySQL.Database).Msg("Подключение к MySQL установлено")

	if err := repository.Migrate(gormDB); err != nil {
		logger.Fatal().Err(err).Msg("Ошибка миграции схемы")
	}

	// Redis — blacklist JWT токенов и rate limiting
	redisClient := db.ConnectRedis(cfg.Redis)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("Ошибка закрытия Redis")
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		cancel()
		logger.Fatal().Err(err).Msg("Не удалось подключиться к Redis")
	}
	cancel()
	logger.Info().Str("addr", cfg.Redis.Addr()).Msg("Подключено к Redis")

	// === Внешние зависимости ===

	// JWT менеджер с blacklist в Redis
	jwtManager, err := jwt.NewManager(jwt.Config{
		PrivateKeyPath: cfg.JWT.PrivateKeyPath,
		PublicKeyPath:  cfg.JWT.PublicKeyPath,
		Issuer:         cfg.JWT.Issuer,
		TokenTTL:       cfg.JWT.AccessTokenTTL,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("Ошибка инициализации JWT")
	}
	jwtManager.SetBlacklist(jwt.NewBlacklist(redisClient))

	// Kafka — уведомления о событиях заказов (fire-and-forget)
	var notifier notify.Notifier = notify.Noop{}
	var producer *kafka.Producer
	if cfg.Kafka.Enabled {
		producer, err = kafka.NewProducer(kafka.Config{Brokers: cfg.Kafka.Brokers})
		if err != nil {
			logger.Fatal().Err(err).Msg("Ошибка создания Kafka Producer")
		}
		defer func() {
			if err := producer.Close(); err != nil {
				logger.Error().Err(err).Msg("Ошибка закрытия Kafka Producer")
			}
		}()
		notifier = notify.NewKafka(producer)
	} else {
		logger.Warn().Msg("Kafka отключена, уведомления не отправляются")
	}

	// Cloudinary — изображения товаров и подтверждения оплаты
	files := filestore.NewCloudinary(cfg.Cloudinary)

	// === Слои приложения ===

	repos := repository.New(gormDB)
	gen := codes.NewGenerator()
	effects := service.NewEffects(files, notifier)

	authService := service.NewAuthService(repos, jwtManager, gen)
	recapOrders := service.NewRecapOrderService(repos, gen, effects)
	storeOrders := service.NewStoreOrderService(repos, gen, effects)
	products := service.NewProductService(repos, gen, effects, cache.NewProductCache(redisClient, cache.DefaultTTL))
	carts := service.NewCartService(repos)

	// === Middleware ===

	tracingMW := middleware.NewTracingMiddleware()
	authMW := middleware.NewAuthMiddleware(jwtManager)

	var rateLimitMW *middleware.RateLimitMiddleware
	if cfg.RateLimit.Enabled {
		rateLimitMW = middleware.NewRateLimitMiddleware(middleware.RateLimitConfig{
			Redis:  redisClient,
			Limit:  cfg.RateLimit.RequestsLimit,
			Window: cfg.RateLimit.Window,
		})
		logger.Info().
			Int("limit", cfg.RateLimit.RequestsLimit).
			Dur("window", cfg.RateLimit.Window).
			Msg("Rate limiting включён")
	}

	// === Роутер ===

	router := handler.NewRouter(handler.RouterConfig{
		AuthService: authService,
		RecapOrders: recapOrders,
		StoreOrders: storeOrders,
		Products:    products,
		Carts:       carts,
		AuthMW:      authMW,
		RateLimitMW: rateLimitMW,
		TracingMW:   tracingMW,
		ReadinessCheck: healthcheck.Composite(
			func(ctx context.Context) error { return healthcheck.CheckMySQL(ctx, gormDB) },
			func(ctx context.Context) error { return healthcheck.CheckRedis(ctx, redisClient) },
		),
		Debug: cfg.IsDevelopment(),
	})

	// === HTTP сервер ===

	srv := &http.Server{
		Addr:         cfg.HTTP.Addr(),
		Handler:      router.Engine(),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	go func() {
		logger.Info().
			Str("addr", cfg.HTTP.Addr()).
			Msg("HTTP сервер запущен")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Ошибка HTTP сервера")
		}
	}()

	// === Graceful Shutdown ===

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Получен сигнал завершения, останавливаем сервер...")

	ctx, cancel = context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Ошибка при остановке сервера")
	}

	if metricsServer != nil {
		if err := metricsServer.Shutdown(ctx); err != nil {
			logger.Error().Err(err).Msg("Ошибка остановки Metrics Server")
		}
	}

	if shutdownTracing != nil {
		if err := shutdownTracing(ctx); err != nil {
			logger.Error().Err(err).Msg("Ошибка остановки Tracing")
		}
	}

	// Закрываем подключение к MySQL
	if sqlDB, err := gormDB.DB(); err == nil && sqlDB != nil {
		if err := sqlDB.Close(); err != nil {
			logger.Error().Err(err).Msg("Ошибка закрытия MySQL")
		}
	}

	logger.Info().Msg("Flower Shop API остановлен")
}
