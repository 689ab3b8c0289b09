// Package circuitbreaker предоставляет Circuit Breaker для защиты от каскадных сбоев
// при вызовах внешних сервисов (файловое хранилище Cloudinary).
//
// Состояния Circuit Breaker:
//   - Closed: нормальная работа, запросы проходят
//   - Open: сервис недоступен, запросы отклоняются мгновенно (без ожидания timeout)
//   - Half-Open: пробный период, пропускаем часть запросов для проверки восстановления
//
// Использование:
//
//	cb := circuitbreaker.New("cloudinary")
//	result, err := circuitbreaker.Execute(ctx, cb, func() (*UploadResult, error) {
//	    return client.upload(ctx, file)
//	})
package circuitbreaker

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker/v2"

	"example.com/flower-shop/pkg/logger"
)

// ErrUnavailable возвращается, когда breaker открыт и запрос отклонён без выполнения.
var ErrUnavailable = errors.New("внешний сервис временно недоступен (circuit breaker open)")

// Settings — настройки Circuit Breaker.
type Settings struct {
	MaxRequests  uint32        // Макс. запросов в Half-Open состоянии (по умолчанию 1)
	Interval     time.Duration // Интервал сброса счётчика в Closed (по умолчанию 60s)
	Timeout      time.Duration // Время в Open до перехода в Half-Open (по умолчанию 30s)
	FailureRatio float64       // Доля ошибок для перехода в Open (по умолчанию 0.5)
	MinRequests  uint32        // Мин. запросов для расчёта ratio (по умолчанию 5)
}

// DefaultSettings возвращает настройки по умолчанию.
// Подобраны под внешние HTTP API с быстрым восстановлением.
func DefaultSettings() Settings {
	return Settings{
		MaxRequests:  1,
		Interval:     60 * time.Second,
		Timeout:      30 * time.Second,
		FailureRatio: 0.5,
		MinRequests:  5,
	}
}

// Breaker — обёртка над gobreaker с логированием смены состояний.
type Breaker struct {
	cb   *gobreaker.CircuitBreaker[any]
	name string
}

// New создаёт новый Circuit Breaker с настройками по умолчанию.
func New(name string) *Breaker {
	return NewWithSettings(name, DefaultSettings())
}

// NewWithSettings создаёт Circuit Breaker с пользовательскими настройками.
func NewWithSettings(name string, s Settings) *Breaker {
	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        name,
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,

		// ReadyToTrip определяет когда открыть breaker.
		// Открываем если доля ошибок >= FailureRatio и было >= MinRequests запросов.
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < s.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= s.FailureRatio
		},

		// OnStateChange логирует смену состояния.
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log := logger.With().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Logger()

			switch to {
			case gobreaker.StateOpen:
				log.Warn().Msg("Circuit Breaker ОТКРЫТ — внешний сервис недоступен")
			case gobreaker.StateHalfOpen:
				log.Info().Msg("Circuit Breaker ПОЛУОТКРЫТ — пробуем восстановить")
			case gobreaker.StateClosed:
				log.Info().Msg("Circuit Breaker ЗАКРЫТ — внешний сервис восстановлен")
			}
		},
	})

	return &Breaker{cb: cb, name: name}
}

// State возвращает текущее состояние breaker.
func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}

// Name возвращает имя breaker.
func (b *Breaker) Name() string {
	return b.name
}

// Execute выполняет fn через Circuit Breaker.
// При открытом breaker возвращает ErrUnavailable без выполнения fn.
// Отмена контекста вызывающей стороной не учитывается как сбой внешнего сервиса.
func Execute[T any](ctx context.Context, b *Breaker, fn func() (T, error)) (T, error) {
	var zero T

	var fnResult T
	var fnErr error

	_, cbErr := b.cb.Execute(func() (any, error) {
		fnResult, fnErr = fn()
		if fnErr != nil && !errors.Is(fnErr, context.Canceled) && !errors.Is(ctx.Err(), context.Canceled) {
			return nil, fnErr
		}
		return nil, nil
	})

	if errors.Is(cbErr, gobreaker.ErrOpenState) || errors.Is(cbErr, gobreaker.ErrTooManyRequests) {
		return zero, ErrUnavailable
	}

	return fnResult, fnErr
}
