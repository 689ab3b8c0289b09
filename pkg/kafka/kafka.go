// Package kafka предоставляет обёртку над kafka-go для публикации событий заказов.
// Producer используется уведомителем: события отправляются после коммита транзакции
// и никогда не влияют на результат операции.
package kafka

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"

	"example.com/flower-shop/pkg/logger"
)

// Топики событий заказов.
const (
	// TopicOrderCreated — заказ создан (любой канал).
	TopicOrderCreated = "orders.created"

	// TopicOrderStatusChanged — статус заказа изменился.
	TopicOrderStatusChanged = "orders.status_changed"

	// TopicManagerNotifications — уведомления менеджеру о новых заказах.
	TopicManagerNotifications = "orders.manager_notifications"
)

// Ключи для headers сообщений Kafka.
const (
	// HeaderTraceID - идентификатор трассировки запроса.
	HeaderTraceID = "trace_id"

	// HeaderCorrelationID - идентификатор корреляции связанных операций.
	HeaderCorrelationID = "correlation_id"

	// HeaderTimestamp - временная метка создания сообщения.
	HeaderTimestamp = "timestamp"
)

// Config содержит настройки для подключения к Kafka.
type Config struct {
	// Brokers - список адресов брокеров Kafka.
	Brokers []string
}

// Message представляет сообщение Kafka с метаданными.
type Message struct {
	// Key - ключ сообщения для партиционирования (обычно ID заказа).
	Key []byte

	// Value - тело сообщения (payload).
	Value []byte

	// Topic - топик сообщения.
	Topic string

	// Headers - заголовки сообщения (trace_id, correlation_id и т.д.).
	Headers map[string]string

	// Time - временная метка сообщения.
	Time time.Time
}

// toKafkaMessage конвертирует Message в kafka.Message.
func (m *Message) toKafkaMessage() kafka.Message {
	headers := make([]kafka.Header, 0, len(m.Headers))
	for k, v := range m.Headers {
		headers = append(headers, kafka.Header{
			Key:   k,
			Value: []byte(v),
		})
	}

	return kafka.Message{
		Key:     m.Key,
		Value:   m.Value,
		Topic:   m.Topic,
		Headers: headers,
		Time:    m.Time,
	}
}

// TraceIDFromContext извлекает trace_id из context.
// Делегирует в pkg/logger для единообразной работы с контекстом.
func TraceIDFromContext(ctx context.Context) string {
	return logger.TraceIDFromContext(ctx)
}

// CorrelationIDFromContext извлекает correlation_id из context.
// Делегирует в pkg/logger для единообразной работы с контекстом.
func CorrelationIDFromContext(ctx context.Context) string {
	return logger.CorrelationIDFromContext(ctx)
}
