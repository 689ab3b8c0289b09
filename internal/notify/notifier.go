// Package notify отправляет уведомления о событиях заказов.
// Все отправки — fire-and-forget после коммита транзакции:
// сбой уведомления логируется и никогда не влияет на заказ.
package notify

import (
	"context"
	"encoding/json"
	"time"

	"example.com/flower-shop/pkg/kafka"
	"example.com/flower-shop/pkg/logger"
)

// Kind — тип события уведомления.
type Kind string

const (
	// OrderCreated — заказ создан (любой канал).
	OrderCreated Kind = "ORDER_CREATED"

	// OrderStatusChanged — статус заказа изменился.
	OrderStatusChanged Kind = "ORDER_STATUS_CHANGED"

	// NewOrderForManager — новый заказ с витрины для менеджера.
	NewOrderForManager Kind = "NEW_ORDER_FOR_MANAGER"
)

// Notifier определяет интерфейс отправителя уведомлений.
type Notifier interface {
	// Notify отправляет событие по заказу. Extra — дополнительные
	// данные события (новый статус, канал и т.п.).
	Notify(ctx context.Context, kind Kind, orderID string, extra map[string]string)
}

// event — сериализуемое тело уведомления.
type event struct {
	Kind      Kind              `json:"kind"`
	OrderID   string            `json:"order_id"`
	Extra     map[string]string `json:"extra,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// kafkaNotifier — реализация Notifier поверх Kafka.
type kafkaNotifier struct {
	producer *kafka.Producer
}

// NewKafka создаёт уведомитель поверх Kafka Producer.
func NewKafka(producer *kafka.Producer) Notifier {
	return &kafkaNotifier{producer: producer}
}

// Notify отправляет событие в соответствующий топик.
// Ошибки только логируются: заказ уже закоммичен.
func (n *kafkaNotifier) Notify(ctx context.Context, kind Kind, orderID string, extra map[string]string) {
	log := logger.FromContext(ctx)

	payload, err := json.Marshal(event{
		Kind:      kind,
		OrderID:   orderID,
		Extra:     extra,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		log.Error().Err(err).Str("order_id", orderID).Msg("Ошибка сериализации уведомления")
		return
	}

	topic := topicFor(kind)
	if err := n.producer.Send(ctx, topic, []byte(orderID), payload); err != nil {
		log.Error().
			Err(err).
			Str("order_id", orderID).
			Str("kind", string(kind)).
			Msg("Ошибка отправки уведомления, заказ не затронут")
		return
	}

	log.Debug().
		Str("order_id", orderID).
		Str("kind", string(kind)).
		Msg("Уведомление отправлено")
}

// topicFor выбирает топик по типу события.
func topicFor(kind Kind) string {
	switch kind {
	case OrderCreated:
		return kafka.TopicOrderCreated
	case NewOrderForManager:
		return kafka.TopicManagerNotifications
	default:
		return kafka.TopicOrderStatusChanged
	}
}

// Noop — заглушка уведомителя для конфигураций без Kafka и для тестов.
type Noop struct{}

// Notify ничего не делает.
func (Noop) Notify(context.Context, Kind, string, map[string]string) {}
