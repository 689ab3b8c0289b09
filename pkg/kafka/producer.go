package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"example.com/flower-shop/pkg/logger"
)

// Producer отправляет сообщения в Kafka с поддержкой headers и трассировки.
type Producer struct {
	writer *kafka.Writer
	cfg    Config
}

// NewProducer создаёт новый Producer для отправки сообщений в Kafka.
func NewProducer(cfg Config) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("не указаны брокеры Kafka")
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond, // Уведомления уходят сразу после коммита
		RequiredAcks: kafka.RequireOne,      // Ждём подтверждения от лидера
		Async:        false,
	}

	logger.Info().
		Strs("brokers", cfg.Brokers).
		Msg("Создан Kafka Producer")

	return &Producer{
		writer: writer,
		cfg:    cfg,
	}, nil
}

// Send отправляет сообщение в указанный топик.
// Автоматически добавляет headers: trace_id, correlation_id, timestamp.
// Headers извлекаются из context, если они там есть.
func (p *Producer) Send(ctx context.Context, topic string, key []byte, value []byte) error {
	msg := kafka.Message{
		Topic:   topic,
		Key:     key,
		Value:   value,
		Headers: p.buildHeaders(ctx),
		Time:    time.Now(),
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		logger.Error().
			Err(err).
			Str("topic", topic).
			Str("key", string(key)).
			Str("trace_id", TraceIDFromContext(ctx)).
			Msg("Ошибка отправки сообщения в Kafka")
		return fmt.Errorf("ошибка отправки в Kafka: %w", err)
	}

	logger.Debug().
		Str("topic", topic).
		Str("key", string(key)).
		Str("trace_id", TraceIDFromContext(ctx)).
		Str("correlation_id", CorrelationIDFromContext(ctx)).
		Msg("Сообщение отправлено в Kafka")

	return nil
}

// SendMessage отправляет подготовленный Message.
func (p *Producer) SendMessage(ctx context.Context, msg *Message) error {
	// Добавляем стандартные headers, если их нет.
	if msg.Headers == nil {
		msg.Headers = make(map[string]string)
	}

	if _, ok := msg.Headers[HeaderTraceID]; !ok {
		if traceID := TraceIDFromContext(ctx); traceID != "" {
			msg.Headers[HeaderTraceID] = traceID
		}
	}

	if _, ok := msg.Headers[HeaderCorrelationID]; !ok {
		if correlationID := CorrelationIDFromContext(ctx); correlationID != "" {
			msg.Headers[HeaderCorrelationID] = correlationID
		}
	}

	if _, ok := msg.Headers[HeaderTimestamp]; !ok {
		msg.Headers[HeaderTimestamp] = time.Now().UTC().Format(time.RFC3339Nano)
	}

	kafkaMsg := msg.toKafkaMessage()
	if err := p.writer.WriteMessages(ctx, kafkaMsg); err != nil {
		logger.Error().
			Err(err).
			Str("topic", msg.Topic).
			Str("key", string(msg.Key)).
			Msg("Ошибка отправки сообщения в Kafka")
		return fmt.Errorf("ошибка отправки в Kafka: %w", err)
	}

	logger.Debug().
		Str("topic", msg.Topic).
		Str("key", string(msg.Key)).
		Msg("Сообщение отправлено в Kafka")

	return nil
}

// buildHeaders собирает headers из context.
func (p *Producer) buildHeaders(ctx context.Context) []kafka.Header {
	headers := make([]kafka.Header, 0, 3)

	if traceID := TraceIDFromContext(ctx); traceID != "" {
		headers = append(headers, kafka.Header{
			Key:   HeaderTraceID,
			Value: []byte(traceID),
		})
	}

	if correlationID := CorrelationIDFromContext(ctx); correlationID != "" {
		headers = append(headers, kafka.Header{
			Key:   HeaderCorrelationID,
			Value: []byte(correlationID),
		})
	}

	headers = append(headers, kafka.Header{
		Key:   HeaderTimestamp,
		Value: []byte(time.Now().UTC().Format(time.RFC3339Nano)),
	})

	return headers
}

// Close закрывает соединение с Kafka.
// Должен вызываться при завершении работы приложения.
func (p *Producer) Close() error {
	logger.Info().Msg("Закрытие Kafka Producer")

	if err := p.writer.Close(); err != nil {
		logger.Error().Err(err).Msg("Ошибка при закрытии Kafka Producer")
		return fmt.Errorf("ошибка закрытия producer: %w", err)
	}

	logger.Info().Msg("Kafka Producer закрыт")
	return nil
}
