package mq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/shaiso/postflow/internal/telemetry"
)

// Handler — функция обработки сообщения.
// Ошибка возвращает сообщение в очередь один раз; повторная ошибка
// отправляет его в DLQ. Ошибки, обёрнутые в ErrPermanent, сразу уходят в DLQ.
type Handler func(ctx context.Context, msg *Delivery) error

// Delivery — доставленное сообщение.
type Delivery struct {
	// Message — распарсенное сообщение.
	Message Message

	// Redelivered — сообщение уже доставлялось ранее.
	Redelivered bool
}

// Исход обработки сообщения (label метрики).
const (
	outcomeAck        = "ack"
	outcomeRequeue    = "requeue"
	outcomeDeadLetter = "dead_letter"
)

const defaultHandlerTimeout = time.Minute

// Consumer потребляет сообщения из очереди RabbitMQ.
type Consumer struct {
	conn           *Connection
	logger         *slog.Logger
	queue          Queue
	handler        Handler
	prefetch       int
	handlerTimeout time.Duration

	cancelFunc context.CancelFunc
}

// ConsumerConfig — конфигурация consumer.
type ConsumerConfig struct {
	Queue   Queue
	Handler Handler

	// Prefetch — количество неподтверждённых сообщений на канал (default: 1).
	Prefetch int

	// HandlerTimeout — лимит времени на одно сообщение (default: 1m).
	HandlerTimeout time.Duration
}

// NewConsumer создаёт новый Consumer.
func NewConsumer(conn *Connection, logger *slog.Logger, cfg ConsumerConfig) *Consumer {
	prefetch := cfg.Prefetch
	if prefetch <= 0 {
		prefetch = 1
	}
	timeout := cfg.HandlerTimeout
	if timeout <= 0 {
		timeout = defaultHandlerTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Consumer{
		conn:           conn,
		logger:         logger.With("queue", string(cfg.Queue)),
		queue:          cfg.Queue,
		handler:        cfg.Handler,
		prefetch:       prefetch,
		handlerTimeout: timeout,
	}
}

// Start потребляет сообщения до отмены ctx. После потери соединения
// потребление возобновляется на новом канале.
func (c *Consumer) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	c.cancelFunc = cancel

	for {
		deliveries, err := c.subscribe()
		if err != nil {
			c.logger.Error("failed to subscribe", "error", err)
		} else {
			c.logger.Info("consumer started")
			err = c.drain(ctx, deliveries)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Warn("consumer interrupted, waiting for reconnect", "error", err)
		}

		if err := c.waitReconnect(ctx); err != nil {
			return err
		}
	}
}

// Stop останавливает consumer.
func (c *Consumer) Stop() {
	if c.cancelFunc != nil {
		c.cancelFunc()
	}
}

func (c *Consumer) waitReconnect(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.conn.ReconnectNotify():
		c.logger.Info("reconnected, restarting consumer")
		return nil
	}
}

// subscribe открывает потребление очереди с ручным ack.
func (c *Consumer) subscribe() (<-chan amqp.Delivery, error) {
	ch := c.conn.Channel()
	if ch == nil {
		return nil, ErrNoChannel
	}

	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		return nil, fmt.Errorf("set qos: %w", err)
	}

	deliveries, err := ch.Consume(string(c.queue), "", false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("consume: %w", err)
	}
	return deliveries, nil
}

func (c *Consumer) drain(ctx context.Context, deliveries <-chan amqp.Delivery) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case raw, ok := <-deliveries:
			if !ok {
				return ErrDeliveriesClosed
			}
			outcome := c.process(ctx, raw)
			telemetry.MessagesConsumed.WithLabelValues(string(c.queue), outcome).Inc()
		}
	}
}

// process обрабатывает одно сообщение и подтверждает его.
// Возвращает исход для метрики.
func (c *Consumer) process(ctx context.Context, raw amqp.Delivery) string {
	var msg Message
	if err := json.Unmarshal(raw.Body, &msg); err != nil {
		c.logger.Error("malformed message", "error", err, "body", string(raw.Body))
		return settle(raw, ErrPermanent)
	}

	logger := c.logger.With("message_id", msg.ID, "type", msg.Type)
	logger.Debug("received message", "redelivered", raw.Redelivered)

	hctx, cancel := context.WithTimeout(ctx, c.handlerTimeout)
	defer cancel()

	err := c.handler(hctx, &Delivery{Message: msg, Redelivered: raw.Redelivered})
	if err != nil {
		logger.Error("handler failed", "error", err, "redelivered", raw.Redelivered)
	}
	return settle(raw, err)
}

// ackNacker — подтверждение сообщения (amqp.Delivery).
type ackNacker interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

// settle подтверждает сообщение по результату обработчика.
func settle(raw amqp.Delivery, err error) string {
	return settleWith(raw, err, raw.Redelivered)
}

func settleWith(a ackNacker, err error, redelivered bool) string {
	if err == nil {
		a.Ack(false)
		return outcomeAck
	}
	if shouldRequeue(err, redelivered) {
		a.Nack(false, true)
		return outcomeRequeue
	}
	a.Nack(false, false)
	return outcomeDeadLetter
}

// shouldRequeue решает судьбу сообщения после ошибки обработчика:
// true — вернуть в очередь, false — отправить в DLQ.
func shouldRequeue(err error, redelivered bool) bool {
	if errors.Is(err, ErrPermanent) {
		return false
	}
	return !redelivered
}

// ParsePayload парсит payload сообщения в указанный тип.
func ParsePayload[T any](msg *Message) (T, error) {
	var result T

	// Payload приходит как map после json.Unmarshal в Message
	payloadBytes, err := json.Marshal(msg.Payload)
	if err != nil {
		return result, fmt.Errorf("marshal payload: %w", err)
	}

	if err := json.Unmarshal(payloadBytes, &result); err != nil {
		return result, fmt.Errorf("unmarshal payload: %w", err)
	}

	return result, nil
}
