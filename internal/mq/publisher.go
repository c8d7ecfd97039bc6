package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shaiso/postflow/internal/domain"
)

// MessageType — тип сообщения в очереди.
type MessageType string

// Типы сообщений.
const (
	MessageTypePostDue      MessageType = "post.due"
	MessageTypeNotification MessageType = "notification.created"
	MessageTypeWebhook      MessageType = "webhook.fired"
)

// Publisher публикует сообщения в RabbitMQ.
type Publisher struct {
	conn   *Connection
	logger *slog.Logger
}

// NewPublisher создаёт новый Publisher.
func NewPublisher(conn *Connection, logger *slog.Logger) *Publisher {
	return &Publisher{
		conn:   conn,
		logger: logger,
	}
}

// Message — сообщение для публикации.
type Message struct {
	// ID — уникальный идентификатор сообщения.
	ID string `json:"id"`

	// Type — тип сообщения.
	Type MessageType `json:"type"`

	// Payload — полезная нагрузка.
	Payload any `json:"payload"`

	// Timestamp — время создания.
	Timestamp time.Time `json:"timestamp"`
}

// PostDuePayload — пост пора публиковать.
type PostDuePayload struct {
	PostID         string    `json:"post_id"`
	OrganizationID string    `json:"organization_id"`
	Provider       string    `json:"provider"`
	PublishDate    time.Time `json:"publish_date"`
}

// WebhookPayload — событие публикации для webhook организации.
type WebhookPayload struct {
	WebhookID      string `json:"webhook_id"`
	URL            string `json:"url"`
	OrganizationID string `json:"organization_id"`
	IntegrationID  string `json:"integration_id"`
	ExternalID     string `json:"external_id"`
}

// Publish публикует сообщение в указанный exchange с routing key.
func (p *Publisher) Publish(ctx context.Context, exchange Exchange, routingKey RoutingKey, msg *Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	return p.conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		err := ch.PublishWithContext(
			ctx,
			string(exchange),   // exchange
			string(routingKey), // routing key
			false,
			false,
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent, // сообщение переживёт рестарт RabbitMQ
				MessageId:    msg.ID,
				Timestamp:    msg.Timestamp,
				Body:         body,
			},
		)
		if err != nil {
			return fmt.Errorf("publish to %s/%s: %w", exchange, routingKey, err)
		}

		p.logger.Debug("published message",
			"exchange", exchange,
			"routing_key", routingKey,
			"message_id", msg.ID,
			"type", msg.Type,
		)

		return nil
	})
}

// PublishPostDue публикует событие о посте, который пора публиковать.
// Потребитель: Orchestrator.
func (p *Publisher) PublishPostDue(ctx context.Context, payload PostDuePayload) error {
	msg := &Message{
		ID:        uuid.New().String(),
		Type:      MessageTypePostDue,
		Payload:   payload,
		Timestamp: time.Now(),
	}

	return p.Publish(ctx, ExchangePosts, RoutingKeyDue, msg)
}

// PublishNotification публикует in-app уведомление.
func (p *Publisher) PublishNotification(ctx context.Context, n domain.Notification) error {
	return p.PublishJSON(ctx, ExchangeEvents, RoutingKeyNotification, MessageTypeNotification, n)
}

// PublishWebhook публикует событие для одного webhook.
func (p *Publisher) PublishWebhook(ctx context.Context, payload WebhookPayload) error {
	return p.PublishJSON(ctx, ExchangeEvents, RoutingKeyWebhook, MessageTypeWebhook, payload)
}

// PublishJSON публикует произвольный JSON payload.
func (p *Publisher) PublishJSON(ctx context.Context, exchange Exchange, routingKey RoutingKey, msgType MessageType, payload any) error {
	msg := &Message{
		ID:        uuid.New().String(),
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now(),
	}

	return p.Publish(ctx, exchange, routingKey, msg)
}
