package mq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange — тип для имени обменника.
type Exchange string

// Queue — тип для имени очереди.
type Queue string

// RoutingKey — тип для ключа маршрутизации.
type RoutingKey string

// Exchanges — имена обменников.
const (
	ExchangePosts  Exchange = "postflow.posts"
	ExchangeEvents Exchange = "postflow.events"
	ExchangeDLQ    Exchange = "postflow.dlq"
)

// Queues — имена очередей.
const (
	QueuePostsDue      Queue = "posts.due"
	QueueNotifications Queue = "notifications.outbound"
	QueueWebhooks      Queue = "webhooks.outbound"
	QueueDLQPosts      Queue = "dlq.posts"
)

// Routing keys.
const (
	RoutingKeyDue          RoutingKey = "due"
	RoutingKeyNotification RoutingKey = "notification"
	RoutingKeyWebhook      RoutingKey = "webhook"
	RoutingKeyDLQPosts     RoutingKey = "posts"
)

// SetupTopology объявляет exchanges, queues и bindings. Операция идемпотентна.
func SetupTopology(ctx context.Context, conn *Connection) error {
	return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		// 1. Создаём exchanges
		if err := declareExchanges(ch); err != nil {
			return err
		}

		// 2. Создаём queues
		if err := declareQueues(ch); err != nil {
			return err
		}

		// 3. Привязываем queues к exchanges
		if err := bindQueues(ch); err != nil {
			return err
		}

		return nil
	})
}

// declareExchanges создаёт обменники.
func declareExchanges(ch *amqp.Channel) error {
	exchanges := []struct {
		name Exchange
		kind string
	}{
		{ExchangePosts, "direct"},
		{ExchangeEvents, "direct"},
		{ExchangeDLQ, "direct"},
	}

	for _, ex := range exchanges {
		err := ch.ExchangeDeclare(
			string(ex.name), // name
			ex.kind,         // type
			true,            // durable
			false,           // auto-deleted
			false,           // internal
			false,           // no-wait
			nil,             // arguments
		)
		if err != nil {
			return fmt.Errorf("declare exchange %s: %w", ex.name, err)
		}
	}

	return nil
}

// declareQueues создаёт очереди.
func declareQueues(ch *amqp.Channel) error {
	// Аргументы для очередей с DLQ
	dlqArgs := amqp.Table{
		"x-dead-letter-exchange":    string(ExchangeDLQ),
		"x-dead-letter-routing-key": string(RoutingKeyDLQPosts),
	}

	queues := []struct {
		name Queue
		args amqp.Table
	}{
		// posts.due — с DLQ (битые сообщения не должны крутиться вечно)
		{QueuePostsDue, dlqArgs},

		// Исходящие события читает сервис доставки.
		{QueueNotifications, nil},
		{QueueWebhooks, nil},

		{QueueDLQPosts, nil},
	}

	for _, q := range queues {
		_, err := ch.QueueDeclare(
			string(q.name), // name
			true,           // durable
			false,          // delete when unused
			false,          // exclusive
			false,          // no-wait
			q.args,         // arguments
		)
		if err != nil {
			return fmt.Errorf("declare queue %s: %w", q.name, err)
		}
	}

	return nil
}

// bindQueues привязывает очереди к обменникам.
func bindQueues(ch *amqp.Channel) error {
	bindings := []struct {
		queue      Queue
		routingKey RoutingKey
		exchange   Exchange
	}{
		{QueuePostsDue, RoutingKeyDue, ExchangePosts},
		{QueueNotifications, RoutingKeyNotification, ExchangeEvents},
		{QueueWebhooks, RoutingKeyWebhook, ExchangeEvents},
		{QueueDLQPosts, RoutingKeyDLQPosts, ExchangeDLQ},
	}

	for _, b := range bindings {
		err := ch.QueueBind(
			string(b.queue),      // queue name
			string(b.routingKey), // routing key
			string(b.exchange),   // exchange
			false,                // no-wait
			nil,                  // arguments
		)
		if err != nil {
			return fmt.Errorf("bind queue %s to %s: %w", b.queue, b.exchange, err)
		}
	}

	return nil
}

// TopologyInfo возвращает описание топологии для логирования.
func TopologyInfo() string {
	return `
  Postflow RabbitMQ Topology:

    postflow.posts (direct)
    └── posts.due [routing: due]
            Consumer: Orchestrator
            DLQ: dlq.posts

    postflow.events (direct)
    ├── notifications.outbound [routing: notification]
    └── webhooks.outbound [routing: webhook]
            Consumer: delivery service

    postflow.dlq (direct)
    └── dlq.posts [routing: posts]
            Manual processing
  `
}
