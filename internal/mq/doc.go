// Package mq предоставляет инфраструктуру для работы с RabbitMQ.
//
// Структура:
//   - connection.go — соединение с RabbitMQ (reconnect с backoff, graceful shutdown)
//   - topology.go   — объявление exchanges, queues, bindings
//   - publisher.go  — публикация сообщений
//   - consumer.go   — потребление сообщений, ack/nack и DLQ
//
// Типы сообщений:
//   - post.due             — пост пора публиковать (scheduler → orchestrator)
//   - notification.created — in-app уведомление (worker → сервис доставки)
//   - webhook.fired        — событие для webhook (worker → сервис доставки)
//
// Exchanges:
//   - postflow.posts  — события постов
//   - postflow.events — исходящие уведомления и webhooks
//   - postflow.dlq    — dead letter queue
package mq
