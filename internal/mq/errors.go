package mq

import "errors"

// Ошибки брокера.
var (
	// ErrNoChannel — AMQP канал недоступен (соединение ещё не восстановлено).
	ErrNoChannel = errors.New("no channel available")

	// ErrConnectionClosed — соединение закрыто через Close.
	ErrConnectionClosed = errors.New("connection closed")

	// ErrDeliveriesClosed — брокер закрыл канал доставки.
	ErrDeliveriesClosed = errors.New("deliveries channel closed")

	// ErrPermanent — обработчик не сможет обработать сообщение при повторе.
	ErrPermanent = errors.New("permanent message failure")
)
