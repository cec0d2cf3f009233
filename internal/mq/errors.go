package mq

import "errors"

var (
	// ErrNoChannel — нет открытого AMQP канала.
	ErrNoChannel = errors.New("no channel available")

	// ErrMalformedMessage — сообщение нельзя разобрать. Обработчик
	// возвращает её (через %w), чтобы сообщение ушло в DLQ без requeue.
	ErrMalformedMessage = errors.New("malformed message")
)
