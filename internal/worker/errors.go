package worker

import (
	"errors"
	"fmt"

	"github.com/shaiso/dataflow/internal/mq"
)

// Ошибки воркера. Ошибки некорректного сообщения оборачивают
// mq.ErrMalformedMessage: такие сообщения уходят в DLQ.
var (
	// ErrUnexpectedType — в очереди сообщение другого типа.
	ErrUnexpectedType = fmt.Errorf("%w: unexpected message type", mq.ErrMalformedMessage)

	// ErrMissingRunID — в запросе нет run_id.
	ErrMissingRunID = fmt.Errorf("%w: missing run_id", mq.ErrMalformedMessage)

	// ErrNoConnection — Start без соединения с RabbitMQ.
	ErrNoConnection = errors.New("worker has no mq connection")
)
