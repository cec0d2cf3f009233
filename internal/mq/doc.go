// Package mq — работа с RabbitMQ для асинхронного выполнения графов.
//
// Структура:
//   - connection.go — соединение с переподключением
//   - topology.go   — exchanges, queues, bindings
//   - publisher.go  — конверт Message и публикация
//   - consumer.go   — потребление с ack/nack
//
// Топология:
//
//	dataflow.runs (direct)
//	├── runs.requested [routing: requested]  → dataflow-worker, DLQ: dlq.runs
//	└── runs.completed [routing: completed]  → внешние потребители
//	dataflow.dlq (direct)
//	└── dlq.runs [routing: runs]
//
// Типы сообщений: run.requested {run_id, nodes, edges},
// run.completed {run_id, result}.
package mq
