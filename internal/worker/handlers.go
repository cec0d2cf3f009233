package worker

import (
	"context"
	"fmt"

	"github.com/shaiso/dataflow/internal/domain"
	"github.com/shaiso/dataflow/internal/engine"
	"github.com/shaiso/dataflow/internal/mq"
	"github.com/shaiso/dataflow/internal/telemetry"
)

// handleRunRequested обрабатывает сообщение из runs.requested.
func (w *Worker) handleRunRequested(ctx context.Context, delivery *mq.Delivery) error {
	if delivery.Message.Type != mq.MessageTypeRunRequested {
		return fmt.Errorf("%w: %q", ErrUnexpectedType, delivery.Message.Type)
	}

	payload, err := mq.ParsePayload[mq.RunRequestedPayload](&delivery.Message)
	if err != nil {
		return fmt.Errorf("parse run.requested: %w", err)
	}
	if payload.RunID == "" {
		return ErrMissingRunID
	}

	_, err = w.process(ctx, payload)
	return err
}

// process выполняет граф и публикует результат.
//
// Ошибки узлов и пустой граф — часть результата, а не ошибка обработки.
// Ошибка возвращается только при сбое публикации: сообщение вернётся
// в очередь и run будет выполнен повторно.
func (w *Worker) process(ctx context.Context, payload mq.RunRequestedPayload) (*domain.RunResult, error) {
	logger := telemetry.WithRunID(w.logger, payload.RunID)
	logger.Info("run received", "nodes", len(payload.Nodes), "edges", len(payload.Edges))

	runCtx, cancel := context.WithTimeout(ctx, w.runTimeout)
	defer cancel()
	runCtx = engine.ContextWithRunID(telemetry.WithLogger(runCtx, logger), payload.RunID)

	result := w.engine.Execute(runCtx, payload.Nodes, payload.Edges)

	if w.publisher == nil {
		logger.Warn("publisher not available, skipping run.completed publish")
		return result, nil
	}
	if err := w.publisher.PublishRunCompleted(ctx, payload.RunID, result); err != nil {
		return result, fmt.Errorf("publish run.completed: %w", err)
	}

	logger.Info("run completed", "status", result.Status, "duration_ms", result.DurationMS)
	return result, nil
}
