package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/shaiso/dataflow/internal/domain"
	"github.com/shaiso/dataflow/internal/mq"
)

const (
	defaultPrefetch   = 2
	defaultRunTimeout = 5 * time.Minute
)

// Executor выполняет граф. Реализация — *engine.Engine.
type Executor interface {
	Execute(ctx context.Context, nodes []domain.Node, edges []domain.Edge) *domain.RunResult
}

// ResultPublisher отправляет результат run. Реализация — *mq.Publisher.
type ResultPublisher interface {
	PublishRunCompleted(ctx context.Context, runID string, result *domain.RunResult) error
}

// Worker выполняет графы из очереди runs.requested.
//
// Worker не хранит состояния между сообщениями: несколько экземпляров
// могут потреблять одну очередь.
type Worker struct {
	engine     Executor
	publisher  ResultPublisher
	conn       *mq.Connection
	consumer   *mq.Consumer
	prefetch   int
	runTimeout time.Duration

	logger     *slog.Logger
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	stopped    bool
	stoppedMu  sync.RWMutex
}

// Config — конфигурация Worker.
type Config struct {
	Engine    Executor
	Publisher ResultPublisher
	Conn      *mq.Connection

	// Prefetch — графов в обработке одновременно (по умолчанию 2).
	Prefetch int

	// RunTimeout — ограничение на один run (по умолчанию 5 минут).
	// Действует на загрузку из внешних источников.
	RunTimeout time.Duration

	Logger *slog.Logger
}

// New создаёт Worker.
func New(cfg Config) *Worker {
	prefetch := cfg.Prefetch
	if prefetch <= 0 {
		prefetch = defaultPrefetch
	}

	runTimeout := cfg.RunTimeout
	if runTimeout <= 0 {
		runTimeout = defaultRunTimeout
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Worker{
		engine:     cfg.Engine,
		publisher:  cfg.Publisher,
		conn:       cfg.Conn,
		prefetch:   prefetch,
		runTimeout: runTimeout,
		logger:     logger,
	}
}

// Start запускает consumer очереди runs.requested и возвращает управление.
func (w *Worker) Start(ctx context.Context) error {
	if w.conn == nil {
		return ErrNoConnection
	}

	ctx, cancel := context.WithCancel(ctx)
	w.cancelFunc = cancel

	w.consumer = mq.NewConsumer(w.conn, w.logger, mq.ConsumerConfig{
		Queue:    string(mq.QueueRunsRequested),
		Handler:  w.handleRunRequested,
		Prefetch: w.prefetch,
	})

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		if err := w.consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			w.logger.Error("run consumer error", "error", err)
		}
	}()

	w.logger.Info("worker started", "prefetch", w.prefetch, "run_timeout", w.runTimeout)
	return nil
}

// Stop останавливает consumer и ждёт завершения текущего run.
func (w *Worker) Stop() {
	w.stoppedMu.Lock()
	if w.stopped {
		w.stoppedMu.Unlock()
		return
	}
	w.stopped = true
	w.stoppedMu.Unlock()

	w.logger.Info("stopping worker...")

	if w.cancelFunc != nil {
		w.cancelFunc()
	}
	if w.consumer != nil {
		w.consumer.Stop()
	}
	w.wg.Wait()

	w.logger.Info("worker stopped")
}

// IsStopped проверяет, остановлен ли Worker.
func (w *Worker) IsStopped() bool {
	w.stoppedMu.RLock()
	defer w.stoppedMu.RUnlock()
	return w.stopped
}
