package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/dataflow/internal/domain"
	"github.com/shaiso/dataflow/internal/mq"
	"github.com/shaiso/dataflow/internal/ops"
)

// defaultMaxBody — предел размера тела запроса с графом.
const defaultMaxBody = 10 << 20

// Executor выполняет граф синхронно.
type Executor interface {
	Execute(ctx context.Context, nodes []domain.Node, edges []domain.Edge) *domain.RunResult
}

// RunPublisher ставит граф в очередь.
type RunPublisher interface {
	PublishRunRequested(ctx context.Context, payload mq.RunRequestedPayload) error
}

// Handler — обработчик API с зависимостями.
type Handler struct {
	engine    Executor
	registry  *ops.Registry
	publisher RunPublisher
	metrics   http.Handler
	logger    *slog.Logger
	maxBody   int64
}

// Config — конфигурация Handler.
type Config struct {
	Engine   Executor
	Registry *ops.Registry

	// Publisher — nil, если RabbitMQ недоступен: POST /runs отвечает 503.
	Publisher RunPublisher

	// Metrics — обработчик /metrics (по умолчанию promhttp.Handler).
	Metrics http.Handler

	Logger *slog.Logger

	// MaxBodyBytes — предел тела запроса (по умолчанию 10 MiB).
	MaxBodyBytes int64
}

// NewHandler создаёт Handler.
func NewHandler(cfg Config) *Handler {
	h := &Handler{
		engine:    cfg.Engine,
		registry:  cfg.Registry,
		publisher: cfg.Publisher,
		metrics:   cfg.Metrics,
		logger:    cfg.Logger,
		maxBody:   cfg.MaxBodyBytes,
	}
	if h.metrics == nil {
		h.metrics = promhttp.Handler()
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	if h.maxBody <= 0 {
		h.maxBody = defaultMaxBody
	}
	return h
}
