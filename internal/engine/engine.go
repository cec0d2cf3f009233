package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/dataflow/internal/domain"
	"github.com/shaiso/dataflow/internal/ops"
	"github.com/shaiso/dataflow/internal/table"
	"github.com/shaiso/dataflow/internal/telemetry"
)

// Recorder — получатель метрик выполнения.
type Recorder interface {
	RunFinished(status string)
	NodeFinished(kind, status string, d time.Duration)
}

// Engine выполняет графы пайплайнов.
//
// Engine не хранит состояние между вызовами Execute: каждый run получает
// собственный Context. Реестр операций и метрики общие для процесса.
type Engine struct {
	registry    *ops.Registry
	metrics     Recorder
	logger      *slog.Logger
	previewRows int
}

// Option — настройка Engine.
type Option func(*Engine)

// WithMetrics подключает сбор метрик.
func WithMetrics(m Recorder) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithLogger задаёт логгер (по умолчанию slog.Default).
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithPreviewRows задаёт максимум строк preview (не больше 100).
func WithPreviewRows(n int) Option {
	return func(e *Engine) { e.previewRows = n }
}

// New создаёт Engine с реестром операций.
func New(registry *ops.Registry, opts ...Option) *Engine {
	e := &Engine{
		registry:    registry,
		previewRows: DefaultPreviewRows,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// Registry возвращает реестр операций.
func (e *Engine) Registry() *ops.Registry {
	return e.registry
}

type runIDKey struct{}

// ContextWithRunID задаёт идентификатор для следующего Execute.
// Используется, когда run_id выдан заранее (очередь, API).
func ContextWithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey{}, runID)
}

func runIDFrom(ctx context.Context) string {
	if id, ok := ctx.Value(runIDKey{}).(string); ok && id != "" {
		return id
	}
	return uuid.NewString()
}

// run — состояние одного выполнения.
type run struct {
	result *domain.RunResult
	data   *Context
	graph  *Graph
	logger *slog.Logger
}

func (r *run) logf(format string, args ...any) {
	r.result.Logs = append(r.result.Logs, fmt.Sprintf(format, args...))
}

// Execute выполняет граф и возвращает результат.
//
// Узлы выполняются по одному в топологическом порядке. Ошибка или паника
// в узле не прерывает run: узел получает статус failed, а его выходом
// становится вход без изменений. Узлы без входных данных пропускаются.
// Status=error возвращается только для пустого графа и некорректных ID.
func (e *Engine) Execute(ctx context.Context, nodes []domain.Node, edges []domain.Edge) *domain.RunResult {
	started := time.Now()
	res := &domain.RunResult{
		RunID:       runIDFrom(ctx),
		Status:      domain.RunStatusSuccess,
		Logs:        []string{},
		NodeOutputs: make(map[string]*domain.NodeSummary),
		Order:       []string{},
		StartedAt:   started.UTC(),
	}
	logger := telemetry.WithRunID(e.logger, res.RunID)

	defer func() {
		res.DurationMS = time.Since(started).Milliseconds()
		if e.metrics != nil {
			e.metrics.RunFinished(string(res.Status))
		}
		logger.Info("run finished",
			"status", res.Status,
			"nodes", len(res.Order),
			"duration_ms", res.DurationMS,
		)
	}()

	if len(nodes) == 0 {
		res.Status = domain.RunStatusError
		res.Message = "Empty Workflow"
		res.FinalOutput = emptySummary()
		return res
	}

	graph, err := BuildGraph(nodes, edges)
	if err != nil {
		res.Status = domain.RunStatusError
		res.Message = err.Error()
		res.FinalOutput = emptySummary()
		logger.Warn("invalid graph", "error", err)
		return res
	}

	r := &run{
		result: res,
		data:   NewContext(),
		graph:  graph,
		logger: logger,
	}

	order, err := graph.Order()
	if errors.Is(err, ErrCyclicDependency) {
		r.logf("Cycle detected in workflow graph; executing nodes in declaration order")
		logger.Warn("cyclic graph, falling back to declaration order")
	}

	logger.Info("run started", "nodes", graph.Size(), "edges", len(edges))

	for _, node := range order {
		res.Order = append(res.Order, node.ID)
		res.NodeOutputs[node.ID] = e.runNode(ctx, r, node)
	}

	// Итог run — последний узел в порядке выполнения, всегда с preview
	last := order[len(order)-1]
	final := *res.NodeOutputs[last.ID]
	if t, ok := r.data.Table(last.ID); ok {
		final.Preview = previewRows(t, e.limit())
	}
	if final.Preview == nil {
		final.Preview = []map[string]any{}
	}
	res.FinalOutput = &final

	return res
}

func (e *Engine) limit() int {
	if e.previewRows <= 0 || e.previewRows > DefaultPreviewRows {
		return DefaultPreviewRows
	}
	return e.previewRows
}

// runNode выполняет один узел и возвращает его сводку.
func (e *Engine) runNode(ctx context.Context, r *run, node *Node) *domain.NodeSummary {
	started := time.Now()
	kind := node.Spec.Kind

	var input *table.Table
	if pred := node.Input(); pred != nil {
		input, _ = r.data.Table(pred.ID)
	}

	op, err := e.registry.Get(kind)
	if err == nil {
		kind = op.Kind()
	}
	logger := telemetry.WithNodeID(r.logger, node.ID, kind)

	summary := SummaryInput{Node: node.Spec, Kind: kind, Limit: e.limit()}

	finish := func() *domain.NodeSummary {
		if e.metrics != nil {
			e.metrics.NodeFinished(kind, string(summary.Status), time.Since(started))
		}
		logger.Debug("node finished", "status", summary.Status, "duration", time.Since(started))
		return Summarize(summary)
	}

	if err != nil {
		r.logf("[Step %s] Error at '%s': %v", node.ID, kind, err)
		logger.Warn("node failed", "error", err)
		r.data.Set(node.ID, input)
		summary.Status = domain.NodeStatusFailed
		summary.Err = err
		summary.Table = input
		return finish()
	}

	category := op.Category()
	summary.Preview = category == ops.CategoryDisplay

	if category.NeedsInput() && input == nil {
		r.logf("[Step %s] Skipped '%s': no input data from previous step", node.ID, node.Spec.Kind)
		summary.Status = domain.NodeStatusSkipped
		summary.Preview = false
		return finish()
	}

	req := &ops.Request{
		NodeID:       node.ID,
		Label:        node.Spec.Kind,
		Config:       node.Spec.Config,
		Input:        input,
		Predecessors: node.Predecessors(),
		Tables:       r.data,
	}
	if pred := node.Input(); pred != nil {
		if predOp, err := e.registry.Get(pred.Spec.Kind); err == nil && predOp.Category() == ops.CategorySource {
			req.Source = &ops.SourceRef{
				NodeID: pred.ID,
				Kind:   predOp.Kind(),
				Label:  pred.Spec.Kind,
				Config: pred.Spec.Config,
			}
		}
	}

	resp, err := apply(telemetry.WithLogger(ctx, logger), op, req)
	if err != nil {
		r.logf("[Step %s] Error at '%s': %v", node.ID, node.Spec.Kind, err)
		logger.Warn("node failed", "error", err)
		r.data.Set(node.ID, input)
		summary.Status = domain.NodeStatusFailed
		summary.Err = err
		summary.Table = input
		return finish()
	}

	for _, msg := range resp.Logs {
		r.logf("[Step %s] %s", node.ID, msg)
	}

	if category == ops.CategorySource {
		summary.Status = domain.NodeStatusConfigured
		summary.Preview = false
		return finish()
	}

	out := resp.Table
	r.data.Set(node.ID, out)
	r.data.SetArtifact(node.ID, resp.Artifact)

	summary.Table = out
	summary.Artifact = resp.Artifact
	if out == nil || out.IsEmpty() {
		summary.Status = domain.NodeStatusEmpty
	} else {
		summary.Status = domain.NodeStatusSucceeded
	}
	return finish()
}

// apply вызывает операцию, превращая панику в ошибку.
func apply(ctx context.Context, op ops.Operation, req *ops.Request) (resp *ops.Response, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			resp = nil
			err = fmt.Errorf("%w: %v", ErrOperationPanic, rec)
		}
	}()

	resp, err = op.Apply(ctx, req)
	if err == nil && resp == nil {
		resp = &ops.Response{}
	}
	return resp, err
}
