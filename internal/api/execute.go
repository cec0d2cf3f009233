package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/shaiso/dataflow/internal/mq"
	"github.com/shaiso/dataflow/internal/telemetry"
)

// Execute выполняет граф и возвращает RunResult.
// POST /api/v1/execute
func (h *Handler) Execute(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeGraph(w, r)
	if !ok {
		return
	}

	ctx := telemetry.WithLogger(r.Context(), h.logger)
	result := h.engine.Execute(ctx, req.Nodes, req.Edges)

	Success(w, result)
}

// SubmitRun ставит граф в очередь на выполнение воркером.
// POST /api/v1/runs
func (h *Handler) SubmitRun(w http.ResponseWriter, r *http.Request) {
	if h.publisher == nil {
		ServiceUnavailable(w, "run queue is not available")
		return
	}

	req, ok := h.decodeGraph(w, r)
	if !ok {
		return
	}

	runID := uuid.NewString()
	err := h.publisher.PublishRunRequested(r.Context(), mq.RunRequestedPayload{
		RunID: runID,
		Nodes: req.Nodes,
		Edges: req.Edges,
	})
	if err != nil {
		h.logger.Error("failed to publish run.requested", "run_id", runID, "error", err)
		ServiceUnavailable(w, "failed to enqueue run")
		return
	}

	h.logger.Info("run queued", "run_id", runID, "nodes", len(req.Nodes))
	Accepted(w, SubmitRunResponse{RunID: runID, Status: "queued"})
}

// decodeGraph читает тело запроса. При ошибке ответ уже отправлен.
func (h *Handler) decodeGraph(w http.ResponseWriter, r *http.Request) (*ExecuteRequest, bool) {
	body := http.MaxBytesReader(w, r.Body, h.maxBody)

	var req ExecuteRequest
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			TooLarge(w, h.maxBody)
			return nil, false
		}
		BadRequest(w, "invalid request body: "+err.Error())
		return nil, false
	}
	return &req, true
}

func formatBytes(n int64) string {
	return humanize.IBytes(uint64(n))
}
