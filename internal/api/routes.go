package api

import (
	"net/http"
)

// RegisterRoutes регистрирует все маршруты API.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	chain := Chain(
		Recovery(h.logger),
		Logging(h.logger),
		CORS("*"),
	)

	mux.Handle("POST /api/v1/execute", chain(http.HandlerFunc(h.Execute)))
	mux.Handle("POST /api/v1/runs", chain(http.HandlerFunc(h.SubmitRun)))
	mux.Handle("GET /api/v1/operations", chain(http.HandlerFunc(h.ListOperations)))
	mux.Handle("OPTIONS /api/v1/", chain(http.NotFoundHandler()))

	mux.HandleFunc("GET /healthz", h.Health)
	mux.Handle("GET /metrics", h.metrics)
}
