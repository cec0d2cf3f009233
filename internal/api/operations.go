package api

import "net/http"

// ListOperations возвращает зарегистрированные операции.
// GET /api/v1/operations
func (h *Handler) ListOperations(w http.ResponseWriter, r *http.Request) {
	kinds := h.registry.Kinds()

	result := make([]OperationResponse, 0, len(kinds))
	for _, kind := range kinds {
		op, err := OperationFromRegistry(h.registry, kind)
		if err != nil {
			InternalError(w, h.logger, err)
			return
		}
		result = append(result, op)
	}

	List(w, result, len(result))
}

// Health отвечает на проверку живости.
// GET /healthz
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
