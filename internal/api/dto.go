package api

import (
	"github.com/shaiso/dataflow/internal/domain"
	"github.com/shaiso/dataflow/internal/ops"
)

// ExecuteRequest — граф для выполнения. Узлы принимаются в каноническом
// формате и в формате React Flow (см. domain.Node).
type ExecuteRequest struct {
	Nodes []domain.Node `json:"nodes"`
	Edges []domain.Edge `json:"edges"`
}

// SubmitRunResponse — ответ на постановку run в очередь.
type SubmitRunResponse struct {
	RunID  string `json:"run_id"`
	Status string `json:"status"`
}

// OperationResponse — операция для палитры конструктора.
type OperationResponse struct {
	Kind     string   `json:"kind"`
	Category string   `json:"category"`
	Display  bool     `json:"display"`
	Inputs   bool     `json:"needs_input"`
	Aliases  []string `json:"aliases,omitempty"`
}

// OperationFromRegistry описывает операцию kind.
func OperationFromRegistry(r *ops.Registry, kind string) (OperationResponse, error) {
	op, err := r.Get(kind)
	if err != nil {
		return OperationResponse{}, err
	}
	return OperationResponse{
		Kind:     op.Kind(),
		Category: string(op.Category()),
		Display:  op.Category() == ops.CategoryDisplay,
		Inputs:   op.Category().NeedsInput(),
		Aliases:  r.Aliases(op.Kind()),
	}, nil
}
