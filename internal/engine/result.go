package engine

import (
	"math"
	"time"

	"github.com/shaiso/dataflow/internal/domain"
	"github.com/shaiso/dataflow/internal/ops"
	"github.com/shaiso/dataflow/internal/table"
)

// DefaultPreviewRows — максимум строк preview в сводке узла.
const DefaultPreviewRows = 100

// SummaryInput — всё, что нужно для сводки узла.
type SummaryInput struct {
	Node     domain.Node
	Kind     string
	Status   domain.NodeStatus
	Err      error
	Table    *table.Table
	Artifact *ops.Artifact

	// Preview — включать ли строки таблицы в сводку.
	Preview bool

	// Limit — максимум строк preview (0 — DefaultPreviewRows).
	Limit int
}

// Summarize строит сводку узла для UI.
//
// Строки preview включаются только при in.Preview. NaN и ±Inf
// заменяются на nil, даты форматируются строкой.
func Summarize(in SummaryInput) *domain.NodeSummary {
	s := &domain.NodeSummary{
		ID:      in.Node.ID,
		Kind:    in.Kind,
		Config:  in.Node.Config,
		Status:  in.Status,
		Columns: []string{},
		Stats:   map[string]map[string]any{},
	}
	if in.Err != nil {
		s.Error = in.Err.Error()
	}
	if in.Artifact != nil {
		s.Image = in.Artifact.DataURL()
	}

	t := in.Table
	if t == nil {
		return s
	}

	s.Rows = t.NumRows()
	s.Columns = t.Columns()
	s.Stats = sanitizeStats(t.Describe())

	if in.Preview {
		limit := in.Limit
		if limit <= 0 || limit > DefaultPreviewRows {
			limit = DefaultPreviewRows
		}
		s.Preview = previewRows(t, limit)
	}
	return s
}

// previewRows превращает первые limit строк в JSON-совместимые записи.
func previewRows(t *table.Table, limit int) []map[string]any {
	records := t.Records(limit)
	for _, rec := range records {
		for k, v := range rec {
			rec[k] = sanitizeValue(v)
		}
	}
	return records
}

// sanitizeValue приводит ячейку к виду, который можно отдать в JSON.
func sanitizeValue(v any) any {
	switch x := v.(type) {
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil
		}
		return x
	case time.Time:
		return table.ToString(x)
	}
	return v
}

func sanitizeStats(stats map[string]map[string]float64) map[string]map[string]any {
	out := make(map[string]map[string]any, len(stats))
	for col, values := range stats {
		m := make(map[string]any, len(values))
		for name, v := range values {
			m[name] = sanitizeValue(v)
		}
		out[col] = m
	}
	return out
}

// emptySummary — итоговая сводка run, в котором не выполнился ни один узел.
func emptySummary() *domain.NodeSummary {
	return &domain.NodeSummary{
		Columns: []string{},
		Preview: []map[string]any{},
		Stats:   map[string]map[string]any{},
	}
}
