package ops

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChart(t *testing.T) {
	op := &Chart{display(KindBarChart)}

	// Повторяющиеся X с осью Y — сумма
	resp := applyOp(t, op, sales(), map[string]any{"column": "Region", "yAxis": "Sales"})
	assert.Equal(t, []string{"Region", "Sales"}, resp.Table.Columns())
	assert.Equal(t, []any{"East", "North", "South"}, resp.Table.Column("Region"))
	assert.Equal(t, []any{7.0, 60.0, 20.0}, resp.Table.Column("Sales"))
	assert.True(t, hasLog(resp, "Chart configured"))

	// Без оси Y — частоты
	resp = applyOp(t, op, sales(), map[string]any{"column": "Region"})
	assert.Equal(t, []string{"Region", "Count"}, resp.Table.Columns())
	assert.Equal(t, []any{"North", 3.0}, resp.Table.Row(0))

	// Уникальные X — строки как есть
	resp = applyOp(t, op, people(), map[string]any{"column": "Name", "yAxis": "Age"})
	assert.Equal(t, people().Columns(), resp.Table.Columns())
	assert.Equal(t, 5, resp.Table.NumRows())

	resp = applyOp(t, op, people(), map[string]any{"column": "Nope"})
	assert.Equal(t, 5, resp.Table.NumRows())
	assert.True(t, hasLog(resp, "without a valid X column"))
}

func TestScatterPlot(t *testing.T) {
	op := &ScatterPlot{display(KindScatterPlot)}

	resp := applyOp(t, op, people(), map[string]any{"column": "Age", "yAxis": "Score"})

	assert.Equal(t, []any{"Ann", "Dan", "Eve"}, resp.Table.Column("Name"))
	assert.True(t, hasLog(resp, "Scatter plot executed"))

	err := applyErr(op, people(), map[string]any{"column": "Age", "yAxis": "Nope"})
	assert.ErrorIs(t, err, ErrMissingColumn)
}

func TestHeatmap(t *testing.T) {
	resp := applyOp(t, &Heatmap{display(KindHeatmap)}, sales(), map[string]any{"column": "Region", "yAxis": "Product"})

	require.Equal(t, []string{"Region", "Product", "Count"}, resp.Table.Columns())
	require.Equal(t, 5, resp.Table.NumRows())
	assert.Equal(t, []any{"North", "A", 2.0}, resp.Table.Row(1))
}

func TestKPICard(t *testing.T) {
	op := &KPICard{display(KindKPICard)}

	tests := []struct {
		name  string
		cfg   map[string]any
		label string
		value any
	}{
		{"rows", nil, "Total Rows", 5.0},
		{"sum", map[string]any{"column": "Score", "operation": "sum"}, "sum Score", 305.5},
		{"average", map[string]any{"column": "Age", "operation": "avg", "label": "Mean age"}, "Mean age", 32.5},
		{"count text", map[string]any{"column": "City"}, "count City", 5.0},
		{"missing column", map[string]any{"column": "Nope", "operation": "sum"}, "sum Nope", 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := applyOp(t, op, people(), tt.cfg)

			require.Equal(t, []string{tt.label}, resp.Table.Columns())
			assert.Equal(t, []any{tt.value}, resp.Table.Row(0))
		})
	}
}

func TestKPICard_NonNumericColumnCountsRows(t *testing.T) {
	op := &KPICard{display(KindKPICard)}

	for _, fn := range []string{"sum", "avg", "max", "min"} {
		t.Run(fn, func(t *testing.T) {
			resp := applyOp(t, op, people(), map[string]any{"column": "City", "operation": fn})

			assert.Equal(t, []any{5.0}, resp.Table.Row(0))
			assert.True(t, hasLog(resp, "no numeric values"), resp.Logs)
		})
	}
}
