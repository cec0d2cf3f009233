package ops

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaiso/dataflow/internal/table"
)

func TestCalculatedField(t *testing.T) {
	op := &CalculatedField{transform(KindCalculatedField)}

	tests := []struct {
		name string
		expr string
		want []any
	}{
		{"arithmetic", "Age * 2", []any{60.0, 50.0, nil, 80.0, 70.0}},
		{"backticks", "`Score` + 1", []any{86.5, nil, 71.0, 91.0, 61.0}},
		{"row index", `row["City"]`, []any{"Paris", "London", "Paris", "Berlin", "Paris"}},
		{"function", "upper(Name)", []any{"ANN", "BOB", "CID", "DAN", "EVE"}},
		{"conditional", `Score >= 80 ? "high" : "low"`, []any{"high", nil, "low", "high", "low"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := applyOp(t, op, people(), map[string]any{"newColumn": "Out", "expression": tt.expr})

			assert.Equal(t, tt.want, resp.Table.Column("Out"))
		})
	}
}

func TestCalculatedField_Failures(t *testing.T) {
	op := &CalculatedField{transform(KindCalculatedField)}

	// Строка с пустым значением даёт null и запись в журнале
	resp := applyOp(t, op, people(), map[string]any{"newColumn": "Out", "expression": "Age + 1"})
	assert.True(t, hasLog(resp, "failed on 1 rows"))

	err := applyErr(op, people(), map[string]any{"newColumn": "Out", "expression": "Age +"})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	// Ни одна строка не вычислилась — ошибка узла
	err = applyErr(op, people(), map[string]any{"newColumn": "Out", "expression": "Missing * 2"})
	assert.Error(t, err)

	resp = applyOp(t, op, people(), map[string]any{"expression": "Age"})
	assert.True(t, hasLog(resp, "needs a column name"))
}

func TestIdentifier(t *testing.T) {
	assert.Equal(t, "Unit_Price", identifier("Unit Price"))
	assert.Equal(t, "_2024_sales", identifier("2024 sales"))
	assert.Equal(t, `row["Unit Price"] * 2`, rewriteBackticks("`Unit Price` * 2"))
}

func TestStandardScaler(t *testing.T) {
	op := &StandardScaler{transform(KindStandardScaler)}

	resp := applyOp(t, op, people(), map[string]any{"columns": []any{"Age"}, "method": "minmax"})
	age := resp.Table.Column("Age")
	assert.InDelta(t, 5.0/15.0, age[0], 1e-9)
	assert.Equal(t, 0.0, age[1])
	assert.Nil(t, age[2])
	assert.Equal(t, 1.0, age[3])
	// Остальные колонки не тронуты
	assert.Equal(t, people().Column("Score"), resp.Table.Column("Score"))

	resp = applyOp(t, op, people(), map[string]any{"columns": []any{"Age"}})
	var sum float64
	for _, v := range resp.Table.Column("Age") {
		if f, ok := v.(float64); ok {
			sum += f
		}
	}
	assert.InDelta(t, 0, sum, 1e-9)

	resp = applyOp(t, op, people(), map[string]any{"columns": []any{"City"}})
	assert.True(t, hasLog(resp, "'City' is not numeric"))
	assert.True(t, hasLog(resp, "No numeric columns"))
}

func TestStandardScaler_ConstantColumn(t *testing.T) {
	in := table.New([]string{"v"}, [][]any{{5.0}, {5.0}})

	resp := applyOp(t, &StandardScaler{transform(KindStandardScaler)}, in, nil)

	assert.Equal(t, []any{0.0, 0.0}, resp.Table.Column("v"))
}

func TestOneHot(t *testing.T) {
	in := table.New([]string{"Color", "N"}, [][]any{
		{"red", 1.0},
		{"blue", 2.0},
		{"red", 3.0},
		{nil, 4.0},
	})
	op := &OneHot{transform(KindOneHot)}

	resp := applyOp(t, op, in, nil)

	require.Equal(t, []string{"N", "Color_blue", "Color_red"}, resp.Table.Columns())
	assert.Equal(t, []any{false, true, false, false}, resp.Table.Column("Color_blue"))
	assert.Equal(t, []any{true, false, true, false}, resp.Table.Column("Color_red"))

	resp = applyOp(t, op, in, map[string]any{"column": "Color", "maxCategories": 1})
	assert.True(t, resp.Table.Has("Color"))
	assert.True(t, hasLog(resp, "has 2 categories"))
}
