package ops

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaiso/dataflow/internal/table"
)

func cond(column, operator string, value any) map[string]any {
	return map[string]any{"column": column, "operator": operator, "value": value}
}

func TestFilterRows(t *testing.T) {
	op := &FilterRows{transform(KindFilterRows)}

	tests := []struct {
		name  string
		conds []any
		names []any
	}{
		{"equals", []any{cond("City", "==", "Paris")}, []any{"Ann", "Cid", "Eve"}},
		{"numeric literal", []any{cond("Age", ">", "30")}, []any{"Dan", "Eve"}},
		{"and", []any{cond("City", "==", "Paris"), cond("Age", ">=", 35)}, []any{"Eve"}},
		{"not equals keeps nulls", []any{cond("Age", "!=", 30)}, []any{"Bob", "Cid", "Dan", "Eve"}},
		{"contains", []any{cond("City", "contains", "on")}, []any{"Bob"}},
		{"starts with", []any{cond("Name", "starts_with", "E")}, []any{"Eve"}},
		{"matches", []any{cond("Name", "matches", "^(Ann|Bob)$")}, []any{"Ann", "Bob"}},
		{"is null", []any{cond("Score", "is_null", nil)}, []any{"Bob"}},
		{"alias", []any{cond("Age", "less than", 30)}, []any{"Bob"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := applyOp(t, op, people(), map[string]any{"conditions": tt.conds})
			assert.Equal(t, tt.names, resp.Table.Column("Name"))
		})
	}
}

func TestFilterRows_SingleCondition(t *testing.T) {
	op := &FilterRows{transform(KindFilterRows)}

	resp := applyOp(t, op, people(), cond("City", "==", "Paris"))

	assert.Equal(t, 3, resp.Table.NumRows())
}

func TestFilterRows_MissingColumn(t *testing.T) {
	op := &FilterRows{transform(KindFilterRows)}
	in := people()

	resp := applyOp(t, op, in, map[string]any{"conditions": []any{cond("Country", "==", "FR")}})

	assert.Equal(t, in.NumRows(), resp.Table.NumRows())
	assert.True(t, hasLog(resp, "'Country' not found"))
}

func TestFilterRows_InvalidConfig(t *testing.T) {
	op := &FilterRows{transform(KindFilterRows)}

	err := applyErr(op, people(), map[string]any{"conditions": []any{cond("City", "~~", "x")}})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	err = applyErr(op, people(), map[string]any{"conditions": []any{cond("City", "matches", "(")}})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestFilterDate(t *testing.T) {
	in := table.New([]string{"Date", "Shipped"}, [][]any{
		{"2024-01-05", "2024-01-07"},
		{"2024-02-10", "2024-02-11"},
		{"2024-03-15", "2024-04-01"},
		{"not a date", nil},
	})
	op := &FilterDate{transform(KindFilterDate)}

	resp := applyOp(t, op, in, map[string]any{"dateRanges": []any{
		map[string]any{"column": "Date", "startDate": "2024-01-01", "endDate": "2024-02-28"},
	}})
	assert.Equal(t, 2, resp.Table.NumRows())

	// Условия объединяются через AND
	resp = applyOp(t, op, in, map[string]any{"dateRanges": []any{
		map[string]any{"column": "Date", "startDate": "2024-01-01", "endDate": "2024-12-31"},
		map[string]any{"column": "Shipped", "startDate": "2024-02-01", "endDate": "2024-02-28"},
	}})
	assert.Equal(t, []any{"2024-02-10"}, resp.Table.Column("Date"))

	// Неполное условие пропускается
	resp = applyOp(t, op, in, map[string]any{"dateRanges": []any{
		map[string]any{"column": "Date", "startDate": "2024-01-01", "endDate": ""},
	}})
	assert.Equal(t, in.NumRows(), resp.Table.NumRows())
	assert.True(t, hasLog(resp, "Incomplete date range"))
}

func TestSelectColumns(t *testing.T) {
	op := &SelectColumns{transform(KindSelectColumns)}

	resp := applyOp(t, op, people(), map[string]any{"columns": []any{"Age", "Nope", "Name"}})
	assert.Equal(t, []string{"Age", "Name"}, resp.Table.Columns())
	assert.Equal(t, 5, resp.Table.NumRows())

	// Ни одной существующей колонки — пустая таблица без колонок, не ошибка
	resp = applyOp(t, op, people(), map[string]any{"columns": []any{"X", "Y"}})
	require.NotNil(t, resp.Table)
	assert.Equal(t, 0, resp.Table.NumCols())
	assert.True(t, resp.Table.IsEmpty())

	// Пустой список — тоже таблица без колонок
	resp = applyOp(t, op, people(), map[string]any{"columns": []any{}})
	require.NotNil(t, resp.Table)
	assert.Equal(t, 0, resp.Table.NumCols())
	assert.True(t, hasLog(resp, "No columns selected"), resp.Logs)
}

func TestValueCounts(t *testing.T) {
	op := &ValueCounts{display(KindValueCounts)}

	resp := applyOp(t, op, people(), map[string]any{"column": "City"})

	assert.Equal(t, []string{"City", "Count"}, resp.Table.Columns())
	assert.Equal(t, []any{"Paris", "London", "Berlin"}, resp.Table.Column("City"))
	assert.Equal(t, []any{3.0, 1.0, 1.0}, resp.Table.Column("Count"))

	err := applyErr(op, people(), map[string]any{"column": "Nope"})
	assert.ErrorIs(t, err, ErrMissingColumn)
}

func TestPreview(t *testing.T) {
	op := &Preview{display(KindPreview)}

	resp := applyOp(t, op, people(), map[string]any{"n": 2})
	assert.Equal(t, []any{"Ann", "Bob"}, resp.Table.Column("Name"))

	resp = applyOp(t, op, people(), map[string]any{"mode": "tail", "n": "2"})
	assert.Equal(t, []any{"Dan", "Eve"}, resp.Table.Column("Name"))

	// Случайная выборка повторяется между запусками
	first := applyOp(t, op, people(), map[string]any{"mode": "random", "n": 3})
	second := applyOp(t, op, people(), map[string]any{"mode": "random", "n": 3})
	assert.Equal(t, 3, first.Table.NumRows())
	assert.Equal(t, first.Table.Records(0), second.Table.Records(0))

	resp = applyOp(t, op, people(), map[string]any{"n": 0})
	assert.Equal(t, 5, resp.Table.NumRows())
	assert.True(t, hasLog(resp, "must be positive"))
}
