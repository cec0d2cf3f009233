package ops

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaiso/dataflow/internal/table"
)

func TestSort(t *testing.T) {
	op := &Sort{transform(KindSort)}

	resp := applyOp(t, op, people(), map[string]any{"column": "Age"})
	assert.Equal(t, []any{"Bob", "Ann", "Eve", "Dan", "Cid"}, resp.Table.Column("Name"))

	// Пустые значения в конце и при обратном порядке
	resp = applyOp(t, op, people(), map[string]any{"column": "Age", "order": "desc"})
	assert.Equal(t, []any{"Dan", "Eve", "Ann", "Bob", "Cid"}, resp.Table.Column("Name"))

	resp = applyOp(t, op, people(), map[string]any{"column": "City", "ascending": true})
	assert.Equal(t, []any{"Berlin", "London", "Paris", "Paris", "Paris"}, resp.Table.Column("City"))
	// Устойчивость: равные ключи в исходном порядке
	assert.Equal(t, []any{"Ann", "Cid", "Eve"}, resp.Table.Column("Name")[2:])

	err := applyErr(op, people(), map[string]any{"column": "Nope"})
	assert.ErrorIs(t, err, ErrMissingColumn)

	resp = applyOp(t, op, people(), nil)
	assert.True(t, hasLog(resp, "No sort column"))
}

func TestSort_Natural(t *testing.T) {
	in := table.New([]string{"f"}, [][]any{{"file10"}, {nil}, {"file2"}, {"file1"}})
	op := &Sort{transform(KindSort)}

	resp := applyOp(t, op, in, map[string]any{"column": "f"})
	assert.Equal(t, []any{"file1", "file2", "file10", nil}, resp.Table.Column("f"))

	resp = applyOp(t, op, in, map[string]any{"column": "f", "ascending": false})
	assert.Equal(t, []any{"file10", "file2", "file1", nil}, resp.Table.Column("f"))
}

func TestRankValues(t *testing.T) {
	values := []any{10.0, 20.0, 20.0, 30.0, nil}

	tests := []struct {
		method string
		desc   bool
		want   []any
	}{
		{"average", false, []any{1.0, 2.5, 2.5, 4.0, nil}},
		{"min", false, []any{1.0, 2.0, 2.0, 4.0, nil}},
		{"max", false, []any{1.0, 3.0, 3.0, 4.0, nil}},
		{"dense", false, []any{1.0, 2.0, 2.0, 3.0, nil}},
		{"first", false, []any{1.0, 2.0, 3.0, 4.0, nil}},
		{"average", true, []any{4.0, 2.5, 2.5, 1.0, nil}},
	}
	for _, tt := range tests {
		got, err := rankValues(values, tt.method, tt.desc)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.method)
	}

	_, err := rankValues(values, "random", false)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestRank(t *testing.T) {
	op := &Rank{display(KindRank)}

	resp := applyOp(t, op, people(), map[string]any{"column": "Score", "order": "desc", "method": "dense"})

	// Порядок строк не меняется
	assert.Equal(t, people().Column("Name"), resp.Table.Column("Name"))
	assert.Equal(t, []any{2.0, nil, 3.0, 1.0, 4.0}, resp.Table.Column("Score_rank"))
}
