package ops

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaiso/dataflow/internal/table"
)

func orders() *table.Table {
	return table.New([]string{"Id", "City", "Amount"}, [][]any{
		{1.0, "Paris", 10.0},
		{2.0, "Rome", 20.0},
		{3.0, nil, 5.0},
	})
}

func countries() *table.Table {
	return table.New([]string{"City", "Country"}, [][]any{
		{"Paris", "FR"},
		{"London", "UK"},
	})
}

func merge(t *testing.T, cfg map[string]any, preds []string, tbls tables) *Response {
	t.Helper()
	resp, err := (&Merge{transform(KindMerge)}).Apply(context.Background(), &Request{
		NodeID:       "m",
		Config:       cfg,
		Input:        orders(),
		Predecessors: preds,
		Tables:       tbls,
	})
	require.NoError(t, err)
	return resp
}

func TestMerge_How(t *testing.T) {
	tbls := tables{"r": countries()}

	tests := []struct {
		how  string
		rows [][]any
	}{
		{"inner", [][]any{{1.0, "Paris", 10.0, "FR"}}},
		{"left", [][]any{
			{1.0, "Paris", 10.0, "FR"},
			{2.0, "Rome", 20.0, nil},
			{3.0, nil, 5.0, nil},
		}},
		{"right", [][]any{
			{1.0, "Paris", 10.0, "FR"},
			{nil, "London", nil, "UK"},
		}},
		{"outer", [][]any{
			{1.0, "Paris", 10.0, "FR"},
			{2.0, "Rome", 20.0, nil},
			{3.0, nil, 5.0, nil},
			{nil, "London", nil, "UK"},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.how, func(t *testing.T) {
			resp := merge(t, map[string]any{"rightNode": "r", "how": tt.how}, nil, tbls)

			assert.Equal(t, []string{"Id", "City", "Amount", "Country"}, resp.Table.Columns())
			require.Equal(t, len(tt.rows), resp.Table.NumRows())
			for i, want := range tt.rows {
				assert.Equal(t, want, resp.Table.Row(i))
			}
		})
	}
}

func TestMerge_SecondPredecessor(t *testing.T) {
	resp := merge(t, nil, []string{"l", "r"}, tables{"r": countries()})

	assert.Equal(t, 1, resp.Table.NumRows())
	assert.True(t, hasLog(resp, "Merged with 'r'"))
}

func TestMerge_OverlappingColumns(t *testing.T) {
	right := table.New([]string{"City", "Amount"}, [][]any{{"Rome", 99.0}})

	resp := merge(t, map[string]any{"on": "City", "rightNode": "r"}, nil, tables{"r": right})

	assert.Equal(t, []string{"Id", "City", "Amount_x", "Amount_y"}, resp.Table.Columns())
	assert.Equal(t, []any{2.0, "Rome", 20.0, 99.0}, resp.Table.Row(0))
}

func TestMerge_Errors(t *testing.T) {
	op := &Merge{transform(KindMerge)}
	ctx := context.Background()

	_, err := op.Apply(ctx, &Request{Input: orders(), Predecessors: []string{"l"}, Tables: tables{}})
	assert.ErrorIs(t, err, ErrMissingInput)

	_, err = op.Apply(ctx, &Request{
		Input:  orders(),
		Config: map[string]any{"rightNode": "r", "on": "Country"},
		Tables: tables{"r": countries()},
	})
	assert.ErrorIs(t, err, ErrMissingColumn)

	_, err = op.Apply(ctx, &Request{
		Input:  orders(),
		Config: map[string]any{"rightNode": "r", "how": "cross"},
		Tables: tables{"r": countries()},
	})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestConcat(t *testing.T) {
	a := table.New([]string{"x", "y"}, [][]any{{1.0, "a"}, {2.0, "b"}})
	b := table.New([]string{"y", "z"}, [][]any{{"c", true}})
	op := &Concat{transform(KindConcat)}
	ctx := context.Background()

	resp, err := op.Apply(ctx, &Request{Input: a, Predecessors: []string{"a", "b"}, Tables: tables{"a": a, "b": b}})
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y", "z"}, resp.Table.Columns())
	assert.Equal(t, []any{nil, "c", true}, resp.Table.Row(2))

	c := table.New([]string{"w"}, [][]any{{"only"}})
	resp, err = op.Apply(ctx, &Request{
		Input:  a,
		Config: map[string]any{"nodes": []any{"a", "c", "ghost"}, "axis": "columns"},
		Tables: tables{"a": a, "c": c},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y", "w"}, resp.Table.Columns())
	assert.Equal(t, []any{2.0, "b", nil}, resp.Table.Row(1))
	assert.True(t, hasLog(resp, "'ghost' has no table"))

	// Без таблиц других узлов — только вход
	resp, err = op.Apply(ctx, &Request{Input: a})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Table.NumRows())
}
