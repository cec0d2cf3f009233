package ops

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/shaiso/dataflow/internal/table"
)

const (
	KindGroupBy    = "group_by"
	KindPivotTable = "pivot_table"
)

// aggFuncs — поддерживаемые функции агрегации и их синонимы.
var aggFuncs = map[string]string{
	"sum": "sum", "total": "sum",
	"mean": "mean", "avg": "mean", "average": "mean",
	"median": "median",
	"min":    "min", "max": "max",
	"count": "count", "size": "size",
	"std": "std", "var": "var",
	"nunique": "nunique", "unique": "nunique", "distinct": "nunique",
	"first": "first", "last": "last",
}

// normalizeAgg возвращает каноническое имя функции агрегации.
func normalizeAgg(fn string) (string, error) {
	key := strings.ToLower(strings.TrimSpace(fn))
	if key == "" {
		return "sum", nil
	}
	if canonical, ok := aggFuncs[key]; ok {
		return canonical, nil
	}
	return "", fmt.Errorf("%w: unknown aggregation %q", ErrInvalidConfig, fn)
}

// aggregate сворачивает значения одной группы.
// Числовые функции игнорируют значения, которые не приводятся к числу.
func aggregate(fn string, values []any) any {
	switch fn {
	case "size":
		return float64(len(values))
	case "count":
		n := 0
		for _, v := range values {
			if !table.IsNull(v) {
				n++
			}
		}
		return float64(n)
	case "nunique":
		seen := newKeyIndex(len(values))
		for _, v := range values {
			if !table.IsNull(v) {
				seen.valueID(v)
			}
		}
		return float64(seen.size())
	case "first":
		for _, v := range values {
			if !table.IsNull(v) {
				return v
			}
		}
		return nil
	case "last":
		for i := len(values) - 1; i >= 0; i-- {
			if !table.IsNull(values[i]) {
				return values[i]
			}
		}
		return nil
	case "min", "max":
		var best any
		for _, v := range values {
			if table.IsNull(v) {
				continue
			}
			if best == nil {
				best = v
				continue
			}
			c := table.Compare(v, best)
			if (fn == "min" && c < 0) || (fn == "max" && c > 0) {
				best = v
			}
		}
		return best
	}

	nums := make([]float64, 0, len(values))
	for _, v := range values {
		if f, ok := table.ToFloat(v); ok && !table.IsNull(v) {
			nums = append(nums, f)
		}
	}
	if fn == "sum" {
		return floats.Sum(nums)
	}
	if len(nums) == 0 {
		return nil
	}
	switch fn {
	case "mean":
		return stat.Mean(nums, nil)
	case "median":
		return table.Median(nums)
	case "std":
		if len(nums) < 2 {
			return nil
		}
		return stat.StdDev(nums, nil)
	case "var":
		if len(nums) < 2 {
			return nil
		}
		return stat.Variance(nums, nil)
	}
	return nil
}

// group — строки с одинаковым ключом.
type group struct {
	key  []any
	rows []int
}

// groupRows разбивает строки по значениям колонок idx.
// Строки с null в ключе отбрасываются, группы упорядочены по ключу.
func groupRows(t *table.Table, idx []int) []*group {
	keys := newKeyIndex(t.NumRows())
	var groups []*group
	for i := 0; i < t.NumRows(); i++ {
		row := t.Row(i)
		if hasNullKey(row, idx) {
			continue
		}
		k, added := keys.id(row, idx)
		if added {
			groups = append(groups, &group{key: keys.key(k)})
		}
		groups[k].rows = append(groups[k].rows, i)
	}
	slices.SortStableFunc(groups, func(a, b *group) int {
		for k := range a.key {
			if c := table.Compare(a.key[k], b.key[k]); c != 0 {
				return c
			}
		}
		return 0
	})
	return groups
}

// aggregation — пара (колонка, функция).
type aggregation struct {
	Column   string `json:"column"`
	Func     string `json:"func"`
	Function string `json:"function"`
	Agg      string `json:"agg"`
}

func (a aggregation) fn() string {
	switch {
	case a.Func != "":
		return a.Func
	case a.Function != "":
		return a.Function
	}
	return a.Agg
}

type groupByConfig struct {
	GroupColumns []string      `json:"groupColumns"`
	GroupColumn  string        `json:"groupColumn"`
	Aggregations []aggregation `json:"aggregations"`
}

// GroupBy группирует строки и считает агрегаты.
type GroupBy struct{ base }

func (o *GroupBy) Apply(_ context.Context, req *Request) (*Response, error) {
	var cfg groupByConfig
	if err := decodeConfig(req.Config, &cfg); err != nil {
		return nil, err
	}
	requested := cfg.GroupColumns
	if len(requested) == 0 && cfg.GroupColumn != "" {
		requested = []string{cfg.GroupColumn}
	}

	in := req.Input
	resp := &Response{}
	keys, missing := targetColumns(in, requested)
	if len(requested) == 0 || len(keys) == 0 {
		return nil, fmt.Errorf("%w: no group columns among %v", ErrMissingColumn, requested)
	}
	if len(missing) > 0 {
		resp.Logf("Ignored missing group columns: %s", strings.Join(missing, ", "))
	}

	type spec struct {
		col, fn, name string
	}
	var specs []spec
	perColumn := make(map[string]int)
	for _, a := range cfg.Aggregations {
		if a.Column == "" {
			continue
		}
		if !in.Has(a.Column) {
			resp.Logf("Aggregation column '%s' not found; skipped", a.Column)
			continue
		}
		fn, err := normalizeAgg(a.fn())
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec{col: a.Column, fn: fn})
		perColumn[a.Column]++
	}
	for i := range specs {
		specs[i].name = specs[i].col
		if perColumn[specs[i].col] > 1 || slices.Contains(keys, specs[i].col) {
			specs[i].name = specs[i].col + "_" + specs[i].fn
		}
	}
	if len(specs) == 0 {
		specs = []spec{{fn: "size", name: "Count"}}
	}

	groups := groupRows(in, indices(in, keys))
	cols := slices.Clone(keys)
	for _, s := range specs {
		cols = append(cols, s.name)
	}

	rows := make([][]any, len(groups))
	for gi, g := range groups {
		row := slices.Clone(g.key)
		for _, s := range specs {
			values := make([]any, len(g.rows))
			for k, i := range g.rows {
				if s.col != "" {
					values[k] = in.Value(i, s.col)
				}
			}
			row = append(row, aggregate(s.fn, values))
		}
		rows[gi] = row
	}

	resp.Table = table.New(cols, rows)
	return resp, nil
}

type pivotConfig struct {
	Index   string `json:"index"`
	Columns string `json:"columns"`
	Values  string `json:"values"`
	AggFunc string `json:"aggFunc"`
}

// PivotTable строит сводную таблицу.
type PivotTable struct{ base }

func (o *PivotTable) Apply(_ context.Context, req *Request) (*Response, error) {
	cfg := pivotConfig{AggFunc: "sum"}
	if err := decodeConfig(req.Config, &cfg); err != nil {
		return nil, err
	}
	in := req.Input
	if err := requireColumn(in, cfg.Index); err != nil {
		return nil, err
	}
	fn, err := normalizeAgg(cfg.AggFunc)
	if err != nil {
		return nil, err
	}
	if cfg.Values == "" {
		fn = "size"
	} else if err := requireColumn(in, cfg.Values); err != nil {
		return nil, err
	}

	valuesOf := func(rows []int) []any {
		out := make([]any, len(rows))
		if cfg.Values == "" {
			return out
		}
		for k, i := range rows {
			out[k] = in.Value(i, cfg.Values)
		}
		return out
	}

	indexGroups := groupRows(in, indices(in, []string{cfg.Index}))

	// Без колонки разворота — просто агрегат по индексу
	if cfg.Columns == "" || !in.Has(cfg.Columns) {
		name := cfg.Values
		if name == "" {
			name = "Count"
		}
		rows := make([][]any, len(indexGroups))
		for gi, g := range indexGroups {
			rows[gi] = []any{g.key[0], aggregate(fn, valuesOf(g.rows))}
		}
		return NewResponse(table.New([]string{cfg.Index, name}, rows)), nil
	}

	pivotGroups := groupRows(in, indices(in, []string{cfg.Columns}))
	cols := []string{cfg.Index}
	pos := newKeyIndex(len(pivotGroups))
	for _, g := range pivotGroups {
		cols = append(cols, table.ToString(g.key[0]))
		pos.id(g.key, []int{0})
	}

	pj, _ := in.ColumnIndex(cfg.Columns)
	rows := make([][]any, len(indexGroups))
	for gi, g := range indexGroups {
		buckets := make([][]int, len(pivotGroups))
		for _, i := range g.rows {
			v := in.Row(i)[pj]
			if table.IsNull(v) {
				continue
			}
			k, ok := pos.lookup([]any{v}, []int{0})
			if !ok {
				continue
			}
			buckets[k] = append(buckets[k], i)
		}
		row := make([]any, 1+len(pivotGroups))
		row[0] = g.key[0]
		for k, b := range buckets {
			if len(b) == 0 {
				continue
			}
			cell := aggregate(fn, valuesOf(b))
			if f, ok := cell.(float64); ok && math.IsNaN(f) {
				cell = nil
			}
			row[1+k] = cell
		}
		rows[gi] = row
	}
	return NewResponse(table.New(cols, rows)), nil
}
