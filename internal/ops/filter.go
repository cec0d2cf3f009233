package ops

import (
	"context"
	"fmt"
	"math/rand"
	"slices"
	"strings"
	"time"

	"github.com/grafana/regexp"

	"github.com/shaiso/dataflow/internal/table"
)

const (
	KindFilterRows    = "filter_rows"
	KindFilterDate    = "filter_date"
	KindSelectColumns = "select_columns"
	KindValueCounts   = "value_counts"
	KindPreview       = "preview"
	KindSample        = "sample"
)

// condition — одно условие фильтра.
type condition struct {
	Column   string `json:"column"`
	Operator string `json:"operator"`
	Value    any    `json:"value"`
}

type filterRowsConfig struct {
	Conditions []condition `json:"conditions"`
	Column     string      `json:"column"`
	Operator   string      `json:"operator"`
	Value      any         `json:"value"`
}

// predicate — скомпилированное условие над строкой.
type predicate func(row []any) bool

// operatorAliases приводит разные написания операторов к одному.
var operatorAliases = map[string]string{
	"=": "==", "eq": "==", "equals": "==", "is": "==",
	"<>": "!=", "ne": "!=", "not_equals": "!=", "is_not": "!=",
	"gt": ">", "greater_than": ">",
	"lt": "<", "less_than": "<",
	"gte": ">=", "ge": ">=", "greater_equal": ">=",
	"lte": "<=", "le": "<=", "less_equal": "<=",
	"not_contains": "not_contains", "does_not_contain": "not_contains",
	"startswith": "starts_with", "endswith": "ends_with",
	"regex": "matches", "isnull": "is_null", "is_empty": "is_null",
	"notnull": "not_null", "is_not_null": "not_null", "is_not_empty": "not_null",
}

func normalizeOperator(op string) string {
	op = strings.ToLower(strings.TrimSpace(op))
	op = strings.ReplaceAll(op, " ", "_")
	if a, ok := operatorAliases[op]; ok {
		return a
	}
	if op == "" {
		return "=="
	}
	return op
}

// compile строит предикат для условия.
//
// Литерал для сравнения приводится к числу, если это возможно,
// иначе сравнение идёт как строк.
func (c condition) compile(t *table.Table) (predicate, error) {
	j, ok := t.ColumnIndex(c.Column)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrMissingColumn, c.Column)
	}
	lit := literal(table.Normalize(c.Value))
	text := table.ToString(table.Normalize(c.Value))

	switch op := normalizeOperator(c.Operator); op {
	case "==":
		return func(row []any) bool { return !table.IsNull(row[j]) && table.Compare(row[j], lit) == 0 }, nil
	case "!=":
		return func(row []any) bool { return table.IsNull(row[j]) || table.Compare(row[j], lit) != 0 }, nil
	case ">":
		return func(row []any) bool { return !table.IsNull(row[j]) && table.Compare(row[j], lit) > 0 }, nil
	case "<":
		return func(row []any) bool { return !table.IsNull(row[j]) && table.Compare(row[j], lit) < 0 }, nil
	case ">=":
		return func(row []any) bool { return !table.IsNull(row[j]) && table.Compare(row[j], lit) >= 0 }, nil
	case "<=":
		return func(row []any) bool { return !table.IsNull(row[j]) && table.Compare(row[j], lit) <= 0 }, nil
	case "contains":
		return func(row []any) bool {
			return !table.IsNull(row[j]) && strings.Contains(table.ToString(row[j]), text)
		}, nil
	case "not_contains":
		return func(row []any) bool {
			return table.IsNull(row[j]) || !strings.Contains(table.ToString(row[j]), text)
		}, nil
	case "starts_with":
		return func(row []any) bool {
			return !table.IsNull(row[j]) && strings.HasPrefix(table.ToString(row[j]), text)
		}, nil
	case "ends_with":
		return func(row []any) bool {
			return !table.IsNull(row[j]) && strings.HasSuffix(table.ToString(row[j]), text)
		}, nil
	case "matches":
		re, err := regexp.Compile(text)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid pattern %q: %v", ErrInvalidConfig, text, err)
		}
		return func(row []any) bool {
			return !table.IsNull(row[j]) && re.MatchString(table.ToString(row[j]))
		}, nil
	case "is_null":
		return func(row []any) bool { return table.IsNull(row[j]) }, nil
	case "not_null":
		return func(row []any) bool { return !table.IsNull(row[j]) }, nil
	default:
		return nil, fmt.Errorf("%w: unknown operator %q", ErrInvalidConfig, c.Operator)
	}
}

// FilterRows оставляет строки, удовлетворяющие всем условиям.
type FilterRows struct{ base }

func (o *FilterRows) Apply(_ context.Context, req *Request) (*Response, error) {
	var cfg filterRowsConfig
	if err := decodeConfig(req.Config, &cfg); err != nil {
		return nil, err
	}
	conds := cfg.Conditions
	if len(conds) == 0 && cfg.Column != "" {
		conds = []condition{{Column: cfg.Column, Operator: cfg.Operator, Value: cfg.Value}}
	}

	in := req.Input
	resp := &Response{}
	preds := make([]predicate, 0, len(conds))
	for _, c := range conds {
		if c.Column == "" {
			continue
		}
		if !in.Has(c.Column) {
			resp.Logf("Filter column '%s' not found; condition skipped", c.Column)
			continue
		}
		p, err := c.compile(in)
		if err != nil {
			return nil, err
		}
		preds = append(preds, p)
	}
	if len(preds) == 0 {
		resp.Logf("No filter conditions applied")
		resp.Table = in
		return resp, nil
	}

	resp.Table = in.Filter(func(_ int, row []any) bool {
		for _, p := range preds {
			if !p(row) {
				return false
			}
		}
		return true
	})
	resp.Logf("Filtered %d → %d rows", in.NumRows(), resp.Table.NumRows())
	return resp, nil
}

// dateRange — диапазон дат для одной колонки.
type dateRange struct {
	Column    string `json:"column"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

type filterDateConfig struct {
	DateRanges []dateRange `json:"dateRanges"`
	Column     string      `json:"column"`
	StartDate  string      `json:"startDate"`
	EndDate    string      `json:"endDate"`
}

// FilterDate оставляет строки, даты которых попадают во все диапазоны.
type FilterDate struct{ base }

func (o *FilterDate) Apply(_ context.Context, req *Request) (*Response, error) {
	var cfg filterDateConfig
	if err := decodeConfig(req.Config, &cfg); err != nil {
		return nil, err
	}
	ranges := cfg.DateRanges
	if len(ranges) == 0 && cfg.Column != "" {
		ranges = []dateRange{{Column: cfg.Column, StartDate: cfg.StartDate, EndDate: cfg.EndDate}}
	}

	in := req.Input
	resp := &Response{}

	type bound struct {
		col        int
		start, end time.Time
	}
	var bounds []bound
	for _, r := range ranges {
		j, ok := in.ColumnIndex(r.Column)
		if !ok || r.StartDate == "" || r.EndDate == "" {
			resp.Logf("Incomplete date range for '%s' skipped", r.Column)
			continue
		}
		start, okS := table.ParseTime(r.StartDate)
		end, okE := table.ParseTime(r.EndDate)
		if !okS || !okE {
			resp.Logf("Invalid date range for '%s' skipped", r.Column)
			continue
		}
		bounds = append(bounds, bound{col: j, start: start, end: end})
	}
	if len(bounds) == 0 {
		resp.Table = in
		return resp, nil
	}

	resp.Table = in.Filter(func(_ int, row []any) bool {
		for _, b := range bounds {
			tm, ok := table.ToTime(row[b.col])
			if !ok || tm.Before(b.start) || tm.After(b.end) {
				return false
			}
		}
		return true
	})
	return resp, nil
}

// SelectColumns оставляет только указанные колонки.
type SelectColumns struct{ base }

type selectColumnsConfig struct {
	Columns []string `json:"columns"`
}

func (o *SelectColumns) Apply(_ context.Context, req *Request) (*Response, error) {
	var cfg selectColumnsConfig
	if err := decodeConfig(req.Config, &cfg); err != nil {
		return nil, err
	}
	in := req.Input
	resp := &Response{}
	if len(cfg.Columns) == 0 {
		resp.Logf("No columns selected; produced an empty table")
		resp.Table = table.Empty()
		return resp, nil
	}

	kept, missing := targetColumns(in, cfg.Columns)
	if len(missing) > 0 {
		resp.Logf("Ignored missing columns: %s", strings.Join(missing, ", "))
	}
	if len(kept) == 0 {
		resp.Logf("None of the selected columns exist; produced an empty table")
		resp.Table = table.Empty()
		return resp, nil
	}
	resp.Table = in.Select(kept)
	return resp, nil
}

// ValueCounts считает частоты значений колонки.
type ValueCounts struct{ base }

type columnConfig struct {
	Column string `json:"column"`
}

func (o *ValueCounts) Apply(_ context.Context, req *Request) (*Response, error) {
	var cfg columnConfig
	if err := decodeConfig(req.Config, &cfg); err != nil {
		return nil, err
	}
	if err := requireColumn(req.Input, cfg.Column); err != nil {
		return nil, err
	}
	return NewResponse(valueCounts(req.Input, cfg.Column)), nil
}

// valueCounts строит таблицу [column, Count] по убыванию частоты.
// Null не учитываются; при равной частоте сохраняется порядок появления.
func valueCounts(t *table.Table, column string) *table.Table {
	j, _ := t.ColumnIndex(column)
	keys := newKeyIndex(t.NumRows())
	var order, counts []int
	for i := 0; i < t.NumRows(); i++ {
		v := t.Row(i)[j]
		if table.IsNull(v) {
			continue
		}
		k, added := keys.valueID(v)
		if added {
			order = append(order, k)
			counts = append(counts, 0)
		}
		counts[k]++
	}
	slices.SortStableFunc(order, func(a, b int) int { return counts[b] - counts[a] })

	rows := make([][]any, len(order))
	for i, k := range order {
		rows[i] = []any{keys.key(k)[0], float64(counts[k])}
	}
	name := "Count"
	if column == "Count" {
		name = "count"
	}
	return table.New([]string{column, name}, rows)
}

// Preview показывает часть таблицы.
type Preview struct{ base }

type previewConfig struct {
	Mode string `json:"mode"`
	N    int    `json:"n"`
	Rows int    `json:"rows"`
}

// sampleSeed фиксирует случайную выборку, чтобы повторный запуск давал тот же результат.
const sampleSeed = 42

func (o *Preview) Apply(_ context.Context, req *Request) (*Response, error) {
	cfg := previewConfig{Mode: "head", N: 10}
	if o.kind == KindSample {
		cfg.Mode = "random"
	}
	if err := decodeConfig(req.Config, &cfg); err != nil {
		return nil, err
	}
	n := cfg.N
	if cfg.Rows > 0 {
		n = cfg.Rows
	}
	if n <= 0 {
		return passThrough(req, "Row count must be positive; table unchanged")
	}

	in := req.Input
	switch strings.ToLower(cfg.Mode) {
	case "tail", "last":
		return NewResponse(in.Tail(n)), nil
	case "random", "sample":
		if n >= in.NumRows() {
			return NewResponse(in), nil
		}
		rng := rand.New(rand.NewSource(sampleSeed))
		idx := rng.Perm(in.NumRows())[:n]
		return NewResponse(in.Take(idx)), nil
	default:
		return NewResponse(in.Head(n)), nil
	}
}
