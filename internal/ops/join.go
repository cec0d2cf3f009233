package ops

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/shaiso/dataflow/internal/table"
)

const (
	KindMerge  = "merge"
	KindConcat = "concat"
)

type mergeConfig struct {
	RightNode string   `json:"rightNode"`
	How       string   `json:"how"`
	On        []string `json:"on"`
	LeftOn    []string `json:"leftOn"`
	RightOn   []string `json:"rightOn"`
}

// Merge соединяет входную таблицу с таблицей другого узла по ключам.
//
// Правая таблица берётся из rightNode, иначе — второй предшественник.
type Merge struct{ base }

func (o *Merge) Apply(_ context.Context, req *Request) (*Response, error) {
	cfg := mergeConfig{How: "inner"}
	if err := decodeConfig(req.Config, &cfg); err != nil {
		return nil, err
	}

	rightID := cfg.RightNode
	if rightID == "" && len(req.Predecessors) > 1 {
		rightID = req.Predecessors[1]
	}
	if rightID == "" || req.Tables == nil {
		return nil, fmt.Errorf("%w: right table for merge is not set", ErrMissingInput)
	}
	right, ok := req.Tables.Table(rightID)
	if !ok || right == nil {
		return nil, fmt.Errorf("%w: node %q", ErrMissingInput, rightID)
	}
	left := req.Input

	leftOn, rightOn := cfg.LeftOn, cfg.RightOn
	shared := len(cfg.On) > 0
	if shared {
		leftOn, rightOn = cfg.On, cfg.On
	}
	if len(leftOn) == 0 && len(rightOn) == 0 {
		for _, c := range left.Columns() {
			if right.Has(c) {
				leftOn = append(leftOn, c)
			}
		}
		rightOn = leftOn
		shared = true
	}
	if len(leftOn) == 0 || len(leftOn) != len(rightOn) {
		return nil, fmt.Errorf("%w: merge keys do not match", ErrInvalidConfig)
	}
	for _, c := range leftOn {
		if err := requireColumn(left, c); err != nil {
			return nil, err
		}
	}
	for _, c := range rightOn {
		if err := requireColumn(right, c); err != nil {
			return nil, err
		}
	}

	how := strings.ToLower(cfg.How)
	switch how {
	case "inner", "left", "right", "outer":
	default:
		return nil, fmt.Errorf("%w: unknown join %q", ErrInvalidConfig, cfg.How)
	}

	lidx, ridx := indices(left, leftOn), indices(right, rightOn)

	// Колонки результата: все левые, затем правые без общих ключей
	var rightKeep []int
	for j, c := range right.Columns() {
		if shared && slices.Contains(rightOn, c) {
			continue
		}
		rightKeep = append(rightKeep, j)
	}
	cols := make([]string, 0, left.NumCols()+len(rightKeep))
	for _, c := range left.Columns() {
		if right.Has(c) && !(shared && slices.Contains(leftOn, c)) {
			c += "_x"
		}
		cols = append(cols, c)
	}
	rightCols := right.Columns()
	for _, j := range rightKeep {
		c := rightCols[j]
		if left.Has(c) {
			c += "_y"
		}
		cols = append(cols, c)
	}

	index := indexRows(right, ridx)

	build := func(li, ri int) []any {
		row := make([]any, 0, len(cols))
		if li >= 0 {
			row = append(row, left.Row(li)...)
		} else {
			row = append(row, make([]any, left.NumCols())...)
			// Общие ключи берутся из правой строки
			if shared {
				for k, j := range lidx {
					row[j] = right.Row(ri)[ridx[k]]
				}
			}
		}
		for _, j := range rightKeep {
			if ri >= 0 {
				row = append(row, right.Row(ri)[j])
			} else {
				row = append(row, nil)
			}
		}
		return row
	}

	var rows [][]any
	matched := make([]bool, right.NumRows())
	if how == "right" {
		leftIndex := indexRows(left, lidx)
		for ri := 0; ri < right.NumRows(); ri++ {
			hits := leftIndex.lookup(right.Row(ri), ridx)
			if len(hits) == 0 {
				rows = append(rows, build(-1, ri))
				continue
			}
			for _, li := range hits {
				rows = append(rows, build(li, ri))
			}
		}
	}

	for li := 0; how != "right" && li < left.NumRows(); li++ {
		hits := index.lookup(left.Row(li), lidx)
		if len(hits) == 0 {
			if how == "left" || how == "outer" {
				rows = append(rows, build(li, -1))
			}
			continue
		}
		for _, ri := range hits {
			matched[ri] = true
			rows = append(rows, build(li, ri))
		}
	}
	if how == "outer" {
		for ri := 0; ri < right.NumRows(); ri++ {
			if !matched[ri] {
				rows = append(rows, build(-1, ri))
			}
		}
	}

	resp := NewResponse(table.New(cols, rows))
	resp.Logf("Merged with '%s' (%s): %d rows", rightID, how, len(rows))
	return resp, nil
}

// rowIndex — строки таблицы, сгруппированные по ключу соединения.
type rowIndex struct {
	keys *keyIndex
	rows [][]int
}

// indexRows строит rowIndex по колонкам idx. Строки с null в ключе
// не участвуют в соединении.
func indexRows(t *table.Table, idx []int) *rowIndex {
	r := &rowIndex{keys: newKeyIndex(t.NumRows())}
	for i := 0; i < t.NumRows(); i++ {
		if hasNullKey(t.Row(i), idx) {
			continue
		}
		k, added := r.keys.id(t.Row(i), idx)
		if added {
			r.rows = append(r.rows, nil)
		}
		r.rows[k] = append(r.rows[k], i)
	}
	return r
}

// lookup возвращает строки с тем же ключом, что row[idx].
func (r *rowIndex) lookup(row []any, idx []int) []int {
	if hasNullKey(row, idx) {
		return nil
	}
	k, ok := r.keys.lookup(row, idx)
	if !ok {
		return nil
	}
	return r.rows[k]
}

func hasNullKey(row []any, idx []int) bool {
	for _, j := range idx {
		if table.IsNull(row[j]) {
			return true
		}
	}
	return false
}

type concatConfig struct {
	Nodes []string `json:"nodes"`
	Axis  string   `json:"axis"`
}

// Concat склеивает таблицы нескольких узлов по строкам или по колонкам.
type Concat struct{ base }

func (o *Concat) Apply(_ context.Context, req *Request) (*Response, error) {
	cfg := concatConfig{Axis: "rows"}
	if err := decodeConfig(req.Config, &cfg); err != nil {
		return nil, err
	}

	ids := cfg.Nodes
	if len(ids) == 0 {
		ids = req.Predecessors
	}
	resp := &Response{}
	var tables []*table.Table
	for _, id := range ids {
		if req.Tables == nil {
			break
		}
		t, ok := req.Tables.Table(id)
		if !ok || t == nil {
			resp.Logf("Node '%s' has no table; not concatenated", id)
			continue
		}
		tables = append(tables, t)
	}
	if len(tables) == 0 {
		tables = []*table.Table{req.Input}
	}

	switch strings.ToLower(cfg.Axis) {
	case "columns", "column", "1", "horizontal":
		resp.Table = concatColumns(tables)
	default:
		resp.Table = concatRows(tables)
	}
	resp.Logf("Concatenated %d tables", len(tables))
	return resp, nil
}

// concatRows объединяет строки; набор колонок — объединение в порядке появления.
func concatRows(tables []*table.Table) *table.Table {
	var cols []string
	for _, t := range tables {
		for _, c := range t.Columns() {
			if !slices.Contains(cols, c) {
				cols = append(cols, c)
			}
		}
	}
	var rows [][]any
	for _, t := range tables {
		for i := 0; i < t.NumRows(); i++ {
			row := make([]any, len(cols))
			for k, c := range cols {
				row[k] = t.Value(i, c)
			}
			rows = append(rows, row)
		}
	}
	return table.New(cols, rows)
}

// concatColumns ставит таблицы рядом; короткие дополняются null.
func concatColumns(tables []*table.Table) *table.Table {
	var (
		cols []string
		n    int
	)
	for _, t := range tables {
		cols = append(cols, t.Columns()...)
		n = max(n, t.NumRows())
	}
	rows := make([][]any, n)
	for i := range rows {
		row := make([]any, 0, len(cols))
		for _, t := range tables {
			if i < t.NumRows() {
				row = append(row, t.Row(i)...)
			} else {
				row = append(row, make([]any, t.NumCols())...)
			}
		}
		rows[i] = row
	}
	return table.New(cols, rows)
}
