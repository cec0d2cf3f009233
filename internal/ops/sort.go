package ops

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/facette/natsort"

	"github.com/shaiso/dataflow/internal/table"
)

const (
	KindSort = "sort"
	KindRank = "rank"
)

type sortConfig struct {
	Column    string `json:"column"`
	Order     string `json:"order"`
	Ascending *bool  `json:"ascending"`
}

// descending разбирает направление сортировки.
func (c sortConfig) descending() bool {
	if c.Ascending != nil {
		return !*c.Ascending
	}
	o := strings.ToLower(c.Order)
	return o == "desc" || o == "descending"
}

// naturalCompare сравнивает ячейки: числа и даты по значению, строки
// в естественном порядке ("file2" < "file10"). Null всегда в конце.
func naturalCompare(a, b any) int {
	_, sa := a.(string)
	_, sb := b.(string)
	if !sa || !sb {
		return table.Compare(a, b)
	}
	x, y := a.(string), b.(string)
	switch {
	case x == y:
		return 0
	case natsort.Compare(x, y):
		return -1
	}
	return 1
}

// Sort сортирует строки по колонке (устойчиво).
type Sort struct{ base }

func (o *Sort) Apply(_ context.Context, req *Request) (*Response, error) {
	var cfg sortConfig
	if err := decodeConfig(req.Config, &cfg); err != nil {
		return nil, err
	}
	in := req.Input
	if cfg.Column == "" {
		return passThrough(req, "No sort column set; table unchanged")
	}
	if err := requireColumn(in, cfg.Column); err != nil {
		return nil, err
	}

	j, _ := in.ColumnIndex(cfg.Column)
	desc := cfg.descending()
	order := make([]int, in.NumRows())
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		va, vb := in.Row(a)[j], in.Row(b)[j]
		if table.IsNull(va) || table.IsNull(vb) {
			return table.Compare(va, vb)
		}
		c := naturalCompare(va, vb)
		if desc {
			return -c
		}
		return c
	})
	return NewResponse(in.Take(order)), nil
}

type rankConfig struct {
	Column    string `json:"column"`
	Order     string `json:"order"`
	Ascending *bool  `json:"ascending"`
	Method    string `json:"method"`
}

// Rank добавляет колонку <col>_rank, строки не удаляются и не переставляются.
type Rank struct{ base }

func (o *Rank) Apply(_ context.Context, req *Request) (*Response, error) {
	cfg := rankConfig{Method: "average"}
	if err := decodeConfig(req.Config, &cfg); err != nil {
		return nil, err
	}
	in := req.Input
	if err := requireColumn(in, cfg.Column); err != nil {
		return nil, err
	}
	desc := sortConfig{Order: cfg.Order, Ascending: cfg.Ascending}.descending()
	ranks, err := rankValues(in.Column(cfg.Column), strings.ToLower(cfg.Method), desc)
	if err != nil {
		return nil, err
	}
	return NewResponse(in.WithColumn(cfg.Column+"_rank", ranks)), nil
}

// rankValues считает ранги значений (с 1). Null получают null.
//
// Методы для равных значений: average — средний ранг, min/max — крайний,
// dense — без пропусков, first — в порядке появления.
func rankValues(values []any, method string, desc bool) ([]any, error) {
	switch method {
	case "average", "min", "max", "dense", "first":
	default:
		return nil, fmt.Errorf("%w: unknown rank method %q", ErrInvalidConfig, method)
	}

	var order []int
	for i, v := range values {
		if !table.IsNull(v) {
			order = append(order, i)
		}
	}
	cmp := func(a, b int) int {
		c := naturalCompare(values[a], values[b])
		if desc {
			return -c
		}
		return c
	}
	slices.SortStableFunc(order, cmp)

	out := make([]any, len(values))
	dense := 0
	for start := 0; start < len(order); {
		end := start + 1
		for end < len(order) && cmp(order[start], order[end]) == 0 {
			end++
		}
		dense++
		for k := start; k < end; k++ {
			var r float64
			switch method {
			case "average":
				r = float64(start+end+1) / 2
			case "min":
				r = float64(start + 1)
			case "max":
				r = float64(end)
			case "dense":
				r = float64(dense)
			case "first":
				r = float64(k + 1)
			}
			out[order[k]] = r
		}
		start = end
	}
	return out, nil
}
