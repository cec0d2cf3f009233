package ops

import (
	"context"
	"math"
	"strings"

	"github.com/shaiso/dataflow/internal/table"
)

const (
	KindBarChart    = "bar_chart"
	KindLineChart   = "line_chart"
	KindPieChart    = "pie_chart"
	KindAreaChart   = "area_chart"
	KindHistogram   = "histogram"
	KindScatterPlot = "scatter_plot"
	KindHeatmap     = "heatmap"
	KindKPICard     = "kpi_card"
)

type chartConfig struct {
	Column string `json:"column"`
	YAxis  string `json:"yAxis"`
}

// Chart готовит таблицу для категориального графика.
//
// Строки без X отбрасываются. Если значения X повторяются, строки
// группируются: с осью Y — сумма Y, без неё — число строк (Count).
// Уникальные X передаются как есть.
type Chart struct{ base }

func (o *Chart) Apply(_ context.Context, req *Request) (*Response, error) {
	var cfg chartConfig
	if err := decodeConfig(req.Config, &cfg); err != nil {
		return nil, err
	}
	in := req.Input
	if cfg.Column == "" || !in.Has(cfg.Column) {
		return passThrough(req, "Chart configured without a valid X column")
	}

	x, _ := in.ColumnIndex(cfg.Column)
	clean := in.Filter(func(_ int, row []any) bool { return !table.IsNull(row[x]) })

	groups := groupRows(clean, []int{x})
	if len(groups) == clean.NumRows() {
		return NewResponse(clean).Logf("Chart configured"), nil
	}

	if cfg.YAxis == "" || !clean.Has(cfg.YAxis) {
		return NewResponse(valueCounts(clean, cfg.Column)).Logf("Chart configured"), nil
	}

	rows := make([][]any, len(groups))
	for gi, g := range groups {
		values := make([]any, len(g.rows))
		for k, i := range g.rows {
			values[k] = clean.Value(i, cfg.YAxis)
		}
		rows[gi] = []any{g.key[0], aggregate("sum", values)}
	}
	return NewResponse(table.New([]string{cfg.Column, cfg.YAxis}, rows)).Logf("Chart configured"), nil
}

// ScatterPlot приводит оси к числам и отбрасывает строки без значений.
type ScatterPlot struct{ base }

func (o *ScatterPlot) Apply(_ context.Context, req *Request) (*Response, error) {
	var cfg chartConfig
	if err := decodeConfig(req.Config, &cfg); err != nil {
		return nil, err
	}
	in := req.Input
	if cfg.Column == "" || cfg.YAxis == "" {
		return passThrough(req, "Scatter plot needs both axes")
	}
	for _, c := range []string{cfg.Column, cfg.YAxis} {
		if err := requireColumn(in, c); err != nil {
			return nil, err
		}
	}

	out := in.WithColumn(cfg.Column, numericColumn(in, cfg.Column))
	out = out.WithColumn(cfg.YAxis, numericColumn(out, cfg.YAxis))
	xi, _ := out.ColumnIndex(cfg.Column)
	yi, _ := out.ColumnIndex(cfg.YAxis)
	out = out.Filter(func(_ int, row []any) bool {
		return !table.IsNull(row[xi]) && !table.IsNull(row[yi])
	})
	return NewResponse(out).Logf("Scatter plot executed"), nil
}

// numericColumn приводит значения колонки к числам; остальное становится null.
func numericColumn(t *table.Table, column string) []any {
	values := t.Column(column)
	for i, v := range values {
		if f, ok := table.ToFloat(v); ok && !table.IsNull(v) {
			values[i] = f
		} else {
			values[i] = nil
		}
	}
	return values
}

// Heatmap считает частоты пар (X, Y).
type Heatmap struct{ base }

func (o *Heatmap) Apply(_ context.Context, req *Request) (*Response, error) {
	var cfg chartConfig
	if err := decodeConfig(req.Config, &cfg); err != nil {
		return nil, err
	}
	in := req.Input
	if err := requireColumn(in, cfg.Column); err != nil {
		return nil, err
	}
	if err := requireColumn(in, cfg.YAxis); err != nil {
		return nil, err
	}
	if cfg.Column == cfg.YAxis {
		return NewResponse(valueCounts(in, cfg.Column)), nil
	}

	groups := groupRows(in, indices(in, []string{cfg.Column, cfg.YAxis}))
	rows := make([][]any, len(groups))
	for gi, g := range groups {
		rows[gi] = []any{g.key[0], g.key[1], float64(len(g.rows))}
	}
	return NewResponse(table.New([]string{cfg.Column, cfg.YAxis, "Count"}, rows)), nil
}

type kpiConfig struct {
	Column    string `json:"column"`
	Operation string `json:"operation"`
	Label     string `json:"label"`
}

// KPICard сводит таблицу к одному числу.
//
// Без колонки значение — число строк ("Total Rows").
type KPICard struct{ base }

func (o *KPICard) Apply(_ context.Context, req *Request) (*Response, error) {
	cfg := kpiConfig{Operation: "count"}
	if err := decodeConfig(req.Config, &cfg); err != nil {
		return nil, err
	}
	in := req.Input
	op := strings.ToLower(cfg.Operation)

	label := cfg.Label
	resp := &Response{}
	var value any
	switch {
	case cfg.Column == "":
		value = float64(in.NumRows())
		if label == "" {
			label = "Total Rows"
		}
	case !in.Has(cfg.Column):
		value = 0.0
	default:
		switch op {
		case "count":
			value = aggregate("count", in.Column(cfg.Column))
		case "sum", "avg", "mean", "average", "max", "min":
			nums := in.Floats(cfg.Column)
			if len(nums) == 0 {
				resp.Logf("Column '%s' has no numeric values; KPI shows row count", cfg.Column)
				value = float64(in.NumRows())
				break
			}
			fn := op
			if op == "avg" || op == "average" {
				fn = "mean"
			}
			value = aggregate(fn, anySlice(nums))
		default:
			value = float64(in.NumRows())
		}
	}
	if label == "" {
		label = op + " " + cfg.Column
	}
	if f, ok := value.(float64); ok && !math.IsNaN(f) {
		value = round(f, 2)
	}
	resp.Table = table.New([]string{label}, [][]any{{value}})
	return resp, nil
}

func anySlice(nums []float64) []any {
	out := make([]any, len(nums))
	for i, f := range nums {
		out[i] = f
	}
	return out
}
