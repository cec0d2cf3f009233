package ops

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
	"github.com/zclconf/go-cty/cty/gocty"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/shaiso/dataflow/internal/table"
)

const (
	KindCalculatedField = "calculated_field"
	KindStandardScaler  = "standard_scaler"
	KindOneHot          = "one_hot"
)

// exprFunctions — функции, доступные в выражениях calculated_field.
var exprFunctions = map[string]function.Function{
	"abs":    stdlib.AbsoluteFunc,
	"ceil":   stdlib.CeilFunc,
	"floor":  stdlib.FloorFunc,
	"log":    stdlib.LogFunc,
	"pow":    stdlib.PowFunc,
	"max":    stdlib.MaxFunc,
	"min":    stdlib.MinFunc,
	"upper":  stdlib.UpperFunc,
	"lower":  stdlib.LowerFunc,
	"strlen": stdlib.StrlenFunc,
	"trim":   stdlib.TrimSpaceFunc,
	"substr": stdlib.SubstrFunc,
	"format": stdlib.FormatFunc,
}

type calculatedFieldConfig struct {
	NewColumn  string `json:"newColumn"`
	Expression string `json:"expression"`
}

// CalculatedField добавляет колонку, вычисленную выражением над строкой.
//
// Колонки доступны по имени (пробелы и прочие символы заменяются на "_")
// и через row["Имя колонки"]. `Имя колонки` в обратных кавычках
// переписывается в row["Имя колонки"].
type CalculatedField struct{ base }

func (o *CalculatedField) Apply(_ context.Context, req *Request) (*Response, error) {
	var cfg calculatedFieldConfig
	if err := decodeConfig(req.Config, &cfg); err != nil {
		return nil, err
	}
	if cfg.NewColumn == "" || strings.TrimSpace(cfg.Expression) == "" {
		return passThrough(req, "Calculated field needs a column name and an expression")
	}

	src := rewriteBackticks(cfg.Expression)
	expr, diags := hclsyntax.ParseExpression([]byte(src), "expression", hcl.Pos{Line: 1, Column: 1})
	if diags.HasErrors() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidConfig, diags.Error())
	}

	in := req.Input
	cols := in.Columns()
	values := make([]any, in.NumRows())
	failed := 0
	var firstErr error
	for i := 0; i < in.NumRows(); i++ {
		vars := make(map[string]cty.Value, len(cols)+1)
		row := make(map[string]cty.Value, len(cols))
		for j, c := range cols {
			v := toCty(in.Row(i)[j])
			row[c] = v
			vars[identifier(c)] = v
		}
		vars["row"] = cty.ObjectVal(row)

		out, diags := expr.Value(&hcl.EvalContext{Variables: vars, Functions: exprFunctions})
		if diags.HasErrors() {
			failed++
			if firstErr == nil {
				firstErr = diags
			}
			continue
		}
		v, err := fromCty(out)
		if err != nil {
			failed++
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		values[i] = v
	}

	if failed > 0 && failed == in.NumRows() {
		return nil, fmt.Errorf("expression %q: %w", cfg.Expression, firstErr)
	}
	resp := NewResponse(in.WithColumn(cfg.NewColumn, values))
	if failed > 0 {
		resp.Logf("Expression failed on %d rows: %v", failed, firstErr)
	}
	return resp, nil
}

// identifier превращает имя колонки в допустимое имя переменной.
func identifier(name string) string {
	var b strings.Builder
	for i, r := range name {
		switch {
		case r == '_' || unicode.IsLetter(r):
			b.WriteRune(r)
		case unicode.IsDigit(r):
			if i == 0 {
				b.WriteRune('_')
			}
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

// rewriteBackticks заменяет `имя` на row["имя"].
func rewriteBackticks(expr string) string {
	var b strings.Builder
	for {
		start := strings.IndexByte(expr, '`')
		if start < 0 {
			break
		}
		end := strings.IndexByte(expr[start+1:], '`')
		if end < 0 {
			break
		}
		name := expr[start+1 : start+1+end]
		b.WriteString(expr[:start])
		b.WriteString(`row["`)
		b.WriteString(strings.ReplaceAll(name, `"`, `\"`))
		b.WriteString(`"]`)
		expr = expr[start+end+2:]
	}
	b.WriteString(expr)
	return b.String()
}

// toCty переводит ячейку в значение cty.
func toCty(v any) cty.Value {
	switch x := v.(type) {
	case nil:
		return cty.NullVal(cty.DynamicPseudoType)
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return cty.NullVal(cty.Number)
		}
		return cty.NumberFloatVal(x)
	case bool:
		return cty.BoolVal(x)
	case string:
		return cty.StringVal(x)
	case time.Time:
		return cty.StringVal(table.ToString(x))
	}
	return cty.StringVal(table.ToString(v))
}

// fromCty переводит результат выражения в ячейку.
func fromCty(v cty.Value) (any, error) {
	if v.IsNull() || !v.IsKnown() {
		return nil, nil
	}
	switch v.Type() {
	case cty.String:
		return v.AsString(), nil
	case cty.Number:
		var f float64
		if err := gocty.FromCtyValue(v, &f); err != nil {
			return nil, err
		}
		return f, nil
	case cty.Bool:
		return v.True(), nil
	}
	return nil, fmt.Errorf("unsupported result type %s", v.Type().FriendlyName())
}

type scalerConfig struct {
	Columns []string `json:"columns"`
	Method  string   `json:"method"`
}

// StandardScaler нормирует числовые колонки (z-оценка или min-max).
type StandardScaler struct{ base }

func (o *StandardScaler) Apply(_ context.Context, req *Request) (*Response, error) {
	cfg := scalerConfig{Method: "standard"}
	if err := decodeConfig(req.Config, &cfg); err != nil {
		return nil, err
	}
	in := req.Input
	resp := &Response{}
	cols := numericTargets(in, cfg.Columns, resp)
	if len(cols) == 0 {
		resp.Logf("No numeric columns to scale")
		resp.Table = in
		return resp, nil
	}

	minmax := strings.EqualFold(cfg.Method, "minmax") || strings.EqualFold(cfg.Method, "min_max")
	out := in
	for _, col := range cols {
		nums := in.Floats(col)
		if len(nums) == 0 {
			continue
		}
		var shift, scale float64
		if minmax {
			shift = floats.Min(nums)
			scale = floats.Max(nums) - shift
		} else {
			shift, scale = stat.PopMeanStdDev(nums, nil)
		}
		values := in.Column(col)
		for i, v := range values {
			f, ok := table.ToFloat(v)
			if !ok || table.IsNull(v) {
				values[i] = nil
				continue
			}
			if scale == 0 {
				values[i] = 0.0
				continue
			}
			values[i] = (f - shift) / scale
		}
		out = out.WithColumn(col, values)
	}
	resp.Table = out
	return resp, nil
}

// numericTargets возвращает числовые колонки из списка (или все числовые).
// Нечисловые и отсутствующие колонки исключаются с записью в журнале.
func numericTargets(t *table.Table, requested []string, resp *Response) []string {
	if len(requested) == 0 {
		return t.NumericColumns()
	}
	var out []string
	for _, c := range requested {
		switch {
		case !t.Has(c):
			resp.Logf("Column '%s' not found; excluded", c)
		case !t.IsNumeric(c):
			resp.Logf("Column '%s' is not numeric; excluded", c)
		default:
			out = append(out, c)
		}
	}
	return out
}

type oneHotConfig struct {
	Columns       []string `json:"columns"`
	Column        string   `json:"column"`
	MaxCategories int      `json:"maxCategories"`
}

// OneHot разворачивает категориальные колонки в индикаторные.
type OneHot struct{ base }

func (o *OneHot) Apply(_ context.Context, req *Request) (*Response, error) {
	cfg := oneHotConfig{MaxCategories: 50}
	if err := decodeConfig(req.Config, &cfg); err != nil {
		return nil, err
	}
	requested := cfg.Columns
	if cfg.Column != "" {
		requested = append(requested, cfg.Column)
	}
	in := req.Input
	resp := &Response{}
	cols, missing := targetColumns(in, requested)
	if len(missing) > 0 {
		resp.Logf("Ignored missing columns: %s", strings.Join(missing, ", "))
	}
	if len(requested) == 0 {
		cols = nil
		for _, c := range in.Columns() {
			if t := in.ColumnType(c); t == table.TypeString || t == table.TypeBool {
				cols = append(cols, c)
			}
		}
	}

	out := in
	for _, col := range cols {
		groups := groupRows(in, indices(in, []string{col}))
		if len(groups) > cfg.MaxCategories {
			resp.Logf("Column '%s' has %d categories; not encoded", col, len(groups))
			continue
		}
		j, _ := in.ColumnIndex(col)
		out = out.Drop(col)
		for _, g := range groups {
			key := g.key[0]
			values := make([]any, in.NumRows())
			for i := range values {
				values[i] = table.Equal(in.Row(i)[j], key)
			}
			out = out.WithColumn(col+"_"+table.ToString(key), values)
		}
	}
	resp.Table = out
	return resp, nil
}
