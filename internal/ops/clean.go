package ops

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/shaiso/dataflow/internal/table"
)

const (
	KindDropDuplicates = "drop_duplicates"
	KindFillNA         = "fill_na"
	KindDropNA         = "drop_na"
	KindReplaceValue   = "replace_value"
	KindRenameColumns  = "rename_columns"
	KindChangeType     = "change_type"
	KindCopy           = "copy"
)

// DropDuplicates удаляет повторяющиеся строки.
type DropDuplicates struct{ base }

type dropDuplicatesConfig struct {
	Columns []string `json:"columns"`
	Subset  []string `json:"subset"`
	Keep    string   `json:"keep"`
}

func (o *DropDuplicates) Apply(_ context.Context, req *Request) (*Response, error) {
	cfg := dropDuplicatesConfig{Keep: "first"}
	if err := decodeConfig(req.Config, &cfg); err != nil {
		return nil, err
	}

	in := req.Input
	requested := cfg.Columns
	if len(requested) == 0 {
		requested = cfg.Subset
	}
	cols, missing := targetColumns(in, requested)
	resp := &Response{}
	if len(missing) > 0 {
		resp.Logf("Ignored missing columns: %s", strings.Join(missing, ", "))
	}
	if len(cols) == 0 {
		cols = in.Columns()
	}
	idx := indices(in, cols)

	keys := newKeyIndex(in.NumRows())
	ids := make([]int, in.NumRows())
	var counts, first, last []int
	for i := 0; i < in.NumRows(); i++ {
		k, added := keys.id(in.Row(i), idx)
		if added {
			counts = append(counts, 0)
			first = append(first, i)
			last = append(last, i)
		}
		ids[i] = k
		counts[k]++
		last[k] = i
	}

	keep := strings.ToLower(strings.TrimSpace(cfg.Keep))
	out := in.Filter(func(i int, _ []any) bool {
		k := ids[i]
		switch keep {
		case "last":
			return last[k] == i
		case "false", "none", "0":
			return counts[k] == 1
		default:
			return first[k] == i
		}
	})

	if removed := in.NumRows() - out.NumRows(); removed > 0 {
		resp.Logf("Removed %d duplicate rows", removed)
	}
	resp.Table = out
	return resp, nil
}

// FillNA заполняет пропущенные значения.
type FillNA struct{ base }

type fillNAConfig struct {
	Column  string   `json:"column"`
	Columns []string `json:"columns"`
	Method  string   `json:"method"`
	Value   any      `json:"value"`
}

func (o *FillNA) Apply(_ context.Context, req *Request) (*Response, error) {
	cfg := fillNAConfig{Method: "value"}
	if err := decodeConfig(req.Config, &cfg); err != nil {
		return nil, err
	}

	in := req.Input
	requested := cfg.Columns
	if cfg.Column != "" {
		requested = []string{cfg.Column}
	}
	cols, missing := targetColumns(in, requested)
	resp := &Response{}
	if len(missing) > 0 {
		resp.Logf("Ignored missing columns: %s", strings.Join(missing, ", "))
	}
	if len(cols) == 0 {
		resp.Table = in
		return resp, nil
	}

	method := strings.ToLower(strings.TrimSpace(cfg.Method))
	out := in
	for _, col := range cols {
		values := in.Column(col)
		var filled []any

		switch method {
		case "value", "constant":
			if cfg.Value == nil {
				resp.Logf("No fill value provided; column '%s' unchanged", col)
				continue
			}
			fill := cfg.Value
			if in.IsNumeric(col) {
				fill = literal(cfg.Value)
			} else {
				fill = table.ToString(table.Normalize(cfg.Value))
			}
			filled = fillWith(values, fill)

		case "ffill", "forward", "pad":
			filled = carry(values, false)

		case "bfill", "backward", "backfill":
			filled = carry(values, true)

		case "mean", "median", "mode", "min", "max":
			if !in.IsNumeric(col) {
				resp.Logf("Skipped '%s' fill for non-numeric column '%s'", method, col)
				continue
			}
			if method == "mode" {
				m, ok := mode(values)
				if !ok {
					continue
				}
				filled = fillWith(values, m)
				break
			}
			nums := in.Floats(col)
			if len(nums) == 0 {
				continue
			}
			var fill float64
			switch method {
			case "mean":
				fill = floats.Sum(nums) / float64(len(nums))
			case "median":
				fill = table.Median(nums)
			case "min":
				fill = floats.Min(nums)
			case "max":
				fill = floats.Max(nums)
			}
			filled = fillWith(values, fill)

		default:
			return nil, fmt.Errorf("%w: unknown fill method %q", ErrInvalidConfig, cfg.Method)
		}
		out = out.WithColumn(col, filled)
	}

	resp.Table = out
	return resp, nil
}

func fillWith(values []any, fill any) []any {
	out := make([]any, len(values))
	for i, v := range values {
		if table.IsNull(v) {
			out[i] = fill
		} else {
			out[i] = v
		}
	}
	return out
}

// carry протягивает последнее непустое значение вперёд (или назад).
func carry(values []any, backward bool) []any {
	out := slices.Clone(values)
	var last any
	step := func(i int) {
		if table.IsNull(out[i]) {
			out[i] = last
		} else {
			last = out[i]
		}
	}
	if backward {
		for i := len(out) - 1; i >= 0; i-- {
			step(i)
		}
	} else {
		for i := range out {
			step(i)
		}
	}
	return out
}

// mode возвращает самое частое непустое значение; при равенстве — наименьшее.
func mode(values []any) (any, bool) {
	keys := newKeyIndex(len(values))
	var counts []int
	for _, v := range values {
		if table.IsNull(v) {
			continue
		}
		k, added := keys.valueID(v)
		if added {
			counts = append(counts, 0)
		}
		counts[k]++
	}
	var (
		best  any
		bestN int
		found bool
	)
	for k, n := range counts {
		v := keys.key(k)[0]
		if !found || n > bestN || (n == bestN && table.Compare(v, best) < 0) {
			best, bestN, found = v, n, true
		}
	}
	return best, found
}

// DropNA удаляет строки с пропусками.
type DropNA struct{ base }

type dropNAConfig struct {
	Subset  []string `json:"subset"`
	Columns []string `json:"columns"`
	Column  string   `json:"column"`
	How     string   `json:"how"`
}

func (o *DropNA) Apply(_ context.Context, req *Request) (*Response, error) {
	cfg := dropNAConfig{How: "any"}
	if err := decodeConfig(req.Config, &cfg); err != nil {
		return nil, err
	}

	in := req.Input
	requested := cfg.Subset
	if len(requested) == 0 {
		requested = cfg.Columns
	}
	if len(requested) == 0 && cfg.Column != "" {
		requested = []string{cfg.Column}
	}
	cols, missing := targetColumns(in, requested)
	resp := &Response{}
	if len(missing) > 0 {
		resp.Logf("Ignored missing columns: %s", strings.Join(missing, ", "))
	}
	if len(cols) == 0 {
		resp.Table = in
		return resp, nil
	}
	idx := indices(in, cols)
	all := strings.EqualFold(cfg.How, "all")

	out := in.Filter(func(_ int, row []any) bool {
		nulls := 0
		for _, j := range idx {
			if table.IsNull(row[j]) {
				nulls++
			}
		}
		if all {
			return nulls < len(idx)
		}
		return nulls == 0
	})
	if removed := in.NumRows() - out.NumRows(); removed > 0 {
		resp.Logf("Dropped %d rows with missing values", removed)
	}
	resp.Table = out
	return resp, nil
}

// ReplaceValue заменяет значение в колонке (или во всех колонках).
type ReplaceValue struct{ base }

type replaceValueConfig struct {
	Column   string `json:"column"`
	OldValue any    `json:"oldValue"`
	NewValue any    `json:"newValue"`
}

func (o *ReplaceValue) Apply(_ context.Context, req *Request) (*Response, error) {
	var cfg replaceValueConfig
	if err := decodeConfig(req.Config, &cfg); err != nil {
		return nil, err
	}
	in := req.Input
	if cfg.OldValue == nil {
		return passThrough(req, "No value to replace")
	}

	var cols []string
	if cfg.Column != "" {
		if !in.Has(cfg.Column) {
			return passThrough(req, "Column '%s' not found; nothing replaced", cfg.Column)
		}
		cols = []string{cfg.Column}
	} else {
		cols = in.Columns()
	}

	old := literal(cfg.OldValue)
	out := in
	replaced := 0
	for _, col := range cols {
		var repl any
		if in.IsNumeric(col) {
			repl = literal(cfg.NewValue)
		} else if cfg.NewValue != nil {
			repl = table.ToString(table.Normalize(cfg.NewValue))
		}
		values := in.Column(col)
		changed := false
		for i, v := range values {
			if table.Equal(v, old) {
				values[i] = repl
				changed = true
				replaced++
			}
		}
		if changed {
			out = out.WithColumn(col, values)
		}
	}
	return NewResponse(out).Logf("Replaced %d values", replaced), nil
}

// RenameColumns переименовывает колонки.
type RenameColumns struct{ base }

type renameConfig struct {
	OldName string            `json:"oldName"`
	NewName string            `json:"newName"`
	Mapping map[string]string `json:"mapping"`
}

func (o *RenameColumns) Apply(_ context.Context, req *Request) (*Response, error) {
	var cfg renameConfig
	if err := decodeConfig(req.Config, &cfg); err != nil {
		return nil, err
	}
	mapping := make(map[string]string, len(cfg.Mapping)+1)
	for k, v := range cfg.Mapping {
		mapping[k] = v
	}
	if cfg.OldName != "" && cfg.NewName != "" {
		mapping[cfg.OldName] = cfg.NewName
	}

	resp := &Response{}
	for old := range mapping {
		if !req.Input.Has(old) {
			resp.Logf("Column '%s' not found; not renamed", old)
			delete(mapping, old)
		}
	}
	resp.Table = req.Input.Rename(mapping)
	return resp, nil
}

// ChangeType приводит колонку к другому типу.
type ChangeType struct{ base }

type changeTypeConfig struct {
	Column  string   `json:"column"`
	Columns []string `json:"columns"`
	DType   string   `json:"dtype"`
	Type    string   `json:"type"`
}

func (o *ChangeType) Apply(_ context.Context, req *Request) (*Response, error) {
	var cfg changeTypeConfig
	if err := decodeConfig(req.Config, &cfg); err != nil {
		return nil, err
	}
	dtype := strings.ToLower(cfg.DType)
	if dtype == "" {
		dtype = strings.ToLower(cfg.Type)
	}
	conv, ok := converter(dtype)
	if !ok {
		return nil, fmt.Errorf("%w: unsupported dtype %q", ErrInvalidConfig, dtype)
	}

	in := req.Input
	requested := cfg.Columns
	if cfg.Column != "" {
		requested = []string{cfg.Column}
	}
	cols, missing := targetColumns(in, requested)
	resp := &Response{}
	if len(missing) > 0 {
		resp.Logf("Ignored missing columns: %s", strings.Join(missing, ", "))
	}

	out := in
	for _, col := range cols {
		values := in.Column(col)
		failed := 0
		for i, v := range values {
			if table.IsNull(v) {
				values[i] = nil
				continue
			}
			c, ok := conv(v)
			if !ok {
				failed++
				c = nil
			}
			values[i] = c
		}
		if failed > 0 {
			resp.Logf("%d values in '%s' could not be converted to %s", failed, col, dtype)
		}
		out = out.WithColumn(col, values)
	}
	resp.Table = out
	return resp, nil
}

// converter возвращает функцию приведения ячейки к типу dtype.
func converter(dtype string) (func(any) (any, bool), bool) {
	switch dtype {
	case "int", "integer", "int64":
		return func(v any) (any, bool) {
			f, ok := table.ToFloat(v)
			if !ok || math.IsInf(f, 0) {
				return nil, false
			}
			return math.Trunc(f), true
		}, true
	case "float", "float64", "number":
		return func(v any) (any, bool) {
			f, ok := table.ToFloat(v)
			return f, ok
		}, true
	case "str", "string", "object":
		return func(v any) (any, bool) {
			return table.ToString(v), true
		}, true
	case "datetime", "datetime64", "date":
		return func(v any) (any, bool) {
			tm, ok := table.ToTime(v)
			return tm, ok
		}, true
	case "bool", "boolean":
		return func(v any) (any, bool) {
			b, ok := table.ToBool(v)
			return b, ok
		}, true
	}
	return nil, false
}

// Copy возвращает копию таблицы.
type Copy struct{ base }

func (o *Copy) Apply(_ context.Context, req *Request) (*Response, error) {
	return NewResponse(req.Input.Clone()), nil
}
