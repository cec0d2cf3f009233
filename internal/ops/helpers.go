package ops

import (
	"fmt"
	"math"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/shaiso/dataflow/internal/table"
)

// passThrough возвращает вход без изменений с записью в журнале.
func passThrough(req *Request, format string, args ...any) (*Response, error) {
	return NewResponse(req.Input).Logf(format, args...), nil
}

// requireColumn проверяет наличие колонки во входной таблице.
func requireColumn(t *table.Table, column string) error {
	if column == "" {
		return fmt.Errorf("%w: column is not set", ErrInvalidConfig)
	}
	if !t.Has(column) {
		return fmt.Errorf("%w: %q", ErrMissingColumn, column)
	}
	return nil
}

// targetColumns возвращает существующие колонки из списка, а при пустом
// списке — все колонки таблицы. Отсутствующие колонки возвращаются отдельно.
func targetColumns(t *table.Table, requested []string) (cols, missing []string) {
	if len(requested) == 0 {
		return t.Columns(), nil
	}
	cols = t.Existing(requested)
	for _, c := range requested {
		if !t.Has(c) {
			missing = append(missing, c)
		}
	}
	return cols, missing
}

// rowKey хэширует значения строки в указанных позициях.
// Тип значения входит в ключ, поэтому 1 и "1" различаются.
func rowKey(row []any, idx []int) uint64 {
	d := xxhash.New()
	for _, j := range idx {
		v := row[j]
		switch {
		case table.IsNull(v):
			_, _ = d.WriteString("\x00n")
		default:
			_, _ = d.WriteString(fmt.Sprintf("%T", v))
			_, _ = d.WriteString("\x00")
			_, _ = d.WriteString(table.ToString(v))
		}
		_, _ = d.WriteString("\x1f")
	}
	return d.Sum64()
}

// sameKey сравнивает ключ с значениями row в позициях idx так же,
// как их различает rowKey.
func sameKey(key, row []any, idx []int) bool {
	for k, j := range idx {
		a, b := key[k], row[j]
		an, bn := table.IsNull(a), table.IsNull(b)
		if an || bn {
			if an != bn {
				return false
			}
			continue
		}
		if fmt.Sprintf("%T", a) != fmt.Sprintf("%T", b) || table.ToString(a) != table.ToString(b) {
			return false
		}
	}
	return true
}

// keyIndex нумерует различные ключи строк в порядке появления.
// Поиск идёт по rowKey, при совпадении хэша сравниваются сами значения.
type keyIndex struct {
	buckets map[uint64][]int
	keys    [][]any
}

func newKeyIndex(capacity int) *keyIndex {
	return &keyIndex{buckets: make(map[uint64][]int, capacity)}
}

// id возвращает номер ключа row[idx]; added — ключ встречен впервые.
func (x *keyIndex) id(row []any, idx []int) (id int, added bool) {
	h := rowKey(row, idx)
	for _, cand := range x.buckets[h] {
		if sameKey(x.keys[cand], row, idx) {
			return cand, false
		}
	}
	key := make([]any, len(idx))
	for k, j := range idx {
		key[k] = row[j]
	}
	id = len(x.keys)
	x.keys = append(x.keys, key)
	x.buckets[h] = append(x.buckets[h], id)
	return id, true
}

// lookup ищет ключ row[idx], не добавляя его.
func (x *keyIndex) lookup(row []any, idx []int) (int, bool) {
	for _, id := range x.buckets[rowKey(row, idx)] {
		if sameKey(x.keys[id], row, idx) {
			return id, true
		}
	}
	return 0, false
}

// valueID — id для ключа из одного значения.
func (x *keyIndex) valueID(v any) (int, bool) {
	return x.id([]any{v}, []int{0})
}

func (x *keyIndex) key(id int) []any { return x.keys[id] }

func (x *keyIndex) size() int { return len(x.keys) }

// indices возвращает позиции колонок в таблице.
func indices(t *table.Table, cols []string) []int {
	out := make([]int, 0, len(cols))
	for _, c := range cols {
		if j, ok := t.ColumnIndex(c); ok {
			out = append(out, j)
		}
	}
	return out
}

// round округляет до digits знаков после запятой.
func round(f float64, digits int) float64 {
	p := math.Pow(10, float64(digits))
	return math.Round(f*p) / p
}

// floatCell превращает число в ячейку, NaN — в null.
func floatCell(f float64) any {
	if math.IsNaN(f) {
		return nil
	}
	return f
}

// nonNullStrings возвращает непустые текстовые значения колонки.
func nonNullStrings(t *table.Table, column string) []string {
	var out []string
	for _, v := range t.Column(column) {
		if table.IsNull(v) {
			continue
		}
		if s := strings.TrimSpace(table.ToString(v)); s != "" {
			out = append(out, s)
		}
	}
	return out
}
