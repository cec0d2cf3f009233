package table

import (
	"fmt"
	"slices"
)

// Table — неизменяемая таблица с именованными колонками.
type Table struct {
	columns []string
	index   map[string]int
	rows    [][]any
}

// New создаёт таблицу. Строки короче числа колонок дополняются nil,
// лишние ячейки отбрасываются. Повторяющиеся имена колонок получают суффикс.
func New(columns []string, rows [][]any) *Table {
	cols := uniqueNames(columns)
	t := &Table{
		columns: cols,
		index:   make(map[string]int, len(cols)),
		rows:    make([][]any, len(rows)),
	}
	for i, c := range cols {
		t.index[c] = i
	}
	for i, row := range rows {
		if len(row) == len(cols) {
			t.rows[i] = row
			continue
		}
		fixed := make([]any, len(cols))
		copy(fixed, row)
		t.rows[i] = fixed
	}
	return t
}

// Empty возвращает таблицу без колонок и строк.
func Empty() *Table {
	return New(nil, nil)
}

// uniqueNames делает имена колонок уникальными: "a", "a" → "a", "a.1".
func uniqueNames(columns []string) []string {
	seen := make(map[string]int, len(columns))
	out := make([]string, len(columns))
	for i, c := range columns {
		name := c
		for {
			n, dup := seen[name]
			if !dup {
				break
			}
			seen[name] = n + 1
			name = fmt.Sprintf("%s.%d", c, n+1)
		}
		seen[name] = 0
		out[i] = name
	}
	return out
}

// Columns возвращает копию списка имён колонок.
func (t *Table) Columns() []string {
	return slices.Clone(t.columns)
}

// NumRows возвращает количество строк.
func (t *Table) NumRows() int {
	return len(t.rows)
}

// NumCols возвращает количество колонок.
func (t *Table) NumCols() int {
	return len(t.columns)
}

// IsEmpty возвращает true, если в таблице нет строк.
func (t *Table) IsEmpty() bool {
	return len(t.rows) == 0
}

// Has проверяет наличие колонки.
func (t *Table) Has(column string) bool {
	_, ok := t.index[column]
	return ok
}

// ColumnIndex возвращает позицию колонки.
func (t *Table) ColumnIndex(column string) (int, bool) {
	i, ok := t.index[column]
	return i, ok
}

// Row возвращает строку i. Срез нельзя изменять.
func (t *Table) Row(i int) []any {
	return t.rows[i]
}

// Value возвращает ячейку строки i в колонке column (nil, если колонки нет).
func (t *Table) Value(i int, column string) any {
	j, ok := t.index[column]
	if !ok {
		return nil
	}
	return t.rows[i][j]
}

// Column возвращает копию значений колонки.
func (t *Table) Column(column string) []any {
	j, ok := t.index[column]
	if !ok {
		return nil
	}
	out := make([]any, len(t.rows))
	for i, row := range t.rows {
		out[i] = row[j]
	}
	return out
}

// Existing оставляет из списка только существующие колонки (порядок сохраняется).
func (t *Table) Existing(columns []string) []string {
	out := make([]string, 0, len(columns))
	for _, c := range columns {
		if t.Has(c) && !slices.Contains(out, c) {
			out = append(out, c)
		}
	}
	return out
}

// Clone возвращает глубокую копию строк.
func (t *Table) Clone() *Table {
	rows := make([][]any, len(t.rows))
	for i, row := range t.rows {
		rows[i] = slices.Clone(row)
	}
	return New(t.columns, rows)
}

// Select возвращает таблицу только с указанными колонками.
// Несуществующие колонки пропускаются.
func (t *Table) Select(columns []string) *Table {
	cols := t.Existing(columns)
	idx := make([]int, len(cols))
	for i, c := range cols {
		idx[i] = t.index[c]
	}
	rows := make([][]any, len(t.rows))
	for i, row := range t.rows {
		out := make([]any, len(idx))
		for k, j := range idx {
			out[k] = row[j]
		}
		rows[i] = out
	}
	return New(cols, rows)
}

// Filter возвращает таблицу со строками, для которых keep вернул true.
func (t *Table) Filter(keep func(i int, row []any) bool) *Table {
	rows := make([][]any, 0, len(t.rows))
	for i, row := range t.rows {
		if keep(i, row) {
			rows = append(rows, row)
		}
	}
	return New(t.columns, rows)
}

// Take возвращает таблицу со строками по указанным индексам.
func (t *Table) Take(indices []int) *Table {
	rows := make([][]any, len(indices))
	for k, i := range indices {
		rows[k] = t.rows[i]
	}
	return New(t.columns, rows)
}

// Head возвращает первые n строк.
func (t *Table) Head(n int) *Table {
	if n >= len(t.rows) {
		return t
	}
	if n < 0 {
		n = 0
	}
	return New(t.columns, t.rows[:n])
}

// Tail возвращает последние n строк.
func (t *Table) Tail(n int) *Table {
	if n >= len(t.rows) {
		return t
	}
	if n < 0 {
		n = 0
	}
	return New(t.columns, t.rows[len(t.rows)-n:])
}

// WithColumn возвращает таблицу с добавленной (или заменённой) колонкой.
// values должен иметь длину NumRows.
func (t *Table) WithColumn(name string, values []any) *Table {
	if len(values) != len(t.rows) {
		panic(fmt.Sprintf("table: column %q has %d values, table has %d rows", name, len(values), len(t.rows)))
	}

	j, exists := t.index[name]
	cols := t.columns
	if !exists {
		cols = append(slices.Clone(t.columns), name)
	}

	rows := make([][]any, len(t.rows))
	for i, row := range t.rows {
		var out []any
		if exists {
			out = slices.Clone(row)
			out[j] = values[i]
		} else {
			out = make([]any, len(row)+1)
			copy(out, row)
			out[len(row)] = values[i]
		}
		rows[i] = out
	}
	return New(cols, rows)
}

// Drop возвращает таблицу без указанных колонок.
func (t *Table) Drop(columns ...string) *Table {
	keep := make([]string, 0, len(t.columns))
	for _, c := range t.columns {
		if !slices.Contains(columns, c) {
			keep = append(keep, c)
		}
	}
	return t.Select(keep)
}

// Rename возвращает таблицу с переименованными колонками (old → new).
// Строки разделяются с исходной таблицей.
func (t *Table) Rename(mapping map[string]string) *Table {
	cols := slices.Clone(t.columns)
	for i, c := range cols {
		if n, ok := mapping[c]; ok && n != "" {
			cols[i] = n
		}
	}
	return New(cols, t.rows)
}

// Records возвращает до limit строк в виде map (limit <= 0 — все строки).
func (t *Table) Records(limit int) []map[string]any {
	n := len(t.rows)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]map[string]any, n)
	for i := 0; i < n; i++ {
		rec := make(map[string]any, len(t.columns))
		for j, c := range t.columns {
			rec[c] = t.rows[i][j]
		}
		out[i] = rec
	}
	return out
}

// FromRecords строит таблицу из списка map. Порядок колонок — порядок
// первого появления ключа; columns задаёт приоритетный порядок.
func FromRecords(records []map[string]any, columns []string) *Table {
	cols := slices.Clone(columns)
	seen := make(map[string]bool, len(cols))
	for _, c := range cols {
		seen[c] = true
	}
	for _, rec := range records {
		keys := make([]string, 0, len(rec))
		for k := range rec {
			if !seen[k] {
				keys = append(keys, k)
			}
		}
		slices.Sort(keys)
		for _, k := range keys {
			seen[k] = true
			cols = append(cols, k)
		}
	}

	rows := make([][]any, len(records))
	for i, rec := range records {
		row := make([]any, len(cols))
		for j, c := range cols {
			row[j] = Normalize(rec[c])
		}
		rows[i] = row
	}
	return New(cols, rows)
}
