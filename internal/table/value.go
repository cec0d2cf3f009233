package table

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// ColumnType — грубый тип колонки, выведенный по значениям.
type ColumnType string

const (
	TypeNumber   ColumnType = "number"
	TypeString   ColumnType = "string"
	TypeBool     ColumnType = "bool"
	TypeDatetime ColumnType = "datetime"
	TypeMixed    ColumnType = "mixed"
	TypeEmpty    ColumnType = "empty"
)

// Normalize приводит значение из внешнего источника к одному из типов ячейки.
// Все числа становятся float64, неизвестные типы — строкой.
func Normalize(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case float64:
		return x
	case float32:
		return float64(x)
	case int:
		return float64(x)
	case int8:
		return float64(x)
	case int16:
		return float64(x)
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	case uint:
		return float64(x)
	case uint8:
		return float64(x)
	case uint16:
		return float64(x)
	case uint32:
		return float64(x)
	case uint64:
		return float64(x)
	case json.Number:
		if f, err := x.Float64(); err == nil {
			return f
		}
		return x.String()
	case string:
		return x
	case []byte:
		return string(x)
	case bool:
		return x
	case time.Time:
		return x
	case *time.Time:
		if x == nil {
			return nil
		}
		return *x
	default:
		return fmt.Sprint(x)
	}
}

// ParseCell выводит тип ячейки из текстового значения (CSV, XLSX).
// Пустая строка и общепринятые маркеры пропусков дают nil.
// "inf" и "Infinity" остаются текстом: бесконечность не выводится в JSON.
func ParseCell(s string) any {
	trimmed := strings.TrimSpace(s)
	switch trimmed {
	case "", "NA", "N/A", "NaN", "nan", "null", "NULL", "None":
		return nil
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil && !math.IsInf(f, 0) {
		return f
	}
	switch strings.ToLower(trimmed) {
	case "true":
		return true
	case "false":
		return false
	}
	return s
}

// IsNull возвращает true для nil и NaN.
func IsNull(v any) bool {
	if v == nil {
		return true
	}
	if f, ok := v.(float64); ok && math.IsNaN(f) {
		return true
	}
	return false
}

// ToFloat пытается привести значение к числу.
func ToFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		if math.IsNaN(x) {
			return 0, false
		}
		return x, true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	case time.Time:
		return float64(x.Unix()), true
	}
	return 0, false
}

// ToString возвращает текстовое представление ячейки (пустую строку для null).
func ToString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return FormatFloat(x)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 && x.Nanosecond() == 0 {
			return x.Format(time.DateOnly)
		}
		return x.Format(time.RFC3339)
	}
	return fmt.Sprint(v)
}

// FormatFloat печатает целые значения без дробной части.
func FormatFloat(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// ToTime приводит значение к времени. Строки разбираются dateparse.
func ToTime(v any) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		return x, true
	case string:
		return ParseTime(x)
	}
	return time.Time{}, false
}

// ParseTime разбирает строку в дату в любом распространённом формате.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// ToBool приводит значение к логическому типу.
func ToBool(v any) (bool, bool) {
	switch x := v.(type) {
	case bool:
		return x, true
	case float64:
		return x != 0, true
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "true", "yes", "y", "1":
			return true, true
		case "false", "no", "n", "0", "":
			return false, true
		}
	}
	return false, false
}

// Equal сравнивает ячейки с приведением числа и строки.
func Equal(a, b any) bool {
	if IsNull(a) || IsNull(b) {
		return IsNull(a) && IsNull(b)
	}
	return Compare(a, b) == 0
}

// Compare упорядочивает две ячейки: числа численно, даты хронологически,
// остальное как строки. Null всегда больше любого значения.
func Compare(a, b any) int {
	an, bn := IsNull(a), IsNull(b)
	switch {
	case an && bn:
		return 0
	case an:
		return 1
	case bn:
		return -1
	}

	if fa, ok := a.(float64); ok {
		if fb, ok := ToFloat(b); ok {
			return cmpFloat(fa, fb)
		}
	}
	if fb, ok := b.(float64); ok {
		if fa, ok := ToFloat(a); ok {
			return cmpFloat(fa, fb)
		}
	}
	if ta, ok := a.(time.Time); ok {
		if tb, ok := ToTime(b); ok {
			return ta.Compare(tb)
		}
	}
	if tb, ok := b.(time.Time); ok {
		if ta, ok := ToTime(a); ok {
			return ta.Compare(tb)
		}
	}
	return strings.Compare(ToString(a), ToString(b))
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// ColumnType выводит тип колонки по её непустым значениям.
func (t *Table) ColumnType(column string) ColumnType {
	j, ok := t.index[column]
	if !ok {
		return TypeEmpty
	}
	var kind ColumnType
	for _, row := range t.rows {
		v := row[j]
		if IsNull(v) {
			continue
		}
		var k ColumnType
		switch v.(type) {
		case float64:
			k = TypeNumber
		case bool:
			k = TypeBool
		case time.Time:
			k = TypeDatetime
		default:
			k = TypeString
		}
		if kind == "" {
			kind = k
		} else if kind != k {
			return TypeMixed
		}
	}
	if kind == "" {
		return TypeEmpty
	}
	return kind
}

// IsNumeric возвращает true, если все непустые значения колонки — числа.
// Колонка без значений числовой не считается.
func (t *Table) IsNumeric(column string) bool {
	return t.ColumnType(column) == TypeNumber
}

// NumericColumns возвращает числовые колонки в порядке таблицы.
func (t *Table) NumericColumns() []string {
	var out []string
	for _, c := range t.columns {
		if t.IsNumeric(c) {
			out = append(out, c)
		}
	}
	return out
}

// Floats возвращает числовые значения колонки, пропуская всё, что не приводится.
func (t *Table) Floats(column string) []float64 {
	j, ok := t.index[column]
	if !ok {
		return nil
	}
	out := make([]float64, 0, len(t.rows))
	for _, row := range t.rows {
		if f, ok := ToFloat(row[j]); ok && !IsNull(row[j]) {
			out = append(out, f)
		}
	}
	return out
}
