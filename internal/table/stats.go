package table

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// StatNames — порядок описательных статистик.
var StatNames = []string{"count", "mean", "std", "min", "25%", "50%", "75%", "max"}

// Describe считает описательную статистику по каждой числовой колонке.
// Пустая таблица даёт пустую map. Неопределённые значения — NaN.
func (t *Table) Describe() map[string]map[string]float64 {
	out := make(map[string]map[string]float64)
	if t.IsEmpty() {
		return out
	}
	for _, c := range t.NumericColumns() {
		out[c] = DescribeValues(t.Floats(c))
	}
	return out
}

// DescribeValues считает статистики по набору чисел.
// std — выборочное (n-1), квантили — линейная интерполяция.
func DescribeValues(values []float64) map[string]float64 {
	s := map[string]float64{
		"count": float64(len(values)),
		"mean":  math.NaN(),
		"std":   math.NaN(),
		"min":   math.NaN(),
		"25%":   math.NaN(),
		"50%":   math.NaN(),
		"75%":   math.NaN(),
		"max":   math.NaN(),
	}
	if len(values) == 0 {
		return s
	}

	sorted := slices.Clone(values)
	slices.Sort(sorted)

	mean, std := stat.MeanStdDev(sorted, nil)
	s["mean"] = mean
	s["std"] = std
	s["min"] = floats.Min(sorted)
	s["max"] = floats.Max(sorted)
	s["25%"] = Quantile(sorted, 0.25)
	s["50%"] = Quantile(sorted, 0.50)
	s["75%"] = Quantile(sorted, 0.75)
	return s
}

// Quantile возвращает квантиль p отсортированного среза
// с линейной интерполяцией между соседними рангами.
func Quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if n == 1 {
		return sorted[0]
	}
	pos := p * float64(n-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// Median — медиана несортированного набора.
func Median(values []float64) float64 {
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	return Quantile(sorted, 0.5)
}

// Pearson возвращает коэффициент корреляции по парам, где оба значения заданы.
func (t *Table) Pearson(a, b string) float64 {
	ja, okA := t.index[a]
	jb, okB := t.index[b]
	if !okA || !okB {
		return math.NaN()
	}
	var xs, ys []float64
	for _, row := range t.rows {
		x, okX := ToFloat(row[ja])
		y, okY := ToFloat(row[jb])
		if okX && okY && !IsNull(row[ja]) && !IsNull(row[jb]) {
			xs = append(xs, x)
			ys = append(ys, y)
		}
	}
	if len(xs) < 2 {
		return math.NaN()
	}
	return stat.Correlation(xs, ys, nil)
}
