package ops

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"slices"
	"strings"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/shaiso/dataflow/internal/table"
)

const (
	KindClustering    = "clustering"
	KindForecast      = "forecast"
	KindTrendAnalysis = "trend_analysis"
	KindOutliers      = "outliers"
	KindDescribeStats = "describe_stats"
	KindCorrelation   = "correlation"
	KindDataTypes     = "data_types"
	KindShape         = "shape"
)

// kmeansMaxIter ограничивает число итераций k-means.
const kmeansMaxIter = 300

type clusteringConfig struct {
	Columns []string `json:"columns"`
	K       int      `json:"k"`
}

// Clustering размечает строки кластерами k-means по числовым колонкам.
//
// Признаки стандартизируются, строки с пропусками не участвуют и получают
// null в колонке Cluster.
type Clustering struct{ base }

func (o *Clustering) Apply(_ context.Context, req *Request) (*Response, error) {
	cfg := clusteringConfig{K: 3}
	if err := decodeConfig(req.Config, &cfg); err != nil {
		return nil, err
	}
	in := req.Input
	resp := &Response{}
	cols := numericTargets(in, cfg.Columns, resp)
	if len(cols) == 0 {
		resp.Logf("No numeric columns to cluster")
		resp.Table = in
		return resp, nil
	}
	if cfg.K < 1 {
		return nil, fmt.Errorf("%w: k must be positive", ErrInvalidConfig)
	}

	var (
		points [][]float64
		rowIDs []int
	)
	idx := indices(in, cols)
	for i := 0; i < in.NumRows(); i++ {
		p := make([]float64, len(idx))
		ok := true
		for k, j := range idx {
			f, isNum := table.ToFloat(in.Row(i)[j])
			if !isNum || table.IsNull(in.Row(i)[j]) {
				ok = false
				break
			}
			p[k] = f
		}
		if ok {
			points = append(points, p)
			rowIDs = append(rowIDs, i)
		}
	}
	if len(points) < cfg.K {
		resp.Logf("Not enough rows (%d) for %d clusters", len(points), cfg.K)
		resp.Table = in
		return resp, nil
	}

	standardize(points)
	labels, converged := kmeans(points, cfg.K, kmeansMaxIter)
	if !converged {
		resp.Logf("K-means did not converge in %d iterations; table unchanged", kmeansMaxIter)
		resp.Table = in
		return resp, nil
	}

	values := make([]any, in.NumRows())
	for k, i := range rowIDs {
		values[i] = float64(labels[k])
	}
	resp.Table = in.WithColumn("Cluster", values)
	return resp, nil
}

// standardize приводит каждый признак к нулевому среднему и единичному отклонению.
func standardize(points [][]float64) {
	if len(points) == 0 {
		return
	}
	col := make([]float64, len(points))
	for d := range points[0] {
		for i, p := range points {
			col[i] = p[d]
		}
		mean, std := stat.PopMeanStdDev(col, nil)
		for _, p := range points {
			if std == 0 {
				p[d] = 0
			} else {
				p[d] = (p[d] - mean) / std
			}
		}
	}
}

// kmeans — алгоритм Ллойда с инициализацией k-means++ и фиксированным seed.
func kmeans(points [][]float64, k, maxIter int) ([]int, bool) {
	rng := rand.New(rand.NewSource(sampleSeed))
	centers := make([][]float64, 0, k)
	centers = append(centers, slices.Clone(points[rng.Intn(len(points))]))

	dist := make([]float64, len(points))
	for len(centers) < k {
		var total float64
		for i, p := range points {
			d := math.Inf(1)
			for _, c := range centers {
				d = min(d, sqDist(p, c))
			}
			dist[i] = d
			total += d
		}
		if total == 0 {
			centers = append(centers, slices.Clone(points[len(centers)%len(points)]))
			continue
		}
		target := rng.Float64() * total
		chosen := len(points) - 1
		for i, d := range dist {
			target -= d
			if target <= 0 {
				chosen = i
				break
			}
		}
		centers = append(centers, slices.Clone(points[chosen]))
	}

	labels := make([]int, len(points))
	for iter := 0; iter < maxIter; iter++ {
		changed := false
		for i, p := range points {
			if c := nearest(p, centers); c != labels[i] {
				labels[i] = c
				changed = true
			}
		}
		if !changed && iter > 0 {
			return labels, true
		}

		sums := make([][]float64, k)
		counts := make([]int, k)
		for c := range sums {
			sums[c] = make([]float64, len(points[0]))
		}
		for i, p := range points {
			floats.Add(sums[labels[i]], p)
			counts[labels[i]]++
		}
		for c := range centers {
			if counts[c] == 0 {
				continue
			}
			floats.Scale(1/float64(counts[c]), sums[c])
			centers[c] = sums[c]
		}
	}
	return labels, false
}

// nearest возвращает индекс ближайшего центра.
func nearest(p []float64, centers [][]float64) int {
	best, bestD := 0, math.Inf(1)
	for c, center := range centers {
		if d := sqDist(p, center); d < bestD {
			best, bestD = c, d
		}
	}
	return best
}

func sqDist(a, b []float64) float64 {
	d := floats.Distance(a, b, 2)
	return d * d
}

type forecastConfig struct {
	DateColumn  string `json:"dateColumn"`
	ValueColumn string `json:"valueColumn"`
	Periods     int    `json:"periods"`
}

// Forecast продолжает ряд линейным трендом.
//
// Ряд строится по датам: значения valueColumn суммируются по дню,
// без valueColumn считается число строк. Результат — фактические точки
// и periods прогнозных, колонка Type различает их.
type Forecast struct{ base }

func (o *Forecast) Apply(_ context.Context, req *Request) (*Response, error) {
	cfg := forecastConfig{Periods: 7}
	if err := decodeConfig(req.Config, &cfg); err != nil {
		return nil, err
	}
	in := req.Input
	if err := requireColumn(in, cfg.DateColumn); err != nil {
		return nil, err
	}
	if cfg.ValueColumn != "" {
		if err := requireColumn(in, cfg.ValueColumn); err != nil {
			return nil, err
		}
	}

	agg := "size"
	if cfg.ValueColumn != "" {
		agg = "sum"
	}
	series := bucketize(in, cfg.DateColumn, cfg.ValueColumn, "D", agg, false)
	if len(series) < 2 {
		return passThrough(req, "Not enough dated points for a forecast")
	}

	xs := make([]float64, len(series))
	ys := make([]float64, len(series))
	for i, p := range series {
		xs[i] = float64(p.at.Unix()) / 86400
		y, _ := table.ToFloat(p.value)
		ys[i] = y
	}
	alpha, beta := stat.LinearRegression(xs, ys, nil, false)

	name := cfg.ValueColumn
	if name == "" {
		name = "Count"
	}
	rows := make([][]any, 0, len(series)+cfg.Periods)
	for _, p := range series {
		rows = append(rows, []any{p.at, p.value, "Actual"})
	}
	last := series[len(series)-1].at
	for k := 1; k <= cfg.Periods; k++ {
		at := last.AddDate(0, 0, k)
		y := alpha + beta*float64(at.Unix())/86400
		rows = append(rows, []any{at, round(y, 2), "Forecast"})
	}
	resp := NewResponse(table.New([]string{cfg.DateColumn, name, "Type"}, rows))
	resp.Logf("Forecast %d periods (slope %.4f per day)", cfg.Periods, beta)
	return resp, nil
}

// point — значение ряда в момент времени.
type point struct {
	at    time.Time
	value any
}

// truncate возвращает начало периода D/W/M/Q/Y, содержащего t.
func truncate(t time.Time, period string) time.Time {
	y, m, d := t.Date()
	switch period {
	case "W":
		day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	case "M":
		return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
	case "Q":
		return time.Date(y, m-(m-1)%3, 1, 0, 0, 0, 0, time.UTC)
	case "Y", "A":
		return time.Date(y, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// next возвращает начало следующего периода.
func next(t time.Time, period string) time.Time {
	switch period {
	case "W":
		return t.AddDate(0, 0, 7)
	case "M":
		return t.AddDate(0, 1, 0)
	case "Q":
		return t.AddDate(0, 3, 0)
	case "Y", "A":
		return t.AddDate(1, 0, 0)
	}
	return t.AddDate(0, 0, 1)
}

// bucketize агрегирует значения по периодам. Строки без даты отбрасываются.
// При fill пропущенные периоды заполняются: 0 для size/count/sum, null иначе.
func bucketize(t *table.Table, dateCol, valueCol, period, fn string, fill bool) []point {
	buckets := make(map[time.Time][]any)
	for i := 0; i < t.NumRows(); i++ {
		at, ok := table.ToTime(t.Value(i, dateCol))
		if !ok {
			continue
		}
		key := truncate(at.UTC(), period)
		var v any
		if valueCol != "" {
			v = t.Value(i, valueCol)
		}
		buckets[key] = append(buckets[key], v)
	}
	if len(buckets) == 0 {
		return nil
	}

	keys := make([]time.Time, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b time.Time) int { return a.Compare(b) })

	var out []point
	if !fill {
		for _, k := range keys {
			out = append(out, point{at: k, value: aggregate(fn, buckets[k])})
		}
		return out
	}
	for at := keys[0]; !at.After(keys[len(keys)-1]); at = next(at, period) {
		values, ok := buckets[at]
		if !ok {
			switch fn {
			case "size", "count", "sum":
				out = append(out, point{at: at, value: 0.0})
			default:
				out = append(out, point{at: at})
			}
			continue
		}
		out = append(out, point{at: at, value: aggregate(fn, values)})
	}
	return out
}

type trendConfig struct {
	DateColumn  string `json:"dateColumn"`
	Period      string `json:"period"`
	Agg         string `json:"agg"`
	ValueColumn string `json:"valueColumn"`
}

// TrendAnalysis агрегирует строки по периодам D/W/M/Q/Y.
// Период помечается датой его начала.
type TrendAnalysis struct{ base }

func (o *TrendAnalysis) Apply(_ context.Context, req *Request) (*Response, error) {
	cfg := trendConfig{Period: "M", Agg: "count"}
	if err := decodeConfig(req.Config, &cfg); err != nil {
		return nil, err
	}
	in := req.Input
	if err := requireColumn(in, cfg.DateColumn); err != nil {
		return nil, err
	}
	period := strings.ToUpper(strings.TrimSpace(cfg.Period))
	switch period {
	case "D", "W", "M", "Q", "Y", "A":
	case "ME":
		period = "M"
	case "QE":
		period = "Q"
	case "YE":
		period = "Y"
	default:
		return nil, fmt.Errorf("%w: unknown period %q", ErrInvalidConfig, cfg.Period)
	}

	fn, name := "size", "Count"
	if !strings.EqualFold(cfg.Agg, "count") {
		if err := requireColumn(in, cfg.ValueColumn); err != nil {
			return nil, err
		}
		var err error
		if fn, err = normalizeAgg(cfg.Agg); err != nil {
			return nil, err
		}
		name = cfg.ValueColumn
	}

	series := bucketize(in, cfg.DateColumn, cfg.ValueColumn, period, fn, true)
	rows := make([][]any, len(series))
	for i, p := range series {
		rows[i] = []any{p.at, p.value}
	}
	return NewResponse(table.New([]string{cfg.DateColumn, name}, rows)), nil
}

type outliersConfig struct {
	Column    string  `json:"column"`
	Threshold float64 `json:"threshold"`
}

// Outliers помечает выбросы по z-оценке.
// Добавляет колонки <col>_zscore и Outlier.
type Outliers struct{ base }

func (o *Outliers) Apply(_ context.Context, req *Request) (*Response, error) {
	cfg := outliersConfig{Threshold: 3}
	if err := decodeConfig(req.Config, &cfg); err != nil {
		return nil, err
	}
	in := req.Input
	if err := requireColumn(in, cfg.Column); err != nil {
		return nil, err
	}
	nums := in.Floats(cfg.Column)
	if len(nums) < 2 {
		return passThrough(req, "Not enough numeric values in '%s' to detect outliers", cfg.Column)
	}
	mean, std := stat.MeanStdDev(nums, nil)

	scores := make([]any, in.NumRows())
	flags := make([]any, in.NumRows())
	found := 0
	for i, v := range in.Column(cfg.Column) {
		f, ok := table.ToFloat(v)
		if !ok || table.IsNull(v) {
			flags[i] = false
			continue
		}
		z := 0.0
		if std > 0 {
			z = (f - mean) / std
		}
		outlier := math.Abs(z) > cfg.Threshold
		scores[i] = round(z, 4)
		flags[i] = outlier
		if outlier {
			found++
		}
	}
	resp := NewResponse(in.WithColumn(cfg.Column+"_zscore", scores).WithColumn("Outlier", flags))
	resp.Logf("Found %d outliers in '%s'", found, cfg.Column)
	return resp, nil
}

// DescribeStats строит таблицу описательной статистики.
//
// Для таблицы без числовых колонок считаются count, unique, top, freq.
type DescribeStats struct{ base }

func (o *DescribeStats) Apply(_ context.Context, req *Request) (*Response, error) {
	in := req.Input
	numeric := in.NumericColumns()
	if len(numeric) == 0 {
		return NewResponse(describeObjects(in)), nil
	}

	stats := in.Describe()
	cols := append([]string{"Statistic"}, numeric...)
	rows := make([][]any, len(table.StatNames))
	for r, name := range table.StatNames {
		row := make([]any, len(cols))
		row[0] = name
		for k, c := range numeric {
			row[k+1] = floatCell(stats[c][name])
		}
		rows[r] = row
	}
	return NewResponse(table.New(cols, rows)), nil
}

func describeObjects(in *table.Table) *table.Table {
	names := []string{"count", "unique", "top", "freq"}
	cols := append([]string{"Statistic"}, in.Columns()...)
	rows := make([][]any, len(names))
	for r, n := range names {
		rows[r] = make([]any, len(cols))
		rows[r][0] = n
	}
	for k, c := range in.Columns() {
		counts := valueCounts(in, c)
		nonNull := 0.0
		for _, v := range counts.Column(counts.Columns()[1]) {
			f, _ := table.ToFloat(v)
			nonNull += f
		}
		rows[0][k+1] = nonNull
		rows[1][k+1] = float64(counts.NumRows())
		if counts.NumRows() > 0 {
			rows[2][k+1] = counts.Row(0)[0]
			rows[3][k+1] = counts.Row(0)[1]
		}
	}
	return table.New(cols, rows)
}

type correlationConfig struct {
	Method  string   `json:"method"`
	Columns []string `json:"columns"`
}

// Correlation строит матрицу корреляций числовых колонок.
type Correlation struct{ base }

func (o *Correlation) Apply(_ context.Context, req *Request) (*Response, error) {
	cfg := correlationConfig{Method: "pearson"}
	if err := decodeConfig(req.Config, &cfg); err != nil {
		return nil, err
	}
	in := req.Input
	resp := &Response{}
	cols := numericTargets(in, cfg.Columns, resp)
	if len(cols) < 2 {
		resp.Logf("Correlation needs at least two numeric columns")
		resp.Table = in
		return resp, nil
	}

	var corr func(a, b string) float64
	switch strings.ToLower(cfg.Method) {
	case "pearson":
		corr = in.Pearson
	case "spearman":
		ranked := in
		for _, c := range cols {
			r, _ := rankValues(in.Column(c), "average", false)
			ranked = ranked.WithColumn(c, r)
		}
		corr = ranked.Pearson
	case "kendall":
		corr = func(a, b string) float64 { return kendall(in, a, b) }
	default:
		return nil, fmt.Errorf("%w: unknown correlation method %q", ErrInvalidConfig, cfg.Method)
	}

	rows := make([][]any, len(cols))
	for i, a := range cols {
		row := make([]any, len(cols)+1)
		row[0] = a
		for j, b := range cols {
			if i == j {
				row[j+1] = 1.0
				continue
			}
			row[j+1] = floatCell(round(corr(a, b), 4))
		}
		rows[i] = row
	}
	resp.Table = table.New(append([]string{"Column"}, cols...), rows)
	return resp, nil
}

// kendall — tau-b Кендалла по парам, где оба значения заданы.
func kendall(t *table.Table, a, b string) float64 {
	var xs, ys []float64
	for i := 0; i < t.NumRows(); i++ {
		x, okX := table.ToFloat(t.Value(i, a))
		y, okY := table.ToFloat(t.Value(i, b))
		if okX && okY && !table.IsNull(t.Value(i, a)) && !table.IsNull(t.Value(i, b)) {
			xs = append(xs, x)
			ys = append(ys, y)
		}
	}
	var concordant, discordant, tiesX, tiesY float64
	for i := 0; i < len(xs); i++ {
		for j := i + 1; j < len(xs); j++ {
			dx := xs[i] - xs[j]
			dy := ys[i] - ys[j]
			switch {
			case dx == 0 && dy == 0:
			case dx == 0:
				tiesX++
			case dy == 0:
				tiesY++
			case dx*dy > 0:
				concordant++
			default:
				discordant++
			}
		}
	}
	denom := math.Sqrt((concordant + discordant + tiesX) * (concordant + discordant + tiesY))
	if denom == 0 {
		return math.NaN()
	}
	return (concordant - discordant) / denom
}

// DataTypes перечисляет колонки и их типы.
type DataTypes struct{ base }

func (o *DataTypes) Apply(_ context.Context, req *Request) (*Response, error) {
	in := req.Input
	rows := make([][]any, 0, in.NumCols())
	for _, c := range in.Columns() {
		rows = append(rows, []any{c, dtypeName(in, c)})
	}
	return NewResponse(table.New([]string{"Column", "Type"}, rows)), nil
}

// dtypeName называет тип колонки так, как его показывает UI.
func dtypeName(t *table.Table, column string) string {
	switch t.ColumnType(column) {
	case table.TypeNumber:
		for _, f := range t.Floats(column) {
			if f != math.Trunc(f) {
				return "float64"
			}
		}
		if slices.ContainsFunc(t.Column(column), table.IsNull) {
			return "float64"
		}
		return "int64"
	case table.TypeBool:
		return "bool"
	case table.TypeDatetime:
		return "datetime64[ns]"
	}
	return "object"
}

// Shape возвращает размеры таблицы.
type Shape struct{ base }

func (o *Shape) Apply(_ context.Context, req *Request) (*Response, error) {
	in := req.Input
	return NewResponse(table.New([]string{"Rows", "Columns"}, [][]any{
		{float64(in.NumRows()), float64(in.NumCols())},
	})), nil
}
