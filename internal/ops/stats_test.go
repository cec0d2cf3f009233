package ops

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaiso/dataflow/internal/table"
)

func TestDescribeStats(t *testing.T) {
	op := &DescribeStats{display(KindDescribeStats)}

	resp := applyOp(t, op, people(), nil)

	assert.Equal(t, []string{"Statistic", "Age", "Score"}, resp.Table.Columns())
	assert.Equal(t, table.StatNames, stringsOf(resp.Table.Column("Statistic")))
	assert.Equal(t, []any{"count", 4.0, 4.0}, resp.Table.Row(0))
	assert.Equal(t, 32.5, resp.Table.Value(1, "Age"))
	assert.Equal(t, 25.0, resp.Table.Value(3, "Age"))
	assert.Equal(t, 90.0, resp.Table.Value(7, "Score"))
}

func TestDescribeStats_Objects(t *testing.T) {
	in := people().Select([]string{"City"})

	resp := applyOp(t, &DescribeStats{display(KindDescribeStats)}, in, nil)

	assert.Equal(t, []any{"count", "unique", "top", "freq"}, resp.Table.Column("Statistic"))
	assert.Equal(t, []any{5.0, 3.0, "Paris", 3.0}, resp.Table.Column("City"))
}

func stringsOf(values []any) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = table.ToString(v)
	}
	return out
}

func TestCorrelation(t *testing.T) {
	in := table.New([]string{"x", "y", "z", "label"}, [][]any{
		{1.0, 2.0, 4.0, "a"},
		{2.0, 4.0, 3.0, "b"},
		{3.0, 6.0, 2.0, "c"},
		{4.0, 8.0, 1.0, "d"},
	})
	op := &Correlation{display(KindCorrelation)}

	for _, method := range []string{"pearson", "spearman", "kendall"} {
		t.Run(method, func(t *testing.T) {
			resp := applyOp(t, op, in, map[string]any{"method": method})

			assert.Equal(t, []string{"Column", "x", "y", "z"}, resp.Table.Columns())
			assert.Equal(t, []any{"x", 1.0, 1.0, -1.0}, resp.Table.Row(0))
			assert.Equal(t, []any{"z", -1.0, -1.0, 1.0}, resp.Table.Row(2))
		})
	}

	err := applyErr(op, in, map[string]any{"method": "cosine"})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	resp := applyOp(t, op, in, map[string]any{"columns": []any{"x", "label"}})
	assert.Same(t, in, resp.Table)
	assert.True(t, hasLog(resp, "at least two numeric columns"))
}

func TestDataTypes(t *testing.T) {
	in := table.New([]string{"i", "f", "n", "s", "b", "d"}, [][]any{
		{1.0, 1.5, 1.0, "a", true, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{2.0, 2.0, nil, "b", false, nil},
	})

	resp := applyOp(t, &DataTypes{display(KindDataTypes)}, in, nil)

	assert.Equal(t, []any{"int64", "float64", "float64", "object", "bool", "datetime64[ns]"}, resp.Table.Column("Type"))
}

func TestShape(t *testing.T) {
	resp := applyOp(t, &Shape{display(KindShape)}, people(), nil)

	assert.Equal(t, []any{5.0, 4.0}, resp.Table.Row(0))
}

func TestClustering(t *testing.T) {
	in := table.New([]string{"x", "y"}, [][]any{
		{1.0, 1.0},
		{1.1, 1.0},
		{0.9, 1.1},
		{10.0, 10.0},
		{10.2, 9.9},
		{9.8, 10.1},
		{nil, 5.0},
	})
	op := &Clustering{display(KindClustering)}

	resp := applyOp(t, op, in, map[string]any{"k": 2})

	labels := resp.Table.Column("Cluster")
	require.Len(t, labels, 7)
	assert.Equal(t, labels[0], labels[1])
	assert.Equal(t, labels[0], labels[2])
	assert.Equal(t, labels[3], labels[4])
	assert.Equal(t, labels[3], labels[5])
	assert.NotEqual(t, labels[0], labels[3])
	assert.Nil(t, labels[6])

	// Повторный запуск даёт ту же разметку
	again := applyOp(t, op, in, map[string]any{"k": 2})
	assert.Equal(t, labels, again.Table.Column("Cluster"))

	resp = applyOp(t, op, in, map[string]any{"k": 10})
	assert.Same(t, in, resp.Table)
	assert.True(t, hasLog(resp, "Not enough rows (6) for 10 clusters"))
}

func TestForecast(t *testing.T) {
	in := table.New([]string{"Date", "Sales"}, [][]any{
		{"2024-01-01", 1.0},
		{"2024-01-02", 2.0},
		{"2024-01-03", 3.0},
		{"2024-01-04", 4.0},
		{"2024-01-05", 5.0},
	})
	op := &Forecast{display(KindForecast)}

	resp := applyOp(t, op, in, map[string]any{"dateColumn": "Date", "valueColumn": "Sales", "periods": 2})

	require.Equal(t, 7, resp.Table.NumRows())
	assert.Equal(t, []string{"Date", "Sales", "Type"}, resp.Table.Columns())
	assert.Equal(t, "Actual", resp.Table.Value(4, "Type"))
	assert.Equal(t, []any{time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC), 6.0, "Forecast"}, resp.Table.Row(5))
	assert.Equal(t, 7.0, resp.Table.Value(6, "Sales"))

	one := table.New([]string{"Date"}, [][]any{{"2024-01-01"}})
	resp = applyOp(t, op, one, map[string]any{"dateColumn": "Date"})
	assert.True(t, hasLog(resp, "Not enough dated points"))
}

func TestTrendAnalysis(t *testing.T) {
	in := table.New([]string{"Date", "v"}, [][]any{
		{"2024-01-05", 1.0},
		{"2024-01-20", 2.0},
		{"2024-03-02", 5.0},
		{nil, 9.0},
	})
	op := &TrendAnalysis{transform(KindTrendAnalysis)}

	resp := applyOp(t, op, in, map[string]any{"dateColumn": "Date", "period": "M"})
	assert.Equal(t, []string{"Date", "Count"}, resp.Table.Columns())
	assert.Equal(t, []any{2.0, 0.0, 1.0}, resp.Table.Column("Count"))
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), resp.Table.Value(1, "Date"))

	resp = applyOp(t, op, in, map[string]any{"dateColumn": "Date", "period": "QE", "agg": "sum", "valueColumn": "v"})
	assert.Equal(t, []any{8.0}, resp.Table.Column("v"))

	err := applyErr(op, in, map[string]any{"dateColumn": "Date", "period": "H"})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	err = applyErr(op, in, map[string]any{"dateColumn": "Date", "agg": "mean"})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestTruncate(t *testing.T) {
	// 2024-05-16 — четверг
	at := time.Date(2024, 5, 16, 13, 30, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2024, 5, 13, 0, 0, 0, 0, time.UTC), truncate(at, "W"))
	assert.Equal(t, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), truncate(at, "Q"))
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), truncate(at, "Y"))
	assert.Equal(t, time.Date(2024, 5, 16, 0, 0, 0, 0, time.UTC), truncate(at, "D"))
}

func TestOutliers(t *testing.T) {
	rows := make([][]any, 0, 11)
	for i := 0; i < 9; i++ {
		rows = append(rows, []any{10.0})
	}
	rows = append(rows, []any{100.0}, []any{nil})
	in := table.New([]string{"v"}, rows)

	resp := applyOp(t, &Outliers{transform(KindOutliers)}, in, map[string]any{"column": "v", "threshold": 2})

	flags := resp.Table.Column("Outlier")
	assert.Equal(t, true, flags[9])
	assert.Equal(t, false, flags[0])
	assert.Equal(t, false, flags[10])
	assert.Nil(t, resp.Table.Value(10, "v_zscore"))
	assert.True(t, hasLog(resp, "Found 1 outliers"))
}
