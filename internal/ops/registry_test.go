package ops

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	// Пустой реестр
	assert.Equal(t, 0, r.Count())

	r.Register(&Copy{transform(KindCopy)}, "Copy Data")
	assert.Equal(t, 1, r.Count())

	op, err := r.Get("copy")
	require.NoError(t, err)
	assert.Equal(t, KindCopy, op.Kind())

	// Метка UI и её варианты написания
	for _, label := range []string{"Copy Data", "copy data", "copy-data", " Copy Data "} {
		op, err := r.Get(label)
		require.NoError(t, err, label)
		assert.Equal(t, KindCopy, op.Kind())
	}

	_, err = r.Get("unknown")
	assert.ErrorIs(t, err, ErrUnknownOperation)
	assert.False(t, r.Has("unknown"))
	assert.Equal(t, []string{"copy_data"}, r.Aliases(KindCopy))
}

func TestDefaultRegistry_Aliases(t *testing.T) {
	r := DefaultRegistry(Deps{})

	cases := map[string]string{
		"filter":             KindFilterRows,
		"Filter Rows":        KindFilterRows,
		"Read Data":          KindIngest,
		"Upload File":        KindUploadFile,
		"SQL Database":       KindSQLSource,
		"Stream / Kafka":     KindKafkaSource,
		"Google Drive":       KindObjectSource,
		"MongoDB":            KindObjectSource,
		"Pie/Donut Chart":    KindPieChart,
		"Change Data Type":   KindChangeType,
		"List Columns":       KindSelectColumns,
		"Select Columns":     KindSelectColumns,
		"Drop N/A":           KindDropNA,
		"Drop Null":          KindDropNA,
		"Time Forecast":      KindForecast,
		"Sort Data":          KindSort,
		"Group By":           KindGroupBy,
		"Histogram":          KindHistogram,
		"KPI Card":           KindKPICard,
		"Sentiment Analysis": KindSentiment,
		"Get Shape":          KindShape,
		"N-Grams":            KindNGrams,
		"Merge/Join":         KindMerge,
		"Trend Analysis":     KindTrendAnalysis,
	}
	for label, kind := range cases {
		op, err := r.Get(label)
		if assert.NoError(t, err, label) {
			assert.Equal(t, kind, op.Kind(), label)
		}
	}
}

func TestDefaultRegistry_Categories(t *testing.T) {
	r := DefaultRegistry(Deps{})

	displayKinds := []string{
		KindPreview, KindDescribeStats, KindDataTypes, KindCorrelation,
		KindBarChart, KindLineChart, KindPieChart, KindAreaChart, KindHistogram,
		KindScatterPlot, KindHeatmap, KindSentiment, KindForecast, KindClustering,
		KindKPICard, KindPivotTable, KindRank, KindValueCounts, KindShape,
		KindNGrams, KindWordCount, KindWordCloud,
	}
	for _, kind := range displayKinds {
		op, err := r.Get(kind)
		require.NoError(t, err, kind)
		assert.Equal(t, CategoryDisplay, op.Category(), kind)
	}

	for _, kind := range []string{KindUploadFile, KindSQLSource, KindKafkaSource, KindObjectSource} {
		op, err := r.Get(kind)
		require.NoError(t, err)
		assert.Equal(t, CategorySource, op.Category(), kind)
		assert.False(t, op.Category().NeedsInput())
	}

	op, err := r.Get(KindIngest)
	require.NoError(t, err)
	assert.Equal(t, CategoryIngest, op.Category())
	assert.False(t, op.Category().NeedsInput())

	op, err = r.Get(KindFilterRows)
	require.NoError(t, err)
	assert.True(t, op.Category().NeedsInput())
}

func TestDecodeConfig(t *testing.T) {
	var cfg struct {
		N       int      `json:"n"`
		Mode    string   `json:"mode"`
		Columns []string `json:"columns"`
		Flag    bool     `json:"flag"`
	}
	cfg.Mode = "head"

	err := decodeConfig(map[string]any{
		"n":       "5",
		"mode":    "",
		"columns": "a, b ,c",
		"flag":    1,
	}, &cfg)
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.N)
	// Пустая строка из формы не затирает значение по умолчанию
	assert.Equal(t, "head", cfg.Mode)
	assert.Equal(t, []string{"a", "b", "c"}, cfg.Columns)
	assert.True(t, cfg.Flag)

	err = decodeConfig(map[string]any{"n": map[string]any{"x": 1}}, &cfg)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLiteral(t *testing.T) {
	assert.Equal(t, 10.0, literal("10"))
	assert.Equal(t, 2.5, literal(" 2.5 "))
	assert.Equal(t, "Paris", literal("Paris"))
	assert.Equal(t, 3.0, literal(3))
	assert.Nil(t, literal(nil))
}
