package ops

// Deps — внешние зависимости стандартных операций.
type Deps struct {
	// Loader загружает таблицы для ingest. nil — загрузка недоступна,
	// узлы Read Data дают пустую таблицу.
	Loader Loader

	// WordCloud рисует облако слов. nil — word_cloud всегда Result=Skipped.
	WordCloud CloudRenderer
}

func transform(kind string) base { return base{kind: kind, category: CategoryTransform} }
func display(kind string) base   { return base{kind: kind, category: CategoryDisplay} }

// DefaultRegistry создаёт реестр со всеми стандартными операциями
// и метками UI в качестве псевдонимов.
func DefaultRegistry(deps Deps) *Registry {
	r := NewRegistry()

	// Источники и загрузка
	r.Register(NewSourceOp(KindUploadFile), "Upload File", "sourceFile")
	r.Register(NewSourceOp(KindSQLSource), "SQL Database", "sourceDB")
	r.Register(NewSourceOp(KindKafkaSource), "Stream / Kafka", "sourceStream", "kafka")
	r.Register(NewSourceOp(KindObjectSource),
		"Google Drive", "googleDrive", "OneDrive", "sourceOneDrive", "MongoDB", "sourceMongo", "S3", "Object Storage")
	r.Register(NewIngestOp(deps.Loader), "Read Data", "readData", "read")

	// Очистка
	r.Register(&DropDuplicates{transform(KindDropDuplicates)}, "Drop Duplicates")
	r.Register(&FillNA{transform(KindFillNA)}, "Fill N/A", "fillna")
	r.Register(&DropNA{transform(KindDropNA)}, "Drop Null", "Drop N/A", "dropna")
	r.Register(&ReplaceValue{transform(KindReplaceValue)}, "Replace Value", "replace")
	r.Register(&RenameColumns{transform(KindRenameColumns)}, "Rename Columns", "rename")
	r.Register(&ChangeType{transform(KindChangeType)}, "Change Type", "Change Data Type", "cast")
	r.Register(&Copy{transform(KindCopy)}, "Copy Data")

	// Фильтрация и выборка
	r.Register(&FilterRows{transform(KindFilterRows)}, "Filter Rows", "filter")
	r.Register(&FilterDate{transform(KindFilterDate)}, "Filter Date", "Date filter")
	r.Register(&SelectColumns{transform(KindSelectColumns)}, "Select Columns", "List Columns", "select_cols")
	r.Register(&ValueCounts{display(KindValueCounts)}, "Value Counts")
	r.Register(&Preview{display(KindPreview)}, "Preview Data", "head")
	r.Register(&Preview{display(KindSample)}, "Sample Data")

	// Группировка и соединение
	r.Register(&GroupBy{transform(KindGroupBy)}, "Group By", "groupby")
	r.Register(&PivotTable{display(KindPivotTable)}, "Pivot Table", "pivot")
	r.Register(&Merge{transform(KindMerge)}, "Merge/Join", "Merge", "join")
	r.Register(&Concat{transform(KindConcat)}, "Concatenate")

	// Преобразования и сортировка
	r.Register(&CalculatedField{transform(KindCalculatedField)}, "Calculated Field", "calc_field")
	r.Register(&StandardScaler{transform(KindStandardScaler)}, "Standard Scaler", "scaler")
	r.Register(&OneHot{transform(KindOneHot)}, "One-Hot Encoding", "onehot")
	r.Register(&Sort{transform(KindSort)}, "Sort Data")
	r.Register(&Rank{display(KindRank)}, "Rank")

	// Текст
	r.Register(&WordCount{display(KindWordCount)}, "Word Count")
	r.Register(&NGrams{display(KindNGrams)}, "N-Grams", "ngram")
	r.Register(&WordCloud{base: display(KindWordCloud), renderer: deps.WordCloud}, "Word Cloud")
	r.Register(&Sentiment{display(KindSentiment)}, "Sentiment Analysis")

	// Статистика
	r.Register(&Clustering{display(KindClustering)}, "K-Means Clustering")
	r.Register(&Forecast{display(KindForecast)}, "Time Forecast")
	r.Register(&TrendAnalysis{transform(KindTrendAnalysis)}, "Trend Analysis")
	r.Register(&Outliers{transform(KindOutliers)}, "Outlier Detection", "Detect Outliers")
	r.Register(&DescribeStats{display(KindDescribeStats)}, "Describe Stats", "describe")
	r.Register(&Correlation{display(KindCorrelation)}, "Correlation Matrix")
	r.Register(&DataTypes{display(KindDataTypes)}, "Get Data Types", "dtypes")
	r.Register(&Shape{display(KindShape)}, "Get Shape")

	// Графики
	r.Register(&Chart{display(KindBarChart)}, "Bar Chart", "chart_bar")
	r.Register(&Chart{display(KindLineChart)}, "Line Chart", "chart_line")
	r.Register(&Chart{display(KindPieChart)}, "Pie/Donut Chart", "Pie Chart", "chart_pie")
	r.Register(&Chart{display(KindAreaChart)}, "Area Chart", "chart_area")
	r.Register(&Chart{display(KindHistogram)}, "chart_histogram")
	r.Register(&ScatterPlot{display(KindScatterPlot)}, "Scatter Plot", "chart_scatter")
	r.Register(&Heatmap{display(KindHeatmap)}, "chart_heatmap")
	r.Register(&KPICard{display(KindKPICard)}, "KPI Card", "kpi")

	return r
}
