package ops

import (
	"context"
	"slices"
	"strings"

	"github.com/grafana/regexp"

	"github.com/shaiso/dataflow/internal/table"
	"github.com/shaiso/dataflow/internal/wordcloud"
)

const (
	KindWordCount = "word_count"
	KindNGrams    = "ngrams"
	KindWordCloud = "word_cloud"
	KindSentiment = "sentiment"
)

// tokenPattern — слово из двух и более букв или цифр.
var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_']{2,}`)

// tokenize разбивает текст на слова в нижнем регистре.
func tokenize(text string) []string {
	tokens := tokenPattern.FindAllString(strings.ToLower(text), -1)
	for i, t := range tokens {
		tokens[i] = strings.Trim(t, "'")
	}
	return slices.DeleteFunc(tokens, func(t string) bool { return len(t) < 2 })
}

// contentWords возвращает слова без стоп-слов.
func contentWords(text string) []string {
	return slices.DeleteFunc(tokenize(text), func(t string) bool {
		_, stop := stopWords[t]
		return stop
	})
}

// WordCount добавляет колонку Word_Count с числом слов в тексте.
type WordCount struct{ base }

func (o *WordCount) Apply(_ context.Context, req *Request) (*Response, error) {
	var cfg columnConfig
	if err := decodeConfig(req.Config, &cfg); err != nil {
		return nil, err
	}
	in := req.Input
	if err := requireColumn(in, cfg.Column); err != nil {
		return nil, err
	}
	if len(nonNullStrings(in, cfg.Column)) == 0 {
		return passThrough(req, "Column '%s' has no text; word count not computed", cfg.Column)
	}
	counts := make([]any, in.NumRows())
	for i, v := range in.Column(cfg.Column) {
		if table.IsNull(v) {
			counts[i] = 0.0
			continue
		}
		counts[i] = float64(len(strings.Fields(table.ToString(v))))
	}
	return NewResponse(in.WithColumn("Word_Count", counts)), nil
}

type ngramsConfig struct {
	Column string `json:"column"`
	N      int    `json:"n"`
	Top    int    `json:"top"`
}

// NGrams считает самые частые n-граммы в текстовой колонке.
type NGrams struct{ base }

func (o *NGrams) Apply(_ context.Context, req *Request) (*Response, error) {
	cfg := ngramsConfig{N: 2, Top: 50}
	if err := decodeConfig(req.Config, &cfg); err != nil {
		return nil, err
	}
	in := req.Input
	if err := requireColumn(in, cfg.Column); err != nil {
		return nil, err
	}
	if cfg.N < 1 {
		cfg.N = 1
	}
	texts := nonNullStrings(in, cfg.Column)
	if len(texts) == 0 {
		return passThrough(req, "Column '%s' has no text; n-grams not computed", cfg.Column)
	}

	counts := make(map[string]int)
	var order []string
	for _, text := range texts {
		words := contentWords(text)
		for i := 0; i+cfg.N <= len(words); i++ {
			gram := strings.Join(words[i:i+cfg.N], " ")
			if counts[gram] == 0 {
				order = append(order, gram)
			}
			counts[gram]++
		}
	}
	if len(order) == 0 {
		return passThrough(req, "Not enough words in '%s' for %d-grams", cfg.Column, cfg.N)
	}

	slices.SortStableFunc(order, func(a, b string) int { return counts[b] - counts[a] })
	if len(order) > cfg.Top {
		order = order[:cfg.Top]
	}
	rows := make([][]any, len(order))
	for i, g := range order {
		rows[i] = []any{g, float64(counts[g])}
	}
	return NewResponse(table.New([]string{"N-Gram", "Frequency"}, rows)), nil
}

// CloudRenderer рисует облако слов.
type CloudRenderer interface {
	Render(words []wordcloud.Word, opts wordcloud.Options) ([]byte, error)
}

type wordCloudConfig struct {
	Column   string `json:"column"`
	MaxWords int    `json:"maxWords"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

// WordCloud рисует облако слов в PNG.
//
// Таблица результата — одна строка со статусом; картинка уходит
// в сводку узла как артефакт. Без рендерера узел всегда даёт Result=Skipped.
type WordCloud struct {
	base
	renderer CloudRenderer
}

func skippedCloud() *table.Table {
	return table.New([]string{"Result"}, [][]any{{"Skipped"}})
}

func (o *WordCloud) Apply(_ context.Context, req *Request) (*Response, error) {
	cfg := wordCloudConfig{MaxWords: 100, Width: 800, Height: 400}
	if err := decodeConfig(req.Config, &cfg); err != nil {
		return nil, err
	}
	resp := NewResponse(skippedCloud())
	if o.renderer == nil {
		return resp.Logf("Word cloud rendering is not available"), nil
	}
	in := req.Input
	if cfg.Column == "" || !in.Has(cfg.Column) {
		return resp.Logf("Text column '%s' not found; word cloud skipped", cfg.Column), nil
	}

	counts := make(map[string]int)
	for _, text := range nonNullStrings(in, cfg.Column) {
		for _, w := range contentWords(text) {
			counts[w]++
		}
	}
	if len(counts) == 0 {
		return resp.Logf("Column '%s' has no words; word cloud skipped", cfg.Column), nil
	}
	words := make([]wordcloud.Word, 0, len(counts))
	for w, n := range counts {
		words = append(words, wordcloud.Word{Text: w, Count: n})
	}

	png, err := o.renderer.Render(words, wordcloud.Options{
		Width:    cfg.Width,
		Height:   cfg.Height,
		MaxWords: cfg.MaxWords,
	})
	if err != nil {
		return resp.Logf("Word cloud rendering failed: %v", err), nil
	}

	shown := min(len(words), cfg.MaxWords)
	return &Response{
		Table:    table.New([]string{"Status", "Words"}, [][]any{{"Generated", float64(shown)}}),
		Artifact: &Artifact{ContentType: "image/png", Data: png},
	}, nil
}

// Sentiment оценивает тональность текста по словарю.
//
// Polarity — от -1 до 1; Sentiment — Positive, Negative или Neutral.
type Sentiment struct{ base }

func (o *Sentiment) Apply(_ context.Context, req *Request) (*Response, error) {
	var cfg columnConfig
	if err := decodeConfig(req.Config, &cfg); err != nil {
		return nil, err
	}
	in := req.Input
	if err := requireColumn(in, cfg.Column); err != nil {
		return nil, err
	}
	if len(nonNullStrings(in, cfg.Column)) == 0 {
		return passThrough(req, "Column '%s' has no text; sentiment not computed", cfg.Column)
	}

	polarity := make([]any, in.NumRows())
	label := make([]any, in.NumRows())
	for i, v := range in.Column(cfg.Column) {
		if table.IsNull(v) {
			continue
		}
		p := polarityOf(table.ToString(v))
		polarity[i] = round(p, 3)
		switch {
		case p > 0:
			label[i] = "Positive"
		case p < 0:
			label[i] = "Negative"
		default:
			label[i] = "Neutral"
		}
	}
	out := in.WithColumn("Polarity", polarity).WithColumn("Sentiment", label)
	return NewResponse(out), nil
}

// polarityOf — среднее оценок слов из словаря.
// Отрицание перед словом меняет знак и ослабляет оценку вдвое,
// усилитель умножает оценку.
func polarityOf(text string) float64 {
	var (
		sum    float64
		n      int
		negate bool
		boost  = 1.0
	)
	for _, w := range tokenize(text) {
		if _, ok := negations[w]; ok {
			negate = true
			continue
		}
		if k, ok := intensifiers[w]; ok {
			boost = k
			continue
		}
		score, ok := lexicon[w]
		if !ok {
			continue
		}
		score *= boost
		if negate {
			score *= -0.5
		}
		sum += score
		n++
		negate, boost = false, 1.0
	}
	if n == 0 {
		return 0
	}
	return max(-1, min(1, sum/float64(n)))
}
