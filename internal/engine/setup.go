package engine

import (
	"fmt"
	"log/slog"

	"github.com/shaiso/dataflow/internal/config"
	"github.com/shaiso/dataflow/internal/ops"
	"github.com/shaiso/dataflow/internal/source"
	"github.com/shaiso/dataflow/internal/wordcloud"
)

// FromConfig собирает Engine со стандартным реестром операций:
// загрузчик источников, рендер облака слов и лимит preview из cfg.
// metrics может быть nil.
func FromConfig(cfg config.Config, logger *slog.Logger, metrics Recorder) (*Engine, error) {
	loader, err := source.NewLoader(source.Config{
		UploadDir: cfg.UploadDir,
		S3:        cfg.S3,
		Logger:    logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create loader: %w", err)
	}

	deps := ops.Deps{Loader: loader}
	if cfg.WordCloud.Enabled {
		r, err := wordcloud.New(cfg.WordCloud.Font)
		if err != nil {
			return nil, fmt.Errorf("create word cloud renderer: %w", err)
		}
		deps.WordCloud = r
	}

	opts := []Option{WithLogger(logger), WithPreviewRows(cfg.PreviewRows)}
	if metrics != nil {
		opts = append(opts, WithMetrics(metrics))
	}
	return New(ops.DefaultRegistry(deps), opts...), nil
}
