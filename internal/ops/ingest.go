package ops

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/shaiso/dataflow/internal/source"
	"github.com/shaiso/dataflow/internal/table"
)

const (
	KindUploadFile   = "upload_file"
	KindSQLSource    = "sql_source"
	KindKafkaSource  = "kafka_source"
	KindObjectSource = "object_source"
	KindIngest       = "ingest"
)

// Loader — загрузчик таблиц из внешних источников.
type Loader interface {
	Load(ctx context.Context, spec source.Spec) (*source.Result, error)
}

// fileRef — ссылка на файл из формы UI.
type fileRef struct {
	Name   string   `json:"name"`
	Path   string   `json:"path"`
	Sheets []string `json:"sheets"`
}

// uploadConfig — настройки узла Upload File.
type uploadConfig struct {
	UploadedFiles []fileRef `json:"uploadedFiles"`
	SheetName     string    `json:"sheetName"`
}

// sqlConfig — настройки узла SQL Database.
type sqlConfig struct {
	DSN        string `json:"dsn"`
	Host       string `json:"host"`
	Port       int    `json:"port"`
	Database   string `json:"database"`
	Username   string `json:"username"`
	Password   string `json:"password"`
	Query      string `json:"query"`
	TimeoutSec int    `json:"timeoutSec"`
}

// kafkaConfig — настройки узла Stream / Kafka.
type kafkaConfig struct {
	Brokers    []string `json:"brokers"`
	Host       string   `json:"host"`
	Port       int      `json:"port"`
	Topic      string   `json:"topic"`
	MaxRecords int      `json:"maxRecords"`
	TimeoutSec int      `json:"timeoutSec"`
}

// objectConfig — настройки узла объектного хранилища.
type objectConfig struct {
	Path      string `json:"path"`
	URL       string `json:"url"`
	Bucket    string `json:"bucket"`
	Key       string `json:"key"`
	SheetName string `json:"sheetName"`
}

// ingestConfig — настройки узла Read Data.
type ingestConfig struct {
	SelectedFile  *fileRef `json:"selectedFile"`
	SelectedSheet string   `json:"selectedSheet"`
	SheetName     string   `json:"sheetName"`
	Path          string   `json:"path"`
	Format        string   `json:"format"`
}

// sourceSpec строит описание источника из настроек узла-источника.
func sourceSpec(kind string, raw map[string]any) (source.Spec, error) {
	switch kind {
	case KindUploadFile:
		var cfg uploadConfig
		if err := decodeConfig(raw, &cfg); err != nil {
			return source.Spec{}, err
		}
		if len(cfg.UploadedFiles) == 0 {
			return source.Spec{Kind: source.KindFile}, nil
		}
		f := cfg.UploadedFiles[0]
		return source.Spec{Kind: source.KindFile, Path: f.Path, Name: f.Name, Sheet: cfg.SheetName}, nil

	case KindSQLSource:
		var cfg sqlConfig
		if err := decodeConfig(raw, &cfg); err != nil {
			return source.Spec{}, err
		}
		dsn := cfg.DSN
		if dsn == "" && cfg.Host != "" {
			dsn = source.PostgresDSN(cfg.Host, cfg.Port, cfg.Database, cfg.Username, cfg.Password)
		}
		return source.Spec{
			Kind:    source.KindSQL,
			DSN:     dsn,
			Query:   cfg.Query,
			Timeout: time.Duration(cfg.TimeoutSec) * time.Second,
		}, nil

	case KindKafkaSource:
		var cfg kafkaConfig
		if err := decodeConfig(raw, &cfg); err != nil {
			return source.Spec{}, err
		}
		brokers := cfg.Brokers
		if len(brokers) == 0 && cfg.Host != "" {
			port := cfg.Port
			if port == 0 {
				port = 9092
			}
			brokers = []string{cfg.Host + ":" + strconv.Itoa(port)}
		}
		return source.Spec{
			Kind:       source.KindKafka,
			Brokers:    brokers,
			Topic:      cfg.Topic,
			MaxRecords: cfg.MaxRecords,
			Timeout:    time.Duration(cfg.TimeoutSec) * time.Second,
		}, nil

	case KindObjectSource:
		var cfg objectConfig
		if err := decodeConfig(raw, &cfg); err != nil {
			return source.Spec{}, err
		}
		path := cfg.Path
		if path == "" {
			path = cfg.URL
		}
		if path == "" && cfg.Bucket != "" && cfg.Key != "" {
			path = "s3://" + cfg.Bucket + "/" + strings.TrimPrefix(cfg.Key, "/")
		}
		if !strings.HasPrefix(path, "s3://") {
			return source.Spec{Kind: source.KindFile}, nil
		}
		return source.Spec{Kind: source.KindFile, Path: path, Sheet: cfg.SheetName}, nil
	}
	return source.Spec{}, fmt.Errorf("%w: %s", ErrUnsupportedSource, kind)
}

// SourceOp — узел-настройка источника данных.
//
// Таблицу не производит: настройки читает следующий за ним узел Read Data.
type SourceOp struct {
	base
}

// NewSourceOp создаёт узел-источник указанного типа.
func NewSourceOp(kind string) *SourceOp {
	return &SourceOp{base{kind: kind, category: CategorySource}}
}

// Apply проверяет настройки источника.
func (o *SourceOp) Apply(_ context.Context, req *Request) (*Response, error) {
	spec, err := sourceSpec(o.kind, req.Config)
	if err != nil {
		return nil, err
	}

	resp := &Response{}
	switch {
	case o.kind == KindObjectSource && spec.IsZero():
		resp.Logf("%s is not supported; only s3:// object paths can be read", req.Label)
	case spec.IsZero():
		resp.Logf("%s configured without a data reference", req.Label)
	default:
		resp.Logf("%s configured (%s)", req.Label, spec.Describe())
	}
	return resp, nil
}

// IngestOp — загрузка таблицы (Read Data).
//
// Источник берётся из собственных настроек (selectedFile, path) или
// наследуется от предшествующего узла-источника. Любая ошибка загрузки
// даёт пустую таблицу и запись в журнале, а не ошибку узла.
type IngestOp struct {
	base
	loader Loader
}

// NewIngestOp создаёт IngestOp.
func NewIngestOp(loader Loader) *IngestOp {
	return &IngestOp{base: base{kind: KindIngest, category: CategoryIngest}, loader: loader}
}

// Apply загружает таблицу.
func (o *IngestOp) Apply(ctx context.Context, req *Request) (*Response, error) {
	var cfg ingestConfig
	if err := decodeConfig(req.Config, &cfg); err != nil {
		return nil, err
	}

	spec := source.Spec{Kind: source.KindFile, Path: cfg.Path, Format: source.Format(strings.ToLower(cfg.Format))}
	if cfg.SelectedFile != nil && cfg.SelectedFile.Path != "" {
		spec.Path = cfg.SelectedFile.Path
		spec.Name = cfg.SelectedFile.Name
	}
	spec.Sheet = cfg.SelectedSheet
	if spec.Sheet == "" {
		spec.Sheet = cfg.SheetName
	}

	resp := &Response{Table: table.Empty()}
	if spec.IsZero() && req.Source != nil {
		inherited, err := sourceSpec(req.Source.Kind, req.Source.Config)
		if err != nil {
			resp.Logf("Could not use %s settings: %v; produced an empty table", req.Source.Kind, err)
			return resp, nil
		}
		spec = inherited
	}

	if spec.IsZero() {
		resp.Logf("No data source configured; produced an empty table")
		return resp, nil
	}
	if o.loader == nil {
		resp.Logf("Data loading is not available; produced an empty table")
		return resp, nil
	}

	res, err := o.loader.Load(ctx, spec)
	if err != nil {
		resp.Logf("Could not load %s: %v", spec.Describe(), err)
		return resp, nil
	}

	resp.Table = res.Table
	if res.Bytes > 0 {
		resp.Logf("Loaded %d rows from %s (%s)", res.Table.NumRows(), spec.Describe(), humanize.Bytes(uint64(res.Bytes)))
	} else {
		resp.Logf("Loaded %d rows from %s", res.Table.NumRows(), spec.Describe())
	}
	return resp, nil
}
