package source

import (
	"path"
	"strings"
	"time"

	"github.com/shaiso/dataflow/internal/table"
)

// Kind — тип источника.
type Kind string

const (
	// KindFile — файл: локальный путь, каталог загрузок или s3://bucket/key.
	KindFile Kind = "file"

	// KindSQL — результат SQL-запроса к PostgreSQL.
	KindSQL Kind = "sql"

	// KindKafka — сообщения из топика Kafka.
	KindKafka Kind = "kafka"
)

// Format — формат файла.
type Format string

const (
	FormatCSV   Format = "csv"
	FormatTSV   Format = "tsv"
	FormatJSON  Format = "json"
	FormatJSONL Format = "jsonl"
	FormatXLSX  Format = "xlsx"
)

// Spec описывает, откуда загрузить таблицу.
type Spec struct {
	Kind Kind

	// Path — путь к файлу или s3://bucket/key.
	Path string

	// Name — имя файла, под которым его загрузил пользователь.
	Name string

	// Sheet — лист книги Excel (имя или номер). Пусто — первый лист.
	Sheet string

	// Format — формат файла. Пусто — по расширению.
	Format Format

	// DSN и Query — для KindSQL.
	DSN   string
	Query string

	// Brokers, Topic, MaxRecords — для KindKafka.
	Brokers    []string
	Topic      string
	MaxRecords int

	// Timeout — ограничение времени загрузки (0 — DefaultTimeout).
	Timeout time.Duration
}

// DefaultTimeout — время загрузки по умолчанию.
const DefaultTimeout = 30 * time.Second

// IsZero возвращает true, если источник не задан.
func (s Spec) IsZero() bool {
	switch s.Kind {
	case KindSQL:
		return s.DSN == "" || s.Query == ""
	case KindKafka:
		return len(s.Brokers) == 0 || s.Topic == ""
	default:
		return s.Path == ""
	}
}

// Describe возвращает короткое описание источника для журнала.
func (s Spec) Describe() string {
	switch s.Kind {
	case KindSQL:
		return "sql query"
	case KindKafka:
		return "kafka topic " + s.Topic
	}
	if s.Name != "" {
		return s.Name
	}
	return path.Base(s.Path)
}

// Result — загруженная таблица.
type Result struct {
	Table *table.Table

	// Origin — откуда фактически прочитаны данные (путь после подстановки каталога загрузок).
	Origin string

	// Bytes — объём прочитанных данных (0, если неизвестен).
	Bytes int64
}

// DetectFormat определяет формат по имени файла. Суффикс .gz отбрасывается.
func DetectFormat(name string) (format Format, gzipped bool) {
	lower := strings.ToLower(name)
	if strings.HasSuffix(lower, ".gz") {
		gzipped = true
		lower = strings.TrimSuffix(lower, ".gz")
	}
	switch path.Ext(lower) {
	case ".csv", ".txt":
		return FormatCSV, gzipped
	case ".tsv", ".tab":
		return FormatTSV, gzipped
	case ".json":
		return FormatJSON, gzipped
	case ".jsonl", ".ndjson":
		return FormatJSONL, gzipped
	case ".xlsx", ".xlsm", ".xls":
		return FormatXLSX, gzipped
	}
	return "", gzipped
}
