package ops

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/shaiso/dataflow/internal/table"
)

// Category — роль операции в графе.
type Category string

const (
	// CategorySource — узел-настройка источника (SQL, Kafka, загруженный файл).
	// Таблицу не производит и никогда не пропускается.
	CategorySource Category = "source"

	// CategoryIngest — загрузка данных. Не требует входной таблицы.
	CategoryIngest Category = "ingest"

	// CategoryTransform — преобразование входной таблицы.
	CategoryTransform Category = "transform"

	// CategoryDisplay — преобразование, результат которого показывается в UI
	// (в сводку попадает preview строк).
	CategoryDisplay Category = "display"
)

// NeedsInput возвращает true, если операция пропускается без входной таблицы.
func (c Category) NeedsInput() bool {
	return c == CategoryTransform || c == CategoryDisplay
}

// Operation — интерфейс операции над таблицей.
//
// Каждый тип узла (filter_rows, group_by, bar_chart, ...) реализует этот
// интерфейс. Apply не должен изменять req.Input — только строить новую таблицу.
type Operation interface {
	// Kind возвращает канонический тип операции.
	Kind() string

	// Category возвращает категорию операции.
	Category() Category

	// Apply выполняет операцию.
	Apply(ctx context.Context, req *Request) (*Response, error)
}

// TableReader — доступ на чтение к таблицам других узлов текущего run.
type TableReader interface {
	Table(nodeID string) (*table.Table, bool)
}

// Request — входные данные для выполнения операции.
type Request struct {
	// NodeID — идентификатор узла.
	NodeID string

	// Label — тип узла в том виде, в каком его прислал клиент ("Google Drive").
	Label string

	// Config — сырые настройки узла.
	Config map[string]any

	// Input — таблица первого предшественника (nil, если её нет).
	Input *table.Table

	// Predecessors — ID всех предшественников в порядке объявления рёбер.
	Predecessors []string

	// Source — первый предшественник, если это узел-источник
	// (настройки загруженного файла, SQL, Kafka).
	Source *SourceRef

	// Tables — таблицы уже выполненных узлов (для merge, concat).
	Tables TableReader
}

// SourceRef — узел-источник, от которого загрузка наследует настройки.
type SourceRef struct {
	NodeID string
	Kind   string
	Label  string
	Config map[string]any
}

// Response — результат выполнения операции.
type Response struct {
	// Table — выходная таблица (nil — "нет таблицы").
	Table *table.Table

	// Artifact — побочный результат (например, PNG облака слов).
	Artifact *Artifact

	// Logs — сообщения для журнала run (без префикса "[Step id]").
	Logs []string
}

// Logf добавляет сообщение в журнал ответа.
func (r *Response) Logf(format string, args ...any) *Response {
	r.Logs = append(r.Logs, fmt.Sprintf(format, args...))
	return r
}

// NewResponse создаёт Response с таблицей.
func NewResponse(t *table.Table) *Response {
	return &Response{Table: t}
}

// Artifact — нетабличный результат узла.
type Artifact struct {
	ContentType string
	Data        []byte
}

// DataURL кодирует артефакт в data URL для отправки в браузер.
func (a *Artifact) DataURL() string {
	if a == nil {
		return ""
	}
	return "data:" + a.ContentType + ";base64," + base64.StdEncoding.EncodeToString(a.Data)
}

// base — общая часть всех операций.
type base struct {
	kind     string
	category Category
}

// Kind возвращает тип операции.
func (b base) Kind() string { return b.kind }

// Category возвращает категорию операции.
func (b base) Category() Category { return b.category }
