// Package ops содержит операции над таблицами, из которых строится пайплайн.
//
// # Обзор
//
// Каждый тип узла графа (filter_rows, group_by, bar_chart, ...) — реализация
// интерфейса Operation:
//
//	type Operation interface {
//	    Kind() string
//	    Category() Category
//	    Apply(ctx context.Context, req *Request) (*Response, error)
//	}
//
// Request содержит:
//   - NodeID, Label — идентификатор и тип узла
//   - Config — сырые настройки узла (map[string]any)
//   - Input — таблица первого предшественника
//   - Predecessors, Tables — для операций с несколькими входами (merge, concat)
//   - Source — узел-источник, от которого ingest наследует настройки
//
// Response содержит выходную таблицу, необязательный артефакт (PNG облака
// слов) и сообщения для журнала run.
//
// # Категории
//
//   - source — настройка источника (SQL, Kafka, загруженный файл), таблицы нет
//   - ingest — загрузка данных, входная таблица не нужна
//   - transform — преобразование входной таблицы
//   - display — преобразование, результат которого показывается в UI
//
// Операции transform и display без входной таблицы движок пропускает.
//
// # Настройки
//
// Настройки раскладываются в структуры через mapstructure (decodeConfig):
// типы приводятся мягко, пустые строки из форм UI считаются отсутствующими.
// Значения по умолчанию задаются до декодирования.
//
// Отсутствующая колонка в необязательной цели — запись в журнале,
// в обязательной — ErrMissingColumn, и движок помечает узел failed.
//
// # Registry
//
//	registry := ops.DefaultRegistry(ops.Deps{Loader: loader})
//	op, err := registry.Get("Filter Rows")  // → filter_rows
package ops
