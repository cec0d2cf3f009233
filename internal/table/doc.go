// Package table содержит Table — универсальный формат данных между узлами.
//
// Table — упорядоченный набор именованных колонок и строк. Ячейка может быть:
//   - nil       — пропущенное значение (null)
//   - float64   — любое число
//   - string    — текст
//   - bool      — логическое значение
//   - time.Time — дата/время
//
// Таблица неизменяема после создания: все операции (Filter, Select,
// WithColumn, Rename, ...) возвращают новую таблицу. Строки могут
// разделяться между таблицами, поэтому менять срез, полученный из Row,
// нельзя — для изменений используйте Clone.
//
// Файлы пакета:
//   - table.go — Table и базовые операции
//   - value.go — приведение типов, сравнение, проверка null
//   - stats.go — описательная статистика (count, mean, std, квантили)
package table
