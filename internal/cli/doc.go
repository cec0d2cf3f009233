// Package cli реализует инструмент командной строки dataflow.
//
// # Обзор
//
// CLI выполняет графы пайплайнов из JSON или YAML файлов. По умолчанию
// граф выполняется в процессе; с --api-url запрос уходит на сервер
// (POST /api/v1/execute).
//
// # Ключевые компоненты
//
// ## Runner
//
// LocalRunner оборачивает движок, Client выполняет граф через API.
// Команда run получает Runner через фабрику, вызываемую после разбора
// флагов.
//
// ## Output
//
// Форматирование вывода. Поддерживает два режима:
//   - Таблицы (text/tabwriter) — по умолчанию
//   - JSON — с флагом --json
//
// Данные выводятся в stdout, сообщения — в stderr:
// dataflow run graph.yaml --json | jq .final_output
//
// ## Commands
//
//   - run GRAPH_FILE [--node ID] [--upload-dir DIR]
//   - ops
package cli
