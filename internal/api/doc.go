// Package api содержит HTTP API движка пайплайнов.
//
// Структура:
//   - handler.go   — Handler и его зависимости (движок, реестр, publisher)
//   - routes.go    — регистрация маршрутов
//   - middleware.go — recovery, logging, CORS
//   - response.go  — JSON-ответы и ошибки
//   - dto.go       — тела запросов и ответов
//   - execute.go   — синхронное выполнение и постановка run в очередь
//   - operations.go — список операций для палитры UI
//
// Маршруты:
//
//	POST /api/v1/execute     — выполнить граф, ответ RunResult
//	POST /api/v1/runs        — поставить граф в очередь, 202 {run_id}
//	GET  /api/v1/operations  — зарегистрированные операции
//	GET  /healthz, /metrics
//
// Пустой граф — не ошибка запроса: ответ 200 с status=error в RunResult.
package api
