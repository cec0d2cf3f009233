// Package source загружает таблицы из внешних источников.
//
// Поддерживаемые источники:
//   - локальный файл (CSV, TSV, JSON, JSONL, XLSX, любой из них в .gz);
//     если файл не найден по пути, он ищется по имени в каталоге загрузок
//   - объект S3-совместимого хранилища (s3://bucket/key, minio-go)
//   - результат SQL-запроса к PostgreSQL (pgx)
//   - сообщения топика Kafka (franz-go)
//
// Формат определяется по расширению, если не задан явно.
//
// Файлы пакета:
//   - spec.go   — Spec, Result, определение формата
//   - loader.go — Loader: файлы и объектное хранилище
//   - parse.go  — разбор CSV/TSV/JSON/JSONL/XLSX
//   - sql.go    — PostgreSQL
//   - kafka.go  — Kafka
package source
