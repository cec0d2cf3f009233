// Package config загружает настройки сервисов dataflow.
//
// Порядок применения:
//  1. значения по умолчанию (Default)
//  2. YAML файл (путь из --config или DATAFLOW_CONFIG)
//  3. переменные окружения
//
// Переменные окружения: API_PORT, WORKER_PORT, AMQP_URL, UPLOAD_DIR,
// S3_ENDPOINT, S3_ACCESS_KEY, S3_SECRET_KEY, S3_USE_SSL,
// WORDCLOUD_ENABLED, WORDCLOUD_FONT, PREVIEW_ROWS.
package config
