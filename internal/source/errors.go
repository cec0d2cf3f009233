package source

import "errors"

// Ошибки загрузки.
var (
	// ErrNotFound — файл не найден ни по пути, ни в каталоге загрузок.
	ErrNotFound = errors.New("source not found")

	// ErrUnsupportedFormat — формат файла не поддерживается.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrNoObjectStore — путь s3://, но объектное хранилище не настроено.
	ErrNoObjectStore = errors.New("object store is not configured")

	// ErrSheetNotFound — в книге нет запрошенного листа.
	ErrSheetNotFound = errors.New("sheet not found")

	// ErrEmptySpec — источник не задан.
	ErrEmptySpec = errors.New("source is not specified")
)
