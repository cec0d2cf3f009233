package ops

import "errors"

// Ошибки операций.
var (
	// ErrUnknownOperation — тип операции не найден в реестре.
	ErrUnknownOperation = errors.New("unknown operation")

	// ErrInvalidConfig — настройки узла не соответствуют ожидаемой структуре.
	ErrInvalidConfig = errors.New("invalid operation config")

	// ErrMissingColumn — колонка, обязательная для операции, отсутствует.
	ErrMissingColumn = errors.New("column not found")

	// ErrMissingInput — операции не хватает входной таблицы.
	ErrMissingInput = errors.New("input table not found")

	// ErrNotEnoughData — данных недостаточно для статистической процедуры.
	ErrNotEnoughData = errors.New("not enough data")

	// ErrUnsupportedSource — источник данных не поддерживается.
	ErrUnsupportedSource = errors.New("unsupported data source")
)
