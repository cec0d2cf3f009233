package domain

// RunStatus — итог выполнения графа.
//
// Run всегда доходит до конца: ошибки отдельных узлов не останавливают
// выполнение. RunStatusError означает, что граф не удалось даже начать
// (пустой граф или некорректные ID узлов).
type RunStatus string

const (
	// RunStatusSuccess — граф выполнен (статусы узлов — в NodeSummary).
	RunStatusSuccess RunStatus = "success"

	// RunStatusError — граф не выполнялся.
	RunStatusError RunStatus = "error"
)

// NodeStatus — итог выполнения одного узла.
type NodeStatus string

const (
	// NodeStatusSucceeded — операция вернула непустую таблицу.
	NodeStatusSucceeded NodeStatus = "succeeded"

	// NodeStatusEmpty — операция выполнена, но таблица пустая.
	NodeStatusEmpty NodeStatus = "empty"

	// NodeStatusSkipped — нет входных данных от предыдущего узла.
	NodeStatusSkipped NodeStatus = "skipped"

	// NodeStatusFailed — операция завершилась ошибкой, выход — вход без изменений.
	NodeStatusFailed NodeStatus = "failed"

	// NodeStatusConfigured — узел-источник: только настройки, таблицы нет.
	NodeStatusConfigured NodeStatus = "configured"
)

// HasOutput возвращает true, если узел мог положить таблицу в контекст.
func (s NodeStatus) HasOutput() bool {
	switch s {
	case NodeStatusSucceeded, NodeStatusEmpty, NodeStatusFailed:
		return true
	default:
		return false
	}
}
