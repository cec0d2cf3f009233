package domain

import (
	"time"
)

// RunResult — результат одного выполнения графа.
//
// Создаётся движком на каждый вызов Execute. Содержит журнал
// пользовательских сообщений, сводку по каждому выполненному узлу и
// сводку последнего узла в порядке выполнения.
type RunResult struct {
	// RunID — идентификатор выполнения (UUID).
	RunID string `json:"run_id"`

	// Status — success или error.
	Status RunStatus `json:"status"`

	// Message — пояснение для статуса error.
	Message string `json:"message,omitempty"`

	// Logs — журнал в порядке событий ("[Step n1] ...").
	Logs []string `json:"logs"`

	// NodeOutputs — сводки узлов (nodeID → сводка).
	NodeOutputs map[string]*NodeSummary `json:"node_outputs"`

	// FinalOutput — сводка последнего выполненного узла (с preview).
	FinalOutput *NodeSummary `json:"final_output,omitempty"`

	// Order — порядок выполнения узлов.
	Order []string `json:"order"`

	// StartedAt — время начала выполнения.
	StartedAt time.Time `json:"started_at"`

	// DurationMS — длительность выполнения в миллисекундах.
	DurationMS int64 `json:"duration_ms"`
}

// NodeSummary — представление результата узла для UI.
type NodeSummary struct {
	ID     string         `json:"id"`
	Kind   string         `json:"kind"`
	Config map[string]any `json:"config,omitempty"`
	Status NodeStatus     `json:"status"`

	// Error — текст ошибки для NodeStatusFailed.
	Error string `json:"error,omitempty"`

	Rows    int      `json:"rows"`
	Columns []string `json:"columns"`

	// Preview — первые строки (не более 100), только для узлов отображения.
	Preview []map[string]any `json:"preview,omitempty"`

	// Stats — описательная статистика по числовым колонкам (NaN → null).
	Stats map[string]map[string]any `json:"stats"`

	// Image — сгенерированное изображение (data URL), например облако слов.
	Image string `json:"image,omitempty"`
}

// Summary возвращает сводку узла или nil.
func (r *RunResult) Summary(nodeID string) *NodeSummary {
	if r == nil || r.NodeOutputs == nil {
		return nil
	}
	return r.NodeOutputs[nodeID]
}
