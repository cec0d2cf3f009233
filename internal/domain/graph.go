package domain

import (
	"encoding/json"
	"strings"
)

// Node — узел визуального конструктора: один шаг обработки таблицы.
//
// Kind — имя операции (канонический вид "filter_rows" или метка UI
// "Filter Rows"). Config — сырые настройки узла, которые операция
// декодирует в свою структуру.
type Node struct {
	// ID — уникальный идентификатор узла в графе.
	ID string `json:"id"`

	// Kind — тип операции.
	Kind string `json:"kind"`

	// Config — настройки операции.
	Config map[string]any `json:"config,omitempty"`
}

// nodeWire — JSON-представление узла.
//
// Поддерживается два формата:
//
//	{"id": "n1", "kind": "filter_rows", "config": {...}}
//	{"id": "n1", "data": {"typeLabel": "Filter Rows", "config": {...}}}
//
// Второй формат отправляет frontend (React Flow).
type nodeWire struct {
	ID     string         `json:"id"`
	Kind   string         `json:"kind,omitempty"`
	Type   string         `json:"type,omitempty"`
	Config map[string]any `json:"config,omitempty"`
	Data   *struct {
		TypeLabel string         `json:"typeLabel"`
		Label     string         `json:"label"`
		Config    map[string]any `json:"config"`
	} `json:"data,omitempty"`
}

// UnmarshalJSON разбирает узел в любом из поддерживаемых форматов.
func (n *Node) UnmarshalJSON(b []byte) error {
	var w nodeWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}

	n.ID = w.ID
	n.Kind = w.Kind
	n.Config = w.Config

	if w.Data != nil {
		if n.Kind == "" {
			n.Kind = w.Data.TypeLabel
		}
		if n.Kind == "" {
			n.Kind = w.Data.Label
		}
		if n.Config == nil {
			n.Config = w.Data.Config
		}
	}
	// "type" у React Flow — тип компонента ("custom"), используем только как запасной вариант
	if n.Kind == "" {
		n.Kind = w.Type
	}
	n.Kind = strings.TrimSpace(n.Kind)
	if n.Config == nil {
		n.Config = map[string]any{}
	}
	return nil
}

// Edge — направленная связь: выход Source становится входом Target.
type Edge struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// Graph — граф пайплайна в том виде, в каком его присылает клиент.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}
