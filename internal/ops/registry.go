package ops

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Registry — реестр операций.
//
// Позволяет регистрировать операции по каноническому типу и меткам UI
// ("Filter Rows" → filter_rows). Заполняется при старте процесса,
// после этого используется только на чтение.
type Registry struct {
	mu      sync.RWMutex
	ops     map[string]Operation
	aliases map[string]string
}

// NewRegistry создаёт пустой реестр.
func NewRegistry() *Registry {
	return &Registry{
		ops:     make(map[string]Operation),
		aliases: make(map[string]string),
	}
}

// normalizeKind приводит тип к виду для поиска: "Pie/Donut Chart" → "pie_donut_chart".
func normalizeKind(kind string) string {
	kind = strings.ToLower(strings.TrimSpace(kind))
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '/', '.':
			return '_'
		}
		return r
	}, kind)
}

// Register регистрирует операцию и её псевдонимы.
// Если операция с таким типом уже существует, она будет перезаписана.
func (r *Registry) Register(op Operation, aliases ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.ops[op.Kind()] = op
	for _, a := range aliases {
		r.aliases[normalizeKind(a)] = op.Kind()
	}
}

// Get возвращает операцию по типу или псевдониму.
// Возвращает ErrUnknownOperation, если операция не найдена.
func (r *Registry) Get(kind string) (Operation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if op, ok := r.ops[kind]; ok {
		return op, nil
	}
	key := normalizeKind(kind)
	if op, ok := r.ops[key]; ok {
		return op, nil
	}
	if canonical, ok := r.aliases[key]; ok {
		return r.ops[canonical], nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownOperation, kind)
}

// Has проверяет, зарегистрирована ли операция.
func (r *Registry) Has(kind string) bool {
	_, err := r.Get(kind)
	return err == nil
}

// Kinds возвращает отсортированный список канонических типов.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]string, 0, len(r.ops))
	for k := range r.ops {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// Aliases возвращает псевдонимы операции в нормализованном виде.
func (r *Registry) Aliases(kind string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []string
	for alias, canonical := range r.aliases {
		if canonical == kind {
			out = append(out, alias)
		}
	}
	sort.Strings(out)
	return out
}

// Count возвращает количество зарегистрированных операций.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.ops)
}
