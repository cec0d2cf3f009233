package engine

import (
	"github.com/shaiso/dataflow/internal/ops"
	"github.com/shaiso/dataflow/internal/table"
)

// artifactSuffix — суффикс ключа побочного результата узла.
const artifactSuffix = "_image"

// Context — данные одного выполнения графа.
//
// Хранит выходную таблицу каждого выполненного узла и побочные результаты
// (изображения) под ключом nodeID + "_image". Создаётся пустым на каждый run
// и отбрасывается после него. Run однопоточный, поэтому блокировок нет.
type Context struct {
	tables    map[string]*table.Table
	artifacts map[string]*ops.Artifact
}

// NewContext создаёт пустой контекст выполнения.
func NewContext() *Context {
	return &Context{
		tables:    make(map[string]*table.Table),
		artifacts: make(map[string]*ops.Artifact),
	}
}

// Set сохраняет выход узла. nil означает "нет таблицы".
func (c *Context) Set(nodeID string, t *table.Table) {
	if t == nil {
		delete(c.tables, nodeID)
		return
	}
	c.tables[nodeID] = t
}

// Table возвращает выход узла.
func (c *Context) Table(nodeID string) (*table.Table, bool) {
	t, ok := c.tables[nodeID]
	return t, ok
}

// SetArtifact сохраняет побочный результат узла.
func (c *Context) SetArtifact(nodeID string, a *ops.Artifact) {
	if a == nil {
		return
	}
	c.artifacts[nodeID+artifactSuffix] = a
}

// Artifact возвращает побочный результат узла.
func (c *Context) Artifact(nodeID string) (*ops.Artifact, bool) {
	a, ok := c.artifacts[nodeID+artifactSuffix]
	return a, ok
}

// Len возвращает количество сохранённых таблиц.
func (c *Context) Len() int {
	return len(c.tables)
}
