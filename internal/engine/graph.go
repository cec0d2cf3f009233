package engine

import (
	"fmt"
	"slices"

	"github.com/shaiso/dataflow/internal/domain"
)

// Node — узел в графе выполнения.
type Node struct {
	// Spec — узел в том виде, в каком его прислал клиент.
	Spec domain.Node

	// ID — идентификатор узла.
	ID string

	// Index — позиция узла в списке объявления.
	Index int

	// InDegree — количество входящих рёбер.
	InDegree int

	// DependsOn — предшественники в порядке объявления рёбер.
	DependsOn []*Node

	// Dependents — узлы, которые получают выход этого узла.
	Dependents []*Node
}

// Input возвращает предшественника, чей выход станет входом узла.
// Используется только первый предшественник в порядке объявления рёбер.
func (n *Node) Input() *Node {
	if len(n.DependsOn) == 0 {
		return nil
	}
	return n.DependsOn[0]
}

// Graph — граф узлов пайплайна.
type Graph struct {
	// Nodes — все узлы графа (nodeID → Node).
	Nodes map[string]*Node

	// Declared — узлы в порядке объявления.
	Declared []*Node
}

// BuildGraph строит граф из списков узлов и рёбер.
//
// Рёбра на неизвестные узлы игнорируются. Повторяющиеся рёбра учитываются один раз.
// Пустой или повторяющийся ID узла — ошибка: без него узел нельзя адресовать.
func BuildGraph(nodes []domain.Node, edges []domain.Edge) (*Graph, error) {
	g := &Graph{
		Nodes:    make(map[string]*Node, len(nodes)),
		Declared: make([]*Node, 0, len(nodes)),
	}

	for i, spec := range nodes {
		if spec.ID == "" {
			return nil, NewValidationError("", "id",
				fmt.Sprintf("node at position %d has empty id", i), ErrEmptyNodeID)
		}
		if _, exists := g.Nodes[spec.ID]; exists {
			return nil, NewValidationError(spec.ID, "id",
				"node id is used more than once", ErrDuplicateNodeID)
		}

		node := &Node{
			Spec:       spec,
			ID:         spec.ID,
			Index:      i,
			DependsOn:  make([]*Node, 0),
			Dependents: make([]*Node, 0),
		}
		g.Nodes[spec.ID] = node
		g.Declared = append(g.Declared, node)
	}

	for _, e := range edges {
		from, okFrom := g.Nodes[e.Source]
		to, okTo := g.Nodes[e.Target]
		if !okFrom || !okTo {
			continue
		}
		g.addEdge(from, to)
	}

	return g, nil
}

// addEdge добавляет ребро между узлами.
// Дополнительно проверяет на дубликаты, чтобы избежать двойного учета InDegree.
func (g *Graph) addEdge(from, to *Node) {
	for _, dep := range to.DependsOn {
		if dep.ID == from.ID {
			return
		}
	}
	from.Dependents = append(from.Dependents, to)
	to.DependsOn = append(to.DependsOn, from)
	to.InDegree++
}

// Order возвращает порядок выполнения (алгоритм Кана).
//
// Среди готовых узлов первым идёт объявленный раньше. Если в графе есть
// цикл, возвращается порядок объявления и ErrCyclicDependency: выполнение
// при этом продолжается.
func (g *Graph) Order() ([]*Node, error) {
	inDegree := make(map[string]int, len(g.Nodes))
	for id, node := range g.Nodes {
		inDegree[id] = node.InDegree
	}

	byIndex := func(a, b *Node) int { return a.Index - b.Index }

	ready := make([]*Node, 0)
	for _, node := range g.Declared {
		if node.InDegree == 0 {
			ready = append(ready, node)
		}
	}

	order := make([]*Node, 0, len(g.Declared))
	for len(ready) > 0 {
		node := ready[0]
		ready = ready[1:]
		order = append(order, node)

		for _, dependent := range node.Dependents {
			inDegree[dependent.ID]--
			if inDegree[dependent.ID] == 0 {
				pos, _ := slices.BinarySearchFunc(ready, dependent, byIndex)
				ready = slices.Insert(ready, pos, dependent)
			}
		}
	}

	if len(order) != len(g.Declared) {
		return slices.Clone(g.Declared), ErrCyclicDependency
	}
	return order, nil
}

// GetNode возвращает узел по ID.
func (g *Graph) GetNode(id string) *Node {
	return g.Nodes[id]
}

// Size возвращает количество узлов в графе.
func (g *Graph) Size() int {
	return len(g.Nodes)
}

// Predecessors возвращает ID предшественников узла в порядке объявления рёбер.
func (n *Node) Predecessors() []string {
	ids := make([]string, len(n.DependsOn))
	for i, dep := range n.DependsOn {
		ids[i] = dep.ID
	}
	return ids
}
