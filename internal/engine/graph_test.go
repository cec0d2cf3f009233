package engine

import (
	"errors"
	"testing"

	"github.com/shaiso/dataflow/internal/domain"
)

func nodes(ids ...string) []domain.Node {
	out := make([]domain.Node, len(ids))
	for i, id := range ids {
		out[i] = domain.Node{ID: id, Kind: "copy"}
	}
	return out
}

func ids(order []*Node) []string {
	out := make([]string, len(order))
	for i, n := range order {
		out[i] = n.ID
	}
	return out
}

func TestBuildGraph_Diamond(t *testing.T) {
	// A → B → D
	// A → C → D
	g, err := BuildGraph(nodes("A", "B", "C", "D"), []domain.Edge{
		{Source: "A", Target: "B"},
		{Source: "A", Target: "C"},
		{Source: "B", Target: "D"},
		{Source: "C", Target: "D"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if g.Size() != 4 {
		t.Errorf("expected 4 nodes, got %d", g.Size())
	}

	// Проверяем inDegree
	if g.GetNode("A").InDegree != 0 {
		t.Error("A should have inDegree 0")
	}
	if g.GetNode("D").InDegree != 2 {
		t.Error("D should have inDegree 2")
	}

	// Вход D — первый предшественник по порядку рёбер
	if in := g.GetNode("D").Input(); in == nil || in.ID != "B" {
		t.Errorf("D input should be B, got %v", in)
	}
	if preds := g.GetNode("D").Predecessors(); len(preds) != 2 || preds[1] != "C" {
		t.Errorf("unexpected predecessors of D: %v", preds)
	}
}

func TestBuildGraph_IgnoresUnknownAndDuplicateEdges(t *testing.T) {
	g, err := BuildGraph(nodes("A", "B"), []domain.Edge{
		{Source: "A", Target: "B"},
		{Source: "A", Target: "B"},
		{Source: "ghost", Target: "B"},
		{Source: "A", Target: "nowhere"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if g.GetNode("B").InDegree != 1 {
		t.Errorf("B should have inDegree 1, got %d", g.GetNode("B").InDegree)
	}
	if len(g.GetNode("A").Dependents) != 1 {
		t.Errorf("A should have 1 dependent, got %d", len(g.GetNode("A").Dependents))
	}
}

func TestBuildGraph_InvalidIDs(t *testing.T) {
	_, err := BuildGraph(nodes("A", ""), nil)
	if !errors.Is(err, ErrEmptyNodeID) {
		t.Errorf("expected ErrEmptyNodeID, got %v", err)
	}

	_, err = BuildGraph(nodes("A", "B", "A"), nil)
	if !errors.Is(err, ErrDuplicateNodeID) {
		t.Errorf("expected ErrDuplicateNodeID, got %v", err)
	}

	var verr *ValidationError
	if !errors.As(err, &verr) || verr.NodeID != "A" {
		t.Errorf("expected ValidationError for node A, got %v", err)
	}
}

func TestOrder(t *testing.T) {
	tests := []struct {
		name  string
		nodes []string
		edges []domain.Edge
		want  []string
	}{
		{
			name:  "no edges keeps declaration order",
			nodes: []string{"C", "A", "B"},
			want:  []string{"C", "A", "B"},
		},
		{
			name:  "edges override declaration order",
			nodes: []string{"C", "B", "A"},
			edges: []domain.Edge{{Source: "A", Target: "B"}, {Source: "B", Target: "C"}},
			want:  []string{"A", "B", "C"},
		},
		{
			name:  "ready nodes by declaration",
			nodes: []string{"A", "X", "B", "C"},
			edges: []domain.Edge{{Source: "A", Target: "C"}, {Source: "A", Target: "B"}},
			want:  []string{"A", "X", "B", "C"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := BuildGraph(nodes(tt.nodes...), tt.edges)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			order, err := g.Order()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			got := ids(order)
			if len(got) != len(tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("expected %v, got %v", tt.want, got)
				}
			}
		})
	}
}

func TestOrder_TopologicalInvariant(t *testing.T) {
	edges := []domain.Edge{
		{Source: "E", Target: "D"},
		{Source: "A", Target: "B"},
		{Source: "B", Target: "D"},
		{Source: "C", Target: "D"},
		{Source: "A", Target: "C"},
	}
	g, err := BuildGraph(nodes("D", "C", "B", "A", "E"), edges)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	order, err := g.Order()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	positions := make(map[string]int)
	for i, n := range order {
		positions[n.ID] = i
	}
	for _, e := range edges {
		if positions[e.Source] > positions[e.Target] {
			t.Errorf("%s should come before %s", e.Source, e.Target)
		}
	}
}

func TestOrder_Cycle(t *testing.T) {
	g, err := BuildGraph(nodes("A", "B", "C"), []domain.Edge{
		{Source: "A", Target: "B"},
		{Source: "B", Target: "C"},
		{Source: "C", Target: "A"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	order, err := g.Order()
	if !errors.Is(err, ErrCyclicDependency) {
		t.Errorf("expected ErrCyclicDependency, got %v", err)
	}
	// Порядок объявления — каждый узел ровно один раз
	got := ids(order)
	if len(got) != 3 || got[0] != "A" || got[1] != "B" || got[2] != "C" {
		t.Errorf("expected declaration order, got %v", got)
	}
}
