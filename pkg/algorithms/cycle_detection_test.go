package algorithms

import (
	"sort"
	"testing"
)

type adjacency map[string][]string

func (a adjacency) next(v string) []string { return a[v] }

func (a adjacency) vertices() []string {
	vs := make([]string, 0, len(a))
	for v := range a {
		vs = append(vs, v)
	}
	sort.Strings(vs)
	return vs
}

// TestDetectCycles_NoCycles tests a graph with no cycles (linear path)
func TestDetectCycles_NoCycles(t *testing.T) {
	g := adjacency{"A": {"B"}, "B": {"C"}, "C": nil}

	if cycles := DetectCycles(g.vertices(), g.next); len(cycles) != 0 {
		t.Errorf("Expected no cycles, got %d", len(cycles))
	}
	if HasCycle(g.vertices(), g.next) {
		t.Error("HasCycle() = true for a path")
	}
}

// TestDetectCycles_SimpleCycle tests a simple 2-vertex cycle
func TestDetectCycles_SimpleCycle(t *testing.T) {
	g := adjacency{"A": {"B"}, "B": {"A"}}

	cycles := DetectCycles(g.vertices(), g.next)
	if len(cycles) != 1 {
		t.Fatalf("Expected 1 cycle, got %d", len(cycles))
	}
	if len(cycles[0]) != 2 {
		t.Errorf("Expected cycle length 2, got %d", len(cycles[0]))
	}
}

// TestDetectCycles_SelfLoop tests a self-referencing vertex
func TestDetectCycles_SelfLoop(t *testing.T) {
	g := adjacency{"A": {"A"}}

	cycles := DetectCycles(g.vertices(), g.next)
	if len(cycles) != 1 || len(cycles[0]) != 1 {
		t.Errorf("Expected one self loop, got %v", cycles)
	}
	if !HasCycle(g.vertices(), g.next) {
		t.Error("HasCycle() = false for a self loop")
	}
}

func TestReachable(t *testing.T) {
	g := adjacency{"A": {"B", "C"}, "B": {"D"}, "C": {"D"}, "D": nil, "E": {"A"}}

	got := Reachable("A", g.next)
	for _, v := range []string{"B", "C", "D"} {
		if _, ok := got[v]; !ok {
			t.Errorf("%s not reachable from A", v)
		}
	}
	if _, ok := got["A"]; ok {
		t.Error("A must not be its own descendant in a DAG")
	}
	if _, ok := got["E"]; ok {
		t.Error("E is an ancestor, not a descendant")
	}
}

func TestReachesItself(t *testing.T) {
	tests := []struct {
		name string
		g    adjacency
		want bool
	}{
		{"dag", adjacency{"A": {"B"}, "B": {"C"}}, false},
		{"triangle", adjacency{"A": {"B"}, "B": {"C"}, "C": {"A"}}, true},
		{"cycle elsewhere", adjacency{"A": {"B"}, "B": {"C"}, "C": {"B"}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ReachesItself("A", tt.g.next); got != tt.want {
				t.Errorf("ReachesItself(A) = %v, want %v", got, tt.want)
			}
		})
	}
}
