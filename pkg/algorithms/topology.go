package algorithms

import (
	"errors"
)

// ErrNotDAG is returned by TopologicalSort when the graph contains a cycle.
var ErrNotDAG = errors.New("graph contains cycles, cannot perform topological sort")

// IsDAG checks if the graph is a Directed Acyclic Graph
func IsDAG[K comparable](vertices []K, next Successors[K]) bool {
	return !HasCycle(vertices, next)
}

// TopologicalSort returns vertices in topological order using Kahn's algorithm.
// For every edge u->v, u comes before v. Ties keep the order of the input slice.
// Successors outside vertices are ignored.
func TopologicalSort[K comparable](vertices []K, next Successors[K]) ([]K, error) {
	inDegree := make(map[K]int, len(vertices))
	for _, v := range vertices {
		inDegree[v] = 0
	}

	succ := make(map[K][]K, len(vertices))
	for _, v := range vertices {
		for _, w := range next(v) {
			if _, ok := inDegree[w]; !ok {
				continue
			}
			succ[v] = append(succ[v], w)
			inDegree[w]++
		}
	}

	queue := make([]K, 0)
	for _, v := range vertices {
		if inDegree[v] == 0 {
			queue = append(queue, v)
		}
	}

	sorted := make([]K, 0, len(vertices))
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		sorted = append(sorted, current)

		for _, w := range succ[current] {
			inDegree[w]--
			if inDegree[w] == 0 {
				queue = append(queue, w)
			}
		}
	}

	if len(sorted) != len(vertices) {
		return nil, ErrNotDAG
	}
	return sorted, nil
}
