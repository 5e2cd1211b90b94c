package algorithms

// Successors returns the direct successors of a vertex. Implementations decide how
// much locking a single call needs; the traversals here never hold anything between
// calls.
type Successors[K comparable] func(K) []K

// Cycle represents a detected cycle as a sequence of vertices
type Cycle[K comparable] []K

const (
	white = iota // Unvisited
	gray         // Currently visiting (in recursion stack)
	black        // Finished visiting
)

// Reachable returns every vertex reachable from start by following one or more edges.
// start itself is only included when it lies on a cycle.
func Reachable[K comparable](start K, next Successors[K]) map[K]struct{} {
	seen := make(map[K]struct{})
	queue := append([]K(nil), next(start)...)

	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		queue = append(queue, next(v)...)
	}
	return seen
}

// ReachesItself reports whether start is its own descendant.
func ReachesItself[K comparable](start K, next Successors[K]) bool {
	_, ok := Reachable(start, next)[start]
	return ok
}

// DetectCycles finds cycles using DFS with three-color marking.
//
// When a GRAY vertex is met during DFS we have found a back edge, which indicates a cycle.
// Vertices are visited in the order given, so the result is deterministic for a
// deterministic successor function.
func DetectCycles[K comparable](vertices []K, next Successors[K]) []Cycle[K] {
	color := make(map[K]int)
	parent := make(map[K]K)
	cycles := make([]Cycle[K], 0)

	for _, v := range vertices {
		if color[v] == white {
			dfsDetectCycle(v, next, color, parent, &cycles)
		}
	}
	return cycles
}

func dfsDetectCycle[K comparable](v K, next Successors[K], color map[K]int, parent map[K]K, cycles *[]Cycle[K]) {
	color[v] = gray

	for _, w := range next(v) {
		if w == v {
			*cycles = append(*cycles, Cycle[K]{v})
			continue
		}
		switch color[w] {
		case white:
			parent[w] = v
			dfsDetectCycle(w, next, color, parent, cycles)
		case gray:
			*cycles = append(*cycles, extractCycle(w, v, parent))
		}
		// BLACK: forward/cross edge, no cycle from this edge
	}

	color[v] = black
}

// extractCycle walks parent pointers back from end to start.
func extractCycle[K comparable](start, end K, parent map[K]K) Cycle[K] {
	cycle := Cycle[K]{start}
	current := end
	for current != start {
		cycle = append(cycle, current)
		p, ok := parent[current]
		if !ok {
			break
		}
		current = p
	}
	return cycle
}

// HasCycle checks if the graph contains any cycle (stops at the first one found)
func HasCycle[K comparable](vertices []K, next Successors[K]) bool {
	color := make(map[K]int)
	for _, v := range vertices {
		if color[v] == white && hasCycleDFS(v, next, color) {
			return true
		}
	}
	return false
}

func hasCycleDFS[K comparable](v K, next Successors[K], color map[K]int) bool {
	color[v] = gray
	for _, w := range next(v) {
		if w == v {
			return true
		}
		switch color[w] {
		case white:
			if hasCycleDFS(w, next, color) {
				return true
			}
		case gray:
			return true
		}
	}
	color[v] = black
	return false
}
