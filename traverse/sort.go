package traverse

import (
	"errors"
	"fmt"
)

// ErrCycleDetected is returned when a topological order does not exist.
var ErrCycleDetected = errors.New("cycle detected")

// CycleError lists the nodes that could not be ordered because they are on,
// or downstream of, a cycle.
type CycleError[N comparable] struct {
	Nodes []N
}

func (e *CycleError[N]) Error() string {
	return fmt.Sprintf("%s: %d node(s) could not be ordered: %v", ErrCycleDetected, len(e.Nodes), e.Nodes)
}

func (e *CycleError[N]) Unwrap() error {
	return ErrCycleDetected
}

// TopologicalSort orders nodes so that every node comes after all of its
// predecessors that are also part of nodes. Edges to nodes outside the set
// are ignored. Ties are broken by the order of nodes, which makes the result
// deterministic for a given input.
//
// It uses Kahn's algorithm. If the subgraph has a cycle, a *CycleError is
// returned; it matches ErrCycleDetected with errors.Is.
func TopologicalSort[N comparable](g Graph[N], nodes []N) ([]N, error) {
	inSet := make(map[N]struct{}, len(nodes))
	for _, n := range nodes {
		inSet[n] = struct{}{}
	}

	inDegree := make(map[N]int, len(inSet))
	ordered := make([]N, 0, len(inSet))
	for _, n := range nodes {
		if _, ok := inDegree[n]; ok {
			continue
		}
		inDegree[n] = 0
		ordered = append(ordered, n)
	}
	for _, n := range ordered {
		for _, p := range DirectPredecessors(g, n) {
			if _, ok := inSet[p]; ok {
				inDegree[n]++
			}
		}
	}

	queue := make([]N, 0, len(ordered))
	for _, n := range ordered {
		if inDegree[n] == 0 {
			queue = append(queue, n)
		}
	}

	result := make([]N, 0, len(ordered))
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		result = append(result, n)

		for _, s := range DirectSuccessors(g, n) {
			if _, ok := inSet[s]; !ok {
				continue
			}
			inDegree[s]--
			if inDegree[s] == 0 {
				queue = append(queue, s)
			}
		}
	}

	if len(result) != len(ordered) {
		var remaining []N
		for _, n := range ordered {
			if inDegree[n] > 0 {
				remaining = append(remaining, n)
			}
		}
		return nil, &CycleError[N]{Nodes: remaining}
	}

	return result, nil
}
