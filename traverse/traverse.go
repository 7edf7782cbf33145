// Package traverse implements the graph walks used to resolve processor
// dependencies: a direction and visit-order parameterized depth-first walk,
// predecessor and successor sets, and a topological sort that reports cycles.
//
// The algorithms are generic over the node type so they can run on a
// processor network as well as on any other adjacency structure.
//
// Walks use an explicit work stack, so the depth of a graph does not bound
// the depth of the goroutine stack.
package traverse

// Direction selects which edges a walk follows.
type Direction int

const (
	// Up follows edges toward producers (inport -> connected outport -> owner).
	Up Direction = iota
	// Down follows edges toward consumers (outport -> connected inport -> owner).
	Down
)

func (d Direction) String() string {
	switch d {
	case Up:
		return "Up"
	case Down:
		return "Down"
	default:
		return "Unknown"
	}
}

// Order selects when the visit callback runs relative to a node's neighbours.
type Order int

const (
	// Pre visits a node before descending into its neighbours.
	Pre Order = iota
	// Post visits a node after all of its neighbours have been visited.
	Post
)

func (o Order) String() string {
	switch o {
	case Pre:
		return "Pre"
	case Post:
		return "Post"
	default:
		return "Unknown"
	}
}

// Graph exposes the direct neighbours of a node in both directions.
// Implementations may return duplicates; callers that need sets dedupe.
type Graph[N comparable] interface {
	Predecessors(n N) []N
	Successors(n N) []N
}

func neighbours[N comparable](g Graph[N], n N, dir Direction) []N {
	if dir == Up {
		return g.Predecessors(n)
	}
	return g.Successors(n)
}

// State is the visited set of one or more walks. It is supplied by the
// caller so several walks can share it, or it can be cleared between walks.
type State[N comparable] struct {
	visited map[N]struct{}
}

// NewState returns an empty visited set.
func NewState[N comparable]() *State[N] {
	return &State[N]{visited: make(map[N]struct{})}
}

// Visited reports whether n has been visited.
func (s *State[N]) Visited(n N) bool {
	_, ok := s.visited[n]
	return ok
}

// MarkVisited records n as visited.
func (s *State[N]) MarkVisited(n N) {
	s.visited[n] = struct{}{}
}

// Clear forgets all visited nodes.
func (s *State[N]) Clear() {
	clear(s.visited)
}

// Len returns the number of visited nodes.
func (s *State[N]) Len() int {
	return len(s.visited)
}

type frame[N comparable] struct {
	node N
	next []N
	i    int
}

// Walk visits every node reachable from start in the given direction that
// has not been visited according to state. Each node is visited at most
// once, which also makes the walk terminate on converging (diamond) and
// cyclic graphs.
func Walk[N comparable](g Graph[N], state *State[N], start N, dir Direction, order Order, visit func(N)) {
	if state.Visited(start) {
		return
	}
	state.MarkVisited(start)
	if order == Pre {
		visit(start)
	}

	stack := []frame[N]{{node: start, next: neighbours(g, start, dir)}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.i < len(top.next) {
			n := top.next[top.i]
			top.i++
			if state.Visited(n) {
				continue
			}
			state.MarkVisited(n)
			if order == Pre {
				visit(n)
			}
			stack = append(stack, frame[N]{node: n, next: neighbours(g, n, dir)})
			continue
		}

		if order == Post {
			visit(top.node)
		}
		stack = stack[:len(stack)-1]
	}
}

// DirectPredecessors returns the distinct direct predecessors of n in
// first-seen order.
func DirectPredecessors[N comparable](g Graph[N], n N) []N {
	return unique(g.Predecessors(n))
}

// DirectSuccessors returns the distinct direct successors of n in
// first-seen order.
func DirectSuccessors[N comparable](g Graph[N], n N) []N {
	return unique(g.Successors(n))
}

// Predecessors returns every node n transitively depends on, excluding n.
// No ordering is guaranteed.
func Predecessors[N comparable](g Graph[N], n N) []N {
	return reachable(g, n, Up)
}

// Successors returns every node that transitively depends on n, excluding n.
// No ordering is guaranteed.
func Successors[N comparable](g Graph[N], n N) []N {
	return reachable(g, n, Down)
}

// Reaches reports whether to can be reached from from in the given direction.
func Reaches[N comparable](g Graph[N], from, to N, dir Direction) bool {
	if from == to {
		return true
	}
	found := false
	Walk(g, NewState[N](), from, dir, Pre, func(n N) {
		if n == to {
			found = true
		}
	})
	return found
}

func reachable[N comparable](g Graph[N], n N, dir Direction) []N {
	var res []N
	Walk(g, NewState[N](), n, dir, Pre, func(m N) {
		if m != n {
			res = append(res, m)
		}
	})
	return res
}

func unique[N comparable](in []N) []N {
	if len(in) < 2 {
		return in
	}
	seen := make(map[N]struct{}, len(in))
	out := make([]N, 0, len(in))
	for _, n := range in {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
