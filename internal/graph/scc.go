package graph

// SCCs returns the strongly connected components of g, with each
// component listed in reverse topological order of the condensation
// (i.e., a component that has no edges leaving it to another
// component comes first). Within a component, node order is
// unspecified.
//
// This is Tarjan's algorithm, chosen so the result falls out already
// in reverse topological order and a second pass over the
// condensation isn't needed.
func SCCs(g Graph) [][]int {
	s := &sccState{
		g:       g,
		index:   make([]int, g.NumNodes()),
		lowlink: make([]int, g.NumNodes()),
		onStack: make([]bool, g.NumNodes()),
	}
	for i := range s.index {
		s.index[i] = -1
	}
	for v := 0; v < g.NumNodes(); v++ {
		if s.index[v] < 0 {
			s.strongconnect(v)
		}
	}
	return s.out
}

type sccState struct {
	g       Graph
	index   []int
	lowlink []int
	onStack []bool
	stack   []int
	next    int
	out     [][]int
}

// strongconnect is the iterative form of Tarjan's recursive
// algorithm. It's written as an explicit work-stack machine rather
// than a recursive function because real call graphs can be deep
// enough (a long call chain through a statically linked executable)
// to blow the Go stack if this were naively recursive.
func (s *sccState) strongconnect(v0 int) {
	type frame struct {
		v     int
		iter  int
		succs []int
	}
	work := []frame{{v: v0, succs: s.g.Out(v0)}}
	s.visit(v0)

	for len(work) > 0 {
		top := &work[len(work)-1]
		if top.iter < len(top.succs) {
			w := top.succs[top.iter]
			top.iter++
			if s.index[w] < 0 {
				s.visit(w)
				work = append(work, frame{v: w, succs: s.g.Out(w)})
			} else if s.onStack[w] {
				if s.index[w] < s.lowlink[top.v] {
					s.lowlink[top.v] = s.index[w]
				}
			}
			continue
		}

		// Done with v's successors.
		v := top.v
		work = work[:len(work)-1]
		if len(work) > 0 {
			parent := &work[len(work)-1]
			if s.lowlink[v] < s.lowlink[parent.v] {
				s.lowlink[parent.v] = s.lowlink[v]
			}
		}

		if s.lowlink[v] == s.index[v] {
			var comp []int
			for {
				n := len(s.stack) - 1
				w := s.stack[n]
				s.stack = s.stack[:n]
				s.onStack[w] = false
				comp = append(comp, w)
				if w == v {
					break
				}
			}
			s.out = append(s.out, comp)
		}
	}
}

func (s *sccState) visit(v int) {
	s.index[v] = s.next
	s.lowlink[v] = s.next
	s.next++
	s.stack = append(s.stack, v)
	s.onStack[v] = true
}

// IsCyclicComponent reports whether comp (a component returned by
// SCCs) represents a true cycle: either more than one node, or a
// single node with a self-loop.
func IsCyclicComponent(g Graph, comp []int) bool {
	if len(comp) > 1 {
		return true
	}
	n := comp[0]
	for _, succ := range g.Out(n) {
		if succ == n {
			return true
		}
	}
	return false
}
