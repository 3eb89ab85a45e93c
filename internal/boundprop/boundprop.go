// Package boundprop implements spec.md §4.E, the Bound Propagator:
// computing every node's transitive maximum stack usage via a
// strongly-connected-component decomposition so that the acyclic and
// cyclic cases share one code path (spec.md §9: "unifying the two
// paths through the SCC algorithm simplifies correctness reasoning at
// negligible cost").
package boundprop

import (
	"github.com/embedded-tools/callstack/internal/bound"
	"github.com/embedded-tools/callstack/internal/graph"
)

// Node is the minimal view boundprop needs of a call-graph node: its
// own local usage, its already-computed bound (read by a later
// component, or by an earlier-visited component within the same
// propagation pass), and a place to write the freshly computed bound.
type Node interface {
	Local() bound.Local
	Bound() bound.Max
	SetBound(bound.Max)
}

// Propagate computes bound(n) for every node in g, in place, visiting
// strongly connected components in reverse topological order of the
// condensation (spec.md §4.E). nodes[i] must correspond to g's node
// i. Because graph.SCCs already returns components in reverse
// topological order, every successor of a node in component k has
// already been assigned its bound by the time component k is
// visited.
func Propagate(g graph.Graph, nodes []Node) {
	for _, comp := range graph.SCCs(g) {
		if len(comp) == 1 && !graph.IsCyclicComponent(g, comp) {
			propagateAcyclicNode(g, nodes, comp[0])
			continue
		}
		propagateCycle(g, nodes, comp)
	}
}

// propagateAcyclicNode implements the acyclic case: bound(self) =
// max(bound(neighbor)) + local(self), or just local(self) cast to Max
// if self has no outgoing edges.
func propagateAcyclicNode(g graph.Graph, nodes []Node, n int) {
	neighbors := g.Out(n)
	local := nodes[n].Local()
	if len(neighbors) == 0 {
		nodes[n].SetBound(local.ToMax())
		return
	}
	bounds := make([]bound.Max, len(neighbors))
	for i, nb := range neighbors {
		bounds[i] = nodes[nb].Bound()
	}
	m := bound.MaxOf(bounds)
	nodes[n].SetBound(m.AddLocal(local))
}

// propagateCycle implements the true-cycle case (spec.md §4.E): L is
// the max local usage across the cycle, promoted to a LowerBound
// unless it is exactly Exact(0) (a genuinely zero-cost cycle
// contributes nothing, regardless of recursion depth). E is the max
// bound reached by edges leaving the component; every node in the
// component gets the same resulting bound, E + L_promoted (or just
// L_promoted if the component has no outgoing edges at all).
func propagateCycle(g graph.Graph, nodes []Node, comp []int) {
	inComp := make(map[int]bool, len(comp))
	for _, n := range comp {
		inComp[n] = true
	}

	l := nodes[comp[0]].Local()
	for _, n := range comp[1:] {
		l = bound.MaxLocal(l, nodes[n].Local())
	}
	lPromoted := promote(l)

	var outside []bound.Max
	for _, n := range comp {
		for _, nb := range g.Out(n) {
			if !inComp[nb] {
				outside = append(outside, nodes[nb].Bound())
			}
		}
	}

	result := lPromoted
	if len(outside) > 0 {
		result = bound.MaxOf(outside).Add(lPromoted)
	}

	for _, n := range comp {
		nodes[n].SetBound(result)
	}
}

// promote converts a cycle's representative Local into the Max it
// contributes: Exact(0) stays Exact(0) (a real cycle can still cost
// nothing if every member is a true leaf with no frame); any other
// value — known or Unknown — becomes a LowerBound, since recursion
// depth around a true cycle is never statically known.
func promote(l bound.Local) bound.Max {
	if l.IsExact() && l.Value() == 0 {
		return bound.ExactMax(0)
	}
	if l.IsExact() {
		return bound.LowerBoundMax(l.Value())
	}
	return bound.LowerBoundMax(0)
}
