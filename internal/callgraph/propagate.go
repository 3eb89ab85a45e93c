package callgraph

import (
	"github.com/embedded-tools/callstack/internal/bound"
	"github.com/embedded-tools/callstack/internal/boundprop"
)

// nodeRef adapts one Graph node to the boundprop.Node interface.
// callgraph.Node can't implement that interface directly: its Local
// and Bound fields already use those names, and Go doesn't allow a
// field and a method of the same name on one type.
type nodeRef struct {
	g   *Graph
	idx int
}

func (r nodeRef) Local() bound.Local   { return r.g.Nodes[r.idx].Local }
func (r nodeRef) Bound() bound.Max     { return r.g.Nodes[r.idx].Bound }
func (r nodeRef) SetBound(m bound.Max) { r.g.Nodes[r.idx].Bound = m }

// Propagate runs spec.md §4.E over g, setting every node's Bound
// field in place.
func (g *Graph) Propagate() {
	nodes := make([]boundprop.Node, g.NumNodes())
	for i := range g.Nodes {
		nodes[i] = nodeRef{g, i}
	}
	boundprop.Propagate(g, nodes)
}
