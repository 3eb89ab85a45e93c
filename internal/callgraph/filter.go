package callgraph

import (
	"github.com/embedded-tools/callstack/internal/demangle"
	"github.com/embedded-tools/callstack/internal/diag"
	"github.com/embedded-tools/callstack/internal/graph"
)

// FilterToEntry implements spec.md §4.F: restrict g to the nodes
// reachable from the named entry point. entry is looked up directly
// first; on a miss it's tried as a dehashed-name prefix, which must
// match exactly one node. If no unique match is found, a diagnostic
// is emitted and g is returned unfiltered.
func FilterToEntry(g *Graph, entry string, demangler func(string) string, sink *diag.Sink) *Graph {
	idx, ok := g.IndexOf(entry)
	if !ok {
		idx, ok = findUniqueEntryCandidate(g, entry, demangler)
	}
	if !ok {
		sink.Warnf(entry, "entry point not found (or ambiguous); leaving graph unfiltered")
		return g
	}
	return subgraphReachableFrom(g, idx)
}

func findUniqueEntryCandidate(g *Graph, entry string, demangler func(string) string) (int, bool) {
	match := -1
	for i, n := range g.Nodes {
		dehashed, ok := demangle.Dehash(demangler(n.Name))
		if !ok || dehashed != entry {
			continue
		}
		if match >= 0 {
			// More than one candidate: not unique.
			return 0, false
		}
		match = i
	}
	if match < 0 {
		return 0, false
	}
	return match, true
}

func subgraphReachableFrom(g *Graph, entry int) *Graph {
	reachable := make([]bool, g.NumNodes())
	for _, n := range graph.PreOrder(g, entry) {
		reachable[n] = true
	}

	out := &Graph{index: make(map[string]int)}
	remap := make(map[int]int, g.NumNodes())
	for i, n := range g.Nodes {
		if !reachable[i] {
			continue
		}
		remap[i] = out.addNode(n)
		out.Nodes[remap[i]].Display = n.Display
	}
	for i := range g.Nodes {
		if !reachable[i] {
			continue
		}
		for _, succ := range g.Out(i) {
			out.out[remap[i]] = append(out.out[remap[i]], remap[succ])
		}
	}
	return out
}
