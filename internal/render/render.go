// Package render holds the two output writers spec.md §6 describes:
// a Graphviz Dot document (one node per index, a cluster per cyclic
// component) and a flat "top" table, one function per line sorted by
// local usage descending. Grounded on original_source/src/main.rs's
// dot() and top() functions, translated into the donor tool's own
// internal/graph.Dot writer instead of hand-rolled string escaping.
package render

import (
	"fmt"
	"io"
	"sort"

	"github.com/embedded-tools/callstack/internal/bound"
	"github.com/embedded-tools/callstack/internal/callgraph"
	"github.com/embedded-tools/callstack/internal/graph"
)

// Dot writes g as a Graphviz Dot document to w. cycles lists the
// cyclic components (as returned by graph.SCCs, filtered to
// graph.IsCyclicComponent) so each can be drawn in its own dashed
// cluster, as spec.md §6 requires ("each cyclic component placed
// inside a named cluster").
func Dot(w io.Writer, g *callgraph.Graph, cycles [][]int) error {
	clusters := make([]graph.Cluster, len(cycles))
	for i, c := range cycles {
		clusters[i] = graph.Cluster{Name: fmt.Sprintf("SCC%d", i), Nodes: c}
	}
	d := graph.Dot{
		Label: func(n int) []string {
			node := g.Nodes[n]
			lines := []string{node.Display}
			lines = append(lines, fmt.Sprintf("max %s", node.Bound))
			lines = append(lines, fmt.Sprintf("local = %s", node.Local))
			return lines
		},
		Dashed: func(n int) bool {
			return g.Nodes[n].Synthetic
		},
		Clusters: clusters,
	}
	return d.Fprint(g, w)
}

// Top writes g as a flat table to w: a single "<max> MAX" header
// line, a "Usage Function" column-header line, then one
// "<local> <name>" line per node, sorted by local
// usage descending (ties broken by display name, for a stable,
// deterministic ordering the original tool's plain sort-by-value
// doesn't guarantee).
func Top(w io.Writer, g *callgraph.Graph) error {
	var max uint64
	for _, n := range g.Nodes {
		if n.Bound.Value() > max {
			max = n.Bound.Value()
		}
	}
	if _, err := fmt.Fprintf(w, "%d MAX\n", max); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Usage Function\n"); err != nil {
		return err
	}

	order := make([]int, len(g.Nodes))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		a, b := g.Nodes[order[i]], g.Nodes[order[j]]
		av, bv := localValue(a.Local), localValue(b.Local)
		if av != bv {
			return av > bv
		}
		return a.Display < b.Display
	})

	for _, idx := range order {
		n := g.Nodes[idx]
		if _, err := fmt.Fprintf(w, "%d %s\n", localValue(n.Local), n.Display); err != nil {
			return err
		}
	}
	return nil
}

// localValue returns a node's local usage as a plain number for
// sorting and display: Unknown contributes 0, matching
// original_source/src/main.rs's top() treatment of a non-Exact local.
func localValue(l bound.Local) uint64 {
	if !l.IsExact() {
		return 0
	}
	return l.Value()
}
