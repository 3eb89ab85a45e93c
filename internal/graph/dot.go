// Copyright 2018 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package graph

import (
	"fmt"
	"io"
	"os"
)

// Dot contains options for generating a Graphviz Dot graph from a
// Graph. Unlike a plain call-graph dump, node style and cluster
// membership are attached, since the call-stack engine needs to mark
// synthetic nodes (dashed boxes) and cyclic components (clusters) in
// the same picture as the graph shape.
type Dot struct {
	// Name is the name given to the graph. Usually this can be
	// left blank.
	Name string

	// Label returns the lines of text to use as a label for the
	// given node. If nil, nodes are labeled with their node
	// numbers.
	Label func(node int) []string

	// Dashed reports whether node should be drawn with a dashed
	// outline. If nil, no node is dashed.
	Dashed func(node int) bool

	// Clusters groups nodes into named, boxed subgraphs (used for
	// strongly connected components). A node may appear in at
	// most one cluster; nodes outside every cluster are drawn
	// normally.
	Clusters []Cluster
}

// Cluster is a named group of nodes to box together in the Dot
// output.
type Cluster struct {
	Name  string
	Nodes []int
}

func defaultLabel(node int) []string {
	return []string{fmt.Sprintf("%d", node)}
}

// Print writes the Dot form of g to os.Stdout.
func (d Dot) Print(g Graph) error {
	return d.Fprint(g, os.Stdout)
}

// Fprint writes the Dot form of g to w.
func (d Dot) Fprint(g Graph, w io.Writer) error {
	label := d.Label
	if label == nil {
		label = defaultLabel
	}

	clustered := make(map[int]bool)
	for _, c := range d.Clusters {
		for _, n := range c.Nodes {
			clustered[n] = true
		}
	}

	if _, err := fmt.Fprintf(w, "digraph %s {\n", dotString(d.Name)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "    node [fontname=monospace shape=box];\n"); err != nil {
		return err
	}

	for i := 0; i < g.NumNodes(); i++ {
		if clustered[i] {
			// Emitted below, inside its cluster's subgraph.
			continue
		}
		if err := d.writeNode(w, i, label); err != nil {
			return err
		}
	}

	for ci, c := range d.Clusters {
		if _, err := fmt.Fprintf(w, "    subgraph cluster_%d {\n", ci); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "        style=dashed;\n        label=%s;\n", dotString(c.Name)); err != nil {
			return err
		}
		for _, n := range c.Nodes {
			if err := d.writeNode(w, n, label); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "    }\n"); err != nil {
			return err
		}
	}

	for i := 0; i < g.NumNodes(); i++ {
		for _, out := range g.Out(i) {
			if _, err := fmt.Fprintf(w, "    n%d -> n%d;\n", i, out); err != nil {
				return err
			}
		}
	}

	_, err := fmt.Fprintf(w, "}\n")
	return err
}

func (d Dot) writeNode(w io.Writer, i int, label func(int) []string) error {
	lines := label(i)
	text := ""
	for j, l := range lines {
		if j > 0 {
			text += "\n"
		}
		text += l
	}
	style := ""
	if d.Dashed != nil && d.Dashed(i) {
		style = " style=dashed"
	}
	_, err := fmt.Fprintf(w, "    n%d [label=%s%s];\n", i, dotString(text), style)
	return err
}

// dotString returns s as a quoted dot string.
func dotString(s string) string {
	buf := []byte{'"'}
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\n':
			buf = append(buf, '\\', 'n')
		case '\\', '"', '{', '}', '<', '>', '|':
			buf = append(buf, '\\', s[i])
		default:
			buf = append(buf, s[i])
		}
	}
	buf = append(buf, '"')
	return string(buf)
}
