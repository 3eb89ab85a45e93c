package callgraph

import "github.com/embedded-tools/callstack/internal/demangle"

// ShortenNames implements spec.md §4.G: count, per dehashed prefix,
// how many canonical names share it, then replace the display name
// of every node whose dehashed prefix is unique with that prefix. A
// name recognized as a default-trait-method implementation
// (`<Type as Trait>::method`) is displayed under its canonical
// "Trait::method" form instead, under the same uniqueness rule (see
// DESIGN.md).
// Run after propagation (spec.md §5's ordering: "4.E before 4.G").
func ShortenNames(g *Graph, demangler func(string) string) {
	counts := make(map[string]int, g.NumNodes())
	display := make([]string, g.NumNodes())
	ok := make([]bool, g.NumNodes())

	for i, n := range g.Nodes {
		demangled := demangler(n.Name)
		if trait, matched := demangle.DefaultMethodName(demangled); matched {
			display[i] = trait
			ok[i] = true
			counts[trait]++
			continue
		}
		d, matched := demangle.Dehash(demangled)
		display[i] = d
		ok[i] = matched
		if matched {
			counts[d]++
		}
	}

	for i := range g.Nodes {
		if ok[i] && counts[display[i]] == 1 {
			g.Nodes[i].Display = display[i]
		}
	}
}
