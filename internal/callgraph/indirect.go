package callgraph

import (
	"sort"

	"github.com/embedded-tools/callstack/internal/diag"
)

// signatureSentinelSuffix marks a synthetic function-pointer call
// site node's display name (spec.md §4.D): "<signature>*".
const signatureSentinelSuffix = "*"

// resolveIndirectCalls implements spec.md §4.D: for every signature
// marked "called", create one synthetic fan-out node, link every
// recorded caller to it, and link it to every matching implementation
// (plus the untyped sentinel, if the program has untyped externs, to
// preserve soundness).
func resolveIndirectCalls(g *Graph, sigToImpls map[string][]string, signatureCalled map[string][]int, hasUntypedExterns bool, sink *diag.Sink) {
	sigs := make([]string, 0, len(signatureCalled))
	for sig := range signatureCalled {
		sigs = append(sigs, sig)
	}
	sort.Strings(sigs) // deterministic node creation order

	for _, sig := range sigs {
		callers := signatureCalled[sig]
		synthName := sig + signatureSentinelSuffix
		synth := g.addNode(Node{Name: synthName, Synthetic: true})

		seenCaller := map[int]bool{}
		for _, c := range callers {
			linkOnce(g, c, synth, seenCaller)
		}

		impls := sigToImpls[sig]
		if len(impls) == 0 {
			sink.Warnf(sig, "indirect call has no signature-matched callees")
		}
		seenImpl := map[int]bool{}
		for _, name := range impls {
			if idx, ok := g.IndexOf(name); ok {
				linkOnce(g, synth, idx, seenImpl)
			}
		}
		if hasUntypedExterns {
			linkOnce(g, synth, ensureSentinel(g), seenImpl)
		}
	}
}
