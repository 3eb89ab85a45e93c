// Package callgraph implements spec.md §4.C, §4.D, §4.F and §4.G: it
// builds one node per live canonical symbol, wires direct and
// indirect call edges (with intrinsic rewriting and machine-code
// augmentation), resolves indirect calls through synthetic
// per-signature nodes, restricts the graph to an entry point's
// reachable subgraph, and shortens display names once propagation
// (internal/boundprop) is done.
//
// It is grounded on the donor tool's own notion of a node/edge model
// (obj/internal/graph.Graph) generalized from a plain directed graph
// into one carrying the domain attributes spec.md §3's Node and Edge
// data model calls for.
package callgraph

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/embedded-tools/callstack/internal/bound"
	"github.com/embedded-tools/callstack/internal/decode"
	"github.com/embedded-tools/callstack/internal/demangle"
	"github.com/embedded-tools/callstack/internal/diag"
	"github.com/embedded-tools/callstack/internal/graph"
	"github.com/embedded-tools/callstack/internal/irsummary"
	"github.com/embedded-tools/callstack/internal/localusage"
	"github.com/embedded-tools/callstack/internal/symtab"
	"github.com/embedded-tools/callstack/internal/target"
)

// UnknownSentinelName is the synthetic node standing in for "callee
// set cannot be determined" (spec.md §3's sentinel "unknown
// function").
const UnknownSentinelName = "?"

// Node is one function or synthetic call site.
type Node struct {
	// Name is the canonical name for a real function, or a
	// synthetic label ("?", or "<signature>*") for a synthetic
	// node.
	Name string

	// Display is the name external writers should print. It
	// starts out equal to Name and is only ever changed by the
	// Name Shortener (spec.md §4.G).
	Display string

	Local     bound.Local
	Bound     bound.Max
	Synthetic bool
}

// Graph is the call graph: one node per live symbol (plus synthetic
// nodes), one outgoing edge set per node.
type Graph struct {
	Nodes []Node
	out   [][]int
	index map[string]int
}

var _ graph.Graph = (*Graph)(nil)

func (g *Graph) NumNodes() int   { return len(g.Nodes) }
func (g *Graph) Out(i int) []int { return g.out[i] }

// IndexOf returns the node index for name, if present.
func (g *Graph) IndexOf(name string) (int, bool) {
	i, ok := g.index[name]
	return i, ok
}

func (g *Graph) addNode(n Node) int {
	id := len(g.Nodes)
	n.Display = n.Name
	g.Nodes = append(g.Nodes, n)
	g.out = append(g.out, nil)
	g.index[n.Name] = id
	return id
}

func (g *Graph) addEdge(from, to int) {
	for _, e := range g.out[from] {
		if e == to {
			return
		}
	}
	g.out[from] = append(g.out[from], to)
}

// BuildInput bundles everything spec.md §4.C's Call-Graph Builder
// consumes.
type BuildInput struct {
	Symtab *symtab.Table
	IR     *irsummary.Summary
	Target target.Descriptor

	// Decoder supplies a function's machine-code facts, keyed by
	// canonical name, for every defined symbol a decoder ran
	// over. A missing entry means no decoder ran for that symbol
	// (IR-only mode, or the target has no decoder at all).
	Decoder map[string]decode.Facts
}

// Build runs Components C and D: it creates one node per canonical
// symbol, wires direct/indirect IR calls (with intrinsic rewriting)
// and machine-code augmentation edges, then resolves every indirect
// call site through a synthetic per-signature node. The returned
// graph is ready for 4.F (optional) and then 4.E.
func Build(in BuildInput, sink *diag.Sink) (*Graph, error) {
	g := &Graph{index: make(map[string]int)}

	// One node per canonical symbol (spec.md §4.C: "Creates one
	// node per canonical symbol").
	for _, name := range in.Symtab.CanonicalNames() {
		g.addNode(Node{Name: name})
	}

	declSigs := make(map[string]string) // declared function name -> signature
	for _, f := range in.IR.Declares {
		declSigs[f.Name] = f.Sig
	}

	// signatureCalled records, for every signature an indirect
	// call site targets, the callers that reach it.
	signatureCalled := make(map[string][]int)
	// sigToImpls maps each IR signature to every defined or declared
	// function carrying it; resolveIndirectCalls looks up the called
	// signatures in it.
	sigToImpls := make(map[string][]string)
	for _, f := range in.IR.Defines {
		sigToImpls[f.Sig] = append(sigToImpls[f.Sig], f.Name)
	}
	for _, f := range in.IR.Declares {
		sigToImpls[f.Sig] = append(sigToImpls[f.Sig], f.Name)
	}

	var hasUntypedExterns bool
	for _, name := range in.Symtab.CanonicalNames() {
		if _, declared := declSigs[name]; declared {
			continue
		}
		if demangle.IsOutlinedFunction(name) {
			// A compiler-outlined helper is never the target of a
			// function pointer, so its untyped IR signature must
			// not force every indirect-call site to fall back to
			// the unknown-callee sentinel.
			continue
		}
		if !isDefinedInIR(in.IR, name) {
			hasUntypedExterns = true
			break
		}
	}

	// diagnosedIntrinsics dedups the "assuming %q directly lowers to
	// machine code" diagnostic so a side-effect-free intrinsic called
	// from many functions reports once, not once per call site
	// (spec.md §4.C: "drop, emit one diagnostic per intrinsic name"),
	// matching the original tool's llvm_seen: HashSet<&str>.
	diagnosedIntrinsics := map[string]bool{}
	augmented := map[string]bool{}

	for _, f := range in.IR.Defines {
		canonical, ok := in.Symtab.Canonical(f.Name)
		if !ok {
			// Removed by link-time garbage collection: spec.md
			// §4.C says to skip these.
			continue
		}
		caller, ok := g.IndexOf(canonical)
		if !ok {
			continue
		}

		seen := map[int]bool{}
		for _, callee := range f.Callees {
			switch callee.Kind {
			case irsummary.Direct:
				if err := addDirectEdge(g, in.Symtab, caller, callee.Name, in.Target, seen, diagnosedIntrinsics, sink); err != nil {
					return nil, err
				}
			case irsummary.Indirect:
				signatureCalled[callee.Sig] = append(signatureCalled[callee.Sig], caller)
			}
		}

		if facts, ok := in.Decoder[canonical]; ok {
			augmented[canonical] = true
			if err := augmentWithMachineCode(g, in.Symtab, caller, canonical, facts, f.Defined, in.Target, seen); err != nil {
				return nil, err
			}
		}
	}

	// Defined symbols with no IR body get machine-code edges too; an
	// indirect call in one of them links to the unknown-callee sentinel.
	for _, name := range in.Symtab.CanonicalNames() {
		facts, ok := in.Decoder[name]
		if !ok || augmented[name] {
			continue
		}
		caller, _ := g.IndexOf(name)
		if err := augmentWithMachineCode(g, in.Symtab, caller, name, facts, false, in.Target, map[int]bool{}); err != nil {
			return nil, err
		}
	}

	resolveIndirectCalls(g, sigToImpls, signatureCalled, hasUntypedExterns, sink)

	// Local usage, per node: real functions get the Local-Usage
	// Reconciler's verdict; synthetic nodes are Exact(0) (spec.md
	// §4.D: "Synthetic nodes have local usage Exact(0)").
	irByName := make(map[string]irsummary.Func)
	for _, f := range in.IR.Defines {
		irByName[f.Name] = f
	}
	for i := range g.Nodes {
		n := &g.Nodes[i]
		if n.Synthetic {
			n.Local = bound.Exact(0)
			continue
		}
		var compiler *uint64
		if v, ok := in.Symtab.Stack(n.Name); ok {
			compiler = &v
		}
		var inlineAsm bool
		if f, ok := irByName[n.Name]; ok {
			inlineAsm = f.ContainsInlineAsm
		}
		n.Local = localusage.Reconcile(localusage.Input{
			Name:              n.Name,
			Compiler:          compiler,
			ContainsInlineAsm: inlineAsm,
			Decoder:           in.Decoder[n.Name],
		}, sink)
	}

	return g, nil
}

func isDefinedInIR(ir *irsummary.Summary, name string) bool {
	for _, f := range ir.Defines {
		if f.Name == name {
			return true
		}
	}
	return false
}

// ensureSentinel returns the index of the shared unknown-callee
// sentinel node, creating it on first use.
func ensureSentinel(g *Graph) int {
	if i, ok := g.IndexOf(UnknownSentinelName); ok {
		return i
	}
	return g.addNode(Node{Name: UnknownSentinelName, Synthetic: true})
}

func addDirectEdge(g *Graph, st *symtab.Table, caller int, callee string, t target.Descriptor, seen map[int]bool, diagnosedIntrinsics map[string]bool, sink *diag.Sink) error {
	action, rewritten := classifyIntrinsic(callee, t.HasDecoder)
	switch action {
	case intrinsicDrop:
		return nil
	case intrinsicFatal:
		return errors.Errorf("unhandled intrinsic call %q with no machine-code decoder available to resolve it", callee)
	case intrinsicDiagnose:
		if !diagnosedIntrinsics[callee] {
			diagnosedIntrinsics[callee] = true
			sink.Warnf(callee, "assuming %q directly lowers to machine code", callee)
		}
		return nil
	case intrinsicRewrite:
		for _, dest := range rewritten {
			if idx, ok := g.IndexOf(dest); ok {
				linkOnce(g, caller, idx, seen)
			}
		}
		return nil
	}

	if callee == "memcmp" {
		if _, ok := g.IndexOf(callee); !ok {
			// Symbol-less intrinsic with no corresponding node:
			// assume it lowered directly to machine code.
			return nil
		}
	}

	canonical, ok := st.Canonical(callee)
	if !ok {
		if st.IsUndefined(callee) {
			// A known external with no body in this image
			// (e.g. provided by a not-statically-linked
			// runtime piece); nothing to link to.
			return nil
		}
		return errors.Errorf("call target %q resolves to neither a known symbol nor the undefined-symbols list", callee)
	}
	idx, ok := g.IndexOf(canonical)
	if !ok {
		return errors.Errorf("call target %q canonicalized to %q, which has no graph node", callee, canonical)
	}
	linkOnce(g, caller, idx, seen)
	return nil
}

func linkOnce(g *Graph, caller, callee int, seen map[int]bool) {
	if seen[callee] {
		return
	}
	seen[callee] = true
	g.addEdge(caller, callee)
}

// augmentWithMachineCode implements spec.md §4.C's machine-code
// augmentation step 1 (extent inference, via functionExtentEnd) and
// steps 4-6. The decode itself (step 2) runs in the driver, and Build
// feeds the decoder's local-usage facts to the reconciler (step 3).
func augmentWithMachineCode(g *Graph, st *symtab.Table, caller int, canonical string, facts decode.Facts, irDefined bool, t target.Descriptor, seen map[int]bool) error {
	addr, _ := st.Addr(canonical)
	extentEnd := functionExtentEnd(st, canonical, addr)

	for _, callTarget := range facts.Calls {
		if err := linkMachineCodeTarget(g, st, caller, callTarget, seen); err != nil {
			return err
		}
	}
	for _, br := range facts.Branches {
		if br >= addr && br < extentEnd {
			continue // intra-function control flow
		}
		if err := linkMachineCodeTarget(g, st, caller, br, seen); err != nil {
			return err
		}
	}
	if facts.HasIndirectCall && !irDefined {
		linkOnce(g, caller, ensureSentinel(g), seen)
	}
	return nil
}

func linkMachineCodeTarget(g *Graph, st *symtab.Table, caller int, addr uint64, seen map[int]bool) error {
	name, ok := st.CanonicalAt(addr)
	if !ok {
		return errors.Errorf("machine-code branch target %#x has no symbol", addr)
	}
	idx, ok := g.IndexOf(name)
	if !ok {
		return errors.Errorf("machine-code branch target %#x resolved to %q, which has no graph node", addr, name)
	}
	linkOnce(g, caller, idx, seen)
	return nil
}

// functionExtentEnd implements spec.md §4.C rule 1: if the reported
// size is zero, infer the extent from the next symbol's address
// (spec.md §9's recommended resolution for the "size 0, no tag"
// open question — here every function has at least the next symbol
// as an upper bound).
func functionExtentEnd(st *symtab.Table, canonical string, addr uint64) uint64 {
	if size, ok := st.Size(canonical); ok && size != 0 {
		return addr + size
	}
	names := st.CanonicalNames() // address order
	idx := sort.Search(len(names), func(i int) bool {
		a, _ := st.Addr(names[i])
		return a > addr
	})
	if idx < len(names) {
		next, _ := st.Addr(names[idx])
		return next
	}
	return addr + 1
}
