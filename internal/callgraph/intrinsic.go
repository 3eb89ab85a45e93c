package callgraph

import "strings"

// intrinsicAction classifies what a direct-call target name should do
// to the graph, spec.md §4.C's intrinsic policy table. Encoding this
// as data rather than inline conditionals follows spec.md §9's design
// note: "adding new intrinsics is a data change."
type intrinsicAction int

const (
	// intrinsicNone means callee isn't a recognized intrinsic at
	// all; resolve it as an ordinary symbol.
	intrinsicNone intrinsicAction = iota
	// intrinsicDrop means no edge is added, silently.
	intrinsicDrop
	// intrinsicDiagnose means no edge is added, but one
	// diagnostic per intrinsic name is emitted.
	intrinsicDiagnose
	// intrinsicRewrite means edges are added to every existing
	// node among a fixed candidate list.
	intrinsicRewrite
	// intrinsicFatal means this is an unhandled compiler
	// intrinsic and no decoder is available to resolve what it
	// lowers to.
	intrinsicFatal
)

const intrinsicPrefix = "llvm."

// noop intrinsics carry no runtime call at all (debug info,
// compiler hints, a trap that lowers to one instruction).
var noopExact = map[string]bool{
	"llvm.dbg.value":                      true,
	"llvm.dbg.declare":                    true,
	"llvm.assume":                         true,
	"llvm.trap":                           true,
	"llvm.experimental.noalias.scope.decl": true,
}

var noopPrefixes = []string{
	"llvm.lifetime.start",
	"llvm.lifetime.end",
}

type rewriteRule struct {
	prefix  string
	targets []string
}

var rewriteRules = []rewriteRule{
	{"llvm.memcpy.", []string{"memcpy", "__aeabi_memcpy", "__aeabi_memcpy4"}},
	{"llvm.memset.", []string{"memset", "__aeabi_memset", "__aeabi_memset4", "memclr", "__aeabi_memclr", "__aeabi_memclr4"}},
	{"llvm.memmove.", []string{"memset", "__aeabi_memset", "__aeabi_memset4", "memclr", "__aeabi_memclr", "__aeabi_memclr4"}},
}

// sideEffectFreePrefixes lists documented side-effect-free arithmetic
// intrinsics that are assumed to lower directly to machine code
// (spec.md §4.C: "emit one diagnostic per intrinsic name").
var sideEffectFreePrefixes = []string{
	"llvm.abs.",
	"llvm.bswap.",
	"llvm.ctlz.",
	"llvm.cttz.",
	"llvm.sadd.with.overflow.",
	"llvm.smul.with.overflow.",
	"llvm.ssub.with.overflow.",
	"llvm.uadd.sat.",
	"llvm.uadd.with.overflow.",
	"llvm.umax.",
	"llvm.umin.",
	"llvm.umul.with.overflow.",
	"llvm.usub.sat.",
	"llvm.usub.with.overflow.",
	"llvm.vector.reduce.",
	"llvm.x86.sse2.pmovmskb.",
}

var sideEffectFreeExact = map[string]bool{
	"llvm.x86.sse2.pause": true,
}

// classifyIntrinsic returns what to do with a direct-call target
// name. hasDecoder reports whether the current target has a
// machine-code decoder available, which decides whether an otherwise
// unrecognized "llvm."-prefixed name is merely dropped (the decoder
// will resolve what it lowers to from the machine code itself) or a
// fatal, unresolvable bug.
func classifyIntrinsic(name string, hasDecoder bool) (intrinsicAction, []string) {
	if noopExact[name] {
		return intrinsicDrop, nil
	}
	for _, p := range noopPrefixes {
		if strings.HasPrefix(name, p) {
			return intrinsicDrop, nil
		}
	}
	for _, r := range rewriteRules {
		if strings.HasPrefix(name, r.prefix) {
			return intrinsicRewrite, r.targets
		}
	}
	for _, p := range sideEffectFreePrefixes {
		if strings.HasPrefix(name, p) {
			return intrinsicDiagnose, nil
		}
	}
	if sideEffectFreeExact[name] {
		return intrinsicDiagnose, nil
	}
	if strings.HasPrefix(name, intrinsicPrefix) {
		if hasDecoder {
			return intrinsicDrop, nil
		}
		return intrinsicFatal, nil
	}
	return intrinsicNone, nil
}
