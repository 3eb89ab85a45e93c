// Package localusage implements spec.md §4.B, the Local-Usage
// Reconciler: merging a compiler-reported frame size with a
// decoder-reported (frame-size, modifies-sp) pair into the single
// Local value the rest of the engine works with.
package localusage

import (
	"github.com/embedded-tools/callstack/internal/bound"
	"github.com/embedded-tools/callstack/internal/decode"
	"github.com/embedded-tools/callstack/internal/demangle"
	"github.com/embedded-tools/callstack/internal/diag"
)

// Input bundles the two independent sources of evidence about one
// function's stack frame, spec.md §4.B.
type Input struct {
	// Name is the function's canonical name; used to recognize
	// compiler-outlined helpers (rule 2) and as the diagnostic
	// subject.
	Name string

	// Compiler is the compiler-reported local stack usage, nil if
	// the symbol table carried none.
	Compiler *uint64

	// ContainsInlineAsm marks a function the frontend knows
	// embeds inline assembly, which the compiler's stack-size
	// pass cannot see into (rule 1).
	ContainsInlineAsm bool

	// Decoder is the machine-code decoder's verdict for this
	// function, or the zero value (Decoded: false) if no decoder
	// ran.
	Decoder decode.Facts
}

// Reconcile applies spec.md §4.B's six resolution rules, in order,
// and returns the function's Local value. Any diagnostic the rules
// call for is recorded on sink under in.Name.
func Reconcile(in Input, sink *diag.Sink) bound.Local {
	compiler := in.Compiler
	var decoderFrame *uint64
	if in.Decoder.Decoded {
		decoderFrame = in.Decoder.FrameSize
	}

	switch {
	case compiler != nil && decoderFrame != nil && *compiler != *decoderFrame:
		// Rules 1-3 all concern disagreement between the two
		// sources; they differ only in whether a diagnostic is
		// emitted, not in which value wins — the decoder always
		// wins a disagreement.
		switch {
		case in.ContainsInlineAsm:
			// Rule 1: no diagnostic, the compiler's pass is
			// known to be blind here.
		case demangle.IsOutlinedFunction(in.Name) && *compiler == 0 && *decoderFrame != 0:
			// Rule 2: no diagnostic, this is the expected
			// shape of an outlined helper.
		default:
			// Rule 3.
			sink.Warnf(in.Name, "compiler-reported local usage %d disagrees with decoder-reported %d; using decoder", *compiler, *decoderFrame)
		}
		return crossCheck(in, bound.Exact(*decoderFrame), sink)

	case compiler != nil:
		// Rule 4, compiler side.
		return crossCheck(in, bound.Exact(*compiler), sink)

	case decoderFrame != nil:
		// Rule 4, decoder side.
		return crossCheck(in, bound.Exact(*decoderFrame), sink)

	case in.Decoder.Decoded && !in.Decoder.ModifiesSP && onlyIntraFunctionBranches(in.Decoder):
		// Rule 6: decoder ran, found no fixed frame, saw no
		// stack-pointer modification, and every branch it found
		// stays inside the function — a true leaf with no extra
		// frame.
		return bound.Exact(0)

	default:
		sink.Warnf(in.Name, "no local stack usage information available")
		return bound.Unknown
	}
}

// onlyIntraFunctionBranches reports whether the decoder found no
// direct calls and no indirect call/jump. Rule 6 only applies to such
// a function, since otherwise there would be real callees to account
// for. Direct jump targets (Facts.Branches) are not checked against
// the function's extent, so a direct tail-call jump to another
// function does not disqualify it.
func onlyIntraFunctionBranches(f decode.Facts) bool {
	return len(f.Calls) == 0 && !f.HasIndirectCall
}

// crossCheck implements rule 5: local != 0 iff modifies_sp, checked
// whenever the decoder actually ran (the flag is meaningless
// otherwise). It never changes the resolved value — spec.md §4.B
// only calls for a diagnostic, not an override.
func crossCheck(in Input, local bound.Local, sink *diag.Sink) bound.Local {
	if !in.Decoder.Decoded {
		return local
	}
	nonzero := local.IsExact() && local.Value() != 0
	if nonzero != in.Decoder.ModifiesSP {
		sink.Warnf(in.Name, "local usage %s disagrees with decoder's modifies-sp=%v", local, in.Decoder.ModifiesSP)
	}
	return local
}
