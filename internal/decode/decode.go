// Package decode implements spec.md §4's machine-code augmentation
// input: given a function's raw bytes, find every call and indirect
// control-transfer instruction, report whether the function writes
// the stack pointer, and find its frame size when that write is a
// single fixed-size prologue adjustment.
//
// It is adapted from the donor tool's obj/internal/asm package, which
// built a general-purpose Seq/Inst/Control abstraction for browsing
// disassembly. That package's Effects() read/write-set machinery
// (register aliasing, for a since-removed interactive disassembly
// browser) has no use here — the engine only needs to follow
// CALL/JMP targets and see whether SP was written — so only the
// Control-flow half survives, generalized into the Facts this engine
// actually consumes.
package decode

// ControlKind classifies one instruction's effect on control flow.
type ControlKind uint8

const (
	ControlNone ControlKind = iota
	ControlCall
	ControlJump
	ControlRet
	// ControlExit is like a call that never returns (e.g. a trap).
	ControlExit
)

// Control is one instruction's control-flow disposition: a direct
// transfer has Target set to the destination address; an indirect
// transfer (through a register or computed address) has Indirect set
// instead.
type Control struct {
	Kind        ControlKind
	Conditional bool
	Target      uint64
	Indirect    bool
}

// Facts is everything the Local-Usage Reconciler (internal/localusage)
// needs from a machine-code decode of one function, spec.md §4.B:
// whether the decoder could make sense of the bytes at all, whether
// it observed the stack pointer being modified, and the fixed frame
// size if the function's prologue does a single constant-size
// adjustment and nothing else touches SP.
type Facts struct {
	// Decoded is false if the decoder gave up entirely (unknown
	// architecture, or a byte sequence it couldn't make sense
	// of); every other field is meaningless when false.
	Decoded bool

	// ModifiesSP is true if any instruction, the prologue
	// adjustment included, names the stack pointer as its
	// destination operand.
	ModifiesSP bool

	// FrameSize is the constant byte count subtracted from the
	// stack pointer in the prologue, if the decoder found
	// exactly one such adjustment and no other SP write. An
	// epilogue that adds the frame back counts as another SP
	// write, so such a function gets no FrameSize. nil
	// means "decoder ran, but could not establish a fixed frame
	// size" (spec.md §4.B rule 6 distinguishes this from
	// Decoded == false).
	FrameSize *uint64

	// Calls lists every direct call-like branch target address
	// found in the function body (machine-code augmentation,
	// spec.md §4.C rule 2's "call-like branch target offsets").
	Calls []uint64

	// Branches lists every direct plain-branch (conditional or
	// unconditional jump) target address, which spec.md §4.C rule
	// 5 treats as an intra-function jump if it lands inside the
	// function's own extent, or otherwise as a call.
	Branches []uint64

	// HasIndirectCall is true if the function contains a CALL or
	// JMP through a register or computed address — a tail-call
	// jump is treated the same as a call, since control does not
	// return to the caller either way.
	HasIndirectCall bool
}

// Decoder disassembles one function's raw instruction bytes.
type Decoder interface {
	// Decode analyzes text, the bytes of a function starting at
	// address pc, and returns what was learned about it.
	Decode(text []byte, pc uint64) Facts
}

// noopDecoder reports Decoded: false for every function — used for
// targets spec.md §1 puts out of scope for machine-code augmentation
// (ARM/Thumb in this engine's IR-only mode), where the Local-Usage
// Reconciler must fall back to the compiler-reported local usage
// from the symbol table alone.
type noopDecoder struct{}

func (noopDecoder) Decode([]byte, uint64) Facts { return Facts{} }

// Noop is a Decoder that never decodes anything.
var Noop Decoder = noopDecoder{}
