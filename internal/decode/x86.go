package decode

import (
	"golang.org/x/arch/x86/x86asm"
)

// X86_64 decodes little-endian x86-64 machine code, using the same
// golang.org/x/arch/x86/x86asm decoder the donor tool's
// obj/internal/asm.DisasmX86_64 wraps. Unlike that function — which
// built a full Seq of browsable Inst values for an interactive
// disassembly viewer — this decoder only extracts what the engine
// cares about: call and branch targets, indirect transfers,
// stack-pointer writes, and a fixed frame size.
type X86_64 struct{}

var _ Decoder = X86_64{}

func (X86_64) Decode(text []byte, pc uint64) Facts {
	f := Facts{Decoded: true}

	var frame *uint64
	sawFrameAdjust := false
	irregular := false
	pos := 0
	for pos < len(text) {
		inst, err := x86asm.Decode(text[pos:], 64)
		size := inst.Len
		if err != nil || size == 0 || inst.Op == 0 {
			// An undecodable byte: skip it and keep
			// going, same recovery the donor disassembler
			// uses (a bad single byte shouldn't abort
			// analysis of the rest of the function).
			if size == 0 {
				size = 1
			}
			pos += size
			pc += uint64(size)
			continue
		}

		switch inst.Op {
		case x86asm.CALL:
			if rel, ok := inst.Args[0].(x86asm.Rel); ok {
				target := uint64(int64(pc) + int64(inst.Len) + int64(rel))
				f.Calls = append(f.Calls, target)
			} else {
				f.HasIndirectCall = true
			}
		case x86asm.JMP:
			if rel, ok := inst.Args[0].(x86asm.Rel); ok {
				target := uint64(int64(pc) + int64(inst.Len) + int64(rel))
				f.Branches = append(f.Branches, target)
			} else {
				// An indirect jump never returns to its
				// caller, so it's a tail call for this
				// analysis's purposes (spec.md §4.C
				// treats unresolved control transfer the
				// same whether by CALL or tail-call JMP).
				f.HasIndirectCall = true
			}
		case x86asm.JA, x86asm.JAE, x86asm.JB, x86asm.JBE, x86asm.JCXZ, x86asm.JE, x86asm.JECXZ,
			x86asm.JG, x86asm.JGE, x86asm.JL, x86asm.JLE, x86asm.JNE, x86asm.JNO, x86asm.JNP,
			x86asm.JNS, x86asm.JO, x86asm.JP, x86asm.JRCXZ, x86asm.JS,
			x86asm.LOOP, x86asm.LOOPE, x86asm.LOOPNE:
			if rel, ok := inst.Args[0].(x86asm.Rel); ok {
				target := uint64(int64(pc) + int64(inst.Len) + int64(rel))
				f.Branches = append(f.Branches, target)
			}
		}

		if writesRSP(inst) {
			f.ModifiesSP = true
			// Only the first SP-adjusting instruction in the
			// function is eligible to be "the" prologue
			// allocation; anything else that touches RSP
			// explicitly marks the function as irregular.
			if n, ok := constantSPAdjust(inst); ok && !sawFrameAdjust {
				v := n
				frame = &v
				sawFrameAdjust = true
			} else {
				irregular = true
			}
		}

		pos += size
		pc += uint64(size)
	}

	if sawFrameAdjust && !irregular {
		f.FrameSize = frame
	}
	return f
}

// writesRSP reports whether inst's destination operand is RSP/ESP.
// PUSH, POP, CALL and RET all implicitly adjust RSP too, but that
// adjustment is the expected cost of the call/return protocol itself,
// not a local frame allocation or an irregular stack access — so,
// like the donor's Control() classification of REP-prefixed and
// explicit jump opcodes, only instructions that name RSP as an
// explicit operand are considered here.
func writesRSP(inst x86asm.Inst) bool {
	switch inst.Op {
	case x86asm.MOV, x86asm.LEA, x86asm.ADD, x86asm.SUB, x86asm.AND, x86asm.XCHG:
		if reg, ok := inst.Args[0].(x86asm.Reg); ok {
			return reg == x86asm.RSP || reg == x86asm.ESP
		}
	}
	return false
}

// constantSPAdjust returns the constant byte count a "SUB RSP, imm"
// style instruction subtracts, if inst is exactly that shape.
func constantSPAdjust(inst x86asm.Inst) (uint64, bool) {
	if inst.Op != x86asm.SUB {
		return 0, false
	}
	reg, ok := inst.Args[0].(x86asm.Reg)
	if !ok || (reg != x86asm.RSP && reg != x86asm.ESP) {
		return 0, false
	}
	imm, ok := inst.Args[1].(x86asm.Imm)
	if !ok || imm < 0 {
		return 0, false
	}
	return uint64(imm), true
}
