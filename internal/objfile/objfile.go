// Copyright 2018 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package objfile reads the parts of a statically linked executable
// the stack-usage engine needs: its symbol table, section data for a
// given symbol (so the decoder has bytes to disassemble), and the
// compiler-emitted per-function stack-size records. Everything here
// is the "read the binary" external collaborator spec.md §1 and §6
// treat as out of scope for the engine itself — the engine only ever
// sees the plain data this package hands it.
package objfile

import (
	"fmt"
	"io"
)

// Sym is one raw symbol-table entry. Several Syms may share an
// Addr — that's exactly the alias situation internal/symtab resolves.
type Sym struct {
	Name        string
	Addr, Size  uint64
	Kind        SymKind
	Local       bool
	sectionIdx  int
}

type SymKind uint8

const (
	SymUnknown SymKind = '?'
	SymText            = 'T'
	SymData            = 'D'
	SymROData          = 'R'
	SymBSS             = 'B'
	SymUndef           = 'U'
)

// Obj is a statically linked executable opened for analysis.
type Obj interface {
	// Symbols returns every symbol-table entry, defined and
	// undefined: in file order for ELF, sorted by address for PE.
	Symbols() ([]Sym, error)

	// SymbolData returns the bytes backing s, read from its
	// section. It is empty (not an error) for a symbol with no
	// section (e.g. undefined).
	SymbolData(s Sym) ([]byte, error)

	// StackSizes returns the compiler-reported local stack usage
	// per function address, read from a `.stack_sizes` section if
	// present (the LLVM -fstack-size-section / Rust
	// `-Z emit-stack-sizes` convention the original tool this
	// module descends from relies on). A nil map means the
	// executable carries no such section — every function's
	// compiler-reported usage is then absent, same as
	// spec.md §3 Local = Unknown before reconciliation.
	StackSizes() (map[uint64]uint64, error)

	// TextBounds returns the address range of the ".text" section,
	// or (0, 0) if there is none. The zero-sized-symbol extent
	// inference in internal/callgraph does not use it; it uses the
	// next symbol's address instead.
	TextBounds() (start, end uint64)
}

// Open attempts to open r as a known object file format.
func Open(r io.ReaderAt) (Obj, error) {
	if f, err := openElf(r); err == nil {
		return f, nil
	}
	if f, err := openPE(r); err == nil {
		return f, nil
	}
	return nil, fmt.Errorf("objfile: unrecognized object file format")
}
