// Copyright 2018 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package objfile

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/pkg/errors"
)

type elfFile struct {
	elf *elf.File
}

func openElf(r io.ReaderAt) (Obj, error) {
	f, err := elf.NewFile(r)
	if err != nil {
		return nil, err
	}
	return &elfFile{f}, nil
}

func (f *elfFile) Symbols() ([]Sym, error) {
	syms, err := f.elf.Symbols()
	if err != nil {
		return nil, err
	}
	dynSyms, _ := f.elf.DynamicSymbols() // optional; ignore if absent

	var out []Sym
	add := func(s elf.Symbol) {
		kind := SymUnknown
		switch s.Section {
		case elf.SHN_UNDEF:
			kind = SymUndef
		case elf.SHN_COMMON:
			kind = SymBSS
		default:
			if s.Section < 0 || int(s.Section) >= len(f.elf.Sections) {
				return
			}
			sect := f.elf.Sections[s.Section]
			switch sect.Flags & (elf.SHF_WRITE | elf.SHF_ALLOC | elf.SHF_EXECINSTR) {
			case elf.SHF_ALLOC | elf.SHF_EXECINSTR:
				kind = SymText
			case elf.SHF_ALLOC:
				kind = SymROData
			case elf.SHF_ALLOC | elf.SHF_WRITE:
				kind = SymData
			}
		}
		local := elf.ST_BIND(s.Info) == elf.STB_LOCAL
		out = append(out, Sym{s.Name, s.Value, s.Size, kind, local, int(s.Section)})
	}
	for _, s := range syms {
		add(s)
	}
	for _, s := range dynSyms {
		add(s)
	}
	return out, nil
}

func (f *elfFile) SymbolData(s Sym) ([]byte, error) {
	if s.sectionIdx <= 0 || s.sectionIdx >= len(f.elf.Sections) {
		return nil, nil
	}
	sect := f.elf.Sections[s.sectionIdx]
	out := make([]byte, s.Size)
	if s.Addr < sect.Addr {
		return nil, errors.Errorf("symbol %q starts before section %q", s.Name, sect.Name)
	}
	pos := s.Addr - sect.Addr
	if pos >= sect.Size {
		return out, nil
	}
	flen := s.Size
	if flen > sect.Size-pos {
		flen = sect.Size - pos
	}
	_, err := sect.ReadAt(out[:flen], int64(pos))
	return out, err
}

func (f *elfFile) TextBounds() (start, end uint64) {
	sect := f.elf.Section(".text")
	if sect == nil {
		return 0, 0
	}
	return sect.Addr, sect.Addr + sect.Size
}

// StackSizes reads the `.stack_sizes` section LLVM emits with
// -fstack-size-section (and rustc's analogous flag): a flat sequence
// of (8-byte little-endian function address, ULEB128 stack size)
// pairs, one per function that has stack-size info.
func (f *elfFile) StackSizes() (map[uint64]uint64, error) {
	sect := f.elf.Section(".stack_sizes")
	if sect == nil {
		return nil, nil
	}
	data, err := sect.Data()
	if err != nil {
		return nil, err
	}

	out := make(map[uint64]uint64)
	r := bytes.NewReader(data)
	for r.Len() > 0 {
		var addr uint64
		if err := binary.Read(r, binary.LittleEndian, &addr); err != nil {
			return nil, fmt.Errorf(".stack_sizes: truncated address: %w", err)
		}
		size, err := binary.ReadUvarint(r)
		if err != nil {
			return nil, fmt.Errorf(".stack_sizes: truncated size for address %#x: %w", addr, err)
		}
		out[addr] = size
	}
	return out, nil
}
