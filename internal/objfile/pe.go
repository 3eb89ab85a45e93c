// Copyright 2018 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package objfile

import (
	"debug/pe"
	"io"
	"sort"

	"github.com/pkg/errors"
)

type peFile struct {
	pe        *pe.File
	imageBase uint64
}

func openPE(r io.ReaderAt) (Obj, error) {
	f, err := pe.NewFile(r)
	if err != nil {
		return nil, err
	}

	var imageBase uint64
	switch oh := f.OptionalHeader.(type) {
	case *pe.OptionalHeader32:
		imageBase = uint64(oh.ImageBase)
	case *pe.OptionalHeader64:
		imageBase = oh.ImageBase
	default:
		return nil, errors.New("objfile: PE header has unexpected type")
	}

	return &peFile{f, imageBase}, nil
}

func (f *peFile) Symbols() ([]Sym, error) {
	const (
		imageSymUndefined = 0
		imageSymAbsolute  = -1
		imageSymDebug     = -2

		imageSymClassStatic = 3

		imageSCNCntCode             = 0x20
		imageSCNCntInitializedData  = 0x40
		imageSCNCntUninitData       = 0x80
		imageSCNMemWrite            = 0x80000000
	)

	var out []Sym
	for _, s := range f.pe.Symbols {
		sym := Sym{s.Name, uint64(s.Value), 0, SymUnknown, false, int(s.SectionNumber)}
		switch s.SectionNumber {
		case imageSymUndefined:
			sym.Kind = SymUndef
		case imageSymAbsolute, imageSymDebug:
			// Leave unknown.
		default:
			idx := int(s.SectionNumber) - 1
			if idx < 0 || idx >= len(f.pe.Sections) {
				continue
			}
			sect := f.pe.Sections[idx]
			c := sect.Characteristics
			switch {
			case c&imageSCNCntCode != 0:
				sym.Kind = SymText
			case c&imageSCNCntInitializedData != 0:
				if c&imageSCNMemWrite != 0 {
					sym.Kind = SymData
				} else {
					sym.Kind = SymROData
				}
			case c&imageSCNCntUninitData != 0:
				sym.Kind = SymBSS
			}
			sym.Local = s.StorageClass == imageSymClassStatic
			sym.Addr += f.imageBase + uint64(sect.VirtualAddress)
		}
		out = append(out, sym)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Addr < out[j].Addr })
	for i := range out {
		if i+1 < len(out) && out[i].sectionIdx == out[i+1].sectionIdx {
			out[i].Size = out[i+1].Addr - out[i].Addr
			continue
		}
		if out[i].sectionIdx-1 < 0 || out[i].sectionIdx-1 >= len(f.pe.Sections) {
			continue
		}
		sect := f.pe.Sections[out[i].sectionIdx-1]
		out[i].Size = uint64(sect.VirtualAddress) + uint64(sect.VirtualSize) - out[i].Addr
	}

	return out, nil
}

func (f *peFile) SymbolData(s Sym) ([]byte, error) {
	if s.sectionIdx <= 0 || s.sectionIdx-1 >= len(f.pe.Sections) {
		return nil, nil
	}
	sect := f.pe.Sections[s.sectionIdx-1]
	if s.Addr < uint64(sect.VirtualAddress) {
		return nil, errors.Errorf("symbol %q starts before section %q", s.Name, sect.Name)
	}
	out := make([]byte, s.Size)
	pos := s.Addr - (f.imageBase + uint64(sect.VirtualAddress))
	if pos >= uint64(sect.Size) {
		return out, nil
	}
	flen := s.Size
	if flen > uint64(sect.Size)-pos {
		flen = uint64(sect.Size) - pos
	}
	_, err := sect.ReadAt(out[:flen], int64(pos))
	return out, err
}

func (f *peFile) TextBounds() (start, end uint64) {
	for _, sect := range f.pe.Sections {
		if sect.Name == ".text" {
			start = f.imageBase + uint64(sect.VirtualAddress)
			return start, start + uint64(sect.VirtualSize)
		}
	}
	return 0, 0
}

func (f *peFile) StackSizes() (map[uint64]uint64, error) {
	// PE toolchains this project targets don't emit a
	// .stack_sizes-equivalent section; every function simply has
	// no compiler-reported local usage, same as an ELF file built
	// without -fstack-size-section.
	return nil, nil
}
