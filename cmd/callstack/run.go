package main

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/embedded-tools/callstack/internal/callgraph"
	"github.com/embedded-tools/callstack/internal/decode"
	"github.com/embedded-tools/callstack/internal/demangle"
	"github.com/embedded-tools/callstack/internal/diag"
	"github.com/embedded-tools/callstack/internal/graph"
	"github.com/embedded-tools/callstack/internal/irsummary"
	"github.com/embedded-tools/callstack/internal/objfile"
	"github.com/embedded-tools/callstack/internal/render"
	"github.com/embedded-tools/callstack/internal/symtab"
	"github.com/embedded-tools/callstack/internal/target"
)

func run(opts runOptions) error {
	f, err := os.Open(opts.input)
	if err != nil {
		return errors.Wrapf(err, "couldn't open executable %q", opts.input)
	}
	defer f.Close()

	obj, err := objfile.Open(f)
	if err != nil {
		return errors.Wrap(err, "failed to parse executable")
	}

	irPath := opts.ir
	if irPath == "" {
		irPath = strings.TrimSuffix(opts.input, filepath.Ext(opts.input)) + ".yaml"
	}
	if _, statErr := os.Stat(irPath); statErr != nil {
		return errors.Errorf("no IR summary available: neither an embedded IR section nor a sidecar file at %q", irPath)
	}
	ir, err := irsummary.LoadFile(irPath)
	if err != nil {
		return errors.Wrap(err, "failed to load IR summary")
	}

	desc := target.Lookup(opts.target)
	sink := diag.NewSink()

	st, symByName, symOrder, err := buildSymtab(obj, desc, sink)
	if err != nil {
		return err
	}

	decoderFacts := make(map[string]decode.Facts)
	if desc.HasDecoder {
		dec := decode.X86_64{}
		for _, canonical := range symOrder {
			sym := symByName[canonical]
			data, err := obj.SymbolData(sym)
			if err != nil {
				log.Debugf("skipping machine-code decode of %s: %v", canonical, err)
				continue
			}
			if len(data) == 0 {
				continue
			}
			decoderFacts[canonical] = dec.Decode(data, sym.Addr)
		}
	}

	g, err := callgraph.Build(callgraph.BuildInput{
		Symtab:  st,
		IR:      ir,
		Target:  desc,
		Decoder: decoderFacts,
	}, sink)
	if err != nil {
		return err
	}

	if opts.start != "" {
		g = callgraph.FilterToEntry(g, opts.start, demangle.Demangle, sink)
	}

	g.Propagate()
	callgraph.ShortenNames(g, demangle.Demangle)

	for _, d := range sink.All() {
		if d.Severity == diag.Warn {
			log.Warn(d.String())
		} else {
			log.Debug(d.String())
		}
	}

	switch opts.format {
	case "top":
		return render.Top(os.Stdout, g)
	case "dot":
		var cycles [][]int
		for _, comp := range graph.SCCs(g) {
			if graph.IsCyclicComponent(g, comp) {
				cycles = append(cycles, comp)
			}
		}
		return render.Dot(os.Stdout, g, cycles)
	default:
		return errors.Errorf("unknown output format %q (want dot or top)", opts.format)
	}
}

// buildSymtab reads every symbol from obj, groups same-address
// symbols into one symtab.DefinedSymbol (clearing the target's
// address-tag bit first, if any), attaches compiler-reported stack
// usage from the .stack_sizes section, and builds the Symbol & Alias
// Table. It also returns one representative objfile.Sym per canonical
// name (for machine-code decoding) and the canonical names in address
// order.
func buildSymtab(obj objfile.Obj, desc target.Descriptor, sink *diag.Sink) (*symtab.Table, map[string]objfile.Sym, []string, error) {
	syms, err := obj.Symbols()
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, "failed to read symbol table")
	}
	stackSizes, err := obj.StackSizes()
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, "failed to read .stack_sizes section")
	}

	clear := func(addr uint64) uint64 {
		if desc.ClearTagBit {
			return addr &^ 1
		}
		return addr
	}

	type group struct {
		addr  uint64
		names []string
		size  uint64
		rep   objfile.Sym
	}
	groups := make(map[uint64]*group)
	var undefined []string

	for _, s := range syms {
		if s.Kind == objfile.SymUndef {
			undefined = append(undefined, s.Name)
			continue
		}
		addr := clear(s.Addr)
		gr, ok := groups[addr]
		if !ok {
			gr = &group{addr: addr, rep: s}
			groups[addr] = gr
		}
		gr.names = append(gr.names, s.Name)
		if s.Size > gr.size {
			gr.size = s.Size
		}
	}

	addrs := make([]uint64, 0, len(groups))
	for a := range groups {
		addrs = append(addrs, a)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })

	var defs []symtab.DefinedSymbol
	repByAddr := make(map[uint64]objfile.Sym, len(groups))
	for _, a := range addrs {
		gr := groups[a]
		var local *uint64
		if v, ok := stackSizes[a]; ok {
			local = &v
		}
		defs = append(defs, symtab.DefinedSymbol{Address: a, Names: gr.names, Size: gr.size, LocalStack: local})
		repByAddr[a] = gr.rep
	}

	st := symtab.Build(defs, undefined, desc.TagPrefixes, sink)

	symByName := make(map[string]objfile.Sym)
	var order []string
	for _, name := range st.CanonicalNames() {
		addr, _ := st.Addr(name)
		symByName[name] = repByAddr[addr]
		order = append(order, name)
	}

	return st, symByName, order, nil
}
