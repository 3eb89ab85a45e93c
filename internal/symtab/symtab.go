// Package symtab implements spec.md §4.A, the Symbol & Alias Table:
// canonicalizing the symbols that share one address into a single
// name, and indexing the result by name and by address. It is
// adapted from the donor tool's obj/internal/symtab.Table, which only
// ever indexed one name per address — here every alias is tracked,
// since disambiguating aliases is this component's whole job.
package symtab

import (
	"sort"
	"strings"

	"github.com/embedded-tools/callstack/internal/diag"
)

// DefinedSymbol is one (address, names, size, local stack usage)
// entry from the external symbol table, spec.md §6's shape exactly:
// every alias of one address arrives together, already grouped, with
// one shared reported size and local-stack value (or none).
type DefinedSymbol struct {
	Address     uint64
	Names       []string
	Size        uint64
	LocalStack  *uint64
}

// Table is the result of canonicalizing a symbol table: aliases
// collapse to one canonical name, indexed by name and by address.
type Table struct {
	// aliasOf maps every alias (including the canonical name
	// itself) to its canonical name.
	aliasOf map[string]string

	// addrOf maps a canonical name back to its address, and
	// canonicalAt maps an address to its canonical name — spec.md
	// §3's invariant "two distinct addresses never share a
	// canonical name" holds because each map entry is created from
	// exactly one DefinedSymbol.
	addrOf      map[string]uint64
	canonicalAt map[uint64]string

	// stackOf is the reported local stack usage, keyed by any
	// alias (spec.md §4.A output (iii)). Because the external
	// interface attaches one local_stack value to the whole
	// (address, names) group (spec.md §6), every alias of one
	// address always maps to the same value here — this is what
	// structurally avoids the "only one alias is in the
	// stack-size table" bug spec.md §9's Open Question (i)
	// describes in the donor tool's original Rust implementation,
	// where the stack-size table was built independently by name
	// and could disagree with the linker's alias grouping.
	stackOf map[string]uint64

	// sizeOf is the reported size of each canonical symbol, keyed
	// by canonical name. Component A's output contract (spec.md
	// §4.A) doesn't list this, but the Call-Graph Builder's
	// machine-code augmentation (spec.md §4.C rule 1, "determine
	// function extent") needs it to tell a real zero-size symbol
	// from one whose extent must be inferred from the next
	// symbol's address — so the table carries it through rather
	// than forcing every caller to re-derive it from the raw
	// DefinedSymbol list.
	sizeOf map[string]uint64

	// undefined is the normalized (de-versioned) set of undefined
	// symbol names.
	undefined map[string]bool

	// order preserves the address-ascending order canonical names
	// were created in, for deterministic iteration (e.g. tests,
	// and stable output ordering downstream).
	order []string
}

// Build canonicalizes defined into a Table, normalizes undefined
// names, and reports a diagnostic for any defined symbol whose every
// name is a tag (so it contributes nothing to the table).
//
// tagPrefixes lists name prefixes that mark a compiler region tag
// (e.g. "$a", "$d", "$t", "$x" for ARM mapping symbols) — spec.md §3:
// "Tag names ... are filtered out and never become canonical."
func Build(defined []DefinedSymbol, undefined []string, tagPrefixes []string, sink *diag.Sink) *Table {
	t := &Table{
		aliasOf:     make(map[string]string),
		addrOf:      make(map[string]uint64),
		canonicalAt: make(map[uint64]string),
		stackOf:     make(map[string]uint64),
		sizeOf:      make(map[string]uint64),
		undefined:   make(map[string]bool),
	}

	sorted := append([]DefinedSymbol(nil), defined...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Address < sorted[j].Address })

	for _, d := range sorted {
		var names []string
		for _, n := range d.Names {
			if !isTag(n, tagPrefixes) {
				names = append(names, n)
			}
		}
		if len(names) == 0 {
			if len(d.Names) > 0 {
				sink.Infof(d.Names[0], "address %#x has only tag names; skipped", d.Address)
			}
			continue
		}

		canonical := names[0]
		if _, exists := t.canonicalAt[d.Address]; exists {
			// Same address reported twice by the caller;
			// keep the first and fold the rest in as
			// aliases too.
			canonical = t.canonicalAt[d.Address]
		} else {
			t.canonicalAt[d.Address] = canonical
			t.addrOf[canonical] = d.Address
			t.order = append(t.order, canonical)
			t.sizeOf[canonical] = d.Size
			if d.LocalStack != nil {
				for _, n := range names {
					t.stackOf[n] = *d.LocalStack
				}
			}
		}
		for _, n := range names {
			t.aliasOf[n] = canonical
		}
	}

	for _, u := range undefined {
		t.undefined[normalizeUndefined(u)] = true
	}

	return t
}

// normalizeUndefined discards any versioning suffix after a "@@"
// marker, spec.md §4.A.
func normalizeUndefined(name string) string {
	if i := strings.LastIndex(name, "@@"); i >= 0 {
		return name[:i]
	}
	return name
}

func isTag(name string, prefixes []string) bool {
	for _, p := range prefixes {
		if name == p || strings.HasPrefix(name, p+".") {
			return true
		}
	}
	return false
}

// Canonical resolves any alias (or canonical name itself) to its
// canonical name.
func (t *Table) Canonical(name string) (string, bool) {
	c, ok := t.aliasOf[name]
	return c, ok
}

// CanonicalAt resolves an address to the canonical name of the symbol
// at that address.
func (t *Table) CanonicalAt(addr uint64) (string, bool) {
	c, ok := t.canonicalAt[addr]
	return c, ok
}

// Addr returns the address of a canonical name.
func (t *Table) Addr(canonical string) (uint64, bool) {
	a, ok := t.addrOf[canonical]
	return a, ok
}

// Stack returns the reported local stack usage for any alias of a
// symbol, if known.
func (t *Table) Stack(name string) (uint64, bool) {
	v, ok := t.stackOf[name]
	return v, ok
}

// Size returns the reported size of a canonical symbol.
func (t *Table) Size(canonical string) (uint64, bool) {
	v, ok := t.sizeOf[canonical]
	return v, ok
}

// IsUndefined reports whether name (already normalized) is in the
// undefined-symbols list.
func (t *Table) IsUndefined(name string) bool {
	return t.undefined[name]
}

// CanonicalNames returns every canonical name, in address order.
func (t *Table) CanonicalNames() []string {
	return t.order
}
