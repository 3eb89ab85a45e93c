// Package target holds the small, data-driven table spec.md §6 calls
// the "target descriptor": whether addresses carry a low-bit code
// tag that must be cleared before symbol lookup, and whether a
// machine-code decoder is available at all. Unrecognized targets
// still analyze — just in IR-only mode, per spec.md's Non-goals
// ("analysis of architectures for which no machine-code decoder
// exists... falls back to IR-only information").
package target

// Descriptor describes one compilation target.
type Descriptor struct {
	Name string

	// ClearTagBit strips a low address bit used to mark code
	// symbols (e.g. the ARM Thumb bit) before any address is used
	// as a map key or compared.
	ClearTagBit bool

	// HasDecoder reports whether internal/decode has a concrete
	// machine-code decoder for this target.
	HasDecoder bool

	// TagPrefixes lists compiler-inserted marker-symbol name
	// prefixes (mapping symbols, debug markers, ...) that must
	// never become a canonical alias name (spec.md §3).
	TagPrefixes []string
}

// descriptors is the static table. Unknown target strings resolve to
// unknownDescriptor below.
var descriptors = map[string]Descriptor{
	"x86_64": {
		Name:        "x86_64",
		ClearTagBit: false,
		HasDecoder:  true,
		TagPrefixes: []string{"$a", "$d", "$t", "$x"},
	},
	"thumbv6m": {
		Name:        "thumbv6m",
		ClearTagBit: true,
		HasDecoder:  false,
		TagPrefixes: []string{"$a", "$d", "$t", "$x"},
	},
	"thumbv7m": {
		Name:        "thumbv7m",
		ClearTagBit: true,
		HasDecoder:  false,
		TagPrefixes: []string{"$a", "$d", "$t", "$x"},
	},
}

var unknownDescriptor = Descriptor{
	Name:        "unknown",
	ClearTagBit: false,
	HasDecoder:  false,
	TagPrefixes: []string{"$a", "$d", "$t", "$x"},
}

// Lookup resolves a target triple/name to its Descriptor. An
// unrecognized name is not an error here — only a Decoder request for
// it later is treated specially (IR-only mode), matching spec.md's
// distinction between "unknown architecture when one is required"
// (fatal) and simply having no decoder (degrade gracefully).
func Lookup(name string) Descriptor {
	if d, ok := descriptors[name]; ok {
		return d
	}
	return unknownDescriptor
}
