// Package irsummary holds the data model for spec.md §3's "IR
// function summary" and §6's "IR summary" input: the symbolic
// call-relationship information an external frontend has already
// extracted from the compiler's intermediate representation.
//
// Actually decoding embedded compiler IR (LLVM bitcode and the like)
// is explicitly out of scope (spec.md §1); this package's Load reads
// a YAML sidecar document in the same shape, which is what makes the
// engine runnable and testable end to end without a bitcode parser.
package irsummary

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// CalleeKind distinguishes a Direct call (by name) from an Indirect
// one (by signature), per spec.md §3.
type CalleeKind int

const (
	Direct CalleeKind = iota
	Indirect
)

// Callee is one call statement inside a defined function's body.
type Callee struct {
	Kind CalleeKind
	// Name is set when Kind == Direct.
	Name string
	// Sig is set when Kind == Indirect.
	Sig string
}

// Func is one IR-level function: always has a Name and a Signature;
// Defined functions additionally list their call statements.
type Func struct {
	Name     string
	Sig      string
	Defined  bool
	Callees  []Callee

	// ContainsInlineAsm marks a function the frontend knows embeds
	// inline assembly, which spec.md §4.B rule 1 treats specially
	// (the compiler's stack-size pass cannot see into it).
	ContainsInlineAsm bool
}

// Summary is the whole IR summary: every defined and declared
// function spec.md §3/§6 describes.
type Summary struct {
	Defines  []Func
	Declares []Func
}

// yamlDoc mirrors Summary in a shape convenient to hand-write as
// YAML: callees are tagged union strings like "call: memcpy" or
// "callind: fn(i32)->i32".
type yamlDoc struct {
	Defines []struct {
		Name       string   `yaml:"name"`
		Sig        string   `yaml:"sig"`
		Callees    []string `yaml:"callees"`
		InlineAsm  bool     `yaml:"inline_asm"`
	} `yaml:"defines"`
	Declares []struct {
		Name string `yaml:"name"`
		Sig  string `yaml:"sig"`
	} `yaml:"declares"`
}

const (
	directPrefix   = "call:"
	indirectPrefix = "callind:"
)

// Load reads an IR summary from a YAML document.
func Load(r io.Reader) (*Summary, error) {
	var doc yamlDoc
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("irsummary: %w", err)
	}

	var out Summary
	for _, d := range doc.Defines {
		f := Func{Name: d.Name, Sig: d.Sig, Defined: true, ContainsInlineAsm: d.InlineAsm}
		for _, c := range d.Callees {
			switch {
			case len(c) > len(directPrefix) && c[:len(directPrefix)] == directPrefix:
				f.Callees = append(f.Callees, Callee{Kind: Direct, Name: trimPrefixSpace(c, directPrefix)})
			case len(c) > len(indirectPrefix) && c[:len(indirectPrefix)] == indirectPrefix:
				f.Callees = append(f.Callees, Callee{Kind: Indirect, Sig: trimPrefixSpace(c, indirectPrefix)})
			default:
				return nil, fmt.Errorf("irsummary: function %q: callee %q has no call:/callind: tag", d.Name, c)
			}
		}
		out.Defines = append(out.Defines, f)
	}
	for _, d := range doc.Declares {
		out.Declares = append(out.Declares, Func{Name: d.Name, Sig: d.Sig, Defined: false})
	}
	return &out, nil
}

// LoadFile opens and parses path as a YAML IR summary.
func LoadFile(path string) (*Summary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f)
}

func trimPrefixSpace(s, prefix string) string {
	s = s[len(prefix):]
	for len(s) > 0 && s[0] == ' ' {
		s = s[1:]
	}
	return s
}
