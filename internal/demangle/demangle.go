// Package demangle implements the two small pure-string transforms
// spec.md treats as an opaque external collaborator (§6 "Demangler:
// pure function string -> string") plus the two related transforms
// spec.md §4.G/§9 describe precisely enough to implement for real:
// dehashing, and (from original_source/) default-trait-method name
// canonicalization.
//
// No demangling library appears anywhere in the retrieved example
// pack (the donor tool's object-file readers only ever print raw
// symbol names), so this is a deliberate, justified stdlib-only seam:
// see DESIGN.md.
package demangle

import (
	"strconv"
	"strings"
)

// Demangle renders name in human-readable form. It understands the
// classic Rust/Itanium "legacy" mangling scheme
// (`_ZN<len>seg<len>seg...17h<16 hex>E`), which is the scheme the
// hash-suffix convention in spec.md §9 assumes. Any name that doesn't
// match that scheme (including already-plain names, which is what
// every concrete scenario in spec.md §8 uses) is returned unchanged.
func Demangle(name string) string {
	rest, ok := strings.CutPrefix(name, "_ZN")
	if !ok {
		return name
	}

	var segs []string
	for len(rest) > 0 {
		if rest[0] == 'E' {
			rest = rest[1:]
			break
		}
		n := 0
		i := 0
		for i < len(rest) && rest[i] >= '0' && rest[i] <= '9' {
			n = n*10 + int(rest[i]-'0')
			i++
		}
		if i == 0 || n == 0 || i+n > len(rest) {
			// Malformed; bail out and return the original.
			return name
		}
		segs = append(segs, rest[i:i+n])
		rest = rest[i+n:]
	}
	if len(segs) == 0 {
		return name
	}
	return strings.Join(segs, "::")
}

const hashLength = 19 // "::h" + 16 hex digits

// Dehash strips a trailing `::h<16 hex digits>` suffix from a
// demangled name, if present, per spec.md §9. It reports false if
// demangled carries no such suffix.
func Dehash(demangled string) (string, bool) {
	if len(demangled) <= hashLength {
		return "", false
	}
	suffix := demangled[len(demangled)-hashLength:]
	if !strings.HasPrefix(suffix, "::h") {
		return "", false
	}
	for _, c := range suffix[3:] {
		if !isHex(c) {
			return "", false
		}
	}
	return demangled[:len(demangled)-hashLength], true
}

func isHex(c rune) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')
}

// DefaultMethodName recognizes a demangled `<Type as Trait>::method`
// name (an `impl Trait for Type` method) and returns "Trait::method",
// the name under which the original tool this module descends from
// collected such methods (to later recognize default-trait-method
// call targets that only ever appear dressed in their Type, not their
// Trait). It reports false for any other shape.
func DefaultMethodName(demangled string) (string, bool) {
	if !strings.HasPrefix(demangled, "<") {
		return "", false
	}
	rhs, ok := cutOnce(demangled, " as ")
	if !ok {
		return "", false
	}
	trait, method, ok := strings.Cut(rhs, ">::")
	if !ok {
		return "", false
	}
	if dehashed, ok := Dehash(method); ok {
		method = dehashed
	}
	return trait + "::" + method, true
}

func cutOnce(s, sep string) (string, bool) {
	i := strings.Index(s, sep)
	if i < 0 {
		return "", false
	}
	return s[i+len(sep):], true
}

// IsOutlinedFunction reports whether name is a compiler-outlined
// helper: the literal prefix "OUTLINED_FUNCTION_" followed by decimal
// digits (spec.md §4.B rule 2, confirmed against
// original_source/src/main.rs's is_outlined_function).
func IsOutlinedFunction(name string) bool {
	rest, ok := strings.CutPrefix(name, "OUTLINED_FUNCTION_")
	if !ok || rest == "" {
		return false
	}
	_, err := strconv.ParseUint(rest, 10, 64)
	return err == nil
}
