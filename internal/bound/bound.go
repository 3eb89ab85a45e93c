// Package bound centralizes the two tagged numeric types spec.md §3
// and §9 describe — Local (a function's own frame) and Max (a
// transitive bound) — and their arithmetic, in one place, so the
// "Unknown/LowerBound is sticky" contamination rule spec.md §9 calls
// for cannot be circumvented by some caller doing plain integer math
// instead.
package bound

import "fmt"

// Local is a function's own stack usage: known exactly, or entirely
// unknown (spec.md §3).
type Local struct {
	known bool
	n     uint64
}

// Exact returns a Local known to use exactly n bytes.
func Exact(n uint64) Local { return Local{known: true, n: n} }

// Unknown is a Local with no information available.
var Unknown = Local{}

// IsExact reports whether l is a known value.
func (l Local) IsExact() bool { return l.known }

// Value returns the known value. It panics if !l.IsExact(); callers
// must check first, the same discipline Rust's Option forces in the
// source this engine is descended from.
func (l Local) Value() uint64 {
	if !l.known {
		panic("bound: Value of Unknown Local")
	}
	return l.n
}

func (l Local) String() string {
	if !l.known {
		return "?"
	}
	return fmt.Sprintf("%d", l.n)
}

// ToMax lifts a Local into a Max: Exact(n) becomes Max Exact(n);
// Unknown becomes LowerBound(0), since an unknown local usage
// contributes 0 to the numeric lower bound but must still contaminate
// anything that adds it (spec.md §3 arithmetic table).
func (l Local) ToMax() Max {
	if l.known {
		return Max{exact: true, n: l.n}
	}
	return Max{exact: false, n: 0}
}

// Max is a transitive bound: a tight worst case, or a lower bound
// that may be an underestimate (spec.md §3).
type Max struct {
	exact bool
	n     uint64
}

// ExactMax returns a Max known to be exactly n.
func ExactMax(n uint64) Max { return Max{exact: true, n: n} }

// LowerBoundMax returns a Max known only to be at least n.
func LowerBoundMax(n uint64) Max { return Max{exact: false, n: n} }

// IsExact reports whether m is a tight bound.
func (m Max) IsExact() bool { return m.exact }

// Value returns the numeric bound, whether exact or a lower bound.
func (m Max) Value() uint64 { return m.n }

func (m Max) String() string {
	if m.exact {
		return fmt.Sprintf("= %d", m.n)
	}
	return fmt.Sprintf(">= %d", m.n)
}

// AddLocal implements spec.md §3's arithmetic table for Max + Local:
// any Unknown operand contaminates the result to LowerBound; an
// Unknown Local contributes 0 to the numeric value.
func (m Max) AddLocal(l Local) Max {
	if m.exact && l.known {
		return Max{exact: true, n: m.n + l.n}
	}
	n := m.n
	if l.known {
		n += l.n
	}
	return Max{exact: false, n: n}
}

// Add implements Max + Max: Exact+Exact=Exact; any LowerBound operand
// contaminates the result.
func (m Max) Add(o Max) Max {
	if m.exact && o.exact {
		return Max{exact: true, n: m.n + o.n}
	}
	return Max{exact: false, n: m.n + o.n}
}

// Max2 returns the pointwise maximum of two Max values. The result is
// Exact only when both operands are Exact (spec.md §3: "Max of two
// bounds preserves Exact only when both are Exact").
func Max2(a, b Max) Max {
	n := a.n
	if b.n > n {
		n = b.n
	}
	return Max{exact: a.exact && b.exact, n: n}
}

// MaxOf folds Max2 over a non-empty slice. It panics on an empty
// slice; callers in this engine always guard for "no neighbors"
// before calling it (spec.md §4.E: "or absent if k=0").
func MaxOf(vs []Max) Max {
	out := vs[0]
	for _, v := range vs[1:] {
		out = Max2(out, v)
	}
	return out
}

// MaxLocal returns the pointwise maximum of two Local values, used by
// the cycle-propagation rule in spec.md §4.E ("let L = max(local(nᵢ))
// across the cycle"). The result is Exact only when both are Exact.
func MaxLocal(a, b Local) Local {
	switch {
	case a.known && b.known:
		if a.n >= b.n {
			return a
		}
		return b
	default:
		return Unknown
	}
}
