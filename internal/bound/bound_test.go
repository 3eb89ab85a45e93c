package bound

import "testing"

func TestAddLocalExact(t *testing.T) {
	m := ExactMax(10).AddLocal(Exact(5))
	if !m.IsExact() || m.Value() != 15 {
		t.Fatalf("got %v, want exact 15", m)
	}
}

func TestAddLocalContaminates(t *testing.T) {
	m := ExactMax(10).AddLocal(Unknown)
	if m.IsExact() {
		t.Fatalf("expected contamination to LowerBound, got %v", m)
	}
	if m.Value() != 10 {
		t.Fatalf("unknown local should contribute 0, got %v", m.Value())
	}
}

func TestAddContaminates(t *testing.T) {
	m := LowerBoundMax(3).Add(ExactMax(4))
	if m.IsExact() || m.Value() != 7 {
		t.Fatalf("got %v, want lower-bound 7", m)
	}
}

func TestMax2PreservesExactOnlyWhenBoth(t *testing.T) {
	a := ExactMax(3)
	b := LowerBoundMax(5)
	m := Max2(a, b)
	if m.IsExact() {
		t.Fatalf("expected contamination, got %v", m)
	}
	if m.Value() != 5 {
		t.Fatalf("got %v, want 5", m.Value())
	}

	m2 := Max2(ExactMax(3), ExactMax(5))
	if !m2.IsExact() || m2.Value() != 5 {
		t.Fatalf("got %v, want exact 5", m2)
	}
}

func TestMaxOf(t *testing.T) {
	m := MaxOf([]Max{ExactMax(1), ExactMax(9), ExactMax(4)})
	if !m.IsExact() || m.Value() != 9 {
		t.Fatalf("got %v, want exact 9", m)
	}
}

func TestToMax(t *testing.T) {
	if m := Exact(5).ToMax(); !m.IsExact() || m.Value() != 5 {
		t.Fatalf("got %v", m)
	}
	if m := Unknown.ToMax(); m.IsExact() || m.Value() != 0 {
		t.Fatalf("got %v, want lower-bound 0", m)
	}
}

func TestMaxLocal(t *testing.T) {
	if l := MaxLocal(Exact(3), Exact(7)); !l.IsExact() || l.Value() != 7 {
		t.Fatalf("got %v, want exact 7", l)
	}
	if l := MaxLocal(Exact(3), Unknown); l.IsExact() {
		t.Fatalf("got %v, want Unknown", l)
	}
}
