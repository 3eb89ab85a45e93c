package localusage

import (
	"testing"

	"github.com/embedded-tools/callstack/internal/decode"
	"github.com/embedded-tools/callstack/internal/diag"
)

func u64(n uint64) *uint64 { return &n }

func TestReconcileInlineAsmOverride(t *testing.T) {
	sink := diag.NewSink()
	l := Reconcile(Input{
		Name:              "with_asm",
		Compiler:          u64(8),
		ContainsInlineAsm: true,
		Decoder:           decode.Facts{Decoded: true, FrameSize: u64(40), ModifiesSP: true},
	}, sink)
	if !l.IsExact() || l.Value() != 40 {
		t.Fatalf("got %v, want Exact(40)", l)
	}
	if len(sink.All()) != 0 {
		t.Fatalf("inline-asm override should not diagnose, got %v", sink.All())
	}
}

func TestReconcileOutlinedHelperOverride(t *testing.T) {
	sink := diag.NewSink()
	l := Reconcile(Input{
		Name:     "OUTLINED_FUNCTION_7",
		Compiler: u64(0),
		Decoder:  decode.Facts{Decoded: true, FrameSize: u64(24), ModifiesSP: true},
	}, sink)
	if !l.IsExact() || l.Value() != 24 {
		t.Fatalf("got %v, want Exact(24)", l)
	}
	if len(sink.All()) != 0 {
		t.Fatalf("outlined-helper override should not diagnose, got %v", sink.All())
	}
}

func TestReconcileDisagreementPrefersDecoderWithDiagnostic(t *testing.T) {
	sink := diag.NewSink()
	l := Reconcile(Input{
		Name:     "plain_fn",
		Compiler: u64(8),
		Decoder:  decode.Facts{Decoded: true, FrameSize: u64(16), ModifiesSP: true},
	}, sink)
	if !l.IsExact() || l.Value() != 16 {
		t.Fatalf("got %v, want Exact(16)", l)
	}
	if len(sink.All()) != 1 {
		t.Fatalf("expected one diagnostic, got %v", sink.All())
	}
}

func TestReconcileSingleSourceCompilerOnly(t *testing.T) {
	sink := diag.NewSink()
	l := Reconcile(Input{Name: "f", Compiler: u64(12)}, sink)
	if !l.IsExact() || l.Value() != 12 {
		t.Fatalf("got %v, want Exact(12)", l)
	}
}

func TestReconcileSingleSourceDecoderOnly(t *testing.T) {
	sink := diag.NewSink()
	l := Reconcile(Input{
		Name:    "f",
		Decoder: decode.Facts{Decoded: true, FrameSize: u64(20), ModifiesSP: true},
	}, sink)
	if !l.IsExact() || l.Value() != 20 {
		t.Fatalf("got %v, want Exact(20)", l)
	}
}

func TestReconcileCrossCheckDiagnostic(t *testing.T) {
	sink := diag.NewSink()
	// Decoder reports a nonzero frame but says it never touched SP:
	// a genuine contradiction.
	l := Reconcile(Input{
		Name:    "odd_fn",
		Decoder: decode.Facts{Decoded: true, FrameSize: u64(16), ModifiesSP: false},
	}, sink)
	if !l.IsExact() || l.Value() != 16 {
		t.Fatalf("got %v", l)
	}
	if len(sink.All()) != 1 {
		t.Fatalf("expected cross-check diagnostic, got %v", sink.All())
	}
}

func TestReconcileLeafNoFrame(t *testing.T) {
	sink := diag.NewSink()
	l := Reconcile(Input{
		Name:    "leaf",
		Decoder: decode.Facts{Decoded: true, ModifiesSP: false},
	}, sink)
	if !l.IsExact() || l.Value() != 0 {
		t.Fatalf("got %v, want Exact(0)", l)
	}
	if len(sink.All()) != 0 {
		t.Fatalf("unexpected diagnostics %v", sink.All())
	}
}

func TestReconcileNoInformation(t *testing.T) {
	sink := diag.NewSink()
	l := Reconcile(Input{Name: "mystery"}, sink)
	if l.IsExact() {
		t.Fatalf("got %v, want Unknown", l)
	}
	if len(sink.All()) != 1 {
		t.Fatalf("expected a missing-info diagnostic, got %v", sink.All())
	}
}
