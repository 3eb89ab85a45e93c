package decode

import "testing"

func TestX86_64FrameSizeAndDirectCall(t *testing.T) {
	// sub rsp, 0x20 ; call rel32(+0x10) ; ret
	text := []byte{
		0x48, 0x83, 0xEC, 0x20,
		0xE8, 0x10, 0x00, 0x00, 0x00,
		0xC3,
	}
	f := X86_64{}.Decode(text, 0x1000)

	if !f.Decoded {
		t.Fatal("expected Decoded true")
	}
	if !f.ModifiesSP {
		t.Fatal("prologue SUB writes RSP, so ModifiesSP should be true")
	}
	if f.FrameSize == nil || *f.FrameSize != 0x20 {
		t.Fatalf("got FrameSize %v, want 0x20", f.FrameSize)
	}
	if len(f.Calls) != 1 || f.Calls[0] != 0x1019 {
		t.Fatalf("got Calls %v, want [0x1019]", f.Calls)
	}
	if f.HasIndirectCall {
		t.Fatal("unexpected indirect call")
	}
}

func TestX86_64IndirectCall(t *testing.T) {
	// call rax
	text := []byte{0xFF, 0xD0}
	f := X86_64{}.Decode(text, 0x2000)
	if !f.Decoded {
		t.Fatal("expected Decoded true")
	}
	if !f.HasIndirectCall {
		t.Fatal("expected HasIndirectCall true")
	}
}

func TestX86_64IrregularSPWrite(t *testing.T) {
	// sub rsp, 0x20 ; sub rsp, 0x8 ; ret
	text := []byte{
		0x48, 0x83, 0xEC, 0x20,
		0x48, 0x83, 0xEC, 0x08,
		0xC3,
	}
	f := X86_64{}.Decode(text, 0x3000)
	if !f.ModifiesSP {
		t.Fatal("second SP adjustment should mark function irregular")
	}
	if f.FrameSize != nil {
		t.Fatal("irregular function should not report a FrameSize")
	}
}

func TestNoopDecoder(t *testing.T) {
	f := Noop.Decode([]byte{0xC3}, 0x100)
	if f.Decoded {
		t.Fatal("noop decoder must report Decoded false")
	}
}
