package callgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/embedded-tools/callstack/internal/demangle"
	"github.com/embedded-tools/callstack/internal/diag"
	"github.com/embedded-tools/callstack/internal/irsummary"
	"github.com/embedded-tools/callstack/internal/symtab"
	"github.com/embedded-tools/callstack/internal/target"
)

func u64(n uint64) *uint64 { return &n }

func buildSymtab(t *testing.T, defs []symtab.DefinedSymbol) *symtab.Table {
	t.Helper()
	return symtab.Build(defs, nil, nil, diag.NewSink())
}

func hasEdge(g *Graph, from, to string) bool {
	fi, ok := g.IndexOf(from)
	if !ok {
		return false
	}
	ti, ok := g.IndexOf(to)
	if !ok {
		return false
	}
	for _, e := range g.Out(fi) {
		if e == ti {
			return true
		}
	}
	return false
}

func TestBuildSimpleChain(t *testing.T) {
	sink := diag.NewSink()
	st := buildSymtab(t, []symtab.DefinedSymbol{
		{Address: 0x100, Names: []string{"a"}, Size: 1, LocalStack: u64(8)},
		{Address: 0x200, Names: []string{"b"}, Size: 1, LocalStack: u64(16)},
		{Address: 0x300, Names: []string{"c"}, Size: 1, LocalStack: u64(4)},
	})
	ir := &irsummary.Summary{Defines: []irsummary.Func{
		{Name: "a", Sig: "fn()", Defined: true, Callees: []irsummary.Callee{{Kind: irsummary.Direct, Name: "b"}}},
		{Name: "b", Sig: "fn()", Defined: true, Callees: []irsummary.Callee{{Kind: irsummary.Direct, Name: "c"}}},
		{Name: "c", Sig: "fn()", Defined: true},
	}}

	g, err := Build(BuildInput{Symtab: st, IR: ir, Target: target.Lookup("x86_64")}, sink)
	require.NoError(t, err)

	assert.True(t, hasEdge(g, "a", "b"))
	assert.True(t, hasEdge(g, "b", "c"))

	for _, tc := range []struct {
		name string
		want uint64
	}{{"a", 8}, {"b", 16}, {"c", 4}} {
		idx, ok := g.IndexOf(tc.name)
		require.True(t, ok, tc.name)
		l := g.Nodes[idx].Local
		require.True(t, l.IsExact())
		assert.EqualValues(t, tc.want, l.Value())
	}
}

func TestBuildIndirectDispatch(t *testing.T) {
	sink := diag.NewSink()
	st := buildSymtab(t, []symtab.DefinedSymbol{
		{Address: 0x10, Names: []string{"f"}, Size: 1, LocalStack: u64(4)},
		{Address: 0x20, Names: []string{"g"}, Size: 1, LocalStack: u64(12)},
		{Address: 0x30, Names: []string{"h"}, Size: 1, LocalStack: u64(2)},
	})
	ir := &irsummary.Summary{Defines: []irsummary.Func{
		{Name: "f", Sig: "S", Defined: true},
		{Name: "g", Sig: "S", Defined: true},
		{Name: "h", Sig: "T", Defined: true, Callees: []irsummary.Callee{{Kind: irsummary.Indirect, Sig: "S"}}},
	}}

	g, err := Build(BuildInput{Symtab: st, IR: ir, Target: target.Lookup("x86_64")}, sink)
	require.NoError(t, err)

	synthIdx, ok := g.IndexOf("S*")
	require.True(t, ok)
	assert.True(t, g.Nodes[synthIdx].Synthetic)
	l := g.Nodes[synthIdx].Local
	require.True(t, l.IsExact())
	assert.EqualValues(t, 0, l.Value())

	assert.True(t, hasEdge(g, "h", "S*"))
	assert.True(t, hasEdge(g, "S*", "f"))
	assert.True(t, hasEdge(g, "S*", "g"))
	assert.False(t, hasEdge(g, "S*", UnknownSentinelName), "no untyped externs present, so no sentinel edge expected")
}

func TestBuildOutlinedHelperExemptFromUntypedExterns(t *testing.T) {
	sink := diag.NewSink()
	st := buildSymtab(t, []symtab.DefinedSymbol{
		{Address: 0x10, Names: []string{"f"}, Size: 1, LocalStack: u64(4)},
		{Address: 0x30, Names: []string{"h"}, Size: 1, LocalStack: u64(2)},
		{Address: 0x40, Names: []string{"OUTLINED_FUNCTION_0"}, Size: 1, LocalStack: u64(4)},
	})
	ir := &irsummary.Summary{Defines: []irsummary.Func{
		{Name: "f", Sig: "S", Defined: true},
		{Name: "h", Sig: "T", Defined: true, Callees: []irsummary.Callee{{Kind: irsummary.Indirect, Sig: "S"}}},
	}}

	g, err := Build(BuildInput{Symtab: st, IR: ir, Target: target.Lookup("x86_64")}, sink)
	require.NoError(t, err)

	_, ok := g.IndexOf("S*")
	require.True(t, ok)
	assert.False(t, hasEdge(g, "S*", UnknownSentinelName),
		"OUTLINED_FUNCTION_0 has no IR signature but is never called through a function pointer")
}

func TestBuildIntrinsicRewriting(t *testing.T) {
	sink := diag.NewSink()
	st := buildSymtab(t, []symtab.DefinedSymbol{
		{Address: 0x10, Names: []string{"caller"}, Size: 1, LocalStack: u64(8)},
		{Address: 0x20, Names: []string{"memcpy"}, Size: 1, LocalStack: u64(0)},
		{Address: 0x30, Names: []string{"__aeabi_memcpy"}, Size: 1, LocalStack: u64(0)},
	})
	ir := &irsummary.Summary{Defines: []irsummary.Func{
		{Name: "caller", Sig: "fn()", Defined: true, Callees: []irsummary.Callee{
			{Kind: irsummary.Direct, Name: "llvm.memcpy.p0i8.p0i8.i64"},
		}},
	}}

	g, err := Build(BuildInput{Symtab: st, IR: ir, Target: target.Lookup("x86_64")}, sink)
	require.NoError(t, err)

	assert.True(t, hasEdge(g, "caller", "memcpy"))
	assert.True(t, hasEdge(g, "caller", "__aeabi_memcpy"))
}

func TestBuildSideEffectFreeIntrinsicDiagnosticDeduped(t *testing.T) {
	sink := diag.NewSink()
	st := buildSymtab(t, []symtab.DefinedSymbol{
		{Address: 0x10, Names: []string{"a"}, Size: 1, LocalStack: u64(8)},
		{Address: 0x20, Names: []string{"b"}, Size: 1, LocalStack: u64(8)},
		{Address: 0x30, Names: []string{"c"}, Size: 1, LocalStack: u64(8)},
	})
	ir := &irsummary.Summary{Defines: []irsummary.Func{
		{Name: "a", Sig: "fn()", Defined: true, Callees: []irsummary.Callee{
			{Kind: irsummary.Direct, Name: "llvm.abs.i32"},
		}},
		{Name: "b", Sig: "fn()", Defined: true, Callees: []irsummary.Callee{
			{Kind: irsummary.Direct, Name: "llvm.abs.i32"},
		}},
		{Name: "c", Sig: "fn()", Defined: true, Callees: []irsummary.Callee{
			{Kind: irsummary.Direct, Name: "llvm.abs.i32"},
		}},
	}}

	g, err := Build(BuildInput{Symtab: st, IR: ir, Target: target.Lookup("x86_64")}, sink)
	require.NoError(t, err)

	assert.False(t, hasEdge(g, "a", "llvm.abs.i32"))

	var matching int
	for _, d := range sink.All() {
		if d.Subject == "llvm.abs.i32" {
			matching++
		}
	}
	assert.Equal(t, 1, matching, "one call site per caller should not multiply the diagnostic")
}

func TestBuildUnhandledIntrinsicFatalWithoutDecoder(t *testing.T) {
	sink := diag.NewSink()
	st := buildSymtab(t, []symtab.DefinedSymbol{
		{Address: 0x10, Names: []string{"caller"}, Size: 1, LocalStack: u64(8)},
	})
	ir := &irsummary.Summary{Defines: []irsummary.Func{
		{Name: "caller", Sig: "fn()", Defined: true, Callees: []irsummary.Callee{
			{Kind: irsummary.Direct, Name: "llvm.some_unknown_intrinsic.i64"},
		}},
	}}

	_, err := Build(BuildInput{Symtab: st, IR: ir, Target: target.Lookup("thumbv7m")}, sink)
	assert.Error(t, err)
}

func TestBuildUnresolvedCallFatal(t *testing.T) {
	sink := diag.NewSink()
	st := buildSymtab(t, []symtab.DefinedSymbol{
		{Address: 0x10, Names: []string{"caller"}, Size: 1, LocalStack: u64(8)},
	})
	ir := &irsummary.Summary{Defines: []irsummary.Func{
		{Name: "caller", Sig: "fn()", Defined: true, Callees: []irsummary.Callee{
			{Kind: irsummary.Direct, Name: "totally_unknown_function"},
		}},
	}}

	_, err := Build(BuildInput{Symtab: st, IR: ir, Target: target.Lookup("x86_64")}, sink)
	assert.Error(t, err)
}

func TestFilterToEntry(t *testing.T) {
	sink := diag.NewSink()
	st := buildSymtab(t, []symtab.DefinedSymbol{
		{Address: 0x100, Names: []string{"a"}, Size: 1, LocalStack: u64(8)},
		{Address: 0x200, Names: []string{"b"}, Size: 1, LocalStack: u64(16)},
		{Address: 0x300, Names: []string{"unreachable"}, Size: 1, LocalStack: u64(1)},
	})
	ir := &irsummary.Summary{Defines: []irsummary.Func{
		{Name: "a", Sig: "fn()", Defined: true, Callees: []irsummary.Callee{{Kind: irsummary.Direct, Name: "b"}}},
		{Name: "b", Sig: "fn()", Defined: true},
		{Name: "unreachable", Sig: "fn()", Defined: true},
	}}
	g, err := Build(BuildInput{Symtab: st, IR: ir, Target: target.Lookup("x86_64")}, sink)
	require.NoError(t, err)

	filtered := FilterToEntry(g, "a", func(s string) string { return s }, sink)
	assert.Equal(t, 2, filtered.NumNodes())
	_, ok := filtered.IndexOf("unreachable")
	assert.False(t, ok)
}

func TestShortenNames(t *testing.T) {
	sink := diag.NewSink()
	st := buildSymtab(t, []symtab.DefinedSymbol{
		{Address: 0x100, Names: []string{"_ZN4core3foo17h0000000000000001E"}, Size: 1, LocalStack: u64(8)},
	})
	ir := &irsummary.Summary{Defines: []irsummary.Func{
		{Name: "_ZN4core3foo17h0000000000000001E", Sig: "fn()", Defined: true},
	}}
	g, err := Build(BuildInput{Symtab: st, IR: ir, Target: target.Lookup("x86_64")}, sink)
	require.NoError(t, err)

	ShortenNames(g, demangle.Demangle)

	idx, ok := g.IndexOf("_ZN4core3foo17h0000000000000001E")
	require.True(t, ok)
	assert.Equal(t, "core::foo", g.Nodes[idx].Display)
}

func TestShortenNamesDefaultTraitMethod(t *testing.T) {
	const mangled = "<Widget as Render>::draw::h0000000000000001"
	sink := diag.NewSink()
	st := buildSymtab(t, []symtab.DefinedSymbol{
		{Address: 0x100, Names: []string{mangled}, Size: 1, LocalStack: u64(8)},
	})
	ir := &irsummary.Summary{Defines: []irsummary.Func{
		{Name: mangled, Sig: "fn()", Defined: true},
	}}
	g, err := Build(BuildInput{Symtab: st, IR: ir, Target: target.Lookup("x86_64")}, sink)
	require.NoError(t, err)

	identity := func(name string) string { return name }
	ShortenNames(g, identity)

	idx, ok := g.IndexOf(mangled)
	require.True(t, ok)
	assert.Equal(t, "Render::draw", g.Nodes[idx].Display)
}
