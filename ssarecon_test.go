package ssaback

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestReconstructLoop: a redefinition inside a loop body forces a phi at
// the loop header, with the header's own phi feeding the backedge.
func TestReconstructLoop(t *testing.T) {
	c := testConfig(t)
	fn := c.Fun("entry",
		Bloc("entry",
			Valu("d0", OpGeneric, ModeInt, 0),
			Goto("head")),
		Bloc("head",
			Valu("use", OpGeneric, ModeInt, 0, "d0"),
			If("body", "exit")),
		Bloc("body",
			Valu("d1", OpGeneric, ModeInt, 0),
			Goto("head")),
		Bloc("exit",
			Valu("after", OpGeneric, ModeInt, 0, "d0"),
			Exit()))

	d0 := fn.value(t, "d0")
	d1 := fn.value(t, "d1")
	phis := reconstructSSA(fn.f, []*Value{d0, d1})
	require.NoError(t, CheckFunc(fn.f))

	require.Len(t, phis, 1)
	phi := phis[0]
	head := fn.block(t, "head")
	assert.Equal(t, head, phi.Block)
	assert.Equal(t, d0, phi.Args[0], "entry edge delivers the original definition")
	assert.Equal(t, d1, phi.Args[1], "backedge delivers the redefinition")
	assert.Equal(t, phi, fn.value(t, "use").Args[0])
	assert.Equal(t, phi, fn.value(t, "after").Args[0])
}

// TestReconstructTrivialPhi: when every path delivers the same definition
// the placeholder phi disappears again.
func TestReconstructTrivialPhi(t *testing.T) {
	c := testConfig(t)
	fn := c.Fun("entry",
		Bloc("entry",
			Valu("d0", OpGeneric, ModeInt, 0),
			Valu("d1", OpGeneric, ModeInt, 0),
			If("t1", "t2")),
		Bloc("t1", Goto("join")),
		Bloc("t2", Goto("join")),
		Bloc("join",
			Valu("use", OpGeneric, ModeInt, 0, "d0"),
			Exit()))

	d0 := fn.value(t, "d0")
	d1 := fn.value(t, "d1")
	phis := reconstructSSA(fn.f, []*Value{d0, d1})
	require.NoError(t, CheckFunc(fn.f))

	// Both paths deliver d1 (the later definition in entry): no phi.
	assert.Empty(t, phis)
	assert.Empty(t, fn.block(t, "join").Phis)
	assert.Equal(t, d1, fn.value(t, "use").Args[0])
}

// TestReconstructSingleDef: one definition needs no repair at all.
func TestReconstructSingleDef(t *testing.T) {
	c := testConfig(t)
	fn := c.Fun("entry",
		Bloc("entry",
			Valu("d0", OpGeneric, ModeInt, 0),
			Valu("use", OpGeneric, ModeInt, 0, "d0"),
			Exit()))

	d0 := fn.value(t, "d0")
	assert.Empty(t, reconstructSSA(fn.f, []*Value{d0}))
	assert.Equal(t, d0, fn.value(t, "use").Args[0])
}
