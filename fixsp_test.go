package ssaback

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func spClass() (*RegClass, *Register) {
	cls := NewRegClass("gp", 4)
	return cls, cls.Regs[0]
}

// markSP assigns the SP register to the named values.
func markSP(t *testing.T, fn fun, sp *Register, names ...string) {
	t.Helper()
	for _, n := range names {
		v := fn.value(t, n)
		v.Reg = sp
		v.Class = sp.Class
	}
}

// TestFixStackDiamond: two IncSPs on the branches define the SP; the join
// gets an SP phi and the user below it consumes the phi.
func TestFixStackDiamond(t *testing.T) {
	c := testConfig(t)
	fn := c.Fun("entry",
		Bloc("entry",
			Valu("sp", OpSP, ModePtr, 0),
			If("left", "right")),
		Bloc("left",
			Valu("incL", OpIncSP, ModePtr, -16, "sp"),
			Goto("join")),
		Bloc("right",
			Valu("incR", OpIncSP, ModePtr, -32, "sp"),
			Goto("join")),
		Bloc("join",
			Valu("use", OpGeneric, ModePtr, 0, "sp"),
			Exit()))

	cls, sp := spClass()
	_ = cls
	markSP(t, fn, sp, "sp", "incL", "incR")

	require.NoError(t, FixStackNodes(fn.f, sp))
	require.NoError(t, CheckFunc(fn.f))

	// The user in the join now sees a phi merging the two IncSPs.
	use := fn.value(t, "use")
	phi := use.Args[0]
	require.Equal(t, OpPhi, phi.Op)
	assert.Equal(t, fn.block(t, "join"), phi.Block)
	assert.Equal(t, fn.value(t, "incL"), phi.Args[0])
	assert.Equal(t, fn.value(t, "incR"), phi.Args[1])
	assert.Equal(t, sp, phi.Reg, "SP phi carries the SP register")
	assert.Equal(t, sp.Class, phi.Class)
}

// TestFixStackStraightLine: within a block, a use after an IncSP sees the
// IncSP, a use before it the incoming SP.
func TestFixStackStraightLine(t *testing.T) {
	c := testConfig(t)
	fn := c.Fun("entry",
		Bloc("entry",
			Valu("sp", OpSP, ModePtr, 0),
			Valu("before", OpGeneric, ModePtr, 0, "sp"),
			Valu("inc", OpIncSP, ModePtr, -16, "sp"),
			Valu("after", OpGeneric, ModePtr, 0, "sp"),
			Exit()))

	_, sp := spClass()
	markSP(t, fn, sp, "sp", "inc")

	require.NoError(t, FixStackNodes(fn.f, sp))
	require.NoError(t, CheckFunc(fn.f))

	assert.Equal(t, fn.value(t, "sp"), fn.value(t, "before").Args[0])
	assert.Equal(t, fn.value(t, "inc"), fn.value(t, "after").Args[0])
	// The IncSP itself keeps consuming the definition above it.
	assert.Equal(t, fn.value(t, "sp"), fn.value(t, "inc").Args[0])
}

// TestFixStackNoDefs: nothing carries the SP register; the fix is a
// silent no-op.
func TestFixStackNoDefs(t *testing.T) {
	c := testConfig(t)
	fn := c.Fun("entry",
		Bloc("entry",
			Valu("v", OpGeneric, ModeInt, 0),
			Exit()))

	_, sp := spClass()
	require.NoError(t, FixStackNodes(fn.f, sp))
	assert.Equal(t, fn.value(t, "v"), fn.f.Blocks[0].Values[0])
}

// TestFixStackKeepPruning: an SP producer pinned only by the keep edge is
// dropped along with the edge; one with a real user survives.
func TestFixStackKeepPruning(t *testing.T) {
	c := testConfig(t)
	fn := c.Fun("entry",
		Bloc("entry",
			Valu("sp", OpSP, ModePtr, 0),
			If("side", "main")),
		Bloc("side",
			Valu("orphan", OpIncSP, ModePtr, -16, "sp"),
			Exit()),
		Bloc("main",
			Valu("inc", OpIncSP, ModePtr, -32, "sp"),
			Valu("use", OpGeneric, ModePtr, 0, "sp"),
			Exit()))

	_, sp := spClass()
	markSP(t, fn, sp, "sp", "orphan", "inc")
	orphan := fn.value(t, "orphan")
	inc := fn.value(t, "inc")
	fn.f.KeepAlive(orphan)
	fn.f.KeepAlive(inc)

	require.NoError(t, FixStackNodes(fn.f, sp))
	require.NoError(t, CheckFunc(fn.f))

	// orphan had no user besides the keep edge: gone from both the keep
	// list and the schedule.  inc feeds the rewired use and stays kept.
	assert.NotContains(t, fn.f.End.Args, orphan)
	assert.Contains(t, fn.f.End.Args, inc)
	side := fn.block(t, "side")
	assert.Equal(t, -1, side.indexOf(orphan))
	assert.Equal(t, inc, fn.value(t, "use").Args[0])
}
