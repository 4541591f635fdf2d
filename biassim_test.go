package ssaback

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSimIncSPAlign: an aligning IncSP is widened so the SP lands on the
// requested alignment.
func TestSimIncSPAlign(t *testing.T) {
	c := testConfig(t)
	fn := c.Fun("entry",
		Bloc("entry",
			Valu("sp", OpSP, ModePtr, 0),
			Valu("inc", OpIncSP, ModePtr, -20, "sp"),
			Exit()))
	inc := fn.value(t, "inc")
	inc.AuxAlign = 4 // align to 1<<4 = 16

	require.NoError(t, SimStackPointer(fn.f, 0, nil))

	assert.Equal(t, int64(-32), inc.AuxInt, "IncSP widened from -20 to -32")
}

// TestSimIncSPCompensate: an IncSP without an alignment request releases
// the padding accumulated by an earlier aligning one.
func TestSimIncSPCompensate(t *testing.T) {
	c := testConfig(t)
	fn := c.Fun("entry",
		Bloc("entry",
			Valu("sp", OpSP, ModePtr, 0),
			Valu("grow", OpIncSP, ModePtr, -20, "sp"),
			Valu("shrink", OpIncSP, ModePtr, 20, "grow"),
			Exit()))
	fn.value(t, "grow").AuxAlign = 4

	require.NoError(t, SimStackPointer(fn.f, 0, nil))

	// grow was widened to -32; shrink must release all 32 bytes so the
	// SP returns to the displacement the ABI wants.
	assert.Equal(t, int64(-32), fn.value(t, "grow").AuxInt)
	assert.Equal(t, int64(32), fn.value(t, "shrink").AuxInt)
}

// TestSimMisalign: the entry misalignment shifts where the aligned
// positions are.
func TestSimMisalign(t *testing.T) {
	c := testConfig(t)
	fn := c.Fun("entry",
		Bloc("entry",
			Valu("sp", OpSP, ModePtr, 0),
			Valu("inc", OpIncSP, ModePtr, -20, "sp"),
			Exit()))
	inc := fn.value(t, "inc")
	inc.AuxAlign = 4

	require.NoError(t, SimStackPointer(fn.f, 8, nil))

	// offset+8 must be a multiple of 16: -24 instead of -32.
	assert.Equal(t, int64(-24), inc.AuxInt)
}

// TestSimMemPermOffset: a MemPerm records the SP displacement in effect
// where it executes.
func TestSimMemPermOffset(t *testing.T) {
	c := testConfig(t)
	fn := c.Fun("entry",
		Bloc("entry",
			Valu("sp", OpSP, ModePtr, 0),
			Valu("inc", OpIncSP, ModePtr, -16, "sp"),
			Valu("perm", OpMemPerm, ModeMem, 0),
			Exit()))
	fn.value(t, "inc").AuxAlign = 4

	require.NoError(t, SimStackPointer(fn.f, 0, nil))
	assert.Equal(t, int64(-16), fn.value(t, "perm").AuxInt)
}

// TestSimCallbackReset: a callback returning 0 signals that the SP was
// re-established from a frame pointer; offset and wanted bias restart at
// zero, so a later compensating IncSP has nothing to release.
func TestSimCallbackReset(t *testing.T) {
	c := testConfig(t)
	fn := c.Fun("entry",
		Bloc("entry",
			Valu("sp", OpSP, ModePtr, 0),
			Valu("grow", OpIncSP, ModePtr, -20, "sp"),
			Valu("restore", OpGeneric, ModePtr, 0, "grow"),
			Valu("fix", OpIncSP, ModePtr, 0, "restore"),
			Exit()))
	fn.value(t, "grow").AuxAlign = 4

	var sawRestore bool
	cb := func(v *Value, offset int64) int64 {
		if v.Op == OpGeneric {
			sawRestore = true
			assert.Equal(t, int64(-32), offset)
			return 0
		}
		return offset
	}
	require.NoError(t, SimStackPointer(fn.f, 0, cb))

	assert.True(t, sawRestore)
	assert.Equal(t, int64(0), fn.value(t, "fix").AuxInt)
}

// TestSimBranches: both sides of a branch inherit the block-exit state,
// and each block is visited once.
func TestSimBranches(t *testing.T) {
	c := testConfig(t)
	fn := c.Fun("entry",
		Bloc("entry",
			Valu("sp", OpSP, ModePtr, 0),
			Valu("grow", OpIncSP, ModePtr, -16, "sp"),
			If("left", "right")),
		Bloc("left",
			Valu("permL", OpMemPerm, ModeMem, 0),
			Goto("join")),
		Bloc("right",
			Valu("permR", OpMemPerm, ModeMem, 0),
			Goto("join")),
		Bloc("join",
			Valu("shrink", OpIncSP, ModePtr, 16, "grow"),
			Exit()))
	fn.value(t, "grow").AuxAlign = 4

	require.NoError(t, SimStackPointer(fn.f, 0, nil))

	assert.Equal(t, int64(-16), fn.value(t, "permL").AuxInt)
	assert.Equal(t, int64(-16), fn.value(t, "permR").AuxInt)
	assert.Equal(t, int64(16), fn.value(t, "shrink").AuxInt)
}
