package ssaback

// This file provides helpers for constructing functions in tests, in the
// spirit of the ssa package's Bloc/Valu builders: a function is described
// as a list of named blocks holding named values, and the builder resolves
// the names into a wired graph.

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type fun struct {
	f      *Func
	blocks map[string]*Block
	values map[string]*Value
}

// value returns the named value, failing the test if it does not exist.
func (fn fun) value(t testing.TB, name string) *Value {
	t.Helper()
	v, ok := fn.values[name]
	require.True(t, ok, "no value named %q", name)
	return v
}

// block returns the named block, failing the test if it does not exist.
func (fn fun) block(t testing.TB, name string) *Block {
	t.Helper()
	b, ok := fn.blocks[name]
	require.True(t, ok, "no block named %q", name)
	return b
}

// setClass assigns the register class demand of the named values.
func (fn fun) setClass(t testing.TB, cls *RegClass, names ...string) {
	t.Helper()
	for _, n := range names {
		fn.value(t, n).Class = cls
	}
}

type bloc struct {
	name    string
	entries []interface{}
}

type valu struct {
	name   string
	op     Op
	mode   Mode
	auxint int64
	args   []string
}

type phiDecl struct {
	name string
	mode Mode
	args []string
}

type gotoDecl string

type ifDecl struct{ then, els string }

type exitDecl struct{}

// Bloc describes a block with its values and outgoing edges.
func Bloc(name string, entries ...interface{}) bloc {
	return bloc{name: name, entries: entries}
}

// Valu describes a scheduled value.
func Valu(name string, op Op, mode Mode, auxint int64, args ...string) valu {
	return valu{name: name, op: op, mode: mode, auxint: auxint, args: args}
}

// Phi describes a phi; its arguments match the block's predecessor order,
// which follows from the order the incoming edges are declared.
func Phi(name string, mode Mode, args ...string) phiDecl {
	return phiDecl{name: name, mode: mode, args: args}
}

// Goto gives the block a single successor.
func Goto(target string) gotoDecl { return gotoDecl(target) }

// If gives the block two successors.
func If(then, els string) ifDecl { return ifDecl{then, els} }

// Exit marks the block as an exit; it gets no successors.
func Exit() exitDecl { return exitDecl{} }

type conf struct {
	t testing.TB
}

func testConfig(t testing.TB) *conf { return &conf{t: t} }

// Fun builds a function from the block descriptions.  The named block
// becomes the entry.  Blocks and edges are created first, then value
// shells, then arguments are resolved, so forward and cyclic references
// work.
func (c *conf) Fun(entry string, blocs ...bloc) fun {
	t := c.t
	t.Helper()
	f := NewFunc(t.Name())
	fn := fun{
		f:      f,
		blocks: make(map[string]*Block),
		values: make(map[string]*Value),
	}

	// Entry block first: the first block NewBlock creates becomes the entry.
	fn.blocks[entry] = f.NewBlock()
	for _, bl := range blocs {
		if bl.name == entry {
			continue
		}
		require.NotContains(t, fn.blocks, bl.name, "duplicate block %q", bl.name)
		fn.blocks[bl.name] = f.NewBlock()
	}

	// Wire the control edges in declaration order.
	for _, bl := range blocs {
		b := fn.blocks[bl.name]
		for _, entry := range bl.entries {
			switch e := entry.(type) {
			case gotoDecl:
				b.AddEdgeTo(fn.block(t, string(e)))
			case ifDecl:
				b.AddEdgeTo(fn.block(t, e.then))
				b.AddEdgeTo(fn.block(t, e.els))
			case exitDecl:
			}
		}
	}

	// Create the value shells.
	type pending struct {
		v    *Value
		args []string
	}
	var todo []pending
	for _, bl := range blocs {
		b := fn.blocks[bl.name]
		for _, entry := range bl.entries {
			switch e := entry.(type) {
			case valu:
				v := f.newValue(e.op, e.mode)
				v.AuxInt = e.auxint
				b.appendValue(v)
				require.NotContains(t, fn.values, e.name, "duplicate value %q", e.name)
				fn.values[e.name] = v
				todo = append(todo, pending{v, e.args})
			case phiDecl:
				require.Len(t, e.args, len(b.Preds),
					"phi %q has %d args for %d preds of %q", e.name, len(e.args), len(b.Preds), bl.name)
				v := f.newPhiIn(b, e.mode)
				require.NotContains(t, fn.values, e.name, "duplicate value %q", e.name)
				fn.values[e.name] = v
				todo = append(todo, pending{v, e.args})
			}
		}
	}

	// Resolve arguments.
	for _, p := range todo {
		for i, name := range p.args {
			a := fn.value(t, name)
			if p.v.Op == OpPhi {
				p.v.SetArg(i, a)
			} else {
				p.v.AddArg(a)
			}
		}
	}

	require.NoError(t, CheckFunc(f))
	return fn
}
