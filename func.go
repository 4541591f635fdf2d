package ssaback

// This file defines Func, the owner of an SSA graph, and the constructors
// for blocks and values.

// A Func is one function's worth of SSA graph: its blocks, its values, its
// stack frame.  Values and blocks are handed out by the Func and stay owned
// by it; passes borrow and mutate them but never free them.
type Func struct {
	Name  string
	Entry *Block

	// Blocks lists every block, in creation order.  Entry is Blocks[0].
	Blocks []*Block

	// End is the keep-alive pseudo value.  Its arguments are definitions
	// that must survive even with no ordinary user, typically values
	// inside endless loops.  Nil until the first KeepAlive call.
	End *Value

	// Frame is the function's stack frame.
	Frame *Frame

	values []*Value // arena, indexed by ID

	cachedPostorder []*Block
	cachedIdom      []*Block
}

// NewFunc returns an empty function with the given name and a fresh frame.
func NewFunc(name string) *Func {
	return &Func{
		Name:  name,
		Frame: NewFrame(),
	}
}

// NewBlock adds an empty block to f.  The first block created becomes the
// entry block.
func (f *Func) NewBlock() *Block {
	b := &Block{
		ID:   ID(len(f.Blocks)),
		Func: f,
	}
	f.Blocks = append(f.Blocks, b)
	if f.Entry == nil {
		f.Entry = b
	}
	f.invalidateCFG()
	return b
}

// NumBlocks returns one more than the largest block ID.
func (f *Func) NumBlocks() int { return len(f.Blocks) }

// NumValues returns one more than the largest value ID.
func (f *Func) NumValues() int { return len(f.values) }

// ValueByID returns the value with the given ID.
func (f *Func) ValueByID(id ID) *Value { return f.values[id] }

// newValue allocates a value without placing it anywhere.
func (f *Func) newValue(op Op, mode Mode, args ...*Value) *Value {
	v := &Value{
		ID:   ID(len(f.values)),
		Op:   op,
		Mode: mode,
		Args: args,
	}
	f.values = append(f.values, v)
	return v
}

// NewValue creates a value with the given op, mode and arguments and
// appends it to b's schedule.
func (f *Func) NewValue(b *Block, op Op, mode Mode, args ...*Value) *Value {
	if op == OpPhi {
		f.Fatalf("NewValue: use NewPhi for phis")
	}
	v := f.newValue(op, mode, args...)
	b.appendValue(v)
	return v
}

// NewPhi creates a phi in b.  The number of arguments must equal b's
// control predecessor count.
func (f *Func) NewPhi(b *Block, mode Mode, args ...*Value) *Value {
	if len(args) != len(b.Preds) {
		f.Fatalf("NewPhi: %d args for %d predecessors of %s", len(args), len(b.Preds), b)
	}
	v := f.newValue(OpPhi, mode, args...)
	v.Block = b
	b.Phis = append(b.Phis, v)
	return v
}

// newPhiIn creates a phi in b with one placeholder argument per
// predecessor.  Used by SSA reconstruction, which fills the arguments in
// afterwards.
func (f *Func) newPhiIn(b *Block, mode Mode) *Value {
	v := f.newValue(OpPhi, mode, make([]*Value, len(b.Preds))...)
	v.Block = b
	b.Phis = append(b.Phis, v)
	return v
}

// KeepAlive pins v: it stays reachable through the End pseudo node even if
// nothing else uses it.
func (f *Func) KeepAlive(v *Value) {
	if f.End == nil {
		f.End = f.newValue(OpEnd, ModeNone)
	}
	f.End.AddArg(v)
}

// invalidateCFG tells f that its control-flow graph has changed.
func (f *Func) invalidateCFG() {
	f.cachedPostorder = nil
	f.cachedIdom = nil
}

// userTable returns, for every value ID, the list of values using it.  The
// End pseudo node counts as a user.  The table is a snapshot; callers that
// mutate arguments must not reuse it afterwards.
func (f *Func) userTable() [][]*Value {
	users := make([][]*Value, f.NumValues())
	add := func(u *Value) {
		for _, a := range u.Args {
			users[a.ID] = append(users[a.ID], u)
		}
	}
	for _, b := range f.Blocks {
		for _, v := range b.Phis {
			add(v)
		}
		for _, v := range b.Values {
			add(v)
		}
	}
	if f.End != nil {
		add(f.End)
	}
	return users
}

// projsOf returns the OpProj values consuming the tuple v, in component
// order where possible.
func (f *Func) projsOf(v *Value) []*Value {
	if v.Mode != ModeTuple {
		return nil
	}
	var projs []*Value
	for _, w := range v.Block.Values {
		if w.Op == OpProj && len(w.Args) == 1 && w.Args[0] == v {
			projs = append(projs, w)
		}
	}
	return projs
}
