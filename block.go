package ssaback

// This file defines Block and the schedule operations on it.

import "fmt"

// An Edge is one side of a control-flow edge.  The b field is the block on
// the other side; i is the index of the reverse edge in that block's edge
// list, so following an edge back and forth is O(1).
type Edge struct {
	b *Block
	i int
}

// Block returns the block on the other side of the edge.
func (e Edge) Block() *Block { return e.b }

// Index returns the position of the reverse edge in the other block's list.
func (e Edge) Index() int { return e.i }

// A Block is a basic block of the control-flow graph.  It owns a schedule, a
// total order over the non-phi values it contains.  Phis logically belong to
// the block but are kept apart: they execute "on the edge" and have no
// position of their own.
type Block struct {
	ID   ID
	Func *Func

	// Preds and Succs are the control edges.  A phi of this block has one
	// argument per entry of Preds, in the same order.
	Preds, Succs []Edge

	// Phis are the phi values of the block.
	Phis []*Value

	// Values is the schedule: every non-phi value of the block, in
	// execution order.
	Values []*Value
}

func (b *Block) String() string {
	if b == nil {
		return "nil"
	}
	return fmt.Sprintf("b%d", b.ID)
}

// AddEdgeTo adds a control edge from b to c, updating both edge lists.
func (b *Block) AddEdgeTo(c *Block) {
	i := len(b.Succs)
	j := len(c.Preds)
	b.Succs = append(b.Succs, Edge{c, j})
	c.Preds = append(c.Preds, Edge{b, i})
	b.Func.invalidateCFG()
}

// indexOf returns v's position in b's schedule, or -1 if v is not scheduled
// in b.
func (b *Block) indexOf(v *Value) int {
	for i, w := range b.Values {
		if w == v {
			return i
		}
	}
	return -1
}

// insertAt places v at position i of b's schedule, shifting later values.
func (b *Block) insertAt(i int, v *Value) {
	b.Values = append(b.Values, nil)
	copy(b.Values[i+1:], b.Values[i:])
	b.Values[i] = v
	v.Block = b
}

// insertBefore places v immediately before anchor in b's schedule.
func (b *Block) insertBefore(anchor, v *Value) {
	i := b.indexOf(anchor)
	if i < 0 {
		b.Func.Fatalf("insertBefore: %s not scheduled in %s", anchor, b)
	}
	b.insertAt(i, v)
}

// insertAfter places v immediately after anchor in b's schedule.
func (b *Block) insertAfter(anchor, v *Value) {
	i := b.indexOf(anchor)
	if i < 0 {
		b.Func.Fatalf("insertAfter: %s not scheduled in %s", anchor, b)
	}
	b.insertAt(i+1, v)
}

// appendValue places v at the end of b's schedule.
func (b *Block) appendValue(v *Value) {
	b.Values = append(b.Values, v)
	v.Block = b
}

// removeValue removes v from b's schedule.  It is an error if v is not
// scheduled in b.
func (b *Block) removeValue(v *Value) {
	i := b.indexOf(v)
	if i < 0 {
		b.Func.Fatalf("removeValue: %s not scheduled in %s", v, b)
	}
	copy(b.Values[i:], b.Values[i+1:])
	b.Values = b.Values[:len(b.Values)-1]
}

// removePhi removes a phi from b.Phis.
func (b *Block) removePhi(v *Value) {
	for i, p := range b.Phis {
		if p == v {
			copy(b.Phis[i:], b.Phis[i+1:])
			b.Phis = b.Phis[:len(b.Phis)-1]
			return
		}
	}
	b.Func.Fatalf("removePhi: %s is not a phi of %s", v, b)
}
