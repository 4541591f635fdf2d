package ssaback

// This file computes per-block liveness.  The analysis is the standard
// backward dataflow over the CFG: a value is live-out of a block if some
// successor needs it, live-in if it is live-out and not defined here, or
// used here.  Phi arguments count as uses at the end of the corresponding
// predecessor; the phi itself is a definition at the top of its block and
// is never live-in.
//
// Live sets are sparse integer sets keyed by value ID.

import (
	"golang.org/x/tools/container/intsets"
)

// A Liveness holds the live-in and live-out sets of every block of a
// function, indexed by block ID.
type Liveness struct {
	f   *Func
	in  []intsets.Sparse
	out []intsets.Sparse
}

// ComputeLiveness runs the backward liveness analysis over f.
func ComputeLiveness(f *Func) *Liveness {
	lv := &Liveness{
		f:   f,
		in:  make([]intsets.Sparse, f.NumBlocks()),
		out: make([]intsets.Sparse, f.NumBlocks()),
	}

	po := f.postorder()
	var tmp intsets.Sparse

	// Iterate to a fixed point.  Postorder visits successors first, so
	// acyclic graphs converge in one pass; loops need a few more.
	for changed := true; changed; {
		changed = false
		for _, b := range po {
			out := &lv.out[b.ID]

			// Live-out: union of successors' live-ins minus their phi
			// definitions, plus the phi arguments flowing along each edge.
			for _, e := range b.Succs {
				succ := e.Block()
				tmp.Copy(&lv.in[succ.ID])
				for _, p := range succ.Phis {
					tmp.Remove(int(p.ID))
				}
				if out.UnionWith(&tmp) {
					changed = true
				}
				for _, p := range succ.Phis {
					if a := p.Args[e.Index()]; out.Insert(int(a.ID)) {
						changed = true
					}
				}
			}

			// Live-in: scan the schedule backward.
			tmp.Copy(out)
			for i := len(b.Values) - 1; i >= 0; i-- {
				v := b.Values[i]
				tmp.Remove(int(v.ID))
				for _, a := range v.Args {
					tmp.Insert(int(a.ID))
				}
			}
			for _, p := range b.Phis {
				tmp.Remove(int(p.ID))
			}
			if !tmp.Equals(&lv.in[b.ID]) {
				lv.in[b.ID].Copy(&tmp)
				changed = true
			}
		}
	}
	return lv
}

// IsLiveIn reports whether v is live at the start of b.
func (lv *Liveness) IsLiveIn(v *Value, b *Block) bool {
	return lv.in[b.ID].Has(int(v.ID))
}

// IsLiveOut reports whether v is live at the end of b.
func (lv *Liveness) IsLiveOut(v *Value, b *Block) bool {
	return lv.out[b.ID].Has(int(v.ID))
}

// LiveIn appends the values live at the start of b to dst and returns it.
func (lv *Liveness) LiveIn(b *Block, dst []*Value) []*Value {
	var ids []int
	ids = lv.in[b.ID].AppendTo(ids)
	for _, id := range ids {
		dst = append(dst, lv.f.ValueByID(ID(id)))
	}
	return dst
}
