package ssaback

// This file contains the control-flow walks: DFS postorder and the
// dominator tree.  The passes consume reverse postorder (so predecessors
// come first where the graph allows it) and immediate dominators (for SSA
// reconstruction).

type blockAndIndex struct {
	b     *Block
	index int // number of successor edges of b already explored
}

// postorder computes a DFS postorder over the blocks reachable from the
// entry block.  Unreachable blocks do not appear.
func (f *Func) postorder() []*Block {
	if f.cachedPostorder != nil {
		return f.cachedPostorder
	}
	seen := make([]bool, f.NumBlocks())
	order := make([]*Block, 0, len(f.Blocks))

	// Explicit stack; the graphs can be deep.
	s := make([]blockAndIndex, 0, 32)
	s = append(s, blockAndIndex{b: f.Entry})
	seen[f.Entry.ID] = true
	for len(s) > 0 {
		tos := len(s) - 1
		x := s[tos]
		b := x.b
		if i := x.index; i < len(b.Succs) {
			s[tos].index++
			bb := b.Succs[i].Block()
			if !seen[bb.ID] {
				seen[bb.ID] = true
				s = append(s, blockAndIndex{b: bb})
			}
			continue
		}
		s = s[:tos]
		order = append(order, b)
	}
	f.cachedPostorder = order
	return order
}

// ReversePostorder returns the blocks reachable from entry, predecessors
// before successors wherever the graph is acyclic.
func (f *Func) ReversePostorder() []*Block {
	po := f.postorder()
	rpo := make([]*Block, len(po))
	for i, b := range po {
		rpo[len(po)-1-i] = b
	}
	return rpo
}

// idom computes the immediate dominator of every reachable block, using the
// simple iterative algorithm of Cooper, Harvey and Kennedy.  The entry
// block's idom is itself.  The result is indexed by block ID; unreachable
// blocks map to nil.
func (f *Func) idom() []*Block {
	if f.cachedIdom != nil {
		return f.cachedIdom
	}
	po := f.postorder()
	postnum := make([]int, f.NumBlocks())
	for i, b := range po {
		postnum[b.ID] = i
	}
	idom := make([]*Block, f.NumBlocks())
	idom[f.Entry.ID] = f.Entry

	for changed := true; changed; {
		changed = false
		// Reverse postorder, skipping the entry block.
		for i := len(po) - 2; i >= 0; i-- {
			b := po[i]
			var d *Block
			for _, e := range b.Preds {
				p := e.Block()
				if idom[p.ID] == nil {
					continue
				}
				if d == nil {
					d = p
					continue
				}
				d = intersect(d, p, postnum, idom)
			}
			if d != nil && idom[b.ID] != d {
				idom[b.ID] = d
				changed = true
			}
		}
	}
	f.cachedIdom = idom
	return idom
}

// intersect finds the closest common dominator of b and c.  It requires a
// postorder numbering of all blocks.
func intersect(b, c *Block, postnum []int, idom []*Block) *Block {
	for b != c {
		if postnum[b.ID] < postnum[c.ID] {
			b = idom[b.ID]
		} else {
			c = idom[c.ID]
		}
	}
	return b
}

// dominates reports whether a dominates b (reflexively).
func dominates(a, b *Block, idom []*Block) bool {
	for {
		if a == b {
			return true
		}
		d := idom[b.ID]
		if d == nil || d == b {
			return false
		}
		b = d
	}
}
