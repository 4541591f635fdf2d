package ssaback

// This file implements SSA reconstruction: given a set of values that all
// define "the same thing" (a value and its reloads, the many definitions
// of the stack pointer), rewrite every user to consume the nearest
// dominating definition, inserting phis at join points where several
// definitions meet.
//
// The search runs backward from each use: within the block it scans the
// schedule, across blocks it memoizes the definition reaching each block
// entry, placing a placeholder phi before recursing so cycles terminate.
// Placeholder phis whose incoming definitions all agree are removed again;
// the remainder are the phis the reconstruction needed.

// A ssaRecon is the state of one reconstruction run.
type ssaRecon struct {
	f      *Func
	defSet map[ID]bool
	mode   Mode

	// atEntry memoizes the definition reaching the start of a block,
	// possibly a freshly inserted phi.
	atEntry map[*Block]*Value

	inserted []*Value
}

// reconstructSSA re-establishes SSA form over defs and returns the phis it
// inserted.  All defs must be scheduled (or be phis); at least one def
// must dominate every use, otherwise the graph was malformed to begin
// with and the search fails fatally at the entry block.
func reconstructSSA(f *Func, defs []*Value) []*Value {
	if len(defs) < 2 {
		return nil
	}
	r := &ssaRecon{
		f:       f,
		defSet:  make(map[ID]bool, len(defs)),
		mode:    defs[0].Mode,
		atEntry: make(map[*Block]*Value),
	}
	for _, d := range defs {
		r.defSet[d.ID] = true
	}

	// Snapshot the users first: rewriting creates phis, and those must
	// not be revisited as ordinary users.
	type use struct {
		u    *Value
		argi int
	}
	var uses []use
	for _, b := range f.Blocks {
		for _, v := range b.Phis {
			for i, a := range v.Args {
				if r.defSet[a.ID] {
					uses = append(uses, use{v, i})
				}
			}
		}
		for _, v := range b.Values {
			for i, a := range v.Args {
				if r.defSet[a.ID] {
					uses = append(uses, use{v, i})
				}
			}
		}
	}

	for _, us := range uses {
		var d *Value
		if us.u.Op == OpPhi {
			// A phi consumes its argument at the end of the matching
			// predecessor.
			pred := us.u.Block.Preds[us.argi].Block()
			d = r.reachingAt(pred, len(pred.Values))
		} else {
			b := us.u.Block
			d = r.reachingAt(b, b.indexOf(us.u))
		}
		if d != us.u.Args[us.argi] {
			us.u.SetArg(us.argi, d)
		}
	}
	return r.inserted
}

// reachingAt returns the definition visible immediately before schedule
// position idx of b.
func (r *ssaRecon) reachingAt(b *Block, idx int) *Value {
	for i := idx - 1; i >= 0; i-- {
		if v := b.Values[i]; r.defSet[v.ID] {
			return v
		}
	}
	for _, p := range b.Phis {
		if r.defSet[p.ID] {
			return p
		}
	}
	return r.entryDef(b)
}

// entryDef returns the definition reaching the start of b, inserting a phi
// when several reach it.
func (r *ssaRecon) entryDef(b *Block) *Value {
	if d, ok := r.atEntry[b]; ok {
		return d
	}
	switch len(b.Preds) {
	case 0:
		r.f.Fatalf("ssa reconstruction: no definition reaches %s", b)
	case 1:
		p := b.Preds[0].Block()
		d := r.reachingAt(p, len(p.Values))
		r.atEntry[b] = d
		return d
	}

	// Join point: place the phi before recursing, so loops resolve to it.
	phi := r.f.newPhiIn(b, r.mode)
	r.defSet[phi.ID] = true
	r.atEntry[b] = phi
	for i, e := range b.Preds {
		p := e.Block()
		phi.SetArg(i, r.reachingAt(p, len(p.Values)))
	}

	// If every path delivers the same definition the phi is noise;
	// take it out again.
	if same := r.trivial(phi); same != nil {
		b.removePhi(phi)
		delete(r.defSet, phi.ID)
		r.atEntry[b] = same
		r.replaceUses(phi, same)
		return same
	}
	r.inserted = append(r.inserted, phi)
	return phi
}

// trivial returns the sole definition a placeholder phi forwards, or nil
// if it merges at least two.
func (r *ssaRecon) trivial(phi *Value) *Value {
	var same *Value
	for _, a := range phi.Args {
		if a == phi {
			continue
		}
		if same == nil {
			same = a
			continue
		}
		if a != same {
			return nil
		}
	}
	return same
}

// replaceUses redirects every argument edge from old to new.  Only phis
// can refer to a placeholder this early, but a full sweep is cheap and
// unconditional.
func (r *ssaRecon) replaceUses(old, new *Value) {
	for _, b := range r.f.Blocks {
		for _, v := range b.Phis {
			for i, a := range v.Args {
				if a == old {
					v.SetArg(i, new)
				}
			}
		}
		for _, v := range b.Values {
			for i, a := range v.Args {
				if a == old {
					v.SetArg(i, new)
				}
			}
		}
	}
}
