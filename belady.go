package ssaback

// This file implements the Belady-style spiller.
//
// For one register class of cardinality K, the pass walks every block and
// maintains a working set: the at-most-K values modelled as register
// resident.  When an instruction needs more values than fit, the ones
// whose next use lies farthest in the future are evicted — Belady's rule,
// optimal per block given the next-use distances.  Values used while
// outside the working set get a reload recorded; values evicted get
// spilled by the materialization in SpillEnv.Finalize.
//
// Blocks are processed in reverse postorder so that a block's single
// predecessor is finalized first.  Join blocks and the entry block compute
// their start set independently, from the next-use distances of their
// live-ins and phis; phis that do not make the cut are spilled at the phi.
// A final pass over the edges reloads whatever a block's start set expects
// that a predecessor's end set does not deliver.

import (
	"github.com/sirupsen/logrus"
)

type blockSpillInfo struct {
	wsStart *workingSet
	wsEnd   *workingSet
	used    map[ID]bool // values with at least one use in the block
}

type beladyState struct {
	f     *Func
	cls   *RegClass
	lv    *Liveness
	env   *SpillEnv
	k     int
	infos []blockSpillInfo
	users [][]*Value
	log   *logrus.Entry
}

// SpillBelady runs the spiller for the given class over f and materializes
// the resulting spills and reloads.  It is the convenience form of
// SpillBeladyWithEnv.
func SpillBelady(f *Func, cls *RegClass) error {
	env := NewSpillEnv(f, cls)
	if err := SpillBeladyWithEnv(env); err != nil {
		return err
	}
	return env.Finalize()
}

// SpillBeladyWithEnv runs the spill decision walk, recording reloads and
// phi spills into env without touching the graph.  The caller finalizes
// the environment when it has collected everything it wants materialized.
func SpillBeladyWithEnv(env *SpillEnv) (err error) {
	defer catchFatal(&err, "belady")

	f := env.f
	s := &beladyState{
		f:     f,
		cls:   env.cls,
		lv:    env.lv,
		env:   env,
		k:     env.cls.NumRegs(),
		infos: make([]blockSpillInfo, f.NumBlocks()),
		users: f.userTable(),
		log:   env.log,
	}
	if s.k <= 0 {
		f.Fatalf("register class %s has no registers", s.cls)
	}

	for _, b := range f.ReversePostorder() {
		s.processBlock(b)
	}
	s.fixCrossEdges()

	s.log.Debugf("%d reloads recorded, %d phis spilled", len(env.reloads), len(env.phiSpill))
	return nil
}

// inClass reports whether the spiller manages v.
func (s *beladyState) inClass(v *Value) bool {
	return v != nil && v.Class == s.cls
}

// processBlock runs the sequential Belady walk over b.
func (s *beladyState) processBlock(b *Block) {
	info := &s.infos[b.ID]
	info.used = make(map[ID]bool)
	info.wsStart = s.startSet(b)

	ws := info.wsStart.clone()
	for i := 0; i < len(b.Values); i++ {
		n := b.Values[i]
		if n.Op == OpProj {
			continue
		}

		// Use phase: everything n reads must be resident now.
		var uses []*Value
		for _, a := range n.Args {
			if s.inClass(a) && !containsValue(uses, a) {
				uses = append(uses, a)
			}
		}
		for _, u := range uses {
			info.used[u.ID] = true
		}
		s.displace(b, ws, info, uses, n, i, true)

		// Def phase: results need registers at the boundary too, but a
		// missing def is created, never reloaded.
		var defs []*Value
		if n.Mode == ModeTuple {
			for _, p := range s.f.projsOf(n) {
				if s.inClass(p) {
					defs = append(defs, p)
				}
			}
		} else if s.inClass(n) {
			defs = append(defs, n)
		}
		s.displace(b, ws, info, defs, n, i, false)
	}
	info.wsEnd = ws.clone()
}

// startSet computes the working set at b's entry.  A block with a single
// predecessor inherits that predecessor's end set; join blocks and the
// entry block pick the best K candidates by next-use distance.
func (s *beladyState) startSet(b *Block) *workingSet {
	if len(b.Preds) == 1 {
		pred := b.Preds[0].Block()
		if end := s.infos[pred.ID].wsEnd; end != nil {
			return end.clone()
		}
		// The lone predecessor is later in the order (an unreachable
		// backedge shape); fall through to the independent computation.
	}
	return s.phiSpillWalk(b)
}

// phiSpillWalk picks b's start set from its live-ins and phis: each
// candidate gets its next-use distance from the block's first instruction,
// the best K stay.  Phis that do not fit are spilled at the phi — the
// environment arranges per-edge stores and a memory phi.
func (s *beladyState) phiSpillWalk(b *Block) *workingSet {
	cand := newWorkingSet(len(b.Phis) + s.k)

	var livein []*Value
	livein = s.lv.LiveIn(b, livein)
	for _, v := range livein {
		if s.inClass(v) {
			cand.add(v, nextUseDistance(s.lv, b, 0, v, false))
		}
	}
	for _, p := range b.Phis {
		if s.inClass(p) {
			cand.add(p, nextUseDistance(s.lv, b, 0, p, false))
		}
	}

	cand.sortByDistance()
	ws := newWorkingSet(s.k)
	for i, e := range cand.ents {
		if i >= s.k {
			if e.v.isPhiOf(b) {
				s.env.SpillPhi(e.v)
			}
			continue
		}
		ws.add(e.v, e.dist)
	}
	return ws
}

// displace makes room in ws for vals at instruction n (schedule position
// idx of b).  On return every value of vals is in ws and ws holds at most
// K entries; among the values removed the aggregate next-use distance is
// the greatest available.  When isUsage is set, values that were not
// resident get a reload recorded before n.
func (s *beladyState) displace(b *Block, ws *workingSet, info *blockSpillInfo, vals []*Value, n *Value, idx int, isUsage bool) {
	demand := 0
	for _, v := range vals {
		if ws.contains(v) {
			continue
		}
		demand++
		if isUsage {
			s.env.AddReload(v, n)
			s.log.Debugf("%s not resident at %s in %s, reload", v, n, b)
		}
	}
	if demand > s.k {
		s.f.Fatalf("%s needs %d values of class %s at once, class has %d registers", n, demand, s.cls, s.k)
	}

	if excess := ws.len() + demand - s.k; excess > 0 {
		// Refresh every resident value's distance at this point.  When
		// displacing for definitions, the current instruction's reads are
		// already behind us, so a use at idx does not count.
		pinned := 0
		for i := range ws.ents {
			e := &ws.ents[i]
			if e.v.NoSpill {
				e.dist = 0
				pinned++
				continue
			}
			e.dist = nextUseDistance(s.lv, b, idx, e.v, !isUsage)
		}
		if pinned+demand > s.k {
			// Freeing a register would evict a value the target pinned;
			// legalizing that needs constraint handling this spiller does
			// not have.
			s.f.NotImplementedf("%d pinned values and %d operands of %s exceed class %s (%d registers)",
				pinned, demand, n, s.cls, s.k)
		}

		// Dead-value fixup: the oracle cannot tell "live across the
		// block end" from "every use already behind us"; a scan of the
		// users can.  Truly dead values evict first.
		for i := range ws.ents {
			e := &ws.ents[i]
			if e.dist < distLiveOut {
				continue
			}
			if s.deadAfter(e.v, b, idx) {
				e.dist = distInfinity
			}
		}

		ws.sortByDistance()
		for _, e := range ws.evictLast(excess) {
			// A live-in evicted before any use never belonged in the
			// start set; tighten it retroactively.  Phis of this block
			// are the phi-spill mechanism's business, not ours.
			if !info.used[e.v.ID] && s.lv.IsLiveIn(e.v, b) && !e.v.isPhiOf(b) {
				info.wsStart.remove(e.v)
			}
			s.log.Debugf("evict %s (dist %d) at %s in %s", e.v, e.dist, n, b)
		}
	}

	for _, v := range vals {
		if !ws.contains(v) {
			ws.add(v, 0)
		}
	}
	if ws.len() > s.k {
		s.f.Fatalf("working set grew to %d with %d registers in %s", ws.len(), s.k, b)
	}
}

// deadAfter reports whether every user of v sits in b at or before
// schedule position idx.
func (s *beladyState) deadAfter(v *Value, b *Block, idx int) bool {
	for _, u := range s.users[v.ID] {
		if u.Op == OpEnd {
			return false
		}
		if u.Block != b {
			return false
		}
		if u.Op == OpPhi {
			return false
		}
		if j := b.indexOf(u); j < 0 || j > idx {
			return false
		}
	}
	return true
}

// fixCrossEdges reconciles every block's start set with its predecessors'
// end sets.  A value the start set expects that the predecessor does not
// deliver is reloaded on the edge.  Phis are translated to the matching
// argument first; Unknown values are available everywhere by convention.
func (s *beladyState) fixCrossEdges() {
	for _, b := range s.f.Blocks {
		info := &s.infos[b.ID]
		if info.wsStart == nil {
			continue // unreachable
		}
		for j, e := range b.Preds {
			pred := e.Block()
			pinfo := &s.infos[pred.ID]
			if pinfo.wsEnd == nil {
				continue
			}
			for _, ent := range info.wsStart.ents {
				w := ent.v
				if w.isPhiOf(b) {
					w = w.Args[j]
				}
				if w.Op == OpUnknown {
					continue
				}
				if !pinfo.wsEnd.contains(w) {
					s.env.AddReloadOnEdge(w, pred)
					s.log.Debugf("edge reload of %s on %s -> %s", w, pred, b)
				}
			}
		}
	}
}

func containsValue(vs []*Value, v *Value) bool {
	for _, w := range vs {
		if w == v {
			return true
		}
	}
	return false
}
