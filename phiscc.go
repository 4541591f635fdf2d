package ssaback

// This file implements the removal of redundant phi SCCs.
//
// A cycle of phis whose combined external inputs name a single value v
// computes nothing: every phi in the cycle equals v.  One Tarjan pass is
// not enough to find them all, because collapsing an SCC can expose
// smaller redundant cycles that were hidden in its interior.  Instead of
// iterating the whole pass to a fixed point, discovered SCCs go through a
// work queue: a non-redundant SCC sheds its rim (the phis with external
// inputs) and its interior is re-seeded into Tarjan under a fresh
// iteration id, so only genuinely new, smaller components are produced.
//
// Replacements are collected in a map and applied to the graph once the
// queue drains.  Because earlier decisions are not materialized while the
// queue is live, every predecessor lookup goes through canonical, which
// chases the map to its fixed point.

import (
	"github.com/sirupsen/logrus"
)

// A phiSCC is one strongly connected component of phis waiting for
// evaluation.
type phiSCC struct {
	nodes []*Value
	in    map[ID]bool // membership, keyed by value ID
}

type phiSCCState struct {
	f       *Func
	replace map[ID]*Value // value -> canonical replacement (one step)

	// Tarjan bookkeeping, indexed by value ID.
	dfn     []int32
	low     []int32
	onstack []bool
	stack   []*Value
	nextDfn int32

	// sccID records the iteration id under which a phi was last seeded.
	// A phi is eligible for the current Tarjan run iff its recorded id is
	// at least curID; rim nodes of evaluated SCCs keep their old id and
	// so become boundaries.
	sccID []int32
	curID int32

	queue []*phiSCC
	log   *logrus.Entry
}

// RemovePhiSCCs collapses every phi SCC whose only external input is a
// single value, rewriting all uses of the collapsed phis to that value.
// Phis marked Keep are never touched.  A completely isolated SCC (no
// external input at all) means the graph is malformed and yields an
// invariant-violation error.
//
// The pass is single shot: running it a second time on its own output
// changes nothing.
func RemovePhiSCCs(f *Func) (err error) {
	defer catchFatal(&err, "phi-scc")

	s := &phiSCCState{
		f:       f,
		replace: make(map[ID]*Value),
		dfn:     make([]int32, f.NumValues()),
		low:     make([]int32, f.NumValues()),
		onstack: make([]bool, f.NumValues()),
		sccID:   make([]int32, f.NumValues()),
		log:     logrus.WithFields(logrus.Fields{"pass": "phi-scc", "func": f.Name}),
	}

	var seeds []*Value
	for _, b := range f.Blocks {
		seeds = append(seeds, b.Phis...)
	}
	s.tarjan(seeds)

	for len(s.queue) > 0 {
		scc := s.queue[0]
		s.queue = s.queue[1:]
		s.evaluate(scc)
	}

	if len(s.replace) == 0 {
		return nil
	}
	s.log.Debugf("collapsing %d phis", len(s.replace))
	s.rewrite()
	return nil
}

// canonical chases the replacement map to its fixed point, compressing the
// path on the way.  It must be consulted at every predecessor lookup: the
// graph still holds the un-rewritten edges while the queue is live.
func (s *phiSCCState) canonical(v *Value) *Value {
	r, ok := s.replace[v.ID]
	if !ok {
		return v
	}
	r = s.canonical(r)
	s.replace[v.ID] = r
	return r
}

// removable reports whether v participates in the current Tarjan run.
// Non-phis, loop-carry phis, and phis whose seeding id predates the
// current iteration are SCC boundaries.
func (s *phiSCCState) removable(v *Value) bool {
	return v.Op == OpPhi && !v.Keep && s.sccID[v.ID] >= s.curID
}

// tarjanFrame is one suspended strongconnect activation.
type tarjanFrame struct {
	v    *Value
	argi int
}

// tarjan runs the SCC search over the phi subgraph reachable from seeds,
// treating non-removable values as boundaries.  Components of size greater
// than one are appended to the work queue in the order Tarjan produces
// them (reverse topological).  Trivial single-phi components are the
// surrounding compiler's business and are dropped here.
func (s *phiSCCState) tarjan(seeds []*Value) {
	for _, root := range seeds {
		if !s.removable(root) || s.dfn[root.ID] != 0 {
			continue
		}
		s.strongconnect(root)
	}
}

// strongconnect is the usual Tarjan visit, iterative to survive deep phi
// chains.
func (s *phiSCCState) strongconnect(root *Value) {
	frames := []tarjanFrame{{v: root}}
	s.visit(root)

	for len(frames) > 0 {
		fr := &frames[len(frames)-1]
		v := fr.v

		if fr.argi < len(v.Args) {
			w := s.canonical(v.Args[fr.argi])
			fr.argi++
			if !s.removable(w) {
				continue
			}
			if s.dfn[w.ID] == 0 {
				frames = append(frames, tarjanFrame{v: w})
				s.visit(w)
				continue
			}
			if s.onstack[w.ID] && s.dfn[w.ID] < s.low[v.ID] {
				s.low[v.ID] = s.dfn[w.ID]
			}
			continue
		}

		frames = frames[:len(frames)-1]
		if len(frames) > 0 {
			if p := frames[len(frames)-1].v; s.low[v.ID] < s.low[p.ID] {
				s.low[p.ID] = s.low[v.ID]
			}
		}
		if s.low[v.ID] != s.dfn[v.ID] {
			continue
		}

		// v is the root of a component; pop it off the stack.
		var nodes []*Value
		for {
			w := s.stack[len(s.stack)-1]
			s.stack = s.stack[:len(s.stack)-1]
			s.onstack[w.ID] = false
			nodes = append(nodes, w)
			if w == v {
				break
			}
		}
		if len(nodes) < 2 {
			continue
		}
		scc := &phiSCC{nodes: nodes, in: make(map[ID]bool, len(nodes))}
		for _, n := range nodes {
			scc.in[n.ID] = true
		}
		s.queue = append(s.queue, scc)
	}
}

func (s *phiSCCState) visit(v *Value) {
	s.nextDfn++
	s.dfn[v.ID] = s.nextDfn
	s.low[v.ID] = s.nextDfn
	s.stack = append(s.stack, v)
	s.onstack[v.ID] = true
}

// evaluate decides the fate of one queued SCC.
func (s *phiSCCState) evaluate(scc *phiSCC) {
	// Collect the distinct canonical external predecessors.  Self loops
	// do not count.  Once two are seen the verdict is settled, so the
	// scan stops; of the predecessors seen so far the last one stands,
	// though nothing reads it in that case.
	var uniq *Value
	distinct := 0
scan:
	for _, n := range scc.nodes {
		for _, a := range n.Args {
			p := s.canonical(a)
			if p == n || scc.in[p.ID] {
				continue
			}
			if uniq == nil {
				uniq = p
				distinct = 1
				continue
			}
			if p != uniq {
				uniq = p
				distinct = 2
				break scan
			}
		}
	}

	switch distinct {
	case 0:
		s.f.Fatalf("phi SCC of %d nodes has no external predecessor", len(scc.nodes))

	case 1:
		// Redundant: every phi in the component computes uniq.
		for _, n := range scc.nodes {
			s.replace[n.ID] = uniq
		}
		s.log.Debugf("scc of %d phis collapses to %s", len(scc.nodes), uniq)

	default:
		// Non-redundant.  The rim (phis with an external input) is
		// settled, but collapsing other components may still merge the
		// externals seen by the interior.  Re-seed the interior under a
		// fresh iteration id; the rim's stale id excludes it from the
		// new search.
		var interior []*Value
		for _, n := range scc.nodes {
			inner := true
			for _, a := range n.Args {
				p := s.canonical(a)
				if p != n && !scc.in[p.ID] {
					inner = false
					break
				}
			}
			if inner {
				interior = append(interior, n)
			}
		}
		if len(interior) == 0 {
			return
		}
		s.curID++
		for _, n := range interior {
			s.sccID[n.ID] = s.curID
			s.dfn[n.ID] = 0
			s.low[n.ID] = 0
		}
		s.tarjan(interior)
	}
}

// rewrite applies the replacement map: every edge into a collapsed phi is
// redirected to its canonical value.  The phis themselves become
// unreachable; pruning them is outside this pass.
func (s *phiSCCState) rewrite() {
	redirect := func(u *Value) {
		for i, a := range u.Args {
			if c := s.canonical(a); c != a {
				u.SetArg(i, c)
			}
		}
	}
	for _, b := range s.f.Blocks {
		for _, v := range b.Phis {
			redirect(v)
		}
		for _, v := range b.Values {
			redirect(v)
		}
	}
	if s.f.End != nil {
		redirect(s.f.End)
	}
}
