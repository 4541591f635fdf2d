package ssaback

// This file defines the spill environment: the boundary between deciding
// what to spill (the Belady walk) and mutating the graph.  The walk only
// records decisions here; Finalize materializes them as Spill and Reload
// nodes, allocates the slots, and repairs SSA form.

import (
	"github.com/sirupsen/logrus"
)

// A reloadPoint names one position where a value must be brought back into
// a register: immediately before a scheduled instruction, or on the edge
// into a block (materialized at the end of the predecessor).
type reloadPoint struct {
	v      *Value
	before *Value // reload immediately before this instruction, or
	atEnd  *Block // reload at the end of this block (cut-edge reload)
}

// A SpillEnv accumulates the spill decisions for one function and one
// register class and knows how to apply them.
type SpillEnv struct {
	f   *Func
	cls *RegClass
	lv  *Liveness

	reloads  []reloadPoint
	phiSpill []*Value            // phis becoming memory phis
	isPhiSp  map[ID]bool         // membership of phiSpill
	slots    map[ID]*FrameEntity // spilled value -> its slot

	log *logrus.Entry
}

// NewSpillEnv prepares a spill environment for f and the given class,
// computing the liveness it needs.
func NewSpillEnv(f *Func, cls *RegClass) *SpillEnv {
	return &SpillEnv{
		f:       f,
		cls:     cls,
		lv:      ComputeLiveness(f),
		isPhiSp: make(map[ID]bool),
		slots:   make(map[ID]*FrameEntity),
		log:     logrus.WithFields(logrus.Fields{"pass": "spill", "func": f.Name}),
	}
}

// AddReload records that v must be reloaded immediately before instr.
func (e *SpillEnv) AddReload(v, instr *Value) {
	e.reloads = append(e.reloads, reloadPoint{v: v, before: instr})
}

// AddReloadOnEdge records that v must be reloaded on the edge from pred
// into its successor.  Critical edges are assumed split, so the end of
// pred is a correct position.
func (e *SpillEnv) AddReloadOnEdge(v *Value, pred *Block) {
	e.reloads = append(e.reloads, reloadPoint{v: v, atEnd: pred})
}

// SpillPhi records that phi did not fit its block's start working set: on
// every incoming edge the corresponding argument is stored to a common
// slot and the phi itself becomes a memory phi.
func (e *SpillEnv) SpillPhi(phi *Value) {
	if e.isPhiSp[phi.ID] {
		return
	}
	e.isPhiSp[phi.ID] = true
	e.phiSpill = append(e.phiSpill, phi)
}

// slotFor returns the spill slot of v, creating it on first request.
// Every slot is one machine word (8 bytes, 8-aligned) whatever the class;
// that covers every class this package models.
func (e *SpillEnv) slotFor(v *Value) *FrameEntity {
	if s, ok := e.slots[v.ID]; ok {
		return s
	}
	s := e.f.Frame.NewSpillSlot("spill."+v.String(), 8, 8)
	e.slots[v.ID] = s
	return s
}

// SlotOf returns the slot assigned to v, or nil if v was never spilled.
func (e *SpillEnv) SlotOf(v *Value) *FrameEntity { return e.slots[v.ID] }

// Reloads returns the recorded reload points, in record order.  Exposed
// for tests.
func (e *SpillEnv) Reloads() []reloadPoint { return e.reloads }

// SpilledPhis returns the phis recorded by SpillPhi.
func (e *SpillEnv) SpilledPhis() []*Value { return e.phiSpill }

// Finalize inserts the recorded spills and reloads into the graph.
//
// For every value with at least one reload, a Spill is placed right after
// its definition and a Reload at each recorded point; then SSA form is
// re-established over the definition and its reloads, so every user sees
// the nearest dominating definition.  For every phi recorded by SpillPhi,
// the arguments are stored to the phi's slot at the end of each
// predecessor and the phi becomes a memory phi.
func (e *SpillEnv) Finalize() (err error) {
	defer catchFatal(&err, "spill-finalize")

	// Group the reloads per spilled value, preserving record order.
	order := make([]*Value, 0, len(e.reloads))
	byVal := make(map[ID][]reloadPoint)
	for _, r := range e.reloads {
		if _, ok := byVal[r.v.ID]; !ok {
			order = append(order, r.v)
		}
		byVal[r.v.ID] = append(byVal[r.v.ID], r)
	}

	for _, v := range order {
		slot := e.slotFor(v)
		defs := []*Value{v}

		// The definition-side store.  A spilled phi has no single
		// definition point; its stores are per-edge and handled below.
		if !e.isPhiSp[v.ID] {
			spill := e.f.newValue(OpSpill, ModeMem, v)
			spill.Entity = slot
			if v.Op == OpPhi {
				b := v.Block
				b.insertAt(0, spill)
			} else {
				v.Block.insertAfter(v, spill)
			}
		}

		for _, r := range byVal[v.ID] {
			rv := e.f.newValue(OpReload, v.Mode)
			rv.Entity = slot
			rv.Class = e.cls
			if r.before != nil {
				r.before.Block.insertBefore(r.before, rv)
			} else {
				r.atEnd.appendValue(rv)
			}
			defs = append(defs, rv)
		}

		e.log.Debugf("%s: %d reloads, slot %s", v, len(byVal[v.ID]), slot.Name)
		for _, phi := range reconstructSSA(e.f, defs) {
			phi.Class = e.cls
		}
	}

	// Memory-phi conversion for the spilled phis.
	for _, phi := range e.phiSpill {
		slot := e.slotFor(phi)
		for i, pred := range phi.Block.Preds {
			in := phi.Args[i]
			if in.Op == OpUnknown {
				continue
			}
			st := e.f.newValue(OpSpill, ModeMem, in)
			st.Entity = slot
			pred.Block().appendValue(st)
		}
		phi.Mode = ModeMem
		phi.Class = nil
		phi.Entity = slot
	}
	return nil
}
