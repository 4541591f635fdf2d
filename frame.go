package ssaback

// This file defines the stack frame: entities, their pre-sort, and the
// downward layout that assigns offsets.

import (
	"sort"
)

// OffsetUnset is the sentinel offset of an entity the layout has not
// placed yet.
const OffsetUnset int64 = 1<<63 - 1

// An EntityKind distinguishes spill slots from ordinary frame members.
type EntityKind uint8

const (
	EntityLocal EntityKind = iota
	EntitySpillSlot
)

// A FrameEntity is a symbol living in the function's stack frame.
type FrameEntity struct {
	Name string
	Kind EntityKind

	// Size and Align describe the slot itself.  For a spill slot they are
	// authoritative; for an ordinary entity Size is the size of the
	// underlying type and TypeAlign its natural alignment, of which the
	// layout takes the maximum with Align.
	Size      int64
	Align     int64
	TypeAlign int64

	// Offset is the assigned frame offset, negative and growing downward.
	// OffsetUnset until the layout runs, unless the caller pre-assigned it.
	Offset int64

	// Nr is the creation ordinal; the pre-sort uses it as the stable key
	// within each kind group.
	Nr int
}

// effectiveAlign returns the alignment the layout must honor for e.
func (e *FrameEntity) effectiveAlign() int64 {
	a := e.Align
	if e.Kind == EntityLocal && e.TypeAlign > a {
		a = e.TypeAlign
	}
	if a == 0 {
		a = 1
	}
	return a
}

// A FrameState tracks whether offsets have been assigned.
type FrameState uint8

const (
	FrameLayoutPending FrameState = iota
	FrameLayoutFixed
)

// A Frame is the ordered, mutable collection of a function's frame
// entities.
type Frame struct {
	Entities []*FrameEntity
	Size     int64
	State    FrameState

	nextNr int
}

// NewFrame returns an empty frame in the pending state.
func NewFrame() *Frame {
	return &Frame{State: FrameLayoutPending}
}

// NewEntity adds an ordinary member of the given size and alignment.
func (fr *Frame) NewEntity(name string, size, align int64) *FrameEntity {
	return fr.add(name, EntityLocal, size, align)
}

// NewSpillSlot adds a spill slot of the given size and alignment.
func (fr *Frame) NewSpillSlot(name string, size, align int64) *FrameEntity {
	return fr.add(name, EntitySpillSlot, size, align)
}

func (fr *Frame) add(name string, kind EntityKind, size, align int64) *FrameEntity {
	e := &FrameEntity{
		Name:   name,
		Kind:   kind,
		Size:   size,
		Align:  align,
		Offset: OffsetUnset,
		Nr:     fr.nextNr,
	}
	fr.nextNr++
	fr.Entities = append(fr.Entities, e)
	return e
}

// SortFrameEntities pre-sorts the frame members for layout.  Entities with a
// pre-assigned offset come first, in decreasing offset order, so the layout
// cursor passes over them monotonically.  The remaining entities are grouped
// by kind, spill slots first or last per spillSlotsFirst; within each group
// the order is the creation ordinal.  Clustering the spill slots keeps their
// aliasing relationship with the locals predictable and improves locality of
// the spill area.
func SortFrameEntities(fr *Frame, spillSlotsFirst bool) {
	rank := func(e *FrameEntity) int {
		if e.Offset != OffsetUnset {
			return 0
		}
		if (e.Kind == EntitySpillSlot) == spillSlotsFirst {
			return 1
		}
		return 2
	}
	sort.SliceStable(fr.Entities, func(i, j int) bool {
		a, b := fr.Entities[i], fr.Entities[j]
		if ra, rb := rank(a), rank(b); ra != rb {
			return ra < rb
		}
		if a.Offset != OffsetUnset && b.Offset != OffsetUnset {
			return a.Offset > b.Offset
		}
		return a.Nr < b.Nr
	})
}

// roundUpPow2 rounds x up to a multiple of align, a power of two.
func roundUpPow2(x, align int64) int64 {
	return (x + align - 1) &^ (align - 1)
}

// roundUpMisaligned rounds x up so that x+misalign is a multiple of align.
// align must be a power of two.
func roundUpMisaligned(x, align, misalign int64) int64 {
	return roundUpPow2(x+misalign, align) - misalign
}

// LayoutFrameType assigns offsets to every member of fr that does not have
// one yet, laying the frame out downward from begin.  misalign is the
// residual misalignment of the stack pointer at function entry; alignment
// constraints are satisfied relative to it.  Members with a pre-assigned
// offset are kept and the cursor continues below them.  On return the
// frame's size is the negation of the lowest offset (the distance from 0,
// not from begin, to the lowest byte) and the state is fixed.
//
// Running the layout twice with the same inputs is a no-op: the second run
// finds every offset already assigned.
func LayoutFrameType(fr *Frame, begin, misalign int64) error {
	offset := begin
	for _, e := range fr.Entities {
		if e.Offset != OffsetUnset {
			if e.Offset > begin {
				return fatalErrf("frame entity %s pre-assigned above begin: %d > %d", e.Name, e.Offset, begin)
			}
			if e.Offset < offset {
				offset = e.Offset
			}
			continue
		}
		align := e.effectiveAlign()
		offset -= e.Size
		offset = -roundUpMisaligned(-offset, align, misalign)
		e.Offset = offset
	}
	fr.Size = -offset
	fr.State = FrameLayoutFixed
	return nil
}
