package ssaback

// This file simulates the stack-pointer displacement along the control
// flow and patches the stack-adjusting nodes.
//
// Two integers ride along the walk.  offset is the actual SP displacement
// from function entry, negative when the SP has moved down.  wantedBias is
// the displacement the ABI wants at the same point; alignment padding can
// push offset below it, never above.  An IncSP with an alignment request
// absorbs the padding; an IncSP without one releases the accumulated
// discrepancy again.

import (
	"github.com/sirupsen/logrus"
)

// A StackSim decides what a node the simulation does not understand does
// to the stack pointer.  It receives the node and the displacement before
// it and returns the displacement after it.  Returning 0 means the SP has
// been re-established from a frame pointer: the simulation resets both
// the offset and the wanted bias.
type StackSim func(v *Value, offset int64) int64

type biasState struct {
	f        *Func
	misalign int64
	cb       StackSim
	visited  []bool
	log      *logrus.Entry
}

// SimStackPointer walks the control-flow graph from the entry block,
// simulating the SP displacement and patching every IncSP:
//
//   - an IncSP with an alignment request (AuxAlign > 0, a power-of-two
//     exponent) is widened so the SP lands on the requested alignment,
//     honoring the entry misalignment;
//   - an IncSP without one (AuxAlign == 0) additionally releases the
//     padding accumulated since, re-synchronizing the SP with the bias
//     the ABI wants;
//   - a MemPerm gets the current displacement recorded in its AuxInt, for
//     the slot addressing that follows;
//   - every other node is handed to cb, if any.
//
// Each reachable block is visited exactly once, with the offset and bias
// its DFS-first predecessor exits with.
func SimStackPointer(f *Func, misalign int64, cb StackSim) (err error) {
	defer catchFatal(&err, "stack-bias")

	s := &biasState{
		f:        f,
		misalign: misalign,
		cb:       cb,
		visited:  make([]bool, f.NumBlocks()),
		log:      logrus.WithFields(logrus.Fields{"pass": "stack-bias", "func": f.Name}),
	}
	s.walk(f.Entry, 0, 0)
	return nil
}

func (s *biasState) walk(b *Block, offset, wantedBias int64) {
	if s.visited[b.ID] {
		return
	}
	s.visited[b.ID] = true

	for _, v := range b.Values {
		switch v.Op {
		case OpIncSP:
			ofs := v.AuxInt
			if v.AuxAlign > 0 {
				// Align the SP that results from the nominal
				// adjustment; the slack widens the IncSP.
				align := int64(1) << uint(v.AuxAlign)
				aligned := -roundUpMisaligned(-(offset + ofs), align, s.misalign)
				v.AuxInt = aligned - offset
				offset = aligned
				wantedBias += ofs
				if v.AuxInt != ofs {
					s.log.Debugf("%s widened from %d to %d in %s", v, ofs, v.AuxInt, b)
				}
			} else {
				// Release the discrepancy along with the nominal
				// adjustment.
				delta := wantedBias - offset
				if delta < 0 {
					s.f.Fatalf("stack bias fell behind: offset %d above wanted %d at %s", offset, wantedBias, v)
				}
				v.AuxInt = ofs + delta
				offset += v.AuxInt
				wantedBias += ofs
			}

		case OpMemPerm:
			v.AuxInt = offset

		default:
			if s.cb == nil {
				continue
			}
			after := s.cb(v, offset)
			if after == 0 {
				// SP restored from a frame pointer.
				offset = 0
				wantedBias = 0
				continue
			}
			wantedBias += after - offset
			offset = after
		}

		if offset > wantedBias {
			s.f.Fatalf("stack offset %d above wanted bias %d after %s", offset, wantedBias, v)
		}
	}

	for _, e := range b.Succs {
		s.walk(e.Block(), offset, wantedBias)
	}
}
