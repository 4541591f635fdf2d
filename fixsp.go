package ssaback

// This file re-establishes SSA form for the stack pointer.  After frame
// layout and bias simulation, many nodes produce the SP (the entry SP,
// every IncSP, frame-pointer restores); their users still point at
// whichever definition construction happened to wire.  The fix collects
// all SP-producing nodes, hands them to the SSA reconstruction, and
// annotates the phis that appear with the SP register.  Keep edges
// pinning SP producers that ended up without real users are removed, and
// the orphaned producers deleted.

import (
	"github.com/sirupsen/logrus"
)

// FixStackNodes rewires every user of the stack pointer to the nearest
// dominating SP definition, inserting SP phis at joins.  sp is the stack
// pointer register; a value carries the SP when its assigned register is
// sp and its mode is not the tuple mode.  Finding no SP definitions at
// all is not an error: graphs reduced to endless loops may have lost
// their keep edges, and there is nothing to rewire.
func FixStackNodes(f *Func, sp *Register) (err error) {
	defer catchFatal(&err, "fix-stack")

	log := logrus.WithFields(logrus.Fields{"pass": "fix-stack", "func": f.Name})

	var defs []*Value
	for _, b := range f.Blocks {
		for _, v := range b.Phis {
			if v.Mode != ModeTuple && v.Reg == sp {
				defs = append(defs, v)
			}
		}
		for _, v := range b.Values {
			if v.Mode != ModeTuple && v.Reg == sp {
				defs = append(defs, v)
			}
		}
	}
	if len(defs) == 0 {
		return nil
	}
	log.Debugf("%d stack pointer definitions", len(defs))

	phis := reconstructSSA(f, defs)
	for _, phi := range phis {
		phi.Class = sp.Class
		phi.Reg = sp
	}

	// Keep edges exist to pin SP producers inside endless loops.  A
	// producer whose only remaining user is the End node serves nothing:
	// drop its keep edge and the producer itself.
	if f.End == nil {
		return nil
	}
	users := f.userTable()
	kept := f.End.Args[:0]
	for _, kv := range f.End.Args {
		if kv.Reg == sp && len(users[kv.ID]) == 1 {
			log.Debugf("dropping orphaned SP producer %s", kv)
			if kv.Block != nil && kv.Op != OpPhi {
				kv.Block.removeValue(kv)
			}
			continue
		}
		kept = append(kept, kv)
	}
	f.End.Args = kept
	return nil
}
