package ssaback

// This file checks the structural invariants of a function.  CheckFunc is
// test tooling: the passes trust their input; the test builder runs the
// checker on every function it builds, and most tests run it again after
// mutating the graph.

import (
	"github.com/pkg/errors"
)

// CheckFunc verifies f's structural invariants:
//
//   - edge lists are consistent (the reverse edge of every edge points
//     back at it);
//   - every phi has one argument per control predecessor of its block;
//   - phis never appear in a schedule, and every scheduled value belongs
//     to exactly one position of exactly one block;
//   - argument edges of scheduled values are non-nil and point at values
//     of the same function (phi arguments are not checked for this).
//
// A fixed frame additionally must have every entity placed, without
// overlap, within the frame size; an overlap is reported as an
// ErrInvariant error.
func CheckFunc(f *Func) error {
	seen := make(map[*Value]string)

	for _, b := range f.Blocks {
		if b.Func != f {
			return errf("%s: block %s belongs to another function", f.Name, b)
		}
		for i, e := range b.Preds {
			p := e.Block()
			if j := e.Index(); j >= len(p.Succs) || p.Succs[j].Block() != b || p.Succs[j].Index() != i {
				return errf("%s: broken predecessor edge %s <- %s", f.Name, b, p)
			}
		}
		for i, e := range b.Succs {
			c := e.Block()
			if j := e.Index(); j >= len(c.Preds) || c.Preds[j].Block() != b || c.Preds[j].Index() != i {
				return errf("%s: broken successor edge %s -> %s", f.Name, b, c)
			}
		}

		for _, v := range b.Phis {
			if v.Op != OpPhi {
				return errf("%s: non-phi %s in phi list of %s", f.Name, v, b)
			}
			if v.Block != b {
				return errf("%s: phi %s in %s claims block %s", f.Name, v, b, v.Block)
			}
			if len(v.Args) != len(b.Preds) {
				return errf("%s: phi %s has %d args for %d predecessors", f.Name, v, len(v.Args), len(b.Preds))
			}
			if prev, dup := seen[v]; dup {
				return errf("%s: %s placed twice (%s and phi of %s)", f.Name, v, prev, b)
			}
			seen[v] = "phi of " + b.String()
		}
		for i, v := range b.Values {
			if v.Op == OpPhi {
				return errf("%s: phi %s scheduled in %s", f.Name, v, b)
			}
			if v.Block != b {
				return errf("%s: scheduled %s in %s claims block %s", f.Name, v, b, v.Block)
			}
			if prev, dup := seen[v]; dup {
				return errf("%s: %s placed twice (%s and %s[%d])", f.Name, v, prev, b, i)
			}
			seen[v] = b.String()
			for _, a := range v.Args {
				if a == nil {
					return errf("%s: %s has a nil argument", f.Name, v)
				}
				if int(a.ID) >= f.NumValues() || f.ValueByID(a.ID) != a {
					return errf("%s: %s argues a foreign value", f.Name, v)
				}
			}
		}
	}

	if fr := f.Frame; fr != nil && fr.State == FrameLayoutFixed {
		if err := checkFrame(fr); err != nil {
			return errors.WithMessage(err, f.Name)
		}
	}
	return nil
}

// checkFrame verifies that a fixed frame has every entity placed and that
// no two entities overlap.
func checkFrame(fr *Frame) error {
	for _, e := range fr.Entities {
		if e.Offset == OffsetUnset {
			return errf("frame entity %s has no offset after layout", e.Name)
		}
		if e.Offset < -fr.Size {
			return errf("frame entity %s at %d below frame size %d", e.Name, e.Offset, fr.Size)
		}
	}
	for i, e := range fr.Entities {
		for _, o := range fr.Entities[i+1:] {
			if e.Offset < o.Offset+o.Size && o.Offset < e.Offset+e.Size {
				return fatalErrf("frame entities %s and %s overlap", e.Name, o.Name)
			}
		}
	}
	return nil
}

func errf(format string, args ...interface{}) error {
	return errors.Errorf(format, args...)
}
