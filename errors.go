package ssaback

// This file defines the error kinds of the package and the panic/recover
// plumbing that turns internal invariant violations into errors at the
// exported pass boundaries.
//
// Inside a pass, code that detects a broken invariant calls Func.Fatalf:
// there is nothing sensible to do with a malformed graph, so the pass
// unwinds immediately.  The exported entry points recover the panic and
// return it as a wrapped error, so callers see a plain error value and the
// process survives.

import (
	"github.com/pkg/errors"
)

// ErrInvariant is the cause of every invariant-violation error: a working
// set exceeding the register count, a completely isolated phi SCC, frame
// members overlapping.  The graph is malformed and the compilation unit
// must be abandoned.
var ErrInvariant = errors.New("invariant violation")

// ErrNotImplemented is the cause of errors for target constraints the core
// does not legalize.
var ErrNotImplemented = errors.New("not implemented")

// compileError carries a fatal error through a panic.
type compileError struct {
	err error
}

// Fatalf aborts the current pass with an invariant-violation error.
func (f *Func) Fatalf(format string, args ...interface{}) {
	panic(compileError{errors.Wrapf(ErrInvariant, "%s: "+format, append([]interface{}{f.Name}, args...)...)})
}

// NotImplementedf aborts the current pass with a not-implemented error.
func (f *Func) NotImplementedf(format string, args ...interface{}) {
	panic(compileError{errors.Wrapf(ErrNotImplemented, "%s: "+format, append([]interface{}{f.Name}, args...)...)})
}

// fatalErrf builds an invariant-violation error for code that runs outside
// a Func, such as the frame layout.
func fatalErrf(format string, args ...interface{}) error {
	return errors.Wrapf(ErrInvariant, format, args...)
}

// catchFatal converts a compileError panic into the named pass's returned
// error.  Other panics propagate.
func catchFatal(err *error, pass string) {
	if r := recover(); r != nil {
		ce, ok := r.(compileError)
		if !ok {
			panic(r)
		}
		*err = errors.WithMessage(ce.err, pass)
	}
}
