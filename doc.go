/*
Package ssaback implements the register-pressure core of a compiler
back end operating on a graph-based SSA intermediate representation.

Overview

The package owns a small IR — functions, blocks with a schedule, values
with typed modes, a stack frame of entities — and three passes over it.

The phi-SCC pass (RemovePhiSCCs) finds strongly connected components of
phi nodes whose combined external inputs name a single value.  Every phi
in such a cycle computes that value and is replaced by it.  Components
are discovered by Tarjan's algorithm and fed through a work queue:
collapsing one component can expose smaller redundant cycles nested in
its interior, so the interior of each non-redundant component is
re-seeded into the search instead of re-running the whole pass to a
fixed point.

The Belady spiller (SpillBelady) decides, for one register class of K
registers, which values are modelled as register resident at every
program point.  Each block is walked in schedule order with a working
set of at most K values; when an instruction needs more, the values
whose next use is farthest away are evicted, following Belady's rule.
Uses of evicted values get Reload pseudo ops, definitions get Spill
pseudo ops, phis that do not fit a join block's start set become memory
phis with per-edge stores.  The pass only decides; materialization and
the SSA repair that follows it live in SpillEnv.Finalize, so a driver
can batch several decision walks before mutating the graph.

The stack passes assign frame offsets and rebuild the stack pointer.
SortFrameEntities and LayoutFrameType place the frame entities downward
from a seed offset, honoring alignment relative to the entry
misalignment of the stack pointer.  SimStackPointer walks the control
flow simulating the SP displacement, widening aligning IncSP nodes and
re-synchronizing compensating ones.  FixStackNodes collects every node
producing the SP and re-establishes SSA form over them, inserting
SP-carrying phis at joins.

The passes are single shot and single threaded with respect to a
function; compiling many functions in parallel is the caller's business,
one goroutine per function, nothing shared.

Errors

Invariant violations — a working set above K, an isolated phi cycle,
overlapping frame entities — are unrecoverable: the exported entry
points return an error wrapping ErrInvariant and the function must be
abandoned.  Benign absences (no SP definitions to rewire, an entity
already placed) are silently skipped.
*/
package ssaback
