package ssaback

// This file defines the opcode and mode enumerations.

// An Op identifies the operation a Value performs.
//
// The set is deliberately small: the passes in this package only inspect
// structure (phis, projections, the stack-manipulating pseudo ops and the
// spill pseudo ops).  Everything the passes treat as an ordinary computation
// is OpGeneric or OpCall.
type Op int32

const (
	OpInvalid Op = iota

	OpPhi     // control-flow merge; one argument per block predecessor
	OpCopy    // identity
	OpProj    // extracts component AuxInt of a tuple-mode argument
	OpConst   // constant, payload in AuxInt
	OpUnknown // undefined value, available in any register by convention
	OpGeneric // ordinary computation
	OpCall    // ordinary computation that clobbers caller-saved state
	OpSP      // the incoming stack pointer

	OpIncSP     // stack-pointer adjust: AuxInt bytes, AuxAlign alignment request
	OpMemPerm   // permutes the contents of spill slots
	OpFrameAddr // address of a frame entity (Entity)
	OpSpill     // stores its argument to spill slot Entity; memory mode
	OpReload    // loads spill slot Entity back into a register

	OpEnd // per-function keep-alive pseudo node; its arguments are pinned
)

var opNames = [...]string{
	OpInvalid:   "Invalid",
	OpPhi:       "Phi",
	OpCopy:      "Copy",
	OpProj:      "Proj",
	OpConst:     "Const",
	OpUnknown:   "Unknown",
	OpGeneric:   "Generic",
	OpCall:      "Call",
	OpSP:        "SP",
	OpIncSP:     "IncSP",
	OpMemPerm:   "MemPerm",
	OpFrameAddr: "FrameAddr",
	OpSpill:     "Spill",
	OpReload:    "Reload",
	OpEnd:       "End",
}

func (o Op) String() string {
	if o < 0 || int(o) >= len(opNames) {
		return "Op?"
	}
	return opNames[o]
}

// A Mode is the semantic domain of a Value: an ordinary machine mode, the
// distinguished memory mode M, or the tuple mode T for multi-result nodes.
type Mode uint8

const (
	ModeNone Mode = iota
	ModeInt
	ModeFloat
	ModePtr
	ModeMem   // M: memory state
	ModeTuple // T: multi-result; consumed through OpProj
)

var modeNames = [...]string{
	ModeNone:  "none",
	ModeInt:   "int",
	ModeFloat: "float",
	ModePtr:   "ptr",
	ModeMem:   "M",
	ModeTuple: "T",
}

func (m Mode) String() string {
	if int(m) >= len(modeNames) {
		return "mode?"
	}
	return modeNames[m]
}
