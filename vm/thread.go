package vm

import "github.com/coregx/recapture/recode"

// groupFrame is the enclosing scope suspended by BeginGroup.
type groupFrame struct {
	captures []Capture
	state    captureState
}

// ThreadCore is the mutable state of one matching attempt: the program
// counter, the input, and the capture scopes under construction.
//
// Captures accumulate in the current scope. BeginGroup suspends the scope on
// the group stack and starts an empty one; EndGroup folds the finished scope
// into a single value of the enclosing one. CaptureNil, CaptureSome and
// CaptureArray are the only operations that give a scope a shape.
//
// A ThreadCore is owned by a single attempt and is not safe for concurrent use.
// Slices kept in suspended frames and snapshots are clipped, so appending to
// the live scope never writes into storage they share.
type ThreadCore struct {
	// PC is the address of the next instruction to execute.
	PC recode.InstAddr

	// Input is the text being scanned.
	Input string

	groups           Stack[groupFrame]
	topLevelCaptures []Capture
	captureState     captureState
}

// NewThreadCore returns a thread positioned at pc and bound to input.
func NewThreadCore(pc recode.InstAddr, input string) ThreadCore {
	return ThreadCore{PC: pc, Input: input}
}

// Advance moves to the next instruction.
func (t *ThreadCore) Advance() {
	t.PC++
}

// GoTo moves to addr.
func (t *ThreadCore) GoTo(addr recode.InstAddr) {
	t.PC = addr
}

// BeginCapture marks pos as the start of a capture.
// Panics if a capture is already open in the current scope.
func (t *ThreadCore) BeginCapture(pos int) {
	t.captureState.start(pos)
}

// EndCapture closes the open capture at pos and appends its text, passed
// through transform when non-nil, as an atom of the current scope.
// Panics if no capture is open in the current scope.
func (t *ThreadCore) EndCapture(pos int, transform recode.Transform) {
	r := t.captureState.end(pos)
	text := t.Input[r.Start:r.End]

	var value any = text
	if transform != nil {
		value = transform(text)
	}
	t.topLevelCaptures = append(t.topLevelCaptures, Atom(value))
}

// BeginGroup suspends the current scope and starts an empty one.
func (t *ThreadCore) BeginGroup() {
	t.groups.Push(groupFrame{
		captures: clip(t.topLevelCaptures),
		state:    t.captureState,
	})
	t.topLevelCaptures = nil
	t.captureState = captureState{}
}

// EndGroup resumes the enclosing scope. If the finished scope produced any
// captures, its single value is appended to the enclosing scope.
// Panics without a matching BeginGroup or with a capture still open.
func (t *ThreadCore) EndGroup() {
	if t.groups.IsEmpty() {
		panic("vm: group stack underflow")
	}
	if !t.captureState.isEnded() {
		panic("vm: group ended with an open capture")
	}

	frame := t.groups.Pop()
	outer := frame.captures
	if len(t.topLevelCaptures) > 0 {
		outer = append(outer, t.SingleCapture())
	}
	t.topLevelCaptures = outer
	t.captureState = frame.state
}

// CaptureNil replaces the current scope with an absent optional.
func (t *ThreadCore) CaptureNil() {
	t.topLevelCaptures = []Capture{None()}
}

// CaptureSome replaces the current scope with a present optional wrapping it.
func (t *ThreadCore) CaptureSome() {
	t.topLevelCaptures = []Capture{Some(t.SingleCapture())}
}

// CaptureArray replaces the current scope with an array of its values.
func (t *ThreadCore) CaptureArray() {
	t.topLevelCaptures = []Capture{Array(t.topLevelCaptures...)}
}

// SingleCapture returns the value of the current scope without changing it.
func (t *ThreadCore) SingleCapture() Capture {
	return TupleOrAtom(t.topLevelCaptures...)
}

// Depth returns the number of suspended scopes.
func (t *ThreadCore) Depth() int {
	return t.groups.Len()
}

// Captures returns a copy of the values of the current scope.
func (t *ThreadCore) Captures() []Capture {
	if len(t.topLevelCaptures) == 0 {
		return nil
	}
	out := make([]Capture, len(t.topLevelCaptures))
	copy(out, t.topLevelCaptures)
	return out
}

// CaptureOpen reports whether a capture is open in the current scope.
func (t *ThreadCore) CaptureOpen() bool {
	return !t.captureState.isEnded()
}

// Finish closes every open capture at pos and every open group, innermost
// first, and returns the root value. Captures closed this way hold raw text.
// It is used to report partial matches.
func (t *ThreadCore) Finish(pos int) Capture {
	for {
		if t.CaptureOpen() {
			t.EndCapture(pos, nil)
		}
		if t.groups.IsEmpty() {
			return t.SingleCapture()
		}
		t.EndGroup()
	}
}

// Snapshot is a saved ThreadCore state. Restoring it resets the program
// counter, the group stack, the current scope and the capture state together.
type Snapshot struct {
	pc       recode.InstAddr
	groups   Stack[groupFrame]
	captures []Capture
	state    captureState
}

// PC returns the saved program counter.
func (s Snapshot) PC() recode.InstAddr {
	return s.pc
}

// Save returns a snapshot of the thread.
func (t *ThreadCore) Save() Snapshot {
	return Snapshot{
		pc:       t.PC,
		groups:   t.groups.Clone(),
		captures: clip(t.topLevelCaptures),
		state:    t.captureState,
	}
}

// SaveAt returns a snapshot of the thread with the program counter set to pc.
func (t *ThreadCore) SaveAt(pc recode.InstAddr) Snapshot {
	s := t.Save()
	s.pc = pc
	return s
}

// Restore resets the thread to s. A snapshot may be restored any number of times.
func (t *ThreadCore) Restore(s Snapshot) {
	t.PC = s.pc
	t.groups = s.groups.Clone()
	t.topLevelCaptures = s.captures
	t.captureState = s.state
}

// adopt restores s without copying; s must not be used again.
func (t *ThreadCore) adopt(s Snapshot) {
	t.PC = s.pc
	t.groups = s.groups
	t.topLevelCaptures = s.captures
	t.captureState = s.state
}

func clip(captures []Capture) []Capture {
	return captures[:len(captures):len(captures)]
}
