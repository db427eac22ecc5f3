package vm

// captureState tracks the capture open in the current scope.
// The zero value is the ended state.
type captureState struct {
	started bool
	at      int
}

func (s captureState) isEnded() bool {
	return !s.started
}

// start opens a capture at pos.
// Opening a capture twice means the program is malformed; it panics.
func (s *captureState) start(pos int) {
	if s.started {
		panic("vm: capture already started")
	}
	*s = captureState{started: true, at: pos}
}

// end closes the open capture at pos and returns its range.
// Closing without an open capture means the program is malformed; it panics.
func (s *captureState) end(pos int) Range {
	if !s.started {
		panic("vm: capture already ended")
	}
	r := Range{Start: s.at, End: pos}
	*s = captureState{}
	return r
}
