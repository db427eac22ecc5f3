package vm

import (
	"fmt"
	"sync"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/coregx/recapture/recode"
)

// Backtracker is a backtracking interpreter for recode programs.
//
// Split instructions are explored leftmost-first: the preferred branch runs
// immediately and a snapshot of the thread is saved for the alternative. When
// a thread fails the most recent snapshot is restored. Every (instruction,
// position) pair is explored at most once per execution, so the worst case is
// O(instructions * positions) steps regardless of the pattern.
//
// Matching anchors at the start of the range and consuming instructions never
// read past its end. Assertions look at the whole input, so text around the
// range still decides \b, ^ and $.
//
// The program is shared read-only and per-execution state is pooled, so a
// Backtracker is safe for concurrent use.
type Backtracker struct {
	prog   *recode.Program
	config Config
	log    *zap.Logger
	states sync.Pool
}

// searchState holds the reusable buffers of one execution.
type searchState struct {
	visited visitedSet
	jobs    []job
}

// job is a saved alternative: a thread snapshot and its input position.
type job struct {
	snap Snapshot
	pos  int
}

// NewBacktracker creates a backtracker for prog.
// Zero-valued config fields take their defaults.
func NewBacktracker(prog *recode.Program, config Config) *Backtracker {
	if config.MaxVisitedBits == 0 {
		config.MaxVisitedBits = DefaultMaxVisitedBits
	}
	b := &Backtracker{
		prog:   prog,
		config: config,
		log:    config.logger(),
	}
	b.states.New = func() any { return &searchState{} }
	return b
}

// Motto implements VirtualMachine.
func (b *Backtracker) Motto() string {
	return "Try the first way, remember the others, never walk a dead end twice."
}

// Program returns the program the backtracker runs.
func (b *Backtracker) Program() *recode.Program {
	return b.prog
}

// Execute implements VirtualMachine.
func (b *Backtracker) Execute(input string, r Range, mode MatchMode) *MatchResult {
	if !r.valid(len(input)) {
		panic(fmt.Sprintf("vm: range %v out of bounds for input of length %d", r, len(input)))
	}

	st, _ := b.states.Get().(*searchState)
	defer b.putState(st)
	st.visited.reset(b.prog.Len(), r, b.config.MaxVisitedBits)

	return b.run(st, input, r, mode)
}

// run executes one thread anchored at r.Start against the memo in st.
//
//nolint:gocyclo,cyclop // complexity is inherent to instruction dispatch
func (b *Backtracker) run(st *searchState, input string, r Range, mode MatchMode) *MatchResult {
	clear(st.jobs)
	st.jobs = st.jobs[:0]

	core := NewThreadCore(b.prog.Start(), input)
	pos := r.Start
	trace := b.config.TraceSteps

	for {
		ok := st.visited.shouldVisit(core.PC, pos)
		if ok {
			inst := b.prog.Inst(core.PC)
			if trace {
				b.traceStep(&core, inst, pos)
			}

			switch inst.Op {
			case recode.OpMatch:
				return b.accept(&core, r.Start, pos)

			case recode.OpFail:
				ok = false

			case recode.OpRune, recode.OpAny, recode.OpAnyNotNL:
				rest := input[pos:r.End]
				if rest == "" || (mode == PartialFromFront && !utf8.FullRuneInString(rest)) {
					if mode == PartialFromFront {
						return &MatchResult{
							Range:    Range{Start: r.Start, End: pos},
							Captures: core.Finish(pos),
							Partial:  true,
						}
					}
					ok = false
					break
				}
				c, size := utf8.DecodeRuneInString(rest)
				if consumes(inst, c) {
					pos += size
					core.Advance()
				} else {
					ok = false
				}

			case recode.OpSplit:
				st.jobs = append(st.jobs, job{snap: core.SaveAt(inst.Y), pos: pos})
				core.GoTo(inst.X)

			case recode.OpJump:
				core.GoTo(inst.X)

			case recode.OpAssert:
				if inst.Look.Holds(input, pos) {
					core.Advance()
				} else {
					ok = false
				}

			case recode.OpBeginCapture:
				core.BeginCapture(pos)
				core.Advance()

			case recode.OpEndCapture:
				core.EndCapture(pos, b.prog.Transform(inst.Transform))
				core.Advance()

			case recode.OpBeginGroup:
				core.BeginGroup()
				core.Advance()

			case recode.OpEndGroup:
				core.EndGroup()
				core.Advance()

			case recode.OpCaptureNil:
				core.CaptureNil()
				core.Advance()

			case recode.OpCaptureSome:
				core.CaptureSome()
				core.Advance()

			case recode.OpCaptureArray:
				core.CaptureArray()
				core.Advance()

			default:
				panic(fmt.Sprintf("vm: unknown opcode %v at %d", inst.Op, core.PC))
			}
		}

		if !ok {
			n := len(st.jobs)
			if n == 0 {
				return nil
			}
			j := st.jobs[n-1]
			st.jobs[n-1] = job{}
			st.jobs = st.jobs[:n-1]
			core.adopt(j.snap)
			pos = j.pos
		}
	}
}

// consumes reports whether a consuming instruction accepts c.
func consumes(inst *recode.Inst, c rune) bool {
	switch inst.Op {
	case recode.OpAny:
		return true
	case recode.OpAnyNotNL:
		return c != '\n'
	default:
		return inst.MatchRune(c)
	}
}

// accept freezes the thread into a result. A program reaching Match with an
// open group or capture is malformed.
func (b *Backtracker) accept(core *ThreadCore, start, end int) *MatchResult {
	if core.Depth() != 0 {
		panic(fmt.Sprintf("vm: match reached with %d open groups", core.Depth()))
	}
	if core.CaptureOpen() {
		panic("vm: match reached with an open capture")
	}
	return &MatchResult{
		Range:    Range{Start: start, End: end},
		Captures: core.SingleCapture(),
	}
}

func (b *Backtracker) traceStep(core *ThreadCore, inst *recode.Inst, pos int) {
	b.log.Debug("step",
		zap.Uint32("pc", uint32(core.PC)),
		zap.Int("pos", pos),
		zap.Stringer("inst", inst),
		zap.Int("depth", core.Depth()),
	)
}

func (b *Backtracker) putState(st *searchState) {
	clear(st.jobs)
	st.jobs = st.jobs[:0]
	b.states.Put(st)
}

// Scan is one unanchored search over a range: WholeString executions at
// increasing start positions that share one memo. A (pc, pos) pair that failed
// from one start fails from every start, so a scan over n positions costs
// O(instructions * n) steps in total rather than per start.
//
// A Scan is not safe for concurrent use. Close returns its buffers.
type Scan struct {
	b     *Backtracker
	st    *searchState
	input string
	r     Range
	last  int
}

// NewScan starts a scan of input over r. Panics if r is out of bounds.
func (b *Backtracker) NewScan(input string, r Range) *Scan {
	if !r.valid(len(input)) {
		panic(fmt.Sprintf("vm: range %v out of bounds for input of length %d", r, len(input)))
	}
	st, _ := b.states.Get().(*searchState)
	st.visited.reset(b.prog.Len(), r, b.config.MaxVisitedBits)
	return &Scan{b: b, st: st, input: input, r: r, last: r.Start}
}

// ExecuteAt matches in WholeString mode anchored at start, up to the end of
// the scanned range. Start positions must not decrease, and after a match the
// next start must not precede its end.
func (s *Scan) ExecuteAt(start int) *MatchResult {
	if start < s.last || start > s.r.End {
		panic(fmt.Sprintf("vm: scan start %d outside [%d, %d]", start, s.last, s.r.End))
	}
	s.last = start

	res := s.b.run(s.st, s.input, Range{Start: start, End: s.r.End}, WholeString)
	if res != nil {
		// Pairs on the accepted path may lie at the match end, where the
		// next start can begin. Everything after it failed.
		s.st.visited.clearPos(res.Range.End)
		s.last = res.Range.End
	}
	return res
}

// Close releases the scan's buffers. The scan must not be used afterwards.
func (s *Scan) Close() {
	if s.st != nil {
		s.b.putState(s.st)
		s.st = nil
	}
}
