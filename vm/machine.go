// Package vm implements the capture virtual machine: the capture value model,
// the per-attempt thread state that builds it, and the backtracking
// interpreter that runs recode programs.
//
// The core contract is VirtualMachine. An implementation is constructed once
// from a program and then executed any number of times, concurrently if
// needed; every Execute call owns its own ThreadCore.
//
// Absence of a match is reported as a nil *MatchResult. A malformed program
// (a capture opened twice, a group closed without being opened) is a bug in
// the compiler, not in the input, and panics.
package vm

import "fmt"

// MatchMode selects how an execution is accepted.
type MatchMode uint8

const (
	// WholeString anchors the match at the start of the range. The match
	// may end anywhere within the range.
	WholeString MatchMode = iota

	// PartialFromFront also accepts a thread that runs out of input inside
	// the range while the program still wants more, reporting the prefix
	// consumed so far.
	PartialFromFront
)

// String returns the name of the mode.
func (m MatchMode) String() string {
	switch m {
	case WholeString:
		return "wholeString"
	case PartialFromFront:
		return "partialFromFront"
	default:
		return fmt.Sprintf("MatchMode(%d)", m)
	}
}

// Range is a half-open range [Start, End) of byte offsets.
type Range struct {
	Start int
	End   int
}

// RangeOf returns the range covering all of s.
func RangeOf(s string) Range {
	return Range{Start: 0, End: len(s)}
}

// Len returns End - Start.
func (r Range) Len() int {
	return r.End - r.Start
}

// Empty reports whether the range covers no bytes.
func (r Range) Empty() bool {
	return r.End <= r.Start
}

// Contains reports whether pos lies in [Start, End).
func (r Range) Contains(pos int) bool {
	return r.Start <= pos && pos < r.End
}

// Slice returns s[r.Start:r.End].
func (r Range) Slice(s string) string {
	return s[r.Start:r.End]
}

// String returns the range as "[start, end)".
func (r Range) String() string {
	return fmt.Sprintf("[%d, %d)", r.Start, r.End)
}

// valid reports whether r lies within an input of length n.
func (r Range) valid(n int) bool {
	return 0 <= r.Start && r.Start <= r.End && r.End <= n
}

// MatchResult is the outcome of a successful execution: the matched range and
// the root capture value. It holds no reference into the machine.
type MatchResult struct {
	// Range is the matched range of the input.
	Range Range

	// Captures is the TupleOrAtom of the root scope at acceptance.
	Captures Capture

	// Partial is true when PartialFromFront accepted the match because the
	// input ran out before the program completed.
	Partial bool
}

// Destructure returns the matched range and the captures.
func (m *MatchResult) Destructure() (Range, Capture) {
	return m.Range, m.Captures
}

// VirtualMachine runs a compiled program over strings.
//
// Implementations are constructed from a *recode.Program, which they share
// read-only. Execute must be safe to call concurrently.
type VirtualMachine interface {
	// Motto describes the implementation. It is informational only.
	Motto() string

	// Execute matches input restricted to r under mode. It returns the first
	// match in the implementation's search order, or nil.
	// Panics if r does not lie within input.
	Execute(input string, r Range, mode MatchMode) *MatchResult
}

// ExecuteString runs m over all of input in WholeString mode.
func ExecuteString(m VirtualMachine, input string) *MatchResult {
	return m.Execute(input, RangeOf(input), WholeString)
}
