// Package recapture provides a regex engine whose matches produce structured
// capture values instead of flat submatch slices.
//
// A pattern is compiled into a program that builds a capture tree while it
// matches: every group contributes a value, repeated groups collect an array,
// optional groups an optional, and nested groups a tuple. Named groups can be
// bound to transforms that turn the captured text into any value.
//
// Basic usage:
//
//	re := recapture.MustCompile(`(\w+)@(\w+)\.com`)
//	res := re.Find("mail bob@example.com now")
//	fmt.Println(res.Captures.Collapse()) // ("bob", "example")
//
// Matching modes:
//   - WholeString: the match begins at the start of the range and may end
//     anywhere inside it.
//   - PartialFromFront: like WholeString, but running out of input while
//     a match is still possible also counts as a (partial) match.
//
// Execution is backtracking with memoization. One search, including every
// start position Find tries, takes O(program size * input length) steps.
package recapture

import (
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/coregx/recapture/prefilter"
	"github.com/coregx/recapture/recode"
	"github.com/coregx/recapture/vm"
)

// MatchMode selects how a match relates to the end of the searched range.
type MatchMode = vm.MatchMode

// Match modes.
const (
	WholeString      = vm.WholeString
	PartialFromFront = vm.PartialFromFront
)

type (
	// Range is a half-open range of byte offsets.
	Range = vm.Range

	// MatchResult is a matched range together with its capture tree.
	MatchResult = vm.MatchResult

	// Capture is a node of a capture tree.
	Capture = vm.Capture
)

// Regex represents a compiled regular expression.
//
// A Regex is safe to use concurrently from multiple goroutines.
//
// Example:
//
//	re := recapture.MustCompile(`(?P<key>\w+)=(?P<value>\w+)`)
//	if res := re.Find("x a=b"); res != nil {
//	    fmt.Println(res.Range.Slice("x a=b")) // a=b
//	}
type Regex struct {
	prog      *recode.Program
	bt        *vm.Backtracker
	machine   vm.VirtualMachine
	prefilter prefilter.Prefilter
	pattern   string
}

// Compile compiles a regular expression pattern.
//
// Syntax is Perl-compatible (same as Go's stdlib regexp).
// Returns an error if the pattern is invalid.
//
// Example:
//
//	re, err := recapture.Compile(`(\d{3})-(\d{4})`)
//	if err != nil {
//	    log.Fatal(err)
//	}
func Compile(pattern string) (*Regex, error) {
	return CompileWithConfig(pattern, DefaultConfig())
}

// MustCompile compiles a regular expression pattern and panics if it fails.
//
// Example:
//
//	var dateRegex = recapture.MustCompile(`(\d+)-(\d+)-(\d+)`)
func MustCompile(pattern string) *Regex {
	re, err := Compile(pattern)
	if err != nil {
		panic("recapture: Compile(`" + pattern + "`): " + err.Error())
	}
	return re
}

// CompileWithConfig compiles a pattern with custom configuration.
//
// Example:
//
//	config := recapture.DefaultConfig()
//	config.Logger = logger
//	re, err := recapture.CompileWithConfig(`(a|b)+`, config)
func CompileWithConfig(pattern string, config Config) (*Regex, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	prog, err := recode.NewCompiler(config.compilerConfig()).Compile(pattern)
	if err != nil {
		return nil, err
	}

	var pf prefilter.Prefilter
	if config.EnablePrefilter && !prog.AnchorStart() {
		pf = prefilter.NewBuilder(prog.Prefixes()).Build()
	}

	bt := vm.NewBacktracker(prog, config.vmConfig())
	machine := vm.WithLogger(bt, config.Logger)

	if config.Logger != nil {
		config.Logger.Debug("compiled",
			zap.String("pattern", pattern),
			zap.Int("insts", prog.Len()),
			zap.Int("captures", prog.NumCaptures()),
			zap.Bool("anchored", prog.AnchorStart()),
			zap.Bool("prefilter", pf != nil),
		)
	}

	return &Regex{
		prog:      prog,
		bt:        bt,
		machine:   machine,
		prefilter: pf,
		pattern:   pattern,
	}, nil
}

// QuoteMeta returns a string that escapes all regular expression metacharacters
// inside the argument text; the returned string is a regular expression matching
// the literal text.
//
// Example:
//
//	escaped := recapture.QuoteMeta("1+1=2?")
//	// escaped = `1\+1=2\?`
func QuoteMeta(s string) string {
	var buf []byte
	for i := 0; i < len(s); i++ {
		if isMeta(s[i]) {
			if buf == nil {
				buf = make([]byte, 0, len(s)+8)
				buf = append(buf, s[:i]...)
			}
			buf = append(buf, '\\')
		}
		if buf != nil {
			buf = append(buf, s[i])
		}
	}
	if buf == nil {
		return s
	}
	return string(buf)
}

func isMeta(c byte) bool {
	switch c {
	case '\\', '.', '+', '*', '?', '(', ')', '|', '[', ']', '{', '}', '^', '$':
		return true
	}
	return false
}

// Execute matches the pattern against input, anchored at the start of input.
// Returns nil if there is no match.
//
// Example:
//
//	re := recapture.MustCompile(`(\d+)-(\d+)`)
//	res := re.Execute("10-20 rest", recapture.WholeString)
//	// res.Range = [0, 5), res.Captures.Collapse() = ("10", "20")
func (r *Regex) Execute(input string, mode MatchMode) *MatchResult {
	return r.machine.Execute(input, vm.RangeOf(input), mode)
}

// ExecuteRange matches the pattern against input[rng.Start:rng.End], anchored
// at rng.Start. Assertions such as ^ and \b still see the text around the range.
// Panics if rng is out of bounds.
func (r *Regex) ExecuteRange(input string, rng Range, mode MatchMode) *MatchResult {
	return r.machine.Execute(input, rng, mode)
}

// Find returns the leftmost match in s, or nil if there is none.
//
// Example:
//
//	re := recapture.MustCompile(`(\w+)@(\w+)`)
//	res := re.Find("write to bob@home")
//	// res.Range.Slice(...) = "bob@home"
func (r *Regex) Find(s string) *MatchResult {
	sr := r.newSearch(s)
	defer sr.close()
	return sr.next(0)
}

// search is the state of one unanchored scan over an input.
type search struct {
	re       *Regex
	input    string
	haystack []byte
	tracker  *prefilter.Tracker
	scan     *vm.Scan
}

func (r *Regex) newSearch(s string) *search {
	sr := &search{re: r, input: s}
	if r.prefilter != nil {
		sr.haystack = []byte(s)
		sr.tracker = prefilter.NewTracker(r.prefilter)
	}
	return sr
}

func (sr *search) close() {
	if sr.scan != nil {
		sr.scan.Close()
	}
}

// next returns the leftmost match starting at or after at.
// Start positions are taken from the prefilter while it stays effective.
func (sr *search) next(at int) *MatchResult {
	s := sr.input
	if sr.re.prog.AnchorStart() {
		if at != 0 {
			return nil
		}
		return sr.re.machine.Execute(s, vm.RangeOf(s), WholeString)
	}

	if sr.scan == nil {
		sr.scan = sr.re.bt.NewScan(s, vm.RangeOf(s))
	}
	for start := at; start <= len(s); {
		filtered := sr.tracker != nil && sr.tracker.Active()
		if filtered {
			candidate := sr.tracker.Find(sr.haystack, start)
			if candidate < 0 {
				return nil
			}
			start = candidate
		}
		if res := sr.scan.ExecuteAt(start); res != nil {
			if filtered {
				sr.tracker.Confirm()
			}
			return res
		}
		start += runeWidth(s, start)
	}
	return nil
}

// runeWidth returns the byte width of the rune at s[i:], at least 1.
func runeWidth(s string, i int) int {
	if i >= len(s) {
		return 1
	}
	_, w := utf8.DecodeRuneInString(s[i:])
	return w
}

// FindString returns the text of the leftmost match in s.
// Returns "" if there is no match; use FindStringIndex or Find to tell an
// empty match from no match.
func (r *Regex) FindString(s string) string {
	res := r.Find(s)
	if res == nil {
		return ""
	}
	return res.Range.Slice(s)
}

// FindStringIndex returns a two-element slice of integers defining the
// location of the leftmost match in s. Returns nil if there is no match.
func (r *Regex) FindStringIndex(s string) []int {
	res := r.Find(s)
	if res == nil {
		return nil
	}
	return []int{res.Range.Start, res.Range.End}
}

// FindAll returns successive non-overlapping matches in s.
// If n >= 0, it returns at most n matches. If n < 0, it returns all matches.
// An empty match directly after a previous match is ignored.
//
// Example:
//
//	re := recapture.MustCompile(`(\d)`)
//	all := re.FindAll("1 2 3", -1)
//	// len(all) == 3
func (r *Regex) FindAll(s string, n int) []*MatchResult {
	if n == 0 {
		return nil
	}

	sr := r.newSearch(s)
	defer sr.close()
	var matches []*MatchResult
	prevEnd := -1
	pos := 0
	for pos <= len(s) {
		res := sr.next(pos)
		if res == nil {
			break
		}

		if res.Range.Empty() && res.Range.Start == prevEnd {
			pos = res.Range.Start + runeWidth(s, res.Range.Start)
			continue
		}

		matches = append(matches, res)
		if n > 0 && len(matches) >= n {
			break
		}

		prevEnd = res.Range.End
		if res.Range.Empty() {
			pos = res.Range.End + runeWidth(s, res.Range.End)
		} else {
			pos = res.Range.End
		}
	}
	return matches
}

// FindAllString returns the text of successive non-overlapping matches in s.
// If n >= 0, it returns at most n matches. If n < 0, it returns all matches.
func (r *Regex) FindAllString(s string, n int) []string {
	matches := r.FindAll(s, n)
	if matches == nil {
		return nil
	}

	result := make([]string, len(matches))
	for i, m := range matches {
		result[i] = m.Range.Slice(s)
	}
	return result
}

// MatchString reports whether the string s contains any match of the pattern.
func (r *Regex) MatchString(s string) bool {
	return r.Find(s) != nil
}

// String returns the source text used to compile the regular expression.
func (r *Regex) String() string {
	return r.pattern
}

// NumSubexp returns the number of parenthesized subexpressions.
func (r *Regex) NumSubexp() int {
	return r.prog.NumCaptures()
}

// SubexpNames returns the names of the parenthesized subexpressions.
// names[0] is always the empty string; unnamed groups have empty names.
//
// Example:
//
//	re := recapture.MustCompile(`(?P<year>\d+)-(?P<month>\d+)`)
//	names := re.SubexpNames()
//	// names = ["", "year", "month"]
func (r *Regex) SubexpNames() []string {
	return r.prog.Names()
}

// Program returns the compiled program.
func (r *Regex) Program() *recode.Program {
	return r.prog
}

// Motto returns the motto of the virtual machine running the pattern.
func (r *Regex) Motto() string {
	return r.machine.Motto()
}
