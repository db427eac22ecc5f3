// Package prefilter provides fast candidate filtering for unanchored search
// using the literal prefixes of a compiled program.
//
// A prefilter skips positions of the haystack where no match can begin, so the
// virtual machine only runs at positions where one of the program's required
// prefixes occurs.
//
// The builder selects a strategy from the prefixes:
//   - Single byte → byteFilter (bytes.IndexByte)
//   - Single substring → substringFilter (bytes.Index)
//   - Several literals → AhoCorasick automaton
//
// Example usage:
//
//	prog, _ := recode.NewDefaultCompiler().Compile("(hello|world)")
//	pf := prefilter.NewBuilder(prog.Prefixes()).Build()
//
//	haystack := []byte("foo hello bar world baz")
//	pos := pf.Find(haystack, 0)
//	// pos == 4 (position of "hello")
package prefilter

import (
	"bytes"
	"sort"

	"github.com/coregx/ahocorasick"
)

// Prefilter is used to quickly find candidate match positions before running
// the virtual machine.
type Prefilter interface {
	// Find returns the smallest index >= start at which a candidate match may
	// begin, or -1 if there is none.
	//
	// A candidate does NOT guarantee a match: the caller must run the
	// machine at the returned position and continue from pos+1 on failure.
	//
	// Example:
	//
	//	pos := pf.Find(haystack, 0)
	//	for pos != -1 {
	//	    if matchAt(haystack, pos) {
	//	        return pos
	//	    }
	//	    pos = pf.Find(haystack, pos+1)
	//	}
	Find(haystack []byte, start int) int

	// LiteralLen returns the byte length of the literals searched for.
	LiteralLen() int
}

// Builder constructs the prefilter for a set of prefix literals.
//
// Every match of the program must begin with one of the prefixes. Before
// building, the prefixes are cut to the length of the shortest one: a prefix of
// a required prefix is still required, and equal lengths make the earliest
// literal occurrence also the earliest start.
type Builder struct {
	prefixes []string
}

// NewBuilder creates a new prefilter builder from prefix literals.
// A nil or empty slice, or one containing "", yields no prefilter.
func NewBuilder(prefixes []string) *Builder {
	return &Builder{prefixes: prefixes}
}

// Build constructs the best prefilter for the literals, or returns nil when
// none applies.
func (b *Builder) Build() Prefilter {
	lits := normalize(b.prefixes)
	switch len(lits) {
	case 0:
		return nil
	case 1:
		if len(lits[0]) == 1 {
			return &byteFilter{b: lits[0][0]}
		}
		return &substringFilter{needle: []byte(lits[0])}
	default:
		return newAhoCorasick(lits)
	}
}

// normalize cuts literals to the shortest length and removes duplicates.
// Returns nil if any literal is empty.
func normalize(prefixes []string) []string {
	if len(prefixes) == 0 {
		return nil
	}
	minLen := len(prefixes[0])
	for _, p := range prefixes {
		if len(p) < minLen {
			minLen = len(p)
		}
	}
	if minLen == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(prefixes))
	out := make([]string, 0, len(prefixes))
	for _, p := range prefixes {
		p = p[:minLen]
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// byteFilter searches for a single byte.
type byteFilter struct {
	b byte
}

func (f *byteFilter) Find(haystack []byte, start int) int {
	if start >= len(haystack) {
		return -1
	}
	i := bytes.IndexByte(haystack[start:], f.b)
	if i < 0 {
		return -1
	}
	return start + i
}

func (f *byteFilter) LiteralLen() int { return 1 }

// substringFilter searches for a single substring.
type substringFilter struct {
	needle []byte
}

func (f *substringFilter) Find(haystack []byte, start int) int {
	if start >= len(haystack) {
		return -1
	}
	i := bytes.Index(haystack[start:], f.needle)
	if i < 0 {
		return -1
	}
	return start + i
}

func (f *substringFilter) LiteralLen() int { return len(f.needle) }

// AhoCorasick searches for several equal-length literals at once.
type AhoCorasick struct {
	auto   *ahocorasick.Automaton
	litLen int
}

// newAhoCorasick builds the automaton, or returns nil if construction fails.
func newAhoCorasick(lits []string) Prefilter {
	builder := ahocorasick.NewBuilder()
	for _, lit := range lits {
		builder.AddPattern([]byte(lit))
	}
	auto, err := builder.Build()
	if err != nil {
		return nil
	}
	return &AhoCorasick{auto: auto, litLen: len(lits[0])}
}

// Find implements Prefilter.
func (f *AhoCorasick) Find(haystack []byte, start int) int {
	if start >= len(haystack) {
		return -1
	}
	m := f.auto.Find(haystack, start)
	if m == nil {
		return -1
	}
	return m.Start
}

// LiteralLen implements Prefilter.
func (f *AhoCorasick) LiteralLen() int { return f.litLen }
