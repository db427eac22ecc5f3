package recode

import (
	"fmt"
	"strings"
)

// Transform converts the text of a closed capture into the value stored in its
// atom. Transforms must be pure: the same text always yields an equal value.
type Transform func(text string) any

// Program is a compiled, immutable instruction sequence.
type Program struct {
	insts      []Inst
	start      InstAddr
	transforms []Transform

	// names[i] is the name of capture group i; names[0] is the whole match.
	names []string

	// anchorStart is true when every match must begin at the start of text.
	anchorStart bool

	// prefixes are literals one of which every match must begin with.
	// Nil when no useful set is known.
	prefixes []string
}

// Len returns the number of instructions.
func (p *Program) Len() int {
	return len(p.insts)
}

// Start returns the address of the first instruction to execute.
func (p *Program) Start() InstAddr {
	return p.start
}

// Inst returns the instruction at pc.
// The returned pointer must not be used to modify the program.
func (p *Program) Inst(pc InstAddr) *Inst {
	return &p.insts[pc]
}

// Transform returns transform i, or nil for NoTransform.
func (p *Program) Transform(i int) Transform {
	if i == NoTransform {
		return nil
	}
	return p.transforms[i]
}

// NumCaptures returns the number of capturing groups, excluding the whole match.
func (p *Program) NumCaptures() int {
	if len(p.names) == 0 {
		return 0
	}
	return len(p.names) - 1
}

// Names returns the capture group names; element 0 is always "".
// Returns a copy.
func (p *Program) Names() []string {
	if len(p.names) == 0 {
		return []string{""}
	}
	names := make([]string, len(p.names))
	copy(names, p.names)
	return names
}

// AnchorStart reports whether matches can only start at the beginning of text.
func (p *Program) AnchorStart() bool {
	return p.anchorStart
}

// Prefixes returns the necessary literal prefixes of every match, or nil.
// Returns a copy.
func (p *Program) Prefixes() []string {
	if p.prefixes == nil {
		return nil
	}
	out := make([]string, len(p.prefixes))
	copy(out, p.prefixes)
	return out
}

// String returns a disassembly of the program, one instruction per line.
func (p *Program) String() string {
	var b strings.Builder
	for pc := range p.insts {
		marker := "  "
		if InstAddr(pc) == p.start { //nolint:gosec // G115: bounded by Build
			marker = "> "
		}
		fmt.Fprintf(&b, "%s%3d  %s\n", marker, pc, p.insts[pc].String())
	}
	return b.String()
}
