// Package recode defines the compiled program (RECode) executed by the capture
// virtual machine, together with a Builder for assembling programs by hand and a
// Compiler that produces them from regexp/syntax patterns.
//
// A Program is a flat sequence of instructions addressed by InstAddr.
// Instructions that do not jump continue at the next address. Programs are
// immutable once built and may be shared by any number of concurrent searches.
package recode

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// InstAddr is the address of an instruction within a Program.
type InstAddr uint32

// InvalidAddr marks an unset jump target.
const InvalidAddr InstAddr = 0xFFFFFFFF

// NoTransform is the transform index of an EndCapture without a transform.
const NoTransform = -1

// Opcode identifies the kind of an instruction.
type Opcode uint8

const (
	// OpMatch accepts the current thread.
	OpMatch Opcode = iota

	// OpFail kills the current thread.
	OpFail

	// OpRune consumes one rune contained in the instruction's ranges.
	OpRune

	// OpAny consumes any rune.
	OpAny

	// OpAnyNotNL consumes any rune except '\n'.
	OpAnyNotNL

	// OpSplit continues at X and leaves Y as the alternative.
	OpSplit

	// OpJump continues at X.
	OpJump

	// OpAssert checks a zero-width assertion.
	OpAssert

	// OpBeginCapture marks the start position of a capturing group.
	OpBeginCapture

	// OpEndCapture closes the open capture and appends it as an atom.
	OpEndCapture

	// OpBeginGroup opens a fresh capture accumulation scope.
	OpBeginGroup

	// OpEndGroup collapses the current scope into its parent.
	OpEndGroup

	// OpCaptureNil replaces the scope with an absent optional.
	OpCaptureNil

	// OpCaptureSome wraps the scope in a present optional.
	OpCaptureSome

	// OpCaptureArray wraps the scope in an array.
	OpCaptureArray
)

var opcodeNames = [...]string{
	OpMatch:        "match",
	OpFail:         "fail",
	OpRune:         "rune",
	OpAny:          "any",
	OpAnyNotNL:     "anynotnl",
	OpSplit:        "split",
	OpJump:         "jmp",
	OpAssert:       "assert",
	OpBeginCapture: "begincap",
	OpEndCapture:   "endcap",
	OpBeginGroup:   "begingroup",
	OpEndGroup:     "endgroup",
	OpCaptureNil:   "capnil",
	OpCaptureSome:  "capsome",
	OpCaptureArray: "caparray",
}

// String returns the mnemonic of the opcode.
func (op Opcode) String() string {
	if int(op) < len(opcodeNames) {
		return opcodeNames[op]
	}
	return fmt.Sprintf("Opcode(%d)", op)
}

// Consumes reports whether the opcode reads input.
func (op Opcode) Consumes() bool {
	return op == OpRune || op == OpAny || op == OpAnyNotNL
}

// Look identifies a zero-width assertion.
type Look uint8

const (
	// LookBeginText matches at the start of the text (\A, ^ without m flag).
	LookBeginText Look = iota

	// LookEndText matches at the end of the text (\z, $ without m flag).
	LookEndText

	// LookBeginLine matches at the start of the text or after '\n'.
	LookBeginLine

	// LookEndLine matches at the end of the text or before '\n'.
	LookEndLine

	// LookWordBoundary matches between a word and a non-word byte (\b).
	LookWordBoundary

	// LookNoWordBoundary matches where \b does not (\B).
	LookNoWordBoundary
)

// String returns the mnemonic of the assertion.
func (l Look) String() string {
	switch l {
	case LookBeginText:
		return `\A`
	case LookEndText:
		return `\z`
	case LookBeginLine:
		return "^"
	case LookEndLine:
		return "$"
	case LookWordBoundary:
		return `\b`
	case LookNoWordBoundary:
		return `\B`
	default:
		return fmt.Sprintf("Look(%d)", l)
	}
}

// Holds reports whether the assertion holds at pos in text.
func (l Look) Holds(text string, pos int) bool {
	switch l {
	case LookBeginText:
		return pos == 0
	case LookEndText:
		return pos == len(text)
	case LookBeginLine:
		return pos == 0 || text[pos-1] == '\n'
	case LookEndLine:
		return pos == len(text) || text[pos] == '\n'
	case LookWordBoundary:
		return isWordBefore(text, pos) != isWordAfter(text, pos)
	case LookNoWordBoundary:
		return isWordBefore(text, pos) == isWordAfter(text, pos)
	}
	return false
}

func isWordBefore(text string, pos int) bool {
	return pos > 0 && isWordByte(text[pos-1])
}

func isWordAfter(text string, pos int) bool {
	return pos < len(text) && isWordByte(text[pos])
}

// isWordByte returns true if b is an ASCII word character [a-zA-Z0-9_]
func isWordByte(b byte) bool {
	return b == '_' ||
		('a' <= b && b <= 'z') ||
		('A' <= b && b <= 'Z') ||
		('0' <= b && b <= '9')
}

// Inst is a single program instruction. The opcode decides which fields are
// meaningful.
type Inst struct {
	Op Opcode

	// X is the target of Jump and the preferred branch of Split.
	X InstAddr

	// Y is the alternative branch of Split.
	Y InstAddr

	// Runes holds inclusive [lo, hi] pairs for OpRune, sorted ascending.
	Runes []rune

	// Look is the assertion checked by OpAssert.
	Look Look

	// Group is the 1-based capture group index of Begin/EndCapture.
	Group int

	// Transform indexes Program.Transforms for OpEndCapture, or NoTransform.
	Transform int
}

// MatchRune reports whether r is accepted by an OpRune instruction.
func (i *Inst) MatchRune(r rune) bool {
	runes := i.Runes
	// Short classes dominate; scan linearly.
	if len(runes) <= 8 {
		for j := 0; j+1 < len(runes); j += 2 {
			if r < runes[j] {
				return false
			}
			if r <= runes[j+1] {
				return true
			}
		}
		return false
	}

	lo, hi := 0, len(runes)/2
	for lo < hi {
		m := lo + (hi-lo)/2
		switch {
		case r < runes[2*m]:
			hi = m
		case r > runes[2*m+1]:
			lo = m + 1
		default:
			return true
		}
	}
	return false
}

// String returns a disassembly of the instruction.
func (i *Inst) String() string {
	switch i.Op {
	case OpRune:
		return "rune " + formatRanges(i.Runes)
	case OpSplit:
		return fmt.Sprintf("split %d, %d", i.X, i.Y)
	case OpJump:
		return fmt.Sprintf("jmp %d", i.X)
	case OpAssert:
		return "assert " + i.Look.String()
	case OpBeginCapture:
		return fmt.Sprintf("begincap %d", i.Group)
	case OpEndCapture:
		if i.Transform != NoTransform {
			return fmt.Sprintf("endcap %d transform=%d", i.Group, i.Transform)
		}
		return fmt.Sprintf("endcap %d", i.Group)
	default:
		return i.Op.String()
	}
}

func formatRanges(runes []rune) string {
	var b strings.Builder
	b.WriteByte('[')
	for j := 0; j+1 < len(runes); j += 2 {
		lo, hi := runes[j], runes[j+1]
		writeRune(&b, lo)
		if hi != lo {
			b.WriteByte('-')
			writeRune(&b, hi)
		}
	}
	b.WriteByte(']')
	return b.String()
}

func writeRune(b *strings.Builder, r rune) {
	if r >= 0x20 && r < 0x7F && r != '-' && r != '[' && r != ']' && r != '\\' {
		b.WriteRune(r)
		return
	}
	if r > utf8.MaxRune {
		r = utf8.RuneError
	}
	fmt.Fprintf(b, `\x{%x}`, r)
}
