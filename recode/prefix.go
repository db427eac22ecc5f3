package recode

import (
	"sort"
	"unicode/utf8"

	"github.com/coregx/recapture/internal/conv"
	"github.com/coregx/recapture/internal/sparse"
)

// prefixItem is a pending walk: execution at pc after consuming prefix.
type prefixItem struct {
	pc     InstAddr
	prefix string
}

// extractPrefixes computes a set of literals such that every match of prog
// begins with one of them. Returns nil when a match may begin with something
// other than a known literal, or when the set exceeds maxCount.
//
// The walk follows zero-width instructions (jumps, splits, assertions and all
// capture bookkeeping) and extends the prefix across single-rune instructions.
// Any other consuming instruction, or Match, ends the prefix. U+FFFD ends it
// too: the machine decodes every invalid byte as U+FFFD, so its UTF-8 encoding
// is not a necessary substring of the input.
func extractPrefixes(prog *Program, maxCount, maxLen int) []string {
	n := conv.IntToUint32(prog.Len())
	seen := sparse.New(n)
	found := make(map[string]struct{})
	work := []prefixItem{{pc: prog.start}}
	budget := maxCount * (maxLen + 1) * 4

	for len(work) > 0 {
		if budget--; budget < 0 {
			return nil
		}
		item := work[len(work)-1]
		work = work[:len(work)-1]

		seen.Clear()
		stack := []InstAddr{item.pc}
		for len(stack) > 0 {
			pc := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if !seen.Insert(uint32(pc)) {
				continue
			}

			inst := prog.Inst(pc)
			switch inst.Op {
			case OpJump:
				stack = append(stack, inst.X)
			case OpSplit:
				stack = append(stack, inst.Y, inst.X)
			case OpAssert, OpBeginCapture, OpEndCapture, OpBeginGroup,
				OpEndGroup, OpCaptureNil, OpCaptureSome, OpCaptureArray:
				stack = append(stack, pc+1)
			case OpFail:
				// dead path
			case OpRune:
				if len(inst.Runes) == 2 && inst.Runes[0] == inst.Runes[1] &&
					literalRune(inst.Runes[0]) &&
					len(item.prefix)+utf8.RuneLen(inst.Runes[0]) <= maxLen {
					work = append(work, prefixItem{
						pc:     pc + 1,
						prefix: item.prefix + string(inst.Runes[0]),
					})
					continue
				}
				fallthrough
			default:
				if item.prefix == "" {
					return nil
				}
				found[item.prefix] = struct{}{}
				if len(found) > maxCount {
					return nil
				}
			}
		}
	}

	if len(found) == 0 {
		return nil
	}
	out := make([]string, 0, len(found))
	for p := range found {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// literalRune reports whether r always appears in the input as its own UTF-8
// encoding when the machine matches it.
func literalRune(r rune) bool {
	return r != utf8.RuneError && utf8.ValidRune(r)
}
