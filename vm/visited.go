package vm

import (
	"github.com/coregx/recapture/internal/conv"
	"github.com/coregx/recapture/recode"
)

// visitedSet records (instruction, position) pairs already explored by one
// search. Captures do not influence whether a thread can reach Match, so a
// pair that was explored once and failed fails again; skipping it keeps the
// search linear in instructions * positions and terminates empty loops.
//
// Small searches use a bit vector laid out as (pos-base)*insts + pc, so the
// pairs of one position are contiguous. Searches above the bit budget fall
// back to a map.
type visitedSet struct {
	bits  []uint64
	seen  map[uint64]struct{}
	base  int
	insts int
}

// reset prepares the set for a search of numInsts instructions over r.
func (v *visitedSet) reset(numInsts int, r Range, maxBits int) {
	v.base = r.Start
	v.insts = numInsts
	width := r.Len() + 1

	bitsNeeded := numInsts * width
	if bitsNeeded/width != numInsts || bitsNeeded > maxBits {
		v.bits = v.bits[:0]
		if v.seen == nil {
			v.seen = make(map[uint64]struct{})
		} else {
			clear(v.seen)
		}
		return
	}

	v.seen = nil
	words := (bitsNeeded + 63) / 64
	if cap(v.bits) >= words {
		v.bits = v.bits[:words]
		clear(v.bits)
	} else {
		v.bits = make([]uint64, words)
	}
}

func (v *visitedSet) index(pc recode.InstAddr, pos int) int {
	return (pos-v.base)*v.insts + conv.Uint32ToInt(uint32(pc))
}

// shouldVisit marks (pc, pos) and reports whether it was unvisited.
func (v *visitedSet) shouldVisit(pc recode.InstAddr, pos int) bool {
	idx := v.index(pc, pos)

	if v.seen != nil {
		key := uint64(idx) //nolint:gosec // G115: idx is non-negative
		if _, ok := v.seen[key]; ok {
			return false
		}
		v.seen[key] = struct{}{}
		return true
	}

	word := idx / 64
	bit := uint64(1) << (idx % 64)
	if v.bits[word]&bit != 0 {
		return false
	}
	v.bits[word] |= bit
	return true
}

// clearPos forgets every pair at pos.
func (v *visitedSet) clearPos(pos int) {
	lo := v.index(0, pos)
	hi := lo + v.insts

	if v.seen != nil {
		for idx := lo; idx < hi; idx++ {
			delete(v.seen, uint64(idx)) //nolint:gosec // G115: idx is non-negative
		}
		return
	}

	for idx := lo; idx < hi; idx++ {
		v.bits[idx/64] &^= uint64(1) << (idx % 64)
	}
}
