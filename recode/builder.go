package recode

import (
	"fmt"
	"sort"

	"github.com/coregx/recapture/internal/conv"
)

// Default limits for prefix literal extraction
const (
	DefaultMaxPrefixes   = 64
	DefaultMaxPrefixLen  = 16
	defaultInstsCapacity = 16
)

// Builder assembles programs instruction by instruction.
// This provides full control over program layout and is used by the Compiler.
//
// Instructions are appended in order; non-jumping instructions fall through to
// the next address. Forward jumps are emitted with InvalidAddr and patched once
// the target is known.
type Builder struct {
	insts        []Inst
	start        InstAddr
	transforms   []Transform
	names        []string
	anchorStart  bool
	maxPrefixes  int
	maxPrefixLen int
}

// NewBuilder creates a new program builder
func NewBuilder() *Builder {
	return &Builder{
		insts:        make([]Inst, 0, defaultInstsCapacity),
		start:        0,
		names:        []string{""},
		maxPrefixes:  DefaultMaxPrefixes,
		maxPrefixLen: DefaultMaxPrefixLen,
	}
}

// Next returns the address the next emitted instruction will occupy.
func (b *Builder) Next() InstAddr {
	return InstAddr(conv.IntToUint32(len(b.insts)))
}

// Emit appends inst and returns its address.
func (b *Builder) Emit(inst Inst) InstAddr {
	if inst.Op != OpEndCapture {
		inst.Transform = NoTransform
	}
	addr := b.Next()
	b.insts = append(b.insts, inst)
	return addr
}

// Match emits an accepting instruction.
func (b *Builder) Match() InstAddr { return b.Emit(Inst{Op: OpMatch}) }

// Fail emits an instruction that kills the thread.
func (b *Builder) Fail() InstAddr { return b.Emit(Inst{Op: OpFail}) }

// Rune emits a rune-class instruction. ranges holds inclusive [lo, hi] pairs.
// The pairs are copied, sorted and merged.
func (b *Builder) Rune(ranges ...rune) InstAddr {
	return b.Emit(Inst{Op: OpRune, Runes: normalizeRanges(ranges)})
}

// Literal emits one rune instruction per rune of s.
// Returns the address of the first instruction, or Next() if s is empty.
func (b *Builder) Literal(s string) InstAddr {
	first := b.Next()
	for _, r := range s {
		b.Rune(r, r)
	}
	return first
}

// Any emits an instruction consuming any rune.
func (b *Builder) Any() InstAddr { return b.Emit(Inst{Op: OpAny}) }

// AnyNotNL emits an instruction consuming any rune except '\n'.
func (b *Builder) AnyNotNL() InstAddr { return b.Emit(Inst{Op: OpAnyNotNL}) }

// Split emits a branch preferring x over y.
func (b *Builder) Split(x, y InstAddr) InstAddr {
	return b.Emit(Inst{Op: OpSplit, X: x, Y: y})
}

// Jump emits an unconditional jump to x.
func (b *Builder) Jump(x InstAddr) InstAddr {
	return b.Emit(Inst{Op: OpJump, X: x})
}

// Assert emits a zero-width assertion.
func (b *Builder) Assert(look Look) InstAddr {
	return b.Emit(Inst{Op: OpAssert, Look: look})
}

// BeginCapture emits the opening boundary of capture group.
func (b *Builder) BeginCapture(group int) InstAddr {
	return b.Emit(Inst{Op: OpBeginCapture, Group: group})
}

// EndCapture emits the closing boundary of capture group.
// transform is an index returned by AddTransform, or NoTransform.
func (b *Builder) EndCapture(group, transform int) InstAddr {
	return b.Emit(Inst{Op: OpEndCapture, Group: group, Transform: transform})
}

// BeginGroup emits the opening of a capture scope.
func (b *Builder) BeginGroup() InstAddr { return b.Emit(Inst{Op: OpBeginGroup}) }

// EndGroup emits the closing of a capture scope.
func (b *Builder) EndGroup() InstAddr { return b.Emit(Inst{Op: OpEndGroup}) }

// CaptureNil emits an absent-optional marker.
func (b *Builder) CaptureNil() InstAddr { return b.Emit(Inst{Op: OpCaptureNil}) }

// CaptureSome emits a present-optional marker.
func (b *Builder) CaptureSome() InstAddr { return b.Emit(Inst{Op: OpCaptureSome}) }

// CaptureArray emits a repeated-group marker.
func (b *Builder) CaptureArray() InstAddr { return b.Emit(Inst{Op: OpCaptureArray}) }

// PatchX sets the X target of the Split or Jump at addr.
func (b *Builder) PatchX(addr, target InstAddr) error {
	inst, err := b.jumpAt(addr)
	if err != nil {
		return err
	}
	inst.X = target
	return nil
}

// PatchY sets the Y target of the Split at addr.
func (b *Builder) PatchY(addr, target InstAddr) error {
	inst, err := b.jumpAt(addr)
	if err != nil {
		return err
	}
	if inst.Op != OpSplit {
		return &BuildError{
			Message: fmt.Sprintf("cannot patch Y of %s", inst.Op),
			Addr:    addr,
		}
	}
	inst.Y = target
	return nil
}

func (b *Builder) jumpAt(addr InstAddr) (*Inst, error) {
	if int(addr) >= len(b.insts) {
		return nil, &BuildError{Message: "address out of bounds", Addr: addr}
	}
	inst := &b.insts[addr]
	if inst.Op != OpSplit && inst.Op != OpJump {
		return nil, &BuildError{
			Message: fmt.Sprintf("cannot patch instruction %s", inst.Op),
			Addr:    addr,
		}
	}
	return inst, nil
}

// AddTransform registers t and returns its index for EndCapture.
func (b *Builder) AddTransform(t Transform) int {
	b.transforms = append(b.transforms, t)
	return len(b.transforms) - 1
}

// SetStart sets the address execution begins at.
func (b *Builder) SetStart(start InstAddr) {
	b.start = start
}

// SetNames sets the capture group names. names[0] names the whole match.
func (b *Builder) SetNames(names []string) {
	b.names = append([]string(nil), names...)
	if len(b.names) == 0 {
		b.names = []string{""}
	}
}

// SetAnchorStart records that matches can only start at the beginning of text.
func (b *Builder) SetAnchorStart(anchored bool) {
	b.anchorStart = anchored
}

// SetPrefixLimits bounds prefix literal extraction. maxCount <= 0 disables it.
func (b *Builder) SetPrefixLimits(maxCount, maxLen int) {
	b.maxPrefixes = maxCount
	b.maxPrefixLen = maxLen
}

// Len returns the number of instructions emitted so far.
func (b *Builder) Len() int {
	return len(b.insts)
}

// Validate checks that the program is well-formed:
// - the start address is valid
// - every jump target is valid
// - every transform index is valid
// - no instruction falls through past the end
func (b *Builder) Validate() error {
	n := len(b.insts)
	if n == 0 {
		return &BuildError{Message: "empty program", Addr: InvalidAddr}
	}
	if int(b.start) >= n {
		return &BuildError{Message: "start address out of bounds", Addr: b.start}
	}

	for i := range b.insts {
		inst := &b.insts[i]
		addr := InstAddr(conv.IntToUint32(i))
		switch inst.Op {
		case OpSplit:
			if int(inst.Y) >= n {
				return &BuildError{Message: fmt.Sprintf("invalid split target %d", inst.Y), Addr: addr}
			}
			fallthrough
		case OpJump:
			if int(inst.X) >= n {
				return &BuildError{Message: fmt.Sprintf("invalid jump target %d", inst.X), Addr: addr}
			}
			continue
		case OpMatch, OpFail:
			continue
		case OpRune:
			if len(inst.Runes) == 0 || len(inst.Runes)%2 != 0 {
				return &BuildError{Message: "rune class must hold [lo, hi] pairs", Addr: addr}
			}
		case OpEndCapture:
			if inst.Transform != NoTransform && (inst.Transform < 0 || inst.Transform >= len(b.transforms)) {
				return &BuildError{Message: fmt.Sprintf("invalid transform index %d", inst.Transform), Addr: addr}
			}
		}
		if i == n-1 {
			return &BuildError{Message: fmt.Sprintf("%s falls off the end of the program", inst.Op), Addr: addr}
		}
	}
	return nil
}

// Build validates and returns the finished program.
// The builder must not be used afterwards.
func (b *Builder) Build() (*Program, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}

	prog := &Program{
		insts:       b.insts,
		start:       b.start,
		transforms:  b.transforms,
		names:       b.names,
		anchorStart: b.anchorStart,
	}
	if b.maxPrefixes > 0 {
		prog.prefixes = extractPrefixes(prog, b.maxPrefixes, b.maxPrefixLen)
	}
	b.insts = nil
	return prog, nil
}

// normalizeRanges copies, sorts and merges [lo, hi] pairs.
func normalizeRanges(ranges []rune) []rune {
	if len(ranges)%2 != 0 {
		// Leave odd input for Validate to reject.
		return append([]rune(nil), ranges...)
	}
	pairs := make([][2]rune, 0, len(ranges)/2)
	for i := 0; i < len(ranges); i += 2 {
		lo, hi := ranges[i], ranges[i+1]
		if lo > hi {
			lo, hi = hi, lo
		}
		pairs = append(pairs, [2]rune{lo, hi})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i][0] < pairs[j][0] })

	out := make([]rune, 0, len(ranges))
	for _, p := range pairs {
		n := len(out)
		if n > 0 && p[0] <= out[n-1]+1 {
			if p[1] > out[n-1] {
				out[n-1] = p[1]
			}
			continue
		}
		out = append(out, p[0], p[1])
	}
	return out
}
