package vm

import (
	"fmt"
	"reflect"
	"strings"
)

// CaptureKind identifies the shape of a Capture.
type CaptureKind uint8

const (
	// KindTupleOrAtom holds the values produced within one group body.
	// It is the zero kind, so the zero Capture is an empty tuple.
	KindTupleOrAtom CaptureKind = iota

	// KindAtom holds a single matched substring or transformed value.
	KindAtom

	// KindOptional holds a value that may be absent.
	KindOptional

	// KindArray holds one value per iteration of a repeated group.
	KindArray
)

// String returns the name of the kind.
func (k CaptureKind) String() string {
	switch k {
	case KindTupleOrAtom:
		return "TupleOrAtom"
	case KindAtom:
		return "Atom"
	case KindOptional:
		return "Optional"
	case KindArray:
		return "Array"
	default:
		return fmt.Sprintf("CaptureKind(%d)", k)
	}
}

// Capture is the value produced by zero or more capturing groups.
//
// A Capture is one of four shapes:
//   - Atom: a matched substring, or the value a transform derived from it;
//   - Optional: a value that is present or absent;
//   - Array: the values of a repeated group, in iteration order;
//   - TupleOrAtom: the values produced inside one group. A tuple holding a
//     single value stands for that value (see Collapse).
//
// Captures are immutable values. Accessors return copies of item lists.
type Capture struct {
	kind  CaptureKind
	value any       // atom payload
	inner *Capture  // optional payload, nil when absent
	items []Capture // array and tuple elements
}

// Atom returns an atom capture holding value.
func Atom(value any) Capture {
	return Capture{kind: KindAtom, value: value}
}

// Optional returns an optional capture; inner == nil means absent.
func Optional(inner *Capture) Capture {
	if inner == nil {
		return Capture{kind: KindOptional}
	}
	c := *inner
	return Capture{kind: KindOptional, inner: &c}
}

// None returns an absent optional.
func None() Capture {
	return Capture{kind: KindOptional}
}

// Some returns a present optional wrapping c.
func Some(c Capture) Capture {
	return Capture{kind: KindOptional, inner: &c}
}

// Array returns an array capture of items.
func Array(items ...Capture) Capture {
	return Capture{kind: KindArray, items: freeze(items)}
}

// TupleOrAtom returns a tuple capture of items.
func TupleOrAtom(items ...Capture) Capture {
	return Capture{kind: KindTupleOrAtom, items: freeze(items)}
}

// freeze copies items so later writes to the caller's slice never reach the capture.
func freeze(items []Capture) []Capture {
	if len(items) == 0 {
		return nil
	}
	out := make([]Capture, len(items))
	copy(out, items)
	return out
}

// Kind returns the shape of the capture.
func (c Capture) Kind() CaptureKind {
	return c.kind
}

// Value returns the payload of an atom, or nil for other kinds.
func (c Capture) Value() any {
	if c.kind != KindAtom {
		return nil
	}
	return c.value
}

// Text returns the payload of an atom as a string.
// ok is false when c is not an atom or its payload is not a string.
func (c Capture) Text() (text string, ok bool) {
	if c.kind != KindAtom {
		return "", false
	}
	text, ok = c.value.(string)
	return text, ok
}

// Unwrap returns the value of a present optional.
// ok is false for absent optionals and for other kinds.
func (c Capture) Unwrap() (inner Capture, ok bool) {
	if c.kind != KindOptional || c.inner == nil {
		return Capture{}, false
	}
	return *c.inner, true
}

// IsNone reports whether c is an absent optional.
func (c Capture) IsNone() bool {
	return c.kind == KindOptional && c.inner == nil
}

// Len returns the number of items of an array or tuple.
func (c Capture) Len() int {
	return len(c.items)
}

// Items returns a copy of the items of an array or tuple.
func (c Capture) Items() []Capture {
	if len(c.items) == 0 {
		return nil
	}
	out := make([]Capture, len(c.items))
	copy(out, c.items)
	return out
}

// Item returns item i of an array or tuple.
func (c Capture) Item(i int) Capture {
	return c.items[i]
}

// Collapse returns c with every single-item tuple replaced by its item,
// recursively. This is the reading under which a group that produced one
// value is that value.
func (c Capture) Collapse() Capture {
	switch c.kind {
	case KindTupleOrAtom:
		if len(c.items) == 1 {
			return c.items[0].Collapse()
		}
		return TupleOrAtom(collapseAll(c.items)...)
	case KindArray:
		return Array(collapseAll(c.items)...)
	case KindOptional:
		if c.inner == nil {
			return c
		}
		return Some(c.inner.Collapse())
	default:
		return c
	}
}

func collapseAll(items []Capture) []Capture {
	if len(items) == 0 {
		return nil
	}
	out := make([]Capture, len(items))
	for i, it := range items {
		out[i] = it.Collapse()
	}
	return out
}

// Equal reports whether c and other have the same structure and payloads.
// Atom payloads are compared with reflect.DeepEqual.
func (c Capture) Equal(other Capture) bool {
	if c.kind != other.kind {
		return false
	}
	switch c.kind {
	case KindAtom:
		return reflect.DeepEqual(c.value, other.value)
	case KindOptional:
		if c.inner == nil || other.inner == nil {
			return c.inner == nil && other.inner == nil
		}
		return c.inner.Equal(*other.inner)
	default:
		if len(c.items) != len(other.items) {
			return false
		}
		for i := range c.items {
			if !c.items[i].Equal(other.items[i]) {
				return false
			}
		}
		return true
	}
}

// String returns a debugging representation:
// atoms as Go-quoted values, optionals as nil or some(...), arrays in
// brackets and tuples in parentheses.
func (c Capture) String() string {
	var b strings.Builder
	c.format(&b)
	return b.String()
}

func (c Capture) format(b *strings.Builder) {
	switch c.kind {
	case KindAtom:
		if s, ok := c.value.(string); ok {
			fmt.Fprintf(b, "%q", s)
		} else {
			fmt.Fprintf(b, "%v", c.value)
		}
	case KindOptional:
		if c.inner == nil {
			b.WriteString("nil")
			return
		}
		b.WriteString("some(")
		c.inner.format(b)
		b.WriteByte(')')
	case KindArray:
		formatItems(b, '[', ']', c.items)
	default:
		formatItems(b, '(', ')', c.items)
	}
}

func formatItems(b *strings.Builder, open, closing byte, items []Capture) {
	b.WriteByte(open)
	for i, it := range items {
		if i > 0 {
			b.WriteString(", ")
		}
		it.format(b)
	}
	b.WriteByte(closing)
}
