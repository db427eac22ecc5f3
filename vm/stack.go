package vm

// Stack is a slice-backed LIFO stack.
type Stack[T any] struct {
	items []T
}

// Push adds v to the top of the stack.
func (s *Stack[T]) Push(v T) {
	s.items = append(s.items, v)
}

// Pop removes and returns the top of the stack.
// Panics if the stack is empty.
func (s *Stack[T]) Pop() T {
	n := len(s.items)
	if n == 0 {
		panic("vm: stack is empty")
	}
	v := s.items[n-1]
	var zero T
	s.items[n-1] = zero
	s.items = s.items[:n-1]
	return v
}

// Peek returns the top of the stack without removing it.
// Panics if the stack is empty.
func (s *Stack[T]) Peek() T {
	if len(s.items) == 0 {
		panic("vm: stack is empty")
	}
	return s.items[len(s.items)-1]
}

// Len returns the number of elements.
func (s *Stack[T]) Len() int {
	return len(s.items)
}

// IsEmpty reports whether the stack has no elements.
func (s *Stack[T]) IsEmpty() bool {
	return len(s.items) == 0
}

// Clone returns a stack with a copy of the elements.
func (s *Stack[T]) Clone() Stack[T] {
	if len(s.items) == 0 {
		return Stack[T]{}
	}
	items := make([]T, len(s.items))
	copy(items, s.items)
	return Stack[T]{items: items}
}
