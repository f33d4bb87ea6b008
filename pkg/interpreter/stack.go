package interpreter

// Stack is a last-in-first-out evaluation stack of values.
type Stack struct {
	a []Value
	l int
}

// NewStack creates a new stack holding elm, the last element on top.
func NewStack(elm ...Value) *Stack {
	stack := Stack{
		a: make([]Value, 0, len(elm)+8),
		l: 0,
	}

	for _, e := range elm {
		stack.l++
		stack.a = append(stack.a, e)
	}

	return &stack
}

// Push adds an element to the top of the stack
func (s *Stack) Push(elm Value) {
	s.l++
	s.a = append(s.a, elm)
}

// Pop removes and returns the top element of the stack
func (s *Stack) Pop() (Value, error) {
	if s.l < 1 {
		return Value{}, ErrStackUnderflow
	}

	s.l--
	elm := s.a[s.l]
	s.a = s.a[:s.l]

	return elm, nil
}

// Peek returns the top element of the stack without removing it
func (s *Stack) Peek() (Value, error) {
	if s.l < 1 {
		return Value{}, ErrStackUnderflow
	}

	return s.a[s.l-1], nil
}

// Get the size of the stack
func (s *Stack) Size() int {
	return s.l
}

// Values returns a copy of the stack contents, bottom first
func (s *Stack) Values() []Value {
	return append([]Value(nil), s.a...)
}
