package interpreter

import (
	"fmt"

	"vclr/pkg/il"
)

// ExecContext is the state of one interpreted invocation. It is created at
// the start of an interpretation and dropped at its end.
type ExecContext struct {
	Method *il.Method

	stack    *Stack
	locals   []Value
	set      []bool
	args     []Value
	receiver *Value // bound or materialized receiver, nil until first use
	depth    int

	// newInstance constructs an instance through the interpreter so that
	// interpreted constructors run for a materialized receiver too.
	newInstance func(ref *il.MemberRef, args []Value) (Value, error)
}

func newExecContext(m *il.Method, receiver *Value, args []Value, depth int) *ExecContext {
	return &ExecContext{
		Method:   m,
		stack:    NewStack(),
		locals:   make([]Value, m.Locals),
		set:      make([]bool, m.Locals),
		args:     args,
		receiver: receiver,
		depth:    depth,
	}
}

// Push pushes v onto the evaluation stack.
func (ec *ExecContext) Push(v Value) {
	ec.stack.Push(v)
}

// Pop pops the top of the evaluation stack.
func (ec *ExecContext) Pop() (Value, error) {
	return ec.stack.Pop()
}

// LoadLocal pushes the value of slot i.
func (ec *ExecContext) LoadLocal(i int) error {
	if i < 0 || i >= len(ec.locals) {
		return fmt.Errorf("%w: %d (have %d)", ErrLocalIndex, i, len(ec.locals))
	}
	if !ec.set[i] {
		return fmt.Errorf("%w: %d", ErrUnsetLocal, i)
	}

	ec.Push(ec.locals[i])
	return nil
}

// StoreLocal pops one value into slot i.
func (ec *ExecContext) StoreLocal(i int) error {
	if i < 0 || i >= len(ec.locals) {
		return fmt.Errorf("%w: %d (have %d)", ErrLocalIndex, i, len(ec.locals))
	}

	v, err := ec.Pop()
	if err != nil {
		return err
	}

	ec.locals[i] = v
	ec.set[i] = true
	return nil
}

// LoadArg pushes argument i. For instance methods argument 0 is the receiver.
func (ec *ExecContext) LoadArg(i int) error {
	if !ec.Method.Static {
		if i == 0 {
			recv, err := ec.Receiver()
			if err != nil {
				return err
			}
			ec.Push(recv)
			return nil
		}
		i--
	}

	if i < 0 || i >= len(ec.args) {
		return fmt.Errorf("%w: %d (have %d)", ErrArgIndex, i, len(ec.args))
	}

	ec.Push(ec.args[i])
	return nil
}

// Receiver returns the bound receiver, constructing a zero-argument instance
// of the declaring type the first time it is needed.
func (ec *ExecContext) Receiver() (Value, error) {
	if ec.receiver != nil {
		return *ec.receiver, nil
	}
	if ec.newInstance == nil {
		return Value{}, ErrNoHost
	}

	recv, err := ec.newInstance(il.NewCtorRef(ec.Method.DeclaringType), nil)
	if err != nil {
		return Value{}, err
	}

	ec.receiver = &recv
	return recv, nil
}
