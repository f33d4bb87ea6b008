package interpreter

import (
	"vclr/pkg/il"
)

// opCall is the early-bound call. The receiver of an instance member is
// popped first; the arguments follow, last-declared first, and are stored by
// descending index so they end up in declared order.
func opCall(it *Interpreter, ec *ExecContext, in il.Instruction, _ *Stack) (flow, error) {
	ref, err := memberOperand(in)
	if err != nil {
		return next, err
	}

	receiver := Null()
	if !ref.Static {
		if receiver, err = ec.Pop(); err != nil {
			return next, err
		}
	}

	args := make([]Value, len(ref.Params))
	for i := len(args) - 1; i >= 0; i-- {
		if args[i], err = ec.Pop(); err != nil {
			return next, err
		}
	}

	return next, it.invoke(ec, ref, receiver, args, false)
}

// opCallvirt is the late-bound call. Arguments are popped first-declared
// first, then the receiver, the reverse of opCall.
func opCallvirt(it *Interpreter, ec *ExecContext, in il.Instruction, _ *Stack) (flow, error) {
	ref, err := memberOperand(in)
	if err != nil {
		return next, err
	}

	args := make([]Value, len(ref.Params))
	for i := range args {
		if args[i], err = ec.Pop(); err != nil {
			return next, err
		}
	}

	receiver := Null()
	if !ref.Static {
		if receiver, err = ec.Pop(); err != nil {
			return next, err
		}
	}

	return next, it.invoke(ec, ref, receiver, args, true)
}

// opNewobj pops one value per constructor parameter, most recently pushed
// first, into ascending parameter slots.
func opNewobj(it *Interpreter, ec *ExecContext, in il.Instruction, _ *Stack) (flow, error) {
	ref, err := memberOperand(in)
	if err != nil {
		return next, err
	}

	args := make([]Value, len(ref.Params))
	for i := range args {
		if args[i], err = ec.Pop(); err != nil {
			return next, err
		}
	}

	obj, err := it.construct(ref, args, ec.depth)
	if err != nil {
		return next, err
	}

	ec.Push(obj)
	return next, nil
}

func opStfld(it *Interpreter, ec *ExecContext, in il.Instruction, _ *Stack) (flow, error) {
	ref, err := memberOperand(in)
	if err != nil {
		return next, err
	}

	value, err := ec.Pop()
	if err != nil {
		return next, err
	}
	instance, err := ec.Pop()
	if err != nil {
		return next, err
	}

	if it.host == nil {
		return next, &InvocationError{Member: ref, Err: ErrNoHost}
	}
	if err := it.host.SetField(ref, instance, value); err != nil {
		return next, &InvocationError{Member: ref, Err: err}
	}

	return next, nil
}

// invoke performs a call either by re-entering the interpreter, when the host
// supplies an interpreted body, or natively through the host. An interpreted
// callee returns its value straight onto ec's stack.
func (it *Interpreter) invoke(ec *ExecContext, ref *il.MemberRef, receiver Value, args []Value, virtual bool) error {
	if it.host == nil {
		return &InvocationError{Member: ref, Err: ErrNoHost}
	}

	if bodies, ok := it.host.(BodyResolver); ok {
		if body, ok := bodies.Body(ref, receiver, virtual); ok {
			if !body.Static && receiver.IsNull() {
				return &InvocationError{Member: ref, Err: ErrNullReceiver}
			}
			it.logger.Debug("entering interpreted member", "member", ref.FullName(), "depth", ec.depth+1)
			return it.run(body, &receiver, args, ec.stack, ec.depth+1)
		}
	}

	result, err := it.host.Invoke(ref, receiver, args, virtual)
	if err != nil {
		return &InvocationError{Member: ref, Err: err}
	}

	if !result.IsNull() {
		ec.Push(result)
	}
	return nil
}

// construct creates an instance, running an interpreted constructor body
// when the host has one.
func (it *Interpreter) construct(ref *il.MemberRef, args []Value, depth int) (Value, error) {
	if it.host == nil {
		return Value{}, &InvocationError{Member: ref, Err: ErrNoHost}
	}

	if bodies, ok := it.host.(BodyResolver); ok {
		if body, ok := bodies.Body(ref, Null(), false); ok {
			obj, err := bodies.Allocate(ref.Type)
			if err != nil {
				return Value{}, &InvocationError{Member: ref, Err: err}
			}
			if err := it.run(body, &obj, args, nil, depth+1); err != nil {
				return Value{}, err
			}
			return obj, nil
		}
	}

	obj, err := it.host.Construct(ref, args)
	if err != nil {
		return Value{}, &InvocationError{Member: ref, Err: err}
	}
	return obj, nil
}
