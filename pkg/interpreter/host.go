package interpreter

import "vclr/pkg/il"

// Host resolves and performs calls, constructions and field stores against
// the object model the interpreted code runs in. The interpreter never looks
// inside a member through this interface.
type Host interface {
	// Invoke calls a method. receiver is Null for static members; virtual
	// selects late binding on the receiver's runtime type. A Null result
	// means the member produced no value.
	Invoke(ref *il.MemberRef, receiver Value, args []Value, virtual bool) (Value, error)

	// Construct creates an instance through the referenced constructor.
	Construct(ref *il.MemberRef, args []Value) (Value, error)

	// SetField stores value into the referenced field of instance.
	SetField(ref *il.MemberRef, instance Value, value Value) error
}

// BodyResolver is implemented by hosts whose members may be interpreted
// bytecode instead of native code. When Body reports a method, call and
// callvirt re-enter the interpreter rather than calling Host.Invoke.
type BodyResolver interface {
	Body(ref *il.MemberRef, receiver Value, virtual bool) (*il.Method, bool)

	// Allocate creates an uninitialized instance whose constructor body is
	// run by the interpreter.
	Allocate(typeName string) (Value, error)
}

// StepEvent describes one dispatched instruction.
type StepEvent struct {
	Method      string
	Depth       int
	Position    int
	Instruction il.Instruction
	StackSize   int
}

// Tracer observes dispatch. Step is called before each instruction executes.
type Tracer interface {
	Step(ev StepEvent)
}
