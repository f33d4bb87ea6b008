package interpreter

import (
	"errors"
	"fmt"

	"vclr/pkg/il"
)

var (
	ErrStackUnderflow   = errors.New("evaluation stack underflow")
	ErrUnsetLocal       = errors.New("read of unset local slot")
	ErrLocalIndex       = errors.New("local slot index out of range")
	ErrArgIndex         = errors.New("argument index out of range")
	ErrTypeMismatch     = errors.New("type mismatch")
	ErrMalformed        = errors.New("malformed instruction stream")
	ErrUnsupported      = errors.New("unsupported instruction")
	ErrNoHost           = errors.New("no member invocation host configured")
	ErrNullReceiver     = errors.New("instance member called on null receiver")
	ErrMaxStepsExceeded = errors.New("maximum steps exceeded")
	ErrMaxDepthExceeded = errors.New("maximum call depth exceeded")
)

// MalformedError reports an instruction stream that violates the decoder
// contract, such as a branch to an offset that starts no instruction.
type MalformedError struct {
	Offset int
	Reason string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed instruction stream at %s: %s", il.Label(e.Offset), e.Reason)
}

func (e *MalformedError) Unwrap() error { return ErrMalformed }

// UnsupportedOpcodeError reports an opcode without a handler.
type UnsupportedOpcodeError struct {
	Op il.Opcode
}

func (e *UnsupportedOpcodeError) Error() string {
	return fmt.Sprintf("opcode %s not implemented\ndescription: %s", e.Op, e.Op.Describe())
}

func (e *UnsupportedOpcodeError) Unwrap() error { return ErrUnsupported }

// OperandError reports an operand variant the handler does not accept.
type OperandError struct {
	Op   il.Opcode
	Want il.OperandTag
	Got  il.OperandTag
}

func (e *OperandError) Error() string {
	return fmt.Sprintf("%s expects a %s operand, got %s", e.Op, e.Want, e.Got)
}

func (e *OperandError) Unwrap() error { return ErrMalformed }

// InvocationError reports a failed call, construction or field store.
type InvocationError struct {
	Member *il.MemberRef
	Err    error
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("invoking %s: %v", e.Member, e.Err)
}

func (e *InvocationError) Unwrap() error { return e.Err }

// ExecError locates a failure inside an interpreted method.
type ExecError struct {
	Method string
	Offset int
	Op     il.Opcode
	Err    error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("%s %s (%s): %v", e.Method, il.Label(e.Offset), e.Op, e.Err)
}

func (e *ExecError) Unwrap() error { return e.Err }
