package interpreter

import (
	"vclr/pkg/il"
)

type flowKind int

const (
	flowNext flowKind = iota
	flowBranch
	flowReturn
)

// flow tells the dispatcher where to continue after a handler ran.
type flow struct {
	kind   flowKind
	target int // branch target offset
}

var next = flow{}

func branchTo(target int64) flow { return flow{kind: flowBranch, target: int(target)} }

// handler executes one instruction. Only opRet writes to caller.
type handler func(it *Interpreter, ec *ExecContext, in il.Instruction, caller *Stack) (flow, error)

var handlers map[il.Opcode]handler

func init() {
	handlers = map[il.Opcode]handler{
		il.Nop: opNop,
		il.Ret: opRet,

		il.LdcI4M1: pushConst(-1),
		il.LdcI40:  pushConst(0),
		il.LdcI41:  pushConst(1),
		il.LdcI42:  pushConst(2),
		il.LdcI43:  pushConst(3),
		il.LdcI44:  pushConst(4),
		il.LdcI45:  pushConst(5),
		il.LdcI46:  pushConst(6),
		il.LdcI47:  pushConst(7),
		il.LdcI48:  pushConst(8),
		il.LdcI4S:  opLdcI4,
		il.LdcI4:   opLdcI4,
		il.Ldnull:  opLdnull,
		il.Ldstr:   opLdstr,
		il.Dup:     opDup,
		il.Pop:     opPop,

		il.Ldloc0: loadLocal(0),
		il.Ldloc1: loadLocal(1),
		il.Ldloc2: loadLocal(2),
		il.Ldloc3: loadLocal(3),
		il.LdlocS: opLdlocS,
		il.Stloc0: storeLocal(0),
		il.Stloc1: storeLocal(1),
		il.Stloc2: storeLocal(2),
		il.Stloc3: storeLocal(3),
		il.StlocS: opStlocS,
		il.Ldarg0: loadArg(0),
		il.Ldarg1: loadArg(1),
		il.Ldarg2: loadArg(2),
		il.Ldarg3: loadArg(3),
		il.LdargS: opLdargS,

		il.BrS:      opBr,
		il.Br:       opBr,
		il.BltS:     opBlt,
		il.Blt:      opBlt,
		il.BrtrueS:  opBrtrue,
		il.Brtrue:   opBrtrue,
		il.BrfalseS: opBrfalse,
		il.Brfalse:  opBrfalse,

		il.Clt: opClt,
		il.Cgt: opCgt,
		il.Ceq: opCeq,
		il.Add: opAdd,
		il.Sub: opSub,

		il.Call:     opCall,
		il.Callvirt: opCallvirt,
		il.Newobj:   opNewobj,
		il.Stfld:    opStfld,
		il.Box:      opBox,
	}
}

// Supported reports whether op has a handler.
func Supported(op il.Opcode) bool {
	_, ok := handlers[op]
	return ok
}

// ---------------------------------------------------------------------------
// Operand helpers
// ---------------------------------------------------------------------------

func intOperand(in il.Instruction) (int64, error) {
	v, ok := in.Operand.Int()
	if !ok {
		return 0, &OperandError{Op: in.Op, Want: il.OperandInt, Got: in.Operand.Tag()}
	}
	return v, nil
}

func memberOperand(in il.Instruction) (*il.MemberRef, error) {
	ref, ok := in.Operand.Member()
	if !ok || ref == nil {
		return nil, &OperandError{Op: in.Op, Want: il.OperandMember, Got: in.Operand.Tag()}
	}
	return ref, nil
}

// popInts pops the right operand, then the left one.
func popInts(ec *ExecContext) (left, right int32, err error) {
	r, err := ec.Pop()
	if err != nil {
		return 0, 0, err
	}
	l, err := ec.Pop()
	if err != nil {
		return 0, 0, err
	}

	if right, err = r.AsInt32(); err != nil {
		return 0, 0, err
	}
	if left, err = l.AsInt32(); err != nil {
		return 0, 0, err
	}
	return left, right, nil
}

func boolInt(b bool) Value {
	if b {
		return NewInt(1)
	}
	return NewInt(0)
}

// ---------------------------------------------------------------------------
// Control
// ---------------------------------------------------------------------------

func opNop(*Interpreter, *ExecContext, il.Instruction, *Stack) (flow, error) {
	return next, nil
}

func opRet(_ *Interpreter, ec *ExecContext, _ il.Instruction, caller *Stack) (flow, error) {
	if ec.stack.Size() > 0 {
		v, err := ec.Pop()
		if err != nil {
			return next, err
		}
		if caller != nil {
			caller.Push(v)
		}
	}
	return flow{kind: flowReturn}, nil
}

// ---------------------------------------------------------------------------
// Constants and stack
// ---------------------------------------------------------------------------

func pushConst(n int64) handler {
	return func(_ *Interpreter, ec *ExecContext, _ il.Instruction, _ *Stack) (flow, error) {
		ec.Push(NewInt(n))
		return next, nil
	}
}

func opLdcI4(_ *Interpreter, ec *ExecContext, in il.Instruction, _ *Stack) (flow, error) {
	n, err := intOperand(in)
	if err != nil {
		return next, err
	}
	ec.Push(NewInt(n))
	return next, nil
}

func opLdnull(_ *Interpreter, ec *ExecContext, _ il.Instruction, _ *Stack) (flow, error) {
	ec.Push(Null())
	return next, nil
}

func opLdstr(_ *Interpreter, ec *ExecContext, in il.Instruction, _ *Stack) (flow, error) {
	s, ok := in.Operand.Text()
	if !ok {
		return next, &OperandError{Op: in.Op, Want: il.OperandString, Got: in.Operand.Tag()}
	}
	ec.Push(NewString(s))
	return next, nil
}

func opDup(_ *Interpreter, ec *ExecContext, _ il.Instruction, _ *Stack) (flow, error) {
	v, err := ec.stack.Peek()
	if err != nil {
		return next, err
	}
	ec.Push(v)
	return next, nil
}

func opPop(_ *Interpreter, ec *ExecContext, _ il.Instruction, _ *Stack) (flow, error) {
	_, err := ec.Pop()
	return next, err
}

// ---------------------------------------------------------------------------
// Locals and arguments
// ---------------------------------------------------------------------------

func loadLocal(i int) handler {
	return func(_ *Interpreter, ec *ExecContext, _ il.Instruction, _ *Stack) (flow, error) {
		return next, ec.LoadLocal(i)
	}
}

func storeLocal(i int) handler {
	return func(_ *Interpreter, ec *ExecContext, _ il.Instruction, _ *Stack) (flow, error) {
		return next, ec.StoreLocal(i)
	}
}

func loadArg(i int) handler {
	return func(_ *Interpreter, ec *ExecContext, _ il.Instruction, _ *Stack) (flow, error) {
		return next, ec.LoadArg(i)
	}
}

func opLdlocS(_ *Interpreter, ec *ExecContext, in il.Instruction, _ *Stack) (flow, error) {
	i, err := intOperand(in)
	if err != nil {
		return next, err
	}
	return next, ec.LoadLocal(int(i))
}

func opStlocS(_ *Interpreter, ec *ExecContext, in il.Instruction, _ *Stack) (flow, error) {
	i, err := intOperand(in)
	if err != nil {
		return next, err
	}
	return next, ec.StoreLocal(int(i))
}

func opLdargS(_ *Interpreter, ec *ExecContext, in il.Instruction, _ *Stack) (flow, error) {
	i, err := intOperand(in)
	if err != nil {
		return next, err
	}
	return next, ec.LoadArg(int(i))
}

// ---------------------------------------------------------------------------
// Branches
// ---------------------------------------------------------------------------

func opBr(_ *Interpreter, _ *ExecContext, in il.Instruction, _ *Stack) (flow, error) {
	target, err := intOperand(in)
	if err != nil {
		return next, err
	}
	return branchTo(target), nil
}

func opBlt(_ *Interpreter, ec *ExecContext, in il.Instruction, _ *Stack) (flow, error) {
	target, err := intOperand(in)
	if err != nil {
		return next, err
	}
	left, right, err := popInts(ec)
	if err != nil {
		return next, err
	}
	if left < right {
		return branchTo(target), nil
	}
	return next, nil
}

func opBrtrue(_ *Interpreter, ec *ExecContext, in il.Instruction, _ *Stack) (flow, error) {
	target, err := intOperand(in)
	if err != nil {
		return next, err
	}
	v, err := ec.Pop()
	if err != nil {
		return next, err
	}
	if v.Truthy() {
		return branchTo(target), nil
	}
	return next, nil
}

// opBrfalse branches on false, null or zero. Text and objects are non-null
// references and do not branch.
func opBrfalse(_ *Interpreter, ec *ExecContext, in il.Instruction, _ *Stack) (flow, error) {
	target, err := intOperand(in)
	if err != nil {
		return next, err
	}
	v, err := ec.Pop()
	if err != nil {
		return next, err
	}
	if v.IsNull() || ((v.Kind == KindBool || v.IsNumeric()) && !v.Truthy()) {
		return branchTo(target), nil
	}
	return next, nil
}

// ---------------------------------------------------------------------------
// Comparison and arithmetic
// ---------------------------------------------------------------------------

func opClt(_ *Interpreter, ec *ExecContext, _ il.Instruction, _ *Stack) (flow, error) {
	left, right, err := popInts(ec)
	if err != nil {
		return next, err
	}
	ec.Push(boolInt(left < right))
	return next, nil
}

func opCgt(_ *Interpreter, ec *ExecContext, _ il.Instruction, _ *Stack) (flow, error) {
	left, right, err := popInts(ec)
	if err != nil {
		return next, err
	}
	ec.Push(boolInt(left > right))
	return next, nil
}

func opCeq(_ *Interpreter, ec *ExecContext, _ il.Instruction, _ *Stack) (flow, error) {
	right, err := ec.Pop()
	if err != nil {
		return next, err
	}
	left, err := ec.Pop()
	if err != nil {
		return next, err
	}
	ec.Push(boolInt(left.Equal(right)))
	return next, nil
}

func opAdd(_ *Interpreter, ec *ExecContext, _ il.Instruction, _ *Stack) (flow, error) {
	left, right, err := popInts(ec)
	if err != nil {
		return next, err
	}
	ec.Push(NewInt(int64(left + right)))
	return next, nil
}

func opSub(_ *Interpreter, ec *ExecContext, _ il.Instruction, _ *Stack) (flow, error) {
	left, right, err := popInts(ec)
	if err != nil {
		return next, err
	}
	ec.Push(NewInt(int64(left - right)))
	return next, nil
}

// ---------------------------------------------------------------------------
// Conversion
// ---------------------------------------------------------------------------

func opBox(_ *Interpreter, ec *ExecContext, in il.Instruction, _ *Stack) (flow, error) {
	typ, ok := in.Operand.Type()
	if !ok || typ == nil {
		return next, &OperandError{Op: in.Op, Want: il.OperandType, Got: in.Operand.Tag()}
	}

	v, err := ec.Pop()
	if err != nil {
		return next, err
	}

	boxed, err := v.ConvertTo(typ.Canonical())
	if err != nil {
		return next, err
	}

	ec.Push(boxed)
	return next, nil
}
