package il

import "fmt"

// Opcode identifies one instruction's operation. Values follow the ECMA-335
// encoding; two-byte opcodes carry the 0xFE prefix in the high byte.
type Opcode uint16

// Base instructions
const (
	Nop     Opcode = 0x00
	Ldarg0  Opcode = 0x02
	Ldarg1  Opcode = 0x03
	Ldarg2  Opcode = 0x04
	Ldarg3  Opcode = 0x05
	Ldloc0  Opcode = 0x06
	Ldloc1  Opcode = 0x07
	Ldloc2  Opcode = 0x08
	Ldloc3  Opcode = 0x09
	Stloc0  Opcode = 0x0A
	Stloc1  Opcode = 0x0B
	Stloc2  Opcode = 0x0C
	Stloc3  Opcode = 0x0D
	LdargS  Opcode = 0x0E
	LdlocS  Opcode = 0x11
	StlocS  Opcode = 0x13
	Ldnull  Opcode = 0x14
	LdcI4M1 Opcode = 0x15
	LdcI40  Opcode = 0x16
	LdcI41  Opcode = 0x17
	LdcI42  Opcode = 0x18
	LdcI43  Opcode = 0x19
	LdcI44  Opcode = 0x1A
	LdcI45  Opcode = 0x1B
	LdcI46  Opcode = 0x1C
	LdcI47  Opcode = 0x1D
	LdcI48  Opcode = 0x1E
	LdcI4S  Opcode = 0x1F
	LdcI4   Opcode = 0x20
	Dup     Opcode = 0x25
	Pop     Opcode = 0x26
	Call    Opcode = 0x28
	Ret     Opcode = 0x2A
)

// Branches
const (
	BrS      Opcode = 0x2B
	BrfalseS Opcode = 0x2C
	BrtrueS  Opcode = 0x2D
	BltS     Opcode = 0x32
	Br       Opcode = 0x38
	Brfalse  Opcode = 0x39
	Brtrue   Opcode = 0x3A
	Blt      Opcode = 0x3F
)

// Arithmetic
const (
	Add Opcode = 0x58
	Sub Opcode = 0x59
	Mul Opcode = 0x5A
	Div Opcode = 0x5B
)

// Object model
const (
	Callvirt Opcode = 0x6F
	Ldstr    Opcode = 0x72
	Newobj   Opcode = 0x73
	Throw    Opcode = 0x7A
	Ldfld    Opcode = 0x7B
	Stfld    Opcode = 0x7D
	Box      Opcode = 0x8C
	Newarr   Opcode = 0x8D
)

// Two-byte comparisons
const (
	Ceq Opcode = 0xFE01
	Cgt Opcode = 0xFE02
	Clt Opcode = 0xFE04
)

// OperandKind describes the encoded shape of an opcode's inline operand.
type OperandKind int

const (
	InlineNone OperandKind = iota
	ShortInlineI
	ShortInlineVar
	ShortInlineBrTarget
	InlineI
	InlineBrTarget
	InlineString
	InlineMethod
	InlineField
	InlineType
)

type opInfo struct {
	name    string
	operand OperandKind
	desc    string
}

var opTable = map[Opcode]opInfo{
	Nop:      {"nop", InlineNone, "Fills space if opcodes are patched. No meaningful operation is performed."},
	Ldarg0:   {"ldarg.0", InlineNone, "Loads the argument at index 0 onto the evaluation stack."},
	Ldarg1:   {"ldarg.1", InlineNone, "Loads the argument at index 1 onto the evaluation stack."},
	Ldarg2:   {"ldarg.2", InlineNone, "Loads the argument at index 2 onto the evaluation stack."},
	Ldarg3:   {"ldarg.3", InlineNone, "Loads the argument at index 3 onto the evaluation stack."},
	Ldloc0:   {"ldloc.0", InlineNone, "Loads the local variable at index 0 onto the evaluation stack."},
	Ldloc1:   {"ldloc.1", InlineNone, "Loads the local variable at index 1 onto the evaluation stack."},
	Ldloc2:   {"ldloc.2", InlineNone, "Loads the local variable at index 2 onto the evaluation stack."},
	Ldloc3:   {"ldloc.3", InlineNone, "Loads the local variable at index 3 onto the evaluation stack."},
	Stloc0:   {"stloc.0", InlineNone, "Pops the current value from the top of the evaluation stack and stores it in the local variable list at index 0."},
	Stloc1:   {"stloc.1", InlineNone, "Pops the current value from the top of the evaluation stack and stores it in the local variable list at index 1."},
	Stloc2:   {"stloc.2", InlineNone, "Pops the current value from the top of the evaluation stack and stores it in the local variable list at index 2."},
	Stloc3:   {"stloc.3", InlineNone, "Pops the current value from the top of the evaluation stack and stores it in the local variable list at index 3."},
	LdargS:   {"ldarg.s", ShortInlineVar, "Loads the argument (referenced by a specified short form index) onto the evaluation stack."},
	LdlocS:   {"ldloc.s", ShortInlineVar, "Loads the local variable at a specific index onto the evaluation stack, short form."},
	StlocS:   {"stloc.s", ShortInlineVar, "Pops the current value from the top of the evaluation stack and stores it in the local variable list at index (short form)."},
	Ldnull:   {"ldnull", InlineNone, "Pushes a null reference onto the evaluation stack."},
	LdcI4M1:  {"ldc.i4.m1", InlineNone, "Pushes the integer value of -1 onto the evaluation stack as an int32."},
	LdcI40:   {"ldc.i4.0", InlineNone, "Pushes the integer value of 0 onto the evaluation stack as an int32."},
	LdcI41:   {"ldc.i4.1", InlineNone, "Pushes the integer value of 1 onto the evaluation stack as an int32."},
	LdcI42:   {"ldc.i4.2", InlineNone, "Pushes the integer value of 2 onto the evaluation stack as an int32."},
	LdcI43:   {"ldc.i4.3", InlineNone, "Pushes the integer value of 3 onto the evaluation stack as an int32."},
	LdcI44:   {"ldc.i4.4", InlineNone, "Pushes the integer value of 4 onto the evaluation stack as an int32."},
	LdcI45:   {"ldc.i4.5", InlineNone, "Pushes the integer value of 5 onto the evaluation stack as an int32."},
	LdcI46:   {"ldc.i4.6", InlineNone, "Pushes the integer value of 6 onto the evaluation stack as an int32."},
	LdcI47:   {"ldc.i4.7", InlineNone, "Pushes the integer value of 7 onto the evaluation stack as an int32."},
	LdcI48:   {"ldc.i4.8", InlineNone, "Pushes the integer value of 8 onto the evaluation stack as an int32."},
	LdcI4S:   {"ldc.i4.s", ShortInlineI, "Pushes the supplied int8 value onto the evaluation stack as an int32, short form."},
	LdcI4:    {"ldc.i4", InlineI, "Pushes a supplied value of type int32 onto the evaluation stack as an int32."},
	Dup:      {"dup", InlineNone, "Copies the current topmost value on the evaluation stack, and then pushes the copy onto the evaluation stack."},
	Pop:      {"pop", InlineNone, "Removes the value currently on top of the evaluation stack."},
	Call:     {"call", InlineMethod, "Calls the method indicated by the passed method descriptor."},
	Ret:      {"ret", InlineNone, "Returns from the current method, pushing a return value (if present) from the callee's evaluation stack onto the caller's evaluation stack."},
	BrS:      {"br.s", ShortInlineBrTarget, "Unconditionally transfers control to a target instruction (short form)."},
	BrfalseS: {"brfalse.s", ShortInlineBrTarget, "Transfers control to a target instruction if value is false, a null reference, or zero."},
	BrtrueS:  {"brtrue.s", ShortInlineBrTarget, "Transfers control to a target instruction (short form) if value is true, not null, or non-zero."},
	BltS:     {"blt.s", ShortInlineBrTarget, "Transfers control to a target instruction (short form) if the first value is less than the second value."},
	Br:       {"br", InlineBrTarget, "Unconditionally transfers control to a target instruction."},
	Brfalse:  {"brfalse", InlineBrTarget, "Transfers control to a target instruction if value is false, a null reference (Nothing in Visual Basic), or zero."},
	Brtrue:   {"brtrue", InlineBrTarget, "Transfers control to a target instruction if value is true, not null, or non-zero."},
	Blt:      {"blt", InlineBrTarget, "Transfers control to a target instruction if the first value is less than the second value."},
	Add:      {"add", InlineNone, "Adds two values and pushes the result onto the evaluation stack."},
	Sub:      {"sub", InlineNone, "Subtracts one value from another and pushes the result onto the evaluation stack."},
	Mul:      {"mul", InlineNone, "Multiplies two values and pushes the result on the evaluation stack."},
	Div:      {"div", InlineNone, "Divides two values and pushes the result as a floating-point (type F) or quotient (type int32) onto the evaluation stack."},
	Callvirt: {"callvirt", InlineMethod, "Calls a late-bound method on an object, pushing the return value onto the evaluation stack."},
	Ldstr:    {"ldstr", InlineString, "Pushes a new object reference to a string literal stored in the metadata."},
	Newobj:   {"newobj", InlineMethod, "Creates a new object or a new instance of a value type, pushing an object reference (type O) onto the evaluation stack."},
	Throw:    {"throw", InlineNone, "Throws the exception object currently on the evaluation stack."},
	Ldfld:    {"ldfld", InlineField, "Finds the value of a field in the object whose reference is currently on the evaluation stack."},
	Stfld:    {"stfld", InlineField, "Replaces the value stored in the field of an object reference or pointer with a new value."},
	Box:      {"box", InlineType, "Converts a value type to an object reference (type O)."},
	Newarr:   {"newarr", InlineType, "Pushes an object reference to a new zero-based, one-dimensional array whose elements are of a specific type onto the evaluation stack."},
	Ceq:      {"ceq", InlineNone, "Compares two values. If they are equal, the integer value 1 (int32) is pushed onto the evaluation stack; otherwise 0 (int32) is pushed onto the evaluation stack."},
	Cgt:      {"cgt", InlineNone, "Compares two values. If the first value is greater than the second, the integer value 1 (int32) is pushed onto the evaluation stack; otherwise 0 (int32) is pushed onto the evaluation stack."},
	Clt:      {"clt", InlineNone, "Compares two values. If the first value is less than the second, the integer value 1 (int32) is pushed onto the evaluation stack; otherwise 0 (int32) is pushed onto the evaluation stack."},
}

var byName = func() map[string]Opcode {
	m := make(map[string]Opcode, len(opTable))
	for op, info := range opTable {
		m[info.name] = op
	}
	return m
}()

// Lookup returns the opcode with the given mnemonic.
func Lookup(name string) (Opcode, bool) {
	op, ok := byName[name]
	return op, ok
}

// Known reports whether the opcode belongs to the described instruction set.
func (op Opcode) Known() bool {
	_, ok := opTable[op]
	return ok
}

// String returns the mnemonic, or the raw encoding for unknown opcodes.
func (op Opcode) String() string {
	if info, ok := opTable[op]; ok {
		return info.name
	}
	return fmt.Sprintf("0x%02X", uint16(op))
}

// Describe returns the human-readable description of the opcode.
func (op Opcode) Describe() string {
	if info, ok := opTable[op]; ok {
		return info.desc
	}
	return "Unknown opcode."
}

// OperandKind returns the inline operand shape of the opcode.
func (op Opcode) OperandKind() OperandKind {
	return opTable[op].operand
}

// IsBranch reports whether the operand of op is a branch target offset.
func (op Opcode) IsBranch() bool {
	k := op.OperandKind()
	return k == ShortInlineBrTarget || k == InlineBrTarget
}

// Size returns the number of bytes the encoded instruction occupies.
func (op Opcode) Size() int {
	n := 1
	if op > 0xFF {
		n = 2
	}

	switch op.OperandKind() {
	case ShortInlineI, ShortInlineVar, ShortInlineBrTarget:
		n++
	case InlineI, InlineBrTarget, InlineString, InlineMethod, InlineField, InlineType:
		n += 4
	}

	return n
}
