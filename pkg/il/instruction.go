package il

import "fmt"

// Instruction is one decoded instruction of a callable unit.
type Instruction struct {
	Offset  int     // byte offset, unique within the unit
	Op      Opcode  // operation
	Operand Operand // immediate or resolved reference
	Size    int     // encoded size in bytes
}

// New returns an instruction with its encoded size filled in. The offset is
// assigned by Layout or by the caller.
func New(op Opcode, operand Operand) Instruction {
	return Instruction{Op: op, Operand: operand, Size: op.Size()}
}

// String renders the instruction in listing form, e.g. `IL_000a: ldc.i4.s 5`.
func (i Instruction) String() string {
	if i.Operand.Tag() == OperandNone {
		return fmt.Sprintf("%s: %s", Label(i.Offset), i.Op)
	}
	if i.Op.IsBranch() {
		if target, ok := i.Operand.Int(); ok {
			return fmt.Sprintf("%s: %s %s", Label(i.Offset), i.Op, Label(int(target)))
		}
	}
	return fmt.Sprintf("%s: %s %s", Label(i.Offset), i.Op, i.Operand)
}

// Label formats an offset as an instruction label.
func Label(offset int) string {
	return fmt.Sprintf("IL_%04x", offset)
}

// Layout assigns consecutive offsets from each instruction's size, starting at 0.
func Layout(ins []Instruction) []Instruction {
	out := make([]Instruction, len(ins))
	offset := 0
	for idx, in := range ins {
		if in.Size == 0 {
			in.Size = in.Op.Size()
		}
		in.Offset = offset
		offset += in.Size
		out[idx] = in
	}
	return out
}
