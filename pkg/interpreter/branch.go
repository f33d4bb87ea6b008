package interpreter

import (
	"fmt"

	"vclr/pkg/il"
)

// BranchTable maps instruction offsets to positions in the sequence.
type BranchTable map[int]int

// NewBranchTable indexes ins by offset. Offsets must be unique.
func NewBranchTable(ins []il.Instruction) (BranchTable, error) {
	t := make(BranchTable, len(ins))
	for pos, in := range ins {
		if prev, ok := t[in.Offset]; ok {
			return nil, &MalformedError{
				Offset: in.Offset,
				Reason: fmt.Sprintf("offset shared by positions %d and %d", prev, pos),
			}
		}
		t[in.Offset] = pos
	}
	return t, nil
}

// Resolve returns the position of the instruction starting at offset.
func (t BranchTable) Resolve(offset int) (int, error) {
	pos, ok := t[offset]
	if !ok {
		return 0, &MalformedError{Offset: offset, Reason: "branch target is not an instruction offset"}
	}
	return pos, nil
}
