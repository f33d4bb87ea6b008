package interpreter_test

import (
	"errors"
	"testing"

	"vclr/pkg/il"
	"vclr/pkg/interpreter"
)

func TestValueString(t *testing.T) {
	tests := []struct {
		v        interpreter.Value
		expected string
	}{
		{interpreter.NewInt(-3), "-3"},
		{interpreter.NewInt(1 << 32), "0"},
		{interpreter.NewBool(true), "True"},
		{interpreter.NewBool(false), "False"},
		{interpreter.NewString("abc"), "abc"},
		{interpreter.Null(), ""},
		{interpreter.NewObject(nil), ""},
	}

	for _, tt := range tests {
		if got := tt.v.String(); got != tt.expected {
			t.Errorf("%s value: expected %q, got %q", tt.v.Kind, tt.expected, got)
		}
	}
}

func TestValueEqual(t *testing.T) {
	a := &handle{id: 1}
	tests := []struct {
		name     string
		l, r     interpreter.Value
		expected bool
	}{
		{"ints", interpreter.NewInt(4), interpreter.NewInt(4), true},
		{"different ints", interpreter.NewInt(4), interpreter.NewInt(5), false},
		{"int and bool", interpreter.NewInt(1), interpreter.NewBool(true), false},
		{"strings", interpreter.NewString("x"), interpreter.NewString("x"), true},
		{"nulls", interpreter.Null(), interpreter.Null(), true},
		{"same object", interpreter.NewObject(a), interpreter.NewObject(a), true},
		{"distinct objects", interpreter.NewObject(a), interpreter.NewObject(&handle{id: 1}), false},
		{"uncomparable objects", interpreter.NewObject([]int{1}), interpreter.NewObject([]int{1}), false},
	}

	for _, tt := range tests {
		if got := tt.l.Equal(tt.r); got != tt.expected {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.expected, got)
		}
	}
}

func TestConvertTo(t *testing.T) {
	tests := []struct {
		name     string
		v        interpreter.Value
		typ      string
		expected string
		err      error
	}{
		{"int to string", interpreter.NewInt(7), "string", "7", nil},
		{"bool to int", interpreter.NewBool(true), "int32", "1", nil},
		{"string to int", interpreter.NewString(" 12 "), "System.Int32", "12", nil},
		{"bad string to int", interpreter.NewString("x"), "int32", "", interpreter.ErrTypeMismatch},
		{"int to bool", interpreter.NewInt(0), "bool", "False", nil},
		{"string to bool", interpreter.NewString("true"), "bool", "True", nil},
		{"null to int", interpreter.Null(), "int32", "", interpreter.ErrTypeMismatch},
		{"other type", interpreter.NewInt(3), "Point", "3", nil},
	}

	for _, tt := range tests {
		got, err := tt.v.ConvertTo(tt.typ)
		if tt.err != nil {
			if !errors.Is(err, tt.err) {
				t.Errorf("%s: expected %v, got %v", tt.name, tt.err, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: unexpected error: %v", tt.name, err)
			continue
		}
		if got.String() != tt.expected {
			t.Errorf("%s: expected %q, got %q", tt.name, tt.expected, got.String())
		}
	}
}

func TestStack(t *testing.T) {
	s := interpreter.NewStack(interpreter.NewInt(1), interpreter.NewInt(2))
	s.Push(interpreter.NewInt(3))

	if s.Size() != 3 {
		t.Fatalf("expected size 3, got %d", s.Size())
	}
	if top, _ := s.Peek(); top.I64 != 3 {
		t.Errorf("expected top 3, got %s", top)
	}

	for _, expected := range []int64{3, 2, 1} {
		v, err := s.Pop()
		if err != nil || v.I64 != expected {
			t.Errorf("expected %d, got %s (%v)", expected, v, err)
		}
	}

	if _, err := s.Pop(); !errors.Is(err, interpreter.ErrStackUnderflow) {
		t.Errorf("expected ErrStackUnderflow, got %v", err)
	}
	if _, err := s.Peek(); !errors.Is(err, interpreter.ErrStackUnderflow) {
		t.Errorf("expected ErrStackUnderflow on peek, got %v", err)
	}
}

func TestBranchTable(t *testing.T) {
	ins := il.Layout([]il.Instruction{op(il.LdcI4S), op(il.Nop), op(il.Ret)})
	table, err := interpreter.NewBranchTable(ins)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for pos, in := range ins {
		got, err := table.Resolve(in.Offset)
		if err != nil || got != pos {
			t.Errorf("offset %d: expected position %d, got %d (%v)", in.Offset, pos, got, err)
		}
	}

	if _, err := table.Resolve(1); !errors.Is(err, interpreter.ErrMalformed) {
		t.Errorf("offset inside an instruction: expected ErrMalformed, got %v", err)
	}
}

func TestSupported(t *testing.T) {
	for _, o := range []il.Opcode{il.Nop, il.Ret, il.Call, il.Callvirt, il.Newobj, il.Stfld, il.Box, il.Ceq} {
		if !interpreter.Supported(o) {
			t.Errorf("expected %s to be supported", o)
		}
	}
	for _, o := range []il.Opcode{il.Mul, il.Div, il.Throw, il.Newarr, il.Opcode(0xFE99)} {
		if interpreter.Supported(o) {
			t.Errorf("expected %s to be unsupported", o)
		}
	}
}
