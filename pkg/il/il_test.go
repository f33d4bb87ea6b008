package il_test

import (
	"strings"
	"testing"

	"vclr/pkg/il"
)

func TestOpcodeSize(t *testing.T) {
	tests := []struct {
		op       il.Opcode
		expected int
	}{
		{il.Nop, 1},
		{il.LdcI4S, 2},
		{il.LdcI4, 5},
		{il.BrS, 2},
		{il.Br, 5},
		{il.Ldstr, 5},
		{il.Call, 5},
		{il.Clt, 2},
		{il.Ceq, 2},
		{il.StlocS, 2},
	}

	for _, test := range tests {
		if got := test.op.Size(); got != test.expected {
			t.Errorf("%s: expected size %d, got %d", test.op, test.expected, got)
		}
	}
}

func TestLookupMatchesString(t *testing.T) {
	for _, name := range []string{"nop", "ldc.i4.m1", "ldc.i4.s", "blt.s", "callvirt", "ceq", "box"} {
		op, ok := il.Lookup(name)
		if !ok {
			t.Errorf("Lookup(%q) failed", name)
			continue
		}
		if op.String() != name {
			t.Errorf("Lookup(%q): expected mnemonic %q, got %q", name, name, op.String())
		}
	}

	if _, ok := il.Lookup("ldc.r8"); ok {
		t.Errorf("Lookup(ldc.r8): expected miss")
	}
}

func TestUnknownOpcode(t *testing.T) {
	op := il.Opcode(0xFE99)
	if op.Known() {
		t.Fatalf("expected 0xFE99 to be unknown")
	}
	if op.String() != "0xFE99" {
		t.Errorf("expected raw encoding, got %s", op)
	}
	if op.Describe() != "Unknown opcode." {
		t.Errorf("unexpected description %q", op.Describe())
	}
	if !strings.Contains(il.Mul.Describe(), "Multiplies") {
		t.Errorf("unexpected description for mul: %q", il.Mul.Describe())
	}
}

func TestLayoutAndListing(t *testing.T) {
	ins := il.Layout([]il.Instruction{
		il.New(il.LdcI42, il.NoOperand()),
		il.New(il.LdcI4S, il.IntOperand(40)),
		il.New(il.Add, il.NoOperand()),
		il.New(il.BrS, il.IntOperand(0)),
		il.New(il.Ldstr, il.StringOperand("done")),
		il.New(il.Ret, il.NoOperand()),
	})

	offsets := []int{0, 1, 3, 4, 6, 11}
	for i, in := range ins {
		if in.Offset != offsets[i] {
			t.Errorf("instruction %d: expected offset %d, got %d", i, offsets[i], in.Offset)
		}
	}

	m := &il.Method{Name: "Main", DeclaringType: "Program", Static: true, Instructions: ins}
	expected := `IL_0000: ldc.i4.2
IL_0001: ldc.i4.s 40
IL_0003: add
IL_0004: br.s IL_0000
IL_0006: ldstr "done"
IL_000b: ret
`
	if got := m.Listing(); got != expected {
		t.Errorf("listing mismatch:\nexpected:\n%s\ngot:\n%s", expected, got)
	}
}

func TestOperandVariants(t *testing.T) {
	ref := &il.MemberRef{Kind: il.MethodMember, Type: "System.Console", Name: "WriteLine", Params: []string{"System.String"}, Returns: "void", Static: true}
	op := il.MemberOperand(ref)

	if op.Tag() != il.OperandMember {
		t.Fatalf("expected member tag, got %s", op.Tag())
	}
	if _, ok := op.Int(); ok {
		t.Errorf("member operand must not read as int")
	}
	if got, _ := op.Member(); got.Signature() != "WriteLine(string)" {
		t.Errorf("expected canonical signature, got %s", got.Signature())
	}
	if op.String() != "void System.Console::WriteLine(System.String)" {
		t.Errorf("unexpected rendering %q", op.String())
	}

	ctor := il.NewCtorRef("Point", "int32", "int32")
	if ctor.String() != "instance void Point::.ctor(int32,int32)" {
		t.Errorf("unexpected ctor rendering %q", ctor.String())
	}
}

func TestMethodRef(t *testing.T) {
	m := &il.Method{
		Name:          "Add",
		DeclaringType: "TestClass",
		Params:        []il.Param{{Name: "a", Type: "int32"}, {Name: "b", Type: "int32"}},
		Returns:       "void",
	}

	ref := m.Ref()
	if ref.Static {
		t.Errorf("expected instance reference")
	}
	if ref.Signature() != "Add(int32,int32)" {
		t.Errorf("unexpected signature %s", ref.Signature())
	}

	mod := &il.Module{Methods: []*il.Method{m}}
	if got, ok := mod.Method("TestClass::Add"); !ok || got != m {
		t.Errorf("module lookup failed")
	}
}
