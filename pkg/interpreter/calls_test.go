package interpreter_test

import (
	"errors"
	"fmt"
	"testing"

	"vclr/pkg/il"
	"vclr/pkg/interpreter"
)

type invocation struct {
	ref      *il.MemberRef
	receiver interpreter.Value
	args     []interpreter.Value
	virtual  bool
}

type handle struct{ id int }

// recordingHost records every request and answers Invoke with result.
type recordingHost struct {
	calls      []invocation
	constructs []invocation
	stores     []invocation
	result     interpreter.Value
	err        error
}

func (h *recordingHost) Invoke(ref *il.MemberRef, receiver interpreter.Value, args []interpreter.Value, virtual bool) (interpreter.Value, error) {
	h.calls = append(h.calls, invocation{ref: ref, receiver: receiver, args: args, virtual: virtual})
	return h.result, h.err
}

func (h *recordingHost) Construct(ref *il.MemberRef, args []interpreter.Value) (interpreter.Value, error) {
	h.constructs = append(h.constructs, invocation{ref: ref, args: args})
	if h.err != nil {
		return interpreter.Value{}, h.err
	}
	return interpreter.NewObject(&handle{id: len(h.constructs)}), nil
}

func (h *recordingHost) SetField(ref *il.MemberRef, instance interpreter.Value, value interpreter.Value) error {
	h.stores = append(h.stores, invocation{ref: ref, receiver: instance, args: []interpreter.Value{value}})
	return h.err
}

// bodyHost serves interpreted bodies by full member name and falls back to
// the recording host for everything else.
type bodyHost struct {
	recordingHost
	bodies map[string]*il.Method
}

func (h *bodyHost) Body(ref *il.MemberRef, _ interpreter.Value, _ bool) (*il.Method, bool) {
	m, ok := h.bodies[ref.FullName()]
	return m, ok
}

func (h *bodyHost) Allocate(string) (interpreter.Value, error) {
	return interpreter.NewObject(&handle{id: -1}), nil
}

func str(s string) il.Instruction { return il.New(il.Ldstr, il.StringOperand(s)) }

func member(o il.Opcode, ref *il.MemberRef) il.Instruction {
	return il.New(o, il.MemberOperand(ref))
}

var pairRef = &il.MemberRef{Kind: il.MethodMember, Type: "Pair", Name: "Set", Params: []string{"string", "string"}, Returns: "void"}

func argsString(args []interpreter.Value) string {
	return fmt.Sprint(args)
}

// call expects the stack as [args..., receiver] with the receiver on top;
// callvirt expects [receiver, argN, ..., arg1] with the first argument on top.
func TestCallArgumentOrder(t *testing.T) {
	tests := []struct {
		name     string
		m        *il.Method
		virtual  bool
		receiver string
	}{
		{
			// receiver is popped first, then the arguments last-declared first
			name:     "call",
			m:        method(0, str("arg1"), str("arg2"), str("recv"), member(il.Call, pairRef), op(il.Ret)),
			receiver: "recv",
		},
		{
			// arguments are popped first-declared first, then the receiver
			name:     "callvirt",
			m:        method(0, str("recv"), str("arg2"), str("arg1"), member(il.Callvirt, pairRef), op(il.Ret)),
			virtual:  true,
			receiver: "recv",
		},
	}

	for _, tt := range tests {
		host := &recordingHost{}
		it := interpreter.NewInterpreter(interpreter.WithHost(host))

		if err := it.Interpret(tt.m, nil); err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.name, err)
		}
		if len(host.calls) != 1 {
			t.Fatalf("%s: expected one invocation, got %d", tt.name, len(host.calls))
		}

		got := host.calls[0]
		if argsString(got.args) != "[arg1 arg2]" {
			t.Errorf("%s: expected args [arg1 arg2], got %s", tt.name, argsString(got.args))
		}
		if got.receiver.String() != tt.receiver {
			t.Errorf("%s: expected receiver %s, got %s", tt.name, tt.receiver, got.receiver)
		}
		if got.virtual != tt.virtual {
			t.Errorf("%s: expected virtual=%v, got %v", tt.name, tt.virtual, got.virtual)
		}
	}
}

func TestStaticCall(t *testing.T) {
	ref := &il.MemberRef{Type: "Calc", Name: "Add", Params: []string{"int32", "int32"}, Returns: "int32", Static: true}
	host := &recordingHost{result: interpreter.NewInt(42)}
	it := interpreter.NewInterpreter(interpreter.WithHost(host))

	got := result(t, it, method(0, op(il.LdcI41), op(il.LdcI42), member(il.Call, ref), op(il.Ret)))

	if got.I64 != 42 {
		t.Errorf("expected host result 42, got %s", got)
	}
	call := host.calls[0]
	if argsString(call.args) != "[1 2]" {
		t.Errorf("expected args [1 2], got %s", argsString(call.args))
	}
	if !call.receiver.IsNull() {
		t.Errorf("expected no receiver for static call, got %s", call.receiver)
	}
}

func TestAbsentResultNotPushed(t *testing.T) {
	ref := &il.MemberRef{Type: "System.Console", Name: "WriteLine", Params: []string{"string"}, Returns: "void", Static: true}
	host := &recordingHost{}
	it := interpreter.NewInterpreter(interpreter.WithHost(host))

	caller := interpreter.NewStack()
	if err := it.Interpret(method(0, str("hi"), member(il.Call, ref), op(il.Ret)), caller); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if caller.Size() != 0 {
		t.Errorf("expected empty caller stack, got %v", caller.Values())
	}
}

func TestNewobjArgumentOrder(t *testing.T) {
	ref := il.NewCtorRef("Point", "int32", "int32")
	host := &recordingHost{}
	it := interpreter.NewInterpreter(interpreter.WithHost(host))

	got := result(t, it, method(0, op(il.LdcI41), op(il.LdcI42), member(il.Newobj, ref), op(il.Ret)))

	if _, ok := got.Obj.(*handle); !ok {
		t.Errorf("expected the constructed handle, got %s", got)
	}
	if len(host.constructs) != 1 {
		t.Fatalf("expected one construction, got %d", len(host.constructs))
	}
	// most recently pushed value fills the first slot
	if args := argsString(host.constructs[0].args); args != "[2 1]" {
		t.Errorf("expected args [2 1], got %s", args)
	}
}

func TestStfld(t *testing.T) {
	ref := &il.MemberRef{Kind: il.FieldMember, Type: "Point", Name: "X", Returns: "int32"}
	host := &recordingHost{}
	it := interpreter.NewInterpreter(interpreter.WithHost(host))

	if err := it.Interpret(method(0, str("obj"), op(il.LdcI45), member(il.Stfld, ref), op(il.Ret)), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	store := host.stores[0]
	if store.receiver.String() != "obj" || store.args[0].I64 != 5 {
		t.Errorf("expected obj.X = 5, got %s.X = %s", store.receiver, store.args[0])
	}
}

func TestInvocationFailure(t *testing.T) {
	boom := errors.New("boom")
	ref := &il.MemberRef{Type: "Calc", Name: "Fail", Static: true, Returns: "void"}

	tests := []struct {
		name string
		m    *il.Method
	}{
		{"call", method(0, member(il.Call, ref))},
		{"newobj", method(0, member(il.Newobj, il.NewCtorRef("Calc")))},
		{"stfld", method(0, str("o"), str("v"), member(il.Stfld, &il.MemberRef{Kind: il.FieldMember, Type: "Calc", Name: "F"}))},
	}

	for _, tt := range tests {
		it := interpreter.NewInterpreter(interpreter.WithHost(&recordingHost{err: boom}))
		err := it.Interpret(tt.m, nil)

		if !errors.Is(err, boom) {
			t.Errorf("%s: expected host error, got %v", tt.name, err)
		}
		var inv *interpreter.InvocationError
		if !errors.As(err, &inv) || inv.Member == nil {
			t.Errorf("%s: expected the member reference in the error, got %v", tt.name, err)
		}
	}
}

func TestNoHost(t *testing.T) {
	ref := &il.MemberRef{Type: "Calc", Name: "Fail", Static: true}
	err := interpreter.NewInterpreter().Interpret(method(0, member(il.Call, ref)), nil)
	if !errors.Is(err, interpreter.ErrNoHost) {
		t.Errorf("expected ErrNoHost, got %v", err)
	}
}

func TestReceiverMaterializedOnce(t *testing.T) {
	host := &recordingHost{}
	it := interpreter.NewInterpreter(interpreter.WithHost(host))

	m := method(0, op(il.Ldarg0), op(il.Ldarg0), op(il.Ceq), op(il.Ret))
	m.Static = false

	got := result(t, it, m)
	if got.I64 != 1 {
		t.Errorf("expected both loads to see the same receiver, got %s", got)
	}
	if len(host.constructs) != 1 {
		t.Fatalf("expected one construction, got %d", len(host.constructs))
	}
	ref := host.constructs[0].ref
	if ref.Type != "Fixture" || ref.Kind != il.CtorMember || len(host.constructs[0].args) != 0 {
		t.Errorf("expected Fixture::.ctor(), got %s", ref)
	}

	// a bound receiver is never replaced
	host.constructs = nil
	bound := interpreter.NewObject(&handle{id: 99})
	caller := interpreter.NewStack()
	if err := it.Call(m, bound, nil, caller); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(host.constructs) != 0 {
		t.Errorf("expected no construction for a bound receiver, got %d", len(host.constructs))
	}
}

func TestInstanceArguments(t *testing.T) {
	m := method(0, op(il.Ldarg1), op(il.Ldarg2), op(il.Sub), op(il.Ret))
	m.Static = false

	caller := interpreter.NewStack()
	err := interpreter.NewInterpreter().Call(m, interpreter.NewString("self"), []interpreter.Value{interpreter.NewInt(10), interpreter.NewInt(4)}, caller)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v, _ := caller.Pop(); v.I64 != 6 {
		t.Errorf("expected 6, got %s", v)
	}
}

func TestNestedInterpretedCall(t *testing.T) {
	add := mustParse(t, ".method static int32 Calc::Add(int32 a, int32 b)\nldarg.0\nldarg.1\nadd\nret")
	noop := mustParse(t, ".method static void Calc::Noop()\nret")

	host := &bodyHost{bodies: map[string]*il.Method{
		"Calc::Add":  add,
		"Calc::Noop": noop,
	}}
	tracer := &countingTracer{}
	it := interpreter.NewInterpreter(interpreter.WithHost(host), interpreter.WithTracer(tracer))

	main := mustParse(t, `
ldc.i4.2
ldc.i4.3
call int32 Calc::Add(int32, int32)
call void Calc::Noop()
ret
`)

	got := result(t, it, main)
	if got.I64 != 5 {
		t.Errorf("expected 5, got %s", got)
	}
	if len(host.calls) != 0 {
		t.Errorf("expected no native invocations, got %d", len(host.calls))
	}

	depths := map[int]int{}
	for _, ev := range tracer.events {
		depths[ev.Depth]++
	}
	if depths[0] != 5 || depths[1] != 5 {
		t.Errorf("expected 5 steps at each depth, got %v", depths)
	}
}

func TestInterpretedConstructor(t *testing.T) {
	ctor := mustParse(t, ".method instance void Point::.ctor(int32 x)\nldarg.0\nldarg.1\nstfld int32 Point::X\nret")
	host := &bodyHost{bodies: map[string]*il.Method{"Point::.ctor": ctor}}
	it := interpreter.NewInterpreter(interpreter.WithHost(host))

	got := result(t, it, mustParse(t, "ldc.i4.7\nnewobj instance void Point::.ctor(int32)\nret"))

	if h, ok := got.Obj.(*handle); !ok || h.id != -1 {
		t.Errorf("expected the allocated handle, got %s", got)
	}
	if len(host.constructs) != 0 {
		t.Errorf("expected no native construction, got %d", len(host.constructs))
	}
	if len(host.stores) != 1 || host.stores[0].args[0].I64 != 7 {
		t.Errorf("expected the constructor to store 7, got %v", host.stores)
	}
}

func TestNullReceiverOnInterpretedCall(t *testing.T) {
	get := mustParse(t, ".method instance int32 Box::Get()\nldc.i4.7\nret")
	ref := &il.MemberRef{Type: "Box", Name: "Get", Returns: "int32"}

	tests := []struct {
		name string
		op   il.Opcode
	}{
		{"call", il.Call},
		{"callvirt", il.Callvirt},
	}

	for _, tt := range tests {
		host := &bodyHost{bodies: map[string]*il.Method{"Box::Get": get}}
		it := interpreter.NewInterpreter(interpreter.WithHost(host))

		caller := interpreter.NewStack()
		err := it.Interpret(method(0, op(il.Ldnull), member(tt.op, ref), op(il.Ret)), caller)

		if !errors.Is(err, interpreter.ErrNullReceiver) {
			t.Errorf("%s: expected ErrNullReceiver, got %v", tt.name, err)
		}
		var inv *interpreter.InvocationError
		if !errors.As(err, &inv) || inv.Member == nil || inv.Member.FullName() != "Box::Get" {
			t.Errorf("%s: expected an invocation error for Box::Get, got %v", tt.name, err)
		}
		if len(host.constructs) != 0 {
			t.Errorf("%s: expected no receiver construction, got %d", tt.name, len(host.constructs))
		}
		if caller.Size() != 0 {
			t.Errorf("%s: expected an empty caller stack, got %d values", tt.name, caller.Size())
		}
	}

	err := interpreter.NewInterpreter().Call(get, interpreter.Null(), nil, nil)
	if !errors.Is(err, interpreter.ErrNullReceiver) {
		t.Errorf("Call: expected ErrNullReceiver, got %v", err)
	}
}

func TestMaxDepth(t *testing.T) {
	self := mustParse(t, ".method static void Rec::Self()\ncall void Rec::Self()\nret")
	host := &bodyHost{bodies: map[string]*il.Method{"Rec::Self": self}}
	it := interpreter.NewInterpreter(interpreter.WithHost(host), interpreter.WithMaxDepth(5))

	err := it.Interpret(self, nil)
	if !errors.Is(err, interpreter.ErrMaxDepthExceeded) {
		t.Errorf("expected ErrMaxDepthExceeded, got %v", err)
	}
}
