package interpreter

import (
	"fmt"

	"github.com/charmbracelet/log"

	"vclr/pkg/il"
)

// Interpreter executes the instruction sequences of callable units. It holds
// configuration only; every interpretation owns a fresh ExecContext, so one
// Interpreter may serve any number of sequential or nested interpretations.
type Interpreter struct {
	host   Host
	logger *log.Logger
	tracer Tracer

	maxSteps int // per interpretation, 0 = unlimited
	maxDepth int // nested interpretations, 0 = unlimited
}

type Option func(*Interpreter)

// WithHost sets the member invocation service
func WithHost(h Host) Option {
	return func(i *Interpreter) { i.host = h }
}

// WithLogger sets the logger used for debug output
func WithLogger(l *log.Logger) Option {
	return func(i *Interpreter) { i.logger = l }
}

// WithTracer installs a tracer called before each instruction
func WithTracer(t Tracer) Option {
	return func(i *Interpreter) { i.tracer = t }
}

// WithMaxSteps sets a maximum number of dispatched instructions per
// interpretation before returning ErrMaxStepsExceeded
func WithMaxSteps(n int) Option {
	return func(i *Interpreter) { i.maxSteps = n }
}

// WithMaxDepth bounds nested interpretation, returning ErrMaxDepthExceeded
func WithMaxDepth(n int) Option {
	return func(i *Interpreter) { i.maxDepth = n }
}

// NewInterpreter creates a new Interpreter instance
func NewInterpreter(opts ...Option) *Interpreter {
	it := &Interpreter{}

	for _, o := range opts {
		o(it)
	}

	if it.logger == nil {
		it.logger = log.Default()
	}

	return it
}

// Interpret runs m with no bound receiver or arguments. An instance method
// gets a fresh instance of its declaring type the first time argument 0 is
// loaded. If caller is not nil and m returns with a non-empty stack, the
// returned value is pushed onto it.
func (it *Interpreter) Interpret(m *il.Method, caller *Stack) error {
	return it.run(m, nil, nil, caller, 0)
}

// Call runs m with a bound receiver and arguments. The receiver is ignored
// for static methods; an instance method with a Null receiver fails with
// ErrNullReceiver.
func (it *Interpreter) Call(m *il.Method, receiver Value, args []Value, caller *Stack) error {
	if !m.Static && receiver.IsNull() {
		return fmt.Errorf("%s: %w", m.FullName(), ErrNullReceiver)
	}
	return it.run(m, &receiver, args, caller, 0)
}

// run interprets m. A nil receiver leaves an instance method unbound.
func (it *Interpreter) run(m *il.Method, receiver *Value, args []Value, caller *Stack, depth int) error {
	if it.maxDepth > 0 && depth >= it.maxDepth {
		return fmt.Errorf("%s: %w (%d)", m.FullName(), ErrMaxDepthExceeded, it.maxDepth)
	}

	table, err := it.prepare(m)
	if err != nil {
		return err
	}

	ec := newExecContext(m, receiver, args, depth)
	ec.newInstance = func(ref *il.MemberRef, args []Value) (Value, error) {
		return it.construct(ref, args, depth)
	}

	it.logger.Debug("interpreting", "method", m.FullName(), "depth", depth, "instructions", len(m.Instructions))

	ins := m.Instructions
	steps := 0
	position := 0

	for position < len(ins) {
		if it.maxSteps > 0 && steps >= it.maxSteps {
			return fmt.Errorf("%s: %w (%d)", m.FullName(), ErrMaxStepsExceeded, it.maxSteps)
		}
		steps++

		in := ins[position]
		position++

		if it.tracer != nil {
			it.tracer.Step(StepEvent{
				Method:      m.FullName(),
				Depth:       depth,
				Position:    position - 1,
				Instruction: in,
				StackSize:   ec.stack.Size(),
			})
		}

		h, ok := handlers[in.Op]
		if !ok {
			return it.fail(ec, in, &UnsupportedOpcodeError{Op: in.Op})
		}

		f, err := h(it, ec, in, caller)
		if err != nil {
			return it.fail(ec, in, err)
		}

		switch f.kind {
		case flowBranch:
			position, err = table.Resolve(f.target)
			if err != nil {
				return it.fail(ec, in, err)
			}
		case flowReturn:
			it.logger.Debug("returned", "method", m.FullName(), "depth", depth, "steps", steps)
			return nil
		}
	}

	it.logger.Debug("completed", "method", m.FullName(), "depth", depth, "steps", steps)
	return nil
}

// prepare builds the branch table and rejects unsupported opcodes and
// dangling branch targets before anything executes.
func (it *Interpreter) prepare(m *il.Method) (BranchTable, error) {
	table, err := NewBranchTable(m.Instructions)
	if err != nil {
		return nil, &ExecError{Method: m.FullName(), Err: err}
	}

	for _, in := range m.Instructions {
		if _, ok := handlers[in.Op]; !ok {
			return nil, &ExecError{Method: m.FullName(), Offset: in.Offset, Op: in.Op, Err: &UnsupportedOpcodeError{Op: in.Op}}
		}

		if !in.Op.IsBranch() {
			continue
		}

		target, ok := in.Operand.Int()
		if !ok {
			return nil, &ExecError{Method: m.FullName(), Offset: in.Offset, Op: in.Op,
				Err: &OperandError{Op: in.Op, Want: il.OperandInt, Got: in.Operand.Tag()}}
		}
		if _, err := table.Resolve(int(target)); err != nil {
			return nil, &ExecError{Method: m.FullName(), Offset: in.Offset, Op: in.Op, Err: err}
		}
	}

	return table, nil
}

func (it *Interpreter) fail(ec *ExecContext, in il.Instruction, err error) error {
	return &ExecError{Method: ec.Method.FullName(), Offset: in.Offset, Op: in.Op, Err: err}
}
