// Package trace observes interpretation step by step.
package trace

import (
	"github.com/charmbracelet/log"

	"vclr/pkg/il"
	"vclr/pkg/interpreter"
)

// LogTracer logs every dispatched instruction at debug level.
type LogTracer struct {
	logger *log.Logger
}

// NewLogTracer returns a tracer writing to l, or to the default logger when
// l is nil.
func NewLogTracer(l *log.Logger) *LogTracer {
	if l == nil {
		l = log.Default()
	}
	return &LogTracer{logger: l}
}

func (t *LogTracer) Step(ev interpreter.StepEvent) {
	in := ev.Instruction
	t.logger.Debug("step",
		"method", ev.Method,
		"depth", ev.Depth,
		"at", il.Label(in.Offset),
		"op", in.Op,
		"operand", in.Operand,
		"stack", ev.StackSize,
	)
}

type tee []interpreter.Tracer

func (t tee) Step(ev interpreter.StepEvent) {
	for _, tr := range t {
		tr.Step(ev)
	}
}

// Tee fans each step out to all non-nil tracers. It returns nil when none
// are given.
func Tee(tracers ...interpreter.Tracer) interpreter.Tracer {
	var out tee
	for _, tr := range tracers {
		if tr != nil {
			out = append(out, tr)
		}
	}

	switch len(out) {
	case 0:
		return nil
	case 1:
		return out[0]
	default:
		return out
	}
}
