package conformance

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"vclr/internal/runner"
	"vclr/pkg/asm"
	"vclr/pkg/interpreter"
)

// Result is the outcome of one case.
type Result struct {
	Case    LoadedCase
	Passed  bool
	Skipped bool
	Err     error
}

// Stats summarizes a set of results.
type Stats struct {
	Total, Passed, Failed, Skipped int
}

// sentinel errors in the order they are tried; an invocation failure is
// classified by its cause when the cause is known
var sentinels = []struct {
	class string
	err   error
}{
	{ClassMalformed, interpreter.ErrMalformed},
	{ClassUnderflow, interpreter.ErrStackUnderflow},
	{ClassUnsetLocal, interpreter.ErrUnsetLocal},
	{ClassLocalIndex, interpreter.ErrLocalIndex},
	{ClassArgIndex, interpreter.ErrArgIndex},
	{ClassUnsupported, interpreter.ErrUnsupported},
	{ClassTypeMismatch, interpreter.ErrTypeMismatch},
	{ClassMaxSteps, interpreter.ErrMaxStepsExceeded},
	{ClassMaxDepth, interpreter.ErrMaxDepthExceeded},
	{ClassNoEntry, runner.ErrNoEntry},
}

// Classify maps an error to its class name, or "" for nil.
func Classify(err error) string {
	if err == nil {
		return ""
	}

	var syntaxErr *asm.SyntaxError
	if errors.As(err, &syntaxErr) {
		return ClassSyntax
	}

	for _, s := range sentinels {
		if errors.Is(err, s.err) {
			return s.class
		}
	}

	var invErr *interpreter.InvocationError
	if errors.As(err, &invErr) {
		return ClassInvocation
	}
	return "unknown"
}

// Run executes one case.
func Run(lc LoadedCase) Result {
	c := lc.Case
	if c.Skip != "" {
		return Result{Case: lc, Skipped: true}
	}

	err := check(c)
	return Result{Case: lc, Passed: err == nil, Err: err}
}

// RunAll executes cases in order.
func RunAll(cases []LoadedCase) []Result {
	results := make([]Result, 0, len(cases))
	for _, lc := range cases {
		results = append(results, Run(lc))
	}
	return results
}

// ComputeStats counts results by outcome.
func ComputeStats(results []Result) Stats {
	s := Stats{Total: len(results)}
	for _, r := range results {
		switch {
		case r.Skipped:
			s.Skipped++
		case r.Passed:
			s.Passed++
		default:
			s.Failed++
		}
	}
	return s
}

func (s Stats) String() string {
	return fmt.Sprintf("%d cases: %d passed, %d failed, %d skipped", s.Total, s.Passed, s.Failed, s.Skipped)
}

func check(c Case) error {
	var stdout bytes.Buffer
	r := &runner.Runner{
		Entry:    c.Entry,
		MaxSteps: c.MaxSteps,
		MaxDepth: c.MaxDepth,
		Stdin:    strings.NewReader(c.Stdin),
		Stdout:   &stdout,
	}

	var out *runner.Outcome
	mod, err := asm.Parse(c.Source)
	if err == nil {
		out, err = r.Execute(mod)
	}

	want := c.Expect
	if got := Classify(err); got != want.Error {
		if err != nil {
			return fmt.Errorf("expected error class %q, got %q: %w", want.Error, got, err)
		}
		return fmt.Errorf("expected error class %q, got success", want.Error)
	}

	if want.Stdout != nil && stdout.String() != *want.Stdout {
		return fmt.Errorf("stdout: expected %q, got %q", *want.Stdout, stdout.String())
	}

	if err != nil {
		return nil
	}

	switch {
	case want.Empty && out.Returned:
		return fmt.Errorf("expected no result, got %q", out.Result.String())
	case want.Result != nil && !out.Returned:
		return fmt.Errorf("expected result %q, got none", *want.Result)
	case want.Result != nil && out.Result.String() != *want.Result:
		return fmt.Errorf("result: expected %q, got %q", *want.Result, out.Result.String())
	}
	return nil
}
