package conformance

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"vclr/internal/runner"
	"vclr/pkg/interpreter"
)

func TestConformance(t *testing.T) {
	cases, err := LoadDir("testdata")
	if err != nil {
		t.Fatalf("Failed to load cases: %v", err)
	}
	if len(cases) == 0 {
		t.Fatal("No cases loaded")
	}

	results := RunAll(cases)

	for _, result := range results {
		t.Run(result.Case.File+"/"+result.Case.Case.Name, func(t *testing.T) {
			switch {
			case result.Skipped:
				t.Skipf("Skipped: %s", result.Case.Case.Skip)
			case !result.Passed:
				t.Errorf("Case failed: %v", result.Err)
			}
		})
	}

	t.Logf("\n=== Summary ===\n%s", ComputeStats(results))
}

func TestLoadDir(t *testing.T) {
	cases, err := LoadDir("testdata")
	if err != nil {
		t.Fatalf("Failed to load cases: %v", err)
	}

	files := make(map[string]int)
	for _, c := range cases {
		files[c.File]++
		if c.Suite == "" {
			t.Errorf("%s: case %q has no suite name", c.File, c.Case.Name)
		}
	}
	for _, name := range []string{"arithmetic.yaml", "branches.yaml", "calls.yaml", "errors.yaml"} {
		if files[name] == 0 {
			t.Errorf("expected cases from %s, got none", name)
		}
	}
}

func TestLoadFileRejects(t *testing.T) {
	tests := []struct {
		name    string
		content string
		message string
	}{
		{"unknown key", "name: x\ncases:\n  - name: a\n    source: ret\n    expcet: {}\n", "expcet"},
		{"no suite name", "cases:\n  - name: a\n    source: ret\n", "suite has no name"},
		{"no source", "name: x\ncases:\n  - name: a\n", "has no source"},
		{"duplicate case", "name: x\ncases:\n  - name: a\n    source: ret\n  - name: a\n    source: ret\n", "duplicate case"},
		{"unknown class", "name: x\ncases:\n  - name: a\n    source: ret\n    expect:\n      error: oops\n", "unknown error class"},
		{"error and result", "name: x\ncases:\n  - name: a\n    source: ret\n    expect:\n      error: underflow\n      result: \"1\"\n", "both an error and a result"},
	}

	dir := t.TempDir()
	for i, tt := range tests {
		path := filepath.Join(dir, fmt.Sprintf("case%d.yaml", i))
		if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
			t.Fatal(err)
		}

		_, err := LoadFile(path)
		if err == nil {
			t.Errorf("%s: expected error, got nil", tt.name)
			continue
		}
		if !strings.Contains(err.Error(), tt.message) {
			t.Errorf("%s: expected error containing %q, got %q", tt.name, tt.message, err)
		}
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{&interpreter.ExecError{Err: interpreter.ErrStackUnderflow}, ClassUnderflow},
		{&interpreter.ExecError{Err: &interpreter.MalformedError{Reason: "x"}}, ClassMalformed},
		{&interpreter.InvocationError{Err: errors.New("boom")}, ClassInvocation},
		{&interpreter.InvocationError{Err: interpreter.ErrMaxDepthExceeded}, ClassMaxDepth},
		{fmt.Errorf("wrapped: %w", runner.ErrNoEntry), ClassNoEntry},
		{errors.New("other"), "unknown"},
	}

	for i, tt := range tests {
		if got := Classify(tt.err); got != tt.want {
			t.Errorf("Error %d: expected %q, got %q", i, tt.want, got)
		}
	}
}

func TestMismatchIsReported(t *testing.T) {
	want := "6"
	lc := LoadedCase{Case: Case{
		Name:   "wrong",
		Source: "ldc.i4.2\nldc.i4.3\nadd\nret",
		Expect: Expectation{Result: &want},
	}}

	result := Run(lc)
	if result.Passed || result.Err == nil {
		t.Fatalf("expected a failed result, got %+v", result)
	}
	if !strings.Contains(result.Err.Error(), `expected "6", got "5"`) {
		t.Errorf("unexpected failure message: %v", result.Err)
	}

	lc.Case.Skip = "not yet"
	if r := Run(lc); !r.Skipped {
		t.Errorf("expected the case to be skipped")
	}
}
