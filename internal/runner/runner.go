package runner

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"

	"vclr/internal/config"
	"vclr/pkg/asm"
	"vclr/pkg/color"
	"vclr/pkg/host"
	"vclr/pkg/il"
	"vclr/pkg/image"
	"vclr/pkg/interpreter"
	"vclr/pkg/trace"
)

var ErrNoEntry = errors.New("no entry method")

type Runner struct {
	Help       bool   // Show help message
	Verbose    bool   // Enable verbose output
	NoColor    bool   // Disable colored output
	ListOnly   bool   // Print the listing without running
	Entry      string // Entry method as "Type::Name"
	ConfigFile string // Path to a vclr.toml file
	MaxSteps   int    // Dispatch limit per interpretation, 0 = unlimited
	MaxDepth   int    // Nesting limit, 0 = unlimited
	TraceDB    string // SQLite file receiving a step trace
	EmitFile   string // Path to write the loaded module to (.yaml or .cbor)
	SourceFile string // Path to the module to run

	Stdout io.Writer // Console output of the program, os.Stdout when nil
	Stdin  io.Reader // Console input of the program, os.Stdin when nil
}

// Outcome is the result of one execution of a module.
type Outcome struct {
	Module   string
	Entry    string
	Result   interpreter.Value
	Returned bool // the entry method left a value on its stack
}

// ApplyConfig fills options from c. Flags named in explicit were given on the
// command line and win over the file.
func (opts *Runner) ApplyConfig(c *config.Config, explicit map[string]bool) {
	if !explicit["e"] && c.Run.Entry != "" {
		opts.Entry = c.Run.Entry
	}
	if !explicit["max-steps"] && c.Run.MaxSteps != 0 {
		opts.MaxSteps = c.Run.MaxSteps
	}
	if !explicit["max-depth"] && c.Run.MaxDepth != 0 {
		opts.MaxDepth = c.Run.MaxDepth
	}
	if !explicit["trace"] && c.Trace.DB != "" {
		opts.TraceDB = c.Trace.DB
	}
	if !explicit["n"] && !c.Colored() {
		opts.NoColor = true
	}
}

// Run loads the source file, optionally re-emits it, and executes its entry
// method.
func (opts *Runner) Run() error {
	log.Info("Processing file", "file", opts.SourceFile)

	mod, err := image.Load(opts.SourceFile)
	if err != nil {
		var syntaxErr *asm.SyntaxError
		if errors.As(err, &syntaxErr) {
			fmt.Println(color.BrightRedText("=== Syntax Errors ==="))
			fmt.Println(syntaxErr.Messages[0])
			return fmt.Errorf("parsing failed with %d errors", len(syntaxErr.Messages))
		}
		return err
	}

	if opts.EmitFile != "" {
		if err := image.Write(opts.EmitFile, mod); err != nil {
			return fmt.Errorf("emitting module: %w", err)
		}
		log.Info("Module written", "file", opts.EmitFile)
	}

	if opts.Verbose || opts.ListOnly {
		printListing(mod)
	}
	if opts.ListOnly {
		return nil
	}

	if opts.Verbose {
		fmt.Println(color.GreenText("\n=== Program Output ==="))
	}

	out, err := opts.Execute(mod)
	if err != nil {
		return fmt.Errorf("interpretation failed: %w", err)
	}

	if opts.Verbose {
		fmt.Println(color.GreenText("\n=== Result ==="))
		if out.Returned {
			fmt.Printf("%s: %s\n", color.CyanText(out.Entry), color.BlueText(out.Result.String()))
		} else {
			fmt.Println(color.GrayText("No value returned."))
		}
	}

	return nil
}

// Execute runs the entry method of mod against a fresh host registry.
func (opts *Runner) Execute(mod *il.Module) (*Outcome, error) {
	reg := host.NewRegistry(host.WithStdout(opts.stdout()), host.WithStdin(opts.stdin()))
	if err := reg.LoadModule(mod); err != nil {
		return nil, err
	}

	entry, err := opts.entry(mod)
	if err != nil {
		return nil, err
	}

	var tracer interpreter.Tracer
	if opts.Verbose {
		tracer = trace.NewLogTracer(nil)
	}

	var rec *trace.SQLiteRecorder
	if opts.TraceDB != "" {
		rec, err = trace.OpenRecorder(opts.TraceDB)
		if err != nil {
			return nil, err
		}
		defer rec.Close()

		id, err := rec.Begin(mod.Name, entry.FullName())
		if err != nil {
			return nil, err
		}
		log.Debug("Recording trace", "db", opts.TraceDB, "run", id)
	}

	it := interpreter.NewInterpreter(
		interpreter.WithHost(reg),
		interpreter.WithTracer(trace.Tee(tracer, recorder(rec))),
		interpreter.WithMaxSteps(opts.MaxSteps),
		interpreter.WithMaxDepth(opts.MaxDepth),
	)

	result := interpreter.NewStack()
	runErr := it.Interpret(entry, result)

	if rec != nil {
		outcome := "ok"
		if runErr != nil {
			outcome = runErr.Error()
		}
		if err := rec.Finish(outcome); err != nil {
			log.Error("Trace not recorded", "db", opts.TraceDB, "error", err)
		}
	}

	if runErr != nil {
		return nil, runErr
	}

	out := &Outcome{Module: mod.Name, Entry: entry.FullName()}
	if v, err := result.Pop(); err == nil {
		out.Result, out.Returned = v, true
	}
	return out, nil
}

// entry picks the method to run: the configured one, the module's declared
// entry, Program::Main, or the module's only method.
func (opts *Runner) entry(mod *il.Module) (*il.Method, error) {
	name := opts.Entry
	if name == "" {
		name = mod.Entry
	}
	if name != "" {
		m, ok := mod.Method(name)
		if !ok {
			return nil, fmt.Errorf("%w: %s not found in %s", ErrNoEntry, name, mod.Name)
		}
		return m, nil
	}

	if m, ok := mod.Method(asm.ImplicitType + "::" + asm.ImplicitMethod); ok {
		return m, nil
	}
	if len(mod.Methods) == 1 {
		return mod.Methods[0], nil
	}
	return nil, fmt.Errorf("%w: %s declares %d methods and no .entry", ErrNoEntry, mod.Name, len(mod.Methods))
}

// recorder avoids handing Tee a non-nil interface around a nil pointer.
func recorder(rec *trace.SQLiteRecorder) interpreter.Tracer {
	if rec == nil {
		return nil
	}
	return rec
}

func (opts *Runner) stdout() io.Writer {
	if opts.Stdout != nil {
		return opts.Stdout
	}
	return os.Stdout
}

func (opts *Runner) stdin() io.Reader {
	if opts.Stdin != nil {
		return opts.Stdin
	}
	return os.Stdin
}

func printListing(mod *il.Module) {
	fmt.Println(color.GreenText(fmt.Sprintf("\n=== Module %s ===", mod.Name)))
	if len(mod.Methods) == 0 {
		fmt.Println(color.GrayText("No methods."))
		return
	}

	for _, m := range mod.Methods {
		fmt.Println(color.BoldText(m.FullName()))
		for _, in := range m.Instructions {
			fmt.Printf("  %s: %s %s\n",
				color.CyanText(il.Label(in.Offset)),
				color.YellowText(in.Op.String()),
				color.BlueText(in.Operand.String()))
		}
	}
}
