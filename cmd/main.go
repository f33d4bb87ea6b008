package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/charmbracelet/log"

	"vclr/internal/config"
	"vclr/internal/logger"
	"vclr/internal/runner"
	"vclr/pkg/color"
)

// Main entry point for the vclr interpreter.
func main() {
	options := runner.Runner{}

	flag.BoolVar(&options.Help, "h", false, "Show help")
	flag.BoolVar(&options.Verbose, "v", false, "Verbose mode (debug log, listing and result)")
	flag.BoolVar(&options.NoColor, "n", false, "No color")
	flag.BoolVar(&options.ListOnly, "list", false, "Print the listing without running")
	flag.StringVar(&options.Entry, "e", "", "Entry method (e.g., Program::Main)")
	flag.StringVar(&options.ConfigFile, "c", "", "Config file (default: nearest vclr.toml)")
	flag.IntVar(&options.MaxSteps, "max-steps", 0, "Maximum instructions per interpretation (0 = unlimited)")
	flag.IntVar(&options.MaxDepth, "max-depth", 0, "Maximum nested interpretations (0 = unlimited)")
	flag.StringVar(&options.TraceDB, "trace", "", "Record a step trace into this SQLite file")
	flag.StringVar(&options.EmitFile, "emit", "", "Write the loaded module to a .yaml or .cbor file")

	flag.Parse()
	args := flag.Args()

	explicit := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { explicit[f.Name] = true })

	cfg, err := loadConfig(options.ConfigFile)
	if err != nil {
		logger.Init("warn", options.NoColor)
		log.Fatal("Failed to load config", "error", err)
	}
	options.ApplyConfig(cfg, explicit)

	level := cfg.Log.Level
	if options.Verbose {
		level = "debug"
	}
	logger.Init(level, options.NoColor)
	if cfg.Path != "" {
		log.Debug("Using config", "file", cfg.Path)
	}

	if options.Help {
		fmt.Printf("Usage: %s [options] <file.il|file.yaml|file.cbor>\n", os.Args[0])
		fmt.Println("Options:")
		flag.PrintDefaults()
		return
	}

	if options.NoColor {
		color.EnableColor(false)
	}

	if len(args) == 0 {
		log.Fatal("No input file provided", "help", fmt.Sprintf("%s -h", os.Args[0]))
	}

	options.SourceFile = args[0]

	if err := options.Run(); err != nil {
		log.Fatal("Execution failed", "error", err)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}

	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return config.FindAndLoad(wd)
}
