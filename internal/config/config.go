// Package config handles vclr.toml run configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FileName is the name FindAndLoad looks for.
const FileName = "vclr.toml"

// Config represents a vclr.toml file.
type Config struct {
	Run   Run   `toml:"run"`
	Log   Log   `toml:"log"`
	Trace Trace `toml:"trace"`

	// Path is the file the configuration was read from (set at load time).
	Path string `toml:"-"`
}

// Run configures interpretation.
type Run struct {
	Entry    string `toml:"entry"`
	MaxSteps int    `toml:"max_steps"`
	MaxDepth int    `toml:"max_depth"`
}

// Log configures the logger.
type Log struct {
	Level string `toml:"level"`
	Color *bool  `toml:"color"`
}

// Trace configures step recording.
type Trace struct {
	DB string `toml:"db"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Run: Run{MaxDepth: 256},
		Log: Log{Level: "warn"},
	}
}

// Load parses the configuration file at path. Unset keys keep their
// defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	c := Default()
	md, err := toml.Decode(string(data), c)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown key %s in %s", undecoded[0], path)
	}

	if c.Run.MaxSteps < 0 || c.Run.MaxDepth < 0 {
		return nil, fmt.Errorf("negative limit in %s", path)
	}

	c.Path, err = filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", path, err)
	}

	// trace database relative to the config file
	if c.Trace.DB != "" && !filepath.IsAbs(c.Trace.DB) {
		c.Trace.DB = filepath.Join(filepath.Dir(c.Path), c.Trace.DB)
	}

	return c, nil
}

// FindAndLoad walks up from startDir to find a vclr.toml file and loads it.
// Returns Default() if no file is found.
func FindAndLoad(startDir string) (*Config, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return Default(), nil
		}
		dir = parent
	}
}

// Colored reports whether colored output is enabled, true unless the file
// turns it off.
func (c *Config) Colored() bool {
	return c.Log.Color == nil || *c.Log.Color
}
