package conformance

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LoadedCase is a case together with the file and suite it came from.
type LoadedCase struct {
	File  string
	Suite string
	Case  Case
}

// LoadDir reads every .yaml file below dir, in lexical order.
func LoadDir(dir string) ([]LoadedCase, error) {
	var loaded []LoadedCase

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".yaml" {
			return nil
		}

		suite, err := LoadFile(path)
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			rel = path
		}
		for _, c := range suite.Cases {
			loaded = append(loaded, LoadedCase{File: rel, Suite: suite.Name, Case: c})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return loaded, nil
}

// LoadFile parses and validates one suite. Unknown keys are rejected.
func LoadFile(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var suite Suite
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&suite); err != nil {
		return nil, fmt.Errorf("conformance: parse %s: %w", path, err)
	}

	if err := suite.validate(); err != nil {
		return nil, fmt.Errorf("conformance: %s: %w", path, err)
	}
	return &suite, nil
}

func (s *Suite) validate() error {
	if s.Name == "" {
		return fmt.Errorf("suite has no name")
	}

	seen := make(map[string]bool)
	for i, c := range s.Cases {
		switch {
		case c.Name == "":
			return fmt.Errorf("case %d has no name", i)
		case seen[c.Name]:
			return fmt.Errorf("duplicate case %q", c.Name)
		case c.Source == "":
			return fmt.Errorf("case %q has no source", c.Name)
		case c.Expect.Error != "" && !classes[c.Expect.Error]:
			return fmt.Errorf("case %q: unknown error class %q", c.Name, c.Expect.Error)
		case c.Expect.Error != "" && (c.Expect.Result != nil || c.Expect.Empty):
			return fmt.Errorf("case %q expects both an error and a result", c.Name)
		case c.Expect.Result != nil && c.Expect.Empty:
			return fmt.Errorf("case %q expects both a result and none", c.Name)
		}
		seen[c.Name] = true
	}
	return nil
}
