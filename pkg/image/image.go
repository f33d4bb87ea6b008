// Package image loads and stores modules: IL listings, YAML documents and
// binary CBOR images.
package image

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"gopkg.in/yaml.v3"

	"vclr/pkg/asm"
	"vclr/pkg/il"
)

var (
	ErrUnknownFormat = errors.New("unknown image format")
	ErrVersion       = errors.New("unsupported image version")
	ErrInvalid       = errors.New("invalid image")
)

// Format selects the encoding of a module file.
type Format int

const (
	FormatIL Format = iota
	FormatYAML
	FormatCBOR
)

func (f Format) String() string {
	switch f {
	case FormatIL:
		return "il"
	case FormatYAML:
		return "yaml"
	case FormatCBOR:
		return "cbor"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("image: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// DetectFormat picks the format from the file extension.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".il", ".ilasm":
		return FormatIL, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".cbor", ".vclr":
		return FormatCBOR, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
}

// Load reads the module stored at path.
func Load(path string) (*il.Module, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	mod, err := Decode(data, format)
	if err != nil {
		return nil, fmt.Errorf("image: load %s: %w", path, err)
	}

	if mod.Name == "" {
		mod.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return mod, nil
}

// Decode parses data in the given format.
func Decode(data []byte, format Format) (*il.Module, error) {
	switch format {
	case FormatIL:
		return asm.Parse(string(data))

	case FormatYAML:
		var raw imageDisk
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(&raw); err != nil {
			return nil, fmt.Errorf("image: parse yaml: %w", err)
		}
		return raw.toModule()

	case FormatCBOR:
		var raw imageDisk
		if err := cbor.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("image: unmarshal cbor: %w", err)
		}
		if raw.Version == 0 {
			return nil, fmt.Errorf("%w: missing version", ErrInvalid)
		}
		return raw.toModule()
	}

	return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, format)
}

// Encode serializes mod. IL listings are not an output format.
func Encode(mod *il.Module, format Format) ([]byte, error) {
	switch format {
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(toDisk(mod, false)); err != nil {
			return nil, fmt.Errorf("image: marshal yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("image: encoder close: %w", err)
		}
		return buf.Bytes(), nil

	case FormatCBOR:
		return cborEncMode.Marshal(toDisk(mod, true))
	}

	return nil, fmt.Errorf("%w: cannot encode %s", ErrUnknownFormat, format)
}

// Write encodes mod in the format implied by path and writes it there.
func Write(path string, mod *il.Module) error {
	format, err := DetectFormat(path)
	if err != nil {
		return err
	}

	data, err := Encode(mod, format)
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("image: write %s: %w", path, err)
	}
	return nil
}
