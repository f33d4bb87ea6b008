package image_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"vclr/pkg/asm"
	"vclr/pkg/il"
	"vclr/pkg/image"
)

const listing = `
.module Counter
.entry Program::Main

.type Box
.field int32 Box::Value

.method static int32 Program::Main()
.locals init (int32 i)
IL_0000: ldc.i4.0
IL_0001: stloc.0
IL_0002: br.s IL_0008
IL_0004: ldloc.0
IL_0005: ldc.i4.1
IL_0006: add
IL_0007: stloc.0
IL_0008: ldloc.0
IL_0009: ldc.i4.s 10
IL_000b: blt.s IL_0004
IL_000d: ldstr "done\t"
IL_0012: call void [mscorlib]System.Console::WriteLine(string)
IL_0017: newobj instance void Box::.ctor()
IL_001c: ldc.i4.3
IL_001d: stfld int32 Box::Value
IL_0022: ldc.i4.0
IL_0023: box [mscorlib]System.Int32
IL_0028: pop
IL_0029: ldloc.0
IL_002a: ret
`

func mustParse(t *testing.T) *il.Module {
	t.Helper()
	mod, err := asm.Parse(listing)
	if err != nil {
		t.Fatalf("parsing listing: %v", err)
	}
	return mod
}

func compare(t *testing.T, label string, want, got *il.Module) {
	t.Helper()

	if got.Name != want.Name || got.Entry != want.Entry {
		t.Errorf("%s: expected %s/%s, got %s/%s", label, want.Name, want.Entry, got.Name, got.Entry)
	}
	if len(got.Types) != len(want.Types) || got.Types[0].Fields[0] != want.Types[0].Fields[0] {
		t.Errorf("%s: expected types %v, got %v", label, want.Types, got.Types)
	}
	if len(got.Methods) != len(want.Methods) {
		t.Fatalf("%s: expected %d methods, got %d", label, len(want.Methods), len(got.Methods))
	}

	for i, m := range want.Methods {
		g := got.Methods[i]
		if g.FullName() != m.FullName() || g.Static != m.Static || g.Locals != m.Locals || g.Returns != m.Returns {
			t.Errorf("%s: expected method %s (static=%v locals=%d), got %s (static=%v locals=%d)",
				label, m.FullName(), m.Static, m.Locals, g.FullName(), g.Static, g.Locals)
		}
		if g.Listing() != m.Listing() {
			t.Errorf("%s: listing mismatch\nexpected:\n%s\ngot:\n%s", label, m.Listing(), g.Listing())
		}
	}
}

func TestRoundTrip(t *testing.T) {
	mod := mustParse(t)

	for _, format := range []image.Format{image.FormatYAML, image.FormatCBOR} {
		data, err := image.Encode(mod, format)
		if err != nil {
			t.Fatalf("%s: encode: %v", format, err)
		}
		got, err := image.Decode(data, format)
		if err != nil {
			t.Fatalf("%s: decode: %v", format, err)
		}
		compare(t, format.String(), mod, got)
	}
}

func TestCBORDeterministic(t *testing.T) {
	mod := mustParse(t)

	a, err := image.Encode(mod, image.FormatCBOR)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, _ := image.Encode(mustParse(t), image.FormatCBOR)

	if string(a) != string(b) {
		t.Errorf("expected identical encodings of the same module")
	}
}

func TestWriteAndLoad(t *testing.T) {
	mod := mustParse(t)
	dir := t.TempDir()

	for _, name := range []string{"counter.cbor", "counter.yaml"} {
		path := filepath.Join(dir, name)
		if err := image.Write(path, mod); err != nil {
			t.Fatalf("%s: write: %v", name, err)
		}
		got, err := image.Load(path)
		if err != nil {
			t.Fatalf("%s: load: %v", name, err)
		}
		compare(t, name, mod, got)
	}

	ilPath := filepath.Join(dir, "counter.il")
	if err := os.WriteFile(ilPath, []byte(listing), 0o644); err != nil {
		t.Fatalf("writing listing: %v", err)
	}
	got, err := image.Load(ilPath)
	if err != nil {
		t.Fatalf("counter.il: load: %v", err)
	}
	compare(t, "counter.il", mod, got)
}

func TestLoadNamesModuleAfterFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hello.il")
	if err := os.WriteFile(path, []byte("ldstr \"hi\"\nret\n"), 0o644); err != nil {
		t.Fatalf("writing listing: %v", err)
	}

	mod, err := image.Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mod.Name != "hello" {
		t.Errorf("expected module name hello, got %s", mod.Name)
	}
}

func TestHandWrittenYAML(t *testing.T) {
	doc := `
module: Greeter
entry: Program::Main
methods:
  - name: Main
    type: Program
    static: true
    returns: void
    code: |
      ldstr "hello"
      call void System.Console::WriteLine(string)
      ret
`
	mod, err := image.Decode([]byte(doc), image.FormatYAML)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	m, ok := mod.Method("Program::Main")
	if !ok {
		t.Fatalf("expected Program::Main")
	}
	if len(m.Instructions) != 3 || m.Instructions[1].Offset != 5 {
		t.Errorf("expected three instructions with call at IL_0005, got\n%s", m.Listing())
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		format   image.Format
		expected error
	}{
		{"unknown yaml field", "methods: []\nbogus: 1\n", image.FormatYAML, nil},
		{"nameless method", "methods:\n  - type: Program\n", image.FormatYAML, image.ErrInvalid},
		{"newer version", "version: 99\nmethods: []\n", image.FormatYAML, image.ErrVersion},
		{"bad code", "methods:\n  - name: M\n    type: P\n    code: frobnicate\n", image.FormatYAML, nil},
		{"garbage cbor", "\xff\xff", image.FormatCBOR, nil},
		{"listing syntax", "ldc.i4.s", image.FormatIL, nil},
	}

	for _, tt := range tests {
		_, err := image.Decode([]byte(tt.data), tt.format)
		if err == nil {
			t.Errorf("%s: expected error, got nil", tt.name)
			continue
		}
		if tt.expected != nil && !errors.Is(err, tt.expected) {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.expected, err)
		}
	}
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		path     string
		expected image.Format
	}{
		{"a.il", image.FormatIL},
		{"dir/b.YAML", image.FormatYAML},
		{"c.yml", image.FormatYAML},
		{"d.cbor", image.FormatCBOR},
	}

	for _, tt := range tests {
		got, err := image.DetectFormat(tt.path)
		if err != nil || got != tt.expected {
			t.Errorf("%s: expected %s, got %s (%v)", tt.path, tt.expected, got, err)
		}
	}

	if _, err := image.DetectFormat("e.txt"); !errors.Is(err, image.ErrUnknownFormat) {
		t.Errorf("expected ErrUnknownFormat, got %v", err)
	}
	if _, err := image.Encode(&il.Module{}, image.FormatIL); !errors.Is(err, image.ErrUnknownFormat) {
		t.Errorf("expected ErrUnknownFormat encoding IL, got %v", err)
	}
}
