package image

import (
	"fmt"

	"vclr/pkg/asm"
	"vclr/pkg/il"
)

// Version is the image layout version written by Encode.
const Version = 1

type imageDisk struct {
	Version int          `yaml:"version,omitempty" cbor:"version"`
	Module  string       `yaml:"module,omitempty" cbor:"module,omitempty"`
	Entry   string       `yaml:"entry,omitempty" cbor:"entry,omitempty"`
	Types   []typeDisk   `yaml:"types,omitempty" cbor:"types,omitempty"`
	Methods []methodDisk `yaml:"methods" cbor:"methods"`
}

type typeDisk struct {
	Name   string      `yaml:"name" cbor:"name"`
	Base   string      `yaml:"base,omitempty" cbor:"base,omitempty"`
	Fields []fieldDisk `yaml:"fields,omitempty" cbor:"fields,omitempty"`
}

type fieldDisk struct {
	Name string `yaml:"name" cbor:"name"`
	Type string `yaml:"type" cbor:"type"`
}

type paramDisk struct {
	Name string `yaml:"name,omitempty" cbor:"name,omitempty"`
	Type string `yaml:"type" cbor:"type"`
}

// methodDisk holds the body as listing text in YAML and as structured
// instructions in CBOR.
type methodDisk struct {
	Name    string      `yaml:"name" cbor:"name"`
	Type    string      `yaml:"type" cbor:"type"`
	Static  bool        `yaml:"static,omitempty" cbor:"static,omitempty"`
	Params  []paramDisk `yaml:"params,omitempty" cbor:"params,omitempty"`
	Returns string      `yaml:"returns,omitempty" cbor:"returns,omitempty"`
	Locals  *int        `yaml:"locals,omitempty" cbor:"locals,omitempty"`

	Code         string      `yaml:"code,omitempty" cbor:"-"`
	Instructions []instrDisk `yaml:"-" cbor:"instructions,omitempty"`
}

type instrDisk struct {
	Offset int         `cbor:"offset"`
	Op     uint16      `cbor:"op"`
	Int    *int64      `cbor:"int,omitempty"`
	Text   *string     `cbor:"text,omitempty"`
	Type   string      `cbor:"type,omitempty"`
	Member *memberDisk `cbor:"member,omitempty"`
}

type memberDisk struct {
	Kind    string   `cbor:"kind"`
	Type    string   `cbor:"type"`
	Name    string   `cbor:"name"`
	Params  []string `cbor:"params,omitempty"`
	Returns string   `cbor:"returns,omitempty"`
	Static  bool     `cbor:"static,omitempty"`
}

var memberKinds = map[il.MemberKind]string{
	il.MethodMember: "method",
	il.CtorMember:   "ctor",
	il.FieldMember:  "field",
}

func toDisk(mod *il.Module, structured bool) *imageDisk {
	out := &imageDisk{
		Version: Version,
		Module:  mod.Name,
		Entry:   mod.Entry,
		Methods: []methodDisk{},
	}

	for _, t := range mod.Types {
		td := typeDisk{Name: t.Name, Base: t.Base}
		for _, f := range t.Fields {
			td.Fields = append(td.Fields, fieldDisk{Name: f.Name, Type: f.Type})
		}
		out.Types = append(out.Types, td)
	}

	for _, m := range mod.Methods {
		locals := m.Locals
		md := methodDisk{
			Name:    m.Name,
			Type:    m.DeclaringType,
			Static:  m.Static,
			Returns: m.Returns,
			Locals:  &locals,
		}
		for _, p := range m.Params {
			md.Params = append(md.Params, paramDisk{Name: p.Name, Type: p.Type})
		}

		if structured {
			for _, in := range m.Instructions {
				md.Instructions = append(md.Instructions, instrToDisk(in))
			}
		} else {
			md.Code = m.Listing()
		}

		out.Methods = append(out.Methods, md)
	}

	return out
}

func instrToDisk(in il.Instruction) instrDisk {
	d := instrDisk{Offset: in.Offset, Op: uint16(in.Op)}

	switch in.Operand.Tag() {
	case il.OperandInt:
		n, _ := in.Operand.Int()
		d.Int = &n
	case il.OperandString:
		s, _ := in.Operand.Text()
		d.Text = &s
	case il.OperandType:
		t, _ := in.Operand.Type()
		d.Type = t.Name
	case il.OperandMember:
		m, _ := in.Operand.Member()
		d.Member = &memberDisk{
			Kind:    memberKinds[m.Kind],
			Type:    m.Type,
			Name:    m.Name,
			Params:  m.Params,
			Returns: m.Returns,
			Static:  m.Static,
		}
	}

	return d
}

func (d *imageDisk) toModule() (*il.Module, error) {
	if d.Version > Version {
		return nil, fmt.Errorf("%w: %d", ErrVersion, d.Version)
	}

	mod := &il.Module{Name: d.Module, Entry: d.Entry}

	for _, td := range d.Types {
		if td.Name == "" {
			return nil, fmt.Errorf("%w: type without a name", ErrInvalid)
		}
		t := il.TypeDecl{Name: td.Name, Base: td.Base}
		for _, f := range td.Fields {
			t.Fields = append(t.Fields, il.Field{Name: f.Name, Type: f.Type})
		}
		mod.Types = append(mod.Types, t)
	}

	for _, md := range d.Methods {
		m, err := md.toMethod()
		if err != nil {
			return nil, err
		}
		mod.Methods = append(mod.Methods, m)
	}

	return mod, nil
}

func (md *methodDisk) toMethod() (*il.Method, error) {
	if md.Name == "" || md.Type == "" {
		return nil, fmt.Errorf("%w: method needs a name and a declaring type", ErrInvalid)
	}

	m := &il.Method{
		Name:          md.Name,
		DeclaringType: md.Type,
		Static:        md.Static,
		Returns:       md.Returns,
	}
	for _, p := range md.Params {
		m.Params = append(m.Params, il.Param{Name: p.Name, Type: p.Type})
	}

	switch {
	case md.Code != "":
		body, err := asm.ParseMethod(md.Code)
		if err != nil {
			return nil, fmt.Errorf("method %s::%s: %w", md.Type, md.Name, err)
		}
		m.Instructions = body.Instructions
		m.Locals = body.Locals
	default:
		for i, d := range md.Instructions {
			in, err := d.toInstruction()
			if err != nil {
				return nil, fmt.Errorf("method %s::%s instruction %d: %w", md.Type, md.Name, i, err)
			}
			m.Instructions = append(m.Instructions, in)
		}
	}

	if md.Locals != nil {
		m.Locals = *md.Locals
	}
	if m.Locals < 0 {
		return nil, fmt.Errorf("%w: negative local count in %s", ErrInvalid, m.FullName())
	}

	return m, nil
}

func (d instrDisk) toInstruction() (il.Instruction, error) {
	op := il.Opcode(d.Op)
	in := il.Instruction{Offset: d.Offset, Op: op, Size: op.Size()}

	switch {
	case d.Int != nil:
		in.Operand = il.IntOperand(*d.Int)
	case d.Text != nil:
		in.Operand = il.StringOperand(*d.Text)
	case d.Type != "":
		in.Operand = il.TypeOperand(&il.TypeRef{Name: d.Type})
	case d.Member != nil:
		ref := &il.MemberRef{
			Type:    d.Member.Type,
			Name:    d.Member.Name,
			Params:  d.Member.Params,
			Returns: d.Member.Returns,
			Static:  d.Member.Static,
		}
		switch d.Member.Kind {
		case "method":
			ref.Kind = il.MethodMember
		case "ctor":
			ref.Kind = il.CtorMember
		case "field":
			ref.Kind = il.FieldMember
		default:
			return il.Instruction{}, fmt.Errorf("%w: member kind %q", ErrInvalid, d.Member.Kind)
		}
		in.Operand = il.MemberOperand(ref)
	default:
		in.Operand = il.NoOperand()
	}

	return in, nil
}
