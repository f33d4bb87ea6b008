package il

import (
	"fmt"
	"strconv"
	"strings"
)

// OperandTag names the variant held by an Operand.
type OperandTag int

const (
	OperandNone OperandTag = iota
	OperandInt
	OperandString
	OperandType
	OperandMember
)

func (t OperandTag) String() string {
	switch t {
	case OperandNone:
		return "none"
	case OperandInt:
		return "int"
	case OperandString:
		return "string"
	case OperandType:
		return "type"
	case OperandMember:
		return "member"
	default:
		return fmt.Sprintf("tag(%d)", int(t))
	}
}

// Operand is the immediate or resolved reference accompanying an opcode.
// Exactly one variant is populated, selected by Tag.
type Operand struct {
	tag    OperandTag
	i      int64
	s      string
	typ    *TypeRef
	member *MemberRef
}

// NoOperand returns the absent operand.
func NoOperand() Operand { return Operand{} }

// IntOperand returns an integer operand (literal, slot index or branch target).
func IntOperand(v int64) Operand { return Operand{tag: OperandInt, i: v} }

// StringOperand returns a text literal operand.
func StringOperand(s string) Operand { return Operand{tag: OperandString, s: s} }

// TypeOperand returns a type reference operand.
func TypeOperand(t *TypeRef) Operand { return Operand{tag: OperandType, typ: t} }

// MemberOperand returns a method, constructor or field reference operand.
func MemberOperand(m *MemberRef) Operand { return Operand{tag: OperandMember, member: m} }

func (o Operand) Tag() OperandTag { return o.tag }

func (o Operand) Int() (int64, bool) { return o.i, o.tag == OperandInt }

func (o Operand) Text() (string, bool) { return o.s, o.tag == OperandString }

func (o Operand) Type() (*TypeRef, bool) { return o.typ, o.tag == OperandType }

func (o Operand) Member() (*MemberRef, bool) { return o.member, o.tag == OperandMember }

// String renders the operand the way a listing shows it.
func (o Operand) String() string {
	switch o.tag {
	case OperandInt:
		return strconv.FormatInt(o.i, 10)
	case OperandString:
		return strconv.Quote(o.s)
	case OperandType:
		return o.typ.String()
	case OperandMember:
		return o.member.String()
	default:
		return ""
	}
}

// TypeRef names a type. Primitive names use their IL keyword form.
type TypeRef struct {
	Name string
}

var primitiveAliases = map[string]string{
	"System.Int32":   "int32",
	"System.Boolean": "bool",
	"System.String":  "string",
	"System.Object":  "object",
	"System.Void":    "void",
	"int":            "int32",
	"boolean":        "bool",
}

// CanonicalType maps framework type names to their IL keyword form.
func CanonicalType(name string) string {
	if alias, ok := primitiveAliases[name]; ok {
		return alias
	}
	return name
}

func (t *TypeRef) String() string {
	if t == nil {
		return "<nil>"
	}
	return t.Name
}

// Canonical returns the IL keyword form of the type name.
func (t *TypeRef) Canonical() string {
	return CanonicalType(t.Name)
}

// MemberKind separates method, constructor and field references.
type MemberKind int

const (
	MethodMember MemberKind = iota
	CtorMember
	FieldMember
)

// CtorName is the member name of instance constructors.
const CtorName = ".ctor"

// MemberRef is a resolved reference to a member of a declaring type.
type MemberRef struct {
	Kind    MemberKind
	Type    string   // declaring type
	Name    string   // member name
	Params  []string // parameter type names, declared order
	Returns string   // return type for methods, field type for fields
	Static  bool
}

// NewCtorRef returns a reference to the constructor of typ taking params.
func NewCtorRef(typ string, params ...string) *MemberRef {
	return &MemberRef{Kind: CtorMember, Type: typ, Name: CtorName, Params: params, Returns: "void"}
}

// Signature returns "Name(p1,p2)", the key used to match overloads.
func (m *MemberRef) Signature() string {
	if m.Kind == FieldMember {
		return m.Name
	}
	params := make([]string, len(m.Params))
	for i, p := range m.Params {
		params[i] = CanonicalType(p)
	}
	return m.Name + "(" + strings.Join(params, ",") + ")"
}

// FullName returns "Type::Name".
func (m *MemberRef) FullName() string {
	return m.Type + "::" + m.Name
}

func (m *MemberRef) String() string {
	if m == nil {
		return "<nil>"
	}

	var b strings.Builder
	if m.Kind != FieldMember && !m.Static {
		b.WriteString("instance ")
	}
	if m.Returns != "" {
		b.WriteString(m.Returns)
		b.WriteByte(' ')
	}
	b.WriteString(m.Type)
	b.WriteString("::")
	if m.Kind == FieldMember {
		b.WriteString(m.Name)
		return b.String()
	}
	b.WriteString(m.Name)
	b.WriteByte('(')
	b.WriteString(strings.Join(m.Params, ","))
	b.WriteByte(')')
	return b.String()
}
