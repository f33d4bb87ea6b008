package il

import "strings"

// Param is one declared parameter of a method.
type Param struct {
	Name string
	Type string
}

// Method carries a callable unit's static metadata and its instruction
// sequence. The sequence is not modified once the method is built.
type Method struct {
	Name          string
	DeclaringType string
	Static        bool
	Params        []Param
	Returns       string
	Locals        int // number of local slots
	Instructions  []Instruction
}

// FullName returns "Type::Name".
func (m *Method) FullName() string {
	return m.DeclaringType + "::" + m.Name
}

// Ref returns the member reference that designates m.
func (m *Method) Ref() *MemberRef {
	params := make([]string, len(m.Params))
	for i, p := range m.Params {
		params[i] = p.Type
	}

	kind := MethodMember
	if m.Name == CtorName {
		kind = CtorMember
	}

	return &MemberRef{
		Kind:    kind,
		Type:    m.DeclaringType,
		Name:    m.Name,
		Params:  params,
		Returns: m.Returns,
		Static:  m.Static,
	}
}

// Listing returns the instructions in listing form, one per line.
func (m *Method) Listing() string {
	var b strings.Builder
	for _, in := range m.Instructions {
		b.WriteString(in.String())
		b.WriteByte('\n')
	}
	return b.String()
}

// Field is a declared field of a type.
type Field struct {
	Name string
	Type string
}

// TypeDecl declares a type defined by a module.
type TypeDecl struct {
	Name   string
	Base   string
	Fields []Field
}

// Module bundles type declarations and method bodies.
type Module struct {
	Name    string
	Entry   string // "Type::Name" of the method run by default
	Types   []TypeDecl
	Methods []*Method
}

// Method returns the first method whose full name is name.
func (m *Module) Method(name string) (*Method, bool) {
	for _, meth := range m.Methods {
		if meth.FullName() == name {
			return meth, true
		}
	}
	return nil, false
}
