package host

import (
	"fmt"

	"vclr/pkg/interpreter"
	"vclr/pkg/il"
)

// NativeFunc implements a member in Go. recv is Null for static members.
type NativeFunc func(recv interpreter.Value, args []interpreter.Value) (interpreter.Value, error)

// Method is a constructor or method of a Type. Exactly one of Native and
// Body is set.
type Method struct {
	Name    string
	Params  []string
	Returns string
	Static  bool
	Virtual bool
	Native  NativeFunc
	Body    *il.Method
}

// Signature returns the overload key "Name(p1,p2)".
func (m *Method) Signature() string {
	ref := il.MemberRef{Name: m.Name, Params: m.Params}
	return ref.Signature()
}

// Type is a type of the host object model.
type Type struct {
	Name   string
	Base   *Type
	fields map[string]string // name -> type
	order  []string
	ctors  map[string]*Method
	meths  map[string]*Method
}

func newType(name string, base *Type) *Type {
	return &Type{
		Name:   name,
		Base:   base,
		fields: make(map[string]string),
		ctors:  make(map[string]*Method),
		meths:  make(map[string]*Method),
	}
}

// AddField declares an instance field.
func (t *Type) AddField(name, typ string) {
	if _, ok := t.fields[name]; !ok {
		t.order = append(t.order, name)
	}
	t.fields[name] = il.CanonicalType(typ)
}

// AddMethod registers a method or, for ".ctor", a constructor.
func (t *Type) AddMethod(m *Method) {
	if m.Name == il.CtorName {
		t.ctors[m.Signature()] = m
		return
	}
	t.meths[m.Signature()] = m
}

// lookup finds a method on t or its bases.
func (t *Type) lookup(sig string) (*Method, bool) {
	for c := t; c != nil; c = c.Base {
		if m, ok := c.meths[sig]; ok {
			return m, true
		}
	}
	return nil, false
}

// fieldType finds a field on t or its bases.
func (t *Type) fieldType(name string) (string, bool) {
	for c := t; c != nil; c = c.Base {
		if typ, ok := c.fields[name]; ok {
			return typ, true
		}
	}
	return "", false
}

// Is reports whether t is name or derives from it.
func (t *Type) Is(name string) bool {
	for c := t; c != nil; c = c.Base {
		if c.Name == name {
			return true
		}
	}
	return false
}

// Object is an instance handle of the host object model.
type Object struct {
	Type   *Type
	Fields map[string]interpreter.Value
}

func newObject(t *Type) *Object {
	o := &Object{Type: t, Fields: make(map[string]interpreter.Value)}
	for c := t; c != nil; c = c.Base {
		for _, name := range c.order {
			if _, ok := o.Fields[name]; !ok {
				o.Fields[name] = zeroValue(c.fields[name])
			}
		}
	}
	return o
}

// String renders the object the way the default ToString does: its type name.
func (o *Object) String() string {
	return o.Type.Name
}

// Field returns the value of a field.
func (o *Object) Field(name string) (interpreter.Value, bool) {
	v, ok := o.Fields[name]
	return v, ok
}

func zeroValue(typ string) interpreter.Value {
	switch typ {
	case "int32":
		return interpreter.NewInt(0)
	case "bool":
		return interpreter.NewBool(false)
	default:
		return interpreter.Null()
	}
}

// asObject extracts the *Object behind a value.
func asObject(v interpreter.Value) (*Object, error) {
	if v.Kind != interpreter.KindObject {
		return nil, fmt.Errorf("%w: %s is not an object reference", ErrNotInstance, v.Kind)
	}
	o, ok := v.Obj.(*Object)
	if !ok {
		return nil, fmt.Errorf("%w: foreign handle %T", ErrNotInstance, v.Obj)
	}
	return o, nil
}
