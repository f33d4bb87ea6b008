package host

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"vclr/pkg/interpreter"
	"vclr/pkg/il"
)

var (
	ErrTypeNotFound    = errors.New("type not found")
	ErrMemberNotFound  = errors.New("member not found")
	ErrFieldNotFound   = errors.New("field not found")
	ErrArity           = errors.New("argument count mismatch")
	ErrNotInstance     = errors.New("not an instance")
	ErrNullReceiver    = errors.New("null receiver")
	ErrInterpretedCtor = errors.New("constructor has an interpreted body")
	ErrDuplicateType   = errors.New("type already defined")
)

// ObjectType is the root of every type hierarchy.
const ObjectType = "System.Object"

// Registry is the host object model: a set of types with native or
// interpreted members. It implements interpreter.Host and
// interpreter.BodyResolver.
type Registry struct {
	types map[string]*Type
	out   io.Writer
	in    *bufio.Reader
}

var (
	_ interpreter.Host         = (*Registry)(nil)
	_ interpreter.BodyResolver = (*Registry)(nil)
)

type Option func(*Registry)

// WithStdout sets the writer used by System.Console output members
func WithStdout(w io.Writer) Option {
	return func(r *Registry) { r.out = w }
}

// WithStdin sets the reader used by System.Console::ReadLine
func WithStdin(rd io.Reader) Option {
	return func(r *Registry) { r.in = bufio.NewReader(rd) }
}

// NewRegistry creates a registry holding the built-in types.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{types: make(map[string]*Type)}

	for _, o := range opts {
		o(r)
	}

	if r.out == nil {
		r.out = os.Stdout
	}
	if r.in == nil {
		r.in = bufio.NewReader(os.Stdin)
	}

	r.installBuiltins()
	return r
}

// Define adds a new type deriving from base ("" for System.Object).
func (r *Registry) Define(name, base string) (*Type, error) {
	if _, ok := r.types[name]; ok {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateType, name)
	}

	var parent *Type
	if name != ObjectType {
		if base == "" {
			base = ObjectType
		}
		p, ok := r.types[base]
		if !ok {
			return nil, fmt.Errorf("%w: base %s of %s", ErrTypeNotFound, base, name)
		}
		parent = p
	}

	t := newType(name, parent)
	r.types[name] = t
	return t, nil
}

// Type returns the named type.
func (r *Registry) Type(name string) (*Type, bool) {
	t, ok := r.types[name]
	return t, ok
}

// LoadModule declares the module's types and registers its methods as
// interpreted members. Types may be listed in any order relative to their bases.
func (r *Registry) LoadModule(mod *il.Module) error {
	pending := append([]il.TypeDecl(nil), mod.Types...)
	for len(pending) > 0 {
		progress := false
		rest := pending[:0]
		for _, decl := range pending {
			base := decl.Base
			if base == "" {
				base = ObjectType
			}
			if _, ok := r.types[base]; !ok {
				rest = append(rest, decl)
				continue
			}
			t, err := r.Define(decl.Name, base)
			if err != nil {
				return err
			}
			for _, f := range decl.Fields {
				t.AddField(f.Name, f.Type)
			}
			progress = true
		}
		if !progress {
			return fmt.Errorf("%w: base %s of %s", ErrTypeNotFound, rest[0].Base, rest[0].Name)
		}
		pending = rest
	}

	for _, m := range mod.Methods {
		t, ok := r.types[m.DeclaringType]
		if !ok {
			var err error
			if t, err = r.Define(m.DeclaringType, ""); err != nil {
				return err
			}
		}

		params := make([]string, len(m.Params))
		for i, p := range m.Params {
			params[i] = p.Type
		}

		t.AddMethod(&Method{
			Name:    m.Name,
			Params:  params,
			Returns: m.Returns,
			Static:  m.Static,
			Virtual: !m.Static && m.Name != il.CtorName,
			Body:    m,
		})
	}

	return nil
}

// resolve finds the method ref designates. Virtual calls on objects start
// the search at the receiver's runtime type.
func (r *Registry) resolve(ref *il.MemberRef, receiver interpreter.Value, virtual bool) (*Method, error) {
	start, ok := r.types[ref.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTypeNotFound, ref.Type)
	}

	if virtual {
		if obj, err := asObject(receiver); err == nil && obj.Type.Is(ref.Type) {
			start = obj.Type
		}
	}

	sig := ref.Signature()
	if ref.Kind == il.CtorMember {
		m, ok := start.ctors[sig]
		if !ok {
			return nil, fmt.Errorf("%w: %s::%s", ErrMemberNotFound, ref.Type, sig)
		}
		return m, nil
	}

	m, ok := start.lookup(sig)
	if !ok {
		return nil, fmt.Errorf("%w: %s::%s", ErrMemberNotFound, start.Name, sig)
	}
	return m, nil
}

// Body implements interpreter.BodyResolver.
func (r *Registry) Body(ref *il.MemberRef, receiver interpreter.Value, virtual bool) (*il.Method, bool) {
	m, err := r.resolve(ref, receiver, virtual)
	if err != nil || m.Body == nil {
		return nil, false
	}
	return m.Body, true
}

// Allocate implements interpreter.BodyResolver.
func (r *Registry) Allocate(typeName string) (interpreter.Value, error) {
	t, ok := r.types[typeName]
	if !ok {
		return interpreter.Value{}, fmt.Errorf("%w: %s", ErrTypeNotFound, typeName)
	}
	return interpreter.NewObject(newObject(t)), nil
}

// Invoke implements interpreter.Host.
func (r *Registry) Invoke(ref *il.MemberRef, receiver interpreter.Value, args []interpreter.Value, virtual bool) (interpreter.Value, error) {
	m, err := r.resolve(ref, receiver, virtual)
	if err != nil {
		return interpreter.Value{}, err
	}
	if len(args) != len(m.Params) {
		return interpreter.Value{}, fmt.Errorf("%w: %s wants %d, got %d", ErrArity, m.Signature(), len(m.Params), len(args))
	}
	if !m.Static && receiver.IsNull() {
		return interpreter.Value{}, fmt.Errorf("%w: %s", ErrNullReceiver, m.Signature())
	}
	if m.Native == nil {
		return interpreter.Value{}, fmt.Errorf("%w: %s has no native implementation", ErrMemberNotFound, m.Signature())
	}

	return m.Native(receiver, args)
}

// Construct implements interpreter.Host.
func (r *Registry) Construct(ref *il.MemberRef, args []interpreter.Value) (interpreter.Value, error) {
	t, ok := r.types[ref.Type]
	if !ok {
		return interpreter.Value{}, fmt.Errorf("%w: %s", ErrTypeNotFound, ref.Type)
	}

	obj := interpreter.NewObject(newObject(t))

	ctor, ok := t.ctors[ref.Signature()]
	if !ok {
		if len(args) == 0 {
			return obj, nil
		}
		return interpreter.Value{}, fmt.Errorf("%w: %s::%s", ErrMemberNotFound, ref.Type, ref.Signature())
	}
	if ctor.Body != nil {
		return interpreter.Value{}, fmt.Errorf("%w: %s::%s", ErrInterpretedCtor, ref.Type, ref.Signature())
	}
	if len(args) != len(ctor.Params) {
		return interpreter.Value{}, fmt.Errorf("%w: %s wants %d, got %d", ErrArity, ctor.Signature(), len(ctor.Params), len(args))
	}

	if _, err := ctor.Native(obj, args); err != nil {
		return interpreter.Value{}, err
	}
	return obj, nil
}

// SetField implements interpreter.Host.
func (r *Registry) SetField(ref *il.MemberRef, instance interpreter.Value, value interpreter.Value) error {
	if instance.IsNull() {
		return fmt.Errorf("%w: storing %s", ErrNullReceiver, ref.Name)
	}
	obj, err := asObject(instance)
	if err != nil {
		return err
	}
	if _, ok := obj.Type.fieldType(ref.Name); !ok {
		return fmt.Errorf("%w: %s on %s", ErrFieldNotFound, ref.Name, obj.Type.Name)
	}

	obj.Fields[ref.Name] = value
	return nil
}
