package interpreter

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

type ValueKind int

const (
	KindNull ValueKind = iota
	KindInt
	KindBool
	KindString
	KindObject
)

func (k ValueKind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindInt:
		return "int32"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindObject:
		return "object"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Value is one runtime value on the evaluation stack or in a slot.
type Value struct {
	Kind ValueKind
	I64  int64
	Bool bool
	Str  string
	Obj  any // host object handle
}

// Null returns the null value, also used for "no result".
func Null() Value { return Value{} }

// NewInt creates an integer Value with int32 semantics.
func NewInt(i int64) Value { return Value{Kind: KindInt, I64: int64(int32(i))} }

// NewBool creates a boolean Value.
func NewBool(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// NewString creates a text Value.
func NewString(s string) Value { return Value{Kind: KindString, Str: s} }

// NewObject wraps a host object handle. A nil handle yields Null.
func NewObject(obj any) Value {
	if obj == nil {
		return Null()
	}
	return Value{Kind: KindObject, Obj: obj}
}

func (v Value) IsNull() bool { return v.Kind == KindNull }

// String renders the value as a string.
func (v Value) String() string {
	switch v.Kind {
	case KindInt:
		return strconv.FormatInt(v.I64, 10)
	case KindBool:
		if v.Bool {
			return "True"
		}
		return "False"
	case KindString:
		return v.Str
	case KindObject:
		if s, ok := v.Obj.(fmt.Stringer); ok {
			return s.String()
		}
		return fmt.Sprintf("%v", v.Obj)
	default:
		return ""
	}
}

// AsInt32 unboxes an integer value. Any other kind is a type mismatch.
func (v Value) AsInt32() (int32, error) {
	if v.Kind != KindInt {
		return 0, fmt.Errorf("%w: expected int32, got %s", ErrTypeMismatch, v.Kind)
	}
	return int32(v.I64), nil
}

// IsNumeric reports whether the value participates in integer conversion.
func (v Value) IsNumeric() bool {
	return v.Kind == KindInt
}

// Truthy is the brtrue condition: boolean true, or a numeric value whose
// integer conversion is non-zero. Null, text and objects are not true.
func (v Value) Truthy() bool {
	switch {
	case v.Kind == KindBool:
		return v.Bool
	case v.IsNumeric():
		return v.I64 != 0
	default:
		return false
	}
}

// Equal is value equality as used by ceq.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}

	switch v.Kind {
	case KindNull:
		return true
	case KindInt:
		return v.I64 == o.I64
	case KindBool:
		return v.Bool == o.Bool
	case KindString:
		return v.Str == o.Str
	case KindObject:
		if v.Obj == nil || o.Obj == nil {
			return v.Obj == o.Obj
		}
		if !reflect.TypeOf(v.Obj).Comparable() || !reflect.TypeOf(o.Obj).Comparable() {
			return false
		}
		return v.Obj == o.Obj
	}

	return false
}

// ConvertTo converts the value to the representation of the named type, the
// way box widens a value before handing it out as an object reference.
func (v Value) ConvertTo(typeName string) (Value, error) {
	switch typeName {
	case "int32", "System.Int32", "int":
		switch v.Kind {
		case KindInt:
			return v, nil
		case KindBool:
			if v.Bool {
				return NewInt(1), nil
			}
			return NewInt(0), nil
		case KindString:
			n, err := strconv.ParseInt(strings.TrimSpace(v.Str), 10, 32)
			if err != nil {
				return Value{}, fmt.Errorf("%w: cannot convert %q to int32", ErrTypeMismatch, v.Str)
			}
			return NewInt(n), nil
		}

	case "bool", "System.Boolean":
		switch v.Kind {
		case KindBool:
			return v, nil
		case KindInt:
			return NewBool(v.I64 != 0), nil
		case KindString:
			b, err := strconv.ParseBool(strings.TrimSpace(v.Str))
			if err != nil {
				return Value{}, fmt.Errorf("%w: cannot convert %q to bool", ErrTypeMismatch, v.Str)
			}
			return NewBool(b), nil
		}

	case "string", "System.String":
		if v.IsNull() {
			return v, nil
		}
		return NewString(v.String()), nil

	default:
		return v, nil
	}

	return Value{}, fmt.Errorf("%w: cannot convert %s to %s", ErrTypeMismatch, v.Kind, typeName)
}
