package host

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"vclr/pkg/interpreter"
	"vclr/pkg/il"
)

func (r *Registry) installBuiltins() {
	object, _ := r.Define(ObjectType, "")
	object.AddMethod(&Method{Name: il.CtorName, Returns: "void", Native: nothing})
	object.AddMethod(&Method{Name: "ToString", Returns: "string", Virtual: true, Native: toString})

	console, _ := r.Define("System.Console", ObjectType)
	for _, p := range []string{"string", "int32", "bool", "object"} {
		console.AddMethod(&Method{Name: "WriteLine", Params: []string{p}, Returns: "void", Static: true, Native: r.writeLine})
		console.AddMethod(&Method{Name: "Write", Params: []string{p}, Returns: "void", Static: true, Native: r.write})
	}
	console.AddMethod(&Method{Name: "WriteLine", Returns: "void", Static: true, Native: r.writeLine})
	console.AddMethod(&Method{Name: "ReadLine", Returns: "string", Static: true, Native: r.readLine})

	int32Type, _ := r.Define("System.Int32", ObjectType)
	int32Type.AddMethod(&Method{Name: "Parse", Params: []string{"string"}, Returns: "int32", Static: true, Native: parseInt32})

	str, _ := r.Define("System.String", ObjectType)
	str.AddMethod(&Method{Name: "Concat", Params: []string{"object", "object"}, Returns: "string", Static: true, Native: concat})
	str.AddMethod(&Method{Name: "Concat", Params: []string{"string", "string"}, Returns: "string", Static: true, Native: concat})
	str.AddMethod(&Method{Name: "Concat", Params: []string{"string", "string", "string"}, Returns: "string", Static: true, Native: concat})
}

func nothing(interpreter.Value, []interpreter.Value) (interpreter.Value, error) {
	return interpreter.Null(), nil
}

func toString(recv interpreter.Value, _ []interpreter.Value) (interpreter.Value, error) {
	return interpreter.NewString(recv.String()), nil
}

func (r *Registry) writeLine(_ interpreter.Value, args []interpreter.Value) (interpreter.Value, error) {
	var err error
	if len(args) == 0 {
		_, err = io.WriteString(r.out, "\n")
	} else {
		_, err = fmt.Fprintln(r.out, args[0].String())
	}
	return interpreter.Null(), err
}

func (r *Registry) write(_ interpreter.Value, args []interpreter.Value) (interpreter.Value, error) {
	_, err := io.WriteString(r.out, args[0].String())
	return interpreter.Null(), err
}

// readLine returns the next input line without its terminator. End of input
// reads as an empty line.
func (r *Registry) readLine(interpreter.Value, []interpreter.Value) (interpreter.Value, error) {
	line, err := r.in.ReadString('\n')
	if err != nil && line == "" {
		if err == io.EOF {
			return interpreter.NewString(""), nil
		}
		return interpreter.Value{}, err
	}
	return interpreter.NewString(strings.TrimRight(line, "\r\n")), nil
}

func parseInt32(_ interpreter.Value, args []interpreter.Value) (interpreter.Value, error) {
	if args[0].IsNull() {
		return interpreter.Value{}, fmt.Errorf("Int32.Parse: %w", ErrNullReceiver)
	}
	n, err := strconv.ParseInt(strings.TrimSpace(args[0].String()), 10, 32)
	if err != nil {
		return interpreter.Value{}, fmt.Errorf("Int32.Parse: %w", err)
	}
	return interpreter.NewInt(n), nil
}

func concat(_ interpreter.Value, args []interpreter.Value) (interpreter.Value, error) {
	var b strings.Builder
	for _, a := range args {
		b.WriteString(a.String())
	}
	return interpreter.NewString(b.String()), nil
}
