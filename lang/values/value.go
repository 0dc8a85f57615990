// Package values implements Objo's runtime value representation: a closed
// tagged union of nine kinds, plus the supporting types (Chunk,
// ConstantTable, Klass, Instance, Function, CallFrame, BoundMethod,
// ForeignMethod) that the compiler and VM operate on.
package values

import "fmt"

// Kind discriminates the concrete type behind a Value, letting the VM
// branch on a small dense enum instead of a type switch on every hot
// operation.
type Kind uint8

const (
	KindBoolean Kind = iota
	KindNumber
	KindString
	KindInstance
	KindClass
	KindFunction
	KindForeignMethod
	KindBoundMethod
	KindNothing
)

func (k Kind) String() string {
	switch k {
	case KindBoolean:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindInstance:
		return "instance"
	case KindClass:
		return "class"
	case KindFunction:
		return "function"
	case KindForeignMethod:
		return "foreign method"
	case KindBoundMethod:
		return "bound method"
	case KindNothing:
		return "nothing"
	default:
		return "unknown"
	}
}

// Value is any value the VM's stack, locals, fields, or constant pool can
// hold. Exactly the nine concrete types in this package implement it;
// callers should switch on Kind() rather than type-switching, except where
// extracting the payload of a known-kind value.
type Value interface {
	Kind() Kind
	String() string
}

// Boolean is a `true`/`false` value.
type Boolean bool

func (Boolean) Kind() Kind        { return KindBoolean }
func (b Boolean) String() string  { return fmt.Sprintf("%t", bool(b)) }
func (b Boolean) Bool() bool      { return bool(b) }

// Number is Objo's single numeric type (always a float64 internally;
// whether a literal was written as an integer is recorded only on its token
// and AST node, never at the value level).
type Number float64

func (Number) Kind() Kind       { return KindNumber }
func (n Number) String() string { return formatNumber(float64(n)) }
func (n Number) Float() float64 { return float64(n) }

func formatNumber(f float64) string {
	if f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%g", f)
}

// String is an immutable sequence of UTF-8 bytes.
type String string

func (String) Kind() Kind       { return KindString }
func (s String) String() string { return string(s) }

// Nothing is Objo's singleton absence-of-value, comparable to Lua's nil or
// Ruby's nil. There is exactly one Nothing value, NothingValue.
type nothingType struct{}

func (nothingType) Kind() Kind       { return KindNothing }
func (nothingType) String() string   { return "nothing" }

// NothingValue is the single instance of Objo's `nothing` literal.
var NothingValue Value = nothingType{}

// Truthy implements Objo's truthiness rule: everything is truthy except
// `false` and `nothing`.
func Truthy(v Value) bool {
	switch vv := v.(type) {
	case Boolean:
		return bool(vv)
	case nothingType:
		return false
	default:
		return true
	}
}

// Equal implements Objo's `==` for the value kinds that are compared by
// identity/structural equality at the VM level rather than by a user-defined
// `==` method (numbers, strings, booleans, nothing, and same-pointer
// instances/classes/functions).
func Equal(a, b Value) bool {
	if a.Kind() != b.Kind() {
		return false
	}
	switch av := a.(type) {
	case Boolean:
		return av == b.(Boolean)
	case Number:
		return av == b.(Number)
	case String:
		return av == b.(String)
	case nothingType:
		return true
	default:
		return a == b // pointer identity for instances, classes, functions, methods
	}
}
