// Package corelib implements Objo's foreign (host-native) standard library:
// the classes every Objo program gets for free without having to compile
// them from source — Object, Nothing, Boolean, Number, String, List, Map,
// KeyValue, Function, Class, Maths, Random and System.
//
// Each class is built directly with values.NewKlass and populated with
// *values.ForeignMethod entries rather than compiled Objo bytecode, mirroring
// how a `foreign class` declaration is expected to be backed by host code.
package corelib

import (
	"fmt"
	"io"
	"math"
	"math/rand"
	"strconv"
	"strings"

	"github.com/gkjpettet/objo/lang/values"
)

// Register builds the full set of foreign classes, writing anything System
// prints to stdout. The returned map is keyed by class name and is also
// suitable for seeding a VM's global scope, so a program can refer to
// `Number`, `List`, `Maths` and so on by name.
func Register(stdout io.Writer) map[string]*values.Klass {
	object := values.NewKlass("Object", nil)
	object.IsForeign = true
	object.Methods.Put("toString()", &values.ForeignMethod{Name: "toString()", Arity: 0, Fn: objectToString})
	object.Methods.Put("==(_)", &values.ForeignMethod{Name: "==(_)", Arity: 1, Fn: objectEquals})
	object.Methods.Put("!=(_)", &values.ForeignMethod{Name: "!=(_)", Arity: 1, Fn: objectNotEquals})

	classes := map[string]*values.Klass{"Object": object}

	mkLeaf := func(name string) *values.Klass {
		k := values.NewKlass(name, object)
		k.IsForeign = true
		classes[name] = k
		return k
	}

	nothing := mkLeaf("Nothing")
	nothing.Methods.Put("toString()", &values.ForeignMethod{Name: "toString()", Arity: 0, Fn: constString("nothing")})

	boolean := mkLeaf("Boolean")
	boolean.Methods.Put("toString()", &values.ForeignMethod{Name: "toString()", Arity: 0, Fn: objectToString})
	boolean.Methods.Put("not()", &values.ForeignMethod{Name: "not()", Arity: 0, Fn: booleanNot})

	number := mkLeaf("Number")
	registerNumber(number)

	str := mkLeaf("String")
	registerString(str)

	list := mkLeaf("List")
	registerList(list)
	listClassCache = list

	mapKlass := mkLeaf("Map")
	keyValue := mkLeaf("KeyValue")
	keyValueClassCache = keyValue
	registerMap(mapKlass)
	registerKeyValue(keyValue)
	mapClassCache = mapKlass

	function := mkLeaf("Function")
	function.Methods.Put("toString()", &values.ForeignMethod{Name: "toString()", Arity: 0, Fn: objectToString})

	class := mkLeaf("Class")
	class.Methods.Put("name()", &values.ForeignMethod{Name: "name()", Arity: 0, Fn: classNameMethod})
	class.Methods.Put("toString()", &values.ForeignMethod{Name: "toString()", Arity: 0, Fn: objectToString})

	foreignMethod := mkLeaf("ForeignMethod")
	boundMethod := mkLeaf("BoundMethod")
	_ = foreignMethod
	_ = boundMethod

	maths := mkLeaf("Maths")
	registerMaths(maths)

	random := mkLeaf("Random")
	registerRandom(random)

	system := mkLeaf("System")
	registerSystem(system, stdout)

	return classes
}

func constString(s string) func(values.VM, values.Value, []values.Value) (values.Value, error) {
	return func(values.VM, values.Value, []values.Value) (values.Value, error) {
		return values.String(s), nil
	}
}

func objectToString(_ values.VM, receiver values.Value, _ []values.Value) (values.Value, error) {
	return values.String(receiver.String()), nil
}

func objectEquals(_ values.VM, receiver values.Value, args []values.Value) (values.Value, error) {
	return values.Boolean(values.Equal(receiver, args[0])), nil
}

func objectNotEquals(_ values.VM, receiver values.Value, args []values.Value) (values.Value, error) {
	return values.Boolean(!values.Equal(receiver, args[0])), nil
}

func booleanNot(_ values.VM, receiver values.Value, _ []values.Value) (values.Value, error) {
	b, ok := receiver.(values.Boolean)
	if !ok {
		return nil, fmt.Errorf("receiver is not a Boolean")
	}
	return values.Boolean(!bool(b)), nil
}

func classNameMethod(_ values.VM, receiver values.Value, _ []values.Value) (values.Value, error) {
	kl, ok := receiver.(*values.Klass)
	if !ok {
		return nil, fmt.Errorf("receiver is not a Class")
	}
	return values.String(kl.Name), nil
}

// ---- Number ----

func registerNumber(k *values.Klass) {
	reg := func(sig string, arity int, fn func(values.VM, values.Value, []values.Value) (values.Value, error)) {
		k.Methods.Put(sig, &values.ForeignMethod{Name: sig, Arity: arity, Fn: fn})
	}
	reg("toString()", 0, objectToString)
	reg("abs()", 0, numberUnary(math.Abs))
	reg("floor()", 0, numberUnary(math.Floor))
	reg("ceil()", 0, numberUnary(math.Ceil))
	reg("round()", 0, numberUnary(math.Round))
	reg("sqrt()", 0, numberUnary(math.Sqrt))
	reg("isInteger()", 0, numberIsInteger)
	reg("sign()", 0, numberSign)
	reg("pow(_)", 1, numberPow)
	reg("min(_)", 1, numberMin)
	reg("max(_)", 1, numberMax)
	reg("sin()", 0, numberUnary(math.Sin))
	reg("cos()", 0, numberUnary(math.Cos))
	reg("tan()", 0, numberUnary(math.Tan))
	reg("asin()", 0, numberUnary(math.Asin))
	reg("acos()", 0, numberUnary(math.Acos))
	reg("atan()", 0, numberUnary(math.Atan))

	k.StaticMethods.Put("fromString(_)", &values.ForeignMethod{Name: "fromString(_)", Arity: 1, Fn: numberFromString})
}

func numberUnary(fn func(float64) float64) func(values.VM, values.Value, []values.Value) (values.Value, error) {
	return func(_ values.VM, receiver values.Value, _ []values.Value) (values.Value, error) {
		n, ok := receiver.(values.Number)
		if !ok {
			return nil, fmt.Errorf("receiver is not a Number")
		}
		return values.Number(fn(float64(n))), nil
	}
}

func numberIsInteger(_ values.VM, receiver values.Value, _ []values.Value) (values.Value, error) {
	n, ok := receiver.(values.Number)
	if !ok {
		return nil, fmt.Errorf("receiver is not a Number")
	}
	f := float64(n)
	return values.Boolean(f == math.Trunc(f)), nil
}

func numberSign(_ values.VM, receiver values.Value, _ []values.Value) (values.Value, error) {
	n, ok := receiver.(values.Number)
	if !ok {
		return nil, fmt.Errorf("receiver is not a Number")
	}
	switch {
	case n > 0:
		return values.Number(1), nil
	case n < 0:
		return values.Number(-1), nil
	default:
		return values.Number(0), nil
	}
}

func numberPow(_ values.VM, receiver values.Value, args []values.Value) (values.Value, error) {
	n, ok := receiver.(values.Number)
	if !ok {
		return nil, fmt.Errorf("receiver is not a Number")
	}
	e, ok := args[0].(values.Number)
	if !ok {
		return nil, fmt.Errorf("argument must be a Number")
	}
	return values.Number(math.Pow(float64(n), float64(e))), nil
}

func numberMin(_ values.VM, receiver values.Value, args []values.Value) (values.Value, error) {
	n, ok := receiver.(values.Number)
	if !ok {
		return nil, fmt.Errorf("receiver is not a Number")
	}
	other, ok := args[0].(values.Number)
	if !ok {
		return nil, fmt.Errorf("argument must be a Number")
	}
	return values.Number(math.Min(float64(n), float64(other))), nil
}

func numberMax(_ values.VM, receiver values.Value, args []values.Value) (values.Value, error) {
	n, ok := receiver.(values.Number)
	if !ok {
		return nil, fmt.Errorf("receiver is not a Number")
	}
	other, ok := args[0].(values.Number)
	if !ok {
		return nil, fmt.Errorf("argument must be a Number")
	}
	return values.Number(math.Max(float64(n), float64(other))), nil
}

func numberFromString(_ values.VM, _ values.Value, args []values.Value) (values.Value, error) {
	s, ok := asString(args[0])
	if !ok {
		return nil, fmt.Errorf("argument must be a String")
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return values.NothingValue, nil
	}
	return values.Number(f), nil
}

// ---- String ----

func registerString(k *values.Klass) {
	reg := func(sig string, arity int, fn func(values.VM, values.Value, []values.Value) (values.Value, error)) {
		k.Methods.Put(sig, &values.ForeignMethod{Name: sig, Arity: arity, Fn: fn})
	}
	reg("toString()", 0, objectToString)
	reg("count()", 0, stringCount)
	reg("[_]", 1, stringIndex)
	reg("toUpper()", 0, stringUnary(strings.ToUpper))
	reg("toLower()", 0, stringUnary(strings.ToLower))
	reg("trim()", 0, stringUnary(strings.TrimSpace))
	reg("contains(_)", 1, stringContains)
	reg("split(_)", 1, stringSplit)
	reg("+(_)", 1, stringConcat)
}

func asString(v values.Value) (string, bool) {
	s, ok := v.(values.String)
	return string(s), ok
}

func stringCount(_ values.VM, receiver values.Value, _ []values.Value) (values.Value, error) {
	s, ok := asString(receiver)
	if !ok {
		return nil, fmt.Errorf("receiver is not a String")
	}
	return values.Number(len([]rune(s))), nil
}

func stringIndex(_ values.VM, receiver values.Value, args []values.Value) (values.Value, error) {
	s, ok := asString(receiver)
	if !ok {
		return nil, fmt.Errorf("receiver is not a String")
	}
	n, ok := args[0].(values.Number)
	if !ok {
		return nil, fmt.Errorf("string index must be a Number")
	}
	runes := []rune(s)
	i := int(n)
	if i < 0 || i >= len(runes) {
		return nil, fmt.Errorf("string index %d out of bounds", i)
	}
	return values.String(string(runes[i])), nil
}

func stringUnary(fn func(string) string) func(values.VM, values.Value, []values.Value) (values.Value, error) {
	return func(_ values.VM, receiver values.Value, _ []values.Value) (values.Value, error) {
		s, ok := asString(receiver)
		if !ok {
			return nil, fmt.Errorf("receiver is not a String")
		}
		return values.String(fn(s)), nil
	}
}

func stringContains(_ values.VM, receiver values.Value, args []values.Value) (values.Value, error) {
	s, ok := asString(receiver)
	if !ok {
		return nil, fmt.Errorf("receiver is not a String")
	}
	sub, ok := asString(args[0])
	if !ok {
		return nil, fmt.Errorf("argument must be a String")
	}
	return values.Boolean(strings.Contains(s, sub)), nil
}

func stringSplit(_ values.VM, receiver values.Value, args []values.Value) (values.Value, error) {
	s, ok := asString(receiver)
	if !ok {
		return nil, fmt.Errorf("receiver is not a String")
	}
	sep, ok := asString(args[0])
	if !ok {
		return nil, fmt.Errorf("argument must be a String")
	}
	parts := strings.Split(s, sep)
	elems := make([]values.Value, len(parts))
	for i, p := range parts {
		elems[i] = values.String(p)
	}
	return NewList(listClassCache, elems), nil
}

func stringConcat(_ values.VM, receiver values.Value, args []values.Value) (values.Value, error) {
	s, ok := asString(receiver)
	if !ok {
		return nil, fmt.Errorf("receiver is not a String")
	}
	other, ok := asString(args[0])
	if !ok {
		return nil, fmt.Errorf("can only concatenate a String with another String")
	}
	return values.String(s + other), nil
}

// ---- Maths ----

func registerMaths(k *values.Klass) {
	reg := func(sig string, arity int, fn func(values.VM, values.Value, []values.Value) (values.Value, error)) {
		k.StaticMethods.Put(sig, &values.ForeignMethod{Name: sig, Arity: arity, Fn: fn})
	}
	reg("pi()", 0, func(values.VM, values.Value, []values.Value) (values.Value, error) { return values.Number(math.Pi), nil })
	reg("e()", 0, func(values.VM, values.Value, []values.Value) (values.Value, error) { return values.Number(math.E), nil })
	reg("sqrt(_)", 1, mathsUnary(math.Sqrt))
	reg("abs(_)", 1, mathsUnary(math.Abs))
	reg("floor(_)", 1, mathsUnary(math.Floor))
	reg("ceil(_)", 1, mathsUnary(math.Ceil))
	reg("round(_)", 1, mathsUnary(math.Round))
	reg("pow(_,_)", 2, mathsPow)
	reg("min(_,_)", 2, mathsBinary(math.Min))
	reg("max(_,_)", 2, mathsBinary(math.Max))
}

func mathsUnary(fn func(float64) float64) func(values.VM, values.Value, []values.Value) (values.Value, error) {
	return func(_ values.VM, _ values.Value, args []values.Value) (values.Value, error) {
		n, ok := args[0].(values.Number)
		if !ok {
			return nil, fmt.Errorf("argument must be a Number")
		}
		return values.Number(fn(float64(n))), nil
	}
}

func mathsBinary(fn func(float64, float64) float64) func(values.VM, values.Value, []values.Value) (values.Value, error) {
	return func(_ values.VM, _ values.Value, args []values.Value) (values.Value, error) {
		a, ok1 := args[0].(values.Number)
		b, ok2 := args[1].(values.Number)
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("arguments must be Numbers")
		}
		return values.Number(fn(float64(a), float64(b))), nil
	}
}

func mathsPow(_ values.VM, _ values.Value, args []values.Value) (values.Value, error) {
	a, ok1 := args[0].(values.Number)
	b, ok2 := args[1].(values.Number)
	if !ok1 || !ok2 {
		return nil, fmt.Errorf("arguments must be Numbers")
	}
	return values.Number(math.Pow(float64(a), float64(b))), nil
}

// ---- Random ----

func registerRandom(k *values.Klass) {
	k.ForeignAllocate = func() any { return rand.New(rand.NewSource(1)) }
	k.Constructors[0] = &values.ForeignMethod{Name: "constructor()", Arity: 0, Fn: func(_ values.VM, receiver values.Value, _ []values.Value) (values.Value, error) {
		return receiver, nil
	}}
	k.Constructors[1] = &values.ForeignMethod{Name: "constructor(_)", Arity: 1, Fn: randomSeedConstructor}
	k.Methods.Put("number()", &values.ForeignMethod{Name: "number()", Arity: 0, Fn: randomNumber})
	k.Methods.Put("inRange(_,_)", &values.ForeignMethod{Name: "inRange(_,_)", Arity: 2, Fn: randomInRange})
	k.Methods.Put("lessThan(_)", &values.ForeignMethod{Name: "lessThan(_)", Arity: 1, Fn: randomLessThan})
}

func randomSeedConstructor(_ values.VM, receiver values.Value, args []values.Value) (values.Value, error) {
	inst, ok := receiver.(*values.Instance)
	if !ok {
		return nil, fmt.Errorf("receiver is not a Random instance")
	}
	seed, ok := args[0].(values.Number)
	if !ok {
		return nil, fmt.Errorf("seed must be a Number")
	}
	inst.ForeignData = rand.New(rand.NewSource(int64(seed)))
	return receiver, nil
}

// randomNumber returns a uniform float in [0, 1).
func randomNumber(_ values.VM, receiver values.Value, _ []values.Value) (values.Value, error) {
	inst, ok := receiver.(*values.Instance)
	if !ok {
		return nil, fmt.Errorf("receiver is not a Random instance")
	}
	r := inst.ForeignData.(*rand.Rand)
	return values.Number(r.Float64()), nil
}

// randomInRange returns a uniform integer in the inclusive range [lo, hi].
func randomInRange(_ values.VM, receiver values.Value, args []values.Value) (values.Value, error) {
	inst, ok := receiver.(*values.Instance)
	if !ok {
		return nil, fmt.Errorf("receiver is not a Random instance")
	}
	lo, ok1 := args[0].(values.Number)
	hi, ok2 := args[1].(values.Number)
	if !ok1 || !ok2 {
		return nil, fmt.Errorf("arguments must be Numbers")
	}
	r := inst.ForeignData.(*rand.Rand)
	span := int64(hi) - int64(lo)
	if span <= 0 {
		return values.Number(lo), nil
	}
	return values.Number(int64(lo) + r.Int63n(span+1)), nil
}

// randomLessThan returns a uniform integer in [0, n).
func randomLessThan(_ values.VM, receiver values.Value, args []values.Value) (values.Value, error) {
	inst, ok := receiver.(*values.Instance)
	if !ok {
		return nil, fmt.Errorf("receiver is not a Random instance")
	}
	n, ok := args[0].(values.Number)
	if !ok {
		return nil, fmt.Errorf("argument must be a Number")
	}
	if n <= 0 {
		return values.Number(0), nil
	}
	r := inst.ForeignData.(*rand.Rand)
	return values.Number(r.Int63n(int64(n))), nil
}

// ---- System ----

func registerSystem(k *values.Klass, stdout io.Writer) {
	k.StaticMethods.Put("print(_)", &values.ForeignMethod{Name: "print(_)", Arity: 1, Fn: func(_ values.VM, _ values.Value, args []values.Value) (values.Value, error) {
		fmt.Fprintln(stdout, args[0].String())
		return values.NothingValue, nil
	}})
	k.StaticMethods.Put("write(_)", &values.ForeignMethod{Name: "write(_)", Arity: 1, Fn: func(_ values.VM, _ values.Value, args []values.Value) (values.Value, error) {
		fmt.Fprint(stdout, args[0].String())
		return values.NothingValue, nil
	}})
}

// listClassCache, mapClassCache and keyValueClassCache let foreign methods
// that need to fabricate a fresh List/Map/KeyValue (e.g. String.split)
// reach the class Register built, without threading a Klass through every
// call signature. Set by Register itself; every Register call overwrites
// them, so when a process builds several registries (one per VM), these
// helpers build their results with the most recently built registry's
// classes.
var (
	listClassCache     *values.Klass
	mapClassCache      *values.Klass
	keyValueClassCache *values.Klass
)
