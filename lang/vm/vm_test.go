package vm_test

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gkjpettet/objo/lang/compiler"
	"github.com/gkjpettet/objo/lang/parser"
	"github.com/gkjpettet/objo/lang/values"
	"github.com/gkjpettet/objo/lang/vm"
)

// run compiles src and interprets it against a fresh VM, returning its
// result value and whatever it wrote to stdout.
func run(t *testing.T, src string) (values.Value, string) {
	t.Helper()
	astChunk, err := parser.Parse(src, 0)
	require.NoError(t, err)
	chunk, err := compiler.Compile(astChunk, 0)
	require.NoError(t, err)

	var stdout bytes.Buffer
	m := vm.New()
	m.Stdout = &stdout

	result, err := m.Interpret(chunk)
	require.NoError(t, err)
	return result, stdout.String()
}

func TestArithmeticPrecedence(t *testing.T) {
	result, _ := run(t, `
		var x = 2 + 3 * 4
		return x
	`)
	assert.Equal(t, values.Number(14), result)
}

func TestStringConcatAndCount(t *testing.T) {
	result, _ := run(t, `
		var s = "foo" + "bar"
		return s.count()
	`)
	assert.Equal(t, values.Number(6), result)
}

func TestPrint(t *testing.T) {
	_, out := run(t, `System.print("hello")`)
	assert.Equal(t, "hello\n", out)
}

func TestFibonacci(t *testing.T) {
	result, _ := run(t, `
		function fib(n) {
			if (n < 2) { return n }
			return fib(n - 1) + fib(n - 2)
		}
		return fib(10)
	`)
	assert.Equal(t, values.Number(55), result)
}

func TestClassConstructorAndGetter(t *testing.T) {
	result, _ := run(t, `
		class Point {
			_x
			_y

			constructor(x, y) {
				_x = x
				_y = y
			}

			x() { return _x }
			y() { return _y }
		}

		var p = Point(3, 4)
		return p.x() + p.y()
	`)
	assert.Equal(t, values.Number(7), result)
}

func TestConstructorFieldShorthand(t *testing.T) {
	result, _ := run(t, `
		class Point {
			_x
			_y

			constructor(_x, _y) {}

			x() { return _x }
			y() { return _y }
		}

		var p = Point(3, 4)
		return p.x() + p.y()
	`)
	assert.Equal(t, values.Number(7), result)
}

func TestForeachOverRange(t *testing.T) {
	result, _ := run(t, `
		var total = 0
		foreach i in 1...5 {
			total = total + i
		}
		return total
	`)
	assert.Equal(t, values.Number(15), result)
}

func TestInheritanceAndSuper(t *testing.T) {
	result, _ := run(t, `
		class Animal {
			speak() { return "quiet" }
		}

		class Dog < Animal {
			speak() { return "woof, " + super.speak() }
		}

		var d = Dog()
		return d.speak()
	`)
	assert.Equal(t, values.String("woof, quiet"), result)
}

func TestListLiteralAndIndexing(t *testing.T) {
	result, _ := run(t, `
		var xs = [10, 20, 30]
		xs.add(40)
		return xs[3]
	`)
	assert.Equal(t, values.Number(40), result)
}

func TestUnknownFieldIsCompileError(t *testing.T) {
	astChunk, err := parser.Parse(`
		class Empty {
			boom() { return _missing }
		}
	`, 0)
	require.NoError(t, err)
	_, err = compiler.Compile(astChunk, 0)
	assert.Error(t, err)
}

func TestRuntimeErrorUndefinedGlobal(t *testing.T) {
	astChunk, err := parser.Parse(`return NotAThing`, 0)
	require.NoError(t, err)
	chunk, err := compiler.Compile(astChunk, 0)
	require.NoError(t, err)

	m := vm.New()
	_, err = m.Interpret(chunk)
	assert.Error(t, err)
}

func TestOperatorOverload(t *testing.T) {
	result, _ := run(t, `
		class Vec {
			_x

			constructor(x) { _x = x }

			+(other) { return Vec(_x + other.x()) }

			x() { return _x }
		}

		var sum = Vec(2) + Vec(3)
		return sum.x()
	`)
	assert.Equal(t, values.Number(5), result)
}

func TestStaticMethodIsInherited(t *testing.T) {
	result, _ := run(t, `
		class Animal {
			static describe() { return "an animal" }
		}

		class Dog < Animal {}

		return Dog.describe()
	`)
	assert.Equal(t, values.String("an animal"), result)
}

func TestUnboundForeignMethodIsRuntimeError(t *testing.T) {
	astChunk, err := parser.Parse(`
		foreign class Native {
			run(_)
		}

		return Native().run(1)
	`, 0)
	require.NoError(t, err)
	chunk, err := compiler.Compile(astChunk, 0)
	require.NoError(t, err)

	m := vm.New()
	_, err = m.Interpret(chunk)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no host implementation")
}

func TestForeignMethodFallsBackToCoreImplementation(t *testing.T) {
	// A foreign class sharing Core's "Maths" name picks up corelib's own
	// Maths.pi implementation when the host supplies no binding.
	result, _ := run(t, `
		foreign class Maths {
			static pi()
		}

		return Maths.pi()
	`)
	assert.Equal(t, values.Number(math.Pi), result)
}

func TestListStandardLibraryMethods(t *testing.T) {
	result, _ := run(t, `
		var xs = [1, 2, 3]
		xs.insert(1, 99)
		xs.swap(0, 3)
		var popped = xs.pop()
		xs.remove(99)
		return xs.indexOf(2).toString() + "," + popped.toString() + "," + xs.count().toString()
	`)
	assert.Equal(t, values.String("1,1,2"), result)
}

func TestListClearCloneAndFilled(t *testing.T) {
	result, _ := run(t, `
		var xs = List.filled(3, 7)
		var ys = xs.clone()
		xs.clear()
		return xs.count().toString() + "," + ys.count().toString() + "," + ys[0].toString()
	`)
	assert.Equal(t, values.String("0,3,7"), result)
}

func TestMapStandardLibraryMethods(t *testing.T) {
	result, _ := run(t, `
		var m = {"a": 1, "b": 2}
		var total = 0
		foreach v in m.values() { total = total + v }
		m.remove("a")
		return m.keys().count().toString() + "," + total.toString()
	`)
	assert.Equal(t, values.String("1,3"), result)
}

func TestNumberStandardLibraryMethods(t *testing.T) {
	result, _ := run(t, `
		return (2).pow(10).toString() + "," + (-3).sign().toString() + "," + _
			(2).min(5).toString() + "," + (2).max(5).toString()
	`)
	assert.Equal(t, values.String("1024,-1,2,5"), result)
}

func TestNumberFromString(t *testing.T) {
	result, _ := run(t, `return Number.fromString("3.5")`)
	assert.Equal(t, values.Number(3.5), result)
}

func TestRandomInRangeStaysInBounds(t *testing.T) {
	result, _ := run(t, `
		var r = Random(1)
		var n = r.inRange(5, 10)
		return n >= 5 and n <= 10
	`)
	assert.Equal(t, values.Boolean(true), result)
}
