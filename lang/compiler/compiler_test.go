package compiler_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gkjpettet/objo/lang/compiler"
	"github.com/gkjpettet/objo/lang/opcode"
	"github.com/gkjpettet/objo/lang/parser"
)

func compile(t *testing.T, src string) *opsChunk {
	t.Helper()
	chunk, err := parser.Parse(src, 0)
	require.NoError(t, err)
	out, err := compiler.Compile(chunk, 0)
	require.NoError(t, err)
	return &opsChunk{code: out.Code}
}

// opsChunk is a thin helper that decodes the op sequence of a compiled
// chunk, skipping over each opcode's operand bytes, so tests can assert on
// the shape of emitted bytecode without hard-coding byte offsets.
type opsChunk struct{ code []byte }

func (o *opsChunk) ops() []opcode.Op {
	var out []opcode.Op
	for i := 0; i < len(o.code); {
		op := opcode.Op(o.code[i])
		out = append(out, op)
		i += 1 + operandWidth(op)
	}
	return out
}

func operandWidth(op opcode.Op) int {
	switch op {
	case opcode.PopN, opcode.Constant, opcode.GetLocal, opcode.SetLocal,
		opcode.DefineGlobal, opcode.GetGlobal, opcode.SetGlobal,
		opcode.GetField, opcode.SetField, opcode.GetStaticField, opcode.SetStaticField,
		opcode.Call, opcode.MakeList, opcode.MakeMap, opcode.Constructor,
		opcode.GetLocalClass, opcode.SuperConstructor:
		return 1
	case opcode.ConstantLong, opcode.DefineGlobalLong, opcode.GetGlobalLong, opcode.SetGlobalLong,
		opcode.GetStaticFieldLong, opcode.SetStaticFieldLong,
		opcode.Jump, opcode.JumpIfFalse, opcode.JumpIfTrue, opcode.Loop,
		opcode.Invoke, opcode.SuperSetter:
		return 2
	case opcode.InvokeLong, opcode.SuperInvoke, opcode.Method, opcode.DebugFieldName:
		return 3
	case opcode.ForeignMethod:
		return 4
	case opcode.Class:
		return 5
	default:
		return 0
	}
}

func contains(ops []opcode.Op, want opcode.Op) bool {
	for _, op := range ops {
		if op == want {
			return true
		}
	}
	return false
}

func TestCompileArithmeticEmitsExpectedOps(t *testing.T) {
	c := compile(t, "1 + 2 * 3")
	ops := c.ops()
	assert.True(t, contains(ops, opcode.Multiply))
	assert.True(t, contains(ops, opcode.Add))
}

func TestCompileVarDeclarationGlobal(t *testing.T) {
	c := compile(t, "var x = 1")
	assert.True(t, contains(c.ops(), opcode.DefineGlobal))
}

func TestCompileLocalRoundTrip(t *testing.T) {
	c := compile(t, "function f() {\n  var x = 1\n  x = 2\n  return x\n}")
	ops := c.ops()
	assert.True(t, contains(ops, opcode.GetLocal))
	assert.True(t, contains(ops, opcode.SetLocal))
}

func TestCompileAndOrShortCircuit(t *testing.T) {
	c := compile(t, "var x = true and false")
	ops := c.ops()
	assert.True(t, contains(ops, opcode.JumpIfFalse))

	c = compile(t, "var y = true or false")
	ops = c.ops()
	assert.True(t, contains(ops, opcode.JumpIfTrue))
}

func TestCompileXorDoesNotShortCircuit(t *testing.T) {
	c := compile(t, "var x = true xor false")
	assert.True(t, contains(c.ops(), opcode.LogicalXor))
}

func TestCompileWhileLoopEmitsLoop(t *testing.T) {
	c := compile(t, "while true {\n  continue\n}")
	assert.True(t, contains(c.ops(), opcode.Loop))
}

func TestCompileForLoopContinueReachesIncrement(t *testing.T) {
	_, err := parser.Parse("for (var i = 0; i < 10; i = i + 1) {\n  continue\n}", 0)
	require.NoError(t, err)
	c := compile(t, "for (var i = 0; i < 10; i = i + 1) {\n  continue\n}")
	assert.True(t, contains(c.ops(), opcode.Loop))

	// The continue's forward Jump (the only plain Jump here) must land on
	// the increment clause `i = i + 1`, which runs just before the Loop.
	target := -1
	for i := 0; i < len(c.code); i += 1 + operandWidth(opcode.Op(c.code[i])) {
		if opcode.Op(c.code[i]) == opcode.Jump {
			target = i + 3 + (int(c.code[i+1])<<8 | int(c.code[i+2]))
			break
		}
	}
	require.NotEqual(t, -1, target)
	tail := (&opsChunk{code: c.code[target:]}).ops()
	require.GreaterOrEqual(t, len(tail), 6)
	assert.Equal(t, []opcode.Op{opcode.GetLocal, opcode.Constant, opcode.Add, opcode.SetLocal, opcode.Pop, opcode.Loop}, tail[:6])
}

func TestCompileContinueOutsideLoopIsAnError(t *testing.T) {
	chunk, err := parser.Parse("continue", 0)
	require.NoError(t, err)
	_, err = compiler.Compile(chunk, 0)
	require.Error(t, err)
}

func TestCompileClassWithConstructorAndMethod(t *testing.T) {
	src := "class Point {\n" +
		"  _x\n" +
		"  _y\n" +
		"  constructor(_x, _y) {}\n" +
		"  sum() { return _x + _y }\n" +
		"}"
	chunk, err := parser.Parse(src, 0)
	require.NoError(t, err)
	out, err := compiler.Compile(chunk, 0)
	require.NoError(t, err)
	ops := (&opsChunk{code: out.Code}).ops()
	assert.True(t, contains(ops, opcode.Class))
	assert.True(t, contains(ops, opcode.Constructor))
}

func TestCompileForeachUsesIteratorProtocol(t *testing.T) {
	c := compile(t, "foreach x in list {\n  print(x)\n}")
	assert.True(t, contains(c.ops(), opcode.Invoke))
}

func TestCompileTernaryHasNoStrayPops(t *testing.T) {
	c := compile(t, "var x = then 1 if true else 2")
	ops := c.ops()
	assert.True(t, contains(ops, opcode.JumpIfFalse))
	assert.True(t, contains(ops, opcode.Jump))

	// exactly one Pop of the condition on each branch, and no other Pop
	pops := 0
	for _, op := range ops {
		if op == opcode.Pop {
			pops++
		}
	}
	assert.Equal(t, 2, pops)
}

func TestCompileIsOperator(t *testing.T) {
	c := compile(t, "var x = 1 is Number")
	assert.True(t, contains(c.ops(), opcode.Is))
}

func TestCompileCompoundIndexAssignment(t *testing.T) {
	c := compile(t, "list[0] += 1")
	ops := c.ops()
	assert.True(t, contains(ops, opcode.Swap))
	assert.True(t, contains(ops, opcode.Invoke))
	assert.True(t, contains(ops, opcode.Add))
}

func TestCompileSuperclassMustBeDeclaredFirst(t *testing.T) {
	src := "class Derived < Base {\n  f() {}\n}"
	chunk, err := parser.Parse(src, 0)
	require.NoError(t, err)
	_, err = compiler.Compile(chunk, 0)
	require.Error(t, err)
}

func TestCompileMultiIndexSubscript(t *testing.T) {
	c := compile(t, "grid[x, y]")
	assert.True(t, contains(c.ops(), opcode.Invoke))

	c = compile(t, "grid[x, y] = 1")
	assert.True(t, contains(c.ops(), opcode.Invoke))
}

func TestCompileForeignMethodEmitsOpcode(t *testing.T) {
	src := "foreign class Native {\n  run(_)\n}"
	chunk, err := parser.Parse(src, 0)
	require.NoError(t, err)
	out, err := compiler.Compile(chunk, 0)
	require.NoError(t, err)
	ops := (&opsChunk{code: out.Code}).ops()
	assert.True(t, contains(ops, opcode.ForeignMethod))
	assert.False(t, contains(ops, opcode.Method))
}
