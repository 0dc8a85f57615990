package parser_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gkjpettet/objo/lang/ast"
	"github.com/gkjpettet/objo/lang/parser"
)

func TestParseArithmeticPrecedence(t *testing.T) {
	chunk, err := parser.Parse("1 + 2 * 3", 0)
	require.NoError(t, err)
	require.Len(t, chunk.Stmts, 1)

	es, ok := chunk.Stmts[0].(*ast.ExprStmt)
	require.True(t, ok)
	bin, ok := es.Expr.(*ast.BinaryExpr)
	require.True(t, ok)

	// '*' binds tighter than '+': top node should be the '+'.
	_, rightIsMul := bin.Right.(*ast.BinaryExpr)
	assert.True(t, rightIsMul)
}

func TestParseVarDeclaration(t *testing.T) {
	chunk, err := parser.Parse("var x = 42", 0)
	require.NoError(t, err)
	require.Len(t, chunk.Stmts, 1)
	v, ok := chunk.Stmts[0].(*ast.VarStmt)
	require.True(t, ok)
	assert.Equal(t, "x", v.Name)
	num, ok := v.Initialiser.(*ast.NumberLit)
	require.True(t, ok)
	assert.Equal(t, float64(42), num.Value)
}

func TestParseIfElse(t *testing.T) {
	src := "if x < 10 {\n  y = 1\n} else {\n  y = 2\n}"
	chunk, err := parser.Parse(src, 0)
	require.NoError(t, err)
	require.Len(t, chunk.Stmts, 1)
	ifs, ok := chunk.Stmts[0].(*ast.IfStmt)
	require.True(t, ok)
	require.NotNil(t, ifs.Else)
}

func TestParseFunctionDeclaration(t *testing.T) {
	chunk, err := parser.Parse("function add(a, b) {\n  return a + b\n}", 0)
	require.NoError(t, err)
	require.Len(t, chunk.Stmts, 1)
	fn, ok := chunk.Stmts[0].(*ast.FunctionStmt)
	require.True(t, ok)
	assert.Equal(t, "add", fn.Name)
	assert.Len(t, fn.Params, 2)
	assert.Equal(t, ast.FuncPlain, fn.Kind)
}

func TestParseClassWithConstructorAndMethod(t *testing.T) {
	src := `class Point {
  _x
  _y

  constructor(_x, _y) {}

  magnitude() {
    return 0
  }
}`
	chunk, err := parser.Parse(src, 0)
	require.NoError(t, err)
	require.Len(t, chunk.Stmts, 1)
	cls, ok := chunk.Stmts[0].(*ast.ClassStmt)
	require.True(t, ok)
	assert.Equal(t, "Point", cls.Name)
	assert.ElementsMatch(t, []string{"_x", "_y"}, cls.Fields)
	require.Len(t, cls.Constructors, 1)
	require.Len(t, cls.Methods, 1)
	assert.Equal(t, "magnitude", cls.Methods[0].Name)
}

func TestParseForeachAndRange(t *testing.T) {
	chunk, err := parser.Parse("foreach i in 0...10 {\n  print(i)\n}", 0)
	require.NoError(t, err)
	require.Len(t, chunk.Stmts, 1)
	fe, ok := chunk.Stmts[0].(*ast.ForEachStmt)
	require.True(t, ok)
	assert.Equal(t, "i", fe.Identifier)
	rng, ok := fe.Iterable.(*ast.RangeExpr)
	require.True(t, ok)
	assert.True(t, rng.Inclusive)
}

func TestParseTernary(t *testing.T) {
	chunk, err := parser.Parse("var x = then 1 if true else 2", 0)
	require.NoError(t, err)
	require.Len(t, chunk.Stmts, 1)
	v := chunk.Stmts[0].(*ast.VarStmt)
	tern, ok := v.Initialiser.(*ast.TernaryExpr)
	require.True(t, ok)
	assert.NotNil(t, tern.Condition)
}

func TestParseListAndMapLiterals(t *testing.T) {
	chunk, err := parser.Parse(`var l = [1, 2, 3]
var m = {"a": 1, "b": 2}`, 0)
	require.NoError(t, err)
	require.Len(t, chunk.Stmts, 2)

	l := chunk.Stmts[0].(*ast.VarStmt).Initialiser.(*ast.ListLit)
	assert.Len(t, l.Elements, 3)

	m := chunk.Stmts[1].(*ast.VarStmt).Initialiser.(*ast.MapLit)
	assert.Len(t, m.Pairs, 2)
}

func TestParseErrorRecoversAtNextStatement(t *testing.T) {
	src := "var = \nvar y = 2"
	chunk, err := parser.Parse(src, 0)
	require.Error(t, err)

	// the statement after the bad one is still parsed
	require.Len(t, chunk.Stmts, 2)
	vs, ok := chunk.Stmts[1].(*ast.VarStmt)
	require.True(t, ok)
	assert.Equal(t, "y", vs.Name)
}

func TestParseMethodInvocation(t *testing.T) {
	chunk, err := parser.Parse(`a.b(1, 2)`, 0)
	require.NoError(t, err)
	es := chunk.Stmts[0].(*ast.ExprStmt)
	inv, ok := es.Expr.(*ast.InvokeExpr)
	require.True(t, ok)
	assert.Equal(t, "b", inv.Method)
	assert.Len(t, inv.Args, 2)
}

func TestParseMultiIndexSubscript(t *testing.T) {
	chunk, err := parser.Parse(`grid[x, y]`, 0)
	require.NoError(t, err)
	es := chunk.Stmts[0].(*ast.ExprStmt)
	idx, ok := es.Expr.(*ast.IndexExpr)
	require.True(t, ok)
	assert.Len(t, idx.Indices, 2)
}

func TestParseMultiIndexSubscriptAssignment(t *testing.T) {
	chunk, err := parser.Parse(`grid[x, y] = 1`, 0)
	require.NoError(t, err)
	es := chunk.Stmts[0].(*ast.ExprStmt)
	set, ok := es.Expr.(*ast.SetIndexExpr)
	require.True(t, ok)
	assert.Len(t, set.Indices, 2)
}
