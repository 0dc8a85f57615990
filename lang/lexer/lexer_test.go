package lexer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gkjpettet/objo/lang/lexer"
	"github.com/gkjpettet/objo/lang/token"
)

func kinds(toks []token.Token) []token.Kind {
	out := make([]token.Kind, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

func TestSimpleArithmetic(t *testing.T) {
	toks, err := lexer.Tokenize("1 + 2 * 3", 0)
	require.NoError(t, err)
	assert.Equal(t, []token.Kind{token.INT, token.PLUS, token.INT, token.STAR, token.INT, token.EOF}, kinds(toks))
}

func TestMultiCharOperators(t *testing.T) {
	toks, err := lexer.Tokenize("a == b <> c <= d >= e += f -= g ..< h ... i", 0)
	require.NoError(t, err)
	want := []token.Kind{
		token.IDENT, token.EQEQ, token.IDENT, token.NEQ, token.IDENT, token.LE, token.IDENT,
		token.GE, token.IDENT, token.PLUS_EQ, token.IDENT, token.MINUS_EQ, token.IDENT,
		token.DOTDOT, token.IDENT, token.DOTDOTDOT, token.IDENT, token.EOF,
	}
	assert.Equal(t, want, kinds(toks))
}

func TestIntegerVsFloat(t *testing.T) {
	toks, err := lexer.Tokenize("42 3.14 1_000_000 6.022e23 1e-3 1e5", 0)
	require.NoError(t, err)
	require.Len(t, toks, 7)

	assert.Equal(t, token.INT, toks[0].Kind)
	assert.True(t, toks[0].IsInteger)
	assert.Equal(t, float64(42), toks[0].NumberValue)

	assert.Equal(t, token.FLOAT, toks[1].Kind)
	assert.False(t, toks[1].IsInteger)
	assert.InDelta(t, 3.14, toks[1].NumberValue, 1e-9)

	assert.Equal(t, token.INT, toks[2].Kind)
	assert.Equal(t, float64(1000000), toks[2].NumberValue)

	assert.Equal(t, token.FLOAT, toks[3].Kind)
	assert.InDelta(t, 6.022e23, toks[3].NumberValue, 1e15)

	assert.Equal(t, token.FLOAT, toks[4].Kind)
	assert.InDelta(t, 1e-3, toks[4].NumberValue, 1e-12)

	// A positive exponent keeps the literal an integer (spec.md Rule 1).
	assert.Equal(t, token.INT, toks[5].Kind)
	assert.True(t, toks[5].IsInteger)
	assert.Equal(t, float64(100000), toks[5].NumberValue)
}

func TestHexAndBinaryLiterals(t *testing.T) {
	toks, err := lexer.Tokenize("0xFF 0b1010", 0)
	require.NoError(t, err)
	require.Len(t, toks, 3)
	assert.Equal(t, token.INT, toks[0].Kind)
	assert.Equal(t, float64(255), toks[0].NumberValue)
	assert.Equal(t, token.INT, toks[1].Kind)
	assert.Equal(t, float64(10), toks[1].NumberValue)
}

func TestStringLiteralWithEscapes(t *testing.T) {
	toks, err := lexer.Tokenize(`"hello\nworld" "she said ""hi"""`, 0)
	require.NoError(t, err)
	require.Len(t, toks, 3)
	assert.Equal(t, "hello\nworld", toks[0].Lexeme)
	assert.Equal(t, `she said "hi"`, toks[1].Lexeme)
}

func TestUnterminatedStringIsError(t *testing.T) {
	_, err := lexer.Tokenize(`"unterminated`, 0)
	require.Error(t, err)
}

func TestFieldAndStaticFieldIdentifiers(t *testing.T) {
	toks, err := lexer.Tokenize("_name __count Name x", 0)
	require.NoError(t, err)
	want := []token.Kind{token.FIELD, token.STATIC_FIELD, token.UPPER_IDENT, token.IDENT, token.EOF}
	assert.Equal(t, want, kinds(toks))
}

func TestKeywords(t *testing.T) {
	toks, err := lexer.Tokenize("var class foreign constructor while true false", 0)
	require.NoError(t, err)
	require.Len(t, toks, 8)
	assert.Equal(t, token.VAR, toks[0].Kind)
	assert.Equal(t, token.CLASS, toks[1].Kind)
	assert.Equal(t, token.FOREIGN, toks[2].Kind)
	assert.Equal(t, token.CONSTRUCTOR, toks[3].Kind)
	assert.Equal(t, token.WHILE, toks[4].Kind)
	assert.Equal(t, token.BOOLEAN, toks[5].Kind)
	assert.True(t, toks[5].BoolValue)
	assert.Equal(t, token.BOOLEAN, toks[6].Kind)
	assert.False(t, toks[6].BoolValue)
}

func TestEndOfLineCollapsing(t *testing.T) {
	toks, err := lexer.Tokenize("var x = 1\n\n\nvar y = 2", 0)
	require.NoError(t, err)
	// exactly one ENDOFLINE between the two statements
	var count int
	for _, tk := range toks {
		if tk.Kind == token.ENDOFLINE {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestNewlineSuppressedAfterCommaBraceBracket(t *testing.T) {
	toks, err := lexer.Tokenize("[1,\n2,\n3]", 0)
	require.NoError(t, err)
	for _, tk := range toks {
		assert.NotEqual(t, token.ENDOFLINE, tk.Kind)
	}
}

func TestLineContinuation(t *testing.T) {
	toks, err := lexer.Tokenize("var x = 1 + _\n2", 0)
	require.NoError(t, err)
	var count int
	for _, tk := range toks {
		if tk.Kind == token.ENDOFLINE {
			count++
		}
	}
	assert.Equal(t, 0, count)
}

func TestComments(t *testing.T) {
	toks, err := lexer.Tokenize("1 # this is a comment\n2", 0)
	require.NoError(t, err)
	want := []token.Kind{token.INT, token.ENDOFLINE, token.INT, token.EOF}
	assert.Equal(t, want, kinds(toks))
}

func TestMismatchedBracketIsError(t *testing.T) {
	_, err := lexer.Tokenize("(1, 2]", 0)
	require.Error(t, err)
}

func TestUnexpectedCharacterIsError(t *testing.T) {
	_, err := lexer.Tokenize("1 $ 2", 0)
	require.Error(t, err)
}
