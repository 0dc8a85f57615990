package token_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gkjpettet/objo/lang/token"
)

func TestLookupKeyword(t *testing.T) {
	cases := []struct {
		lit  string
		want token.Kind
	}{
		{"and", token.AND},
		{"class", token.CLASS},
		{"constructor", token.CONSTRUCTOR},
		{"nothing", token.NOTHING},
		{"while", token.WHILE},
	}
	for _, c := range cases {
		got, ok := token.LookupKeyword(c.lit)
		assert.True(t, ok, c.lit)
		assert.Equal(t, c.want, got)
	}

	_, ok := token.LookupKeyword("notAKeyword")
	assert.False(t, ok)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "class", token.CLASS.String())
	assert.Equal(t, "+", token.PLUS.String())
	assert.Equal(t, "end of file", token.EOF.String())
}

func TestTokenString(t *testing.T) {
	tok := token.Token{Kind: token.IDENT, Lexeme: "foo"}
	assert.Equal(t, "foo", tok.String())

	tok2 := token.Token{Kind: token.EOF}
	assert.Equal(t, "end of file", tok2.String())
}
