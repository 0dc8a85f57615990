package parser

import (
	"github.com/gkjpettet/objo/lang/ast"
	"github.com/gkjpettet/objo/lang/token"
)

// precedence levels, lowest to highest, matching the language's documented
// ladder. Values only need to be ordered relative to one another.
type precedence int

const (
	precNone precedence = iota
	precLowest
	precAssignment
	precConditional
	precLogicalOr
	precLogicalXor
	precLogicalAnd
	precEquality
	precIs
	precComparison
	precBitwiseOr
	precBitwiseXor
	precBitwiseAnd
	precBitwiseShift
	precRange
	precTerm
	precFactor
	precPostfix
	precUnary
	precCall
	precPrimary
)

type prefixParselet func(p *parser) ast.Expr
type infixParselet func(p *parser, left ast.Expr) ast.Expr

type rule struct {
	prefix prefixParselet
	infix  infixParselet
	prec   precedence
}

var rules map[token.Kind]rule

func init() {
	rules = map[token.Kind]rule{
		token.INT:         {prefix: parseNumber},
		token.FLOAT:       {prefix: parseNumber},
		token.STRING:      {prefix: parseString},
		token.BOOLEAN:     {prefix: parseBoolean},
		token.NOTHING:     {prefix: parseNothing},
		token.IDENT:       {prefix: parseIdentifier},
		token.UPPER_IDENT: {prefix: parseIdentifier},
		token.FIELD:       {prefix: parseField},
		token.STATIC_FIELD: {prefix: parseStaticField},
		token.THIS:        {prefix: parseThis},
		token.SUPER:       {prefix: parseSuper},
		token.LPAREN:      {prefix: parseGrouping, infix: parseCall, prec: precCall},
		token.LBRACK:      {prefix: parseListLit, infix: parseIndex, prec: precCall},
		token.LBRACE:      {prefix: parseMapLit},
		token.DOT:         {infix: parseDot, prec: precCall},
		token.MINUS:       {prefix: parseUnary, infix: parseBinary, prec: precTerm},
		token.PLUS:        {infix: parseBinary, prec: precTerm},
		token.STAR:        {infix: parseBinary, prec: precFactor},
		token.SLASH:       {infix: parseBinary, prec: precFactor},
		token.PERCENT:     {infix: parseBinary, prec: precFactor},
		token.BANG:        {prefix: parseUnary},
		token.NOT:         {prefix: parseUnary},
		token.TILDE:       {prefix: parseUnary, infix: nil},
		token.AMPERSAND:   {infix: parseBinary, prec: precBitwiseAnd},
		token.PIPE:        {infix: parseBinary, prec: precBitwiseOr},
		token.CIRCUMFLEX:  {infix: parseBinary, prec: precBitwiseXor},
		token.LTLT:        {infix: parseBinary, prec: precBitwiseShift},
		token.GTGT:        {infix: parseBinary, prec: precBitwiseShift},
		token.EQEQ:        {infix: parseBinary, prec: precEquality},
		token.NEQ:         {infix: parseBinary, prec: precEquality},
		token.IS:          {infix: parseBinary, prec: precIs},
		token.LT:          {infix: parseBinary, prec: precComparison},
		token.GT:          {infix: parseBinary, prec: precComparison},
		token.LE:          {infix: parseBinary, prec: precComparison},
		token.GE:          {infix: parseBinary, prec: precComparison},
		token.AND:         {infix: parseLogical, prec: precLogicalAnd},
		token.OR:          {infix: parseLogical, prec: precLogicalOr},
		token.XOR:         {infix: parseLogical, prec: precLogicalXor},
		token.DOTDOT:      {infix: parseRange, prec: precRange},
		token.DOTDOTDOT:   {infix: parseRange, prec: precRange},
		token.THEN:        {prefix: parseTernary},
		token.EQ:          {infix: parseAssign, prec: precAssignment},
		token.PLUS_EQ:     {infix: parseAssign, prec: precAssignment},
		token.MINUS_EQ:    {infix: parseAssign, prec: precAssignment},
		token.STAR_EQ:     {infix: parseAssign, prec: precAssignment},
		token.SLASH_EQ:    {infix: parseAssign, prec: precAssignment},
	}
}

func getRule(k token.Kind) rule { return rules[k] }
