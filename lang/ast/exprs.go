package ast

import "github.com/gkjpettet/objo/lang/token"

func (*BooleanLit) exprNode()    {}
func (*NumberLit) exprNode()     {}
func (*StringLit) exprNode()     {}
func (*NothingLit) exprNode()    {}
func (*Identifier) exprNode()    {}
func (*FieldExpr) exprNode()     {}
func (*StaticFieldExpr) exprNode() {}
func (*ThisExpr) exprNode()      {}
func (*SuperExpr) exprNode()     {}
func (*BinaryExpr) exprNode()    {}
func (*LogicalExpr) exprNode()   {}
func (*UnaryExpr) exprNode()     {}
func (*RangeExpr) exprNode()     {}
func (*TernaryExpr) exprNode()   {}
func (*AssignExpr) exprNode()    {}
func (*CallExpr) exprNode()      {}
func (*InvokeExpr) exprNode()    {}
func (*ListLit) exprNode()       {}
func (*MapLit) exprNode()        {}
func (*KeyValueExpr) exprNode()  {}
func (*IndexExpr) exprNode()     {}
func (*SetIndexExpr) exprNode()  {}

// BooleanLit is a `true` or `false` literal.
type BooleanLit struct {
	LineNo int
	Value  bool
}

func (n *BooleanLit) Line() int    { return n.LineNo }
func (n *BooleanLit) Walk(Visitor) {}

// NumberLit is an integer or float literal.
type NumberLit struct {
	LineNo    int
	Value     float64
	IsInteger bool
}

func (n *NumberLit) Line() int    { return n.LineNo }
func (n *NumberLit) Walk(Visitor) {}

// StringLit is a string literal, already unescaped.
type StringLit struct {
	LineNo int
	Value  string
}

func (n *StringLit) Line() int    { return n.LineNo }
func (n *StringLit) Walk(Visitor) {}

// NothingLit is the `nothing` literal.
type NothingLit struct{ LineNo int }

func (n *NothingLit) Line() int    { return n.LineNo }
func (n *NothingLit) Walk(Visitor) {}

// Identifier is a bare name reference: a local, a global, or a function
// name; resolved to a slot by the compiler.
type Identifier struct {
	LineNo int
	Name   string
}

func (n *Identifier) Line() int    { return n.LineNo }
func (n *Identifier) Walk(Visitor) {}

// FieldExpr is a `_name` instance field reference, only valid inside a
// method body.
type FieldExpr struct {
	LineNo int
	Name   string
}

func (n *FieldExpr) Line() int    { return n.LineNo }
func (n *FieldExpr) Walk(Visitor) {}

// StaticFieldExpr is a `__name` static field reference.
type StaticFieldExpr struct {
	LineNo int
	Name   string
}

func (n *StaticFieldExpr) Line() int    { return n.LineNo }
func (n *StaticFieldExpr) Walk(Visitor) {}

// ThisExpr is the `this` keyword.
type ThisExpr struct{ LineNo int }

func (n *ThisExpr) Line() int    { return n.LineNo }
func (n *ThisExpr) Walk(Visitor) {}

// SuperExpr is `super.name(...)` or `super.name=` invoked from a method.
type SuperExpr struct {
	LineNo int
	Method string
	Args   []Expr
	IsSet  bool // true for `super.name = value` style setter calls
}

func (n *SuperExpr) Line() int { return n.LineNo }
func (n *SuperExpr) Walk(v Visitor) {
	for _, a := range n.Args {
		Walk(v, a)
	}
}

// BinaryExpr is any non-short-circuiting binary operator expression,
// including comparisons, arithmetic, bitwise and `is`.
type BinaryExpr struct {
	LineNo   int
	Left     Expr
	Operator token.Kind
	Right    Expr
}

func (n *BinaryExpr) Line() int { return n.LineNo }
func (n *BinaryExpr) Walk(v Visitor) {
	Walk(v, n.Left)
	Walk(v, n.Right)
}

// LogicalExpr is `and`, `or` or `xor`. `and`/`or` short-circuit; `xor` does
// not, but is kept separate from BinaryExpr since it is never overloadable.
type LogicalExpr struct {
	LineNo   int
	Left     Expr
	Operator token.Kind
	Right    Expr
}

func (n *LogicalExpr) Line() int { return n.LineNo }
func (n *LogicalExpr) Walk(v Visitor) {
	Walk(v, n.Left)
	Walk(v, n.Right)
}

// UnaryExpr is `-x`, `not x` or `~x`.
type UnaryExpr struct {
	LineNo   int
	Operator token.Kind
	Operand  Expr
}

func (n *UnaryExpr) Line() int { return n.LineNo }
func (n *UnaryExpr) Walk(v Visitor) {
	Walk(v, n.Operand)
}

// RangeExpr is `a...b` (inclusive) or `a..<b` (exclusive).
type RangeExpr struct {
	LineNo    int
	From, To  Expr
	Inclusive bool
}

func (n *RangeExpr) Line() int { return n.LineNo }
func (n *RangeExpr) Walk(v Visitor) {
	Walk(v, n.From)
	Walk(v, n.To)
}

// TernaryExpr is `then thenExpr if condition else elseExpr`; the parser
// accepts only this form, with the leading `then` keyword.
type TernaryExpr struct {
	LineNo    int
	Condition Expr
	Then      Expr
	Else      Expr
}

func (n *TernaryExpr) Line() int { return n.LineNo }
func (n *TernaryExpr) Walk(v Visitor) {
	Walk(v, n.Condition)
	Walk(v, n.Then)
	Walk(v, n.Else)
}

// AssignExpr is `target = value`, `target += value`, etc. Target is
// guaranteed by the parser to be an *Identifier, *FieldExpr,
// *StaticFieldExpr, or *IndexExpr.
type AssignExpr struct {
	LineNo   int
	Target   Expr
	Operator token.Kind // EQ, PLUS_EQ, MINUS_EQ, STAR_EQ, SLASH_EQ
	Value    Expr
}

func (n *AssignExpr) Line() int { return n.LineNo }
func (n *AssignExpr) Walk(v Visitor) {
	Walk(v, n.Target)
	Walk(v, n.Value)
}

// CallExpr is `callee(args...)`.
type CallExpr struct {
	LineNo int
	Callee Expr
	Args   []Expr
}

func (n *CallExpr) Line() int { return n.LineNo }
func (n *CallExpr) Walk(v Visitor) {
	Walk(v, n.Callee)
	for _, a := range n.Args {
		Walk(v, a)
	}
}

// InvokeExpr is `receiver.method(args...)`, compiled to a single invoke
// opcode rather than a get-field followed by a call.
type InvokeExpr struct {
	LineNo    int
	Receiver  Expr
	Method    string
	Args      []Expr
}

func (n *InvokeExpr) Line() int { return n.LineNo }
func (n *InvokeExpr) Walk(v Visitor) {
	Walk(v, n.Receiver)
	for _, a := range n.Args {
		Walk(v, a)
	}
}

// ListLit is `[a, b, c]`.
type ListLit struct {
	LineNo   int
	Elements []Expr
}

func (n *ListLit) Line() int { return n.LineNo }
func (n *ListLit) Walk(v Visitor) {
	for _, e := range n.Elements {
		Walk(v, e)
	}
}

// MapLit is `{k1: v1, k2: v2}`.
type MapLit struct {
	LineNo int
	Pairs  []*KeyValueExpr
}

func (n *MapLit) Line() int { return n.LineNo }
func (n *MapLit) Walk(v Visitor) {
	for _, p := range n.Pairs {
		Walk(v, p)
	}
}

// KeyValueExpr is a single `key: value` pair inside a MapLit.
type KeyValueExpr struct {
	LineNo int
	Key    Expr
	Value  Expr
}

func (n *KeyValueExpr) Line() int { return n.LineNo }
func (n *KeyValueExpr) Walk(v Visitor) {
	Walk(v, n.Key)
	Walk(v, n.Value)
}

// IndexExpr is `collection[indices...]`.
type IndexExpr struct {
	LineNo     int
	Collection Expr
	Indices    []Expr
}

func (n *IndexExpr) Line() int { return n.LineNo }
func (n *IndexExpr) Walk(v Visitor) {
	Walk(v, n.Collection)
	for _, idx := range n.Indices {
		Walk(v, idx)
	}
}

// SetIndexExpr is `collection[indices...] = value`.
type SetIndexExpr struct {
	LineNo     int
	Collection Expr
	Indices    []Expr
	Value      Expr
}

func (n *SetIndexExpr) Line() int { return n.LineNo }
func (n *SetIndexExpr) Walk(v Visitor) {
	Walk(v, n.Collection)
	for _, idx := range n.Indices {
		Walk(v, idx)
	}
	Walk(v, n.Value)
}
