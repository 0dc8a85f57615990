package compiler

import (
	"github.com/gkjpettet/objo/lang/ast"
	"github.com/gkjpettet/objo/lang/opcode"
	"github.com/gkjpettet/objo/lang/token"
	"github.com/gkjpettet/objo/lang/values"
)

func (c *compiler) compileExpr(e ast.Expr) {
	switch n := e.(type) {
	case *ast.NumberLit:
		c.emitConstant(values.Number(n.Value), n.Line())
	case *ast.StringLit:
		c.emitConstant(values.String(n.Value), n.Line())
	case *ast.BooleanLit:
		if n.Value {
			c.emit(opcode.PushTrue, n.Line())
		} else {
			c.emit(opcode.PushFalse, n.Line())
		}
	case *ast.NothingLit:
		c.emit(opcode.PushNothing, n.Line())
	case *ast.Identifier:
		c.identifierExpr(n)
	case *ast.FieldExpr:
		c.fieldExpr(n)
	case *ast.StaticFieldExpr:
		c.staticFieldExpr(n)
	case *ast.ThisExpr:
		if c.class == nil {
			c.errorf(n.Line(), "'this' is only valid inside a method")
		}
		c.emitGetLocal(0, n.Line())
	case *ast.SuperExpr:
		c.superExpr(n)
	case *ast.BinaryExpr:
		c.binaryExpr(n)
	case *ast.LogicalExpr:
		c.logicalExpr(n)
	case *ast.UnaryExpr:
		c.unaryExpr(n)
	case *ast.RangeExpr:
		// `a...b` / `a..<b` compile to dedicated opcodes; the VM builds the
		// List of successive values itself, without invoking any method on
		// the left operand.
		c.compileExpr(n.From)
		c.compileExpr(n.To)
		if n.Inclusive {
			c.emit(opcode.RangeInclusive, n.Line())
		} else {
			c.emit(opcode.RangeExclusive, n.Line())
		}
	case *ast.TernaryExpr:
		c.ternaryExpr(n)
	case *ast.AssignExpr:
		c.assignExpr(n)
	case *ast.CallExpr:
		c.compileExpr(n.Callee)
		for _, a := range n.Args {
			c.compileExpr(a)
		}
		c.emit(opcode.Call, n.Line())
		c.emitByte(byte(len(n.Args)), n.Line())
	case *ast.InvokeExpr:
		c.invokeExpr(n)
	case *ast.ListLit:
		for _, el := range n.Elements {
			c.compileExpr(el)
		}
		c.emit(opcode.MakeList, n.Line())
		c.emitByte(byte(len(n.Elements)), n.Line())
	case *ast.MapLit:
		for _, p := range n.Pairs {
			c.compileExpr(p.Key)
			c.compileExpr(p.Value)
		}
		c.emit(opcode.MakeMap, n.Line())
		c.emitByte(byte(len(n.Pairs)), n.Line())
	case *ast.KeyValueExpr:
		c.compileExpr(n.Key)
		c.compileExpr(n.Value)
		c.emit(opcode.MakeKeyValue, n.Line())
	case *ast.IndexExpr:
		// `x[i, ...]` is sugar for invoking the signature "[_,...]" on x.
		c.compileExpr(n.Collection)
		for _, idxExpr := range n.Indices {
			c.compileExpr(idxExpr)
		}
		idx := c.identifierConstant(subscriptGetSignature(len(n.Indices)), n.Line())
		c.emitInvokeSig(idx, len(n.Indices), n.Line())
	case *ast.SetIndexExpr:
		// `x[i, ...] = v` is sugar for invoking "[_,...]=(_)" on x.
		c.compileExpr(n.Collection)
		for _, idxExpr := range n.Indices {
			c.compileExpr(idxExpr)
		}
		c.compileExpr(n.Value)
		idx := c.identifierConstant(subscriptSetSignature(len(n.Indices)), n.Line())
		c.emitInvokeSig(idx, len(n.Indices)+1, n.Line())
	default:
		c.errorf(e.Line(), "internal error: unhandled expression type %T", e)
	}
}

func (c *compiler) identifierExpr(n *ast.Identifier) {
	if slot := c.resolveLocal(n.Name); slot != -1 {
		c.emitGetLocal(slot, n.Line())
		return
	}
	idx := c.identifierConstant(n.Name, n.Line())
	c.emitIndexed(opcode.GetGlobal, opcode.GetGlobalLong, idx, n.Line())
}

func (c *compiler) fieldExpr(n *ast.FieldExpr) {
	if c.class == nil {
		c.errorf(n.Line(), "fields can only be used inside a method")
		return
	}
	idx, ok := c.class.fields[n.Name]
	if !ok {
		c.errorf(n.Line(), "unknown field %q on class %s", n.Name, c.class.name)
		return
	}
	c.emitField(opcode.GetField, idx, n.Line())
}

func (c *compiler) staticFieldExpr(n *ast.StaticFieldExpr) {
	if c.class == nil {
		c.errorf(n.Line(), "static fields can only be used inside a method")
		return
	}
	idx, ok := c.class.static[n.Name]
	if !ok {
		c.errorf(n.Line(), "unknown static field %q on class %s", n.Name, c.class.name)
		return
	}
	c.emitIndexed(opcode.GetStaticField, opcode.GetStaticFieldLong, idx, n.Line())
}

func (c *compiler) superExpr(n *ast.SuperExpr) {
	if c.class == nil || !c.class.hasSuper {
		c.errorf(n.Line(), "'super' can only be used inside a method of a class with a superclass")
	}
	c.emitGetLocal(0, n.Line()) // this, the receiver; the VM finds the superclass via the running method's OwnerClass

	if n.IsSet {
		c.compileExpr(n.Args[0])
		idx := c.identifierConstant(n.Method+"=(_)", n.Line())
		c.emit(opcode.SuperSetter, n.Line())
		c.chunk.WriteUint16(uint16(idx), n.Line())
		return
	}

	for _, a := range n.Args {
		c.compileExpr(a)
	}
	idx := c.identifierConstant(signature(n.Method, len(n.Args)), n.Line())
	c.emit(opcode.SuperInvoke, n.Line())
	c.chunk.WriteUint16(uint16(idx), n.Line())
	c.emitByte(byte(len(n.Args)), n.Line())
}

// subscriptGetSignature/subscriptSetSignature build the signatures `x[i,...]`
// and `x[i,...] = v` desugar to. They don't follow the `name(_,...)` shape
// the signature helper builds for ordinary calls, so they're built directly.
func subscriptGetSignature(arity int) string {
	return "[" + underscoreList(arity) + "]"
}

func subscriptSetSignature(arity int) string {
	return "[" + underscoreList(arity) + "]=(_)"
}

func underscoreList(n int) string {
	s := ""
	for i := 0; i < n; i++ {
		if i > 0 {
			s += ","
		}
		s += "_"
	}
	return s
}

var binaryOps = map[token.Kind]opcode.Op{
	token.PLUS:       opcode.Add,
	token.MINUS:      opcode.Subtract,
	token.STAR:       opcode.Multiply,
	token.SLASH:      opcode.Divide,
	token.PERCENT:    opcode.Modulo,
	token.EQEQ:       opcode.Equal,
	token.NEQ:        opcode.NotEqual,
	token.LT:         opcode.Less,
	token.LE:         opcode.LessEqual,
	token.GT:         opcode.Greater,
	token.GE:         opcode.GreaterEqual,
	token.AMPERSAND:  opcode.BitwiseAnd,
	token.PIPE:       opcode.BitwiseOr,
	token.CIRCUMFLEX: opcode.BitwiseXor,
	token.LTLT:       opcode.ShiftLeft,
	token.GTGT:       opcode.ShiftRight,
}

func (c *compiler) binaryExpr(n *ast.BinaryExpr) {
	c.compileExpr(n.Left)
	c.compileExpr(n.Right)

	if n.Operator == token.IS {
		c.emit(opcode.Is, n.Line())
		return
	}

	op, ok := binaryOps[n.Operator]
	if !ok {
		c.errorf(n.Line(), "internal error: unhandled binary operator %s", n.Operator)
		return
	}
	c.emit(op, n.Line())
}

func (c *compiler) logicalExpr(n *ast.LogicalExpr) {
	switch n.Operator {
	case token.AND:
		c.compileExpr(n.Left)
		endJump := c.emitJump(opcode.JumpIfFalse, n.Line())
		c.emit(opcode.Pop, n.Line())
		c.compileExpr(n.Right)
		c.patchJump(endJump, n.Line())
	case token.OR:
		c.compileExpr(n.Left)
		endJump := c.emitJump(opcode.JumpIfTrue, n.Line())
		c.emit(opcode.Pop, n.Line())
		c.compileExpr(n.Right)
		c.patchJump(endJump, n.Line())
	case token.XOR:
		c.compileExpr(n.Left)
		c.compileExpr(n.Right)
		c.emit(opcode.LogicalXor, n.Line())
	default:
		c.errorf(n.Line(), "internal error: unhandled logical operator %s", n.Operator)
	}
}

func (c *compiler) unaryExpr(n *ast.UnaryExpr) {
	c.compileExpr(n.Operand)
	switch n.Operator {
	case token.MINUS:
		c.emit(opcode.Negate, n.Line())
	case token.BANG, token.NOT:
		c.emit(opcode.Not, n.Line())
	case token.TILDE:
		c.emit(opcode.BitwiseNot, n.Line())
	default:
		c.errorf(n.Line(), "internal error: unhandled unary operator %s", n.Operator)
	}
}

func (c *compiler) ternaryExpr(n *ast.TernaryExpr) {
	c.compileExpr(n.Condition)
	thenJump := c.emitJump(opcode.JumpIfFalse, n.Line())
	c.emit(opcode.Pop, n.Line())
	c.compileExpr(n.Then)
	elseJump := c.emitJump(opcode.Jump, n.Line())
	c.patchJump(thenJump, n.Line())
	c.emit(opcode.Pop, n.Line())
	c.compileExpr(n.Else)
	c.patchJump(elseJump, n.Line())
}

func (c *compiler) invokeExpr(n *ast.InvokeExpr) {
	c.compileExpr(n.Receiver)
	for _, a := range n.Args {
		c.compileExpr(a)
	}
	idx := c.identifierConstant(signature(n.Method, len(n.Args)), n.Line())
	c.emitInvokeSig(idx, len(n.Args), n.Line())
}

func (c *compiler) assignExpr(n *ast.AssignExpr) {
	line := n.Line()

	compound, isCompound := compoundOps[n.Operator]

	switch target := n.Target.(type) {
	case *ast.Identifier:
		slot := c.resolveLocal(target.Name)
		if isCompound {
			if slot != -1 {
				c.emitGetLocal(slot, line)
			} else {
				idx := c.identifierConstant(target.Name, line)
				c.emitIndexed(opcode.GetGlobal, opcode.GetGlobalLong, idx, line)
			}
			c.compileExpr(n.Value)
			c.emit(compound, line)
		} else {
			c.compileExpr(n.Value)
		}
		if slot != -1 {
			c.emitSetLocal(slot, line)
		} else {
			idx := c.identifierConstant(target.Name, line)
			c.emitIndexed(opcode.SetGlobal, opcode.SetGlobalLong, idx, line)
		}
	case *ast.FieldExpr:
		if c.class == nil {
			c.errorf(line, "fields can only be used inside a method")
			return
		}
		idx, ok := c.class.fields[target.Name]
		if !ok {
			c.errorf(line, "unknown field %q on class %s", target.Name, c.class.name)
			return
		}
		if isCompound {
			c.emitField(opcode.GetField, idx, line)
			c.compileExpr(n.Value)
			c.emit(compound, line)
		} else {
			c.compileExpr(n.Value)
		}
		c.emitField(opcode.SetField, idx, line)
	case *ast.StaticFieldExpr:
		if c.class == nil {
			c.errorf(line, "static fields can only be used inside a method")
			return
		}
		idx, ok := c.class.static[target.Name]
		if !ok {
			c.errorf(line, "unknown static field %q on class %s", target.Name, c.class.name)
			return
		}
		if isCompound {
			c.emitIndexed(opcode.GetStaticField, opcode.GetStaticFieldLong, idx, line)
			c.compileExpr(n.Value)
			c.emit(compound, line)
		} else {
			c.compileExpr(n.Value)
		}
		c.emitIndexed(opcode.SetStaticField, opcode.SetStaticFieldLong, idx, line)
	case *ast.IndexExpr:
		// Only reachable for a compound index assignment (`x[i] += v`); plain
		// `x[i] = v` is rewritten by the parser into *ast.SetIndexExpr. There
		// is no stack-duplication opcode, so Collection/Indices are compiled
		// twice (once for the read, once for the write); a subscript target
		// is expected to be side-effect-free.
		if !isCompound {
			c.errorf(line, "invalid assignment target")
			return
		}
		arity := len(target.Indices)
		c.compileExpr(target.Collection)
		for _, idxExpr := range target.Indices {
			c.compileExpr(idxExpr)
		}
		getIdx := c.identifierConstant(subscriptGetSignature(arity), line)
		c.emitInvokeSig(getIdx, arity, line)
		c.compileExpr(n.Value)
		c.emit(compound, line)

		// Stack: newValue. Re-evaluate the target and reorder with Swap so
		// the setter invoke sees (collection, indices..., newValue).
		c.compileExpr(target.Collection)
		c.emit(opcode.Swap, line)
		for _, idxExpr := range target.Indices {
			c.compileExpr(idxExpr)
			c.emit(opcode.Swap, line)
		}
		setIdx := c.identifierConstant(subscriptSetSignature(arity), line)
		c.emitInvokeSig(setIdx, arity+1, line)
	default:
		c.errorf(line, "invalid assignment target")
	}
}

var compoundOps = map[token.Kind]opcode.Op{
	token.PLUS_EQ:  opcode.Add,
	token.MINUS_EQ: opcode.Subtract,
	token.STAR_EQ:  opcode.Multiply,
	token.SLASH_EQ: opcode.Divide,
}
