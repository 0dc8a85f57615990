package compiler

import (
	"github.com/gkjpettet/objo/lang/ast"
	"github.com/gkjpettet/objo/lang/opcode"
	"github.com/gkjpettet/objo/lang/values"
)

func (c *compiler) compileStmt(s ast.Stmt) {
	switch n := s.(type) {
	case *ast.VarStmt:
		c.varStmt(n)
	case *ast.ExprStmt:
		c.compileExpr(n.Expr)
		c.emit(opcode.Pop, n.Line())
	case *ast.BlockStmt:
		c.beginScope()
		c.compileBlock(n.Body)
		c.endScope(n.Line())
	case *ast.IfStmt:
		c.ifStmt(n)
	case *ast.WhileStmt:
		c.whileStmt(n)
	case *ast.DoUntilStmt:
		c.doUntilStmt(n)
	case *ast.ForStmt:
		c.forStmt(n)
	case *ast.ForEachStmt:
		c.forEachStmt(n)
	case *ast.ReturnStmt:
		c.returnStmt(n)
	case *ast.ExitStmt:
		c.exitStmt(n)
	case *ast.ContinueStmt:
		c.continueStmt(n)
	case *ast.BreakpointStmt:
		c.emit(opcode.Breakpoint, n.Line())
	case *ast.AssertStmt:
		c.compileExpr(n.Condition)
		if n.Message != nil {
			c.compileExpr(n.Message)
		} else {
			c.emitConstant(values.String("assertion failed"), n.Line())
		}
		c.emit(opcode.Assert, n.Line())
	case *ast.SwitchStmt:
		c.switchStmt(n)
	case *ast.FunctionStmt:
		c.functionDeclStmt(n)
	case *ast.ClassStmt:
		c.classStmt(n)
	default:
		c.errorf(s.Line(), "internal error: unhandled statement type %T", s)
	}
}

func (c *compiler) compileBlock(b *ast.Block) {
	for _, s := range b.Stmts {
		c.compileStmt(s)
	}
}

func (c *compiler) varStmt(n *ast.VarStmt) {
	if n.Initialiser != nil {
		c.compileExpr(n.Initialiser)
	} else {
		c.emit(opcode.PushNothing, n.Line())
	}
	c.declareVariable(n.Name, n.Line())
	c.defineVariable(n.Name, n.Line())
}

func (c *compiler) ifStmt(n *ast.IfStmt) {
	c.compileExpr(n.Condition)
	thenJump := c.emitJump(opcode.JumpIfFalse, n.Line())
	c.emit(opcode.Pop, n.Line())

	c.beginScope()
	c.compileBlock(n.Then)
	c.endScope(n.Line())

	elseJump := c.emitJump(opcode.Jump, n.Line())
	c.patchJump(thenJump, n.Line())
	c.emit(opcode.Pop, n.Line())

	if n.Else != nil {
		c.compileStmt(n.Else)
	}
	c.patchJump(elseJump, n.Line())
}

func (c *compiler) whileStmt(n *ast.WhileStmt) {
	start := c.loopStart()
	c.compileExpr(n.Condition)
	exitJump := c.emitJump(opcode.JumpIfFalse, n.Line())
	c.emit(opcode.Pop, n.Line())

	lc := c.pushLoop()
	c.beginScope()
	c.compileBlock(n.Body)
	c.endScope(n.Line())
	c.patchContinues(lc, n.Line())
	c.popLoop()

	c.emitLoop(start, n.Line())
	c.patchJump(exitJump, n.Line())
	c.emit(opcode.Pop, n.Line())
	c.patchExits(lc, n.Line())
}

func (c *compiler) doUntilStmt(n *ast.DoUntilStmt) {
	start := c.loopStart()
	lc := c.pushLoop()
	c.beginScope()
	c.compileBlock(n.Body)
	c.endScope(n.Line())
	c.patchContinues(lc, n.Line())
	c.popLoop()

	c.compileExpr(n.Condition)
	exitJump := c.emitJump(opcode.JumpIfTrue, n.Line())
	c.emit(opcode.Pop, n.Line())
	c.emitLoop(start, n.Line())
	c.patchJump(exitJump, n.Line())
	c.emit(opcode.Pop, n.Line())
	c.patchExits(lc, n.Line())
}

func (c *compiler) forStmt(n *ast.ForStmt) {
	c.beginScope()
	if n.Init != nil {
		c.compileStmt(n.Init)
	}

	start := c.loopStart()
	exitJump := -1
	if n.Condition != nil {
		c.compileExpr(n.Condition)
		exitJump = c.emitJump(opcode.JumpIfFalse, n.Line())
		c.emit(opcode.Pop, n.Line())
	}

	lc := c.pushLoop()
	c.beginScope()
	c.compileBlock(n.Body)
	c.endScope(n.Line())
	c.patchContinues(lc, n.Line())
	c.popLoop()

	if n.Increment != nil {
		c.compileExpr(n.Increment)
		c.emit(opcode.Pop, n.Line())
	}

	c.emitLoop(start, n.Line())
	if exitJump != -1 {
		c.patchJump(exitJump, n.Line())
		c.emit(opcode.Pop, n.Line())
	}
	c.patchExits(lc, n.Line())
	c.endScope(n.Line())
}

// forEachStmt desugars `foreach x in iterable { body }` into the iterator
// protocol every Sequence-capable foreign and Objo class implements:
// `iterate(_)` advances (or begins) iteration given the previous iterator
// value (or `nothing`) and returns the next one, or `false` when done;
// `iteratorValue(_)` maps an iterator value to the element it denotes.
func (c *compiler) forEachStmt(n *ast.ForEachStmt) {
	c.beginScope()

	c.compileExpr(n.Iterable)
	c.addLocal(" seq", n.Line())
	seqSlot := len(c.locals) - 1

	c.emit(opcode.PushNothing, n.Line())
	c.addLocal(" iter", n.Line())
	iterSlot := len(c.locals) - 1

	start := c.loopStart()
	c.emitGetLocal(seqSlot, n.Line())
	c.emitGetLocal(iterSlot, n.Line())
	c.emitInvoke("iterate", 1, n.Line())
	c.emitSetLocal(iterSlot, n.Line())
	exitJump := c.emitJump(opcode.JumpIfFalse, n.Line())
	c.emit(opcode.Pop, n.Line())

	lc := c.pushLoop()
	c.beginScope()
	c.emitGetLocal(seqSlot, n.Line())
	c.emitGetLocal(iterSlot, n.Line())
	c.emitInvoke("iteratorValue", 1, n.Line())
	c.addLocal(n.Identifier, n.Line())

	c.compileBlock(n.Body)
	c.endScope(n.Line())
	c.patchContinues(lc, n.Line())
	c.popLoop()

	c.emitLoop(start, n.Line())
	c.patchJump(exitJump, n.Line())
	c.emit(opcode.Pop, n.Line())
	c.patchExits(lc, n.Line())
	c.endScope(n.Line())
}

func (c *compiler) emitGetLocal(slot int, line int) {
	c.emit(opcode.GetLocal, line)
	c.emitByte(byte(slot), line)
}

func (c *compiler) emitSetLocal(slot int, line int) {
	c.emit(opcode.SetLocal, line)
	c.emitByte(byte(slot), line)
}

func (c *compiler) emitInvoke(name string, arity int, line int) {
	idx := c.identifierConstant(signature(name, arity), line)
	c.emitInvokeSig(idx, arity, line)
}

func (c *compiler) returnStmt(n *ast.ReturnStmt) {
	if c.kind == kindConstructor {
		if n.Value != nil {
			c.errorf(n.Line(), "a constructor cannot return a value")
		}
		c.emitGetLocal(0, n.Line())
		c.emit(opcode.Return, n.Line())
		return
	}
	if n.Value != nil {
		c.compileExpr(n.Value)
	} else {
		c.emit(opcode.PushNothing, n.Line())
	}
	c.emit(opcode.Return, n.Line())
}

// continueStmt emits a forward jump patched by the innermost enclosing
// loop once its "continue point" (its increment clause, for a C-style for
// loop, or simply the end of its body otherwise) is reached.
func (c *compiler) continueStmt(n *ast.ContinueStmt) {
	if len(c.loopStack) == 0 {
		c.errorf(n.Line(), "'continue' outside of a loop")
		return
	}
	lc := c.loopStack[len(c.loopStack)-1]
	j := c.emitJump(opcode.Jump, n.Line())
	lc.continueJumps = append(lc.continueJumps, j)
}

// exitStmt emits a forward jump patched by the innermost enclosing loop to
// its normal exit point, the same target reached when its condition tests
// false (or true, for a do-until).
func (c *compiler) exitStmt(n *ast.ExitStmt) {
	if len(c.loopStack) == 0 {
		c.errorf(n.Line(), "'exit' outside of a loop")
		return
	}
	lc := c.loopStack[len(c.loopStack)-1]
	j := c.emitJump(opcode.Jump, n.Line())
	lc.exitJumps = append(lc.exitJumps, j)
}

func (c *compiler) switchStmt(n *ast.SwitchStmt) {
	c.compileExpr(n.Subject)
	c.addLocal(" switch", n.Line())
	subjectSlot := len(c.locals) - 1

	var endJumps []int
	for _, cs := range n.Cases {
		var matchJumps []int
		for _, val := range cs.Values {
			c.emitGetLocal(subjectSlot, n.Line())
			c.compileExpr(val)
			c.emit(opcode.Equal, n.Line())
			matchJumps = append(matchJumps, c.emitJump(opcode.JumpIfTrue, n.Line()))
			c.emit(opcode.Pop, n.Line())
		}
		skip := c.emitJump(opcode.Jump, n.Line())
		for _, j := range matchJumps {
			c.patchJump(j, n.Line())
			c.emit(opcode.Pop, n.Line())
		}
		c.beginScope()
		c.compileBlock(cs.Body)
		c.endScope(n.Line())
		endJumps = append(endJumps, c.emitJump(opcode.Jump, n.Line()))
		c.patchJump(skip, n.Line())
	}
	if n.Else != nil {
		c.beginScope()
		c.compileBlock(n.Else)
		c.endScope(n.Line())
	}
	for _, j := range endJumps {
		c.patchJump(j, n.Line())
	}
	c.emit(opcode.Pop, n.Line()) // discard subject local's slot value
}

func (c *compiler) functionDeclStmt(n *ast.FunctionStmt) {
	c.declareVariable(n.Name, n.Line())
	fn := c.compileFunction(n, kindFunction)
	c.emitConstant(fn, n.Line())
	c.defineVariable(n.Name, n.Line())
}

// compileFunction compiles a function/method/constructor body in a fresh
// nested compiler sharing this compiler's class state, and returns the
// resulting values.Function ready to be embedded as a constant.
func (c *compiler) compileFunction(n *ast.FunctionStmt, kind funcKind) *values.Function {
	fc := &compiler{enclosing: c, kind: kind, class: c.class, scriptID: c.scriptID}
	fc.chunk = values.NewChunk(n.Name, c.scriptID)
	fc.locals = append(fc.locals, local{name: "this", depth: 0})
	// Parameters and the body's own vars are locals of the function, never
	// globals.
	fc.scopeDepth = 1

	var fieldParams []string
	for _, param := range n.Params {
		fc.addLocal(param.Name, n.Line())
		if param.IsField {
			fieldParams = append(fieldParams, param.Name)
		}
	}

	// `constructor(_x)` shorthand: copy the parameter straight into the
	// same-named instance field before the body runs.
	for i, param := range n.Params {
		if !param.IsField {
			continue
		}
		if kind != kindConstructor {
			fc.errorf(n.Line(), "field parameter %q is only valid in a constructor", param.Name)
			continue
		}
		idx, ok := fc.class.fields[param.Name]
		if !ok {
			fc.errorf(n.Line(), "unknown field %q", param.Name)
			continue
		}
		fc.emitGetLocal(i+1, n.Line()) // the parameter (slot 0 is `this`)
		fc.emit(opcode.SetField, n.Line())
		fc.emitByte(byte(idx), n.Line())
		fc.emit(opcode.Pop, n.Line())
	}

	if n.Body != nil {
		fc.compileBlock(n.Body)
	}

	if kind == kindConstructor {
		fc.emitGetLocal(0, n.Line())
		fc.emit(opcode.Return, n.Line())
	} else {
		fc.emit(opcode.PushNothing, n.Line())
		fc.emit(opcode.Return, n.Line())
	}

	c.errs = append(c.errs, fc.errs...)

	return &values.Function{
		Name:        n.Name,
		Arity:       len(n.Params),
		Chunk:       fc.chunk,
		IsMethod:    kind == kindMethod || kind == kindConstructor,
		FieldParams: fieldParams,
	}
}
