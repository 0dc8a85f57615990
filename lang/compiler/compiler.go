// Package compiler implements Objo's single-pass AST-to-bytecode compiler:
// one walk over the tree emits directly into a values.Chunk, resolving
// locals, globals and fields as it goes rather than building an
// intermediate control-flow graph.
package compiler

import (
	"github.com/gkjpettet/objo/lang/ast"
	"github.com/gkjpettet/objo/lang/opcode"
	"github.com/gkjpettet/objo/lang/values"
)

// funcKind distinguishes the context a nested compiler is compiling for,
// since the prologue/epilogue and `this`/field resolution differ by kind.
type funcKind int

const (
	kindScript funcKind = iota
	kindFunction
	kindMethod
	kindConstructor
)

type local struct {
	name  string
	depth int
}

// classState tracks the class currently being compiled, for `this`,
// `super`, and field-name resolution; nested (non-method) function literals
// inside a class body do not change classState.
type classState struct {
	enclosing *classState
	name      string
	hasSuper  bool
	fields    map[string]int
	static    map[string]int
}

type compiler struct {
	enclosing *compiler
	kind      funcKind

	chunk *values.Chunk

	locals     []local
	scopeDepth int

	class *classState

	// loopStack tracks the innermost enclosing loops so `continue` can emit a
	// forward jump patched once the loop's "continue point" (its increment
	// clause, or simply its body's end) is known.
	loopStack []*loopCtx

	// layouts memoises each class's compile-time field layout; only ever
	// populated and read on the root (outermost) compiler.
	layouts map[string]*classLayout

	scriptID int
	errs     ErrorList
}

type loopCtx struct {
	continueJumps []int
	exitJumps     []int
}

func (c *compiler) pushLoop() *loopCtx {
	lc := &loopCtx{}
	c.loopStack = append(c.loopStack, lc)
	return lc
}

func (c *compiler) popLoop() {
	c.loopStack = c.loopStack[:len(c.loopStack)-1]
}

// patchContinues patches every pending continue jump in lc to the current
// bytecode position, then clears it.
func (c *compiler) patchContinues(lc *loopCtx, line int) {
	for _, j := range lc.continueJumps {
		c.patchJump(j, line)
	}
	lc.continueJumps = nil
}

// patchExits patches every pending `exit` jump in lc to the current bytecode
// position (the loop's normal exit point), then clears it.
func (c *compiler) patchExits(lc *loopCtx, line int) {
	for _, j := range lc.exitJumps {
		c.patchJump(j, line)
	}
	lc.exitJumps = nil
}

// Compile compiles chunk (as produced by package parser) into an executable
// values.Chunk attributed to scriptID.
func Compile(chunk *ast.Chunk, scriptID int) (*values.Chunk, error) {
	c := &compiler{chunk: values.NewChunk("script", scriptID), kind: kindScript, scriptID: scriptID}
	// slot 0 is always reserved, holding `this`/the running function value.
	c.locals = append(c.locals, local{name: "", depth: 0})

	for _, s := range chunk.Stmts {
		c.compileStmt(s)
	}
	c.emit(opcode.Return, 0)

	if len(c.errs) > 0 {
		c.errs.Sort()
		return c.chunk, c.errs.Err()
	}
	return c.chunk, nil
}

func (c *compiler) errorf(line int, format string, args ...any) {
	c.errs.Add(c.scriptID, line, format, args...)
}

// ---- emission helpers ----

func (c *compiler) emit(op opcode.Op, line int) int { return c.chunk.WriteByte(byte(op), line) }

func (c *compiler) emitByte(b byte, line int) { c.chunk.WriteByte(b, line) }

// emitIndexed emits short if idx fits in a byte, otherwise long with a
// 2-byte big-endian operand.
func (c *compiler) emitIndexed(short, long opcode.Op, idx int, line int) {
	if idx <= 0xFF {
		c.emit(short, line)
		c.emitByte(byte(idx), line)
		return
	}
	c.emit(long, line)
	c.chunk.WriteUint16(uint16(idx), line)
}

// emitInvokeSig emits Invoke (or InvokeLong, if sigIdx doesn't fit a byte)
// followed by the signature's constant index and the argument count.
func (c *compiler) emitInvokeSig(sigIdx, argCount, line int) {
	if sigIdx <= 0xFF {
		c.emit(opcode.Invoke, line)
		c.emitByte(byte(sigIdx), line)
	} else {
		c.emit(opcode.InvokeLong, line)
		c.chunk.WriteUint16(uint16(sigIdx), line)
	}
	c.emitByte(byte(argCount), line)
}

// emitField emits a GetField/SetField instruction; field indices are always
// a single byte (see package opcode's doc).
func (c *compiler) emitField(op opcode.Op, idx, line int) {
	c.emit(op, line)
	c.emitByte(byte(idx), line)
}

func (c *compiler) emitConstant(v values.Value, line int) {
	idx, err := c.chunk.Constants.Add(v)
	if err != nil {
		c.errorf(line, "%s", err)
		return
	}
	c.emitIndexed(opcode.Constant, opcode.ConstantLong, idx, line)
}

// identifierConstant interns name as a string constant, used wherever a
// global/field/method name needs to travel in the constant pool.
func (c *compiler) identifierConstant(name string, line int) int {
	idx, err := c.chunk.Constants.Add(values.String(name))
	if err != nil {
		c.errorf(line, "%s", err)
	}
	return idx
}

func (c *compiler) emitJump(op opcode.Op, line int) int {
	c.emit(op, line)
	start := c.chunk.WriteUint16(0xFFFF, line)
	return start
}

func (c *compiler) patchJump(offset int, line int) {
	dist := len(c.chunk.Code) - (offset + 2)
	if dist > 0xFFFF {
		c.errorf(line, "jump target too far to encode")
		return
	}
	c.chunk.PatchUint16(offset, uint16(dist))
}

func (c *compiler) loopStart() int { return len(c.chunk.Code) }

func (c *compiler) emitLoop(start int, line int) {
	c.emit(opcode.Loop, line)
	dist := len(c.chunk.Code) + 2 - start
	if dist > 0xFFFF {
		c.errorf(line, "loop body too large to encode")
		return
	}
	c.chunk.WriteUint16(uint16(dist), line)
}

// ---- scopes & locals ----

func (c *compiler) beginScope() { c.scopeDepth++ }

func (c *compiler) endScope(line int) {
	c.scopeDepth--
	for len(c.locals) > 0 && c.locals[len(c.locals)-1].depth > c.scopeDepth {
		c.emit(opcode.Pop, line)
		c.locals = c.locals[:len(c.locals)-1]
	}
}

func (c *compiler) addLocal(name string, line int) {
	if len(c.locals) >= 0x100 {
		c.errorf(line, "too many local variables in one function")
		return
	}
	for i := len(c.locals) - 1; i >= 0; i-- {
		if c.locals[i].depth != -1 && c.locals[i].depth < c.scopeDepth {
			break
		}
		if c.locals[i].name == name {
			c.errorf(line, "variable %q already declared in this scope", name)
			return
		}
	}
	c.locals = append(c.locals, local{name: name, depth: c.scopeDepth})
}

func (c *compiler) resolveLocal(name string) int {
	for i := len(c.locals) - 1; i >= 0; i-- {
		if c.locals[i].name == name {
			return i
		}
	}
	return -1
}

// declareVariable binds name as a new local if inside a scope, otherwise it
// is left to defineVariable to emit a DefineGlobal.
func (c *compiler) declareVariable(name string, line int) {
	if c.scopeDepth == 0 {
		return
	}
	c.addLocal(name, line)
}

func (c *compiler) defineVariable(name string, line int) {
	if c.scopeDepth > 0 {
		return
	}
	idx := c.identifierConstant(name, line)
	c.emitIndexed(opcode.DefineGlobal, opcode.DefineGlobalLong, idx, line)
}

// ---- signatures ----

// signature computes the canonical method-table key for a name with arity
// arguments, e.g. signature("add", 2) == "add(_,_)".
func signature(name string, arity int) string {
	if arity == 0 {
		return name + "()"
	}
	s := name + "("
	for i := 0; i < arity; i++ {
		if i > 0 {
			s += ","
		}
		s += "_"
	}
	return s + ")"
}
