package compiler

import (
	"github.com/gkjpettet/objo/lang/ast"
	"github.com/gkjpettet/objo/lang/opcode"
)

// classLayout records the dense field layout computed for a class name at
// compile time, so a subclass compiled later in the same unit (classes must
// be declared before use as a superclass) can continue numbering fields
// after its parent's.
type classLayout struct {
	fieldCount  int
	fieldIndex  map[string]int
	staticIndex map[string]int
}

func (c *compiler) root() *compiler {
	r := c
	for r.enclosing != nil {
		r = r.enclosing
	}
	return r
}

func (c *compiler) classLayouts() map[string]*classLayout {
	r := c.root()
	if r.layouts == nil {
		r.layouts = make(map[string]*classLayout)
	}
	return r.layouts
}

func (c *compiler) classStmt(n *ast.ClassStmt) {
	line := n.Line()

	// The field layout (and therefore fieldCount/firstFieldIndex) must be
	// fully known before the `class` opcode is emitted, since those counts
	// travel as its operands rather than being built up incrementally.
	layout := &classLayout{fieldIndex: map[string]int{}, staticIndex: map[string]int{}}
	if n.Superclass != "" {
		if super, ok := c.classLayouts()[n.Superclass]; ok {
			layout.fieldCount = super.fieldCount
			for k, v := range super.fieldIndex {
				layout.fieldIndex[k] = v
			}
		} else {
			c.errorf(line, "unknown superclass %q: superclasses must be declared before use", n.Superclass)
		}
	}
	firstFieldIndex := layout.fieldCount
	for _, f := range n.Fields {
		layout.fieldIndex[f] = layout.fieldCount
		layout.fieldCount++
	}
	for i, f := range n.StaticFields {
		layout.staticIndex[f] = i
	}
	if layout.fieldCount > 0xFF {
		c.errorf(line, "class %q has too many fields (including inherited fields)", n.Name)
	}

	nameIdx := c.identifierConstant(n.Name, line)
	c.emit(opcode.Class, line)
	c.chunk.WriteUint16(uint16(nameIdx), line)
	c.emitByte(boolByte(n.IsForeign), line)
	c.emitByte(byte(layout.fieldCount), line)
	c.emitByte(byte(firstFieldIndex), line)

	if n.Superclass != "" {
		superIdx := c.identifierConstant(n.Superclass, line)
		c.emitIndexed(opcode.GetGlobal, opcode.GetGlobalLong, superIdx, line)
		c.emit(opcode.Inherit, line)
	}

	// Static fields are addressed by a dense per-class index at runtime;
	// DebugFieldName records each one's name against that index for error
	// messages and the debugger. Instance fields need no such record.
	for _, f := range n.StaticFields {
		idx := c.identifierConstant(f, line)
		c.emit(opcode.DebugFieldName, line)
		c.chunk.WriteUint16(uint16(idx), line)
		c.emitByte(byte(layout.staticIndex[f]), line)
	}

	c.classLayouts()[n.Name] = layout

	cs := &classState{
		enclosing: c.class,
		name:      n.Name,
		hasSuper:  n.Superclass != "",
		fields:    layout.fieldIndex,
		static:    layout.staticIndex,
	}

	for _, m := range n.Methods {
		c.compileMethod(m, cs)
	}
	for _, ctor := range n.Constructors {
		c.compileConstructor(ctor, cs)
	}

	c.declareVariable(n.Name, line)
	c.defineVariable(n.Name, line)
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

func (c *compiler) compileMethod(m *ast.FunctionStmt, cs *classState) {
	sig := signature(m.Name, len(m.Params))
	idx := c.identifierConstant(sig, m.Line())

	// A `foreign class` member has no body: the parser leaves m.Body nil
	// rather than handing us an empty block, so route it to the
	// ForeignMethod opcode (host/core-table dispatch at class-declaration
	// time) instead of compiling a function that would silently return
	// `nothing`.
	if m.Body == nil {
		c.emit(opcode.ForeignMethod, m.Line())
		c.chunk.WriteUint16(uint16(idx), m.Line())
		c.emitByte(byte(len(m.Params)), m.Line())
		c.emitByte(boolByte(m.IsStatic), m.Line())
		return
	}

	saved := c.class
	c.class = cs
	fn := c.compileFunction(m, kindMethod)
	c.class = saved

	c.emitConstant(fn, m.Line())
	c.emit(opcode.Method, m.Line())
	c.chunk.WriteUint16(uint16(idx), m.Line())
	c.emitByte(boolByte(m.IsStatic), m.Line())
}

// compileConstructor compiles a constructor, keyed at runtime by its arity
// rather than a signature: a class exposes at most one constructor per
// argument count.
func (c *compiler) compileConstructor(ctor *ast.FunctionStmt, cs *classState) {
	saved := c.class
	c.class = cs
	fn := c.compileFunction(ctor, kindConstructor)
	c.class = saved

	c.emitConstant(fn, ctor.Line())
	c.emit(opcode.Constructor, ctor.Line())
	c.emitByte(byte(len(ctor.Params)), ctor.Line())
}
