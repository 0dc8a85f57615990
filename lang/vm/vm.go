// Package vm implements Objo's stack-based bytecode interpreter: a flat
// value stack doubling as local-variable storage (Crafting-Interpreters
// style), a call-frame stack for return addresses, and a single dispatch
// loop over the opcode.Op instruction set the compiler emits.
package vm

import (
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"

	"github.com/gkjpettet/objo/lang/corelib"
	"github.com/gkjpettet/objo/lang/values"
)

// VM is one Objo execution context: its globals, value stack, call stack,
// and the registry of foreign classes (List, Number, String, ...) every
// program sees without importing anything.
type VM struct {
	// SessionID identifies this VM instance for the lifetime of the process,
	// so a host running several VMs (or restarting one after a hot reload)
	// can tell their RuntimeErrors and breakpoint events apart.
	SessionID string

	Globals map[string]values.Value
	Core    map[string]*values.Klass

	Stdout io.Writer
	Stderr io.Writer

	// MaxCallDepth bounds Objo-level call recursion (each nested call/invoke
	// recurses one Go stack frame deeper via run); left at zero it defaults
	// to DefaultMaxCallDepth the first time Interpret or Call runs.
	MaxCallDepth int

	// MaxSteps bounds the number of instructions a single Interpret/Call may
	// execute, guarding against a runaway `loop`/`while` with no terminating
	// condition; left at zero it defaults to DefaultMaxSteps.
	MaxSteps int64

	// OnBreakpoint, if set, is invoked whenever the running program executes
	// a `breakpoint` statement; the minimal single-step debugger hook.
	OnBreakpoint func(vm *VM)

	// BindForeignClass/BindForeignMethod let an embedding host supply the
	// allocate callback and method bodies a `foreign class`/`foreign method`
	// declared in Objo source needs but doesn't get from compiled bytecode.
	// Consulted when the Class/ForeignMethod opcodes run, before falling
	// back to a same-named class already registered in Core; a method
	// that neither the host nor Core can satisfy raises a runtime error
	// instead of being silently callable as a no-op.
	BindForeignClass  func(name string) (allocate func() any, ok bool)
	BindForeignMethod func(className, sig string, isStatic bool) (fn func(values.VM, values.Value, []values.Value) (values.Value, error), ok bool)

	// Stepping, when true, makes the dispatch loop pause before executing any
	// instruction opcode.Op.StopsDebugger reports true for, the moment it
	// lands on a (scriptID, line) pair different from the last one it
	// stopped at. WillStop is invoked synchronously on the goroutine running
	// Interpret/Call/Run, which then parks until Resume is called from
	// another goroutine — the cooperative single-step debugger Host API.
	Stepping bool

	// WillStop, if set, is called each time Stepping pauses execution at a
	// new source line. It must not call back into the VM (the call stack and
	// stack slots are safe to read via CurrentFrame/Locals/StackTrace while
	// paused, but nothing should be pushed/popped until Resume unblocks it).
	WillStop func(vm *VM, scriptID, line int)

	lastStoppedScriptID int
	lastStoppedLine     int
	resume              chan struct{}

	stack  []values.Value
	frames []*values.CallFrame
	steps  int64
}

// DefaultMaxCallDepth is used when a VM's MaxCallDepth is left at its zero
// value.
const DefaultMaxCallDepth = 1024

// DefaultMaxSteps is used when a VM's MaxSteps is left at its zero value.
const DefaultMaxSteps = 50_000_000

// New returns a VM with the core library registered and bound into globals,
// so top-level Objo code can refer to `Number`, `List`, `Maths`, and so on,
// by name.
func New() *VM {
	vm := &VM{
		SessionID:    uuid.NewString(),
		Globals:      make(map[string]values.Value),
		Stdout:       os.Stdout,
		Stderr:       os.Stderr,
		MaxCallDepth: DefaultMaxCallDepth,
		MaxSteps:     DefaultMaxSteps,
		resume:       make(chan struct{}),
	}
	vm.Core = corelib.Register(stdoutWriter{vm})
	for name, kl := range vm.Core {
		vm.Globals[name] = kl
	}
	return vm
}

// stdoutWriter forwards each write to the VM's Stdout as it is at that
// moment, so a host that replaces Stdout after New still receives
// System.print output.
type stdoutWriter struct{ vm *VM }

func (w stdoutWriter) Write(p []byte) (int, error) { return w.vm.Stdout.Write(p) }

func (vm *VM) push(v values.Value) { vm.stack = append(vm.stack, v) }

func (vm *VM) pop() values.Value {
	v := vm.stack[len(vm.stack)-1]
	vm.stack = vm.stack[:len(vm.stack)-1]
	return v
}

func (vm *VM) peek(offset int) values.Value { return vm.stack[len(vm.stack)-1-offset] }

// Interpret runs a freshly compiled top-level chunk to completion, returning
// the value its implicit final Return leaves on the stack.
func (vm *VM) Interpret(chunk *values.Chunk) (values.Value, error) {
	if vm.MaxCallDepth == 0 {
		vm.MaxCallDepth = DefaultMaxCallDepth
	}
	if vm.MaxSteps == 0 {
		vm.MaxSteps = DefaultMaxSteps
	}
	if len(vm.frames) == 0 {
		vm.steps = 0
	}
	fn := &values.Function{Name: "script", Chunk: chunk, Arity: 0}
	base := len(vm.stack)
	vm.push(values.NothingValue)
	if err := vm.invokeFunction(fn, base, 0); err != nil {
		return nil, err
	}
	return vm.pop(), nil
}

// Run is the entry point a debugger host drives instead of Interpret: it
// executes chunk with Stepping toggled for the duration of the call, so the
// dispatch loop pauses at every new stoppable source line and invokes
// WillStop. A plain (non-debugging) caller should use Interpret instead.
func (vm *VM) Run(chunk *values.Chunk, stepping bool) (values.Value, error) {
	vm.Stepping = stepping
	defer func() { vm.Stepping = false }()
	return vm.Interpret(chunk)
}

// Resume wakes a VM currently parked after calling WillStop, letting it continue
// past the line it paused at. Must be called from a goroutine other than
// the one running Interpret/Call/Run. There is no companion Cancel: the
// debugger model has no suspension points or cancellation channel, so a
// paused run can only be driven forward, never aborted, by design.
func (vm *VM) Resume() { vm.resume <- struct{}{} }

// maybePause is consulted by the dispatch loop once per instruction while
// Stepping is true, before that instruction executes; it blocks until Resume
// is called if the instruction is at a source line the VM hasn't already
// stopped at. Chunks with ScriptID -1 never pause.
func (vm *VM) maybePause(fr *values.CallFrame, opIP int) {
	chunk := fr.Function.Chunk
	scriptID := chunk.ScriptID
	if scriptID == -1 {
		return
	}
	line := chunk.Lines[opIP]
	if scriptID == vm.lastStoppedScriptID && line == vm.lastStoppedLine {
		return
	}
	vm.lastStoppedScriptID = scriptID
	vm.lastStoppedLine = line
	if vm.WillStop != nil {
		vm.WillStop(vm, scriptID, line)
	}
	<-vm.resume
}

// CurrentFrame returns the call frame the VM is paused in, for a debugger
// host to inspect from inside WillStop or after Resume has yet to be
// called; nil if nothing is running.
func (vm *VM) CurrentFrame() *values.CallFrame {
	if len(vm.frames) == 0 {
		return nil
	}
	return vm.frames[len(vm.frames)-1]
}

// Locals returns a snapshot of the current frame's stack slots, starting at
// its reserved receiver/callee slot, for a paused debugger to print.
func (vm *VM) Locals() []values.Value {
	fr := vm.CurrentFrame()
	if fr == nil {
		return nil
	}
	return append([]values.Value(nil), vm.stack[fr.BaseSlot:]...)
}

// StackTrace returns the active call stack, innermost frame first, in the
// same shape a RuntimeError's Trace carries.
func (vm *VM) StackTrace() []Frame {
	trace := make([]Frame, 0, len(vm.frames))
	for i := len(vm.frames) - 1; i >= 0; i-- {
		fr := vm.frames[i]
		line := 0
		if fr.IP-1 >= 0 && fr.Function.Chunk != nil && fr.IP-1 < len(fr.Function.Chunk.Lines) {
			line = fr.Function.Chunk.Lines[fr.IP-1]
		}
		scriptID := -1
		if fr.Function.Chunk != nil {
			scriptID = fr.Function.Chunk.ScriptID
		}
		trace = append(trace, Frame{FunctionName: fr.Function.Name, ScriptID: scriptID, Line: line})
	}
	return trace
}

// Call implements values.VM for foreign methods that need to call back into
// Objo code (e.g. a List.forEach(fn) style callback).
func (vm *VM) Call(callee values.Value, args []values.Value) (values.Value, error) {
	if len(vm.frames) == 0 {
		vm.steps = 0
	}
	base := len(vm.stack)
	vm.push(callee)
	for _, a := range args {
		vm.push(a)
	}
	if err := vm.callValue(callee, len(args)); err != nil {
		return nil, err
	}
	return vm.pop(), nil
}

// RuntimeError implements values.VM, letting a foreign method raise an
// error carrying the same call-stack trace a VM-detected fault would.
func (vm *VM) RuntimeError(format string, args ...any) error {
	return vm.runtimeErrorf(format, args...)
}

func (vm *VM) runtimeErrorf(format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	trace := make([]Frame, 0, len(vm.frames))
	for i := len(vm.frames) - 1; i >= 0; i-- {
		fr := vm.frames[i]
		line := 0
		if fr.IP-1 >= 0 && fr.Function.Chunk != nil && fr.IP-1 < len(fr.Function.Chunk.Lines) {
			line = fr.Function.Chunk.Lines[fr.IP-1]
		}
		scriptID := -1
		if fr.Function.Chunk != nil {
			scriptID = fr.Function.Chunk.ScriptID
		}
		trace = append(trace, Frame{FunctionName: fr.Function.Name, ScriptID: scriptID, Line: line})
	}
	return &RuntimeError{Message: msg, Trace: trace, SessionID: vm.SessionID}
}

// klassOf returns the class that dispatch should resolve signature lookups
// against for v: its own Klass for an Instance, otherwise the corresponding
// builtin wrapper class registered by corelib.
func (vm *VM) klassOf(v values.Value) *values.Klass {
	if inst, ok := v.(*values.Instance); ok {
		return inst.Klass
	}
	switch v.Kind() {
	case values.KindBoolean:
		return vm.Core["Boolean"]
	case values.KindNumber:
		return vm.Core["Number"]
	case values.KindString:
		return vm.Core["String"]
	case values.KindNothing:
		return vm.Core["Nothing"]
	case values.KindClass:
		return vm.Core["Class"]
	case values.KindFunction:
		return vm.Core["Function"]
	case values.KindForeignMethod:
		return vm.Core["ForeignMethod"]
	case values.KindBoundMethod:
		return vm.Core["BoundMethod"]
	default:
		return nil
	}
}

func describeReceiver(receiver values.Value, owner *values.Klass) string {
	if owner != nil {
		return owner.Name
	}
	return receiver.Kind().String()
}

// ---- calling ----

// callValue dispatches the generic Call opcode: callee sits on the stack at
// len(vm.stack)-argCount-1, directly beneath its arguments, and that same
// slot becomes the new frame's reserved slot 0 (the callee itself for a
// plain function call, overwritten with the receiver for a class or bound
// method call).
func (vm *VM) callValue(callee values.Value, argCount int) error {
	base := len(vm.stack) - argCount - 1
	switch c := callee.(type) {
	case *values.Function:
		return vm.invokeFunction(c, base, argCount)
	case *values.Klass:
		return vm.callClass(c, argCount, base)
	case *values.BoundMethod:
		vm.stack[base] = c.Receiver
		switch m := c.Method.(type) {
		case *values.Function:
			return vm.invokeFunction(m, base, argCount)
		case *values.ForeignMethod:
			return vm.callForeign(m, c.Receiver, base, argCount)
		default:
			return vm.runtimeErrorf("internal error: bound method holds a non-callable value")
		}
	case *values.ForeignMethod:
		return vm.runtimeErrorf("cannot call a foreign method directly; it has no receiver")
	default:
		return vm.runtimeErrorf("%s is not callable", callee.Kind())
	}
}

func (vm *VM) callClass(kl *values.Klass, argCount, base int) error {
	inst := values.NewInstance(kl)
	vm.stack[base] = inst

	ctor, ok := kl.FindConstructor(argCount)
	if !ok {
		if argCount == 0 {
			vm.stack = vm.stack[:base]
			vm.push(inst)
			return nil
		}
		return vm.runtimeErrorf("%s has no constructor accepting %d argument(s)", kl.Name, argCount)
	}
	switch c := ctor.(type) {
	case *values.Function:
		return vm.invokeFunction(c, base, argCount)
	case *values.ForeignMethod:
		return vm.callForeign(c, inst, base, argCount)
	default:
		return vm.runtimeErrorf("internal error: constructor table entry is not callable")
	}
}

func (vm *VM) invokeFunction(fn *values.Function, base, argCount int) error {
	if fn.Arity != argCount {
		return vm.runtimeErrorf("%s expects %d argument(s) but got %d", fn.Name, fn.Arity, argCount)
	}
	if len(vm.frames) >= vm.MaxCallDepth {
		return vm.runtimeErrorf("call stack overflow (max depth %d)", vm.MaxCallDepth)
	}
	fr := &values.CallFrame{Function: fn, BaseSlot: base, This: vm.stack[base]}
	vm.frames = append(vm.frames, fr)
	result, err := vm.run(fr)
	vm.frames = vm.frames[:len(vm.frames)-1]
	vm.stack = vm.stack[:base]
	if err != nil {
		return err
	}
	vm.push(result)
	return nil
}

func (vm *VM) callForeign(m *values.ForeignMethod, receiver values.Value, base, argCount int) error {
	if m.Arity != argCount {
		return vm.runtimeErrorf("%s expects %d argument(s) but got %d", m.Name, m.Arity, argCount)
	}
	args := append([]values.Value(nil), vm.stack[base+1:base+1+argCount]...)
	result, err := m.Fn(vm, receiver, args)
	vm.stack = vm.stack[:base]
	if err != nil {
		return err
	}
	vm.push(result)
	return nil
}

// lookupMethod resolves sig against receiver's class: StaticMethods when
// receiver is a Class value (a static/class method call), otherwise
// Methods, in either case walked up the superclass chain.
func (vm *VM) lookupMethod(receiver values.Value, sig string) (values.Value, *values.Klass, bool) {
	if kl, ok := receiver.(*values.Klass); ok {
		m, ok := kl.FindStaticMethod(sig)
		return m, kl, ok
	}
	kl := vm.klassOf(receiver)
	if kl == nil {
		return nil, nil, false
	}
	m, ok := kl.FindMethod(sig)
	return m, kl, ok
}

// invoke dispatches the Invoke/InvokeLong opcodes: receiver and its
// argCount arguments already sit on the stack starting at base, with no
// separate callee slot (the method is found by signature, not by value).
func (vm *VM) invoke(receiver values.Value, sig string, base, argCount int) error {
	method, owner, ok := vm.lookupMethod(receiver, sig)
	if !ok {
		return vm.runtimeErrorf("%s has no method %s", describeReceiver(receiver, owner), sig)
	}
	switch m := method.(type) {
	case *values.Function:
		return vm.invokeFunction(m, base, argCount)
	case *values.ForeignMethod:
		return vm.callForeign(m, receiver, base, argCount)
	default:
		return vm.runtimeErrorf("internal error: method table entry is not callable")
	}
}

// dispatchMethod calls a method/constructor table entry already looked up
// by the caller, pushing receiver and args itself; used where the stack
// isn't already laid out for invoke (e.g. an operator-overload fallback).
func (vm *VM) dispatchMethod(m values.Value, receiver values.Value, args []values.Value) (values.Value, error) {
	base := len(vm.stack)
	vm.push(receiver)
	for _, a := range args {
		vm.push(a)
	}
	switch fn := m.(type) {
	case *values.Function:
		if err := vm.invokeFunction(fn, base, len(args)); err != nil {
			return nil, err
		}
	case *values.ForeignMethod:
		if err := vm.callForeign(fn, receiver, base, len(args)); err != nil {
			return nil, err
		}
	default:
		return nil, vm.runtimeErrorf("internal error: method table entry is not callable")
	}
	return vm.pop(), nil
}
