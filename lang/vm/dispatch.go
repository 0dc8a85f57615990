package vm

import (
	"math"

	"github.com/dustin/go-humanize"

	"github.com/gkjpettet/objo/lang/corelib"
	"github.com/gkjpettet/objo/lang/opcode"
	"github.com/gkjpettet/objo/lang/values"
)

func (vm *VM) readByte(fr *values.CallFrame) byte {
	b := fr.Function.Chunk.Code[fr.IP]
	fr.IP++
	return b
}

func (vm *VM) readUint16(fr *values.CallFrame) uint16 {
	v := fr.Function.Chunk.ReadUint16(fr.IP)
	fr.IP += 2
	return v
}

func (vm *VM) constantAt(fr *values.CallFrame, idx int) values.Value {
	return fr.Function.Chunk.Constants.Get(idx)
}

func (vm *VM) stringConstant(fr *values.CallFrame, idx int) string {
	return string(vm.constantAt(fr, idx).(values.String))
}

// run executes fr's chunk from its current IP to a Return, recursing into
// callValue/invoke for nested calls rather than maintaining an explicit
// frame array, so Go's own call stack backs Objo's.
func (vm *VM) run(fr *values.CallFrame) (values.Value, error) {
	code := fr.Function.Chunk.Code

	for {
		if fr.IP >= len(code) {
			return values.NothingValue, vm.runtimeErrorf("internal error: fell off the end of a chunk")
		}

		vm.steps++
		if vm.steps > vm.MaxSteps {
			return values.NothingValue, vm.runtimeErrorf(
				"step limit exceeded: a single run may not execute more than %s instructions",
				humanize.Comma(vm.MaxSteps))
		}

		opIP := fr.IP
		op := opcode.Op(code[fr.IP])
		fr.IP++

		if vm.Stepping && op.StopsDebugger() {
			vm.maybePause(fr, opIP)
		}

		switch op {
		case opcode.Pop:
			vm.pop()
		case opcode.PopN:
			n := int(vm.readByte(fr))
			vm.stack = vm.stack[:len(vm.stack)-n]
		case opcode.Swap:
			a, b := vm.pop(), vm.pop()
			vm.push(a)
			vm.push(b)
		case opcode.PushNothing:
			vm.push(values.NothingValue)
		case opcode.PushTrue:
			vm.push(values.Boolean(true))
		case opcode.PushFalse:
			vm.push(values.Boolean(false))
		case opcode.LoadMinus2:
			vm.push(values.Number(-2))
		case opcode.LoadMinus1:
			vm.push(values.Number(-1))
		case opcode.Load0:
			vm.push(values.Number(0))
		case opcode.Load1:
			vm.push(values.Number(1))
		case opcode.Load2:
			vm.push(values.Number(2))

		case opcode.Constant:
			vm.push(vm.constantAt(fr, int(vm.readByte(fr))))
		case opcode.ConstantLong:
			vm.push(vm.constantAt(fr, int(vm.readUint16(fr))))

		case opcode.GetLocal:
			slot := int(vm.readByte(fr))
			vm.push(vm.stack[fr.BaseSlot+slot])
		case opcode.SetLocal:
			slot := int(vm.readByte(fr))
			vm.stack[fr.BaseSlot+slot] = vm.peek(0)

		case opcode.DefineGlobal:
			name := vm.stringConstant(fr, int(vm.readByte(fr)))
			vm.Globals[name] = vm.pop()
		case opcode.DefineGlobalLong:
			name := vm.stringConstant(fr, int(vm.readUint16(fr)))
			vm.Globals[name] = vm.pop()
		case opcode.GetGlobal:
			if err := vm.getGlobal(vm.stringConstant(fr, int(vm.readByte(fr)))); err != nil {
				return nil, err
			}
		case opcode.GetGlobalLong:
			if err := vm.getGlobal(vm.stringConstant(fr, int(vm.readUint16(fr)))); err != nil {
				return nil, err
			}
		case opcode.SetGlobal:
			if err := vm.setGlobal(vm.stringConstant(fr, int(vm.readByte(fr)))); err != nil {
				return nil, err
			}
		case opcode.SetGlobalLong:
			if err := vm.setGlobal(vm.stringConstant(fr, int(vm.readUint16(fr)))); err != nil {
				return nil, err
			}

		case opcode.GetField:
			idx := int(vm.readByte(fr))
			inst, ok := fr.This.(*values.Instance)
			if !ok {
				return nil, vm.runtimeErrorf("'this' is not an instance")
			}
			vm.push(inst.GetField(idx))
		case opcode.SetField:
			idx := int(vm.readByte(fr))
			inst, ok := fr.This.(*values.Instance)
			if !ok {
				return nil, vm.runtimeErrorf("'this' is not an instance")
			}
			inst.SetField(idx, vm.peek(0))

		case opcode.GetStaticField:
			if err := vm.getStaticField(fr, int(vm.readByte(fr))); err != nil {
				return nil, err
			}
		case opcode.GetStaticFieldLong:
			if err := vm.getStaticField(fr, int(vm.readUint16(fr))); err != nil {
				return nil, err
			}
		case opcode.SetStaticField:
			if err := vm.setStaticField(fr, int(vm.readByte(fr))); err != nil {
				return nil, err
			}
		case opcode.SetStaticFieldLong:
			if err := vm.setStaticField(fr, int(vm.readUint16(fr))); err != nil {
				return nil, err
			}

		case opcode.Add, opcode.Subtract, opcode.Multiply, opcode.Divide, opcode.Modulo,
			opcode.Equal, opcode.NotEqual, opcode.Less, opcode.LessEqual, opcode.Greater, opcode.GreaterEqual:
			if err := vm.binaryOp(op); err != nil {
				return nil, err
			}
		case opcode.Add1:
			if err := vm.incDecOp("+(_)", 1); err != nil {
				return nil, err
			}
		case opcode.Subtract1:
			if err := vm.incDecOp("-(_)", -1); err != nil {
				return nil, err
			}

		case opcode.BitwiseAnd, opcode.BitwiseOr, opcode.BitwiseXor, opcode.ShiftLeft, opcode.ShiftRight:
			if err := vm.bitwiseOp(op); err != nil {
				return nil, err
			}

		case opcode.Negate:
			n, ok := vm.pop().(values.Number)
			if !ok {
				return nil, vm.runtimeErrorf("operand to unary '-' must be a Number")
			}
			vm.push(-n)
		case opcode.Not:
			vm.push(values.Boolean(!values.Truthy(vm.pop())))
		case opcode.BitwiseNot:
			n, ok := vm.pop().(values.Number)
			if !ok {
				return nil, vm.runtimeErrorf("operand to '~' must be a Number")
			}
			vm.push(values.Number(^int64(n)))
		case opcode.LogicalXor:
			b, a := vm.pop(), vm.pop()
			vm.push(values.Boolean(values.Truthy(a) != values.Truthy(b)))

		case opcode.Is:
			b := vm.pop()
			a := vm.pop()
			bk, ok := b.(*values.Klass)
			if !ok {
				return nil, vm.runtimeErrorf("right-hand side of 'is' must be a class")
			}
			ak := vm.klassOf(a)
			vm.push(values.Boolean(ak != nil && ak.IsSubclassOf(bk)))
		case opcode.RangeExclusive, opcode.RangeInclusive:
			v, err := vm.rangeOp(op)
			if err != nil {
				return nil, err
			}
			vm.push(v)

		case opcode.Jump:
			dist := vm.readUint16(fr)
			fr.IP += int(dist)
		case opcode.JumpIfFalse:
			dist := vm.readUint16(fr)
			if !values.Truthy(vm.peek(0)) {
				fr.IP += int(dist)
			}
		case opcode.JumpIfTrue:
			dist := vm.readUint16(fr)
			if values.Truthy(vm.peek(0)) {
				fr.IP += int(dist)
			}
		case opcode.Loop:
			dist := vm.readUint16(fr)
			fr.IP -= int(dist)

		case opcode.Call:
			argCount := int(vm.readByte(fr))
			callee := vm.peek(argCount)
			if err := vm.callValue(callee, argCount); err != nil {
				return nil, err
			}
		case opcode.Invoke:
			sig := vm.stringConstant(fr, int(vm.readByte(fr)))
			argCount := int(vm.readByte(fr))
			base := len(vm.stack) - argCount - 1
			if err := vm.invoke(vm.stack[base], sig, base, argCount); err != nil {
				return nil, err
			}
		case opcode.InvokeLong:
			sig := vm.stringConstant(fr, int(vm.readUint16(fr)))
			argCount := int(vm.readByte(fr))
			base := len(vm.stack) - argCount - 1
			if err := vm.invoke(vm.stack[base], sig, base, argCount); err != nil {
				return nil, err
			}
		case opcode.SuperConstructor:
			if err := vm.superConstructor(fr, int(vm.readByte(fr))); err != nil {
				return nil, err
			}
		case opcode.SuperInvoke:
			sig := vm.stringConstant(fr, int(vm.readUint16(fr)))
			argCount := int(vm.readByte(fr))
			if err := vm.superInvoke(fr, sig, argCount); err != nil {
				return nil, err
			}
		case opcode.SuperSetter:
			sig := vm.stringConstant(fr, int(vm.readUint16(fr)))
			if err := vm.superInvoke(fr, sig, 1); err != nil {
				return nil, err
			}
		case opcode.Return:
			return vm.pop(), nil

		case opcode.Class:
			nameIdx := int(vm.readUint16(fr))
			isForeign := vm.readByte(fr) != 0
			fieldCount := int(vm.readByte(fr))
			firstFieldIndex := int(vm.readByte(fr))
			name := vm.stringConstant(fr, nameIdx)
			kl := values.NewKlass(name, nil)
			kl.IsForeign = isForeign
			kl.FieldCount = fieldCount
			kl.FirstFieldIndex = firstFieldIndex
			if isForeign {
				if alloc, ok := vm.bindForeignClass(name); ok {
					kl.ForeignAllocate = alloc
				}
			}
			vm.push(kl)
		case opcode.Inherit:
			super, ok := vm.pop().(*values.Klass)
			if !ok {
				return nil, vm.runtimeErrorf("can only inherit from a class")
			}
			vm.peek(0).(*values.Klass).Superclass = super
		case opcode.Method:
			sigIdx := int(vm.readUint16(fr))
			isStatic := vm.readByte(fr) != 0
			fn := vm.pop().(*values.Function)
			kl := vm.peek(0).(*values.Klass)
			fn.OwnerClass = kl
			sig := vm.stringConstant(fr, sigIdx)
			if isStatic {
				kl.StaticMethods.Put(sig, fn)
			} else {
				kl.Methods.Put(sig, fn)
			}
		case opcode.ForeignMethod:
			vm.declareForeignMethodStub(fr)
		case opcode.Constructor:
			argCount := int(vm.readByte(fr))
			fn := vm.pop().(*values.Function)
			kl := vm.peek(0).(*values.Klass)
			fn.OwnerClass = kl
			kl.Constructors[argCount] = fn
		case opcode.DebugFieldName:
			nameIdx := int(vm.readUint16(fr))
			idx := int(vm.readByte(fr))
			kl := vm.peek(0).(*values.Klass)
			kl.SetStaticFieldName(idx, vm.stringConstant(fr, nameIdx))

		case opcode.MakeList:
			n := int(vm.readByte(fr))
			elems := append([]values.Value(nil), vm.stack[len(vm.stack)-n:]...)
			vm.stack = vm.stack[:len(vm.stack)-n]
			vm.push(corelib.NewList(vm.Core["List"], elems))
		case opcode.MakeMap:
			n := int(vm.readByte(fr))
			pairs := append([]values.Value(nil), vm.stack[len(vm.stack)-2*n:]...)
			vm.stack = vm.stack[:len(vm.stack)-2*n]
			vm.push(corelib.NewMap(vm.Core["Map"], pairs))
		case opcode.MakeKeyValue:
			value := vm.pop()
			key := vm.pop()
			vm.push(corelib.NewKeyValue(vm.Core["KeyValue"], key, value))

		case opcode.Assert:
			message := vm.pop()
			cond := vm.pop()
			if !values.Truthy(cond) {
				return nil, vm.runtimeErrorf("%s", message.String())
			}
		case opcode.Breakpoint:
			if vm.OnBreakpoint != nil {
				vm.OnBreakpoint(vm)
			}
		case opcode.Exit:
			return nil, vm.runtimeErrorf("internal error: reached an EXIT instruction (compiler bug)")
		case opcode.GetLocalClass:
			slot := int(vm.readByte(fr))
			kl := vm.klassOf(vm.stack[fr.BaseSlot+slot])
			if kl == nil {
				return nil, vm.runtimeErrorf("value has no class")
			}
			vm.push(kl)

		default:
			return nil, vm.runtimeErrorf("internal error: unimplemented opcode %s", op)
		}
	}
}

func (vm *VM) getGlobal(name string) error {
	v, ok := vm.Globals[name]
	if !ok {
		return vm.runtimeErrorf("undefined global %q", name)
	}
	vm.push(v)
	return nil
}

func (vm *VM) setGlobal(name string) error {
	if _, ok := vm.Globals[name]; !ok {
		return vm.runtimeErrorf("undefined global %q", name)
	}
	vm.Globals[name] = vm.peek(0)
	return nil
}

func (vm *VM) getStaticField(fr *values.CallFrame, idx int) error {
	kl := fr.Function.OwnerClass
	if kl == nil {
		return vm.runtimeErrorf("static fields can only be read inside a method")
	}
	vm.push(kl.GetStaticFieldAt(idx))
	return nil
}

func (vm *VM) setStaticField(fr *values.CallFrame, idx int) error {
	kl := fr.Function.OwnerClass
	if kl == nil {
		return vm.runtimeErrorf("static fields can only be set inside a method")
	}
	kl.SetStaticFieldAt(idx, vm.peek(0))
	return nil
}

// ---- operators ----

var operatorSignatures = map[opcode.Op]string{
	opcode.Add: "+(_)", opcode.Subtract: "-(_)", opcode.Multiply: "*(_)", opcode.Divide: "/(_)", opcode.Modulo: "%(_)",
	opcode.Equal: "==(_)", opcode.NotEqual: "!=(_)",
	opcode.Less: "<(_)", opcode.LessEqual: "<=(_)", opcode.Greater: ">(_)", opcode.GreaterEqual: ">=(_)",
}

func numericBinary(op opcode.Op, a, b values.Number) values.Value {
	switch op {
	case opcode.Add:
		return a + b
	case opcode.Subtract:
		return a - b
	case opcode.Multiply:
		return a * b
	case opcode.Divide:
		return values.Number(float64(a) / float64(b))
	case opcode.Modulo:
		return values.Number(math.Mod(float64(a), float64(b)))
	case opcode.Equal:
		return values.Boolean(a == b)
	case opcode.NotEqual:
		return values.Boolean(a != b)
	case opcode.Less:
		return values.Boolean(a < b)
	case opcode.LessEqual:
		return values.Boolean(a <= b)
	case opcode.Greater:
		return values.Boolean(a > b)
	case opcode.GreaterEqual:
		return values.Boolean(a >= b)
	default:
		return values.NothingValue
	}
}

// binaryOp implements Add/Subtract/.../GreaterEqual: a Number/Number fast
// path, falling back to a signature-based method dispatch on the left
// operand (so a class can overload `+(_)`, `<(_)`, and so on).
func (vm *VM) binaryOp(op opcode.Op) error {
	b := vm.pop()
	a := vm.pop()
	if an, ok := a.(values.Number); ok {
		if bn, ok2 := b.(values.Number); ok2 {
			vm.push(numericBinary(op, an, bn))
			return nil
		}
	}
	result, err := vm.invokeOperator(a, operatorSignatures[op], b)
	if err != nil {
		return err
	}
	vm.push(result)
	return nil
}

// incDecOp implements Add1/Subtract1, the `+ 1`/`- 1` sugar: delta is 1 or
// -1 for the Number fast path, sig is the fallback operator signature.
func (vm *VM) incDecOp(sig string, delta int) error {
	a := vm.pop()
	if an, ok := a.(values.Number); ok {
		vm.push(an + values.Number(delta))
		return nil
	}
	result, err := vm.invokeOperator(a, sig, values.Number(1))
	if err != nil {
		return err
	}
	vm.push(result)
	return nil
}

func (vm *VM) bitwiseOp(op opcode.Op) error {
	b := vm.pop()
	a := vm.pop()
	an, ok1 := a.(values.Number)
	bn, ok2 := b.(values.Number)
	if !ok1 || !ok2 {
		return vm.runtimeErrorf("operands to a bitwise operator must be Numbers")
	}
	ai, bi := int64(an), int64(bn)
	var r int64
	switch op {
	case opcode.BitwiseAnd:
		r = ai & bi
	case opcode.BitwiseOr:
		r = ai | bi
	case opcode.BitwiseXor:
		r = ai ^ bi
	case opcode.ShiftLeft:
		r = ai << uint64(bi)
	case opcode.ShiftRight:
		r = ai >> uint64(bi)
	}
	vm.push(values.Number(r))
	return nil
}

func (vm *VM) rangeOp(op opcode.Op) (values.Value, error) {
	toV := vm.pop()
	fromV := vm.pop()
	from, ok1 := fromV.(values.Number)
	to, ok2 := toV.(values.Number)
	if !ok1 || !ok2 {
		return nil, vm.runtimeErrorf("range bounds must be Numbers")
	}
	lo, hi := int(from), int(to)
	var elems []values.Value
	if op == opcode.RangeInclusive {
		for i := lo; i <= hi; i++ {
			elems = append(elems, values.Number(i))
		}
	} else {
		for i := lo; i < hi; i++ {
			elems = append(elems, values.Number(i))
		}
	}
	return corelib.NewList(vm.Core["List"], elems), nil
}

// invokeOperator resolves sig against receiver's class and calls it with
// args, used for every arithmetic/comparison operator's non-Number
// fallback.
func (vm *VM) invokeOperator(receiver values.Value, sig string, args ...values.Value) (values.Value, error) {
	method, owner, ok := vm.lookupMethod(receiver, sig)
	if !ok {
		return nil, vm.runtimeErrorf("%s has no operator %s", describeReceiver(receiver, owner), sig)
	}
	return vm.dispatchMethod(method, receiver, args)
}

// ---- super ----

func (vm *VM) superInvoke(fr *values.CallFrame, sig string, argCount int) error {
	if fr.Function.OwnerClass == nil || fr.Function.OwnerClass.Superclass == nil {
		return vm.runtimeErrorf("'super' used outside a subclass method")
	}
	super := fr.Function.OwnerClass.Superclass
	method, ok := super.FindMethod(sig)
	if !ok {
		return vm.runtimeErrorf("%s has no method %s", super.Name, sig)
	}
	base := len(vm.stack) - argCount - 1
	switch m := method.(type) {
	case *values.Function:
		return vm.invokeFunction(m, base, argCount)
	case *values.ForeignMethod:
		return vm.callForeign(m, vm.stack[base], base, argCount)
	default:
		return vm.runtimeErrorf("internal error: method table entry is not callable")
	}
}

// superConstructor implements the (currently unreachable from the compiler)
// bare `super(...)` constructor-chaining call: no surface syntax emits this
// opcode today, but dispatch is wired for forward compatibility.
func (vm *VM) superConstructor(fr *values.CallFrame, argCount int) error {
	if fr.Function.OwnerClass == nil || fr.Function.OwnerClass.Superclass == nil {
		return vm.runtimeErrorf("'super' used outside a subclass")
	}
	super := fr.Function.OwnerClass.Superclass
	ctor, ok := super.FindConstructor(argCount)
	if !ok {
		return vm.runtimeErrorf("%s has no constructor accepting %d argument(s)", super.Name, argCount)
	}
	base := len(vm.stack) - argCount - 1
	switch c := ctor.(type) {
	case *values.Function:
		return vm.invokeFunction(c, base, argCount)
	case *values.ForeignMethod:
		return vm.callForeign(c, vm.stack[base], base, argCount)
	default:
		return vm.runtimeErrorf("internal error: constructor table entry is not callable")
	}
}

// declareForeignMethodStub implements the ForeignMethod opcode, run once per
// `foreign method` declared in Objo source as its owning class is built.
// Resolution order: an embedding host's BindForeignMethod hook, then a
// same-named method already registered on a Core class of the same name
// (lets a user-declared `foreign class List { add(_) }` pick up corelib's
// own List.add), then a stub that raises a runtime error if ever called —
// never a silent no-op.
func (vm *VM) declareForeignMethodStub(fr *values.CallFrame) {
	sigIdx := int(vm.readUint16(fr))
	arity := int(vm.readByte(fr))
	isStatic := vm.readByte(fr) != 0
	sig := vm.stringConstant(fr, sigIdx)
	kl := vm.peek(0).(*values.Klass)
	className := kl.Name

	if vm.BindForeignMethod != nil {
		if fn, ok := vm.BindForeignMethod(className, sig, isStatic); ok {
			vm.putForeignMethod(kl, sig, arity, isStatic, fn)
			return
		}
	}
	if core, ok := vm.Core[className]; ok {
		table := core.Methods
		if isStatic {
			table = core.StaticMethods
		}
		if existing, ok := table.Get(sig); ok {
			if isStatic {
				kl.StaticMethods.Put(sig, existing)
			} else {
				kl.Methods.Put(sig, existing)
			}
			return
		}
	}

	vm.putForeignMethod(kl, sig, arity, isStatic, func(values.VM, values.Value, []values.Value) (values.Value, error) {
		return nil, vm.runtimeErrorf("%s.%s has no host implementation", className, sig)
	})
}

func (vm *VM) putForeignMethod(kl *values.Klass, sig string, arity int, isStatic bool, fn func(values.VM, values.Value, []values.Value) (values.Value, error)) {
	m := &values.ForeignMethod{Name: sig, Arity: arity, Fn: fn}
	if isStatic {
		kl.StaticMethods.Put(sig, m)
	} else {
		kl.Methods.Put(sig, m)
	}
}

// bindForeignClass resolves the allocate callback for a foreign class's
// ForeignData: the host's BindForeignClass hook first, then a same-named
// Core class's own allocator.
func (vm *VM) bindForeignClass(name string) (func() any, bool) {
	if vm.BindForeignClass != nil {
		if alloc, ok := vm.BindForeignClass(name); ok {
			return alloc, true
		}
	}
	if core, ok := vm.Core[name]; ok && core.ForeignAllocate != nil {
		return core.ForeignAllocate, true
	}
	return nil, false
}
