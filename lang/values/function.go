package values

// Function is a compiled Objo function, method, or constructor body along
// with the fixed arity the VM checks against at call time.
type Function struct {
	Name     string
	Arity    int
	Chunk    *Chunk
	IsMethod bool

	// FieldParams records, for a constructor, which parameters assign
	// directly to a same-named instance field before the body runs (the
	// `constructor(_x, _y)` shorthand).
	FieldParams []string

	// OwnerClass is the class this function was declared a method or
	// constructor of, set by the VM when it builds the class at runtime
	// (nil for a plain function). `super` dispatch resolves from
	// OwnerClass.Superclass rather than the receiver's runtime class, so an
	// override further down the hierarchy can't shadow it.
	OwnerClass *Klass
}

func (*Function) Kind() Kind       { return KindFunction }
func (f *Function) String() string { return "function " + f.Name }

// ForeignMethod is a host-implemented method, registered by name against a
// Klass rather than compiled from Objo source.
type ForeignMethod struct {
	Name  string
	Arity int
	Fn    func(vm VM, receiver Value, args []Value) (Value, error)
}

func (*ForeignMethod) Kind() Kind       { return KindForeignMethod }
func (m *ForeignMethod) String() string { return "foreign method " + m.Name }

// BoundMethod pairs a receiver instance with the method looked up for it.
// The VM can call one, but the compiler never produces one: `obj.name`
// without parentheses compiles to a zero-argument invoke, not to a
// BoundMethod value.
type BoundMethod struct {
	Receiver Value
	Method   Value // *Function or *ForeignMethod
}

func (*BoundMethod) Kind() Kind       { return KindBoundMethod }
func (b *BoundMethod) String() string { return "bound method" }

// VM is the minimal surface a foreign method body needs from the running
// machine: calling back into Objo code and raising runtime errors. It is
// declared here, rather than imported from package vm, to avoid an import
// cycle between values and vm.
type VM interface {
	Call(callee Value, args []Value) (Value, error)
	RuntimeError(format string, args ...any) error
}
