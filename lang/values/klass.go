package values

import "github.com/dolthub/swiss"

// Klass is a compiled class: a name, an optional superclass, a dense field
// layout, and the method/static-method/constructor tables signature lookup
// dispatches into.
type Klass struct {
	Name       string
	Superclass *Klass
	IsForeign  bool

	// FirstFieldIndex is the offset of this class's own fields within an
	// Instance's Fields slice; it equals the superclass's FieldCount so a
	// subclass's fields are laid out directly after its parent's.
	// FieldCount is the total, inherited fields included.
	FirstFieldIndex int
	FieldCount      int

	// Methods/StaticMethods are keyed by signature (e.g. "area()",
	// "add(_,_)", "[_]=(_)"), not bare name, so overloads by arity coexist.
	Methods       *swiss.Map[string, Value] // *Function or *ForeignMethod
	StaticMethods *swiss.Map[string, Value]

	// Constructors are keyed by arity, not signature: a class only ever
	// exposes one constructor per argument count.
	Constructors map[int]Value // *Function or *ForeignMethod

	// StaticFields is dense, addressed by the same per-class position index
	// the compiler bakes into GetStaticField/SetStaticField; StaticFieldNames
	// holds the matching name at each position, populated from DebugFieldName
	// and used only for error messages and the debugger.
	StaticFields     []Value
	StaticFieldNames []string

	// ForeignAllocate, when set (foreign classes only), produces the host-side
	// payload stashed in a new Instance's ForeignData before its constructor
	// runs.
	ForeignAllocate func() any
}

func (*Klass) Kind() Kind       { return KindClass }
func (k *Klass) String() string { return "class " + k.Name }

// NewKlass returns an empty class ready for the compiler/corelib registrar
// to populate.
func NewKlass(name string, super *Klass) *Klass {
	k := &Klass{
		Name:          name,
		Superclass:    super,
		Methods:       swiss.NewMap[string, Value](4),
		StaticMethods: swiss.NewMap[string, Value](2),
		Constructors:  make(map[int]Value, 1),
	}
	if super != nil {
		k.FirstFieldIndex = super.FieldCount
	}
	return k
}

// FindMethod looks up signature on k, then walks the superclass chain.
func (k *Klass) FindMethod(signature string) (Value, bool) {
	for c := k; c != nil; c = c.Superclass {
		if v, ok := c.Methods.Get(signature); ok {
			return v, true
		}
	}
	return nil, false
}

// FindStaticMethod looks up signature on k's own static-method table, then
// walks the superclass chain, mirroring FindMethod for instance methods.
func (k *Klass) FindStaticMethod(signature string) (Value, bool) {
	for c := k; c != nil; c = c.Superclass {
		if v, ok := c.StaticMethods.Get(signature); ok {
			return v, true
		}
	}
	return nil, false
}

// FindConstructor looks up the constructor matching arity among k's own
// constructors only; constructors are not inherited.
func (k *Klass) FindConstructor(arity int) (Value, bool) {
	v, ok := k.Constructors[arity]
	return v, ok
}

// IsSubclassOf reports whether k is super or a descendant of super,
// implementing the `is` operator for classes.
func (k *Klass) IsSubclassOf(super *Klass) bool {
	for c := k; c != nil; c = c.Superclass {
		if c == super {
			return true
		}
	}
	return false
}

// GetStaticFieldAt returns the static field at idx, defaulting to
// NothingValue if it hasn't been written yet.
func (k *Klass) GetStaticFieldAt(idx int) Value {
	if idx >= len(k.StaticFields) {
		return NothingValue
	}
	return k.StaticFields[idx]
}

// SetStaticFieldAt stores value at idx, growing the backing slice as
// needed (slots below idx that were never written hold NothingValue).
func (k *Klass) SetStaticFieldAt(idx int, value Value) {
	for idx >= len(k.StaticFields) {
		k.StaticFields = append(k.StaticFields, NothingValue)
	}
	k.StaticFields[idx] = value
}

// SetStaticFieldName records the declared name of the static field at idx,
// used only to produce readable error messages and debugger output.
func (k *Klass) SetStaticFieldName(idx int, name string) {
	for idx >= len(k.StaticFieldNames) {
		k.StaticFieldNames = append(k.StaticFieldNames, "")
	}
	k.StaticFieldNames[idx] = name
}

// StaticFieldName returns the declared name of the static field at idx, or
// "" if unknown.
func (k *Klass) StaticFieldName(idx int) string {
	if idx < 0 || idx >= len(k.StaticFieldNames) {
		return ""
	}
	return k.StaticFieldNames[idx]
}
