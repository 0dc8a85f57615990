package values

// Instance is a live object: a reference to its class plus its own dense
// field slots (inherited fields occupy the low indices, per
// Klass.FirstFieldIndex).
type Instance struct {
	Klass  *Klass
	Fields []Value

	// ForeignData is the host-side payload for instances of a foreign class,
	// produced by Klass.ForeignAllocate and opaque to the VM.
	ForeignData any
}

func (*Instance) Kind() Kind       { return KindInstance }
func (i *Instance) String() string { return "instance of " + i.Klass.Name }

// NewInstance allocates an instance of k with all fields defaulted to
// NothingValue.
func NewInstance(k *Klass) *Instance {
	fields := make([]Value, k.FieldCount)
	for idx := range fields {
		fields[idx] = NothingValue
	}
	inst := &Instance{Klass: k, Fields: fields}
	if k.ForeignAllocate != nil {
		inst.ForeignData = k.ForeignAllocate()
	}
	return inst
}

// GetField returns the field at the dense index computed by the compiler.
func (i *Instance) GetField(index int) Value { return i.Fields[index] }

// SetField stores value at the dense index computed by the compiler.
func (i *Instance) SetField(index int, value Value) { i.Fields[index] = value }
