package corelib

import (
	"fmt"
	"strings"

	"github.com/gkjpettet/objo/lang/values"
)

// NewList builds a List instance directly from its elements, used by the
// VM's MakeList opcode handler (the `[1, 2, 3]` literal) and by any foreign
// method that needs to hand back a fresh list.
func NewList(kl *values.Klass, elements []values.Value) *values.Instance {
	inst := values.NewInstance(kl)
	data := append([]values.Value(nil), elements...)
	inst.ForeignData = &data
	return inst
}

func listData(receiver values.Value) (*[]values.Value, error) {
	inst, ok := receiver.(*values.Instance)
	if !ok {
		return nil, fmt.Errorf("receiver is not a List")
	}
	data, ok := inst.ForeignData.(*[]values.Value)
	if !ok {
		return nil, fmt.Errorf("receiver is not a List")
	}
	return data, nil
}

func registerList(k *values.Klass) {
	k.Constructors[0] = &values.ForeignMethod{Name: "constructor()", Arity: 0, Fn: func(_ values.VM, receiver values.Value, _ []values.Value) (values.Value, error) {
		inst, ok := receiver.(*values.Instance)
		if !ok {
			return nil, fmt.Errorf("receiver is not a List")
		}
		data := []values.Value{}
		inst.ForeignData = &data
		return receiver, nil
	}}

	reg := func(sig string, arity int, fn func(values.VM, values.Value, []values.Value) (values.Value, error)) {
		k.Methods.Put(sig, &values.ForeignMethod{Name: sig, Arity: arity, Fn: fn})
	}
	reg("[_]", 1, listGet)
	reg("[_]=(_)", 2, listSet)
	reg("add(_)", 1, listAdd)
	reg("removeAt(_)", 1, listRemoveAt)
	reg("count()", 0, listCount)
	reg("toString()", 0, listToString)
	reg("iterate(_)", 1, listIterate)
	reg("iteratorValue(_)", 1, listIteratorValue)
	reg("clear()", 0, listClear)
	reg("clone()", 0, listClone)
	reg("indexOf(_)", 1, listIndexOf)
	reg("insert(_,_)", 2, listInsert)
	reg("pop()", 0, listPop)
	reg("remove(_)", 1, listRemove)
	reg("swap(_,_)", 2, listSwap)

	k.StaticMethods.Put("filled(_,_)", &values.ForeignMethod{Name: "filled(_,_)", Arity: 2, Fn: listFilled})
}

func listIndexArg(data *[]values.Value, v values.Value) (int, error) {
	n, ok := v.(values.Number)
	if !ok {
		return 0, fmt.Errorf("list index must be a Number")
	}
	i := int(n)
	if i < 0 || i >= len(*data) {
		return 0, fmt.Errorf("list index %d out of bounds (count %d)", i, len(*data))
	}
	return i, nil
}

func listGet(_ values.VM, receiver values.Value, args []values.Value) (values.Value, error) {
	data, err := listData(receiver)
	if err != nil {
		return nil, err
	}
	i, err := listIndexArg(data, args[0])
	if err != nil {
		return nil, err
	}
	return (*data)[i], nil
}

func listSet(_ values.VM, receiver values.Value, args []values.Value) (values.Value, error) {
	data, err := listData(receiver)
	if err != nil {
		return nil, err
	}
	i, err := listIndexArg(data, args[0])
	if err != nil {
		return nil, err
	}
	(*data)[i] = args[1]
	return args[1], nil
}

func listAdd(_ values.VM, receiver values.Value, args []values.Value) (values.Value, error) {
	data, err := listData(receiver)
	if err != nil {
		return nil, err
	}
	*data = append(*data, args[0])
	return args[0], nil
}

func listRemoveAt(_ values.VM, receiver values.Value, args []values.Value) (values.Value, error) {
	data, err := listData(receiver)
	if err != nil {
		return nil, err
	}
	i, err := listIndexArg(data, args[0])
	if err != nil {
		return nil, err
	}
	removed := (*data)[i]
	*data = append((*data)[:i], (*data)[i+1:]...)
	return removed, nil
}

func listCount(_ values.VM, receiver values.Value, _ []values.Value) (values.Value, error) {
	data, err := listData(receiver)
	if err != nil {
		return nil, err
	}
	return values.Number(len(*data)), nil
}

func listToString(_ values.VM, receiver values.Value, _ []values.Value) (values.Value, error) {
	data, err := listData(receiver)
	if err != nil {
		return nil, err
	}
	parts := make([]string, len(*data))
	for i, v := range *data {
		parts[i] = v.String()
	}
	return values.String("[" + strings.Join(parts, ", ") + "]"), nil
}

// listIterate/listIteratorValue implement the iterator protocol forEach
// desugars to: `iterate(_)` is handed the previous iterator value (`nothing`
// on the first call) and returns the next one, or `false` once exhausted;
// `iteratorValue(_)` maps an iterator value to the element it denotes.
func listIterate(_ values.VM, receiver values.Value, args []values.Value) (values.Value, error) {
	data, err := listData(receiver)
	if err != nil {
		return nil, err
	}
	if args[0].Kind() == values.KindNothing {
		if len(*data) == 0 {
			return values.Boolean(false), nil
		}
		return values.Number(0), nil
	}
	n, ok := args[0].(values.Number)
	if !ok {
		return nil, fmt.Errorf("internal error: list iterator value is not a Number")
	}
	next := int(n) + 1
	if next >= len(*data) {
		return values.Boolean(false), nil
	}
	return values.Number(next), nil
}

func listIteratorValue(_ values.VM, receiver values.Value, args []values.Value) (values.Value, error) {
	data, err := listData(receiver)
	if err != nil {
		return nil, err
	}
	n, ok := args[0].(values.Number)
	if !ok {
		return nil, fmt.Errorf("internal error: list iterator value is not a Number")
	}
	return (*data)[int(n)], nil
}

func listClear(_ values.VM, receiver values.Value, _ []values.Value) (values.Value, error) {
	data, err := listData(receiver)
	if err != nil {
		return nil, err
	}
	*data = (*data)[:0]
	return receiver, nil
}

func listClone(_ values.VM, receiver values.Value, _ []values.Value) (values.Value, error) {
	data, err := listData(receiver)
	if err != nil {
		return nil, err
	}
	inst, ok := receiver.(*values.Instance)
	if !ok {
		return nil, fmt.Errorf("receiver is not a List")
	}
	return NewList(inst.Klass, *data), nil
}

func listIndexOf(_ values.VM, receiver values.Value, args []values.Value) (values.Value, error) {
	data, err := listData(receiver)
	if err != nil {
		return nil, err
	}
	for i, v := range *data {
		if values.Equal(v, args[0]) {
			return values.Number(i), nil
		}
	}
	return values.Number(-1), nil
}

func listInsert(_ values.VM, receiver values.Value, args []values.Value) (values.Value, error) {
	data, err := listData(receiver)
	if err != nil {
		return nil, err
	}
	n, ok := args[0].(values.Number)
	if !ok {
		return nil, fmt.Errorf("list index must be a Number")
	}
	i := int(n)
	if i < 0 || i > len(*data) {
		return nil, fmt.Errorf("list index %d out of bounds (count %d)", i, len(*data))
	}
	*data = append(*data, values.NothingValue)
	copy((*data)[i+1:], (*data)[i:])
	(*data)[i] = args[1]
	return args[1], nil
}

func listPop(_ values.VM, receiver values.Value, _ []values.Value) (values.Value, error) {
	data, err := listData(receiver)
	if err != nil {
		return nil, err
	}
	if len(*data) == 0 {
		return nil, fmt.Errorf("cannot pop from an empty list")
	}
	last := (*data)[len(*data)-1]
	*data = (*data)[:len(*data)-1]
	return last, nil
}

func listRemove(_ values.VM, receiver values.Value, args []values.Value) (values.Value, error) {
	data, err := listData(receiver)
	if err != nil {
		return nil, err
	}
	for i, v := range *data {
		if values.Equal(v, args[0]) {
			*data = append((*data)[:i], (*data)[i+1:]...)
			return v, nil
		}
	}
	return values.NothingValue, nil
}

func listSwap(_ values.VM, receiver values.Value, args []values.Value) (values.Value, error) {
	data, err := listData(receiver)
	if err != nil {
		return nil, err
	}
	i, err := listIndexArg(data, args[0])
	if err != nil {
		return nil, err
	}
	j, err := listIndexArg(data, args[1])
	if err != nil {
		return nil, err
	}
	(*data)[i], (*data)[j] = (*data)[j], (*data)[i]
	return receiver, nil
}

func listFilled(_ values.VM, receiver values.Value, args []values.Value) (values.Value, error) {
	kl, ok := receiver.(*values.Klass)
	if !ok {
		return nil, fmt.Errorf("receiver is not a Class")
	}
	n, ok := args[0].(values.Number)
	if !ok {
		return nil, fmt.Errorf("size must be a Number")
	}
	elems := make([]values.Value, int(n))
	for i := range elems {
		elems[i] = args[1]
	}
	return NewList(kl, elems), nil
}

// ---- Map ----

type mapData struct {
	keys []values.Value
	vals []values.Value
}

// NewMap builds a Map instance from a flat, alternating key/value slice, as
// produced by the VM's MakeMap opcode for a `{k1: v1, k2: v2}` literal.
func NewMap(kl *values.Klass, pairs []values.Value) *values.Instance {
	inst := values.NewInstance(kl)
	data := &mapData{}
	for i := 0; i+1 < len(pairs); i += 2 {
		data.keys = append(data.keys, pairs[i])
		data.vals = append(data.vals, pairs[i+1])
	}
	inst.ForeignData = data
	return inst
}

func asMapData(receiver values.Value) (*mapData, error) {
	inst, ok := receiver.(*values.Instance)
	if !ok {
		return nil, fmt.Errorf("receiver is not a Map")
	}
	data, ok := inst.ForeignData.(*mapData)
	if !ok {
		return nil, fmt.Errorf("receiver is not a Map")
	}
	return data, nil
}

func registerMap(k *values.Klass) {
	k.Constructors[0] = &values.ForeignMethod{Name: "constructor()", Arity: 0, Fn: func(_ values.VM, receiver values.Value, _ []values.Value) (values.Value, error) {
		inst, ok := receiver.(*values.Instance)
		if !ok {
			return nil, fmt.Errorf("receiver is not a Map")
		}
		inst.ForeignData = &mapData{}
		return receiver, nil
	}}

	reg := func(sig string, arity int, fn func(values.VM, values.Value, []values.Value) (values.Value, error)) {
		k.Methods.Put(sig, &values.ForeignMethod{Name: sig, Arity: arity, Fn: fn})
	}
	reg("[_]", 1, mapGet)
	reg("[_]=(_)", 2, mapSet)
	reg("containsKey(_)", 1, mapContainsKey)
	reg("count()", 0, mapCount)
	reg("toString()", 0, mapToString)
	reg("iterate(_)", 1, mapIterate)
	reg("iteratorValue(_)", 1, mapIteratorValue)
	reg("clear()", 0, mapClear)
	reg("keys()", 0, mapKeys)
	reg("values()", 0, mapValues)
	reg("remove(_)", 1, mapRemove)
}

func mapFind(data *mapData, key values.Value) int {
	for i, k := range data.keys {
		if values.Equal(k, key) {
			return i
		}
	}
	return -1
}

func mapGet(_ values.VM, receiver values.Value, args []values.Value) (values.Value, error) {
	data, err := asMapData(receiver)
	if err != nil {
		return nil, err
	}
	i := mapFind(data, args[0])
	if i == -1 {
		return values.NothingValue, nil
	}
	return data.vals[i], nil
}

func mapSet(_ values.VM, receiver values.Value, args []values.Value) (values.Value, error) {
	data, err := asMapData(receiver)
	if err != nil {
		return nil, err
	}
	i := mapFind(data, args[0])
	if i == -1 {
		data.keys = append(data.keys, args[0])
		data.vals = append(data.vals, args[1])
	} else {
		data.vals[i] = args[1]
	}
	return args[1], nil
}

func mapContainsKey(_ values.VM, receiver values.Value, args []values.Value) (values.Value, error) {
	data, err := asMapData(receiver)
	if err != nil {
		return nil, err
	}
	return values.Boolean(mapFind(data, args[0]) != -1), nil
}

func mapCount(_ values.VM, receiver values.Value, _ []values.Value) (values.Value, error) {
	data, err := asMapData(receiver)
	if err != nil {
		return nil, err
	}
	return values.Number(len(data.keys)), nil
}

func mapToString(_ values.VM, receiver values.Value, _ []values.Value) (values.Value, error) {
	data, err := asMapData(receiver)
	if err != nil {
		return nil, err
	}
	parts := make([]string, len(data.keys))
	for i := range data.keys {
		parts[i] = fmt.Sprintf("%s: %s", data.keys[i].String(), data.vals[i].String())
	}
	return values.String("{" + strings.Join(parts, ", ") + "}"), nil
}

func mapIterate(_ values.VM, receiver values.Value, args []values.Value) (values.Value, error) {
	data, err := asMapData(receiver)
	if err != nil {
		return nil, err
	}
	if args[0].Kind() == values.KindNothing {
		if len(data.keys) == 0 {
			return values.Boolean(false), nil
		}
		return values.Number(0), nil
	}
	n, ok := args[0].(values.Number)
	if !ok {
		return nil, fmt.Errorf("internal error: map iterator value is not a Number")
	}
	next := int(n) + 1
	if next >= len(data.keys) {
		return values.Boolean(false), nil
	}
	return values.Number(next), nil
}

func mapIteratorValue(_ values.VM, receiver values.Value, args []values.Value) (values.Value, error) {
	data, err := asMapData(receiver)
	if err != nil {
		return nil, err
	}
	n, ok := args[0].(values.Number)
	if !ok {
		return nil, fmt.Errorf("internal error: map iterator value is not a Number")
	}
	return NewKeyValue(keyValueClassCache, data.keys[int(n)], data.vals[int(n)]), nil
}

func mapClear(_ values.VM, receiver values.Value, _ []values.Value) (values.Value, error) {
	data, err := asMapData(receiver)
	if err != nil {
		return nil, err
	}
	data.keys = data.keys[:0]
	data.vals = data.vals[:0]
	return receiver, nil
}

func mapKeys(_ values.VM, receiver values.Value, _ []values.Value) (values.Value, error) {
	data, err := asMapData(receiver)
	if err != nil {
		return nil, err
	}
	return NewList(listClassCache, data.keys), nil
}

func mapValues(_ values.VM, receiver values.Value, _ []values.Value) (values.Value, error) {
	data, err := asMapData(receiver)
	if err != nil {
		return nil, err
	}
	return NewList(listClassCache, data.vals), nil
}

func mapRemove(_ values.VM, receiver values.Value, args []values.Value) (values.Value, error) {
	data, err := asMapData(receiver)
	if err != nil {
		return nil, err
	}
	i := mapFind(data, args[0])
	if i == -1 {
		return values.NothingValue, nil
	}
	removed := data.vals[i]
	data.keys = append(data.keys[:i], data.keys[i+1:]...)
	data.vals = append(data.vals[:i], data.vals[i+1:]...)
	return removed, nil
}

// ---- KeyValue ----

type kvData struct {
	key   values.Value
	value values.Value
}

// NewKeyValue builds a KeyValue pairing, used for Map iteration and for the
// `key: value` map-literal entry expression.
func NewKeyValue(kl *values.Klass, key, value values.Value) *values.Instance {
	inst := values.NewInstance(kl)
	inst.ForeignData = &kvData{key: key, value: value}
	return inst
}

func registerKeyValue(k *values.Klass) {
	k.Methods.Put("key()", &values.ForeignMethod{Name: "key()", Arity: 0, Fn: func(_ values.VM, receiver values.Value, _ []values.Value) (values.Value, error) {
		d, err := asKVData(receiver)
		if err != nil {
			return nil, err
		}
		return d.key, nil
	}})
	k.Methods.Put("value()", &values.ForeignMethod{Name: "value()", Arity: 0, Fn: func(_ values.VM, receiver values.Value, _ []values.Value) (values.Value, error) {
		d, err := asKVData(receiver)
		if err != nil {
			return nil, err
		}
		return d.value, nil
	}})
	k.Methods.Put("toString()", &values.ForeignMethod{Name: "toString()", Arity: 0, Fn: func(_ values.VM, receiver values.Value, _ []values.Value) (values.Value, error) {
		d, err := asKVData(receiver)
		if err != nil {
			return nil, err
		}
		return values.String(fmt.Sprintf("%s: %s", d.key.String(), d.value.String())), nil
	}})
}

func asKVData(receiver values.Value) (*kvData, error) {
	inst, ok := receiver.(*values.Instance)
	if !ok {
		return nil, fmt.Errorf("receiver is not a KeyValue")
	}
	d, ok := inst.ForeignData.(*kvData)
	if !ok {
		return nil, fmt.Errorf("receiver is not a KeyValue")
	}
	return d, nil
}
