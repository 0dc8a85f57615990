package values_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gkjpettet/objo/lang/values"
)

func TestTruthy(t *testing.T) {
	assert.True(t, values.Truthy(values.Boolean(true)))
	assert.False(t, values.Truthy(values.Boolean(false)))
	assert.False(t, values.Truthy(values.NothingValue))
	assert.True(t, values.Truthy(values.Number(0)))
	assert.True(t, values.Truthy(values.String("")))
}

func TestEqual(t *testing.T) {
	assert.True(t, values.Equal(values.Number(1), values.Number(1)))
	assert.False(t, values.Equal(values.Number(1), values.Number(2)))
	assert.True(t, values.Equal(values.String("a"), values.String("a")))
	assert.False(t, values.Equal(values.Number(1), values.String("1")))
	assert.True(t, values.Equal(values.NothingValue, values.NothingValue))
}

func TestNumberString(t *testing.T) {
	assert.Equal(t, "42", values.Number(42).String())
	assert.Equal(t, "3.14", values.Number(3.14).String())
}

func TestConstantTableDedup(t *testing.T) {
	ct := values.NewConstantTable()
	i1, err := ct.Add(values.Number(42))
	require.NoError(t, err)
	i2, err := ct.Add(values.Number(42))
	require.NoError(t, err)
	assert.Equal(t, i1, i2)
	assert.Equal(t, 1, ct.Len())

	i3, err := ct.Add(values.String("hi"))
	require.NoError(t, err)
	assert.NotEqual(t, i1, i3)
	assert.Equal(t, 2, ct.Len())
}

func TestKlassFieldLayoutInheritance(t *testing.T) {
	base := values.NewKlass("Base", nil)
	base.FieldCount = 2
	derived := values.NewKlass("Derived", base)
	derived.FieldCount = 3 // base's two fields plus one of its own
	assert.Equal(t, 0, base.FirstFieldIndex)
	assert.Equal(t, 2, derived.FirstFieldIndex)

	inst := values.NewInstance(derived)
	assert.Len(t, inst.Fields, 3)
}

func TestKlassIsSubclassOf(t *testing.T) {
	base := values.NewKlass("Base", nil)
	derived := values.NewKlass("Derived", base)
	assert.True(t, derived.IsSubclassOf(base))
	assert.True(t, derived.IsSubclassOf(derived))
	assert.False(t, base.IsSubclassOf(derived))
}

func TestChunkWriteAndPatchUint16(t *testing.T) {
	c := values.NewChunk("test", 0)
	off := c.WriteUint16(0, 1)
	c.WriteByte(0xFF, 1)
	c.PatchUint16(off, 0xBEEF)
	assert.Equal(t, uint16(0xBEEF), c.ReadUint16(off))
}
