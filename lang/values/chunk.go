package values

import (
	"github.com/dolthub/swiss"
	"github.com/google/uuid"
)

// maxConstants is the largest number of entries a ConstantTable may hold;
// the long-operand constant opcodes address constants with a 16-bit index,
// and 0xFFFF (65535) is reserved as a sentinel for "no such constant".
const maxConstants = 65534

// ConstantTable deduplicates the literal values compiled into a Chunk. The
// dedup index is a swiss.Map keyed by the literal itself, which is safe
// because every concrete Value type is comparable.
type ConstantTable struct {
	values []Value
	index  *swiss.Map[Value, int]
}

// NewConstantTable returns an empty constant table.
func NewConstantTable() *ConstantTable {
	return &ConstantTable{index: swiss.NewMap[Value, int](16)}
}

// Add interns v, returning its index. If v has already been added the
// existing index is returned rather than duplicating the entry. An error is
// returned once the table would exceed maxConstants distinct entries.
func (c *ConstantTable) Add(v Value) (int, error) {
	if idx, ok := c.index.Get(v); ok {
		return idx, nil
	}
	if len(c.values) >= maxConstants {
		return 0, errConstantsOverflow
	}
	idx := len(c.values)
	c.values = append(c.values, v)
	c.index.Put(v, idx)
	return idx, nil
}

// Get returns the constant at idx.
func (c *ConstantTable) Get(idx int) Value { return c.values[idx] }

// Len returns the number of distinct constants interned so far.
func (c *ConstantTable) Len() int { return len(c.values) }

var errConstantsOverflow = constantsOverflowError{}

type constantsOverflowError struct{}

func (constantsOverflowError) Error() string {
	return "constant pool overflow: a single chunk may not hold more than 65,534 distinct constants"
}

// Chunk is a compiled unit of bytecode: one per top-level script, function,
// method, or constructor body.
type Chunk struct {
	// Code is the flat instruction stream: opcodes interleaved with their
	// operand bytes, in the short (1-byte) or long (2-byte) variant the
	// compiler chose for each instruction.
	Code []byte

	// Lines holds, for each byte in Code, the source line it was compiled
	// from, used to build stack traces and for the debugger.
	Lines []int

	Constants *ConstantTable

	// DebugName is the function/method/chunk name for stack traces and the
	// debugger; ScriptID ties it back to the source it was compiled from
	// (-1 for the embedded core library, which never stops the debugger).
	DebugName string
	ScriptID  int

	// ChunkID correlates this compiled chunk with debugger/VM error output
	// when a host embeds more than one VM or hot-reloads chunks.
	ChunkID string
}

// NewChunk returns an empty chunk ready for the compiler to emit into,
// stamped with a fresh ChunkID so a host that hot-reloads chunks or embeds
// more than one VM can correlate debugger/error output back to it.
func NewChunk(debugName string, scriptID int) *Chunk {
	return &Chunk{Constants: NewConstantTable(), DebugName: debugName, ScriptID: scriptID, ChunkID: uuid.NewString()}
}

// WriteByte appends a single raw byte, recording line for it.
func (c *Chunk) WriteByte(b byte, line int) int {
	c.Code = append(c.Code, b)
	c.Lines = append(c.Lines, line)
	return len(c.Code) - 1
}

// WriteUint16 appends a big-endian uint16 operand across two bytes, both
// attributed to line.
func (c *Chunk) WriteUint16(v uint16, line int) int {
	start := c.WriteByte(byte(v>>8), line)
	c.WriteByte(byte(v), line)
	return start
}

// PatchUint16 overwrites the two bytes starting at offset with v, used to
// back-patch forward jumps once their target is known.
func (c *Chunk) PatchUint16(offset int, v uint16) {
	c.Code[offset] = byte(v >> 8)
	c.Code[offset+1] = byte(v)
}

// ReadUint16 reads a big-endian uint16 operand starting at offset.
func (c *Chunk) ReadUint16(offset int) uint16 {
	return uint16(c.Code[offset])<<8 | uint16(c.Code[offset+1])
}
