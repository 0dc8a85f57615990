// Package opcode defines the bytecode instruction set shared by the
// compiler and the VM.
//
// Most instructions that address a resource by constant-pool index come in
// two variants: a short form taking a single-byte operand (addressing up to
// 255 entries) and a long form taking a two-byte big-endian operand. The
// compiler picks the short form whenever the index fits in a byte, falling
// back to the long form only when it doesn't, keeping common chunks dense.
// Local slots and instance field indices are always a single byte: a
// function caps its locals at 256 and a class caps its total field count
// (through inheritance) at 255.
package opcode

type Op byte

const (
	// stack manipulation
	Pop Op = iota
	PopN // 1-byte count
	Swap
	PushNothing
	PushTrue
	PushFalse

	// small-integer fast paths, avoiding a constant-pool round trip for the
	// handful of literal values that show up constantly (loop bounds,
	// increments)
	LoadMinus2
	LoadMinus1
	Load0
	Load1
	Load2

	// constants
	Constant     // 1-byte constant index
	ConstantLong // 2-byte constant index

	// locals (always a 1-byte slot: see package doc)
	GetLocal
	SetLocal

	// globals
	DefineGlobal
	DefineGlobalLong
	GetGlobal
	GetGlobalLong
	SetGlobal
	SetGlobalLong

	// fields (always a 1-byte index: see package doc)
	GetField
	SetField

	// static fields, addressed by a dense per-class index (1 byte, or 2 for
	// the Long forms)
	GetStaticField
	GetStaticFieldLong
	SetStaticField
	SetStaticFieldLong

	// arithmetic & comparison: fast path when both operands are Number,
	// else fall back to a signature-based method dispatch on the receiver
	Add
	Subtract
	Multiply
	Divide
	Modulo
	Add1      // sugar for `+ 1`
	Subtract1 // sugar for `- 1`
	Equal
	NotEqual
	Less
	LessEqual
	Greater
	GreaterEqual

	// bitwise
	BitwiseAnd
	BitwiseOr
	BitwiseXor
	ShiftLeft
	ShiftRight

	// unary
	Negate
	Not
	BitwiseNot

	// LogicalXor implements `xor`, the one logical operator that always
	// evaluates both sides (AND/OR short-circuit via Jump*/Pop instead).
	LogicalXor

	// `is`, `..<`, `...`: evaluated by the VM itself, with no method invoke:
	// Is walks the left operand's class chain, and the range opcodes build
	// a List of Numbers. A class cannot overload these three operators.
	Is
	RangeExclusive
	RangeInclusive

	// control flow
	Jump        // 2-byte forward offset
	JumpIfFalse // 2-byte forward offset; does not pop
	JumpIfTrue  // 2-byte forward offset; does not pop
	Loop        // 2-byte backward offset

	// calls & invocation
	Call             // 1-byte arg count
	Invoke           // 1-byte sig constant index, 1-byte arg count
	InvokeLong       // 2-byte sig constant index, 1-byte arg count
	SuperConstructor // 1-byte arg count; superclass resolved from the running method's class
	SuperInvoke      // 2-byte sig constant index, 1-byte arg count
	SuperSetter      // 2-byte sig constant index
	Return

	// classes
	Class // 2-byte name constant index, 1-byte isForeign, 1-byte fieldCount, 1-byte firstFieldIndex
	Inherit
	Method         // 2-byte sig constant index, 1-byte isStatic
	ForeignMethod  // 2-byte sig constant index, 1-byte arity, 1-byte isStatic
	Constructor    // 1-byte arg count
	DebugFieldName // 2-byte name constant index, 1-byte field index

	// collections
	MakeList     // 1-byte element count
	MakeMap      // 1-byte pair count
	MakeKeyValue

	// misc / debugger / host interaction
	Assert // pops message, then condition
	Breakpoint
	Exit // never legitimately reached: evidence of a compiler bug
	GetLocalClass // 1-byte slot

	numOpcodes
)

var names = [...]string{
	Pop: "POP", PopN: "POP_N", Swap: "SWAP",
	PushNothing: "NOTHING", PushTrue: "TRUE", PushFalse: "FALSE",
	LoadMinus2: "LOAD_M2", LoadMinus1: "LOAD_M1", Load0: "LOAD_0", Load1: "LOAD_1", Load2: "LOAD_2",
	Constant: "CONSTANT", ConstantLong: "CONSTANT_LONG",
	GetLocal: "GET_LOCAL", SetLocal: "SET_LOCAL",
	DefineGlobal: "DEFINE_GLOBAL", DefineGlobalLong: "DEFINE_GLOBAL_LONG",
	GetGlobal: "GET_GLOBAL", GetGlobalLong: "GET_GLOBAL_LONG",
	SetGlobal: "SET_GLOBAL", SetGlobalLong: "SET_GLOBAL_LONG",
	GetField: "GET_FIELD", SetField: "SET_FIELD",
	GetStaticField: "GET_STATIC_FIELD", GetStaticFieldLong: "GET_STATIC_FIELD_LONG",
	SetStaticField: "SET_STATIC_FIELD", SetStaticFieldLong: "SET_STATIC_FIELD_LONG",
	Add: "ADD", Subtract: "SUBTRACT", Multiply: "MULTIPLY", Divide: "DIVIDE", Modulo: "MODULO",
	Add1: "ADD_1", Subtract1: "SUBTRACT_1",
	Equal: "EQUAL", NotEqual: "NOT_EQUAL",
	Less: "LESS", LessEqual: "LESS_EQUAL", Greater: "GREATER", GreaterEqual: "GREATER_EQUAL",
	BitwiseAnd: "BITWISE_AND", BitwiseOr: "BITWISE_OR", BitwiseXor: "BITWISE_XOR",
	ShiftLeft: "SHIFT_LEFT", ShiftRight: "SHIFT_RIGHT",
	Negate: "NEGATE", Not: "NOT", BitwiseNot: "BITWISE_NOT", LogicalXor: "LOGICAL_XOR",
	Is: "IS", RangeExclusive: "RANGE_EXCLUSIVE", RangeInclusive: "RANGE_INCLUSIVE",
	Jump: "JUMP", JumpIfFalse: "JUMP_IF_FALSE", JumpIfTrue: "JUMP_IF_TRUE", Loop: "LOOP",
	Call: "CALL", Invoke: "INVOKE", InvokeLong: "INVOKE_LONG",
	SuperConstructor: "SUPER_CONSTRUCTOR", SuperInvoke: "SUPER_INVOKE", SuperSetter: "SUPER_SETTER",
	Return: "RETURN",
	Class: "CLASS", Inherit: "INHERIT",
	Method: "METHOD", ForeignMethod: "FOREIGN_METHOD",
	Constructor: "CONSTRUCTOR", DebugFieldName: "DEBUG_FIELD_NAME",
	MakeList: "MAKE_LIST", MakeMap: "MAKE_MAP", MakeKeyValue: "MAKE_KEY_VALUE",
	Assert: "ASSERT", Breakpoint: "BREAKPOINT", Exit: "EXIT", GetLocalClass: "GET_LOCAL_CLASS",
}

func (op Op) String() string {
	if int(op) < len(names) && names[op] != "" {
		return names[op]
	}
	return "UNKNOWN"
}

// StopsDebugger reports whether the single-step debugger is allowed to
// pause before executing an instruction of this kind.
func (op Op) StopsDebugger() bool {
	switch op {
	case Assert, SetLocal, SetGlobal, SetGlobalLong, DefineGlobal, DefineGlobalLong,
		SetField, SetStaticField, SetStaticFieldLong, Return, Loop, Call, Invoke, InvokeLong, Breakpoint:
		return true
	default:
		return false
	}
}
