package bytecode

import "fmt"

// Opcode represents one bytecode instruction.
// Opcodes are organized into ranges by category for easy identification.
type Opcode byte

const (
	// ========================================================================
	// Field stores (0x00-0x0F)
	// ========================================================================

	OpEnd        Opcode = 0x00 // End of program
	OpStoreInt   Opcode = 0x01 // Truncate accumulator into int32 field, clear it: OpStoreInt <offset:u16>
	OpStoreFloat Opcode = 0x02 // Write accumulator into float32 field, clear it: OpStoreFloat <offset:u16>
	OpStoreByte  Opcode = 0x03 // Truncate accumulator into uint8 field, clear it: OpStoreByte <offset:u16>
	OpStorePtr   Opcode = 0x04 // Write handle register into reference field, clear it: OpStorePtr <offset:u16>
	OpCopyDir    Opcode = 0x05 // Copy the spawn direction into a vector field: OpCopyDir <offset:u16>

	// ========================================================================
	// Accumulator arithmetic (0x10-0x1F)
	// ========================================================================

	OpAddConst  Opcode = 0x10 // acc += k: OpAddConst <k:f32>
	OpAddRandom Opcode = 0x11 // acc += rand[0,1) * k: OpAddRandom <k:f32>
	OpAddDamage Opcode = 0x12 // acc += damage * k: OpAddDamage <k:f32>
	OpAddIndex  Opcode = 0x13 // acc += spawnIndex * k: OpAddIndex <k:f32>
	OpSawtooth  Opcode = 0x14 // acc -= k * floor(acc / k): OpSawtooth <k:f32>
	OpQuantize  Opcode = 0x15 // acc = k * floor(acc / k), 0 when k is 0: OpQuantize <k:f32>
	OpSine      Opcode = 0x16 // acc = k * sin(acc): OpSine <k:f32>
	OpPowConst  Opcode = 0x17 // acc = acc ^ k: OpPowConst <k:f32>

	// ========================================================================
	// Scratch slots (0x20-0x2F)
	// ========================================================================

	OpYank    Opcode = 0x20 // slot[i] = acc, acc = 0: OpYank <i:i32>
	OpMulSlot Opcode = 0x21 // acc *= slot[i]: OpMulSlot <i:i32>
	OpAddSlot Opcode = 0x22 // acc += slot[i]: OpAddSlot <i:i32>
	OpPowSlot Opcode = 0x23 // acc = acc ^ slot[i]: OpPowSlot <i:i32>

	// ========================================================================
	// Handle table (0x30-0x3F)
	// ========================================================================

	OpLoadPtr Opcode = 0x30 // Load handle register from the side table: OpLoadPtr <index:u16>
)

// OperandKind describes how the bytes following an opcode are decoded.
type OperandKind uint8

const (
	// OperandNone means the opcode stands alone.
	OperandNone OperandKind = iota

	// OperandOffset is a big-endian u16 field offset into the instance.
	OperandOffset

	// OperandFloat is a big-endian IEEE 754 float32 constant.
	OperandFloat

	// OperandSlot is a big-endian i32 scratch slot index.
	OperandSlot

	// OperandHandle is a big-endian u16 index into the program's handle table.
	OperandHandle
)

// String returns a human-readable name for OperandKind.
func (k OperandKind) String() string {
	switch k {
	case OperandNone:
		return "none"
	case OperandOffset:
		return "offset"
	case OperandFloat:
		return "float"
	case OperandSlot:
		return "slot"
	case OperandHandle:
		return "handle"
	default:
		return fmt.Sprintf("OperandKind(%d)", k)
	}
}

// OpcodeInfo provides metadata about each opcode for debugging and validation.
type OpcodeInfo struct {
	Name       string      // Human-readable name
	Operand    OperandKind // How operand bytes are decoded
	OperandLen int         // Number of operand bytes following the opcode
}

// opcodeInfoTable maps opcodes to their metadata.
var opcodeInfoTable = map[Opcode]OpcodeInfo{
	// Field stores
	OpEnd:        {"END", OperandNone, 0},
	OpStoreInt:   {"STORE_INT", OperandOffset, 2},
	OpStoreFloat: {"STORE_FLOAT", OperandOffset, 2},
	OpStoreByte:  {"STORE_BYTE", OperandOffset, 2},
	OpStorePtr:   {"STORE_PTR", OperandOffset, 2},
	OpCopyDir:    {"COPY_DIR", OperandOffset, 2},

	// Accumulator arithmetic
	OpAddConst:  {"ADD_CONST", OperandFloat, 4},
	OpAddRandom: {"ADD_RANDOM", OperandFloat, 4},
	OpAddDamage: {"ADD_DAMAGE", OperandFloat, 4},
	OpAddIndex:  {"ADD_INDEX", OperandFloat, 4},
	OpSawtooth:  {"SAWTOOTH", OperandFloat, 4},
	OpQuantize:  {"QUANTIZE", OperandFloat, 4},
	OpSine:      {"SINE", OperandFloat, 4},
	OpPowConst:  {"POW_CONST", OperandFloat, 4},

	// Scratch slots
	OpYank:    {"YANK", OperandSlot, 4},
	OpMulSlot: {"MUL_SLOT", OperandSlot, 4},
	OpAddSlot: {"ADD_SLOT", OperandSlot, 4},
	OpPowSlot: {"POW_SLOT", OperandSlot, 4},

	// Handle table
	OpLoadPtr: {"LOAD_PTR", OperandHandle, 2},
}

// GetOpcodeInfo returns metadata for an opcode.
// Returns a zero OpcodeInfo with name "UNKNOWN" if the opcode is not recognized.
func GetOpcodeInfo(op Opcode) OpcodeInfo {
	if info, ok := opcodeInfoTable[op]; ok {
		return info
	}
	return OpcodeInfo{Name: fmt.Sprintf("UNKNOWN(0x%02X)", byte(op)), Operand: OperandNone, OperandLen: 0}
}

// String returns the human-readable name of an opcode.
func (op Opcode) String() string {
	return GetOpcodeInfo(op).Name
}

// OperandLen returns the number of operand bytes for this opcode.
func (op Opcode) OperandLen() int {
	return GetOpcodeInfo(op).OperandLen
}

// InstructionLen returns the total length of an instruction (1 + operand bytes).
func (op Opcode) InstructionLen() int {
	return 1 + op.OperandLen()
}

// IsStore returns true if this opcode flushes state into an instance field.
func (op Opcode) IsStore() bool {
	return op >= OpStoreInt && op <= OpCopyDir
}

// IsAccumOp returns true if this opcode folds a constant into the accumulator.
func (op Opcode) IsAccumOp() bool {
	return op >= OpAddConst && op <= OpPowConst
}

// IsSlotOp returns true if this opcode reads or writes a scratch slot.
func (op Opcode) IsSlotOp() bool {
	return op >= OpYank && op <= OpPowSlot
}

// AllOpcodes returns a slice of all defined opcodes.
// Useful for testing that all opcodes have metadata.
func AllOpcodes() []Opcode {
	opcodes := make([]Opcode, 0, len(opcodeInfoTable))
	for op := range opcodeInfoTable {
		opcodes = append(opcodes, op)
	}
	return opcodes
}

// OpcodeCount returns the number of defined opcodes.
func OpcodeCount() int {
	return len(opcodeInfoTable)
}
