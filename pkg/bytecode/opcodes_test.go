package bytecode

import (
	"strings"
	"testing"
)

func TestAllOpcodesHaveMetadata(t *testing.T) {
	// Ensure every defined opcode has metadata
	for _, op := range AllOpcodes() {
		info := GetOpcodeInfo(op)
		if info.Name == "" || strings.HasPrefix(info.Name, "UNKNOWN") {
			t.Errorf("Opcode 0x%02X has no metadata", op)
		}
	}
}

func TestOpcodeCount(t *testing.T) {
	count := OpcodeCount()
	if count != 19 {
		t.Errorf("Expected 19 opcodes, got %d", count)
	}
}

func TestOpcodeString(t *testing.T) {
	tests := []struct {
		op   Opcode
		want string
	}{
		{OpEnd, "END"},
		{OpStoreInt, "STORE_INT"},
		{OpStoreFloat, "STORE_FLOAT"},
		{OpStoreByte, "STORE_BYTE"},
		{OpStorePtr, "STORE_PTR"},
		{OpCopyDir, "COPY_DIR"},
		{OpAddConst, "ADD_CONST"},
		{OpAddRandom, "ADD_RANDOM"},
		{OpAddDamage, "ADD_DAMAGE"},
		{OpAddIndex, "ADD_INDEX"},
		{OpSawtooth, "SAWTOOTH"},
		{OpQuantize, "QUANTIZE"},
		{OpSine, "SINE"},
		{OpPowConst, "POW_CONST"},
		{OpYank, "YANK"},
		{OpMulSlot, "MUL_SLOT"},
		{OpAddSlot, "ADD_SLOT"},
		{OpPowSlot, "POW_SLOT"},
		{OpLoadPtr, "LOAD_PTR"},
	}

	for _, tt := range tests {
		got := tt.op.String()
		if got != tt.want {
			t.Errorf("Opcode(0x%02X).String() = %q, want %q", tt.op, got, tt.want)
		}
	}
}

func TestUnknownOpcodeString(t *testing.T) {
	// Test an undefined opcode value
	op := Opcode(0xEE) // Not defined
	got := op.String()
	if got[:7] != "UNKNOWN" {
		t.Errorf("Unknown opcode should return UNKNOWN, got %q", got)
	}
}

func TestOpcodeOperandLen(t *testing.T) {
	tests := []struct {
		op   Opcode
		want int
	}{
		{OpEnd, 0},
		{OpStoreFloat, 2}, // u16 offset
		{OpCopyDir, 2},    // u16 offset
		{OpAddConst, 4},   // f32 constant
		{OpSine, 4},       // f32 constant
		{OpYank, 4},       // i32 slot
		{OpLoadPtr, 2},    // u16 handle index
	}

	for _, tt := range tests {
		got := tt.op.OperandLen()
		if got != tt.want {
			t.Errorf("%s.OperandLen() = %d, want %d", tt.op, got, tt.want)
		}
	}
}

func TestOpcodeInstructionLen(t *testing.T) {
	tests := []struct {
		op   Opcode
		want int
	}{
		{OpEnd, 1},       // Just the opcode
		{OpStoreInt, 3},  // opcode + 2 bytes
		{OpAddDamage, 5}, // opcode + 4 bytes
		{OpPowSlot, 5},   // opcode + 4 bytes
		{OpLoadPtr, 3},   // opcode + 2 bytes
	}

	for _, tt := range tests {
		got := tt.op.InstructionLen()
		if got != tt.want {
			t.Errorf("%s.InstructionLen() = %d, want %d", tt.op, got, tt.want)
		}
	}
}

func TestOpcodeCategories(t *testing.T) {
	stores := []Opcode{OpStoreInt, OpStoreFloat, OpStoreByte, OpStorePtr, OpCopyDir}
	for _, op := range stores {
		if !op.IsStore() {
			t.Errorf("%s.IsStore() = false, want true", op)
		}
	}

	accumOps := []Opcode{OpAddConst, OpAddRandom, OpAddDamage, OpAddIndex, OpSawtooth, OpQuantize, OpSine, OpPowConst}
	for _, op := range accumOps {
		if !op.IsAccumOp() {
			t.Errorf("%s.IsAccumOp() = false, want true", op)
		}
	}

	slotOps := []Opcode{OpYank, OpMulSlot, OpAddSlot, OpPowSlot}
	for _, op := range slotOps {
		if !op.IsSlotOp() {
			t.Errorf("%s.IsSlotOp() = false, want true", op)
		}
	}

	for _, op := range []Opcode{OpEnd, OpAddConst, OpLoadPtr} {
		if op.IsStore() {
			t.Errorf("%s.IsStore() = true, want false", op)
		}
	}
	for _, op := range []Opcode{OpEnd, OpStoreInt, OpYank} {
		if op.IsAccumOp() {
			t.Errorf("%s.IsAccumOp() = true, want false", op)
		}
	}
}

func TestOpcodeRanges(t *testing.T) {
	// Verify opcodes are in their expected ranges
	rangeTests := []struct {
		name     string
		ops      []Opcode
		minRange Opcode
		maxRange Opcode
	}{
		{"Stores", []Opcode{OpEnd, OpStoreInt, OpStoreFloat, OpStoreByte, OpStorePtr, OpCopyDir}, 0x00, 0x0F},
		{"Accumulator", []Opcode{OpAddConst, OpAddRandom, OpAddDamage, OpAddIndex, OpSawtooth, OpQuantize, OpSine, OpPowConst}, 0x10, 0x1F},
		{"Slots", []Opcode{OpYank, OpMulSlot, OpAddSlot, OpPowSlot}, 0x20, 0x2F},
		{"Handles", []Opcode{OpLoadPtr}, 0x30, 0x3F},
	}

	for _, tt := range rangeTests {
		for _, op := range tt.ops {
			if op < tt.minRange || op > tt.maxRange {
				t.Errorf("%s opcode %s (0x%02X) is outside range [0x%02X, 0x%02X]",
					tt.name, op, op, tt.minRange, tt.maxRange)
			}
		}
	}
}

func TestOperandKinds(t *testing.T) {
	tests := []struct {
		op   Opcode
		want OperandKind
	}{
		{OpEnd, OperandNone},
		{OpStoreByte, OperandOffset},
		{OpCopyDir, OperandOffset},
		{OpQuantize, OperandFloat},
		{OpAddSlot, OperandSlot},
		{OpLoadPtr, OperandHandle},
	}

	for _, tt := range tests {
		if got := GetOpcodeInfo(tt.op).Operand; got != tt.want {
			t.Errorf("%s operand kind = %s, want %s", tt.op, got, tt.want)
		}
	}
}

func TestHandleKindString(t *testing.T) {
	tests := []struct {
		kind HandleKind
		want string
	}{
		{HandleTexture, "texture"},
		{HandleGroundFX, "groundfx"},
		{HandleColorMap, "colormap"},
		{HandleGenerator, "generator"},
		{HandleKind(99), "HandleKind(99)"},
	}

	for _, tt := range tests {
		got := tt.kind.String()
		if got != tt.want {
			t.Errorf("HandleKind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}
