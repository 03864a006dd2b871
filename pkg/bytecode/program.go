package bytecode

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/chazu/expgen/pkg/typemeta"
)

// NumSlots is the number of scratch slots available to a running program.
const NumSlots = 16

// HandleKind identifies what a handle table entry refers to.
type HandleKind uint8

const (
	// HandleTexture is an entry resolved from the projectile texture atlas.
	HandleTexture HandleKind = 0

	// HandleGroundFX is an entry resolved from the ground effects atlas.
	HandleGroundFX HandleKind = 1

	// HandleColorMap is a color map built from its definition string.
	HandleColorMap HandleKind = 2

	// HandleGenerator is a nested explosion generator loaded by tag.
	HandleGenerator HandleKind = 3
)

// String returns a human-readable name for HandleKind.
func (k HandleKind) String() string {
	switch k {
	case HandleTexture:
		return "texture"
	case HandleGroundFX:
		return "groundfx"
	case HandleColorMap:
		return "colormap"
	case HandleGenerator:
		return "generator"
	default:
		return fmt.Sprintf("HandleKind(%d)", k)
	}
}

// Handle is one entry in a program's reference side table. OpLoadPtr
// instructions name entries by index, so the code itself never carries
// machine pointers.
type Handle struct {
	Kind HandleKind // What the entry refers to
	Name string     // Source token the reference was resolved from
	Ref  any        // Resolved object; nil after decoding until relinked
}

// Program is a compiled spawn-entry filler: the instruction bytes, the class
// descriptor the field offsets were compiled against, and the handle side
// table. A program holds no per-run state and may execute concurrently.
type Program struct {
	class   string
	desc    *typemeta.Descriptor
	code    []byte
	handles []Handle
}

// Class returns the projectile class name the program was compiled for.
func (p *Program) Class() string { return p.class }

// Descriptor returns the class descriptor the program's offsets refer to.
// It is nil for a freshly decoded program until Relink is called.
func (p *Program) Descriptor() *typemeta.Descriptor { return p.desc }

// Code returns the raw instruction bytes.
func (p *Program) Code() []byte { return p.code }

// CodeLen returns the length of the instruction bytes.
func (p *Program) CodeLen() int { return len(p.code) }

// Handles returns the reference side table.
func (p *Program) Handles() []Handle { return p.handles }

// emit appends a bare opcode.
func (p *Program) emit(op Opcode) {
	p.code = append(p.code, byte(op))
}

// emitOffset appends an opcode with a u16 field offset operand.
func (p *Program) emitOffset(op Opcode, offset uint16) {
	p.code = append(p.code, byte(op))
	p.code = binary.BigEndian.AppendUint16(p.code, offset)
}

// emitFloat appends an opcode with an f32 constant operand.
func (p *Program) emitFloat(op Opcode, k float32) {
	p.code = append(p.code, byte(op))
	p.code = binary.BigEndian.AppendUint32(p.code, math.Float32bits(k))
}

// emitSlot appends an opcode with an i32 slot index operand.
func (p *Program) emitSlot(op Opcode, slot int32) {
	p.code = append(p.code, byte(op))
	p.code = binary.BigEndian.AppendUint32(p.code, uint32(slot))
}

// addHandle appends a side table entry and returns its index.
func (p *Program) addHandle(kind HandleKind, name string, ref any) (uint16, error) {
	if len(p.handles) > math.MaxUint16 {
		return 0, fmt.Errorf("bytecode: handle table full (%d entries)", len(p.handles))
	}
	idx := uint16(len(p.handles))
	p.handles = append(p.handles, Handle{Kind: kind, Name: name, Ref: ref})
	return idx, nil
}

// Validate walks the instruction bytes and checks static well-formedness:
// every opcode is known, every operand is complete, handle indices stay
// inside the side table, and the last instruction is END. It does not check
// field offsets; those are only meaningful against the descriptor.
func (p *Program) Validate() error {
	ip := 0
	for ip < len(p.code) {
		op := Opcode(p.code[ip])
		info, ok := opcodeInfoTable[op]
		if !ok {
			return fmt.Errorf("bytecode: unknown opcode 0x%02X at offset %d", byte(op), ip)
		}
		if ip+1+info.OperandLen > len(p.code) {
			return fmt.Errorf("bytecode: truncated %s operand at offset %d", info.Name, ip)
		}
		switch info.Operand {
		case OperandHandle:
			idx := binary.BigEndian.Uint16(p.code[ip+1:])
			if int(idx) >= len(p.handles) {
				return fmt.Errorf("bytecode: handle index %d out of range at offset %d", idx, ip)
			}
		case OperandSlot:
			slot := int32(binary.BigEndian.Uint32(p.code[ip+1:]))
			if slot < 0 || slot >= NumSlots {
				return fmt.Errorf("bytecode: slot index %d out of range at offset %d", slot, ip)
			}
		}
		if op == OpEnd {
			if ip+1 != len(p.code) {
				return fmt.Errorf("bytecode: %d trailing bytes after END", len(p.code)-ip-1)
			}
			return nil
		}
		ip += 1 + info.OperandLen
	}
	return fmt.Errorf("bytecode: program does not end with END")
}
