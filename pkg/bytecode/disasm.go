package bytecode

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
)

// Disassemble returns a human-readable listing of the program.
func (p *Program) Disassemble() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("; === %s ===\n", p.class))
	sb.WriteString(fmt.Sprintf("; %d bytes", len(p.code)))
	if p.desc == nil {
		sb.WriteString(" [UNLINKED]")
	}
	sb.WriteString("\n")

	if len(p.handles) > 0 {
		sb.WriteString("; Handles:\n")
		for i, h := range p.handles {
			sb.WriteString(fmt.Sprintf(";   [%3d] %s %q\n", i, h.Kind, h.Name))
		}
	}

	sb.WriteString("; Code:\n")
	offset := 0
	for offset < len(p.code) {
		line, instrLen := p.disassembleInstruction(offset)
		sb.WriteString(fmt.Sprintf("%04X  %s\n", offset, line))
		offset += instrLen
	}

	return sb.String()
}

// DisassembleToLines returns the code listing as a slice of lines, without
// the header.
func (p *Program) DisassembleToLines() []string {
	var lines []string
	offset := 0
	for offset < len(p.code) {
		line, instrLen := p.disassembleInstruction(offset)
		lines = append(lines, fmt.Sprintf("%04X  %s", offset, line))
		offset += instrLen
	}
	return lines
}

// disassembleInstruction disassembles a single instruction at the given offset.
// Returns the formatted string and the instruction length.
func (p *Program) disassembleInstruction(offset int) (string, int) {
	if offset >= len(p.code) {
		return "<end of code>", 0
	}

	op := Opcode(p.code[offset])
	info := GetOpcodeInfo(op)
	instrLen := 1 + info.OperandLen

	if offset+instrLen > len(p.code) {
		return fmt.Sprintf("%s <truncated>", info.Name), len(p.code) - offset
	}

	switch info.Operand {
	case OperandOffset:
		fieldOff := binary.BigEndian.Uint16(p.code[offset+1:])
		if name := p.fieldName(op, fieldOff); name != "" {
			return fmt.Sprintf("%s %d ; %s", info.Name, fieldOff, name), instrLen
		}
		return fmt.Sprintf("%s %d", info.Name, fieldOff), instrLen

	case OperandFloat:
		k := math.Float32frombits(binary.BigEndian.Uint32(p.code[offset+1:]))
		return fmt.Sprintf("%s %g", info.Name, k), instrLen

	case OperandSlot:
		slot := int32(binary.BigEndian.Uint32(p.code[offset+1:]))
		return fmt.Sprintf("%s %d", info.Name, slot), instrLen

	case OperandHandle:
		idx := binary.BigEndian.Uint16(p.code[offset+1:])
		if int(idx) < len(p.handles) {
			h := p.handles[idx]
			return fmt.Sprintf("%s %d ; %s %q", info.Name, idx, h.Kind, h.Name), instrLen
		}
		return fmt.Sprintf("%s %d", info.Name, idx), instrLen

	default:
		return info.Name, instrLen
	}
}

// fieldName returns the diagnostic name for a field offset, or "" when the
// program is unlinked or the offset is unknown.
func (p *Program) fieldName(op Opcode, fieldOff uint16) string {
	if p.desc == nil {
		return ""
	}
	if op == OpCopyDir {
		return p.desc.VectorNameAt(fieldOff)
	}
	return p.desc.NameAt(fieldOff)
}

// InstructionCount returns the number of instructions in the program.
// Note: This iterates through all code, so it's O(n).
func (p *Program) InstructionCount() int {
	count := 0
	offset := 0
	for offset < len(p.code) {
		op := Opcode(p.code[offset])
		offset += op.InstructionLen()
		count++
	}
	return count
}
