package bytecode

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/chazu/expgen/pkg/typemeta"
	"github.com/chazu/expgen/pkg/vmath"
)

// ExecEnv carries the per-explosion inputs a program reads while it runs.
type ExecEnv struct {
	Damage     float32        // Explosion damage feeding ADD_DAMAGE
	SpawnIndex int            // Index of this spawn within its entry, feeding ADD_INDEX
	Direction  vmath.Float3   // Explosion direction copied by COPY_DIR
	Rand       func() float32 // Uniform source in [0,1); nil uses the process-wide default
}

func (e ExecEnv) randFloat() float32 {
	if e.Rand != nil {
		return e.Rand()
	}
	return rand.Float32()
}

// Execute runs a program against one freshly allocated instance. The
// accumulator, the handle register, and the scratch slots all start at
// zero, so one program may run concurrently against distinct instances.
//
// Stores to offsets the descriptor does not know are logged and skipped;
// structural faults in the code itself (unknown opcodes, truncated
// operands, a missing END) abort with an error.
func Execute(prog *Program, inst *typemeta.Instance, env ExecEnv) error {
	if prog == nil {
		return fmt.Errorf("bytecode: nil program")
	}
	if prog.desc == nil {
		return fmt.Errorf("bytecode: program for %s is not linked", prog.class)
	}
	if inst == nil || inst.Descriptor() != prog.desc {
		return fmt.Errorf("bytecode: instance does not match program class %s", prog.class)
	}

	var (
		acc   float32
		href  any
		slots [NumSlots]float32
	)

	code := prog.code
	ip := 0

	for ip < len(code) {
		op := Opcode(code[ip])
		ip++

		info, ok := opcodeInfoTable[op]
		if !ok {
			return fmt.Errorf("bytecode: unknown opcode 0x%02X at offset %d", byte(op), ip-1)
		}
		if ip+info.OperandLen > len(code) {
			return fmt.Errorf("bytecode: truncated %s operand at offset %d", info.Name, ip-1)
		}

		switch op {
		case OpEnd:
			return nil

		case OpStoreInt, OpStoreFloat, OpStoreByte:
			off := binary.BigEndian.Uint16(code[ip:])
			ip += 2
			if err := inst.SetScalar(off, acc); err != nil {
				log.Warningf("%s: %s", prog.class, err.Error())
			}
			acc = 0

		case OpStorePtr:
			off := binary.BigEndian.Uint16(code[ip:])
			ip += 2
			if err := inst.SetHandle(off, href); err != nil {
				log.Warningf("%s: %s", prog.class, err.Error())
			}
			href = nil

		case OpCopyDir:
			off := binary.BigEndian.Uint16(code[ip:])
			ip += 2
			if err := inst.SetVector(off, env.Direction); err != nil {
				log.Warningf("%s: %s", prog.class, err.Error())
			}

		case OpAddConst:
			acc += readF32(code, ip)
			ip += 4

		case OpAddRandom:
			acc += env.randFloat() * readF32(code, ip)
			ip += 4

		case OpAddDamage:
			acc += env.Damage * readF32(code, ip)
			ip += 4

		case OpAddIndex:
			acc += float32(env.SpawnIndex) * readF32(code, ip)
			ip += 4

		case OpSawtooth:
			k := readF32(code, ip)
			ip += 4
			acc -= k * floor32(acc/k)

		case OpQuantize:
			k := readF32(code, ip)
			ip += 4
			acc = k * floor32(safeDivide(acc, k))

		case OpSine:
			k := readF32(code, ip)
			ip += 4
			acc = k * sin32(acc)

		case OpPowConst:
			acc = pow32(acc, readF32(code, ip))
			ip += 4

		case OpYank, OpMulSlot, OpAddSlot, OpPowSlot:
			i := int32(binary.BigEndian.Uint32(code[ip:]))
			ip += 4
			if i < 0 || i >= NumSlots {
				return fmt.Errorf("bytecode: slot index %d out of range at offset %d", i, ip-5)
			}
			switch op {
			case OpYank:
				slots[i] = acc
				acc = 0
			case OpMulSlot:
				acc *= slots[i]
			case OpAddSlot:
				acc += slots[i]
			case OpPowSlot:
				acc = pow32(acc, slots[i])
			}

		case OpLoadPtr:
			idx := binary.BigEndian.Uint16(code[ip:])
			ip += 2
			if int(idx) >= len(prog.handles) {
				return fmt.Errorf("bytecode: handle index %d out of range at offset %d", idx, ip-3)
			}
			href = prog.handles[idx].Ref
		}
	}

	return fmt.Errorf("bytecode: program for %s does not end with END", prog.class)
}

func readF32(code []byte, ip int) float32 {
	return math.Float32frombits(binary.BigEndian.Uint32(code[ip:]))
}

func floor32(v float32) float32 { return float32(math.Floor(float64(v))) }

func sin32(v float32) float32 { return float32(math.Sin(float64(v))) }

func pow32(b, e float32) float32 { return float32(math.Pow(float64(b), float64(e))) }

// safeDivide returns a/b, or 0 when b is 0.
func safeDivide(a, b float32) float32 {
	if b == 0 {
		return 0
	}
	return a / b
}
