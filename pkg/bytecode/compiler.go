package bytecode

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tliron/commonlog"

	"github.com/chazu/expgen/pkg/assets"
	"github.com/chazu/expgen/pkg/spawnable"
	"github.com/chazu/expgen/pkg/typemeta"
)

var log = commonlog.GetLogger("expgen.bytecode")

// Resolver supplies named references while a program is being compiled.
// Resolution happens once, at compile time; the results live in the
// program's handle table.
type Resolver interface {
	// ResolveTexture returns the projectile atlas entry for a texture name.
	ResolveTexture(name string) (*assets.AtlasedTexture, error)

	// ResolveGroundFX returns the ground effects atlas entry for a texture name.
	ResolveGroundFX(name string) (*assets.GroundFXTexture, error)

	// ResolveColorMap builds or fetches a color map from a definition string.
	ResolveColorMap(def string) (*assets.ColorMap, error)

	// ResolveGenerator loads the nested explosion generator named by tag.
	ResolveGenerator(tag string) (spawnable.GeneratorRef, error)
}

// Compiler translates per-field expression scripts into one program for a
// spawn entry. Call CompileField once per configured field, then Finish.
type Compiler struct {
	desc *typemeta.Descriptor
	res  Resolver
	prog *Program
}

// NewCompiler starts a program for the given projectile class.
// Classes marked simulation-synced cannot be spawned by effect programs
// and are rejected here.
func NewCompiler(desc *typemeta.Descriptor, res Resolver) (*Compiler, error) {
	if desc == nil {
		return nil, fmt.Errorf("bytecode: nil descriptor")
	}
	if res == nil {
		return nil, fmt.Errorf("bytecode: nil resolver")
	}
	if desc.Synced() {
		return nil, fmt.Errorf("bytecode: class %s is simulation-synced and cannot be spawned", desc.Name())
	}
	return &Compiler{
		desc: desc,
		res:  res,
		prog: &Program{
			class: desc.Name(),
			desc:  desc,
			code:  make([]byte, 0, 64),
		},
	}, nil
}

// CompileField appends the instructions for one configured field. The field
// must come from the descriptor the compiler was created with. An error
// poisons the whole program; the caller should discard the compiler.
func (c *Compiler) CompileField(f typemeta.Field, script string) error {
	if c.prog == nil {
		return fmt.Errorf("bytecode: compiler already finished")
	}
	return c.compile(f, script)
}

// Finish terminates the program with END and returns it.
// The compiler cannot be reused afterwards.
func (c *Compiler) Finish() *Program {
	p := c.prog
	c.prog = nil
	p.emit(OpEnd)
	return p
}

func (c *Compiler) compile(f typemeta.Field, script string) error {
	// Keywords are matched before anything else, on the script up to the
	// first ';', and for any field kind. A direction store that lands on
	// a non-vector offset is refused by the accessor table at run time.
	if firstSegment(script) == "dir" {
		c.prog.emitOffset(OpCopyDir, f.Offset)
		return nil
	}

	switch f.Kind {
	case typemeta.KindInt32, typemeta.KindFloat32, typemeta.KindUint8, typemeta.KindBool:
		return c.compileScalar(f, script)
	case typemeta.KindVec3, typemeta.KindStruct, typemeta.KindArray:
		return c.compileMembers(flattenMembers(f), script)
	case typemeta.KindTexture, typemeta.KindGroundFX, typemeta.KindColorMap, typemeta.KindGenerator:
		return c.compileHandle(f, script)
	default:
		// Unscriptable kinds consume their fragment and emit nothing.
		return nil
	}
}

// compileMembers distributes the comma-separated sub-scripts of a composite
// field over its flattened members, in order. A script with fewer
// sub-scripts than members leaves the remaining members zero; extra
// sub-scripts are ignored.
func (c *Compiler) compileMembers(members []typemeta.Field, script string) error {
	frags := strings.Split(script, ",")
	for i, m := range members {
		if i >= len(frags) {
			break
		}
		if err := c.compile(m, frags[i]); err != nil {
			return err
		}
	}
	return nil
}

// flattenMembers expands vector, struct, and array fields into their scalar
// and handle leaves in declaration order.
func flattenMembers(f typemeta.Field) []typemeta.Field {
	switch f.Kind {
	case typemeta.KindVec3, typemeta.KindStruct:
		var out []typemeta.Field
		for _, m := range f.Sub {
			out = append(out, flattenMembers(m)...)
		}
		return out
	case typemeta.KindArray:
		var out []typemeta.Field
		for i := 0; i < f.Count; i++ {
			e := f.ElemAt(i)
			out = append(out, flattenMembers(e)...)
		}
		return out
	default:
		return []typemeta.Field{f}
	}
}

// compileScalar runs the operator scan over one scalar script and closes it
// with the store matching the field's type.
//
// Each operator character selects an opcode and consumes the number that
// follows it. A digit, '.', or '-' starts a plain constant. Spaces separate
// tokens, unknown characters are skipped with a warning, and an operator at
// the very end of the script, with nothing after it, emits no instruction.
func (c *Compiler) compileScalar(f typemeta.Field, script string) error {
	for p := 0; p < len(script); {
		ch := script[p]
		p++

		if ch == ' ' {
			continue
		}

		var op Opcode
		intOperand := false

		switch ch {
		case 'i':
			op = OpAddIndex
		case 'r':
			op = OpAddRandom
		case 'd':
			op = OpAddDamage
		case 'm':
			op = OpSawtooth
		case 'k':
			op = OpQuantize
		case 's':
			op = OpSine
		case 'p':
			op = OpPowConst
		case 'y':
			op, intOperand = OpYank, true
		case 'x':
			op, intOperand = OpMulSlot, true
		case 'a':
			op, intOperand = OpAddSlot, true
		case 'q':
			op, intOperand = OpPowSlot, true
		default:
			if isDigit(ch) || ch == '.' || ch == '-' {
				op = OpAddConst
				p--
			} else {
				log.Warningf("unknown op-code %q in %q at index %d", string(ch), script, p-1)
				continue
			}
		}

		// An operator with no operand bytes left emits nothing.
		if p >= len(script) {
			continue
		}

		if intOperand {
			v, next := scanInt(script, p)
			p = next
			if v < 0 {
				v = 0
			} else if v >= NumSlots {
				v = NumSlots - 1
			}
			c.prog.emitSlot(op, v)
		} else {
			v, next := scanFloat(script, p)
			if op == OpAddConst && next == p {
				// A lone sign or dot never converts. Skip it so the
				// scan keeps moving.
				log.Warningf("missing numeric operand in %q at index %d", script, p)
				p++
				continue
			}
			p = next
			c.prog.emitFloat(op, v)
		}
	}

	switch f.Kind {
	case typemeta.KindInt32, typemeta.KindBool:
		c.prog.emitOffset(OpStoreInt, f.Offset)
	case typemeta.KindFloat32:
		c.prog.emitOffset(OpStoreFloat, f.Offset)
	case typemeta.KindUint8:
		c.prog.emitOffset(OpStoreByte, f.Offset)
	}
	return nil
}

// compileHandle resolves a named reference and emits the load/store pair for
// it. The name runs up to the first ';'. A reference that fails to resolve
// is skipped with a warning and the field keeps its zero value.
func (c *Compiler) compileHandle(f typemeta.Field, script string) error {
	name := firstSegment(script)

	var (
		kind HandleKind
		ref  any
		err  error
	)
	switch f.Kind {
	case typemeta.KindTexture:
		kind = HandleTexture
		ref, err = c.res.ResolveTexture(name)
	case typemeta.KindGroundFX:
		kind = HandleGroundFX
		ref, err = c.res.ResolveGroundFX(name)
	case typemeta.KindColorMap:
		kind = HandleColorMap
		ref, err = c.res.ResolveColorMap(name)
	case typemeta.KindGenerator:
		kind = HandleGenerator
		ref, err = c.res.ResolveGenerator(name)
	}
	if err != nil {
		log.Warningf("cannot resolve %s %q for field %q of %s: %s",
			kind, name, f.Name, c.desc.Name(), err.Error())
		return nil
	}

	idx, err := c.prog.addHandle(kind, name, ref)
	if err != nil {
		return err
	}
	c.prog.emitOffset(OpLoadPtr, idx)
	c.prog.emitOffset(OpStorePtr, f.Offset)
	return nil
}

// firstSegment returns the script up to the first ';'.
func firstSegment(script string) string {
	if i := strings.IndexByte(script, ';'); i >= 0 {
		return script[:i]
	}
	return script
}

func isDigit(ch byte) bool { return ch >= '0' && ch <= '9' }

func isSpace(ch byte) bool {
	switch ch {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}

// scanFloat parses the longest numeric prefix of s starting at p, after
// optional whitespace. It returns the parsed value and the index of the
// first unconsumed byte. When nothing converts it returns next == p.
func scanFloat(s string, p int) (float32, int) {
	i := p
	for i < len(s) && isSpace(s[i]) {
		i++
	}
	j := i
	if j < len(s) && (s[j] == '+' || s[j] == '-') {
		j++
	}
	digits := false
	for j < len(s) && isDigit(s[j]) {
		j++
		digits = true
	}
	if j < len(s) && s[j] == '.' {
		j++
		for j < len(s) && isDigit(s[j]) {
			j++
			digits = true
		}
	}
	if !digits {
		return 0, p
	}
	// An exponent only counts when at least one digit follows it.
	if j < len(s) && (s[j] == 'e' || s[j] == 'E') {
		k := j + 1
		if k < len(s) && (s[k] == '+' || s[k] == '-') {
			k++
		}
		if k < len(s) && isDigit(s[k]) {
			for k < len(s) && isDigit(s[k]) {
				k++
			}
			j = k
		}
	}
	v, err := strconv.ParseFloat(s[i:j], 32)
	if err != nil {
		return 0, p
	}
	return float32(v), j
}

// scanInt parses the longest base-10 integer prefix of s starting at p,
// after optional whitespace. It returns the parsed value and the index of
// the first unconsumed byte. When nothing converts it returns next == p.
func scanInt(s string, p int) (int32, int) {
	i := p
	for i < len(s) && isSpace(s[i]) {
		i++
	}
	j := i
	if j < len(s) && (s[j] == '+' || s[j] == '-') {
		j++
	}
	d := j
	for j < len(s) && isDigit(s[j]) {
		j++
	}
	if j == d {
		return 0, p
	}
	v, err := strconv.ParseInt(s[i:j], 10, 32)
	if err != nil {
		// Out of int32 range; saturate the way strtol does.
		if s[i] == '-' {
			return -1 << 31, j
		}
		return 1<<31 - 1, j
	}
	return int32(v), j
}
