package bytecode

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/chazu/expgen/pkg/typemeta"
)

// cborEncMode is the canonical CBOR encoding mode, so identical programs
// serialize to identical bytes.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("bytecode: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// HandleImage is the serializable form of a handle table entry. Only the
// kind and the source name survive serialization; the resolved reference is
// rebuilt by Relink.
type HandleImage struct {
	Kind HandleKind `cbor:"kind"`
	Name string     `cbor:"name"`
}

// ProgramImage is the serializable form of a Program.
type ProgramImage struct {
	Class   string        `cbor:"class"`
	Code    []byte        `cbor:"code"`
	Handles []HandleImage `cbor:"handles,omitempty"`
}

// Image returns the serializable form of the program.
func (p *Program) Image() ProgramImage {
	img := ProgramImage{
		Class: p.class,
		Code:  append([]byte(nil), p.code...),
	}
	for _, h := range p.handles {
		img.Handles = append(img.Handles, HandleImage{Kind: h.Kind, Name: h.Name})
	}
	return img
}

// FromImage rebuilds a program from its serialized form and validates the
// code. The result is unlinked: Relink must run before execution.
func FromImage(img ProgramImage) (*Program, error) {
	p := &Program{
		class: img.Class,
		code:  img.Code,
	}
	for _, h := range img.Handles {
		p.handles = append(p.handles, Handle{Kind: h.Kind, Name: h.Name})
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("bytecode: invalid program for %s: %w", img.Class, err)
	}
	return p, nil
}

// MarshalProgram serializes a Program to CBOR bytes.
func MarshalProgram(p *Program) ([]byte, error) {
	return cborEncMode.Marshal(p.Image())
}

// UnmarshalProgram deserializes a Program from CBOR bytes. The result is
// unlinked: Relink must run before execution.
func UnmarshalProgram(data []byte) (*Program, error) {
	var img ProgramImage
	if err := cbor.Unmarshal(data, &img); err != nil {
		return nil, fmt.Errorf("bytecode: unmarshal program: %w", err)
	}
	return FromImage(img)
}

// Relink attaches a decoded program to its class descriptor and re-resolves
// the handle table. Every handle must resolve; a partial relink would leave
// stale references behind.
func (p *Program) Relink(desc *typemeta.Descriptor, res Resolver) error {
	if desc == nil || desc.Name() != p.class {
		return fmt.Errorf("bytecode: descriptor does not match program class %s", p.class)
	}
	if len(p.handles) > 0 && res == nil {
		return fmt.Errorf("bytecode: program for %s has handles but no resolver", p.class)
	}

	for i := range p.handles {
		h := &p.handles[i]

		var (
			ref any
			err error
		)
		switch h.Kind {
		case HandleTexture:
			ref, err = res.ResolveTexture(h.Name)
		case HandleGroundFX:
			ref, err = res.ResolveGroundFX(h.Name)
		case HandleColorMap:
			ref, err = res.ResolveColorMap(h.Name)
		case HandleGenerator:
			ref, err = res.ResolveGenerator(h.Name)
		default:
			return fmt.Errorf("bytecode: unknown handle kind %d", h.Kind)
		}
		if err != nil {
			return fmt.Errorf("bytecode: relink %s %q: %w", h.Kind, h.Name, err)
		}
		h.Ref = ref
	}

	p.desc = desc
	return nil
}
