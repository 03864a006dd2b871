// Package typemeta builds field metadata for spawnable effect types.
//
// A Descriptor records, for one registered Go struct type, the ordered
// list of configurable fields (those carrying a `ceg:"key"` tag), their
// byte offsets and kinds, and an offset-indexed table of typed setters.
// Compiled programs address fields by offset; the setter tables are the
// only way a program writes into an instance, so a stale offset becomes
// a diagnosable no-op instead of a wild write.
//
// Embedded structs are flattened: a type embedding a base contributes
// the base's tagged fields first, then its own, matching declaration
// order. Nested (non-embedded) struct and array fields expose all their
// exported members, which is what lets a single script fragment fill a
// vector component-by-component.
package typemeta

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/chazu/expgen/pkg/assets"
	"github.com/chazu/expgen/pkg/spawnable"
	"github.com/chazu/expgen/pkg/vmath"
)

// Kind classifies a configurable field.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindInt32
	KindFloat32
	KindUint8
	KindBool
	KindVec3
	KindStruct
	KindArray
	KindTexture
	KindGroundFX
	KindColorMap
	KindGenerator
)

var kindNames = map[Kind]string{
	KindInvalid:   "invalid",
	KindInt32:     "int32",
	KindFloat32:   "float32",
	KindUint8:     "uint8",
	KindBool:      "bool",
	KindVec3:      "vec3",
	KindStruct:    "struct",
	KindArray:     "array",
	KindTexture:   "texture",
	KindGroundFX:  "groundfx",
	KindColorMap:  "colormap",
	KindGenerator: "generator",
}

// String returns the kind's name.
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// IsScalar reports whether the kind takes numeric stores.
func (k Kind) IsScalar() bool {
	switch k {
	case KindInt32, KindFloat32, KindUint8, KindBool:
		return true
	}
	return false
}

// IsHandle reports whether the kind takes a resolved asset or
// generator handle.
func (k Kind) IsHandle() bool {
	switch k {
	case KindTexture, KindGroundFX, KindColorMap, KindGenerator:
		return true
	}
	return false
}

// Field describes one configurable field of a registered type. Offsets
// are absolute byte offsets from the start of the instance struct,
// including any embedding.
type Field struct {
	Name   string
	Offset uint16
	Kind   Kind

	// KindStruct and KindVec3: members in declaration order.
	Sub []Field

	// KindArray: the element shape at index 0, the element count, and
	// the element size in bytes.
	Elem   *Field
	Count  int
	Stride uint16
}

// ElemAt returns the shape of array element i, with all offsets
// shifted into place.
func (f *Field) ElemAt(i int) Field {
	return shiftField(*f.Elem, uint16(i)*f.Stride)
}

func shiftField(f Field, delta uint16) Field {
	f.Offset += delta
	if len(f.Sub) > 0 {
		sub := make([]Field, len(f.Sub))
		for i := range f.Sub {
			sub[i] = shiftField(f.Sub[i], delta)
		}
		f.Sub = sub
	}
	if f.Elem != nil {
		e := shiftField(*f.Elem, delta)
		f.Elem = &e
	}
	return f
}

// reference types used to classify fields
var (
	float3Type    = reflect.TypeOf(vmath.Float3{})
	textureType   = reflect.TypeOf((*assets.AtlasedTexture)(nil))
	groundFXType  = reflect.TypeOf((*assets.GroundFXTexture)(nil))
	colorMapType  = reflect.TypeOf((*assets.ColorMap)(nil))
	generatorType = reflect.TypeOf((*spawnable.GeneratorRef)(nil)).Elem()
)

// accessor resolves one storable location inside an instance.
type accessor struct {
	name string
	kind Kind
	get  func(base reflect.Value) reflect.Value
}

// Descriptor holds the field metadata and setter tables for one
// registered type. Descriptors are immutable after registration.
type Descriptor struct {
	name   string
	goType reflect.Type
	synced bool

	fields []Field
	byName map[string]int

	scalars map[uint16]accessor
	vectors map[uint16]accessor
	handles map[uint16]accessor
	names   map[uint16]string
}

// Name returns the registered class name.
func (d *Descriptor) Name() string { return d.name }

// GoType returns the underlying struct type.
func (d *Descriptor) GoType() reflect.Type { return d.goType }

// Synced reports whether the type is simulation state. Compiling
// programs against a synced type is refused.
func (d *Descriptor) Synced() bool { return d.synced }

// Size returns the instance size in bytes.
func (d *Descriptor) Size() int { return int(d.goType.Size()) }

// Fields returns the configurable fields in declaration order,
// base-most type first.
func (d *Descriptor) Fields() []Field { return d.fields }

// FindField looks up a configurable field by its configuration key,
// case-insensitively.
func (d *Descriptor) FindField(name string) (Field, bool) {
	i, ok := d.byName[strings.ToLower(name)]
	if !ok {
		return Field{}, false
	}
	return d.fields[i], true
}

// NameAt returns the dotted path of the scalar or handle location at
// offset, for diagnostics. Empty when nothing is addressable there.
func (d *Descriptor) NameAt(offset uint16) string {
	return d.names[offset]
}

// VectorNameAt returns the dotted path of the vector field at offset,
// or empty when no vector lives there.
func (d *Descriptor) VectorNameAt(offset uint16) string {
	return d.vectors[offset].name
}

func newDescriptor(name string, prototype any, synced bool) (*Descriptor, error) {
	t := reflect.TypeOf(prototype)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("typemeta: %s: prototype must be a struct or pointer to struct", name)
	}
	if t.Size() > 0xFFFF {
		return nil, fmt.Errorf("typemeta: %s: %d bytes exceeds the 16-bit offset range", name, t.Size())
	}

	d := &Descriptor{
		name:    name,
		goType:  t,
		synced:  synced,
		byName:  map[string]int{},
		scalars: map[uint16]accessor{},
		vectors: map[uint16]accessor{},
		handles: map[uint16]accessor{},
		names:   map[uint16]string{},
	}

	identity := func(v reflect.Value) reflect.Value { return v }
	if err := d.walkTop(t, 0, identity); err != nil {
		return nil, err
	}
	return d, nil
}

// walkTop collects the tagged fields of t. Embedded structs are
// flattened in place, so base fields come first.
func (d *Descriptor) walkTop(t reflect.Type, base uintptr, path func(reflect.Value) reflect.Value) error {
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}

		tag := sf.Tag.Get("ceg")
		if sf.Anonymous && sf.Type.Kind() == reflect.Struct && tag == "" {
			idx := i
			sub := func(v reflect.Value) reflect.Value { return path(v).Field(idx) }
			if err := d.walkTop(sf.Type, base+sf.Offset, sub); err != nil {
				return err
			}
			continue
		}
		if tag == "" || tag == "-" {
			continue
		}

		key := strings.ToLower(tag)
		if _, dup := d.byName[key]; dup {
			return fmt.Errorf("typemeta: %s: duplicate configuration key %q", d.name, key)
		}

		idx := i
		sub := func(v reflect.Value) reflect.Value { return path(v).Field(idx) }
		field, err := d.buildField(key, sf.Type, base+sf.Offset, key, sub)
		if err != nil {
			return err
		}
		d.byName[key] = len(d.fields)
		d.fields = append(d.fields, field)
	}
	return nil
}

// buildField classifies one field, registers its accessors, and
// returns its shape.
func (d *Descriptor) buildField(name string, t reflect.Type, off uintptr, dotted string, path func(reflect.Value) reflect.Value) (Field, error) {
	if off > 0xFFFF {
		return Field{}, fmt.Errorf("typemeta: %s.%s: offset %d exceeds the 16-bit range", d.name, dotted, off)
	}
	field := Field{Name: name, Offset: uint16(off)}

	switch {
	case t == float3Type:
		field.Kind = KindVec3
		d.vectors[field.Offset] = accessor{name: dotted, kind: KindVec3, get: path}
		if err := d.buildMembers(&field, t, off, dotted, path); err != nil {
			return Field{}, err
		}

	case t == textureType:
		field.Kind = KindTexture
		d.addHandle(field.Offset, dotted, KindTexture, path)

	case t == groundFXType:
		field.Kind = KindGroundFX
		d.addHandle(field.Offset, dotted, KindGroundFX, path)

	case t == colorMapType:
		field.Kind = KindColorMap
		d.addHandle(field.Offset, dotted, KindColorMap, path)

	case t == generatorType:
		field.Kind = KindGenerator
		d.addHandle(field.Offset, dotted, KindGenerator, path)

	case t.Kind() == reflect.Int32:
		field.Kind = KindInt32
		d.addScalar(field.Offset, dotted, KindInt32, path)

	case t.Kind() == reflect.Float32:
		field.Kind = KindFloat32
		d.addScalar(field.Offset, dotted, KindFloat32, path)

	case t.Kind() == reflect.Uint8:
		field.Kind = KindUint8
		d.addScalar(field.Offset, dotted, KindUint8, path)

	case t.Kind() == reflect.Bool:
		field.Kind = KindBool
		d.addScalar(field.Offset, dotted, KindBool, path)

	case t.Kind() == reflect.Struct:
		field.Kind = KindStruct
		if err := d.buildMembers(&field, t, off, dotted, path); err != nil {
			return Field{}, err
		}

	case t.Kind() == reflect.Array:
		field.Kind = KindArray
		field.Count = t.Len()
		stride := t.Elem().Size()
		if stride > 0xFFFF {
			return Field{}, fmt.Errorf("typemeta: %s.%s: element size %d exceeds the 16-bit range", d.name, dotted, stride)
		}
		field.Stride = uint16(stride)
		for i := 0; i < t.Len(); i++ {
			idx := i
			sub := func(v reflect.Value) reflect.Value { return path(v).Index(idx) }
			elem, err := d.buildField(name, t.Elem(), off+uintptr(i)*stride, fmt.Sprintf("%s[%d]", dotted, i), sub)
			if err != nil {
				return Field{}, err
			}
			if i == 0 {
				field.Elem = &elem
			}
		}

	default:
		// Recorded so struct splitting still assigns it a slot; any
		// script that lands here compiles to nothing.
		field.Kind = KindInvalid
	}

	return field, nil
}

// buildMembers fills Sub with every exported member of a nested struct,
// tagged or not.
func (d *Descriptor) buildMembers(field *Field, t reflect.Type, base uintptr, dotted string, path func(reflect.Value) reflect.Value) error {
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		name := strings.ToLower(sf.Name)
		if tag := sf.Tag.Get("ceg"); tag != "" && tag != "-" {
			name = strings.ToLower(tag)
		}
		idx := i
		sub := func(v reflect.Value) reflect.Value { return path(v).Field(idx) }
		member, err := d.buildField(name, sf.Type, base+sf.Offset, dotted+"."+name, sub)
		if err != nil {
			return err
		}
		field.Sub = append(field.Sub, member)
	}
	return nil
}

func (d *Descriptor) addScalar(off uint16, dotted string, kind Kind, path func(reflect.Value) reflect.Value) {
	d.scalars[off] = accessor{name: dotted, kind: kind, get: path}
	d.names[off] = dotted
}

func (d *Descriptor) addHandle(off uint16, dotted string, kind Kind, path func(reflect.Value) reflect.Value) {
	d.handles[off] = accessor{name: dotted, kind: kind, get: path}
	d.names[off] = dotted
}
