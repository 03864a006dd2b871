package typemeta

import (
	"fmt"
	"reflect"

	"github.com/chazu/expgen/pkg/vmath"
)

// Instance is a freshly allocated value of a registered type, writable
// through the descriptor's setter tables.
type Instance struct {
	desc *Descriptor
	val  reflect.Value
}

// NewInstance allocates a zero instance of the described type.
func (d *Descriptor) NewInstance() *Instance {
	return &Instance{desc: d, val: reflect.New(d.goType).Elem()}
}

// Descriptor returns the type this instance was created from.
func (in *Instance) Descriptor() *Descriptor { return in.desc }

// Interface returns the instance as a pointer to its struct type, for
// handing to spawn pipelines.
func (in *Instance) Interface() any {
	return in.val.Addr().Interface()
}

// SetScalar stores a numeric value into the scalar field at offset,
// converting by the field's kind: int32 and uint8 truncate toward
// zero, uint8 additionally wraps, bool is non-zero after truncation.
func (in *Instance) SetScalar(offset uint16, val float32) error {
	acc, ok := in.desc.scalars[offset]
	if !ok {
		return fmt.Errorf("typemeta: %s has no scalar field at offset %d", in.desc.name, offset)
	}
	f := acc.get(in.val)
	switch acc.kind {
	case KindInt32:
		f.SetInt(int64(int32(val)))
	case KindFloat32:
		f.SetFloat(float64(val))
	case KindUint8:
		f.SetUint(uint64(uint8(int32(val))))
	case KindBool:
		f.SetBool(int32(val) != 0)
	}
	return nil
}

// SetHandle stores a resolved asset or generator handle into the field
// at offset. A nil handle clears the field.
func (in *Instance) SetHandle(offset uint16, ref any) error {
	acc, ok := in.desc.handles[offset]
	if !ok {
		return fmt.Errorf("typemeta: %s has no handle field at offset %d", in.desc.name, offset)
	}
	f := acc.get(in.val)
	if ref == nil {
		f.Set(reflect.Zero(f.Type()))
		return nil
	}
	rv := reflect.ValueOf(ref)
	if !rv.Type().AssignableTo(f.Type()) {
		return fmt.Errorf("typemeta: %s.%s: cannot store %T into %s field", in.desc.name, acc.name, ref, acc.kind)
	}
	f.Set(rv)
	return nil
}

// SetVector stores a 3-vector into the vector field at offset.
func (in *Instance) SetVector(offset uint16, v vmath.Float3) error {
	acc, ok := in.desc.vectors[offset]
	if !ok {
		return fmt.Errorf("typemeta: %s has no vector field at offset %d", in.desc.name, offset)
	}
	acc.get(in.val).Set(reflect.ValueOf(v))
	return nil
}
