package bytecode

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/chazu/expgen/pkg/typemeta"
)

func TestProgramRoundTrip(t *testing.T) {
	d := testDescriptor(t)
	res := newStubResolver()
	c, err := NewCompiler(d, res)
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range []struct{ field, script string }{
		{"pos", "r4 -2,0,r4 -2"},
		{"size", "d0.05"},
		{"texture", "flare"},
		{"explosiongenerator", "custom:chain"},
	} {
		if err := c.CompileField(testField(t, d, s.field), s.script); err != nil {
			t.Fatal(err)
		}
	}
	orig := c.Finish()

	data, err := MarshalProgram(orig)
	if err != nil {
		t.Fatalf("MarshalProgram: %v", err)
	}
	back, err := UnmarshalProgram(data)
	if err != nil {
		t.Fatalf("UnmarshalProgram: %v", err)
	}

	if back.Class() != orig.Class() {
		t.Errorf("class: got %q, want %q", back.Class(), orig.Class())
	}
	if !bytes.Equal(back.Code(), orig.Code()) {
		t.Error("code bytes changed across the round trip")
	}
	if back.Descriptor() != nil {
		t.Error("decoded program should be unlinked")
	}

	origHandles := orig.Handles()
	backHandles := back.Handles()
	if len(backHandles) != len(origHandles) {
		t.Fatalf("handles: got %d, want %d", len(backHandles), len(origHandles))
	}
	for i := range backHandles {
		if backHandles[i].Kind != origHandles[i].Kind || backHandles[i].Name != origHandles[i].Name {
			t.Errorf("handle %d: got %+v", i, backHandles[i])
		}
		if backHandles[i].Ref != nil {
			t.Errorf("handle %d: reference should not survive serialization", i)
		}
	}

	// Unlinked programs refuse to run.
	if err := Execute(back, d.NewInstance(), ExecEnv{}); err == nil {
		t.Error("unlinked program should not execute")
	}

	if err := back.Relink(d, res); err != nil {
		t.Fatalf("Relink: %v", err)
	}
	inst := d.NewInstance()
	if err := Execute(back, inst, ExecEnv{Damage: 100}); err != nil {
		t.Fatalf("Execute after relink: %v", err)
	}
	e := inst.Interface().(*testParticle)
	if e.Size != 5 {
		t.Errorf("Size = %v, want 5", e.Size)
	}
	if e.Texture != res.tex {
		t.Error("texture handle not restored by relink")
	}
	if e.Next != res.gen {
		t.Error("generator handle not restored by relink")
	}
}

func TestMarshalDeterministic(t *testing.T) {
	prog := compileOne(t, "size", "d0.5 r2")

	a, err := MarshalProgram(prog)
	if err != nil {
		t.Fatal(err)
	}
	b, err := MarshalProgram(prog)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a, b) {
		t.Error("canonical encoding must be byte-stable")
	}
}

func TestRelinkWrongDescriptor(t *testing.T) {
	prog, err := FromImage(compileOne(t, "size", "1").Image())
	if err != nil {
		t.Fatal(err)
	}

	other, err := newTestRegistryDescriptor("SomethingElse")
	if err != nil {
		t.Fatal(err)
	}
	if err := prog.Relink(other, newStubResolver()); err == nil {
		t.Error("relink against a foreign descriptor should fail")
	}
	if err := prog.Relink(nil, newStubResolver()); err == nil {
		t.Error("relink against nil descriptor should fail")
	}
}

func TestRelinkResolverFailure(t *testing.T) {
	d := testDescriptor(t)
	c, err := NewCompiler(d, newStubResolver())
	if err != nil {
		t.Fatal(err)
	}
	if err := c.CompileField(testField(t, d, "texture"), "flare"); err != nil {
		t.Fatal(err)
	}
	prog, err := FromImage(c.Finish().Image())
	if err != nil {
		t.Fatal(err)
	}

	res := newStubResolver()
	res.texErr = fmt.Errorf("atlas gone")
	if err := prog.Relink(d, res); err == nil {
		t.Error("relink must fail when a handle cannot resolve")
	}
	if prog.Descriptor() != nil {
		t.Error("failed relink should leave the program unlinked")
	}
}

func TestFromImageValidates(t *testing.T) {
	_, err := FromImage(ProgramImage{Class: "X", Code: []byte{0xEE}})
	if err == nil {
		t.Error("image with bad code should be rejected")
	}

	_, err = FromImage(ProgramImage{
		Class: "X",
		Code:  []byte{byte(OpLoadPtr), 0, 0, byte(OpEnd)},
	})
	if err == nil {
		t.Error("handle reference without a table entry should be rejected")
	}
}

func TestUnmarshalGarbage(t *testing.T) {
	if _, err := UnmarshalProgram([]byte{0xFF, 0x00, 0x13}); err == nil {
		t.Error("garbage bytes should not decode")
	}
}

// newTestRegistryDescriptor registers a one-field class under the given name.
func newTestRegistryDescriptor(name string) (*typemeta.Descriptor, error) {
	type oneField struct {
		X float32 `ceg:"x"`
	}
	return typemeta.NewRegistry().Register(name, &oneField{})
}
