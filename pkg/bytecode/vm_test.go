package bytecode

import (
	"math"
	"testing"

	"github.com/chazu/expgen/pkg/typemeta"
	"github.com/chazu/expgen/pkg/vmath"
)

func almostEqual(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-5
}

// runScript compiles one field script and executes it against a fresh
// instance, returning the filled struct.
func runScript(t *testing.T, field, script string, env ExecEnv) *testParticle {
	t.Helper()
	d := testDescriptor(t)
	c, err := NewCompiler(d, newStubResolver())
	if err != nil {
		t.Fatal(err)
	}
	if err := c.CompileField(testField(t, d, field), script); err != nil {
		t.Fatal(err)
	}
	prog := c.Finish()

	inst := d.NewInstance()
	if err := Execute(prog, inst, env); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	return inst.Interface().(*testParticle)
}

// ============================================================
// Accumulator arithmetic
// ============================================================

func TestExecuteDamage(t *testing.T) {
	e := runScript(t, "size", "d0.5", ExecEnv{Damage: 100})
	if e.Size != 50 {
		t.Errorf("Size = %v, want 50", e.Size)
	}
}

func TestExecuteSpawnIndex(t *testing.T) {
	e := runScript(t, "size", "i0.5", ExecEnv{SpawnIndex: 4})
	if e.Size != 2 {
		t.Errorf("Size = %v, want 2", e.Size)
	}
}

func TestExecuteRandomDrawsPerInstruction(t *testing.T) {
	calls := 0
	env := ExecEnv{Rand: func() float32 {
		calls++
		return 0.5
	}}

	e := runScript(t, "size", "r2r4", env)
	if calls != 2 {
		t.Errorf("rand calls = %d, want 2", calls)
	}
	if e.Size != 3 {
		t.Errorf("Size = %v, want 3", e.Size)
	}
}

func TestExecuteSawtooth(t *testing.T) {
	tests := []struct {
		script string
		want   float32
	}{
		{"13m10", 3},
		{"-3m10", 7},
		{"25m10", 5},
	}
	for _, tt := range tests {
		e := runScript(t, "size", tt.script, ExecEnv{})
		if !almostEqual(e.Size, tt.want) {
			t.Errorf("%q: Size = %v, want %v", tt.script, e.Size, tt.want)
		}
	}
}

func TestExecuteQuantize(t *testing.T) {
	tests := []struct {
		script string
		want   float32
	}{
		{"7.8k2", 6},
		{"5k0", 0}, // division by zero quantizes to zero
	}
	for _, tt := range tests {
		e := runScript(t, "size", tt.script, ExecEnv{})
		if !almostEqual(e.Size, tt.want) {
			t.Errorf("%q: Size = %v, want %v", tt.script, e.Size, tt.want)
		}
	}
}

func TestExecuteSine(t *testing.T) {
	e := runScript(t, "size", "1.5707964s2", ExecEnv{})
	if !almostEqual(e.Size, 2) {
		t.Errorf("Size = %v, want ~2", e.Size)
	}
}

func TestExecutePow(t *testing.T) {
	e := runScript(t, "size", "2p3", ExecEnv{})
	if !almostEqual(e.Size, 8) {
		t.Errorf("Size = %v, want 8", e.Size)
	}
}

// ============================================================
// Scratch slots
// ============================================================

func TestExecuteSlots(t *testing.T) {
	// slot0 = 5, then (2 * slot0) + slot0.
	e := runScript(t, "size", "5y0 2x0 a0", ExecEnv{})
	if e.Size != 15 {
		t.Errorf("Size = %v, want 15", e.Size)
	}
}

func TestExecutePowSlot(t *testing.T) {
	// slot1 = 2, then 3^2.
	e := runScript(t, "size", "2y1 3q1", ExecEnv{})
	if !almostEqual(e.Size, 9) {
		t.Errorf("Size = %v, want 9", e.Size)
	}
}

func TestSlotsStartZero(t *testing.T) {
	// Reading a never-written slot adds zero.
	e := runScript(t, "size", "7a3", ExecEnv{})
	if e.Size != 7 {
		t.Errorf("Size = %v, want 7", e.Size)
	}
}

// ============================================================
// Stores and conversions
// ============================================================

func TestStoreIntTruncates(t *testing.T) {
	e := runScript(t, "ttl", "-3.7", ExecEnv{})
	if e.TTL != -3 {
		t.Errorf("TTL = %d, want -3", e.TTL)
	}
}

func TestStoreByteWraps(t *testing.T) {
	e := runScript(t, "alpha", "260.9", ExecEnv{})
	if e.Alpha != 4 {
		t.Errorf("Alpha = %d, want 4", e.Alpha)
	}
}

func TestStoreBool(t *testing.T) {
	if e := runScript(t, "visible", "0.4", ExecEnv{}); e.Visible {
		t.Error("0.4 should truncate to false")
	}
	if e := runScript(t, "visible", "1.2", ExecEnv{}); !e.Visible {
		t.Error("1.2 should truncate to true")
	}
}

func TestStoreClearsAccumulator(t *testing.T) {
	d := testDescriptor(t)
	c, err := NewCompiler(d, newStubResolver())
	if err != nil {
		t.Fatal(err)
	}
	// size gets 5; ttl is compiled from an empty script and must see a
	// cleared accumulator, not the leftover 5.
	if err := c.CompileField(testField(t, d, "size"), "5"); err != nil {
		t.Fatal(err)
	}
	if err := c.CompileField(testField(t, d, "ttl"), ""); err != nil {
		t.Fatal(err)
	}
	prog := c.Finish()

	inst := d.NewInstance()
	if err := Execute(prog, inst, ExecEnv{}); err != nil {
		t.Fatal(err)
	}
	e := inst.Interface().(*testParticle)
	if e.Size != 5 || e.TTL != 0 {
		t.Errorf("Size = %v, TTL = %d; want 5 and 0", e.Size, e.TTL)
	}
}

func TestCopyDir(t *testing.T) {
	e := runScript(t, "speed", "dir", ExecEnv{Direction: vmath.Float3{X: 1, Y: 2, Z: 3}})
	if e.Speed != (vmath.Float3{X: 1, Y: 2, Z: 3}) {
		t.Errorf("Speed = %+v", e.Speed)
	}
}

func TestStoreTextureHandle(t *testing.T) {
	d := testDescriptor(t)
	res := newStubResolver()
	c, err := NewCompiler(d, res)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.CompileField(testField(t, d, "texture"), "flare"); err != nil {
		t.Fatal(err)
	}
	prog := c.Finish()

	inst := d.NewInstance()
	if err := Execute(prog, inst, ExecEnv{}); err != nil {
		t.Fatal(err)
	}
	if got := inst.Interface().(*testParticle).Texture; got != res.tex {
		t.Errorf("Texture = %p, want %p", got, res.tex)
	}
}

func TestStorePtrClearsHandleRegister(t *testing.T) {
	d := testDescriptor(t)
	res := newStubResolver()
	tex := testField(t, d, "texture")
	gnd := testField(t, d, "groundtexture")

	// A second STORE_PTR without a LOAD_PTR in between writes nil.
	p := &Program{class: d.Name(), desc: d}
	idx, err := p.addHandle(HandleTexture, "flare", res.tex)
	if err != nil {
		t.Fatal(err)
	}
	p.emitOffset(OpLoadPtr, idx)
	p.emitOffset(OpStorePtr, tex.Offset)
	p.emitOffset(OpStorePtr, gnd.Offset)
	p.emit(OpEnd)

	inst := d.NewInstance()
	if err := Execute(p, inst, ExecEnv{}); err != nil {
		t.Fatal(err)
	}
	e := inst.Interface().(*testParticle)
	if e.Texture != res.tex {
		t.Errorf("Texture = %p, want %p", e.Texture, res.tex)
	}
	if e.Ground != nil {
		t.Errorf("Ground = %p, want nil", e.Ground)
	}
}

// ============================================================
// Fault handling
// ============================================================

func TestUnknownOffsetStoreIsSkipped(t *testing.T) {
	d := testDescriptor(t)
	size := testField(t, d, "size")

	p := &Program{class: d.Name(), desc: d}
	p.emitFloat(OpAddConst, 3)
	p.emitOffset(OpStoreFloat, 0xFFF0) // no field here
	p.emitFloat(OpAddConst, 5)
	p.emitOffset(OpStoreFloat, size.Offset)
	p.emit(OpEnd)

	inst := d.NewInstance()
	if err := Execute(p, inst, ExecEnv{}); err != nil {
		t.Fatalf("stray store must not abort execution: %v", err)
	}
	if got := inst.Interface().(*testParticle).Size; got != 5 {
		t.Errorf("Size = %v, want 5", got)
	}
}

func TestExecuteFaults(t *testing.T) {
	d := testDescriptor(t)

	tests := []struct {
		name string
		code []byte
	}{
		{"missing end", []byte{byte(OpAddConst), 0, 0, 0, 0}},
		{"unknown opcode", []byte{0xEE, byte(OpEnd)}},
		{"truncated operand", []byte{byte(OpAddConst), 0, 0}},
		{"slot out of range", []byte{byte(OpYank), 0, 0, 0, 42, byte(OpEnd)}},
		{"handle out of range", []byte{byte(OpLoadPtr), 0, 9, byte(OpEnd)}},
	}
	for _, tt := range tests {
		p := &Program{class: d.Name(), desc: d, code: tt.code}
		if err := Execute(p, d.NewInstance(), ExecEnv{}); err == nil {
			t.Errorf("%s: Execute() = nil, want error", tt.name)
		}
	}
}

func TestExecuteRequiresLinkedProgram(t *testing.T) {
	p := &Program{class: "X", code: []byte{byte(OpEnd)}}
	if err := Execute(p, testDescriptor(t).NewInstance(), ExecEnv{}); err == nil {
		t.Error("unlinked program should not execute")
	}
}

func TestExecuteRejectsForeignInstance(t *testing.T) {
	d := testDescriptor(t)
	other, err := typemeta.NewRegistry().Register("Other", &struct {
		X float32 `ceg:"x"`
	}{})
	if err != nil {
		t.Fatal(err)
	}

	p := &Program{class: d.Name(), desc: d, code: []byte{byte(OpEnd)}}
	if err := Execute(p, other.NewInstance(), ExecEnv{}); err == nil {
		t.Error("instance of another class should be rejected")
	}
}
