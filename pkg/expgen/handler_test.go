package expgen

import (
	"errors"
	"strings"
	"testing"

	"github.com/chazu/expgen/pkg/defs"
	"github.com/chazu/expgen/pkg/typemeta"
	"github.com/chazu/expgen/pkg/vmath"
)

func validConfig(t *testing.T) Config {
	t.Helper()
	reg := typemeta.NewRegistry()
	if err := RegisterBuiltins(reg); err != nil {
		t.Fatalf("RegisterBuiltins: %v", err)
	}
	return Config{
		LoadDefs: func() (*defs.Table, error) { return defs.Parse("") },
		Types:    reg,
		Env:      &testEnv{},
		Sink:     &recordSink{},
	}
}

// ============================================================
// Construction
// ============================================================

func TestNewHandlerValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing defs loader", func(c *Config) { c.LoadDefs = nil }},
		{"missing types", func(c *Config) { c.Types = nil }},
		{"missing env", func(c *Config) { c.Env = nil }},
		{"missing sink", func(c *Config) { c.Sink = nil }},
		{"defs parse failure", func(c *Config) {
			c.LoadDefs = func() (*defs.Table, error) { return nil, errors.New("io") }
		}},
		{"alias parse failure", func(c *Config) {
			c.LoadAliases = func() (*defs.Table, error) { return nil, errors.New("io") }
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(&cfg)
			if h, err := NewHandler(cfg); err == nil || h != nil {
				t.Fatalf("NewHandler = (%v, %v), want error", h, err)
			}
		})
	}
}

func TestNewHandlerLoadsGeneratorPair(t *testing.T) {
	w := newTestWorld(t, "")

	if n := w.h.NumLoadedGenerators(); n != 2 {
		t.Fatalf("NumLoadedGenerators = %d, want 2", n)
	}
	if id := w.h.StdGenerator().GeneratorID(); id != 1 {
		t.Errorf("std generator id = %d, want 1", id)
	}
	if id := w.h.CustomGenerator().GeneratorID(); id != 2 {
		t.Errorf("custom generator id = %d, want 2", id)
	}
	if w.h.Generator(1) != Generator(w.h.StdGenerator()) {
		t.Errorf("Generator(1) is not the std instance")
	}
	if w.h.Generator(2) != Generator(w.h.CustomGenerator()) {
		t.Errorf("Generator(2) is not the custom instance")
	}
}

func TestNewHandlerRejectsRemappedBuiltins(t *testing.T) {
	cfg := validConfig(t)
	cfg.LoadAliases = func() (*defs.Table, error) {
		return defs.Parse("[generators]\nstd = \"custom\"\n")
	}
	if _, err := NewHandler(cfg); err == nil {
		t.Fatalf("NewHandler accepted an alias table that remaps std")
	}
}

// ============================================================
// Generator instances
// ============================================================

func TestLoadGeneratorWithPostfix(t *testing.T) {
	w := newTestWorld(t, boomDef)

	gen, err := w.h.LoadGenerator("custom:boom")
	if err != nil {
		t.Fatalf("LoadGenerator: %v", err)
	}
	if gen.GeneratorID() != 3 {
		t.Errorf("generator id = %d, want 3", gen.GeneratorID())
	}
	cg, ok := gen.(*CustomGenerator)
	if !ok {
		t.Fatalf("LoadGenerator returned %T, want *CustomGenerator", gen)
	}
	if _, ok := cg.TagID("boom"); !ok {
		t.Errorf("postfix %q was not loaded into the new instance", "boom")
	}
	if w.h.Generator(3) != gen {
		t.Errorf("instance not registered under its id")
	}
}

func TestLoadGeneratorClassAlias(t *testing.T) {
	w := newTestWorld(t, boomDef)

	gen, err := w.h.LoadGenerator("ceg:boom")
	if err != nil {
		t.Fatalf("LoadGenerator: %v", err)
	}
	if _, ok := gen.(*CustomGenerator); !ok {
		t.Fatalf("alias %q resolved to %T, want *CustomGenerator", "ceg", gen)
	}
}

func TestLoadGeneratorUnknownClass(t *testing.T) {
	w := newTestWorld(t, "")

	gen, err := w.h.LoadGenerator("warp:x")
	if !errors.Is(err, ErrUnknownClass) {
		t.Fatalf("err = %v, want ErrUnknownClass", err)
	}
	if gen != nil {
		t.Errorf("got instance %v for unknown class", gen)
	}
	if n := w.h.NumLoadedGenerators(); n != 2 {
		t.Errorf("failed load consumed an id: NumLoadedGenerators = %d", n)
	}
}

func TestUnloadGenerator(t *testing.T) {
	w := newTestWorld(t, boomDef)

	gen, err := w.h.LoadGenerator("custom:boom")
	if err != nil {
		t.Fatalf("LoadGenerator: %v", err)
	}
	w.h.UnloadGenerator(gen)
	if w.h.Generator(gen.GeneratorID()) != nil {
		t.Errorf("instance still registered after unload")
	}

	w.h.UnloadGenerator(nil)
}

// ============================================================
// Tag routing
// ============================================================

func TestLoadGeneratorID(t *testing.T) {
	w := newTestWorld(t, boomDef)

	if id := w.h.LoadGeneratorID("", false); id != IDInvalid {
		t.Errorf("empty tag = %#x, want IDInvalid", id)
	}
	if id := w.h.LoadGeneratorID("boom", false); id != IDStandard {
		t.Errorf("unprefixed def tag = %#x, want IDStandard", id)
	}
	if id := w.h.LoadGeneratorID("custom:boom", false); id != 0 {
		t.Errorf("prefixed tag = %#x, want 0", id)
	}
	// Script requests compile the scripted definition even without the
	// prefix, and hit the cache populated above.
	if id := w.h.LoadGeneratorID("boom", true); id != 0 {
		t.Errorf("scripted tag = %#x, want cached 0", id)
	}
	if id := w.h.LoadGeneratorID("custom:", false); id != IDInvalid {
		t.Errorf("bare prefix = %#x, want IDInvalid", id)
	}
}

func TestReloadGeneratorsParseFailureKeepsState(t *testing.T) {
	w := newTestWorld(t, boomDef)
	id := w.h.LoadGeneratorID("custom:boom", false)
	if id == IDInvalid {
		t.Fatalf("boom did not load")
	}

	w.defsErr = errors.New("disk gone")
	w.h.ReloadGenerators("")
	w.defsErr = nil

	if got, ok := w.h.CustomGenerator().TagID("boom"); !ok || got != id {
		t.Errorf("TagID after failed reload = (%d, %v), want (%d, true)", got, ok, id)
	}
	w.sink.reset()
	if !w.h.Explosion(id, ExplosionParams{Pos: vmath.New(0, 1, 0)}) {
		t.Errorf("Explosion failed after failed reload")
	}
	if len(w.sink.projectiles) == 0 {
		t.Errorf("no projectiles after failed reload")
	}
}

// ============================================================
// Resolver surface
// ============================================================

func TestHandlerResolvers(t *testing.T) {
	w := newTestWorld(t, "")

	tex, err := w.h.ResolveTexture("flame")
	if err != nil || tex == nil {
		t.Errorf("ResolveTexture = (%v, %v), want placeholder", tex, err)
	}
	gfx, err := w.h.ResolveGroundFX("ring")
	if err != nil || gfx == nil {
		t.Errorf("ResolveGroundFX = (%v, %v), want placeholder", gfx, err)
	}
	cm, err := w.h.ResolveColorMap("1 1 1 1 0 0 0 1")
	if err != nil || cm == nil {
		t.Errorf("ResolveColorMap = (%v, %v), want color map", cm, err)
	}
	if _, err := w.h.ResolveColorMap("1 1 1"); err == nil {
		t.Errorf("ResolveColorMap accepted a 3-float definition")
	}

	gen, err := w.h.ResolveGenerator("warp:x")
	if !errors.Is(err, ErrUnknownClass) {
		t.Errorf("ResolveGenerator err = %v, want ErrUnknownClass", err)
	}
	if gen != nil {
		t.Errorf("ResolveGenerator returned a non-nil ref with an error")
	}
}

func TestProjectileClassLookup(t *testing.T) {
	w := newTestWorld(t, "")

	d := w.h.ProjectileClass("heatcloud")
	if d == nil || d.Name() != "HeatCloud" {
		t.Fatalf("ProjectileClass(heatcloud) = %v, want HeatCloud descriptor", d)
	}
	if w.h.ProjectileClass("NoSuchThing") != nil {
		t.Errorf("unknown class resolved")
	}
}

// ============================================================
// Catalog
// ============================================================

func TestProjectileClassInfo(t *testing.T) {
	w := newTestWorld(t, "")
	if _, err := w.h.Types().RegisterSynced("SyncedShell", &syncedShell{}); err != nil {
		t.Fatalf("RegisterSynced: %v", err)
	}

	infos := w.h.ProjectileClassInfo()
	var heat *ClassInfo
	for i := range infos {
		switch infos[i].Name {
		case "HeatCloud":
			heat = &infos[i]
		case "SyncedShell":
			t.Errorf("synced class listed in the catalog")
		}
	}
	if heat == nil {
		t.Fatalf("HeatCloud missing from the catalog: %v", infos)
	}
	if heat.Alias != "heatcloud" {
		t.Errorf("HeatCloud alias = %q, want heatcloud", heat.Alias)
	}

	var heatField, posField bool
	for _, f := range heat.Fields {
		if f.Name == "heat" && f.Kind == "float32" {
			heatField = true
		}
		if f.Name == "pos" && f.Kind == "vec3" {
			posField = true
		}
	}
	if !heatField || !posField {
		t.Errorf("HeatCloud fields incomplete: %v", heat.Fields)
	}
}

func TestRegisterBuiltinsTwice(t *testing.T) {
	reg := typemeta.NewRegistry()
	if err := RegisterBuiltins(reg); err != nil {
		t.Fatalf("first RegisterBuiltins: %v", err)
	}
	err := RegisterBuiltins(reg)
	if err == nil || !strings.Contains(err.Error(), "already registered") {
		t.Fatalf("second RegisterBuiltins = %v, want duplicate error", err)
	}
}
