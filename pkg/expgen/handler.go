package expgen

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/chazu/expgen/pkg/assets"
	"github.com/chazu/expgen/pkg/defs"
	"github.com/chazu/expgen/pkg/spawnable"
	"github.com/chazu/expgen/pkg/typemeta"
)

// Canonical generator class names. The generator alias list maps
// content-facing prefixes onto these.
const (
	StdGeneratorClass    = "StdGenerator"
	CustomGeneratorClass = "CustomGenerator"
)

// cegPrefix marks tags that name a scripted definition.
const cegPrefix = "custom:"

// ErrUnknownClass reports a generator tag whose class prefix resolves
// to no known generator class.
var ErrUnknownClass = errors.New("unknown explosion generator class")

// Config wires a Handler to its collaborators. LoadDefs, Types, Env,
// and Sink are required. The asset stores default to empty stores, and
// LoadAliases may be nil when content defines no aliases.
type Config struct {
	// LoadDefs returns the root definition table, keyed by explosion
	// tag. It is called again on every reload.
	LoadDefs func() (*defs.Table, error)

	// LoadAliases returns the alias table with its "projectiles" and
	// "generators" sections.
	LoadAliases func() (*defs.Table, error)

	Types     *typemeta.Registry
	Atlas     *assets.TextureAtlas
	GroundFX  *assets.GroundFXAtlas
	ColorMaps *assets.ColorMapStore

	Env  Environ
	Sink ProjectileSink
}

// Handler owns the definition tables, the class alias lists, and every
// numbered generator instance. All loading and reloading goes through
// one handler; nothing in the package is process-global. Loading and
// reloading follow the caller-serialization discipline described in
// the package comment.
type Handler struct {
	cfg Config

	projectileClasses *spawnable.AliasList
	generatorClasses  *spawnable.AliasList
	explRoot          *defs.Table

	numLoadedGenerators uint32
	generators          map[uint32]Generator

	std    *StdGenerator
	custom *CustomGenerator
}

// NewHandler parses the definition tables and loads the standard and
// scripted generator pair.
func NewHandler(cfg Config) (*Handler, error) {
	switch {
	case cfg.LoadDefs == nil:
		return nil, errors.New("expgen: Config.LoadDefs is required")
	case cfg.Types == nil:
		return nil, errors.New("expgen: Config.Types is required")
	case cfg.Env == nil:
		return nil, errors.New("expgen: Config.Env is required")
	case cfg.Sink == nil:
		return nil, errors.New("expgen: Config.Sink is required")
	}
	if cfg.Atlas == nil {
		cfg.Atlas = assets.NewTextureAtlas()
	}
	if cfg.GroundFX == nil {
		cfg.GroundFX = assets.NewGroundFXAtlas()
	}
	if cfg.ColorMaps == nil {
		cfg.ColorMaps = assets.NewColorMapStore()
	}

	h := &Handler{
		cfg:               cfg,
		projectileClasses: spawnable.NewAliasList(),
		generatorClasses:  spawnable.NewAliasList(),
		generators:        map[uint32]Generator{},
	}
	if err := h.ParseExplosionTables(); err != nil {
		return nil, err
	}

	stdGen, err := h.LoadGenerator("std")
	if err != nil {
		return nil, err
	}
	customGen, err := h.LoadGenerator("custom")
	if err != nil {
		return nil, err
	}

	h.std, _ = stdGen.(*StdGenerator)
	h.custom, _ = customGen.(*CustomGenerator)
	if h.std == nil || h.custom == nil {
		return nil, errors.New("expgen: alias table remaps the builtin generator classes")
	}
	return h, nil
}

// ParseExplosionTables re-reads the alias and definition files. The
// previous tables stay in place when either file fails to parse.
func (h *Handler) ParseExplosionTables() error {
	if h.cfg.LoadAliases != nil {
		aliasRoot, err := h.cfg.LoadAliases()
		if err != nil {
			return fmt.Errorf("expgen: parse aliases: %w", err)
		}
		h.projectileClasses.Clear()
		h.projectileClasses.Load(aliasRoot.SubTable("projectiles"))
		h.generatorClasses.Clear()
		h.generatorClasses.Load(aliasRoot.SubTable("generators"))
	}

	explRoot, err := h.cfg.LoadDefs()
	if err != nil {
		return fmt.Errorf("expgen: parse explosions: %w", err)
	}
	h.explRoot = explRoot
	return nil
}

// ExplosionRoot returns the root definition table, keyed by tag.
func (h *Handler) ExplosionRoot() *defs.Table { return h.explRoot }

// Env returns the environment queried during explosions.
func (h *Handler) Env() Environ { return h.cfg.Env }

// Sink returns the spawn sink.
func (h *Handler) Sink() ProjectileSink { return h.cfg.Sink }

// Types returns the effect class registry.
func (h *Handler) Types() *typemeta.Registry { return h.cfg.Types }

// StdGenerator returns the handler's standard generator instance.
func (h *Handler) StdGenerator() *StdGenerator { return h.std }

// CustomGenerator returns the handler's scripted generator instance.
func (h *Handler) CustomGenerator() *CustomGenerator { return h.custom }

// ProjectileClasses returns the projectile class alias list.
func (h *Handler) ProjectileClasses() *spawnable.AliasList { return h.projectileClasses }

// GeneratorClasses returns the generator class alias list.
func (h *Handler) GeneratorClasses() *spawnable.AliasList { return h.generatorClasses }

// NumLoadedGenerators returns how many generator instances this
// handler has numbered so far.
func (h *Handler) NumLoadedGenerators() uint32 { return h.numLoadedGenerators }

// Generator returns the live generator instance with the given id, or
// nil.
func (h *Handler) Generator(id uint32) Generator { return h.generators[id] }

// ProjectileClass resolves a content-facing class name through the
// projectile alias list to a registered descriptor, or nil.
func (h *Handler) ProjectileClass(name string) *typemeta.Descriptor {
	return h.cfg.Types.Lookup(h.projectileClasses.Resolve(name))
}

// LoadGenerator creates the generator instance a tag names. The prefix
// before the first ':' picks the class through the generator alias
// list; the rest is handed to the new instance's Load. Instances are
// numbered from 1 and stay registered until UnloadGenerator.
func (h *Handler) LoadGenerator(tag string) (Generator, error) {
	prefix, postfix := tag, ""
	if i := strings.IndexByte(tag, ':'); i >= 0 {
		prefix, postfix = tag[:i], tag[i+1:]
	}

	var gen Generator
	switch class := h.generatorClasses.Resolve(prefix); class {
	case "std", StdGeneratorClass:
		gen = NewStdGenerator()
	case "custom", CustomGeneratorClass:
		gen = NewCustomGenerator()
	default:
		return nil, fmt.Errorf("expgen: %w %q", ErrUnknownClass, class)
	}

	h.numLoadedGenerators++
	gen.SetGeneratorID(h.numLoadedGenerators)

	if postfix != "" {
		gen.Load(h, postfix)
	}

	// Mapped only once fully loaded; Load may itself load generators.
	h.generators[gen.GeneratorID()] = gen
	return gen, nil
}

// UnloadGenerator releases a generator instance and everything it
// loaded.
func (h *Handler) UnloadGenerator(gen Generator) {
	if gen == nil {
		return
	}
	gen.Unload(h)
	delete(h.generators, gen.GeneratorID())
}

// ReloadGenerators re-parses the definition tables, then reloads tag
// in every live generator instance, or every tag when tag is empty. A
// parse failure keeps the old tables and compiled state.
func (h *Handler) ReloadGenerators(tag string) {
	if err := h.ParseExplosionTables(); err != nil {
		log.Errorf("reload generators: %s", err)
		return
	}

	// Reloading loads nested generators through this handler, growing
	// the id map mid-walk. Snapshot the ids first and skip instances an
	// earlier reload already unloaded.
	ids := make([]uint32, 0, len(h.generators))
	for id := range h.generators {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		if gen := h.generators[id]; gen != nil {
			gen.Reload(h, tag)
		}
	}
}

// LoadGeneratorID resolves a content tag to an explosion id. Tags with
// the "custom:" prefix, and every tag requested by a script, compile a
// scripted definition; the rest map to the standard recipe. The empty
// tag is invalid.
func (h *Handler) LoadGeneratorID(tag string, fromScript bool) uint32 {
	if tag == "" {
		return IDInvalid
	}
	stripped := strings.TrimPrefix(tag, cegPrefix)
	if !fromScript && len(stripped) == len(tag) {
		return h.std.Load(h, tag)
	}
	return h.custom.Load(h, stripped)
}

// Explosion runs the explosion with the given id at p. It reports
// whether the id resolved to something renderable.
func (h *Handler) Explosion(id uint32, p ExplosionParams) bool {
	return h.custom.Explosion(h, id, p)
}

// ResolveTexture looks the name up in the projectile texture atlas.
func (h *Handler) ResolveTexture(name string) (*assets.AtlasedTexture, error) {
	return h.cfg.Atlas.Texture(name), nil
}

// ResolveGroundFX looks the name up in the ground effect atlas.
func (h *Handler) ResolveGroundFX(name string) (*assets.GroundFXTexture, error) {
	return h.cfg.GroundFX.Texture(name), nil
}

// ResolveColorMap builds or reuses the color map for a definition
// string.
func (h *Handler) ResolveColorMap(def string) (*assets.ColorMap, error) {
	return h.cfg.ColorMaps.FromDefString(def)
}

// ResolveGenerator loads the generator a script fragment names, for
// effect fields that chain explosions.
func (h *Handler) ResolveGenerator(tag string) (spawnable.GeneratorRef, error) {
	gen, err := h.LoadGenerator(tag)
	if err != nil {
		return nil, err
	}
	return gen, nil
}

// RegisterBuiltins registers every effect type the spawn pipeline
// ships with into reg.
func RegisterBuiltins(reg *typemeta.Registry) error {
	for _, b := range spawnable.Builtins() {
		if _, err := reg.Register(b.Name, b.Prototype); err != nil {
			return fmt.Errorf("expgen: register %s: %w", b.Name, err)
		}
	}
	return nil
}

// ClassInfo describes one spawnable class for external tooling.
type ClassInfo struct {
	Name   string      `json:"class"`
	Alias  string      `json:"alias"`
	Fields []FieldInfo `json:"fields"`
}

// FieldInfo describes one configurable field of a class.
type FieldInfo struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

// ProjectileClassInfo lists every registered non-synced spawnable
// class, the alias content would use for it, and its configurable
// fields.
func (h *Handler) ProjectileClassInfo() []ClassInfo {
	var out []ClassInfo
	for _, name := range h.cfg.Types.Names() {
		d := h.cfg.Types.Lookup(name)
		if d == nil || d.Synced() {
			continue
		}
		info := ClassInfo{Name: name, Alias: h.projectileClasses.FindAlias(name)}
		for _, f := range d.Fields() {
			info.Fields = append(info.Fields, FieldInfo{Name: f.Name, Kind: f.Kind.String()})
		}
		out = append(out, info)
	}
	return out
}
