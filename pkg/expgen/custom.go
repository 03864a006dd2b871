package expgen

import (
	"sort"

	"github.com/chazu/expgen/pkg/bytecode"
	"github.com/chazu/expgen/pkg/defs"
	"github.com/chazu/expgen/pkg/spawnable"
	"github.com/chazu/expgen/pkg/vmath"
)

// CustomGenerator compiles scripted explosion definitions into program
// sets and caches them under dense ids. Load, Reload, and Unload must
// be serialized by the caller; Explosion only reads.
type CustomGenerator struct {
	generatorBase

	ids  map[string]uint32
	data []CEGData
}

// NewCustomGenerator returns a generator with an empty cache.
func NewCustomGenerator() *CustomGenerator {
	return &CustomGenerator{ids: map[string]uint32{}}
}

// Load returns the id cached for tag, compiling the definition first
// when the tag is new. A missing or invalid table and any hard compile
// failure are logged and return IDInvalid without touching the cache,
// so a later call tries again.
func (g *CustomGenerator) Load(h *Handler, tag string) uint32 {
	if id, ok := g.ids[tag]; ok {
		return id
	}

	expTable := h.ExplosionRoot().SubTable(tag)
	if !expTable.IsValid() {
		// Not fatal: Explosion calls against IDInvalid return early.
		log.Warningf("table for explosion generator %q invalid (parse errors?)", tag)
		return IDInvalid
	}

	cegData, err := g.compileSet(h, tag, expTable)
	if err != nil {
		log.Errorf("%s: %s", tag, err.Error())
		g.releaseGens(h, cegData.spawnGens)
		return IDInvalid
	}

	g.data = append(g.data, cegData)
	id := uint32(len(g.data) - 1)
	g.ids[tag] = id
	return id
}

// compileSet compiles every spawn entry plus the optional ground flash
// block of one definition table. On error the returned data still
// carries every nested generator loaded so far, so the caller can
// release them.
func (g *CustomGenerator) compileSet(h *Handler, tag string, expTable *defs.Table) (CEGData, error) {
	var cegData CEGData

	for _, spawnName := range expTable.Keys() {
		spawnTable := expTable.SubTable(spawnName)
		if !spawnTable.IsValid() || spawnName == "groundflash" {
			continue
		}

		className := spawnTable.GetString("class", spawnName)
		desc := h.ProjectileClass(className)
		if desc == nil {
			log.Warningf("%s: unknown class %q", tag, className)
			continue
		}
		if _, ok := desc.NewInstance().Interface().(spawnable.Projectile); !ok {
			log.Warningf("%s: class %q is not spawnable", tag, className)
			continue
		}

		comp, err := bytecode.NewCompiler(desc, h)
		if err != nil {
			// A synced class fails the whole definition, not just the entry.
			return cegData, err
		}

		props := spawnTable.SubTable("properties")
		for _, key := range props.Keys() {
			f, ok := desc.FindField(key)
			if !ok {
				log.Warningf("%s: unknown tag %s::%s", tag, className, key)
				continue
			}
			if err := comp.CompileField(f, props.GetString(key, "")); err != nil {
				cegData.spawnGens = append(cegData.spawnGens, nestedGens(comp.Finish())...)
				return cegData, err
			}
		}

		prog := comp.Finish()
		cegData.spawnGens = append(cegData.spawnGens, nestedGens(prog)...)
		cegData.ProjectileSpawn = append(cegData.ProjectileSpawn, ProjectileSpawnInfo{
			Class: desc,
			Flags: FlagsFromTable(spawnTable),
			Count: spawnTable.GetInt("count", 1),
			Prog:  prog,
		})
	}

	gndTable := expTable.SubTable("groundflash")
	if ttl := gndTable.GetInt("ttl", 0); ttl > 0 {
		cegData.GroundFlash = GroundFlashInfo{
			FlashSize:    gndTable.GetFloat("flashsize", 0),
			FlashAlpha:   gndTable.GetFloat("flashalpha", 0),
			CircleGrowth: gndTable.GetFloat("circlegrowth", 0),
			CircleAlpha:  gndTable.GetFloat("circlealpha", 0),
			TTL:          int32(ttl),
			Flags:        FlagGround | FlagsFromTable(gndTable),
			Color:        gndTable.GetFloat3("color", vmath.New(1, 1, 0.8)),
		}
	}

	cegData.UseDefaultExplosions = expTable.GetBool("usedefaultexplosions", false)

	return cegData, nil
}

// nestedGens extracts the generator instances a compiled program holds
// in its handle table.
func nestedGens(prog *bytecode.Program) []Generator {
	var gens []Generator
	for _, hd := range prog.Handles() {
		if hd.Kind != bytecode.HandleGenerator {
			continue
		}
		if gen, ok := hd.Ref.(Generator); ok {
			gens = append(gens, gen)
		}
	}
	return gens
}

func (g *CustomGenerator) releaseGens(h *Handler, gens []Generator) {
	for _, gen := range gens {
		h.UnloadGenerator(gen)
	}
}

// Reload recompiles tag in place, or every cached tag when tag is
// empty.
//
// The full reload refills slots in ascending id order so every
// surviving tag keeps its id; a tag whose table went away leaves a dead
// slot behind instead of shifting its neighbors. The single-tag variant
// borrows the last slot's data while it recompiles, and puts everything
// back the way it was if the compile fails.
func (g *CustomGenerator) Reload(h *Handler, tag string) {
	if tag == "" {
		g.reloadAll(h)
		return
	}

	idx, ok := g.ids[tag]
	if !ok {
		return
	}

	numCEGs := uint32(len(g.data))
	oldCEG := g.data[idx]
	tmpCEG := g.data[numCEGs-1]

	delete(g.ids, tag)
	g.data[idx] = tmpCEG
	g.data = g.data[:numCEGs-1]

	log.Infof("[gen=%d] reloading explosion generator %q (slot %d)", g.id, tag, idx)

	if g.Load(h, tag) == IDInvalid {
		log.Errorf("[gen=%d] failed to reload explosion generator %q (slot %d)", g.id, tag, idx)

		// Keep the old data under its old id.
		g.ids[tag] = idx
		g.data = append(g.data, tmpCEG)
		g.data[idx] = oldCEG
		return
	}

	// The fresh set landed in the last slot. Remap it to the old id,
	// move it into place, and hand the borrowed data back.
	g.ids[tag] = idx
	if last := uint32(len(g.data) - 1); idx != last {
		g.data[idx] = g.data[last]
		g.data[last] = tmpCEG
	}
	g.releaseGens(h, oldCEG.spawnGens)
}

func (g *CustomGenerator) reloadAll(h *Handler) {
	// Invert the id map so slots refill in id order; ids held by
	// callers stay valid across the reload.
	tags := make([]string, len(g.data))
	for tag, id := range g.ids {
		tags[id] = tag
	}

	g.Unload(h)
	g.ClearCache()

	for id, tag := range tags {
		if tag == "" {
			// Dead slot from an earlier failed reload.
			g.data = append(g.data, CEGData{})
			continue
		}

		log.Infof("[gen=%d] reloading explosion generator %q (slot %d)", g.id, tag, id)

		if g.Load(h, tag) == IDInvalid {
			g.data = append(g.data, CEGData{})
		}
	}
}

// Explosion runs the set behind id for one explosion event. IDStandard
// defers to the handler's standard generator, IDInvalid reports false,
// and IDSpawner resolves to the newest slot. Ids outside the cache
// report false.
func (g *CustomGenerator) Explosion(h *Handler, id uint32, p ExplosionParams) bool {
	if id == IDStandard {
		return h.StdGenerator().Explosion(h, id, p)
	}
	if id == IDInvalid {
		return false
	}

	// Spawner instances compile exactly one set and fire that.
	if id == IDSpawner {
		id = uint32(len(g.data) - 1)
	}

	// All ids are managed, so this should not trip.
	if id >= uint32(len(g.data)) {
		return false
	}

	env := h.Env()

	altitude := p.Pos.Y - env.GroundHeight(p.Pos.X, p.Pos.Z)
	flags := FlagsFromHeight(p.Pos.Y, altitude)
	groundExplosion := flags&FlagGround != 0

	if p.HitUnit {
		flags |= FlagUnit
	} else {
		flags |= FlagNoUnit
	}

	cegData := &g.data[id]

	for i := range cegData.ProjectileSpawn {
		psi := &cegData.ProjectileSpawn[i]

		if psi.Flags&flags == 0 {
			continue
		}

		// No new projectiles while saturated.
		if env.ParticleSaturation() > 1.0 {
			continue
		}

		for c := 0; c < psi.Count; c++ {
			inst := psi.Class.NewInstance()
			err := bytecode.Execute(psi.Prog, inst, bytecode.ExecEnv{
				Damage:     p.Damage,
				SpawnIndex: c,
				Direction:  p.Dir,
				Rand:       env.RandFloat,
			})
			if err != nil {
				log.Errorf("%s: %s", psi.Prog.Class(), err.Error())
				continue
			}

			proj, ok := inst.Interface().(spawnable.Projectile)
			if !ok {
				continue
			}
			proj.Init(p.Pos, p.OwnerID)
			h.Sink().AddProjectile(proj)
		}
	}

	gf := cegData.GroundFlash
	if groundExplosion && gf.TTL > 0 && gf.FlashSize > 1 {
		h.Sink().AddGroundFlash(p.Pos, gf)
	}

	if cegData.UseDefaultExplosions {
		return h.StdGenerator().Explosion(h, IDStandard, p)
	}

	return true
}

// Unload releases every nested generator the cached sets loaded. The
// compiled sets themselves stay until ClearCache.
func (g *CustomGenerator) Unload(h *Handler) {
	for i := range g.data {
		g.releaseGens(h, g.data[i].spawnGens)
		g.data[i].spawnGens = nil
	}
}

// ClearCache drops every compiled set and tag mapping.
func (g *CustomGenerator) ClearCache() {
	g.ids = map[string]uint32{}
	g.data = nil
}

// NumSets returns the number of cached slots, dead slots included.
func (g *CustomGenerator) NumSets() int { return len(g.data) }

// TagID returns the id cached for tag, without compiling anything.
func (g *CustomGenerator) TagID(tag string) (uint32, bool) {
	id, ok := g.ids[tag]
	return id, ok
}

// Tags returns every cached tag, sorted.
func (g *CustomGenerator) Tags() []string {
	tags := make([]string, 0, len(g.ids))
	for tag := range g.ids {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// Data returns the compiled set behind id, or nil when id names no
// slot. The result is read-only.
func (g *CustomGenerator) Data(id uint32) *CEGData {
	if id >= uint32(len(g.data)) {
		return nil
	}
	return &g.data[id]
}
