package expgen

import (
	"github.com/tliron/commonlog"

	"github.com/chazu/expgen/pkg/spawnable"
	"github.com/chazu/expgen/pkg/vmath"
)

var log = commonlog.GetLogger("expgen.gen")

// Reserved explosion ids. Cached tags always get dense small ids, so
// these can never collide with a live slot.
const (
	// IDInvalid means no generator: Explosion calls return false.
	IDInvalid uint32 = 0xFFFFFFFF

	// IDStandard defers to the non-scripted standard recipe.
	IDStandard uint32 = 0xFFFFFFFE

	// IDSpawner re-resolves to the most recently compiled set. Spawner
	// projectiles load exactly one tag and fire it once.
	IDSpawner uint32 = 0xFFFFFFFD
)

// ExplosionParams carries one explosion event.
type ExplosionParams struct {
	Pos     vmath.Float3 // World position of the blast
	Dir     vmath.Float3 // Direction the projectile was traveling
	Damage  float32
	Radius  float32
	GfxMod  float32 // Per-weapon visual intensity scale
	OwnerID int32   // Owning unit, or a negative id for none
	HitUnit bool    // Whether the explosion landed on a unit
}

// Environ supplies the world state generators consult: terrain height
// for altitude classification, the camera for view-dependent offsets,
// the particle budget, and the unsynced random stream.
type Environ interface {
	GroundHeight(x, z float32) float32
	CameraPos() vmath.Float3

	// ParticleSaturation is the current particle load; above 1.0 no new
	// scripted particles spawn, and the standard recipe starts shedding
	// cosmetic-only groups below that.
	ParticleSaturation() float32

	RandFloat() float32
	RandInt() int32
}

// ProjectileSink receives the effect objects an explosion produces.
// Ownership of each projectile passes to the sink.
type ProjectileSink interface {
	AddProjectile(p spawnable.Projectile)
	AddGroundFlash(pos vmath.Float3, flash GroundFlashInfo)
}

// Generator is one explosion generator instance. The handler numbers
// instances through SetGeneratorID starting at 1; 0 means the instance
// has not been registered yet.
//
// Load and Reload follow the configuration error discipline: problems
// are logged and surface as IDInvalid, never as panics.
type Generator interface {
	spawnable.GeneratorRef

	// SetGeneratorID assigns the handler-issued instance number.
	SetGeneratorID(id uint32)

	// Load compiles (or finds cached) the definition under tag and
	// returns its explosion id.
	Load(h *Handler, tag string) uint32

	// Reload recompiles the definition under tag, or every cached
	// definition when tag is empty.
	Reload(h *Handler, tag string)

	// Explosion runs the compiled set behind id for one explosion
	// event. It reports whether anything was processed.
	Explosion(h *Handler, id uint32, p ExplosionParams) bool

	// Unload releases the nested generator instances this generator
	// caused the handler to load.
	Unload(h *Handler)
}

// generatorBase carries the handler-issued instance number.
type generatorBase struct {
	id uint32
}

// GeneratorID returns the handler-issued instance number.
func (g *generatorBase) GeneratorID() uint32 { return g.id }

// SetGeneratorID assigns the instance number.
func (g *generatorBase) SetGeneratorID(id uint32) { g.id = id }
