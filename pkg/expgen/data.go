package expgen

import (
	"github.com/chazu/expgen/pkg/bytecode"
	"github.com/chazu/expgen/pkg/typemeta"
	"github.com/chazu/expgen/pkg/vmath"
)

// ProjectileSpawnInfo is one compiled spawn entry: which class to
// instantiate, when the entry applies, how many instances to create, and
// the program that fills each instance in. Immutable after compilation.
type ProjectileSpawnInfo struct {
	Class *typemeta.Descriptor
	Flags SpawnFlags
	Count int
	Prog  *bytecode.Program
}

// GroundFlashInfo holds the scorch flash of a grounded explosion. It is
// copied verbatim from configuration, never compiled. TTL 0 means the
// definition has no flash.
type GroundFlashInfo struct {
	FlashSize    float32
	FlashAlpha   float32
	CircleGrowth float32
	CircleAlpha  float32
	TTL          int32
	Flags        SpawnFlags
	Color        vmath.Float3
}

// CEGData is everything one generator tag compiled to. Replaced
// wholesale on reload, dropped when the cache is cleared.
type CEGData struct {
	ProjectileSpawn      []ProjectileSpawnInfo
	GroundFlash          GroundFlashInfo
	UseDefaultExplosions bool

	// Nested generator instances this set caused the handler to load,
	// released when the set is unloaded.
	spawnGens []Generator
}
