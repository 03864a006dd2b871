package spawnable

import (
	"github.com/chazu/expgen/pkg/assets"
	"github.com/chazu/expgen/pkg/vmath"
)

// HeatCloud is the shimmering blast core spawned by most explosions.
type HeatCloud struct {
	WorldObject
	Speed       vmath.Float3           `ceg:"speed"`
	Heat        float32                `ceg:"heat"`
	MaxHeat     float32                `ceg:"maxheat"`
	HeatFalloff float32                `ceg:"heatfalloff"`
	Size        float32                `ceg:"size"`
	SizeGrowth  float32                `ceg:"sizegrowth"`
	SizeMod     float32                `ceg:"sizemod"`
	Texture     *assets.AtlasedTexture `ceg:"texture"`
}

// SmokeParticle drifts from its spawn point toward a wanted position.
type SmokeParticle struct {
	WorldObject
	Speed         vmath.Float3 `ceg:"speed"`
	WantedPos     vmath.Float3 `ceg:"wantedpos"`
	TTL           float32      `ceg:"ttl"`
	StartSize     float32      `ceg:"startsize"`
	SizeExpansion float32      `ceg:"sizeexpansion"`
	AgeSpeed      float32      `ceg:"agespeed"`
	Color         float32      `ceg:"color"`
	Glow          float32      `ceg:"glow"`
}

// DirtParticle is a thrown clod of ground or spray of water.
type DirtParticle struct {
	WorldObject
	Speed         vmath.Float3           `ceg:"speed"`
	TTL           float32                `ceg:"ttl"`
	Alpha         float32                `ceg:"alpha"`
	AlphaFalloff  float32                `ceg:"alphafalloff"`
	Size          float32                `ceg:"size"`
	SizeExpansion float32                `ceg:"sizeexpansion"`
	SlowDown      float32                `ceg:"slowdown"`
	Color         vmath.Float3           `ceg:"color"`
	Texture       *assets.AtlasedTexture `ceg:"texture"`
}

// WreckParticle is a tumbling piece of debris.
type WreckParticle struct {
	WorldObject
	Speed vmath.Float3 `ceg:"speed"`
	TTL   float32      `ceg:"ttl"`
}

// BubbleParticle rises through water from underwater explosions.
type BubbleParticle struct {
	WorldObject
	Speed         vmath.Float3 `ceg:"speed"`
	TTL           float32      `ceg:"ttl"`
	Size          float32      `ceg:"size"`
	SizeExpansion float32      `ceg:"sizeexpansion"`
	Alpha         float32      `ceg:"alpha"`
}

// WakeParticle spreads across the water surface.
type WakeParticle struct {
	WorldObject
	Speed         vmath.Float3 `ceg:"speed"`
	Size          float32      `ceg:"size"`
	SizeExpansion float32      `ceg:"sizeexpansion"`
	Alpha         float32      `ceg:"alpha"`
	AlphaFalloff  float32      `ceg:"alphafalloff"`
	Fade          float32      `ceg:"fade"`
}

// ExploSpike is a fast radial streak.
type ExploSpike struct {
	WorldObject
	Speed      vmath.Float3 `ceg:"speed"`
	Length     float32      `ceg:"length"`
	Width      float32      `ceg:"width"`
	Alpha      float32      `ceg:"alpha"`
	AlphaDecay float32      `ceg:"alphadecay"`
	Color      vmath.Float3 `ceg:"color"`
}

// SphereShell is an expanding translucent blast sphere.
type SphereShell struct {
	WorldObject
	ExpansionSpeed float32      `ceg:"expansionspeed"`
	Alpha          float32      `ceg:"alpha"`
	TTL            int32        `ceg:"ttl"`
	Color          vmath.Float3 `ceg:"color"`
}

// ExpGenSpawner fires another explosion generator after a delay,
// letting one generator stage multi-step effects.
type ExpGenSpawner struct {
	WorldObject
	Delay     int32        `ceg:"delay"`
	Damage    float32      `ceg:"damage"`
	Generator GeneratorRef `ceg:"explosiongenerator"`
}

// SimpleParticleSystem is the general-purpose emitter most custom
// effects are built from.
type SimpleParticleSystem struct {
	WorldObject
	EmitVector          vmath.Float3           `ceg:"emitvector"`
	EmitMul             vmath.Float3           `ceg:"emitmul"`
	Gravity             vmath.Float3           `ceg:"gravity"`
	ParticleSpeed       float32                `ceg:"particlespeed"`
	ParticleSpeedSpread float32                `ceg:"particlespeedspread"`
	ParticleLife        float32                `ceg:"particlelife"`
	ParticleLifeSpread  float32                `ceg:"particlelifespread"`
	ParticleSize        float32                `ceg:"particlesize"`
	ParticleSizeSpread  float32                `ceg:"particlesizespread"`
	NumParticles        int32                  `ceg:"numparticles"`
	AirDrag             float32                `ceg:"airdrag"`
	SizeGrowth          float32                `ceg:"sizegrowth"`
	SizeMod             float32                `ceg:"sizemod"`
	EmitRot             float32                `ceg:"emitrot"`
	EmitRotSpread       float32                `ceg:"emitrotspread"`
	Directional         bool                   `ceg:"directional"`
	Texture             *assets.AtlasedTexture `ceg:"texture"`
	ColorMap            *assets.ColorMap       `ceg:"colormap"`
}

// BitmapMuzzleFlame is a textured muzzle flash aligned to a direction.
type BitmapMuzzleFlame struct {
	WorldObject
	Dir          vmath.Float3           `ceg:"dir"`
	Size         float32                `ceg:"size"`
	Length       float32                `ceg:"length"`
	SizeGrowth   float32                `ceg:"sizegrowth"`
	FrontOffset  float32                `ceg:"frontoffset"`
	TTL          int32                  `ceg:"ttl"`
	SideTexture  *assets.AtlasedTexture `ceg:"sidetexture"`
	FrontTexture *assets.AtlasedTexture `ceg:"fronttexture"`
	ColorMap     *assets.ColorMap       `ceg:"colormap"`
}

// SeismicGroundFlash is a decal-style flash drawn from the ground
// effect atlas.
type SeismicGroundFlash struct {
	WorldObject
	Texture    *assets.GroundFXTexture `ceg:"texture"`
	TTL        int32                   `ceg:"ttl"`
	Fade       float32                 `ceg:"fade"`
	Size       float32                 `ceg:"size"`
	SizeGrowth float32                 `ceg:"sizegrowth"`
	Alpha      float32                 `ceg:"alpha"`
}

// Builtin pairs a canonical class name with a prototype value for type
// registration.
type Builtin struct {
	Name      string
	Prototype any
}

// Builtins returns the effect types shipped with the engine.
func Builtins() []Builtin {
	return []Builtin{
		{"HeatCloud", &HeatCloud{}},
		{"SmokeParticle", &SmokeParticle{}},
		{"DirtParticle", &DirtParticle{}},
		{"WreckParticle", &WreckParticle{}},
		{"BubbleParticle", &BubbleParticle{}},
		{"WakeParticle", &WakeParticle{}},
		{"ExploSpike", &ExploSpike{}},
		{"SphereShell", &SphereShell{}},
		{"ExpGenSpawner", &ExpGenSpawner{}},
		{"SimpleParticleSystem", &SimpleParticleSystem{}},
		{"BitmapMuzzleFlame", &BitmapMuzzleFlame{}},
		{"SeismicGroundFlash", &SeismicGroundFlash{}},
	}
}
