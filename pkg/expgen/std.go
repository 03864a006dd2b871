package expgen

import (
	"math"

	"github.com/chazu/expgen/pkg/spawnable"
	"github.com/chazu/expgen/pkg/vmath"
)

// gameSpeed is the simulation frame rate the recipe's speed constants
// were tuned against.
const gameSpeed = 30

// StdGenerator renders the fixed explosion recipe used by weapons
// without a scripted definition. It compiles nothing and keeps no
// state; damage, radius, and altitude decide which particle groups
// appear.
type StdGenerator struct {
	generatorBase
}

// NewStdGenerator returns the standard generator.
func NewStdGenerator() *StdGenerator {
	return &StdGenerator{}
}

// Load maps every tag to the one recipe.
func (g *StdGenerator) Load(h *Handler, tag string) uint32 {
	return IDStandard
}

// Reload is a no-op; nothing is compiled.
func (g *StdGenerator) Reload(h *Handler, tag string) {}

// Unload is a no-op; the recipe loads no nested generators.
func (g *StdGenerator) Unload(h *Handler) {}

// stdExplosion carries the shaped inputs of one recipe run.
type stdExplosion struct {
	env  Environ
	sink ProjectileSink
	p    ExplosionParams

	damage   float32 // shaped visual damage, not the gameplay value
	sqrtDmg  float32
	altitude float32
	npos     vmath.Float3 // blast center nudged toward the camera

	air, ground, water, uw bool
}

// Explosion renders the recipe. The id only matters to scripted
// generators and is ignored here.
func (g *StdGenerator) Explosion(h *Handler, id uint32, p ExplosionParams) bool {
	env := h.Env()

	altitude := p.Pos.Y - env.GroundHeight(p.Pos.X, p.Pos.Z)
	flags := FlagsFromHeight(p.Pos.Y, altitude)

	// Cap the visual load by the crater radius.
	damage := p.Damage / 20
	damage = min(damage, p.Radius*1.5)
	damage *= p.GfxMod
	damage = max(damage, 0)

	camVect := env.CameraPos().Sub(p.Pos)
	camLength := camVect.Length()
	moveLength := p.Radius * 0.03

	if camLength > 0 {
		camVect = camVect.Scale(1 / camLength)
	}
	if camLength < moveLength+2 {
		moveLength = camLength - 2
	}

	ex := &stdExplosion{
		env:      env,
		sink:     h.Sink(),
		p:        p,
		damage:   damage,
		sqrtDmg:  sqrt32(damage),
		altitude: altitude,
		npos:     p.Pos.Add(camVect.Scale(moveLength)),
		air:      flags&FlagAir != 0,
		ground:   flags&FlagGround != 0,
		water:    flags&FlagWater != 0,
		uw:       flags&FlagUnderwater != 0,
	}

	ex.spawnHeatCloud()

	// Drop the cosmetic-only groups when particles run over budget.
	if env.ParticleSaturation() < 1 {
		ex.spawnSmoke()
		if ex.ground {
			ex.spawnGroundDirt()
		}
		if !ex.air && !ex.uw && ex.water {
			ex.spawnWaterDirt()
		}
		if ex.damage >= 20 && !ex.uw && !ex.air {
			ex.spawnWreckage()
		}
		if ex.uw {
			ex.spawnBubbles()
		}
		if ex.water && !ex.uw && !ex.air {
			ex.spawnWake()
		}
		if ex.p.Radius > 10 && ex.damage > 4 {
			ex.spawnSpikes()
		}
	}

	ex.spawnGroundFlash()
	ex.spawnSphere()

	return true
}

func (ex *stdExplosion) spawnHeatCloud() {
	heat := &spawnable.HeatCloud{
		Speed: vmath.New(0, 0.3, 0),
		Heat:  8 + ex.sqrtDmg*0.5,
		Size:  7 + ex.damage*2.8,
	}
	heat.Pos = ex.npos.Sub(ex.p.Pos)
	heat.Init(ex.p.Pos, ex.p.OwnerID)
	ex.sink.AddProjectile(heat)
}

func (ex *stdExplosion) spawnSmoke() {
	smokeDamage := ex.damage
	if ex.uw {
		smokeDamage *= 0.3
	}
	if ex.air || ex.water {
		smokeDamage *= 0.6
	}

	var smokeDamageSQRT, smokeDamageISQRT float32
	if smokeDamage > 0.01 {
		smokeDamageSQRT = sqrt32(smokeDamage)
		smokeDamageISQRT = 1 / (smokeDamageSQRT * 0.35)
	}

	for a := 0; float32(a) < smokeDamage*0.6; a++ {
		speed := vmath.New(
			-0.1+ex.env.RandFloat()*0.2,
			(0.1+ex.env.RandFloat()*0.3)*smokeDamageISQRT,
			-0.1+ex.env.RandFloat()*0.2,
		)

		h := ex.env.GroundHeight(ex.npos.X, ex.npos.Z)
		time := (40 + smokeDamageSQRT*15) * (0.8 + ex.env.RandFloat()*0.7)

		wanted := ex.p.Pos.Add(randVector(ex.env).Scale(smokeDamage))
		wanted.Y = max(wanted.Y, h)

		smoke := &spawnable.SmokeParticle{
			Speed:         speed,
			WantedPos:     wanted,
			TTL:           time,
			StartSize:     smokeDamageSQRT * 4,
			SizeExpansion: 0.4,
			Color:         0.6,
		}
		smoke.Init(ex.p.Pos, ex.p.OwnerID)
		ex.sink.AddProjectile(smoke)
	}
}

func (ex *stdExplosion) spawnGroundDirt() {
	numDirt := int(min(20, ex.damage*0.8))
	color := vmath.New(0.15, 0.1, 0.05)

	for a := 0; a < numDirt; a++ {
		speed := vmath.New(
			(0.5-ex.env.RandFloat())*1.5,
			1.7+ex.env.RandFloat()*1.6,
			(0.5-ex.env.RandFloat())*1.5,
		).Scale(0.7 + min(30, ex.damage)/gameSpeed)

		rel := vmath.New(
			-(0.5-ex.env.RandFloat())*(ex.p.Radius*0.6),
			-2-ex.damage*0.2,
			-(0.5-ex.env.RandFloat())*(ex.p.Radius*0.6),
		)

		dirt := &spawnable.DirtParticle{
			Speed:         speed,
			TTL:           90 + ex.damage*2,
			Size:          2 + ex.sqrtDmg*1.5,
			SizeExpansion: 0.4,
			SlowDown:      0.999,
			Color:         color,
		}
		dirt.Pos = rel
		dirt.Init(ex.p.Pos, ex.p.OwnerID)
		ex.sink.AddProjectile(dirt)
	}
}

func (ex *stdExplosion) spawnWaterDirt() {
	numDirt := int(min(40, ex.damage*0.8))
	color := vmath.New(1, 1, 1)

	for a := 0; a < numDirt; a++ {
		speed := vmath.New(
			(0.5-ex.env.RandFloat())*0.2,
			float32(a)*0.1+ex.env.RandFloat()*0.8,
			(0.5-ex.env.RandFloat())*0.2,
		).Scale(0.7 + min(30, ex.damage)/gameSpeed)

		rel := vmath.New(
			-(0.5-ex.env.RandFloat())*(ex.p.Radius*0.2),
			-2-ex.sqrtDmg*2,
			-(0.5-ex.env.RandFloat())*(ex.p.Radius*0.2),
		)

		dirt := &spawnable.DirtParticle{
			Speed:         speed,
			TTL:           90 + ex.damage*2,
			Size:          2 + ex.sqrtDmg*2,
			SizeExpansion: 0.3,
			SlowDown:      0.99,
			Color:         color,
		}
		dirt.Pos = rel
		dirt.Init(ex.p.Pos, ex.p.OwnerID)
		ex.sink.AddProjectile(dirt)
	}
}

func (ex *stdExplosion) spawnWreckage() {
	numDebris := int(ex.env.RandInt()%6) + 3 + int(ex.damage*0.04)

	for a := 0; a < numDebris; a++ {
		var speed vmath.Float3
		if ex.altitude < 4 {
			speed = vmath.New(
				(0.5-ex.env.RandFloat())*2,
				1.8+ex.env.RandFloat()*1.8,
				(0.5-ex.env.RandFloat())*2,
			)
		} else {
			speed = randVector(ex.env).Scale(2)
		}

		rel := vmath.New(
			-(0.5-ex.env.RandFloat())*ex.p.Radius,
			0,
			-(0.5-ex.env.RandFloat())*ex.p.Radius,
		)

		wreck := &spawnable.WreckParticle{
			Speed: speed.Scale(0.7 + min(30, ex.damage)/23),
			TTL:   90 + ex.damage*2,
		}
		wreck.Pos = rel
		wreck.Init(ex.p.Pos, ex.p.OwnerID)
		ex.sink.AddProjectile(wreck)
	}
}

func (ex *stdExplosion) spawnBubbles() {
	numBubbles := int(ex.damage * 0.7)

	for a := 0; a < numBubbles; a++ {
		bubble := &spawnable.BubbleParticle{
			Speed:         randVector(ex.env).Scale(0.2).Add(vmath.New(0, 0.2, 0)),
			TTL:           ex.damage*2 + ex.env.RandFloat()*ex.damage,
			Size:          1 + ex.env.RandFloat()*2,
			SizeExpansion: 0.02,
			Alpha:         0.5 + ex.env.RandFloat()*0.3,
		}
		bubble.Pos = randVector(ex.env).Scale(ex.p.Radius * 0.5)
		bubble.Init(ex.p.Pos, ex.p.OwnerID)
		ex.sink.AddProjectile(bubble)
	}
}

func (ex *stdExplosion) spawnWake() {
	numWake := int(ex.damage * 0.5)

	for a := 0; a < numWake; a++ {
		wake := &spawnable.WakeParticle{
			Speed:         randVector(ex.env).Scale(ex.p.Radius * 0.003),
			Size:          ex.sqrtDmg * 4,
			SizeExpansion: ex.damage * 0.03,
			Alpha:         0.3 + ex.env.RandFloat()*0.2,
			AlphaFalloff:  0.8 / (ex.sqrtDmg*3 + 50 + ex.env.RandFloat()*90),
			Fade:          1,
		}
		wake.Pos = randVector(ex.env).Scale(ex.p.Radius * 0.2)
		wake.Init(ex.p.Pos, ex.p.OwnerID)
		ex.sink.AddProjectile(wake)
	}
}

func (ex *stdExplosion) spawnSpikes() {
	numSpike := int(ex.sqrtDmg) + 8

	for a := 0; a < numSpike; a++ {
		speed := randVector(ex.env).SafeNormalize().
			Scale((8 + ex.damage*3) / (9 + ex.sqrtDmg*0.7) * 0.35)

		if !ex.air && !ex.water && speed.Y < 0 {
			speed.Y = -speed.Y
		}

		spike := &spawnable.ExploSpike{
			Speed:      speed.Scale(0.9 + ex.env.RandFloat()*0.4),
			Length:     ex.p.Radius * 0.1,
			Width:      ex.p.Radius * 0.1,
			Alpha:      0.6,
			AlphaDecay: 0.8 / (8 + ex.sqrtDmg),
		}
		spike.Pos = speed
		spike.Init(ex.p.Pos, ex.p.OwnerID)
		ex.sink.AddProjectile(spike)
	}
}

func (ex *stdExplosion) spawnGroundFlash() {
	if ex.p.Radius <= 20 || ex.damage <= 6 || ex.altitude >= ex.p.Radius*0.7 {
		return
	}

	flashSize := max(ex.p.Radius, ex.damage*2)
	ttl := 8 + ex.sqrtDmg*0.8
	if flashSize <= 5 || ttl <= 15 {
		return
	}

	flash := GroundFlashInfo{
		FlashSize:  flashSize,
		FlashAlpha: min(0.8, ex.damage*0.01),
		TTL:        int32(ttl),
		Flags:      FlagGround,
		Color:      vmath.New(1, 1, 0.8),
	}
	if ex.p.Radius > 40 && ex.damage > 12 {
		flash.CircleAlpha = min(0.5, ex.damage*0.01)
		flash.CircleGrowth = (8 + ex.damage*2.5) / (9 + ex.sqrtDmg*0.7) * 0.55
	}

	ex.sink.AddGroundFlash(ex.p.Pos, flash)
}

func (ex *stdExplosion) spawnSphere() {
	if ex.p.Radius <= 40 || ex.damage <= 12 {
		return
	}

	sphere := &spawnable.SphereShell{
		ExpansionSpeed: (8 + ex.damage*2.5) / (9 + ex.sqrtDmg*0.7) * 0.5,
		Alpha:          min(0.7, ex.damage*0.02),
		TTL:            5 + int32(ex.sqrtDmg*0.7),
	}
	sphere.Init(ex.p.Pos, ex.p.OwnerID)
	ex.sink.AddProjectile(sphere)
}

// randVector draws a uniform vector inside the unit sphere by
// rejection.
func randVector(env Environ) vmath.Float3 {
	for {
		v := vmath.New(
			env.RandFloat()*2-1,
			env.RandFloat()*2-1,
			env.RandFloat()*2-1,
		)
		if v.SqLength() <= 1 {
			return v
		}
	}
}

func sqrt32(v float32) float32 {
	return float32(math.Sqrt(float64(v)))
}
