// Package spawnable defines the effect object types an explosion
// generator can spawn, plus the class alias lists that map content
// names to registered types.
//
// Effect fields carry a `ceg:"key"` tag naming the configuration key a
// spawn table's properties may target. Untagged fields are not
// configurable.
package spawnable

import (
	"github.com/chazu/expgen/pkg/vmath"
)

// Projectile is implemented by every spawnable effect. Init runs after
// a compiled program has filled in the configurable fields; pos is the
// explosion position and is added to the program-set relative position.
type Projectile interface {
	Init(pos vmath.Float3, ownerID int32)
}

// GeneratorRef is a handle to a loaded explosion generator, stored into
// effect fields that trigger nested explosions.
type GeneratorRef interface {
	GeneratorID() uint32
}

// WorldObject is the common base of every spawnable effect.
type WorldObject struct {
	Pos           vmath.Float3 `ceg:"pos"`
	UseAirLos     bool         `ceg:"useairlos"`
	AlwaysVisible bool         `ceg:"alwaysvisible"`
	OwnerID       int32
}

// Init offsets the configured relative position by the explosion
// position and records the owner.
func (w *WorldObject) Init(pos vmath.Float3, ownerID int32) {
	w.Pos = w.Pos.Add(pos)
	w.OwnerID = ownerID
}
