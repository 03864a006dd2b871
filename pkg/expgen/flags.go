package expgen

import (
	"strings"

	"github.com/chazu/expgen/pkg/defs"
)

// SpawnFlags classifies where an explosion happened and what it hit. A
// spawn entry runs when its configured flags share at least one bit with
// the explosion's flags.
type SpawnFlags uint32

const (
	// FlagWater marks an explosion at the water surface.
	FlagWater SpawnFlags = 1 << iota

	// FlagGround marks an explosion on or just above solid ground.
	FlagGround

	// FlagAir marks an explosion well above the ground.
	FlagAir

	// FlagUnderwater marks an explosion below the water surface.
	FlagUnderwater

	// FlagUnit marks an explosion that hit a unit.
	FlagUnit

	// FlagNoUnit marks an explosion that hit only the environment.
	FlagNoUnit
)

var flagNames = []struct {
	flag SpawnFlags
	name string
}{
	{FlagWater, "water"},
	{FlagGround, "ground"},
	{FlagAir, "air"},
	{FlagUnderwater, "underwater"},
	{FlagUnit, "unit"},
	{FlagNoUnit, "nounit"},
}

// String returns the set flags joined with '|', or "none".
func (f SpawnFlags) String() string {
	var parts []string
	for _, fn := range flagNames {
		if f&fn.flag != 0 {
			parts = append(parts, fn.name)
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// FlagsFromTable reads the boolean flag keys of a spawn or ground flash
// table. Missing keys stay unset.
func FlagsFromTable(t *defs.Table) SpawnFlags {
	var flags SpawnFlags

	if t.GetBool("ground", false) {
		flags |= FlagGround
	}
	if t.GetBool("water", false) {
		flags |= FlagWater
	}
	if t.GetBool("air", false) {
		flags |= FlagAir
	}
	if t.GetBool("underwater", false) {
		flags |= FlagUnderwater
	}
	if t.GetBool("unit", false) {
		flags |= FlagUnit
	}
	if t.GetBool("nounit", false) {
		flags |= FlagNoUnit
	}

	return flags
}

// FlagsFromHeight classifies an explosion by the height of its position
// and its altitude over the ground. The ranges cannot overlap, even
// though spawn-entry matching would accept it if they did.
func FlagsFromHeight(height, altitude float32) SpawnFlags {
	switch {
	case height > 0.0 && altitude >= 20.0:
		return FlagAir
	case height > 0.0 && altitude >= -1.0:
		return FlagGround
	case height > -5.0 && altitude >= -1.0:
		return FlagWater
	case height <= -5.0 && altitude >= -1.0:
		return FlagUnderwater
	}
	return 0
}
