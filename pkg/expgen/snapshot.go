package expgen

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/chazu/expgen/pkg/bytecode"
)

// cborEncMode is the canonical CBOR encoding mode, so identical
// snapshots serialize to identical bytes.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("expgen: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// SpawnImage is the serializable form of one spawn entry.
type SpawnImage struct {
	Class string                `cbor:"class"`
	Flags uint32                `cbor:"flags"`
	Count int                   `cbor:"count"`
	Prog  bytecode.ProgramImage `cbor:"prog"`
}

// FlashImage is the serializable form of a ground flash block.
type FlashImage struct {
	FlashSize    float32    `cbor:"flashsize"`
	FlashAlpha   float32    `cbor:"flashalpha"`
	CircleGrowth float32    `cbor:"circlegrowth"`
	CircleAlpha  float32    `cbor:"circlealpha"`
	TTL          int32      `cbor:"ttl"`
	Flags        uint32     `cbor:"flags"`
	Color        [3]float32 `cbor:"color"`
}

// SetImage is the serializable form of one compiled definition.
type SetImage struct {
	Tag         string       `cbor:"tag"`
	ID          uint32       `cbor:"id"`
	Spawns      []SpawnImage `cbor:"spawns,omitempty"`
	GroundFlash *FlashImage  `cbor:"groundflash,omitempty"`
	UseDefault  bool         `cbor:"usedefault,omitempty"`
}

// Snapshot is a diagnostic image of every compiled definition held by a
// scripted generator, for diffing and offline inspection. Snapshots are
// never loaded back into a live generator.
type Snapshot struct {
	Sets []SetImage `cbor:"sets"`
}

// Snapshot captures the compiled definitions in ascending id order.
// Slots orphaned by failed reloads have no tag and are skipped.
func (g *CustomGenerator) Snapshot() Snapshot {
	tags := make(map[uint32]string, len(g.ids))
	for tag, id := range g.ids {
		tags[id] = tag
	}

	var snap Snapshot
	for id := range g.data {
		tag, ok := tags[uint32(id)]
		if !ok {
			continue
		}
		cd := &g.data[id]

		set := SetImage{Tag: tag, ID: uint32(id), UseDefault: cd.UseDefaultExplosions}
		for _, psi := range cd.ProjectileSpawn {
			set.Spawns = append(set.Spawns, SpawnImage{
				Class: psi.Class.Name(),
				Flags: uint32(psi.Flags),
				Count: psi.Count,
				Prog:  psi.Prog.Image(),
			})
		}
		if gf := cd.GroundFlash; gf.TTL > 0 {
			set.GroundFlash = &FlashImage{
				FlashSize:    gf.FlashSize,
				FlashAlpha:   gf.FlashAlpha,
				CircleGrowth: gf.CircleGrowth,
				CircleAlpha:  gf.CircleAlpha,
				TTL:          gf.TTL,
				Flags:        uint32(gf.Flags),
				Color:        [3]float32{gf.Color.X, gf.Color.Y, gf.Color.Z},
			}
		}
		snap.Sets = append(snap.Sets, set)
	}
	return snap
}

// MarshalSnapshot serializes a snapshot to canonical CBOR.
func MarshalSnapshot(s Snapshot) ([]byte, error) {
	return cborEncMode.Marshal(s)
}

// UnmarshalSnapshot decodes a snapshot.
func UnmarshalSnapshot(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := cbor.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("expgen: unmarshal snapshot: %w", err)
	}
	return s, nil
}
