// cegtool - compiles explosion generator definitions and inspects the result
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"strings"

	"github.com/tliron/commonlog"

	"github.com/chazu/expgen/pkg/defs"
	"github.com/chazu/expgen/pkg/expgen"
	"github.com/chazu/expgen/pkg/spawnable"
	"github.com/chazu/expgen/pkg/typemeta"
	"github.com/chazu/expgen/pkg/vmath"

	_ "github.com/tliron/commonlog/simple"
)

func main() {
	defsPath := flag.String("defs", "", "Explosion definitions TOML file")
	aliasPath := flag.String("aliases", "", "Class alias TOML file")
	tag := flag.String("tag", "", "Operate on a single definition tag (default: all)")
	disasm := flag.Bool("disasm", false, "Print the compiled spawn programs")
	snapshotPath := flag.String("snapshot", "", "Write the compiled definitions as a CBOR snapshot")
	decodePath := flag.String("decode", "", "Print the contents of a CBOR snapshot file")
	catalogJSON := flag.String("catalog-json", "", "Write the spawnable class catalog as JSON ('-' for stdout)")
	catalogDB := flag.String("catalog-db", "", "Write the spawnable class catalog into a SQLite database")
	fire := flag.Bool("fire", false, "Run one explosion per loaded tag and print what it spawns")
	damage := flag.Float64("damage", 200, "Explosion damage used with -fire")
	radius := flag.Float64("radius", 30, "Explosion radius used with -fire")
	seed := flag.Int64("seed", 1, "Random seed used with -fire")
	verbose := flag.Bool("v", false, "Verbose output")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: cegtool [options]\n\n")
		fmt.Fprintf(os.Stderr, "Compiles explosion generator definitions and inspects the result.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  cegtool -defs explosions.toml -disasm               # Compile everything, print programs\n")
		fmt.Fprintf(os.Stderr, "  cegtool -defs explosions.toml -tag flashboom -fire  # Fire one tag, list spawns\n")
		fmt.Fprintf(os.Stderr, "  cegtool -defs explosions.toml -snapshot out.ceg     # Snapshot the compiled state\n")
		fmt.Fprintf(os.Stderr, "  cegtool -decode out.ceg                             # Dump a snapshot\n")
		fmt.Fprintf(os.Stderr, "  cegtool -defs explosions.toml -catalog-db ceg.db    # Export the class catalog\n")
	}
	flag.Parse()

	verbosity := 0
	if *verbose {
		verbosity = 2
	}
	commonlog.Configure(verbosity, nil)

	// Decoding a snapshot needs no definitions at all.
	if *decodePath != "" {
		if err := decodeSnapshot(*decodePath); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if *defsPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	h, sink, err := buildHandler(*defsPath, *aliasPath, *seed)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	tags := []string{*tag}
	if *tag == "" {
		tags = allTags(h)
	}

	g := h.CustomGenerator()
	loaded := 0
	for _, t := range tags {
		id := g.Load(h, t)
		if id == expgen.IDInvalid {
			fmt.Fprintf(os.Stderr, "Warning: %q did not compile\n", t)
			continue
		}
		loaded++
		if *verbose {
			fmt.Printf("loaded %q as id %d\n", t, id)
		}
	}
	if *verbose {
		fmt.Printf("Compiled %d of %d definitions\n", loaded, len(tags))
	}

	if *disasm {
		printDisassembly(h)
	}
	if *snapshotPath != "" {
		if err := writeSnapshot(h, *snapshotPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if *verbose {
			fmt.Printf("Wrote snapshot to %s\n", *snapshotPath)
		}
	}
	if *catalogJSON != "" {
		if err := writeCatalogJSON(h, *catalogJSON); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
	if *catalogDB != "" {
		if err := writeCatalogDB(h, *catalogDB); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
	if *fire {
		fireAll(h, sink, float32(*damage), float32(*radius))
	}
}

// flatWorld is the tool's stand-in environment: flat ground at y=0, a
// fixed overhead camera, no particle pressure, and a seeded random
// stream so runs repeat.
type flatWorld struct {
	rng *rand.Rand
}

func (w *flatWorld) GroundHeight(x, z float32) float32 { return 0 }
func (w *flatWorld) CameraPos() vmath.Float3           { return vmath.New(0, 1500, 0) }
func (w *flatWorld) ParticleSaturation() float32       { return 0 }
func (w *flatWorld) RandFloat() float32                { return w.rng.Float32() }
func (w *flatWorld) RandInt() int32                    { return w.rng.Int31() }

// tallySink collects what an explosion spawns.
type tallySink struct {
	spawned []spawnable.Projectile
	flashes []expgen.GroundFlashInfo
}

func (s *tallySink) AddProjectile(p spawnable.Projectile) {
	s.spawned = append(s.spawned, p)
}

func (s *tallySink) AddGroundFlash(pos vmath.Float3, flash expgen.GroundFlashInfo) {
	s.flashes = append(s.flashes, flash)
}

func (s *tallySink) reset() {
	s.spawned = s.spawned[:0]
	s.flashes = s.flashes[:0]
}

// buildHandler wires a handler around the given definition files.
func buildHandler(defsPath, aliasPath string, seed int64) (*expgen.Handler, *tallySink, error) {
	reg := typemeta.NewRegistry()
	if err := expgen.RegisterBuiltins(reg); err != nil {
		return nil, nil, err
	}

	sink := &tallySink{}
	cfg := expgen.Config{
		LoadDefs: func() (*defs.Table, error) { return defs.Load(defsPath) },
		Types:    reg,
		Env:      &flatWorld{rng: rand.New(rand.NewSource(seed))},
		Sink:     sink,
	}
	if aliasPath != "" {
		cfg.LoadAliases = func() (*defs.Table, error) { return defs.Load(aliasPath) }
	}

	h, err := expgen.NewHandler(cfg)
	if err != nil {
		return nil, nil, err
	}
	return h, sink, nil
}

// allTags returns every tag in the root definition table.
func allTags(h *expgen.Handler) []string {
	var tags []string
	root := h.ExplosionRoot()
	for _, key := range root.Keys() {
		if root.SubTable(key).IsValid() {
			tags = append(tags, key)
		}
	}
	return tags
}

// printDisassembly lists every compiled set with its spawn programs.
func printDisassembly(h *expgen.Handler) {
	g := h.CustomGenerator()
	for _, tag := range g.Tags() {
		id, ok := g.TagID(tag)
		if !ok {
			continue
		}
		data := g.Data(id)
		fmt.Printf("%s (id %d)\n", tag, id)
		if data.UseDefaultExplosions {
			fmt.Printf("  + standard recipe\n")
		}
		for _, sp := range data.ProjectileSpawn {
			fmt.Printf("  %s x%d [%s] (%d bytes)\n", sp.Class.Name(), sp.Count, sp.Flags, sp.Prog.CodeLen())
			for _, line := range sp.Prog.DisassembleToLines() {
				fmt.Printf("    %s\n", line)
			}
		}
		if gf := data.GroundFlash; gf.TTL > 0 {
			fmt.Printf("  groundflash ttl=%d size=%g alpha=%g [%s]\n", gf.TTL, gf.FlashSize, gf.FlashAlpha, gf.Flags)
		}
		fmt.Println()
	}
}

// writeSnapshot serializes the compiled definitions to a file.
func writeSnapshot(h *expgen.Handler, path string) error {
	data, err := expgen.MarshalSnapshot(h.CustomGenerator().Snapshot())
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// decodeSnapshot reads a snapshot file and prints its contents.
func decodeSnapshot(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	snap, err := expgen.UnmarshalSnapshot(data)
	if err != nil {
		return err
	}

	fmt.Printf("%s: %d sets\n\n", path, len(snap.Sets))
	for _, set := range snap.Sets {
		fmt.Printf("%s (id %d)\n", set.Tag, set.ID)
		if set.UseDefault {
			fmt.Printf("  + standard recipe\n")
		}
		for _, sp := range set.Spawns {
			fmt.Printf("  %s x%d [%s] (%d bytes", sp.Class, sp.Count, expgen.SpawnFlags(sp.Flags), len(sp.Prog.Code))
			if n := len(sp.Prog.Handles); n > 0 {
				fmt.Printf(", %d handles", n)
			}
			fmt.Printf(")\n")
		}
		if gf := set.GroundFlash; gf != nil {
			fmt.Printf("  groundflash ttl=%d size=%g alpha=%g [%s]\n", gf.TTL, gf.FlashSize, gf.FlashAlpha, expgen.SpawnFlags(gf.Flags))
		}
		fmt.Println()
	}
	return nil
}

// fireAll runs one explosion per compiled tag and prints a spawn
// summary for each.
func fireAll(h *expgen.Handler, sink *tallySink, damage, radius float32) {
	g := h.CustomGenerator()
	for _, tag := range g.Tags() {
		id, ok := g.TagID(tag)
		if !ok {
			continue
		}
		sink.reset()
		h.Explosion(id, expgen.ExplosionParams{
			Pos:     vmath.New(0, 1, 0),
			Dir:     vmath.New(0, -1, 0),
			Damage:  damage,
			Radius:  radius,
			GfxMod:  1,
			OwnerID: -1,
		})

		counts := map[string]int{}
		for _, p := range sink.spawned {
			counts[strings.TrimPrefix(fmt.Sprintf("%T", p), "*spawnable.")]++
		}
		names := make([]string, 0, len(counts))
		for name := range counts {
			names = append(names, name)
		}
		sort.Strings(names)

		parts := make([]string, 0, len(names)+1)
		for _, name := range names {
			parts = append(parts, fmt.Sprintf("%s x%d", name, counts[name]))
		}
		if len(sink.flashes) > 0 {
			parts = append(parts, fmt.Sprintf("groundflash x%d", len(sink.flashes)))
		}
		if len(parts) == 0 {
			parts = append(parts, "nothing")
		}
		fmt.Printf("%s: %s\n", tag, strings.Join(parts, ", "))
	}
}
