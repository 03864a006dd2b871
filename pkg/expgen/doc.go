// Package expgen owns the explosion generator registry: loading scripted
// generator definitions into compiled program sets, caching them under
// stable numeric ids, reloading them in place, and running them when an
// explosion goes off.
//
// Two generator implementations exist:
//
//   - StdGenerator renders the fixed, non-scripted explosion recipe.
//     It compiles nothing; damage, radius, and altitude pick which
//     particle groups appear.
//   - CustomGenerator compiles per-tag definition tables into bytecode
//     programs and caches them. Each tag maps to one dense id; the
//     reserved ids IDInvalid, IDStandard, and IDSpawner never collide
//     with cached tags.
//
// The Handler ties both to their inputs: the parsed definition tables,
// the class alias lists, the type registry, the asset stores, and the
// world environment. It also numbers the per-reference generator
// instances that nested explosiongenerator fields spawn, so a reload can
// fan out to every live generator.
//
// # Id Stability
//
// A tag's id is handed out once and survives a full reload: Reload("")
// recompiles every cached tag back into its original slot, leaving dead
// slots behind for tags whose tables disappeared. A single-tag reload
// uses swap-and-pop and may relocate the data of the last slot; ids are
// opaque handles, "valid slot or not" is the whole contract.
//
// # Concurrency
//
// Load, Reload, and Unload mutate the cache and must be serialized by
// the caller. Explosion only reads compiled data and may run
// concurrently with itself, never with a reload of the same registry.
package expgen
