//go:build !kiln_arena_large

package kiln

// ArenaCapacity is the size in bytes of the fixture arena. Every registered
// fixture type must fit inside it; Register enforces the bound during package
// initialization, before any test runs.
//
// The default suits small embedded-style fixtures. Builds whose largest
// fixture needs more room select the kiln_arena_large build tag instead of
// editing this constant.
const ArenaCapacity = 8192
