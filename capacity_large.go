//go:build kiln_arena_large

package kiln

// ArenaCapacity under the kiln_arena_large build tag, for suites whose
// fixtures stage large buffers (flash images, DMA-sized scratch space).
const ArenaCapacity = 65536
