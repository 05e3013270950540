package kiln

import "unsafe"

// arenaWords sizes the backing array in 8-byte words. Backing the region
// with uint64 gives it 8-byte alignment, the largest alignment the language
// guarantees for any type, so any fixture type may be placed at its start.
const arenaWords = ArenaCapacity / 8

// arena is the fixed region every fixture is constructed in. It holds at
// most one live fixture: place hands out the slot, release returns it, and
// the run loop never overlaps two occupancies.
//
// The region is untyped memory, so the collector never scans it. A placed
// fixture must not hold the only reference to garbage-collected memory; see
// the package documentation for the full rule.
type arena struct {
	words [arenaWords]uint64
	live  bool
}

// sizeOf reports the in-memory size of T without materializing one.
func sizeOf[T any]() uintptr {
	var p *T
	return unsafe.Sizeof(*p)
}

// place zeroes sizeof(T) bytes of the slot and returns it as a *T. The
// fixture starts from the zero value every time, regardless of what the
// previous occupant left behind.
//
// Panics when a fixture is still live or when T does not fit. Register
// bounds every fixture type during package initialization, so either panic
// firing mid-run means the placement protocol itself was broken, not that a
// test is oversized.
func place[T any](a *arena) *T {
	if a.live {
		panic("kiln: arena already holds a live fixture")
	}
	size := sizeOf[T]()
	if size > ArenaCapacity {
		panic("kiln: fixture too large for the arena")
	}
	clear(a.words[:(size+7)/8])
	a.live = true
	return (*T)(unsafe.Pointer(&a.words[0]))
}

// release ends the current occupancy. The slot contents stay in place until
// the next placement zeroes them.
func (a *arena) release() {
	a.live = false
}
