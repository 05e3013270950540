package kiln

import (
	"fmt"
	"runtime"
)

// Descriptor identifies one registered test. Descriptors are created during
// package initialization, linked into the run order, and never freed, so
// event handlers may hold them for the life of the process.
type Descriptor struct {
	suite string
	name  string
	file  string
	run   func(*Descriptor)
	next  *Descriptor
}

// Suite is the suite the test was registered under.
func (d *Descriptor) Suite() string { return d.suite }

// Name is the test's name within its suite.
func (d *Descriptor) Name() string { return d.name }

// File is the source file the test was registered from.
func (d *Descriptor) File() string { return d.file }

// FullName is "suite/name", the form reporters and the wire stream use.
func (d *Descriptor) FullName() string { return d.suite + "/" + d.name }

// Body is the constraint Register places on a fixture pointer: *T must
// implement Fixture, which in practice means T embeds Case directly or
// through a shared base.
type Body[T any] interface {
	*T
	Fixture
}

// Register adds a test to the run order and returns its Descriptor. T is the
// fixture type: a fresh T is constructed inside the arena each time the test
// runs, bound to its Descriptor, and torn down before the next test starts.
// Call Register from a package-level var so every test is recorded before
// main begins:
//
//	type CounterStartsAtZero struct{ kiln.Case }
//
//	func (t *CounterStartsAtZero) Run() {
//		c := NewCounter()
//		check.ExpectEq(c.Value(), 0)
//	}
//
//	var _ = kiln.Register[CounterStartsAtZero]("counter", "starts at zero")
//
// Tests run in registration order. Package initialization order is fixed for
// a given build, so the order is stable from one execution to the next.
//
// Register panics when suite or name is empty, or when T exceeds
// ArenaCapacity. Both fire during initialization, before any test runs, so
// an oversized fixture can never reach a running suite.
func Register[T any, PT Body[T]](suite, name string) *Descriptor {
	if suite == "" || name == "" {
		panic("kiln: suite and test names must be non-empty")
	}
	if size := sizeOf[T](); size > ArenaCapacity {
		var p *T
		panic(fmt.Sprintf(
			"kiln: fixture type %T is %d bytes but the arena holds %d; build with -tags kiln_arena_large or shrink the fixture",
			p, size, ArenaCapacity))
	}
	_, file, _, _ := runtime.Caller(1)
	d := &Descriptor{suite: suite, name: name, file: file}
	d.run = runTest[T, PT]
	instance.register(d)
	return d
}
