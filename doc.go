// Package kiln is a unit-test execution engine for constrained targets.
//
// It keeps the shape of a conventional test framework - suites, fixtures,
// expectations, reporters - while holding to three rules that matter on
// small devices:
//
//   - No heap allocation on the test path. Every fixture is constructed
//     inside one statically sized arena and destroyed before the next test
//     starts, so memory use is bounded by a build-time constant.
//   - No unwinding as control flow. A failed check records an event and
//     returns a bool; a fatal check is simply one the caller returns on.
//   - One pluggable observer. The framework emits a fixed set of lifecycle
//     events to a single EventHandler; everything else - console output,
//     wire streams, history - is built outside the core on that interface.
//
// # Registering tests
//
// A test is a type. It embeds Case, implements Run, and registers itself
// from a package-level var:
//
//	type PushPop struct {
//		kiln.Case
//		rb RingBuffer
//	}
//
//	func (t *PushPop) SetUp()    { t.rb.Reset() }
//	func (t *PushPop) Run() {
//		t.rb.Push(7)
//		v, ok := t.rb.Pop()
//		if !check.AssertTrue(ok) {
//			return
//		}
//		check.ExpectEq(v, 7)
//	}
//
//	var _ = kiln.Register[PushPop]("ringbuf", "push then pop")
//
// Registration happens during package initialization, so by the time main
// runs the registry is complete. Tests execute in registration order, which
// is fixed for a given build.
//
// # The fixture arena
//
// Register refuses, before main begins, any fixture type larger than
// ArenaCapacity, with a message naming the type and both sizes. Code
// generators that want the bound enforced at compile time can emit the
// classic array-length assertion instead:
//
//	var _ [kiln.ArenaCapacity - unsafe.Sizeof(PushPop{})]byte
//
// The arena is untyped memory and the garbage collector does not scan it.
// A fixture must therefore not hold the only reference to collector-managed
// memory across a collection; keep fixture state self-contained (values,
// arrays) or reachable from elsewhere, such as package-level variables.
//
// # Checks
//
// The check package provides the usual comparison helpers. Expect variants
// record and continue; Assert variants record the same way and exist so call
// sites read as fatal, with the early return written out:
//
//	if !check.AssertNoError(err) {
//		return
//	}
//
// A panic escaping a test body is contained: the test is marked failed, its
// TearDown still runs, and the rest of the suite proceeds.
//
// # Running
//
// A test binary's main is one line, os.Exit(boot.Main()), which parses
// flags, binds a reporter from the report package, and calls RunAllTests.
// Embedded builds that cannot carry the reporter stack bind their own
// EventHandler (or none) and call RunAllTests directly; the core imports
// nothing outside the standard library.
package kiln
