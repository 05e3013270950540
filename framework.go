package kiln

import (
	"fmt"
	"iter"
)

// framework is the run orchestrator: the registry of Descriptors, the arena,
// the bound event handler, and the state of whichever test is in flight.
//
// The zero value is ready for use. That is what makes registration from
// package initializers safe: no constructor has to run before the first
// Register call arrives, whatever order the linker initializes packages in.
type framework struct {
	head  *Descriptor
	tail  *Descriptor
	total int

	handler EventHandler

	current *Descriptor
	verdict Verdict

	summary Summary
	arena   arena
}

// instance is the process-wide framework. The registry, the arena, and the
// handler binding all hang off this one value.
var instance framework

// register links d at the tail so iteration order equals registration order.
func (f *framework) register(d *Descriptor) {
	if f.tail == nil {
		f.head = d
	} else {
		f.tail.next = d
	}
	f.tail = d
	f.total++
}

// Tests yields every registered Descriptor in run order.
func Tests() iter.Seq[*Descriptor] {
	return func(yield func(*Descriptor) bool) {
		for d := instance.head; d != nil; d = d.next {
			if !yield(d) {
				return
			}
		}
	}
}

// TestCount is the number of registered tests.
func TestCount() int { return instance.total }

// RegisterEventHandler binds h as the observer for subsequent events. One
// handler at a time: a second call replaces the first, and nil unbinds.
// Rebinding in the middle of a run takes effect for events not yet
// delivered. The framework takes no ownership of h and only ever calls it
// synchronously from the run loop.
func RegisterEventHandler(h EventHandler) {
	instance.handler = h
}

// RunAllTests executes every registered test in registration order and
// returns the process exit status: 0 when every test passed, 1 otherwise.
//
// The run is one sequential pass on the calling goroutine. There is no
// cancellation and no timeout; a body that never returns blocks the run.
// Calling RunAllTests again re-runs the registry from a fresh Summary.
// Re-entrant calls from inside a test body are unsupported.
func RunAllTests() int {
	return instance.runAll()
}

func (f *framework) runAll() int {
	f.summary = Summary{}
	if f.handler != nil {
		f.handler.TestRunStarted(f.total)
	}
	for d := f.head; d != nil; d = d.next {
		d.run(d)
	}
	if f.handler != nil {
		f.handler.TestRunFinished(f.summary)
	}
	return f.summary.ExitStatus()
}

// runTest is the construct-and-run path. One instantiation of it exists per
// registered fixture type, and the Descriptor's run pointer selects it
// statically, so dispatch involves no reflection and the fixture never
// touches the heap.
func runTest[T any, PT Body[T]](d *Descriptor) {
	f := &instance
	fx := PT(place[T](&f.arena))
	fx.bind(d)
	f.beginTest(d)
	execute(fx)
	f.endTest(d)
	f.arena.release()
}

// execute runs the optional SetUp hook, the body, and the optional TearDown
// hook. A panic from any of them is recorded as a failed check and contained
// to this test; it never crosses a test boundary. TearDown runs even when
// the body panicked or early-returned, but not when SetUp itself panicked.
func execute(fx Fixture) {
	defer func() {
		if r := recover(); r != nil {
			instance.recordPanic(r)
		}
	}()
	if s, ok := fx.(setUpper); ok {
		s.SetUp()
	}
	defer func() {
		if r := recover(); r != nil {
			instance.recordPanic(r)
		}
		if t, ok := fx.(tearDowner); ok {
			t.TearDown()
		}
	}()
	fx.Run()
}

func (f *framework) beginTest(d *Descriptor) {
	f.current = d
	f.verdict = Pass
	if f.handler != nil {
		f.handler.TestStarted(d)
	}
}

func (f *framework) endTest(d *Descriptor) {
	if f.verdict == Pass {
		f.summary.Passed++
	} else {
		f.summary.Failed++
	}
	if f.handler != nil {
		f.handler.TestFinished(d, f.verdict)
	}
	f.current = nil
}

// recordExpectation folds one check outcome into the running test and
// reports it to the handler. The verdict only ever moves toward Fail;
// nothing inside a test moves it back.
func (f *framework) recordExpectation(ok bool, expr string, line int) bool {
	if f.current == nil {
		panic("kiln: expectation recorded with no test running")
	}
	if !ok {
		f.verdict = Fail
	}
	if f.handler != nil {
		f.handler.ExpectationResult(Expectation{Expression: expr, Line: line, Passed: ok})
	}
	return ok
}

func (f *framework) recordPanic(r any) {
	f.recordExpectation(false, fmt.Sprint("unexpected panic: ", r), 0)
}
