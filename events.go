package kiln

// Verdict is the outcome of a single test.
type Verdict uint8

const (
	Pass Verdict = iota
	Fail
)

func (v Verdict) String() string {
	if v == Pass {
		return "PASS"
	}
	return "FAIL"
}

// Expectation is the record of one check inside a running test. Expression
// is the rendered form of the check with evaluated operands substituted for
// source text, and Line is the call-site line within the test's source file.
type Expectation struct {
	Expression string
	Line       int
	Passed     bool
}

// Summary is the aggregate outcome of one full run.
type Summary struct {
	Passed int
	Failed int
}

// Total is the number of tests the run executed.
func (s Summary) Total() int { return s.Passed + s.Failed }

// ExitStatus follows the test-binary convention: zero only when every test
// passed.
func (s Summary) ExitStatus() int {
	if s.Failed > 0 {
		return 1
	}
	return 0
}

// EventHandler receives the framework's lifecycle stream. All methods are
// invoked synchronously on the goroutine running the tests, in a fixed
// order: TestRunStarted once, then for each test TestStarted, its
// ExpectationResults in source order, and TestFinished, then TestRunFinished
// once. Descriptors live for the whole process, so handlers may retain them.
//
// Handlers are bound with RegisterEventHandler. Running with no handler is
// legal; events are then dropped and outcomes are unaffected.
type EventHandler interface {
	// TestRunStarted is delivered before any test, with the number of
	// registered tests.
	TestRunStarted(total int)

	// TestStarted is delivered once the fixture for d sits in the arena,
	// before its SetUp hook and body run.
	TestStarted(d *Descriptor)

	// ExpectationResult is delivered for every recorded check of the test
	// currently between TestStarted and TestFinished.
	ExpectationResult(e Expectation)

	// TestFinished is delivered after the test's TearDown hook has run.
	TestFinished(d *Descriptor, v Verdict)

	// TestRunFinished is delivered after the last test, with the aggregate
	// outcome of the run.
	TestRunFinished(s Summary)
}
