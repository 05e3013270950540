package report

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/roach88/kiln"
	"github.com/roach88/kiln/stream"
)

// Stream emits the run as newline-delimited JSON in the layout `go test
// -json` consumers understand. Suites appear lazily: a start record the
// first time one of their tests runs, and a suite-level pass/fail record
// when the run finishes. Failed expectations become output records; the
// run total has no wire representation.
//
// Use one Stream per run.
type Stream struct {
	enc *json.Encoder
	now func() time.Time
	err error

	current   *kiln.Descriptor
	testStart time.Time

	suites map[string]*suiteAgg
	order  []string
}

type suiteAgg struct {
	start  time.Time
	failed bool
}

// StreamOption configures a Stream.
type StreamOption func(*Stream)

// WithStreamClock substitutes the time source, keeping timestamps stable in
// tests.
func WithStreamClock(now func() time.Time) StreamOption {
	return func(s *Stream) { s.now = now }
}

// NewStream creates a stream reporter writing one event per line to w.
func NewStream(w io.Writer, opts ...StreamOption) *Stream {
	s := &Stream{
		enc:    json.NewEncoder(w),
		now:    time.Now,
		suites: map[string]*suiteAgg{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Err reports the first write error, if any. Events after a failed write
// are still attempted; a broken pipe surfaces here rather than panicking
// mid-run.
func (s *Stream) Err() error { return s.err }

func (s *Stream) emit(ev stream.Event) {
	ev.Time = s.now()
	if err := s.enc.Encode(ev); err != nil && s.err == nil {
		s.err = err
	}
}

func (s *Stream) TestRunStarted(total int) {}

func (s *Stream) TestStarted(d *kiln.Descriptor) {
	suite := d.Suite()
	if _, ok := s.suites[suite]; !ok {
		s.suites[suite] = &suiteAgg{start: s.now()}
		s.order = append(s.order, suite)
		s.emit(stream.Event{Action: stream.ActionStart, Package: suite})
	}
	s.current = d
	s.testStart = s.now()
	s.emit(stream.Event{Action: stream.ActionRun, Package: suite, Test: d.Name()})
}

func (s *Stream) ExpectationResult(e kiln.Expectation) {
	if e.Passed || s.current == nil {
		return
	}
	out := fmt.Sprintf("    %s (line %d)\n", e.Expression, e.Line)
	if e.Line == 0 {
		out = fmt.Sprintf("    %s\n", e.Expression)
	}
	s.emit(stream.Event{
		Action:  stream.ActionOutput,
		Package: s.current.Suite(),
		Test:    s.current.Name(),
		Output:  out,
	})
}

func (s *Stream) TestFinished(d *kiln.Descriptor, v kiln.Verdict) {
	action := stream.ActionPass
	if v == kiln.Fail {
		action = stream.ActionFail
		s.suites[d.Suite()].failed = true
	}
	s.emit(stream.Event{
		Action:  action,
		Package: d.Suite(),
		Test:    d.Name(),
		Elapsed: s.now().Sub(s.testStart).Seconds(),
	})
	s.current = nil
}

func (s *Stream) TestRunFinished(sum kiln.Summary) {
	for _, suite := range s.order {
		agg := s.suites[suite]
		action := stream.ActionPass
		if agg.failed {
			action = stream.ActionFail
		}
		s.emit(stream.Event{
			Action:  action,
			Package: suite,
			Elapsed: s.now().Sub(agg.start).Seconds(),
		})
	}
}
