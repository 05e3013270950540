package report

import "github.com/roach88/kiln"

// Tee fans events out to several handlers in order, so a binary can draw a
// console for the operator while writing the machine stream for tooling.
func Tee(handlers ...kiln.EventHandler) kiln.EventHandler {
	return teeHandler(handlers)
}

type teeHandler []kiln.EventHandler

func (t teeHandler) TestRunStarted(total int) {
	for _, h := range t {
		h.TestRunStarted(total)
	}
}

func (t teeHandler) TestStarted(d *kiln.Descriptor) {
	for _, h := range t {
		h.TestStarted(d)
	}
}

func (t teeHandler) ExpectationResult(e kiln.Expectation) {
	for _, h := range t {
		h.ExpectationResult(e)
	}
}

func (t teeHandler) TestFinished(d *kiln.Descriptor, v kiln.Verdict) {
	for _, h := range t {
		h.TestFinished(d, v)
	}
}

func (t teeHandler) TestRunFinished(s kiln.Summary) {
	for _, h := range t {
		h.TestRunFinished(s)
	}
}
