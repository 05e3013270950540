// Package report provides EventHandler implementations for test binaries:
// streaming console text for humans, a JSON event stream for machines, and
// a tee for driving several at once.
package report

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/fatih/color"

	"github.com/roach88/kiln"
)

// Console renders the run as streaming text in the shape go test prints:
// a RUN line per test, failed expectations indented beneath it with their
// source file and line, a PASS/FAIL line with elapsed time, and a one-line
// run trailer. Passed expectations stay silent unless verbose is on.
type Console struct {
	w       io.Writer
	now     func() time.Time
	verbose bool

	runStart  time.Time
	testStart time.Time
	current   *kiln.Descriptor
}

// ConsoleOption configures a Console.
type ConsoleOption func(*Console)

// WithClock substitutes the time source, keeping elapsed values stable in
// golden tests.
func WithClock(now func() time.Time) ConsoleOption {
	return func(c *Console) { c.now = now }
}

// WithVerbose prints passed expectations as well as failed ones.
func WithVerbose(v bool) ConsoleOption {
	return func(c *Console) { c.verbose = v }
}

// NewConsole creates a console reporter writing to w. Color follows the
// color package's global resolution (NO_COLOR, non-terminal output).
func NewConsole(w io.Writer, opts ...ConsoleOption) *Console {
	c := &Console{w: w, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Console) TestRunStarted(total int) {
	c.runStart = c.now()
	fmt.Fprintf(c.w, "running %d tests\n", total)
}

func (c *Console) TestStarted(d *kiln.Descriptor) {
	c.current = d
	c.testStart = c.now()
	fmt.Fprintf(c.w, "=== RUN   %s\n", d.FullName())
}

func (c *Console) ExpectationResult(e kiln.Expectation) {
	if e.Passed && !c.verbose {
		return
	}
	// Line 0 means the record has no call site, e.g. a contained panic.
	if e.Line == 0 {
		fmt.Fprintf(c.w, "    %s\n", e.Expression)
		return
	}
	file := "?"
	if c.current != nil {
		file = filepath.Base(c.current.File())
	}
	if e.Passed {
		fmt.Fprintf(c.w, "    %s:%d: ok: %s\n", file, e.Line, e.Expression)
		return
	}
	fmt.Fprintf(c.w, "    %s:%d: %s\n", file, e.Line, e.Expression)
}

func (c *Console) TestFinished(d *kiln.Descriptor, v kiln.Verdict) {
	elapsed := c.now().Sub(c.testStart).Seconds()
	fmt.Fprintf(c.w, "--- %s: %s (%.2fs)\n", verdictString(v), d.FullName(), elapsed)
	c.current = nil
}

func (c *Console) TestRunFinished(s kiln.Summary) {
	elapsed := c.now().Sub(c.runStart).Seconds()
	verdict := color.GreenString("PASS")
	if s.Failed > 0 {
		verdict = color.RedString("FAIL")
	}
	fmt.Fprintf(c.w, "%s: %d passed, %d failed (%.2fs)\n", verdict, s.Passed, s.Failed, elapsed)
}

func verdictString(v kiln.Verdict) string {
	if v == kiln.Pass {
		return color.GreenString("PASS")
	}
	return color.RedString("FAIL")
}
