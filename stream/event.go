// Package stream defines the newline-delimited JSON records a test binary's
// stream reporter emits, and the host-side reader that consumes them.
//
// The record layout matches the events `go test -json` produces, one JSON
// object per line, with the suite riding in the Package field and the test
// in the Test field, so kiln streams feed existing test-output consumers.
package stream

import "time"

// Action classifies one stream record.
type Action string

const (
	// ActionStart marks the first record of a suite.
	ActionStart Action = "start"
	// ActionRun marks a test beginning.
	ActionRun Action = "run"
	// ActionOutput carries one line of diagnostic output.
	ActionOutput Action = "output"
	// ActionPass closes a passing test, or a suite when Test is empty.
	ActionPass Action = "pass"
	// ActionFail closes a failing test, or a suite when Test is empty.
	ActionFail Action = "fail"
)

var validActions = map[Action]bool{
	ActionStart:  true,
	ActionRun:    true,
	ActionOutput: true,
	ActionPass:   true,
	ActionFail:   true,
}

// Event is one line of the run stream.
type Event struct {
	Time    time.Time `json:"Time"`
	Action  Action    `json:"Action"`
	Package string    `json:"Package,omitempty"`
	Test    string    `json:"Test,omitempty"`
	Elapsed float64   `json:"Elapsed,omitempty"`
	Output  string    `json:"Output,omitempty"`
}

// Valid reports whether the event carries a known action.
func (e Event) Valid() bool { return validActions[e.Action] }
