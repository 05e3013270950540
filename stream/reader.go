package stream

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// Parse reads a newline-delimited event stream. Lines that are not valid
// event records - stray prints, build noise - are skipped rather than
// treated as errors, which is how `go test -json` output gets consumed in
// practice. A scanner failure is returned.
func Parse(r io.Reader) ([]Event, error) {
	var events []Event
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		ev, ok := ParseLine(sc.Bytes())
		if !ok {
			continue
		}
		events = append(events, ev)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan event stream: %w", err)
	}
	return events, nil
}

// ParseLine decodes a single stream line. ok is false for anything that is
// not a well-formed event record.
func ParseLine(line []byte) (Event, bool) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 || line[0] != '{' {
		return Event{}, false
	}
	var ev Event
	if err := json.Unmarshal(line, &ev); err != nil || !ev.Valid() {
		return Event{}, false
	}
	return ev, true
}

// Sniff reports whether data looks like an event stream: its first
// non-empty line must decode to a valid event. Lets callers reject
// arbitrary files with a clear message before parsing.
func Sniff(data []byte) bool {
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		_, ok := ParseLine(line)
		return ok
	}
	return false
}
