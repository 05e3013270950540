package boot

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/kiln"
	"github.com/roach88/kiln/check"
	"github.com/roach88/kiln/stream"
)

type smoke struct{ kiln.Case }

func (s *smoke) Run() { check.ExpectEq(1+1, 2) }

var _ = kiln.Register[smoke]("boot", "smoke")

func TestRunList(t *testing.T) {
	buf := &bytes.Buffer{}

	status := run([]string{"-kiln.list"}, buf)
	assert.Equal(t, 0, status)
	assert.Contains(t, buf.String(), "boot/smoke")
}

func TestRunConsoleReporter(t *testing.T) {
	buf := &bytes.Buffer{}

	status := run([]string{"-kiln.nocolor"}, buf)
	require.Equal(t, 0, status)
	assert.Contains(t, buf.String(), "--- PASS: boot/smoke")
}

func TestRunJSONReporter(t *testing.T) {
	buf := &bytes.Buffer{}

	status := run([]string{"-kiln.reporter=json"}, buf)
	require.Equal(t, 0, status)

	events, err := stream.Parse(buf)
	require.NoError(t, err)
	require.NotEmpty(t, events)

	rep := stream.Summarize(events)
	assert.Equal(t, 1, rep.Passed)
	assert.Equal(t, 0, rep.Failed)
}

func TestRunEnvForcesJSON(t *testing.T) {
	t.Setenv("KILN_EVENTS", "json")
	buf := &bytes.Buffer{}

	status := run(nil, buf)
	require.Equal(t, 0, status)
	assert.True(t, stream.Sniff(buf.Bytes()))
}

func TestRunQuietReporter(t *testing.T) {
	buf := &bytes.Buffer{}

	status := run([]string{"-kiln.reporter=quiet"}, buf)
	assert.Equal(t, 0, status)
	assert.Empty(t, buf.String())
}

func TestRunUnknownReporter(t *testing.T) {
	status := run([]string{"-kiln.reporter=xml"}, io.Discard)
	assert.Equal(t, 2, status)
}

func TestRunBadFlag(t *testing.T) {
	status := run([]string{"-kiln.bogus"}, io.Discard)
	assert.Equal(t, 2, status)
}

func TestHandlerFor(t *testing.T) {
	h, err := handlerFor("console", io.Discard, false)
	require.NoError(t, err)
	assert.NotNil(t, h)

	h, err = handlerFor("json", io.Discard, false)
	require.NoError(t, err)
	assert.NotNil(t, h)

	h, err = handlerFor("quiet", io.Discard, false)
	require.NoError(t, err)
	assert.Nil(t, h)

	_, err = handlerFor("xml", io.Discard, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown reporter")
}
