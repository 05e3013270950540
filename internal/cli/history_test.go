package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/kiln/internal/history"
)

// seedHistory creates a history database with one recorded run.
func seedHistory(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "history.db")

	db, err := history.Open(path)
	require.NoError(t, err)
	defer db.Close()

	run := history.Run{
		ID:         "run-1",
		StartedAt:  time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		Binary:     "./build/host/tests",
		Target:     "host",
		Passed:     1,
		Failed:     1,
		ExitStatus: 1,
		Digest:     "ab12cd34",
	}
	results := []history.Result{
		{Suite: "ringbuf", Test: "push then pop", Verdict: history.VerdictPass, ElapsedMS: 10},
		{Suite: "ringbuf", Test: "wraparound", Verdict: history.VerdictFail, ElapsedMS: 12,
			Output: "    3 == 4 (line 42)\n"},
	}
	require.NoError(t, db.RecordRun(context.Background(), run, results))
	return path
}

func TestHistoryCommand_List(t *testing.T) {
	dbPath := seedHistory(t)

	color.NoColor = true
	root := NewRootCommand()
	buf := &bytes.Buffer{}
	root.SetOut(buf)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"history", "--history", dbPath})

	require.NoError(t, root.Execute())
	assert.Contains(t, buf.String(), "RUN")
	assert.Contains(t, buf.String(), "run-1")
	assert.Contains(t, buf.String(), "2024-05-01 10:00:00")
	assert.Contains(t, buf.String(), "host")
	assert.Contains(t, buf.String(), "FAIL (1/2)")
}

func TestHistoryCommand_ListEmpty(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")

	root := NewRootCommand()
	buf := &bytes.Buffer{}
	root.SetOut(buf)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"history", "--history", dbPath})

	require.NoError(t, root.Execute())
	assert.Contains(t, buf.String(), "No runs recorded yet.")
}

func TestHistoryCommand_Show(t *testing.T) {
	dbPath := seedHistory(t)

	color.NoColor = true
	root := NewRootCommand()
	buf := &bytes.Buffer{}
	root.SetOut(buf)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"history", "run-1", "--history", dbPath})

	require.NoError(t, root.Execute())
	out := buf.String()
	assert.Contains(t, out, "Run: run-1")
	assert.Contains(t, out, "Binary: ./build/host/tests")
	assert.Contains(t, out, "✓ ringbuf/push then pop (10ms)")
	assert.Contains(t, out, "✗ ringbuf/wraparound (12ms)")
	assert.Contains(t, out, "3 == 4 (line 42)")
	assert.NotContains(t, out, "Digest:")
}

func TestHistoryCommand_ShowVerbosePrintsDigest(t *testing.T) {
	dbPath := seedHistory(t)

	color.NoColor = true
	root := NewRootCommand()
	buf := &bytes.Buffer{}
	root.SetOut(buf)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"history", "run-1", "--history", dbPath, "--verbose"})

	require.NoError(t, root.Execute())
	assert.Contains(t, buf.String(), "Digest: ab12cd34")
}

func TestHistoryCommand_UnknownRun(t *testing.T) {
	dbPath := seedHistory(t)

	root := NewRootCommand()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"history", "nope", "--history", dbPath})

	err := root.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "no run with ID")
}

func TestHistoryCommand_JSONList(t *testing.T) {
	dbPath := seedHistory(t)

	root := NewRootCommand()
	buf := &bytes.Buffer{}
	root.SetOut(buf)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"history", "--history", dbPath, "--format", "json"})

	require.NoError(t, root.Execute())

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Contains(t, buf.String(), `"id": "run-1"`)
	assert.Contains(t, buf.String(), `"digest": "ab12cd34"`)
}

func TestHistoryCommand_JSONShow(t *testing.T) {
	dbPath := seedHistory(t)

	root := NewRootCommand()
	buf := &bytes.Buffer{}
	root.SetOut(buf)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"history", "run-1", "--history", dbPath, "--format", "json"})

	require.NoError(t, root.Execute())

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Contains(t, buf.String(), `"verdict": "fail"`)
	assert.Contains(t, buf.String(), `"suite": "ringbuf"`)
}
