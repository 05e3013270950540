package history

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kiln", "history.db")

	d, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer d.Close()

	// Verify file and parent directory were created
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	for i := 0; i < 3; i++ {
		d, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		d.Close()
	}

	d, err := Open(path)
	if err != nil {
		t.Fatalf("final Open() failed: %v", err)
	}
	defer d.Close()

	// Verify schema is intact
	for _, table := range []string{"runs", "results"} {
		var name string
		err := d.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q not found after idempotent opens: %v", table, err)
		}
	}
}

func TestOpen_RefusesNewerSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	d, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	if _, err := d.db.Exec("PRAGMA user_version = 99"); err != nil {
		t.Fatalf("failed to set user_version: %v", err)
	}
	d.Close()

	if _, err := Open(path); err == nil {
		t.Error("expected error opening database with newer schema version, got nil")
	}
}

func TestClose_NilDB(t *testing.T) {
	d := &DB{db: nil}
	if err := d.Close(); err != nil {
		t.Errorf("Close() on nil db should not error: %v", err)
	}
}

// Pragma tests

func TestPragma_JournalMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	d, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer d.Close()

	if err := d.verifyPragma("journal_mode", "wal"); err != nil {
		t.Error(err)
	}
}

func TestPragma_Synchronous(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	d, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer d.Close()

	// NORMAL = 1
	if err := d.verifyPragma("synchronous", "1"); err != nil {
		t.Error(err)
	}
}

func TestPragma_BusyTimeout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	d, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer d.Close()

	if err := d.verifyPragma("busy_timeout", "5000"); err != nil {
		t.Error(err)
	}
}

func TestPragma_ForeignKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	d, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer d.Close()

	// ON = 1
	if err := d.verifyPragma("foreign_keys", "1"); err != nil {
		t.Error(err)
	}
}

// Round-trip tests

func TestRecordRun_Roundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	d, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer d.Close()

	ctx := context.Background()
	run := Run{
		ID:         "run-0001",
		StartedAt:  time.Date(2024, 5, 1, 10, 0, 0, 123456789, time.UTC),
		Binary:     "./ringbuf.test",
		Target:     "host",
		Passed:     1,
		Failed:     1,
		ExitStatus: 1,
		Digest:     "abc123",
	}
	results := []Result{
		{Suite: "ringbuf", Test: "wraps", Verdict: VerdictFail, ElapsedMS: 12, Output: "    3 == 4 (line 42)\n"},
		{Suite: "ringbuf", Test: "drains", Verdict: VerdictPass, ElapsedMS: 3},
	}

	if err := d.RecordRun(ctx, run, results); err != nil {
		t.Fatalf("RecordRun() failed: %v", err)
	}

	got, err := d.ReadRun(ctx, "run-0001")
	if err != nil {
		t.Fatalf("ReadRun() failed: %v", err)
	}
	if !got.StartedAt.Equal(run.StartedAt) {
		t.Errorf("StartedAt = %v, want %v", got.StartedAt, run.StartedAt)
	}
	if got.Binary != run.Binary || got.Target != run.Target || got.Digest != run.Digest {
		t.Errorf("ReadRun() = %+v, want %+v", got, run)
	}
	if got.Passed != 1 || got.Failed != 1 || got.ExitStatus != 1 {
		t.Errorf("summary = %d/%d exit %d, want 1/1 exit 1", got.Passed, got.Failed, got.ExitStatus)
	}

	res, err := d.ReadResults(ctx, "run-0001")
	if err != nil {
		t.Fatalf("ReadResults() failed: %v", err)
	}
	if len(res) != 2 {
		t.Fatalf("ReadResults() returned %d results, want 2", len(res))
	}
	if res[0].Seq != 0 || res[0].Test != "wraps" || res[0].Verdict != VerdictFail {
		t.Errorf("results[0] = %+v", res[0])
	}
	if res[0].Output != "    3 == 4 (line 42)\n" {
		t.Errorf("results[0].Output = %q", res[0].Output)
	}
	if res[1].Seq != 1 || res[1].Test != "drains" || res[1].Verdict != VerdictPass {
		t.Errorf("results[1] = %+v", res[1])
	}
}

func TestRecordRun_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	d, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer d.Close()

	ctx := context.Background()
	run := Run{ID: "run-0001", StartedAt: time.Unix(1700000000, 0).UTC(), Binary: "a.test", Digest: "d1"}
	results := []Result{{Suite: "s", Test: "t", Verdict: VerdictPass}}

	if err := d.RecordRun(ctx, run, results); err != nil {
		t.Fatalf("first RecordRun() failed: %v", err)
	}

	// Same ID with different content - silently ignored, first write wins
	run.Failed = 9
	if err := d.RecordRun(ctx, run, results); err != nil {
		t.Fatalf("second RecordRun() failed: %v", err)
	}

	var count int
	if err := d.db.QueryRow("SELECT COUNT(*) FROM runs").Scan(&count); err != nil {
		t.Fatalf("count runs: %v", err)
	}
	if count != 1 {
		t.Errorf("runs count = %d, want 1", count)
	}

	got, err := d.ReadRun(ctx, "run-0001")
	if err != nil {
		t.Fatalf("ReadRun() failed: %v", err)
	}
	if got.Failed != 0 {
		t.Errorf("Failed = %d, want 0 (first write wins)", got.Failed)
	}
}

func TestReadRuns_NewestFirst(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	d, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer d.Close()

	ctx := context.Background()
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	for i, id := range []string{"run-a", "run-b", "run-c"} {
		run := Run{ID: id, StartedAt: base.Add(time.Duration(i) * time.Minute), Binary: "a.test", Digest: "d"}
		if err := d.RecordRun(ctx, run, nil); err != nil {
			t.Fatalf("RecordRun(%q) failed: %v", id, err)
		}
	}

	runs, err := d.ReadRuns(ctx, 0)
	if err != nil {
		t.Fatalf("ReadRuns() failed: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("ReadRuns() returned %d runs, want 3", len(runs))
	}
	for i, want := range []string{"run-c", "run-b", "run-a"} {
		if runs[i].ID != want {
			t.Errorf("runs[%d].ID = %q, want %q", i, runs[i].ID, want)
		}
	}

	capped, err := d.ReadRuns(ctx, 2)
	if err != nil {
		t.Fatalf("ReadRuns(2) failed: %v", err)
	}
	if len(capped) != 2 || capped[0].ID != "run-c" {
		t.Errorf("ReadRuns(2) = %v", capped)
	}
}

func TestReadRuns_EmptyNotNil(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	d, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer d.Close()

	runs, err := d.ReadRuns(context.Background(), 10)
	if err != nil {
		t.Fatalf("ReadRuns() failed: %v", err)
	}
	if runs == nil {
		t.Error("ReadRuns() returned nil, want empty slice")
	}
	if len(runs) != 0 {
		t.Errorf("ReadRuns() returned %d runs, want 0", len(runs))
	}
}

func TestReadRun_NotFound(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	d, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer d.Close()

	_, err = d.ReadRun(context.Background(), "missing")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("ReadRun() error = %v, want sql.ErrNoRows", err)
	}
}

// Constraint tests

func TestConstraint_VerdictCheck(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	d, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer d.Close()

	_, err = d.db.Exec(`INSERT INTO runs (id, started_at, binary, passed, failed, exit_status, digest)
		VALUES ('run-1', '2024-05-01T10:00:00Z', 'a.test', 0, 0, 0, 'd')`)
	if err != nil {
		t.Fatalf("failed to insert run: %v", err)
	}

	_, err = d.db.Exec(`INSERT INTO results (run_id, seq, suite, test, verdict)
		VALUES ('run-1', 0, 's', 't', 'maybe')`)
	if err == nil {
		t.Error("expected CHECK constraint violation for verdict 'maybe', got nil")
	}
}

func TestConstraint_ResultsCascadeOnRunDelete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	d, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer d.Close()

	ctx := context.Background()
	run := Run{ID: "run-1", StartedAt: time.Unix(1700000000, 0).UTC(), Binary: "a.test", Digest: "d"}
	if err := d.RecordRun(ctx, run, []Result{{Suite: "s", Test: "t", Verdict: VerdictPass}}); err != nil {
		t.Fatalf("RecordRun() failed: %v", err)
	}

	if _, err := d.db.Exec("DELETE FROM runs WHERE id = 'run-1'"); err != nil {
		t.Fatalf("delete run: %v", err)
	}

	var count int
	if err := d.db.QueryRow("SELECT COUNT(*) FROM results").Scan(&count); err != nil {
		t.Fatalf("count results: %v", err)
	}
	if count != 0 {
		t.Errorf("results count = %d after run delete, want 0", count)
	}
}

// ID generator tests

func TestUUIDGenerator_TimeOrdered(t *testing.T) {
	gen := UUIDGenerator{}

	id := gen.NewRunID()
	if len(id) != 36 {
		t.Errorf("NewRunID() length = %d, want 36", len(id))
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		t.Fatalf("NewRunID() not a valid UUID: %v", err)
	}
	if parsed.Version() != 7 {
		t.Errorf("NewRunID() version = %d, want 7", parsed.Version())
	}
}

func TestUUIDGenerator_Unique(t *testing.T) {
	gen := UUIDGenerator{}
	seen := make(map[string]bool)

	for i := 0; i < 1000; i++ {
		id := gen.NewRunID()
		if seen[id] {
			t.Fatalf("duplicate run ID %q after %d generations", id, i)
		}
		seen[id] = true
	}
}
