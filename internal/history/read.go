package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// ReadRuns returns recorded runs, newest first. A positive limit caps the
// count; zero or negative returns everything.
//
// Returns an empty slice (not nil) if no runs are recorded.
func (d *DB) ReadRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `
		SELECT id, started_at, binary, target, passed, failed, exit_status, digest
		FROM runs
		ORDER BY started_at DESC, id DESC
	`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	// Return empty slice instead of nil
	if runs == nil {
		runs = []Run{}
	}

	return runs, nil
}

// ReadRun retrieves a single run by ID.
// Returns sql.ErrNoRows if not found.
func (d *DB) ReadRun(ctx context.Context, id string) (Run, error) {
	row := d.db.QueryRowContext(ctx, `
		SELECT id, started_at, binary, target, passed, failed, exit_status, digest
		FROM runs
		WHERE id = ?
	`, id)

	var run Run
	var started string
	if err := row.Scan(
		&run.ID, &started, &run.Binary, &run.Target,
		&run.Passed, &run.Failed, &run.ExitStatus, &run.Digest,
	); err != nil {
		return Run{}, err
	}

	at, err := time.Parse(time.RFC3339Nano, started)
	if err != nil {
		return Run{}, fmt.Errorf("parse run timestamp: %w", err)
	}
	run.StartedAt = at

	return run, nil
}

// ReadResults returns every test outcome of a run in execution order.
//
// Returns an empty slice (not nil) if the run is unknown or empty.
func (d *DB) ReadResults(ctx context.Context, runID string) ([]Result, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT seq, suite, test, verdict, elapsed_ms, output
		FROM results
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		if err := rows.Scan(&r.Seq, &r.Suite, &r.Test, &r.Verdict, &r.ElapsedMS, &r.Output); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		results = append(results, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate results: %w", err)
	}

	if results == nil {
		results = []Result{}
	}

	return results, nil
}

func scanRun(rows *sql.Rows) (Run, error) {
	var run Run
	var started string

	if err := rows.Scan(
		&run.ID, &started, &run.Binary, &run.Target,
		&run.Passed, &run.Failed, &run.ExitStatus, &run.Digest,
	); err != nil {
		return Run{}, fmt.Errorf("scan run: %w", err)
	}

	at, err := time.Parse(time.RFC3339Nano, started)
	if err != nil {
		return Run{}, fmt.Errorf("parse run timestamp: %w", err)
	}
	run.StartedAt = at

	return run, nil
}
