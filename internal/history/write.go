package history

import (
	"context"
	"fmt"
	"time"
)

// RecordRun inserts a run and its per-test results in one transaction.
// Uses ON CONFLICT DO NOTHING for idempotency - recording the same run ID
// twice is a silent no-op, so a retried CLI invocation cannot duplicate
// history.
//
// Each result's Seq is assigned from its position in the slice; timestamps
// are stored as RFC 3339 UTC text so lexical and chronological order agree.
func (d *DB) RecordRun(ctx context.Context, run Run, results []Result) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("record run: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, started_at, binary, target, passed, failed, exit_status, digest)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		run.StartedAt.UTC().Format(time.RFC3339Nano),
		run.Binary,
		run.Target,
		run.Passed,
		run.Failed,
		run.ExitStatus,
		run.Digest,
	)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}

	for seq, r := range results {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO results
			(run_id, seq, suite, test, verdict, elapsed_ms, output)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT DO NOTHING
		`,
			run.ID,
			seq,
			r.Suite,
			r.Test,
			r.Verdict,
			r.ElapsedMS,
			r.Output,
		)
		if err != nil {
			return fmt.Errorf("record result %d: %w", seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("record run: commit: %w", err)
	}

	return nil
}
