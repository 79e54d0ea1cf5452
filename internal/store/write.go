package store

import (
	"context"
	"database/sql"
	"fmt"
)

// execer is the subset of *sql.DB and *sql.Tx used by the writers.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WriteRun inserts a run record.
//
// An empty ID is filled from the store's IDGenerator and a zero RecordedAt
// from its Clock. Seq is always assigned by the store as one past the largest
// recorded seq. The assigned fields are written back into run.
func (s *Store) WriteRun(ctx context.Context, run *Run) error {
	if err := s.writeRun(ctx, s.db, run); err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	return nil
}

// WriteCase inserts a case record. The run must already exist.
// Uses ON CONFLICT DO NOTHING for idempotency - rewriting the same
// (run, index) is silently ignored.
func (s *Store) WriteCase(ctx context.Context, c Case) error {
	if err := writeCase(ctx, s.db, c); err != nil {
		return fmt.Errorf("write case: %w", err)
	}
	return nil
}

// Record writes a run and all of its cases in one transaction.
// Case RunIDs are overwritten with the run's id.
func (s *Store) Record(ctx context.Context, run *Run, cases []Case) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("record run: begin: %w", err)
	}
	defer tx.Rollback()

	if err := s.writeRun(ctx, tx, run); err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	for _, c := range cases {
		c.RunID = run.ID
		if err := writeCase(ctx, tx, c); err != nil {
			return fmt.Errorf("record run: case %d: %w", c.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("record run: commit: %w", err)
	}
	return nil
}

func (s *Store) writeRun(ctx context.Context, db execer, run *Run) error {
	if run.ID == "" {
		run.ID = s.ids.Generate()
	}
	if run.RecordedAt.IsZero() {
		run.RecordedAt = s.clock.Now()
	}

	var last int64
	if err := db.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) FROM runs`).Scan(&last); err != nil {
		return fmt.Errorf("get last seq: %w", err)
	}
	run.Seq = last + 1

	tol, err := marshalTolerance(run.Tolerance)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO runs
		(id, seq, scenario, recorded_at, tolerance, pass, passed, failed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.Seq,
		run.Scenario,
		marshalTime(run.RecordedAt),
		tol,
		boolInt(run.Pass),
		run.Passed,
		run.Failed,
	)
	return err
}

func writeCase(ctx context.Context, db execer, c Case) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO cases
		(run_id, idx, mode, device, structure, pass, stage, kind, error, edges, digest)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, idx) DO NOTHING
	`,
		c.RunID,
		c.Index,
		c.Mode,
		c.Device,
		c.Structure,
		boolInt(c.Pass),
		c.Stage,
		string(c.Kind),
		c.Error,
		c.Edges,
		c.Digest,
	)
	return err
}
