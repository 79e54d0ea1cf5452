package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mstapelberg/pair-nequip-allegro/internal/ir"
)

const runColumns = `id, seq, scenario, recorded_at, tolerance, pass, passed, failed`

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// ReadRun returns the run with the given id.
// Returns an error wrapping ErrNotFound if no such run exists.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("read run %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("read run %q: %w", id, err)
	}
	return run, nil
}

// ListRuns returns recorded runs ordered by seq. A non-empty scenario
// restricts the listing to that scenario; limit > 0 keeps only the most
// recent limit runs (still in ascending order).
//
// Returns an empty slice (not nil) when nothing is recorded.
func (s *Store) ListRuns(ctx context.Context, scenario string, limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs`
	var args []any
	if scenario != "" {
		query += ` WHERE scenario = ?`
		args = append(args, scenario)
	}
	if limit > 0 {
		query = `SELECT * FROM (` + query + ` ORDER BY seq DESC LIMIT ?)`
		args = append(args, limit)
	}
	query += ` ORDER BY seq ASC, id COLLATE BINARY ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
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
	return runs, nil
}

// ReadCases returns the cases of a run ordered by index.
// Returns an empty slice (not nil) for unknown runs.
func (s *Store) ReadCases(ctx context.Context, runID string) ([]Case, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, idx, mode, device, structure, pass, stage, kind, error, edges, digest
		FROM cases
		WHERE run_id = ?
		ORDER BY idx ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query cases: %w", err)
	}
	defer rows.Close()

	cases := []Case{}
	for rows.Next() {
		var c Case
		var pass int
		var kind string
		if err := rows.Scan(&c.RunID, &c.Index, &c.Mode, &c.Device, &c.Structure,
			&pass, &c.Stage, &kind, &c.Error, &c.Edges, &c.Digest); err != nil {
			return nil, fmt.Errorf("scan case: %w", err)
		}
		c.Pass = pass != 0
		c.Kind = ir.Kind(kind)
		cases = append(cases, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cases: %w", err)
	}
	return cases, nil
}

func scanRun(row rowScanner) (Run, error) {
	var run Run
	var recordedAt, tol string
	var pass int
	if err := row.Scan(&run.ID, &run.Seq, &run.Scenario, &recordedAt, &tol,
		&pass, &run.Passed, &run.Failed); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}

	var err error
	if run.RecordedAt, err = unmarshalTime(recordedAt); err != nil {
		return Run{}, err
	}
	if run.Tolerance, err = unmarshalTolerance(tol); err != nil {
		return Run{}, err
	}
	run.Pass = pass != 0
	return run, nil
}
