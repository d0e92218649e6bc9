package reports

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/thalvik/arkiv/internal/apperr"
	"github.com/thalvik/arkiv/internal/fixity"
	"github.com/thalvik/arkiv/internal/models"
)

// CreateRun inserts a new run in the running state and returns its ID.
func (db *DB) CreateRun(runKey string, sourcePaths []string, startedAt time.Time) (int64, error) {
	pathsJSON, _ := json.Marshal(sourcePaths)
	res, err := db.conn.Exec(`
		INSERT INTO runs (run_key, source_paths, status, started_at)
		VALUES (?, ?, ?, ?)
	`, runKey, string(pathsJSON), StatusRunning, startedAt.UTC())
	if err != nil {
		return 0, fmt.Errorf("reports: create run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reports: run id: %w", err)
	}
	return id, nil
}

// CompleteRun marks a run as succeeded, records the stage counts and stores
// the fixity report within one transaction.
func (db *DB) CompleteRun(id int64, sum Summary, report fixity.Report, finishedAt time.Time) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("reports: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	mismatches := len(report.Mismatches())
	invalid := len(report.Invalid())

	_, err = tx.Exec(`
		UPDATE runs SET
			status         = ?,
			sip_id         = ?,
			entity_count   = ?,
			rep_count      = ?,
			file_count     = ?,
			fixity_count   = ?,
			mismatch_count = ?,
			invalid_count  = ?,
			finished_at    = ?
		WHERE id = ?
	`, StatusSucceeded, sum.SIPID, sum.EntityCount, sum.RepCount, sum.FileCount,
		len(report.Results), mismatches, invalid, finishedAt.UTC(), id)
	if err != nil {
		return fmt.Errorf("reports: complete run: %w", err)
	}

	if len(report.Results) > 0 {
		stmt, err := tx.Prepare(`
			INSERT INTO fixity_results (run_id, position, file_id, algorithm, declared, computed, status, detail)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("reports: prepare fixity insert: %w", err)
		}
		defer stmt.Close()
		for i, res := range report.Results {
			if _, err := stmt.Exec(id, i, res.FileID, string(res.Algorithm),
				res.Declared, res.Computed, string(res.Status), res.Detail); err != nil {
				return fmt.Errorf("reports: insert fixity result: %w", err)
			}
		}
	}

	return tx.Commit()
}

// FailRun marks a run as failed with the originating error message.
func (db *DB) FailRun(id int64, runErr error, finishedAt time.Time) error {
	msg := ""
	if runErr != nil {
		msg = runErr.Error()
	}
	_, err := db.conn.Exec(`
		UPDATE runs SET status = ?, error = ?, finished_at = ? WHERE id = ?
	`, StatusFailed, msg, finishedAt.UTC(), id)
	if err != nil {
		return fmt.Errorf("reports: fail run: %w", err)
	}
	return nil
}

// GetRun returns one run by ID, or apperr.ErrNotFound.
func (db *DB) GetRun(id int64) (*Run, error) {
	row := db.conn.QueryRow(`
		SELECT id, run_key, sip_id, source_paths, status, error,
		       entity_count, rep_count, file_count, fixity_count,
		       mismatch_count, invalid_count, started_at, finished_at
		FROM runs WHERE id = ?
	`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reports: get run: %w", err)
	}
	return run, nil
}

// ListRuns returns runs newest-first plus the total count.
func (db *DB) ListRuns(limit, offset int) ([]Run, int, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	var total int
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM runs`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("reports: count runs: %w", err)
	}

	rows, err := db.conn.Query(`
		SELECT id, run_key, sip_id, source_paths, status, error,
		       entity_count, rep_count, file_count, fixity_count,
		       mismatch_count, invalid_count, started_at, finished_at
		FROM runs ORDER BY id DESC LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("reports: list runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("reports: scan run: %w", err)
		}
		out = append(out, *run)
	}
	return out, total, rows.Err()
}

// FixityResults returns the stored fixity report for a run, in report
// order.
func (db *DB) FixityResults(runID int64) ([]fixity.Result, error) {
	rows, err := db.conn.Query(`
		SELECT file_id, algorithm, declared, computed, status, detail
		FROM fixity_results WHERE run_id = ? ORDER BY position
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("reports: fixity results: %w", err)
	}
	defer rows.Close()

	var out []fixity.Result
	for rows.Next() {
		var res fixity.Result
		var algo, status string
		if err := rows.Scan(&res.FileID, &algo, &res.Declared, &res.Computed, &status, &res.Detail); err != nil {
			return nil, err
		}
		res.Algorithm = models.Algorithm(algo)
		res.Status = fixity.Status(status)
		out = append(out, res)
	}
	return out, rows.Err()
}

// SeenRunKey reports whether a non-failed run with the given key exists.
// Failed runs do not count, so a changed or previously broken document is
// picked up again.
func (db *DB) SeenRunKey(key string) (bool, error) {
	var n int
	err := db.conn.QueryRow(`
		SELECT COUNT(*) FROM runs WHERE run_key = ? AND status != ?
	`, key, StatusFailed).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("reports: seen run key: %w", err)
	}
	return n > 0, nil
}

// scanner covers *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*Run, error) {
	var run Run
	var pathsJSON string
	var finished sql.NullTime
	err := s.Scan(&run.ID, &run.RunKey, &run.SIPID, &pathsJSON, &run.Status, &run.Error,
		&run.EntityCount, &run.RepCount, &run.FileCount, &run.FixityCount,
		&run.MismatchCount, &run.InvalidCount, &run.StartedAt, &finished)
	if err != nil {
		return nil, err
	}
	_ = json.Unmarshal([]byte(pathsJSON), &run.SourcePaths)
	if finished.Valid {
		run.FinishedAt = finished.Time
	}
	return &run, nil
}
