package ledger

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/fathomvfx/showsync/internal/domain"
	"github.com/fathomvfx/showsync/internal/events"
)

// RunStore persists clone-run records and their per-node outcomes.
type RunStore struct {
	store *Store
}

// RunBeginParams contains parameters for starting a new clone-run record.
type RunBeginParams struct {
	SourceProjectID string
	TargetProjectID string
	TargetName      string
	JobID           *string
}

// Begin creates a running clone-run record and logs a run.started event.
func (rs *RunStore) Begin(params RunBeginParams) (*domain.CloneRun, error) {
	run := &domain.CloneRun{
		UUID:            uuid.New().String(),
		SourceProjectID: params.SourceProjectID,
		TargetProjectID: params.TargetProjectID,
		TargetName:      params.TargetName,
		JobID:           params.JobID,
		Status:          domain.RunStatusRunning,
	}

	err := rs.store.withTx(func(tx *sql.Tx, ew *events.Writer) error {
		var nextSeq int
		if err := tx.QueryRow("SELECT COALESCE(MAX(CAST(SUBSTR(id, 3) AS INTEGER)), 0) + 1 FROM clone_runs").Scan(&nextSeq); err != nil {
			return fmt.Errorf("failed to compute next run id: %w", err)
		}
		run.ID = fmt.Sprintf("R-%05d", nextSeq)

		if _, err := tx.Exec(`
			INSERT INTO clone_runs (uuid, id, source_project_id, target_project_id, target_name, job_id, status)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, run.UUID, run.ID, run.SourceProjectID, run.TargetProjectID, run.TargetName, run.JobID, run.Status); err != nil {
			return fmt.Errorf("failed to create clone run: %w", err)
		}

		if err := ew.LogRunStarted(tx, run); err != nil {
			return fmt.Errorf("failed to log event: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return run, nil
}

// Finish records the per-node outcomes and final status of a clone run and
// logs a run.finished event.
func (rs *RunStore) Finish(runUUID string, status domain.RunStatus, runErr *string, records []domain.CloneRecord) error {
	return rs.store.withTx(func(tx *sql.Tx, ew *events.Writer) error {
		var run domain.CloneRun
		err := tx.QueryRow(`
			SELECT uuid, id, source_project_id, target_name FROM clone_runs WHERE uuid = ?
		`, runUUID).Scan(&run.UUID, &run.ID, &run.SourceProjectID, &run.TargetName)
		if err != nil {
			if err == sql.ErrNoRows {
				return fmt.Errorf("clone run not found: %s", runUUID)
			}
			return fmt.Errorf("failed to get clone run: %w", err)
		}

		created, skipped := 0, 0
		for i, rec := range records {
			if _, err := tx.Exec(`
				INSERT INTO clone_records (run_uuid, seq, path, kind, outcome, fallback_kind, reason)
				VALUES (?, ?, ?, ?, ?, ?, ?)
			`, runUUID, i+1, rec.Path, rec.Kind, rec.Outcome, rec.FallbackKind, rec.Reason); err != nil {
				return fmt.Errorf("failed to insert clone record: %w", err)
			}
			switch rec.Outcome {
			case "created", "created_as_fallback":
				created++
			default:
				skipped++
			}
		}

		if _, err := tx.Exec(`
			UPDATE clone_runs
			SET status = ?,
				error = ?,
				finished_at = strftime('%Y-%m-%dT%H:%M:%SZ','now')
			WHERE uuid = ?
		`, status, runErr, runUUID); err != nil {
			return fmt.Errorf("failed to finish clone run: %w", err)
		}

		run.Status = status
		run.Error = runErr
		if err := ew.LogRunFinished(tx, &run, created, skipped); err != nil {
			return fmt.Errorf("failed to log event: %w", err)
		}

		return nil
	})
}

// Get retrieves a clone run by UUID or friendly ID, with its records.
func (rs *RunStore) Get(selector string) (*domain.CloneRun, []domain.CloneRecord, error) {
	run := &domain.CloneRun{}
	var startedAt string
	var finishedAt *string

	err := rs.store.db.QueryRow(`
		SELECT uuid, id, source_project_id, target_project_id, target_name, job_id, status, error, started_at, finished_at
		FROM clone_runs WHERE uuid = ? OR id = ?
	`, selector, selector).Scan(
		&run.UUID, &run.ID, &run.SourceProjectID, &run.TargetProjectID, &run.TargetName,
		&run.JobID, &run.Status, &run.Error, &startedAt, &finishedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil, fmt.Errorf("clone run not found: %s", selector)
		}
		return nil, nil, fmt.Errorf("failed to get clone run: %w", err)
	}
	if t, err := domain.ValidateTimestamp(startedAt); err == nil {
		run.StartedAt = t
	}
	if finishedAt != nil {
		if t, err := domain.ValidateTimestamp(*finishedAt); err == nil {
			run.FinishedAt = &t
		}
	}

	rows, err := rs.store.db.Query(`
		SELECT run_uuid, seq, path, kind, outcome, fallback_kind, reason
		FROM clone_records WHERE run_uuid = ? ORDER BY seq
	`, run.UUID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query clone records: %w", err)
	}
	defer rows.Close()

	var records []domain.CloneRecord
	for rows.Next() {
		var rec domain.CloneRecord
		if err := rows.Scan(&rec.RunUUID, &rec.Seq, &rec.Path, &rec.Kind, &rec.Outcome, &rec.FallbackKind, &rec.Reason); err != nil {
			return nil, nil, fmt.Errorf("failed to scan clone record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("error iterating clone records: %w", err)
	}

	return run, records, nil
}

// List returns the most recent clone runs, newest first.
func (rs *RunStore) List(limit int) ([]domain.CloneRun, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := rs.store.db.Query(`
		SELECT uuid, id, source_project_id, target_project_id, target_name, job_id, status, error, started_at, finished_at
		FROM clone_runs ORDER BY started_at DESC, id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query clone runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.CloneRun
	for rows.Next() {
		var run domain.CloneRun
		var startedAt string
		var finishedAt *string
		if err := rows.Scan(
			&run.UUID, &run.ID, &run.SourceProjectID, &run.TargetProjectID, &run.TargetName,
			&run.JobID, &run.Status, &run.Error, &startedAt, &finishedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan clone run: %w", err)
		}
		if t, err := domain.ValidateTimestamp(startedAt); err == nil {
			run.StartedAt = t
		}
		if finishedAt != nil {
			if t, err := domain.ValidateTimestamp(*finishedAt); err == nil {
				run.FinishedAt = &t
			}
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating clone runs: %w", err)
	}

	return runs, nil
}
