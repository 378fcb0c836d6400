// ABOUTME: Database operations for sync_runs and sync_errors
// ABOUTME: Records the statistics and per-record failures of every run
package db

import (
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/harperreed/contactsync/sync"
)

// Run is one recorded sync run.
type Run struct {
	ID               string
	Mode             string
	DryRun           bool
	Status           string
	Message          *string
	StartedAt        time.Time
	FinishedAt       time.Time
	Created          int
	Updated          int
	Excluded         int
	Invalid          int
	Ambiguous        int
	MatchedID        int
	MatchedEmail     int
	MatchedPhone     int
	MatchedName      int
	Retracted        int
	RetractUnchanged int
	Unlinked         int
	Canceled         int
	Errors           int
}

// RunError is one per-record failure of a run.
type RunError struct {
	ID        string
	RunID     string
	Direction string
	Record    string
	Kind      string
	Message   string
}

// NewRunID returns a time-sortable run ID. A zero or pre-epoch time falls
// back to now.
func NewRunID(at time.Time) string {
	if at.IsZero() || at.Before(time.Unix(0, 0)) {
		at = time.Now()
	}
	return ulid.MustNew(ulid.Timestamp(at), rand.Reader).String()
}

// NewRun converts run statistics into a history row and its error rows.
// runErr is the error Run returned, if any.
func NewRun(stats *sync.Stats, runErr error) (*Run, []RunError) {
	run := &Run{
		ID:               NewRunID(stats.StartedAt),
		Mode:             stats.Mode.String(),
		DryRun:           stats.DryRun,
		StartedAt:        stats.StartedAt.UTC(),
		FinishedAt:       stats.FinishedAt.UTC(),
		Created:          stats.Created,
		Updated:          stats.Updated,
		Excluded:         stats.Excluded,
		Invalid:          stats.Invalid,
		Ambiguous:        stats.Ambiguous,
		MatchedID:        stats.Matches[sync.MatchProviderID],
		MatchedEmail:     stats.Matches[sync.MatchEmail],
		MatchedPhone:     stats.Matches[sync.MatchPhone],
		MatchedName:      stats.Matches[sync.MatchName],
		Retracted:        stats.Retracted,
		RetractUnchanged: stats.RetractUnchanged,
		Unlinked:         stats.Unlinked,
		Canceled:         stats.Canceled,
		Errors:           len(stats.Errors),
	}

	switch {
	case runErr != nil && stats.Canceled > 0:
		run.Status = "canceled"
	case runErr != nil:
		run.Status = "failed"
	case len(stats.Errors) > 0:
		run.Status = "partial"
	default:
		run.Status = "ok"
	}
	if runErr != nil {
		msg := runErr.Error()
		run.Message = &msg
	}

	var rows []RunError
	for _, err := range stats.Errors {
		row := RunError{ID: uuid.NewString(), RunID: run.ID, Kind: errorKind(err), Message: err.Error()}
		var rec *sync.RecordError
		if errors.As(err, &rec) {
			row.Direction = rec.Direction.String()
			row.Record = rec.Name
		}
		rows = append(rows, row)
	}
	return run, rows
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, sync.ErrDataIntegrity):
		return "integrity"
	case errors.Is(err, sync.ErrValidation):
		return "validation"
	case errors.Is(err, sync.ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, sync.ErrTransport):
		return "transport"
	default:
		return "other"
	}
}

// RecordRun stores a run and its errors in one transaction.
func RecordRun(db *sql.DB, run *Run, runErrors []RunError) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.Exec(`
		INSERT INTO sync_runs (
			id, mode, dry_run, status, message, started_at, finished_at,
			created, updated, excluded, invalid, ambiguous,
			matched_provider_id, matched_email, matched_phone, matched_name,
			retracted, retract_unchanged, unlinked, canceled, errors
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID, run.Mode, run.DryRun, run.Status, run.Message, run.StartedAt, run.FinishedAt,
		run.Created, run.Updated, run.Excluded, run.Invalid, run.Ambiguous,
		run.MatchedID, run.MatchedEmail, run.MatchedPhone, run.MatchedName,
		run.Retracted, run.RetractUnchanged, run.Unlinked, run.Canceled, run.Errors,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	for _, e := range runErrors {
		if e.ID == "" {
			e.ID = uuid.NewString()
		}
		_, err := tx.Exec(`
			INSERT INTO sync_errors (id, run_id, direction, record, kind, message)
			VALUES (?, ?, ?, ?, ?, ?)
		`, e.ID, run.ID, e.Direction, e.Record, e.Kind, e.Message)
		if err != nil {
			return fmt.Errorf("failed to insert run error: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

// RecentRuns returns the latest runs, newest first.
func RecentRuns(db *sql.DB, limit int) ([]Run, error) {
	rows, err := db.Query(`
		SELECT id, mode, dry_run, status, message, started_at, finished_at,
			created, updated, excluded, invalid, ambiguous,
			matched_provider_id, matched_email, matched_phone, matched_name,
			retracted, retract_unchanged, unlinked, canceled, errors
		FROM sync_runs
		ORDER BY started_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var message sql.NullString
		if err := rows.Scan(
			&r.ID, &r.Mode, &r.DryRun, &r.Status, &message, &r.StartedAt, &r.FinishedAt,
			&r.Created, &r.Updated, &r.Excluded, &r.Invalid, &r.Ambiguous,
			&r.MatchedID, &r.MatchedEmail, &r.MatchedPhone, &r.MatchedName,
			&r.Retracted, &r.RetractUnchanged, &r.Unlinked, &r.Canceled, &r.Errors,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if message.Valid {
			r.Message = &message.String
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// RunErrors returns the recorded errors of a run.
func RunErrors(db *sql.DB, runID string) ([]RunError, error) {
	rows, err := db.Query(`
		SELECT id, run_id, direction, record, kind, message
		FROM sync_errors
		WHERE run_id = ?
		ORDER BY rowid
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query run errors: %w", err)
	}
	defer rows.Close()

	var out []RunError
	for rows.Next() {
		var e RunError
		if err := rows.Scan(&e.ID, &e.RunID, &e.Direction, &e.Record, &e.Kind, &e.Message); err != nil {
			return nil, fmt.Errorf("failed to scan run error: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
