// ABOUTME: Database operations for the sync_state table
// ABOUTME: Tracks the last status and successful run of each sync direction
package db

import (
	"database/sql"
	"fmt"
	"time"
)

// SyncState is the last known state of one direction.
type SyncState struct {
	Direction    string
	LastSyncTime *time.Time
	LastRunID    *string
	Status       string
	ErrorMessage *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// GetSyncState retrieves the state of a direction, or nil if it never ran.
func GetSyncState(db *sql.DB, direction string) (*SyncState, error) {
	var state SyncState
	var lastSyncTime sql.NullTime
	var lastRunID sql.NullString
	var errorMessage sql.NullString

	err := db.QueryRow(`
		SELECT direction, last_sync_time, last_run_id, status, error_message, created_at, updated_at
		FROM sync_state
		WHERE direction = ?
	`, direction).Scan(
		&state.Direction,
		&lastSyncTime,
		&lastRunID,
		&state.Status,
		&errorMessage,
		&state.CreatedAt,
		&state.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sync state: %w", err)
	}

	if lastSyncTime.Valid {
		state.LastSyncTime = &lastSyncTime.Time
	}
	if lastRunID.Valid {
		state.LastRunID = &lastRunID.String
	}
	if errorMessage.Valid {
		state.ErrorMessage = &errorMessage.String
	}

	return &state, nil
}

// UpdateSyncStatus updates the status of a direction.
func UpdateSyncStatus(db *sql.DB, direction, status string, errorMsg *string) error {
	var errorMsgVal sql.NullString
	if errorMsg != nil {
		errorMsgVal = sql.NullString{String: *errorMsg, Valid: true}
	}

	_, err := db.Exec(`
		INSERT INTO sync_state (direction, status, error_message, created_at, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT(direction) DO UPDATE SET
			status = excluded.status,
			error_message = excluded.error_message,
			updated_at = CURRENT_TIMESTAMP
	`, direction, status, errorMsgVal)

	if err != nil {
		return fmt.Errorf("failed to update sync status: %w", err)
	}

	return nil
}

// MarkSynced records a completed run for a direction and resets it to idle.
func MarkSynced(db *sql.DB, direction, runID string, at time.Time) error {
	_, err := db.Exec(`
		INSERT INTO sync_state (direction, last_sync_time, last_run_id, status, created_at, updated_at)
		VALUES (?, ?, ?, 'idle', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT(direction) DO UPDATE SET
			last_sync_time = excluded.last_sync_time,
			last_run_id = excluded.last_run_id,
			status = 'idle',
			error_message = NULL,
			updated_at = CURRENT_TIMESTAMP
	`, direction, at.UTC(), runID)

	if err != nil {
		return fmt.Errorf("failed to mark sync complete: %w", err)
	}

	return nil
}
