// ABOUTME: Tests for run history recording
// ABOUTME: Converts engine stats into rows and reads them back
package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/contactsync/sync"
)

func sampleStats(started time.Time) *sync.Stats {
	stats := sync.NewStats(sync.ModeFull, false)
	stats.StartedAt = started
	stats.FinishedAt = started.Add(3 * time.Second)
	stats.Add(sync.Outcome{Direction: sync.Forward, Event: sync.EventCreated})
	stats.Add(sync.Outcome{Direction: sync.Forward, Event: sync.EventUpdated, Kind: sync.MatchEmail})
	stats.Add(sync.Outcome{Direction: sync.Reverse, Event: sync.EventRetracted})
	stats.Add(sync.Outcome{
		Direction: sync.Forward,
		Event:     sync.EventFailed,
		Err: &sync.RecordError{Direction: sync.Forward, Name: "Ada Lovelace", Err: &sync.IntegrityError{
			Handle: "page-1", Reason: "notion page not found",
		}},
	})
	return stats
}

func TestNewRun(t *testing.T) {
	started := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	run, rows := NewRun(sampleStats(started), nil)

	assert.Len(t, run.ID, 26)
	assert.Equal(t, "full", run.Mode)
	assert.Equal(t, "partial", run.Status)
	assert.Nil(t, run.Message)
	assert.Equal(t, 1, run.Created)
	assert.Equal(t, 1, run.MatchedEmail)
	assert.Equal(t, 1, run.Retracted)
	assert.Equal(t, 1, run.Errors)

	require.Len(t, rows, 1)
	assert.Equal(t, "google->notion", rows[0].Direction)
	assert.Equal(t, "Ada Lovelace", rows[0].Record)
	assert.Equal(t, "integrity", rows[0].Kind)
	assert.NotEmpty(t, rows[0].ID)
}

func TestNewRunStatus(t *testing.T) {
	stats := sync.NewStats(sync.ModeGoogleOnly, false)
	run, _ := NewRun(stats, nil)
	assert.Equal(t, "ok", run.Status)
	assert.Len(t, run.ID, 26, "a run without a start time still gets an ID")

	run, _ = NewRun(stats, errors.New("boom"))
	assert.Equal(t, "failed", run.Status)
	require.NotNil(t, run.Message)
	assert.Equal(t, "boom", *run.Message)

	stats.Add(sync.Outcome{Event: sync.EventCanceled})
	run, _ = NewRun(stats, context.Canceled)
	assert.Equal(t, "canceled", run.Status)
}

func TestNewRunIDZeroTime(t *testing.T) {
	before := time.Now().Add(-time.Second)
	id, err := ulid.Parse(NewRunID(time.Time{}))
	require.NoError(t, err)
	assert.False(t, ulid.Time(id.Time()).Before(before))

	at := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	id, err = ulid.Parse(NewRunID(at))
	require.NoError(t, err)
	assert.Equal(t, ulid.Timestamp(at), id.Time())
}

func TestRecordAndReadRuns(t *testing.T) {
	db := openMemory(t)

	first := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	second := first.Add(24 * time.Hour)

	for _, started := range []time.Time{first, second} {
		run, rows := NewRun(sampleStats(started), nil)
		require.NoError(t, RecordRun(db, run, rows))
	}

	runs, err := RecentRuns(db, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.True(t, runs[0].StartedAt.Equal(second), "newest first")
	assert.Equal(t, 1, runs[0].Updated)
	assert.False(t, runs[0].DryRun)

	errs, err := RunErrors(db, runs[0].ID)
	require.NoError(t, err)
	require.Len(t, errs, 1)
	assert.Equal(t, "integrity", errs[0].Kind)
	assert.Contains(t, errs[0].Message, "notion page not found")

	limited, err := RecentRuns(db, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestNewRunIDSortsByTime(t *testing.T) {
	a := NewRunID(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	b := NewRunID(time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC))
	assert.Less(t, a, b)
}
