// ABOUTME: Run statistics folded from per-record outcomes
// ABOUTME: Stats is only mutated by the orchestrator's single collector goroutine
package sync

import (
	"time"
)

// Stats aggregates one run.
type Stats struct {
	Mode   Mode
	DryRun bool

	// Forward pass
	Created   int
	Updated   int
	Excluded  int
	Invalid   int
	Ambiguous int
	Matches   map[MatchKind]int

	// Reverse pass
	Retracted        int
	RetractUnchanged int
	Unlinked         int

	Canceled int
	Errors   []error

	StartedAt  time.Time
	FinishedAt time.Time
}

// NewStats returns empty statistics for a run in mode.
func NewStats(mode Mode, dryRun bool) *Stats {
	return &Stats{
		Mode:    mode,
		DryRun:  dryRun,
		Matches: make(map[MatchKind]int),
	}
}

// Add folds one outcome into the totals.
func (s *Stats) Add(o Outcome) {
	if o.Direction == Forward && o.Kind != MatchNone {
		s.Matches[o.Kind]++
	}
	if o.Ambiguous {
		s.Ambiguous++
	}

	switch o.Event {
	case EventCreated:
		s.Created++
	case EventUpdated:
		s.Updated++
	case EventExcluded:
		s.Excluded++
	case EventInvalid:
		s.Invalid++
	case EventRetracted:
		s.Retracted++
	case EventRetractUnchanged:
		s.RetractUnchanged++
	case EventUnlinked:
		s.Unlinked++
	case EventCanceled:
		s.Canceled++
	case EventFailed:
		if o.Err != nil {
			s.Errors = append(s.Errors, o.Err)
		}
	}
}

// Duration returns how long the run took.
func (s *Stats) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}
