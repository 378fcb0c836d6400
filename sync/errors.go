// ABOUTME: Error taxonomy for a sync run
// ABOUTME: Transport failures are run-fatal; integrity and validation failures skip one record
package sync

import (
	"errors"
	"fmt"
)

var (
	// ErrTransport marks a provider that could not be reached or rejected our credentials.
	ErrTransport = errors.New("transport failure")

	// ErrRateLimited marks a provider that kept throttling after retries ran out.
	ErrRateLimited = errors.New("rate limited")

	// ErrDataIntegrity marks a record that cannot be written safely.
	ErrDataIntegrity = errors.New("data integrity violation")

	// ErrValidation marks a record dropped from a snapshot before matching.
	ErrValidation = errors.New("validation failed")
)

// TransportError wraps a failure to talk to a provider at all.
type TransportError struct {
	Provider string
	Op       string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// IntegrityError reports a record the engine refuses to write, or that the
// store rejected by handle.
type IntegrityError struct {
	Handle     string
	ProviderID string
	Reason     string
	Err        error
}

func (e *IntegrityError) Error() string {
	ref := e.Handle
	if ref == "" {
		ref = e.ProviderID
	}
	if e.Err != nil {
		return fmt.Sprintf("integrity violation for %s: %s: %v", ref, e.Reason, e.Err)
	}
	return fmt.Sprintf("integrity violation for %s: %s", ref, e.Reason)
}

func (e *IntegrityError) Unwrap() error { return e.Err }

func (e *IntegrityError) Is(target error) bool { return target == ErrDataIntegrity }

// ValidationError reports a provider record dropped before reconciliation.
type ValidationError struct {
	Provider string
	Record   string
	Reason   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s record %s skipped: %s", e.Provider, e.Record, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// RateLimitError is returned by collaborators once their retries are exhausted.
type RateLimitError struct {
	Provider string
	Err      error
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s rate limited: %v", e.Provider, e.Err)
}

func (e *RateLimitError) Unwrap() error { return e.Err }

func (e *RateLimitError) Is(target error) bool { return target == ErrRateLimited }

// RecordError is one per-record failure kept in the run statistics.
type RecordError struct {
	Direction Direction
	Name      string
	Err       error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("%s: failed to sync %q: %v", e.Direction, e.Name, e.Err)
}

func (e *RecordError) Unwrap() error { return e.Err }
