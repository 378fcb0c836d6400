// ABOUTME: Pacing and retry for People API calls
// ABOUTME: Retries 429 and 5xx with exponential backoff, honoring Retry-After
package google

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/api/googleapi"

	"github.com/harperreed/contactsync/logging"
	"github.com/harperreed/contactsync/sync"
)

const (
	maxAttempts    = 4
	initialBackoff = 500 * time.Millisecond
	maxBackoff     = 8 * time.Second
)

// Limiter paces outbound calls. *rate.Limiter satisfies it.
type Limiter interface {
	Wait(ctx context.Context) error
}

// NewLimiter allows rps calls per second with a burst of one.
func NewLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Limit(rps), 1)
}

type retrier struct {
	limiter Limiter
	backoff time.Duration
}

func newRetrier(limiter Limiter) *retrier {
	if limiter == nil {
		limiter = NewLimiter(0)
	}
	return &retrier{limiter: limiter, backoff: initialBackoff}
}

func (r *retrier) do(ctx context.Context, op string, fn func() error) error {
	backoff := r.backoff
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := r.limiter.Wait(ctx); err != nil {
			return err
		}

		err = fn()
		if err == nil || !retryable(err) || attempt == maxAttempts {
			break
		}

		wait := retryAfter(err, backoff)
		logging.FromContext(ctx).Debug().Err(err).Str("op", op).Int("attempt", attempt).Dur("wait", wait).Msg("retrying google call")
		if err := sleepContext(ctx, wait); err != nil {
			return err
		}
		backoff = min(backoff*2, maxBackoff)
	}
	return err
}

func retryable(err error) bool {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= 500
}

func retryAfter(err error, fallback time.Duration) time.Duration {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Header != nil {
		if secs, convErr := strconv.Atoi(apiErr.Header.Get("Retry-After")); convErr == nil && secs >= 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return fallback
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func statusOf(err error) int {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return 0
}

// asFetchError classifies a failure while reading the snapshot. Every such
// failure ends the run.
func asFetchError(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if statusOf(err) == http.StatusTooManyRequests {
		return &sync.TransportError{Provider: provider, Op: op, Err: &sync.RateLimitError{Provider: provider, Err: err}}
	}
	return &sync.TransportError{Provider: provider, Op: op, Err: err}
}

// asWriteError classifies a failure of a per-record write.
func asWriteError(providerID, op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	switch code := statusOf(err); {
	case code == http.StatusNotFound:
		return &sync.IntegrityError{ProviderID: providerID, Reason: "google contact not found", Err: err}
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return &sync.TransportError{Provider: provider, Op: op, Err: err}
	case code == http.StatusTooManyRequests:
		return &sync.RateLimitError{Provider: provider, Err: err}
	default:
		return &sync.TransportError{Provider: provider, Op: op, Err: err}
	}
}
