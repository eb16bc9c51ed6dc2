package verify

import (
	"context"
	"errors"
	"time"

	"github.com/veracite/veracite/internal/model"
)

// retrySleepFunc is the sleep function used between attempts (injectable for tests)
var retrySleepFunc = func(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// RetryPolicy is the single retry policy applied uniformly across the
// fallback chain, parameterized per run from configuration.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     time.Duration
}

// NewRetryPolicy builds a policy from configuration with safe floors
func NewRetryPolicy(cfg model.VerifyConfig) RetryPolicy {
	attempts := cfg.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	backoff := cfg.Backoff
	if backoff <= 0 {
		backoff = 250 * time.Millisecond
	}
	return RetryPolicy{MaxAttempts: attempts, Backoff: backoff}
}

// Do runs fn, retrying with linear backoff while it reports an unavailable
// provider. Misses and contamination rejections are not retried; only
// transport-level failures are.
func (p RetryPolicy) Do(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		err = fn()
		if err == nil || !errors.Is(err, model.ErrProviderUnavailable) {
			return err
		}
		if attempt == p.MaxAttempts {
			break
		}
		if sleepErr := retrySleepFunc(ctx, time.Duration(attempt)*p.Backoff); sleepErr != nil {
			return sleepErr
		}
	}
	return err
}
