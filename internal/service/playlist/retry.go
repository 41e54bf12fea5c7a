package playlist

import (
	"context"
	"time"
)

const (
	maxAttempts = 3
	backoffStep = 1000 * time.Millisecond
)

// sleepFunc waits for d or until ctx is done
type sleepFunc func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// withRetry runs fn up to maxAttempts times, waiting backoffStep*attempt
// between attempts. It returns the last error.
func withRetry(ctx context.Context, sleep sleepFunc, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if attempt == maxAttempts {
			break
		}
		if serr := sleep(ctx, backoffStep*time.Duration(attempt)); serr != nil {
			return serr
		}
	}
	return err
}
