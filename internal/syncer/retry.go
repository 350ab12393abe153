package syncer

import (
	"context"
	"log/slog"
	"time"
)

const DefaultAttempts = 3

// Retrier runs a remote call up to Attempts times, sleeping attempt×BaseDelay
// between tries.
type Retrier struct {
	Attempts  int
	BaseDelay time.Duration
	// Sleep waits for d or until ctx is done. Nil means a timer wait.
	Sleep func(ctx context.Context, d time.Duration) error
	Log   *slog.Logger
}

// Delay returns the wait after the given failed attempt (1-indexed).
func (r Retrier) Delay(attempt int) time.Duration {
	return time.Duration(attempt) * r.BaseDelay
}

// Do calls fn until it succeeds or attempts run out, returning the last error.
func (r Retrier) Do(ctx context.Context, op string, fn func(context.Context) error) error {
	attempts := r.Attempts
	if attempts <= 0 {
		attempts = DefaultAttempts
	}
	sleep := r.Sleep
	if sleep == nil {
		sleep = timerSleep
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return err
		}
		if r.Log != nil {
			r.Log.Warn("remote call failed", "op", op, "attempt", attempt, "error", err)
		}
		if attempt == attempts {
			break
		}
		if serr := sleep(ctx, r.Delay(attempt)); serr != nil {
			return err
		}
	}
	return err
}

func timerSleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
