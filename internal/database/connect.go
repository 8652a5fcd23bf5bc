// Package database opens the MariaDB pool and the Redis client the app
// shares, waits for both to answer, and applies the schema migrations.
package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/keyxmakerx/roster/internal/config"
)

// pinger is the readiness check for one backing store.
type pinger func(ctx context.Context) error

// waiter pings a store under a config.RetryConfig until it answers.
type waiter struct {
	store  string
	policy config.RetryConfig
	sleep  func(ctx context.Context, d time.Duration) error
}

func newWaiter(store string, policy config.RetryConfig) *waiter {
	return &waiter{store: store, policy: policy, sleep: sleepContext}
}

// delay is the pause after the given failed attempt (1-based).
func (w *waiter) delay(attempt int) time.Duration {
	d := w.policy.Backoff
	for i := 1; i < attempt && d < w.policy.MaxBackoff; i++ {
		d *= 2
	}
	return min(d, w.policy.MaxBackoff)
}

// wait returns nil on the first successful ping, or the last ping error
// once the attempts run out. Cancelling ctx stops the wait early.
func (w *waiter) wait(ctx context.Context, ping pinger) error {
	var err error
	for attempt := 1; attempt <= w.policy.Attempts; attempt++ {
		pingCtx, cancel := context.WithTimeout(ctx, w.policy.PingTimeout)
		err = ping(pingCtx)
		cancel()
		if err == nil {
			if attempt > 1 {
				slog.Info(w.store+" ready", slog.Int("attempts", attempt))
			}
			return nil
		}
		if attempt == w.policy.Attempts {
			break
		}

		pause := w.delay(attempt)
		slog.Warn(w.store+" not ready",
			slog.Int("attempt", attempt),
			slog.Int("attempts", w.policy.Attempts),
			slog.Duration("retry_in", pause),
			slog.Any("error", err),
		)
		if sleepErr := w.sleep(ctx, pause); sleepErr != nil {
			return fmt.Errorf("waiting for %s: %w", w.store, sleepErr)
		}
	}
	return fmt.Errorf("%s unreachable after %d attempts: %w", w.store, w.policy.Attempts, err)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
