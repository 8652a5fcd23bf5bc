package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/keyxmakerx/roster/internal/config"
)

func testPolicy(attempts int) config.RetryConfig {
	return config.RetryConfig{
		Attempts:    attempts,
		Backoff:     time.Second,
		MaxBackoff:  5 * time.Second,
		PingTimeout: time.Second,
	}
}

// recordSleeps replaces the waiter's sleep so tests see the schedule
// without waiting it out.
func recordSleeps(w *waiter) *[]time.Duration {
	var slept []time.Duration
	w.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	return &slept
}

func TestWaiter_BackoffDoublesToCap(t *testing.T) {
	w := newWaiter("test", testPolicy(6))
	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 5 * time.Second, 5 * time.Second}
	for i, d := range want {
		if got := w.delay(i + 1); got != d {
			t.Errorf("attempt %d: expected %s, got %s", i+1, d, got)
		}
	}
}

func TestWaiter_SucceedsAfterRetries(t *testing.T) {
	w := newWaiter("test", testPolicy(5))
	slept := recordSleeps(w)

	calls := 0
	err := w.wait(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("connection refused")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 || len(*slept) != 2 {
		t.Errorf("expected 3 pings and 2 pauses, got %d and %d", calls, len(*slept))
	}
}

func TestWaiter_GivesUp(t *testing.T) {
	w := newWaiter("test", testPolicy(3))
	slept := recordSleeps(w)
	refused := errors.New("connection refused")

	err := w.wait(context.Background(), func(context.Context) error { return refused })
	if !errors.Is(err, refused) {
		t.Fatalf("expected last ping error, got %v", err)
	}
	if len(*slept) != 2 {
		t.Errorf("expected no pause after the last attempt, got %d pauses", len(*slept))
	}
}

func TestWaiter_StopsOnCancel(t *testing.T) {
	w := newWaiter("test", testPolicy(10))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := w.wait(ctx, func(context.Context) error { return errors.New("down") })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
}

func TestNewRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewRedis(context.Background(), config.RedisConfig{
		URL:     "redis://" + mr.Addr(),
		Connect: testPolicy(1),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer client.Close()

	if err := client.Set(context.Background(), "k", "v", 0).Err(); err != nil {
		t.Fatalf("client not usable: %v", err)
	}
}

func TestNewRedis_BadURL(t *testing.T) {
	if _, err := NewRedis(context.Background(), config.RedisConfig{URL: "not a url", Connect: testPolicy(1)}); err == nil {
		t.Fatal("expected parse error")
	}
}
