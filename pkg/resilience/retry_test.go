package resilience

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"
)

func fastConfig() RetryConfig {
	return RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
}

func TestRetrySucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), "test", fastConfig(), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Retry: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRetryGivesUp(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	err := Retry(context.Background(), "test", fastConfig(), func() error {
		calls++
		return boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want wrapped boom", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRetryStopsOnPermanent(t *testing.T) {
	boom := errors.New("bad input")
	calls := 0
	err := Retry(context.Background(), "test", fastConfig(), func() error {
		calls++
		return Permanent(boom)
	})
	if err != boom {
		t.Errorf("err = %v, want unwrapped boom", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRetryHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Retry(ctx, "test", fastConfig(), func() error { return errors.New("transient") })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestComputeDelayCapped(t *testing.T) {
	cfg := withDefaults(RetryConfig{InitialDelay: time.Second, MaxDelay: 2 * time.Second, Multiplier: 10})
	if d := computeDelay(5, cfg); d > 2*time.Second {
		t.Errorf("delay = %v, want <= 2s", d)
	}
	for _, attempt := range []int{400, 5000, math.MaxInt32} {
		if d := computeDelay(attempt, cfg); d <= 0 || d > 2*time.Second {
			t.Errorf("computeDelay(%d) = %v, want within (0, 2s]", attempt, d)
		}
	}
}
