package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastPolicy(maxAttempts int, breaker bool) Policy {
	return Policy{
		MaxAttempts:          maxAttempts,
		InitialBackoff:       time.Millisecond,
		MaxBackoff:           2 * time.Millisecond,
		BackoffMultiplier:    2.0,
		BreakerEnabled:       breaker,
		BreakerMinRequests:   3,
		BreakerFailureRatio:  0.5,
		BreakerOpenFor:       time.Minute,
		BreakerHalfOpenCalls: 1,
	}
}

func retryAll(error) Outcome { return Outcome{Retry: true, CountAsFailure: true} }

func retryNone(error) Outcome { return Outcome{Retry: false, CountAsFailure: true} }

func TestDoRetriesUntilSuccess(t *testing.T) {
	executor := NewExecutor(fastPolicy(3, false))

	attempts := 0
	err := executor.Do(context.Background(), "op", retryAll, func(context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if attempts != 3 {
		t.Fatalf("attempts = %d, want 3", attempts)
	}
}

func TestDoStopsAtMaxAttempts(t *testing.T) {
	executor := NewExecutor(fastPolicy(3, false))

	attempts := 0
	wantErr := errors.New("still down")
	err := executor.Do(context.Background(), "op", retryAll, func(context.Context) error {
		attempts++
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("Do() error = %v, want %v", err, wantErr)
	}
	if attempts != 3 {
		t.Fatalf("attempts = %d, want 3", attempts)
	}
}

func TestDoDoesNotRetryPermanentErrors(t *testing.T) {
	executor := NewExecutor(fastPolicy(3, false))

	attempts := 0
	err := executor.Do(context.Background(), "op", retryNone, func(context.Context) error {
		attempts++
		return errors.New("bad request")
	})
	if err == nil {
		t.Fatalf("Do() must surface the error")
	}
	if attempts != 1 {
		t.Fatalf("attempts = %d, want 1", attempts)
	}
}

func TestDoStopsOnCancelledContext(t *testing.T) {
	executor := NewExecutor(fastPolicy(3, false))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	attempts := 0
	err := executor.Do(ctx, "op", retryAll, func(context.Context) error {
		attempts++
		return errors.New("transient")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Do() error = %v, want context.Canceled", err)
	}
	if attempts != 0 {
		t.Fatalf("attempts = %d, want 0", attempts)
	}
}

func TestBreakerOpensAfterRepeatedFailures(t *testing.T) {
	executor := NewExecutor(fastPolicy(1, true))

	boom := errors.New("down")
	for i := 0; i < 3; i++ {
		_ = executor.Do(context.Background(), "op", retryAll, func(context.Context) error {
			return boom
		})
	}

	attempts := 0
	err := executor.Do(context.Background(), "op", retryAll, func(context.Context) error {
		attempts++
		return nil
	})
	if !IsCircuitOpen(err) {
		t.Fatalf("Do() error = %v, want open circuit", err)
	}
	if attempts != 0 {
		t.Fatalf("open circuit must short-circuit, attempts = %d", attempts)
	}
}

func TestBreakerIgnoresNonCountedFailures(t *testing.T) {
	executor := NewExecutor(fastPolicy(1, true))
	classify := func(error) Outcome { return Outcome{Retry: false, CountAsFailure: false} }

	for i := 0; i < 5; i++ {
		_ = executor.Do(context.Background(), "op", classify, func(context.Context) error {
			return errors.New("validation error")
		})
	}

	attempts := 0
	err := executor.Do(context.Background(), "op", classify, func(context.Context) error {
		attempts++
		return nil
	})
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if attempts != 1 {
		t.Fatalf("attempts = %d, want 1", attempts)
	}
}

func TestBreakersAreScopedPerOperation(t *testing.T) {
	executor := NewExecutor(fastPolicy(1, true))

	for i := 0; i < 3; i++ {
		_ = executor.Do(context.Background(), "failing_op", retryAll, func(context.Context) error {
			return errors.New("down")
		})
	}

	err := executor.Do(context.Background(), "healthy_op", retryAll, func(context.Context) error {
		return nil
	})
	if err != nil {
		t.Fatalf("unrelated operation tripped: %v", err)
	}
}
