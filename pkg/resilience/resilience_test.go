package resilience

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/emperor-ai/emperor/pkg/errors"
)

func TestRetrySucceedsAfterFailures(t *testing.T) {
	cfg := DefaultRetryConfig().WithInitialDelay(time.Millisecond)
	attempts := 0

	err := cfg.Do(context.Background(), func() error {
		attempts++
		if attempts < 3 {
			return stderrors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestRetryStopsOnNonRecoverable(t *testing.T) {
	cfg := DefaultRetryConfig().WithInitialDelay(time.Millisecond)
	attempts := 0
	fatal := errors.New(errors.CodeInvalidInput, "bad input", nil) // not recoverable

	err := cfg.Do(context.Background(), func() error {
		attempts++
		return fatal
	})
	if err != fatal {
		t.Fatalf("expected the fatal error back, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("expected 1 attempt, got %d", attempts)
	}
}

func TestRetryExhaustsAttempts(t *testing.T) {
	cfg := DefaultRetryConfig().WithMaxAttempts(2).WithInitialDelay(time.Millisecond)
	attempts := 0

	err := cfg.Do(context.Background(), func() error {
		attempts++
		return stderrors.New("always fails")
	})
	if err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	if attempts != 2 {
		t.Errorf("expected 2 attempts, got %d", attempts)
	}
}

func TestRetryRespectsContext(t *testing.T) {
	cfg := DefaultRetryConfig().WithInitialDelay(time.Second)
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	err := cfg.Do(ctx, func() error { return stderrors.New("fail") })
	if !errors.IsCode(err, errors.CodeTimeout) {
		t.Fatalf("expected timeout code on cancellation, got %v", err)
	}
}

func TestWithTimeout(t *testing.T) {
	err := WithTimeout(context.Background(), 20*time.Millisecond, func(ctx context.Context) error {
		select {
		case <-time.After(time.Second):
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	if !errors.IsCode(err, errors.CodeTimeout) {
		t.Fatalf("expected timeout, got %v", err)
	}

	err = WithTimeout(context.Background(), time.Second, func(context.Context) error { return nil })
	if err != nil {
		t.Fatalf("expected success under generous timeout, got %v", err)
	}
}

func TestWithTimeoutZeroMeansNoLimit(t *testing.T) {
	called := false
	err := WithTimeout(context.Background(), 0, func(context.Context) error {
		called = true
		return nil
	})
	if err != nil || !called {
		t.Fatalf("expected direct call, got err=%v called=%v", err, called)
	}
}

func TestBreakerOpensAndRecovers(t *testing.T) {
	b := NewBreaker(BreakerConfig{
		FailureThreshold: 2,
		SuccessThreshold: 1,
		Cooldown:         10 * time.Millisecond,
		Name:             "llm",
	})
	fail := func() error { return stderrors.New("down") }
	ok := func() error { return nil }

	b.Call(fail)
	b.Call(fail)
	if b.State() != StateOpen {
		t.Fatalf("expected open after threshold, got %s", b.State())
	}

	// Open circuit rejects without running fn.
	ran := false
	err := b.Call(func() error { ran = true; return nil })
	if err == nil || ran {
		t.Fatalf("expected rejection, err=%v ran=%v", err, ran)
	}

	time.Sleep(15 * time.Millisecond)
	if err := b.Call(ok); err != nil {
		t.Fatalf("expected half-open probe to run, got %v", err)
	}
	if b.State() != StateClosed {
		t.Errorf("expected closed after successful probe, got %s", b.State())
	}
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	b := NewBreaker(BreakerConfig{FailureThreshold: 1, Cooldown: 5 * time.Millisecond})
	fail := func() error { return stderrors.New("down") }

	b.Call(fail)
	time.Sleep(10 * time.Millisecond)
	b.Call(fail) // half-open probe fails
	if b.State() != StateOpen {
		t.Errorf("expected reopened circuit, got %s", b.State())
	}
}

func TestBreakerReset(t *testing.T) {
	b := NewBreaker(BreakerConfig{FailureThreshold: 1})
	b.Call(func() error { return stderrors.New("x") })
	if b.State() != StateOpen {
		t.Fatalf("expected open, got %s", b.State())
	}
	b.Reset()
	if b.State() != StateClosed {
		t.Errorf("expected closed after reset, got %s", b.State())
	}
}
