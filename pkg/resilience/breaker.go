// SPDX-License-Identifier: Apache-2.0

package resilience

import (
	"sync"
	"time"

	"github.com/emperor-ai/emperor/pkg/errors"
)

// BreakerState is the circuit breaker state.
type BreakerState string

const (
	StateClosed   BreakerState = "closed"
	StateOpen     BreakerState = "open"
	StateHalfOpen BreakerState = "half-open"
)

// BreakerConfig configures a circuit breaker.
type BreakerConfig struct {
	// FailureThreshold opens the circuit after this many consecutive failures.
	FailureThreshold int

	// SuccessThreshold closes a half-open circuit after this many successes.
	SuccessThreshold int

	// Cooldown is how long an open circuit waits before probing half-open.
	Cooldown time.Duration

	// Name identifies the breaker in errors and logs.
	Name string
}

// Breaker prevents hammering a failing dependency.
type Breaker struct {
	cfg          BreakerConfig
	mu           sync.Mutex
	state        BreakerState
	failures     int
	successes    int
	lastFailTime time.Time
}

// NewBreaker creates a circuit breaker, filling in defaults.
func NewBreaker(cfg BreakerConfig) *Breaker {
	if cfg.FailureThreshold < 1 {
		cfg.FailureThreshold = 5
	}
	if cfg.SuccessThreshold < 1 {
		cfg.SuccessThreshold = 2
	}
	if cfg.Cooldown == 0 {
		cfg.Cooldown = 30 * time.Second
	}
	if cfg.Name == "" {
		cfg.Name = "breaker"
	}
	return &Breaker{cfg: cfg, state: StateClosed}
}

// Call runs fn if the circuit allows it and tracks the outcome. An open
// circuit rejects immediately with a recoverable error.
func (b *Breaker) Call(fn func() error) error {
	b.mu.Lock()

	if b.state == StateOpen {
		if time.Since(b.lastFailTime) > b.cfg.Cooldown {
			b.state = StateHalfOpen
			b.failures = 0
			b.successes = 0
		} else {
			b.mu.Unlock()
			return errors.New(errors.CodeInternal, "circuit breaker open", nil).
				WithContext("breaker", b.cfg.Name).
				WithRecoverable(true)
		}
	}
	b.mu.Unlock()

	err := fn()

	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil {
		b.failures++
		b.lastFailTime = time.Now()
		if b.state == StateHalfOpen || b.failures >= b.cfg.FailureThreshold {
			b.state = StateOpen
			b.failures = 0
			b.successes = 0
		}
		return err
	}

	switch b.state {
	case StateHalfOpen:
		b.successes++
		if b.successes >= b.cfg.SuccessThreshold {
			b.state = StateClosed
			b.failures = 0
			b.successes = 0
		}
	case StateClosed:
		b.failures = 0
	}
	return nil
}

// State returns the current state.
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Reset forces the breaker closed.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = StateClosed
	b.failures = 0
	b.successes = 0
}
