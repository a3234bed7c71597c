package breaker

import (
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/invenio/internal/interfaces"
)

// State is the circuit breaker state.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

// Settings configures one breaker instance.
type Settings struct {
	Name             string
	FailureThreshold int           // consecutive failures that trip CLOSED -> OPEN
	RecoveryTimeout  time.Duration // OPEN cooldown before a HALF_OPEN probe is allowed
	SuccessThreshold int           // consecutive HALF_OPEN successes that close the circuit
}

// Breaker guards an external backend. Transitions:
//
//	CLOSED --[FailureThreshold consecutive failures]--> OPEN
//	OPEN --[RecoveryTimeout elapsed]--> HALF_OPEN (on next Allow)
//	HALF_OPEN --[any failure]--> OPEN
//	HALF_OPEN --[SuccessThreshold consecutive successes]--> CLOSED
//
// Any success resets the failure count.
type Breaker struct {
	mu            sync.Mutex
	settings      Settings
	state         State
	failureCount  int
	successCount  int
	lastFailureAt time.Time
	logger        arbor.ILogger
}

// New creates a breaker. Zero settings fall back to {5, 60s, 2}.
func New(settings Settings, logger arbor.ILogger) *Breaker {
	if settings.FailureThreshold <= 0 {
		settings.FailureThreshold = 5
	}
	if settings.RecoveryTimeout <= 0 {
		settings.RecoveryTimeout = 60 * time.Second
	}
	if settings.SuccessThreshold <= 0 {
		settings.SuccessThreshold = 2
	}
	return &Breaker{
		settings: settings,
		state:    StateClosed,
		logger:   logger,
	}
}

// Allow reports whether a call may proceed. When the circuit is OPEN and the
// recovery timeout has elapsed the breaker moves to HALF_OPEN and the call is
// allowed as the probe.
func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateOpen {
		if time.Since(b.lastFailureAt) >= b.settings.RecoveryTimeout {
			b.state = StateHalfOpen
			b.successCount = 0
			b.logger.Info().
				Str("breaker", b.settings.Name).
				Msg("Circuit breaker entering HALF_OPEN state")
			return nil
		}
		return fmt.Errorf("%s: %w", b.settings.Name, interfaces.ErrCircuitOpen)
	}
	return nil
}

// RecordSuccess clears the failure streak and, in HALF_OPEN, counts toward
// closing the circuit.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failureCount = 0

	if b.state == StateHalfOpen {
		b.successCount++
		if b.successCount >= b.settings.SuccessThreshold {
			b.state = StateClosed
			b.successCount = 0
			b.logger.Info().
				Str("breaker", b.settings.Name).
				Msg("Circuit breaker closed after successful recovery")
		}
	}
}

// RecordFailure counts toward tripping the circuit. A single failure while
// HALF_OPEN reopens it immediately.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.lastFailureAt = time.Now()

	if b.state == StateHalfOpen {
		b.state = StateOpen
		b.successCount = 0
		b.logger.Warn().
			Str("breaker", b.settings.Name).
			Msg("Circuit breaker reopened after half-open failure")
		return
	}

	b.failureCount++
	if b.state == StateClosed && b.failureCount >= b.settings.FailureThreshold {
		b.state = StateOpen
		b.logger.Warn().
			Str("breaker", b.settings.Name).
			Int("failures", b.failureCount).
			Msg("Circuit breaker opened")
	}
}

// Do runs fn through the breaker, recording the outcome.
func (b *Breaker) Do(fn func() error) error {
	if err := b.Allow(); err != nil {
		return err
	}
	if err := fn(); err != nil {
		b.RecordFailure()
		return err
	}
	b.RecordSuccess()
	return nil
}

// Available reports whether a call would currently be admitted, applying the
// same OPEN -> HALF_OPEN recovery transition as Allow.
func (b *Breaker) Available() bool {
	return b.Allow() == nil
}

// State returns the current state without side effects.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Name returns the breaker name.
func (b *Breaker) Name() string {
	return b.settings.Name
}

// Reset returns the breaker to CLOSED and clears all counters.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.state = StateClosed
	b.failureCount = 0
	b.successCount = 0
	b.lastFailureAt = time.Time{}
}
