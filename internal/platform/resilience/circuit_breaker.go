package resilience

import (
	"errors"
	"sync"
	"time"
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

type CircuitState string

const (
	CircuitStateClosed   CircuitState = "closed"
	CircuitStateOpen     CircuitState = "open"
	CircuitStateHalfOpen CircuitState = "half_open"
)

// StateChangeFunc is called after every transition, outside the breaker lock.
type StateChangeFunc func(from, to CircuitState)

// CircuitBreaker guards calls to the predictions backend. Half-open admits a fixed number
// of trial requests; that many consecutive successes close it, one failure reopens it.
type CircuitBreaker struct {
	mu sync.Mutex

	threshold   int
	cooldown    time.Duration
	halfOpenMax int

	state     CircuitState
	failures  int
	openedAt  time.Time
	inFlight  int
	succeeded int

	onChange StateChangeFunc
	now      func() time.Time
}

// Snapshot is a point-in-time view used for logs and diagnostics.
type Snapshot struct {
	State               CircuitState
	ConsecutiveFailures int
	OpenedAt            time.Time
}

func NewCircuitBreaker(failureThreshold int, openTimeout time.Duration, halfOpenMaxReq int) *CircuitBreaker {
	return &CircuitBreaker{
		threshold:   max(failureThreshold, 1),
		cooldown:    positiveOr(openTimeout, defaultOpenTimeout),
		halfOpenMax: max(halfOpenMaxReq, 1),
		state:       CircuitStateClosed,
		now:         time.Now,
	}
}

// OnStateChange registers fn for transitions. It replaces any earlier listener.
func (b *CircuitBreaker) OnStateChange(fn StateChangeFunc) {
	if b == nil {
		return
	}
	b.mu.Lock()
	b.onChange = fn
	b.mu.Unlock()
}

// Execute runs fn behind the breaker. Errors for which countAsFailure returns false
// (client errors, cancelled contexts) are returned without tripping it.
func (b *CircuitBreaker) Execute(fn func() error, countAsFailure func(error) bool) error {
	if b == nil {
		return fn()
	}
	if err := b.Allow(); err != nil {
		return err
	}

	err := fn()
	if err != nil && (countAsFailure == nil || countAsFailure(err)) {
		b.RecordFailure()
		return err
	}
	b.RecordSuccess()
	return err
}

func (b *CircuitBreaker) Allow() error {
	b.mu.Lock()
	from := b.state
	err := b.admitLocked()
	to, notify := b.state, b.onChange
	b.mu.Unlock()

	b.notify(notify, from, to)
	return err
}

func (b *CircuitBreaker) admitLocked() error {
	if b.state == CircuitStateOpen {
		if b.now().Sub(b.openedAt) < b.cooldown {
			return ErrCircuitOpen
		}
		b.moveLocked(CircuitStateHalfOpen)
	}
	if b.state == CircuitStateHalfOpen {
		if b.inFlight >= b.halfOpenMax {
			return ErrCircuitOpen
		}
		b.inFlight++
	}
	return nil
}

func (b *CircuitBreaker) RecordSuccess() {
	b.mu.Lock()
	from := b.state
	switch b.state {
	case CircuitStateClosed:
		b.failures = 0
	case CircuitStateHalfOpen:
		b.inFlight = max(b.inFlight-1, 0)
		b.succeeded++
		if b.succeeded >= b.halfOpenMax && b.inFlight == 0 {
			b.moveLocked(CircuitStateClosed)
		}
	}
	to, notify := b.state, b.onChange
	b.mu.Unlock()

	b.notify(notify, from, to)
}

func (b *CircuitBreaker) RecordFailure() {
	b.mu.Lock()
	from := b.state
	switch b.state {
	case CircuitStateClosed:
		b.failures++
		if b.failures >= b.threshold {
			b.moveLocked(CircuitStateOpen)
		}
	case CircuitStateHalfOpen:
		b.moveLocked(CircuitStateOpen)
	case CircuitStateOpen:
		b.openedAt = b.now()
	}
	to, notify := b.state, b.onChange
	b.mu.Unlock()

	b.notify(notify, from, to)
}

// State reports half-open once the open cooldown has elapsed, even before the next trial request.
func (b *CircuitBreaker) State() CircuitState {
	return b.Snapshot().State
}

func (b *CircuitBreaker) Snapshot() Snapshot {
	if b == nil {
		return Snapshot{State: CircuitStateClosed}
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	out := Snapshot{
		State:               b.state,
		ConsecutiveFailures: b.failures,
		OpenedAt:            b.openedAt,
	}
	if b.state == CircuitStateOpen && b.now().Sub(b.openedAt) >= b.cooldown {
		out.State = CircuitStateHalfOpen
	}
	return out
}

// moveLocked resets the per-state counters. Caller holds mu.
func (b *CircuitBreaker) moveLocked(to CircuitState) {
	b.state = to
	b.inFlight = 0
	b.succeeded = 0
	switch to {
	case CircuitStateOpen:
		b.openedAt = b.now()
	case CircuitStateClosed:
		b.failures = 0
		b.openedAt = time.Time{}
	}
}

func (b *CircuitBreaker) notify(fn StateChangeFunc, from, to CircuitState) {
	if fn != nil && from != to {
		fn(from, to)
	}
}

func positiveOr(v, fallback time.Duration) time.Duration {
	if v <= 0 {
		return fallback
	}
	return v
}
