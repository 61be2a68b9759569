// Package resilience guards optional dependencies (the Redis resolution
// cache) with a circuit breaker and a context-based timeout wrapper. Entry
// store calls never go through it: store failures surface to the caller.
package resilience

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// ErrCircuitOpen is returned instead of calling through an open breaker.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// State is the breaker's position. The numeric values are exported as a
// gauge, so their order is fixed.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

var stateNames = [...]string{"closed", "open", "half-open"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// CircuitBreakerConfig tunes a breaker. Zero fields take the defaults: five
// consecutive failures open the circuit, and it stays open for 30s before
// letting a single trial call through.
type CircuitBreakerConfig struct {
	FailureThreshold int
	Cooldown         time.Duration
	// OnStateChange is called after every transition with the breaker's
	// lock held; it must not call back into the breaker.
	OnStateChange func(name string, to State)
}

// CircuitBreaker fails fast once a dependency has failed FailureThreshold
// times in a row. While half-open exactly one call is in flight; its outcome
// closes or reopens the circuit.
type CircuitBreaker struct {
	name   string
	cfg    CircuitBreakerConfig
	logger *slog.Logger
	now    func() time.Time

	mu       sync.Mutex
	state    State
	failures int
	openedAt time.Time
	trialOut bool
}

func NewCircuitBreaker(name string, cfg CircuitBreakerConfig) *CircuitBreaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 30 * time.Second
	}
	return &CircuitBreaker{
		name:   name,
		cfg:    cfg,
		logger: slog.Default().With("component", "circuit-breaker", "name", name),
		now:    time.Now,
	}
}

// Execute calls fn unless the circuit is open and records its outcome.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if err := cb.admit(); err != nil {
		return err
	}
	err := fn()
	cb.record(err == nil)
	return err
}

// State reports the breaker's current position.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

func (cb *CircuitBreaker) admit() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.state == StateOpen {
		wait := cb.cfg.Cooldown - cb.now().Sub(cb.openedAt)
		if wait > 0 {
			return fmt.Errorf("%w: %s (retry in %v)", ErrCircuitOpen, cb.name, wait.Round(time.Millisecond))
		}
		cb.moveTo(StateHalfOpen)
	}
	if cb.state == StateHalfOpen {
		if cb.trialOut {
			return fmt.Errorf("%w: %s (trial call in flight)", ErrCircuitOpen, cb.name)
		}
		cb.trialOut = true
	}
	return nil
}

func (cb *CircuitBreaker) record(ok bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.trialOut = false
	if ok {
		cb.failures = 0
		if cb.state != StateClosed {
			cb.moveTo(StateClosed)
		}
		return
	}
	cb.failures++
	if cb.state == StateHalfOpen || cb.failures >= cb.cfg.FailureThreshold {
		cb.openedAt = cb.now()
		if cb.state != StateOpen {
			cb.moveTo(StateOpen)
		}
	}
}

// moveTo must be called with cb.mu held.
func (cb *CircuitBreaker) moveTo(to State) {
	from := cb.state
	cb.state = to
	cb.logger.Info("circuit state changed", "from", from.String(), "to", to.String(), "consecutive_failures", cb.failures)
	if cb.cfg.OnStateChange != nil {
		cb.cfg.OnStateChange(cb.name, to)
	}
}
