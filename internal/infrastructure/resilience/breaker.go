package resilience

import (
	"sync"
	"sync/atomic"
	"time"
)

type State int32

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

// Breaker guards one logical external operation.
type Breaker interface {
	Allow() bool
	Success()
	Failure()
	State() State
}

// CircuitBreaker counts consecutive failures and opens once the threshold
// is hit. While open, Allow fails fast; after the cooldown a single probe
// is let through (half-open). State lives in atomics only, so a process
// restart resets every breaker to closed.
type CircuitBreaker struct {
	name      string
	threshold int64
	cooldown  time.Duration
	clock     func() time.Time

	state    atomic.Int32
	failures atomic.Int64
	openedAt atomic.Int64
}

func NewCircuitBreaker(name string, threshold int, cooldown time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		name:      name,
		threshold: int64(threshold),
		cooldown:  cooldown,
		clock:     time.Now,
	}
}

func (b *CircuitBreaker) State() State {
	return State(b.state.Load())
}

func (b *CircuitBreaker) Allow() bool {
	switch State(b.state.Load()) {
	case StateClosed, StateHalfOpen:
		return true
	case StateOpen:
		openedAt := time.Unix(0, b.openedAt.Load())
		if b.clock().Sub(openedAt) < b.cooldown {
			return false
		}
		// Cooldown elapsed: move to half-open and let one probe through.
		return b.state.CompareAndSwap(int32(StateOpen), int32(StateHalfOpen))
	}
	return false
}

func (b *CircuitBreaker) Success() {
	b.failures.Store(0)
	b.state.Store(int32(StateClosed))
}

func (b *CircuitBreaker) Failure() {
	if b.state.CompareAndSwap(int32(StateHalfOpen), int32(StateOpen)) {
		// Failed probe reopens immediately.
		b.openedAt.Store(b.clock().UnixNano())
		return
	}
	if b.failures.Add(1) >= b.threshold {
		if b.state.CompareAndSwap(int32(StateClosed), int32(StateOpen)) {
			b.openedAt.Store(b.clock().UnixNano())
		}
	}
}

// Registry hands out breakers keyed by operation name. Behind an interface
// so tests can inject deterministic fakes.
type Registry interface {
	Get(name string) Breaker
}

type DefaultRegistry struct {
	mu        sync.RWMutex
	breakers  map[string]*CircuitBreaker
	threshold int
	cooldown  time.Duration
}

func NewDefaultRegistry(threshold int, cooldown time.Duration) *DefaultRegistry {
	return &DefaultRegistry{
		breakers:  make(map[string]*CircuitBreaker),
		threshold: threshold,
		cooldown:  cooldown,
	}
}

func (r *DefaultRegistry) Get(name string) Breaker {
	r.mu.RLock()
	b, ok := r.breakers[name]
	r.mu.RUnlock()
	if ok {
		return b
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.breakers[name]; ok {
		return b
	}
	b = NewCircuitBreaker(name, r.threshold, r.cooldown)
	r.breakers[name] = b
	return b
}
