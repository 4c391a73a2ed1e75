package resilience

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/smmpanel/campaign-distribution-service/internal/domain"
)

// RetryPolicy bounds the attempts of one external call. Delays grow
// exponentially with jitter; only failures classified retryable are
// attempted again.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
	MaxDelay    time.Duration
	Multiplier  float64
}

func (p RetryPolicy) delayFor(attempt int) time.Duration {
	d := float64(p.Delay)
	for i := 1; i < attempt; i++ {
		d *= p.Multiplier
	}
	if max := float64(p.MaxDelay); p.MaxDelay > 0 && d > max {
		d = max
	}
	// Up to 20% jitter so concurrent workers don't retry in lockstep.
	return time.Duration(d * (1 + 0.2*rand.Float64()))
}

// Executor composes the retry policy and the per-operation circuit breaker
// around any external call. The wrapping chain is explicit and testable;
// there is no hidden interception.
type Executor struct {
	Registry Registry
	Policy   RetryPolicy

	// ObserveCall and ObserveState export call timings and breaker state
	// transitions. Nil hooks are skipped.
	ObserveCall  func(operation, outcome string, elapsed time.Duration)
	ObserveState func(operation string, state State)

	// sleep is swappable in tests to avoid real backoff waits.
	sleep func(ctx context.Context, d time.Duration) error
}

func NewExecutor(registry Registry, policy RetryPolicy) *Executor {
	return &Executor{
		Registry: registry,
		Policy:   policy,
		sleep:    sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Execute runs fn under the named breaker with bounded retries. The error
// returned is always classification-carrying, so callers can route it
// without re-inspecting transport details.
func (e *Executor) Execute(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	breaker := e.Registry.Get(operation)
	defer e.observeState(operation, breaker)

	var err error
	for attempt := 1; attempt <= e.Policy.MaxAttempts; attempt++ {
		if !breaker.Allow() {
			return domain.NewRetryableError(domain.ErrorTypeCircuitOpen,
				fmt.Errorf("%s: %w", operation, domain.ErrServiceUnavailable))
		}

		started := time.Now()
		err = fn(ctx)
		if err == nil {
			breaker.Success()
			e.observeCall(operation, "success", time.Since(started))
			return nil
		}
		e.observeCall(operation, "failure", time.Since(started))

		if !domain.IsRetryable(err) {
			// The platform answered; a rejected request is not a breaker
			// failure.
			return err
		}
		breaker.Failure()

		if attempt == e.Policy.MaxAttempts {
			break
		}
		delay := e.Policy.delayFor(attempt)
		slog.Warn("external call failed, retrying",
			"operation", operation,
			"attempt", attempt,
			"delay", delay,
			"error", err.Error(),
		)
		if serr := e.sleep(ctx, delay); serr != nil {
			return domain.NewRetryableError(domain.ErrorTypeTimeout, serr)
		}
	}

	return err
}

func (e *Executor) observeCall(operation, outcome string, elapsed time.Duration) {
	if e.ObserveCall != nil {
		e.ObserveCall(operation, outcome, elapsed)
	}
}

func (e *Executor) observeState(operation string, breaker Breaker) {
	if e.ObserveState != nil {
		e.ObserveState(operation, breaker.State())
	}
}
