package resilience

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
)

// ErrCircuitOpen is returned (or passed to the fallback) when the breaker
// rejects an execution.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// Settings are the primitive tuning knobs for a circuit breaker.
type Settings struct {
	Name             string
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32
	SuccessThreshold uint32
}

// CircuitBreaker wraps gobreaker with metrics and a fallback policy.
type CircuitBreaker struct {
	name     string
	breaker  *gobreaker.CircuitBreaker
	fallback FallbackFunc
}

// NewCircuitBreaker builds a breaker from settings. A nil fallback behaves
// like NoopFallback.
func NewCircuitBreaker(settings Settings, fallback FallbackFunc) *CircuitBreaker {
	name := nextBreakerName(settings.Name)
	if fallback == nil {
		fallback = NoopFallback
	}

	failureThreshold := settings.FailureThreshold
	if failureThreshold == 0 {
		failureThreshold = 5
	}
	maxRequests := settings.SuccessThreshold
	if maxRequests == 0 {
		maxRequests = 1
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: maxRequests,
		Interval:    settings.Interval,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failureThreshold
		},
		OnStateChange: recordBreakerStateChange,
	})

	recordBreakerState(name, breaker.State())

	return &CircuitBreaker{
		name:     name,
		breaker:  breaker,
		fallback: fallback,
	}
}

// Execute runs the operation through the breaker. When the breaker is open
// (or half-open and saturated) the fallback decides the outcome.
func (cb *CircuitBreaker) Execute(ctx context.Context, operation Operation) (interface{}, error) {
	recordBreakerRequest(cb.name)

	result, err := cb.breaker.Execute(func() (interface{}, error) {
		return operation(ctx)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			recordBreakerFallback(cb.name)
			return cb.fallback(ctx, ErrCircuitOpen)
		}
		recordBreakerFailure(cb.name)
	}
	return result, err
}

// Name returns the breaker's metric label.
func (cb *CircuitBreaker) Name() string {
	return cb.name
}

// State exposes the underlying breaker state.
func (cb *CircuitBreaker) State() gobreaker.State {
	return cb.breaker.State()
}
