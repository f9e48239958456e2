package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
)

// Outcome tells the executor how to treat one failure: whether another
// attempt may help and whether the breaker should count it.
type Outcome struct {
	Retryable     bool
	CountsAgainst bool
}

// Classifier maps a provider error onto an Outcome. Nil classifiers treat
// every error as final and counted.
type Classifier func(err error) Outcome

// Config tunes retries and the per-operation circuit breakers. Zero values
// fall back to Default().
type Config struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     float64

	BreakerEnabled      bool
	BreakerMinRequests  uint32
	BreakerFailureRatio float64
	BreakerOpenFor      time.Duration
	BreakerProbeCalls   uint32
}

func Default() Config {
	return Config{
		MaxAttempts:    3,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     400 * time.Millisecond,
		Multiplier:     2.0,

		BreakerEnabled:      true,
		BreakerMinRequests:  10,
		BreakerFailureRatio: 0.5,
		BreakerOpenFor:      30 * time.Second,
		BreakerProbeCalls:   2,
	}
}

func (c Config) withDefaults() Config {
	def := Default()
	out := c
	if out.MaxAttempts <= 0 {
		out.MaxAttempts = def.MaxAttempts
	}
	if out.InitialBackoff <= 0 {
		out.InitialBackoff = def.InitialBackoff
	}
	if out.MaxBackoff <= 0 {
		out.MaxBackoff = def.MaxBackoff
	}
	if out.Multiplier < 1 {
		out.Multiplier = def.Multiplier
	}
	if out.BreakerMinRequests == 0 {
		out.BreakerMinRequests = def.BreakerMinRequests
	}
	if out.BreakerFailureRatio <= 0 || out.BreakerFailureRatio > 1 {
		out.BreakerFailureRatio = def.BreakerFailureRatio
	}
	if out.BreakerOpenFor <= 0 {
		out.BreakerOpenFor = def.BreakerOpenFor
	}
	if out.BreakerProbeCalls == 0 {
		out.BreakerProbeCalls = def.BreakerProbeCalls
	}
	return out
}

// Executor wraps outbound provider calls with bounded retries and one
// circuit breaker per named operation. Safe for concurrent use.
type Executor struct {
	cfg    Config
	logger *slog.Logger

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker[any]
}

func NewExecutor(cfg Config, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{
		cfg:      cfg.withDefaults(),
		logger:   logger,
		breakers: make(map[string]*gobreaker.CircuitBreaker[any]),
	}
}

// Do runs fn under retry and breaker protection. The returned error is the
// last attempt's error, or the breaker sentinel when the circuit is open.
func (e *Executor) Do(ctx context.Context, operation string, classify Classifier, fn func(context.Context) error) error {
	if fn == nil {
		return fmt.Errorf("resilience: nil callback for %q", operation)
	}
	if operation == "" {
		operation = "unknown"
	}
	if classify == nil {
		classify = finalCounted
	}

	if !e.cfg.BreakerEnabled {
		return e.retry(ctx, operation, classify, fn)
	}

	_, err := e.breaker(operation, classify).Execute(func() (any, error) {
		return nil, e.retry(ctx, operation, classify, fn)
	})
	return err
}

func (e *Executor) retry(ctx context.Context, operation string, classify Classifier, fn func(context.Context) error) error {
	backoff := e.cfg.InitialBackoff

	var lastErr error
	for attempt := 1; attempt <= e.cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if !classify(lastErr).Retryable || attempt == e.cfg.MaxAttempts {
			return lastErr
		}

		e.logger.Warn("retrying operation",
			"operation", operation,
			"attempt", attempt,
			"max_attempts", e.cfg.MaxAttempts,
			"backoff", backoff.String(),
			"error", lastErr,
		)

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return lastErr
		case <-timer.C:
		}

		backoff = time.Duration(float64(backoff) * e.cfg.Multiplier)
		if backoff > e.cfg.MaxBackoff {
			backoff = e.cfg.MaxBackoff
		}
	}
	return lastErr
}

func (e *Executor) breaker(operation string, classify Classifier) *gobreaker.CircuitBreaker[any] {
	e.mu.Lock()
	defer e.mu.Unlock()

	if b, ok := e.breakers[operation]; ok {
		return b
	}

	settings := gobreaker.Settings{
		Name:        operation,
		MaxRequests: e.cfg.BreakerProbeCalls,
		Timeout:     e.cfg.BreakerOpenFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < e.cfg.BreakerMinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= e.cfg.BreakerFailureRatio
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			return !classify(err).CountsAgainst
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			e.logger.Warn("circuit breaker state change",
				"operation", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	}

	b := gobreaker.NewCircuitBreaker[any](settings)
	e.breakers[operation] = b
	return b
}

// IsCircuitOpen reports whether err came from an open or saturated breaker.
func IsCircuitOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

func finalCounted(error) Outcome {
	return Outcome{Retryable: false, CountsAgainst: true}
}
