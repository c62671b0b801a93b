package supervisor

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// ErrMaxAttempts is returned when a finite policy has made all its attempts.
var ErrMaxAttempts = errors.New("max attempts reached")

// Runner is one attempt of a supervised task.
type Runner interface {
	Run(ctx context.Context) error
}

// RunnerFunc is a function adapter for Runner.
type RunnerFunc func(ctx context.Context) error

func (f RunnerFunc) Run(ctx context.Context) error {
	return f(ctx)
}

// SleepFunc pauses for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Option configures a Supervisor.
type Option func(*Supervisor)

// WithSleep replaces the real-time sleep, mainly for tests.
func WithSleep(fn SleepFunc) Option {
	return func(s *Supervisor) {
		if fn != nil {
			s.sleep = fn
		}
	}
}

// Stats are cumulative attempt counters.
type Stats struct {
	Attempts   int64
	Failures   int64
	CleanExits int64
}

// Supervisor restarts a Runner forever.
type Supervisor struct {
	runner Runner
	policy RestartPolicy
	logger *slog.Logger
	sleep  SleepFunc

	attempts   atomic.Int64
	failures   atomic.Int64
	cleanExits atomic.Int64
}

// New creates a Supervisor for runner.
func New(runner Runner, policy RestartPolicy, logger *slog.Logger, opts ...Option) *Supervisor {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Supervisor{
		runner: runner,
		policy: policy,
		logger: logger,
		sleep:  sleepContext,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Stats returns current counters.
func (s *Supervisor) Stats() Stats {
	return Stats{
		Attempts:   s.attempts.Load(),
		Failures:   s.failures.Load(),
		CleanExits: s.cleanExits.Load(),
	}
}

// Run executes attempts back to back, pausing per the policy after each one
// regardless of outcome. Attempt errors are logged, never returned.
func (s *Supervisor) Run(ctx context.Context) error {
	b := s.policy.newBackOff()

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		logger := s.logger.With("attempt", attempt, "attempt_id", uuid.NewString())
		s.attempts.Add(1)

		start := time.Now()
		err := s.runner.Run(ctx)
		elapsed := time.Since(start)

		if ctx.Err() != nil {
			return ctx.Err()
		}

		if err != nil {
			s.failures.Add(1)
			logger.Error("attempt failed",
				"error_kind", errorKind(err),
				"error", err,
				"elapsed", elapsed,
			)
		} else {
			s.cleanExits.Add(1)
			b.Reset()
			logger.Info("attempt ended cleanly; reconnecting", "elapsed", elapsed)
		}

		if s.policy.MaxAttempts > 0 && attempt >= s.policy.MaxAttempts {
			return ErrMaxAttempts
		}

		delay := b.NextBackOff()
		if delay < 0 {
			delay = s.policy.Delay
		}
		if err := s.sleep(ctx, delay); err != nil {
			return err
		}
	}
}

// errorKind reports err's Kind() if any error in its chain has one.
func errorKind(err error) string {
	var k interface{ Kind() string }
	if errors.As(err, &k) {
		return k.Kind()
	}
	return "other"
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
