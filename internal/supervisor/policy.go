package supervisor

import (
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Backoff curves.
const (
	BackoffConstant    = "constant"
	BackoffExponential = "exponential"
)

// DefaultDelay is the fixed pause between session attempts.
const DefaultDelay = 500 * time.Millisecond

// RestartPolicy controls the pause between attempts.
type RestartPolicy struct {
	Delay       time.Duration // Constant delay, or initial delay for exponential
	MaxAttempts int           // 0 = unbounded
	Backoff     string        // "constant" (default) or "exponential"
	MaxDelay    time.Duration // Cap for exponential backoff
}

// DefaultRestartPolicy returns the unbounded fixed-delay policy.
func DefaultRestartPolicy() RestartPolicy {
	return RestartPolicy{
		Delay:   DefaultDelay,
		Backoff: BackoffConstant,
	}
}

// Validate checks the policy fields.
func (p RestartPolicy) Validate() error {
	if p.Delay < 0 {
		return fmt.Errorf("delay must be >= 0, got %v", p.Delay)
	}
	if p.MaxAttempts < 0 {
		return fmt.Errorf("max_attempts must be >= 0, got %d", p.MaxAttempts)
	}
	switch p.Backoff {
	case "", BackoffConstant:
	case BackoffExponential:
		if p.MaxDelay < p.Delay {
			return fmt.Errorf("max_delay (%v) cannot be less than delay (%v)", p.MaxDelay, p.Delay)
		}
	default:
		return fmt.Errorf("unknown backoff %q", p.Backoff)
	}
	return nil
}

// newBackOff builds the delay generator for one Run.
func (p RestartPolicy) newBackOff() backoff.BackOff {
	if p.Backoff != BackoffExponential {
		return backoff.NewConstantBackOff(p.Delay)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.Delay
	b.MaxInterval = p.MaxDelay
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.Reset()
	return b
}
