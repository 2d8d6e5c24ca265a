// Package backoff computes the wait between lock acquisition attempts made by
// a dormant scheduler. Strategies are stateless and safe for concurrent use.
package backoff

import (
	"math"
	"math/rand/v2"
	"time"
)

// Strategy computes the delay before attempt n (1-indexed).
type Strategy interface {
	Delay(attempt int) time.Duration
}

// Constant always waits Interval.
type Constant struct {
	Interval time.Duration
}

// NewConstant creates a constant strategy.
func NewConstant(interval time.Duration) *Constant {
	return &Constant{Interval: interval}
}

// Delay returns the fixed interval.
func (c *Constant) Delay(_ int) time.Duration {
	return c.Interval
}

// Exponential doubles the delay each attempt.
// Delay = min(Initial * 2^(attempt-1), Max).
type Exponential struct {
	Initial time.Duration
	Max     time.Duration
}

// NewExponential creates an exponential strategy.
func NewExponential(initial, maxDelay time.Duration) *Exponential {
	return &Exponential{Initial: initial, Max: maxDelay}
}

// Delay returns Initial * 2^(attempt-1), capped at Max.
func (e *Exponential) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := float64(e.Initial) * math.Pow(2, float64(attempt-1))
	if e.Max > 0 && d > float64(e.Max) {
		return e.Max
	}
	return time.Duration(d)
}

// Jitter spreads the delay of Base by up to ±Fraction of its value, so
// replicas started together do not hit the lock store in lockstep.
type Jitter struct {
	Base     Strategy
	Fraction float64
}

// NewJitter wraps base with proportional jitter. Fraction is clamped to
// [0, 1].
func NewJitter(base Strategy, fraction float64) *Jitter {
	return &Jitter{Base: base, Fraction: math.Max(0, math.Min(1, fraction))}
}

// Delay returns Base.Delay(attempt) scaled by a random factor in
// [1-Fraction, 1+Fraction].
func (j *Jitter) Delay(attempt int) time.Duration {
	d := float64(j.Base.Delay(attempt))
	spread := (rand.Float64()*2 - 1) * j.Fraction //nolint:gosec // jitter does not need crypto rand
	return time.Duration(d * (1 + spread))
}

// Standby returns the strategy a dormant scheduler uses by default: interval
// with 20% jitter.
func Standby(interval time.Duration) Strategy {
	return NewJitter(NewConstant(interval), 0.2)
}
