package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/xraph/cronlock"
)

const (
	// MinInterval is the shortest accepted gap between two runs of a job.
	MinInterval = 5 * time.Second

	// MaxTimeout is the longest accepted soft timeout.
	MaxTimeout = 24 * time.Hour
)

// HandlerFunc is the unit of work of a cron job. The returned string is an
// optional human-readable summary of the run.
type HandlerFunc func(ctx context.Context) (string, error)

// Params describes a job at registration time.
type Params struct {
	Description string

	// Interval is the gap between the starts of two consecutive runs.
	Interval time.Duration

	// Timeout is the soft timeout. Zero means the interval.
	Timeout time.Duration

	Handler HandlerFunc
}

// Definition is an immutable registered job.
type Definition struct {
	Alias       string
	Description string
	Interval    time.Duration
	Timeout     time.Duration
	Handler     HandlerFunc
}

// Metadata is the reporting projection of a Definition.
type Metadata struct {
	Alias       string        `json:"alias"`
	Description string        `json:"description,omitempty"`
	Interval    time.Duration `json:"interval"`
	Timeout     time.Duration `json:"timeout"`
}

// Metadata returns the reporting projection of d.
func (d *Definition) Metadata() Metadata {
	return Metadata{
		Alias:       d.Alias,
		Description: d.Description,
		Interval:    d.Interval,
		Timeout:     d.Timeout,
	}
}

// newDefinition validates p and builds the definition for alias.
func newDefinition(alias string, p Params) (*Definition, error) {
	if alias == "" {
		return nil, cronlock.ErrInvalidAlias
	}
	if p.Handler == nil {
		return nil, fmt.Errorf("%w: %q", cronlock.ErrNilHandler, alias)
	}
	if p.Interval < MinInterval {
		return nil, fmt.Errorf("%w: %q interval %s < %s", cronlock.ErrIntervalTooShort, alias, p.Interval, MinInterval)
	}
	if p.Timeout < 0 {
		return nil, fmt.Errorf("%w: %q timeout %s", cronlock.ErrInvalidTimeout, alias, p.Timeout)
	}
	if p.Timeout > MaxTimeout {
		return nil, fmt.Errorf("%w: %q timeout %s > %s", cronlock.ErrTimeoutTooLong, alias, p.Timeout, MaxTimeout)
	}

	timeout := p.Timeout
	if timeout == 0 {
		timeout = p.Interval
		if timeout > MaxTimeout {
			timeout = MaxTimeout
		}
	}

	return &Definition{
		Alias:       alias,
		Description: p.Description,
		Interval:    p.Interval,
		Timeout:     timeout,
		Handler:     p.Handler,
	}, nil
}
