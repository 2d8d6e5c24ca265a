package cron

import (
	"fmt"
	"strings"
	"time"

	cronlib "github.com/robfig/cron/v3"

	"github.com/xraph/cronlock"
)

// descriptorParser only accepts descriptors. Five-field expressions are
// not fixed-interval schedules and are rejected before reaching it.
var descriptorParser = cronlib.NewParser(cronlib.Descriptor)

// probe is an arbitrary instant used to measure descriptor periods.
var probe = time.Date(2001, time.January, 1, 0, 0, 0, 0, time.UTC)

// ParseInterval converts a configuration value into a job interval. It
// accepts Go durations ("90s", "5m") and constant-period descriptors
// ("@every 1m", "@hourly", "@daily", "@midnight", "@weekly").
func ParseInterval(expr string) (time.Duration, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return 0, fmt.Errorf("%w: empty expression", cronlock.ErrInvalidInterval)
	}

	if !strings.HasPrefix(expr, "@") {
		d, err := time.ParseDuration(expr)
		if err != nil {
			return 0, fmt.Errorf("%w: %q: %w", cronlock.ErrInvalidInterval, expr, err)
		}
		return d, nil
	}

	switch expr {
	case "@monthly", "@yearly", "@annually":
		return 0, fmt.Errorf("%w: %q has no constant period", cronlock.ErrInvalidInterval, expr)
	}

	sched, err := descriptorParser.Parse(expr)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %w", cronlock.ErrInvalidInterval, expr, err)
	}

	if every, ok := sched.(cronlib.ConstantDelaySchedule); ok {
		return every.Delay, nil
	}

	first := sched.Next(probe)
	return sched.Next(first).Sub(first), nil
}
