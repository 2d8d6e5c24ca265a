package main

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/xraph/cronlock/cron"
	"github.com/xraph/cronlock/engine"
)

const maxResultLen = 512

// defineJobs registers every configured command job on eng.
func defineJobs(eng *engine.Engine, jobs []JobConfig) error {
	for _, j := range jobs {
		if len(j.Command) == 0 {
			return fmt.Errorf("job %q: command must not be empty", j.Alias)
		}
		interval, err := cron.ParseInterval(j.Interval)
		if err != nil {
			return fmt.Errorf("job %q: %w", j.Alias, err)
		}
		var timeout time.Duration
		if j.Timeout != "" {
			if timeout, err = cron.ParseInterval(j.Timeout); err != nil {
				return fmt.Errorf("job %q timeout: %w", j.Alias, err)
			}
		}

		if err := eng.Define(j.Alias, cron.Params{
			Description: j.Description,
			Interval:    interval,
			Timeout:     timeout,
			Handler:     commandHandler(j.Command),
		}); err != nil {
			return err
		}
	}
	return nil
}

// commandHandler runs argv and returns the tail of its combined output.
// The command is killed when the scheduler stops, not on soft timeout.
func commandHandler(argv []string) cron.HandlerFunc {
	return func(ctx context.Context) (string, error) {
		out, err := exec.CommandContext(ctx, argv[0], argv[1:]...).CombinedOutput()
		result := strings.TrimSpace(string(out))
		result = tail(result, maxResultLen)
		if err != nil {
			return result, fmt.Errorf("%s: %w", argv[0], err)
		}
		return result, nil
	}
}

// tail returns at most the last n bytes of s, starting on a rune boundary.
func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	start := len(s) - n
	for start < len(s) && !utf8.RuneStart(s[start]) {
		start++
	}
	return s[start:]
}
