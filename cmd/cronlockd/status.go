package main

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/xraph/cronlock"
	"github.com/xraph/cronlock/ledger"
	"github.com/xraph/cronlock/lock"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the scheduling lock holder and the run ledger",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(configPath)
		if err != nil {
			return err
		}
		logger, err := cfg.Log.newLogger()
		if err != nil {
			return err
		}

		s, cleanup, err := openStore(cmd.Context(), cfg.Store, logger)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer cleanup()
		defer func() { _ = s.Close() }()

		var locks lock.Store = s
		ls, err := openLockStore(cfg.Locks, logger)
		if err != nil {
			return err
		}
		if ls != nil {
			locks = ls
		}

		rec, err := locks.GetLock(cmd.Context(), cfg.Scheduler.Resource)
		if err != nil && !errors.Is(err, cronlock.ErrLockNotFound) {
			return fmt.Errorf("read lock: %w", err)
		}
		runs, err := s.ListRuns(cmd.Context())
		if err != nil {
			return fmt.Errorf("read ledger: %w", err)
		}

		return printStatus(cmd.OutOrStdout(), cfg.Scheduler.Resource, cfg.Scheduler.LeaseDuration, rec, runs, time.Now().UTC())
	},
}

func printStatus(w io.Writer, resource string, lease time.Duration, rec *lock.Record, runs []*ledger.Record, now time.Time) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	switch {
	case rec == nil:
		fmt.Fprintf(tw, "lock %s:\tfree\n", resource)
	case rec.StaleAt(lease).Before(now):
		fmt.Fprintf(tw, "lock %s:\t%s (stale since %s)\n", resource, rec.OwnerID, rec.StaleAt(lease).Format(time.RFC3339))
	default:
		fmt.Fprintf(tw, "lock %s:\t%s (acquired %s)\n", resource, rec.OwnerID, rec.AcquiredAt.Format(time.RFC3339))
	}

	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "ALIAS\tLAST START")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\n", r.Alias, r.LastStartDate.Format(time.RFC3339))
	}
	return tw.Flush()
}
