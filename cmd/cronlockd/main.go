// Command cronlockd runs a cronlock scheduler replica with the admin API.
//
// Every replica reads the same configuration, contends for the scheduling
// lock, and runs the configured command jobs only while it owns the lock.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "cronlockd",
	Short: "Run cron jobs on exactly one replica",
	Long: `cronlockd runs fixed-interval command jobs on exactly one of any number
of replicas, arbitrated by a lease-based lock in a shared store.

Configuration is read from a YAML, TOML or JSON file and from CRONLOCK_*
environment variables (for example CRONLOCK_STORE_DRIVER=postgres).

Examples:
  cronlockd serve --config cronlock.yaml   # run a replica
  cronlockd migrate                        # create the store schema
  cronlockd status                         # print lock holder and run ledger`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to the configuration file")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(statusCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
