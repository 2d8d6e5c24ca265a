package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the store schema",
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

		if err := s.Migrate(cmd.Context()); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "store %s migrated\n", cfg.Store.Driver)
		return nil
	},
}
