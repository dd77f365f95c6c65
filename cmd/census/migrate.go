package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"herd-census/internal/gateway"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or upgrade the census source tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		dialect, err := gateway.ParseDialect(cfg.Database.Dialect)
		if err != nil {
			return err
		}
		db, err := gateway.OpenDB(cmd.Context(), dialect, cfg.Database.DSN)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := gateway.RunMigrations(db, dialect); err != nil {
			return fmt.Errorf("migrate %s: %w", dialect, err)
		}
		logger.Info("migrations applied", zap.String("dialect", string(dialect)))
		return nil
	},
}
