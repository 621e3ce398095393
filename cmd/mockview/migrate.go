package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/mockview/internal/config"
	"github.com/MikeSquared-Agency/mockview/internal/store"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the interviews and feedback tables",
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg := config.Load()
	logger := setupLogging(cfg.LogLevel)
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	db, err := store.New(ctx, cfg.DatabaseURL, cfg.DBConnectTimeout, logger)
	if err != nil {
		return err
	}
	defer db.Close()
	return db.Migrate(ctx)
}
