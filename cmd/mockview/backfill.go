package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/mockview/internal/backfill"
	"github.com/MikeSquared-Agency/mockview/internal/config"
	"github.com/MikeSquared-Agency/mockview/internal/feedback"
	"github.com/MikeSquared-Agency/mockview/internal/store"
)

var backfillCfg backfill.Config

var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Re-score archived interview calls from JSON or JSONL files",
	RunE:  runBackfill,
}

func init() {
	f := backfillCmd.Flags()
	f.StringVar(&backfillCfg.Dir, "dir", "", "Directory scanned recursively for .json and .jsonl call records")
	f.StringVar(&backfillCfg.SingleFile, "file", "", "Process a single file instead of --dir")
	f.BoolVar(&backfillCfg.DryRun, "dry-run", false, "Normalize and report only, no model calls or writes")
	f.IntVar(&backfillCfg.Concurrency, "concurrency", 4, "Concurrent feedback generations")
	f.StringVar(&backfillCfg.StatePath, "state", backfill.DefaultStatePath, "Resume state file")
	rootCmd.AddCommand(backfillCmd)
}

func runBackfill(cmd *cobra.Command, _ []string) error {
	cfg := config.Load()
	logger := setupLogging(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var submitter backfill.Submitter
	if !backfillCfg.DryRun {
		if cfg.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required")
		}
		db, err := store.New(ctx, cfg.DatabaseURL, cfg.DBConnectTimeout, logger)
		if err != nil {
			return err
		}
		defer db.Close()

		model, closeModel, err := newModel(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeModel()

		submitter = feedback.New(model, db, cfg.GenerationTimeout, logger)
	}

	sum, err := backfill.NewRunner(backfillCfg, submitter, logger).Run(ctx)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(sum)
}
