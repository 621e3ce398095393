// Package backfill re-scores archived interview calls, for example after a
// prompt or model change. Runs are resumable through a state file.
package backfill

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/MikeSquared-Agency/mockview/internal/feedback"
	"github.com/MikeSquared-Agency/mockview/internal/transcript"
)

// Submitter generates and stores feedback for one call.
type Submitter interface {
	Submit(ctx context.Context, req feedback.Request) (string, error)
}

// Config holds the backfill command configuration.
type Config struct {
	Dir         string
	SingleFile  string // process a single file only
	DryRun      bool   // normalize and report, no model calls
	Concurrency int
	StatePath   string
}

// Runner orchestrates the backfill process.
type Runner struct {
	cfg       Config
	submitter Submitter
	logger    *slog.Logger
}

// NewRunner creates a backfill runner. submitter may be nil for dry runs.
func NewRunner(cfg Config, submitter Submitter, logger *slog.Logger) *Runner {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.StatePath == "" {
		cfg.StatePath = DefaultStatePath
	}
	return &Runner{cfg: cfg, submitter: submitter, logger: logger}
}

// Run executes the backfill process.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	var sum Summary
	if !r.cfg.DryRun && r.submitter == nil {
		return sum, fmt.Errorf("backfill needs a submitter unless running dry")
	}

	state, err := LoadState(r.cfg.StatePath)
	if err != nil {
		return sum, fmt.Errorf("load state: %w", err)
	}

	files, err := r.discoverFiles()
	if err != nil {
		return sum, fmt.Errorf("discover files: %w", err)
	}
	r.logger.Info("files discovered", "files", len(files), "dry_run", r.cfg.DryRun)

	var mu sync.Mutex
	count := func(f func(*Summary)) {
		mu.Lock()
		f(&sum)
		mu.Unlock()
	}

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			r.logger.Info("backfill interrupted, saving state")
			_ = state.Save()
			return sum, err
		}

		records, err := ParseFile(path)
		if err != nil {
			r.logger.Warn("failed to parse file", "path", path, "error", err)
			sum.Failed++
			continue
		}
		sum.Files++
		sum.Records += len(records)
		r.logger.Info("processing file", "path", path, "records", len(records))

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(r.cfg.Concurrency)
		for _, rec := range records {
			rec := rec
			if strings.TrimSpace(rec.InterviewID) == "" || state.IsProcessed(rec.InterviewID) {
				count(func(s *Summary) { s.Skipped++ })
				continue
			}

			norm := transcript.Normalize(rec.Text())
			if norm.HasInsufficientData {
				count(func(s *Summary) { s.Insufficient++ })
			}
			if r.cfg.DryRun {
				r.logger.Info("dry run",
					"interview_id", rec.InterviewID,
					"turns", len(norm.Turns),
					"adequate_responses", norm.AdequateUserResponses,
				)
				continue
			}

			g.Go(func() error {
				id, err := r.submitter.Submit(gctx, rec.Request())
				if err != nil {
					r.logger.Error("backfill submission failed",
						"interview_id", rec.InterviewID,
						"retryable", feedback.Retryable(err),
						"error", err,
					)
					state.MarkFailed(rec.InterviewID, err)
					count(func(s *Summary) { s.Failed++ })
					return nil
				}
				state.MarkProcessed(rec.InterviewID, id)
				count(func(s *Summary) { s.Submitted++ })
				return nil
			})
		}
		_ = g.Wait()

		if !r.cfg.DryRun {
			if err := state.Save(); err != nil {
				r.logger.Warn("failed to save state", "error", err)
			}
		}
	}

	r.logger.Info("backfill complete",
		"files", sum.Files,
		"records", sum.Records,
		"submitted", sum.Submitted,
		"skipped", sum.Skipped,
		"failed", sum.Failed,
	)
	return sum, nil
}

func (r *Runner) discoverFiles() ([]string, error) {
	if r.cfg.SingleFile != "" {
		return []string{r.cfg.SingleFile}, nil
	}
	if r.cfg.Dir == "" {
		return nil, fmt.Errorf("no input directory or file given")
	}

	var files []string
	err := filepath.WalkDir(r.cfg.Dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".json", ".jsonl":
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}
