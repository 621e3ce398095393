package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/MikeSquared-Agency/mockview/internal/anthropic"
	"github.com/MikeSquared-Agency/mockview/internal/api"
	"github.com/MikeSquared-Agency/mockview/internal/config"
	"github.com/MikeSquared-Agency/mockview/internal/feedback"
	"github.com/MikeSquared-Agency/mockview/internal/hermes"
	"github.com/MikeSquared-Agency/mockview/internal/llm"
	"github.com/MikeSquared-Agency/mockview/internal/processor"
	"github.com/MikeSquared-Agency/mockview/internal/store"
)

const shutdownTimeout = 15 * time.Second

var (
	servePort    int
	serveMigrate bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the call event consumer",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides MOCKVIEW_PORT)")
	serveCmd.Flags().BoolVar(&serveMigrate, "migrate", true, "Apply the database schema on startup")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg := config.Load()
	if servePort != 0 {
		cfg.Port = servePort
	}
	logger := setupLogging(cfg.LogLevel)
	logger.Info("mockview starting", "port", cfg.Port, "provider", cfg.LLMProvider)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Database
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	db, err := store.New(ctx, cfg.DatabaseURL, cfg.DBConnectTimeout, logger)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()
	if serveMigrate {
		if err := db.Migrate(ctx); err != nil {
			return err
		}
	}
	logger.Info("database connected")

	// Model
	model, closeModel, err := newModel(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeModel()

	gen := feedback.New(model, db, cfg.GenerationTimeout, logger)

	// NATS/Hermes
	hermesClient, err := hermes.NewClient(ctx, cfg.NatsURL, cfg.NatsToken, logger)
	if err != nil {
		return fmt.Errorf("connect to NATS: %w", err)
	}
	defer hermesClient.Close()
	logger.Info("NATS connected", "url", cfg.NatsURL)

	proc := processor.New(gen, hermesClient, logger)
	subs := map[string]func(string, []byte){
		hermes.SubjectCallStarted:    proc.HandleCallStarted,
		hermes.SubjectCallTranscript: proc.HandleTranscript,
		hermes.SubjectCallEnded:      proc.HandleCallEnded,
	}
	for subject, handler := range subs {
		if err := hermesClient.Subscribe(subject, handler); err != nil {
			return err
		}
	}

	// HTTP API
	srv := api.NewServer(cfg.Port, api.Deps{
		Feedback: gen,
		Repo:     db,
		Auth:     api.NewAuthenticator(cfg.JWTSecret, cfg.JWTIssuer, cfg.APIToken),
		Logger:   logger,
		Status: func() map[string]any {
			return map[string]any{
				"provider":       cfg.LLMProvider,
				"active_calls":   proc.ActiveCalls(),
				"nats_connected": hermesClient.Connected(),
			}
		},
	})
	if !cfg.AuthEnabled() {
		logger.Warn("auth not configured, API is open")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)

		hermesClient.Unsubscribe()
		proc.Drain()
		return err
	})

	logger.Info("mockview ready", "port", cfg.Port)
	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("mockview stopped")
	return nil
}

func newModel(ctx context.Context, cfg config.Config) (feedback.Model, func(), error) {
	switch cfg.LLMProvider {
	case config.ProviderGemini:
		if cfg.GeminiAPIKey == "" {
			return nil, nil, fmt.Errorf("GEMINI_API_KEY is required for provider %s", cfg.LLMProvider)
		}
		client, err := llm.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, nil, err
		}
		slog.Info("gemini client ready", "model", client.Model())
		return client, func() { _ = client.Close() }, nil
	case config.ProviderAnthropic:
		if cfg.AnthropicAPIKey == "" {
			return nil, nil, fmt.Errorf("ANTHROPIC_API_KEY is required for provider %s", cfg.LLMProvider)
		}
		client := anthropic.NewClient(cfg.AnthropicAPIKey, cfg.AnthropicModel)
		slog.Info("anthropic client ready", "model", client.Model())
		return client, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown LLM_PROVIDER %q", cfg.LLMProvider)
	}
}
