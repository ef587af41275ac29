package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"zenfeed/internal/cli"
	"zenfeed/internal/config"
	"zenfeed/internal/database"
	"zenfeed/internal/engine"
	"zenfeed/internal/extractor"
	"zenfeed/internal/feed"
	"zenfeed/internal/ratelimiter"
	"zenfeed/internal/summarizer"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)

		return 1
	}

	log := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.New(ctx, cfg.DBPath, log)
	if err != nil {
		log.ErrorContext(ctx, "Failed to initialize db",
			"error", err,
			"dbPath", cfg.DBPath)

		return 1
	}
	defer func() {
		if err = db.Close(); err != nil {
			log.ErrorContext(ctx, "Failed to close db",
				"error", err,
				"dbPath", cfg.DBPath)
		}
	}()
	log.DebugContext(ctx, "DB is initialized",
		"dbPath", cfg.DBPath)

	client := feed.NewHTTPClient(cfg.UserAgent, log,
		feed.WithRateLimiter(ratelimiter.New(cfg.HostInterval, cfg.HostConcurrency)),
		feed.WithRetries(cfg.FetchRetries, 0),
		feed.WithTimeout(cfg.FetchTimeout),
	)
	source := feed.NewSource(client, log)

	eng := engine.New(
		feed.NewFetcher(db, source, cfg.SyncConcurrency, log),
		extractor.New(client, db, cfg.ExtractTimeout, log),
		summarizer.NewBriefer(db, initSummarizer(ctx, cfg, log), cfg.BriefingLimit, log),
		cfg.Workers,
		log,
	)
	defer eng.Close()

	app := &cli.App{
		Store:        db,
		Source:       source,
		Engine:       eng,
		SyncSchedule: cfg.SyncSchedule,
		Log:          log,
	}

	if err = cli.Execute(ctx, app, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)

		return 1
	}

	return 0
}

func initSummarizer(ctx context.Context, cfg config.Config, log *slog.Logger) summarizer.Summarizer {
	s := summarizer.New(cfg.BriefingCommand, cfg.OpenAIAPIKey)

	switch s.(type) {
	case *summarizer.CommandSummarizer:
		log.DebugContext(ctx, "Command summarizer is initialized",
			"command", cfg.BriefingCommand[0])
	case *summarizer.OpenAISummarizer:
		log.DebugContext(ctx, "OpenAI summarizer is initialized",
			"provider", "openai")
	default:
		log.DebugContext(ctx, "No summarizer is configured",
			"envVars", []string{"ZENFEED_BRIEFING_COMMAND", "OPENAI_API_KEY"})
	}

	return s
}
