// Copyright 2026 The MuleRepo Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/kavishworks45-design/mulerepo/lib/analyzer"
	"github.com/kavishworks45-design/mulerepo/lib/clock"
	"github.com/kavishworks45-design/mulerepo/lib/config"
	"github.com/kavishworks45-design/mulerepo/lib/github"
	"github.com/kavishworks45-design/mulerepo/lib/httpserver"
	"github.com/kavishworks45-design/mulerepo/lib/process"
	"github.com/kavishworks45-design/mulerepo/lib/store"
	"github.com/kavishworks45-design/mulerepo/lib/version"
)

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	var configPath string
	var showVersion bool

	flagSet := pflag.NewFlagSet("mulerepo-catalog-service", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to mulerepo.yaml (overrides MULEREPO_CONFIG)")
	flagSet.BoolVar(&showVersion, "version", false, "print version information and exit")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		return err
	}

	if showVersion {
		version.Print("mulerepo-catalog-service")
		return nil
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	clk := clock.Real()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	githubClient, err := github.NewClient(github.Config{
		BaseURL: cfg.GitHub.BaseURL,
		Token:   cfg.GitHub.Token,
		Clock:   clk,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	catalogStore := store.New(githubClient, clk, logger, store.Config{
		RepoName:    cfg.GitHub.Repo,
		Branch:      cfg.GitHub.Branch,
		Private:     cfg.GitHub.Private,
		Description: cfg.GitHub.Description,
	})

	ttl, err := cfg.CacheTTL()
	if err != nil {
		return err
	}
	cache := store.NewListingCache(catalogStore, clk, logger, ttl)

	// Seed the cache from the persisted snapshot, if any. The seed is
	// marked stale, so it only serves if the first refresh fails.
	if cfg.Cache.SnapshotPath != "" {
		snapshot, err := store.LoadSnapshot(cfg.Cache.SnapshotPath)
		if err != nil {
			logger.Warn("ignoring unreadable listing snapshot",
				"path", cfg.Cache.SnapshotPath,
				"error", err,
			)
		} else if snapshot != nil {
			cache.Seed(snapshot)
			logger.Info("listing cache seeded from snapshot",
				"path", cfg.Cache.SnapshotPath,
				"projects", len(snapshot.Projects),
				"capturedAt", snapshot.CapturedAt,
			)
		}
	}

	projectAnalyzer := analyzer.Disabled()
	if cfg.AnalyzerEnabled() {
		projectAnalyzer = analyzer.NewHTTP(nil, cfg.Analyzer.Endpoint, cfg.Analyzer.APIKey, cfg.Analyzer.Model, logger)
		logger.Info("analyzer enabled", "endpoint", cfg.Analyzer.Endpoint, "model", cfg.Analyzer.Model)
	} else if cfg.Analyzer.Endpoint != "" {
		logger.Warn("analyzer endpoint configured without an api key, analysis disabled",
			"endpoint", cfg.Analyzer.Endpoint,
		)
	}

	handler := NewHandler(catalogStore, cache, projectAnalyzer, clk, logger)

	server := httpserver.New(httpserver.Config{
		Address: cfg.Listen,
		Handler: handler.Routes(),
		Logger:  logger,
	})

	serveDone := make(chan error, 1)
	go func() {
		serveDone <- server.Serve(ctx)
	}()

	select {
	case <-server.Ready():
		logger.Info("catalog service running",
			"address", server.Addr().String(),
			"repo", cfg.GitHub.Repo,
		)
	case <-ctx.Done():
		return <-serveDone
	}

	err = <-serveDone

	// Persist the listing so the next start has a fallback if the
	// upstream is unreachable.
	if cfg.Cache.SnapshotPath != "" {
		if snapshot := cache.Current(); snapshot != nil {
			if saveErr := store.SaveSnapshot(cfg.Cache.SnapshotPath, snapshot); saveErr != nil {
				logger.Warn("failed to persist listing snapshot", "error", saveErr)
			}
		}
	}
	return err
}

// loadConfig resolves the configuration path: the --config flag wins,
// otherwise MULEREPO_CONFIG.
func loadConfig(flagPath string) (*config.Config, error) {
	if flagPath != "" {
		return config.LoadFile(flagPath)
	}
	return config.Load()
}
