// Copyright 2026 The Dtviz Authors
// SPDX-License-Identifier: Apache-2.0

// Dtviz-server serves the transport simulation visualization API:
// example discovery, network topology, snapshot queries, run control,
// and the live SSE stream over a simulation's growing output files.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/transit-twin/dtviz/lib/config"
	"github.com/transit-twin/dtviz/lib/process"
	"github.com/transit-twin/dtviz/lib/version"
	"github.com/transit-twin/dtviz/server"
	"github.com/transit-twin/dtviz/simrun"
	"github.com/transit-twin/dtviz/snapshot"
)

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	var configPath string
	var listenOverride string
	var logLevel string
	var showVersion bool

	pflag.StringVar(&configPath, "config", "", "path to config file (defaults to $DTVIZ_CONFIG, then built-in defaults)")
	pflag.StringVar(&listenOverride, "listen", "", "listen address, overriding the config file")
	pflag.StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	pflag.BoolVar(&showVersion, "version", false, "print version information and exit")
	pflag.Parse()

	if showVersion {
		version.Print("dtviz-server")
		return nil
	}

	level, err := parseLogLevel(logLevel)
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	warmup, pollInterval, deadline, err := cfg.Stream.Timings()
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger.Info("starting dtviz-server",
		"version", version.Info(),
		"listen", listenAddress(cfg, listenOverride),
		"output", cfg.Paths.Output,
		"examples", cfg.Examples,
	)

	supervisor := simrun.New(simrun.Config{
		Examples:  cfg.Examples,
		BinaryDir: cfg.Paths.Binaries,
		WorkDir:   cfg.Paths.Root,
		Logger:    logger,
	})

	registry := snapshot.NewRegistry(cfg.Paths.Output, logger)
	registry.Preload()

	api := server.New(server.Config{
		Runner:         supervisor,
		Registry:       registry,
		OutputBase:     cfg.Paths.Output,
		DefaultExample: cfg.Server.DefaultExample,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Warmup:         warmup,
		PollInterval:   pollInterval,
		Deadline:       deadline,
		StrictParse:    cfg.Stream.StrictParse,
		Logger:         logger,
	})

	httpServer := &http.Server{
		Addr:    listenAddress(cfg, listenOverride),
		Handler: api.Handler(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}
	logger.Info("received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	logger.Info("shutdown complete")
	return nil
}

// loadConfig prefers an explicit --config path over the DTVIZ_CONFIG
// environment variable.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

func listenAddress(cfg *config.Config, override string) string {
	if override != "" {
		return override
	}
	return cfg.Server.Listen
}

func parseLogLevel(name string) (slog.Level, error) {
	switch name {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, errors.New("log level must be one of debug, info, warn, error")
}
