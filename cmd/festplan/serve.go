package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/amaumene/festplan/internal/config"
	"github.com/amaumene/festplan/internal/utils"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the planner HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

func runServe() error {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// 2. Setup logger and tracing
	logger := utils.NewLogger(cfg.LogLevel, cfg.LogFormat)
	logger.Info("Starting festplan")
	logger.WithField("config_dir", filepath.Dir(cfg.DatabaseFile)).Info("Configuration loaded")

	shutdownTracing := utils.NewTracerProvider(logger)
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.WithError(err).Warn("Failed to shut down tracing")
		}
	}()

	// 3. Wire database, clients, share store and planner
	app, cleanup, err := initializeApp(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer cleanup()
	logger.WithField("share_backend", cfg.ShareBackend).Info("Services initialized")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 4. Load films, remote first
	if err := app.Planner.Load(ctx); err != nil {
		return fmt.Errorf("failed to load films: %w", err)
	}
	defer app.Planner.Wait()

	// 5. Start scheduler
	if err := app.Scheduler.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer app.Scheduler.Stop()

	// 6. Start HTTP server
	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- app.Server.Start(ctx)
	}()

	// 7. Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	logger.Info("festplan is running")

	select {
	case err := <-serverErrChan:
		return err
	case sig := <-sigChan:
		logger.WithField("signal", sig).Info("Received shutdown signal")
		// Start shuts the server down once ctx is cancelled
		cancel()
		if err := <-serverErrChan; err != nil {
			logger.WithError(err).Error("Error during server shutdown")
		}
	}

	logger.Info("festplan stopped")
	return nil
}
