// Command server runs the HTTP front end of the line deduplication service.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/caarlos0/env/v10"

	"github.com/SebastienMelki/linededup/internal/archive"
	"github.com/SebastienMelki/linededup/internal/dedup"
	"github.com/SebastienMelki/linededup/internal/gateway"
	"github.com/SebastienMelki/linededup/internal/nats"
	"github.com/SebastienMelki/linededup/internal/observability"
)

// Config holds all server configuration.
type Config struct {
	// LogLevel is the log level (debug, info, warn, error)
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// LogFormat is the log format (json, text)
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// HTTP gateway configuration
	Gateway gateway.Config `envPrefix:""`

	// Deduplication configuration
	Dedup dedup.Config `envPrefix:""`

	// NATS configuration
	NATS nats.Config `envPrefix:""`

	// Archive configuration
	Archive archive.Config `envPrefix:"ARCHIVE_"`
}

// Validate checks cross-field constraints env parsing cannot express.
func (c Config) Validate() error {
	if err := c.Dedup.Validate(); err != nil {
		return err
	}
	if c.Gateway.MaxBodyBytes > 0 && c.Gateway.MaxBodyBytes < c.Dedup.MaxUploadBytes {
		return fmt.Errorf("HTTP_MAX_BODY_BYTES (%d) must not be below DEDUP_MAX_UPLOAD_BYTES (%d)",
			c.Gateway.MaxBodyBytes, c.Dedup.MaxUploadBytes)
	}
	return nil
}

func main() {
	if err := run(); err != nil {
		slog.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := setupLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	logger.Info("starting linededup server",
		"log_level", cfg.LogLevel,
		"http_addr", cfg.Gateway.Addr,
		"max_upload_bytes", cfg.Dedup.MaxUploadBytes,
		"nats_enabled", cfg.NATS.Enabled,
		"archive_enabled", cfg.Archive.Enabled,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	obs, err := observability.New("linededup")
	if err != nil {
		return fmt.Errorf("failed to set up metrics: %w", err)
	}
	defer func() {
		if err := obs.Shutdown(context.Background()); err != nil {
			logger.Error("metrics shutdown error", "error", err)
		}
	}()

	dedupModule, err := dedup.New(cfg.Dedup, obs.Metrics(), logger)
	if err != nil {
		return err
	}
	dedupModule.Start(ctx)
	defer dedupModule.Stop()

	deps := gateway.Dependencies{
		Processor:       dedupModule,
		Metrics:         obs.Metrics(),
		MetricsHandler:  obs.MetricsHandler(),
		ReadinessChecks: map[string]gateway.HealthChecker{},
	}

	if cfg.NATS.Enabled {
		natsClient, err := nats.NewClient(ctx, cfg.NATS, logger)
		if err != nil {
			return err
		}
		defer natsClient.Close()

		deps.Publisher = nats.NewPublisher(natsClient.JetStream(), cfg.NATS.PublishTimeout, obs.Metrics(), logger)
		deps.ReadinessChecks["nats"] = natsClient
	}

	if cfg.Archive.Enabled {
		s3Client, err := archive.NewS3Client(ctx, cfg.Archive.S3, logger)
		if err != nil {
			return err
		}
		if err := s3Client.EnsureBucket(ctx); err != nil {
			return fmt.Errorf("failed to ensure archive bucket: %w", err)
		}

		deps.Archiver = archive.NewArchiver(s3Client, cfg.Archive.UploadTimeout, obs.Metrics(), logger)
		deps.ReadinessChecks["s3"] = s3Client
	}

	server, err := gateway.NewServer(cfg.Gateway, deps, logger)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case <-ctx.Done():
		logger.Info("received shutdown signal")
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	logger.Info("initiating graceful shutdown")
	if err := server.Shutdown(context.Background()); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	logger.Info("server stopped")
	return nil
}

// setupLogger creates a logger based on configuration.
func setupLogger(level, format string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: logLevel,
	}

	var handler slog.Handler
	if format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
