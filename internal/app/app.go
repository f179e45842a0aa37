// Package app provides application-level wiring and dependency injection
// for gluesync following hexagonal architecture.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"gluesync/internal/config"
	"gluesync/internal/gluecatalog"
	"gluesync/internal/host"
	"gluesync/internal/metrics"
	"gluesync/internal/service/gluesync"
	"gluesync/internal/source"
)

// Deps holds the external dependencies that main() must provide.
// Glue and S3 are optional; when nil they are built from Cfg.
type Deps struct {
	Cfg    *config.Config
	Glue   gluecatalog.GlueAPI
	S3     source.S3API
	Logger *slog.Logger
}

// App holds the fully-wired sync engine and the host that serializes
// notifications into it.
type App struct {
	Cfg      *config.Config
	Listener *gluesync.Listener
	Host     *host.Host
	Metrics  *metrics.PrometheusRecorder
	S3       source.S3API
	Logger   *slog.Logger
}

// New wires the Glue client, metrics, sync listener and host from deps.
func New(ctx context.Context, deps Deps) (*App, error) {
	cfg := deps.Cfg
	logger := deps.Logger

	glueAPI, s3API := deps.Glue, deps.S3
	if glueAPI == nil || s3API == nil {
		awsCfg, err := LoadAWSConfig(ctx, cfg.Glue)
		if err != nil {
			return nil, err
		}
		if glueAPI == nil {
			glueAPI = gluecatalog.NewClient(awsCfg, gluecatalog.ClientOptions{
				Endpoint:          cfg.Glue.Endpoint,
				RequestsPerSecond: cfg.Glue.RateLimitRPS,
				Burst:             cfg.Glue.RateLimitBurst,
			})
		}
		if s3API == nil {
			s3API = NewS3Client(awsCfg)
		}
	}

	recorder, err := metrics.NewPrometheusRecorder(logger.With("component", "metrics"))
	if err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	listener := gluesync.NewListener(gluesync.ListenerDeps{
		Glue:    glueAPI,
		Metrics: recorder,
		Config:  cfg.SyncConfig(),
		Logger:  logger.With("component", "gluesync"),
	})

	return &App{
		Cfg:      cfg,
		Listener: listener,
		Host:     host.New(listener, logger.With("component", "host"), cfg.QueueSize),
		Metrics:  recorder,
		S3:       s3API,
		Logger:   logger,
	}, nil
}

// NewLogger builds the process logger from the configured format and level.
func NewLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if strings.EqualFold(cfg.LogFormat, "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// LogWarnings emits the warnings collected while loading cfg.
func LogWarnings(logger *slog.Logger, cfg *config.Config) {
	for _, w := range cfg.Warnings {
		logger.Warn("config: " + w)
	}
}
