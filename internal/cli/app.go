package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/harun/browseragent/internal/config"
	"github.com/harun/browseragent/internal/logger"
	"github.com/harun/browseragent/internal/tracing"
	"github.com/harun/browseragent/pkg/session"
	"github.com/rs/zerolog"
)

// app is the per-command runtime: loaded config, logger and tracing.
type app struct {
	cfg       *config.Config
	log       *logger.Logger
	logger    zerolog.Logger
	traceSink *os.File
}

// setup loads .env, the config file and environment overrides, then starts
// logging and tracing. Callers must Close the returned app.
func setup() (*app, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, err
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	lg, err := logger.New(logger.Config{
		Level:     cfg.Logging.Level,
		File:      cfg.Logging.File,
		Console:   cfg.Logging.Console,
		Pretty:    cfg.Logging.Pretty,
		Redaction: cfg.Logging.Redaction,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	a := &app{cfg: cfg, log: lg, logger: lg.Zerolog()}

	opts := []tracing.Option{tracing.WithSampleRatio(cfg.Tracing.SampleRatio)}
	if traceFile != "" {
		if err := os.MkdirAll(filepath.Dir(traceFile), 0o755); err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to create trace directory: %w", err)
		}
		f, err := os.OpenFile(traceFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to open trace file: %w", err)
		}
		a.traceSink = f
		exporter, err := tracing.NewFileExporter(f)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to create trace exporter: %w", err)
		}
		opts = append(opts, tracing.WithExporter(exporter))
	}
	if err := tracing.InitOpenTelemetry("browseragent", version, opts...); err != nil {
		a.logger.Warn().Err(err).Msg("Tracing disabled")
	}

	return a, nil
}

// sessions opens the transcript store under the configured directory
func (a *app) sessions() (*session.SessionManager, error) {
	return session.New(a.cfg.Sessions.Dir)
}

func (a *app) Close() {
	if err := tracing.ShutdownOpenTelemetry(context.Background()); err != nil {
		a.logger.Debug().Err(err).Msg("Tracer shutdown failed")
	}
	if a.traceSink != nil {
		a.traceSink.Close()
	}
	a.log.Close()
}
