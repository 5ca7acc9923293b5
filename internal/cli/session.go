package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/roach88/polydb/internal/config"
	"github.com/roach88/polydb/internal/logging"
	"github.com/roach88/polydb/internal/store"
)

// session bundles what one command needs: the open store, its logger and
// the metrics registry that is flushed on close.
type session struct {
	store    *store.Store
	logger   *slog.Logger
	registry *prometheus.Registry

	metricsFile string
	logCloser   io.Closer
}

// resolveConfig loads the configuration and applies global flag overrides.
func resolveConfig(opts *RootOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	if opts.Database != "" {
		cfg.Database.Path = opts.Database
	}
	if opts.Driver != "" {
		cfg.Database.Driver = opts.Driver
	}
	if opts.MetricsFile != "" {
		cfg.MetricsFile = opts.MetricsFile
	}
	if opts.Verbose {
		cfg.Log.Level = "debug"
	}

	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// openSession resolves configuration and opens the store. Logs go to the
// command's stderr unless a log file is configured.
func openSession(opts *RootOptions, cmd *cobra.Command) (*session, error) {
	cfg, err := resolveConfig(opts)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load configuration", err)
	}

	logger, logCloser, err := logging.New(logging.Config{
		Level:     cfg.Log.Level,
		Format:    cfg.Log.Format,
		File:      cfg.Log.File,
		MaxSizeMB: cfg.Log.MaxSizeMB,
		MaxFiles:  cfg.Log.MaxFiles,
		Writer:    cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to configure logging", err)
	}

	registry := prometheus.NewRegistry()
	metrics, err := store.NewMetrics(registry)
	if err != nil {
		_ = logCloser.Close()
		return nil, WrapExitError(ExitCommandError, "failed to register metrics", err)
	}

	logger.Debug("opening database", "path", cfg.Database.Path, "driver", cfg.Database.Driver)
	storeOpts := []store.Option{
		store.WithDriver(cfg.Database.Driver),
		store.WithBusyTimeout(cfg.Database.BusyTimeout),
		store.WithMaxOpenConns(cfg.Database.MaxOpenConns),
		store.WithLogger(logger),
		store.WithMetrics(metrics),
	}
	if opts.TxIDs != nil {
		storeOpts = append(storeOpts, store.WithTxIDGenerator(opts.TxIDs))
	}
	st, err := store.Open(cfg.Database.Path, storeOpts...)
	if err != nil {
		_ = logCloser.Close()
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	return &session{
		store:       st,
		logger:      logger,
		registry:    registry,
		metricsFile: cfg.MetricsFile,
		logCloser:   logCloser,
	}, nil
}

// Close writes the metrics snapshot (if configured) and releases the store
// and log file.
func (s *session) Close() error {
	var errs []error
	if s.metricsFile != "" {
		if err := prometheus.WriteToTextfile(s.metricsFile, s.registry); err != nil {
			errs = append(errs, fmt.Errorf("write metrics file: %w", err))
		}
	}
	if err := s.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close database: %w", err))
	}
	if err := s.logCloser.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close log: %w", err))
	}
	return errors.Join(errs...)
}

// withSession opens a session, runs fn and closes the session. A close
// failure is reported only if fn succeeded.
func withSession(opts *RootOptions, cmd *cobra.Command, fn func(ctx context.Context, s *session) error) (err error) {
	s, err := openSession(opts, cmd)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := s.Close(); closeErr != nil {
			s.logger.Error("error closing session", "error", closeErr)
			if err == nil {
				err = WrapExitError(ExitCommandError, "failed to close session", closeErr)
			}
		}
	}()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return fn(ctx, s)
}

// newFormatter builds the output formatter for cmd.
func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}
