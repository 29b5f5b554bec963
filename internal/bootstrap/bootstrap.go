// Package bootstrap wires the adapters selected by the configuration into a
// TrackingSession. Both binaries go through Open.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/Guilhem-Bonnet/episode-owl/internal/adapters/jsonstore"
	"github.com/Guilhem-Bonnet/episode-owl/internal/adapters/lockfile"
	"github.com/Guilhem-Bonnet/episode-owl/internal/adapters/memorybus"
	"github.com/Guilhem-Bonnet/episode-owl/internal/adapters/sqlite"
	"github.com/Guilhem-Bonnet/episode-owl/internal/adapters/tvmaze"
	"github.com/Guilhem-Bonnet/episode-owl/internal/app"
	"github.com/Guilhem-Bonnet/episode-owl/internal/config"
	"github.com/Guilhem-Bonnet/episode-owl/internal/ports"
)

type Env struct {
	Config   config.Config
	Logger   zerolog.Logger
	Bus      *memorybus.Bus
	Session  *app.TrackingSession
	Exporter *app.TimelineExporter

	closers []func() error
}

// Option tweaks the wiring, mostly for tests.
type Option func(*options)

type options struct {
	source ports.MetadataSource
	fs     afero.Fs
}

// WithMetadataSource replaces the TVMaze client.
func WithMetadataSource(src ports.MetadataSource) Option {
	return func(o *options) { o.source = src }
}

// WithFs sets the filesystem used by the JSON store and the exporter.
func WithFs(fs afero.Fs) Option {
	return func(o *options) { o.fs = fs }
}

func Open(ctx context.Context, cfg config.Config, logger zerolog.Logger, opts ...Option) (*Env, error) {
	o := options{fs: afero.NewOsFs()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.source == nil {
		o.source = tvmaze.New().
			WithBaseURL(cfg.TVMaze.BaseURL).
			WithTimeout(cfg.TVMazeTimeout()).
			WithRetryAttempts(cfg.TVMaze.RetryAttempts).
			WithRequestDelay(cfg.TVMazeRequestDelay())
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	env := &Env{Config: cfg, Logger: logger, Bus: memorybus.New()}
	env.closers = append(env.closers, func() error { env.Bus.Close(); return nil })

	var (
		shows    ports.ShowRepository
		timeline ports.TimelineRepository
	)
	switch cfg.Storage.Backend {
	case config.BackendJSON:
		store := jsonstore.New(o.fs, cfg.DataDir)
		shows, timeline = store, store
	case config.BackendSQLite, "":
		db, err := sqlite.Open(ctx, cfg.Storage.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open db: %w", err)
		}
		env.closers = append(env.closers, db.Close)
		shows, timeline = sqlite.NewShowsRepository(db.SQL), sqlite.NewTimelineRepository(db.SQL)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}

	settings := cfg.Settings()
	env.Session = app.NewTrackingSession(
		logger.With().Str("component", "session").Logger(),
		o.source, shows, timeline, env.Bus, settings,
	).WithLocker(lockfile.New(cfg.LockPath()))
	env.Exporter = app.NewTimelineExporter(
		logger.With().Str("component", "exporter").Logger(),
		o.fs, env.Session, env.Bus, cfg.Tracking.ExportPath, settings,
	)

	logger.Debug().
		Str("backend", cfg.Storage.Backend).
		Str("data_dir", cfg.DataDir).
		Msg("storage ready")
	return env, nil
}

// Close releases resources in reverse order.
func (e *Env) Close() error {
	var errs []error
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	e.closers = nil
	return errors.Join(errs...)
}
