// Package cli assembles sources, stores and wizards from the CLI configuration.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/techninja/techninja"
	"github.com/techninja/techninja/internal/config"
	"github.com/techninja/techninja/internal/logging"
	"github.com/techninja/techninja/pkg/adapters/file"
	"github.com/techninja/techninja/pkg/adapters/loam"
	"github.com/techninja/techninja/pkg/adapters/memory"
	"github.com/techninja/techninja/pkg/adapters/redis"
	"github.com/techninja/techninja/pkg/adapters/remote"
	"github.com/techninja/techninja/pkg/adapters/sqlite"
	"github.com/techninja/techninja/pkg/ports"
)

// App is the set of adapters built from one configuration.
type App struct {
	Config *config.Config
	Logger *slog.Logger
	Source ports.GraphSource
	Store  ports.SnapshotStore

	closers []io.Closer
}

// NewLogger builds the logger described by cfg. Text logs go to stderr.
func NewLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	level := logging.ParseLevel(cfg.Level)
	if cfg.Format == "json" {
		return logging.NewJSON(w, level)
	}
	return logging.New(level)
}

// Open builds the source and store. Call Close when done.
func Open(cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	app := &App{Config: cfg, Logger: logger}

	source, err := NewSource(cfg.Source)
	if err != nil {
		return nil, err
	}
	app.Source = source

	store, closer, err := NewStore(cfg.Store)
	if err != nil {
		return nil, err
	}
	app.Store = store
	if closer != nil {
		app.closers = append(app.closers, closer)
	}

	logger.Debug("adapters ready", "source", cfg.Source.Kind, "store", cfg.Store.Kind)
	return app, nil
}

// NewWizard creates and boots a wizard over the app's adapters.
func (a *App) NewWizard(ctx context.Context, opts ...techninja.Option) (*techninja.Wizard, error) {
	base := []techninja.Option{
		techninja.WithLogger(a.Logger),
		techninja.WithSnapshotStore(a.Store),
		techninja.WithSessionKey(a.Config.Session.Key),
	}
	wiz, err := techninja.New(a.Source, append(base, opts...)...)
	if err != nil {
		return nil, err
	}
	if err := wiz.Boot(ctx); err != nil {
		return nil, err
	}
	return wiz, nil
}

// Close releases store connections.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// NewSource builds the graph source described by cfg.
func NewSource(cfg config.SourceConfig) (ports.GraphSource, error) {
	switch cfg.Kind {
	case config.SourceDir, "":
		var opts []file.SourceOption
		if cfg.Index != "" {
			opts = append(opts, file.WithIndexPath(cfg.Index))
		}
		return file.NewSource(cfg.Dir, opts...), nil
	case config.SourceRemote:
		var opts []remote.Option
		if cfg.Index != "" {
			opts = append(opts, remote.WithIndexPath(cfg.Index))
		}
		return remote.New(cfg.URL, opts...)
	case config.SourceLoam:
		src, err := loam.Open(cfg.Dir)
		if err != nil {
			return nil, err
		}
		if cfg.Index != "" {
			src.IndexPath = cfg.Index
		}
		return src, nil
	}
	return nil, fmt.Errorf("unknown source kind %q", cfg.Kind)
}

// NewStore builds the snapshot store described by cfg. The closer is nil for
// stores that hold no connection.
func NewStore(cfg config.StoreConfig) (ports.SnapshotStore, io.Closer, error) {
	switch cfg.Kind {
	case config.StoreMemory:
		return memory.NewStore(), nil, nil
	case config.StoreFile, "":
		return file.NewStore(cfg.Path), nil, nil
	case config.StoreSQLite:
		store, err := sqlite.Open(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil
	case config.StoreRedis:
		ttl, err := cfg.TTLDuration()
		if err != nil {
			return nil, nil, err
		}
		opts := []redis.Option{redis.WithTTL(ttl)}
		if cfg.Prefix != "" {
			opts = append(opts, redis.WithPrefix(cfg.Prefix))
		}
		store, err := redis.New(cfg.RedisURL, opts...)
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil
	}
	return nil, nil, fmt.Errorf("unknown store kind %q", cfg.Kind)
}
