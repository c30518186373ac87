// Package app implements the application layer for cargo-metadata-mcp.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.trai.ch/cargo-metadata-mcp/internal/adapters/mcpserver"
	"go.trai.ch/cargo-metadata-mcp/internal/build"
	"go.trai.ch/cargo-metadata-mcp/internal/core/domain"
	"go.trai.ch/cargo-metadata-mcp/internal/core/ports"
	"go.trai.ch/cargo-metadata-mcp/internal/engine/cache"
	"go.trai.ch/cargo-metadata-mcp/internal/engine/query"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

// App represents the main application logic.
type App struct {
	configLoader ports.ConfigLoader
	logger       ports.Logger
	resolver     ports.MetadataResolver
	hasher       ports.Hasher
	telemetry    ports.Telemetry
	transport    mcp.Transport
}

// New creates a new App instance.
func New(
	loader ports.ConfigLoader,
	log ports.Logger,
	resolver ports.MetadataResolver,
	hasher ports.Hasher,
	telemetry ports.Telemetry,
) *App {
	return &App{
		configLoader: loader,
		logger:       log,
		resolver:     resolver,
		hasher:       hasher,
		telemetry:    telemetry,
	}
}

// WithTransport replaces the stdio transport used by Serve.
// This is primarily used for testing with in-memory transports.
func (a *App) WithTransport(t mcp.Transport) *App {
	a.transport = t
	return a
}

// Options carries command line overrides for the configuration file.
// Empty strings, nil slices, zero durations and false flags keep the file value.
type Options struct {
	ConfigPath        string
	LogLevel          string
	LogFormat         string
	CachePolicy       string
	CargoPath         string
	Features          []string
	AllFeatures       bool
	NoDefaultFeatures bool
	NoDeps            bool
	FilterPlatform    string
	Offline           bool
	Locked            bool
	Frozen            bool
	Timeout           time.Duration
}

func (o *Options) apply(cfg *domain.Config) {
	if o.LogLevel != "" {
		cfg.Log.Level = o.LogLevel
	}
	if o.LogFormat != "" {
		cfg.Log.Format = o.LogFormat
	}
	if o.CachePolicy != "" {
		cfg.CachePolicy = domain.CachePolicy(o.CachePolicy)
	}
	if o.CargoPath != "" {
		cfg.Cargo.CargoPath = o.CargoPath
	}
	if len(o.Features) > 0 {
		cfg.Cargo.Features = o.Features
	}
	if o.FilterPlatform != "" {
		cfg.Cargo.FilterPlatform = o.FilterPlatform
	}
	if o.Timeout != 0 {
		cfg.Cargo.Timeout = o.Timeout
	}
	cfg.Cargo.AllFeatures = cfg.Cargo.AllFeatures || o.AllFeatures
	cfg.Cargo.NoDefaultFeatures = cfg.Cargo.NoDefaultFeatures || o.NoDefaultFeatures
	cfg.Cargo.NoDeps = cfg.Cargo.NoDeps || o.NoDeps
	cfg.Cargo.Offline = cfg.Cargo.Offline || o.Offline
	cfg.Cargo.Locked = cfg.Cargo.Locked || o.Locked
	cfg.Cargo.Frozen = cfg.Cargo.Frozen || o.Frozen
}

// logConfigurer is implemented by loggers whose level and format can change at runtime.
type logConfigurer interface {
	Configure(cfg domain.LogConfig) error
}

// slogProvider is implemented by loggers that can hand out a *slog.Logger.
type slogProvider interface {
	Slog() *slog.Logger
}

// Serve answers metadata requests over the Model Context Protocol until the
// client disconnects or ctx is canceled.
func (a *App) Serve(ctx context.Context, opts Options) (err error) {
	cfg, err := a.configure(opts)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, a.shutdown(ctx))
	}()

	srvOpts := mcpserver.Options{Version: build.Version}
	if sp, ok := a.logger.(slogProvider); ok && cfg.Log.Level == "debug" {
		srvOpts.Logger = sp.Slog()
	}
	snapshots := a.newCache(cfg)
	srv := mcpserver.New(query.New(snapshots), a.logger, a.telemetry, srvOpts)

	transport := a.transport
	if transport == nil {
		transport = &mcp.StdioTransport{}
	}

	a.logger.Info("serving cargo metadata", "version", build.Version, "policy", string(snapshots.Policy()))

	// The session only stops through the watcher, so a signal is logged
	// before the transport is torn down.
	sessionCtx, stopSession := context.WithCancel(context.WithoutCancel(ctx))
	defer stopSession()

	var g errgroup.Group
	done := make(chan struct{})

	// Session Routine
	g.Go(func() error {
		defer close(done)
		return srv.Serve(sessionCtx, transport)
	})

	// Shutdown Watcher
	g.Go(func() error {
		select {
		case <-ctx.Done():
			a.logger.Info("shutting down", "cause", context.Cause(ctx).Error())
			stopSession()
		case <-done:
			a.logger.Debug("session ended")
		}
		return nil
	})

	return g.Wait()
}

// Query runs a single operation and writes its payload to w.
func (a *App) Query(ctx context.Context, operation, manifestPath string, w io.Writer, opts Options) (err error) {
	op, err := domain.ParseOperation(operation)
	if err != nil {
		return err
	}

	cfg, err := a.configure(opts)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, a.shutdown(ctx))
	}()

	payload, err := query.New(a.newCache(cfg)).Run(ctx, op, manifestPath)
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintln(w, payload); err != nil {
		return zerr.Wrap(err, "failed to write payload")
	}
	return nil
}

func (a *App) configure(opts Options) (domain.Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return domain.Config{}, zerr.Wrap(err, "failed to get working directory")
	}

	cfg, path, err := a.configLoader.Load(cwd, opts.ConfigPath)
	if err != nil {
		return domain.Config{}, zerr.Wrap(err, "failed to load configuration")
	}

	opts.apply(&cfg)
	if err := cfg.Validate(); err != nil {
		return domain.Config{}, err
	}

	if lc, ok := a.logger.(logConfigurer); ok {
		if err := lc.Configure(cfg.Log); err != nil {
			return domain.Config{}, err
		}
	}

	if path != "" {
		a.logger.Debug("loaded configuration", "path", path)
	}
	return cfg, nil
}

func (a *App) newCache(cfg domain.Config) *cache.Cache {
	return cache.New(a.resolver, a.hasher, a.telemetry, a.logger, cfg.CachePolicy, cfg.Cargo)
}

func (a *App) shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	return a.telemetry.Shutdown(ctx)
}
