// Package app initializes and holds the long-lived services: store backend,
// fetch client, job controller, auto-update daemon and the control API.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/vbstat/volleycrawl/internal/api"
	"github.com/vbstat/volleycrawl/internal/autoupdate"
	"github.com/vbstat/volleycrawl/internal/config"
	"github.com/vbstat/volleycrawl/internal/fetch"
	"github.com/vbstat/volleycrawl/internal/ingest"
	"github.com/vbstat/volleycrawl/internal/job"
	"github.com/vbstat/volleycrawl/internal/logging"
	"github.com/vbstat/volleycrawl/internal/metrics"
	"github.com/vbstat/volleycrawl/internal/plan"
	"github.com/vbstat/volleycrawl/internal/record"
	"github.com/vbstat/volleycrawl/internal/resolve"
	"github.com/vbstat/volleycrawl/internal/store"
	"github.com/vbstat/volleycrawl/internal/store/memory"
	"github.com/vbstat/volleycrawl/internal/store/postgres"
	"github.com/vbstat/volleycrawl/internal/store/sqlite"
)

// App is the dependency container built once at startup.
type App struct {
	Config     config.Config
	Log        *zap.Logger
	Store      store.Gateway
	Fetcher    *fetch.Client
	Resolver   *resolve.Resolver
	Controller *job.Controller
	Daemon     *autoupdate.Daemon // nil when auto-update is disabled

	closeStore func()
}

// New builds the App from configuration, failing fast if any service cannot
// be initialized.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	log, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, err
	}
	metrics.Init()

	gw, closeStore, err := openStore(ctx, cfg.Store, log)
	if err != nil {
		return nil, err
	}

	fetcher, err := fetch.New(map[record.Source]fetch.SourceConfig{
		record.SourceVolleyMSK: sourceConfig(cfg.Sources.VolleyMSK),
		record.SourceBCL:       sourceConfig(cfg.Sources.BCL),
	}, log)
	if err != nil {
		closeStore()
		return nil, err
	}

	resolver := resolve.New(gw, log)
	msk := ingest.NewVolleyMSK(gw, resolver, log)
	bclIng := ingest.NewBCL(gw, resolver, log)

	factory := func(src record.Source, opts plan.Options) (plan.Planner, error) {
		planLog := logging.ForSource(log, string(src))
		switch src {
		case record.SourceVolleyMSK:
			if opts.EmptyThreshold <= 0 {
				opts.EmptyThreshold = cfg.Sources.VolleyMSK.EmptyThreshold
			}
			return plan.NewSweepPlanner(gw, fetcher, msk, cfg.Sources.VolleyMSK.BaseURL, opts, planLog), nil
		case record.SourceBCL:
			return plan.NewScheduleProbePlanner(gw, fetcher, bclIng, cfg.Sources.BCL.BaseURL, opts, planLog), nil
		default:
			return nil, fmt.Errorf("no planner for source %q", src)
		}
	}

	// Both sources share one error threshold; per-source values differ only
	// if configured apart.
	threshold := cfg.Sources.VolleyMSK.SystemicErrorThreshold
	ctrl := job.NewController(factory, threshold, log)

	var daemon *autoupdate.Daemon
	if cfg.AutoUpdate.Enabled {
		daemon = autoupdate.New(ctrl, autoupdate.Config{
			Interval: cfg.AutoUpdate.Interval(),
		}, log)
	}

	return &App{
		Config:     cfg,
		Log:        log,
		Store:      gw,
		Fetcher:    fetcher,
		Resolver:   resolver,
		Controller: ctrl,
		Daemon:     daemon,
		closeStore: closeStore,
	}, nil
}

func sourceConfig(c config.SourceConfig) fetch.SourceConfig {
	return fetch.SourceConfig{
		Encoding:  c.Encoding,
		Delay:     c.Delay(),
		Timeout:   c.Timeout(),
		UserAgent: c.UserAgent,
	}
}

func openStore(ctx context.Context, cfg config.StoreConfig, log *zap.Logger) (store.Gateway, func(), error) {
	switch cfg.Provider {
	case "memory":
		log.Info("using in-memory store")
		return memory.New(), func() {}, nil
	case "sqlite":
		log.Info("using sqlite store", zap.String("path", cfg.Path))
		s, err := sqlite.Open(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	case "postgres":
		log.Info("connecting to postgres")
		s, err := postgres.Connect(ctx, cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store provider %q", cfg.Provider)
	}
}

// Serve runs the control API and, when enabled, the auto-update daemon,
// until ctx is canceled.
func (a *App) Serve(ctx context.Context) error {
	srv := api.NewServer(ctx, a.Controller, a.Daemon, a.Store,
		time.Duration(a.Config.Server.TimeoutSeconds)*time.Second, a.Log)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if a.Daemon != nil {
		go a.Daemon.Run(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		a.Log.Info("control api listening", zap.Int("port", a.Config.Server.Port))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Close releases the store and flushes logs.
func (a *App) Close() {
	if a.closeStore != nil {
		a.closeStore()
	}
	_ = a.Log.Sync()
}
