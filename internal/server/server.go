// Package server assembles the dashboard from its configuration and runs
// the HTTP server.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/apex/log"
	jsonhandler "github.com/apex/log/handlers/json"
	"github.com/apex/log/handlers/text"

	"github.com/bryanwahyu/compliance-dashboard/internal/application"
	appalerts "github.com/bryanwahyu/compliance-dashboard/internal/application/alerts"
	appdashboard "github.com/bryanwahyu/compliance-dashboard/internal/application/dashboard"
	"github.com/bryanwahyu/compliance-dashboard/internal/application/relay"
	appreport "github.com/bryanwahyu/compliance-dashboard/internal/application/report"
	appreview "github.com/bryanwahyu/compliance-dashboard/internal/application/review"
	"github.com/bryanwahyu/compliance-dashboard/internal/application/workflow"
	"github.com/bryanwahyu/compliance-dashboard/internal/config"
	"github.com/bryanwahyu/compliance-dashboard/internal/demo"
	"github.com/bryanwahyu/compliance-dashboard/internal/domain/analysis"
	"github.com/bryanwahyu/compliance-dashboard/internal/domain/session"
	"github.com/bryanwahyu/compliance-dashboard/internal/infra/ai/local"
	aiopenai "github.com/bryanwahyu/compliance-dashboard/internal/infra/ai/openai"
	"github.com/bryanwahyu/compliance-dashboard/internal/infra/backend"
	mysqlp "github.com/bryanwahyu/compliance-dashboard/internal/infra/db/mysql"
	postgresp "github.com/bryanwahyu/compliance-dashboard/internal/infra/db/postgres"
	"github.com/bryanwahyu/compliance-dashboard/internal/infra/httpserver"
	memstore "github.com/bryanwahyu/compliance-dashboard/internal/infra/session"
	minioStore "github.com/bryanwahyu/compliance-dashboard/internal/infra/storage"
	"github.com/bryanwahyu/compliance-dashboard/internal/middleware"
)

// RunRetention is how long finished runs stay pollable.
const RunRetention = time.Hour

// SetupLogging installs the apex/log handler and level.
func SetupLogging(level, format string) {
	switch format {
	case "json":
		log.SetHandler(jsonhandler.New(os.Stderr))
	default:
		log.SetHandler(text.New(os.Stderr))
	}
	if level == "" {
		level = "info"
	}
	log.SetLevelFromString(level)
}

// App is the wired dashboard.
type App struct {
	Config   *config.Config
	Handler  http.Handler
	Workflow *workflow.Service
	Samples  *demo.Provider
	Store    session.Store

	sweep   func(context.Context) (int, error)
	limiter *middleware.RateLimiter
	closers []func() error
}

// New wires every service from cfg.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	if err := middleware.ValidateBaseURL(cfg.Backend.URL); err != nil {
		return nil, fmt.Errorf("backend url: %w", err)
	}
	app := &App{Config: cfg}

	store, sweep, closer, err := openStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("session store %s: %w", cfg.Session.Driver, err)
	}
	app.Store, app.sweep = store, sweep
	if closer != nil {
		app.closers = append(app.closers, closer)
	}

	samples, err := demo.NewProvider(cfg.Demo.SampleFile)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("demo sample: %w", err)
	}
	app.Samples = samples

	clock := application.SystemClock{}
	client := backend.NewClient(cfg.Backend.URL, cfg.Backend.Timeout)
	rel := relay.New(store, clock, cfg.Session.TTL)

	wf := workflow.NewService(client, rel, clock, cfg.Progress)
	wf.Timeout = cfg.Backend.Timeout
	wf.Fast = FastAnalyzer(cfg)
	wf.Hooks = workflow.Hooks{
		RunStarted:  middleware.AnalysisStarted,
		RunFinished: middleware.AnalysisFinished,
	}
	app.Workflow = wf

	app.limiter = middleware.NewRateLimiter(cfg.RateLimit.Capacity, cfg.RateLimit.RefillRate)
	app.closers = append(app.closers, func() error { app.limiter.Stop(); return nil })

	storeCheck := &middleware.PingHealthChecker{Target: store}
	app.Handler = httpserver.NewRouter(httpserver.Deps{
		Workflow:  wf,
		Dashboard: &appdashboard.Service{Relay: rel, Samples: samples, Noise: demo.RandomNoise{}, Clock: clock},
		Alerts:    &appalerts.Service{Relay: rel, Seed: demo.Alerts, Clock: clock},
		Review:    &appreview.Service{Relay: rel, New: demo.Review, Clock: clock},
		Report:    &appreport.Service{Source: demo.Reports{}},
		Clock:     clock,
		Health: map[string]middleware.HealthChecker{
			"backend": &middleware.PingHealthChecker{Target: client},
			"session": storeCheck,
		},
		Ready:          storeCheck,
		Limiter:        app.limiter,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		SecureCookie:   cfg.Server.SecureCookie,
		MaxUploadBytes: cfg.Upload.MaxBytes,
		MaxPolicyBytes: cfg.Upload.MaxPolicyBytes,
	})

	log.WithFields(log.Fields{
		"backend":  cfg.Backend.URL,
		"session":  cfg.Session.Driver,
		"provider": cfg.AI.Provider,
	}).Info("dashboard configured")
	return app, nil
}

// FastAnalyzer returns the configured fast-analysis provider, nil for the
// HTTP backend.
func FastAnalyzer(cfg *config.Config) analysis.FastAnalyzer {
	switch cfg.AI.Provider {
	case config.ProviderOpenAI:
		if cfg.AI.BaseURL != "" {
			return aiopenai.NewClientWithBaseURL(cfg.AI.APIKey, cfg.AI.Model, cfg.AI.BaseURL)
		}
		return aiopenai.NewClient(cfg.AI.APIKey, cfg.AI.Model)
	case config.ProviderLocal:
		return local.Analyzer{}
	default:
		return nil
	}
}

// openStore returns the session store for the configured driver, with its
// expiry sweep and closer.
func openStore(ctx context.Context, cfg *config.Config) (session.Store, func(context.Context) (int, error), func() error, error) {
	switch cfg.Session.Driver {
	case config.DriverMySQL:
		db, err := mysqlp.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			return nil, nil, nil, err
		}
		repo := mysqlp.NewSessionRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, nil, nil, err
		}
		return repo, sweepInt64(repo.DeleteExpired), db.Close, nil

	case config.DriverPostgres:
		db, err := postgresp.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			return nil, nil, nil, err
		}
		repo := postgresp.NewSessionRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, nil, nil, err
		}
		return repo, sweepInt64(repo.DeleteExpired), db.Close, nil

	case config.DriverMinio:
		st, err := minioStore.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			return nil, nil, nil, err
		}
		return st, st.DeleteExpired, nil, nil

	default:
		mem := memstore.NewMemoryStore()
		mem.StartCleanup(cfg.Session.CleanupInterval)
		return mem, nil, mem.Close, nil
	}
}

func sweepInt64(fn func(context.Context) (int64, error)) func(context.Context) (int, error) {
	return func(ctx context.Context) (int, error) {
		n, err := fn(ctx)
		return int(n), err
	}
}

// Background runs the maintenance loops until ctx ends: expired session
// sweeps, pruning of finished runs and the sample file watcher.
func (a *App) Background(ctx context.Context) {
	interval := a.Config.Session.CleanupInterval
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				if n := a.Workflow.Prune(now.Add(-RunRetention)); n > 0 {
					log.WithField("runs", n).Debug("pruned finished runs")
				}
				if a.sweep == nil {
					continue
				}
				n, err := a.sweep(ctx)
				if err != nil {
					log.WithError(err).Warn("sweep expired sessions")
					continue
				}
				if n > 0 {
					log.WithField("entries", n).Debug("swept expired sessions")
				}
			}
		}
	}()

	if a.Config.Demo.Watch && a.Config.Demo.SampleFile != "" {
		go func() {
			if err := a.Samples.Watch(ctx); err != nil {
				log.WithError(err).Warn("sample watcher stopped")
			}
		}()
	}
}

// Close releases the store connections.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Run serves until ctx ends, then shuts down gracefully.
func Run(ctx context.Context, cfg *config.Config) error {
	app, err := New(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	app.Background(ctx)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      app.Handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Backend.Timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", addr).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down server...")
	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	return srv.Shutdown(shutdownCtx)
}
