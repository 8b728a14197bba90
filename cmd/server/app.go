package main

import (
	"context"
	"html/template"
	"io/fs"
	"log/slog"
	"time"

	"github.com/ZanzyTHEbar/elkquiz/internal/cache"
	"github.com/ZanzyTHEbar/elkquiz/internal/catalog"
	"github.com/ZanzyTHEbar/elkquiz/internal/config"
	"github.com/ZanzyTHEbar/elkquiz/internal/frontend"
	"github.com/ZanzyTHEbar/elkquiz/internal/middleware"
	"github.com/ZanzyTHEbar/elkquiz/internal/monitoring"
	"github.com/ZanzyTHEbar/elkquiz/internal/quiz"
	"github.com/ZanzyTHEbar/elkquiz/internal/ratelimit"
	"github.com/ZanzyTHEbar/elkquiz/internal/security"
	"github.com/ZanzyTHEbar/elkquiz/internal/store"
)

const serviceName = "elkquiz"

// application holds everything the router and the commands share.
type application struct {
	cfg config.Config

	catalog     *catalog.Catalog
	store       *store.Store
	service     *quiz.Service
	metrics     *monitoring.Metrics
	logger      *monitoring.Logger
	tracer      *monitoring.Tracer
	cache       *cache.Cache
	redis       *ratelimit.RedisClient
	limiter     *ratelimit.RateLimiter
	security    *security.SecurityMiddleware
	compression *middleware.CompressionMiddleware

	publicFS fs.FS
	index    *template.Template
	watcher  *catalog.Watcher
}

// newApplication loads the catalog and builds every component. A catalog load
// failure is returned; a missing public dir or Redis only logs.
func newApplication(ctx context.Context, cfg config.Config, logger *monitoring.Logger) (*application, error) {
	cat, err := catalog.New(cfg.SuitesDir, cfg.AdConfigPath)
	if err != nil {
		return nil, err
	}

	app := &application{
		cfg:     cfg,
		catalog: cat,
		store:   store.New(cfg.Results.MaxEntries, cfg.Results.TTL.Std()),
		metrics: monitoring.NewMetrics(),
		logger:  logger,
		tracer:  monitoring.NewTracer(serviceName, logger),
		cache:   cache.NewCache(cfg.Cache.Size, cfg.Cache.TTL.Std()),
		security: security.NewSecurityMiddleware(security.SecurityConfig{
			MaxBodyBytes:   cfg.Security.MaxBodyBytes,
			RequestTimeout: cfg.Security.RequestTimeout.Std(),
			EnableHSTS:     cfg.Security.EnableHSTS,
		}),
		compression: middleware.NewCompressionMiddleware(middleware.DefaultCompressionConfig()),
	}

	app.service = quiz.NewService(cat, app.store,
		quiz.WithMetrics(app.metrics),
		quiz.WithLogger(logger),
		quiz.WithTracer(app.tracer),
	)
	cat.OnReload(func(*catalog.Snapshot) { app.cache.Clear() })

	app.redis, err = ratelimit.NewRedisClient(ctx, cfg.RateLimit.RedisAddr, cfg.RateLimit.RedisPassword, cfg.RateLimit.RedisDB)
	if err != nil {
		logger.Warn("Redis unavailable, submissions are limited per instance", "error", err)
	}
	app.limiter = ratelimit.NewRateLimiter(app.redis, ratelimit.Config{
		SubmitLimitPerMin: cfg.RateLimit.SubmitLimitPerMin,
		BurstMultiplier:   cfg.RateLimit.BurstMultiplier,
	}, app.metrics)

	if app.publicFS, err = frontend.OpenPublicDir(cfg.PublicDir); err != nil {
		logger.Warn("Static files disabled", "error", err)
	} else if app.index, err = frontend.LoadIndexTemplate(app.publicFS); err != nil {
		return nil, err
	}

	snap := cat.Snapshot()
	logger.SystemLogger("startup", "catalog ready")
	logger.Info("Catalog ready",
		"suites", len(snap.Suites),
		"default_suite", snap.Default.ID,
		"suites_dir", cfg.SuitesDir)
	return app, nil
}

// startWatcher reloads the catalog on file changes until ctx ends.
func (app *application) startWatcher(ctx context.Context) error {
	w, err := catalog.NewWatcher(app.catalog,
		catalog.WithWatchLogger(app.logger.Logger),
		catalog.WithReloadFunc(func() (*catalog.Snapshot, error) {
			return app.service.Reload("watch")
		}),
	)
	if err != nil {
		return err
	}
	if err := w.Start(ctx); err != nil {
		return err
	}
	app.watcher = w
	return nil
}

func (app *application) close() {
	if app.watcher != nil {
		app.watcher.Stop()
	}
	if err := app.redis.Close(); err != nil {
		slog.Warn("Redis close failed", "error", err)
	}
}

func (app *application) stats() map[string]interface{} {
	return map[string]interface{}{
		"timestamp":   time.Now().Format(time.RFC3339),
		"metrics":     app.metrics.GetStats(),
		"cache":       app.cache.Stats(),
		"rate_limit":  app.limiter.GetStats(),
		"compression": app.compression.GetStats(),
		"results": map[string]interface{}{
			"stored":    app.store.Len(),
			"evictions": app.store.Evictions(),
		},
		"catalog": map[string]interface{}{
			"version":   app.catalog.Snapshot().Version,
			"loaded_at": app.catalog.Snapshot().LoadedAt.Format(time.RFC3339),
		},
	}
}
