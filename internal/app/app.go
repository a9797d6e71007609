// Package app wires the storefront server together.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/domain/catalog"
	"github.com/xenking/storefront/internal/domain/checkout"
	"github.com/xenking/storefront/internal/domain/product"
	"github.com/xenking/storefront/internal/handler"
	"github.com/xenking/storefront/internal/refresh"
	"github.com/xenking/storefront/internal/session"
	"github.com/xenking/storefront/internal/storage/postgres"
	"github.com/xenking/storefront/internal/upstream"
	"github.com/xenking/storefront/pkg/health"
	"github.com/xenking/storefront/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing",
		zap.String("addr", cfg.Addr),
		zap.String("catalog_source", cfg.Catalog.Source),
	)

	src, closeSrc, err := newSource(ctx, m, cfg)
	if err != nil {
		return errors.Wrap(err, "create catalog source")
	}
	defer closeSrc()

	store, err := catalog.NewStore(src, catalog.Options{
		TracerProvider: m.TracerProvider(),
		MeterProvider:  m.MeterProvider(),
	})
	if err != nil {
		return errors.Wrap(err, "create catalog store")
	}

	// A failed first load is not fatal: the server starts unready and
	// later refreshes may succeed.
	if err := store.Fetch(ctx); err != nil {
		lg.Warn("Initial catalog fetch failed", zap.Error(err))
	} else {
		state := store.Snapshot()
		lg.Info("Catalog loaded",
			zap.Int("products", len(state.Products)),
			zap.Int("categories", len(state.Categories)),
		)
	}

	if cfg.Catalog.Refresh != "" {
		sched, err := refresh.New(cfg.Catalog.Refresh, cfg.Catalog.Timeout, store, lg.Named("refresh"))
		if err != nil {
			return errors.Wrap(err, "create refresh scheduler")
		}
		sched.Start(ctx)
	}

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddReadinessCheckWithThresholds("catalog", time.Second,
		health.Thresholds{Failure: 1, Success: 1},
		health.ConditionCheck(store.Loaded, "catalog not loaded"),
	)
	if p, ok := src.(interface{ Ping(context.Context) error }); ok {
		healthSvc.AddReadinessCheck("database", 2*time.Second, p.Ping)
	}
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	sessions := session.NewRegistry(cfg.Session.TTL)
	sessions.StartCleanup(ctx, time.Minute)

	h := handler.NewHandler(
		handler.HandlerConfig{
			ImageBaseURL:  cfg.ImageBaseURL,
			SessionCookie: cfg.Session.Cookie,
			SessionTTL:    cfg.Session.TTL,
			SecureCookie:  cfg.Session.Secure,
		},
		store,
		sessions,
		checkout.NewService(),
	)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("GET /readyz", healthSvc.ReadyEndpoint)
	h.Register(mux)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      cfg.Catalog.Timeout + 5*time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(lg),
			httpmiddleware.Recovery(),
			httpmiddleware.LogRequests(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", "X-Request-ID"},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimit(ctx, httpmiddleware.RateLimitConfig{
				Max:     cfg.RateLimit.Max,
				Window:  cfg.RateLimit.Window,
				Methods: []string{http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
				KeyFunc: httpmiddleware.CookieOrIP(h.CookieName(), sessions.Has),
			}),
		),
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}

// newSource builds the configured catalog source and a function releasing
// its resources.
func newSource(ctx context.Context, m *app.Telemetry, cfg *Config) (product.Source, func(), error) {
	switch cfg.Catalog.Source {
	case SourcePostgres:
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, errors.Wrap(err, "create db pool")
		}
		if err := postgres.RunMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, errors.Wrap(err, "run migrations")
		}
		return postgres.NewCatalogRepository(pool), pool.Close, nil
	default:
		c, err := upstream.New(upstream.Config{
			BaseURL:        cfg.Catalog.UpstreamURL,
			Timeout:        cfg.Catalog.Timeout,
			TracerProvider: m.TracerProvider(),
			MeterProvider:  m.MeterProvider(),
		})
		if err != nil {
			return nil, nil, err
		}
		return c, func() {}, nil
	}
}
