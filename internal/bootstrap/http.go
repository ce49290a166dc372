package bootstrap

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/beranamag/berana/config"
	httpx "github.com/beranamag/berana/internal/http"
	"github.com/beranamag/berana/internal/observability/statsd"
)

// HTTPServerConfig contains configuration for the HTTP server.
type HTTPServerConfig struct {
	Config   *config.AppConfig
	Services ServiceContainer
	Logger   *slog.Logger
}

// StartHTTPServer creates and starts the HTTP server. Returns the server
// instance for graceful shutdown.
func StartHTTPServer(cfg *HTTPServerConfig) *http.Server {
	if cfg == nil {
		return nil
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	appCfg := cfg.Config
	if appCfg == nil {
		appCfg = &config.AppConfig{}
	}

	services := httpx.RouterServices{
		Auth:          cfg.Services.Auth,
		Articles:      cfg.Services.Articles,
		Poems:         cfg.Services.Poems,
		Issues:        cfg.Services.Issues,
		Submissions:   cfg.Services.Submissions,
		Newsletter:    cfg.Services.Newsletter,
		Notifications: cfg.Services.Notifications,
		Users:         cfg.Services.Users,
		CookieDomain:  appCfg.HTTP.CookieDomain,
		TokenMaxAge:   appCfg.Auth.TokenHorizon,
		IsDev:         appCfg.IsDev,
		Logger:        logger,
	}

	var metricsSink statsd.Sink
	if cfg.Services.Metrics != nil {
		metricsSink = cfg.Services.Metrics
	}

	// Order: Recover -> Logging -> Router
	handler := httpx.NewRouter(services)
	handler = httpx.Logging(logger, metricsSink)(handler)
	handler = httpx.Recover(logger)(handler)

	return startServer(logger, handler, appCfg.HTTP.Addr)
}

func startServer(logger *slog.Logger, handler http.Handler, addr string) *http.Server {
	// Guard against empty addr to avoid listening on Go default
	if addr == "" {
		addr = ":8080"
	}

	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("starting HTTP server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server failed", "error", err)
		}
	}()

	return server
}

// WaitForShutdown blocks until SIGINT or SIGTERM, then drains the server.
func WaitForShutdown(ctx context.Context, server *http.Server, logger *slog.Logger) error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case sig := <-stop:
		if logger != nil {
			logger.Info("shutdown signal received", "signal", sig.String())
		}
	case <-ctx.Done():
	}

	return ShutdownHTTPServer(ctx, server, logger)
}

// ShutdownHTTPServer gracefully shuts down the HTTP server.
func ShutdownHTTPServer(ctx context.Context, server *http.Server, logger *slog.Logger) error {
	if server == nil {
		return nil
	}
	if logger != nil {
		logger.Info("shutting down HTTP server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if logger != nil {
		logger.Info("HTTP server stopped")
	}
	return nil
}
