// Package main is the entry point for the recycle bin API server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"recyclebin/internal/app"
	"recyclebin/internal/config"
	"recyclebin/internal/domain/auth"
	v1 "recyclebin/internal/infrastructure/http/v1"
	"recyclebin/internal/infrastructure/http/v1/handlers"
	"recyclebin/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.App.IsDevelopment(),
		Encoding:    cfg.Log.Encoding,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()
	logger.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Errorw("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Infow("starting recyclebin server", "env", cfg.App.Env, "driver", cfg.Storage.Driver)

	bootCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	application, err := app.Build(bootCtx, cfg, log)
	cancel()
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	defer application.Close()

	// --- JWT ---
	if cfg.JWT.Secret == "" {
		return errors.New("jwt.secret is required to serve HTTP (set RECYCLEBIN_JWT_SECRET)")
	}
	jwtConfig := auth.DefaultJWTConfig(cfg.JWT.Secret)
	if cfg.JWT.Issuer != "" {
		jwtConfig.Issuer = cfg.JWT.Issuer
	}
	jwtService := auth.NewJWTService(jwtConfig)

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Service:      application.Service,
		Logger:       log,
		JWTValidator: jwtService,
		RequiredRole: cfg.JWT.RequiredRole,
		Health:       handlers.NewHealthHandler(cfg.App.Name, cfg.Storage.Driver, application.Checks),
		HTTPObserver: application.Metrics,
		Gatherer:     application.Registry,
		Debug:        cfg.App.IsDevelopment(),
	})

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         cfg.App.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.App.ReadTimeout,
		WriteTimeout: cfg.App.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infow("server starting", "addr", cfg.App.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// --- Graceful shutdown ---
	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info("server stopped")
	return nil
}
