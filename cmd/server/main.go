package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"expensetracker/internal/auth"
	"expensetracker/internal/common"
	"expensetracker/internal/config"
	"expensetracker/internal/handlers"
	"expensetracker/internal/logging"
	"expensetracker/internal/middleware"
	"expensetracker/internal/storage"

	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 15 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, config.Load(), os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, stdout io.Writer) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := logging.New(stdout, logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	slog.SetDefault(logger)

	db, err := storage.Open(ctx, cfg.DBDriver, cfg.DSN())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()
	logger.Info("database ready", "driver", cfg.DBDriver)

	authService := auth.NewService(db, []byte(cfg.SecretKey), cfg.SessionDuration)
	if err := ensureAdmin(ctx, authService, cfg.AdminUser, cfg.AdminPassword); err != nil {
		return err
	}

	h := handlers.NewHandlers(db, authService, cfg.TemplateDir, cfg.SecureCookie)
	srv := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: middleware.Chain(setupRouter(h, cfg.StaticDir),
			middleware.RequestLogger(logger),
			middleware.SecurityHeaders,
		),
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		cleanSessions(gctx, db, cfg.SessionCleanupInterval, logger)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}

func setupRouter(h *handlers.Handlers, staticDir string) *http.ServeMux {
	return h.Routes(staticDir)
}

// ensureAdmin creates the configured bootstrap user if it does not exist yet.
func ensureAdmin(ctx context.Context, svc *auth.Service, username, password string) error {
	if username == "" {
		return nil
	}
	_, err := svc.Register(ctx, username, password)
	switch {
	case err == nil:
		slog.Info("created admin user", "username", username)
	case errors.Is(err, common.ErrUsernameTaken):
		slog.Debug("admin user already exists", "username", username)
	default:
		return fmt.Errorf("failed to create admin user: %w", err)
	}
	return nil
}

type sessionCleaner interface {
	CleanExpiredSessions(ctx context.Context) (int64, error)
}

// cleanSessions removes expired sessions every interval until ctx is done.
func cleanSessions(ctx context.Context, store sessionCleaner, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := store.CleanExpiredSessions(ctx)
			if err != nil {
				if ctx.Err() == nil {
					logger.Error("failed to clean expired sessions", "error", err)
				}
				continue
			}
			if removed > 0 {
				logger.Info("cleaned expired sessions", "removed", removed)
			}
		}
	}
}
