// cmd/main.go is the application entry point.
// It wires together all layers and starts the HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Shivanand-hulikatti/eventpulse/internal/auth"
	"github.com/Shivanand-hulikatti/eventpulse/internal/config"
	"github.com/Shivanand-hulikatti/eventpulse/internal/database"
	"github.com/Shivanand-hulikatti/eventpulse/internal/handler"
	"github.com/Shivanand-hulikatti/eventpulse/internal/realtime"
	"github.com/Shivanand-hulikatti/eventpulse/internal/repository"
	"github.com/Shivanand-hulikatti/eventpulse/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", slog.Any("error", err))
		os.Exit(1)
	}
	log := newLogger(cfg)

	if err := run(cfg, log); err != nil {
		log.Error("server exited", slog.Any("error", err))
		os.Exit(1)
	}
}

func newLogger(cfg config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.Production() {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

type stores struct {
	events service.EventStore
	users  service.UserStore
	close  func()
}

// openStores connects the configured storage backend.
func openStores(ctx context.Context, cfg config.Config, log *slog.Logger) (stores, error) {
	if cfg.StorageDriver == config.DriverMemory {
		log.Warn("using in-memory storage, data is lost on restart")
		return stores{
			events: repository.NewMemoryEventRepository(),
			users:  repository.NewMemoryUserRepository(),
			close:  func() {},
		}, nil
	}

	pool, err := database.NewPool(ctx, cfg.Database, log)
	if err != nil {
		return stores{}, fmt.Errorf("database: %w", err)
	}
	if err := database.Migrate(ctx, pool, log); err != nil {
		pool.Close()
		return stores{}, fmt.Errorf("migrations: %w", err)
	}
	log.Info("connected to PostgreSQL",
		slog.String("host", cfg.Database.Host),
		slog.String("database", cfg.Database.Name),
	)
	return stores{
		events: repository.NewEventRepository(pool),
		users:  repository.NewUserRepository(pool),
		close:  pool.Close,
	}, nil
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── 1. Storage ───────────────────────────────────────────────────────
	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.close()

	// ── 2. Wire up layers ────────────────────────────────────────────────
	issuer, err := auth.NewIssuer(cfg.AccessSecret, nil)
	if err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	hub := realtime.NewHub(log)
	defer hub.Close()

	eventSvc := service.NewEventService(st.events, nil)
	userSvc := service.NewUserService(st.users, nil)
	attendance := service.NewAttendanceService(st.events, hub)
	go hub.Run(ctx, realtime.NewJoinRouter(ctx, hub, attendance, cfg.JoinLimit, log))

	// ── 3. Build the router ──────────────────────────────────────────────
	r := handler.NewRouter(handler.Routes{
		Auth:      handler.NewAuthHandler(issuer, auth.NewCookies(cfg.Production(), nil), log),
		Users:     handler.NewUserHandler(userSvc, log),
		Events:    handler.NewEventHandler(eventSvc, log),
		Guard:     auth.Guard(issuer),
		Realtime:  realtime.Serve(hub, cfg.AllowedOrigins, log),
		Origins:   cfg.AllowedOrigins,
		AccessLog: log,
	})

	// ── 4. Start server with graceful shutdown ───────────────────────────
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("event server listening", slog.String("addr", srv.Addr), slog.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down server")
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	log.Info("server stopped", slog.Duration("grace", cfg.ShutdownGrace))
	return nil
}
