package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq" // postgres driver

	"github.com/KylianTITREN/e-kom-backend/internal/api"
	"github.com/KylianTITREN/e-kom-backend/internal/cart"
	"github.com/KylianTITREN/e-kom-backend/internal/catalog"
	"github.com/KylianTITREN/e-kom-backend/internal/checkout"
	"github.com/KylianTITREN/e-kom-backend/internal/config"
	"github.com/KylianTITREN/e-kom-backend/internal/email"
	"github.com/KylianTITREN/e-kom-backend/internal/order"
	stripeinternal "github.com/KylianTITREN/e-kom-backend/internal/stripe"
	"github.com/KylianTITREN/e-kom-backend/internal/sync"
)

func main() {
	// ── Logger ────────────────────────────────────────────────────────────────
	// JSON in production, pretty text in development.
	var logger *slog.Logger
	if os.Getenv("ENV") == "production" {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	} else {
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	}
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	// ── Config ────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logger.Info("config loaded", "env", cfg.Env, "port", cfg.Port)

	// ── Database ──────────────────────────────────────────────────────────────
	pool, err := openDB(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer pool.Close()
	logger.Info("database connected")

	// ── Catalog store ─────────────────────────────────────────────────────────
	store := catalog.NewPostgresStore(pool)

	// ── Stripe ────────────────────────────────────────────────────────────────
	// One client handle for the whole process: stateless after construction,
	// safe to share across requests.
	stripeClient := stripeinternal.NewClient(cfg.StripeSecretKey)

	// ── Catalog sync bridge ───────────────────────────────────────────────────
	// Subscribed before any write traffic so every catalog mutation mirrors
	// into Stripe. Bridge failures are logged, never surfaced to the editor.
	bridge := sync.NewBridge(store, stripeClient, logger)
	store.Subscribe(bridge.Hooks())

	// ── Email (Resend) ────────────────────────────────────────────────────────
	mailer := email.NewResendClient(
		cfg.ResendAPIKey,
		cfg.EmailFromAddr,
		cfg.EmailFromName,
		cfg.EmailReplyTo,
		cfg.ShopName,
		logger,
	)

	// ── HTTP server ───────────────────────────────────────────────────────────
	handler := api.NewServer(
		cart.NewRevalidator(store),
		checkout.NewBuilder(stripeClient, cfg.FrontURL, logger),
		order.NewReconstructor(stripeClient, logger),
		stripeClient,
		mailer,
		api.Config{
			StripeWebhookSecret: cfg.StripeWebhookSecret,
			Env:                 cfg.Env,
		},
		logger,
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // webhook processing includes Stripe round-trips
		IdleTimeout:  120 * time.Second,
	}

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until either a signal arrives or the server dies unexpectedly.
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	}

	// Give in-flight HTTP requests up to 20 seconds to finish.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("shutdown complete")
	return nil
}

// openDB opens the connection pool and verifies the database is reachable
// before the server starts taking traffic.
func openDB(dsn string) (*sql.DB, error) {
	pool, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}

	// Tune the connection pool.
	pool.SetMaxOpenConns(25)
	pool.SetMaxIdleConns(10)
	pool.SetConnMaxLifetime(5 * time.Minute)
	pool.SetConnMaxIdleTime(2 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := pool.PingContext(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	return pool, nil
}
