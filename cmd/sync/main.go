// Command sync walks the whole catalog and reconciles it with Stripe. Run it
// after importing products in bulk, or whenever the Stripe mirror may have
// drifted from the catalog (manual edits in the Stripe dashboard, a long
// outage of the live sync bridge).
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq" // postgres driver

	"github.com/KylianTITREN/e-kom-backend/internal/catalog"
	"github.com/KylianTITREN/e-kom-backend/internal/config"
	stripeinternal "github.com/KylianTITREN/e-kom-backend/internal/stripe"
	"github.com/KylianTITREN/e-kom-backend/internal/sync"
)

func main() {
	force := flag.Bool("force", false, "push name/description/image updates for products that already have a Stripe linkage")
	updatePrices := flag.Bool("update-prices", false, "rotate Stripe prices that no longer match the catalog price")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	if err := run(logger, *force, *updatePrices); err != nil {
		logger.Error("sync failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger, force, updatePrices bool) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	pool, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer pool.Close()

	pingCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := pool.PingContext(pingCtx); err != nil {
		return fmt.Errorf("database ping: %w", err)
	}

	// No hooks subscribed here: the bulk walk drives Stripe directly, and a
	// live bridge would double every write.
	store := catalog.NewPostgresStore(pool)
	bridge := sync.NewBridge(store, stripeinternal.NewClient(cfg.StripeSecretKey), logger)

	// Ctrl-C stops the walk between entities; work already pushed to Stripe
	// stays pushed.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("starting catalog sync",
		"force", force,
		"update_prices", updatePrices,
		"delay", cfg.SyncDelay,
	)
	start := time.Now()

	stats, err := bridge.SyncAll(ctx, sync.BulkOptions{
		Force:        force,
		UpdatePrices: updatePrices,
		Delay:        cfg.SyncDelay,
	})
	if err != nil {
		return fmt.Errorf("sync: %w", err)
	}

	logger.Info("catalog sync finished",
		"total", stats.Total,
		"created", stats.Created,
		"updated", stats.Updated,
		"skipped", stats.Skipped,
		"errors", stats.Errors,
		"elapsed", time.Since(start).Round(time.Millisecond),
	)

	if stats.Errors > 0 {
		return fmt.Errorf("%d of %d entities failed to sync", stats.Errors, stats.Total)
	}
	return nil
}
