package sync

import (
	"context"
	"time"

	"github.com/KylianTITREN/e-kom-backend/internal/catalog"
)

// BulkOptions tunes SyncAll.
type BulkOptions struct {
	// Force re-pushes product fields even for entities that already carry a
	// linkage.
	Force bool

	// UpdatePrices rotates the Stripe price when the catalog amount drifted.
	UpdatePrices bool

	// Delay is the pause between entities. Stripe's rate ceiling is 100
	// req/s; the default of 100ms stays far below it.
	Delay time.Duration
}

// Stats aggregates the outcome of a bulk sync. Per-entity failures are
// counted, never propagated — one broken entity must not abort its siblings.
type Stats struct {
	Total   int
	Created int
	Updated int
	Skipped int
	Errors  int
}

// SyncAll walks every catalog entity and reconciles it with Stripe. Entities
// without a linkage are created; linked entities are skipped unless Force or
// UpdatePrices is set. The ctx cancels the walk between entities.
func (b *Bridge) SyncAll(ctx context.Context, opts BulkOptions) (Stats, error) {
	if opts.Delay <= 0 {
		opts.Delay = 100 * time.Millisecond
	}

	entities, err := b.store.FindMany(ctx, catalog.Filter{})
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{Total: len(entities)}
	b.logger.Info("sync: bulk sync starting",
		"total", stats.Total, "force", opts.Force, "update_prices", opts.UpdatePrices)

	for _, e := range entities {
		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		default:
		}

		outcome, err := b.syncOne(ctx, e, opts)
		if err != nil {
			stats.Errors++
			b.logger.Error("sync: entity sync failed",
				"entity_id", e.DocumentID, "name", e.Name, "error", err)
		} else {
			switch outcome {
			case outcomeCreated:
				stats.Created++
			case outcomeUpdated:
				stats.Updated++
			default:
				stats.Skipped++
			}
		}

		// Cooperative throttle between Stripe calls.
		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		case <-time.After(opts.Delay):
		}
	}

	b.logger.Info("sync: bulk sync finished",
		"total", stats.Total,
		"created", stats.Created,
		"updated", stats.Updated,
		"skipped", stats.Skipped,
		"errors", stats.Errors,
	)
	return stats, nil
}

type outcome int

const (
	outcomeSkipped outcome = iota
	outcomeCreated
	outcomeUpdated
)

func (b *Bridge) syncOne(ctx context.Context, e catalog.Entity, opts BulkOptions) (outcome, error) {
	if !e.HasLinkage() {
		if err := b.createLinked(ctx, e); err != nil {
			return outcomeSkipped, err
		}
		return outcomeCreated, nil
	}

	if !opts.Force && !opts.UpdatePrices {
		return outcomeSkipped, nil
	}

	updated := false
	if opts.Force {
		if err := b.stripe.UpdateProduct(ctx, e.StripeProductID, b.productParams(e)); err != nil {
			return outcomeSkipped, err
		}
		updated = true
	}

	if opts.UpdatePrices && e.StripePriceID != "" {
		before := e.StripePriceID
		if err := b.rotatePrice(ctx, e); err != nil {
			return outcomeSkipped, err
		}
		// rotatePrice is a no-op when amounts already match; re-read the
		// linkage to see whether it actually rotated.
		refreshed, err := b.store.FindByID(ctx, e.DocumentID)
		if err == nil && refreshed.StripePriceID != before {
			updated = true
		}
	}

	if updated {
		return outcomeUpdated, nil
	}
	return outcomeSkipped, nil
}
