package sync_test

import (
	"context"
	"errors"
	"testing"
	"time"

	stripeinternal "github.com/KylianTITREN/e-kom-backend/internal/stripe"
	"github.com/KylianTITREN/e-kom-backend/internal/sync"
)

func TestSyncAll_CreatesUnlinkedSkipsLinked(t *testing.T) {
	unlinked := newEntity(1, "Mug", 12.00)
	linked := newEntity(2, "Bracelet", 29.90)
	linked.StripeProductID = "prod_existing"
	linked.StripePriceID = "price_existing"

	store := newStubStore(unlinked, linked)
	stripe := &stubStripe{}
	b := newBridge(store, stripe)

	stats, err := b.SyncAll(context.Background(), sync.BulkOptions{Delay: time.Millisecond})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if stats.Total != 2 || stats.Created != 1 || stats.Skipped != 1 || stats.Errors != 0 {
		t.Errorf("stats = %+v", stats)
	}
	if unlinked.StripeProductID == "" {
		t.Error("unlinked entity was not created in Stripe")
	}
}

func TestSyncAll_PerEntityErrorIsolation(t *testing.T) {
	// Two unlinked entities; the provider rejects every create. Both must be
	// counted as errors, neither may abort the walk.
	a := newEntity(1, "Mug", 12.00)
	b := newEntity(2, "Bracelet", 29.90)

	store := newStubStore(a, b)
	stripe := &stubStripe{createProductErr: errors.New("stripe down")}
	bridge := newBridge(store, stripe)

	stats, err := bridge.SyncAll(context.Background(), sync.BulkOptions{Delay: time.Millisecond})
	if err != nil {
		t.Fatalf("per-entity failures must not fail the walk: %v", err)
	}
	if stats.Errors != 2 || stats.Created != 0 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestSyncAll_ForceUpdatesLinked(t *testing.T) {
	linked := newEntity(1, "Mug", 12.00)
	linked.StripeProductID = "prod_existing"
	linked.StripePriceID = "price_existing"

	store := newStubStore(linked)
	stripe := &stubStripe{}
	b := newBridge(store, stripe)

	stats, err := b.SyncAll(context.Background(), sync.BulkOptions{
		Force: true,
		Delay: time.Millisecond,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Updated != 1 || stripe.productsUpdated != 1 {
		t.Errorf("stats = %+v, updates = %d", stats, stripe.productsUpdated)
	}
}

func TestSyncAll_UpdatePricesRotatesDrifted(t *testing.T) {
	linked := newEntity(1, "Mug", 15.00)
	linked.StripeProductID = "prod_existing"
	linked.StripePriceID = "price_old"

	store := newStubStore(linked)
	stripe := &stubStripe{
		storedPrice: stripeinternal.Price{ID: "price_old", UnitAmount: 1200, Active: true},
	}
	b := newBridge(store, stripe)

	stats, err := b.SyncAll(context.Background(), sync.BulkOptions{
		UpdatePrices: true,
		Delay:        time.Millisecond,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Updated != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if stripe.pricesDeactivated != 1 || stripe.pricesCreated != 1 {
		t.Errorf("deactivated=%d created=%d, want 1/1",
			stripe.pricesDeactivated, stripe.pricesCreated)
	}
	if linked.StripePriceID == "price_old" {
		t.Error("linkage still points at the old price")
	}
}

func TestSyncAll_UpdatePricesNoDriftSkips(t *testing.T) {
	linked := newEntity(1, "Mug", 12.00)
	linked.StripeProductID = "prod_existing"
	linked.StripePriceID = "price_old"

	store := newStubStore(linked)
	stripe := &stubStripe{
		storedPrice: stripeinternal.Price{ID: "price_old", UnitAmount: 1200, Active: true},
	}
	b := newBridge(store, stripe)

	stats, err := b.SyncAll(context.Background(), sync.BulkOptions{
		UpdatePrices: true,
		Delay:        time.Millisecond,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Skipped != 1 || stats.Updated != 0 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestSyncAll_ContextCancelStopsWalk(t *testing.T) {
	store := newStubStore(newEntity(1, "Mug", 12.00), newEntity(2, "Bracelet", 29.90))
	b := newBridge(store, &stubStripe{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := b.SyncAll(ctx, sync.BulkOptions{Delay: time.Millisecond})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
