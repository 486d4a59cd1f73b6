// Package sync keeps Stripe products and prices in lock-step with catalog
// entities. The Bridge subscribes to catalog lifecycle hooks; SyncAll walks
// the whole catalog for the bulk resync CLI.
//
// Error policy: every Stripe failure inside a hook is logged and swallowed.
// A Stripe outage must never block a catalog edit — from the storage layer's
// point of view the bridge is fire-and-forget.
package sync

import (
	"context"
	"log/slog"
	"math"

	"github.com/KylianTITREN/e-kom-backend/internal/catalog"
	stripeinternal "github.com/KylianTITREN/e-kom-backend/internal/stripe"
)

// descriptionLimit caps the plain-text description pushed to Stripe.
const descriptionLimit = 500

// engravingPrefix marks engraving products in Stripe so the webhook processor
// can recognise customization line items by name.
const engravingPrefix = "[Gravure] "

// MetadataDocumentID is the Stripe product metadata key carrying the catalog
// document id.
const MetadataDocumentID = "catalogId"

// Bridge mirrors catalog writes into Stripe.
type Bridge struct {
	store  catalog.Store
	stripe stripeinternal.Client
	logger *slog.Logger
}

// NewBridge constructs a Bridge. Call Hooks() and pass the result to
// Store.Subscribe to activate it.
func NewBridge(store catalog.Store, client stripeinternal.Client, logger *slog.Logger) *Bridge {
	return &Bridge{store: store, stripe: client, logger: logger}
}

// Hooks returns the lifecycle callbacks bound to this bridge.
func (b *Bridge) Hooks() catalog.Hooks {
	return catalog.Hooks{
		AfterCreate:  b.afterCreate,
		AfterUpdate:  b.afterUpdate,
		BeforeDelete: b.beforeDelete,
	}
}

// ─── HOOKS ───────────────────────────────────────────────────────────────────

// afterCreate creates the Stripe product and its first price, then persists
// the linkage through the system-write path so this hook never re-enters.
func (b *Bridge) afterCreate(ctx context.Context, e catalog.Entity) {
	log := b.logger.With("entity_id", e.DocumentID, "name", e.Name)

	// Should not happen: a freshly created entity carrying a linkage.
	if e.HasLinkage() {
		log.Debug("sync: entity already linked, skipping afterCreate",
			"stripe_product_id", e.StripeProductID)
		return
	}

	if err := b.createLinked(ctx, e); err != nil {
		log.Error("sync: create in Stripe failed", "error", err)
	}
}

// afterUpdate pushes non-price field changes to the Stripe product and
// rotates the price when the amount drifted.
func (b *Bridge) afterUpdate(ctx context.Context, e catalog.Entity, changed []string) {
	log := b.logger.With("entity_id", e.DocumentID, "name", e.Name)

	// Publish/unpublish toggles and linkage writes carry no sellable change.
	// The linkage filter is defense in depth: UpdateLinkage already bypasses
	// hooks entirely.
	if onlyFields(changed, "published") || onlyFields(changed, "stripeProductId", "stripePriceId") {
		return
	}

	// Never synced — defer to create semantics now.
	if !e.HasLinkage() {
		if err := b.createLinked(ctx, e); err != nil {
			log.Error("sync: late create in Stripe failed", "error", err)
		}
		return
	}

	if err := b.stripe.UpdateProduct(ctx, e.StripeProductID, b.productParams(e)); err != nil {
		log.Error("sync: update product failed", "error", err)
		return
	}

	if contains(changed, "price") && e.StripePriceID != "" {
		if err := b.rotatePrice(ctx, e); err != nil {
			log.Error("sync: price rotation failed", "error", err)
			return
		}
	}

	log.Info("sync: entity updated in Stripe", "stripe_product_id", e.StripeProductID)
}

// beforeDelete archives the Stripe product and deactivates its active price.
// Stripe never hard-deletes a product once a price has been used, so archive
// is the terminal state.
func (b *Bridge) beforeDelete(ctx context.Context, rowID int64) {
	log := b.logger.With("row_id", rowID)

	// The deletion hook only carries the serial row id.
	e, err := b.store.FindByRowID(ctx, rowID)
	if err != nil {
		log.Error("sync: lookup before delete failed", "error", err)
		return
	}
	if !e.HasLinkage() {
		return
	}

	if err := b.stripe.ArchiveProduct(ctx, e.StripeProductID); err != nil {
		log.Error("sync: archive product failed", "error", err,
			"stripe_product_id", e.StripeProductID)
		return
	}
	if e.StripePriceID != "" {
		if err := b.stripe.DeactivatePrice(ctx, e.StripePriceID); err != nil {
			log.Error("sync: deactivate price failed", "error", err,
				"stripe_price_id", e.StripePriceID)
		}
	}

	log.Info("sync: entity archived in Stripe", "name", e.Name,
		"stripe_product_id", e.StripeProductID)
}

// ─── CORE OPERATIONS ─────────────────────────────────────────────────────────

// createLinked creates product + price and persists the linkage.
func (b *Bridge) createLinked(ctx context.Context, e catalog.Entity) error {
	prod, err := b.stripe.CreateProduct(ctx, b.productParams(e))
	if err != nil {
		return err
	}

	pr, err := b.stripe.CreatePrice(ctx, stripeinternal.PriceParams{
		ProductID:  prod.ID,
		UnitAmount: MinorUnits(e.Price),
		Currency:   "eur",
		Metadata:   map[string]string{MetadataDocumentID: e.DocumentID.String()},
	})
	if err != nil {
		return err
	}

	if err := b.store.UpdateLinkage(ctx, e.DocumentID, catalog.Linkage{
		StripeProductID: prod.ID,
		StripePriceID:   pr.ID,
	}); err != nil {
		return err
	}

	b.logger.Info("sync: entity created in Stripe",
		"entity_id", e.DocumentID,
		"name", e.Name,
		"stripe_product_id", prod.ID,
		"stripe_price_id", pr.ID,
	)
	return nil
}

// rotatePrice compares the stored Stripe amount against the catalog amount in
// integer minor units. On drift it deactivates the old price, creates a new
// one, and persists the new id. Stripe prices are immutable — an amount is
// never edited in place, and at most one price stays active.
func (b *Bridge) rotatePrice(ctx context.Context, e catalog.Entity) error {
	existing, err := b.stripe.GetPrice(ctx, e.StripePriceID)
	if err != nil {
		return err
	}

	newAmount := MinorUnits(e.Price)
	if existing.UnitAmount == newAmount {
		return nil
	}

	if err := b.stripe.DeactivatePrice(ctx, e.StripePriceID); err != nil {
		return err
	}

	newPrice, err := b.stripe.CreatePrice(ctx, stripeinternal.PriceParams{
		ProductID:  e.StripeProductID,
		UnitAmount: newAmount,
		Currency:   "eur",
		Metadata:   map[string]string{MetadataDocumentID: e.DocumentID.String()},
	})
	if err != nil {
		return err
	}

	if err := b.store.UpdateLinkage(ctx, e.DocumentID, catalog.Linkage{
		StripeProductID: e.StripeProductID,
		StripePriceID:   newPrice.ID,
	}); err != nil {
		return err
	}

	b.logger.Info("sync: price rotated",
		"entity_id", e.DocumentID,
		"old_price_id", e.StripePriceID,
		"new_price_id", newPrice.ID,
		"amount", newAmount,
	)
	return nil
}

// productParams maps an entity to Stripe product fields. Engravings carry the
// marker prefix in their Stripe name.
func (b *Bridge) productParams(e catalog.Entity) stripeinternal.ProductParams {
	name := e.Name
	if e.Kind == catalog.KindEngraving {
		name = engravingPrefix + e.Name
	}
	return stripeinternal.ProductParams{
		Name:        name,
		Description: catalog.PlainDescription(e.Description, descriptionLimit),
		ImageURL:    e.ImageURL,
		Metadata: map[string]string{
			MetadataDocumentID: e.DocumentID.String(),
			"catalogSlug":      e.Slug,
		},
	}
}

// ─── HELPERS ─────────────────────────────────────────────────────────────────

// MinorUnits converts a decimal EUR amount into integer cents. All price
// comparisons use this to avoid floating point drift.
func MinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func contains(fields []string, name string) bool {
	for _, f := range fields {
		if f == name {
			return true
		}
	}
	return false
}

// onlyFields reports whether every changed field is in the allowed set.
func onlyFields(changed []string, allowed ...string) bool {
	if len(changed) == 0 {
		return false
	}
	for _, f := range changed {
		if !contains(allowed, f) {
			return false
		}
	}
	return true
}
