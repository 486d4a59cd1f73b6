// Package checkout transforms a revalidated cart into a Stripe checkout
// session: line items in cart order, customization sideband metadata,
// shipping options, and session policy.
package checkout

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/KylianTITREN/e-kom-backend/internal/cart"
	"github.com/KylianTITREN/e-kom-backend/internal/catalog"
	stripeinternal "github.com/KylianTITREN/e-kom-backend/internal/stripe"
	"github.com/KylianTITREN/e-kom-backend/internal/sync"
)

// ─── SESSION POLICY ──────────────────────────────────────────────────────────

const (
	// Currency and Locale are fixed — the shop sells in EUR to a French
	// storefront.
	Currency = "eur"
	Locale   = "fr"

	// sessionTTL is the absolute checkout expiry, computed at build time.
	sessionTTL = 30 * time.Minute

	// EngravingPrefix marks customization line items in Stripe product names.
	// The webhook processor matches on it during reconstruction.
	EngravingPrefix = "[Gravure] "
)

// defaultCountries is the shipping allow-list used when no active shipping
// rate carries a zone tag.
var defaultCountries = []string{"FR", "BE", "CH", "LU", "MC"}

// zoneCountries expands a shipping rate's "zone" metadata tag to a fixed ISO
// country allow-list.
var zoneCountries = map[string][]string{
	"france": {"FR", "MC"},
	"europe": {"FR", "BE", "DE", "IT", "ES", "PT", "NL", "LU", "AT", "IE", "MC", "CH"},
}

// ─── BUILDER ─────────────────────────────────────────────────────────────────

// Builder assembles and creates checkout sessions.
type Builder struct {
	stripe   stripeinternal.Client
	frontURL string
	logger   *slog.Logger

	// now is swapped in tests to pin the session expiry.
	now func() time.Time
}

// NewBuilder constructs a Builder. frontURL is the storefront base URL the
// customer is redirected back to.
func NewBuilder(client stripeinternal.Client, frontURL string, logger *slog.Logger) *Builder {
	return &Builder{
		stripe:   client,
		frontURL: frontURL,
		logger:   logger,
		now:      time.Now,
	}
}

// Build creates a Stripe checkout session from an accepted cart. entities is
// the id→entity map produced by revalidation; every item and addon id in
// items must resolve through it.
//
// Any Stripe failure is returned to the caller — the client must learn that
// checkout failed.
func (b *Builder) Build(ctx context.Context, items []cart.Item, entities map[string]catalog.Entity) (stripeinternal.Session, error) {
	lineItems, metas := b.buildLineItems(items, entities)

	rateIDs, countries, err := b.resolveShipping(ctx)
	if err != nil {
		return stripeinternal.Session{}, fmt.Errorf("checkout: resolve shipping: %w", err)
	}

	metadata := map[string]string{
		"source":      "e-kom-front",
		"timestamp":   b.now().UTC().Format(time.RFC3339),
		"items_count": strconv.Itoa(len(items)),
	}
	if len(metas) > 0 {
		EncodeCustomizations(metadata, metas)
	}

	session, err := b.stripe.CreateCheckoutSession(ctx, stripeinternal.SessionParams{
		LineItems:        lineItems,
		SuccessURL:       b.frontURL + "/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:        b.frontURL + "/cancel",
		Metadata:         metadata,
		AllowedCountries: countries,
		ShippingRateIDs:  rateIDs,
		Locale:           Locale,
		Currency:         Currency,
		ExpiresAt:        b.now().Add(sessionTTL),
		AllowPromoCodes:  true,
		CreateInvoice:    true,
	})
	if err != nil {
		return stripeinternal.Session{}, fmt.Errorf("checkout: create session: %w", err)
	}

	b.logger.Info("checkout: session created",
		"session_id", session.ID,
		"line_items", len(lineItems),
		"customizations", len(metas),
	)
	return session, nil
}

// ─── LINE ITEMS ──────────────────────────────────────────────────────────────

// buildLineItems emits line items in cart order, each customization
// immediately following its parent item. It returns the sideband entries for
// the session metadata alongside.
func (b *Builder) buildLineItems(items []cart.Item, entities map[string]catalog.Entity) ([]stripeinternal.LineItemParams, []CustomizationMeta) {
	var (
		lineItems []stripeinternal.LineItemParams
		metas     []CustomizationMeta
	)

	for _, item := range items {
		entity := entities[item.ID]

		if entity.StripePriceID != "" {
			// Preferred path: reference the synced price so the completed
			// session points at Stripe's own product record.
			lineItems = append(lineItems, stripeinternal.LineItemParams{
				PriceID:  entity.StripePriceID,
				Quantity: item.Quantity,
			})
		} else {
			// Entity never synced — fall back to an inline price.
			b.logger.Warn("checkout: no Stripe price for entity, using inline price",
				"entity_id", item.ID, "name", entity.Name)
			lineItems = append(lineItems, stripeinternal.LineItemParams{
				Inline: &stripeinternal.InlinePrice{
					Name:        entity.Name,
					Description: item.Description,
					ImageURL:    item.ImageURL,
					UnitAmount:  sync.MinorUnits(entity.Price),
					Currency:    Currency,
				},
				Quantity: item.Quantity,
			})
		}

		if c := item.Customization; c != nil {
			addon := entities[c.AddonID]
			lineItems = append(lineItems, b.customizationLineItem(entity, addon, c))
			metas = append(metas, CustomizationMeta{
				TargetName: entity.Name,
				Text:       c.Text,
				LogoURL:    c.LogoURL,
			})
		}
	}

	return lineItems, metas
}

// customizationLineItem is always inline-priced: the engraving text and logo
// vary per order, so a stored price id cannot represent it. The free text and
// logo URL also ride on the inline product's metadata — the primary channel;
// the session sideband is the recovery path.
func (b *Builder) customizationLineItem(parent, addon catalog.Entity, c *cart.Customization) stripeinternal.LineItemParams {
	metadata := map[string]string{
		"Produit": parent.Name,
	}
	if c.Text != "" {
		metadata["Texte"] = c.Text
	}
	if c.LogoURL != "" {
		metadata["Logo"] = c.LogoURL
	}

	return stripeinternal.LineItemParams{
		Inline: &stripeinternal.InlinePrice{
			Name:       EngravingPrefix + addon.Name,
			UnitAmount: sync.MinorUnits(addon.Price),
			Currency:   Currency,
			Metadata:   metadata,
		},
		Quantity: 1,
	}
}

// ─── SHIPPING ────────────────────────────────────────────────────────────────

// resolveShipping queries active shipping rates and derives the country
// allow-list. Rates tagged with a zone expand it to a fixed ISO list; the
// union of all tagged zones applies. Without any tag the hard-coded default
// set is used.
func (b *Builder) resolveShipping(ctx context.Context) (rateIDs, countries []string, err error) {
	rates, err := b.stripe.ListShippingRates(ctx)
	if err != nil {
		return nil, nil, err
	}

	seen := make(map[string]bool)
	for _, rate := range rates {
		rateIDs = append(rateIDs, rate.ID)
		if zone, ok := zoneCountries[rate.Metadata["zone"]]; ok {
			for _, c := range zone {
				if !seen[c] {
					seen[c] = true
					countries = append(countries, c)
				}
			}
		}
	}

	if len(countries) == 0 {
		countries = defaultCountries
	}
	return rateIDs, countries, nil
}
