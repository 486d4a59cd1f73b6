// Package cart revalidates client-submitted carts against authoritative
// catalog state. Everything a client sends — ids, names, prices, quantities —
// is untrusted and possibly stale; nothing reaches Stripe until this package
// has confirmed it.
package cart

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/KylianTITREN/e-kom-backend/internal/catalog"
)

// ─── TYPES ───────────────────────────────────────────────────────────────────

// MaxQuantity is the per-line-item cap.
const MaxQuantity = 99

// MaxCustomText bounds the free-text engraving length.
const MaxCustomText = 500

// priceTolerance absorbs currency rounding between client and server.
// Anything beyond a cent is price drift.
const priceTolerance = 0.01

// Item is one client-submitted cart line. All fields are client-asserted.
type Item struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Price         float64        `json:"price"` // EUR, decimal units
	Quantity      int64          `json:"quantity"`
	Description   string         `json:"description,omitempty"`
	ImageURL      string         `json:"image,omitempty"`
	Customization *Customization `json:"customization,omitempty"`
}

// Customization is a per-order personalization (engraving) attached to an
// item. AddonID references an engraving catalog entity whose price and
// availability are revalidated like any other item.
type Customization struct {
	AddonID string  `json:"addonId"`
	Label   string  `json:"label"`
	Price   float64 `json:"price"`
	Text    string  `json:"text,omitempty"`
	LogoURL string  `json:"logoUrl,omitempty"`
}

// Result is the outcome of revalidation. When OK is false, Violations holds
// one human-readable message per problem — the complete diff, so the client
// can show everything that went stale at once.
type Result struct {
	OK         bool
	Violations []string

	// Entities maps item/addon id → the authoritative entity, populated for
	// accepted carts so the session builder can reuse the lookups.
	Entities map[string]catalog.Entity
}

// ─── REVALIDATOR ─────────────────────────────────────────────────────────────

// Revalidator re-fetches catalog state for every cart line.
type Revalidator struct {
	store catalog.Store
}

// NewRevalidator constructs a Revalidator over the given store.
func NewRevalidator(store catalog.Store) *Revalidator {
	return &Revalidator{store: store}
}

// Validate checks every item (and every customization's addon) against the
// catalog. It collects all violations rather than failing fast; the cart is
// accepted or rejected as a unit — there is no partial checkout.
func (r *Revalidator) Validate(ctx context.Context, items []Item) (Result, error) {
	res := Result{Entities: make(map[string]catalog.Entity)}

	for _, item := range items {
		if item.Quantity < 1 || item.Quantity > MaxQuantity {
			res.Violations = append(res.Violations,
				fmt.Sprintf("Quantité invalide pour %q : %d", item.Name, item.Quantity))
		}

		r.checkEntity(ctx, &res, item.ID, item.Name, item.Price)

		if c := item.Customization; c != nil {
			if len([]rune(c.Text)) > MaxCustomText {
				res.Violations = append(res.Violations,
					fmt.Sprintf("Texte de gravure trop long pour %q", item.Name))
			}
			r.checkEntity(ctx, &res, c.AddonID, c.Label, c.Price)
		}
	}

	res.OK = len(res.Violations) == 0
	if !res.OK {
		res.Entities = nil
	}
	return res, nil
}

// checkEntity applies the three authoritative checks — exists, published,
// price within tolerance — and records the entity on success.
func (r *Revalidator) checkEntity(ctx context.Context, res *Result, id, name string, clientPrice float64) {
	docID, err := uuid.Parse(id)
	if err != nil {
		res.Violations = append(res.Violations,
			fmt.Sprintf("Produit introuvable : %q", name))
		return
	}

	entity, err := r.store.FindByID(ctx, docID)
	if err != nil {
		// Not-found and transient lookup failures both invalidate the cart;
		// the client retries either way.
		res.Violations = append(res.Violations,
			fmt.Sprintf("Produit introuvable : %q", name))
		return
	}

	if !entity.Published {
		res.Violations = append(res.Violations,
			fmt.Sprintf("Produit indisponible : %q", entity.Name))
		return
	}

	if math.Abs(entity.Price-clientPrice) > priceTolerance+1e-9 {
		res.Violations = append(res.Violations,
			fmt.Sprintf("Le prix de %q a changé : %.2f€ → %.2f€",
				entity.Name, clientPrice, entity.Price))
		return
	}

	res.Entities[id] = entity
}
