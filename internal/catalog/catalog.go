// Package catalog defines the content-store boundary: the sellable entities
// (products and engraving options), the query/update interface the rest of the
// application consumes, and the lifecycle hooks the Stripe sync bridge
// subscribes to.
//
// Dependency rule: catalog imports nothing from api, sync, checkout, or
// stripe. The sync bridge depends on catalog, never the other way around.
package catalog

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
)

// ─── ENTITY ──────────────────────────────────────────────────────────────────

// Kind distinguishes the two sellable entity types.
type Kind string

const (
	KindProduct   Kind = "product"
	KindEngraving Kind = "engraving"
)

// Entity is a sellable catalog item. Products and engraving options share the
// same shape; Kind tells them apart.
//
// RowID is the serial primary key. The delete lifecycle hook only has access
// to it — document-level lookups use DocumentID.
type Entity struct {
	RowID      int64
	DocumentID uuid.UUID
	Kind       Kind
	Name       string
	// Description holds rich-text blocks as stored by the CMS editor.
	// Use PlainDescription to flatten it for Stripe.
	Description json.RawMessage
	Price       float64 // EUR, decimal units
	ImageURL    string
	Slug        string
	Published   bool

	// Stripe linkage. Owned exclusively by the sync bridge — written only
	// through Store.UpdateLinkage, never by a client request.
	StripeProductID string
	StripePriceID   string
}

// HasLinkage reports whether the entity has been synced to Stripe at least
// once.
func (e Entity) HasLinkage() bool {
	return e.StripeProductID != ""
}

// Linkage is the pair of Stripe identifiers attached to an entity.
type Linkage struct {
	StripeProductID string
	StripePriceID   string
}

// ─── PATCH ───────────────────────────────────────────────────────────────────

// Patch is a partial update. Nil fields are untouched; the set of non-nil
// fields is the changed-field diff handed to the AfterUpdate hook.
type Patch struct {
	Name        *string
	Description *json.RawMessage
	Price       *float64
	ImageURL    *string
	Slug        *string
	Published   *bool
}

// Fields returns the names of the fields the patch touches, in a fixed order.
func (p Patch) Fields() []string {
	var fields []string
	if p.Name != nil {
		fields = append(fields, "name")
	}
	if p.Description != nil {
		fields = append(fields, "description")
	}
	if p.Price != nil {
		fields = append(fields, "price")
	}
	if p.ImageURL != nil {
		fields = append(fields, "imageUrl")
	}
	if p.Slug != nil {
		fields = append(fields, "slug")
	}
	if p.Published != nil {
		fields = append(fields, "published")
	}
	return fields
}

// ─── FILTER ──────────────────────────────────────────────────────────────────

// Filter narrows FindMany. Zero values are ignored.
type Filter struct {
	Kind          Kind
	PublishedOnly bool
}

// ─── HOOKS ───────────────────────────────────────────────────────────────────

// Hooks are the lifecycle callbacks dispatched by a Store around entity
// writes. Nil callbacks are skipped.
//
// Hooks return nothing: a hook can never abort or fail the storage write it
// is attached to. Any provider call made inside a hook must swallow its own
// errors.
//
// Writes made through UpdateLinkage do NOT dispatch AfterUpdate — that method
// is the explicit system-write path the sync bridge uses to persist Stripe
// ids without re-triggering itself.
type Hooks struct {
	// AfterCreate fires after a new entity row is committed.
	AfterCreate func(ctx context.Context, e Entity)

	// AfterUpdate fires after an entity update is committed. changed lists
	// the field names the patch touched.
	AfterUpdate func(ctx context.Context, e Entity, changed []string)

	// BeforeDelete fires before the row is removed. Only the serial row id
	// is available at this point.
	BeforeDelete func(ctx context.Context, rowID int64)
}

// ─── STORE ───────────────────────────────────────────────────────────────────

// ErrNotFound is returned by lookups when no entity matches.
var ErrNotFound = errors.New("catalog: entity not found")

// Store is the query/update interface over the content store.
type Store interface {
	FindByID(ctx context.Context, id uuid.UUID) (Entity, error)
	FindByRowID(ctx context.Context, rowID int64) (Entity, error)
	FindMany(ctx context.Context, f Filter) ([]Entity, error)

	// Create inserts the entity and dispatches AfterCreate.
	Create(ctx context.Context, e Entity) (Entity, error)

	// Update applies the patch and dispatches AfterUpdate with the diff.
	Update(ctx context.Context, id uuid.UUID, p Patch) (Entity, error)

	// UpdateLinkage writes both Stripe ids atomically WITHOUT dispatching any
	// hook. This is the system-write marker: the sync bridge persists linkage
	// through here so its own hooks never re-enter.
	UpdateLinkage(ctx context.Context, id uuid.UUID, l Linkage) error

	// Delete dispatches BeforeDelete with the row id, then removes the row.
	Delete(ctx context.Context, id uuid.UUID) error

	// Subscribe registers the lifecycle hooks. Call once at startup, before
	// any write traffic.
	Subscribe(h Hooks)
}
