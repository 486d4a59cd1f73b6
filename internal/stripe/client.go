// Package stripe defines the interface for all Stripe API calls and webhook
// verification. The concrete implementation wraps the official stripe-go SDK;
// every other package depends on the Client interface and plain data types
// declared here, never on the SDK itself. Tests inject stubs.
package stripe

import (
	"context"
	"encoding/json"
	"time"
)

// ─── PRODUCTS & PRICES ───────────────────────────────────────────────────────

// ProductParams holds the inputs for creating or updating a Stripe product.
type ProductParams struct {
	Name        string
	Description string
	ImageURL    string            // optional
	Metadata    map[string]string // carries the catalog document id and slug
}

// Product is the subset of a Stripe product that callers need.
type Product struct {
	ID       string
	Name     string
	Active   bool
	Metadata map[string]string
}

// PriceParams holds the inputs for creating a price. Stripe prices are
// immutable: an amount change means a new price, never an update.
type PriceParams struct {
	ProductID  string
	UnitAmount int64 // minor units (cents)
	Currency   string
	Metadata   map[string]string
}

// Price is the subset of a Stripe price that callers need.
type Price struct {
	ID         string
	ProductID  string
	UnitAmount int64
	Currency   string
	Active     bool
}

// ─── CHECKOUT SESSIONS ───────────────────────────────────────────────────────

// InlinePrice is the fallback line-item price for entities that were never
// synced to Stripe, and for per-order customizations whose price cannot be a
// stored price.
type InlinePrice struct {
	Name        string
	Description string            // optional
	ImageURL    string            // optional
	UnitAmount  int64             // minor units
	Currency    string
	Metadata    map[string]string // attached to the inline product
}

// LineItemParams is one checkout line item: either a stored price reference
// (PriceID set) or an inline price (Inline set).
type LineItemParams struct {
	PriceID  string
	Inline   *InlinePrice
	Quantity int64
}

// SessionParams holds everything needed to create a checkout session.
type SessionParams struct {
	LineItems        []LineItemParams
	SuccessURL       string
	CancelURL        string
	Metadata         map[string]string
	AllowedCountries []string // ISO codes for shipping address collection
	ShippingRateIDs  []string
	Locale           string
	Currency         string
	ExpiresAt        time.Time
	AllowPromoCodes  bool
	CreateInvoice    bool
}

// Session is the freshly created checkout session the client is redirected to.
type Session struct {
	ID  string
	URL string
}

// ─── EXPANDED SESSION (post-payment) ─────────────────────────────────────────

// Address is a postal address from the session's shipping details.
type Address struct {
	Line1      string
	Line2      string
	City       string
	PostalCode string
	Country    string
}

// SessionLineItem is one purchased line with its price→product expanded.
type SessionLineItem struct {
	Description     string
	Quantity        int64
	AmountTotal     int64 // minor units, quantity included
	PriceID         string
	ProductName     string
	ProductMetadata map[string]string
}

// SessionDetail is the full post-payment view of a session, re-fetched with
// line items, products, and shipping expanded. The webhook payload itself is
// intentionally thin; order reconstruction works from this.
type SessionDetail struct {
	ID             string
	Metadata       map[string]string
	CustomerEmail  string
	CustomerName   string
	AmountSubtotal int64 // minor units
	AmountShipping int64
	AmountTotal    int64
	Currency       string
	ShippingTo     *Address
	InvoiceID      string // empty when no invoice was generated
	LineItems      []SessionLineItem
}

// ─── SHIPPING RATES ──────────────────────────────────────────────────────────

// DeliveryEstimate is a min/max delivery window in days.
type DeliveryEstimate struct {
	MinDays int64
	MaxDays int64
}

// ShippingRate is an active Stripe shipping rate.
type ShippingRate struct {
	ID          string
	DisplayName string
	Amount      int64 // minor units
	Currency    string
	Estimate    *DeliveryEstimate
	Metadata    map[string]string // may carry "zone" and "free_shipping_threshold"
}

// ─── WEBHOOK EVENTS ──────────────────────────────────────────────────────────

// Event is a parsed, signature-verified Stripe webhook event. DataRaw contains
// the raw JSON of the event's data.object so handlers can unmarshal only what
// they need.
type Event struct {
	ID      string
	Type    string
	DataRaw json.RawMessage
}

// ─── CLIENT INTERFACE ─────────────────────────────────────────────────────────

// Client is the interface the sync bridge, checkout builder, and webhook
// processor use for all Stripe calls.
type Client interface {
	// CreateProduct creates a product. Used by the catalog sync bridge.
	CreateProduct(ctx context.Context, p ProductParams) (Product, error)

	// UpdateProduct pushes name/description/image changes to an existing
	// product.
	UpdateProduct(ctx context.Context, id string, p ProductParams) error

	// ArchiveProduct soft-deletes a product (active=false). Stripe does not
	// support hard deletion once a price has been used.
	ArchiveProduct(ctx context.Context, id string) error

	// CreatePrice creates a new immutable price for a product.
	CreatePrice(ctx context.Context, p PriceParams) (Price, error)

	// GetPrice retrieves a price, primarily to compare its stored minor-unit
	// amount against the catalog's current one.
	GetPrice(ctx context.Context, id string) (Price, error)

	// DeactivatePrice archives a price (active=false).
	DeactivatePrice(ctx context.Context, id string) error

	// CreateCheckoutSession creates a hosted checkout session.
	CreateCheckoutSession(ctx context.Context, p SessionParams) (Session, error)

	// GetCheckoutSession re-fetches a session with line_items.data.price.product
	// and invoice expanded.
	GetCheckoutSession(ctx context.Context, id string) (SessionDetail, error)

	// ListShippingRates returns all currently active shipping rates.
	ListShippingRates(ctx context.Context) ([]ShippingRate, error)

	// GetInvoicePDFURL returns the PDF URL of a finalized invoice, or "" if
	// the invoice has no PDF yet.
	GetInvoicePDFURL(ctx context.Context, invoiceID string) (string, error)

	// VerifyWebhook validates the Stripe-Signature header against the raw
	// request body and returns the parsed event. Returns an error if the
	// signature is invalid or expired.
	VerifyWebhook(payload []byte, sigHeader string, secret string) (Event, error)
}
