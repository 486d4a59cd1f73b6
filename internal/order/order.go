// Package order reconstructs human-readable order details from a completed
// Stripe checkout session. The original cart is untrusted and long gone by
// the time payment completes — everything here comes from provider-side data.
package order

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/KylianTITREN/e-kom-backend/internal/checkout"
	stripeinternal "github.com/KylianTITREN/e-kom-backend/internal/stripe"
)

// ─── TYPES ───────────────────────────────────────────────────────────────────

// Line is one ordered item as shown in the confirmation email.
type Line struct {
	Name     string
	Quantity int64
	// UnitPrice is in decimal EUR, derived from the line's charged total so
	// it always matches what the customer paid.
	UnitPrice float64
	// Info carries the engraving details for customization lines, e.g.
	// `Texte: "Joyeux anniversaire" | Logo: logo.png`. Empty otherwise.
	Info string
}

// Confirmation is the reconstructed order, ready for notification dispatch.
type Confirmation struct {
	CustomerEmail string
	CustomerName  string
	OrderNumber   string
	Items         []Line
	Subtotal      float64 // EUR
	ShippingCost  float64
	Total         float64
	ShippingTo    *stripeinternal.Address
	InvoiceURL    string // empty when no invoice PDF is available
}

// ─── RECONSTRUCTOR ───────────────────────────────────────────────────────────

// Reconstructor turns completed session ids into Confirmations.
type Reconstructor struct {
	stripe stripeinternal.Client
	logger *slog.Logger

	// now is swapped in tests to pin the order number date.
	now func() time.Time
}

// NewReconstructor constructs a Reconstructor.
func NewReconstructor(client stripeinternal.Client, logger *slog.Logger) *Reconstructor {
	return &Reconstructor{
		stripe: client,
		logger: logger,
		now:    time.Now,
	}
}

// Reconstruct re-fetches the full session and rebuilds the order.
//
// Totals come from the session's own amount fields, never recomputed from
// line items — recomputation can drift by a cent from what was charged.
// A missing invoice is non-fatal; a missing customer email is an error the
// caller logs (there is nobody to notify).
func (r *Reconstructor) Reconstruct(ctx context.Context, sessionID string) (Confirmation, error) {
	detail, err := r.stripe.GetCheckoutSession(ctx, sessionID)
	if err != nil {
		return Confirmation{}, fmt.Errorf("order: fetch session: %w", err)
	}

	if detail.CustomerEmail == "" {
		return Confirmation{}, fmt.Errorf("order: session %s has no customer email", sessionID)
	}

	customerName := detail.CustomerName
	if customerName == "" {
		customerName = "Client"
	}

	conf := Confirmation{
		CustomerEmail: detail.CustomerEmail,
		CustomerName:  customerName,
		OrderNumber:   OrderNumber(r.now(), sessionID),
		Items:         r.buildLines(detail),
		Subtotal:      float64(detail.AmountSubtotal) / 100,
		ShippingCost:  float64(detail.AmountShipping) / 100,
		Total:         float64(detail.AmountTotal) / 100,
		ShippingTo:    detail.ShippingTo,
	}

	// Invoice PDF is best-effort: the invoice may not be finalized yet when
	// the completion event arrives.
	if detail.InvoiceID != "" {
		url, err := r.stripe.GetInvoicePDFURL(ctx, detail.InvoiceID)
		if err != nil {
			r.logger.Warn("order: invoice fetch failed",
				"session_id", sessionID, "invoice_id", detail.InvoiceID, "error", err)
		} else {
			conf.InvoiceURL = url
		}
	}

	return conf, nil
}

// buildLines maps session line items to confirmation lines, attaching
// engraving info strings to customization lines.
func (r *Reconstructor) buildLines(detail stripeinternal.SessionDetail) []Line {
	sideband := checkout.LookupByTarget(checkout.DecodeCustomizations(detail.Metadata))

	var (
		lines    []Line
		lastName string // product name of the most recent non-marker line
	)
	for _, li := range detail.LineItems {
		name := li.ProductName
		if name == "" {
			name = li.Description
		}
		if name == "" {
			name = "Produit"
		}

		qty := li.Quantity
		if qty < 1 {
			qty = 1
		}

		line := Line{
			Name:      name,
			Quantity:  qty,
			UnitPrice: float64(li.AmountTotal) / 100 / float64(qty),
		}

		if strings.Contains(name, strings.TrimSpace(checkout.EngravingPrefix)) {
			// Customization line. The product metadata is the primary channel;
			// the session sideband — keyed by the parent product's name, which
			// is the line immediately before this one — is the recovery path.
			line.Info = infoString(li.ProductMetadata)
			if line.Info == "" {
				if m, ok := sideband[lastName]; ok {
					line.Info = infoFromMeta(m.Text, m.LogoURL)
				}
			}
		} else {
			lastName = name
		}

		lines = append(lines, line)
	}
	return lines
}

// ─── HELPERS ─────────────────────────────────────────────────────────────────

// OrderNumber derives the human-readable order number from the order date and
// the tail of the session id, e.g. "20250114-X7K2QD". Deterministic for a
// given session and day, so a redelivered event reproduces the same number.
func OrderNumber(t time.Time, sessionID string) string {
	tail := sessionID
	if len(tail) > 6 {
		tail = tail[len(tail)-6:]
	}
	return t.Format("20060102") + "-" + strings.ToUpper(tail)
}

// infoString extracts the engraving details from inline product metadata.
func infoString(meta map[string]string) string {
	if meta == nil {
		return ""
	}
	return infoFromMeta(meta["Texte"], meta["Logo"])
}

// infoFromMeta renders the human-readable engraving info. The logo keeps only
// its filename — the full URL is internal storage detail.
func infoFromMeta(text, logoURL string) string {
	var parts []string
	if text != "" {
		// Verbatim, not %q — the engraver must see exactly what was typed.
		parts = append(parts, `Texte: "`+text+`"`)
	}
	if logoURL != "" {
		parts = append(parts, "Logo: "+logoFileName(logoURL))
	}
	return strings.Join(parts, " | ")
}

func logoFileName(url string) string {
	if idx := strings.LastIndex(url, "/"); idx >= 0 && idx < len(url)-1 {
		return url[idx+1:]
	}
	if url == "" || strings.HasSuffix(url, "/") {
		return "logo"
	}
	return url
}
