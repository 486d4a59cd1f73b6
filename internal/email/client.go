// Package email defines the interface for transactional email delivery and
// provides a Resend-backed implementation that sends the order confirmation,
// optionally attaching the Stripe invoice PDF.
package email

import (
	"context"

	"github.com/KylianTITREN/e-kom-backend/internal/order"
)

// Sender is the interface the webhook processor uses to dispatch the order
// confirmation. Tests inject a stub that records calls without hitting the
// network.
//
// Delivery is best-effort: the caller logs a failure but never retries —
// a redelivered webhook would risk a duplicate customer email, which is
// worse than an occasional missed one.
type Sender interface {
	SendOrderConfirmation(ctx context.Context, conf order.Confirmation) error
}
