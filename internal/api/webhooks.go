package api

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	stripeinternal "github.com/KylianTITREN/e-kom-backend/internal/stripe"
)

// ─── POST /api/webhooks/stripe ────────────────────────────────────────────────

// handleStripeWebhook is the entry point for all Stripe webhook deliveries.
//
// Stripe delivers events at-least-once and retries on non-2xx responses. Once
// the signature checks out, this handler always acknowledges with 200 — even
// when reconstruction or the confirmation email fails. A retry would only
// risk a duplicate customer email, which is worse than an occasional missed
// one. There is no persistent dedup store; a redelivered event reprocesses
// from Stripe-side data and at worst re-sends the confirmation.
//
// The only event acted on is checkout.session.completed. Everything else is
// acknowledged immediately and dropped.
func (s *Server) handleStripeWebhook(w http.ResponseWriter, r *http.Request) {
	// ── 1. Read the raw body ──────────────────────────────────────────────────
	// The signature check must run against the exact bytes Stripe signed, so
	// the body is read here before anything else touches it.
	r.Body = http.MaxBytesReader(w, r.Body, 65536) // 64 KB — generous for any Stripe event
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		respondErr(w, http.StatusBadRequest, "could not read request body")
		return
	}

	// ── 2. Verify the Stripe-Signature header ─────────────────────────────────
	sig := r.Header.Get("Stripe-Signature")
	event, err := s.stripe.VerifyWebhook(payload, sig, s.cfg.StripeWebhookSecret)
	if err != nil {
		s.logger.Warn("webhook: invalid signature",
			"error", err,
			"request_id", middleware.GetReqID(r.Context()),
		)
		respondErr(w, http.StatusBadRequest, "invalid webhook signature")
		return
	}

	// ── 3. Filter by event type ───────────────────────────────────────────────
	if event.Type != "checkout.session.completed" {
		s.logger.Debug("webhook: ignoring event type", "type", event.Type)
		respond(w, http.StatusOK, map[string]bool{"received": true})
		return
	}

	// ── 4. Reconstruct and notify ─────────────────────────────────────────────
	// Failures past this point are logged, not surfaced: the acknowledgment
	// contract with Stripe takes priority over perfect delivery.
	s.processCompletedSession(r, event)

	respond(w, http.StatusOK, map[string]bool{"received": true})
}

// processCompletedSession re-fetches the completed session, rebuilds the
// order from provider-side data, and dispatches the confirmation email.
func (s *Server) processCompletedSession(r *http.Request, event stripeinternal.Event) {
	log := s.logger.With(
		"event_id", event.ID,
		"request_id", middleware.GetReqID(r.Context()),
	)

	sessionID, err := stripeinternal.ExtractSessionID(event)
	if err != nil {
		log.Error("webhook: extract session id failed", "error", err)
		return
	}
	log = log.With("session_id", sessionID)

	conf, err := s.reconstructor.Reconstruct(r.Context(), sessionID)
	if err != nil {
		log.Error("webhook: order reconstruction failed", "error", err)
		return
	}

	if err := s.mailer.SendOrderConfirmation(r.Context(), conf); err != nil {
		log.Error("webhook: confirmation email failed",
			"order_number", conf.OrderNumber, "error", err)
		return
	}

	log.Info("webhook: order confirmed",
		"order_number", conf.OrderNumber,
		"customer", conf.CustomerEmail,
		"total", conf.Total,
	)
}
