package api

import (
	"fmt"
	"net/http"

	"github.com/KylianTITREN/e-kom-backend/internal/cart"
)

// ─── POST /api/checkout ───────────────────────────────────────────────────────

type checkoutRequest struct {
	Items []cart.Item `json:"items"`
}

type checkoutResponse struct {
	// ID is the Stripe checkout session id; URL is the hosted payment page
	// the browser redirects to.
	ID  string `json:"id"`
	URL string `json:"url"`
}

type cartRejectedResponse struct {
	Error      string   `json:"error"`
	Violations []string `json:"violations"`
}

// handleCheckout revalidates the submitted cart against the catalog and, if
// nothing drifted, creates a Stripe checkout session.
//
// A stale cart — price changed, product unpublished or gone — is a 409 with
// the complete list of violations, so the storefront can show the full diff
// instead of one problem at a time. No session is ever created from a
// rejected cart.
func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if !decode(w, r, &req) {
		return
	}

	if len(req.Items) == 0 {
		respondErr(w, http.StatusBadRequest, "Le panier est vide")
		return
	}

	result, err := s.revalidator.Validate(r.Context(), req.Items)
	if err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("validate cart: %w", err))
		return
	}

	if !result.OK {
		s.logger.Info("checkout: cart rejected",
			"violations", len(result.Violations))
		respond(w, http.StatusConflict, cartRejectedResponse{
			Error:      "Le panier n'est plus valide",
			Violations: result.Violations,
		})
		return
	}

	session, err := s.builder.Build(r.Context(), req.Items, result.Entities)
	if err != nil {
		// The customer must learn that checkout failed — never swallow this.
		s.respondInternalErr(w, r, fmt.Errorf("build session: %w", err))
		return
	}

	respond(w, http.StatusOK, checkoutResponse{ID: session.ID, URL: session.URL})
}
