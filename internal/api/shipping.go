package api

import (
	"fmt"
	"net/http"
	"strconv"
)

// ─── GET /api/shipping/rates ──────────────────────────────────────────────────

type shippingRateView struct {
	ID          string  `json:"id"`
	DisplayName string  `json:"displayName"`
	// Amount is in decimal EUR, ready for display in the cart.
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`

	// FreeShippingThreshold is the cart total (EUR) above which this rate is
	// free, when configured on the rate's metadata. Null otherwise.
	FreeShippingThreshold *float64 `json:"freeShippingThreshold"`

	DeliveryEstimate *deliveryEstimateView `json:"deliveryEstimate"`
}

type deliveryEstimateView struct {
	Minimum int64 `json:"minimum"`
	Maximum int64 `json:"maximum"`
}

type shippingRatesResponse struct {
	Rates []shippingRateView `json:"rates"`
}

// handleShippingRates is a public, read-only passthrough of the active Stripe
// shipping rates, reshaped for the storefront cart.
func (s *Server) handleShippingRates(w http.ResponseWriter, r *http.Request) {
	rates, err := s.stripe.ListShippingRates(r.Context())
	if err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("list shipping rates: %w", err))
		return
	}

	views := make([]shippingRateView, 0, len(rates))
	for _, rate := range rates {
		view := shippingRateView{
			ID:          rate.ID,
			DisplayName: rate.DisplayName,
			Amount:      float64(rate.Amount) / 100,
			Currency:    rate.Currency,
		}
		if raw, ok := rate.Metadata["free_shipping_threshold"]; ok {
			if threshold, err := strconv.ParseFloat(raw, 64); err == nil {
				view.FreeShippingThreshold = &threshold
			}
		}
		if rate.Estimate != nil {
			view.DeliveryEstimate = &deliveryEstimateView{
				Minimum: rate.Estimate.MinDays,
				Maximum: rate.Estimate.MaxDays,
			}
		}
		views = append(views, view)
	}

	respond(w, http.StatusOK, shippingRatesResponse{Rates: views})
}
