// Package api implements the HTTP layer. Handlers are methods on *Server.
// Each handler file is responsible for one resource group and only imports
// the dependencies it actually uses.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/KylianTITREN/e-kom-backend/internal/cart"
	"github.com/KylianTITREN/e-kom-backend/internal/checkout"
	"github.com/KylianTITREN/e-kom-backend/internal/email"
	"github.com/KylianTITREN/e-kom-backend/internal/order"
	stripeinternal "github.com/KylianTITREN/e-kom-backend/internal/stripe"
)

// Config holds values read from environment variables at startup.
type Config struct {
	// StripeWebhookSecret is the signing secret from the Stripe dashboard.
	StripeWebhookSecret string

	// Env is "production", "staging", or "development".
	Env string
}

// Server holds all shared dependencies. Each handler file attaches methods to
// this type and uses only the fields it needs.
type Server struct {
	// revalidator confirms client-submitted carts against catalog state.
	revalidator *cart.Revalidator

	// builder turns accepted carts into Stripe checkout sessions.
	builder *checkout.Builder

	// reconstructor rebuilds order details from completed sessions.
	reconstructor *order.Reconstructor

	// stripe verifies webhook signatures and serves the shipping-rate
	// passthrough.
	stripe stripeinternal.Client

	// mailer dispatches the order confirmation email.
	mailer email.Sender

	cfg    Config
	logger *slog.Logger
}

// NewServer constructs the Server and wires the chi router. The returned
// http.Handler is ready to pass to http.ListenAndServe.
func NewServer(
	revalidator *cart.Revalidator,
	builder *checkout.Builder,
	reconstructor *order.Reconstructor,
	stripeClient stripeinternal.Client,
	mailer email.Sender,
	cfg Config,
	logger *slog.Logger,
) http.Handler {
	s := &Server{
		revalidator:   revalidator,
		builder:       builder,
		reconstructor: reconstructor,
		stripe:        stripeClient,
		mailer:        mailer,
		cfg:           cfg,
		logger:        logger,
	}

	return s.routes()
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	// ── Global middleware ─────────────────────────────────────────────────────
	// No body-parsing middleware: the webhook handler must read the raw body
	// itself for signature verification.
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggerMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(s.corsMiddleware)
	r.Use(middleware.Timeout(30 * time.Second))

	// ── Health ────────────────────────────────────────────────────────────────
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// ── API ───────────────────────────────────────────────────────────────────
	r.Route("/api", func(r chi.Router) {

		// Checkout — public; the cart is revalidated server-side.
		r.Post("/checkout", s.handleCheckout)

		// Stripe webhook — no auth (signature verification inside handler).
		r.Post("/webhooks/stripe", s.handleStripeWebhook)

		// Shipping rates — public, read-only passthrough.
		r.Get("/shipping/rates", s.handleShippingRates)
	})

	return r
}
