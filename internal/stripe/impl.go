package stripe

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/invoice"
	"github.com/stripe/stripe-go/v82/price"
	"github.com/stripe/stripe-go/v82/product"
	"github.com/stripe/stripe-go/v82/shippingrate"
	"github.com/stripe/stripe-go/v82/webhook"
)

// stripeClient is the concrete implementation of Client backed by the
// official stripe-go SDK. Construct it with NewClient.
type stripeClient struct {
	secretKey string
}

// NewClient returns a Client backed by the Stripe SDK.
// secretKey is your STRIPE_SECRET_KEY env var.
func NewClient(secretKey string) Client {
	return &stripeClient{secretKey: secretKey}
}

// ─── PRODUCTS ────────────────────────────────────────────────────────────────

func (c *stripeClient) CreateProduct(ctx context.Context, p ProductParams) (Product, error) {
	stripe.Key = c.secretKey

	params := &stripe.ProductParams{
		Name: stripe.String(p.Name),
	}
	params.Context = ctx
	if p.Description != "" {
		params.Description = stripe.String(p.Description)
	}
	if p.ImageURL != "" {
		params.Images = stripe.StringSlice([]string{p.ImageURL})
	}
	for k, v := range p.Metadata {
		params.AddMetadata(k, v)
	}

	prod, err := product.New(params)
	if err != nil {
		return Product{}, fmt.Errorf("stripe: create product: %w", err)
	}
	return toProduct(prod), nil
}

func (c *stripeClient) UpdateProduct(ctx context.Context, id string, p ProductParams) error {
	stripe.Key = c.secretKey

	params := &stripe.ProductParams{
		Name: stripe.String(p.Name),
	}
	params.Context = ctx
	if p.Description != "" {
		params.Description = stripe.String(p.Description)
	}
	if p.ImageURL != "" {
		params.Images = stripe.StringSlice([]string{p.ImageURL})
	}
	for k, v := range p.Metadata {
		params.AddMetadata(k, v)
	}

	if _, err := product.Update(id, params); err != nil {
		return fmt.Errorf("stripe: update product %s: %w", id, err)
	}
	return nil
}

func (c *stripeClient) ArchiveProduct(ctx context.Context, id string) error {
	stripe.Key = c.secretKey

	params := &stripe.ProductParams{
		Active: stripe.Bool(false),
	}
	params.Context = ctx

	if _, err := product.Update(id, params); err != nil {
		return fmt.Errorf("stripe: archive product %s: %w", id, err)
	}
	return nil
}

func toProduct(p *stripe.Product) Product {
	return Product{
		ID:       p.ID,
		Name:     p.Name,
		Active:   p.Active,
		Metadata: p.Metadata,
	}
}

// ─── PRICES ──────────────────────────────────────────────────────────────────

func (c *stripeClient) CreatePrice(ctx context.Context, p PriceParams) (Price, error) {
	stripe.Key = c.secretKey

	params := &stripe.PriceParams{
		Product:    stripe.String(p.ProductID),
		UnitAmount: stripe.Int64(p.UnitAmount),
		Currency:   stripe.String(p.Currency),
	}
	params.Context = ctx
	for k, v := range p.Metadata {
		params.AddMetadata(k, v)
	}

	pr, err := price.New(params)
	if err != nil {
		return Price{}, fmt.Errorf("stripe: create price: %w", err)
	}
	return toPrice(pr), nil
}

func (c *stripeClient) GetPrice(ctx context.Context, id string) (Price, error) {
	stripe.Key = c.secretKey

	params := &stripe.PriceParams{}
	params.Context = ctx

	pr, err := price.Get(id, params)
	if err != nil {
		return Price{}, fmt.Errorf("stripe: get price %s: %w", id, err)
	}
	return toPrice(pr), nil
}

func (c *stripeClient) DeactivatePrice(ctx context.Context, id string) error {
	stripe.Key = c.secretKey

	params := &stripe.PriceParams{
		Active: stripe.Bool(false),
	}
	params.Context = ctx

	if _, err := price.Update(id, params); err != nil {
		return fmt.Errorf("stripe: deactivate price %s: %w", id, err)
	}
	return nil
}

func toPrice(p *stripe.Price) Price {
	out := Price{
		ID:         p.ID,
		UnitAmount: p.UnitAmount,
		Currency:   string(p.Currency),
		Active:     p.Active,
	}
	if p.Product != nil {
		out.ProductID = p.Product.ID
	}
	return out
}

// ─── CHECKOUT SESSIONS ───────────────────────────────────────────────────────

func (c *stripeClient) CreateCheckoutSession(ctx context.Context, p SessionParams) (Session, error) {
	stripe.Key = c.secretKey

	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(p.LineItems))
	for _, li := range p.LineItems {
		item := &stripe.CheckoutSessionLineItemParams{
			Quantity: stripe.Int64(li.Quantity),
		}
		if li.PriceID != "" {
			item.Price = stripe.String(li.PriceID)
		} else if li.Inline != nil {
			productData := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
				Name:     stripe.String(li.Inline.Name),
				Metadata: li.Inline.Metadata,
			}
			if li.Inline.Description != "" {
				productData.Description = stripe.String(li.Inline.Description)
			}
			if li.Inline.ImageURL != "" {
				productData.Images = stripe.StringSlice([]string{li.Inline.ImageURL})
			}
			item.PriceData = &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(li.Inline.Currency),
				UnitAmount:  stripe.Int64(li.Inline.UnitAmount),
				ProductData: productData,
			}
		}
		lineItems = append(lineItems, item)
	}

	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems:          lineItems,
		SuccessURL:         stripe.String(p.SuccessURL),
		CancelURL:          stripe.String(p.CancelURL),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		BillingAddressCollection: stripe.String(
			string(stripe.CheckoutSessionBillingAddressCollectionRequired)),
		Locale:    stripe.String(p.Locale),
		Currency:  stripe.String(p.Currency),
		ExpiresAt: stripe.Int64(p.ExpiresAt.Unix()),
	}
	params.Context = ctx
	for k, v := range p.Metadata {
		params.AddMetadata(k, v)
	}
	if len(p.AllowedCountries) > 0 {
		params.ShippingAddressCollection = &stripe.CheckoutSessionShippingAddressCollectionParams{
			AllowedCountries: stripe.StringSlice(p.AllowedCountries),
		}
	}
	for _, rateID := range p.ShippingRateIDs {
		params.ShippingOptions = append(params.ShippingOptions,
			&stripe.CheckoutSessionShippingOptionParams{
				ShippingRate: stripe.String(rateID),
			})
	}
	if p.AllowPromoCodes {
		params.AllowPromotionCodes = stripe.Bool(true)
	}
	if p.CreateInvoice {
		params.InvoiceCreation = &stripe.CheckoutSessionInvoiceCreationParams{
			Enabled: stripe.Bool(true),
		}
	}

	sess, err := session.New(params)
	if err != nil {
		return Session{}, fmt.Errorf("stripe: create checkout session: %w", err)
	}
	return Session{ID: sess.ID, URL: sess.URL}, nil
}

// GetCheckoutSession re-fetches the full session. The webhook payload is
// intentionally thin: line items and their products only come back through
// an expanded retrieve.
func (c *stripeClient) GetCheckoutSession(ctx context.Context, id string) (SessionDetail, error) {
	stripe.Key = c.secretKey

	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	params.AddExpand("line_items.data.price.product")
	params.AddExpand("invoice")

	sess, err := session.Get(id, params)
	if err != nil {
		return SessionDetail{}, fmt.Errorf("stripe: get checkout session %s: %w", id, err)
	}

	detail := SessionDetail{
		ID:             sess.ID,
		Metadata:       sess.Metadata,
		AmountSubtotal: sess.AmountSubtotal,
		AmountTotal:    sess.AmountTotal,
		Currency:       string(sess.Currency),
	}
	if sess.CustomerDetails != nil {
		detail.CustomerEmail = sess.CustomerDetails.Email
		detail.CustomerName = sess.CustomerDetails.Name
	}
	if sess.ShippingCost != nil {
		detail.AmountShipping = sess.ShippingCost.AmountTotal
	}
	detail.ShippingTo = shippingAddress(sess)
	if sess.Invoice != nil {
		detail.InvoiceID = sess.Invoice.ID
	}
	if sess.LineItems != nil {
		for _, li := range sess.LineItems.Data {
			item := SessionLineItem{
				Description: li.Description,
				Quantity:    li.Quantity,
				AmountTotal: li.AmountTotal,
			}
			if li.Price != nil {
				item.PriceID = li.Price.ID
				if li.Price.Product != nil {
					item.ProductName = li.Price.Product.Name
					item.ProductMetadata = li.Price.Product.Metadata
				}
			}
			detail.LineItems = append(detail.LineItems, item)
		}
	}
	return detail, nil
}

// shippingAddress prefers the collected shipping details and falls back to
// the billing address from customer details when the session collected none.
func shippingAddress(sess *stripe.CheckoutSession) *Address {
	var addr *stripe.Address
	if sess.CollectedInformation != nil && sess.CollectedInformation.ShippingDetails != nil {
		addr = sess.CollectedInformation.ShippingDetails.Address
	}
	if addr == nil && sess.CustomerDetails != nil {
		addr = sess.CustomerDetails.Address
	}
	if addr == nil {
		return nil
	}
	return &Address{
		Line1:      addr.Line1,
		Line2:      addr.Line2,
		City:       addr.City,
		PostalCode: addr.PostalCode,
		Country:    addr.Country,
	}
}

// ─── SHIPPING RATES ──────────────────────────────────────────────────────────

func (c *stripeClient) ListShippingRates(ctx context.Context) ([]ShippingRate, error) {
	stripe.Key = c.secretKey

	params := &stripe.ShippingRateListParams{
		Active: stripe.Bool(true),
	}
	params.Context = ctx
	params.Limit = stripe.Int64(100)

	var rates []ShippingRate
	it := shippingrate.List(params)
	for it.Next() {
		r := it.ShippingRate()
		rate := ShippingRate{
			ID:          r.ID,
			DisplayName: r.DisplayName,
			Metadata:    r.Metadata,
		}
		if r.FixedAmount != nil {
			rate.Amount = r.FixedAmount.Amount
			rate.Currency = string(r.FixedAmount.Currency)
		}
		if r.DeliveryEstimate != nil {
			est := &DeliveryEstimate{}
			if r.DeliveryEstimate.Minimum != nil {
				est.MinDays = r.DeliveryEstimate.Minimum.Value
			}
			if r.DeliveryEstimate.Maximum != nil {
				est.MaxDays = r.DeliveryEstimate.Maximum.Value
			}
			rate.Estimate = est
		}
		rates = append(rates, rate)
	}
	if err := it.Err(); err != nil {
		return nil, fmt.Errorf("stripe: list shipping rates: %w", err)
	}
	return rates, nil
}

// ─── INVOICES ────────────────────────────────────────────────────────────────

func (c *stripeClient) GetInvoicePDFURL(ctx context.Context, invoiceID string) (string, error) {
	stripe.Key = c.secretKey

	params := &stripe.InvoiceParams{}
	params.Context = ctx

	inv, err := invoice.Get(invoiceID, params)
	if err != nil {
		return "", fmt.Errorf("stripe: get invoice %s: %w", invoiceID, err)
	}
	return inv.InvoicePDF, nil
}

// ─── WEBHOOKS ────────────────────────────────────────────────────────────────

// VerifyWebhook validates the Stripe-Signature header and returns the parsed
// event. Returns an error if the signature is invalid or the tolerance window
// (300 seconds by default in the Stripe SDK) has expired.
func (c *stripeClient) VerifyWebhook(payload []byte, sigHeader string, secret string) (Event, error) {
	stripeEvent, err := webhook.ConstructEvent(payload, sigHeader, secret)
	if err != nil {
		return Event{}, fmt.Errorf("stripe: webhook verification failed: %w", err)
	}

	return Event{
		ID:      stripeEvent.ID,
		Type:    string(stripeEvent.Type),
		DataRaw: stripeEvent.Data.Raw,
	}, nil
}

// ExtractSessionID pulls the checkout session id from the event's
// data.object. Works for checkout.session.* events.
func ExtractSessionID(event Event) (string, error) {
	var obj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(event.DataRaw, &obj); err != nil {
		return "", fmt.Errorf("stripe: unmarshal session id: %w", err)
	}
	if obj.ID == "" {
		return "", fmt.Errorf("stripe: session id is empty in event %s", event.ID)
	}
	return obj.ID, nil
}
