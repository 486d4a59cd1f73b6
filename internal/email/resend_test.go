package email

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/KylianTITREN/e-kom-backend/internal/order"
)

func testClient(endpoint string) *resendClient {
	return &resendClient{
		apiKey:     "re_test_key",
		fromAddr:   "commandes@e-kom.fr",
		fromName:   "E-Kom",
		replyTo:    "contact@e-kom.fr",
		shopName:   "E-Kom",
		endpoint:   endpoint,
		httpClient: http.DefaultClient,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func confirmation() order.Confirmation {
	return order.Confirmation{
		CustomerEmail: "lea@example.com",
		CustomerName:  "Léa Martin",
		OrderNumber:   "20250114-X7K2QD",
		Items: []order.Line{
			{Name: "Mug", Quantity: 2, UnitPrice: 10.00},
		},
		Subtotal:     20.00,
		ShippingCost: 4.90,
		Total:        24.90,
	}
}

func TestSendOrderConfirmation(t *testing.T) {
	var got resendRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth := r.Header.Get("Authorization"); auth != "Bearer re_test_key" {
			t.Errorf("Authorization = %q", auth)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]string{"id": "email_1"})
	}))
	defer ts.Close()

	c := testClient(ts.URL)
	if err := c.SendOrderConfirmation(context.Background(), confirmation()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.From != "E-Kom <commandes@e-kom.fr>" {
		t.Errorf("from = %q", got.From)
	}
	if len(got.To) != 1 || got.To[0] != "lea@example.com" {
		t.Errorf("to = %v", got.To)
	}
	if got.ReplyTo != "contact@e-kom.fr" {
		t.Errorf("reply_to = %q", got.ReplyTo)
	}
	if got.Subject != "Confirmation de commande #20250114-X7K2QD" {
		t.Errorf("subject = %q", got.Subject)
	}
	if got.HTML == "" {
		t.Error("empty html body")
	}
	if len(got.Attachments) != 0 {
		t.Errorf("unexpected attachments: %d", len(got.Attachments))
	}
}

func TestSendOrderConfirmation_AttachesInvoice(t *testing.T) {
	pdf := []byte("%PDF-1.4 fake invoice")
	files := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(pdf)
	}))
	defer files.Close()

	var got resendRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		json.NewEncoder(w).Encode(map[string]string{"id": "email_1"})
	}))
	defer ts.Close()

	conf := confirmation()
	conf.InvoiceURL = files.URL + "/invoice.pdf"

	c := testClient(ts.URL)
	if err := c.SendOrderConfirmation(context.Background(), conf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(got.Attachments) != 1 {
		t.Fatalf("got %d attachments, want 1", len(got.Attachments))
	}
	att := got.Attachments[0]
	if att.Filename != "Facture-20250114-X7K2QD.pdf" {
		t.Errorf("filename = %q", att.Filename)
	}
	decoded, err := base64.StdEncoding.DecodeString(att.Content)
	if err != nil {
		t.Fatalf("attachment not base64: %v", err)
	}
	if string(decoded) != string(pdf) {
		t.Errorf("attachment content = %q", decoded)
	}
}

func TestSendOrderConfirmation_InvoiceFetchFailureTolerated(t *testing.T) {
	files := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer files.Close()

	var got resendRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		json.NewEncoder(w).Encode(map[string]string{"id": "email_1"})
	}))
	defer ts.Close()

	conf := confirmation()
	conf.InvoiceURL = files.URL + "/invoice.pdf"

	// The email must still go out, just without the attachment.
	c := testClient(ts.URL)
	if err := c.SendOrderConfirmation(context.Background(), conf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Attachments) != 0 {
		t.Errorf("got %d attachments, want none", len(got.Attachments))
	}
}

func TestSendOrderConfirmation_ResendError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"error":{"name":"validation_error","message":"invalid to address","statusCode":422}}`))
	}))
	defer ts.Close()

	c := testClient(ts.URL)
	err := c.SendOrderConfirmation(context.Background(), confirmation())
	if err == nil {
		t.Fatal("expected error")
	}
}
