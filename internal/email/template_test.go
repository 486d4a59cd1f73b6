package email

import (
	"strings"
	"testing"

	"github.com/KylianTITREN/e-kom-backend/internal/order"
	stripeinternal "github.com/KylianTITREN/e-kom-backend/internal/stripe"
)

func TestOrderConfirmationHTML(t *testing.T) {
	conf := order.Confirmation{
		CustomerName: "Léa Martin",
		OrderNumber:  "20250114-X7K2QD",
		Items: []order.Line{
			{Name: "Mug", Quantity: 2, UnitPrice: 10.00},
			{Name: "[Gravure] Gravure texte", Quantity: 1, UnitPrice: 8.00,
				Info: `Texte: "Joyeux anniversaire"`},
		},
		Subtotal:     28.00,
		ShippingCost: 4.90,
		Total:        32.90,
		ShippingTo: &stripeinternal.Address{
			Line1: "3 rue des Lilas", City: "Lyon", PostalCode: "69003", Country: "FR",
		},
	}

	html := orderConfirmationHTML(conf, "contact@e-kom.fr", "E-Kom")

	for _, want := range []string{
		"Commande #20250114-X7K2QD",
		"Bonjour Léa Martin,",
		">Mug<",
		`Texte: "Joyeux anniversaire"`,
		"20.00 €", // 2 × 10.00, line total
		"28.00 €",
		"4.90 €",
		"32.90 €",
		"Adresse de livraison",
		"3 rue des Lilas",
		"69003 Lyon",
		"mailto:contact@e-kom.fr",
		"E-Kom. Tous droits réservés.",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("html missing %q", want)
		}
	}

	// No invoice URL: no attachment note.
	if strings.Contains(html, "Votre facture est jointe") {
		t.Error("invoice note present without invoice")
	}
}

func TestOrderConfirmationHTML_InvoiceNote(t *testing.T) {
	conf := order.Confirmation{
		CustomerName: "Client",
		OrderNumber:  "20250114-ABC",
		InvoiceURL:   "https://files.stripe.com/invoice.pdf",
	}
	html := orderConfirmationHTML(conf, "contact@e-kom.fr", "E-Kom")
	if !strings.Contains(html, "Votre facture est jointe à cet email au format PDF.") {
		t.Error("invoice note missing")
	}
}

func TestOrderConfirmationHTML_NoShippingBlock(t *testing.T) {
	conf := order.Confirmation{CustomerName: "Client", OrderNumber: "20250114-ABC"}
	html := orderConfirmationHTML(conf, "contact@e-kom.fr", "E-Kom")
	if strings.Contains(html, "Adresse de livraison") {
		t.Error("shipping block present without address")
	}
}
