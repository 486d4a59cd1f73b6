package email

import (
	"fmt"
	"strings"
	"time"

	"github.com/KylianTITREN/e-kom-backend/internal/order"
)

// orderConfirmationHTML renders the confirmation email body. French copy —
// the shop sells to a French storefront.
func orderConfirmationHTML(conf order.Confirmation, replyTo, shopName string) string {
	var items strings.Builder
	for _, item := range conf.Items {
		info := ""
		if item.Info != "" {
			info = fmt.Sprintf(
				`<br><span style="color: #7f8c8d; font-size: 13px;">%s</span>`, item.Info)
		}
		items.WriteString(fmt.Sprintf(`
      <tr>
        <td style="padding: 14px 12px; border-bottom: 1px solid #e0e0e0; color: #2c3e50; font-size: 15px;">%s%s</td>
        <td style="padding: 14px 12px; border-bottom: 1px solid #e0e0e0; text-align: center; color: #2c3e50; font-size: 15px;">%d</td>
        <td style="padding: 14px 12px; border-bottom: 1px solid #e0e0e0; text-align: right; color: #2c3e50; font-size: 15px;">%.2f €</td>
      </tr>`,
			item.Name, info, item.Quantity, item.UnitPrice*float64(item.Quantity)))
	}

	shippingBlock := ""
	if a := conf.ShippingTo; a != nil {
		line2 := ""
		if a.Line2 != "" {
			line2 = a.Line2 + "<br>"
		}
		shippingBlock = fmt.Sprintf(`
    <table width="100%%" cellpadding="0" cellspacing="0" style="margin-top: 25px;">
      <tr>
        <td style="padding: 25px; background-color: #f8f9fa; border-radius: 6px; border-left: 3px solid #2c3e50;">
          <h3 style="margin: 0 0 15px 0; color: #2c3e50; font-size: 14px; font-weight: 600; text-transform: uppercase;">Adresse de livraison</h3>
          <div style="color: #34495e; font-size: 15px; line-height: 1.7;">
            %s<br>
            %s%s %s<br>
            %s
          </div>
        </td>
      </tr>
    </table>`,
			a.Line1, line2, a.PostalCode, a.City, a.Country)
	}

	invoiceBlock := ""
	if conf.InvoiceURL != "" {
		invoiceBlock = `
    <p style="margin: 20px 0 0 0; color: #34495e; font-size: 14px;">
      Votre facture est jointe à cet email au format PDF.
    </p>`
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="fr">
<head><meta charset="utf-8"></head>
<body style="margin: 0; padding: 0; font-family: -apple-system, 'Segoe UI', Roboto, Arial, sans-serif; background-color: #f5f5f5; line-height: 1.6;">
  <table width="100%%" cellpadding="0" cellspacing="0" style="background-color: #f5f5f5; padding: 40px 20px;">
    <tr><td align="center">
      <table width="100%%" cellpadding="0" cellspacing="0" style="max-width: 600px; background-color: #ffffff; border-radius: 8px; overflow: hidden;">
        <tr>
          <td style="background-color: #2c3e50; padding: 35px 30px; text-align: center;">
            <h1 style="margin: 0; color: #ffffff; font-size: 24px; font-weight: 600;">Commande Confirmée</h1>
            <p style="margin: 8px 0 0 0; color: #bdc3c7; font-size: 14px;">Commande #%s</p>
          </td>
        </tr>
        <tr>
          <td style="padding: 40px 30px;">
            <p style="margin: 0 0 10px 0; color: #2c3e50; font-size: 16px; font-weight: 500;">Bonjour %s,</p>
            <p style="margin: 0 0 30px 0; color: #34495e; font-size: 15px;">
              Merci pour votre commande ! Nous avons bien reçu votre paiement et votre commande est en cours de traitement.
            </p>
            <table width="100%%" cellpadding="0" cellspacing="0" style="background-color: #ffffff; border-radius: 4px; border: 1px solid #e0e0e0;">
              <thead>
                <tr style="background-color: #f8f9fa;">
                  <th style="padding: 12px; text-align: left; color: #7f8c8d; font-size: 12px; text-transform: uppercase; border-bottom: 2px solid #e0e0e0;">Produit</th>
                  <th style="padding: 12px; text-align: center; color: #7f8c8d; font-size: 12px; text-transform: uppercase; border-bottom: 2px solid #e0e0e0;">Qté</th>
                  <th style="padding: 12px; text-align: right; color: #7f8c8d; font-size: 12px; text-transform: uppercase; border-bottom: 2px solid #e0e0e0;">Prix</th>
                </tr>
              </thead>
              <tbody>%s
              </tbody>
              <tfoot>
                <tr>
                  <td colspan="2" style="padding: 10px 12px; text-align: right; color: #7f8c8d; font-size: 14px;">Sous-total :</td>
                  <td style="padding: 10px 12px; text-align: right; color: #2c3e50; font-size: 14px;">%.2f €</td>
                </tr>
                <tr>
                  <td colspan="2" style="padding: 10px 12px; text-align: right; color: #7f8c8d; font-size: 14px;">Livraison :</td>
                  <td style="padding: 10px 12px; text-align: right; color: #2c3e50; font-size: 14px;">%.2f €</td>
                </tr>
                <tr>
                  <td colspan="2" style="padding: 18px 12px; text-align: right; color: #2c3e50; font-weight: 600; font-size: 16px; background-color: #f8f9fa;">Total :</td>
                  <td style="padding: 18px 12px; text-align: right; color: #2c3e50; font-weight: 600; font-size: 16px; background-color: #f8f9fa;">%.2f €</td>
                </tr>
              </tfoot>
            </table>
            %s
            %s
            <p style="margin: 30px 0 0 0; color: #34495e; font-size: 14px; text-align: center;">
              Une question sur votre commande ? Écrivez-nous à
              <a href="mailto:%s" style="color: #2c3e50;">%s</a>.
            </p>
          </td>
        </tr>
        <tr>
          <td style="background-color: #f8f9fa; padding: 25px 30px; text-align: center; border-top: 1px solid #e0e0e0;">
            <p style="margin: 0; color: #95a5a6; font-size: 12px;">© %d %s. Tous droits réservés.</p>
          </td>
        </tr>
      </table>
    </td></tr>
  </table>
</body>
</html>`,
		conf.OrderNumber,
		conf.CustomerName,
		items.String(),
		conf.Subtotal,
		conf.ShippingCost,
		conf.Total,
		shippingBlock,
		invoiceBlock,
		replyTo, replyTo,
		time.Now().Year(), shopName,
	)
}
