package email

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/KylianTITREN/e-kom-backend/internal/order"
)

const resendEndpoint = "https://api.resend.com/emails"

// maxAttachmentSize caps the invoice PDF download. Stripe invoices are a few
// hundred KB; anything past 10 MB is not an invoice.
const maxAttachmentSize = 10 << 20

// resendClient is the concrete Sender backed by the Resend API.
type resendClient struct {
	apiKey     string
	fromAddr   string // e.g. "commandes@e-kom.fr"
	fromName   string // e.g. "E-Kom"
	replyTo    string // support address customers reach when replying
	shopName   string // shown in the email footer
	endpoint   string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewResendClient returns a Sender that delivers email via Resend.
func NewResendClient(apiKey, fromAddr, fromName, replyTo, shopName string, logger *slog.Logger) Sender {
	return &resendClient{
		apiKey:   apiKey,
		fromAddr: fromAddr,
		fromName: fromName,
		replyTo:  replyTo,
		shopName: shopName,
		endpoint: resendEndpoint,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		logger: logger,
	}
}

// ─── RESEND API SHAPES ────────────────────────────────────────────────────────

type resendAttachment struct {
	Filename string `json:"filename"`
	Content  string `json:"content"` // base64
}

type resendRequest struct {
	From        string             `json:"from"`
	To          []string           `json:"to"`
	ReplyTo     string             `json:"reply_to,omitempty"`
	Subject     string             `json:"subject"`
	HTML        string             `json:"html"`
	Attachments []resendAttachment `json:"attachments,omitempty"`
}

type resendResponse struct {
	ID    string `json:"id"`
	Error *struct {
		Name       string `json:"name"`
		Message    string `json:"message"`
		StatusCode int    `json:"statusCode"`
	} `json:"error"`
}

// ─── SENDER IMPLEMENTATION ────────────────────────────────────────────────────

// SendOrderConfirmation renders and sends the confirmation email. When the
// confirmation carries an invoice URL, the PDF is fetched and attached; a
// failed fetch is logged and the email still goes out.
func (c *resendClient) SendOrderConfirmation(ctx context.Context, conf order.Confirmation) error {
	subject := fmt.Sprintf("Confirmation de commande #%s", conf.OrderNumber)
	html := orderConfirmationHTML(conf, c.replyTo, c.shopName)

	var attachments []resendAttachment
	if conf.InvoiceURL != "" {
		pdf, err := c.fetchDocument(ctx, conf.InvoiceURL)
		if err != nil {
			c.logger.Warn("email: invoice attachment skipped",
				"order_number", conf.OrderNumber, "error", err)
		} else {
			attachments = append(attachments, resendAttachment{
				Filename: fmt.Sprintf("Facture-%s.pdf", conf.OrderNumber),
				Content:  base64.StdEncoding.EncodeToString(pdf),
			})
		}
	}

	return c.send(ctx, conf.CustomerEmail, subject, html, attachments)
}

// fetchDocument downloads a remote document (the Stripe invoice PDF).
func (c *resendClient) fetchDocument(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("email: build document request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("email: fetch document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("email: fetch document: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxAttachmentSize))
	if err != nil {
		return nil, fmt.Errorf("email: read document: %w", err)
	}
	return body, nil
}

// ─── HTTP SEND ────────────────────────────────────────────────────────────────

func (c *resendClient) send(ctx context.Context, to, subject, html string, attachments []resendAttachment) error {
	from := fmt.Sprintf("%s <%s>", c.fromName, c.fromAddr)

	reqBody := resendRequest{
		From:        from,
		To:          []string{to},
		ReplyTo:     c.replyTo,
		Subject:     subject,
		HTML:        html,
		Attachments: attachments,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("email: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.endpoint,
		bytes.NewReader(bodyBytes),
	)
	if err != nil {
		return fmt.Errorf("email: build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("email: http request: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return fmt.Errorf("email: read response: %w", err)
	}

	var parsed resendResponse
	if err := json.Unmarshal(respBytes, &parsed); err != nil {
		return fmt.Errorf("email: unmarshal response (status %d): %w", resp.StatusCode, err)
	}

	if parsed.Error != nil {
		return fmt.Errorf("email: Resend error %s: %s", parsed.Error.Name, parsed.Error.Message)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("email: unexpected status %d: %.200s", resp.StatusCode, string(respBytes))
	}

	return nil
}
