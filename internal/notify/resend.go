package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"findmygig/scan-service/internal/metrics"
	"findmygig/scan-service/internal/scanner"
)

const (
	resendEndpoint = "https://api.resend.com/emails"
	httpTimeout    = 15 * time.Second
)

// Mailer sends transactional email through the Resend HTTP API.
// With an empty API key every send becomes a logged no-op, so local setups
// run the full pipeline without delivering anything.
type Mailer struct {
	apiKey string
	from   string
	appURL string
	client *http.Client
}

// NewMailer constructs a mailer with a shared HTTP client.
func NewMailer(apiKey, from, appURL string) *Mailer {
	return &Mailer{
		apiKey: apiKey,
		from:   from,
		appURL: appURL,
		client: &http.Client{Timeout: httpTimeout},
	}
}

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

func (m *Mailer) send(ctx context.Context, kind, to, subject, html string) error {
	if m.apiKey == "" {
		slog.Warn("RESEND_API_KEY not set, skipping email", "kind", kind, "to", to)
		return nil
	}

	body, err := json.Marshal(resendRequest{
		From:    m.from,
		To:      []string{to},
		Subject: subject,
		HTML:    html,
	})
	if err != nil {
		return fmt.Errorf("marshal email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, resendEndpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build email request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+m.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	metrics.ObserveEmail(kind, err)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("resend status %d: %s", resp.StatusCode, detail)
	}
	return nil
}

// SendHighFitAlert delivers the immediate alert for one high-scoring ticket.
func (m *Mailer) SendHighFitAlert(ctx context.Context, email, name string, ticket scanner.HighFitTicket) error {
	html, err := renderAlert(name, m.appURL, ticket)
	if err != nil {
		return err
	}
	subject := fmt.Sprintf("\U0001F389 High Fit Alert: %s at %s", ticket.JobTitle, ticket.Company)
	return m.send(ctx, "high_fit", email, subject, html)
}

// SendDailyDigest delivers one user's daily summary.
func (m *Mailer) SendDailyDigest(ctx context.Context, email, name string, tickets []DigestTicket, summary DigestSummary) error {
	html, err := renderDigest(name, m.appURL, tickets, summary)
	if err != nil {
		return err
	}
	subject := fmt.Sprintf("\U0001F3AF Daily Digest: %d new job%s found", summary.TotalNew, plural(summary.TotalNew))
	return m.send(ctx, "digest", email, subject, html)
}
