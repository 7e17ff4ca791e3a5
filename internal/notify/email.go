// internal/notify/email.go
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
)

const resendEndpoint = "https://api.resend.com/emails"

// Mailer sends transactional email through the Resend HTTP API.
// Unlike listing notifications, email failures propagate to the
// caller: a registration whose verification mail cannot be delivered
// fails.
type Mailer struct {
	apiKey string
	from   string
	client *http.Client
}

func NewMailer(apiKey, from string) *Mailer {
	return &Mailer{
		apiKey: apiKey,
		from:   from,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

type emailPayload struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// Send delivers a single email.
func (m *Mailer) Send(ctx context.Context, to, subject, html string) error {
	if m.apiKey == "" {
		// No key configured: log instead of failing, for local dev
		slog.Warn("email delivery skipped, RESEND_API_KEY not set", "to", to, "subject", subject)
		return nil
	}

	body, err := json.Marshal(emailPayload{
		From:    m.from,
		To:      to,
		Subject: subject,
		HTML:    html,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, resendEndpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.apiKey)

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send email: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("resend API error: %s: %s", resp.Status, detail)
	}

	slog.Info("email sent", "to", to, "subject", subject)
	return nil
}

// SendVerificationEmail delivers the signup verification link.
func (m *Mailer) SendVerificationEmail(ctx context.Context, to, verifyURL string) error {
	html := fmt.Sprintf(
		`<p>Welcome to OpsLink! Please verify your email address.</p>
<p><a href="%s">Verify my email</a></p>
<p>This link expires in 24 hours.</p>`, verifyURL)
	return m.Send(ctx, to, "Verify your OpsLink account", html)
}

// SendPasswordResetEmail delivers the password reset link.
func (m *Mailer) SendPasswordResetEmail(ctx context.Context, to, resetURL string) error {
	html := fmt.Sprintf(
		`<p>A password reset was requested for your OpsLink account.</p>
<p><a href="%s">Reset my password</a></p>
<p>This link expires in 1 hour. If you did not request this, ignore this email.</p>`, resetURL)
	return m.Send(ctx, to, "Reset your OpsLink password", html)
}
