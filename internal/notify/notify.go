// Package notify is the outbound notification collaborator: alert flushes
// hand rendered messages to a Sender and never look past the success/failure
// of the handoff.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/smtp"
	"strings"
	"time"

	"github.com/Souleye05/legal-agenda-sub000/internal/config"
)

// Sender delivers one notification. Implementations must be safe for
// concurrent use.
type Sender interface {
	Send(ctx context.Context, recipient, subject, htmlBody string) error
}

// FromConfig builds the sender selected by config.notifications.mode.
func FromConfig(cfg *config.Config) Sender {
	switch cfg.Notifications.Mode {
	case "smtp":
		return NewSMTPSender(cfg.Notifications.SMTP)
	case "webhook":
		return NewWebhookSender(cfg.Notifications.Webhook)
	default:
		return LogSender{}
	}
}

// LogSender writes notifications to the process log. Used in dev and as the
// fallback when no transport is configured.
type LogSender struct{}

func (LogSender) Send(_ context.Context, recipient, subject, _ string) error {
	log.Printf("notify: to=%s subject=%q", recipient, subject)
	return nil
}

// SMTPSender delivers notifications as HTML mail.
type SMTPSender struct {
	cfg config.SMTPConfig
}

func NewSMTPSender(cfg config.SMTPConfig) SMTPSender {
	return SMTPSender{cfg: cfg}
}

func (s SMTPSender) Send(_ context.Context, recipient, subject, htmlBody string) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s\r\n", s.cfg.From)
	fmt.Fprintf(&msg, "To: %s\r\n", recipient)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
	msg.WriteString(htmlBody)

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}
	if err := smtp.SendMail(addr, auth, s.cfg.From, []string{recipient}, msg.Bytes()); err != nil {
		return fmt.Errorf("smtp send to %s: %w", recipient, err)
	}
	return nil
}

const defaultWebhookTimeout = 5 * time.Second

// WebhookSender POSTs notifications as JSON to a configured URL, for chat
// integrations and downstream relays.
type WebhookSender struct {
	cfg    config.WebhookConfig
	client *http.Client
}

func NewWebhookSender(cfg config.WebhookConfig) *WebhookSender {
	timeout := defaultWebhookTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	return &WebhookSender{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

func (s *WebhookSender) Send(ctx context.Context, recipient, subject, htmlBody string) error {
	payload, err := json.Marshal(map[string]string{
		"recipient": recipient,
		"subject":   subject,
		"html_body": htmlBody,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.URL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if strings.TrimSpace(s.cfg.Secret) != "" {
		req.Header.Set("X-Agenda-Secret", s.cfg.Secret)
	}
	res, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return fmt.Errorf("webhook status %d: %s", res.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}
