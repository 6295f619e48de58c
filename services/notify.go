package services

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"github.com/masterchelly/microsites/config"
)

const resendBaseURL = "https://api.resend.com"

// Notifier tells operators about failures that need manual reconciliation.
type Notifier interface {
	Notify(ctx context.Context, subject, body string) error
}

// resendEmailRequest is the Resend API payload.
type resendEmailRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Text    string   `json:"text,omitempty"`
}

type resendEmailResponse struct {
	ID string `json:"id"`
}

type resendErrorResponse struct {
	Message string `json:"message"`
}

// ResendNotifier e-mails the configured operators through Resend.
type ResendNotifier struct {
	client     *resty.Client
	from       string
	recipients []string
}

// NewNotifier returns a ResendNotifier, or NopNotifier when notifications are
// not configured.
func NewNotifier(cfg config.NotifyConfig) Notifier {
	if cfg.ResendAPIKey == "" || cfg.FromEmail == "" || len(cfg.OpsEmails) == 0 {
		log.Info().Msg("operator notifications disabled")
		return NopNotifier{}
	}
	return NewResendNotifier(resendBaseURL, cfg)
}

func NewResendNotifier(baseURL string, cfg config.NotifyConfig) *ResendNotifier {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10*time.Second).
		SetAuthToken(cfg.ResendAPIKey).
		SetHeader("Content-Type", "application/json")

	return &ResendNotifier{client: client, from: cfg.FromEmail, recipients: cfg.OpsEmails}
}

func (n *ResendNotifier) Notify(ctx context.Context, subject, body string) error {
	var out resendEmailResponse
	var apiErr resendErrorResponse
	resp, err := n.client.R().
		SetContext(ctx).
		SetBody(resendEmailRequest{From: n.from, To: n.recipients, Subject: subject, Text: body}).
		SetResult(&out).
		SetError(&apiErr).
		Post("/emails")
	if err != nil {
		return fmt.Errorf("send to resend: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("resend API error (status %d): %s", resp.StatusCode(), apiErr.Message)
	}

	log.Info().Str("emailId", out.ID).Str("subject", subject).Msg("operator notification sent")
	return nil
}

type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, string, string) error { return nil }
