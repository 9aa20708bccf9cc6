package mail

import (
	"context"
	"fmt"

	"github.com/mailgun/mailgun-go/v4"
)

type mailgunMailer struct {
	mg   *mailgun.MailgunImpl
	from string
}

// NewMailgun returns a Mailer backed by the Mailgun HTTP API. apiBase
// overrides the API endpoint (e.g. the EU region) when non-empty.
func NewMailgun(domain, apiKey, apiBase string) Mailer {
	mg := mailgun.NewMailgun(domain, apiKey)
	if apiBase != "" {
		mg.SetAPIBase(apiBase)
	}
	return &mailgunMailer{mg: mg, from: "noreply@" + domain}
}

// SendEmail fails on any non-2xx answer from Mailgun. It does not retry.
func (m *mailgunMailer) SendEmail(ctx context.Context, to, subject, body string) error {
	msg := m.mg.NewMessage(m.from, subject, body, to)
	if _, _, err := m.mg.Send(ctx, msg); err != nil {
		return fmt.Errorf("mailgun send: %w", err)
	}
	return nil
}
