package mail

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/onepage-api/internal/config"
)

// Mailer sends transactional emails.
type Mailer interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// NewMailer returns the Mailer selected by cfg.MailDriver.
func NewMailer(cfg *config.Config) (Mailer, error) {
	switch cfg.MailDriver {
	case config.MailMailgun:
		return NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailgunAPIBase), nil
	case config.MailSMTP:
		return NewSMTP(cfg), nil
	case config.MailLog:
		return logMailer{}, nil
	}
	return nil, fmt.Errorf("unknown mail driver %q", cfg.MailDriver)
}

// logMailer records outgoing mail instead of sending it. Development only.
type logMailer struct{}

func (logMailer) SendEmail(_ context.Context, to, subject, body string) error {
	slog.Info("mail not sent (log driver)", "to", to, "subject", subject, "body_len", len(body))
	return nil
}
