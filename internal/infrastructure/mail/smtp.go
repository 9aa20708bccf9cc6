package mail

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/onepage-api/internal/config"
)

type smtpMailer struct {
	host     string
	port     string
	from     string
	username string
	password string
}

// NewSMTP returns a Mailer that relays through a plain SMTP server, such as a
// local MailHog instance.
func NewSMTP(cfg *config.Config) Mailer {
	return &smtpMailer{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		from:     cfg.SMTPFrom,
		username: cfg.SMTPUsername,
		password: cfg.SMTPPassword,
	}
}

// SendEmail ignores ctx: net/smtp has no context-aware API.
func (m *smtpMailer) SendEmail(_ context.Context, to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s", m.from, to, subject, body)
	addr := fmt.Sprintf("%s:%s", m.host, m.port)

	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}
	if err := smtp.SendMail(addr, auth, m.from, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}
