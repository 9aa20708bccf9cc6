// Package verification generates email verification codes and delivers them.
package verification

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"github.com/onepage-api/internal/domain"
	"github.com/onepage-api/internal/infrastructure/mail"
)

const (
	codeMin = 100000
	codeMax = 999999

	Subject = "Verify Your Email"
)

// Issuer produces six-digit codes and mails them. Codes come from math/rand
// and are not secret-grade; guessing is bounded by the request rate limit.
type Issuer struct {
	mailer mail.Mailer
	ttl    time.Duration
}

func NewIssuer(mailer mail.Mailer, ttl time.Duration) *Issuer {
	return &Issuer{mailer: mailer, ttl: ttl}
}

// GenerateCode returns a uniformly drawn code in [100000, 999999].
func (i *Issuer) GenerateCode() string {
	return strconv.Itoa(codeMin + rand.Intn(codeMax-codeMin+1))
}

// Deliver mails code to email. Any failure wraps domain.ErrDelivery.
func (i *Issuer) Deliver(ctx context.Context, email, code string) error {
	body := fmt.Sprintf("Your OnePage verification code is: %s. It expires in %d minutes.", code, int(i.ttl.Minutes()))
	if err := i.mailer.SendEmail(ctx, email, Subject, body); err != nil {
		return fmt.Errorf("send verification to %s: %v: %w", email, err, domain.ErrDelivery)
	}
	return nil
}
