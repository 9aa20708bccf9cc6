// Package registration owns the pending-registration lifecycle: issuing a
// verification code at signup, re-issuing it, promoting a verified record to
// a Credential and purging expired records.
package registration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/onepage-api/internal/domain"
	"github.com/onepage-api/internal/observability/metrics"
	"github.com/onepage-api/internal/pkg/id"
	"golang.org/x/crypto/bcrypt"
)

// PendingStore persists pending registrations. Every method is a single
// conditional write (or transaction) so no check-then-act spans two calls.
type PendingStore interface {
	// Put writes p unless a Credential already holds its email or username.
	Put(ctx context.Context, p *domain.PendingRegistration) error
	Get(ctx context.Context, email string) (*domain.PendingRegistration, error)
	// Reissue replaces code and expiry of a record still live at now.
	Reissue(ctx context.Context, email, code string, expiresAt, now int64) error
	DeleteIfExpiresAt(ctx context.Context, email string, expiresAt int64) error
	// Promote deletes p (as observed) and creates c in one step.
	Promote(ctx context.Context, p *domain.PendingRegistration, c *domain.Credential) error
	ListExpired(ctx context.Context, now int64) ([]domain.PendingRegistration, error)
}

// CodeIssuer generates and delivers verification codes.
type CodeIssuer interface {
	GenerateCode() string
	Deliver(ctx context.Context, email, code string) error
}

type Service interface {
	// SignUp hashes the password and begins a signup.
	SignUp(ctx context.Context, req domain.SignUpRequest) (*domain.Ticket, error)
	BeginSignup(ctx context.Context, email, username, passwordHash string) (*domain.Ticket, error)
	Verify(ctx context.Context, email, code string) (*domain.Credential, error)
	Resend(ctx context.Context, email string) (*domain.Ticket, error)
	PurgeExpired(ctx context.Context, now time.Time) (int, error)
}

// ServiceDeps holds the dependencies for the registration service.
type ServiceDeps struct {
	Pending PendingStore
	Issuer  CodeIssuer
	CodeTTL time.Duration
	Now     func() time.Time
}

type service struct {
	pending PendingStore
	issuer  CodeIssuer
	codeTTL time.Duration
	now     func() time.Time
}

func NewService(deps ServiceDeps) Service {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		pending: deps.Pending,
		issuer:  deps.Issuer,
		codeTTL: deps.CodeTTL,
		now:     now,
	}
}

func (s *service) SignUp(ctx context.Context, req domain.SignUpRequest) (*domain.Ticket, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return s.BeginSignup(ctx, req.Email, req.Username, string(hash))
}

func (s *service) BeginSignup(ctx context.Context, email, username, passwordHash string) (*domain.Ticket, error) {
	now := s.now()
	ticket := s.newTicket(now)
	p := &domain.PendingRegistration{
		Email:            email,
		Username:         username,
		PasswordHash:     passwordHash,
		VerificationCode: ticket.Code,
		ExpiresAt:        ticket.ExpiresAt.Unix(),
		CreatedAt:        now,
	}
	if err := s.pending.Put(ctx, p); err != nil {
		metrics.RecordSignup(resultOf(err))
		return nil, err
	}

	if err := s.issuer.Deliver(ctx, email, ticket.Code); err != nil {
		slog.Warn("verification delivery failed, pending record kept", "email", email, "err", err)
		metrics.RecordSignup("delivery_failed")
		return nil, err
	}
	metrics.RecordSignup("ok")
	return ticket, nil
}

func (s *service) Verify(ctx context.Context, email, code string) (*domain.Credential, error) {
	c, err := s.verify(ctx, email, code)
	metrics.RecordVerification(resultOf(err))
	return c, err
}

func (s *service) verify(ctx context.Context, email, code string) (*domain.Credential, error) {
	p, err := s.pending.Get(ctx, email)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if p.Expired(now) {
		// Lost races here mean the record was already purged or re-issued.
		if err := s.pending.DeleteIfExpiresAt(ctx, email, p.ExpiresAt); err != nil && !errors.Is(err, domain.ErrNotFound) {
			slog.Warn("purge expired pending registration", "email", email, "err", err)
		}
		return nil, domain.ErrCodeExpired
	}
	if code != p.VerificationCode {
		return nil, domain.ErrCodeMismatch
	}

	c := &domain.Credential{
		Email:        p.Email,
		UserID:       id.At(now),
		Username:     p.Username,
		PasswordHash: p.PasswordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.pending.Promote(ctx, p, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *service) Resend(ctx context.Context, email string) (*domain.Ticket, error) {
	now := s.now()
	ticket := s.newTicket(now)
	if err := s.pending.Reissue(ctx, email, ticket.Code, ticket.ExpiresAt.Unix(), now.Unix()); err != nil {
		return nil, err
	}
	if err := s.issuer.Deliver(ctx, email, ticket.Code); err != nil {
		return nil, err
	}
	return ticket, nil
}

// newTicket draws a code expiring codeTTL after now. The expiry is stored in
// whole seconds, so the ticket carries the truncated value too.
func (s *service) newTicket(now time.Time) *domain.Ticket {
	expiresAt := now.Add(s.codeTTL).Unix()
	return &domain.Ticket{Code: s.issuer.GenerateCode(), ExpiresAt: time.Unix(expiresAt, 0).UTC()}
}

func (s *service) PurgeExpired(ctx context.Context, now time.Time) (int, error) {
	expired, err := s.pending.ListExpired(ctx, now.Unix())
	if err != nil {
		return 0, err
	}
	purged := 0
	for _, p := range expired {
		err := s.pending.DeleteIfExpiresAt(ctx, p.Email, p.ExpiresAt)
		switch {
		case err == nil:
			purged++
		case errors.Is(err, domain.ErrNotFound):
			// re-issued or verified since the scan
		default:
			return purged, err
		}
	}
	return purged, nil
}

func resultOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrConflict):
		return "duplicate"
	case errors.Is(err, domain.ErrCodeExpired):
		return "expired"
	case errors.Is(err, domain.ErrCodeMismatch):
		return "mismatch"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrDelivery):
		return "delivery_failed"
	default:
		return "error"
	}
}
