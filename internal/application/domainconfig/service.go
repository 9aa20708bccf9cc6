// Package domainconfig registers custom domains and their swap widget
// configuration.
package domainconfig

import (
	"context"
	"log/slog"
	"time"

	"github.com/onepage-api/internal/domain"
	"github.com/onepage-api/internal/pkg/id"
	"github.com/onepage-api/internal/pkg/validate"
)

type Service interface {
	Register(ctx context.Context, req domain.RegisterDomainRequest) (*domain.DomainConfig, error)
	ListByUsername(ctx context.Context, username string) ([]domain.DomainConfig, error)
}

type domainStore interface {
	Create(ctx context.Context, d *domain.DomainConfig) error
	ListByUsername(ctx context.Context, username string) ([]domain.DomainConfig, error)
}

type sitePublisher interface {
	PublishSwapConfig(ctx context.Context, d *domain.DomainConfig) (string, error)
}

type eventPublisher interface {
	PublishDomainRegistered(ctx context.Context, d *domain.DomainConfig) error
}

// ServiceDeps holds the dependencies for the domain service. Site and Events
// are optional.
type ServiceDeps struct {
	Domains domainStore
	Site    sitePublisher
	Events  eventPublisher
}

type service struct {
	domains domainStore
	site    sitePublisher
	events  eventPublisher
}

func NewService(deps ServiceDeps) Service {
	return &service{domains: deps.Domains, site: deps.Site, events: deps.Events}
}

// Register stores a new DomainConfig. The owning username is not checked
// against registered credentials.
func (s *service) Register(ctx context.Context, req domain.RegisterDomainRequest) (*domain.DomainConfig, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	template := req.Template
	if template == "" {
		template = domain.TemplateSimple
	}
	now := time.Now().UTC()
	d := &domain.DomainConfig{
		Domain:     req.Domain,
		DomainID:   id.At(now),
		Username:   req.Username,
		SwapConfig: req.SwapConfig,
		Template:   template,
		CreatedAt:  now,
	}
	if err := s.domains.Create(ctx, d); err != nil {
		return nil, err
	}
	s.publish(ctx, d)
	return d, nil
}

// publish pushes the new site to S3 and SNS. Failures are logged only; the
// registration itself already succeeded.
func (s *service) publish(ctx context.Context, d *domain.DomainConfig) {
	if s.site != nil {
		if url, err := s.site.PublishSwapConfig(ctx, d); err != nil {
			slog.Warn("publish swap config", "domain", d.Domain, "err", err)
		} else {
			slog.Debug("swap config published", "domain", d.Domain, "url", url)
		}
	}
	if s.events != nil {
		if err := s.events.PublishDomainRegistered(ctx, d); err != nil {
			slog.Warn("publish domain.registered", "domain", d.Domain, "err", err)
		}
	}
}

func (s *service) ListByUsername(ctx context.Context, username string) ([]domain.DomainConfig, error) {
	if !validate.Username(username) {
		return nil, domain.NewValidationError("username", "username", "Invalid username format")
	}
	return s.domains.ListByUsername(ctx, username)
}
