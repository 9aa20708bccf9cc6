// Package memory is an in-process store driver with the same conditional
// write semantics as the DynamoDB repos. Every compound operation runs under a
// single mutex, which stands in for a DynamoDB transaction.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/onepage-api/internal/domain"
)

type state struct {
	mu          sync.Mutex
	credentials map[string]domain.Credential          // by email
	usernames   map[string]string                     // credential username -> email
	pending     map[string]domain.PendingRegistration // by email
	domains     map[string]domain.DomainConfig        // by domain
	owners      map[string]string                     // domain username -> domain
}

// Store groups the repos that share one state.
type Store struct {
	Credentials *CredentialRepo
	Pending     *PendingRepo
	Domains     *DomainRepo
}

func NewStore() *Store {
	s := &state{
		credentials: make(map[string]domain.Credential),
		usernames:   make(map[string]string),
		pending:     make(map[string]domain.PendingRegistration),
		domains:     make(map[string]domain.DomainConfig),
		owners:      make(map[string]string),
	}
	return &Store{
		Credentials: &CredentialRepo{s: s},
		Pending:     &PendingRepo{s: s},
		Domains:     &DomainRepo{s: s},
	}
}

type CredentialRepo struct{ s *state }

func (r *CredentialRepo) GetByEmail(_ context.Context, email string) (*domain.Credential, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.credentials[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &c, nil
}

func (r *CredentialRepo) SetWallet(_ context.Context, email, walletAddress string) (*domain.Credential, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.credentials[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	addr := walletAddress
	c.WalletAddress = &addr
	r.s.credentials[email] = c
	return &c, nil
}

// Count returns the number of credentials.
func (r *CredentialRepo) Count() int {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return len(r.s.credentials)
}

type PendingRepo struct{ s *state }

func (r *PendingRepo) Put(_ context.Context, p *domain.PendingRegistration) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.credentials[p.Email]; ok {
		return domain.ErrDuplicateEmail
	}
	if _, ok := r.s.usernames[p.Username]; ok {
		return domain.ErrDuplicateUsername
	}
	r.s.pending[p.Email] = *p
	return nil
}

func (r *PendingRepo) Get(_ context.Context, email string) (*domain.PendingRegistration, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.pending[email]
	if !ok {
		return nil, domain.ErrPendingNotFound
	}
	return &p, nil
}

func (r *PendingRepo) Reissue(_ context.Context, email, code string, expiresAt, now int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.pending[email]
	if !ok || p.ExpiresAt <= now {
		return domain.ErrPendingNotFound
	}
	p.VerificationCode = code
	p.ExpiresAt = expiresAt
	r.s.pending[email] = p
	return nil
}

func (r *PendingRepo) DeleteIfExpiresAt(_ context.Context, email string, expiresAt int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.pending[email]
	if !ok || p.ExpiresAt != expiresAt {
		return domain.ErrPendingNotFound
	}
	delete(r.s.pending, email)
	return nil
}

func (r *PendingRepo) Promote(_ context.Context, p *domain.PendingRegistration, c *domain.Credential) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.pending[p.Email]
	if !ok || cur.VerificationCode != p.VerificationCode || cur.ExpiresAt != p.ExpiresAt {
		return domain.ErrPendingNotFound
	}
	if _, ok := r.s.credentials[c.Email]; ok {
		return domain.ErrDuplicateEmail
	}
	if _, ok := r.s.usernames[c.Username]; ok {
		return domain.ErrDuplicateUsername
	}
	delete(r.s.pending, p.Email)
	r.s.credentials[c.Email] = *c
	r.s.usernames[c.Username] = c.Email
	return nil
}

func (r *PendingRepo) ListExpired(_ context.Context, now int64) ([]domain.PendingRegistration, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.PendingRegistration
	for _, p := range r.s.pending {
		if p.ExpiresAt <= now {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

type DomainRepo struct{ s *state }

func (r *DomainRepo) Create(_ context.Context, d *domain.DomainConfig) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.domains[d.Domain]; ok {
		return domain.ErrDomainTaken
	}
	if _, ok := r.s.owners[d.Username]; ok {
		return domain.ErrDomainOwnerTaken
	}
	r.s.domains[d.Domain] = *d
	r.s.owners[d.Username] = d.Domain
	return nil
}

func (r *DomainRepo) ListByUsername(_ context.Context, username string) ([]domain.DomainConfig, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []domain.DomainConfig{}
	if name, ok := r.s.owners[username]; ok {
		out = append(out, r.s.domains[name])
	}
	return out, nil
}
