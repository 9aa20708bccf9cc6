package wallet

import (
	"context"

	"github.com/onepage-api/internal/domain"
	"github.com/onepage-api/internal/pkg/validate"
)

type Service interface {
	// Connect links walletAddress to the credential identified by email.
	Connect(ctx context.Context, email, walletAddress string) (*domain.Credential, error)
}

type credentialStore interface {
	SetWallet(ctx context.Context, email, walletAddress string) (*domain.Credential, error)
}

type service struct {
	credentials credentialStore
}

func NewService(credentials credentialStore) Service {
	return &service{credentials: credentials}
}

func (s *service) Connect(ctx context.Context, email, walletAddress string) (*domain.Credential, error) {
	if !validate.Address(walletAddress) {
		return nil, domain.NewValidationError("walletAddress", "ethaddr", "Invalid wallet address")
	}
	return s.credentials.SetWallet(ctx, email, walletAddress)
}
