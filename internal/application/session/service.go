package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/onepage-api/internal/domain"
	jwtinfra "github.com/onepage-api/internal/infrastructure/jwt"
	"golang.org/x/crypto/bcrypt"
)

type LoginResult struct {
	AccessToken  string            `json:"accessToken"`
	RefreshToken string            `json:"refreshToken"`
	User         domain.PublicUser `json:"user"`
}

type Service interface {
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (*jwtinfra.Pair, error)
}

type credentialStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.Credential, error)
}

type tokenIssuer interface {
	Issue(email string) (jwtinfra.Pair, error)
	VerifyRefresh(token string) (*jwtinfra.Claims, error)
}

type service struct {
	credentials credentialStore
	tokens      tokenIssuer
}

func NewService(credentials credentialStore, tokens tokenIssuer) Service {
	return &service{credentials: credentials, tokens: tokens}
}

func (s *service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	c, err := s.credentials.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, domain.ErrBadPassword
		}
		return nil, fmt.Errorf("compare password: %w", err)
	}
	pair, err := s.tokens.Issue(c.Email)
	if err != nil {
		return nil, err
	}
	return &LoginResult{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		User:         c.Public(),
	}, nil
}

// Refresh trades a valid refresh token for a new pair. The credential must
// still exist.
func (s *service) Refresh(ctx context.Context, refreshToken string) (*jwtinfra.Pair, error) {
	claims, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, err
	}
	if _, err := s.credentials.GetByEmail(ctx, claims.Subject); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("refresh for unknown credential: %w", domain.ErrForbidden)
		}
		return nil, err
	}
	pair, err := s.tokens.Issue(claims.Subject)
	if err != nil {
		return nil, err
	}
	return &pair, nil
}
