package jwtinfra

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/onepage-api/internal/config"
	"github.com/onepage-api/internal/domain"
)

// Token kinds. A token is only accepted for the use its kind names.
const (
	KindAccess  = "access"
	KindRefresh = "refresh"
)

// Claims holds the JWT payload fields. Subject is the credential email.
type Claims struct {
	Kind string `json:"kind"`
	jwt.RegisteredClaims
}

// Pair is an access/refresh token pair.
type Pair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Provider signs and verifies HS256 JWTs. Access and refresh tokens use
// separate secrets.
type Provider struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewProvider(cfg *config.Config) (*Provider, error) {
	if cfg.JWTAccessSecret == "" || cfg.JWTRefreshSecret == "" {
		return nil, errors.New("jwt: access and refresh secrets are required")
	}
	if cfg.JWTAccessSecret == cfg.JWTRefreshSecret {
		return nil, errors.New("jwt: access and refresh secrets must differ")
	}
	return &Provider{
		accessSecret:  []byte(cfg.JWTAccessSecret),
		refreshSecret: []byte(cfg.JWTRefreshSecret),
		accessTTL:     cfg.AccessTokenTTL,
		refreshTTL:    cfg.RefreshTokenTTL,
	}, nil
}

// Issue signs a fresh access/refresh pair for email.
func (p *Provider) Issue(email string) (Pair, error) {
	access, err := p.sign(email, KindAccess, p.accessTTL, p.accessSecret)
	if err != nil {
		return Pair{}, err
	}
	refresh, err := p.sign(email, KindRefresh, p.refreshTTL, p.refreshSecret)
	if err != nil {
		return Pair{}, err
	}
	return Pair{AccessToken: access, RefreshToken: refresh}, nil
}

// VerifyAccess returns the claims of a valid access token.
// Missing or malformed tokens yield domain.ErrUnauthorized; a bad signature,
// expiry or wrong kind yields domain.ErrForbidden.
func (p *Provider) VerifyAccess(tokenStr string) (*Claims, error) {
	return p.verify(tokenStr, KindAccess, p.accessSecret)
}

// VerifyRefresh is VerifyAccess for refresh tokens.
func (p *Provider) VerifyRefresh(tokenStr string) (*Claims, error) {
	return p.verify(tokenStr, KindRefresh, p.refreshSecret)
}

func (p *Provider) sign(email, kind string, ttl time.Duration, secret []byte) (string, error) {
	now := time.Now()
	claims := Claims{
		Kind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", kind, err)
	}
	return signed, nil
}

func (p *Provider) verify(tokenStr, kind string, secret []byte) (*Claims, error) {
	if tokenStr == "" {
		return nil, fmt.Errorf("missing token: %w", domain.ErrUnauthorized)
	}
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenMalformed) {
			return nil, fmt.Errorf("malformed token: %w", domain.ErrUnauthorized)
		}
		return nil, fmt.Errorf("invalid token: %v: %w", err, domain.ErrForbidden)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims: %w", domain.ErrForbidden)
	}
	if claims.Kind != kind || claims.Subject == "" {
		return nil, fmt.Errorf("token kind %q used as %q: %w", claims.Kind, kind, domain.ErrForbidden)
	}
	return claims, nil
}
