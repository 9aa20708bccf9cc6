package http

import (
	"context"

	"github.com/onepage-api/internal/application/domainconfig"
	"github.com/onepage-api/internal/application/liquidity"
	"github.com/onepage-api/internal/application/registration"
	"github.com/onepage-api/internal/application/session"
	"github.com/onepage-api/internal/application/wallet"
	"github.com/onepage-api/internal/transport/http/middleware"
)

// Deps holds the services and infrastructure the router serves.
type Deps struct {
	Registration registration.Service
	Sessions     session.Service
	Wallets      wallet.Service
	Domains      domainconfig.Service
	Liquidity    liquidity.Service

	// Tokens verifies access tokens on protected routes.
	Tokens middleware.AccessVerifier
	// Limiter enforces the global per-IP request budget.
	Limiter middleware.Limiter
	// Ping reports store health for /healthz. Optional.
	Ping func(ctx context.Context) error
}
