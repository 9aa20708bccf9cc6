package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/onepage-api/internal/config"
	"github.com/onepage-api/internal/observability/metrics"
	"github.com/onepage-api/internal/transport/http/handler"
	appmiddleware "github.com/onepage-api/internal/transport/http/middleware"
)

const maxBodyBytes = 1 << 20

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(appmiddleware.ClientIP(cfg.TrustedProxies))
	r.Use(appmiddleware.RequestLogger(slog.Default()))
	r.Use(chimiddleware.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(appmiddleware.SecurityHeaders)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(appmiddleware.MaxBodySize(maxBodyBytes))
	r.Use(appmiddleware.RateLimit(deps.Limiter))

	healthH := handler.NewHealthHandler(deps.Ping)
	accountH := handler.NewAccountHandler(deps.Registration)
	sessionH := handler.NewSessionHandler(deps.Sessions)
	walletH := handler.NewWalletHandler(deps.Wallets)
	domainH := handler.NewDomainHandler(deps.Domains)
	liquidityH := handler.NewLiquidityHandler(deps.Liquidity)

	r.Get("/", healthH.Root)
	r.Get("/healthz", healthH.Healthz)
	r.Handle("/metrics", metrics.Handler())

	// ── Public routes (no auth) ──────────────────────────────────────────
	r.Post("/sign-up", accountH.SignUp)
	r.Post("/resend-code", accountH.ResendCode)
	r.Post("/verify-email", accountH.VerifyEmail)
	r.Post("/login", sessionH.Login)
	r.Post("/refresh-token", sessionH.Refresh)

	// ── Authenticated routes ─────────────────────────────────────────────
	r.Group(func(r chi.Router) {
		r.Use(appmiddleware.Auth(deps.Tokens))

		r.Post("/connect-wallet", walletH.Connect)
		r.Post("/domain/register", domainH.Register)
		r.Get("/domain/{username}", domainH.ListByUsername)

		r.Route("/liquidity", func(r chi.Router) {
			r.Post("/addPair", liquidityH.AddPair)
			r.Post("/removePair", liquidityH.RemovePair)
			r.Post("/deposit", liquidityH.Deposit)
			r.Post("/swap", liquidityH.Swap)
			r.Post("/withdraw", liquidityH.Withdraw)
		})
	})

	return r
}
