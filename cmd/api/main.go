package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/joho/godotenv"
	"github.com/onepage-api/internal/application/domainconfig"
	"github.com/onepage-api/internal/application/liquidity"
	"github.com/onepage-api/internal/application/registration"
	"github.com/onepage-api/internal/application/session"
	"github.com/onepage-api/internal/application/verification"
	"github.com/onepage-api/internal/application/wallet"
	"github.com/onepage-api/internal/config"
	"github.com/onepage-api/internal/domain"
	"github.com/onepage-api/internal/infrastructure/chain"
	"github.com/onepage-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/onepage-api/internal/infrastructure/jwt"
	"github.com/onepage-api/internal/infrastructure/mail"
	"github.com/onepage-api/internal/infrastructure/memory"
	"github.com/onepage-api/internal/infrastructure/redisclient"
	s3infra "github.com/onepage-api/internal/infrastructure/s3"
	"github.com/onepage-api/internal/infrastructure/sns"
	"github.com/onepage-api/internal/observability/metrics"
	transporthttp "github.com/onepage-api/internal/transport/http"
	"github.com/onepage-api/internal/transport/http/middleware"
)

type credentialRepo interface {
	GetByEmail(ctx context.Context, email string) (*domain.Credential, error)
	SetWallet(ctx context.Context, email, walletAddress string) (*domain.Credential, error)
}

type domainRepo interface {
	Create(ctx context.Context, d *domain.DomainConfig) error
	ListByUsername(ctx context.Context, username string) ([]domain.DomainConfig, error)
}

// stores is the persistence layer selected by STORE_DRIVER.
type stores struct {
	credentials credentialRepo
	pending     registration.PendingStore
	domains     domainRepo
	ping        func(ctx context.Context) error
}

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "No .env file found, reading from environment")
	}

	cfg := config.Load()
	setupLogger(cfg)
	if err := cfg.Validate(); err != nil {
		fatal("invalid configuration", err)
	}
	metrics.Init(cfg.MetricsEnabled)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var awsCfg aws.Config
	if cfg.StoreDriver == config.StoreDynamo || cfg.SiteBucket != "" || cfg.DomainEventsTopic != "" {
		var err error
		if awsCfg, err = dynamo.LoadAWSConfig(ctx, cfg); err != nil {
			fatal("aws config", err)
		}
	}

	st, err := openStores(ctx, cfg, awsCfg)
	if err != nil {
		fatal("store unavailable", err)
	}

	mailer, err := mail.NewMailer(cfg)
	if err != nil {
		fatal("mailer", err)
	}
	tokens, err := jwtinfra.NewProvider(cfg)
	if err != nil {
		fatal("jwt provider", err)
	}

	registrationSvc := registration.NewService(registration.ServiceDeps{
		Pending: st.pending,
		Issuer:  verification.NewIssuer(mailer, cfg.VerificationCodeTTL),
		CodeTTL: cfg.VerificationCodeTTL,
	})

	domainDeps := domainconfig.ServiceDeps{Domains: st.domains}
	if cfg.SiteBucket != "" {
		domainDeps.Site = s3infra.NewStore(s3infra.NewClient(awsCfg, cfg), cfg.SiteBucket)
	}
	if cfg.DomainEventsTopic != "" {
		domainDeps.Events = sns.NewPublisher(sns.NewClient(awsCfg, cfg), cfg.DomainEventsTopic)
	}

	liquiditySvc := liquidity.NewService(nil)
	if cfg.ChainEnabled() {
		client, err := chain.Dial(ctx, cfg)
		if err != nil {
			fatal("chain rpc", err)
		}
		defer client.Close()
		contract, err := chain.New(client, cfg)
		if err != nil {
			fatal("chain contract", err)
		}
		slog.Info("chain enabled", "contract", cfg.ContractAddress, "sender", contract.Sender().Hex())
		liquiditySvc = liquidity.NewService(contract)
	} else {
		slog.Warn("CHAIN_PRIVATE_KEY or CONTRACT_ADDRESS not set; liquidity routes will fail")
	}

	limiter, closeLimiter, err := newLimiter(ctx, cfg)
	if err != nil {
		fatal("rate limiter", err)
	}
	defer closeLimiter()

	deps := &transporthttp.Deps{
		Registration: registrationSvc,
		Sessions:     session.NewService(st.credentials, tokens),
		Wallets:      wallet.NewService(st.credentials),
		Domains:      domainconfig.NewService(domainDeps),
		Liquidity:    liquiditySvc,
		Tokens:       tokens,
		Limiter:      limiter,
		Ping:         st.ping,
	}

	go registration.NewSweeper(registrationSvc, cfg.PendingSweepEvery).Run(ctx)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      transporthttp.NewRouter(cfg, deps),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 3 * time.Minute, // liquidity routes wait for the receipt
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", cfg.AppPort, "env", cfg.AppEnv, "store", cfg.StoreDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal("server error", err)
		}
	}()

	<-ctx.Done()

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "err", err)
	}
	slog.Info("server stopped")
}

func setupLogger(cfg *config.Config) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	var h slog.Handler = slog.NewTextHandler(os.Stdout, opts)
	if cfg.AppEnv == "production" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(h))
}

func openStores(ctx context.Context, cfg *config.Config, awsCfg aws.Config) (*stores, error) {
	if cfg.StoreDriver == config.StoreMemory {
		slog.Warn("using in-memory store; data is lost on restart")
		m := memory.NewStore()
		return &stores{credentials: m.Credentials, pending: m.Pending, domains: m.Domains}, nil
	}

	client := dynamo.NewClient(awsCfg, cfg)
	dynamo.Bootstrap(ctx, client, cfg.DynamoTables)
	if err := dynamo.Ping(ctx, client, cfg.DynamoTables); err != nil {
		return nil, err
	}
	tables := cfg.DynamoTables
	return &stores{
		credentials: dynamo.NewCredentialRepo(client, tables.Credentials),
		pending:     dynamo.NewPendingRepo(client, tables),
		domains:     dynamo.NewDomainRepo(client, tables.Domains, tables.UniqueKeys),
		ping: func(ctx context.Context) error {
			return dynamo.Ping(ctx, client, tables)
		},
	}, nil
}

// newLimiter returns the shared Redis window when REDIS_URL is set and an
// in-process token bucket otherwise.
func newLimiter(ctx context.Context, cfg *config.Config) (middleware.Limiter, func(), error) {
	client, err := redisclient.New(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	if client != nil {
		slog.Info("rate limit window shared via redis")
		return middleware.NewRedisLimiter(client, cfg.RateLimitMax, cfg.RateLimitWindow), func() { _ = client.Close() }, nil
	}
	l := middleware.NewMemoryLimiter(cfg.RateLimitMax, cfg.RateLimitWindow)
	return l, l.Close, nil
}

func fatal(msg string, err error) {
	slog.Error(msg, "err", err)
	os.Exit(1)
}
