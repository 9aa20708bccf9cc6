package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

// Store drivers.
const (
	StoreDynamo = "dynamo"
	StoreMemory = "memory"
)

// Mail drivers.
const (
	MailMailgun = "mailgun"
	MailSMTP    = "smtp"
	MailLog     = "log"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort string
	AppEnv  string

	StoreDriver    string
	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTables   DynamoTables

	JWTAccessSecret     string
	JWTRefreshSecret    string
	AccessTokenTTL      time.Duration
	RefreshTokenTTL     time.Duration
	VerificationCodeTTL time.Duration
	PendingSweepEvery   time.Duration

	MailDriver     string
	MailgunDomain  string
	MailgunAPIKey  string
	MailgunAPIBase string
	SMTPHost       string
	SMTPPort       string
	SMTPFrom       string
	SMTPUsername   string
	SMTPPassword   string

	ChainRPCURL     string
	ChainID         int64
	ChainPrivateKey string
	ContractAddress string
	ChainTimeout    time.Duration

	SiteBucket        string // optional; swap configs are published here when set
	DomainEventsTopic string // optional SNS topic ARN for domain.registered events
	RedisURL          string // optional; enables the shared rate-limit window
	RateLimitMax      int
	RateLimitWindow   time.Duration
	AllowedOrigins    []string // CORS allowed origins
	TrustedProxies    []string // CIDRs or IPs whose X-Forwarded-For is honoured
	MetricsEnabled    bool
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Credentials          string
	PendingRegistrations string
	Domains              string
	UniqueKeys           string
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort: getEnv("APP_PORT", "5000"),
		AppEnv:  getEnv("APP_ENV", "development"),

		StoreDriver:    getEnv("STORE_DRIVER", StoreDynamo),
		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			Credentials:          getEnv("DYNAMO_TABLE_CREDENTIALS", "credentials"),
			PendingRegistrations: getEnv("DYNAMO_TABLE_PENDING_REGISTRATIONS", "pending_registrations"),
			Domains:              getEnv("DYNAMO_TABLE_DOMAINS", "domains"),
			UniqueKeys:           getEnv("DYNAMO_TABLE_UNIQUE_KEYS", "unique_keys"),
		},

		JWTAccessSecret:     getEnv("JWT_ACCESS_SECRET", ""),
		JWTRefreshSecret:    getEnv("JWT_REFRESH_SECRET", ""),
		AccessTokenTTL:      getEnvDuration("ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTokenTTL:     getEnvDuration("REFRESH_TOKEN_TTL", 7*24*time.Hour),
		VerificationCodeTTL: getEnvDuration("VERIFICATION_CODE_TTL", 10*time.Minute),
		PendingSweepEvery:   getEnvDuration("PENDING_SWEEP_INTERVAL", 5*time.Minute),

		MailDriver:     getEnv("MAIL_DRIVER", MailMailgun),
		MailgunDomain:  getEnv("MAILGUN_DOMAIN", ""),
		MailgunAPIKey:  getEnv("MAILGUN_API_KEY", ""),
		MailgunAPIBase: getEnv("MAILGUN_API_BASE", ""),
		SMTPHost:       getEnv("SMTP_HOST", "localhost"),
		SMTPPort:       getEnv("SMTP_PORT", "1025"),
		SMTPFrom:       getEnv("SMTP_FROM", "noreply@example.com"),
		SMTPUsername:   getEnv("SMTP_USERNAME", ""),
		SMTPPassword:   getEnv("SMTP_PASSWORD", ""),

		ChainRPCURL:     getEnv("CHAIN_RPC_URL", "https://data-seed-prebsc-1-s1.binance.org:8545/"),
		ChainID:         int64(getEnvInt("CHAIN_ID", 97)),
		ChainPrivateKey: getEnv("CHAIN_PRIVATE_KEY", ""),
		ContractAddress: getEnv("CONTRACT_ADDRESS", ""),
		ChainTimeout:    getEnvDuration("CHAIN_TIMEOUT", 2*time.Minute),

		SiteBucket:        getEnv("SITE_BUCKET", ""),
		DomainEventsTopic: getEnv("DOMAIN_EVENTS_TOPIC_ARN", ""),
		RedisURL:          getEnv("REDIS_URL", ""),
		RateLimitMax:      getEnvInt("RATE_LIMIT_MAX", 100),
		RateLimitWindow:   getEnvDuration("RATE_LIMIT_WINDOW", 15*time.Minute),
		AllowedOrigins:    strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
		TrustedProxies:    getEnvList("TRUSTED_PROXIES"),
		MetricsEnabled:    getEnvBool("METRICS_ENABLED", true),
	}
}

// Validate rejects configurations the service cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.JWTAccessSecret == "" {
		errs = append(errs, errors.New("JWT_ACCESS_SECRET is required"))
	}
	if c.JWTRefreshSecret == "" {
		errs = append(errs, errors.New("JWT_REFRESH_SECRET is required"))
	}
	if c.JWTAccessSecret != "" && c.JWTAccessSecret == c.JWTRefreshSecret {
		errs = append(errs, errors.New("JWT_ACCESS_SECRET and JWT_REFRESH_SECRET must differ"))
	}
	switch c.StoreDriver {
	case StoreDynamo, StoreMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver))
	}
	switch c.MailDriver {
	case MailMailgun:
		if c.MailgunDomain == "" || c.MailgunAPIKey == "" {
			errs = append(errs, errors.New("MAILGUN_DOMAIN and MAILGUN_API_KEY are required for the mailgun driver"))
		}
	case MailSMTP, MailLog:
	default:
		errs = append(errs, fmt.Errorf("unknown MAIL_DRIVER %q", c.MailDriver))
	}
	for _, p := range c.TrustedProxies {
		if _, _, err := net.ParseCIDR(p); err != nil && net.ParseIP(p) == nil {
			errs = append(errs, fmt.Errorf("TRUSTED_PROXIES: %q is not a CIDR or IP", p))
		}
	}
	if c.RateLimitMax < 1 || c.RateLimitWindow <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_MAX and RATE_LIMIT_WINDOW must be positive"))
	}
	return errors.Join(errs...)
}

// ChainEnabled reports whether the liquidity routes can submit transactions.
func (c *Config) ChainEnabled() bool {
	return c.ChainPrivateKey != "" && c.ContractAddress != ""
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getEnvList splits a comma-separated variable, dropping empty entries.
func getEnvList(key string) []string {
	var out []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
