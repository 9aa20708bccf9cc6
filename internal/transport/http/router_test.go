package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/onepage-api/internal/application/domainconfig"
	"github.com/onepage-api/internal/application/liquidity"
	"github.com/onepage-api/internal/application/registration"
	"github.com/onepage-api/internal/application/session"
	"github.com/onepage-api/internal/application/wallet"
	"github.com/onepage-api/internal/config"
	jwtinfra "github.com/onepage-api/internal/infrastructure/jwt"
	"github.com/onepage-api/internal/infrastructure/memory"
	"github.com/onepage-api/internal/transport/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// inbox records the last code delivered to each address.
type inbox struct {
	mu    sync.Mutex
	codes map[string]string
	next  string
}

func (i *inbox) GenerateCode() string { return i.next }

func (i *inbox) Deliver(_ context.Context, email, code string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.codes[email] = code
	return nil
}

type testServer struct {
	handler http.Handler
	tokens  *jwtinfra.Provider
	inbox   *inbox
}

func newTestServer(t *testing.T, cfg *config.Config, limiter middleware.Limiter) *testServer {
	t.Helper()
	tokens, err := jwtinfra.NewProvider(cfg)
	require.NoError(t, err)

	store := memory.NewStore()
	box := &inbox{codes: map[string]string{}, next: "123456"}
	deps := &Deps{
		Registration: registration.NewService(registration.ServiceDeps{
			Pending: store.Pending,
			Issuer:  box,
			CodeTTL: cfg.VerificationCodeTTL,
		}),
		Sessions:  session.NewService(store.Credentials, tokens),
		Wallets:   wallet.NewService(store.Credentials),
		Domains:   domainconfig.NewService(domainconfig.ServiceDeps{Domains: store.Domains}),
		Liquidity: liquidity.NewService(nil),
		Tokens:    tokens,
		Limiter:   limiter,
	}
	return &testServer{handler: NewRouter(cfg, deps), tokens: tokens, inbox: box}
}

func testConfig() *config.Config {
	return &config.Config{
		JWTAccessSecret:     "access-secret",
		JWTRefreshSecret:    "refresh-secret",
		AccessTokenTTL:      15 * time.Minute,
		RefreshTokenTTL:     time.Hour,
		VerificationCodeTTL: 10 * time.Minute,
		AllowedOrigins:      []string{"*"},
	}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}, token string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)

	out := map[string]interface{}{}
	if rr.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	}
	return rr, out
}

func TestRouter_SignupVerifyLogin(t *testing.T) {
	s := newTestServer(t, testConfig(), middleware.NewMemoryLimiter(1000, time.Minute))
	signup := map[string]string{"email": "a@b.com", "username": "abc123", "password": "secret"}

	rr, body := s.do(t, http.MethodPost, "/sign-up", signup, "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "123456", s.inbox.codes["a@b.com"])

	rr, body = s.do(t, http.MethodPost, "/verify-email", map[string]string{"email": "a@b.com", "code": "000000"}, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Invalid verification code", body["error"])

	rr, _ = s.do(t, http.MethodPost, "/verify-email", map[string]string{"email": "a@b.com", "code": "123456"}, "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr, body = s.do(t, http.MethodPost, "/sign-up", signup, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Email already registered", body["error"])

	rr, body = s.do(t, http.MethodPost, "/login", map[string]string{"email": "a@b.com", "password": "wrong!"}, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "Incorrect password", body["error"])

	rr, body = s.do(t, http.MethodPost, "/login", map[string]string{"email": "a@b.com", "password": "secret"}, "")
	require.Equal(t, http.StatusOK, rr.Code)
	access, _ := body["accessToken"].(string)
	refresh, _ := body["refreshToken"].(string)
	require.NotEmpty(t, access)
	require.NotEmpty(t, refresh)

	rr, body = s.do(t, http.MethodPost, "/refresh-token", map[string]string{"refreshToken": refresh}, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.NotEmpty(t, body["accessToken"])
}

func TestRouter_ProtectedRoutes(t *testing.T) {
	s := newTestServer(t, testConfig(), middleware.NewMemoryLimiter(1000, time.Minute))
	pair, err := s.tokens.Issue("a@b.com")
	require.NoError(t, err)

	rr, body := s.do(t, http.MethodGet, "/domain/abc123", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, false, body["success"])

	rr, _ = s.do(t, http.MethodGet, "/domain/abc123", nil, pair.RefreshToken)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr, _ = s.do(t, http.MethodGet, "/domain/abc123", nil, pair.AccessToken)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRouter_ExpiredAccessToken(t *testing.T) {
	cfg := testConfig()
	cfg.AccessTokenTTL = -time.Minute
	s := newTestServer(t, cfg, middleware.NewMemoryLimiter(1000, time.Minute))
	pair, err := s.tokens.Issue("a@b.com")
	require.NoError(t, err)

	rr, body := s.do(t, http.MethodPost, "/connect-wallet", map[string]string{"walletAddress": "0x52908400098527886E0F7030069857D2E4169EE7"}, pair.AccessToken)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, "Forbidden", body["error"])
}

func TestRouter_DomainRegisteredTwice(t *testing.T) {
	s := newTestServer(t, testConfig(), middleware.NewMemoryLimiter(1000, time.Minute))
	pair, err := s.tokens.Issue("a@b.com")
	require.NoError(t, err)
	req := map[string]interface{}{"username": "abc123", "domain": "my-shop", "swapConfig": map[string]interface{}{"fee": 0.3}}

	rr, body := s.do(t, http.MethodPost, "/domain/register", req, pair.AccessToken)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "simple", data["template"])

	rr, body = s.do(t, http.MethodPost, "/domain/register", req, pair.AccessToken)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Domain already taken", body["error"])

	rr, body = s.do(t, http.MethodGet, "/domain/abc123", nil, pair.AccessToken)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, body["data"], 1)
}

func TestRouter_LiquidityWithoutChain(t *testing.T) {
	s := newTestServer(t, testConfig(), middleware.NewMemoryLimiter(1000, time.Minute))
	pair, err := s.tokens.Issue("a@b.com")
	require.NoError(t, err)
	token := "0x52908400098527886E0F7030069857D2E4169EE7"

	rr, body := s.do(t, http.MethodPost, "/liquidity/swap", map[string]interface{}{
		"tokenIn": token, "tokenOut": token, "amountIn": "0", "minAmountOut": "1",
	}, pair.AccessToken)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "amountIn", body["field"])

	rr, body = s.do(t, http.MethodPost, "/liquidity/swap", map[string]interface{}{
		"tokenIn": token, "tokenOut": token, "amountIn": "10", "minAmountOut": "1",
	}, pair.AccessToken)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "Blockchain transaction failed", body["error"])
}

func TestRouter_RateLimited(t *testing.T) {
	limiter := middleware.NewMemoryLimiter(2, time.Hour)
	defer limiter.Close()
	s := newTestServer(t, testConfig(), limiter)

	for i := 0; i < 2; i++ {
		rr, _ := s.do(t, http.MethodGet, "/", nil, "")
		require.Equal(t, http.StatusOK, rr.Code)
	}
	rr, body := s.do(t, http.MethodGet, "/", nil, "")
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "Too many requests, please try again later", body["error"])
}

func TestRouter_SpoofedForwardedForStillLimited(t *testing.T) {
	limiter := middleware.NewMemoryLimiter(2, time.Hour)
	defer limiter.Close()
	s := newTestServer(t, testConfig(), limiter)

	passed := 0
	for i := 0; i < 50; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "203.0.113.7:40000"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("10.0.0.%d", i))
		req.Header.Set("X-Real-Ip", fmt.Sprintf("10.0.1.%d", i))
		rr := httptest.NewRecorder()
		s.handler.ServeHTTP(rr, req)
		if rr.Code == http.StatusOK {
			passed++
		} else {
			require.Equal(t, http.StatusTooManyRequests, rr.Code)
		}
	}
	assert.Equal(t, 2, passed)
}

func TestRouter_TrustedProxyForwardsClientIP(t *testing.T) {
	cfg := testConfig()
	cfg.TrustedProxies = []string{"10.1.0.0/16"}
	limiter := middleware.NewMemoryLimiter(1, time.Hour)
	defer limiter.Close()
	s := newTestServer(t, cfg, limiter)

	send := func(client string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.1.2.3:443"
		req.Header.Set("X-Forwarded-For", client)
		rr := httptest.NewRecorder()
		s.handler.ServeHTTP(rr, req)
		return rr.Code
	}
	assert.Equal(t, http.StatusOK, send("198.51.100.1"))
	assert.Equal(t, http.StatusTooManyRequests, send("198.51.100.1"))
	assert.Equal(t, http.StatusOK, send("198.51.100.2"), "callers behind the proxy have separate budgets")
}

func TestRouter_SecurityHeadersAndBanner(t *testing.T) {
	s := newTestServer(t, testConfig(), middleware.NewMemoryLimiter(1000, time.Minute))
	rr, _ := s.do(t, http.MethodGet, "/", nil, "")
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.Contains(t, rr.Body.String(), "OnePage API Running")
}
