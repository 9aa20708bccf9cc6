package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/onepage-api/internal/application/session"
	"github.com/onepage-api/internal/domain"
	jwtinfra "github.com/onepage-api/internal/infrastructure/jwt"
	"github.com/onepage-api/internal/transport/http/middleware"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockRegistration struct{ mock.Mock }

func (m *mockRegistration) SignUp(ctx context.Context, req domain.SignUpRequest) (*domain.Ticket, error) {
	args := m.Called(ctx, req)
	if t, _ := args.Get(0).(*domain.Ticket); t != nil {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRegistration) BeginSignup(ctx context.Context, email, username, passwordHash string) (*domain.Ticket, error) {
	args := m.Called(ctx, email, username, passwordHash)
	if t, _ := args.Get(0).(*domain.Ticket); t != nil {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRegistration) Verify(ctx context.Context, email, code string) (*domain.Credential, error) {
	args := m.Called(ctx, email, code)
	if c, _ := args.Get(0).(*domain.Credential); c != nil {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRegistration) Resend(ctx context.Context, email string) (*domain.Ticket, error) {
	args := m.Called(ctx, email)
	if t, _ := args.Get(0).(*domain.Ticket); t != nil {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRegistration) PurgeExpired(ctx context.Context, now time.Time) (int, error) {
	args := m.Called(ctx, now)
	return args.Int(0), args.Error(1)
}

type mockSession struct{ mock.Mock }

func (m *mockSession) Login(ctx context.Context, email, password string) (*session.LoginResult, error) {
	args := m.Called(ctx, email, password)
	if r, _ := args.Get(0).(*session.LoginResult); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSession) Refresh(ctx context.Context, refreshToken string) (*jwtinfra.Pair, error) {
	args := m.Called(ctx, refreshToken)
	if p, _ := args.Get(0).(*jwtinfra.Pair); p != nil {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockWallet struct{ mock.Mock }

func (m *mockWallet) Connect(ctx context.Context, email, walletAddress string) (*domain.Credential, error) {
	args := m.Called(ctx, email, walletAddress)
	if c, _ := args.Get(0).(*domain.Credential); c != nil {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockDomains struct{ mock.Mock }

func (m *mockDomains) Register(ctx context.Context, req domain.RegisterDomainRequest) (*domain.DomainConfig, error) {
	args := m.Called(ctx, req)
	if d, _ := args.Get(0).(*domain.DomainConfig); d != nil {
		return d, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockDomains) ListByUsername(ctx context.Context, username string) ([]domain.DomainConfig, error) {
	args := m.Called(ctx, username)
	list, _ := args.Get(0).([]domain.DomainConfig)
	return list, args.Error(1)
}

type mockLiquidity struct{ mock.Mock }

func (m *mockLiquidity) receipt(args mock.Arguments) (*domain.TxReceipt, error) {
	if r, _ := args.Get(0).(*domain.TxReceipt); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockLiquidity) AddPair(ctx context.Context, req domain.AddPairRequest) (*domain.TxReceipt, error) {
	return m.receipt(m.Called(ctx, req))
}

func (m *mockLiquidity) RemovePair(ctx context.Context, req domain.RemovePairRequest) (*domain.TxReceipt, error) {
	return m.receipt(m.Called(ctx, req))
}

func (m *mockLiquidity) Deposit(ctx context.Context, req domain.PairAmountsRequest) (*domain.TxReceipt, error) {
	return m.receipt(m.Called(ctx, req))
}

func (m *mockLiquidity) Swap(ctx context.Context, req domain.SwapRequest) (*domain.TxReceipt, error) {
	return m.receipt(m.Called(ctx, req))
}

func (m *mockLiquidity) Withdraw(ctx context.Context, req domain.PairAmountsRequest) (*domain.TxReceipt, error) {
	return m.receipt(m.Called(ctx, req))
}

// --- helpers ---

func jsonReq(t *testing.T, method, target string, body interface{}) *http.Request {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	return httptest.NewRequest(method, target, bytes.NewReader(raw))
}

// withClaims puts access claims for email into the request context.
func withClaims(r *http.Request, email string) *http.Request {
	claims := &jwtinfra.Claims{Kind: jwtinfra.KindAccess}
	claims.Subject = email
	return r.WithContext(context.WithValue(r.Context(), middleware.ClaimsKey, claims))
}

// withURLParam injects a chi URL param into the request context.
func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	return body
}
