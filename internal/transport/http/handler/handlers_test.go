package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/onepage-api/internal/application/session"
	"github.com/onepage-api/internal/domain"
	jwtinfra "github.com/onepage-api/internal/infrastructure/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testWallet = "0x52908400098527886E0F7030069857D2E4169EE7"

// --- sessions ---

func TestLogin_StatusMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		msg    string
	}{
		{domain.ErrUserNotFound, http.StatusNotFound, "User not found"},
		{domain.ErrBadPassword, http.StatusUnauthorized, "Incorrect password"},
	}
	for _, tc := range cases {
		svc := &mockSession{}
		svc.On("Login", mock.Anything, "a@b.com", "secret").Return(nil, tc.err)
		rr := httptest.NewRecorder()
		NewSessionHandler(svc).Login(rr, jsonReq(t, http.MethodPost, "/login", map[string]string{
			"email": "a@b.com", "password": "secret",
		}))
		assert.Equal(t, tc.status, rr.Code)
		assert.Equal(t, tc.msg, decodeBody(t, rr)["error"])
	}
}

func TestLogin_MissingPassword(t *testing.T) {
	rr := httptest.NewRecorder()
	NewSessionHandler(&mockSession{}).Login(rr, jsonReq(t, http.MethodPost, "/login", map[string]string{"email": "a@b.com"}))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "password is required", decodeBody(t, rr)["error"])
}

func TestLogin_HappyPath(t *testing.T) {
	svc := &mockSession{}
	svc.On("Login", mock.Anything, "a@b.com", "secret").Return(&session.LoginResult{
		AccessToken: "acc", RefreshToken: "ref",
		User: domain.PublicUser{Email: "a@b.com", Username: "abc123"},
	}, nil)
	rr := httptest.NewRecorder()
	NewSessionHandler(svc).Login(rr, jsonReq(t, http.MethodPost, "/login", map[string]string{
		"email": "a@b.com", "password": "secret",
	}))

	require.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody(t, rr)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "acc", body["accessToken"])
	assert.Equal(t, "ref", body["refreshToken"])
	assert.Equal(t, "abc123", body["user"].(map[string]interface{})["username"])
}

func TestRefresh(t *testing.T) {
	svc := &mockSession{}
	svc.On("Refresh", mock.Anything, "bad").Return(nil, domain.ErrForbidden)
	svc.On("Refresh", mock.Anything, "good").Return(&jwtinfra.Pair{AccessToken: "a2", RefreshToken: "r2"}, nil)
	h := NewSessionHandler(svc)

	rr := httptest.NewRecorder()
	h.Refresh(rr, jsonReq(t, http.MethodPost, "/refresh-token", map[string]string{}))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = httptest.NewRecorder()
	h.Refresh(rr, jsonReq(t, http.MethodPost, "/refresh-token", map[string]string{"refreshToken": "bad"}))
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = httptest.NewRecorder()
	h.Refresh(rr, jsonReq(t, http.MethodPost, "/refresh-token", map[string]string{"refreshToken": "good"}))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "a2", decodeBody(t, rr)["accessToken"])
}

// --- wallet ---

func TestConnectWallet_Missing(t *testing.T) {
	rr := httptest.NewRecorder()
	req := withClaims(jsonReq(t, http.MethodPost, "/connect-wallet", map[string]string{}), "a@b.com")
	NewWalletHandler(&mockWallet{}).Connect(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Wallet address is required", decodeBody(t, rr)["error"])
}

func TestConnectWallet_Invalid(t *testing.T) {
	rr := httptest.NewRecorder()
	req := withClaims(jsonReq(t, http.MethodPost, "/connect-wallet", map[string]string{"walletAddress": "0x12"}), "a@b.com")
	NewWalletHandler(&mockWallet{}).Connect(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Invalid wallet address", decodeBody(t, rr)["error"])
}

func TestConnectWallet_UsesTokenSubject(t *testing.T) {
	svc := &mockWallet{}
	addr := testWallet
	svc.On("Connect", mock.Anything, "a@b.com", testWallet).Return(&domain.Credential{Email: "a@b.com", WalletAddress: &addr}, nil)
	rr := httptest.NewRecorder()
	req := withClaims(jsonReq(t, http.MethodPost, "/connect-wallet", map[string]string{"walletAddress": testWallet}), "a@b.com")
	NewWalletHandler(svc).Connect(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody(t, rr)
	assert.Equal(t, "Wallet connected successfully", body["message"])
	assert.Equal(t, testWallet, body["walletAddress"])
	svc.AssertExpectations(t)
}

func TestConnectWallet_NoClaims(t *testing.T) {
	rr := httptest.NewRecorder()
	NewWalletHandler(&mockWallet{}).Connect(rr, jsonReq(t, http.MethodPost, "/connect-wallet", map[string]string{"walletAddress": testWallet}))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

// --- domains ---

func TestRegisterDomain_Taken(t *testing.T) {
	svc := &mockDomains{}
	svc.On("Register", mock.Anything, mock.Anything).Return(nil, domain.ErrDomainTaken)
	rr := httptest.NewRecorder()
	NewDomainHandler(svc).Register(rr, jsonReq(t, http.MethodPost, "/domain/register", map[string]interface{}{
		"username": "abc123", "domain": "my-shop", "swapConfig": map[string]interface{}{"theme": "dark"},
	}))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Domain already taken", decodeBody(t, rr)["error"])
}

func TestRegisterDomain_HappyPath(t *testing.T) {
	svc := &mockDomains{}
	svc.On("Register", mock.Anything, mock.MatchedBy(func(req domain.RegisterDomainRequest) bool {
		return req.Domain == "my-shop" && req.SwapConfig["theme"] == "dark"
	})).Return(&domain.DomainConfig{Domain: "my-shop", Username: "abc123", Template: domain.TemplateSimple}, nil)
	rr := httptest.NewRecorder()
	NewDomainHandler(svc).Register(rr, jsonReq(t, http.MethodPost, "/domain/register", map[string]interface{}{
		"username": "abc123", "domain": "my-shop", "swapConfig": map[string]interface{}{"theme": "dark"},
	}))

	assert.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody(t, rr)
	assert.Equal(t, "Domain registered", body["message"])
	assert.Equal(t, "my-shop", body["data"].(map[string]interface{})["domain"])
}

func TestListDomains(t *testing.T) {
	svc := &mockDomains{}
	svc.On("ListByUsername", mock.Anything, "abc123").Return([]domain.DomainConfig{{Domain: "my-shop"}}, nil)
	svc.On("ListByUsername", mock.Anything, "a!").Return(nil,
		domain.NewValidationError("username", "username", "Invalid username format"))
	h := NewDomainHandler(svc)

	rr := httptest.NewRecorder()
	h.ListByUsername(rr, withURLParam(httptest.NewRequest(http.MethodGet, "/domain/abc123", nil), "username", "abc123"))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decodeBody(t, rr)["data"], 1)

	rr = httptest.NewRecorder()
	h.ListByUsername(rr, withURLParam(httptest.NewRequest(http.MethodGet, "/domain/a!", nil), "username", "a!"))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Invalid username format", decodeBody(t, rr)["error"])
}

// --- liquidity ---

func TestLiquidity_Swap(t *testing.T) {
	svc := &mockLiquidity{}
	svc.On("Swap", mock.Anything, mock.Anything).Return(&domain.TxReceipt{TxHash: "0xabc", BlockNumber: 7}, nil)
	rr := httptest.NewRecorder()
	NewLiquidityHandler(svc).Swap(rr, jsonReq(t, http.MethodPost, "/liquidity/swap", map[string]interface{}{
		"tokenIn": testWallet, "tokenOut": testWallet, "amountIn": 10, "minAmountOut": "9",
	}))

	assert.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody(t, rr)
	assert.Equal(t, "Swap successful", body["message"])
	assert.Equal(t, "0xabc", body["txHash"])
}

func TestLiquidity_ChainFailure(t *testing.T) {
	svc := &mockLiquidity{}
	svc.On("Deposit", mock.Anything, mock.Anything).Return(nil, errors.Join(errors.New("execution reverted"), domain.ErrChain))
	rr := httptest.NewRecorder()
	NewLiquidityHandler(svc).Deposit(rr, jsonReq(t, http.MethodPost, "/liquidity/deposit", map[string]interface{}{
		"tokenA": testWallet, "tokenB": testWallet, "amountA": 1, "amountB": 2,
	}))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "Blockchain transaction failed", decodeBody(t, rr)["error"])
	assert.NotContains(t, rr.Body.String(), "reverted")
}

// --- health ---

func TestHealth(t *testing.T) {
	rr := httptest.NewRecorder()
	NewHealthHandler(nil).Root(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, Banner, rr.Body.String())

	rr = httptest.NewRecorder()
	NewHealthHandler(func(context.Context) error { return errors.New("down") }).
		Healthz(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

	rr = httptest.NewRecorder()
	NewHealthHandler(func(context.Context) error { return nil }).
		Healthz(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}
