package handler

import (
	"net/http"

	"github.com/onepage-api/internal/application/wallet"
	"github.com/onepage-api/internal/domain"
	"github.com/onepage-api/internal/pkg/validate"
	"github.com/onepage-api/internal/transport/http/middleware"
)

type WalletHandler struct {
	svc wallet.Service
}

func NewWalletHandler(svc wallet.Service) *WalletHandler { return &WalletHandler{svc: svc} }

func (h *WalletHandler) Connect(w http.ResponseWriter, r *http.Request) {
	claims, authed := middleware.ClaimsFromContext(r.Context())
	if !authed {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	var req domain.ConnectWalletRequest
	if !decode(w, r, &req) {
		return
	}
	if req.WalletAddress == "" {
		writeJSON(w, http.StatusBadRequest, Envelope{Error: "Wallet address is required", Field: "walletAddress"})
		return
	}
	if err := validate.Struct(req); err != nil {
		writeDomainError(w, r, err)
		return
	}
	c, err := h.svc.Connect(r.Context(), claims.Subject, req.WalletAddress)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, WalletEnvelope{
		Envelope:      ok("Wallet connected successfully"),
		WalletAddress: *c.WalletAddress,
	})
}
