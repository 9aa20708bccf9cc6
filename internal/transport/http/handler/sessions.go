package handler

import (
	"net/http"

	"github.com/onepage-api/internal/application/session"
	"github.com/onepage-api/internal/domain"
	"github.com/onepage-api/internal/pkg/validate"
)

// SessionHandler handles login and token refresh.
type SessionHandler struct {
	svc session.Service
}

func NewSessionHandler(svc session.Service) *SessionHandler {
	return &SessionHandler{svc: svc}
}

func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if !decode(w, r, &req) {
		return
	}
	if err := validate.Struct(req); err != nil {
		writeDomainError(w, r, err)
		return
	}
	res, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, TokensEnvelope{
		Envelope:     Envelope{Success: true},
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		User:         &res.User,
	})
}

func (h *SessionHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req domain.RefreshRequest
	if !decode(w, r, &req) {
		return
	}
	if req.RefreshToken == "" {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	pair, err := h.svc.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, TokensEnvelope{
		Envelope:     Envelope{Success: true},
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}
