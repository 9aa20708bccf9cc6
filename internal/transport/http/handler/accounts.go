package handler

import (
	"net/http"

	"github.com/onepage-api/internal/application/registration"
	"github.com/onepage-api/internal/domain"
	"github.com/onepage-api/internal/pkg/validate"
)

// AccountHandler handles signup, code re-issue and email verification.
type AccountHandler struct {
	svc registration.Service
}

func NewAccountHandler(svc registration.Service) *AccountHandler {
	return &AccountHandler{svc: svc}
}

func (h *AccountHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req domain.SignUpRequest
	if !decode(w, r, &req) {
		return
	}
	if err := validate.Struct(req); err != nil {
		writeDomainError(w, r, err)
		return
	}
	ticket, err := h.svc.SignUp(r.Context(), req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, PendingEnvelope{
		Envelope:  ok("Verification code sent to your email"),
		Email:     req.Email,
		ExpiresAt: ticket.ExpiresAt,
	})
}

func (h *AccountHandler) ResendCode(w http.ResponseWriter, r *http.Request) {
	var req domain.ResendCodeRequest
	if !decode(w, r, &req) {
		return
	}
	if err := validate.Struct(req); err != nil {
		writeDomainError(w, r, err)
		return
	}
	ticket, err := h.svc.Resend(r.Context(), req.Email)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, PendingEnvelope{
		Envelope:  ok("Verification code re-sent"),
		Email:     req.Email,
		ExpiresAt: ticket.ExpiresAt,
	})
}

func (h *AccountHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req domain.VerifyEmailRequest
	if !decode(w, r, &req) {
		return
	}
	if err := validate.Struct(req); err != nil {
		writeDomainError(w, r, err)
		return
	}
	c, err := h.svc.Verify(r.Context(), req.Email, req.Code)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, UserEnvelope{Envelope: ok("Email verified"), User: c.Public()})
}
