package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/onepage-api/internal/domain"
	"github.com/onepage-api/internal/transport/http/middleware"
)

// Envelope is the common response wrapper. Success responses embed it and add
// their own fields.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	Field   string `json:"field,omitempty"`
}

// PendingEnvelope answers signup and resend.
type PendingEnvelope struct {
	Envelope
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// UserEnvelope answers email verification.
type UserEnvelope struct {
	Envelope
	User domain.PublicUser `json:"user"`
}

// TokensEnvelope answers login and refresh.
type TokensEnvelope struct {
	Envelope
	AccessToken  string             `json:"accessToken"`
	RefreshToken string             `json:"refreshToken"`
	User         *domain.PublicUser `json:"user,omitempty"`
}

type WalletEnvelope struct {
	Envelope
	WalletAddress string `json:"walletAddress"`
}

type DataEnvelope struct {
	Envelope
	Data interface{} `json:"data"`
}

// TxEnvelope answers liquidity operations.
type TxEnvelope struct {
	Envelope
	TxHash      string `json:"txHash"`
	BlockNumber uint64 `json:"blockNumber"`
}

func ok(msg string) Envelope { return Envelope{Success: true, Message: msg} }

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, Envelope{Error: msg})
}

// writeDomainError maps err onto a status code and its public message.
// Errors without a domain sentinel are logged and reported opaquely.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		writeJSON(w, http.StatusBadRequest, Envelope{Error: ve.Error(), Field: ve.Field})
		return
	}

	status := statusFor(err)
	msg := domain.PublicMessage(err)
	if status == http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "err", err)
	}
	if msg == "" {
		msg = "Internal Server Error"
	}
	writeError(w, status, msg)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrBadRequest), errors.Is(err, domain.ErrConflict):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// decode reads the JSON body into dst, writing a 400 (or 413) on failure.
func decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if middleware.IsBodyTooLarge(err) {
			writeError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}
