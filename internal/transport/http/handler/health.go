package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

const Banner = "🚀 OnePage API Running"

// HealthHandler serves the banner and the readiness check.
type HealthHandler struct {
	ping func(ctx context.Context) error
}

// NewHealthHandler takes an optional store ping used by Healthz.
func NewHealthHandler(ping func(ctx context.Context) error) *HealthHandler {
	return &HealthHandler{ping: ping}
}

func (h *HealthHandler) Root(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(Banner))
}

func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	if h.ping != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.ping(ctx); err != nil {
			slog.Warn("health check failed", "err", err)
			writeError(w, http.StatusServiceUnavailable, "Store unavailable")
			return
		}
	}
	writeJSON(w, http.StatusOK, ok("ok"))
}
