package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/onepage-api/internal/application/domainconfig"
	"github.com/onepage-api/internal/domain"
)

type DomainHandler struct {
	svc domainconfig.Service
}

func NewDomainHandler(svc domainconfig.Service) *DomainHandler { return &DomainHandler{svc: svc} }

func (h *DomainHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterDomainRequest
	if !decode(w, r, &req) {
		return
	}
	d, err := h.svc.Register(r.Context(), req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, DataEnvelope{Envelope: ok("Domain registered"), Data: d})
}

func (h *DomainHandler) ListByUsername(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.ListByUsername(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, DataEnvelope{Envelope: Envelope{Success: true}, Data: list})
}
