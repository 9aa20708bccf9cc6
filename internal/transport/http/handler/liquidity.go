package handler

import (
	"net/http"

	"github.com/onepage-api/internal/application/liquidity"
	"github.com/onepage-api/internal/domain"
)

type LiquidityHandler struct {
	svc liquidity.Service
}

func NewLiquidityHandler(svc liquidity.Service) *LiquidityHandler {
	return &LiquidityHandler{svc: svc}
}

func (h *LiquidityHandler) AddPair(w http.ResponseWriter, r *http.Request) {
	var req domain.AddPairRequest
	if !decode(w, r, &req) {
		return
	}
	receipt, err := h.svc.AddPair(r.Context(), req)
	writeTx(w, r, "Pair added successfully", receipt, err)
}

func (h *LiquidityHandler) RemovePair(w http.ResponseWriter, r *http.Request) {
	var req domain.RemovePairRequest
	if !decode(w, r, &req) {
		return
	}
	receipt, err := h.svc.RemovePair(r.Context(), req)
	writeTx(w, r, "Pair removed", receipt, err)
}

func (h *LiquidityHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	var req domain.PairAmountsRequest
	if !decode(w, r, &req) {
		return
	}
	receipt, err := h.svc.Deposit(r.Context(), req)
	writeTx(w, r, "Liquidity deposited", receipt, err)
}

func (h *LiquidityHandler) Swap(w http.ResponseWriter, r *http.Request) {
	var req domain.SwapRequest
	if !decode(w, r, &req) {
		return
	}
	receipt, err := h.svc.Swap(r.Context(), req)
	writeTx(w, r, "Swap successful", receipt, err)
}

func (h *LiquidityHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	var req domain.PairAmountsRequest
	if !decode(w, r, &req) {
		return
	}
	receipt, err := h.svc.Withdraw(r.Context(), req)
	writeTx(w, r, "Liquidity withdrawn", receipt, err)
}

func writeTx(w http.ResponseWriter, r *http.Request, msg string, receipt *domain.TxReceipt, err error) {
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, TxEnvelope{
		Envelope:    ok(msg),
		TxHash:      receipt.TxHash,
		BlockNumber: receipt.BlockNumber,
	})
}
