// Package liquidity validates liquidity-pool requests and forwards each one
// as a single contract transaction.
package liquidity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/onepage-api/internal/domain"
	"github.com/onepage-api/internal/infrastructure/chain"
	"github.com/onepage-api/internal/observability/metrics"
	"github.com/onepage-api/internal/pkg/validate"
)

var errNotConfigured = fmt.Errorf("liquidity contract not configured: %w", domain.ErrChain)

type Service interface {
	AddPair(ctx context.Context, req domain.AddPairRequest) (*domain.TxReceipt, error)
	RemovePair(ctx context.Context, req domain.RemovePairRequest) (*domain.TxReceipt, error)
	Deposit(ctx context.Context, req domain.PairAmountsRequest) (*domain.TxReceipt, error)
	Swap(ctx context.Context, req domain.SwapRequest) (*domain.TxReceipt, error)
	Withdraw(ctx context.Context, req domain.PairAmountsRequest) (*domain.TxReceipt, error)
}

type contract interface {
	Submit(ctx context.Context, method string, args ...interface{}) (*domain.TxReceipt, error)
}

type service struct {
	contract contract
}

// NewService returns a Service submitting to c. A nil c makes every
// operation fail with domain.ErrChain after validation.
func NewService(c contract) Service {
	return &service{contract: c}
}

func (s *service) AddPair(ctx context.Context, req domain.AddPairRequest) (*domain.TxReceipt, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	return s.submit(ctx, chain.MethodAddPair, addr(req.TokenA), addr(req.TokenB), amount(req.Fee.String()))
}

func (s *service) RemovePair(ctx context.Context, req domain.RemovePairRequest) (*domain.TxReceipt, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	return s.submit(ctx, chain.MethodRemovePair, addr(req.TokenA), addr(req.TokenB))
}

func (s *service) Deposit(ctx context.Context, req domain.PairAmountsRequest) (*domain.TxReceipt, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	return s.submit(ctx, chain.MethodDeposit,
		addr(req.TokenA), addr(req.TokenB), amount(req.AmountA.String()), amount(req.AmountB.String()))
}

func (s *service) Swap(ctx context.Context, req domain.SwapRequest) (*domain.TxReceipt, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	return s.submit(ctx, chain.MethodSwap,
		addr(req.TokenIn), addr(req.TokenOut), amount(req.AmountIn.String()), amount(req.MinAmountOut.String()))
}

func (s *service) Withdraw(ctx context.Context, req domain.PairAmountsRequest) (*domain.TxReceipt, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	return s.submit(ctx, chain.MethodWithdraw,
		addr(req.TokenA), addr(req.TokenB), amount(req.AmountA.String()), amount(req.AmountB.String()))
}

func (s *service) submit(ctx context.Context, method string, args ...interface{}) (*domain.TxReceipt, error) {
	if s.contract == nil {
		metrics.RecordChainTx(method, "disabled")
		return nil, errNotConfigured
	}
	receipt, err := s.contract.Submit(ctx, method, args...)
	if err != nil {
		metrics.RecordChainTx(method, "error")
		if !errors.Is(err, domain.ErrChain) {
			err = fmt.Errorf("%s: %v: %w", method, err, domain.ErrChain)
		}
		return nil, err
	}
	metrics.RecordChainTx(method, "ok")
	slog.Info("liquidity tx mined", "method", method, "tx", receipt.TxHash, "block", receipt.BlockNumber)
	return receipt, nil
}

func addr(s string) common.Address { return common.HexToAddress(s) }

// amount is only called on values that already passed the uint256 tag.
func amount(s string) *big.Int {
	n, _ := validate.PositiveUint256(s)
	return n
}
