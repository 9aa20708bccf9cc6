// Package chain submits transactions to the liquidity-pool contract over an
// EVM JSON-RPC node.
package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/onepage-api/internal/config"
	"github.com/onepage-api/internal/domain"
)

// Contract method names.
const (
	MethodAddPair    = "addPair"
	MethodRemovePair = "removePair"
	MethodDeposit    = "depositLiquidity"
	MethodSwap       = "swap"
	MethodWithdraw   = "withdrawFromPair"
)

const poolABI = `[
 {"type":"function","name":"addPair","stateMutability":"nonpayable","outputs":[],
  "inputs":[{"name":"tokenA","type":"address"},{"name":"tokenB","type":"address"},{"name":"fee","type":"uint256"}]},
 {"type":"function","name":"removePair","stateMutability":"nonpayable","outputs":[],
  "inputs":[{"name":"tokenA","type":"address"},{"name":"tokenB","type":"address"}]},
 {"type":"function","name":"depositLiquidity","stateMutability":"nonpayable","outputs":[],
  "inputs":[{"name":"tokenA","type":"address"},{"name":"tokenB","type":"address"},{"name":"amountA","type":"uint256"},{"name":"amountB","type":"uint256"}]},
 {"type":"function","name":"swap","stateMutability":"nonpayable","outputs":[],
  "inputs":[{"name":"tokenIn","type":"address"},{"name":"tokenOut","type":"address"},{"name":"amountIn","type":"uint256"},{"name":"minAmountOut","type":"uint256"}]},
 {"type":"function","name":"withdrawFromPair","stateMutability":"nonpayable","outputs":[],
  "inputs":[{"name":"tokenA","type":"address"},{"name":"tokenB","type":"address"},{"name":"amountA","type":"uint256"},{"name":"amountB","type":"uint256"}]}
]`

var parsedABI = mustParseABI(poolABI)

func mustParseABI(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic("chain: invalid pool ABI: " + err.Error())
	}
	return parsed
}

// Backend is what Contract needs from a node connection. *ethclient.Client
// satisfies it.
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
}

// Contract is a bound liquidity-pool contract with a single signing key.
type Contract struct {
	backend Backend
	bound   *bind.BoundContract
	key     *ecdsa.PrivateKey
	chainID *big.Int
	timeout time.Duration

	// Transact reads the pending nonce, so submissions from one key are
	// serialized. Waiting for receipts is not.
	sendMu sync.Mutex
}

// Dial connects to the configured RPC node.
func Dial(ctx context.Context, cfg *config.Config) (*ethclient.Client, error) {
	client, err := ethclient.DialContext(ctx, cfg.ChainRPCURL)
	if err != nil {
		return nil, fmt.Errorf("dial chain rpc: %w", err)
	}
	return client, nil
}

// New binds the contract at cfg.ContractAddress, signing with cfg.ChainPrivateKey.
func New(backend Backend, cfg *config.Config) (*Contract, error) {
	if !common.IsHexAddress(cfg.ContractAddress) {
		return nil, fmt.Errorf("chain: invalid contract address %q", cfg.ContractAddress)
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.ChainPrivateKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("chain: parse private key: %w", err)
	}
	address := common.HexToAddress(cfg.ContractAddress)
	return &Contract{
		backend: backend,
		bound:   bind.NewBoundContract(address, parsedABI, backend, backend, backend),
		key:     key,
		chainID: big.NewInt(cfg.ChainID),
		timeout: cfg.ChainTimeout,
	}, nil
}

// Sender returns the address transactions are signed from.
func (c *Contract) Sender() common.Address {
	return crypto.PubkeyToAddress(c.key.PublicKey)
}

// Submit sends one transaction calling method and blocks until it is mined
// or the chain timeout elapses. Every failure wraps domain.ErrChain.
func (c *Contract) Submit(ctx context.Context, method string, args ...interface{}) (*domain.TxReceipt, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	tx, err := c.send(ctx, method, args...)
	if err != nil {
		return nil, fmt.Errorf("submit %s: %v: %w", method, err, domain.ErrChain)
	}

	receipt, err := bind.WaitMined(ctx, c.backend, tx)
	if err != nil {
		return nil, fmt.Errorf("wait for %s tx %s: %v: %w", method, tx.Hash().Hex(), err, domain.ErrChain)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, fmt.Errorf("%s tx %s reverted: %w", method, tx.Hash().Hex(), domain.ErrChain)
	}

	return &domain.TxReceipt{
		TxHash:      receipt.TxHash.Hex(),
		BlockNumber: receipt.BlockNumber.Uint64(),
	}, nil
}

func (c *Contract) send(ctx context.Context, method string, args ...interface{}) (*types.Transaction, error) {
	if _, ok := parsedABI.Methods[method]; !ok {
		return nil, errors.New("unknown contract method")
	}
	opts, err := bind.NewKeyedTransactorWithChainID(c.key, c.chainID)
	if err != nil {
		return nil, err
	}
	opts.Context = ctx

	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	return c.bound.Transact(opts, method, args...)
}
