package domain

import "encoding/json"

// Amounts are uint256 values. They are accepted as JSON numbers or decimal
// strings and validated by the uint256 tag.

type AddPairRequest struct {
	TokenA string      `json:"tokenA" validate:"required,ethaddr"`
	TokenB string      `json:"tokenB" validate:"required,ethaddr"`
	Fee    json.Number `json:"fee" validate:"required,uint256"`
}

type RemovePairRequest struct {
	TokenA string `json:"tokenA" validate:"required,ethaddr"`
	TokenB string `json:"tokenB" validate:"required,ethaddr"`
}

// PairAmountsRequest is shared by deposit and withdraw.
type PairAmountsRequest struct {
	TokenA  string      `json:"tokenA" validate:"required,ethaddr"`
	TokenB  string      `json:"tokenB" validate:"required,ethaddr"`
	AmountA json.Number `json:"amountA" validate:"required,uint256"`
	AmountB json.Number `json:"amountB" validate:"required,uint256"`
}

type SwapRequest struct {
	TokenIn      string      `json:"tokenIn" validate:"required,ethaddr"`
	TokenOut     string      `json:"tokenOut" validate:"required,ethaddr"`
	AmountIn     json.Number `json:"amountIn" validate:"required,uint256"`
	MinAmountOut json.Number `json:"minAmountOut" validate:"required,uint256"`
}

// TxReceipt is returned once a submitted transaction has been mined.
type TxReceipt struct {
	TxHash      string `json:"txHash"`
	BlockNumber uint64 `json:"blockNumber"`
}
