package amm

import "errors"

var (
	// ErrIdenticalTokens is returned when a pair is built from the same token twice.
	ErrIdenticalTokens = errors.New("identical tokens")
	// ErrZeroToken is returned when a pair contains the zero address.
	ErrZeroToken = errors.New("zero address token")
	// ErrInsufficientInput is returned for a non-positive input amount.
	ErrInsufficientInput = errors.New("insufficient input amount")
	// ErrInsufficientOutput is returned for a non-positive requested output amount.
	ErrInsufficientOutput = errors.New("insufficient output amount")
	// ErrInsufficientLiquidity is returned when a reserve is zero or too small to serve the trade.
	ErrInsufficientLiquidity = errors.New("insufficient liquidity")
	// ErrOverflow is returned when an operand or intermediate product exceeds 256 bits.
	ErrOverflow = errors.New("arithmetic overflow")
)
