package router

import "errors"

// Failure taxonomy of the facade. None of these are recovered internally:
// every failure reverts the whole call.
var (
	// ErrInvalidAsset covers zero, identical and forbidden asset addresses.
	ErrInvalidAsset = errors.New("invalid asset")
	// ErrInvalidAmount covers non-positive amounts and bounds.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrPoolNotFound is returned when no pair is registered for the asset pair.
	ErrPoolNotFound = errors.New("pool not found")
	// ErrInsufficientLiquidity is returned when a pool has a zero reserve.
	ErrInsufficientLiquidity = errors.New("insufficient liquidity")
	// ErrSlippageExceeded is returned when a computed amount violates the caller's bound.
	ErrSlippageExceeded = errors.New("slippage exceeded")
	// ErrDeadlineExceeded is returned when a call starts after its deadline.
	ErrDeadlineExceeded = errors.New("deadline exceeded")
	// ErrTransferFailed surfaces a collaborator token-movement failure.
	ErrTransferFailed = errors.New("transfer failed")
	// ErrNativeTransferFailed surfaces a wrap/unwrap or native forwarding failure.
	ErrNativeTransferFailed = errors.New("native transfer failed")
	// ErrRefundFailed is returned when unconsumed caller funds cannot be returned.
	ErrRefundFailed = errors.New("refund failed")
	// ErrArithmeticOverflow is returned when the pricing computation exceeds 256 bits.
	ErrArithmeticOverflow = errors.New("arithmetic overflow")
)
