package dex

import "errors"

var (
	// ErrPairExists is returned when creating a pair that is already registered.
	ErrPairExists = errors.New("pair exists")
	// ErrPairNotFound is returned when a pair address is not registered.
	ErrPairNotFound = errors.New("pair not found")
	// ErrInsufficientBalance is returned when a transfer exceeds the holder balance.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrInsufficientAllowance is returned when transferFrom exceeds the approved amount.
	ErrInsufficientAllowance = errors.New("insufficient allowance")
	// ErrInsufficientNative is returned when a native debit exceeds the account balance.
	ErrInsufficientNative = errors.New("insufficient native balance")
	// ErrInsufficientLiquidity is returned when a swap requests more than the pool reserves.
	ErrInsufficientLiquidity = errors.New("insufficient liquidity")
	// ErrInsufficientInput is returned when a swap is invoked without input transferred in.
	ErrInsufficientInput = errors.New("insufficient input amount")
	// ErrInsufficientOutput is returned when a swap requests no output at all.
	ErrInsufficientOutput = errors.New("insufficient output amount")
	// ErrInsufficientLiquidityMinted is returned when a provision rounds down to zero shares.
	ErrInsufficientLiquidityMinted = errors.New("insufficient liquidity minted")
	// ErrInsufficientLiquidityBurned is returned when a withdrawal rounds down to zero output.
	ErrInsufficientLiquidityBurned = errors.New("insufficient liquidity burned")
	// ErrConstantProduct is returned when a swap would decrease the fee-adjusted invariant.
	ErrConstantProduct = errors.New("constant product invariant violated")
	// ErrReserveOverflow is returned when a reserve would exceed 112 bits.
	ErrReserveOverflow = errors.New("reserve overflow")
	// ErrInvalidRecipient is returned when swap output targets one of the pair tokens.
	ErrInvalidRecipient = errors.New("invalid recipient")
	// ErrInvalidSnapshot is returned for a revert to an unknown snapshot id.
	ErrInvalidSnapshot = errors.New("invalid snapshot id")
)
