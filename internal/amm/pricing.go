package amm

import (
	"math/big"

	"github.com/holiman/uint256"
)

// Fee rate of the reference pools: 0.3% retained by the pool, so the input
// counts at 997/1000 of its face value.
const (
	DefaultFeeNumerator   = 997
	DefaultFeeDenominator = 1000
)

// GetAmountOut computes the output amount a constant-product pool releases for
// amountIn of the input token:
//
//	amountInWithFee = amountIn * feeNum
//	amountOut       = amountInWithFee * reserveOut / (reserveIn * feeDen + amountInWithFee)
//
// Division truncates toward zero. Reserves are bounded to 112 bits in the
// reference pools, so intermediates fit 256 bits; the computation runs on
// uint256 with overflow-checked multiplies and fails with ErrOverflow instead
// of wrapping.
func GetAmountOut(amountIn, reserveIn, reserveOut *big.Int, feeNum, feeDen uint64) (*big.Int, error) {
	if amountIn == nil || amountIn.Sign() <= 0 {
		return nil, ErrInsufficientInput
	}
	if reserveIn == nil || reserveOut == nil || reserveIn.Sign() <= 0 || reserveOut.Sign() <= 0 {
		return nil, ErrInsufficientLiquidity
	}

	in, resIn, resOut, err := toUint256(amountIn, reserveIn, reserveOut)
	if err != nil {
		return nil, err
	}

	amountInWithFee := new(uint256.Int)
	if _, overflow := amountInWithFee.MulOverflow(in, uint256.NewInt(feeNum)); overflow {
		return nil, ErrOverflow
	}
	numerator := new(uint256.Int)
	if _, overflow := numerator.MulOverflow(amountInWithFee, resOut); overflow {
		return nil, ErrOverflow
	}
	denominator := new(uint256.Int)
	if _, overflow := denominator.MulOverflow(resIn, uint256.NewInt(feeDen)); overflow {
		return nil, ErrOverflow
	}
	if _, overflow := denominator.AddOverflow(denominator, amountInWithFee); overflow {
		return nil, ErrOverflow
	}

	return new(uint256.Int).Div(numerator, denominator).ToBig(), nil
}

// GetAmountIn computes the input amount required to receive amountOut of the
// output token, the inverse of GetAmountOut. The result rounds up by one so
// that feeding it back into GetAmountOut never undershoots.
func GetAmountIn(amountOut, reserveIn, reserveOut *big.Int, feeNum, feeDen uint64) (*big.Int, error) {
	if amountOut == nil || amountOut.Sign() <= 0 {
		return nil, ErrInsufficientOutput
	}
	if reserveIn == nil || reserveOut == nil || reserveIn.Sign() <= 0 || reserveOut.Sign() <= 0 {
		return nil, ErrInsufficientLiquidity
	}
	if amountOut.Cmp(reserveOut) >= 0 {
		return nil, ErrInsufficientLiquidity
	}

	out, resIn, resOut, err := toUint256(amountOut, reserveIn, reserveOut)
	if err != nil {
		return nil, err
	}

	numerator := new(uint256.Int)
	if _, overflow := numerator.MulOverflow(resIn, out); overflow {
		return nil, ErrOverflow
	}
	if _, overflow := numerator.MulOverflow(numerator, uint256.NewInt(feeDen)); overflow {
		return nil, ErrOverflow
	}
	denominator := new(uint256.Int).Sub(resOut, out)
	if _, overflow := denominator.MulOverflow(denominator, uint256.NewInt(feeNum)); overflow {
		return nil, ErrOverflow
	}

	amountIn := new(uint256.Int).Div(numerator, denominator)
	amountIn.AddUint64(amountIn, 1)
	return amountIn.ToBig(), nil
}

// Quote returns the amount of the other token that matches amountA at the
// current reserve ratio, without any fee. Used when provisioning liquidity,
// where consumption must preserve the pool price.
func Quote(amountA, reserveA, reserveB *big.Int) (*big.Int, error) {
	if amountA == nil || amountA.Sign() <= 0 {
		return nil, ErrInsufficientInput
	}
	if reserveA == nil || reserveB == nil || reserveA.Sign() <= 0 || reserveB.Sign() <= 0 {
		return nil, ErrInsufficientLiquidity
	}

	a, resA, resB, err := toUint256(amountA, reserveA, reserveB)
	if err != nil {
		return nil, err
	}

	numerator := new(uint256.Int)
	if _, overflow := numerator.MulOverflow(a, resB); overflow {
		return nil, ErrOverflow
	}
	return new(uint256.Int).Div(numerator, resA).ToBig(), nil
}

func toUint256(x, y, z *big.Int) (*uint256.Int, *uint256.Int, *uint256.Int, error) {
	xu, overflow := uint256.FromBig(x)
	if overflow {
		return nil, nil, nil, ErrOverflow
	}
	yu, overflow := uint256.FromBig(y)
	if overflow {
		return nil, nil, nil, ErrOverflow
	}
	zu, overflow := uint256.FromBig(z)
	if overflow {
		return nil, nil, nil, ErrOverflow
	}
	return xu, yu, zu, nil
}
