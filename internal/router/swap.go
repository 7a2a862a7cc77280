package router

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"swapRouter/internal/amm"
)

// SwapExactNativeForTokens sells nativeIn of the native asset for at least
// minOut of token, delivered to recipient. The native value is wrapped, priced
// against fresh reserves, and the slippage bound is enforced before any value
// moves into the pool.
func (r *Router) SwapExactNativeForTokens(
	caller common.Address,
	token common.Address,
	nativeIn *big.Int,
	minOut *big.Int,
	recipient common.Address,
	deadline int64,
) (*big.Int, error) {
	if err := r.checkDeadline(deadline); err != nil {
		return nil, err
	}
	if err := r.checkToken(token); err != nil {
		return nil, err
	}
	if err := checkPositive("nativeIn", nativeIn); err != nil {
		return nil, err
	}
	if err := checkPositive("minOut", minOut); err != nil {
		return nil, err
	}
	pair, err := r.resolvePair(token)
	if err != nil {
		return nil, err
	}

	var amountOut *big.Int
	err = r.run(func() error {
		// Take custody of the native value and wrap it.
		if err := r.engine.TransferNative(caller, r.addr, nativeIn); err != nil {
			return fmt.Errorf("%w: %v", ErrNativeTransferFailed, err)
		}
		if err := r.engine.Wrap(r.addr, nativeIn); err != nil {
			return fmt.Errorf("%w: %v", ErrNativeTransferFailed, err)
		}

		reserveIn, reserveOut, err := r.orientedReserves(pair, r.wrappedNative, token)
		if err != nil {
			return err
		}
		amountOut, err = amm.GetAmountOut(nativeIn, reserveIn, reserveOut, r.feeNum, r.feeDen)
		if err != nil {
			return priceErr(err)
		}
		if amountOut.Cmp(minOut) < 0 {
			return fmt.Errorf("%w: out %s below min %s", ErrSlippageExceeded, amountOut, minOut)
		}

		if err := r.engine.Transfer(r.wrappedNative, r.addr, pair, nativeIn); err != nil {
			return fmt.Errorf("%w: %v", ErrTransferFailed, err)
		}
		return r.swapOriented(pair, r.wrappedNative, token, amountOut, recipient)
	})
	if err != nil {
		return nil, err
	}

	r.logger.Debug("swap native for tokens",
		zap.String("caller", caller.Hex()),
		zap.String("token", token.Hex()),
		zap.String("native_in", nativeIn.String()),
		zap.String("amount_out", amountOut.String()),
	)
	return amountOut, nil
}

// SwapExactTokensForNative sells amountIn of token for at least minOut of the
// native asset, delivered to recipient. The wrapped output is routed through
// the facade, unwrapped, and forwarded as native value.
func (r *Router) SwapExactTokensForNative(
	caller common.Address,
	token common.Address,
	amountIn *big.Int,
	minOut *big.Int,
	recipient common.Address,
	deadline int64,
) (*big.Int, error) {
	if err := r.checkDeadline(deadline); err != nil {
		return nil, err
	}
	if err := r.checkToken(token); err != nil {
		return nil, err
	}
	if err := checkPositive("amountIn", amountIn); err != nil {
		return nil, err
	}
	if err := checkPositive("minOut", minOut); err != nil {
		return nil, err
	}
	pair, err := r.resolvePair(token)
	if err != nil {
		return nil, err
	}

	var amountOut *big.Int
	err = r.run(func() error {
		// Pull the input token into custody. Balance or allowance shortfalls
		// are collaborator failures, surfaced rather than masked.
		if err := r.engine.TransferFrom(token, r.addr, caller, r.addr, amountIn); err != nil {
			return fmt.Errorf("%w: %v", ErrTransferFailed, err)
		}

		reserveIn, reserveOut, err := r.orientedReserves(pair, token, r.wrappedNative)
		if err != nil {
			return err
		}
		amountOut, err = amm.GetAmountOut(amountIn, reserveIn, reserveOut, r.feeNum, r.feeDen)
		if err != nil {
			return priceErr(err)
		}
		if amountOut.Cmp(minOut) < 0 {
			return fmt.Errorf("%w: out %s below min %s", ErrSlippageExceeded, amountOut, minOut)
		}

		if err := r.engine.Transfer(token, r.addr, pair, amountIn); err != nil {
			return fmt.Errorf("%w: %v", ErrTransferFailed, err)
		}
		// Output lands on the facade so it can be unwrapped before delivery.
		if err := r.swapOriented(pair, token, r.wrappedNative, amountOut, r.addr); err != nil {
			return err
		}
		if err := r.engine.Unwrap(r.addr, amountOut); err != nil {
			return fmt.Errorf("%w: %v", ErrNativeTransferFailed, err)
		}
		if err := r.engine.TransferNative(r.addr, recipient, amountOut); err != nil {
			return fmt.Errorf("%w: %v", ErrNativeTransferFailed, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.logger.Debug("swap tokens for native",
		zap.String("caller", caller.Hex()),
		zap.String("token", token.Hex()),
		zap.String("amount_in", amountIn.String()),
		zap.String("amount_out", amountOut.String()),
	)
	return amountOut, nil
}

// swapOriented invokes the raw pool swap primitive with the output amount on
// the correct canonical side. The input must already sit on the pair.
func (r *Router) swapOriented(pair, tokenIn, tokenOut common.Address, amountOut *big.Int, to common.Address) error {
	token0, _, err := amm.SortTokens(tokenIn, tokenOut)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAsset, err)
	}
	amount0Out, amount1Out := new(big.Int), new(big.Int)
	if tokenOut == token0 {
		amount0Out = amountOut
	} else {
		amount1Out = amountOut
	}
	if err := r.engine.Swap(pair, amount0Out, amount1Out, to); err != nil {
		return fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	return nil
}
