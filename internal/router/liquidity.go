package router

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"swapRouter/internal/amm"
	"swapRouter/internal/dex"
)

// AddLiquidityNative provisions the token/native pool with up to
// amountTokenDesired of token and nativeIn of native value. The amounts
// actually consumed follow the current reserve ratio; any surplus of either
// input is refunded to the caller in full. Ownership shares go to recipient.
//
// Returns (amountToken, amountNative, liquidity) actually consumed and issued.
func (r *Router) AddLiquidityNative(
	caller common.Address,
	token common.Address,
	amountTokenDesired *big.Int,
	nativeIn *big.Int,
	amountTokenMin *big.Int,
	nativeMin *big.Int,
	recipient common.Address,
	deadline int64,
) (*big.Int, *big.Int, *big.Int, error) {
	if err := r.checkDeadline(deadline); err != nil {
		return nil, nil, nil, err
	}
	if err := r.checkToken(token); err != nil {
		return nil, nil, nil, err
	}
	if err := checkPositive("amountTokenDesired", amountTokenDesired); err != nil {
		return nil, nil, nil, err
	}
	if err := checkPositive("nativeIn", nativeIn); err != nil {
		return nil, nil, nil, err
	}
	if amountTokenMin == nil {
		amountTokenMin = new(big.Int)
	}
	if nativeMin == nil {
		nativeMin = new(big.Int)
	}

	var amountToken, amountNative, liquidity *big.Int
	err := r.run(func() error {
		// The pool is created on first provision, through the same registry
		// canonicalization every later lookup uses.
		pair, ok := r.engine.GetPair(token, r.wrappedNative)
		if !ok {
			var err error
			pair, err = r.engine.CreatePair(token, r.wrappedNative)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrInvalidAsset, err)
			}
		}

		var err error
		amountToken, amountNative, err = r.provisionAmounts(pair, token, amountTokenDesired, nativeIn, amountTokenMin, nativeMin)
		if err != nil {
			return err
		}

		// Pull the full desired amounts into custody; surpluses are refunded
		// after the mint so the accounting stays exact.
		if err := r.engine.TransferFrom(token, r.addr, caller, r.addr, amountTokenDesired); err != nil {
			return fmt.Errorf("%w: %v", ErrTransferFailed, err)
		}
		if err := r.engine.TransferNative(caller, r.addr, nativeIn); err != nil {
			return fmt.Errorf("%w: %v", ErrNativeTransferFailed, err)
		}
		if err := r.engine.Wrap(r.addr, amountNative); err != nil {
			return fmt.Errorf("%w: %v", ErrNativeTransferFailed, err)
		}

		if err := r.engine.Transfer(token, r.addr, pair, amountToken); err != nil {
			return fmt.Errorf("%w: %v", ErrTransferFailed, err)
		}
		if err := r.engine.Transfer(r.wrappedNative, r.addr, pair, amountNative); err != nil {
			return fmt.Errorf("%w: %v", ErrTransferFailed, err)
		}
		liquidity, err = r.engine.MintLiquidity(pair, recipient)
		if err != nil {
			if errors.Is(err, dex.ErrInsufficientLiquidityMinted) {
				return fmt.Errorf("%w: %v", ErrInsufficientLiquidity, err)
			}
			return fmt.Errorf("%w: %v", ErrTransferFailed, err)
		}

		// Exact-accounting refunds: the facade never retains what it did not
		// consume, and a failed refund fails the whole call.
		tokenRefund := new(big.Int).Sub(amountTokenDesired, amountToken)
		if tokenRefund.Sign() > 0 {
			if err := r.engine.Transfer(token, r.addr, caller, tokenRefund); err != nil {
				return fmt.Errorf("%w: %v", ErrRefundFailed, err)
			}
		}
		nativeRefund := new(big.Int).Sub(nativeIn, amountNative)
		if nativeRefund.Sign() > 0 {
			if err := r.engine.TransferNative(r.addr, caller, nativeRefund); err != nil {
				return fmt.Errorf("%w: %v", ErrRefundFailed, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, nil, err
	}

	r.logger.Debug("liquidity added",
		zap.String("caller", caller.Hex()),
		zap.String("token", token.Hex()),
		zap.String("amount_token", amountToken.String()),
		zap.String("amount_native", amountNative.String()),
		zap.String("liquidity", liquidity.String()),
	)
	return amountToken, amountNative, liquidity, nil
}

// provisionAmounts computes the ratio-preserving consumption for a provision
// request and enforces the caller's minimums.
func (r *Router) provisionAmounts(
	pair, token common.Address,
	amountTokenDesired, nativeIn, amountTokenMin, nativeMin *big.Int,
) (*big.Int, *big.Int, error) {
	reserveToken, reserveNative, err := r.orientedReserves(pair, token, r.wrappedNative)
	if err != nil {
		return nil, nil, err
	}
	if reserveToken.Sign() == 0 && reserveNative.Sign() == 0 {
		// Fresh pool: the desired amounts set the initial price.
		return new(big.Int).Set(amountTokenDesired), new(big.Int).Set(nativeIn), nil
	}

	nativeOptimal, err := amm.Quote(amountTokenDesired, reserveToken, reserveNative)
	if err != nil {
		return nil, nil, priceErr(err)
	}
	if nativeOptimal.Cmp(nativeIn) <= 0 {
		if nativeOptimal.Cmp(nativeMin) < 0 {
			return nil, nil, fmt.Errorf("%w: native %s below min %s", ErrSlippageExceeded, nativeOptimal, nativeMin)
		}
		return new(big.Int).Set(amountTokenDesired), nativeOptimal, nil
	}

	tokenOptimal, err := amm.Quote(nativeIn, reserveNative, reserveToken)
	if err != nil {
		return nil, nil, priceErr(err)
	}
	if tokenOptimal.Cmp(amountTokenDesired) > 0 {
		return nil, nil, fmt.Errorf("%w: token %s above desired %s", ErrInvalidAmount, tokenOptimal, amountTokenDesired)
	}
	if tokenOptimal.Cmp(amountTokenMin) < 0 {
		return nil, nil, fmt.Errorf("%w: token %s below min %s", ErrSlippageExceeded, tokenOptimal, amountTokenMin)
	}
	return tokenOptimal, new(big.Int).Set(nativeIn), nil
}

// RemoveLiquidityNative redeems liquidity shares of the token/native pool,
// delivering the token side directly and the native side unwrapped.
//
// Returns (amountToken, amountNative) actually released.
func (r *Router) RemoveLiquidityNative(
	caller common.Address,
	token common.Address,
	liquidity *big.Int,
	amountTokenMin *big.Int,
	nativeMin *big.Int,
	recipient common.Address,
	deadline int64,
) (*big.Int, *big.Int, error) {
	if err := r.checkDeadline(deadline); err != nil {
		return nil, nil, err
	}
	if err := r.checkToken(token); err != nil {
		return nil, nil, err
	}
	if err := checkPositive("liquidity", liquidity); err != nil {
		return nil, nil, err
	}
	if amountTokenMin == nil {
		amountTokenMin = new(big.Int)
	}
	if nativeMin == nil {
		nativeMin = new(big.Int)
	}
	pair, err := r.resolvePair(token)
	if err != nil {
		return nil, nil, err
	}

	var amountToken, amountNative *big.Int
	err = r.run(func() error {
		// Shares move straight to the pair; burning redeems them pro rata.
		if err := r.engine.TransferFrom(pair, r.addr, caller, pair, liquidity); err != nil {
			return fmt.Errorf("%w: %v", ErrTransferFailed, err)
		}
		amount0, amount1, err := r.engine.BurnLiquidity(pair, r.addr)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrTransferFailed, err)
		}

		token0, _, err := amm.SortTokens(token, r.wrappedNative)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidAsset, err)
		}
		if token == token0 {
			amountToken, amountNative = amount0, amount1
		} else {
			amountToken, amountNative = amount1, amount0
		}

		if amountToken.Cmp(amountTokenMin) < 0 {
			return fmt.Errorf("%w: token %s below min %s", ErrSlippageExceeded, amountToken, amountTokenMin)
		}
		if amountNative.Cmp(nativeMin) < 0 {
			return fmt.Errorf("%w: native %s below min %s", ErrSlippageExceeded, amountNative, nativeMin)
		}

		if err := r.engine.Transfer(token, r.addr, recipient, amountToken); err != nil {
			return fmt.Errorf("%w: %v", ErrTransferFailed, err)
		}
		if err := r.engine.Unwrap(r.addr, amountNative); err != nil {
			return fmt.Errorf("%w: %v", ErrNativeTransferFailed, err)
		}
		if err := r.engine.TransferNative(r.addr, recipient, amountNative); err != nil {
			return fmt.Errorf("%w: %v", ErrNativeTransferFailed, err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	r.logger.Debug("liquidity removed",
		zap.String("caller", caller.Hex()),
		zap.String("token", token.Hex()),
		zap.String("liquidity", liquidity.String()),
		zap.String("amount_token", amountToken.String()),
		zap.String("amount_native", amountNative.String()),
	)
	return amountToken, amountNative, nil
}
