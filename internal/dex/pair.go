package dex

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"
)

// MinimumLiquidity is locked forever on the first provision of a pair so the
// share supply can never be fully drained.
const MinimumLiquidity = 1000

// maxReserve is the 112-bit reserve bound of the reference pools.
var maxReserve = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 112), big.NewInt(1))

// liquidityLockAddr holds the permanently locked first-mint shares.
var liquidityLockAddr = common.HexToAddress("0x000000000000000000000000000000000000dEaD")

// PairInfo is a read-only view of a registered pair.
type PairInfo struct {
	Address  common.Address
	Token0   common.Address
	Token1   common.Address
	Reserve0 *big.Int
	Reserve1 *big.Int
	Supply   *big.Int
}

// CreatePair registers a pool for the unordered token pair and returns its
// address, derived from the hash of the canonically ordered tokens. The pair
// address doubles as the address of its ownership-share token.
func (e *Engine) CreatePair(a, b common.Address) (common.Address, error) {
	token0, token1, err := sortTokens(a, b)
	if err != nil {
		return common.Address{}, err
	}

	key := pairKey{token0: token0, token1: token1}
	if _, ok := e.state.registry[key]; ok {
		return common.Address{}, fmt.Errorf("%w: %s/%s", ErrPairExists, token0.Hex(), token1.Hex())
	}

	addr := common.BytesToAddress(crypto.Keccak256(token0.Bytes(), token1.Bytes())[12:])
	e.state.registry[key] = addr
	e.state.pairs[addr] = &pairState{
		token0:   token0,
		token1:   token1,
		reserve0: new(big.Int),
		reserve1: new(big.Int),
	}

	e.logger.Debug("pair created",
		zap.String("pair", addr.Hex()),
		zap.String("token0", token0.Hex()),
		zap.String("token1", token1.Hex()),
	)
	return addr, nil
}

// GetPair resolves the pool address for the unordered token pair.
func (e *Engine) GetPair(a, b common.Address) (common.Address, bool) {
	token0, token1, err := sortTokens(a, b)
	if err != nil {
		return common.Address{}, false
	}
	addr, ok := e.state.registry[pairKey{token0: token0, token1: token1}]
	return addr, ok
}

// PairTokens returns the canonically ordered tokens of a pair.
func (e *Engine) PairTokens(pair common.Address) (common.Address, common.Address, error) {
	p, ok := e.state.pairs[pair]
	if !ok {
		return common.Address{}, common.Address{}, fmt.Errorf("%w: %s", ErrPairNotFound, pair.Hex())
	}
	return p.token0, p.token1, nil
}

// GetReserves returns the current reserves of a pair in canonical order.
func (e *Engine) GetReserves(pair common.Address) (*big.Int, *big.Int, error) {
	p, ok := e.state.pairs[pair]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrPairNotFound, pair.Hex())
	}
	return new(big.Int).Set(p.reserve0), new(big.Int).Set(p.reserve1), nil
}

// Pairs returns a snapshot view of every registered pair.
func (e *Engine) Pairs() []PairInfo {
	infos := make([]PairInfo, 0, len(e.state.pairs))
	for addr, p := range e.state.pairs {
		infos = append(infos, PairInfo{
			Address:  addr,
			Token0:   p.token0,
			Token1:   p.token1,
			Reserve0: new(big.Int).Set(p.reserve0),
			Reserve1: new(big.Int).Set(p.reserve1),
			Supply:   e.TotalSupply(addr),
		})
	}
	return infos
}

// Swap releases amount0Out/amount1Out from the pair to the recipient.
//
// Precondition: the caller must already have transferred the input tokens to
// the pair address; the swap infers the input from the balance surplus over
// the recorded reserves and fails if the fee-adjusted constant product would
// decrease. This ordering contract mirrors the reference pool primitive and
// is not re-checked as stored state.
func (e *Engine) Swap(pair common.Address, amount0Out, amount1Out *big.Int, to common.Address) error {
	p, ok := e.state.pairs[pair]
	if !ok {
		return fmt.Errorf("%w: %s", ErrPairNotFound, pair.Hex())
	}
	if amount0Out == nil {
		amount0Out = new(big.Int)
	}
	if amount1Out == nil {
		amount1Out = new(big.Int)
	}
	if amount0Out.Sign() < 0 || amount1Out.Sign() < 0 || (amount0Out.Sign() == 0 && amount1Out.Sign() == 0) {
		return ErrInsufficientOutput
	}
	if amount0Out.Cmp(p.reserve0) >= 0 || amount1Out.Cmp(p.reserve1) >= 0 {
		return fmt.Errorf("%w: pair %s", ErrInsufficientLiquidity, pair.Hex())
	}
	if to == p.token0 || to == p.token1 {
		return ErrInvalidRecipient
	}

	// Optimistic transfer of the requested output.
	if amount0Out.Sign() > 0 {
		if err := e.Transfer(p.token0, pair, to, amount0Out); err != nil {
			return err
		}
	}
	if amount1Out.Sign() > 0 {
		if err := e.Transfer(p.token1, pair, to, amount1Out); err != nil {
			return err
		}
	}

	balance0 := e.BalanceOf(p.token0, pair)
	balance1 := e.BalanceOf(p.token1, pair)
	amount0In := surplus(balance0, p.reserve0, amount0Out)
	amount1In := surplus(balance1, p.reserve1, amount1Out)
	if amount0In.Sign() == 0 && amount1In.Sign() == 0 {
		return fmt.Errorf("%w: pair %s", ErrInsufficientInput, pair.Hex())
	}

	// balanceAdjusted = balance*feeDen - amountIn*(feeDen-feeNum); the product
	// of the adjusted balances must not fall below reserve0*reserve1*feeDen^2.
	feeDen := new(big.Int).SetUint64(e.cfg.FeeDenominator)
	feeTaken := new(big.Int).SetUint64(e.cfg.FeeDenominator - e.cfg.FeeNumerator)
	adjusted0 := new(big.Int).Mul(balance0, feeDen)
	adjusted0.Sub(adjusted0, new(big.Int).Mul(amount0In, feeTaken))
	adjusted1 := new(big.Int).Mul(balance1, feeDen)
	adjusted1.Sub(adjusted1, new(big.Int).Mul(amount1In, feeTaken))

	left := new(big.Int).Mul(adjusted0, adjusted1)
	right := new(big.Int).Mul(p.reserve0, p.reserve1)
	right.Mul(right, new(big.Int).Mul(feeDen, feeDen))
	if left.Cmp(right) < 0 {
		return fmt.Errorf("%w: pair %s", ErrConstantProduct, pair.Hex())
	}

	if err := p.update(balance0, balance1); err != nil {
		return err
	}
	e.logger.Debug("swap",
		zap.String("pair", pair.Hex()),
		zap.String("amount0_out", amount0Out.String()),
		zap.String("amount1_out", amount1Out.String()),
		zap.String("to", to.Hex()),
	)
	return nil
}

// MintLiquidity issues ownership shares for the token surplus transferred to
// the pair since the last reserve update. The first provision locks
// MinimumLiquidity shares forever.
func (e *Engine) MintLiquidity(pair, to common.Address) (*big.Int, error) {
	p, ok := e.state.pairs[pair]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPairNotFound, pair.Hex())
	}

	balance0 := e.BalanceOf(p.token0, pair)
	balance1 := e.BalanceOf(p.token1, pair)
	amount0 := new(big.Int).Sub(balance0, p.reserve0)
	amount1 := new(big.Int).Sub(balance1, p.reserve1)

	supply := e.TotalSupply(pair)
	liquidity := new(big.Int)
	if supply.Sign() == 0 {
		liquidity.Sqrt(new(big.Int).Mul(amount0, amount1))
		liquidity.Sub(liquidity, big.NewInt(MinimumLiquidity))
		if liquidity.Sign() <= 0 {
			return nil, fmt.Errorf("%w: pair %s", ErrInsufficientLiquidityMinted, pair.Hex())
		}
		e.mint(pair, liquidityLockAddr, big.NewInt(MinimumLiquidity))
	} else {
		byAmount0 := new(big.Int).Mul(amount0, supply)
		byAmount0.Div(byAmount0, p.reserve0)
		byAmount1 := new(big.Int).Mul(amount1, supply)
		byAmount1.Div(byAmount1, p.reserve1)
		if byAmount0.Cmp(byAmount1) < 0 {
			liquidity.Set(byAmount0)
		} else {
			liquidity.Set(byAmount1)
		}
	}
	if liquidity.Sign() <= 0 {
		return nil, fmt.Errorf("%w: pair %s", ErrInsufficientLiquidityMinted, pair.Hex())
	}

	e.mint(pair, to, liquidity)
	if err := p.update(balance0, balance1); err != nil {
		return nil, err
	}
	e.logger.Debug("liquidity minted",
		zap.String("pair", pair.Hex()),
		zap.String("liquidity", liquidity.String()),
		zap.String("to", to.Hex()),
	)
	return liquidity, nil
}

// BurnLiquidity redeems the ownership shares held by the pair address itself
// (transferred there by the caller) for a pro-rata slice of both reserves,
// delivered to the recipient.
func (e *Engine) BurnLiquidity(pair, to common.Address) (*big.Int, *big.Int, error) {
	p, ok := e.state.pairs[pair]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrPairNotFound, pair.Hex())
	}

	liquidity := e.BalanceOf(pair, pair)
	supply := e.TotalSupply(pair)
	if liquidity.Sign() == 0 || supply.Sign() == 0 {
		return nil, nil, fmt.Errorf("%w: pair %s", ErrInsufficientLiquidityBurned, pair.Hex())
	}

	balance0 := e.BalanceOf(p.token0, pair)
	balance1 := e.BalanceOf(p.token1, pair)
	amount0 := new(big.Int).Mul(liquidity, balance0)
	amount0.Div(amount0, supply)
	amount1 := new(big.Int).Mul(liquidity, balance1)
	amount1.Div(amount1, supply)
	if amount0.Sign() <= 0 || amount1.Sign() <= 0 {
		return nil, nil, fmt.Errorf("%w: pair %s", ErrInsufficientLiquidityBurned, pair.Hex())
	}

	if err := e.burn(pair, pair, liquidity); err != nil {
		return nil, nil, err
	}
	if err := e.Transfer(p.token0, pair, to, amount0); err != nil {
		return nil, nil, err
	}
	if err := e.Transfer(p.token1, pair, to, amount1); err != nil {
		return nil, nil, err
	}

	if err := p.update(e.BalanceOf(p.token0, pair), e.BalanceOf(p.token1, pair)); err != nil {
		return nil, nil, err
	}
	e.logger.Debug("liquidity burned",
		zap.String("pair", pair.Hex()),
		zap.String("liquidity", liquidity.String()),
		zap.String("amount0", amount0.String()),
		zap.String("amount1", amount1.String()),
	)
	return amount0, amount1, nil
}

// update syncs reserves to the pair's current token balances.
func (p *pairState) update(balance0, balance1 *big.Int) error {
	if balance0.Cmp(maxReserve) > 0 || balance1.Cmp(maxReserve) > 0 {
		return ErrReserveOverflow
	}
	p.reserve0 = new(big.Int).Set(balance0)
	p.reserve1 = new(big.Int).Set(balance1)
	return nil
}

// surplus returns balance - (reserve - out), floored at zero.
func surplus(balance, reserve, out *big.Int) *big.Int {
	expected := new(big.Int).Sub(reserve, out)
	diff := new(big.Int).Sub(balance, expected)
	if diff.Sign() < 0 {
		return new(big.Int)
	}
	return diff
}
