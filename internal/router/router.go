package router

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"swapRouter/internal/amm"
	"swapRouter/internal/dex"
)

// Config holds the immutable parameters of a Router instance.
type Config struct {
	// Address is the facade's own account: assets pass through it transiently
	// within a single call and never remain after the call returns.
	Address common.Address
	// Clock overrides time.Now for deadline checks. Nil means time.Now.
	Clock func() time.Time
}

// Router is the trading facade over the AMM engine: it wraps and pulls caller
// funds, prices swaps against fresh reserves, enforces slippage and deadline
// bounds, drives the raw pool primitives and refunds any unconsumed input.
//
// Every public entry point snapshots the engine on entry and reverts it on any
// failure, so a call either completes fully or leaves no trace.
type Router struct {
	engine *dex.Engine
	addr   common.Address
	logger *zap.Logger
	now    func() time.Time

	wrappedNative common.Address
	feeNum        uint64
	feeDen        uint64
}

// NewRouter builds a Router over the given engine.
func NewRouter(cfg Config, engine *dex.Engine, logger *zap.Logger) (*Router, error) {
	if engine == nil {
		return nil, fmt.Errorf("engine is nil")
	}
	if cfg.Address == (common.Address{}) {
		return nil, fmt.Errorf("router address is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	now := cfg.Clock
	if now == nil {
		now = time.Now
	}
	feeNum, feeDen := engine.FeeRate()
	return &Router{
		engine:        engine,
		addr:          cfg.Address,
		logger:        logger,
		now:           now,
		wrappedNative: engine.WrappedNative(),
		feeNum:        feeNum,
		feeDen:        feeDen,
	}, nil
}

// Address returns the facade's own account address.
func (r *Router) Address() common.Address {
	return r.addr
}

// checkDeadline fails when the call starts after the absolute unix deadline.
// Checked once per call, before any state is touched.
func (r *Router) checkDeadline(deadline int64) error {
	if now := r.now().Unix(); now > deadline {
		return fmt.Errorf("%w: now %d, deadline %d", ErrDeadlineExceeded, now, deadline)
	}
	return nil
}

// checkToken rejects the zero address and the wrapped-native token itself;
// the native side of every operation is implied, so a wrapped-native target
// would be a native-for-native trade.
func (r *Router) checkToken(token common.Address) error {
	if token == (common.Address{}) {
		return fmt.Errorf("%w: zero address", ErrInvalidAsset)
	}
	if token == r.wrappedNative {
		return fmt.Errorf("%w: wrapped native %s", ErrInvalidAsset, token.Hex())
	}
	return nil
}

func checkPositive(name string, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("%w: %s must be positive", ErrInvalidAmount, name)
	}
	return nil
}

// resolvePair looks up the pool for token against the wrapped-native asset.
func (r *Router) resolvePair(token common.Address) (common.Address, error) {
	pair, ok := r.engine.GetPair(token, r.wrappedNative)
	if !ok {
		return common.Address{}, fmt.Errorf("%w: %s/native", ErrPoolNotFound, token.Hex())
	}
	return pair, nil
}

// orientedReserves returns the pair reserves as (reserveIn, reserveOut) for a
// trade selling tokenIn. Ordering goes through the same SortTokens the
// registry used at creation time.
func (r *Router) orientedReserves(pair, tokenIn, tokenOut common.Address) (*big.Int, *big.Int, error) {
	token0, _, err := amm.SortTokens(tokenIn, tokenOut)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidAsset, err)
	}
	reserve0, reserve1, err := r.engine.GetReserves(pair)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrPoolNotFound, err)
	}
	if tokenIn == token0 {
		return reserve0, reserve1, nil
	}
	return reserve1, reserve0, nil
}

// priceErr translates pricing-engine failures into the facade taxonomy.
func priceErr(err error) error {
	switch {
	case errors.Is(err, amm.ErrOverflow):
		return fmt.Errorf("%w: %v", ErrArithmeticOverflow, err)
	case errors.Is(err, amm.ErrInsufficientLiquidity):
		return fmt.Errorf("%w: %v", ErrInsufficientLiquidity, err)
	default:
		return err
	}
}

// run executes fn inside an engine snapshot, reverting on any failure.
func (r *Router) run(fn func() error) error {
	snap := r.engine.Snapshot()
	if err := fn(); err != nil {
		if revertErr := r.engine.RevertToSnapshot(snap); revertErr != nil {
			return fmt.Errorf("revert after %v: %w", err, revertErr)
		}
		return err
	}
	r.engine.DiscardSnapshot(snap)
	return nil
}
