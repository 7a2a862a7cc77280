package router

import (
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"swapRouter/internal/dex"
)

var (
	testWrapped   = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	testToken     = common.HexToAddress("0x0000000000000000000000000000000000000b01")
	testOther     = common.HexToAddress("0x0000000000000000000000000000000000000b02")
	testRouter    = common.HexToAddress("0x0000000000000000000000000000000000000f0f")
	testProvider  = common.HexToAddress("0x0000000000000000000000000000000000000c01")
	testTrader    = common.HexToAddress("0x0000000000000000000000000000000000000c02")
	testRecipient = common.HexToAddress("0x0000000000000000000000000000000000000c03")
)

var testNow = time.Unix(1_700_000_000, 0)

func testDeadline() int64 {
	return testNow.Unix() + 300
}

func newTestRig(t *testing.T) (*dex.Engine, *Router) {
	t.Helper()
	engine, err := dex.NewEngine(dex.Config{
		WrappedNative:  testWrapped,
		FeeNumerator:   997,
		FeeDenominator: 1000,
	}, nil)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	r, err := NewRouter(Config{
		Address: testRouter,
		Clock:   func() time.Time { return testNow },
	}, engine, nil)
	if err != nil {
		t.Fatalf("new router: %v", err)
	}
	return engine, r
}

// seedNativePool funds a token/wrapped-native pair with the given reserves.
func seedNativePool(t *testing.T, e *dex.Engine, token common.Address, tokenReserve, nativeReserve int64) common.Address {
	t.Helper()
	pair, err := e.CreatePair(token, e.WrappedNative())
	if err != nil {
		t.Fatalf("create pair: %v", err)
	}
	e.Mint(token, testProvider, big.NewInt(tokenReserve))
	e.CreditNative(testProvider, big.NewInt(nativeReserve))
	if err := e.Wrap(testProvider, big.NewInt(nativeReserve)); err != nil {
		t.Fatalf("wrap: %v", err)
	}
	if err := e.Transfer(token, testProvider, pair, big.NewInt(tokenReserve)); err != nil {
		t.Fatalf("fund pair: %v", err)
	}
	if err := e.Transfer(e.WrappedNative(), testProvider, pair, big.NewInt(nativeReserve)); err != nil {
		t.Fatalf("fund pair: %v", err)
	}
	if _, err := e.MintLiquidity(pair, testProvider); err != nil {
		t.Fatalf("mint liquidity: %v", err)
	}
	return pair
}

// assertNoResidual verifies the facade holds no funds after a call.
func assertNoResidual(t *testing.T, e *dex.Engine, tokens ...common.Address) {
	t.Helper()
	if got := e.NativeBalanceOf(testRouter); got.Sign() != 0 {
		t.Fatalf("router retains native: %s", got)
	}
	for _, token := range tokens {
		if got := e.BalanceOf(token, testRouter); got.Sign() != 0 {
			t.Fatalf("router retains %s: %s", token.Hex(), got)
		}
	}
}

func TestSwapExactNativeForTokens(t *testing.T) {
	e, r := newTestRig(t)
	seedNativePool(t, e, testToken, 100000, 1000)
	e.CreditNative(testTrader, big.NewInt(10))

	out, err := r.SwapExactNativeForTokens(testTrader, testToken, big.NewInt(10), big.NewInt(1), testRecipient, testDeadline())
	if err != nil {
		t.Fatalf("swap: %v", err)
	}
	if out.Cmp(big.NewInt(987)) != 0 {
		t.Fatalf("amount out mismatch: %s", out)
	}
	if got := e.BalanceOf(testToken, testRecipient); got.Cmp(big.NewInt(987)) != 0 {
		t.Fatalf("recipient balance mismatch: %s", got)
	}
	if got := e.NativeBalanceOf(testTrader); got.Sign() != 0 {
		t.Fatalf("trader native not consumed: %s", got)
	}
	assertNoResidual(t, e, testToken, testWrapped)
}

func TestSwapExactNativeForTokensSlippage(t *testing.T) {
	e, r := newTestRig(t)
	pair := seedNativePool(t, e, testToken, 100000, 1000)
	e.CreditNative(testTrader, big.NewInt(10))

	_, err := r.SwapExactNativeForTokens(testTrader, testToken, big.NewInt(10), big.NewInt(988), testRecipient, testDeadline())
	if !errors.Is(err, ErrSlippageExceeded) {
		t.Fatalf("expected ErrSlippageExceeded, got %v", err)
	}

	// All effects undone as a unit.
	if got := e.NativeBalanceOf(testTrader); got.Cmp(big.NewInt(10)) != 0 {
		t.Fatalf("trader native changed: %s", got)
	}
	r0, r1, err := e.GetReserves(pair)
	if err != nil {
		t.Fatalf("get reserves: %v", err)
	}
	// wrapped native sorts below the token, so reserve0 is the native side
	if r0.Cmp(big.NewInt(1000)) != 0 || r1.Cmp(big.NewInt(100000)) != 0 {
		t.Fatalf("reserves changed: %s, %s", r0, r1)
	}
	assertNoResidual(t, e, testToken, testWrapped)
}

func TestSwapExactNativeForTokensValidation(t *testing.T) {
	_, r := newTestRig(t)

	if _, err := r.SwapExactNativeForTokens(testTrader, testWrapped, big.NewInt(10), big.NewInt(1), testRecipient, testDeadline()); !errors.Is(err, ErrInvalidAsset) {
		t.Fatalf("wrapped target: expected ErrInvalidAsset, got %v", err)
	}
	if _, err := r.SwapExactNativeForTokens(testTrader, common.Address{}, big.NewInt(10), big.NewInt(1), testRecipient, testDeadline()); !errors.Is(err, ErrInvalidAsset) {
		t.Fatalf("zero target: expected ErrInvalidAsset, got %v", err)
	}
	if _, err := r.SwapExactNativeForTokens(testTrader, testToken, big.NewInt(0), big.NewInt(1), testRecipient, testDeadline()); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("zero input: expected ErrInvalidAmount, got %v", err)
	}
	if _, err := r.SwapExactNativeForTokens(testTrader, testToken, big.NewInt(10), big.NewInt(0), testRecipient, testDeadline()); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("zero min out: expected ErrInvalidAmount, got %v", err)
	}
	if _, err := r.SwapExactNativeForTokens(testTrader, testToken, big.NewInt(10), big.NewInt(1), testRecipient, testDeadline()); !errors.Is(err, ErrPoolNotFound) {
		t.Fatalf("missing pool: expected ErrPoolNotFound, got %v", err)
	}
}

func TestSwapDeadlineExceeded(t *testing.T) {
	e, r := newTestRig(t)
	seedNativePool(t, e, testToken, 100000, 1000)
	e.CreditNative(testTrader, big.NewInt(10))

	_, err := r.SwapExactNativeForTokens(testTrader, testToken, big.NewInt(10), big.NewInt(1), testRecipient, testNow.Unix()-1)
	if !errors.Is(err, ErrDeadlineExceeded) {
		t.Fatalf("expected ErrDeadlineExceeded, got %v", err)
	}
	if got := e.NativeBalanceOf(testTrader); got.Cmp(big.NewInt(10)) != 0 {
		t.Fatalf("state mutated before deadline check: %s", got)
	}
}

func TestSwapExactTokensForNative(t *testing.T) {
	e, r := newTestRig(t)
	seedNativePool(t, e, testToken, 1000, 100000)
	e.Mint(testToken, testTrader, big.NewInt(10))
	e.Approve(testToken, testTrader, testRouter, big.NewInt(10))

	out, err := r.SwapExactTokensForNative(testTrader, testToken, big.NewInt(10), big.NewInt(1), testRecipient, testDeadline())
	if err != nil {
		t.Fatalf("swap: %v", err)
	}
	if out.Cmp(big.NewInt(987)) != 0 {
		t.Fatalf("amount out mismatch: %s", out)
	}
	if got := e.NativeBalanceOf(testRecipient); got.Cmp(big.NewInt(987)) != 0 {
		t.Fatalf("recipient native mismatch: %s", got)
	}
	if got := e.BalanceOf(testToken, testTrader); got.Sign() != 0 {
		t.Fatalf("trader token not consumed: %s", got)
	}
	assertNoResidual(t, e, testToken, testWrapped)
}

func TestSwapExactTokensForNativeMissingAllowance(t *testing.T) {
	e, r := newTestRig(t)
	pair := seedNativePool(t, e, testToken, 1000, 100000)
	e.Mint(testToken, testTrader, big.NewInt(10))

	_, err := r.SwapExactTokensForNative(testTrader, testToken, big.NewInt(10), big.NewInt(1), testRecipient, testDeadline())
	if !errors.Is(err, ErrTransferFailed) {
		t.Fatalf("expected ErrTransferFailed, got %v", err)
	}

	if got := e.BalanceOf(testToken, testTrader); got.Cmp(big.NewInt(10)) != 0 {
		t.Fatalf("trader balance changed: %s", got)
	}
	r0, r1, err := e.GetReserves(pair)
	if err != nil {
		t.Fatalf("get reserves: %v", err)
	}
	if new(big.Int).Mul(r0, r1).Cmp(new(big.Int).Mul(big.NewInt(1000), big.NewInt(100000))) != 0 {
		t.Fatalf("reserves changed: %s, %s", r0, r1)
	}
}

func TestSwapEmptyPool(t *testing.T) {
	e, r := newTestRig(t)
	if _, err := e.CreatePair(testToken, testWrapped); err != nil {
		t.Fatalf("create pair: %v", err)
	}
	e.CreditNative(testTrader, big.NewInt(10))

	_, err := r.SwapExactNativeForTokens(testTrader, testToken, big.NewInt(10), big.NewInt(1), testRecipient, testDeadline())
	if !errors.Is(err, ErrInsufficientLiquidity) {
		t.Fatalf("expected ErrInsufficientLiquidity, got %v", err)
	}
	if got := e.NativeBalanceOf(testTrader); got.Cmp(big.NewInt(10)) != 0 {
		t.Fatalf("trader native changed: %s", got)
	}
}
