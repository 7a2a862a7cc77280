package dex

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

var (
	testWrapped = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	testTokenX  = common.HexToAddress("0x0000000000000000000000000000000000000b01")
	testTokenY  = common.HexToAddress("0x0000000000000000000000000000000000000b02")
	testAlice   = common.HexToAddress("0x0000000000000000000000000000000000000c01")
	testBob     = common.HexToAddress("0x0000000000000000000000000000000000000c02")
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	engine, err := NewEngine(Config{
		WrappedNative:  testWrapped,
		FeeNumerator:   997,
		FeeDenominator: 1000,
	}, nil)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return engine
}

// seedPair creates an X/Y pair funded with the given reserves, provided by Alice.
func seedPair(t *testing.T, e *Engine, reserveX, reserveY int64) common.Address {
	t.Helper()
	pair, err := e.CreatePair(testTokenX, testTokenY)
	if err != nil {
		t.Fatalf("create pair: %v", err)
	}
	e.Mint(testTokenX, testAlice, big.NewInt(reserveX))
	e.Mint(testTokenY, testAlice, big.NewInt(reserveY))
	if err := e.Transfer(testTokenX, testAlice, pair, big.NewInt(reserveX)); err != nil {
		t.Fatalf("fund pair: %v", err)
	}
	if err := e.Transfer(testTokenY, testAlice, pair, big.NewInt(reserveY)); err != nil {
		t.Fatalf("fund pair: %v", err)
	}
	if _, err := e.MintLiquidity(pair, testAlice); err != nil {
		t.Fatalf("mint liquidity: %v", err)
	}
	return pair
}

func TestCreatePairCanonicalAndDuplicate(t *testing.T) {
	e := newTestEngine(t)

	pair, err := e.CreatePair(testTokenY, testTokenX)
	if err != nil {
		t.Fatalf("create pair: %v", err)
	}

	token0, token1, err := e.PairTokens(pair)
	if err != nil {
		t.Fatalf("pair tokens: %v", err)
	}
	if token0 != testTokenX || token1 != testTokenY {
		t.Fatalf("tokens not canonical: %s, %s", token0.Hex(), token1.Hex())
	}

	if addr, ok := e.GetPair(testTokenX, testTokenY); !ok || addr != pair {
		t.Fatalf("lookup mismatch: %s ok=%v", addr.Hex(), ok)
	}
	if _, err := e.CreatePair(testTokenX, testTokenY); !errors.Is(err, ErrPairExists) {
		t.Fatalf("expected ErrPairExists, got %v", err)
	}
}

func TestMintLiquidityLocksMinimum(t *testing.T) {
	e := newTestEngine(t)
	pair := seedPair(t, e, 4000, 9000)

	// sqrt(4000*9000) = 6000 shares; 1000 locked, 5000 to the provider.
	if got := e.BalanceOf(pair, testAlice); got.Cmp(big.NewInt(5000)) != 0 {
		t.Fatalf("provider shares mismatch: %s", got)
	}
	if got := e.BalanceOf(pair, liquidityLockAddr); got.Cmp(big.NewInt(MinimumLiquidity)) != 0 {
		t.Fatalf("locked shares mismatch: %s", got)
	}
	if got := e.TotalSupply(pair); got.Cmp(big.NewInt(6000)) != 0 {
		t.Fatalf("supply mismatch: %s", got)
	}
}

func TestSwapPrimitive(t *testing.T) {
	e := newTestEngine(t)
	pair := seedPair(t, e, 1000, 100000)

	// Sell 10 X for Y: expected floor(10*997*100000/(1000*1000+10*997)) = 987.
	e.Mint(testTokenX, testBob, big.NewInt(10))
	if err := e.Transfer(testTokenX, testBob, pair, big.NewInt(10)); err != nil {
		t.Fatalf("transfer input: %v", err)
	}
	if err := e.Swap(pair, nil, big.NewInt(987), testBob); err != nil {
		t.Fatalf("swap: %v", err)
	}

	if got := e.BalanceOf(testTokenY, testBob); got.Cmp(big.NewInt(987)) != 0 {
		t.Fatalf("output mismatch: %s", got)
	}
	r0, r1, err := e.GetReserves(pair)
	if err != nil {
		t.Fatalf("get reserves: %v", err)
	}
	if r0.Cmp(big.NewInt(1010)) != 0 || r1.Cmp(big.NewInt(99013)) != 0 {
		t.Fatalf("reserves mismatch: %s, %s", r0, r1)
	}
}

func TestSwapWithoutInputFails(t *testing.T) {
	e := newTestEngine(t)
	pair := seedPair(t, e, 1000, 100000)

	if err := e.Swap(pair, nil, big.NewInt(987), testBob); !errors.Is(err, ErrInsufficientInput) {
		t.Fatalf("expected ErrInsufficientInput, got %v", err)
	}
}

func TestSwapConstantProductEnforced(t *testing.T) {
	e := newTestEngine(t)
	pair := seedPair(t, e, 1000, 100000)

	// 10 X in can buy at most 987 Y; asking for more must violate the invariant.
	e.Mint(testTokenX, testBob, big.NewInt(10))
	if err := e.Transfer(testTokenX, testBob, pair, big.NewInt(10)); err != nil {
		t.Fatalf("transfer input: %v", err)
	}
	if err := e.Swap(pair, nil, big.NewInt(988), testBob); !errors.Is(err, ErrConstantProduct) {
		t.Fatalf("expected ErrConstantProduct, got %v", err)
	}
}

func TestSwapExceedingReserves(t *testing.T) {
	e := newTestEngine(t)
	pair := seedPair(t, e, 1000, 100000)

	if err := e.Swap(pair, nil, big.NewInt(100000), testBob); !errors.Is(err, ErrInsufficientLiquidity) {
		t.Fatalf("expected ErrInsufficientLiquidity, got %v", err)
	}
}

func TestBurnLiquidityProRata(t *testing.T) {
	e := newTestEngine(t)
	pair := seedPair(t, e, 4000, 9000)

	// Redeem half of Alice's shares: 2500 of 6000 total.
	if err := e.Transfer(pair, testAlice, pair, big.NewInt(2500)); err != nil {
		t.Fatalf("transfer shares: %v", err)
	}
	amount0, amount1, err := e.BurnLiquidity(pair, testBob)
	if err != nil {
		t.Fatalf("burn liquidity: %v", err)
	}

	// floor(2500*4000/6000) = 1666, floor(2500*9000/6000) = 3750
	if amount0.Cmp(big.NewInt(1666)) != 0 || amount1.Cmp(big.NewInt(3750)) != 0 {
		t.Fatalf("released amounts mismatch: %s, %s", amount0, amount1)
	}
	if got := e.BalanceOf(testTokenX, testBob); got.Cmp(amount0) != 0 {
		t.Fatalf("recipient balance mismatch: %s", got)
	}
	if got := e.TotalSupply(pair); got.Cmp(big.NewInt(3500)) != 0 {
		t.Fatalf("supply after burn mismatch: %s", got)
	}
}

func TestWrapUnwrap(t *testing.T) {
	e := newTestEngine(t)
	e.CreditNative(testAlice, big.NewInt(500))

	if err := e.Wrap(testAlice, big.NewInt(300)); err != nil {
		t.Fatalf("wrap: %v", err)
	}
	if got := e.NativeBalanceOf(testAlice); got.Cmp(big.NewInt(200)) != 0 {
		t.Fatalf("native after wrap: %s", got)
	}
	if got := e.BalanceOf(testWrapped, testAlice); got.Cmp(big.NewInt(300)) != 0 {
		t.Fatalf("wrapped after wrap: %s", got)
	}

	if err := e.Unwrap(testAlice, big.NewInt(300)); err != nil {
		t.Fatalf("unwrap: %v", err)
	}
	if got := e.NativeBalanceOf(testAlice); got.Cmp(big.NewInt(500)) != 0 {
		t.Fatalf("native after unwrap: %s", got)
	}
	if err := e.Unwrap(testAlice, big.NewInt(1)); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
}

func TestTransferFromAllowance(t *testing.T) {
	e := newTestEngine(t)
	e.Mint(testTokenX, testAlice, big.NewInt(100))

	if err := e.TransferFrom(testTokenX, testBob, testAlice, testBob, big.NewInt(10)); !errors.Is(err, ErrInsufficientAllowance) {
		t.Fatalf("expected ErrInsufficientAllowance, got %v", err)
	}

	e.Approve(testTokenX, testAlice, testBob, big.NewInt(25))
	if err := e.TransferFrom(testTokenX, testBob, testAlice, testBob, big.NewInt(10)); err != nil {
		t.Fatalf("transfer from: %v", err)
	}
	if got := e.Allowance(testTokenX, testAlice, testBob); got.Cmp(big.NewInt(15)) != 0 {
		t.Fatalf("allowance mismatch: %s", got)
	}
}

func TestTransferFromZeroAmountNoApproval(t *testing.T) {
	e := newTestEngine(t)
	e.Mint(testTokenX, testAlice, big.NewInt(100))

	// A zero-amount transfer fits any allowance, including one never granted.
	if err := e.TransferFrom(testTokenX, testBob, testAlice, testBob, big.NewInt(0)); err != nil {
		t.Fatalf("zero-amount transfer from: %v", err)
	}
	if got := e.BalanceOf(testTokenX, testAlice); got.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("balance changed: %s", got)
	}
	if got := e.Allowance(testTokenX, testAlice, testBob); got.Sign() != 0 {
		t.Fatalf("allowance changed: %s", got)
	}
}

func TestSnapshotRevert(t *testing.T) {
	e := newTestEngine(t)
	pair := seedPair(t, e, 1000, 100000)
	e.CreditNative(testBob, big.NewInt(77))

	id := e.Snapshot()

	e.Mint(testTokenX, testBob, big.NewInt(10))
	if err := e.Transfer(testTokenX, testBob, pair, big.NewInt(10)); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if err := e.Swap(pair, nil, big.NewInt(987), testBob); err != nil {
		t.Fatalf("swap: %v", err)
	}

	if err := e.RevertToSnapshot(id); err != nil {
		t.Fatalf("revert: %v", err)
	}

	if got := e.BalanceOf(testTokenY, testBob); got.Sign() != 0 {
		t.Fatalf("balance not reverted: %s", got)
	}
	r0, r1, err := e.GetReserves(pair)
	if err != nil {
		t.Fatalf("get reserves: %v", err)
	}
	if r0.Cmp(big.NewInt(1000)) != 0 || r1.Cmp(big.NewInt(100000)) != 0 {
		t.Fatalf("reserves not reverted: %s, %s", r0, r1)
	}
	if got := e.NativeBalanceOf(testBob); got.Cmp(big.NewInt(77)) != 0 {
		t.Fatalf("native not reverted: %s", got)
	}

	if err := e.RevertToSnapshot(id); !errors.Is(err, ErrInvalidSnapshot) {
		t.Fatalf("expected ErrInvalidSnapshot, got %v", err)
	}
}
