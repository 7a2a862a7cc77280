package dex

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"swapRouter/internal/amm"
)

// Config holds the immutable parameters of an engine instance.
type Config struct {
	// WrappedNative is the token address credited by Wrap and burned by Unwrap.
	WrappedNative common.Address
	// FeeNumerator/FeeDenominator is the pool fee retained on the input side,
	// e.g. 997/1000 for 0.3%.
	FeeNumerator   uint64
	FeeDenominator uint64
}

// Engine is an in-memory constant-product AMM: a fungible token ledger, native
// balances, a wrapped-native token, a pair registry and the raw pool
// primitives. It plays the role of the external pool/token collaborators that
// the facade orchestrates.
//
// Engine methods do not lock; the facade executes one call at a time and the
// environment is expected to serialize invocations, matching the reference
// system. Atomicity is provided via Snapshot/RevertToSnapshot.
type Engine struct {
	cfg    Config
	logger *zap.Logger

	state     *state
	snapshots []*state
}

// state is the full mutable world of the engine. It is deep-copied on
// Snapshot so a revert restores every balance, allowance and reserve at once.
type state struct {
	native     map[common.Address]*big.Int
	balances   map[common.Address]map[common.Address]*big.Int            // token -> holder -> amount
	allowances map[common.Address]map[common.Address]map[common.Address]*big.Int // token -> owner -> spender
	supply     map[common.Address]*big.Int                               // token -> total supply
	pairs      map[common.Address]*pairState
	registry   map[pairKey]common.Address
}

type pairKey struct {
	token0 common.Address
	token1 common.Address
}

type pairState struct {
	token0   common.Address
	token1   common.Address
	reserve0 *big.Int
	reserve1 *big.Int
}

// NewEngine builds an Engine with empty state.
func NewEngine(cfg Config, logger *zap.Logger) (*Engine, error) {
	if cfg.WrappedNative == (common.Address{}) {
		return nil, fmt.Errorf("wrapped native address is required")
	}
	if cfg.FeeDenominator == 0 || cfg.FeeNumerator == 0 || cfg.FeeNumerator >= cfg.FeeDenominator {
		return nil, fmt.Errorf("invalid fee rate %d/%d", cfg.FeeNumerator, cfg.FeeDenominator)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		cfg:    cfg,
		logger: logger,
		state:  newState(),
	}, nil
}

func newState() *state {
	return &state{
		native:     make(map[common.Address]*big.Int),
		balances:   make(map[common.Address]map[common.Address]*big.Int),
		allowances: make(map[common.Address]map[common.Address]map[common.Address]*big.Int),
		supply:     make(map[common.Address]*big.Int),
		pairs:      make(map[common.Address]*pairState),
		registry:   make(map[pairKey]common.Address),
	}
}

// WrappedNative returns the wrapped-native token address.
func (e *Engine) WrappedNative() common.Address {
	return e.cfg.WrappedNative
}

// FeeRate returns the pool fee as a numerator/denominator pair.
func (e *Engine) FeeRate() (uint64, uint64) {
	return e.cfg.FeeNumerator, e.cfg.FeeDenominator
}

// Snapshot records the current state and returns an id for RevertToSnapshot.
func (e *Engine) Snapshot() int {
	e.snapshots = append(e.snapshots, e.state.clone())
	return len(e.snapshots) - 1
}

// RevertToSnapshot restores the state recorded by Snapshot and discards the
// snapshot along with any later ones.
func (e *Engine) RevertToSnapshot(id int) error {
	if id < 0 || id >= len(e.snapshots) {
		return fmt.Errorf("%w: %d", ErrInvalidSnapshot, id)
	}
	e.state = e.snapshots[id]
	e.snapshots = e.snapshots[:id]
	return nil
}

// DiscardSnapshot drops the snapshot without reverting, keeping earlier ones.
func (e *Engine) DiscardSnapshot(id int) {
	if id >= 0 && id < len(e.snapshots) {
		e.snapshots = e.snapshots[:id]
	}
}

func (s *state) clone() *state {
	c := newState()
	for addr, amount := range s.native {
		c.native[addr] = new(big.Int).Set(amount)
	}
	for token, holders := range s.balances {
		m := make(map[common.Address]*big.Int, len(holders))
		for holder, amount := range holders {
			m[holder] = new(big.Int).Set(amount)
		}
		c.balances[token] = m
	}
	for token, owners := range s.allowances {
		om := make(map[common.Address]map[common.Address]*big.Int, len(owners))
		for owner, spenders := range owners {
			sm := make(map[common.Address]*big.Int, len(spenders))
			for spender, amount := range spenders {
				sm[spender] = new(big.Int).Set(amount)
			}
			om[owner] = sm
		}
		c.allowances[token] = om
	}
	for token, amount := range s.supply {
		c.supply[token] = new(big.Int).Set(amount)
	}
	for addr, pair := range s.pairs {
		c.pairs[addr] = &pairState{
			token0:   pair.token0,
			token1:   pair.token1,
			reserve0: new(big.Int).Set(pair.reserve0),
			reserve1: new(big.Int).Set(pair.reserve1),
		}
	}
	for key, addr := range s.registry {
		c.registry[key] = addr
	}
	return c
}

// NativeBalanceOf returns the native balance of addr.
func (e *Engine) NativeBalanceOf(addr common.Address) *big.Int {
	if amount, ok := e.state.native[addr]; ok {
		return new(big.Int).Set(amount)
	}
	return new(big.Int)
}

// CreditNative adds native value to addr. Used to seed accounts.
func (e *Engine) CreditNative(addr common.Address, amount *big.Int) {
	if amount == nil || amount.Sign() <= 0 {
		return
	}
	current, ok := e.state.native[addr]
	if !ok {
		current = new(big.Int)
	}
	e.state.native[addr] = new(big.Int).Add(current, amount)
}

// TransferNative moves native value between accounts.
func (e *Engine) TransferNative(from, to common.Address, amount *big.Int) error {
	if err := e.debitNative(from, amount); err != nil {
		return err
	}
	e.CreditNative(to, amount)
	return nil
}

func (e *Engine) debitNative(from common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("%w: negative amount", ErrInsufficientNative)
	}
	current, ok := e.state.native[from]
	if !ok || current.Cmp(amount) < 0 {
		return fmt.Errorf("%w: account %s", ErrInsufficientNative, from.Hex())
	}
	e.state.native[from] = new(big.Int).Sub(current, amount)
	return nil
}

// Wrap converts native value held by from into wrapped-native tokens credited
// to the same account.
func (e *Engine) Wrap(from common.Address, value *big.Int) error {
	if err := e.debitNative(from, value); err != nil {
		return err
	}
	e.mint(e.cfg.WrappedNative, from, value)
	e.logger.Debug("wrap", zap.String("account", from.Hex()), zap.String("value", value.String()))
	return nil
}

// Unwrap burns wrapped-native tokens held by from and releases native value
// back to the same account.
func (e *Engine) Unwrap(from common.Address, value *big.Int) error {
	if err := e.burn(e.cfg.WrappedNative, from, value); err != nil {
		return err
	}
	e.CreditNative(from, value)
	e.logger.Debug("unwrap", zap.String("account", from.Hex()), zap.String("value", value.String()))
	return nil
}

// Mint credits freshly issued tokens to an account. Used to seed balances.
func (e *Engine) Mint(token, to common.Address, amount *big.Int) {
	e.mint(token, to, amount)
}

func (e *Engine) mint(token, to common.Address, amount *big.Int) {
	if amount == nil || amount.Sign() <= 0 {
		return
	}
	holders, ok := e.state.balances[token]
	if !ok {
		holders = make(map[common.Address]*big.Int)
		e.state.balances[token] = holders
	}
	current, ok := holders[to]
	if !ok {
		current = new(big.Int)
	}
	holders[to] = new(big.Int).Add(current, amount)

	supply, ok := e.state.supply[token]
	if !ok {
		supply = new(big.Int)
	}
	e.state.supply[token] = new(big.Int).Add(supply, amount)
}

func (e *Engine) burn(token, from common.Address, amount *big.Int) error {
	if err := e.debit(token, from, amount); err != nil {
		return err
	}
	e.state.supply[token] = new(big.Int).Sub(e.state.supply[token], amount)
	return nil
}

func (e *Engine) debit(token, from common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("%w: negative amount", ErrInsufficientBalance)
	}
	holders, ok := e.state.balances[token]
	if !ok {
		return fmt.Errorf("%w: token %s", ErrInsufficientBalance, token.Hex())
	}
	current, ok := holders[from]
	if !ok || current.Cmp(amount) < 0 {
		return fmt.Errorf("%w: token %s holder %s", ErrInsufficientBalance, token.Hex(), from.Hex())
	}
	holders[from] = new(big.Int).Sub(current, amount)
	return nil
}

// BalanceOf returns the token balance of holder.
func (e *Engine) BalanceOf(token, holder common.Address) *big.Int {
	if holders, ok := e.state.balances[token]; ok {
		if amount, ok := holders[holder]; ok {
			return new(big.Int).Set(amount)
		}
	}
	return new(big.Int)
}

// TotalSupply returns the total minted supply of token.
func (e *Engine) TotalSupply(token common.Address) *big.Int {
	if supply, ok := e.state.supply[token]; ok {
		return new(big.Int).Set(supply)
	}
	return new(big.Int)
}

// Transfer moves tokens from one holder to another.
func (e *Engine) Transfer(token, from, to common.Address, amount *big.Int) error {
	if err := e.debit(token, from, amount); err != nil {
		return err
	}
	e.mintBalanceOnly(token, to, amount)
	return nil
}

// mintBalanceOnly credits a balance without touching supply.
func (e *Engine) mintBalanceOnly(token, to common.Address, amount *big.Int) {
	holders, ok := e.state.balances[token]
	if !ok {
		holders = make(map[common.Address]*big.Int)
		e.state.balances[token] = holders
	}
	current, ok := holders[to]
	if !ok {
		current = new(big.Int)
	}
	holders[to] = new(big.Int).Add(current, amount)
}

// Approve sets the amount spender may move out of owner's balance.
func (e *Engine) Approve(token, owner, spender common.Address, amount *big.Int) {
	owners, ok := e.state.allowances[token]
	if !ok {
		owners = make(map[common.Address]map[common.Address]*big.Int)
		e.state.allowances[token] = owners
	}
	spenders, ok := owners[owner]
	if !ok {
		spenders = make(map[common.Address]*big.Int)
		owners[owner] = spenders
	}
	spenders[spender] = new(big.Int).Set(amount)
}

// Allowance returns the remaining amount spender may move out of owner's balance.
func (e *Engine) Allowance(token, owner, spender common.Address) *big.Int {
	if owners, ok := e.state.allowances[token]; ok {
		if spenders, ok := owners[owner]; ok {
			if amount, ok := spenders[spender]; ok {
				return new(big.Int).Set(amount)
			}
		}
	}
	return new(big.Int)
}

// TransferFrom moves tokens on behalf of owner, consuming spender's allowance.
func (e *Engine) TransferFrom(token, spender, from, to common.Address, amount *big.Int) error {
	allowance := e.Allowance(token, from, spender)
	if allowance.Cmp(amount) < 0 {
		return fmt.Errorf("%w: token %s owner %s spender %s", ErrInsufficientAllowance, token.Hex(), from.Hex(), spender.Hex())
	}
	if err := e.Transfer(token, from, to, amount); err != nil {
		return err
	}
	// Approve creates the nested maps, so a zero-amount transfer with no prior
	// approval cannot write into a map that was never made.
	e.Approve(token, from, spender, new(big.Int).Sub(allowance, amount))
	return nil
}

// sortTokens is the shared canonical ordering, re-exported here so the
// registry and the facade cannot drift apart.
func sortTokens(a, b common.Address) (common.Address, common.Address, error) {
	return amm.SortTokens(a, b)
}
