package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

// Pair storage layout of constant-product pools: token0 and token1 sit in
// slots 6 and 7, the reserves share slot 8 packed as
// [ 112 bits reserve0 | 112 bits reserve1 | 32 bits timestamp ].
const (
	slotToken0   = 6
	slotToken1   = 7
	slotReserves = 8
)

// Client wraps go-ethereum RPC and provides pair storage readers.
type Client struct {
	rpcClient *rpc.Client
	ethClient *ethclient.Client
}

// NewClient creates a new chain client from the RPC URL.
func NewClient(ctx context.Context, rpcURL string) (*Client, error) {
	rpcClient, err := rpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, err
	}

	return &Client{
		rpcClient: rpcClient,
		ethClient: ethclient.NewClient(rpcClient),
	}, nil
}

// Close closes the underlying RPC client.
func (c *Client) Close() {
	if c.rpcClient != nil {
		c.rpcClient.Close()
	}
}

// GetChainID returns the chain ID.
func (c *Client) GetChainID(ctx context.Context) (*big.Int, error) {
	return c.ethClient.ChainID(ctx)
}

// LatestBlockNumber returns the latest block number.
func (c *Client) LatestBlockNumber(ctx context.Context) (uint64, error) {
	return c.ethClient.BlockNumber(ctx)
}

// PairTokens reads the canonical token pair of a pool. A nil block number
// reads the latest state.
func (c *Client) PairTokens(ctx context.Context, pair common.Address, blockNumber *big.Int) (common.Address, common.Address, error) {
	b0, err := c.readSlot(ctx, pair, blockNumber, slotToken0)
	if err != nil {
		return common.Address{}, common.Address{}, err
	}
	b1, err := c.readSlot(ctx, pair, blockNumber, slotToken1)
	if err != nil {
		return common.Address{}, common.Address{}, err
	}
	return common.BytesToAddress(b0), common.BytesToAddress(b1), nil
}

// PairReserves reads the packed reserves of a pool. A nil block number reads
// the latest state.
func (c *Client) PairReserves(ctx context.Context, pair common.Address, blockNumber *big.Int) (*big.Int, *big.Int, error) {
	word, err := c.readSlot(ctx, pair, blockNumber, slotReserves)
	if err != nil {
		return nil, nil, err
	}
	reserve0, reserve1 := parseReserves(word)
	return reserve0, reserve1, nil
}

func (c *Client) readSlot(ctx context.Context, pair common.Address, blockNumber *big.Int, slot uint64) ([]byte, error) {
	key := common.BigToHash(new(big.Int).SetUint64(slot))
	b, err := c.ethClient.StorageAt(ctx, pair, key, blockNumber)
	if err != nil {
		return nil, fmt.Errorf("storage at slot %d (pair %s): %w", slot, pair.Hex(), err)
	}
	return b, nil
}

// parseReserves unpacks two uint112 reserves from a 32-byte storage word,
// big-endian within the 256-bit value.
func parseReserves(b []byte) (reserve0, reserve1 *big.Int) {
	v := new(big.Int).SetBytes(b)
	one := big.NewInt(1)
	mask112 := new(big.Int).Sub(new(big.Int).Lsh(one, 112), one)

	reserve0 = new(big.Int).And(v, mask112)
	reserve1 = new(big.Int).And(new(big.Int).Rsh(v, 112), mask112)
	return
}
