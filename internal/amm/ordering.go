package amm

import (
	"bytes"

	"github.com/ethereum/go-ethereum/common"
)

// SortTokens returns the two token addresses in canonical order, lower byte
// value first. Pair reserve slots are assigned in this order at creation time,
// so every reserve lookup must go through the same function.
func SortTokens(a, b common.Address) (common.Address, common.Address, error) {
	if a == b {
		return common.Address{}, common.Address{}, ErrIdenticalTokens
	}
	if a == (common.Address{}) || b == (common.Address{}) {
		return common.Address{}, common.Address{}, ErrZeroToken
	}
	if bytes.Compare(a.Bytes(), b.Bytes()) < 0 {
		return a, b, nil
	}
	return b, a, nil
}
