package chain

import (
	"math/big"
	"testing"
)

func packReserves(reserve0, reserve1 *big.Int, ts uint64) []byte {
	v := new(big.Int).SetUint64(ts)
	v.Lsh(v, 112)
	v.Or(v, reserve1)
	v.Lsh(v, 112)
	v.Or(v, reserve0)

	out := make([]byte, 32)
	v.FillBytes(out)
	return out
}

func TestParseReserves(t *testing.T) {
	r0 := big.NewInt(100_000)
	r1 := big.NewInt(1000)

	got0, got1 := parseReserves(packReserves(r0, r1, 1_700_000_000))
	if got0.Cmp(r0) != 0 || got1.Cmp(r1) != 0 {
		t.Fatalf("reserves mismatch: %s, %s", got0, got1)
	}
}

func TestParseReservesMaxWidth(t *testing.T) {
	one := big.NewInt(1)
	max112 := new(big.Int).Sub(new(big.Int).Lsh(one, 112), one)

	got0, got1 := parseReserves(packReserves(max112, max112, ^uint64(0)>>32))
	if got0.Cmp(max112) != 0 || got1.Cmp(max112) != 0 {
		t.Fatalf("max reserves mismatch: %s, %s", got0, got1)
	}
}

func TestParseReservesEmptySlot(t *testing.T) {
	got0, got1 := parseReserves(make([]byte, 32))
	if got0.Sign() != 0 || got1.Sign() != 0 {
		t.Fatalf("empty slot must yield zero reserves: %s, %s", got0, got1)
	}
}
