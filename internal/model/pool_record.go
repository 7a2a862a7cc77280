package model

// PoolRecord is the persisted view of a pool after a plan run.
type PoolRecord struct {
	Pair        string `json:"pair"`
	Token0      string `json:"token0"`
	Token1      string `json:"token1"`
	Reserve0    string `json:"reserve0"`
	Reserve1    string `json:"reserve1"`
	TotalSupply string `json:"total_supply"`
}
