package model

import (
	"encoding/json"
	"fmt"
)

// Plan operation names accepted by the runner.
const (
	OpSeedToken           = "seed_token"
	OpSeedNative          = "seed_native"
	OpApprove             = "approve"
	OpSwapNativeForTokens = "swap_native_for_tokens"
	OpSwapTokensForNative = "swap_tokens_for_native"
	OpAddLiquidity        = "add_liquidity"
	OpRemoveLiquidity     = "remove_liquidity"
)

// PlanOp is one line of a plan file. Fields beyond Op apply per operation;
// unused fields stay empty. Amounts are decimal strings.
type PlanOp struct {
	Op                 string `json:"op"`
	Token              string `json:"token,omitempty"`
	Account            string `json:"account,omitempty"`
	Caller             string `json:"caller,omitempty"`
	Recipient          string `json:"recipient,omitempty"`
	Amount             string `json:"amount,omitempty"`
	AmountIn           string `json:"amount_in,omitempty"`
	MinOut             string `json:"min_out,omitempty"`
	AmountTokenDesired string `json:"amount_token_desired,omitempty"`
	NativeIn           string `json:"native_in,omitempty"`
	AmountTokenMin     string `json:"amount_token_min,omitempty"`
	NativeMin          string `json:"native_min,omitempty"`
	Liquidity          string `json:"liquidity,omitempty"`
	Deadline           int64  `json:"deadline,omitempty"`
}

// UnmarshalJSON decodes a PlanOp and rejects unknown operation names, so a
// mistyped op fails at parse time rather than mid-run.
func (p *PlanOp) UnmarshalJSON(data []byte) error {
	type Alias PlanOp
	var a Alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	switch a.Op {
	case OpSeedToken, OpSeedNative, OpApprove,
		OpSwapNativeForTokens, OpSwapTokensForNative,
		OpAddLiquidity, OpRemoveLiquidity:
	default:
		return fmt.Errorf("unknown op %q", a.Op)
	}
	*p = PlanOp(a)
	return nil
}
