package model

// Trade statuses recorded in the journal.
const (
	TradeStatusOK     = "ok"
	TradeStatusFailed = "failed"
)

// TradeRecord is the journal entry for one executed plan operation. Amounts
// are decimal strings so arbitrary-precision values survive serialization.
type TradeRecord struct {
	Seq          int    `json:"seq"`
	Op           string `json:"op"`
	Caller       string `json:"caller"`
	Token        string `json:"token"`
	Recipient    string `json:"recipient,omitempty"`
	AmountIn     string `json:"amount_in,omitempty"`
	AmountOut    string `json:"amount_out,omitempty"`
	AmountToken  string `json:"amount_token,omitempty"`
	AmountNative string `json:"amount_native,omitempty"`
	Liquidity    string `json:"liquidity,omitempty"`
	Status       string `json:"status"`
	Error        string `json:"error,omitempty"`
	ExecutedAt   string `json:"executed_at"`
}
