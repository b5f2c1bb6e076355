package common

import "math/big"

// InternalTransaction is one call frame of a transaction's debug trace,
// flattened with its position in the call tree.
type InternalTransaction struct {
	ChainId         *big.Int `json:"chain_id"`
	TransactionHash string   `json:"transaction_hash"`
	CallIndex       uint64   `json:"call_index"`
	Depth           uint64   `json:"depth"`
	CallType        string   `json:"call_type"`
	FromAddress     string   `json:"from_address"`
	ToAddress       string   `json:"to_address"`
	Value           *big.Int `json:"value"`
	Gas             uint64   `json:"gas"`
	GasUsed         uint64   `json:"gas_used"`
	Input           string   `json:"input"`
}
