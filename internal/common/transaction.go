package common

import (
	"math/big"
	"strings"
	"time"
)

type Transaction struct {
	ChainId          *big.Int  `json:"chain_id"`
	Hash             string    `json:"hash"`
	BlockNumber      *big.Int  `json:"block_number"`
	BlockTimestamp   time.Time `json:"block_timestamp"`
	TransactionIndex uint64    `json:"transaction_index"`
	FromAddress      string    `json:"from_address"`
	ToAddress        string    `json:"to_address"`
	Value            *big.Int  `json:"value"`
	Gas              uint64    `json:"gas"`
	GasPrice         *big.Int  `json:"gas_price"`
	Data             string    `json:"data"`
}

// FunctionSelector returns the first four bytes of call data as a 0x-prefixed
// hex string, or empty when the transaction carries no call data.
func (t *Transaction) FunctionSelector() string {
	data := strings.TrimPrefix(t.Data, "0x")
	if len(data) < 8 {
		return ""
	}
	return "0x" + strings.ToLower(data[:8])
}
