package common

import (
	"math/big"
	"time"
)

type Swap struct {
	ChainId          *big.Int  `json:"chain_id"`
	Hash             string    `json:"hash"`
	ParentHash       string    `json:"parent_hash"`
	IsRoot           bool      `json:"is_root"`
	TransactionHash  string    `json:"transaction_hash"`
	TransactionIndex uint64    `json:"transaction_index"`
	BlockNumber      *big.Int  `json:"block_number"`
	BlockTimestamp   time.Time `json:"block_timestamp"`
	DexAddress       string    `json:"dex_address"`
	FromTokenAddress string    `json:"from_token_address"`
	ToTokenAddress   string    `json:"to_token_address"`
	FromAmount       *big.Int  `json:"from_amount"`
	ToAmount         *big.Int  `json:"to_amount"`
}
