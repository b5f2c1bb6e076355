package common

import (
	"math/big"
	"time"
)

type Block struct {
	ChainId    *big.Int  `json:"chain_id"`
	Number     *big.Int  `json:"number"`
	Hash       string    `json:"hash"`
	ParentHash string    `json:"parent_hash"`
	GasLimit   *big.Int  `json:"gas_limit"`
	GasUsed    *big.Int  `json:"gas_used"`
	Timestamp  time.Time `json:"timestamp"`
}

// BlockData aggregates a block with everything fetched alongside it.
type BlockData struct {
	Block        Block         `json:"block"`
	Transactions []Transaction `json:"transactions"`
	Receipts     []Receipt     `json:"receipts"`
	Logs         []Log         `json:"logs"`
}
