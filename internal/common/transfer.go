package common

import (
	"math/big"
	"time"
)

type Transfer struct {
	ChainId          *big.Int  `json:"chain_id"`
	Hash             string    `json:"hash"`
	LogHash          string    `json:"log_hash"`
	TransactionHash  string    `json:"transaction_hash"`
	TransactionIndex uint64    `json:"transaction_index"`
	BlockNumber      *big.Int  `json:"block_number"`
	BlockTimestamp   time.Time `json:"block_timestamp"`
	LogIndex         uint64    `json:"log_index"`
	TokenAddress     string    `json:"token_address"`
	FromAddress      string    `json:"from_address"`
	ToAddress        string    `json:"to_address"`
	Amount           *big.Int  `json:"amount"`
}
