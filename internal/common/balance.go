package common

import "math/big"

// BalanceHistory is one append-only entry in the per-(address, token) running
// balance ledger. Index starts at 1 and increases by exactly one per event.
type BalanceHistory struct {
	ChainId          *big.Int `json:"chain_id"`
	Address          string   `json:"address"`
	TokenAddress     string   `json:"token_address"`
	Index            uint64   `json:"index"`
	Amount           *big.Int `json:"amount"`
	TransferHash     string   `json:"transfer_hash"`
	TransactionHash  string   `json:"transaction_hash"`
	BlockNumber      *big.Int `json:"block_number"`
	TransactionIndex uint64   `json:"transaction_index"`
	LogIndex         uint64   `json:"log_index"`
}
