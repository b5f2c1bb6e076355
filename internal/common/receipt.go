package common

import "math/big"

type Receipt struct {
	ChainId         *big.Int `json:"chain_id"`
	TransactionHash string   `json:"transaction_hash"`
	BlockNumber     *big.Int `json:"block_number"`
	Status          uint64   `json:"status"`
	GasUsed         *big.Int `json:"gas_used"`
	// ContractAddress is the address deployed by this transaction, empty for
	// ordinary calls.
	ContractAddress string `json:"contract_address"`
}

func (r *Receipt) Succeeded() bool {
	return r.Status == 1
}
