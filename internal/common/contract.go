package common

import "math/big"

type Contract struct {
	ChainId         *big.Int `json:"chain_id"`
	Address         string   `json:"address"`
	TransactionHash string   `json:"transaction_hash"`
	BlockNumber     *big.Int `json:"block_number"`
	IsToken         bool     `json:"is_token"`
	Name            string   `json:"name"`
	Symbol          string   `json:"symbol"`
	Decimals        uint8    `json:"decimals"`
	TotalSupply     *big.Int `json:"total_supply"`
}
