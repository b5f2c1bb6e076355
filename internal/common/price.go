package common

import "math/big"

// Price carries the anchor-currency valuations of one side of a swap.
// "0" means undetermined: the bridging pass has not resolved it yet.
type Price struct {
	ChainId          *big.Int `json:"chain_id"`
	Hash             string   `json:"hash"`
	SwapHash         string   `json:"swap_hash"`
	TokenAddress     string   `json:"token_address"`
	BlockNumber      *big.Int `json:"block_number"`
	TransactionIndex uint64   `json:"transaction_index"`
	UsdPrice         string   `json:"usd_price"`
	EthPrice         string   `json:"eth_price"`
	BtcPrice         string   `json:"btc_price"`
	UsdPriceRefHash  string   `json:"usd_price_ref_hash"`
	EthPriceRefHash  string   `json:"eth_price_ref_hash"`
	BtcPriceRefHash  string   `json:"btc_price_ref_hash"`
}
