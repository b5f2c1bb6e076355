package storage

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/blockpulse/indexer/internal/common"
)

const transferSelect = `SELECT chain_id, hash, log_hash, transaction_hash, transaction_index,
	block_number, block_timestamp, log_index, token_address, from_address, to_address, amount FROM transfers`

const balanceSelect = `SELECT chain_id, address, token_address, index, amount,
	transfer_hash, transaction_hash, block_number, transaction_index, log_index FROM balance_histories`

const swapSelect = `SELECT chain_id, hash, parent_hash, is_root, transaction_hash, transaction_index,
	block_number, block_timestamp, dex_address, from_token_address, to_token_address, from_amount, to_amount FROM swaps`

const priceSelect = `SELECT chain_id, hash, swap_hash, token_address, block_number, transaction_index,
	usd_price, eth_price, btc_price, usd_price_ref_hash, eth_price_ref_hash, btc_price_ref_hash FROM prices`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBlock(row rowScanner) (*common.Block, error) {
	var chainId, number, gasLimit, gasUsed string
	block := common.Block{}
	err := row.Scan(&chainId, &number, &block.Hash, &block.ParentHash, &gasLimit, &gasUsed, &block.Timestamp)
	if err != nil {
		return nil, err
	}
	block.ChainId = mustBigInt(chainId)
	block.Number = mustBigInt(number)
	block.GasLimit = mustBigInt(gasLimit)
	block.GasUsed = mustBigInt(gasUsed)
	return &block, nil
}

func scanTransaction(row rowScanner) (*common.Transaction, error) {
	var chainId, blockNumber, value, gasPrice string
	tx := common.Transaction{}
	err := row.Scan(&chainId, &tx.Hash, &blockNumber, &tx.BlockTimestamp, &tx.TransactionIndex,
		&tx.FromAddress, &tx.ToAddress, &value, &tx.Gas, &gasPrice, &tx.Data)
	if err != nil {
		return nil, err
	}
	tx.ChainId = mustBigInt(chainId)
	tx.BlockNumber = mustBigInt(blockNumber)
	tx.Value = mustBigInt(value)
	tx.GasPrice = mustBigInt(gasPrice)
	return &tx, nil
}

func scanLog(row rowScanner) (*common.Log, error) {
	var chainId, blockNumber, topicsJson string
	l := common.Log{}
	err := row.Scan(&chainId, &l.LogHash, &l.TransactionHash, &l.TransactionIndex, &blockNumber,
		&l.BlockTimestamp, &l.LogIndex, &l.Address, &l.Data, &topicsJson)
	if err != nil {
		return nil, err
	}
	l.ChainId = mustBigInt(chainId)
	l.BlockNumber = mustBigInt(blockNumber)
	if err := json.Unmarshal([]byte(topicsJson), &l.Topics); err != nil {
		return nil, fmt.Errorf("failed to unmarshal log topics: %w", err)
	}
	return &l, nil
}

func scanTransfer(row rowScanner) (*common.Transfer, error) {
	var chainId, blockNumber, amount string
	t := common.Transfer{}
	err := row.Scan(&chainId, &t.Hash, &t.LogHash, &t.TransactionHash, &t.TransactionIndex,
		&blockNumber, &t.BlockTimestamp, &t.LogIndex, &t.TokenAddress, &t.FromAddress, &t.ToAddress, &amount)
	if err != nil {
		return nil, err
	}
	t.ChainId = mustBigInt(chainId)
	t.BlockNumber = mustBigInt(blockNumber)
	t.Amount = mustBigInt(amount)
	return &t, nil
}

func scanBalanceHistory(row rowScanner) (*common.BalanceHistory, error) {
	var chainId, amount, blockNumber string
	h := common.BalanceHistory{}
	err := row.Scan(&chainId, &h.Address, &h.TokenAddress, &h.Index, &amount,
		&h.TransferHash, &h.TransactionHash, &blockNumber, &h.TransactionIndex, &h.LogIndex)
	if err != nil {
		return nil, err
	}
	h.ChainId = mustBigInt(chainId)
	h.Amount = mustBigInt(amount)
	h.BlockNumber = mustBigInt(blockNumber)
	return &h, nil
}

func scanSwap(row rowScanner) (*common.Swap, error) {
	var chainId, blockNumber, fromAmount, toAmount string
	s := common.Swap{}
	err := row.Scan(&chainId, &s.Hash, &s.ParentHash, &s.IsRoot, &s.TransactionHash, &s.TransactionIndex,
		&blockNumber, &s.BlockTimestamp, &s.DexAddress, &s.FromTokenAddress, &s.ToTokenAddress,
		&fromAmount, &toAmount)
	if err != nil {
		return nil, err
	}
	s.ChainId = mustBigInt(chainId)
	s.BlockNumber = mustBigInt(blockNumber)
	s.FromAmount = mustBigInt(fromAmount)
	s.ToAmount = mustBigInt(toAmount)
	return &s, nil
}

func scanPrice(row rowScanner) (*common.Price, error) {
	var chainId, blockNumber string
	price := common.Price{}
	err := row.Scan(&chainId, &price.Hash, &price.SwapHash, &price.TokenAddress, &blockNumber,
		&price.TransactionIndex, &price.UsdPrice, &price.EthPrice, &price.BtcPrice,
		&price.UsdPriceRefHash, &price.EthPriceRefHash, &price.BtcPriceRefHash)
	if err != nil {
		return nil, err
	}
	price.ChainId = mustBigInt(chainId)
	price.BlockNumber = mustBigInt(blockNumber)
	return &price, nil
}

func mustBigInt(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return new(big.Int)
	}
	return v
}

// orderAndPage appends ORDER BY / LIMIT / OFFSET clauses. A caller-supplied
// SortBy is only honored when it is a plain column identifier.
func orderAndPage(qf QueryFilter, defaultSort ...string) string {
	sortOrder := "ASC"
	if strings.EqualFold(qf.SortOrder, "desc") {
		sortOrder = "DESC"
	}

	sortColumns := defaultSort
	if isColumnIdentifier(qf.SortBy) {
		sortColumns = []string{qf.SortBy}
	}
	ordered := make([]string, len(sortColumns))
	for i, col := range sortColumns {
		ordered[i] = fmt.Sprintf("%s %s", col, sortOrder)
	}

	clause := fmt.Sprintf(" ORDER BY %s LIMIT %d", strings.Join(ordered, ", "), getLimit(qf))
	if qf.Offset > 0 {
		clause += fmt.Sprintf(" OFFSET %d", qf.Offset)
	}
	return clause
}

func isColumnIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if (r < 'a' || r > 'z') && r != '_' {
			return false
		}
	}
	return true
}
