package storage

import (
	"encoding/json"
	"fmt"
	"math/big"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	config "github.com/blockpulse/indexer/configs"
	"github.com/blockpulse/indexer/internal/common"
)

// MemoryConnector keeps everything in an LRU cache. Used for tests and
// local development; it honors the same ordering semantics as postgres.
type MemoryConnector struct {
	cache *lru.Cache[string, string]
}

func NewMemoryConnector(cfg *config.MemoryConfig) (*MemoryConnector, error) {
	maxItems := 10000
	if cfg.MaxItems > 0 {
		maxItems = cfg.MaxItems
	}

	cache, err := lru.New[string, string](maxItems)
	if err != nil {
		return nil, fmt.Errorf("failed to create LRU cache: %w", err)
	}

	return &MemoryConnector{
		cache: cache,
	}, nil
}

func (m *MemoryConnector) Close() error {
	m.cache.Purge()
	return nil
}

func putJSON[T any](m *MemoryConnector, key string, value T) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.cache.Add(key, string(data))
	return nil
}

func getJSON[T any](m *MemoryConnector, key string) (*T, error) {
	raw, ok := m.cache.Get(key)
	if !ok {
		return nil, nil
	}
	value := new(T)
	if err := json.Unmarshal([]byte(raw), value); err != nil {
		return nil, err
	}
	return value, nil
}

func scanPrefix[T any](m *MemoryConnector, prefix string) ([]T, error) {
	values := []T{}
	for _, key := range m.cache.Keys() {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		raw, ok := m.cache.Get(key)
		if !ok {
			continue
		}
		value := new(T)
		if err := json.Unmarshal([]byte(raw), value); err != nil {
			return nil, err
		}
		values = append(values, *value)
	}
	return values, nil
}

func deletePrefix(m *MemoryConnector, prefix string) {
	for _, key := range m.cache.Keys() {
		if strings.HasPrefix(key, prefix) {
			m.cache.Remove(key)
		}
	}
}

func page[T any](items []T, qf QueryFilter) []T {
	if qf.Offset >= len(items) {
		return []T{}
	}
	items = items[qf.Offset:]
	limit := getLimit(qf)
	if len(items) > limit {
		items = items[:limit]
	}
	return items
}

// Blocks

func (m *MemoryConnector) InsertBlock(block common.Block) error {
	return putJSON(m, fmt.Sprintf("block:%s", block.Number.String()), block)
}

// DeleteBlock clears the whole block scope, matching the postgres connector:
// reorg reprocessing must not leave rows derived from the old transaction set.
func (m *MemoryConnector) DeleteBlock(blockNumber *big.Int) error {
	txs, err := scanPrefix[common.Transaction](m, "transaction:")
	if err != nil {
		return err
	}
	for _, tx := range txs {
		if tx.BlockNumber.Cmp(blockNumber) != 0 {
			continue
		}
		m.cache.Remove(fmt.Sprintf("transaction:%s", tx.Hash))
		if err := m.DeleteReceipt(tx.Hash); err != nil {
			return err
		}
		if err := m.DeleteInternalTransactions(tx.Hash); err != nil {
			return err
		}
	}

	transfers, err := scanPrefix[common.Transfer](m, "transfer:")
	if err != nil {
		return err
	}
	for _, t := range transfers {
		if t.BlockNumber.Cmp(blockNumber) == 0 {
			m.cache.Remove(fmt.Sprintf("transfer:%s", t.Hash))
		}
	}

	histories, err := scanPrefix[common.BalanceHistory](m, "balance:")
	if err != nil {
		return err
	}
	for _, h := range histories {
		if h.BlockNumber.Cmp(blockNumber) == 0 {
			m.cache.Remove(fmt.Sprintf("balance:%s:%s:%d", strings.ToLower(h.Address), strings.ToLower(h.TokenAddress), h.Index))
		}
	}

	swaps, err := scanPrefix[common.Swap](m, "swap:")
	if err != nil {
		return err
	}
	for _, s := range swaps {
		if s.BlockNumber.Cmp(blockNumber) == 0 {
			m.cache.Remove(fmt.Sprintf("swap:%s", s.Hash))
		}
	}

	if err := m.ReplaceBlockPrices(blockNumber, nil); err != nil {
		return err
	}

	m.cache.Remove(fmt.Sprintf("block:%s", blockNumber.String()))
	return nil
}

func (m *MemoryConnector) GetBlock(blockNumber *big.Int) (*common.Block, error) {
	return getJSON[common.Block](m, fmt.Sprintf("block:%s", blockNumber.String()))
}

func (m *MemoryConnector) GetBlocks(qf QueryFilter) (QueryResult[common.Block], error) {
	blocks, err := scanPrefix[common.Block](m, "block:")
	if err != nil {
		return QueryResult[common.Block]{}, err
	}
	sort.Slice(blocks, func(i, j int) bool {
		cmp := blocks[i].Number.Cmp(blocks[j].Number) < 0
		if strings.EqualFold(qf.SortOrder, "desc") {
			return !cmp
		}
		return cmp
	})
	return QueryResult[common.Block]{Data: page(blocks, qf)}, nil
}

func (m *MemoryConnector) GetMaxBlockNumber() (*big.Int, error) {
	maxNumber := big.NewInt(0)
	blocks, err := scanPrefix[common.Block](m, "block:")
	if err != nil {
		return nil, err
	}
	for _, block := range blocks {
		if block.Number.Cmp(maxNumber) > 0 {
			maxNumber = block.Number
		}
	}
	return maxNumber, nil
}

// Transactions

func (m *MemoryConnector) InsertTransaction(tx common.Transaction) error {
	return putJSON(m, fmt.Sprintf("transaction:%s", tx.Hash), tx)
}

func (m *MemoryConnector) DeleteTransaction(hash string) error {
	m.cache.Remove(fmt.Sprintf("transaction:%s", hash))
	return nil
}

func (m *MemoryConnector) GetTransaction(hash string) (*common.Transaction, error) {
	return getJSON[common.Transaction](m, fmt.Sprintf("transaction:%s", hash))
}

func (m *MemoryConnector) GetTransactions(qf QueryFilter) (QueryResult[common.Transaction], error) {
	txs, err := scanPrefix[common.Transaction](m, "transaction:")
	if err != nil {
		return QueryResult[common.Transaction]{}, err
	}
	filtered := []common.Transaction{}
	for _, tx := range txs {
		if qf.BlockNumber != nil && tx.BlockNumber.Cmp(qf.BlockNumber) != 0 {
			continue
		}
		if qf.Address != "" && !strings.EqualFold(tx.FromAddress, qf.Address) {
			continue
		}
		filtered = append(filtered, tx)
	}
	sort.Slice(filtered, func(i, j int) bool {
		if cmp := filtered[i].BlockNumber.Cmp(filtered[j].BlockNumber); cmp != 0 {
			return cmp < 0
		}
		return filtered[i].TransactionIndex < filtered[j].TransactionIndex
	})
	return QueryResult[common.Transaction]{Data: page(filtered, qf)}, nil
}

// Receipts and logs

func (m *MemoryConnector) InsertReceipt(receipt common.Receipt, logs []common.Log) error {
	if err := putJSON(m, fmt.Sprintf("receipt:%s", receipt.TransactionHash), receipt); err != nil {
		return err
	}
	for _, l := range logs {
		if err := putJSON(m, fmt.Sprintf("log:%s", l.LogHash), l); err != nil {
			return err
		}
	}
	return nil
}

func (m *MemoryConnector) DeleteReceipt(transactionHash string) error {
	m.cache.Remove(fmt.Sprintf("receipt:%s", transactionHash))
	logs, err := m.GetLogsByTransaction(transactionHash)
	if err != nil {
		return err
	}
	for _, l := range logs {
		m.cache.Remove(fmt.Sprintf("log:%s", l.LogHash))
	}
	return nil
}

func (m *MemoryConnector) GetReceipt(transactionHash string) (*common.Receipt, []common.Log, error) {
	receipt, err := getJSON[common.Receipt](m, fmt.Sprintf("receipt:%s", transactionHash))
	if err != nil || receipt == nil {
		return nil, nil, err
	}
	logs, err := m.GetLogsByTransaction(transactionHash)
	if err != nil {
		return nil, nil, err
	}
	return receipt, logs, nil
}

func (m *MemoryConnector) GetLog(logHash string) (*common.Log, error) {
	return getJSON[common.Log](m, fmt.Sprintf("log:%s", logHash))
}

func (m *MemoryConnector) GetLogsByTransaction(transactionHash string) ([]common.Log, error) {
	logs, err := scanPrefix[common.Log](m, "log:")
	if err != nil {
		return nil, err
	}
	filtered := []common.Log{}
	for _, l := range logs {
		if l.TransactionHash == transactionHash {
			filtered = append(filtered, l)
		}
	}
	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].LogIndex < filtered[j].LogIndex
	})
	return filtered, nil
}

// Transfers

func (m *MemoryConnector) InsertTransfer(transfer common.Transfer) error {
	return putJSON(m, fmt.Sprintf("transfer:%s", transfer.Hash), transfer)
}

func (m *MemoryConnector) DeleteTransferByLogHash(logHash string) error {
	transfers, err := scanPrefix[common.Transfer](m, "transfer:")
	if err != nil {
		return err
	}
	for _, t := range transfers {
		if t.LogHash == logHash {
			m.cache.Remove(fmt.Sprintf("transfer:%s", t.Hash))
		}
	}
	return nil
}

func (m *MemoryConnector) GetTransfer(hash string) (*common.Transfer, error) {
	return getJSON[common.Transfer](m, fmt.Sprintf("transfer:%s", hash))
}

func (m *MemoryConnector) GetTransfersByTransaction(transactionHash string) ([]common.Transfer, error) {
	transfers, err := scanPrefix[common.Transfer](m, "transfer:")
	if err != nil {
		return nil, err
	}
	filtered := []common.Transfer{}
	for _, t := range transfers {
		if t.TransactionHash == transactionHash {
			filtered = append(filtered, t)
		}
	}
	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].LogIndex < filtered[j].LogIndex
	})
	return filtered, nil
}

func (m *MemoryConnector) GetTransfers(qf QueryFilter) (QueryResult[common.Transfer], error) {
	transfers, err := scanPrefix[common.Transfer](m, "transfer:")
	if err != nil {
		return QueryResult[common.Transfer]{}, err
	}
	filtered := []common.Transfer{}
	for _, t := range transfers {
		if qf.TokenAddress != "" && !strings.EqualFold(t.TokenAddress, qf.TokenAddress) {
			continue
		}
		if qf.Address != "" && !strings.EqualFold(t.FromAddress, qf.Address) && !strings.EqualFold(t.ToAddress, qf.Address) {
			continue
		}
		if qf.BlockNumber != nil && t.BlockNumber.Cmp(qf.BlockNumber) != 0 {
			continue
		}
		filtered = append(filtered, t)
	}
	sort.Slice(filtered, func(i, j int) bool {
		if cmp := filtered[i].BlockNumber.Cmp(filtered[j].BlockNumber); cmp != 0 {
			return cmp < 0
		}
		if filtered[i].TransactionIndex != filtered[j].TransactionIndex {
			return filtered[i].TransactionIndex < filtered[j].TransactionIndex
		}
		return filtered[i].LogIndex < filtered[j].LogIndex
	})
	return QueryResult[common.Transfer]{Data: page(filtered, qf)}, nil
}

// Balance histories

func (m *MemoryConnector) InsertBalanceHistories(histories []common.BalanceHistory) error {
	for _, h := range histories {
		key := fmt.Sprintf("balance:%s:%s:%d", strings.ToLower(h.Address), strings.ToLower(h.TokenAddress), h.Index)
		if err := putJSON(m, key, h); err != nil {
			return err
		}
	}
	return nil
}

func (m *MemoryConnector) DeleteBalanceHistories(transactionHash string, transferHash string) error {
	histories, err := scanPrefix[common.BalanceHistory](m, "balance:")
	if err != nil {
		return err
	}
	for _, h := range histories {
		if h.TransactionHash == transactionHash && h.TransferHash == transferHash {
			key := fmt.Sprintf("balance:%s:%s:%d", strings.ToLower(h.Address), strings.ToLower(h.TokenAddress), h.Index)
			m.cache.Remove(key)
		}
	}
	return nil
}

func (m *MemoryConnector) GetLatestBalance(address string, tokenAddress string) (*common.BalanceHistory, error) {
	prefix := fmt.Sprintf("balance:%s:%s:", strings.ToLower(address), strings.ToLower(tokenAddress))
	histories, err := scanPrefix[common.BalanceHistory](m, prefix)
	if err != nil {
		return nil, err
	}
	var latest *common.BalanceHistory
	for i := range histories {
		h := &histories[i]
		if latest == nil || balanceAfter(h, latest) {
			latest = h
		}
	}
	return latest, nil
}

func (m *MemoryConnector) GetBalanceHistories(qf QueryFilter) (QueryResult[common.BalanceHistory], error) {
	prefix := "balance:"
	if qf.Address != "" && qf.TokenAddress != "" {
		prefix = fmt.Sprintf("balance:%s:%s:", strings.ToLower(qf.Address), strings.ToLower(qf.TokenAddress))
	}
	histories, err := scanPrefix[common.BalanceHistory](m, prefix)
	if err != nil {
		return QueryResult[common.BalanceHistory]{}, err
	}
	filtered := []common.BalanceHistory{}
	for _, h := range histories {
		if qf.Address != "" && !strings.EqualFold(h.Address, qf.Address) {
			continue
		}
		if qf.TokenAddress != "" && !strings.EqualFold(h.TokenAddress, qf.TokenAddress) {
			continue
		}
		filtered = append(filtered, h)
	}
	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].Index < filtered[j].Index
	})
	return QueryResult[common.BalanceHistory]{Data: page(filtered, qf)}, nil
}

// balanceAfter reports whether a comes after b in ledger order.
func balanceAfter(a *common.BalanceHistory, b *common.BalanceHistory) bool {
	if cmp := a.BlockNumber.Cmp(b.BlockNumber); cmp != 0 {
		return cmp > 0
	}
	if a.TransactionIndex != b.TransactionIndex {
		return a.TransactionIndex > b.TransactionIndex
	}
	return a.LogIndex > b.LogIndex
}

// Swaps

func (m *MemoryConnector) InsertSwaps(swaps []common.Swap) error {
	for _, s := range swaps {
		if err := putJSON(m, fmt.Sprintf("swap:%s", s.Hash), s); err != nil {
			return err
		}
	}
	return nil
}

func (m *MemoryConnector) DeleteSwapsByTransaction(transactionHash string) error {
	swaps, err := scanPrefix[common.Swap](m, "swap:")
	if err != nil {
		return err
	}
	for _, s := range swaps {
		if s.TransactionHash == transactionHash {
			m.cache.Remove(fmt.Sprintf("swap:%s", s.Hash))
		}
	}
	return nil
}

func (m *MemoryConnector) GetSwap(hash string) (*common.Swap, error) {
	return getJSON[common.Swap](m, fmt.Sprintf("swap:%s", hash))
}

func (m *MemoryConnector) GetSwapsByBlock(blockNumber *big.Int) ([]common.Swap, error) {
	swaps, err := scanPrefix[common.Swap](m, "swap:")
	if err != nil {
		return nil, err
	}
	filtered := []common.Swap{}
	for _, s := range swaps {
		if s.BlockNumber.Cmp(blockNumber) == 0 {
			filtered = append(filtered, s)
		}
	}
	sort.Slice(filtered, func(i, j int) bool {
		if filtered[i].TransactionIndex != filtered[j].TransactionIndex {
			return filtered[i].TransactionIndex < filtered[j].TransactionIndex
		}
		return filtered[i].Hash < filtered[j].Hash
	})
	return filtered, nil
}

func (m *MemoryConnector) GetSwaps(qf QueryFilter) (QueryResult[common.Swap], error) {
	swaps, err := scanPrefix[common.Swap](m, "swap:")
	if err != nil {
		return QueryResult[common.Swap]{}, err
	}
	filtered := []common.Swap{}
	for _, s := range swaps {
		if qf.BlockNumber != nil && s.BlockNumber.Cmp(qf.BlockNumber) != 0 {
			continue
		}
		if qf.TransactionHash != "" && s.TransactionHash != qf.TransactionHash {
			continue
		}
		if qf.TokenAddress != "" && !strings.EqualFold(s.FromTokenAddress, qf.TokenAddress) && !strings.EqualFold(s.ToTokenAddress, qf.TokenAddress) {
			continue
		}
		filtered = append(filtered, s)
	}
	sort.Slice(filtered, func(i, j int) bool {
		if cmp := filtered[i].BlockNumber.Cmp(filtered[j].BlockNumber); cmp != 0 {
			return cmp < 0
		}
		return filtered[i].TransactionIndex < filtered[j].TransactionIndex
	})
	return QueryResult[common.Swap]{Data: page(filtered, qf)}, nil
}

// Prices

func (m *MemoryConnector) InsertPrices(prices []common.Price) error {
	for _, price := range prices {
		if err := putJSON(m, fmt.Sprintf("price:%s", price.Hash), price); err != nil {
			return err
		}
	}
	return nil
}

func (m *MemoryConnector) DeletePricesBySwap(swapHash string) error {
	prices, err := scanPrefix[common.Price](m, "price:")
	if err != nil {
		return err
	}
	for _, price := range prices {
		if price.SwapHash == swapHash {
			m.cache.Remove(fmt.Sprintf("price:%s", price.Hash))
		}
	}
	return nil
}

func (m *MemoryConnector) ReplaceBlockPrices(blockNumber *big.Int, prices []common.Price) error {
	existing, err := m.GetPricesByBlock(blockNumber)
	if err != nil {
		return err
	}
	for _, price := range existing {
		m.cache.Remove(fmt.Sprintf("price:%s", price.Hash))
	}
	for _, price := range prices {
		if err := putJSON(m, fmt.Sprintf("price:%s", price.Hash), price); err != nil {
			return err
		}
	}
	return nil
}

func (m *MemoryConnector) GetPricesByBlock(blockNumber *big.Int) ([]common.Price, error) {
	prices, err := scanPrefix[common.Price](m, "price:")
	if err != nil {
		return nil, err
	}
	filtered := []common.Price{}
	for _, price := range prices {
		if price.BlockNumber.Cmp(blockNumber) == 0 {
			filtered = append(filtered, price)
		}
	}
	sort.Slice(filtered, func(i, j int) bool {
		if filtered[i].TransactionIndex != filtered[j].TransactionIndex {
			return filtered[i].TransactionIndex < filtered[j].TransactionIndex
		}
		return filtered[i].Hash < filtered[j].Hash
	})
	return filtered, nil
}

func (m *MemoryConnector) GetPrice(hash string) (*common.Price, error) {
	return getJSON[common.Price](m, fmt.Sprintf("price:%s", hash))
}

func (m *MemoryConnector) GetLatestTokenPrice(tokenAddress string, beforeBlock *big.Int) (*common.Price, error) {
	prices, err := scanPrefix[common.Price](m, "price:")
	if err != nil {
		return nil, err
	}
	var latest *common.Price
	for i := range prices {
		price := &prices[i]
		if !strings.EqualFold(price.TokenAddress, tokenAddress) {
			continue
		}
		if price.BlockNumber.Cmp(beforeBlock) >= 0 {
			continue
		}
		if price.UsdPrice == "0" && price.EthPrice == "0" && price.BtcPrice == "0" {
			continue
		}
		if latest == nil || priceAfter(price, latest) {
			latest = price
		}
	}
	return latest, nil
}

func priceAfter(a *common.Price, b *common.Price) bool {
	if cmp := a.BlockNumber.Cmp(b.BlockNumber); cmp != 0 {
		return cmp > 0
	}
	return a.TransactionIndex > b.TransactionIndex
}

// Contracts

func (m *MemoryConnector) InsertContract(contract common.Contract) error {
	return putJSON(m, fmt.Sprintf("contract:%s", strings.ToLower(contract.Address)), contract)
}

func (m *MemoryConnector) DeleteContract(address string) error {
	m.cache.Remove(fmt.Sprintf("contract:%s", strings.ToLower(address)))
	return nil
}

func (m *MemoryConnector) GetContract(address string) (*common.Contract, error) {
	return getJSON[common.Contract](m, fmt.Sprintf("contract:%s", strings.ToLower(address)))
}

// Internal transactions

func (m *MemoryConnector) InsertInternalTransactions(itxs []common.InternalTransaction) error {
	for _, itx := range itxs {
		if err := putJSON(m, fmt.Sprintf("itx:%s:%d", itx.TransactionHash, itx.CallIndex), itx); err != nil {
			return err
		}
	}
	return nil
}

func (m *MemoryConnector) DeleteInternalTransactions(transactionHash string) error {
	deletePrefix(m, fmt.Sprintf("itx:%s:", transactionHash))
	return nil
}

func (m *MemoryConnector) GetInternalTransactions(transactionHash string) ([]common.InternalTransaction, error) {
	itxs, err := scanPrefix[common.InternalTransaction](m, fmt.Sprintf("itx:%s:", transactionHash))
	if err != nil {
		return nil, err
	}
	sort.Slice(itxs, func(i, j int) bool {
		return itxs[i].CallIndex < itxs[j].CallIndex
	})
	return itxs, nil
}
