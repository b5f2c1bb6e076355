package storage

import (
	"fmt"
	"math/big"

	config "github.com/blockpulse/indexer/configs"
	"github.com/blockpulse/indexer/internal/common"
)

// QueryFilter narrows and pages findMany queries. Zero values mean "no
// constraint"; Limit defaults to 100.
type QueryFilter struct {
	BlockNumber     *big.Int
	TransactionHash string
	Address         string
	TokenAddress    string
	SortBy          string
	SortOrder       string
	Limit           int
	Offset          int
}

type QueryResult[T any] struct {
	Data []T `json:"data"`
}

type IStorage struct {
	MainStorage IMainStorage
}

// IMainStorage is the full read/write surface the pipeline stages and the
// read API use. Every derived entity can be deleted and recomputed, so all
// delete operations are safe to call when nothing exists. Single-row Get
// operations return (nil, nil) when no row matches.
type IMainStorage interface {
	// blocks
	InsertBlock(block common.Block) error
	DeleteBlock(blockNumber *big.Int) error
	GetBlock(blockNumber *big.Int) (*common.Block, error)
	GetBlocks(qf QueryFilter) (QueryResult[common.Block], error)
	GetMaxBlockNumber() (*big.Int, error)

	// transactions
	InsertTransaction(tx common.Transaction) error
	DeleteTransaction(hash string) error
	GetTransaction(hash string) (*common.Transaction, error)
	GetTransactions(qf QueryFilter) (QueryResult[common.Transaction], error)

	// receipts and logs
	InsertReceipt(receipt common.Receipt, logs []common.Log) error
	DeleteReceipt(transactionHash string) error
	GetReceipt(transactionHash string) (*common.Receipt, []common.Log, error)
	GetLog(logHash string) (*common.Log, error)
	GetLogsByTransaction(transactionHash string) ([]common.Log, error)

	// transfers
	InsertTransfer(transfer common.Transfer) error
	DeleteTransferByLogHash(logHash string) error
	GetTransfer(hash string) (*common.Transfer, error)
	GetTransfersByTransaction(transactionHash string) ([]common.Transfer, error)
	GetTransfers(qf QueryFilter) (QueryResult[common.Transfer], error)

	// balance histories
	InsertBalanceHistories(histories []common.BalanceHistory) error
	DeleteBalanceHistories(transactionHash string, transferHash string) error
	// GetLatestBalance returns the most recent ledger row for the pair,
	// ordered by block number, transaction index, log index descending.
	GetLatestBalance(address string, tokenAddress string) (*common.BalanceHistory, error)
	GetBalanceHistories(qf QueryFilter) (QueryResult[common.BalanceHistory], error)

	// swaps
	InsertSwaps(swaps []common.Swap) error
	DeleteSwapsByTransaction(transactionHash string) error
	GetSwap(hash string) (*common.Swap, error)
	GetSwapsByBlock(blockNumber *big.Int) ([]common.Swap, error)
	GetSwaps(qf QueryFilter) (QueryResult[common.Swap], error)

	// prices
	InsertPrices(prices []common.Price) error
	DeletePricesBySwap(swapHash string) error
	// ReplaceBlockPrices deletes every price row of the block and inserts the
	// bridged set in one storage transaction.
	ReplaceBlockPrices(blockNumber *big.Int, prices []common.Price) error
	GetPricesByBlock(blockNumber *big.Int) ([]common.Price, error)
	GetPrice(hash string) (*common.Price, error)
	// GetLatestTokenPrice returns the most recent resolved price row for the
	// token strictly before the given block, ordered by block number then
	// transaction index descending.
	GetLatestTokenPrice(tokenAddress string, beforeBlock *big.Int) (*common.Price, error)

	// contracts
	InsertContract(contract common.Contract) error
	DeleteContract(address string) error
	GetContract(address string) (*common.Contract, error)

	// internal transactions
	InsertInternalTransactions(itxs []common.InternalTransaction) error
	DeleteInternalTransactions(transactionHash string) error
	GetInternalTransactions(transactionHash string) ([]common.InternalTransaction, error)

	Close() error
}

func NewStorageConnector(cfg *config.StorageConfig) (IStorage, error) {
	var storage IStorage
	var err error

	storage.MainStorage, err = NewConnector[IMainStorage](&cfg.Main)
	if err != nil {
		return IStorage{}, fmt.Errorf("failed to create main storage: %w", err)
	}

	return storage, nil
}

func NewConnector[T any](cfg *config.StorageConnectionConfig) (T, error) {
	var conn interface{}
	var err error
	if cfg.Postgres != nil {
		conn, err = NewPostgresConnector(cfg.Postgres)
	} else if cfg.Memory != nil {
		conn, err = NewMemoryConnector(cfg.Memory)
	} else {
		return *new(T), fmt.Errorf("no storage driver configured")
	}

	if err != nil {
		return *new(T), err
	}

	typedConn, ok := conn.(T)
	if !ok {
		return *new(T), fmt.Errorf("connector does not implement the required interface")
	}

	return typedConn, nil
}

func getLimit(qf QueryFilter) int {
	if qf.Limit <= 0 {
		return 100
	}
	return qf.Limit
}
