package ledger

import (
	"fmt"
	"math/big"

	"github.com/blockpulse/indexer/internal/common"
	"github.com/blockpulse/indexer/internal/storage"
)

// Ledger derives per-(address, token) running balances from transfers. Each
// transfer appends rows to the balance history; the history is append-only
// with a per-pair index increasing by exactly one per row.
type Ledger struct {
	storage storage.IMainStorage
}

func NewLedger(s storage.IMainStorage) *Ledger {
	return &Ledger{storage: s}
}

// latest returns the newest balance row for (address, token), or a zero-value
// row at index 0 when the pair has no history yet.
func (l *Ledger) latest(address string, tokenAddress string) (uint64, *big.Int, error) {
	row, err := l.storage.GetLatestBalance(address, tokenAddress)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to get latest balance for %s/%s: %w", address, tokenAddress, err)
	}
	if row == nil {
		return 0, big.NewInt(0), nil
	}
	return row.Index, row.Amount, nil
}

// BuildHistories computes the balance rows a transfer appends. A self-transfer
// yields a single row with the amount unchanged; anything else yields a debit
// row for the sender and a credit row for the recipient.
func (l *Ledger) BuildHistories(transfer *common.Transfer) ([]common.BalanceHistory, error) {
	fromIndex, fromAmount, err := l.latest(transfer.FromAddress, transfer.TokenAddress)
	if err != nil {
		return nil, err
	}

	if transfer.FromAddress == transfer.ToAddress {
		return []common.BalanceHistory{
			newHistory(transfer, transfer.FromAddress, fromIndex+1, new(big.Int).Set(fromAmount)),
		}, nil
	}

	toIndex, toAmount, err := l.latest(transfer.ToAddress, transfer.TokenAddress)
	if err != nil {
		return nil, err
	}

	return []common.BalanceHistory{
		newHistory(transfer, transfer.FromAddress, fromIndex+1, new(big.Int).Sub(fromAmount, transfer.Amount)),
		newHistory(transfer, transfer.ToAddress, toIndex+1, new(big.Int).Add(toAmount, transfer.Amount)),
	}, nil
}

// Apply replaces the rows previously derived from this transfer and inserts
// the freshly computed ones. The delete is scoped to the single
// (transactionHash, transferHash) pair so unrelated history is untouched.
func (l *Ledger) Apply(transfer *common.Transfer) ([]common.BalanceHistory, error) {
	if err := l.storage.DeleteBalanceHistories(transfer.TransactionHash, transfer.Hash); err != nil {
		return nil, fmt.Errorf("failed to delete balance histories for transfer %s: %w", transfer.Hash, err)
	}

	histories, err := l.BuildHistories(transfer)
	if err != nil {
		return nil, err
	}

	if err := l.storage.InsertBalanceHistories(histories); err != nil {
		return nil, fmt.Errorf("failed to insert balance histories for transfer %s: %w", transfer.Hash, err)
	}
	return histories, nil
}

func newHistory(transfer *common.Transfer, address string, index uint64, amount *big.Int) common.BalanceHistory {
	return common.BalanceHistory{
		ChainId:          transfer.ChainId,
		Address:          address,
		TokenAddress:     transfer.TokenAddress,
		Index:            index,
		Amount:           amount,
		TransferHash:     transfer.Hash,
		TransactionHash:  transfer.TransactionHash,
		BlockNumber:      transfer.BlockNumber,
		TransactionIndex: transfer.TransactionIndex,
		LogIndex:         transfer.LogIndex,
	}
}
