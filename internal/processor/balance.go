package processor

import (
	"context"
	"fmt"

	"github.com/blockpulse/indexer/internal/common"
	"github.com/blockpulse/indexer/internal/ledger"
	"github.com/blockpulse/indexer/internal/storage"
)

type BalanceProcessor struct {
	storage storage.IMainStorage
	ledger  *ledger.Ledger
}

func NewBalanceProcessor(s storage.IMainStorage) *BalanceProcessor {
	return &BalanceProcessor{storage: s, ledger: ledger.NewLedger(s)}
}

func (p *BalanceProcessor) Name() string { return "balance" }

func (p *BalanceProcessor) Get(ctx context.Context, transferHash string) (*common.Transfer, error) {
	t, err := p.storage.GetTransfer(transferHash)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, fmt.Errorf("transfer %s: %w", transferHash, common.ErrNoGetResult)
	}
	return t, nil
}

func (p *BalanceProcessor) ToInput(t *common.Transfer) (*common.Transfer, error) {
	return t, nil
}

func (p *BalanceProcessor) DeleteFromDb(transferHash string) error {
	t, err := p.storage.GetTransfer(transferHash)
	if err != nil {
		return err
	}
	if t == nil {
		return nil
	}
	return p.storage.DeleteBalanceHistories(t.TransactionHash, t.Hash)
}

// CreateInDb computes the ledger rows after the delete so the latest-balance
// lookups never observe the rows being replaced.
func (p *BalanceProcessor) CreateInDb(input *common.Transfer) error {
	histories, err := p.ledger.BuildHistories(input)
	if err != nil {
		return err
	}
	return p.storage.InsertBalanceHistories(histories)
}
