package processor

import (
	"context"
	"errors"
	"fmt"

	"github.com/blockpulse/indexer/internal/common"
	"github.com/blockpulse/indexer/internal/rpc"
	"github.com/blockpulse/indexer/internal/storage"
)

type TransactionProcessor struct {
	rpc     *rpc.Multiplexer
	storage storage.IMainStorage
}

func NewTransactionProcessor(mux *rpc.Multiplexer, s storage.IMainStorage) *TransactionProcessor {
	return &TransactionProcessor{rpc: mux, storage: s}
}

func (p *TransactionProcessor) Name() string { return "transaction" }

func (p *TransactionProcessor) Get(ctx context.Context, hash string) (*common.Transaction, error) {
	client, err := p.rpc.GetClient(ctx)
	if err != nil {
		return nil, err
	}
	tx, err := client.GetTransactionByHash(ctx, hash)
	if err != nil && !errors.Is(err, common.ErrNoGetResult) {
		p.rpc.Blacklist(ctx, client)
	}
	return tx, err
}

// ToInput backfills the block timestamp, which the by-hash fetch does not
// carry. The block stage writes its row before fanning this stage out, so a
// missing block means this consumer ran ahead and must wait.
func (p *TransactionProcessor) ToInput(tx *common.Transaction) (*common.Transaction, error) {
	if tx.BlockTimestamp.IsZero() {
		block, err := p.storage.GetBlock(tx.BlockNumber)
		if err != nil {
			return nil, err
		}
		if block == nil {
			return nil, fmt.Errorf("block %s: %w", tx.BlockNumber.String(), common.ErrNotYetIndexed)
		}
		tx.BlockTimestamp = block.Timestamp
	}
	return tx, nil
}

func (p *TransactionProcessor) DeleteFromDb(hash string) error {
	return p.storage.DeleteTransaction(hash)
}

func (p *TransactionProcessor) CreateInDb(input *common.Transaction) error {
	return p.storage.InsertTransaction(*input)
}
