package processor

import (
	"context"
	"errors"

	"github.com/blockpulse/indexer/internal/common"
	"github.com/blockpulse/indexer/internal/rpc"
	"github.com/blockpulse/indexer/internal/storage"
)

// InternalTransactionInput holds the flattened call frames of one
// transaction's debug trace.
type InternalTransactionInput struct {
	TransactionHash string
	Calls           []common.InternalTransaction
}

type InternalTransactionProcessor struct {
	rpc     *rpc.Multiplexer
	storage storage.IMainStorage
}

func NewInternalTransactionProcessor(mux *rpc.Multiplexer, s storage.IMainStorage) *InternalTransactionProcessor {
	return &InternalTransactionProcessor{rpc: mux, storage: s}
}

func (p *InternalTransactionProcessor) Name() string { return "internal_transaction" }

func (p *InternalTransactionProcessor) Get(ctx context.Context, transactionHash string) ([]common.InternalTransaction, error) {
	client, err := p.rpc.GetClient(ctx)
	if err != nil {
		return nil, err
	}
	calls, err := client.TraceTransaction(ctx, transactionHash)
	if err != nil && !errors.Is(err, common.ErrNoGetResult) {
		p.rpc.Blacklist(ctx, client)
	}
	return calls, err
}

func (p *InternalTransactionProcessor) ToInput(calls []common.InternalTransaction) (*InternalTransactionInput, error) {
	if len(calls) == 0 {
		return nil, nil
	}
	return &InternalTransactionInput{
		TransactionHash: calls[0].TransactionHash,
		Calls:           calls,
	}, nil
}

func (p *InternalTransactionProcessor) DeleteFromDb(transactionHash string) error {
	return p.storage.DeleteInternalTransactions(transactionHash)
}

func (p *InternalTransactionProcessor) CreateInDb(input *InternalTransactionInput) error {
	return p.storage.InsertInternalTransactions(input.Calls)
}
