package processor

import (
	"context"
	"errors"
	"fmt"

	"github.com/blockpulse/indexer/internal/common"
	"github.com/blockpulse/indexer/internal/rpc"
	"github.com/blockpulse/indexer/internal/storage"
)

// ReceiptSource is a receipt with its ordered logs as fetched from the chain.
type ReceiptSource struct {
	Receipt common.Receipt
	Logs    []common.Log
}

// ReceiptInput carries the rows to write plus the hashes of Transfer-shaped
// logs for the transfer stage to fan out over.
type ReceiptInput struct {
	Receipt           common.Receipt
	Logs              []common.Log
	TransferLogHashes []string
}

type ReceiptProcessor struct {
	rpc     *rpc.Multiplexer
	storage storage.IMainStorage
}

func NewReceiptProcessor(mux *rpc.Multiplexer, s storage.IMainStorage) *ReceiptProcessor {
	return &ReceiptProcessor{rpc: mux, storage: s}
}

func (p *ReceiptProcessor) Name() string { return "receipt" }

func (p *ReceiptProcessor) Get(ctx context.Context, transactionHash string) (*ReceiptSource, error) {
	client, err := p.rpc.GetClient(ctx)
	if err != nil {
		return nil, err
	}
	receipt, logs, err := client.GetTransactionReceipt(ctx, transactionHash)
	if err != nil {
		if !errors.Is(err, common.ErrNoGetResult) {
			p.rpc.Blacklist(ctx, client)
		}
		return nil, err
	}
	return &ReceiptSource{Receipt: *receipt, Logs: logs}, nil
}

// ToInput backfills log timestamps from the stored block; see
// TransactionProcessor.ToInput for the ordering this relies on.
func (p *ReceiptProcessor) ToInput(source *ReceiptSource) (*ReceiptInput, error) {
	input := &ReceiptInput{Receipt: source.Receipt, Logs: source.Logs}
	if len(input.Logs) > 0 && input.Logs[0].BlockTimestamp.IsZero() {
		block, err := p.storage.GetBlock(source.Receipt.BlockNumber)
		if err != nil {
			return nil, err
		}
		if block == nil {
			return nil, fmt.Errorf("block %s: %w", source.Receipt.BlockNumber.String(), common.ErrNotYetIndexed)
		}
		for i := range input.Logs {
			input.Logs[i].BlockTimestamp = block.Timestamp
		}
	}
	for _, l := range input.Logs {
		if l.IsTransfer() {
			input.TransferLogHashes = append(input.TransferLogHashes, l.LogHash)
		}
	}
	return input, nil
}

func (p *ReceiptProcessor) DeleteFromDb(transactionHash string) error {
	return p.storage.DeleteReceipt(transactionHash)
}

func (p *ReceiptProcessor) CreateInDb(input *ReceiptInput) error {
	return p.storage.InsertReceipt(input.Receipt, input.Logs)
}
