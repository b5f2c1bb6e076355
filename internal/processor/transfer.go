package processor

import (
	"context"
	"fmt"

	"github.com/blockpulse/indexer/internal/common"
	"github.com/blockpulse/indexer/internal/storage"
)

type TransferProcessor struct {
	storage storage.IMainStorage
}

func NewTransferProcessor(s storage.IMainStorage) *TransferProcessor {
	return &TransferProcessor{storage: s}
}

func (p *TransferProcessor) Name() string { return "transfer" }

func (p *TransferProcessor) Get(ctx context.Context, logHash string) (*common.Log, error) {
	l, err := p.storage.GetLog(logHash)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, fmt.Errorf("log %s: %w", logHash, common.ErrNoGetResult)
	}
	return l, nil
}

// ToInput derives a Transfer from a Transfer-shaped log. Logs of any other
// event shape produce nothing.
func (p *TransferProcessor) ToInput(l *common.Log) (*common.Transfer, error) {
	if !l.IsTransfer() {
		return nil, nil
	}
	return &common.Transfer{
		ChainId:          l.ChainId,
		Hash:             common.TransferHash(l.LogHash),
		LogHash:          l.LogHash,
		TransactionHash:  l.TransactionHash,
		TransactionIndex: l.TransactionIndex,
		BlockNumber:      l.BlockNumber,
		BlockTimestamp:   l.BlockTimestamp,
		LogIndex:         l.LogIndex,
		TokenAddress:     l.Address,
		FromAddress:      l.TransferFrom(),
		ToAddress:        l.TransferTo(),
		Amount:           l.TransferAmount(),
	}, nil
}

func (p *TransferProcessor) DeleteFromDb(logHash string) error {
	return p.storage.DeleteTransferByLogHash(logHash)
}

func (p *TransferProcessor) CreateInDb(input *common.Transfer) error {
	return p.storage.InsertTransfer(*input)
}
