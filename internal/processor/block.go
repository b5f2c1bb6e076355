package processor

import (
	"context"
	"errors"
	"math/big"

	"github.com/blockpulse/indexer/internal/common"
	"github.com/blockpulse/indexer/internal/rpc"
	"github.com/blockpulse/indexer/internal/storage"
)

// BlockInput is the block row plus the transaction hashes downstream stages
// fan out over.
type BlockInput struct {
	Block             common.Block
	TransactionHashes []string
}

type BlockProcessor struct {
	rpc     *rpc.Multiplexer
	storage storage.IMainStorage
}

func NewBlockProcessor(mux *rpc.Multiplexer, s storage.IMainStorage) *BlockProcessor {
	return &BlockProcessor{rpc: mux, storage: s}
}

func (p *BlockProcessor) Name() string { return "block" }

func (p *BlockProcessor) Get(ctx context.Context, blockNumber *big.Int) (*common.BlockData, error) {
	client, err := p.rpc.GetClient(ctx)
	if err != nil {
		return nil, err
	}
	data, err := client.GetBlockByNumber(ctx, blockNumber)
	if err != nil && !errors.Is(err, common.ErrNoGetResult) {
		p.rpc.Blacklist(ctx, client)
	}
	return data, err
}

func (p *BlockProcessor) ToInput(data *common.BlockData) (*BlockInput, error) {
	hashes := make([]string, 0, len(data.Transactions))
	for _, tx := range data.Transactions {
		hashes = append(hashes, tx.Hash)
	}
	return &BlockInput{Block: data.Block, TransactionHashes: hashes}, nil
}

func (p *BlockProcessor) DeleteFromDb(blockNumber *big.Int) error {
	return p.storage.DeleteBlock(blockNumber)
}

func (p *BlockProcessor) CreateInDb(input *BlockInput) error {
	return p.storage.InsertBlock(input.Block)
}
