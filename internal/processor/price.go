package processor

import (
	"context"
	"fmt"
	"math/big"

	"github.com/blockpulse/indexer/internal/common"
	"github.com/blockpulse/indexer/internal/pricing"
	"github.com/blockpulse/indexer/internal/storage"
)

type PriceProcessor struct {
	storage storage.IMainStorage
	engine  *pricing.Engine
}

func NewPriceProcessor(s storage.IMainStorage, engine *pricing.Engine) *PriceProcessor {
	return &PriceProcessor{storage: s, engine: engine}
}

func (p *PriceProcessor) Name() string { return "price" }

func (p *PriceProcessor) Get(ctx context.Context, blockNumber *big.Int) (*common.Block, error) {
	block, err := p.storage.GetBlock(blockNumber)
	if err != nil {
		return nil, err
	}
	if block == nil {
		return nil, fmt.Errorf("block %s: %w", blockNumber.String(), common.ErrNoGetResult)
	}
	return block, nil
}

func (p *PriceProcessor) ToInput(block *common.Block) (*common.Block, error) {
	return block, nil
}

// DeleteFromDb is a no-op: the bridging engine persists with a block-scoped
// delete-and-insert in one storage transaction.
func (p *PriceProcessor) DeleteFromDb(blockNumber *big.Int) error {
	return nil
}

func (p *PriceProcessor) CreateInDb(input *common.Block) error {
	_, err := p.engine.BridgeBlock(input.Number)
	return err
}
