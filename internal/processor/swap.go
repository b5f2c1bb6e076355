package processor

import (
	"context"
	"fmt"
	"strings"

	"github.com/blockpulse/indexer/internal/common"
	"github.com/blockpulse/indexer/internal/decoder"
	"github.com/blockpulse/indexer/internal/storage"
)

// SwapSource is the transaction joined with its receipt and logs. Both must
// already be indexed; the swap stage waits on the slower branch otherwise.
type SwapSource struct {
	Transaction common.Transaction
	Receipt     common.Receipt
	Logs        []common.Log
}

// SwapInput carries the decoded swap rows plus their unresolved price rows.
// Only the root swap gets price rows; hop children are not priced.
type SwapInput struct {
	Swaps  []common.Swap
	Prices []common.Price
}

type SwapProcessor struct {
	storage  storage.IMainStorage
	registry *decoder.Registry
	routers  map[string]bool
}

// NewSwapProcessor builds the swap stage. A non-empty router list restricts
// decoding to calls addressed to those routers; an empty list trusts the
// selector registry alone.
func NewSwapProcessor(s storage.IMainStorage, registry *decoder.Registry, routers []string) *SwapProcessor {
	set := map[string]bool{}
	for _, r := range routers {
		set[strings.ToLower(r)] = true
	}
	return &SwapProcessor{storage: s, registry: registry, routers: set}
}

func (p *SwapProcessor) Name() string { return "swap" }

func (p *SwapProcessor) Get(ctx context.Context, transactionHash string) (*SwapSource, error) {
	tx, err := p.storage.GetTransaction(transactionHash)
	if err != nil {
		return nil, err
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction %s: %w", transactionHash, common.ErrNoGetResult)
	}
	receipt, logs, err := p.storage.GetReceipt(transactionHash)
	if err != nil {
		return nil, err
	}
	if receipt == nil {
		return nil, fmt.Errorf("receipt %s: %w", transactionHash, common.ErrNoGetResult)
	}
	return &SwapSource{Transaction: *tx, Receipt: *receipt, Logs: logs}, nil
}

// ToInput decodes the swap when the call data matches a registered DEX
// signature. Non-DEX and reverted transactions produce nothing; a DEX call
// whose logs fail validation fails with common.ErrInvalidSwap.
func (p *SwapProcessor) ToInput(source *SwapSource) (*SwapInput, error) {
	if len(p.routers) > 0 && !p.routers[strings.ToLower(source.Transaction.ToAddress)] {
		return nil, nil
	}
	d := p.registry.Lookup(&source.Transaction)
	if d == nil {
		return nil, nil
	}
	if !source.Receipt.Succeeded() {
		return nil, nil
	}

	swaps, err := d.DecodeSwaps(&source.Transaction, source.Logs)
	if err != nil {
		return nil, err
	}

	input := &SwapInput{Swaps: swaps}
	for _, s := range swaps {
		if !s.IsRoot {
			continue
		}
		input.Prices = append(input.Prices,
			newUnresolvedPrice(&s, s.FromTokenAddress, 1),
			newUnresolvedPrice(&s, s.ToTokenAddress, 2),
		)
	}
	return input, nil
}

func (p *SwapProcessor) DeleteFromDb(transactionHash string) error {
	// The root swap hash is the transaction hash itself, so this also
	// covers the price rows created alongside it.
	if err := p.storage.DeletePricesBySwap(transactionHash); err != nil {
		return err
	}
	return p.storage.DeleteSwapsByTransaction(transactionHash)
}

func (p *SwapProcessor) CreateInDb(input *SwapInput) error {
	if err := p.storage.InsertSwaps(input.Swaps); err != nil {
		return err
	}
	return p.storage.InsertPrices(input.Prices)
}

func newUnresolvedPrice(s *common.Swap, tokenAddress string, side int) common.Price {
	return common.Price{
		ChainId:          s.ChainId,
		Hash:             common.PriceHash(s.Hash, side),
		SwapHash:         s.Hash,
		TokenAddress:     tokenAddress,
		BlockNumber:      s.BlockNumber,
		TransactionIndex: s.TransactionIndex,
		UsdPrice:         "0",
		EthPrice:         "0",
		BtcPrice:         "0",
	}
}
