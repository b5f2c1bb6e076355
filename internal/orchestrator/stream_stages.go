package orchestrator

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	config "github.com/blockpulse/indexer/configs"
	"github.com/blockpulse/indexer/internal/common"
	"github.com/blockpulse/indexer/internal/decoder"
	"github.com/blockpulse/indexer/internal/pricing"
	"github.com/blockpulse/indexer/internal/processor"
	"github.com/blockpulse/indexer/internal/rpc"
	"github.com/blockpulse/indexer/internal/storage"
	"github.com/blockpulse/indexer/internal/stream"
)

const zeroAddress = "0x0000000000000000000000000000000000000000"

// queuePublisher is the part of queue.Publisher the stage handlers need.
type queuePublisher interface {
	Publish(subject string, payload any) error
}

// Pipeline holds the shared dependencies the stage handlers close over.
type Pipeline struct {
	rpc      *rpc.Multiplexer
	storage  storage.IMainStorage
	queuePub queuePublisher
	registry *decoder.Registry
	pricing  *pricing.Engine
}

func NewPipeline(mux *rpc.Multiplexer, s storage.IMainStorage, queuePub queuePublisher, registry *decoder.Registry, engine *pricing.Engine) *Pipeline {
	return &Pipeline{
		rpc:      mux,
		storage:  s,
		queuePub: queuePub,
		registry: registry,
		pricing:  engine,
	}
}

// BlockStreamHandler indexes a block row and fans out its transactions: one
// durable-log message per transaction for the ordered branch, one routed
// receipt message per transaction for the derivation branch.
func (p *Pipeline) BlockStreamHandler() stream.StreamHandler {
	proc := processor.NewBlockProcessor(p.rpc, p.storage)
	return func(ctx context.Context, envelope *stream.Envelope) ([]stream.Message, error) {
		msg, err := decodeMessage[BlockMessage](envelope.Data)
		if err != nil {
			return nil, err
		}
		blockNumber, err := parseBlockNumber(msg.BlockNumber)
		if err != nil {
			return nil, err
		}

		input, err := processor.Process(ctx, proc, blockNumber)
		if err != nil || input == nil {
			return nil, err
		}

		outs := make([]stream.Message, 0, len(input.TransactionHashes))
		for _, hash := range input.TransactionHashes {
			outs = append(outs, stream.Message{
				Topic:   TopicTransactions,
				Key:     hash,
				Type:    "transaction",
				Payload: TransactionMessage{Hash: hash},
			})
			if err := p.queuePub.Publish(SubjectReceipts, ReceiptMessage{TransactionHash: hash}); err != nil {
				return nil, err
			}
		}
		return outs, nil
	}
}

// TransactionStreamHandler indexes a transaction row, hands it to the swap
// branch and queues the trace and contract probes.
func (p *Pipeline) TransactionStreamHandler() stream.StreamHandler {
	proc := processor.NewTransactionProcessor(p.rpc, p.storage)
	return func(ctx context.Context, envelope *stream.Envelope) ([]stream.Message, error) {
		msg, err := decodeMessage[TransactionMessage](envelope.Data)
		if err != nil {
			return nil, err
		}
		hash, err := requireHash(msg.Hash)
		if err != nil {
			return nil, err
		}

		input, err := processor.Process(ctx, proc, hash)
		if err != nil || input == nil {
			return nil, err
		}

		if err := p.queuePub.Publish(SubjectInternalTransactions, InternalTransactionMessage{TransactionHash: hash}); err != nil {
			return nil, err
		}
		// A nil-recipient call is a contract creation; the receipt stage
		// surfaces the deployed address, so there is nothing to probe here.
		if input.ToAddress != zeroAddress {
			contractMsg := ContractMessage{
				Address:         input.ToAddress,
				TransactionHash: hash,
				BlockNumber:     input.BlockNumber.String(),
			}
			if err := p.queuePub.Publish(SubjectContracts, contractMsg); err != nil {
				return nil, err
			}
		}

		return []stream.Message{{
			Topic:   TopicSwaps,
			Key:     hash,
			Type:    "swap",
			Payload: SwapMessage{TransactionHash: hash},
		}}, nil
	}
}

// SwapStreamHandler decodes DEX swaps once both the transaction and its
// receipt are indexed, then schedules the block for price bridging. A swap
// that fails validation is terminal: it is logged and skipped, never retried.
func (p *Pipeline) SwapStreamHandler() stream.StreamHandler {
	proc := processor.NewSwapProcessor(p.storage, p.registry, config.Cfg.Dex.Routers)
	return func(ctx context.Context, envelope *stream.Envelope) ([]stream.Message, error) {
		msg, err := decodeMessage[SwapMessage](envelope.Data)
		if err != nil {
			return nil, err
		}
		hash, err := requireHash(msg.TransactionHash)
		if err != nil {
			return nil, err
		}

		input, err := processor.Process(ctx, proc, hash)
		if err != nil {
			if errors.Is(err, common.ErrInvalidSwap) {
				log.Warn().Str("transaction", hash).Err(err).Msg("Swap validation failed, skipping transaction")
				return nil, nil
			}
			return nil, err
		}
		if input == nil || len(input.Swaps) == 0 {
			return nil, nil
		}

		blockNumber := input.Swaps[0].BlockNumber.String()
		return []stream.Message{{
			Topic:   TopicPrices,
			Key:     blockNumber,
			Type:    "price",
			Payload: PriceMessage{BlockNumber: blockNumber},
		}}, nil
	}
}

// PriceStreamHandler bridges the prices of one block.
func (p *Pipeline) PriceStreamHandler() stream.StreamHandler {
	proc := processor.NewPriceProcessor(p.storage, p.pricing)
	return func(ctx context.Context, envelope *stream.Envelope) ([]stream.Message, error) {
		msg, err := decodeMessage[PriceMessage](envelope.Data)
		if err != nil {
			return nil, err
		}
		blockNumber, err := parseBlockNumber(msg.BlockNumber)
		if err != nil {
			return nil, err
		}

		_, err = processor.Process(ctx, proc, blockNumber)
		return nil, err
	}
}
