package orchestrator

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/rs/zerolog"

	config "github.com/blockpulse/indexer/configs"
	"github.com/blockpulse/indexer/internal/log"
	"github.com/blockpulse/indexer/internal/metrics"
	"github.com/blockpulse/indexer/internal/rpc"
	"github.com/blockpulse/indexer/internal/storage"
	"github.com/blockpulse/indexer/internal/stream"
)

const DEFAULT_POLL_INTERVAL_MS = 1000

// Poller watches the chain head and feeds every new block number into the
// pipeline. It is the only component that originates messages; everything
// downstream reacts.
type Poller struct {
	rpc             *rpc.Multiplexer
	storage         storage.IMainStorage
	producer        *stream.Producer
	intervalMs      int64
	lastPolledBlock *big.Int
	logger          zerolog.Logger
}

func NewPoller(mux *rpc.Multiplexer, s storage.IMainStorage, producer *stream.Producer) *Poller {
	intervalMs := int64(config.Cfg.Poller.Interval)
	if intervalMs <= 0 {
		intervalMs = DEFAULT_POLL_INTERVAL_MS
	}
	return &Poller{
		rpc:        mux,
		storage:    s,
		producer:   producer,
		intervalMs: intervalMs,
		logger:     log.NewLogger("poller"),
	}
}

// startBlock picks up where a previous run stopped: the configured start
// block, or one past the highest block already in storage, whichever is
// larger.
func (p *Poller) startBlock() (*big.Int, error) {
	start := big.NewInt(int64(config.Cfg.Poller.FromBlock))
	maxStored, err := p.storage.GetMaxBlockNumber()
	if err != nil {
		return nil, fmt.Errorf("failed to read max stored block: %w", err)
	}
	next := new(big.Int).Add(maxStored, big.NewInt(1))
	if next.Cmp(start) > 0 {
		return next, nil
	}
	return start, nil
}

func (p *Poller) Run(ctx context.Context) error {
	next, err := p.startBlock()
	if err != nil {
		return err
	}
	p.logger.Info().Str("from_block", next.String()).Msg("Poller starting")

	ticker := time.NewTicker(time.Duration(p.intervalMs) * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		head, err := p.pollHead(ctx)
		if err != nil {
			p.logger.Error().Err(err).Msg("Failed to poll chain head")
			continue
		}

		for next.Cmp(head) <= 0 {
			msg := stream.Message{
				Topic:   TopicBlocks,
				Key:     next.String(),
				Type:    "block",
				Payload: BlockMessage{BlockNumber: next.String()},
			}
			if err := p.producer.Publish(ctx, []stream.Message{msg}); err != nil {
				p.logger.Error().Err(err).Str("block", next.String()).Msg("Failed to publish block")
				break
			}
			metrics.LastPolledBlock.Set(float64(next.Int64()))
			p.lastPolledBlock = new(big.Int).Set(next)
			next.Add(next, big.NewInt(1))
		}
	}
}

func (p *Poller) pollHead(ctx context.Context) (*big.Int, error) {
	client, err := p.rpc.GetClient(ctx)
	if err != nil {
		return nil, err
	}
	head, err := client.GetLatestBlockNumber(ctx)
	if err != nil {
		p.rpc.Blacklist(ctx, client)
		return nil, err
	}
	return head, nil
}
