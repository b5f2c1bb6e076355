package orchestrator

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	config "github.com/blockpulse/indexer/configs"
	"github.com/blockpulse/indexer/internal/decoder"
	"github.com/blockpulse/indexer/internal/kv"
	"github.com/blockpulse/indexer/internal/pricing"
	"github.com/blockpulse/indexer/internal/queue"
	"github.com/blockpulse/indexer/internal/rpc"
	"github.com/blockpulse/indexer/internal/storage"
	"github.com/blockpulse/indexer/internal/stream"
)

// Orchestrator owns the shared connections of one indexer process and wires
// the requested pipeline role onto them. Stages never share in-process state;
// they communicate only through the brokers and storage.
type Orchestrator struct {
	rpc      *rpc.Multiplexer
	storage  storage.IStorage
	kvStore  *kv.Store
	natsConn *nats.Conn
	queuePub *queue.Publisher
	schemas  *stream.SchemaCache
	pipeline *Pipeline
}

func NewOrchestrator(ctx context.Context) (*Orchestrator, error) {
	kvStore, err := kv.NewStore(&config.Cfg.Redis)
	if err != nil {
		return nil, err
	}

	clients := make([]rpc.IRPCClient, 0, len(config.Cfg.RPC.URLs))
	for _, url := range config.Cfg.RPC.URLs {
		client, err := rpc.NewClient(ctx, url)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize rpc client for %s: %w", url, err)
		}
		clients = append(clients, client)
	}
	mux, err := rpc.NewMultiplexer(clients, kvStore)
	if err != nil {
		return nil, err
	}

	mainStorage, err := storage.NewStorageConnector(&config.Cfg.Storage)
	if err != nil {
		return nil, err
	}

	natsConn, err := queue.Connect(&config.Cfg.Nats)
	if err != nil {
		return nil, err
	}
	queuePub := queue.NewPublisher(natsConn, &config.Cfg.Nats)

	registry := decoder.NewRegistry()
	engine := pricing.NewEngine(mainStorage.MainStorage, &config.Cfg.Pricing)

	return &Orchestrator{
		rpc:      mux,
		storage:  mainStorage,
		kvStore:  kvStore,
		natsConn: natsConn,
		queuePub: queuePub,
		schemas:  stream.NewSchemaCache(kvStore),
		pipeline: NewPipeline(mux, mainStorage.MainStorage, queuePub, registry, engine),
	}, nil
}

func (o *Orchestrator) Storage() storage.IStorage { return o.storage }

// RunPoller runs the chain-head poller until the context is cancelled.
func (o *Orchestrator) RunPoller(ctx context.Context) error {
	producer, err := stream.NewProducer(&config.Cfg.Kafka, o.schemas)
	if err != nil {
		return err
	}
	defer producer.Close()
	return NewPoller(o.rpc, o.storage.MainStorage, producer).Run(ctx)
}

// RunStreamStage runs one durable-log consumer until the context is
// cancelled or the transport fails.
func (o *Orchestrator) RunStreamStage(ctx context.Context, topic string) error {
	var handler stream.StreamHandler
	switch topic {
	case TopicBlocks:
		handler = o.pipeline.BlockStreamHandler()
	case TopicTransactions:
		handler = o.pipeline.TransactionStreamHandler()
	case TopicSwaps:
		handler = o.pipeline.SwapStreamHandler()
	case TopicPrices:
		handler = o.pipeline.PriceStreamHandler()
	default:
		return fmt.Errorf("unknown stream stage %q", topic)
	}

	consumer, err := stream.NewConsumer(&config.Cfg.Kafka, topic, handler, o.schemas)
	if err != nil {
		return err
	}
	return consumer.Run(ctx)
}

// RunQueueStage runs one routed-queue consumer together with its dead-letter
// consumer until the context is cancelled.
func (o *Orchestrator) RunQueueStage(ctx context.Context, subject string) error {
	var handler, onFinish queue.Handler
	switch subject {
	case SubjectReceipts:
		handler = o.pipeline.ReceiptHandler()
		onFinish = o.pipeline.ReceiptOnFinish()
	case SubjectTransfers:
		handler = o.pipeline.TransferHandler()
		onFinish = o.pipeline.TransferOnFinish()
	case SubjectBalances:
		handler = o.pipeline.BalanceHandler()
	case SubjectInternalTransactions:
		handler = o.pipeline.InternalTransactionHandler()
	case SubjectContracts:
		handler = o.pipeline.ContractHandler()
	default:
		return fmt.Errorf("unknown queue stage %q", subject)
	}

	consumer := queue.NewConsumer(o.natsConn, o.queuePub, &config.Cfg.Nats, subject, handler, onFinish)
	if err := consumer.Start(ctx); err != nil {
		return err
	}
	defer consumer.Stop()

	dlx := queue.NewDeadLetterConsumer(o.natsConn, o.queuePub, &config.Cfg.Nats, subject)
	if err := dlx.Start(); err != nil {
		return err
	}
	defer dlx.Stop()

	<-ctx.Done()
	return ctx.Err()
}

func (o *Orchestrator) Close() {
	if o.natsConn != nil {
		o.natsConn.Drain()
	}
	if err := o.storage.MainStorage.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close storage")
	}
	if err := o.kvStore.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close kv store")
	}
	o.rpc.Close()
}
