package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/twmb/franz-go/pkg/kgo"

	config "github.com/blockpulse/indexer/configs"
	"github.com/blockpulse/indexer/internal/common"
	"github.com/blockpulse/indexer/internal/log"
	"github.com/blockpulse/indexer/internal/metrics"
)

// waitRetryDelay is the fixed delay between wait-until-indexed attempts. The
// loop is unbounded on purpose: it blocks the partition until the upstream
// writer catches up, which only operational monitoring should bound.
const waitRetryDelay = 1 * time.Second

// StreamHandler processes one decoded message and returns the messages to
// produce downstream. Returning common.ErrNotYetIndexed (or ErrNoGetResult)
// suspends the partition until the referenced entity appears.
type StreamHandler func(ctx context.Context, envelope *Envelope) ([]Message, error)

// Consumer reads one topic strictly in offset order. Downstream produces and
// the source offset advance are committed together in one broker transaction,
// so a message's effects become visible exactly once even under redelivery.
type Consumer struct {
	sess    *kgo.GroupTransactSession
	topic   string
	prefix  string
	handler StreamHandler
	schemas *SchemaCache
	logger  zerolog.Logger
}

func NewConsumer(cfg *config.KafkaConfig, topic string, handler StreamHandler, schemas *SchemaCache) (*Consumer, error) {
	chainID := config.Cfg.RPC.ChainID
	group := fmt.Sprintf("%s-%s", cfg.GroupPrefix, topic)

	fullTopic := topic
	if cfg.TopicPrefix != "" {
		fullTopic = fmt.Sprintf("%s.%s", cfg.TopicPrefix, topic)
	}

	opts := append(baseOpts(cfg, fmt.Sprintf("blockpulse-%s-consumer-%s", topic, chainID)),
		kgo.ConsumerGroup(group),
		kgo.ConsumeTopics(fullTopic),
		kgo.TransactionalID(fmt.Sprintf("blockpulse-%s-%s", group, chainID)),
		kgo.FetchIsolationLevel(kgo.ReadCommitted()),
		kgo.RequireStableFetchOffsets(),
	)

	sess, err := kgo.NewGroupTransactSession(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create transact session for %s: %v", topic, err)
	}

	return &Consumer{
		sess:    sess,
		topic:   topic,
		prefix:  cfg.TopicPrefix,
		handler: handler,
		schemas: schemas,
		logger:  log.NewLogger(fmt.Sprintf("stream-%s", topic)),
	}, nil
}

// Run polls until the context is cancelled. Transport-level failures return
// an error and crash the consumer; broker state must not be faked after a
// transport fault, so restart is left to process supervision.
func (c *Consumer) Run(ctx context.Context) error {
	defer c.sess.Close()

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		fetches := c.sess.PollFetches(ctx)
		if fetches.IsClientClosed() {
			return fmt.Errorf("stream client for %s closed", c.topic)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if errs := fetches.Errors(); len(errs) > 0 {
			return fmt.Errorf("fetch error on %s: %v", c.topic, errs[0].Err)
		}
		if fetches.Empty() {
			continue
		}

		if err := c.consumeBatch(ctx, fetches); err != nil {
			return err
		}
	}
}

// consumeBatch processes one poll's records sequentially inside a single
// broker transaction.
func (c *Consumer) consumeBatch(ctx context.Context, fetches kgo.Fetches) error {
	if err := c.sess.Begin(); err != nil {
		return fmt.Errorf("failed to begin transaction on %s: %w", c.topic, err)
	}

	var handleErr error
	fetches.EachRecord(func(record *kgo.Record) {
		if handleErr != nil {
			return
		}
		handleErr = c.consumeRecord(ctx, record)
	})

	if handleErr != nil {
		metrics.StreamTransactionAborts.WithLabelValues(c.topic).Inc()
		if _, err := c.sess.End(ctx, kgo.TryAbort); err != nil {
			c.logger.Error().Err(err).Msg("Failed to abort transaction")
		}
		return handleErr
	}

	committed, err := c.sess.End(ctx, kgo.TryCommit)
	if err != nil {
		return fmt.Errorf("failed to end transaction on %s: %w", c.topic, err)
	}
	if !committed {
		metrics.StreamTransactionAborts.WithLabelValues(c.topic).Inc()
		c.logger.Warn().Msg("Transaction not committed, batch will be redelivered")
	}
	return nil
}

func (c *Consumer) consumeRecord(ctx context.Context, record *kgo.Record) error {
	var envelope Envelope
	if err := json.Unmarshal(record.Value, &envelope); err != nil {
		// A malformed body cannot become parseable on retry; skip it and
		// let the offset advance with the batch.
		c.logger.Warn().Err(err).Int64("offset", record.Offset).Msg("Skipping undecodable message")
		return nil
	}

	outs, err := handleWithWait(ctx, c.handler, &envelope, waitRetryDelay, func() {
		metrics.StreamWaitRetries.WithLabelValues(c.topic).Inc()
		c.logger.Debug().Str("type", envelope.Type).Msg("Referenced entity not indexed yet, waiting")
	})
	if err != nil {
		// A payload that fails shape validation stays invalid on redelivery;
		// aborting the transaction would wedge the partition on it forever.
		if errors.Is(err, common.ErrInvalidPayload) {
			c.logger.Warn().Err(err).Int64("offset", record.Offset).Msg("Skipping invalid payload")
			return nil
		}
		return err
	}
	return c.produce(ctx, record.Partition, outs)
}

// handleWithWait runs the handler, retrying with a fixed delay for as long as
// it reports the referenced entity as not indexed yet. Any other error is
// returned as-is.
func handleWithWait(ctx context.Context, handler StreamHandler, envelope *Envelope, delay time.Duration, onWait func()) ([]Message, error) {
	for {
		outs, err := handler(ctx, envelope)
		if err == nil {
			return outs, nil
		}
		if !errors.Is(err, common.ErrNotYetIndexed) && !errors.Is(err, common.ErrNoGetResult) {
			return nil, err
		}
		if onWait != nil {
			onWait()
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (c *Consumer) produce(ctx context.Context, partition int32, messages []Message) error {
	for _, msg := range messages {
		topic := msg.Topic
		if c.prefix != "" {
			topic = fmt.Sprintf("%s.%s", c.prefix, msg.Topic)
		}
		record, err := buildRecord(ctx, c.schemas, topic, msg)
		if err != nil {
			return err
		}
		record.Partition = partition
		c.sess.Produce(ctx, record, nil)
	}
	return nil
}
