package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	config "github.com/blockpulse/indexer/configs"
	"github.com/blockpulse/indexer/internal/common"
	"github.com/blockpulse/indexer/internal/log"
	"github.com/blockpulse/indexer/internal/metrics"
)

// Handler processes one message payload. Returning common.ErrInvalidPayload
// routes the message straight to the dead-letter subject; any other error
// goes through the retry policy.
type Handler func(ctx context.Context, payload []byte) error

// Consumer subscribes a queue group to one subject and applies the bounded
// retry discipline on handler failure. Requeue is a republish with an
// incremented delivery count; rejection is a publish to the subject's
// dead-letter subject.
type Consumer struct {
	conn      *nats.Conn
	publisher *Publisher
	name      string
	subject   string
	group     string
	handler   Handler
	onFinish  Handler
	policy    RetryPolicy
	instances int
	logger    zerolog.Logger
	subs      []*nats.Subscription
}

func NewConsumer(conn *nats.Conn, publisher *Publisher, cfg *config.NatsConfig, name string, handler Handler, onFinish Handler) *Consumer {
	instances := cfg.ConsumersPerQueue
	if instances <= 0 {
		instances = 1
	}
	group := name
	if cfg.GroupPrefix != "" {
		group = fmt.Sprintf("%s-%s", cfg.GroupPrefix, name)
	}
	return &Consumer{
		conn:      conn,
		publisher: publisher,
		name:      name,
		subject:   publisher.Subject(name),
		group:     group,
		handler:   handler,
		onFinish:  onFinish,
		instances: instances,
		logger:    log.NewLogger(fmt.Sprintf("queue-%s", name)),
	}
}

func (c *Consumer) Start(ctx context.Context) error {
	for i := 0; i < c.instances; i++ {
		sub, err := c.conn.QueueSubscribe(c.subject, c.group, func(msg *nats.Msg) {
			c.receive(ctx, msg)
		})
		if err != nil {
			return fmt.Errorf("failed to subscribe %s: %w", c.subject, err)
		}
		c.subs = append(c.subs, sub)
	}
	c.logger.Info().Str("subject", c.subject).Int("instances", c.instances).Msg("Consumer started")
	return nil
}

func (c *Consumer) Stop() {
	for _, sub := range c.subs {
		sub.Drain()
	}
}

// process runs the handler and then the fan-out hook. A hook failure after a
// successful write must feed the retry discipline like a handler failure, or
// downstream stages silently lose the message; stages are replay-idempotent,
// so re-running the handler on the requeued delivery is safe.
func (c *Consumer) process(ctx context.Context, msg *nats.Msg) error {
	if err := c.handler(ctx, msg.Data); err != nil {
		return err
	}
	if c.onFinish == nil {
		return nil
	}
	return c.onFinish(ctx, msg.Data)
}

func (c *Consumer) receive(ctx context.Context, msg *nats.Msg) {
	err := c.process(ctx, msg)
	if err == nil {
		return
	}

	// A malformed payload cannot become processable, so it skips the retry
	// discipline entirely.
	if errors.Is(err, common.ErrInvalidPayload) {
		c.logger.Warn().Err(err).Msg("Invalid payload, dead-lettering")
		c.deadLetter(msg)
		return
	}

	delivery := DeliveryFromHeaders(msg.Header)
	decision := c.policy.Decide(delivery)
	switch decision.Action {
	case ActionDeadLetter:
		c.logger.Warn().Err(err).Int("deliveries", delivery.DeliveryCount+1).Msg("Retries exhausted, dead-lettering")
		c.deadLetter(msg)
	case ActionRequeue:
		c.logger.Debug().Err(err).Int("delivery_count", delivery.DeliveryCount).Dur("delay", decision.Delay).Msg("Requeueing message")
		if decision.Delay > 0 {
			select {
			case <-time.After(decision.Delay):
			case <-ctx.Done():
				return
			}
		}
		metrics.QueueRetries.WithLabelValues(c.name).Inc()
		if err := c.publisher.republish(msg, c.subject, delivery.DeliveryCount+1); err != nil {
			c.logger.Error().Err(err).Msg("Failed to requeue message")
		}
	}
}

func (c *Consumer) deadLetter(msg *nats.Msg) {
	metrics.QueueDeadLetters.WithLabelValues(c.name).Inc()
	delivery := DeliveryFromHeaders(msg.Header)
	if err := c.publisher.republish(msg, c.subject+DeadLetterSuffix, delivery.DeliveryCount); err != nil {
		c.logger.Error().Err(err).Msg("Failed to dead-letter message")
	}
}
