package queue

import (
	"fmt"

	"github.com/nats-io/nats.go"

	config "github.com/blockpulse/indexer/configs"
	"github.com/blockpulse/indexer/internal/log"
	"github.com/blockpulse/indexer/internal/metrics"
	"github.com/rs/zerolog"
)

// DeadLetterConsumer drains a subject's dead-letter subject by re-publishing
// every message back onto the original subject as a fresh delivery. This
// turns the dead-letter queue into an infinite retry loop for messages that
// are expected to eventually become processable; permanent failures must be
// filtered out before they reach this stage.
type DeadLetterConsumer struct {
	conn      *nats.Conn
	publisher *Publisher
	name      string
	subject   string
	group     string
	logger    zerolog.Logger
	sub       *nats.Subscription
}

func NewDeadLetterConsumer(conn *nats.Conn, publisher *Publisher, cfg *config.NatsConfig, name string) *DeadLetterConsumer {
	group := name + "-dlx"
	if cfg.GroupPrefix != "" {
		group = fmt.Sprintf("%s-%s-dlx", cfg.GroupPrefix, name)
	}
	return &DeadLetterConsumer{
		conn:      conn,
		publisher: publisher,
		name:      name,
		subject:   publisher.Subject(name),
		group:     group,
		logger:    log.NewLogger(fmt.Sprintf("dlx-%s", name)),
	}
}

func (c *DeadLetterConsumer) Start() error {
	sub, err := c.conn.QueueSubscribe(c.subject+DeadLetterSuffix, c.group, c.receive)
	if err != nil {
		return fmt.Errorf("failed to subscribe %s%s: %w", c.subject, DeadLetterSuffix, err)
	}
	c.sub = sub
	c.logger.Info().Str("subject", c.subject+DeadLetterSuffix).Msg("Dead-letter consumer started")
	return nil
}

func (c *DeadLetterConsumer) Stop() {
	if c.sub != nil {
		c.sub.Drain()
	}
}

func (c *DeadLetterConsumer) receive(msg *nats.Msg) {
	metrics.DeadLetterReinjections.Inc()
	// Delivery count resets so the message gets the full retry discipline
	// again on its next trip.
	if err := c.publisher.republish(msg, c.subject, 0); err != nil {
		c.logger.Error().Err(err).Msg("Failed to re-inject dead-lettered message")
	}
}
