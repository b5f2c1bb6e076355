package queue

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/nats-io/nats.go"

	config "github.com/blockpulse/indexer/configs"
)

// Publisher publishes pipeline messages with the retry policy headers the
// consumer side reads back.
type Publisher struct {
	conn           *nats.Conn
	prefix         string
	maxRetryCount  int
	backoffSeconds int
}

func NewPublisher(conn *nats.Conn, cfg *config.NatsConfig) *Publisher {
	maxRetryCount := cfg.MaxRetryCount
	if maxRetryCount <= 0 {
		maxRetryCount = DefaultMaxRetryCount
	}
	backoffSeconds := cfg.BackoffSeconds
	if backoffSeconds <= 0 {
		backoffSeconds = DefaultBackoffSeconds
	}
	return &Publisher{
		conn:           conn,
		prefix:         cfg.SubjectPrefix,
		maxRetryCount:  maxRetryCount,
		backoffSeconds: backoffSeconds,
	}
}

func (p *Publisher) Subject(name string) string {
	if p.prefix == "" {
		return name
	}
	return fmt.Sprintf("%s.%s", p.prefix, name)
}

// Publish marshals the payload and publishes it as a fresh delivery.
func (p *Publisher) Publish(subject string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal message for %s: %w", subject, err)
	}

	header := nats.Header{}
	header.Set(HeaderDeliveryCount, "0")
	header.Set(HeaderMaxRetryCount, strconv.Itoa(p.maxRetryCount))
	header.Set(HeaderBackoffSeconds, strconv.Itoa(p.backoffSeconds))

	return p.conn.PublishMsg(&nats.Msg{
		Subject: p.Subject(subject),
		Header:  header,
		Data:    body,
	})
}

// republish re-publishes a received message on a subject, carrying its
// headers with the given delivery count.
func (p *Publisher) republish(msg *nats.Msg, subject string, deliveryCount int) error {
	header := nats.Header{}
	for key, values := range msg.Header {
		for _, value := range values {
			header.Add(key, value)
		}
	}
	header.Set(HeaderDeliveryCount, strconv.Itoa(deliveryCount))

	return p.conn.PublishMsg(&nats.Msg{
		Subject: subject,
		Header:  header,
		Data:    msg.Data,
	})
}
