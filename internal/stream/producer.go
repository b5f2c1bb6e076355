package stream

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/pkg/sasl/plain"

	config "github.com/blockpulse/indexer/configs"
)

// Message is one payload to publish onto a durable-log topic.
type Message struct {
	Topic   string
	Key     string
	Type    string
	Payload any
}

// Producer publishes pipeline-entry messages transactionally: all records of
// one Publish call become visible together or not at all.
type Producer struct {
	client  *kgo.Client
	mu      sync.Mutex
	prefix  string
	schemas *SchemaCache
}

func baseOpts(cfg *config.KafkaConfig, clientID string) []kgo.Opt {
	brokers := strings.Split(cfg.Brokers, ",")

	opts := []kgo.Opt{
		kgo.SeedBrokers(brokers...),
		kgo.AllowAutoTopicCreation(),
		kgo.ProducerBatchCompression(kgo.ZstdCompression()),
		kgo.ClientID(clientID),
		kgo.RecordPartitioner(kgo.ManualPartitioner()),
		kgo.ProduceRequestTimeout(30 * time.Second),
		kgo.MetadataMaxAge(60 * time.Second),
		kgo.DialTimeout(10 * time.Second),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.RequestRetries(5),
	}

	if cfg.Username != "" && cfg.Password != "" {
		opts = append(opts, kgo.SASL(plain.Auth{
			User: cfg.Username,
			Pass: cfg.Password,
		}.AsMechanism()))
	}

	if cfg.EnableTLS {
		tlsDialer := &tls.Dialer{NetDialer: &net.Dialer{Timeout: 10 * time.Second}}
		opts = append(opts, kgo.Dialer(tlsDialer.DialContext))
	}

	return opts
}

func NewProducer(cfg *config.KafkaConfig, schemas *SchemaCache) (*Producer, error) {
	chainID := config.Cfg.RPC.ChainID
	opts := append(baseOpts(cfg, fmt.Sprintf("blockpulse-producer-%s", chainID)),
		kgo.TransactionalID(fmt.Sprintf("blockpulse-producer-%s", chainID)),
	)

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create stream client: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.Ping(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to stream broker: %v", err)
	}

	return &Producer{client: client, prefix: cfg.TopicPrefix, schemas: schemas}, nil
}

func (p *Producer) Topic(name string) string {
	if p.prefix == "" {
		return name
	}
	return fmt.Sprintf("%s.%s", p.prefix, name)
}

func (p *Producer) Publish(ctx context.Context, messages []Message) error {
	if len(messages) == 0 {
		return nil
	}

	records := make([]*kgo.Record, 0, len(messages))
	for _, msg := range messages {
		record, err := buildRecord(ctx, p.schemas, p.Topic(msg.Topic), msg)
		if err != nil {
			return err
		}
		records = append(records, record)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.client.BeginTransaction(); err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}

	for _, record := range records {
		p.client.Produce(ctx, record, nil)
	}

	if err := p.client.Flush(ctx); err != nil {
		p.client.EndTransaction(ctx, kgo.TryAbort)
		return fmt.Errorf("failed to flush messages: %v", err)
	}

	if err := p.client.EndTransaction(ctx, kgo.TryCommit); err != nil {
		return fmt.Errorf("failed to commit transaction: %v", err)
	}
	return nil
}

// buildRecord wraps a message payload in the wire envelope and stamps the
// type and schema-id headers. The topic must already carry its prefix.
func buildRecord(ctx context.Context, schemas *SchemaCache, topic string, msg Message) (*kgo.Record, error) {
	envelope, err := NewEnvelope(msg.Type, msg.Payload)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(envelope)
	if err != nil {
		return nil, err
	}
	schemaID, err := schemas.SchemaID(ctx, msg.Type)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve schema id for %s: %w", msg.Type, err)
	}
	return &kgo.Record{
		Topic: topic,
		Key:   []byte(msg.Key),
		Value: body,
		Headers: []kgo.RecordHeader{
			{Key: "type", Value: []byte(msg.Type)},
			{Key: "schema-id", Value: []byte(schemaID)},
		},
	}, nil
}

func (p *Producer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.client != nil {
		p.client.Close()
	}
	return nil
}
