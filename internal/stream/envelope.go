package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/blockpulse/indexer/internal/kv"
)

// Envelope is the wire shape of every durable-log message.
type Envelope struct {
	Type      string          `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

func NewEnvelope(msgType string, payload any) (*Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", msgType, err)
	}
	return &Envelope{Type: msgType, Timestamp: time.Now().UTC(), Data: data}, nil
}

const schemaCacheTTL = 24 * time.Hour

// SchemaCache resolves message types to their schema id, caching resolutions
// in the shared key-value store so all instances agree without re-deriving.
type SchemaCache struct {
	store *kv.Store
}

func NewSchemaCache(store *kv.Store) *SchemaCache {
	return &SchemaCache{store: store}
}

// SchemaID returns the cached id for a message type, deriving and storing it
// on first use. With no cache configured the id is derived every time.
func (c *SchemaCache) SchemaID(ctx context.Context, msgType string) (string, error) {
	if c == nil || c.store == nil {
		return deriveSchemaID(msgType), nil
	}

	key := "schema_id:" + msgType
	cached, found, err := c.store.Get(ctx, key)
	if err != nil {
		return "", err
	}
	if found {
		return cached, nil
	}

	id := deriveSchemaID(msgType)
	if err := c.store.SetWithExpiry(ctx, key, id, schemaCacheTTL); err != nil {
		return "", err
	}
	return id, nil
}

func deriveSchemaID(msgType string) string {
	h := fnv.New32a()
	h.Write([]byte(msgType))
	return fmt.Sprintf("%d", h.Sum32())
}
