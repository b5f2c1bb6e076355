package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/blockpulse/indexer/internal/common"
)

func TestHandleWithWait_SuccessPassesThrough(t *testing.T) {
	handler := func(ctx context.Context, envelope *Envelope) ([]Message, error) {
		return []Message{{Topic: "next", Key: "k", Type: "t"}}, nil
	}

	outs, err := handleWithWait(context.Background(), handler, &Envelope{Type: "block"}, time.Millisecond, nil)
	require.NoError(t, err)
	require.Len(t, outs, 1)
	assert.Equal(t, "next", outs[0].Topic)
}

func TestHandleWithWait_RetriesUntilIndexed(t *testing.T) {
	calls := 0
	handler := func(ctx context.Context, envelope *Envelope) ([]Message, error) {
		calls++
		if calls < 3 {
			return nil, common.ErrNotYetIndexed
		}
		return nil, nil
	}

	waits := 0
	_, err := handleWithWait(context.Background(), handler, &Envelope{Type: "swap"}, time.Millisecond, func() { waits++ })
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 2, waits)
}

func TestHandleWithWait_RetriesOnMissingDependency(t *testing.T) {
	calls := 0
	handler := func(ctx context.Context, envelope *Envelope) ([]Message, error) {
		calls++
		if calls == 1 {
			return nil, common.ErrNoGetResult
		}
		return nil, nil
	}

	_, err := handleWithWait(context.Background(), handler, &Envelope{Type: "transaction"}, time.Millisecond, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestHandleWithWait_OtherErrorsPropagate(t *testing.T) {
	handlerErr := errors.New("boom")
	calls := 0
	handler := func(ctx context.Context, envelope *Envelope) ([]Message, error) {
		calls++
		return nil, handlerErr
	}

	_, err := handleWithWait(context.Background(), handler, &Envelope{Type: "block"}, time.Millisecond, nil)
	assert.ErrorIs(t, err, handlerErr)
	assert.Equal(t, 1, calls)
}

func TestHandleWithWait_CancelledContextStopsWaiting(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	handler := func(ctx context.Context, envelope *Envelope) ([]Message, error) {
		cancel()
		return nil, common.ErrNotYetIndexed
	}

	_, err := handleWithWait(ctx, handler, &Envelope{Type: "block"}, time.Hour, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewEnvelope_RoundTrip(t *testing.T) {
	envelope, err := NewEnvelope("block", map[string]string{"block_number": "100"})
	require.NoError(t, err)
	assert.Equal(t, "block", envelope.Type)

	var payload map[string]string
	require.NoError(t, json.Unmarshal(envelope.Data, &payload))
	assert.Equal(t, "100", payload["block_number"])
}

func TestSchemaID_DerivedWithoutCache(t *testing.T) {
	var schemas *SchemaCache
	first, err := schemas.SchemaID(context.Background(), "block")
	require.NoError(t, err)
	second, err := schemas.SchemaID(context.Background(), "block")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.NotEmpty(t, first)

	other, err := schemas.SchemaID(context.Background(), "transaction")
	require.NoError(t, err)
	assert.NotEqual(t, first, other)
}

func TestConsumeRecord_InvalidPayloadIsSkipped(t *testing.T) {
	calls := 0
	c := &Consumer{
		topic: "blocks",
		handler: func(ctx context.Context, envelope *Envelope) ([]Message, error) {
			calls++
			return nil, fmt.Errorf("empty hash: %w", common.ErrInvalidPayload)
		},
	}
	record := &kgo.Record{Value: []byte(`{"type":"block","data":{"block_number":""}}`)}

	err := c.consumeRecord(context.Background(), record)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestConsumeRecord_OtherErrorsAbortBatch(t *testing.T) {
	handlerErr := errors.New("storage down")
	c := &Consumer{
		topic: "blocks",
		handler: func(ctx context.Context, envelope *Envelope) ([]Message, error) {
			return nil, handlerErr
		},
	}
	record := &kgo.Record{Value: []byte(`{"type":"block","data":{}}`)}

	err := c.consumeRecord(context.Background(), record)
	assert.ErrorIs(t, err, handlerErr)
}
