package queue

import (
	"context"
	"errors"
	"testing"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcess_RunsHandlerThenOnFinish(t *testing.T) {
	var order []string
	c := &Consumer{
		handler: func(ctx context.Context, payload []byte) error {
			order = append(order, "handler")
			return nil
		},
		onFinish: func(ctx context.Context, payload []byte) error {
			order = append(order, "onFinish")
			return nil
		},
	}

	err := c.process(context.Background(), &nats.Msg{Data: []byte("{}")})
	require.NoError(t, err)
	assert.Equal(t, []string{"handler", "onFinish"}, order)
}

// A fan-out failure after a successful write must surface as a processing
// error so the retry discipline requeues the message instead of dropping the
// downstream stages.
func TestProcess_OnFinishFailurePropagates(t *testing.T) {
	publishErr := errors.New("broker unavailable")
	c := &Consumer{
		handler: func(ctx context.Context, payload []byte) error {
			return nil
		},
		onFinish: func(ctx context.Context, payload []byte) error {
			return publishErr
		},
	}

	err := c.process(context.Background(), &nats.Msg{Data: []byte("{}")})
	assert.ErrorIs(t, err, publishErr)
}

func TestProcess_HandlerFailureSkipsOnFinish(t *testing.T) {
	handlerErr := errors.New("fetch failed")
	onFinishCalls := 0
	c := &Consumer{
		handler: func(ctx context.Context, payload []byte) error {
			return handlerErr
		},
		onFinish: func(ctx context.Context, payload []byte) error {
			onFinishCalls++
			return nil
		},
	}

	err := c.process(context.Background(), &nats.Msg{Data: []byte("{}")})
	assert.ErrorIs(t, err, handlerErr)
	assert.Equal(t, 0, onFinishCalls)
}

func TestProcess_NoOnFinish(t *testing.T) {
	c := &Consumer{
		handler: func(ctx context.Context, payload []byte) error {
			return nil
		},
	}

	err := c.process(context.Background(), &nats.Msg{Data: []byte("{}")})
	require.NoError(t, err)
}
