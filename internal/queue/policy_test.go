package queue

import (
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
)

func TestRetryPolicy_FirstDeliveryAlwaysRequeued(t *testing.T) {
	decision := RetryPolicy{}.Decide(Delivery{DeliveryCount: 0})
	assert.Equal(t, ActionRequeue, decision.Action)
	assert.Equal(t, time.Duration(0), decision.Delay)
}

func TestRetryPolicy_MissingHeadersDeadLetter(t *testing.T) {
	decision := RetryPolicy{}.Decide(Delivery{DeliveryCount: 1, HasPolicy: false})
	assert.Equal(t, ActionDeadLetter, decision.Action)
}

func TestRetryPolicy_ExhaustedRetriesDeadLetter(t *testing.T) {
	decision := RetryPolicy{}.Decide(Delivery{
		DeliveryCount:  2,
		HasPolicy:      true,
		MaxRetryCount:  2,
		BackoffSeconds: 2,
	})
	assert.Equal(t, ActionDeadLetter, decision.Action)
}

func TestRetryPolicy_ExponentialBackoff(t *testing.T) {
	decision := RetryPolicy{}.Decide(Delivery{
		DeliveryCount:  2,
		HasPolicy:      true,
		MaxRetryCount:  5,
		BackoffSeconds: 2,
	})
	assert.Equal(t, ActionRequeue, decision.Action)
	assert.Equal(t, 4*time.Second, decision.Delay)
}

// A message with max-retry-count 2 is handled exactly three times: the
// unconditional first delivery, one counted retry, then dead-letter.
func TestRetryPolicy_DeliveryBound(t *testing.T) {
	policy := RetryPolicy{}
	deliveries := 0
	count := 0
	for {
		deliveries++
		decision := policy.Decide(Delivery{
			DeliveryCount:  count,
			HasPolicy:      true,
			MaxRetryCount:  2,
			BackoffSeconds: 2,
		})
		if decision.Action == ActionDeadLetter {
			break
		}
		count++
	}
	assert.Equal(t, 3, deliveries)
}

func TestDeliveryFromHeaders(t *testing.T) {
	header := nats.Header{}
	header.Set(HeaderDeliveryCount, "3")
	header.Set(HeaderMaxRetryCount, "5")
	header.Set(HeaderBackoffSeconds, "2")

	d := DeliveryFromHeaders(header)
	assert.Equal(t, 3, d.DeliveryCount)
	assert.True(t, d.HasPolicy)
	assert.Equal(t, 5, d.MaxRetryCount)
	assert.Equal(t, 2, d.BackoffSeconds)
}

func TestDeliveryFromHeaders_PartialPolicy(t *testing.T) {
	header := nats.Header{}
	header.Set(HeaderDeliveryCount, "1")
	header.Set(HeaderMaxRetryCount, "5")

	d := DeliveryFromHeaders(header)
	assert.Equal(t, 1, d.DeliveryCount)
	assert.False(t, d.HasPolicy)
}

func TestDeliveryFromHeaders_NilHeader(t *testing.T) {
	d := DeliveryFromHeaders(nil)
	assert.Equal(t, 0, d.DeliveryCount)
	assert.False(t, d.HasPolicy)
}
