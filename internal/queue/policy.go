package queue

import (
	"math"
	"strconv"
	"time"

	"github.com/nats-io/nats.go"
)

const (
	HeaderDeliveryCount  = "delivery-count"
	HeaderMaxRetryCount  = "max-retry-count"
	HeaderBackoffSeconds = "backoff-seconds"

	DefaultMaxRetryCount  = 1
	DefaultBackoffSeconds = 2

	// DeadLetterSuffix is appended to a subject to form its dead-letter
	// subject.
	DeadLetterSuffix = ".dlx"
)

type Action int

const (
	// ActionRequeue republishes the message on its original subject with an
	// incremented delivery count, after Decision.Delay.
	ActionRequeue Action = iota
	// ActionDeadLetter publishes the message to the subject's dead-letter
	// subject.
	ActionDeadLetter
)

type Decision struct {
	Action Action
	Delay  time.Duration
}

// Delivery is the retry-relevant view of one received message.
type Delivery struct {
	DeliveryCount  int
	HasPolicy      bool
	MaxRetryCount  int
	BackoffSeconds int
}

// RetryPolicy decides what happens to a message whose handler failed. The
// discipline: the first delivery is always retried, messages without policy
// headers are dead-lettered, counted retries are bounded by the message's own
// max-retry-count with exponential backoff between attempts.
type RetryPolicy struct{}

func (RetryPolicy) Decide(d Delivery) Decision {
	if d.DeliveryCount == 0 {
		return Decision{Action: ActionRequeue}
	}
	if !d.HasPolicy {
		return Decision{Action: ActionDeadLetter}
	}
	if d.DeliveryCount >= d.MaxRetryCount {
		return Decision{Action: ActionDeadLetter}
	}
	backoff := math.Pow(float64(d.BackoffSeconds), float64(d.DeliveryCount))
	return Decision{
		Action: ActionRequeue,
		Delay:  time.Duration(backoff * float64(time.Second)),
	}
}

// DeliveryFromHeaders reads the retry bookkeeping out of a message's headers.
func DeliveryFromHeaders(header nats.Header) Delivery {
	d := Delivery{}
	if header == nil {
		return d
	}
	d.DeliveryCount, _ = strconv.Atoi(header.Get(HeaderDeliveryCount))

	maxRetry := header.Get(HeaderMaxRetryCount)
	backoff := header.Get(HeaderBackoffSeconds)
	if maxRetry == "" || backoff == "" {
		return d
	}
	maxRetryCount, err := strconv.Atoi(maxRetry)
	if err != nil {
		return d
	}
	backoffSeconds, err := strconv.Atoi(backoff)
	if err != nil {
		return d
	}
	d.HasPolicy = true
	d.MaxRetryCount = maxRetryCount
	d.BackoffSeconds = backoffSeconds
	return d
}
