package common

import "errors"

var (
	// ErrNoGetResult signals that a stage's get step found nothing upstream.
	// Transports always retry it; it is never a terminal failure.
	ErrNoGetResult = errors.New("no get result")

	// ErrInvalidPayload signals a message that failed shape validation.
	// Retrying cannot fix it, so it goes straight to the dead-letter queue.
	ErrInvalidPayload = errors.New("invalid message payload")

	// ErrNotYetIndexed signals an expected eventual-consistency gap: the
	// referenced entity has not been written by the upstream stage yet.
	ErrNotYetIndexed = errors.New("referenced entity not yet indexed")

	// ErrInvalidSwap signals that a DEX transaction's transfer logs do not
	// validate against its declared call data. The transaction carries no swap.
	ErrInvalidSwap = errors.New("invalid swap")
)
