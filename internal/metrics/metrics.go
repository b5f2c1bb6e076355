package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// RPC multiplexer metrics
var (
	BlacklistedEndpoints = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rpc_blacklisted_endpoints_total",
		Help: "The total number of times an RPC endpoint was blacklisted",
	})
)

// Processor metrics
var (
	ProcessedEntities = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "processor_processed_total",
		Help: "The total number of successfully processed entity ids per stage",
	}, []string{"stage"})

	ProcessorFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "processor_failures_total",
		Help: "The total number of failed process calls per stage",
	}, []string{"stage"})
)

// Routed-queue transport metrics
var (
	QueueRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "queue_retries_total",
		Help: "The total number of message redeliveries requested per queue",
	}, []string{"queue"})

	QueueDeadLetters = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "queue_dead_letters_total",
		Help: "The total number of messages routed to the dead-letter queue",
	}, []string{"queue"})

	DeadLetterReinjections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "queue_dead_letter_reinjections_total",
		Help: "The total number of dead-lettered messages republished to their original subject",
	})
)

// Durable-log transport metrics
var (
	StreamWaitRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stream_wait_until_indexed_retries_total",
		Help: "The total number of wait-until-indexed retries per topic",
	}, []string{"topic"})

	StreamTransactionAborts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stream_transaction_aborts_total",
		Help: "The total number of aborted produce+commit transactions per topic",
	}, []string{"topic"})
)

// Poller metrics
var (
	LastPolledBlock = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "poller_last_polled_block",
		Help: "The last block number published by the head poller",
	})
)
