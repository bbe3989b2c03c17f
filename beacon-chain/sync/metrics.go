package sync

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	aggregateReceivedCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gossip_aggregate_attestations_received_total",
			Help: "Count of aggregate attestation and proof messages received over gossip.",
		},
	)
	aggregateRejectedCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gossip_aggregate_attestations_rejected_total",
			Help: "Count of aggregate attestations that failed validation.",
		},
	)
	aggregateIgnoredCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gossip_aggregate_attestations_ignored_total",
			Help: "Count of aggregate attestations ignored as duplicates or uninteresting.",
		},
	)
	aggregateDeferredCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gossip_aggregate_attestations_deferred_total",
			Help: "Count of aggregate attestations saved for future processing pending their block.",
		},
	)
	aggregateBatchFailureCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gossip_aggregate_batch_verification_failures_total",
			Help: "Count of batched signature verifications that failed for aggregate attestations.",
		},
	)
	pendingAggregatesGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gossip_pending_aggregate_attestations",
			Help: "Number of aggregate attestations waiting for their block to arrive.",
		},
	)
)
