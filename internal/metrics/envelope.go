package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EnvelopesProcessed tracks envelopes handled by the router.
	EnvelopesProcessed = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "envelopes",
			Name:      "processed_total",
			Help:      "Total number of envelopes processed by routing action",
		},
		[]string{"action"}, // deliver, forward, ack, read_receipt, reject, drop
	)

	// EnvelopesDuplicate tracks envelopes rejected by the dedup cache.
	EnvelopesDuplicate = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "envelopes",
			Name:      "duplicate_total",
			Help:      "Total number of envelopes dropped as duplicates",
		},
	)

	// EnvelopesTTLExpired tracks envelopes dropped for exhausted TTL.
	EnvelopesTTLExpired = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "envelopes",
			Name:      "ttl_expired_total",
			Help:      "Total number of envelopes dropped with a zero TTL",
		},
	)

	// EnvelopeSize tracks the wire size of encoded envelopes.
	EnvelopeSize = promauto.With(Registry).NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "envelopes",
			Name:      "size_bytes",
			Help:      "Encoded envelope size in bytes",
			Buckets:   prometheus.ExponentialBuckets(64, 2, 12), // 64B to 128KB
		},
	)

	// SignatureVerifications tracks envelope signature verification outcomes.
	SignatureVerifications = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "envelopes",
			Name:      "signature_verifications_total",
			Help:      "Total number of envelope signature verifications",
		},
		[]string{"result"}, // valid, invalid
	)
)
