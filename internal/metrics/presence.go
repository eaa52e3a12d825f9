package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PeersOnline tracks the number of peers currently considered online.
	PeersOnline = promauto.With(Registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "presence",
			Name:      "peers_online",
			Help:      "Number of peers currently in the Online state",
		},
	)

	// PresenceTransitions tracks online/offline transitions.
	PresenceTransitions = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "presence",
			Name:      "transitions_total",
			Help:      "Total number of peer online/offline transitions",
		},
		[]string{"direction"}, // online, offline
	)

	// HeartbeatsSent tracks outgoing heartbeat announcements.
	HeartbeatsSent = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "presence",
			Name:      "heartbeats_sent_total",
			Help:      "Total number of heartbeat announcements sent",
		},
	)
)
