package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// GroupMessagesRelayed tracks messages fanned out by a group hub.
	GroupMessagesRelayed = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "groups",
			Name:      "messages_relayed_total",
			Help:      "Total number of group messages relayed by a hub",
		},
		[]string{"group_id"},
	)

	// GroupMessagesRateLimited tracks sender messages rejected by the hub rate limiter.
	GroupMessagesRateLimited = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "groups",
			Name:      "messages_rate_limited_total",
			Help:      "Total number of group messages rejected by the per-sender rate limiter",
		},
	)

	// GroupHubElections tracks hub re-elections following a failover.
	GroupHubElections = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "groups",
			Name:      "hub_elections_total",
			Help:      "Total number of group hub elections",
		},
	)
)
