package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RoleTransitions tracks peer/relay promotion and demotion events.
	RoleTransitions = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "roles",
			Name:      "transitions_total",
			Help:      "Total number of role promotions and demotions",
		},
		[]string{"direction"}, // promote, demote
	)

	// GossipAnnouncementsSent tracks outgoing PeerAnnounce gossip messages.
	GossipAnnouncementsSent = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "roles",
			Name:      "gossip_announcements_sent_total",
			Help:      "Total number of PeerAnnounce gossip messages sent",
		},
	)

	// GossipAnnouncementsReceived tracks incoming PeerAnnounce gossip messages.
	GossipAnnouncementsReceived = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "roles",
			Name:      "gossip_announcements_received_total",
			Help:      "Total number of PeerAnnounce gossip messages received",
		},
	)
)
