package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BackupReplicasStored tracks replicas accepted by a backup host.
	BackupReplicasStored = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backup",
			Name:      "replicas_stored_total",
			Help:      "Total number of backup replicas stored on this node",
		},
	)

	// BackupReplicasActive tracks replicas currently held.
	BackupReplicasActive = promauto.With(Registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "backup",
			Name:      "replicas_active",
			Help:      "Number of backup replicas currently held by this node",
		},
	)

	// BackupForwardsOnReconnect tracks replicas forwarded when the recipient reappears.
	BackupForwardsOnReconnect = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backup",
			Name:      "forwards_on_reconnect_total",
			Help:      "Total number of backup replicas forwarded after recipient reconnect",
		},
	)

	// BackupMigrations tracks proactive replica migrations away from a degraded host.
	BackupMigrations = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backup",
			Name:      "migrations_total",
			Help:      "Total number of proactive replica migrations",
		},
	)

	// BackupExpirations tracks replicas purged by TTL expiry.
	BackupExpirations = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backup",
			Name:      "expired_total",
			Help:      "Total number of backup replicas purged by expiry",
		},
	)
)
