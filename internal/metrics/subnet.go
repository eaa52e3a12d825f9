package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SubnetsActive tracks the number of ephemeral subnets currently formed.
	SubnetsActive = promauto.With(Registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "subnets",
			Name:      "active",
			Help:      "Number of ephemeral subnets currently formed",
		},
	)

	// SubnetFormations tracks subnet formation events.
	SubnetFormations = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "subnets",
			Name:      "formations_total",
			Help:      "Total number of ephemeral subnet formations",
		},
	)

	// SubnetDissolutions tracks subnet dissolution events by reason.
	SubnetDissolutions = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "subnets",
			Name:      "dissolutions_total",
			Help:      "Total number of ephemeral subnet dissolutions",
		},
		[]string{"reason"}, // density, inactivity
	)
)
