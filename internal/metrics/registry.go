package metrics

import "github.com/prometheus/client_golang/prometheus"

// namespace prefixes every metric exported by a tomnet node.
const namespace = "tomnet"

// Registry is the prometheus registry used by all metrics in this package.
// A dedicated registry (rather than prometheus.DefaultRegisterer) keeps a
// node's metrics free of whatever else is linked into the process.
var Registry = prometheus.NewRegistry()
