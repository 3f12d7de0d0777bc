// Package metrics defines prometheus metrics to aid in monitoring
// deployments that embed the ndt7 client and run periodic measurements.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Connections counts the WebSocket connections established per
	// subtest direction and status.
	Connections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ndt7_client_connections_total",
			Help: "Count of connections established to run an ndt7 subtest.",
		},
		[]string{"direction", "status"},
	)

	// SubtestResults counts completed subtests per direction and result.
	SubtestResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ndt7_client_subtest_results_total",
			Help: "Number of ndt7 subtests run by this client.",
		},
		[]string{"direction", "result"},
	)

	// DroppedMeasurements counts measurements dropped because the
	// stream consumer was not keeping up.
	DroppedMeasurements = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ndt7_client_dropped_measurements_total",
			Help: "Number of measurements dropped on a full stream.",
		},
		[]string{"direction"},
	)
)
