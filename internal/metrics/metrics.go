// Package metrics holds the relay's Prometheus collectors, exposed on
// /metrics by the HTTP server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Dispatches counts workflow dispatch requests by outcome
	// (found, not_found, error).
	Dispatches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "runrelay",
		Name:      "dispatches_total",
		Help:      "Workflow dispatch requests by outcome.",
	}, []string{"outcome"})

	// DiscoveryAttempts counts individual run-listing attempts made while
	// correlating dispatched runs.
	DiscoveryAttempts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "runrelay",
		Name:      "discovery_attempts_total",
		Help:      "Run discovery attempts across dispatch and status calls.",
	})

	// StatusRequests counts status lookups by result (resolved, pending, error).
	StatusRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "runrelay",
		Name:      "status_requests_total",
		Help:      "Status lookups by result.",
	}, []string{"result"})

	// Cancellations counts cancel requests by outcome (accepted, error).
	Cancellations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "runrelay",
		Name:      "cancellations_total",
		Help:      "Run cancellation requests by outcome.",
	}, []string{"outcome"})
)
