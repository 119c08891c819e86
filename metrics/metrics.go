// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels.
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
	OutcomeUnknown  = "unknown_action"
	OutcomeFallback = "fallback"
	OutcomeInvalid  = "invalid"
	OutcomeUpstream = "upstream_error"
)

var (
	DataActions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fairbounty",
		Subsystem: "data",
		Name:      "actions_total",
		Help:      "Data API actions handled, by action and outcome.",
	}, []string{"action", "outcome"})

	DataActionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "fairbounty",
		Subsystem: "data",
		Name:      "action_duration_seconds",
		Help:      "Data API action latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"action"})

	ScoreRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fairbounty",
		Subsystem: "score",
		Name:      "requests_total",
		Help:      "Score proxy requests, by outcome.",
	}, []string{"outcome"})
)
