package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Subsystem-level Prometheus collectors. Registered on the default registry
// and exposed via the /metrics endpoint.
var (
	AccessDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "message_security",
		Name:      "access_decisions_total",
		Help:      "Access policy decisions by outcome and denial reason.",
	}, []string{"outcome", "reason"})

	EvaluationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "message_security",
		Name:      "evaluation_duration_seconds",
		Help:      "Latency of access policy evaluations.",
		Buckets:   prometheus.DefBuckets,
	})

	Destructions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "message_security",
		Name:      "destructions_total",
		Help:      "Message destructions by method.",
	}, []string{"method"})

	IncidentsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "message_security",
		Name:      "incidents_total",
		Help:      "Security incidents created, by type and detection method.",
	}, []string{"type", "detection"})
)
