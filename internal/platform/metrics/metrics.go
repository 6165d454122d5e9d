// Package metrics holds the Prometheus collectors for projection drift and
// its repair.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ProjectionDrift counts projection writes that failed after their
	// canonical write succeeded, by coordinator operation.
	ProjectionDrift = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "codenotes",
		Name:      "projection_drift_total",
		Help:      "Projection writes that failed after the canonical write succeeded.",
	}, []string{"op"})

	// RepairJobs counts repair jobs by kind and outcome
	// (enqueued, enqueue_failed, done, requeued, postponed, dropped).
	RepairJobs = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "codenotes",
		Name:      "repair_jobs_total",
		Help:      "Repair jobs by kind and outcome.",
	}, []string{"kind", "outcome"})
)
