package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OrphanJobsDeleted counts sync jobs removed because their connector is gone.
	OrphanJobsDeleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "connector_service_orphan_jobs_deleted_total",
			Help: "Sync jobs deleted because their connector no longer exists",
		},
	)

	// StuckJobsMarked counts stuck sync jobs transitioned to the error state.
	StuckJobsMarked = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "connector_service_stuck_jobs_marked_total",
			Help: "Stuck sync jobs marked as failed",
		},
	)

	// SweepFailures counts sweeps that ended in an error, by sweep.
	SweepFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "connector_service_sweep_failures_total",
			Help: "Reconciliation sweeps that failed",
		},
		[]string{"sweep"},
	)

	// SweepDuration observes sweep latency in seconds, by sweep.
	SweepDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "connector_service_sweep_duration_seconds",
			Help:    "Duration of reconciliation sweeps",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"sweep"},
	)

	// DocumentsYielded counts documents produced by sources, by service type.
	DocumentsYielded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "connector_service_documents_yielded_total",
			Help: "Documents yielded by document sources",
		},
		[]string{"service_type"},
	)

	// ContentSkipped counts content fetches skipped by the gate, by reason.
	ContentSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "connector_service_content_skipped_total",
			Help: "Content downloads skipped by the extraction gate",
		},
		[]string{"reason"},
	)
)

// ObserveSweep records how long a sweep took.
func ObserveSweep(sweep string, started time.Time) {
	SweepDuration.WithLabelValues(sweep).Observe(time.Since(started).Seconds())
}
