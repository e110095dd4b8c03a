// Package metrics exposes Prometheus instrumentation for report runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for PipelineRuns.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

var (
	// PipelineRuns counts finished report runs per variant and outcome
	PipelineRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retention_pipeline_runs_total",
			Help: "Total number of cohort retention report runs",
		},
		[]string{"variant", "outcome"},
	)

	// PipelineDuration tracks end-to-end run latency, collaborator calls included
	PipelineDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "retention_pipeline_duration_seconds",
			Help:    "Duration of cohort retention report runs in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"variant"},
	)

	// ReportRows counts rows received from the reporting API
	ReportRows = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retention_report_rows_total",
			Help: "Total number of cohort rows received from the reporting API",
		},
		[]string{"variant"},
	)
)

// RecordRun records the outcome and duration of one run.
func RecordRun(variant string, start time.Time, err error) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	PipelineRuns.WithLabelValues(variant, outcome).Inc()
	PipelineDuration.WithLabelValues(variant).Observe(time.Since(start).Seconds())
}
