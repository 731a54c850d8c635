// Package metrics instruments the flow aggregation pipeline with Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	NAMESPACE = "flowtop"
)

var (
	AnalyzeRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:      "analyze_runs_total",
			Help:      "Analyze invocations by resulting status.",
			Namespace: NAMESPACE,
		},
		[]string{"status"},
	)
	SourceFiles = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name:      "source_files_total",
			Help:      "Input files loaded.",
			Namespace: NAMESPACE,
		},
	)
	SourceRows = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name:      "source_rows_total",
			Help:      "Input rows aggregated.",
			Namespace: NAMESPACE,
		},
	)
	DistinctFlows = prometheus.NewSummary(
		prometheus.SummaryOpts{
			Name:      "distinct_flows",
			Help:      "Distinct flow keys per run, before truncation.",
			Namespace: NAMESPACE, Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
	)
	ArtifactRows = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name:      "artifact_rows_total",
			Help:      "Ranked rows written to artifacts.",
			Namespace: NAMESPACE,
		},
	)
	StageTime = prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:      "stage_time_ms",
			Help:      "Time spent per pipeline stage.",
			Namespace: NAMESPACE, Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"stage"},
	)
)

func init() {
	prometheus.MustRegister(AnalyzeRuns)
	prometheus.MustRegister(SourceFiles)
	prometheus.MustRegister(SourceRows)
	prometheus.MustRegister(DistinctFlows)
	prometheus.MustRegister(ArtifactRows)
	prometheus.MustRegister(StageTime)
}
