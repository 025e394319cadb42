package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds every collector exported by the service.
var Registry = prometheus.NewRegistry()

var (
	SummariesGenerated = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "usage_summaries_generated_total",
		Help: "Daily usage summary rows inserted",
	}, []string{"scope_kind"})

	SummariesSkipped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "usage_summaries_skipped_total",
		Help: "Daily usage summary rows that already existed",
	}, []string{"scope_kind"})

	SummaryRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "usage_summary_runs_total",
		Help: "Daily usage summary runs by outcome",
	}, []string{"outcome"})

	SummaryRunDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "usage_summary_run_duration_seconds",
		Help:    "Duration of daily usage summary runs",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
	})

	UsageEventsRecorded = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "usage_events_recorded_total",
		Help: "Raw usage events recorded",
	}, []string{"kind"})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		SummariesGenerated,
		SummariesSkipped,
		SummaryRuns,
		SummaryRunDuration,
		UsageEventsRecorded,
	)
}

// Handler serves the registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}
