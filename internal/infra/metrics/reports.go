package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	reportGenLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "report_generation_latency_ms",
			Help:    "End-to-end report generation latency in milliseconds.",
			Buckets: []float64{100, 250, 500, 1000, 2000, 4000, 8000, 16000, 30000},
		},
		[]string{"success"},
	)

	reportsRequested = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "reports_requested_total",
			Help: "Count of report generation requests.",
		},
	)
)

func init() {
	register(reportGenLatencyMs, reportsRequested)
}

func CountReportRequested() { reportsRequested.Inc() }

func ObserveReportGeneration(start time.Time, success bool) {
	ms := float64(time.Since(start).Microseconds()) / 1000.0
	reportGenLatencyMs.WithLabelValues(strconv.FormatBool(success)).Observe(ms)
}
