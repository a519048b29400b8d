package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var dbCallLatencyMs = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "db_call_latency_ms",
		Help:    "Database call latency distribution in milliseconds.",
		Buckets: []float64{1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
	},
	[]string{"op", "success"},
)

func init() {
	register(dbCallLatencyMs)
}

// ObserveDB records one database call.
func ObserveDB(op string, start time.Time, success bool) {
	ms := float64(time.Since(start).Microseconds()) / 1000.0
	dbCallLatencyMs.WithLabelValues(op, strconv.FormatBool(success)).Observe(ms)
}
