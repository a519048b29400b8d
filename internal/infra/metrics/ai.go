package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	aiCallsLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ai_calls_latency_ms",
			Help:    "AI call latency distribution in milliseconds.",
			Buckets: []float64{10, 25, 50, 100, 200, 400, 800, 1600, 3000, 5000, 10000},
		},
		[]string{"provider", "model", "success"},
	)

	aiTokensIn = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_tokens_in",
			Help: "Sum of prompt (input) tokens per provider/model.",
		},
		[]string{"provider", "model"},
	)
)

func init() {
	register(aiCallsLatencyMs, aiTokensIn)
}

func ObserveAICall(provider, model string, start time.Time, success bool) {
	ms := float64(time.Since(start).Microseconds()) / 1000.0
	aiCallsLatencyMs.WithLabelValues(provider, model, strconv.FormatBool(success)).Observe(ms)
}

func AddAITokensIn(provider, model string, n int) {
	if n > 0 {
		aiTokensIn.WithLabelValues(provider, model).Add(float64(n))
	}
}
