package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var redeemOutcomes = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "unlock_redeem_outcomes_total",
		Help: "Count of redemption attempts by outcome.",
	},
	[]string{"outcome"},
)

func init() {
	register(redeemOutcomes)
}

// CountRedeem records one redemption attempt outcome
// (unlocked, empty_code, not_found, already_used, expired, already_unlocked,
// unauthenticated, rate_limited, persistence_error).
func CountRedeem(outcome string) {
	redeemOutcomes.WithLabelValues(outcome).Inc()
}
