package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		promotionsCreatedTotal, promotionsSweptTotal,
		claimsTotal, redemptionsTotal,
		storeRetriesTotal, invariantViolationsTotal,
		buildInfo,
	)
}

var (
	promotionsCreatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "promotions_created_total",
			Help: "Promotions created (each one supersedes the venue's previous promotion).",
		},
	)

	promotionsSweptTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "promotions_swept_total",
			Help: "Promotions deactivated by the expiry sweep.",
		},
	)

	claimsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "promotion_claims_total",
			Help: "Claim attempts by result.",
		},
		[]string{"result"}, // ok, rate_limited, gone, not_found, invalid, error
	)

	redemptionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "promotion_redemptions_total",
			Help: "Verify-and-redeem calls by result.",
		},
		[]string{"result"}, // redeemed, used, expired, invalid, error
	)

	storeRetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_retries_total",
			Help: "Store operations retried after transient contention.",
		},
		[]string{"op"},
	)

	invariantViolationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "invariant_violations_total",
			Help: "Data invariants observed broken at runtime.",
		},
		[]string{"kind"},
	)

	buildInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "build_info",
			Help: "A constant metric with labels for version and commit hash.",
		},
		[]string{"version", "commit"},
	)
)

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func IncPromotionCreated() { promotionsCreatedTotal.Inc() }

func AddPromotionsSwept(n int64) {
	if n > 0 {
		promotionsSweptTotal.Add(float64(n))
	}
}

func IncClaim(result string) { claimsTotal.WithLabelValues(norm(result)).Inc() }

func IncRedemption(result string) { redemptionsTotal.WithLabelValues(norm(result)).Inc() }

func IncStoreRetry(op string) { storeRetriesTotal.WithLabelValues(norm(op)).Inc() }

func IncInvariantViolation(kind string) { invariantViolationsTotal.WithLabelValues(norm(kind)).Inc() }

func SetBuildInfo(version, commit string) {
	buildInfo.WithLabelValues(version, commit).Set(1)
}
