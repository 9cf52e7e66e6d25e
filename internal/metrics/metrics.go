// AngelaMos | 2026
// metrics.go

package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	PaymentNotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weddingplanner_payment_notifications_total",
			Help: "Payment notifications received, by handling outcome",
		},
		[]string{"outcome"},
	)

	EntitlementResolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weddingplanner_entitlement_resolutions_total",
			Help: "Entitlement resolutions by effective tier and whether the safe default was used",
		},
		[]string{"tier", "fallback"},
	)

	PlanLimitDenialsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weddingplanner_plan_limit_denials_total",
			Help: "Create actions refused because the plan quota was reached",
		},
		[]string{"feature"},
	)

	UpgradePromptsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "weddingplanner_upgrade_prompts_total",
			Help: "Premium-only requests answered with an upgrade prompt",
		},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "weddingplanner_http_request_duration_seconds",
			Help:    "HTTP request latency by method, route pattern and status",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

func RecordPaymentNotification(outcome string) {
	PaymentNotificationsTotal.WithLabelValues(outcome).Inc()
}

func RecordEntitlementResolution(tier string, fallback bool) {
	EntitlementResolutionsTotal.WithLabelValues(tier, strconv.FormatBool(fallback)).Inc()
}

func RecordPlanLimitDenial(feature string) {
	PlanLimitDenialsTotal.WithLabelValues(feature).Inc()
}

func RecordUpgradePrompt() {
	UpgradePromptsTotal.Inc()
}

func ObserveHTTPRequest(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	HTTPRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).
		Observe(elapsed.Seconds())
}

func Handler() http.Handler {
	return promhttp.Handler()
}
