package metrics

import (
	"egas-delivery/internal/domain/model"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		billingCyclesTotal,
		billingSubscriptionsTotal,
		billingCycleDuration,
		subscriptionsTotal,
	)
}

var (
	billingCyclesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "billing_cycles_total",
			Help: "Billing cycle invocations by outcome.",
		},
		[]string{"outcome"}, // 'ok', 'error', 'busy'
	)

	billingSubscriptionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "billing_subscriptions_total",
			Help: "Subscriptions handled by the billing cycle, by result.",
		},
		[]string{"result"}, // 'billed', 'product_not_found', 'customer_not_found', 'conflict'
	)

	billingCycleDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "billing_cycle_duration_seconds",
			Help:    "Wall time of a billing cycle.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	subscriptionsTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "subscriptions_total",
			Help: "Current number of subscriptions by status.",
		},
		[]string{"status"}, // 'active', 'paused', 'cancelled'
	)
)

func IncBillingCycle(outcome string) {
	billingCyclesTotal.WithLabelValues(norm(outcome)).Inc()
}

func IncBillingSubscription(result string) {
	billingSubscriptionsTotal.WithLabelValues(norm(result)).Inc()
}

func ObserveBillingCycle(seconds float64) {
	billingCycleDuration.Observe(seconds)
}

func SetSubscriptionsTotal(counts map[model.SubscriptionStatus]int) {
	statuses := []model.SubscriptionStatus{
		model.SubscriptionStatusActive,
		model.SubscriptionStatusPaused,
		model.SubscriptionStatusCancelled,
	}
	for _, status := range statuses {
		subscriptionsTotal.WithLabelValues(string(status)).Set(float64(counts[status]))
	}
}
