package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		ordersCreatedTotal,
		orderStatusTransitionsTotal,
		loginAttemptsTotal,
	)
}

var (
	ordersCreatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orders_created_total",
			Help: "Orders created, by source.",
		},
		[]string{"source"}, // 'checkout', 'subscription'
	)

	orderStatusTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "order_status_transitions_total",
			Help: "Order status changes, by target status.",
		},
		[]string{"to"},
	)

	loginAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "login_attempts_total",
			Help: "Login attempts by result.",
		},
		[]string{"result"}, // 'ok', 'invalid', 'locked', 'rate_limited'
	)
)

func IncOrderCreated(source string) {
	ordersCreatedTotal.WithLabelValues(norm(source)).Inc()
}

func IncOrderTransition(to string) {
	orderStatusTransitionsTotal.WithLabelValues(norm(to)).Inc()
}

func IncLogin(result string) {
	loginAttemptsTotal.WithLabelValues(norm(result)).Inc()
}
