package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		paymentsTotal,
		paymentsAmountTotal,
	)
}

var (
	paymentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_total",
			Help: "Payments by status (pending/completed/failed).",
		},
		[]string{"status"},
	)

	paymentsAmountTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_amount_total",
			Help: "Sum of completed payment amounts in minor units, labeled by type.",
		},
		[]string{"type"},
	)
)

func IncPayment(status string) {
	paymentsTotal.WithLabelValues(norm(status)).Inc()
}

func AddPaymentAmount(typ string, amount int64) {
	paymentsAmountTotal.WithLabelValues(norm(typ)).Add(float64(amount))
}
