package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	checkoutSessions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "outlandish",
			Name:      "checkout_sessions_total",
			Help:      "Checkout sessions requested from the payment provider, by kind and result.",
		},
		[]string{"kind", "result"},
	)

	webhookEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "outlandish",
			Name:      "webhook_events_total",
			Help:      "Payment webhook deliveries by outcome.",
		},
		[]string{"outcome"},
	)

	paymentsApplied = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "outlandish",
			Name:      "payments_applied_total",
			Help:      "Payments added to booking ledgers, by payment type.",
		},
		[]string{"type"},
	)

	amountApplied = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "outlandish",
			Name:      "payments_applied_pounds_total",
			Help:      "Sum of payments added to booking ledgers, in pounds.",
		},
	)

	balanceRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "outlandish",
			Name:      "balance_rejections_total",
			Help:      "Balance payment requests rejected by the settlement guard, by reason.",
		},
		[]string{"reason"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(checkoutSessions, webhookEvents, paymentsApplied, amountApplied, balanceRejections)
	})
}

func IncCheckoutSession(kind, result string) {
	checkoutSessions.WithLabelValues(kind, result).Inc()
}

func IncWebhookEvent(outcome string) {
	webhookEvents.WithLabelValues(outcome).Inc()
}

func AddPaymentApplied(paymentType string, amount int64) {
	paymentsApplied.WithLabelValues(paymentType).Inc()
	amountApplied.Add(float64(amount))
}

func IncBalanceRejection(reason string) {
	balanceRejections.WithLabelValues(reason).Inc()
}
