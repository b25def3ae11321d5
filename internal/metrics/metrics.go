package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// StoreMetrics counts order persistence outcomes. Lost orders are the ones
// operations must reconcile by hand, so they get their own counter.
type StoreMetrics struct {
	Persisted prometheus.Counter
	Deferred  prometheus.Counter
	Lost      prometheus.Counter
}

func NewStoreMetrics() *StoreMetrics {
	persisted := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "coffeeshop",
		Subsystem: "orders",
		Name:      "persisted_total",
		Help:      "Orders durably written.",
	})
	deferred := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "coffeeshop",
		Subsystem: "orders",
		Name:      "deferred_total",
		Help:      "Orders answered with a placeholder before the durable write confirmed.",
	})
	lost := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "coffeeshop",
		Subsystem: "orders",
		Name:      "lost_total",
		Help:      "Orders whose background retry budget ran out without a durable write.",
	})

	prometheus.MustRegister(persisted, deferred, lost)
	return &StoreMetrics{Persisted: persisted, Deferred: deferred, Lost: lost}
}

// PaymentMetrics counts webhook verification outcomes.
type PaymentMetrics struct {
	CallbacksAccepted prometheus.Counter
	CallbacksRejected prometheus.Counter
}

func NewPaymentMetrics() *PaymentMetrics {
	accepted := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "coffeeshop",
		Subsystem: "payment",
		Name:      "callbacks_accepted_total",
		Help:      "Gateway callbacks with a valid signature.",
	})
	rejected := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "coffeeshop",
		Subsystem: "payment",
		Name:      "callbacks_rejected_total",
		Help:      "Gateway callbacks rejected for signature mismatch.",
	})

	prometheus.MustRegister(accepted, rejected)
	return &PaymentMetrics{CallbacksAccepted: accepted, CallbacksRejected: rejected}
}

func Handler() http.Handler {
	return promhttp.Handler()
}
