// Package telemetry holds the Prometheus collectors of the shop.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "loja"

// BusinessMetrics counts shop events. A nil *BusinessMetrics records nothing.
type BusinessMetrics struct {
	CartOperations *prometheus.CounterVec
	CartItemsAdded prometheus.Counter
	Logins         *prometheus.CounterVec
	RateLimited    prometheus.Counter
}

// NewBusinessMetrics registers the business collectors on reg.
func NewBusinessMetrics(reg prometheus.Registerer) *BusinessMetrics {
	f := promauto.With(reg)
	return &BusinessMetrics{
		CartOperations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_operations_total",
			Help:      "Cart operations by kind and outcome",
		}, []string{"operation", "outcome"}),
		CartItemsAdded: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_items_added_total",
			Help:      "Units added to carts",
		}),
		Logins: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Login attempts by outcome",
		}, []string{"outcome"}),
		RateLimited: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_rate_limited_total",
			Help:      "Cart requests rejected by the rate limiter",
		}),
	}
}

// CartOperation records one cart operation; err decides the outcome label.
func (m *BusinessMetrics) CartOperation(op string, err error) {
	if m == nil {
		return
	}
	m.CartOperations.WithLabelValues(op, outcome(err)).Inc()
}

func (m *BusinessMetrics) ItemsAdded(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.CartItemsAdded.Add(float64(n))
}

func (m *BusinessMetrics) Login(err error) {
	if m == nil {
		return
	}
	m.Logins.WithLabelValues(outcome(err)).Inc()
}

func (m *BusinessMetrics) CartRateLimited() {
	if m == nil {
		return
	}
	m.RateLimited.Inc()
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
