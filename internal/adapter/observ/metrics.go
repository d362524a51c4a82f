package observ

import (
	"github.com/mecber11/farmacia/internal/usecase"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exports storefront outcomes as labelled counters.
type Metrics struct {
	logins    *prometheus.CounterVec
	checkouts *prometheus.CounterVec
	payments  *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		logins: f.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_logins_total",
			Help: "Login attempts by result",
		}, []string{"result"}),
		checkouts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_checkouts_total",
			Help: "Checkout attempts by result",
		}, []string{"result"}),
		payments: f.NewCounterVec(prometheus.CounterOpts{
			Name: "payment_status_events_total",
			Help: "Payment status events by result",
		}, []string{"result"}),
	}
}

func (m *Metrics) LoginAttempt(result string)       { m.logins.WithLabelValues(result).Inc() }
func (m *Metrics) CheckoutAttempt(result string)    { m.checkouts.WithLabelValues(result).Inc() }
func (m *Metrics) PaymentStatusEvent(result string) { m.payments.WithLabelValues(result).Inc() }

var _ usecase.Metrics = (*Metrics)(nil)
