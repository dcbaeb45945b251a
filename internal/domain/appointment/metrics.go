package appointment

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/medibook/medibook/internal/platform/apperr"
)

// Metrics counts booking and transition outcomes. A nil *Metrics is a no-op.
type Metrics struct {
	bookings    *prometheus.CounterVec
	transitions *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		bookings: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "medibook",
				Name:      "appointment_bookings_total",
				Help:      "Booking attempts by outcome",
			},
			[]string{"outcome"},
		),
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "medibook",
				Name:      "appointment_transitions_total",
				Help:      "Status change attempts by target status, role and outcome",
			},
			[]string{"to", "role", "outcome"},
		),
	}
	reg.MustRegister(m.bookings, m.transitions)
	return m
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return string(apperr.KindOf(err))
}

func (m *Metrics) observeBooking(err error) {
	if m == nil {
		return
	}
	m.bookings.WithLabelValues(outcome(err)).Inc()
}

func (m *Metrics) observeTransition(to Status, role string, err error) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(string(to), role, outcome(err)).Inc()
}
