package authapi

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels for the register and login counters.
const (
	ResultSuccess           = "success"
	ResultConflict          = "conflict"
	ResultInvalid           = "invalid"
	ResultUnknownIdentifier = "unknown_identifier"
	ResultBadPassword       = "bad_password"
	ResultError             = "error"
)

// Metrics counts auth outcomes. A nil *Metrics records nothing.
type Metrics struct {
	registrations  *prometheus.CounterVec
	logins         *prometheus.CounterVec
	gateRejections *prometheus.CounterVec
}

// NewMetrics creates the auth counters and registers them with reg.
// Panics if registration fails (following prometheus convention).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stibo",
			Subsystem: "auth",
			Name:      "registrations_total",
			Help:      "Registration attempts by result",
		}, []string{"result"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stibo",
			Subsystem: "auth",
			Name:      "logins_total",
			Help:      "Login attempts by result",
		}, []string{"result"}),
		gateRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stibo",
			Subsystem: "auth",
			Name:      "gate_rejections_total",
			Help:      "Requests refused by the bearer token gate, by reason",
		}, []string{"reason"}),
	}
	if reg != nil {
		reg.MustRegister(m.registrations, m.logins, m.gateRejections)
	}
	return m
}

func (m *Metrics) observeRegister(result string) {
	if m == nil {
		return
	}
	m.registrations.WithLabelValues(result).Inc()
}

func (m *Metrics) observeLogin(result string) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(result).Inc()
}

func (m *Metrics) observeRejection(reason string) {
	if m == nil {
		return
	}
	m.gateRejections.WithLabelValues(reason).Inc()
}
