package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// BookingMetrics exposes counters for the appointment lifecycle.
type BookingMetrics struct {
	appointmentsCreated prometheus.Counter
	statusTransitions   *prometheus.CounterVec
	smsOutcomes         *prometheus.CounterVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		appointmentsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "medibook",
			Subsystem: "appointments",
			Name:      "created_total",
			Help:      "Total appointments created",
		}),
		statusTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medibook",
			Subsystem: "appointments",
			Name:      "status_transitions_total",
			Help:      "Total appointment status transitions",
		}, []string{"from", "to"}),
		smsOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medibook",
			Subsystem: "notify",
			Name:      "sms_outcomes_total",
			Help:      "Outcomes of best-effort SMS notifications",
		}, []string{"sent"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.appointmentsCreated, m.statusTransitions, m.smsOutcomes)
	return m
}

func (m *BookingMetrics) ObserveCreated() {
	if m == nil {
		return
	}
	m.appointmentsCreated.Inc()
}

func (m *BookingMetrics) ObserveTransition(from, to string) {
	if m == nil {
		return
	}
	m.statusTransitions.WithLabelValues(from, to).Inc()
}

func (m *BookingMetrics) ObserveSMS(sent bool) {
	if m == nil {
		return
	}
	label := "false"
	if sent {
		label = "true"
	}
	m.smsOutcomes.WithLabelValues(label).Inc()
}

// HTTPMetrics tracks request latency per route pattern.
type HTTPMetrics struct {
	requestDuration *prometheus.HistogramVec
}

func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	m := &HTTPMetrics{
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "medibook",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.requestDuration)
	return m
}

func (m *HTTPMetrics) ObserveRequest(method, route string, status int, seconds float64) {
	if m == nil {
		return
	}
	m.requestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(seconds)
}
