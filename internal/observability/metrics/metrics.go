package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "clinicweb"

// ClinicAPIMetrics exposes counters/histograms for calls to the clinic backend.
type ClinicAPIMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

func NewClinicAPIMetrics(reg prometheus.Registerer) *ClinicAPIMetrics {
	m := &ClinicAPIMetrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "clinicapi",
			Name:      "requests_total",
			Help:      "Total calls to the clinic backend API",
		}, []string{"operation", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "clinicapi",
			Name:      "request_duration_seconds",
			Help:      "Latency of clinic backend API calls",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.requestsTotal, m.requestDuration)
	return m
}

// ObserveRequest records one backend call. status is the HTTP status code, or
// 0 when the request never produced a response.
func (m *ClinicAPIMetrics) ObserveRequest(operation string, status int, seconds float64) {
	if m == nil {
		return
	}
	label := "transport_error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.requestsTotal.WithLabelValues(operation, label).Inc()
	m.requestDuration.WithLabelValues(operation).Observe(seconds)
}

// BookingMetrics exposes counters for the appointment wizard.
type BookingMetrics struct {
	transitions   *prometheus.CounterVec
	submissions   *prometheus.CounterVec
	staleSlotLoad prometheus.Counter
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "booking",
			Name:      "step_transitions_total",
			Help:      "Wizard step navigation attempts",
		}, []string{"from", "to", "outcome"}),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "booking",
			Name:      "submissions_total",
			Help:      "Booking submissions by outcome",
		}, []string{"outcome"}),
		staleSlotLoad: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "booking",
			Name:      "stale_slot_responses_total",
			Help:      "Availability responses discarded because the date/service/doctor changed while in flight",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.transitions, m.submissions, m.staleSlotLoad)
	return m
}

func (m *BookingMetrics) ObserveTransition(from, to int, outcome string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(strconv.Itoa(from), strconv.Itoa(to), outcome).Inc()
}

func (m *BookingMetrics) ObserveSubmission(outcome string) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(outcome).Inc()
}

func (m *BookingMetrics) ObserveStaleSlots() {
	if m == nil {
		return
	}
	m.staleSlotLoad.Inc()
}
