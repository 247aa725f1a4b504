package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics expone contadores del motor de reservas. Todos los
// métodos son nil-safe: un *BookingMetrics nil es un no-op, así los
// services no necesitan chequear si la observabilidad está cableada.
type BookingMetrics struct {
	requestsTotal      *prometheus.CounterVec
	decisionsTotal     *prometheus.CounterVec
	capacityRejections prometheus.Counter
	creditsMoved       *prometheus.CounterVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "daycare",
			Subsystem: "booking",
			Name:      "requests_total",
			Help:      "Booking requests created, by outcome",
		}, []string{"outcome"}),
		decisionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "daycare",
			Subsystem: "booking",
			Name:      "decisions_total",
			Help:      "Workflow transitions applied (approve/reject/cancel), by result",
		}, []string{"transition", "result"}),
		capacityRejections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "daycare",
			Subsystem: "capacity",
			Name:      "rejections_total",
			Help:      "Operations rejected by the capacity invariant",
		}),
		creditsMoved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "daycare",
			Subsystem: "credits",
			Name:      "moved_total",
			Help:      "Credits debited/credited by the booking workflow",
		}, []string{"direction"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.requestsTotal, m.decisionsTotal, m.capacityRejections, m.creditsMoved)
	return m
}

func (m *BookingMetrics) ObserveRequest(outcome string) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(outcome).Inc()
}

func (m *BookingMetrics) ObserveDecision(transition, result string) {
	if m == nil {
		return
	}
	m.decisionsTotal.WithLabelValues(transition, result).Inc()
}

func (m *BookingMetrics) ObserveCapacityRejection() {
	if m == nil {
		return
	}
	m.capacityRejections.Inc()
}

func (m *BookingMetrics) ObserveCredits(direction string, amount int) {
	if m == nil {
		return
	}
	m.creditsMoved.WithLabelValues(direction).Add(float64(amount))
}
