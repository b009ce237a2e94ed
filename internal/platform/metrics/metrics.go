package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	WritesTotal          *prometheus.CounterVec
	CompensationsTotal   *prometheus.CounterVec
	OutcomeEmitFailures  prometheus.Counter
	CommandsTotal        *prometheus.CounterVec
	NotificationsTotal   *prometheus.CounterVec
	NotificationsBuffer  prometheus.Gauge
	StreamSessionsActive prometheus.Gauge
}

// New creates and registers all metrics on reg. Tests pass a fresh
// prometheus.NewRegistry() so repeated construction does not collide.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		WritesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "flora_writes_total",
			Help: "Write coordinator invocations by operation and outcome",
		}, []string{"operation", "outcome"}),
		CompensationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "flora_compensations_total",
			Help: "Compensating structured-store deletes by result",
		}, []string{"result"}),
		OutcomeEmitFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "flora_outcome_emit_failures_total",
			Help: "Outcome events that could not be published",
		}),
		CommandsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "flora_commands_total",
			Help: "Inbound command messages by command and disposition",
		}, []string{"command", "disposition"}),
		NotificationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "flora_notifications_total",
			Help: "Inbound notification messages by disposition",
		}, []string{"disposition"}),
		NotificationsBuffer: factory.NewGauge(prometheus.GaugeOpts{
			Name: "flora_notifications_buffered",
			Help: "Messages currently held in the notification buffer",
		}),
		StreamSessionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "flora_stream_sessions_active",
			Help: "Currently connected notification stream clients",
		}),
	}
}

// ObserveWrite counts one coordinator invocation.
func (m *Metrics) ObserveWrite(operation, outcome string) {
	if m == nil {
		return
	}
	m.WritesTotal.WithLabelValues(operation, outcome).Inc()
}

// ObserveCompensation counts one compensating delete.
func (m *Metrics) ObserveCompensation(ok bool) {
	if m == nil {
		return
	}
	result := "deleted"
	if !ok {
		result = "orphaned"
	}
	m.CompensationsTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) IncOutcomeEmitFailures() {
	if m == nil {
		return
	}
	m.OutcomeEmitFailures.Inc()
}

func (m *Metrics) ObserveCommand(command, disposition string) {
	if m == nil {
		return
	}
	m.CommandsTotal.WithLabelValues(command, disposition).Inc()
}

func (m *Metrics) ObserveNotification(disposition string) {
	if m == nil {
		return
	}
	m.NotificationsTotal.WithLabelValues(disposition).Inc()
}

func (m *Metrics) SetBuffered(n int) {
	if m == nil {
		return
	}
	m.NotificationsBuffer.Set(float64(n))
}

func (m *Metrics) SetSessions(n int) {
	if m == nil {
		return
	}
	m.StreamSessionsActive.Set(float64(n))
}
