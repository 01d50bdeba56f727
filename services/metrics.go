package services

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exposes drop counters and room gauges. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	droppedInputs *prometheus.CounterVec
	droppedEmits  *prometheus.CounterVec
	activeRooms   prometheus.Gauge
	ticks         prometheus.Counter
	rescues       prometheus.Counter
	goals         *prometheus.CounterVec
}

// NewMetrics builds a Metrics on its own registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		droppedInputs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pongo",
			Name:      "dropped_inputs_total",
			Help:      "Inputs silently dropped by admission, by reason.",
		}, []string{"reason"}),
		droppedEmits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pongo",
			Name:      "dropped_emits_total",
			Help:      "Outbound events dropped because a client fell behind, by namespace.",
		}, []string{"namespace"}),
		activeRooms: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "pongo",
			Name:      "active_rooms",
			Help:      "Rooms currently registered.",
		}),
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pongo",
			Name:      "room_ticks_total",
			Help:      "Fixed simulation ticks executed across all rooms.",
		}),
		rescues: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pongo",
			Name:      "assist_rescues_total",
			Help:      "Near-miss balls rescued by the assist policy.",
		}),
		goals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pongo",
			Name:      "goals_total",
			Help:      "Points scored, by scoring slot.",
		}, []string{"slot"}),
	}
	m.Registry.MustRegister(m.droppedInputs, m.droppedEmits, m.activeRooms, m.ticks, m.rescues, m.goals)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

func (m *Metrics) InputDropped(reason string) {
	if m == nil {
		return
	}
	m.droppedInputs.WithLabelValues(reason).Inc()
}

func (m *Metrics) EmitDropped(namespace string) {
	if m == nil {
		return
	}
	m.droppedEmits.WithLabelValues(namespace).Inc()
}

func (m *Metrics) SetActiveRooms(n int) {
	if m == nil {
		return
	}
	m.activeRooms.Set(float64(n))
}

func (m *Metrics) Tick() {
	if m == nil {
		return
	}
	m.ticks.Inc()
}

func (m *Metrics) Rescue() {
	if m == nil {
		return
	}
	m.rescues.Inc()
}

func (m *Metrics) Goal(slot string) {
	if m == nil {
		return
	}
	m.goals.WithLabelValues(slot).Inc()
}
