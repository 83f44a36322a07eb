package bridge

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const metricsNamespace = "fibaro_bridge"

// Metrics holds the bridge's Prometheus collectors.
//
// Each Metrics owns its registry so several bridges (or tests) can coexist
// in one process. All methods are nil-safe.
type Metrics struct {
	registry *prometheus.Registry

	polls          *prometheus.CounterVec
	changes        *prometheus.CounterVec
	publications   *prometheus.CounterVec
	commands       *prometheus.CounterVec
	actions        *prometheus.CounterVec
	devices        prometheus.Gauge
	skippedDevices prometheus.Counter
	configLocked   prometheus.Gauge
}

// NewMetrics creates and registers the bridge collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		polls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "polls_total",
			Help:      "refreshStates requests by result.",
		}, []string{"result"}),
		changes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "changes_total",
			Help:      "Change records received from the hub by outcome.",
		}, []string{"outcome"}),
		publications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "publications_total",
			Help:      "MQTT publications by kind and result.",
		}, []string{"kind", "result"}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "commands_total",
			Help:      "Inbound command messages by outcome.",
		}, []string{"outcome"}),
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "actions_total",
			Help:      "Hub actions by name and result.",
		}, []string{"name", "result"}),
		devices: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "devices",
			Help:      "Registered device handlers.",
		}),
		skippedDevices: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "devices_skipped_total",
			Help:      "Enumerated devices of an unrecognised type.",
		}),
		configLocked: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "config_locked",
			Help:      "1 once hub configuration has been received.",
		}),
	}

	m.registry.MustRegister(
		m.polls,
		m.changes,
		m.publications,
		m.commands,
		m.actions,
		m.devices,
		m.skippedDevices,
		m.configLocked,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Registry returns the registry to expose through promhttp.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) pollResult(ok bool) {
	if m == nil {
		return
	}
	m.polls.WithLabelValues(resultLabel(ok)).Inc()
}

func (m *Metrics) changeApplied() {
	if m == nil {
		return
	}
	m.changes.WithLabelValues("applied").Inc()
}

func (m *Metrics) changeDropped() {
	if m == nil {
		return
	}
	m.changes.WithLabelValues("unknown_device").Inc()
}

func (m *Metrics) published(kind string, ok bool) {
	if m == nil {
		return
	}
	m.publications.WithLabelValues(kind, resultLabel(ok)).Inc()
}

func (m *Metrics) command(outcome string) {
	if m == nil {
		return
	}
	m.commands.WithLabelValues(outcome).Inc()
}

func (m *Metrics) action(name string, ok bool) {
	if m == nil {
		return
	}
	m.actions.WithLabelValues(name, resultLabel(ok)).Inc()
}

func (m *Metrics) setDevices(n int) {
	if m == nil {
		return
	}
	m.devices.Set(float64(n))
}

func (m *Metrics) deviceSkipped() {
	if m == nil {
		return
	}
	m.skippedDevices.Inc()
}

func (m *Metrics) setConfigLocked() {
	if m == nil {
		return
	}
	m.configLocked.Set(1)
}

func resultLabel(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}
