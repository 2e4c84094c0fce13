// Package metrics owns the bridge's prometheus registry. The service speaks
// on a single TCP port, so there is no scrape endpoint: counters are gathered
// in-process and exposed through the bridge.stats RPC method.
package metrics

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// Metrics is nil-safe: every method is a no-op on a nil receiver, so
// components that do not care about instrumentation can be built without it.
type Metrics struct {
	registry *prometheus.Registry

	connectionsAccepted prometheus.Counter
	connectionsActive   prometheus.Gauge
	framesRead          prometheus.Counter
	requestsTotal       *prometheus.CounterVec
	requestSeconds      prometheus.Histogram
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		connectionsAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dawmcp", Subsystem: "bridge",
			Name: "connections_accepted_total",
			Help: "Client connections accepted since startup.",
		}),
		connectionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "dawmcp", Subsystem: "bridge",
			Name: "connections_active",
			Help: "Currently open client connections.",
		}),
		framesRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dawmcp", Subsystem: "bridge",
			Name: "frames_read_total",
			Help: "Complete newline-delimited frames extracted from the wire.",
		}),
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dawmcp", Subsystem: "bridge",
			Name: "requests_total",
			Help: "Requests handled, by outcome (ok or JSON-RPC error code).",
		}, []string{"outcome"}),
		requestSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "dawmcp", Subsystem: "bridge",
			Name:    "request_seconds",
			Help:    "Dispatch latency per request.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	m.registry.MustRegister(
		m.connectionsAccepted,
		m.connectionsActive,
		m.framesRead,
		m.requestsTotal,
		m.requestSeconds,
	)
	return m
}

func (m *Metrics) ConnectionAccepted() {
	if m == nil {
		return
	}
	m.connectionsAccepted.Inc()
}

func (m *Metrics) SetActiveConnections(n int) {
	if m == nil {
		return
	}
	m.connectionsActive.Set(float64(n))
}

func (m *Metrics) FrameRead() {
	if m == nil {
		return
	}
	m.framesRead.Inc()
}

// RequestHandled records one dispatched request. code 0 means success;
// anything else is the JSON-RPC error code returned to the client.
func (m *Metrics) RequestHandled(code int, elapsed time.Duration) {
	if m == nil {
		return
	}
	outcome := "ok"
	if code != 0 {
		outcome = strconv.Itoa(code)
	}
	m.requestsTotal.WithLabelValues(outcome).Inc()
	m.requestSeconds.Observe(elapsed.Seconds())
}

// Snapshot flattens the registry into name → value pairs for bridge.stats.
func (m *Metrics) Snapshot() (map[string]any, error) {
	out := map[string]any{}
	if m == nil {
		return out, nil
	}
	families, err := m.registry.Gather()
	if err != nil {
		return nil, fmt.Errorf("gather metrics: %w", err)
	}
	for _, family := range families {
		for _, sample := range family.GetMetric() {
			name := family.GetName() + labelSuffix(sample)
			switch family.GetType() {
			case dto.MetricType_COUNTER:
				out[name] = sample.GetCounter().GetValue()
			case dto.MetricType_GAUGE:
				out[name] = sample.GetGauge().GetValue()
			case dto.MetricType_HISTOGRAM:
				out[name+"_count"] = sample.GetHistogram().GetSampleCount()
				out[name+"_sum"] = sample.GetHistogram().GetSampleSum()
			}
		}
	}
	return out, nil
}

func labelSuffix(sample *dto.Metric) string {
	labels := sample.GetLabel()
	if len(labels) == 0 {
		return ""
	}
	parts := make([]string, 0, len(labels))
	for _, label := range labels {
		parts = append(parts, label.GetName()+"="+label.GetValue())
	}
	sort.Strings(parts)
	return "{" + strings.Join(parts, ",") + "}"
}
