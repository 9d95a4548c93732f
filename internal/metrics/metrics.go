// Package metrics exposes keymap counters in Prometheus format.
package metrics

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/expfmt"
)

// Metrics owns a private registry so several instances can coexist in
// one process (tests, serve + run).
type Metrics struct {
	registry *prometheus.Registry

	lines       *prometheus.CounterVec
	complaints  prometheus.Counter
	storeKeys   prometheus.Gauge
	httpTotal   *prometheus.CounterVec
	httpLimited prometheus.Counter
}

// New creates and registers the keymap metric set
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		lines: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "keymap_lines_total",
				Help: "Input lines processed, by command kind",
			},
			[]string{"kind"},
		),
		complaints: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "keymap_complaints_total",
			Help: "Failures reported on the diagnostic stream",
		}),
		storeKeys: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "keymap_store_keys",
			Help: "Number of keys currently held in the store",
		}),
		httpTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "keymap_http_requests_total",
				Help: "HTTP requests served, by route and status",
			},
			[]string{"method", "route", "status"},
		),
		httpLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "keymap_http_rate_limited_total",
			Help: "HTTP requests rejected by the rate limiter",
		}),
	}

	m.registry.MustRegister(m.lines, m.complaints, m.storeKeys, m.httpTotal, m.httpLimited)
	return m
}

// ObserveLine counts one processed input line of the given kind
func (m *Metrics) ObserveLine(kind string) {
	m.lines.WithLabelValues(kind).Inc()
}

// ObserveComplaint counts one reported failure
func (m *Metrics) ObserveComplaint() {
	m.complaints.Inc()
}

// SetStoreKeys records the current store size
func (m *Metrics) SetStoreKeys(n int) {
	m.storeKeys.Set(float64(n))
}

// ObserveRequest counts one served HTTP request
func (m *Metrics) ObserveRequest(method, route string, status int) {
	m.httpTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}

// ObserveRateLimited counts one request rejected with 429
func (m *Metrics) ObserveRateLimited() {
	m.httpLimited.Inc()
}

// Handler serves the registry at /metrics
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// WriteText writes every metric family in the Prometheus text format
func (m *Metrics) WriteText(w io.Writer) error {
	families, err := m.registry.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}

	var buf bytes.Buffer
	encoder := expfmt.NewEncoder(&buf, expfmt.FmtText)
	for _, mf := range families {
		if err := encoder.Encode(mf); err != nil {
			return fmt.Errorf("failed to encode metric %s: %w", mf.GetName(), err)
		}
	}

	_, err = w.Write(buf.Bytes())
	return err
}
