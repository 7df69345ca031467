// Package metrics exports the outcome of the last run for the node_exporter
// textfile collector.
package metrics

import (
	"os"
	"path/filepath"

	"github.com/CodeMonkeyCybersecurity/pirescue/pkg/history"
	"github.com/CodeMonkeyCybersecurity/pirescue/pkg/shared"
	cerr "github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// TextfileName is the file written inside the collector directory.
const TextfileName = "pirescue.prom"

var checkStatuses = []string{"pass", "fail", "warn"}

// Metrics holds a private registry of last-run gauges.
type Metrics struct {
	registry       *prometheus.Registry
	lastRun        *prometheus.GaugeVec
	lastDuration   prometheus.Gauge
	connected      prometheus.Gauge
	networks       *prometheus.GaugeVec
	checkStatus    *prometheus.GaugeVec
	lastRunSuccess prometheus.Gauge
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	lastRun := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "pirescue",
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last pirescue run finished.",
		},
		[]string{"command"},
	)
	lastDuration := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "pirescue",
		Name:      "last_run_duration_seconds",
		Help:      "Wall time of the last pirescue run.",
	})
	lastRunSuccess := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "pirescue",
		Name:      "last_run_success",
		Help:      "1 if the last run finished without error.",
	})
	connected := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "pirescue",
		Subsystem: "wifi",
		Name:      "connected",
		Help:      "1 if the wireless interface had an IPv4 address at the end of the run.",
	})
	// No labels: the single series only exists once a count is observed.
	networks := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "pirescue",
		Subsystem: "wifi",
		Name:      "configured_networks",
		Help:      "Number of network blocks in the WiFi configuration file, absent when the file is missing.",
	}, nil)
	checkStatus := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "pirescue",
			Subsystem: "check",
			Name:      "status",
			Help:      "1 for the status each diagnostic check ended in, 0 otherwise.",
		},
		[]string{"check", "status"},
	)

	registry.MustRegister(lastRun, lastDuration, lastRunSuccess, connected, networks, checkStatus)

	return &Metrics{
		registry:       registry,
		lastRun:        lastRun,
		lastDuration:   lastDuration,
		connected:      connected,
		networks:       networks,
		checkStatus:    checkStatus,
		lastRunSuccess: lastRunSuccess,
	}
}

// Registry exposes the gatherer, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveRun sets every gauge from a finished run. networks < 0 means the
// config file is missing and the network count is not exported.
func (m *Metrics) ObserveRun(r *history.Run, networks int) {
	if m == nil || r == nil {
		return
	}
	m.lastRun.WithLabelValues(r.Command).Set(float64(r.FinishedAt.Unix()))
	m.lastDuration.Set(r.Duration().Seconds())
	m.lastRunSuccess.Set(boolGauge(r.Error == ""))
	m.connected.Set(boolGauge(r.Connected))
	if networks >= 0 {
		m.networks.WithLabelValues().Set(float64(networks))
	}
	for _, c := range r.Checks {
		for _, status := range checkStatuses {
			m.checkStatus.WithLabelValues(c.Name, status).Set(boolGauge(c.Status == status))
		}
	}
}

// WriteTextfile atomically writes the registry to dir/pirescue.prom.
func (m *Metrics) WriteTextfile(dir string) (string, error) {
	if dir == "" {
		return "", cerr.New("textfile directory is required")
	}
	if err := os.MkdirAll(dir, shared.DirPermStandard); err != nil {
		return "", cerr.Wrapf(err, "create textfile dir %s", dir)
	}
	path := filepath.Join(dir, TextfileName)
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return "", cerr.WithHint(cerr.Wrapf(err, "write %s", path),
			"point metrics.textfile_dir at the node_exporter --collector.textfile.directory")
	}
	return path, nil
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
