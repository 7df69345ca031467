package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/CodeMonkeyCybersecurity/pirescue/pkg/history"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRun() *history.Run {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	return &history.Run{
		ID:         "run-1",
		Command:    "fix",
		StartedAt:  start,
		FinishedAt: start.Add(42 * time.Second),
		Connected:  true,
		Checks: []history.Check{
			{Name: "vnc", Status: "pass"},
			{Name: "ip", Status: "warn"},
		},
	}
}

func TestObserveRun(t *testing.T) {
	m := New()
	m.ObserveRun(sampleRun(), 2)

	assert.Equal(t, float64(1), promtest.ToFloat64(m.connected))
	assert.Equal(t, float64(2), promtest.ToFloat64(m.networks.WithLabelValues()))
	assert.Equal(t, float64(42), promtest.ToFloat64(m.lastDuration))
	assert.Equal(t, float64(1), promtest.ToFloat64(m.lastRunSuccess))
	assert.Equal(t, float64(1), promtest.ToFloat64(m.checkStatus.WithLabelValues("ip", "warn")))
	assert.Equal(t, float64(0), promtest.ToFloat64(m.checkStatus.WithLabelValues("ip", "pass")))
	assert.Equal(t, 6, promtest.CollectAndCount(m.checkStatus))
}

func TestObserveRun_NetworkCount(t *testing.T) {
	missing := New()
	missing.ObserveRun(sampleRun(), -1)
	assert.Equal(t, 0, promtest.CollectAndCount(missing.networks))

	empty := New()
	empty.ObserveRun(sampleRun(), 0)
	assert.Equal(t, 1, promtest.CollectAndCount(empty.networks))
	assert.Equal(t, float64(0), promtest.ToFloat64(empty.networks.WithLabelValues()))
}

func TestObserveRun_NilSafe(t *testing.T) {
	var m *Metrics
	m.ObserveRun(sampleRun(), 1)
	New().ObserveRun(nil, 1)
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	run := sampleRun()
	run.Error = "boom"
	m.ObserveRun(run, -1)

	dir := filepath.Join(t.TempDir(), "textfile")
	path, err := m.WriteTextfile(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, TextfileName), path)

	body, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(body)
	assert.Contains(t, text, `pirescue_last_run_timestamp_seconds{command="fix"}`)
	assert.Contains(t, text, "pirescue_last_run_success 0")
	assert.Contains(t, text, "pirescue_wifi_connected 1")
	assert.NotContains(t, text, "pirescue_wifi_configured_networks", "missing config is not reported as zero networks")
	assert.Contains(t, text, `pirescue_check_status{check="vnc",status="pass"} 1`)

	_, err = m.WriteTextfile("")
	require.Error(t, err)
}
