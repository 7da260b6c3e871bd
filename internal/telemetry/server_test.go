package telemetry

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/pairscreen/internal/confidence"
	"github.com/sawpanic/pairscreen/internal/monitor"
)

type stubVerdicts struct {
	verdict *confidence.Verdict
	err     error
}

func (s *stubVerdicts) Latest() (*confidence.Verdict, error) {
	return s.verdict, s.err
}

type stubAlerts struct {
	alerts    []monitor.Alert
	emergency bool
	scale     float64
}

func (s *stubAlerts) Alerts() []monitor.Alert  { return s.alerts }
func (s *stubAlerts) EmergencyTriggered() bool { return s.emergency }
func (s *stubAlerts) ConfidenceScale() float64 { return s.scale }

func get(t *testing.T, srv *Server, path string) (*http.Response, []byte) {
	t.Helper()
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + path)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	return resp, body
}

func TestHealthEndpoint(t *testing.T) {
	srv := NewServer(DefaultServerConfig(), NewMetrics(), nil, nil)
	resp, body := get(t, srv, "/health")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &payload))
	assert.Equal(t, "ok", payload["status"])
}

func TestVerdictEndpoint(t *testing.T) {
	verdicts := &stubVerdicts{verdict: &confidence.Verdict{
		SampleSize:      240,
		Correlation:     0.88,
		Level:           confidence.LevelGood,
		ProductionReady: true,
	}}
	srv := NewServer(DefaultServerConfig(), NewMetrics(), verdicts, nil)
	resp, body := get(t, srv, "/verdict")

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var v confidence.Verdict
	require.NoError(t, json.Unmarshal(body, &v))
	assert.Equal(t, 240, v.SampleSize)
	assert.True(t, v.ProductionReady)
}

func TestVerdictEndpointBeforeFirstAssessment(t *testing.T) {
	verdicts := &stubVerdicts{err: confidence.ErrNoVerdict}
	srv := NewServer(DefaultServerConfig(), NewMetrics(), verdicts, nil)
	resp, _ := get(t, srv, "/verdict")

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestVerdictEndpointUnconfigured(t *testing.T) {
	srv := NewServer(DefaultServerConfig(), NewMetrics(), nil, nil)
	resp, _ := get(t, srv, "/verdict")

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAlertsEndpoint(t *testing.T) {
	alerts := &stubAlerts{
		alerts: []monitor.Alert{
			{ID: "a1", Severity: monitor.SeverityWarning, Message: "degrading", Correlation: 0.86},
		},
		scale: 0.9,
	}
	srv := NewServer(DefaultServerConfig(), NewMetrics(), nil, alerts)
	resp, body := get(t, srv, "/alerts")

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var payload struct {
		Alerts             []monitor.Alert `json:"alerts"`
		EmergencyTriggered bool            `json:"emergency_triggered"`
		ConfidenceScale    float64         `json:"confidence_scale"`
	}
	require.NoError(t, json.Unmarshal(body, &payload))
	require.Len(t, payload.Alerts, 1)
	assert.Equal(t, monitor.SeverityWarning, payload.Alerts[0].Severity)
	assert.False(t, payload.EmergencyTriggered)
	assert.InDelta(t, 0.9, payload.ConfidenceScale, 1e-12)
}

func TestMetricsEndpointExposesObservations(t *testing.T) {
	metrics := NewMetrics()
	metrics.ObserveVerdict(0.88)
	metrics.ObserveAlert("WARNING")
	metrics.ObserveAlert("WARNING")
	metrics.RecordScreening(12, 20, 10, 1.5)
	metrics.RecordSectorExposure("DeFi", 0.24)
	metrics.RecordLedgerDepth(41)

	srv := NewServer(DefaultServerConfig(), metrics, nil, nil)
	resp, body := get(t, srv, "/metrics")

	require.Equal(t, http.StatusOK, resp.StatusCode)
	text := string(body)
	assert.Contains(t, text, "pairscreen_confidence_correlation 0.88")
	assert.Contains(t, text, `pairscreen_alerts_total{severity="WARNING"} 2`)
	assert.Contains(t, text, "pairscreen_monitor_ticks_total 1")
	assert.Contains(t, text, `pairscreen_screening_pairs{tier="premium"} 12`)
	assert.Contains(t, text, `pairscreen_sector_exposure{sector="DeFi"} 0.24`)
	assert.Contains(t, text, "pairscreen_ledger_predictions 41")
}
