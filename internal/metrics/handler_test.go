package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

// TestSetupMetricsRoute_ServesMetrics は/metricsパスでメトリクスが返ることを検証する。
func TestSetupMetricsRoute_ServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordBreakingDetected("high")

	handler := SetupMetricsRoute(reg)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `newspulse_breaking_detected_total{priority="high"} 1`) {
		t.Errorf("response should contain newspulse_breaking_detected_total, got:\n%s", body)
	}
}

// TestSetupMetricsRoute_OtherPathsNotFound は/metrics以外のパスが404になることを検証する。
func TestSetupMetricsRoute_OtherPathsNotFound(t *testing.T) {
	handler := SetupMetricsRoute(prometheus.NewRegistry())

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}
