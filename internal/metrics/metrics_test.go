package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	for _, mf := range families {
		if mf.GetName() == name {
			if len(mf.GetMetric()) != 1 {
				t.Fatalf("expected 1 metric for %s, got %d", name, len(mf.GetMetric()))
			}
			return mf.GetMetric()[0].GetCounter().GetValue()
		}
	}

	t.Fatalf("metric %s not found", name)
	return 0
}

func TestRecordTokenRefreshSplitsByOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordTokenRefresh(true)
	c.RecordTokenRefresh(true)
	c.RecordTokenRefresh(false)

	if got := counterValue(t, reg, "sobercircle_token_refresh_success_total"); got != 2 {
		t.Fatalf("refresh success = %v, want 2", got)
	}
	if got := counterValue(t, reg, "sobercircle_token_refresh_fail_total"); got != 1 {
		t.Fatalf("refresh fail = %v, want 1", got)
	}
}

func TestRecordDomainCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordLogin()
	c.RecordCheckIn()
	c.RecordCheckIn()
	c.RecordCrisis()

	if got := counterValue(t, reg, "sobercircle_logins_total"); got != 1 {
		t.Fatalf("logins = %v, want 1", got)
	}
	if got := counterValue(t, reg, "sobercircle_check_ins_total"); got != 2 {
		t.Fatalf("check-ins = %v, want 2", got)
	}
	if got := counterValue(t, reg, "sobercircle_crises_total"); got != 1 {
		t.Fatalf("crises = %v, want 1", got)
	}
}

func TestHandlerServesRecordedMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordHTTPStatus(200)
	c.RecordHTTPStatus(200)
	c.RecordHTTPStatus(401)
	c.RecordRequestLatency(25 * time.Millisecond)

	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("failed to scrape metrics: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read metrics body: %v", err)
	}

	text := string(body)
	if !strings.Contains(text, `sobercircle_http_status_total{status_code="200"} 2`) {
		t.Fatalf("expected 200 counter in scrape output, got:\n%s", text)
	}
	if !strings.Contains(text, `sobercircle_http_status_total{status_code="401"} 1`) {
		t.Fatalf("expected 401 counter in scrape output, got:\n%s", text)
	}
	if !strings.Contains(text, "sobercircle_request_latency_seconds_count 1") {
		t.Fatalf("expected latency observation in scrape output, got:\n%s", text)
	}
}
