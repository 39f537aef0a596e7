package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func counterValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	metrics:
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if labels[lp.GetName()] != lp.GetValue() {
					continue metrics
				}
			}
			return m.GetCounter().GetValue()
		}
	}
	return 0
}

func TestRecordAuthCountsByMethodAndResult(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordAuth(MethodEmailLogin, ResultSuccess)
	c.RecordAuth(MethodEmailLogin, ResultSuccess)
	c.RecordAuth(MethodEmailLogin, ResultInvalid)

	if got := counterValue(t, reg, "revvel_auth_attempts_total", map[string]string{"method": MethodEmailLogin, "result": ResultSuccess}); got != 2 {
		t.Errorf("success count = %v, want 2", got)
	}
	if got := counterValue(t, reg, "revvel_auth_attempts_total", map[string]string{"method": MethodEmailLogin, "result": ResultInvalid}); got != 1 {
		t.Errorf("invalid count = %v, want 1", got)
	}
}

func TestRecordRateLimited(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordRateLimited("/api/auth/login")

	if got := counterValue(t, reg, "revvel_auth_rate_limited_total", map[string]string{"route": "/api/auth/login"}); got != 1 {
		t.Errorf("rate limited count = %v, want 1", got)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordAuth(MethodGoogle, ResultError)

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `revvel_auth_attempts_total{method="google",result="error"} 1`) {
		t.Fatalf("expected counter in exposition, got:\n%s", body)
	}
}

func TestNilCollectorIsNoop(t *testing.T) {
	var c *Collector
	c.RecordAuth(MethodEmailLogin, ResultSuccess)
	c.RecordRateLimited("/api/auth/login")
}
