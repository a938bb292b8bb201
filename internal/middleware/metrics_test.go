package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/event-registry/event-registry/internal/telemetry"
)

func metricsRouter() *gin.Engine {
	r := gin.New()
	r.Use(MetricsMiddleware())
	r.GET("/api/stats", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })
	return r
}

func TestMetricsMiddleware_CountsRequests(t *testing.T) {
	r := metricsRouter()

	before := testutil.ToFloat64(telemetry.HTTPRequestsTotal.WithLabelValues("GET", "/api/stats", "200"))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/stats", nil)
	r.ServeHTTP(w, req)

	after := testutil.ToFloat64(telemetry.HTTPRequestsTotal.WithLabelValues("GET", "/api/stats", "200"))
	if after != before+1 {
		t.Errorf("http_requests_total delta = %v, want 1", after-before)
	}
}

func TestMetricsMiddleware_RecordsStatusCode(t *testing.T) {
	r := metricsRouter()

	before := testutil.ToFloat64(telemetry.HTTPRequestsTotal.WithLabelValues("GET", "/boom", "500"))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/boom", nil)
	r.ServeHTTP(w, req)

	after := testutil.ToFloat64(telemetry.HTTPRequestsTotal.WithLabelValues("GET", "/boom", "500"))
	if after != before+1 {
		t.Errorf("http_requests_total{status=500} delta = %v, want 1", after-before)
	}
}

func TestMetricsMiddleware_UnmatchedRoute(t *testing.T) {
	r := metricsRouter()

	before := testutil.ToFloat64(telemetry.HTTPRequestsTotal.WithLabelValues("GET", "<no-route>", "404"))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/does-not-exist", nil)
	r.ServeHTTP(w, req)

	after := testutil.ToFloat64(telemetry.HTTPRequestsTotal.WithLabelValues("GET", "<no-route>", "404"))
	if after != before+1 {
		t.Errorf("http_requests_total{path=<no-route>} delta = %v, want 1", after-before)
	}
}
