package obs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carrental/internal/app/policies"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestMetricsCountOutcomes(t *testing.T) {
	m := NewMetrics()
	m.AvailabilityChecked(policies.OutcomeStale)
	m.AvailabilityChecked(policies.OutcomeStale)
	m.AvailabilityChecked(policies.OutcomeAvailable)
	m.ObserveMessage("command", "drafts.submit", 10*time.Millisecond, errors.New("x"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.availabilityChecks.WithLabelValues(policies.OutcomeStale)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.busMessages.WithLabelValues("command", "drafts.submit", "error")))
}

func TestMetricsEndpointAndAccessLog(t *testing.T) {
	m := NewMetrics()
	r := gin.New()
	mw := Middleware{Logger: slog.New(slog.NewTextHandler(io.Discard, nil)), Metrics: m}
	r.Use(mw.RequestID(), mw.AccessLog())
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	r.GET("/metrics", m.Handler())

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), `carrental_http_requests_total{method="GET",path="/ping",status="200"} 1`)
}

func TestReadyzReportsFailingChecks(t *testing.T) {
	r := gin.New()
	h := HealthHandlers{Checks: map[string]ReadinessCheck{
		"redis": func(context.Context) error { return errors.New("connection refused") },
		"mongo": func(context.Context) error { return nil },
	}}
	r.GET("/readyz", h.Readyz)
	r.GET("/livez", h.Livez)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "connection refused")

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/livez", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
}
