package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/pointku-api/internal/service"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) PingContext(ctx context.Context) error { return f(ctx) }

func TestReadyReflectsDatabase(t *testing.T) {
	gin.SetMode(gin.TestMode)

	for name, tc := range map[string]struct {
		pinger Pinger
		status int
	}{
		"healthy": {pinger: pingerFunc(func(context.Context) error { return nil }), status: http.StatusOK},
		"down":    {pinger: pingerFunc(func(context.Context) error { return errors.New("connection refused") }), status: http.StatusServiceUnavailable},
	} {
		t.Run(name, func(t *testing.T) {
			h := NewMetricsHandler(nil, tc.pinger)
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/ready", nil)

			h.Ready(c)
			assert.Equal(t, tc.status, w.Code)
		})
	}
}

func TestPrometheusExposesLedgerMetrics(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics := service.NewMetricsService()
	metrics.ObserveLedgerOperation(service.OpAward, "committed", 0)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	NewMetricsHandler(metrics, nil).Prometheus(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), `point_ledger_operations_total{operation="award",outcome="committed"} 1`))

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	NewMetricsHandler(nil, nil).Prometheus(c)
	c.Writer.WriteHeaderNow() // gin's engine flushes the status after the handler returns
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
