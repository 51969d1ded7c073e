package service

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Ledger operation labels.
const (
	OpAward  = "award"
	OpAmend  = "amend"
	OpRevoke = "revoke"
)

// MetricsService encapsulates Prometheus instrumentation.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	ledgerDuration  *prometheus.HistogramVec
	ledgerTotal     *prometheus.CounterVec
	pointsAwarded   *prometheus.CounterVec
	cacheLookups    *prometheus.CounterVec
}

// NewMetricsService registers the HTTP, ledger and cache collectors on a private registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	ledgerDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "point_ledger_transaction_seconds",
		Help:    "Duration of point ledger transactions",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	ledgerTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "point_ledger_operations_total",
		Help: "Point ledger operations by outcome",
	}, []string{"operation", "outcome"})

	pointsAwarded := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "point_ledger_points_total",
		Help: "Absolute points moved by committed ledger operations, split by sign",
	}, []string{"kind"})

	cacheLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cache_lookups_total",
		Help: "Cache lookups by result",
	}, []string{"result"})

	registry.MustRegister(
		requestDuration, requestTotal, ledgerDuration, ledgerTotal, pointsAwarded, cacheLookups,
		collectors.NewGoCollector(),
	)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		ledgerDuration:  ledgerDuration,
		ledgerTotal:     ledgerTotal,
		pointsAwarded:   pointsAwarded,
		cacheLookups:    cacheLookups,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Registry exposes the underlying registry, mainly for tests.
func (m *MetricsService) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// ObserveLedgerOperation records the outcome and duration of one ledger transaction.
func (m *MetricsService) ObserveLedgerOperation(op, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.ledgerDuration.WithLabelValues(op).Observe(duration.Seconds())
	m.ledgerTotal.WithLabelValues(op, outcome).Inc()
}

// ObservePointsMoved tracks committed merit and demerit volume.
func (m *MetricsService) ObservePointsMoved(delta int) {
	if m == nil || delta == 0 {
		return
	}
	if delta > 0 {
		m.pointsAwarded.WithLabelValues("merit").Add(float64(delta))
		return
	}
	m.pointsAwarded.WithLabelValues("demerit").Add(float64(-delta))
}

// RecordCacheLookup counts a cache hit or miss.
func (m *MetricsService) RecordCacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}
