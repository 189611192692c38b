// Package metrics provides Prometheus instrumentation for provider calls and
// forecast fetches.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Fetch outcome labels.
const (
	StatusReady  = "ready"
	StatusFailed = "failed"
)

// Metrics holds the collectors. A nil *Metrics is valid and records nothing,
// so components can be built without instrumentation in tests.
type Metrics struct {
	registry *prometheus.Registry

	providerRequestsTotal *prometheus.CounterVec
	providerErrorsTotal   *prometheus.CounterVec
	providerDuration      *prometheus.HistogramVec
	circuitBreakerState   *prometheus.GaugeVec

	fetchesTotal            *prometheus.CounterVec
	fetchDuration           *prometheus.HistogramVec
	forecastDays            prometheus.Histogram
	unresolvedLocationTotal *prometheus.CounterVec
}

// New creates the collectors and registers them on registry.
func New(registry *prometheus.Registry) (*Metrics, error) {
	m := &Metrics{
		registry: registry,
		providerRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "weather_provider_requests_total",
				Help: "Total number of requests sent to weather providers",
			},
			[]string{"provider", "endpoint", "status_code"},
		),
		providerErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "weather_provider_errors_total",
				Help: "Total number of failed provider requests",
			},
			[]string{"provider", "endpoint", "error_type"},
		),
		providerDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "weather_provider_request_duration_seconds",
				Help: "Time taken by provider requests",
				// 50ms to ~25s
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
			},
			[]string{"provider", "endpoint"},
		),
		circuitBreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "weather_provider_circuit_breaker_state",
				Help: "Circuit breaker state per provider (0 closed, 1 half-open, 2 open)",
			},
			[]string{"breaker"},
		),
		fetchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "weather_fetches_total",
				Help: "Total number of weather fetches by operation and outcome",
			},
			[]string{"operation", "status"},
		),
		fetchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "weather_fetch_duration_seconds",
				Help:    "End to end time of weather fetches",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
			},
			[]string{"operation"},
		),
		forecastDays: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "weather_forecast_days",
				Help:    "Number of daily buckets produced per forecast",
				Buckets: prometheus.LinearBuckets(1, 1, 7),
			},
		),
		unresolvedLocationTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "weather_unresolved_location_segments_total",
				Help: "Location segments that could not be mapped to an ISO code",
			},
			[]string{"kind"},
		),
	}

	collectors := []prometheus.Collector{
		m.providerRequestsTotal,
		m.providerErrorsTotal,
		m.providerDuration,
		m.circuitBreakerState,
		m.fetchesTotal,
		m.fetchDuration,
		m.forecastDays,
		m.unresolvedLocationTotal,
	}
	for _, c := range collectors {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RecordProviderRequest records a completed HTTP exchange with a provider.
func (m *Metrics) RecordProviderRequest(provider, endpoint string, statusCode int, d time.Duration) {
	if m == nil {
		return
	}
	m.providerRequestsTotal.WithLabelValues(provider, endpoint, strconv.Itoa(statusCode)).Inc()
	m.providerDuration.WithLabelValues(provider, endpoint).Observe(d.Seconds())
}

// RecordProviderError records a failed provider request by error class.
func (m *Metrics) RecordProviderError(provider, endpoint, errorType string) {
	if m == nil {
		return
	}
	m.providerErrorsTotal.WithLabelValues(provider, endpoint, errorType).Inc()
}

// SetCircuitBreakerState records a breaker transition. state follows the
// gobreaker ordering: 0 closed, 1 half-open, 2 open.
func (m *Metrics) SetCircuitBreakerState(breaker string, state int) {
	if m == nil {
		return
	}
	m.circuitBreakerState.WithLabelValues(breaker).Set(float64(state))
}

// RecordFetch records the outcome of a coordinator operation.
func (m *Metrics) RecordFetch(operation, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.fetchesTotal.WithLabelValues(operation, status).Inc()
	m.fetchDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// RecordForecastDays records how many daily buckets a forecast produced.
func (m *Metrics) RecordForecastDays(n int) {
	if m == nil {
		return
	}
	m.forecastDays.Observe(float64(n))
}

// RecordUnresolvedLocation counts a region or country that had no code.
func (m *Metrics) RecordUnresolvedLocation(kind string) {
	if m == nil {
		return
	}
	m.unresolvedLocationTotal.WithLabelValues(kind).Inc()
}
