package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RegistersCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)
	assert.Same(t, reg, m.Registry())

	m.RecordProviderRequest("openweathermap", "forecast", 200, 120*time.Millisecond)
	m.RecordProviderRequest("openweathermap", "forecast", 404, 80*time.Millisecond)
	m.RecordProviderError("openweathermap", "forecast", "status_4xx")
	m.SetCircuitBreakerState("openweathermap", 2)
	m.RecordFetch("forecast", StatusReady, time.Second)
	m.RecordForecastDays(5)
	m.RecordUnresolvedLocation("country")

	assert.InDelta(t, 1, testutil.ToFloat64(m.providerRequestsTotal.WithLabelValues("openweathermap", "forecast", "404")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.providerErrorsTotal.WithLabelValues("openweathermap", "forecast", "status_4xx")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.circuitBreakerState.WithLabelValues("openweathermap")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.fetchesTotal.WithLabelValues("forecast", StatusReady)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.unresolvedLocationTotal.WithLabelValues("country")), 0)
	assert.Equal(t, 1, testutil.CollectAndCount(m.forecastDays))
}

func TestNew_DuplicateRegistrationFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg)
	require.NoError(t, err)

	_, err = New(reg)
	require.Error(t, err)
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.RecordProviderRequest("p", "e", 200, time.Millisecond)
		m.RecordProviderError("p", "e", "network")
		m.SetCircuitBreakerState("p", 0)
		m.RecordFetch("forecast", StatusFailed, time.Millisecond)
		m.RecordForecastDays(1)
		m.RecordUnresolvedLocation("region")
	})
	assert.Nil(t, m.Registry())
}
