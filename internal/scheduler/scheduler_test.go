package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-forecast/internal/weather"
)

type fakeFetcher struct {
	mu     sync.Mutex
	cities []string
	fail   map[string]error
}

func (f *fakeFetcher) GetWeather(ctx context.Context, cityText string) (*weather.ForecastResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.cities = append(f.cities, cityText)
	if _, ok := ctx.Deadline(); !ok {
		return nil, errors.New("fetch without deadline")
	}
	if err := f.fail[cityText]; err != nil {
		return nil, err
	}
	return &weather.ForecastResult{Query: cityText}, nil
}

func (f *fakeFetcher) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.cities...)
}

func TestRunOnceIsSequentialAndReportsEachCity(t *testing.T) {
	notFound := &weather.ProviderError{StatusCode: 404, Message: "city not found"}
	fetcher := &fakeFetcher{fail: map[string]error{"Atlantis": notFound}}

	type outcome struct {
		city string
		ok   bool
	}
	var outcomes []outcome
	s := New([]string{"Paris", "Atlantis", "Moscow, Idaho, United States"}, time.Minute, fetcher,
		func(city string, result *weather.ForecastResult, err error) {
			outcomes = append(outcomes, outcome{city: city, ok: err == nil && result != nil})
		}, nil)

	s.RunOnce(context.Background())

	assert.Equal(t, []string{"Paris", "Atlantis", "Moscow, Idaho, United States"}, fetcher.calls())
	assert.Equal(t, []outcome{
		{city: "Paris", ok: true},
		{city: "Atlantis", ok: false},
		{city: "Moscow, Idaho, United States", ok: true},
	}, outcomes)
}

func TestRunOnceStopsWhenCanceled(t *testing.T) {
	fetcher := &fakeFetcher{}
	s := New([]string{"Paris", "Rome"}, time.Minute, fetcher, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.RunOnce(ctx)

	assert.Empty(t, fetcher.calls())
}

func TestStartRunsPeriodically(t *testing.T) {
	fetcher := &fakeFetcher{}
	s := New([]string{"Paris"}, 20*time.Millisecond, fetcher, nil, nil)

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	require.Eventually(t, func() bool {
		return len(fetcher.calls()) >= 2
	}, 2*time.Second, 10*time.Millisecond)
}

func TestStartWithoutCities(t *testing.T) {
	fetcher := &fakeFetcher{}
	s := New(nil, time.Minute, fetcher, nil, nil)

	require.NoError(t, s.Start(context.Background()))
	s.Stop()
	assert.Empty(t, fetcher.calls())
}

func TestStartRejectsInvalidInterval(t *testing.T) {
	s := New([]string{"Paris"}, 0, &fakeFetcher{}, nil, nil)
	assert.ErrorIs(t, s.Start(context.Background()), errInvalidInterval)
}
