package providers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/i474232898/weather-forecast/internal/metrics"
	"github.com/i474232898/weather-forecast/internal/weather"
)

const (
	// DefaultOpenWeatherBaseURL is the OpenWeatherMap 2.5 API root.
	DefaultOpenWeatherBaseURL = "https://api.openweathermap.org/data/2.5"
	// DefaultUnits reports temperatures in Fahrenheit and wind in mph.
	DefaultUnits = "imperial"

	openWeatherName = "openweathermap"

	endpointCurrent  = "weather"
	endpointForecast = "forecast"
)

var errNoAPIKey = errors.New("openweather api key is not configured")

// OpenWeatherConfig configures the OpenWeatherMap client.
type OpenWeatherConfig struct {
	APIKey  string
	BaseURL string
	Units   string

	// RateLimit is the sustained requests per second; zero disables limiting.
	RateLimit float64
	Burst     int

	// MaxRetries applies to 429, 5xx and transport failures only.
	MaxRetries int
}

// OpenWeatherProvider implements the weather.Provider interface for OpenWeatherMap.
type OpenWeatherProvider struct {
	name    string
	apiKey  string
	baseURL string
	units   string
	client  *resilientClient
}

func NewOpenWeatherProvider(client *http.Client, cfg OpenWeatherConfig, logger *slog.Logger, m *metrics.Metrics) (*OpenWeatherProvider, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errNoAPIKey
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultOpenWeatherBaseURL
	}
	if cfg.Units == "" {
		cfg.Units = DefaultUnits
	}

	rc, err := newResilientClient(openWeatherName, HTTPClientConfig{
		Client: client,
		Backoff: BackoffConfig{
			MaxRetries:      cfg.MaxRetries,
			InitialInterval: 500 * time.Millisecond,
			MaxInterval:     5 * time.Second,
		},
		RateLimit: cfg.RateLimit,
		Burst:     cfg.Burst,
	}, logger, m)
	if err != nil {
		return nil, err
	}

	return &OpenWeatherProvider{
		name:    openWeatherName,
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		units:   cfg.Units,
		client:  rc,
	}, nil
}

func (p *OpenWeatherProvider) Name() string {
	return p.name
}

// Current fetches the instantaneous observation for query.
func (p *OpenWeatherProvider) Current(ctx context.Context, query string) (weather.Record, error) {
	var payload weather.Fragment
	if err := p.get(ctx, endpointCurrent, query, &payload); err != nil {
		return weather.Record{}, err
	}
	return weather.RecordFromFragment(payload)
}

// Forecast fetches the 3-hourly forecast list for query in provider order.
func (p *OpenWeatherProvider) Forecast(ctx context.Context, query string) ([]weather.Record, error) {
	var payload struct {
		List *[]weather.Fragment `json:"list"`
	}
	if err := p.get(ctx, endpointForecast, query, &payload); err != nil {
		return nil, err
	}
	if payload.List == nil {
		return nil, fmt.Errorf("%w: missing field list", weather.ErrMalformedResponse)
	}
	return weather.ForecastRecords(*payload.List)
}

func (p *OpenWeatherProvider) get(ctx context.Context, endpoint, query string, out any) error {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("q", query)
		values.Set("appid", p.apiKey)
		values.Set("units", p.units)

		u := fmt.Sprintf("%s/%s?%s", p.baseURL, endpoint, values.Encode())
		return http.NewRequest(http.MethodGet, u, http.NoBody)
	}

	resp, err := p.client.doRequestWithResilience(ctx, endpoint, buildRequest)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := decodeBody(resp, out); err != nil {
		p.client.metrics.RecordProviderError(p.name, endpoint, "decode")
		return err
	}
	return nil
}
