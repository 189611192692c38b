package providers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/i474232898/weather-forecast/internal/geocode"
	"github.com/i474232898/weather-forecast/internal/metrics"
)

const (
	// DefaultGeoNamesBaseURL is the public GeoNames web service root.
	DefaultGeoNamesBaseURL = "http://api.geonames.org"
	// DefaultSuggestionRows caps the number of suggestions per search.
	DefaultSuggestionRows = 10

	geoNamesName   = "geonames"
	endpointSearch = "searchJSON"
)

var errNoUsername = errors.New("geonames username is not configured")

// GeoNamesError is the status object GeoNames returns, with HTTP 200, when a
// search is rejected (bad credentials, exhausted quota).
type GeoNamesError struct {
	Code    int
	Message string
}

func (e *GeoNamesError) Error() string {
	return fmt.Sprintf("geonames error %d: %s", e.Code, e.Message)
}

// GeoNamesConfig configures the GeoNames search client.
type GeoNamesConfig struct {
	Username string
	BaseURL  string
	MaxRows  int

	RateLimit float64
	Burst     int
}

// GeoNamesProvider turns partial city text into display names the geocode
// normalizer understands.
type GeoNamesProvider struct {
	username string
	baseURL  string
	maxRows  int
	client   *resilientClient
}

func NewGeoNamesProvider(client *http.Client, cfg GeoNamesConfig, logger *slog.Logger, m *metrics.Metrics) (*GeoNamesProvider, error) {
	if strings.TrimSpace(cfg.Username) == "" {
		return nil, errNoUsername
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultGeoNamesBaseURL
	}
	if cfg.MaxRows <= 0 {
		cfg.MaxRows = DefaultSuggestionRows
	}

	rc, err := newResilientClient(geoNamesName, HTTPClientConfig{
		Client:    client,
		RateLimit: cfg.RateLimit,
		Burst:     cfg.Burst,
	}, logger, m)
	if err != nil {
		return nil, err
	}

	return &GeoNamesProvider{
		username: cfg.Username,
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		maxRows:  cfg.MaxRows,
		client:   rc,
	}, nil
}

// Suggest returns up to MaxRows places matching text. Blank text yields no
// suggestions without a request.
func (p *GeoNamesProvider) Suggest(ctx context.Context, text string) ([]geocode.Suggestion, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("q", text)
		values.Set("maxRows", strconv.Itoa(p.maxRows))
		values.Set("username", p.username)

		u := fmt.Sprintf("%s/%s?%s", p.baseURL, endpointSearch, values.Encode())
		return http.NewRequest(http.MethodGet, u, http.NoBody)
	}

	resp, err := p.client.doRequestWithResilience(ctx, endpointSearch, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload struct {
		Geonames []struct {
			Name        string `json:"name"`
			AdminName1  string `json:"adminName1"`
			CountryName string `json:"countryName"`
		} `json:"geonames"`
		Status *struct {
			Message string `json:"message"`
			Value   int    `json:"value"`
		} `json:"status"`
	}
	if err := decodeBody(resp, &payload); err != nil {
		p.client.metrics.RecordProviderError(geoNamesName, endpointSearch, "decode")
		return nil, err
	}
	if payload.Status != nil {
		p.client.metrics.RecordProviderError(geoNamesName, endpointSearch, "status")
		return nil, &GeoNamesError{Code: payload.Status.Value, Message: payload.Status.Message}
	}

	suggestions := make([]geocode.Suggestion, 0, len(payload.Geonames))
	for _, g := range payload.Geonames {
		// Oceans and other features without a country cannot be queried.
		if g.Name == "" || g.CountryName == "" {
			continue
		}
		suggestions = append(suggestions, geocode.Suggestion{
			Name:    g.Name,
			Region:  g.AdminName1,
			Country: g.CountryName,
		})
	}
	return suggestions, nil
}
