package weather

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/i474232898/weather-forecast/internal/geocode"
	"github.com/i474232898/weather-forecast/internal/metrics"
)

// Operation labels used for logging and metrics.
const (
	OperationForecast = "forecast"
	OperationCurrent  = "current"
)

// Options tunes how the Service builds a ForecastResult.
type Options struct {
	// FetchCurrent queries the current-weather endpoint alongside the
	// forecast instead of using the first forecast slot as current weather.
	FetchCurrent bool
	// SortDays orders forecast days by date rather than first-seen order.
	SortDays bool
}

// Service is the forecast coordinator: it normalizes location text, calls
// the provider and aggregates the forecast into days.
type Service struct {
	provider Provider
	opts     Options
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// NewService creates a new Service. logger and m may be nil.
func NewService(provider Provider, opts Options, logger *slog.Logger, m *metrics.Metrics) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		provider: provider,
		opts:     opts,
		logger:   logger.With("component", "weather-service"),
		metrics:  m,
	}
}

// GetWeather fetches the current weather and daily forecast for free-form
// location text such as "Moscow, Idaho, United States".
func (s *Service) GetWeather(ctx context.Context, cityText string) (*ForecastResult, error) {
	return s.Run(ctx, NewFetch(cityText))
}

// Run executes f. The result is either fully populated or nil with an
// error; nothing partial is returned. Running f twice yields ErrFetchStarted.
func (s *Service) Run(ctx context.Context, f *Fetch) (*ForecastResult, error) {
	if err := f.begin(); err != nil {
		return nil, err
	}

	query := f.Query.String()
	logger := s.logger.With("fetch_id", f.ID, "query", query)
	s.reportUnresolved(logger, f.Query)

	start := time.Now()
	logger.Debug("fetching forecast", "provider", s.provider.Name(), "fetch_current", s.opts.FetchCurrent)

	result, err := s.fetchForecast(ctx, query)
	if err != nil {
		f.complete(nil, err)
		s.metrics.RecordFetch(OperationForecast, metrics.StatusFailed, time.Since(start))
		logger.Error("forecast fetch failed", "error", err)
		return nil, err
	}

	result.DisplayName = f.DisplayName
	f.complete(result, nil)
	s.metrics.RecordFetch(OperationForecast, metrics.StatusReady, time.Since(start))
	s.metrics.RecordForecastDays(len(result.Days))
	logger.Info("forecast ready",
		"days", len(result.Days),
		"current_approximate", result.CurrentApproximate,
		"duration", time.Since(start),
	)

	return result, nil
}

// GetWeatherDetails fetches only the current weather for location text.
func (s *Service) GetWeatherDetails(ctx context.Context, cityText string) (Record, error) {
	q := geocode.Resolve(cityText)
	logger := s.logger.With("query", q.String())
	s.reportUnresolved(logger, q)

	start := time.Now()
	record, err := s.provider.Current(ctx, q.String())
	if err != nil {
		s.metrics.RecordFetch(OperationCurrent, metrics.StatusFailed, time.Since(start))
		logger.Error("current weather fetch failed", "error", err)
		return Record{}, fmt.Errorf("fetch current weather for %q: %w", q.String(), err)
	}

	s.metrics.RecordFetch(OperationCurrent, metrics.StatusReady, time.Since(start))
	return record, nil
}

func (s *Service) fetchForecast(ctx context.Context, query string) (*ForecastResult, error) {
	var (
		current Record
		records []Record
	)

	if s.opts.FetchCurrent {
		// The two calls share no state; join before building the result.
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			current, err = s.provider.Current(gctx, query)
			if err != nil {
				return fmt.Errorf("fetch current weather for %q: %w", query, err)
			}
			return nil
		})
		g.Go(func() error {
			var err error
			records, err = s.provider.Forecast(gctx, query)
			if err != nil {
				return fmt.Errorf("fetch forecast for %q: %w", query, err)
			}
			return nil
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		var err error
		records, err = s.provider.Forecast(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("fetch forecast for %q: %w", query, err)
		}
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("fetch forecast for %q: %w", query, malformed("empty forecast list"))
	}

	result := &ForecastResult{
		Query:   query,
		Current: current,
		Days:    Aggregate(records),
	}
	if !s.opts.FetchCurrent {
		result.Current = records[0]
		result.CurrentApproximate = true
	}
	if s.opts.SortDays {
		SortDays(result.Days)
	}

	return result, nil
}

func (s *Service) reportUnresolved(logger *slog.Logger, q geocode.Query) {
	for _, u := range q.Unresolved {
		s.metrics.RecordUnresolvedLocation(u.Kind)
		logger.Warn("location segment not resolved; querying without it", "kind", u.Kind, "name", u.Name)
	}
}
