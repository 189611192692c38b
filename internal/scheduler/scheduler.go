package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/weather-forecast/internal/weather"
)

// DefaultRunTimeout bounds a single city's fetch within a run.
const DefaultRunTimeout = 30 * time.Second

var errInvalidInterval = errors.New("scheduler: interval must be positive")

// Fetcher runs one forecast fetch.
type Fetcher interface {
	GetWeather(ctx context.Context, cityText string) (*weather.ForecastResult, error)
}

// ResultHandler receives the outcome of each city's fetch. Exactly one of
// result and err is non-nil.
type ResultHandler func(city string, result *weather.ForecastResult, err error)

// Scheduler periodically refreshes the forecast for configured cities.
type Scheduler struct {
	scheduler *gocron.Scheduler
	fetcher   Fetcher
	cities    []string
	interval  time.Duration
	handle    ResultHandler
	logger    *slog.Logger

	// RunTimeout bounds each city's fetch; zero means DefaultRunTimeout.
	RunTimeout time.Duration
}

// New creates a new Scheduler. A nil handler only logs outcomes.
func New(cities []string, interval time.Duration, fetcher Fetcher, handle ResultHandler, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}

	s := gocron.NewScheduler(time.UTC)
	// A slow run must finish before the next one starts.
	s.SingletonModeAll()

	return &Scheduler{
		scheduler: s,
		fetcher:   fetcher,
		cities:    cities,
		interval:  interval,
		handle:    handle,
		logger:    logger.With("component", "scheduler"),
	}
}

// Start schedules the periodic job and starts the underlying scheduler. The
// first run happens immediately. Fetches started by the job inherit ctx.
func (s *Scheduler) Start(ctx context.Context) error {
	if len(s.cities) == 0 {
		s.logger.Info("no cities configured; nothing to schedule")
		return nil
	}
	if s.interval <= 0 {
		return errInvalidInterval
	}

	_, err := s.scheduler.Every(s.interval).Do(func() {
		s.RunOnce(ctx)
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	s.logger.Info("scheduler started", "cities", len(s.cities), "interval", s.interval)
	return nil
}

// RunOnce fetches every city once, one after another.
func (s *Scheduler) RunOnce(ctx context.Context) {
	s.logger.Info("running weather fetch job")

	timeout := s.RunTimeout
	if timeout <= 0 {
		timeout = DefaultRunTimeout
	}

	failed := 0
	for _, city := range s.cities {
		if ctx.Err() != nil {
			s.logger.Info("weather fetch job canceled")
			return
		}

		fetchCtx, cancel := context.WithTimeout(ctx, timeout)
		result, err := s.fetcher.GetWeather(fetchCtx, city)
		cancel()

		if err != nil {
			failed++
			s.logger.Error("fetch failed", "city", city, "error", err)
		} else {
			s.logger.Info("fetch completed", "city", city, "query", result.Query, "days", len(result.Days))
		}

		if s.handle != nil {
			s.handle(city, result, err)
		}
	}

	s.logger.Info("completed weather fetch job", "cities", len(s.cities), "failed", failed)
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
