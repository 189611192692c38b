package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/i474232898/weather-forecast/internal/config"
	"github.com/i474232898/weather-forecast/internal/metrics"
	"github.com/i474232898/weather-forecast/internal/weather"
	"github.com/i474232898/weather-forecast/internal/weather/providers"
)

// app carries what every subcommand shares once configuration is loaded.
type app struct {
	v          *viper.Viper
	configPath string
	jsonOutput bool

	cfg        *config.Config
	logger     *slog.Logger
	registry   *prometheus.Registry
	metrics    *metrics.Metrics
	httpClient *http.Client
}

// flagKeys maps persistent flags to the configuration keys they override.
var flagKeys = map[string]string{
	"log-level":     "log.level",
	"units":         "openweather.units",
	"sort-days":     "forecast.sort_days",
	"fetch-current": "forecast.fetch_current",
}

func newRootCommand() *cobra.Command {
	a := &app{v: config.New()}

	rootCmd := &cobra.Command{
		Use:           "weather-forecast",
		Short:         "Fetch current weather and daily forecast summaries from OpenWeatherMap",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "config file (default: config.yaml in . or ./config)")
	flags.BoolVar(&a.jsonOutput, "json", false, "print JSON instead of text")
	flags.String("log-level", "", "log level: debug, info, warn, error")
	flags.String("units", "", "unit system: standard, metric, imperial")
	flags.Bool("sort-days", false, "order forecast days chronologically")
	flags.Bool("fetch-current", false, "query current weather alongside the forecast")

	if err := bindFlags(a.v, flags, flagKeys); err != nil {
		panic(err)
	}

	rootCmd.AddCommand(
		forecastCommand(a),
		currentCommand(a),
		normalizeCommand(a),
		suggestCommand(a),
		serveCommand(a),
		watchCommand(a),
	)

	return rootCmd
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet, keys map[string]string) error {
	for name, key := range keys {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			return fmt.Errorf("error binding flag %q: %w", name, err)
		}
	}
	return nil
}

// init loads configuration and builds the shared logger, metrics and HTTP
// client. The API credential is checked later, by commands that need it.
func (a *app) init() error {
	cfg, err := config.Load(a.v, a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	a.logger = cfg.NewLogger()
	slog.SetDefault(a.logger)

	a.registry = prometheus.NewRegistry()
	a.metrics, err = metrics.New(a.registry)
	if err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}

	// Shared HTTP client for outbound provider calls.
	a.httpClient = &http.Client{
		Timeout: cfg.HTTP.Timeout,
	}

	return nil
}

// service builds the forecast coordinator, failing on a missing credential
// before any query is made.
func (a *app) service() (*weather.Service, error) {
	if err := a.cfg.Validate(); err != nil {
		return nil, err
	}

	ow := a.cfg.OpenWeather
	provider, err := providers.NewOpenWeatherProvider(a.httpClient, providers.OpenWeatherConfig{
		APIKey:     ow.APIKey,
		BaseURL:    ow.BaseURL,
		Units:      ow.Units,
		RateLimit:  ow.RateLimit,
		Burst:      ow.Burst,
		MaxRetries: ow.MaxRetries,
	}, a.logger, a.metrics)
	if err != nil {
		return nil, err
	}

	return weather.NewService(provider, weather.Options{
		FetchCurrent: a.cfg.Forecast.FetchCurrent,
		SortDays:     a.cfg.Forecast.SortDays,
	}, a.logger, a.metrics), nil
}

// suggester builds the GeoNames client. It fails when no username is set.
func (a *app) suggester() (*providers.GeoNamesProvider, error) {
	gn := a.cfg.GeoNames
	return providers.NewGeoNamesProvider(a.httpClient, providers.GeoNamesConfig{
		Username:  gn.Username,
		BaseURL:   gn.BaseURL,
		MaxRows:   gn.MaxRows,
		RateLimit: gn.RateLimit,
		Burst:     gn.Burst,
	}, a.logger, a.metrics)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
