package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/i474232898/weather-forecast/internal/weather/providers"
)

// ErrMissingAPIKey is returned by Validate when no OpenWeatherMap credential
// has been configured. It is fatal before any query is made.
var ErrMissingAPIKey = errors.New("openweather api key is not configured (set WEATHER_OPENWEATHER_APIKEY or OPENWEATHER_API_KEY)")

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "WEATHER"

// Config holds all configuration for the application.
type Config struct {
	OpenWeather OpenWeatherConfig
	GeoNames    GeoNamesConfig
	HTTP        HTTPConfig
	Forecast    ForecastConfig
	Server      ServerConfig
	Watch       WatchConfig
	Log         LogConfig
}

// OpenWeatherConfig holds the forecast provider settings.
type OpenWeatherConfig struct {
	APIKey     string
	BaseURL    string  `validate:"required,url"`
	Units      string  `validate:"oneof=standard metric imperial"`
	RateLimit  float64 `validate:"gte=0"`
	Burst      int     `validate:"gte=0"`
	MaxRetries int     `mapstructure:"max_retries" validate:"gte=0,lte=10"`
}

// GeoNamesConfig holds the city suggestion settings. Suggestions are
// disabled when Username is empty.
type GeoNamesConfig struct {
	Username  string
	BaseURL   string  `validate:"required,url"`
	MaxRows   int     `mapstructure:"max_rows" validate:"gte=1,lte=1000"`
	RateLimit float64 `validate:"gte=0"`
	Burst     int     `validate:"gte=0"`
}

// HTTPConfig holds outbound HTTP client settings.
type HTTPConfig struct {
	Timeout time.Duration `validate:"gt=0"`
}

// ForecastConfig tunes how forecasts are assembled.
type ForecastConfig struct {
	// FetchCurrent queries the current-weather endpoint alongside the
	// forecast instead of reusing the first forecast slot.
	FetchCurrent bool `mapstructure:"fetch_current"`
	// SortDays orders days chronologically instead of first-seen order.
	SortDays bool `mapstructure:"sort_days"`
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Port int `validate:"gte=1,lte=65535"`
}

// WatchConfig controls periodic refreshes.
type WatchConfig struct {
	Interval time.Duration `validate:"gt=0"`
	// Cities may contain commas, so they are read separately from the
	// generic decoder. From the environment they are separated by ";".
	Cities []string `mapstructure:"-"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, text
}

// New returns a viper instance carrying every default, ready for flag
// bindings before Load is called.
func New() *viper.Viper {
	v := viper.New()

	v.SetDefault("openweather.apikey", "")
	v.SetDefault("openweather.baseurl", providers.DefaultOpenWeatherBaseURL)
	v.SetDefault("openweather.units", providers.DefaultUnits)
	v.SetDefault("openweather.ratelimit", 1.0)
	v.SetDefault("openweather.burst", 5)
	v.SetDefault("openweather.max_retries", 0)
	v.SetDefault("geonames.username", "")
	v.SetDefault("geonames.baseurl", providers.DefaultGeoNamesBaseURL)
	v.SetDefault("geonames.max_rows", providers.DefaultSuggestionRows)
	v.SetDefault("geonames.ratelimit", 1.0)
	v.SetDefault("geonames.burst", 2)
	v.SetDefault("http.timeout", 10*time.Second)
	v.SetDefault("forecast.fetch_current", false)
	v.SetDefault("forecast.sort_days", false)
	v.SetDefault("server.port", 8080)
	v.SetDefault("watch.interval", 15*time.Minute)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Names used by earlier deployments.
	_ = v.BindEnv("openweather.apikey", EnvPrefix+"_OPENWEATHER_APIKEY", "OPENWEATHER_API_KEY")
	_ = v.BindEnv("geonames.username", EnvPrefix+"_GEONAMES_USERNAME", "GEONAMES_USERNAME")

	return v
}

// Load reads an optional .env file, then configuration from path (or a
// config.yaml found in the usual places when path is empty) and the
// environment.
func Load(v *viper.Viper, path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("$HOME/.weather-forecast")
	}

	if err := v.ReadInConfig(); err != nil {
		// A missing file is fine unless one was asked for explicitly.
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cities, err := citiesFrom(v.Get("watch.cities"))
	if err != nil {
		return nil, err
	}
	cfg.Watch.Cities = cities

	return &cfg, nil
}

func citiesFrom(raw any) ([]string, error) {
	var items []string
	switch val := raw.(type) {
	case nil:
		return nil, nil
	case string:
		items = strings.Split(val, ";")
	case []string:
		items = val
	case []any:
		for _, item := range val {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("watch.cities: expected strings, got %T", item)
			}
			items = append(items, s)
		}
	default:
		return nil, fmt.Errorf("watch.cities: unsupported type %T", raw)
	}

	cities := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			cities = append(cities, item)
		}
	}
	return cities, nil
}

// Validate reports configuration that cannot serve any query.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.OpenWeather.APIKey) == "" {
		return ErrMissingAPIKey
	}
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// ServerAddr returns the server address in the format ":port".
func (c *Config) ServerAddr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

// NewLogger creates a new slog.Logger based on the configuration. Logs go to
// stderr so command output on stdout stays clean.
func (c *Config) NewLogger() *slog.Logger {
	var level slog.Level
	switch strings.ToLower(c.Log.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	switch strings.ToLower(c.Log.Format) {
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, opts)
	default: // "text" or anything else
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	return slog.New(handler)
}
