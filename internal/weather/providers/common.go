package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/i474232898/weather-forecast/internal/metrics"
	"github.com/i474232898/weather-forecast/internal/weather"
)

// BackoffConfig controls exponential backoff behaviour. MaxRetries of zero
// sends every request exactly once.
type BackoffConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// HTTPClientConfig bundles HTTP client and resilience settings.
type HTTPClientConfig struct {
	Client  *http.Client
	Backoff BackoffConfig

	// RateLimit is the sustained requests per second; zero disables limiting.
	RateLimit float64
	Burst     int
}

var (
	// ErrCircuitOpen is returned without contacting the provider while its
	// circuit breaker is open.
	ErrCircuitOpen = errors.New("circuit breaker open")

	errNoHTTPClient  = errors.New("http client not configured")
	errInvalidConfig = errors.New("invalid backoff configuration")
)

// maxErrorBody bounds how much of a failed response is read for its message.
const maxErrorBody = 64 << 10

// resilientClient sends provider requests through a rate limiter and a
// circuit breaker, retrying only transient failures.
type resilientClient struct {
	provider string
	cfg      HTTPClientConfig
	circuit  *gobreaker.CircuitBreaker
	limiter  *rate.Limiter
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

func newResilientClient(provider string, cfg HTTPClientConfig, logger *slog.Logger, m *metrics.Metrics) (*resilientClient, error) {
	if cfg.Client == nil {
		return nil, errNoHTTPClient
	}
	if cfg.Backoff.MaxRetries < 0 || (cfg.Backoff.MaxRetries > 0 && cfg.Backoff.InitialInterval <= 0) {
		return nil, errInvalidConfig
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("provider", provider)

	c := &resilientClient{
		provider: provider,
		cfg:      cfg,
		metrics:  m,
		logger:   logger,
	}

	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	c.circuit = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:         provider,
		MaxRequests:  5,
		Interval:     1 * time.Minute,
		Timeout:      2 * time.Minute,
		IsSuccessful: breakerSuccess,
		OnStateChange: func(name string, from, to gobreaker.State) {
			m.SetCircuitBreakerState(name, int(to))
			logger.Warn("circuit breaker state changed", "from", from.String(), "to", to.String())
		},
	})

	return c, nil
}

// breakerSuccess keeps client errors such as an unknown city from tripping
// the breaker; only transport failures, 429 and 5xx count against it.
func breakerSuccess(err error) bool {
	return err == nil || !transient(err)
}

// transient reports whether err is worth retrying.
func transient(err error) bool {
	var perr *weather.ProviderError
	if errors.As(err, &perr) {
		return perr.StatusCode == http.StatusTooManyRequests || perr.StatusCode >= 500
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

// doRequestWithResilience executes the request built by buildRequest and
// returns the response for a 200 status. Any other status becomes a
// *weather.ProviderError carrying the provider's message.
func (c *resilientClient) doRequestWithResilience(
	ctx context.Context,
	endpoint string,
	buildRequest func() (*http.Request, error),
) (*http.Response, error) {
	var attempt int

	for {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("rate limit wait canceled: %w", err)
			}
		}

		req, err := buildRequest()
		if err != nil {
			return nil, err
		}

		// Ensure the request obeys context cancellation.
		req = req.WithContext(ctx)
		c.logger.Debug("provider request", "endpoint", endpoint, "url", maskQueryParams(req.URL.String(), "appid", "username"), "attempt", attempt+1)

		result, err := c.circuit.Execute(func() (interface{}, error) {
			start := time.Now()
			resp, execErr := c.cfg.Client.Do(req)
			if execErr != nil {
				c.metrics.RecordProviderError(c.provider, endpoint, "network")
				return nil, execErr
			}
			c.metrics.RecordProviderRequest(c.provider, endpoint, resp.StatusCode, time.Since(start))

			if resp.StatusCode != http.StatusOK {
				defer resp.Body.Close()
				perr := providerErrorFromResponse(resp)
				c.metrics.RecordProviderError(c.provider, endpoint, statusClass(resp.StatusCode))
				return nil, perr
			}

			return resp, nil
		})

		if err == nil {
			resp, ok := result.(*http.Response)
			if !ok {
				return nil, fmt.Errorf("unexpected result type from circuit breaker")
			}
			return resp, nil
		}

		// If circuit is open, propagate immediately.
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			c.metrics.RecordProviderError(c.provider, endpoint, "circuit_open")
			return nil, fmt.Errorf("%w: %v", ErrCircuitOpen, err)
		}

		if !transient(err) || attempt >= c.cfg.Backoff.MaxRetries {
			return nil, err
		}

		delay := c.cfg.Backoff.InitialInterval * time.Duration(math.Pow(2, float64(attempt)))
		if delay > c.cfg.Backoff.MaxInterval && c.cfg.Backoff.MaxInterval > 0 {
			delay = c.cfg.Backoff.MaxInterval
		}
		c.logger.Warn("retrying provider request", "endpoint", endpoint, "attempt", attempt+1, "delay", delay, "error", err)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}

		attempt++
	}
}

// providerErrorFromResponse builds a ProviderError from a non-200 response,
// preferring the "message" field of a JSON error body.
func providerErrorFromResponse(resp *http.Response) *weather.ProviderError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var payload struct {
		Message string `json:"message"`
	}
	message := ""
	if err := json.Unmarshal(body, &payload); err == nil {
		message = payload.Message
	}
	if message == "" {
		message = strings.TrimSpace(string(body))
	}
	if message == "" || len(message) > 200 {
		message = http.StatusText(resp.StatusCode)
	}

	return &weather.ProviderError{StatusCode: resp.StatusCode, Message: message}
}

func statusClass(code int) string {
	switch {
	case code == http.StatusTooManyRequests:
		return "rate_limited"
	case code >= 500:
		return "status_5xx"
	default:
		return "status_4xx"
	}
}

// maskQueryParams hides credential query parameters before a URL is logged.
func maskQueryParams(rawURL string, params ...string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.RawQuery == "" {
		return rawURL
	}
	q := u.Query()
	masked := false
	for _, p := range params {
		if q.Has(p) {
			q.Set(p, "***")
			masked = true
		}
	}
	if !masked {
		return rawURL
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// decodeBody decodes a success body, reporting any decoding failure as a
// malformed response.
func decodeBody(resp *http.Response, out any) error {
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode body: %v", weather.ErrMalformedResponse, err)
	}
	return nil
}
