package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/i474232898/weather-forecast/internal/geocode"
	"github.com/i474232898/weather-forecast/internal/weather"
	"github.com/i474232898/weather-forecast/internal/weather/providers"
)

// ServiceName is reported by the health endpoint.
const ServiceName = "weather-forecast"

var validate = validator.New()

// WeatherService is the forecast coordinator as seen by the handlers.
type WeatherService interface {
	GetWeather(ctx context.Context, cityText string) (*weather.ForecastResult, error)
	GetWeatherDetails(ctx context.Context, cityText string) (weather.Record, error)
}

// Suggester completes partial city names.
type Suggester interface {
	Suggest(ctx context.Context, text string) ([]geocode.Suggestion, error)
}

// RegisterRoutes wires the HTTP handlers into the Fiber app. A nil suggester
// leaves the suggestion endpoint answering 501.
func RegisterRoutes(app *fiber.App, service WeatherService, suggester Suggester) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": ServiceName,
		})
	})

	v1 := app.Group("/api/v1")

	v1.Get("/weather/forecast", func(c *fiber.Ctx) error {
		q, err := parseCityQuery(c)
		if err != nil {
			return err
		}

		result, err := service.GetWeather(c.UserContext(), q.City)
		if err != nil {
			return err
		}

		return c.JSON(result)
	})

	v1.Get("/weather/current", func(c *fiber.Ctx) error {
		q, err := parseCityQuery(c)
		if err != nil {
			return err
		}

		rec, err := service.GetWeatherDetails(c.UserContext(), q.City)
		if err != nil {
			return err
		}

		return c.JSON(currentResponse{
			Query:   geocode.Normalize(q.City),
			Current: rec,
		})
	})

	v1.Get("/geocode/normalize", func(c *fiber.Ctx) error {
		q, err := parseCityQuery(c)
		if err != nil {
			return err
		}

		return c.JSON(newNormalizeResponse(geocode.Resolve(q.City)))
	})

	v1.Get("/cities/suggest", func(c *fiber.Ctx) error {
		if suggester == nil {
			return fiber.NewError(fiber.StatusNotImplemented, "city suggestions are not configured")
		}

		var q suggestQuery
		q.Text = c.Query("q")
		if err := validate.Struct(q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		suggestions, err := suggester.Suggest(c.UserContext(), q.Text)
		if err != nil {
			return err
		}

		out := make([]suggestionResponse, 0, len(suggestions))
		for _, s := range suggestions {
			out = append(out, suggestionResponse{Suggestion: s, DisplayName: s.DisplayName()})
		}
		return c.JSON(fiber.Map{"suggestions": out})
	})
}

// RegisterMetrics exposes the registry in Prometheus text format at /metrics.
func RegisterMetrics(app *fiber.App, registry *prometheus.Registry) {
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
}

// ErrorHandler renders every handler error as {"error": true, "message": ...}
// with a status derived from the error chain.
func ErrorHandler(c *fiber.Ctx, err error) error {
	return c.Status(statusFor(err)).JSON(fiber.Map{
		"error":   true,
		"message": err.Error(),
	})
}

func statusFor(err error) int {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}

	var perr *weather.ProviderError
	if errors.As(err, &perr) {
		if perr.StatusCode == http.StatusNotFound {
			return fiber.StatusNotFound
		}
		return fiber.StatusBadGateway
	}

	var gerr *providers.GeoNamesError
	switch {
	case errors.Is(err, providers.ErrCircuitOpen):
		return fiber.StatusServiceUnavailable
	case errors.Is(err, weather.ErrMalformedResponse), errors.As(err, &gerr):
		return fiber.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return fiber.StatusGatewayTimeout
	default:
		return fiber.StatusInternalServerError
	}
}

// cityQuery holds the city text shared by the weather and geocode endpoints.
type cityQuery struct {
	City string `validate:"required,max=200"`
}

func parseCityQuery(c *fiber.Ctx) (cityQuery, error) {
	var q cityQuery

	q.City = c.Query("city")

	if err := validate.Struct(q); err != nil {
		return q, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	return q, nil
}

type suggestQuery struct {
	Text string `validate:"required,max=200"`
}

type currentResponse struct {
	Query   string         `json:"query"`
	Current weather.Record `json:"current"`
}

type unresolvedResponse struct {
	Kind string `json:"kind"`
	Name string `json:"name"`
}

type normalizeResponse struct {
	Query      string               `json:"query"`
	City       string               `json:"city"`
	Region     string               `json:"region,omitempty"`
	Country    string               `json:"country,omitempty"`
	Unresolved []unresolvedResponse `json:"unresolved"`
}

func newNormalizeResponse(q geocode.Query) normalizeResponse {
	out := normalizeResponse{
		Query:      q.String(),
		City:       q.City,
		Region:     q.Region,
		Country:    q.Country,
		Unresolved: make([]unresolvedResponse, 0, len(q.Unresolved)),
	}
	for _, u := range q.Unresolved {
		out.Unresolved = append(out.Unresolved, unresolvedResponse{Kind: u.Kind, Name: u.Name})
	}
	return out
}

type suggestionResponse struct {
	geocode.Suggestion
	DisplayName string `json:"displayName"`
}
