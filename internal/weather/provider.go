package weather

import (
	"context"
)

// Provider abstracts the weather data source. Implementations return
// *ProviderError for non-success statuses and wrap ErrMalformedResponse for
// bodies that fail validation.
type Provider interface {
	Name() string
	// Current fetches an instant observation for a normalized query.
	Current(ctx context.Context, query string) (Record, error)
	// Forecast fetches the whole forecast window in provider order with a
	// single request.
	Forecast(ctx context.Context, query string) ([]Record, error)
}
