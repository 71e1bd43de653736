package weather

import (
	"context"
	"fmt"

	"github.com/richxcame/busymap/internal/query"
	"github.com/richxcame/busymap/pkg/common"
	"github.com/richxcame/busymap/pkg/geo"
)

// Fetcher loads forecasts from upstream.
type Fetcher interface {
	FetchForecast(ctx context.Context, coords geo.LatLng) (*Forecast, error)
}

// Service serves forecast requests through the orchestrator.
type Service struct {
	fetcher Fetcher
	orch    *query.Orchestrator[*Forecast]
}

// NewService wires a fetcher to an orchestrator
func NewService(fetcher Fetcher, orch *query.Orchestrator[*Forecast]) *Service {
	return &Service{
		fetcher: fetcher,
		orch:    orch,
	}
}

// Forecast returns the hourly forecast for the coordinates, fetching
// on miss.
func (s *Service) Forecast(ctx context.Context, coords geo.LatLng) (*Forecast, error) {
	if !coords.Valid() {
		return nil, common.NewValidationError("invalid coordinates")
	}

	return s.orch.Query(ctx, Key(coords), func(ctx context.Context) (*Forecast, error) {
		return s.fetcher.FetchForecast(ctx, coords)
	})
}

// Key builds the canonical cache key for a forecast location.
func Key(coords geo.LatLng) string {
	return fmt.Sprintf("weather:%.6f:%.6f", coords.Latitude, coords.Longitude)
}
