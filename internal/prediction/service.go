package prediction

import (
	"context"
	"strings"

	"github.com/richxcame/busymap/internal/query"
	"github.com/richxcame/busymap/pkg/common"
)

// Fetcher loads forecasts from upstream.
type Fetcher interface {
	FetchPrediction(ctx context.Context, req Request) (*Prediction, error)
}

// Service serves forecast requests through the orchestrator. Errors
// propagate to the caller: a failed forecast must be reported, not
// blanked.
type Service struct {
	fetcher Fetcher
	orch    *query.Orchestrator[*Prediction]
}

// NewService wires a fetcher to an orchestrator
func NewService(fetcher Fetcher, orch *query.Orchestrator[*Prediction]) *Service {
	return &Service{
		fetcher: fetcher,
		orch:    orch,
	}
}

// Predict returns the forecast for the request, fetching on miss.
func (s *Service) Predict(ctx context.Context, req Request) (*Prediction, error) {
	req.PlaceQuery = strings.TrimSpace(req.PlaceQuery)
	if req.PlaceQuery == "" {
		return nil, common.NewValidationError("place_query is required")
	}
	if !req.Coordinates.Valid() {
		return nil, common.NewValidationError("invalid coordinates")
	}

	return s.orch.Query(ctx, req.Key(), func(ctx context.Context) (*Prediction, error) {
		return s.fetcher.FetchPrediction(ctx, req)
	})
}
