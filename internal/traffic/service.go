package traffic

import (
	"context"

	"github.com/richxcame/busymap/internal/query"
	"github.com/richxcame/busymap/pkg/geo"
	"github.com/richxcame/busymap/pkg/logger"
	"go.uber.org/zap"
)

// Fetcher loads busyness points from upstream.
type Fetcher interface {
	FetchPoints(ctx context.Context, bounds geo.Bounds, filters Filters) ([]Point, error)
}

// Service serves bounds queries through the orchestrator so identical
// concurrent requests share one upstream call and fresh results are
// reused within the staleness window.
type Service struct {
	fetcher Fetcher
	orch    *query.Orchestrator[[]Point]
}

// NewService wires a fetcher to an orchestrator
func NewService(fetcher Fetcher, orch *query.Orchestrator[[]Point]) *Service {
	return &Service{
		fetcher: fetcher,
		orch:    orch,
	}
}

// Points returns the busyness points for the given bounds and filters.
// Traffic is decorative: every failure degrades to an empty point set
// so the map never shows an error for it.
func (s *Service) Points(ctx context.Context, bounds geo.Bounds, filters Filters) []Point {
	key := BoundsKey(bounds, filters)

	points, err := s.orch.Query(ctx, key, func(ctx context.Context) ([]Point, error) {
		return s.fetcher.FetchPoints(ctx, bounds, filters)
	})
	if err != nil {
		logger.WarnContext(ctx, "traffic fetch degraded to empty",
			zap.String("key", key),
			zap.Error(err),
		)
		return []Point{}
	}

	if points == nil {
		points = []Point{}
	}
	return points
}

// Cached reports the cached state for the given bounds without fetching.
func (s *Service) Cached(bounds geo.Bounds, filters Filters) (query.Snapshot[[]Point], bool) {
	return s.orch.Peek(BoundsKey(bounds, filters))
}
