package events

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/richxcame/busymap/internal/query"
	"github.com/richxcame/busymap/pkg/common"
)

// Fetcher loads local events from upstream.
type Fetcher interface {
	FetchEvents(ctx context.Context, search string, date *time.Time) ([]Event, error)
}

// Service serves event searches through the orchestrator.
type Service struct {
	fetcher      Fetcher
	orch         *query.Orchestrator[[]Event]
	defaultQuery string
}

// NewService wires a fetcher to an orchestrator
func NewService(fetcher Fetcher, orch *query.Orchestrator[[]Event], defaultQuery string) *Service {
	return &Service{
		fetcher:      fetcher,
		orch:         orch,
		defaultQuery: defaultQuery,
	}
}

// Events returns local events for the search text, fetching on miss.
// Empty text falls back to the configured default area query.
func (s *Service) Events(ctx context.Context, search string, date *time.Time) ([]Event, error) {
	search = strings.TrimSpace(search)
	if search == "" {
		search = s.defaultQuery
	}
	if search == "" {
		return nil, common.NewValidationError("query is required")
	}

	events, err := s.orch.Query(ctx, Key(search, date), func(ctx context.Context) ([]Event, error) {
		return s.fetcher.FetchEvents(ctx, search, date)
	})
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = []Event{}
	}
	return events, nil
}

// Key builds the canonical cache key for an event search. Dates
// participate at day precision.
func Key(search string, date *time.Time) string {
	d := "-"
	if date != nil {
		d = date.Format("2006-01-02")
	}
	return fmt.Sprintf("events:%s:%s", strings.ToLower(search), d)
}
