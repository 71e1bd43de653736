package geocode

import (
	"context"
	"strings"

	"github.com/richxcame/busymap/pkg/geo"
	"github.com/richxcame/busymap/pkg/logger"
	"go.uber.org/zap"
)

// Service implements suggest and resolve on top of a Provider.
// Geocoding is a convenience surface: every failure degrades silently
// so typing in the search box can never produce an error state.
type Service struct {
	provider Provider
	minChars int
	limit    int
}

// NewService creates a geocode service
func NewService(provider Provider, minChars, limit int) *Service {
	return &Service{
		provider: provider,
		minChars: minChars,
		limit:    limit,
	}
}

// MinChars returns the minimum query length for suggestions.
func (s *Service) MinChars() int {
	return s.minChars
}

// Suggest returns autocomplete candidates for the text. Queries
// shorter than the threshold return nil without a network call.
// Candidates with empty labels are dropped and duplicates removed,
// keeping the provider's order.
func (s *Service) Suggest(ctx context.Context, text string) []Suggestion {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) < s.minChars {
		return nil
	}

	features, err := s.provider.Forward(ctx, trimmed, s.limit, true)
	if err != nil {
		logger.DebugContext(ctx, "suggest degraded to empty",
			zap.String("query", trimmed),
			zap.Error(err),
		)
		return []Suggestion{}
	}

	return dedupeByLabel(features)
}

// Resolve geocodes a committed search into coordinates. The first
// feature carrying a center wins. Failure or no match returns false so
// the caller leaves prior coordinates untouched.
func (s *Service) Resolve(ctx context.Context, text string) (*geo.LatLng, bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, false
	}

	features, err := s.provider.Forward(ctx, trimmed, 1, false)
	if err != nil {
		logger.DebugContext(ctx, "resolve failed, keeping previous coordinates",
			zap.String("query", trimmed),
			zap.Error(err),
		)
		return nil, false
	}

	for _, f := range features {
		if c := f.LatLng(); c != nil {
			return c, true
		}
	}

	return nil, false
}

func dedupeByLabel(features []Feature) []Suggestion {
	seen := make(map[string]struct{}, len(features))
	suggestions := make([]Suggestion, 0, len(features))

	for _, f := range features {
		label := f.Label()
		if label == "" {
			continue
		}
		if _, dup := seen[label]; dup {
			continue
		}
		seen[label] = struct{}{}

		suggestions = append(suggestions, Suggestion{
			Label:       label,
			PlaceName:   f.PlaceName,
			Coordinates: f.LatLng(),
		})
	}

	return suggestions
}
