package geocode

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/richxcame/busymap/pkg/geo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	calls    int64
	features []Feature
	err      error

	lastQuery        string
	lastLimit        int
	lastAutocomplete bool
}

func (f *fakeProvider) Forward(ctx context.Context, query string, limit int, autocomplete bool) ([]Feature, error) {
	atomic.AddInt64(&f.calls, 1)
	f.lastQuery = query
	f.lastLimit = limit
	f.lastAutocomplete = autocomplete
	return f.features, f.err
}

func TestSuggestBelowThresholdMakesNoCall(t *testing.T) {
	provider := &fakeProvider{}
	svc := NewService(provider, 3, 5)

	assert.Nil(t, svc.Suggest(context.Background(), "Ma"))
	assert.Nil(t, svc.Suggest(context.Background(), ""))
	assert.Nil(t, svc.Suggest(context.Background(), "  ab  "))
	assert.Equal(t, int64(0), atomic.LoadInt64(&provider.calls))
}

func TestSuggestAtThresholdMakesOneCall(t *testing.T) {
	provider := &fakeProvider{
		features: []Feature{
			{Text: "Main St", Address: "12", Center: []float64{-122.42, 37.76}},
		},
	}
	svc := NewService(provider, 3, 5)

	suggestions := svc.Suggest(context.Background(), "Mai")

	require.Len(t, suggestions, 1)
	assert.Equal(t, "12 Main St", suggestions[0].Label)
	assert.Equal(t, int64(1), atomic.LoadInt64(&provider.calls))
	assert.Equal(t, 5, provider.lastLimit)
	assert.True(t, provider.lastAutocomplete)
}

func TestSuggestDedupesByLabelPreservingOrder(t *testing.T) {
	provider := &fakeProvider{
		features: []Feature{
			{Text: "Market St", Address: "100", Center: []float64{-122.40, 37.79}},
			{Text: "Mission St", Address: "200", Center: []float64{-122.41, 37.78}},
			{Text: "Market St", Address: "100", Center: []float64{-122.40, 37.79}}, // duplicate
			{Text: "", Address: ""},                                               // empty label, dropped
			{Text: "Valencia St", Address: "", Center: []float64{-122.42, 37.75}},
		},
	}
	svc := NewService(provider, 3, 5)

	suggestions := svc.Suggest(context.Background(), "Market")

	require.Len(t, suggestions, 3)
	assert.Equal(t, "100 Market St", suggestions[0].Label)
	assert.Equal(t, "200 Mission St", suggestions[1].Label)
	assert.Equal(t, "Valencia St", suggestions[2].Label)
}

func TestSuggestFailureDegradesToEmpty(t *testing.T) {
	provider := &fakeProvider{err: errors.New("provider down")}
	svc := NewService(provider, 3, 5)

	suggestions := svc.Suggest(context.Background(), "Market")

	require.NotNil(t, suggestions)
	assert.Empty(t, suggestions)
}

func TestResolveFirstFeatureWithCenterWins(t *testing.T) {
	provider := &fakeProvider{
		features: []Feature{
			{Text: "No Center"},
			{Text: "Market St", Address: "1", Center: []float64{-122.40, 37.79}},
		},
	}
	svc := NewService(provider, 3, 5)

	coords, ok := svc.Resolve(context.Background(), "1 Market St")

	require.True(t, ok)
	assert.Equal(t, &geo.LatLng{Latitude: 37.79, Longitude: -122.40}, coords)
	assert.Equal(t, 1, provider.lastLimit)
	assert.False(t, provider.lastAutocomplete)
}

func TestResolveFailureReportsNoMatch(t *testing.T) {
	provider := &fakeProvider{err: errors.New("provider down")}
	svc := NewService(provider, 3, 5)

	coords, ok := svc.Resolve(context.Background(), "somewhere")
	assert.False(t, ok)
	assert.Nil(t, coords)
}

func TestResolveEmptyTextMakesNoCall(t *testing.T) {
	provider := &fakeProvider{}
	svc := NewService(provider, 3, 5)

	_, ok := svc.Resolve(context.Background(), "   ")
	assert.False(t, ok)
	assert.Equal(t, int64(0), atomic.LoadInt64(&provider.calls))
}
