package session

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/richxcame/busymap/internal/geocode"
	"github.com/richxcame/busymap/internal/prediction"
	"github.com/richxcame/busymap/internal/query"
	"github.com/richxcame/busymap/internal/traffic"
	"github.com/richxcame/busymap/pkg/common"
	"github.com/richxcame/busymap/pkg/config"
	"github.com/richxcame/busymap/pkg/geo"
	ws "github.com/richxcame/busymap/pkg/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTrafficFetcher struct {
	mu      sync.Mutex
	calls   int
	filters []traffic.Filters
	points  []traffic.Point
}

func (f *fakeTrafficFetcher) FetchPoints(ctx context.Context, bounds geo.Bounds, filters traffic.Filters) ([]traffic.Point, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.filters = append(f.filters, filters)
	return f.points, nil
}

func (f *fakeTrafficFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeGeoProvider struct {
	mu               sync.Mutex
	calls            int
	features         []geocode.Feature
	lastAutocomplete bool
}

func (f *fakeGeoProvider) Forward(ctx context.Context, text string, limit int, autocomplete bool) ([]geocode.Feature, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastAutocomplete = autocomplete
	return f.features, nil
}

func (f *fakeGeoProvider) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakePredictor struct {
	mu    sync.Mutex
	calls int
	pred  *prediction.Prediction
	err   error
}

func (f *fakePredictor) FetchPrediction(ctx context.Context, req prediction.Request) (*prediction.Prediction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.pred, f.err
}

func (f *fakePredictor) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type engineFixture struct {
	client    *ws.Client
	traffic   *fakeTrafficFetcher
	geocoder  *fakeGeoProvider
	predictor *fakePredictor
	cancel    context.CancelFunc
}

func newEngineFixture(t *testing.T, opts ...func(*config.EngineConfig)) *engineFixture {
	t.Helper()

	cfg := &config.EngineConfig{
		MinZoomForData:  12,
		BoundsDebounce:  10 * time.Millisecond,
		SuggestDebounce: 10 * time.Millisecond,
		SuggestMinChars: 3,
		SuggestLimit:    5,
		QueryStaleTime:  time.Minute,
		FetchTimeout:    time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	trafficFetcher := &fakeTrafficFetcher{
		points: []traffic.Point{
			{Name: "Ferry Building", AvgBusyness: 72, Level: traffic.LevelBusy},
		},
	}
	geoProvider := &fakeGeoProvider{
		features: []geocode.Feature{
			{Text: "Market St", Address: "100", Center: []float64{-122.40, 37.79}},
			{Text: "Mission St", Address: "200", Center: []float64{-122.41, 37.78}},
		},
	}
	predictor := &fakePredictor{pred: &prediction.Prediction{Score: 72, Label: "High"}}

	trafficSvc := traffic.NewService(trafficFetcher, query.New[[]traffic.Point](cfg.QueryStaleTime, cfg.FetchTimeout))
	geocodeSvc := geocode.NewService(geoProvider, cfg.SuggestMinChars, cfg.SuggestLimit)
	predictionSvc := prediction.NewService(predictor, query.New[*prediction.Prediction](cfg.QueryStaleTime, cfg.FetchTimeout))

	client := ws.NewClient("test-session", nil)
	engine := NewEngine("test-session", client, cfg, trafficSvc, geocodeSvc, predictionSvc)

	ctx, cancel := context.WithCancel(context.Background())
	go engine.Run(ctx)
	t.Cleanup(cancel)

	return &engineFixture{
		client:    client,
		traffic:   trafficFetcher,
		geocoder:  geoProvider,
		predictor: predictor,
		cancel:    cancel,
	}
}

func (f *engineFixture) send(t *testing.T, eventType string, payload interface{}) {
	t.Helper()
	msg, err := ws.NewMessage(eventType, payload)
	require.NoError(t, err)
	f.client.Inbound <- msg
}

// await drains outbound messages until one of the wanted type arrives.
func (f *engineFixture) await(t *testing.T, msgType string) *ws.Message {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case msg := <-f.client.Send:
			if msg.Type == msgType {
				return msg
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %q message", msgType)
			return nil
		}
	}
}

func (f *engineFixture) awaitNone(t *testing.T, msgType string, within time.Duration) {
	t.Helper()
	deadline := time.After(within)
	for {
		select {
		case msg := <-f.client.Send:
			if msg.Type == msgType {
				t.Fatalf("unexpected %q message", msgType)
			}
		case <-deadline:
			return
		}
	}
}

func decodePayload(t *testing.T, msg *ws.Message, dest interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(msg.Data, dest))
}

func settledViewport(zoom float64) viewportSettledEvent {
	return viewportSettledEvent{
		SWLat: 37.70, SWLng: -122.52,
		NELat: 37.83, NELng: -122.35,
		Zoom: zoom,
	}
}

func TestViewportBelowZoomThresholdHintsWithoutFetching(t *testing.T) {
	f := newEngineFixture(t)

	f.send(t, EventViewportSettled, settledViewport(11))

	msg := f.await(t, MsgZoomHint)
	var hint zoomHintPayload
	decodePayload(t, msg, &hint)
	assert.Equal(t, 12.0, hint.MinZoom)

	f.awaitNone(t, MsgTrafficData, 100*time.Millisecond)
	assert.Equal(t, 0, f.traffic.callCount())
}

func TestViewportAtZoomThresholdFetchesTraffic(t *testing.T) {
	f := newEngineFixture(t)

	f.send(t, EventViewportSettled, settledViewport(13))

	msg := f.await(t, MsgTrafficData)
	var payload trafficDataPayload
	decodePayload(t, msg, &payload)
	require.Len(t, payload.Points, 1)
	assert.Equal(t, "Ferry Building", payload.Points[0].Name)
	assert.Equal(t, 1, f.traffic.callCount())
}

func TestShortSearchClearsSuggestionsWithoutCalling(t *testing.T) {
	f := newEngineFixture(t)

	f.send(t, EventSearchInput, searchInputEvent{Text: "Ma"})

	msg := f.await(t, MsgSuggestions)
	var payload suggestionsPayload
	decodePayload(t, msg, &payload)
	assert.Empty(t, payload.Suggestions)
	assert.False(t, payload.Open)
	assert.Equal(t, -1, payload.ActiveIndex)

	f.awaitNone(t, MsgSuggestions, 100*time.Millisecond)
	assert.Equal(t, 0, f.geocoder.callCount())
}

func TestSearchAtThresholdSuggestsAfterDebounce(t *testing.T) {
	f := newEngineFixture(t)

	f.send(t, EventSearchInput, searchInputEvent{Text: "Mar"})

	msg := f.await(t, MsgSuggestions)
	var payload suggestionsPayload
	decodePayload(t, msg, &payload)
	require.Len(t, payload.Suggestions, 2)
	assert.True(t, payload.Open)
	assert.Equal(t, -1, payload.ActiveIndex)
	assert.Equal(t, "100 Market St", payload.Suggestions[0].Label)
	assert.Equal(t, 1, f.geocoder.callCount())
}

func TestShrinkingQueryCancelsPendingSuggest(t *testing.T) {
	f := newEngineFixture(t, func(cfg *config.EngineConfig) {
		cfg.SuggestDebounce = 100 * time.Millisecond
	})

	f.send(t, EventSearchInput, searchInputEvent{Text: "Main"})
	f.send(t, EventSearchInput, searchInputEvent{Text: "Ma"})

	msg := f.await(t, MsgSuggestions)
	var payload suggestionsPayload
	decodePayload(t, msg, &payload)
	assert.Empty(t, payload.Suggestions)
	assert.False(t, payload.Open)

	// the superseded "Main" emission must neither reach the provider
	// nor reopen the list once the debounce window passes
	f.awaitNone(t, MsgSuggestions, 300*time.Millisecond)
	assert.Equal(t, 0, f.geocoder.callCount())
}

func TestKeyNavigationEchoesHighlight(t *testing.T) {
	f := newEngineFixture(t)

	f.send(t, EventSearchInput, searchInputEvent{Text: "Mar"})
	f.await(t, MsgSuggestions)

	f.send(t, EventKeyPress, keyPressEvent{Key: KeyArrowDown})
	msg := f.await(t, MsgSuggestions)
	var payload suggestionsPayload
	decodePayload(t, msg, &payload)
	assert.Equal(t, 0, payload.ActiveIndex)

	f.send(t, EventKeyPress, keyPressEvent{Key: KeyArrowDown})
	msg = f.await(t, MsgSuggestions)
	decodePayload(t, msg, &payload)
	assert.Equal(t, 1, payload.ActiveIndex)

	// already at the last of two items
	f.send(t, EventKeyPress, keyPressEvent{Key: KeyArrowDown})
	msg = f.await(t, MsgSuggestions)
	decodePayload(t, msg, &payload)
	assert.Equal(t, 1, payload.ActiveIndex)

	f.send(t, EventKeyPress, keyPressEvent{Key: KeyArrowUp})
	msg = f.await(t, MsgSuggestions)
	decodePayload(t, msg, &payload)
	assert.Equal(t, 0, payload.ActiveIndex)

	f.send(t, EventKeyPress, keyPressEvent{Key: KeyEscape})
	msg = f.await(t, MsgSuggestions)
	decodePayload(t, msg, &payload)
	assert.False(t, payload.Open)
	assert.Equal(t, -1, payload.ActiveIndex)
}

func TestSelectSuggestionRecentersWithoutResolving(t *testing.T) {
	f := newEngineFixture(t)

	f.send(t, EventSearchInput, searchInputEvent{Text: "Mar"})
	f.await(t, MsgSuggestions)
	callsAfterSuggest := f.geocoder.callCount()

	f.send(t, EventSelectSuggestion, selectSuggestionEvent{Index: 1})

	msg := f.await(t, MsgRecenter)
	var payload recenterPayload
	decodePayload(t, msg, &payload)
	assert.Equal(t, 37.78, payload.Coordinates.Latitude)
	assert.Equal(t, -122.41, payload.Coordinates.Longitude)

	msg = f.await(t, MsgSuggestions)
	var sugg suggestionsPayload
	decodePayload(t, msg, &sugg)
	assert.False(t, sugg.Open)

	// no resolve round trip: the suggestion carried its coordinates
	assert.Equal(t, callsAfterSuggest, f.geocoder.callCount())
}

func TestSelectSuggestionWithDateTriggersPrediction(t *testing.T) {
	f := newEngineFixture(t)

	f.send(t, EventSetDate, setDateEvent{DateISO: "2025-06-01"})
	f.send(t, EventSearchInput, searchInputEvent{Text: "Mar"})
	f.await(t, MsgSuggestions)
	f.send(t, EventSelectSuggestion, selectSuggestionEvent{Index: 0})

	msg := f.await(t, MsgPrediction)
	var pred prediction.Prediction
	decodePayload(t, msg, &pred)
	assert.Equal(t, 72.0, pred.Score)
	assert.Equal(t, "High", pred.Label)
}

func TestSelectSuggestionWithoutDateSkipsPrediction(t *testing.T) {
	f := newEngineFixture(t)

	f.send(t, EventSearchInput, searchInputEvent{Text: "Mar"})
	f.await(t, MsgSuggestions)
	f.send(t, EventSelectSuggestion, selectSuggestionEvent{Index: 0})
	f.await(t, MsgRecenter)

	f.awaitNone(t, MsgPrediction, 100*time.Millisecond)
	assert.Equal(t, 0, f.predictor.callCount(), "a forecast needs a selected date")
}

func TestPredictionFailureSurfacesAsError(t *testing.T) {
	f := newEngineFixture(t)
	f.predictor.err = common.NewUpstreamError("prediction service unavailable", assert.AnError)

	f.send(t, EventSetDate, setDateEvent{DateISO: "2025-06-01"})
	f.send(t, EventSearchInput, searchInputEvent{Text: "Mar"})
	f.await(t, MsgSuggestions)
	f.send(t, EventSelectSuggestion, selectSuggestionEvent{Index: 0})

	msg := f.await(t, MsgPredictionError)
	var payload predictionErrorPayload
	decodePayload(t, msg, &payload)
	assert.Equal(t, "prediction service unavailable", payload.Message)
}

func TestTimeFilterChangeRefetchesSettledViewport(t *testing.T) {
	f := newEngineFixture(t)

	f.send(t, EventViewportSettled, settledViewport(13))
	f.await(t, MsgTrafficData)

	dow := 2
	f.send(t, EventSetTimeFilter, setTimeFilterEvent{DayOfWeek: &dow})

	f.await(t, MsgTrafficData)

	f.traffic.mu.Lock()
	defer f.traffic.mu.Unlock()
	require.GreaterOrEqual(t, f.traffic.calls, 2)
	last := f.traffic.filters[len(f.traffic.filters)-1]
	require.NotNil(t, last.DayOfWeek)
	assert.Equal(t, 2, *last.DayOfWeek)
}

func TestSessionOpensOnConfiguredCenter(t *testing.T) {
	f := newEngineFixture(t, func(cfg *config.EngineConfig) {
		cfg.DefaultCenterLat = 37.7749
		cfg.DefaultCenterLng = -122.44
	})

	msg := f.await(t, MsgRecenter)
	var payload recenterPayload
	decodePayload(t, msg, &payload)
	assert.Equal(t, 37.7749, payload.Coordinates.Latitude)
	assert.Equal(t, -122.44, payload.Coordinates.Longitude)
}

func TestTimeFilterChangeWithoutSettledViewportDoesNothing(t *testing.T) {
	f := newEngineFixture(t)

	dow := 2
	f.send(t, EventSetTimeFilter, setTimeFilterEvent{DayOfWeek: &dow})

	f.awaitNone(t, MsgTrafficData, 100*time.Millisecond)
	assert.Equal(t, 0, f.traffic.callCount())
}
