// Package session runs one engine per connected map client. The
// engine owns a single-goroutine event loop: inbound client events,
// debouncer emissions and fetch completions are all funneled through
// it, so session state never needs locking. Network calls run in
// spawned goroutines that deliver results back into the loop tagged
// with the generation that started them.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/richxcame/busymap/internal/appstate"
	"github.com/richxcame/busymap/internal/geocode"
	"github.com/richxcame/busymap/internal/prediction"
	"github.com/richxcame/busymap/internal/traffic"
	"github.com/richxcame/busymap/internal/viewport"
	"github.com/richxcame/busymap/pkg/common"
	"github.com/richxcame/busymap/pkg/config"
	"github.com/richxcame/busymap/pkg/debounce"
	"github.com/richxcame/busymap/pkg/geo"
	"github.com/richxcame/busymap/pkg/logger"
	ws "github.com/richxcame/busymap/pkg/websocket"
	"go.uber.org/zap"
)

type resultKind int

const (
	resultTraffic resultKind = iota
	resultSuggest
	resultResolve
	resultPrediction
)

// result carries a completed fetch back into the event loop. The
// generation lets the loop discard late arrivals that a newer request
// has superseded.
type result struct {
	kind       resultKind
	gen        uint64
	points     []traffic.Point
	candidates []geocode.Suggestion
	coords     *geo.LatLng
	resolved   bool
	prediction *prediction.Prediction
	err        error
}

// Engine drives one client session.
type Engine struct {
	id         string
	client     *ws.Client
	cfg        *config.EngineConfig
	store      *appstate.Store
	tracker    *viewport.Tracker
	nav        *geocode.Navigator
	suggestDeb *debounce.Debouncer[string]

	traffic    *traffic.Service
	geocode    *geocode.Service
	prediction *prediction.Service

	// display-slot generations, touched only on the event loop
	trafficGen uint64
	suggestGen uint64
	resolveGen uint64
	predictGen uint64

	results chan result
	ctx     context.Context
}

// NewEngine creates an engine for one connected client.
func NewEngine(
	id string,
	client *ws.Client,
	cfg *config.EngineConfig,
	trafficSvc *traffic.Service,
	geocodeSvc *geocode.Service,
	predictionSvc *prediction.Service,
) *Engine {
	return &Engine{
		id:         id,
		client:     client,
		cfg:        cfg,
		store:      appstate.NewStore(),
		tracker:    viewport.NewTracker(cfg.MinZoomForData, cfg.BoundsDebounce),
		nav:        geocode.NewNavigator(),
		suggestDeb: debounce.New[string](cfg.SuggestDebounce),
		traffic:    trafficSvc,
		geocode:    geocodeSvc,
		prediction: predictionSvc,
		results:    make(chan result, 16),
	}
}

// Run processes events until the client disconnects or ctx is
// canceled. It must be the only goroutine touching session state.
func (e *Engine) Run(ctx context.Context) {
	e.ctx = ctx

	stateCh, cancelSub := e.store.Subscribe()
	defer cancelSub()
	defer e.tracker.Stop()
	defer e.suggestDeb.Stop()

	logger.Info("session started", zap.String("session_id", e.id))
	defer logger.Info("session ended", zap.String("session_id", e.id))

	// new sessions open on the configured map center
	if center := e.defaultCenter(); center != nil {
		e.push(MsgRecenter, recenterPayload{Coordinates: *center})
	}

	for {
		select {
		case <-ctx.Done():
			return

		case msg, ok := <-e.client.Inbound:
			if !ok {
				return
			}
			e.handleEvent(msg)

		case v := <-e.tracker.C():
			e.handleSettledViewport(v)

		case text := <-e.suggestDeb.C():
			e.startSuggest(text)

		case r := <-e.results:
			e.handleResult(r)

		case change, ok := <-stateCh:
			if !ok {
				return
			}
			e.handleStateChange(change)
		}
	}
}

func (e *Engine) handleEvent(msg *ws.Message) {
	switch msg.Type {
	case EventViewportSettled:
		var ev viewportSettledEvent
		if !e.decode(msg, &ev) {
			return
		}
		v := ev.viewport()
		if !v.Bounds.Valid() {
			logger.Debug("discarding invalid viewport", zap.String("session_id", e.id))
			return
		}
		e.tracker.Observe(v)

	case EventSearchInput:
		var ev searchInputEvent
		if !e.decode(msg, &ev) {
			return
		}
		e.handleSearchInput(ev.Text)

	case EventKeyPress:
		var ev keyPressEvent
		if !e.decode(msg, &ev) {
			return
		}
		e.handleKeyPress(ev.Key)

	case EventSelectSuggestion:
		var ev selectSuggestionEvent
		if !e.decode(msg, &ev) {
			return
		}
		e.selectSuggestion(ev.Index)

	case EventCommitSearch:
		e.commitSearch()

	case EventSetDate:
		var ev setDateEvent
		if !e.decode(msg, &ev) {
			return
		}
		if ev.DateISO == "" {
			e.store.SetSelectedDate(nil)
			return
		}
		date, err := time.Parse("2006-01-02", ev.DateISO)
		if err != nil {
			logger.Debug("discarding invalid date", zap.String("date_iso", ev.DateISO))
			return
		}
		e.store.SetSelectedDate(&date)

	case EventSetTimeFilter:
		var ev setTimeFilterEvent
		if !e.decode(msg, &ev) {
			return
		}
		e.store.SetDayOfWeek(ev.DayOfWeek)
		e.store.SetHourOfDay(ev.HourOfDay)

	default:
		logger.Debug("unknown event type",
			zap.String("session_id", e.id),
			zap.String("type", msg.Type),
		)
	}
}

// handleSettledViewport consumes a debounced viewport. Below the zoom
// threshold nothing is fetched and the client gets a hint; whatever
// data it already shows stays put.
func (e *Engine) handleSettledViewport(v geo.Viewport) {
	e.tracker.MarkSettled(v)

	if !e.tracker.Eligible(v) {
		e.push(MsgZoomHint, zoomHintPayload{
			MinZoom: e.cfg.MinZoomForData,
			Message: "zoom in to view data",
		})
		return
	}

	e.startTrafficFetch(v.Bounds)
}

func (e *Engine) startTrafficFetch(bounds geo.Bounds) {
	e.trafficGen++
	gen := e.trafficGen
	e.tracker.SetPhase(viewport.PhaseFetching)

	state := e.store.Snapshot()
	filters := traffic.Filters{
		DayOfWeek: state.DayOfWeek,
		HourOfDay: state.HourOfDay,
	}

	ctx := e.ctx
	go func() {
		points := e.traffic.Points(ctx, bounds, filters)
		e.deliver(result{kind: resultTraffic, gen: gen, points: points})
	}()
}

func (e *Engine) handleSearchInput(text string) {
	e.store.SetLocationQuery(text)

	// always overwrite the pending debounce so a longer query armed
	// moments ago cannot fire after the text shrank; startSuggest
	// filters the sub-threshold emission
	e.suggestDeb.Set(text)

	if len(strings.TrimSpace(text)) < e.geocode.MinChars() {
		// below threshold: clear immediately, no network call, and
		// invalidate any in-flight suggest
		e.suggestGen++
		e.nav.Clear()
		e.pushSuggestions()
	}
}

func (e *Engine) startSuggest(text string) {
	// the text may have shrunk below the threshold while debouncing
	if len(strings.TrimSpace(text)) < e.geocode.MinChars() {
		return
	}

	e.suggestGen++
	gen := e.suggestGen

	ctx := e.ctx
	go func() {
		candidates := e.geocode.Suggest(ctx, text)
		e.deliver(result{kind: resultSuggest, gen: gen, candidates: candidates})
	}()
}

func (e *Engine) handleKeyPress(key string) {
	switch key {
	case KeyArrowDown:
		e.nav.ArrowDown()
		e.pushSuggestions()
	case KeyArrowUp:
		e.nav.ArrowUp()
		e.pushSuggestions()
	case KeyEscape:
		e.nav.Escape()
		e.pushSuggestions()
	case KeyEnter:
		if active, ok := e.nav.Active(); ok {
			e.applySuggestion(active)
			return
		}
		e.commitSearch()
	}
}

func (e *Engine) selectSuggestion(index int) {
	s, ok := e.nav.Select(index)
	if !ok {
		return
	}
	e.applySuggestion(s)
}

// applySuggestion short-circuits resolve: the label becomes the text,
// coordinates (when present) go straight to the store, the list
// closes and no resolve call is made.
func (e *Engine) applySuggestion(s geocode.Suggestion) {
	e.suggestGen++
	e.resolveGen++
	e.nav.Clear()

	e.store.SetLocationQuery(s.Label)
	if s.Coordinates != nil {
		e.store.SetCoordinates(s.Coordinates)
		e.push(MsgRecenter, recenterPayload{Coordinates: *s.Coordinates})
	}

	e.pushSuggestions()
}

// commitSearch resolves the current text (blur, or Enter with nothing
// highlighted). Failure or no match leaves prior coordinates alone.
func (e *Engine) commitSearch() {
	e.nav.Escape()
	e.pushSuggestions()

	text := e.store.Snapshot().LocationQuery
	if strings.TrimSpace(text) == "" {
		return
	}

	e.resolveGen++
	gen := e.resolveGen

	ctx := e.ctx
	go func() {
		coords, ok := e.geocode.Resolve(ctx, text)
		e.deliver(result{kind: resultResolve, gen: gen, coords: coords, resolved: ok})
	}()
}

func (e *Engine) startPrediction(state appstate.State) {
	e.predictGen++
	gen := e.predictGen

	req := prediction.Request{
		PlaceQuery:  state.LocationQuery,
		Coordinates: *state.Coordinates,
		Date:        state.SelectedDate,
	}

	ctx := e.ctx
	go func() {
		pred, err := e.prediction.Predict(ctx, req)
		e.deliver(result{kind: resultPrediction, gen: gen, prediction: pred, err: err})
	}()
}

func (e *Engine) handleResult(r result) {
	switch r.kind {
	case resultTraffic:
		if r.gen != e.trafficGen {
			return
		}
		e.tracker.SetPhase(viewport.PhaseResolved)
		e.push(MsgTrafficData, trafficDataPayload{Points: r.points})

	case resultSuggest:
		if r.gen != e.suggestGen {
			return
		}
		e.nav.SetSuggestions(r.candidates)
		e.pushSuggestions()

	case resultResolve:
		if r.gen != e.resolveGen {
			return
		}
		if !r.resolved || r.coords == nil {
			return
		}
		e.store.SetCoordinates(r.coords)
		e.push(MsgRecenter, recenterPayload{Coordinates: *r.coords})

	case resultPrediction:
		if r.gen != e.predictGen {
			return
		}
		if r.err != nil {
			e.push(MsgPredictionError, predictionErrorPayload{Message: predictionErrorMessage(r.err)})
			return
		}
		e.push(MsgPrediction, r.prediction)
	}
}

// handleStateChange re-derives dependent queries from the new state:
// coordinate or date moves restart the prediction once a place, its
// coordinates and a date are all set, filter moves refetch traffic
// for the settled viewport.
func (e *Engine) handleStateChange(change appstate.Change) {
	e.push(MsgStateChanged, stateChangedPayload{
		Field: change.Field,
		State: change.State,
	})

	switch change.Field {
	case appstate.FieldCoordinates, appstate.FieldSelectedDate:
		if change.State.Coordinates != nil && change.State.SelectedDate != nil &&
			strings.TrimSpace(change.State.LocationQuery) != "" {
			e.startPrediction(change.State)
		}

	case appstate.FieldDayOfWeek, appstate.FieldHourOfDay:
		if v, ok := e.tracker.Settled(); ok && e.tracker.Eligible(v) {
			e.startTrafficFetch(v.Bounds)
		}
	}
}

func (e *Engine) pushSuggestions() {
	suggestions := e.nav.Suggestions()
	if suggestions == nil {
		suggestions = []geocode.Suggestion{}
	}
	e.push(MsgSuggestions, suggestionsPayload{
		Suggestions: suggestions,
		ActiveIndex: e.nav.ActiveIndex(),
		Open:        e.nav.IsOpen(),
	})
}

func (e *Engine) push(msgType string, payload interface{}) {
	msg, err := ws.NewMessage(msgType, payload)
	if err != nil {
		logger.Error("failed to encode outbound message",
			zap.String("session_id", e.id),
			zap.String("type", msgType),
			zap.Error(err),
		)
		return
	}
	e.client.SendMessage(msg)
}

// deliver hands a fetch result to the loop unless the session is done.
func (e *Engine) deliver(r result) {
	select {
	case e.results <- r:
	case <-e.ctx.Done():
	}
}

func (e *Engine) decode(msg *ws.Message, dest interface{}) bool {
	if err := json.Unmarshal(msg.Data, dest); err != nil {
		logger.Debug("malformed event payload",
			zap.String("session_id", e.id),
			zap.String("type", msg.Type),
			zap.Error(err),
		)
		return false
	}
	return true
}

// defaultCenter returns the configured initial map center, nil when
// none is configured.
func (e *Engine) defaultCenter() *geo.LatLng {
	c := geo.LatLng{Latitude: e.cfg.DefaultCenterLat, Longitude: e.cfg.DefaultCenterLng}
	if (c.Latitude == 0 && c.Longitude == 0) || !c.Valid() {
		return nil
	}
	return &c
}

func predictionErrorMessage(err error) string {
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "prediction unavailable"
}

