package session

import (
	"github.com/richxcame/busymap/internal/geocode"
	"github.com/richxcame/busymap/internal/traffic"
	"github.com/richxcame/busymap/pkg/geo"
)

// Inbound event types sent by map clients.
const (
	EventViewportSettled  = "viewport_settled"
	EventSearchInput      = "search_input"
	EventKeyPress         = "key_press"
	EventSelectSuggestion = "select_suggestion"
	EventCommitSearch     = "commit_search"
	EventSetDate          = "set_date"
	EventSetTimeFilter    = "set_time_filter"
)

// Outbound message types pushed to map clients.
const (
	MsgTrafficData     = "traffic_data"
	MsgSuggestions     = "suggestions"
	MsgPrediction      = "prediction"
	MsgPredictionError = "prediction_error"
	MsgStateChanged    = "state_changed"
	MsgRecenter        = "recenter"
	MsgZoomHint        = "zoom_hint"
)

// Keys recognized in key_press events.
const (
	KeyArrowDown = "ArrowDown"
	KeyArrowUp   = "ArrowUp"
	KeyEnter     = "Enter"
	KeyEscape    = "Escape"
)

// inbound payloads

type viewportSettledEvent struct {
	SWLat float64 `json:"sw_lat"`
	SWLng float64 `json:"sw_lng"`
	NELat float64 `json:"ne_lat"`
	NELng float64 `json:"ne_lng"`
	Zoom  float64 `json:"zoom"`
}

func (e viewportSettledEvent) viewport() geo.Viewport {
	return geo.Viewport{
		Bounds: geo.Bounds{
			SouthWest: geo.LatLng{Latitude: e.SWLat, Longitude: e.SWLng},
			NorthEast: geo.LatLng{Latitude: e.NELat, Longitude: e.NELng},
		},
		Zoom: e.Zoom,
	}
}

type searchInputEvent struct {
	Text string `json:"text"`
}

type keyPressEvent struct {
	Key string `json:"key"`
}

type selectSuggestionEvent struct {
	Index int `json:"index"`
}

type setDateEvent struct {
	DateISO string `json:"date_iso"` // empty clears the date
}

type setTimeFilterEvent struct {
	DayOfWeek *int `json:"day_of_week"`
	HourOfDay *int `json:"hour_of_day"`
}

// outbound payloads

type trafficDataPayload struct {
	Points []traffic.Point `json:"points"`
}

type suggestionsPayload struct {
	Suggestions []geocode.Suggestion `json:"suggestions"`
	ActiveIndex int                  `json:"active_index"`
	Open        bool                 `json:"open"`
}

type recenterPayload struct {
	Coordinates geo.LatLng `json:"coordinates"`
}

type zoomHintPayload struct {
	MinZoom float64 `json:"min_zoom"`
	Message string  `json:"message"`
}

type predictionErrorPayload struct {
	Message string `json:"message"`
}

type stateChangedPayload struct {
	Field string      `json:"field"`
	State interface{} `json:"state"`
}
