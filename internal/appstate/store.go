// Package appstate holds the mutable session state shared between the
// viewport, search and prediction flows.
package appstate

import (
	"sync"
	"time"

	"github.com/richxcame/busymap/pkg/geo"
)

// Fields that setters report on change notifications.
const (
	FieldCoordinates   = "coordinates"
	FieldLocationQuery = "location_query"
	FieldSelectedDate  = "selected_date"
	FieldDayOfWeek     = "day_of_week"
	FieldHourOfDay     = "hour_of_day"
)

// State is the shared session record. Pointer fields distinguish
// "unset" from zero values.
type State struct {
	Coordinates   *geo.LatLng `json:"coordinates,omitempty"`
	LocationQuery string      `json:"location_query"`
	SelectedDate  *time.Time  `json:"selected_date,omitempty"`
	DayOfWeek     *int        `json:"day_of_week,omitempty"`
	HourOfDay     *int        `json:"hour_of_day,omitempty"`
}

// Change notifies subscribers which field moved and the state after
// the move.
type Change struct {
	Field string
	State State
}

// Store wraps State with named setters and subscriptions. There is no
// designated writer per field; consumers re-derive whatever they need
// from the snapshot carried by each change.
type Store struct {
	mu    sync.RWMutex
	state State
	subs  map[chan Change]struct{}
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		subs: make(map[chan Change]struct{}),
	}
}

// Snapshot returns a copy of the current state. Pointer fields are
// duplicated so callers cannot mutate the store through them.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyState(s.state)
}

// SetCoordinates updates the resolved location. A nil value clears it.
func (s *Store) SetCoordinates(c *geo.LatLng) {
	s.mu.Lock()
	if c == nil {
		s.state.Coordinates = nil
	} else {
		v := *c
		s.state.Coordinates = &v
	}
	s.publishLocked(FieldCoordinates)
	s.mu.Unlock()
}

// SetLocationQuery updates the free-text search value
func (s *Store) SetLocationQuery(q string) {
	s.mu.Lock()
	s.state.LocationQuery = q
	s.publishLocked(FieldLocationQuery)
	s.mu.Unlock()
}

// SetSelectedDate updates the prediction date. A nil value clears it.
func (s *Store) SetSelectedDate(d *time.Time) {
	s.mu.Lock()
	if d == nil {
		s.state.SelectedDate = nil
	} else {
		v := *d
		s.state.SelectedDate = &v
	}
	s.publishLocked(FieldSelectedDate)
	s.mu.Unlock()
}

// SetDayOfWeek updates the day-of-week filter. A nil value clears it.
func (s *Store) SetDayOfWeek(dow *int) {
	s.mu.Lock()
	if dow == nil {
		s.state.DayOfWeek = nil
	} else {
		v := *dow
		s.state.DayOfWeek = &v
	}
	s.publishLocked(FieldDayOfWeek)
	s.mu.Unlock()
}

// SetHourOfDay updates the hour filter. A nil value clears it.
func (s *Store) SetHourOfDay(hour *int) {
	s.mu.Lock()
	if hour == nil {
		s.state.HourOfDay = nil
	} else {
		v := *hour
		s.state.HourOfDay = &v
	}
	s.publishLocked(FieldHourOfDay)
	s.mu.Unlock()
}

// Subscribe registers a change listener. The returned cancel function
// unregisters it and closes the channel.
func (s *Store) Subscribe() (<-chan Change, func()) {
	ch := make(chan Change, 16)

	s.mu.Lock()
	s.subs[ch] = struct{}{}
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subs[ch]; ok {
			delete(s.subs, ch)
			close(ch)
		}
		s.mu.Unlock()
	}

	return ch, cancel
}

// publishLocked notifies subscribers without blocking: a subscriber
// that stopped draining its channel misses changes rather than
// stalling every setter.
func (s *Store) publishLocked(field string) {
	change := Change{
		Field: field,
		State: copyState(s.state),
	}
	for ch := range s.subs {
		select {
		case ch <- change:
		default:
		}
	}
}

func copyState(in State) State {
	out := State{LocationQuery: in.LocationQuery}
	if in.Coordinates != nil {
		v := *in.Coordinates
		out.Coordinates = &v
	}
	if in.SelectedDate != nil {
		v := *in.SelectedDate
		out.SelectedDate = &v
	}
	if in.DayOfWeek != nil {
		v := *in.DayOfWeek
		out.DayOfWeek = &v
	}
	if in.HourOfDay != nil {
		v := *in.HourOfDay
		out.HourOfDay = &v
	}
	return out
}
