package events

import "strings"

// Event is one normalized local event.
type Event struct {
	Title   string `json:"title"`
	When    string `json:"when,omitempty"`
	Address string `json:"address,omitempty"`
	Venue   string `json:"venue,omitempty"`
	Link    string `json:"link,omitempty"`
}

// provider response shapes (SerpApi google_events)

type apiEventDate struct {
	StartDate string `json:"start_date"`
	When      string `json:"when"`
}

type apiVenue struct {
	Name string `json:"name"`
}

type apiEvent struct {
	Title   string        `json:"title"`
	Date    *apiEventDate `json:"date"`
	Address []string      `json:"address"`
	Link    string        `json:"link"`
	Venue   *apiVenue     `json:"venue"`
}

type apiResponse struct {
	EventsResults []apiEvent `json:"events_results"`
}

// normalize flattens a provider event; events without a title are
// unusable and reported as ok=false.
func (e apiEvent) normalize() (Event, bool) {
	if e.Title == "" {
		return Event{}, false
	}

	ev := Event{
		Title:   e.Title,
		Address: strings.Join(e.Address, ", "),
		Link:    e.Link,
	}
	if e.Date != nil {
		ev.When = e.Date.When
		if ev.When == "" {
			ev.When = e.Date.StartDate
		}
	}
	if e.Venue != nil {
		ev.Venue = e.Venue.Name
	}
	return ev, true
}
