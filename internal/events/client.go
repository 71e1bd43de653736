package events

import (
	"context"
	"encoding/json"
	"net/url"
	"time"

	"github.com/richxcame/busymap/pkg/common"
	"github.com/richxcame/busymap/pkg/config"
	"github.com/richxcame/busymap/pkg/httpclient"
)

// Client calls the SerpApi google_events search. Without an API key it
// serves canned sample events so the rest of the stack stays usable in
// local development.
type Client struct {
	http     *httpclient.Client
	apiKey   string
	location string
}

// NewClient builds an events client with retrying transport
func NewClient(cfg *config.EventsConfig) *Client {
	return &Client{
		http: httpclient.NewClient(
			cfg.BaseURL,
			time.Duration(cfg.TimeoutSeconds)*time.Second,
			httpclient.WithDefaultRetry(),
		),
		apiKey:   cfg.APIKey,
		location: cfg.Location,
	}
}

// FetchEvents searches for local events matching the query. A date
// narrows the search by being appended to the query text, mirroring
// how the upstream treats dates.
func (c *Client) FetchEvents(ctx context.Context, search string, date *time.Time) ([]Event, error) {
	if c.apiKey == "" {
		return sampleEvents(), nil
	}

	q := search
	if date != nil {
		q = search + " " + date.Format("2006-01-02")
	}

	params := url.Values{}
	params.Set("engine", "google_events")
	params.Set("q", q)
	params.Set("hl", "en")
	params.Set("gl", "us")
	params.Set("location", c.location)
	params.Set("api_key", c.apiKey)

	body, err := c.http.Get(ctx, "/search.json?"+params.Encode(), nil)
	if err != nil {
		return nil, common.NewUpstreamError("events service unavailable", err)
	}

	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, common.NewUpstreamError("events response malformed", err)
	}

	events := make([]Event, 0, len(resp.EventsResults))
	for _, raw := range resp.EventsResults {
		if ev, ok := raw.normalize(); ok {
			events = append(events, ev)
		}
	}
	return events, nil
}

func sampleEvents() []Event {
	return []Event{
		{Title: "Street Food Festival", Venue: "Civic Center Plaza"},
		{Title: "Farmers Market", Venue: "Ferry Building"},
	}
}
