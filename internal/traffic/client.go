package traffic

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/richxcame/busymap/pkg/config"
	"github.com/richxcame/busymap/pkg/geo"
	"github.com/richxcame/busymap/pkg/httpclient"
	"github.com/richxcame/busymap/pkg/resilience"
)

// Client calls the foot-traffic aggregation API.
type Client struct {
	http    *httpclient.Client
	breaker *resilience.CircuitBreaker
}

// NewClient builds a traffic client. The circuit breaker is optional,
// a nil breaker executes calls directly.
func NewClient(cfg *config.TrafficConfig, breaker *resilience.CircuitBreaker) *Client {
	return &Client{
		http: httpclient.NewClient(
			cfg.BaseURL,
			time.Duration(cfg.TimeoutSeconds)*time.Second,
			httpclient.WithDefaultRetry(),
		),
		breaker: breaker,
	}
}

// FetchPoints queries busyness points inside the given bounds. The
// caller decides how failures degrade; this client only reports them.
func (c *Client) FetchPoints(ctx context.Context, bounds geo.Bounds, filters Filters) ([]Point, error) {
	fetch := func(ctx context.Context) (interface{}, error) {
		return c.doFetch(ctx, bounds, filters)
	}

	var (
		result interface{}
		err    error
	)
	if c.breaker != nil {
		result, err = c.breaker.Execute(ctx, fetch)
	} else {
		result, err = fetch(ctx)
	}
	if err != nil {
		return nil, err
	}

	return result.([]Point), nil
}

func (c *Client) doFetch(ctx context.Context, bounds geo.Bounds, filters Filters) ([]Point, error) {
	params := url.Values{}
	params.Set("sw_lat", fmt.Sprintf("%.6f", bounds.SouthWest.Latitude))
	params.Set("sw_lng", fmt.Sprintf("%.6f", bounds.SouthWest.Longitude))
	params.Set("ne_lat", fmt.Sprintf("%.6f", bounds.NorthEast.Latitude))
	params.Set("ne_lng", fmt.Sprintf("%.6f", bounds.NorthEast.Longitude))
	if filters.DayOfWeek != nil {
		params.Set("dow", fmt.Sprintf("%d", *filters.DayOfWeek))
	}
	if filters.HourOfDay != nil {
		params.Set("hour", fmt.Sprintf("%d", *filters.HourOfDay))
	}

	body, err := c.http.Get(ctx, "/api/foot-traffic?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("foot-traffic request failed: %w", err)
	}

	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("foot-traffic response malformed: %w", err)
	}

	if resp.Error != "" {
		return nil, fmt.Errorf("foot-traffic upstream error: %s", resp.Error)
	}
	if resp.Data == nil {
		return nil, fmt.Errorf("foot-traffic response missing data")
	}

	points := make([]Point, 0, len(resp.Data.Places))
	for _, place := range resp.Data.Places {
		if place.Coordinates == nil {
			continue
		}
		points = append(points, Point{
			Name: place.Name,
			Coordinates: geo.LatLng{
				Latitude:  place.Coordinates.Lat,
				Longitude: place.Coordinates.Lng,
			},
			AvgBusyness: place.AvgBusyness,
			Level:       ClassifyBusyness(place.AvgBusyness),
			Types:       place.Types,
		})
	}

	return points, nil
}
