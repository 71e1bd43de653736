package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/richxcame/busymap/pkg/config"
	"github.com/richxcame/busymap/pkg/geo"
	"github.com/richxcame/busymap/pkg/httpclient"
	"github.com/richxcame/busymap/pkg/resilience"
)

// Provider performs forward geocoding.
type Provider interface {
	Forward(ctx context.Context, query string, limit int, autocomplete bool) ([]Feature, error)
}

// Client calls the Mapbox-style forward geocoding API, restricted to
// the serviceable bounding box.
type Client struct {
	http    *httpclient.Client
	token   string
	bbox    string
	breaker *resilience.CircuitBreaker
}

var _ Provider = (*Client)(nil)

// NewClient builds a geocoding client. The circuit breaker is
// optional, a nil breaker executes calls directly.
func NewClient(cfg *config.GeocoderConfig, breaker *resilience.CircuitBreaker) *Client {
	return &Client{
		http:    httpclient.NewClient(cfg.BaseURL, time.Duration(cfg.TimeoutSeconds)*time.Second),
		token:   cfg.Token,
		bbox:    cfg.BBox,
		breaker: breaker,
	}
}

// Forward geocodes free text into candidate features. All searches
// carry the region bbox so results stay inside the serviceable area.
func (c *Client) Forward(ctx context.Context, query string, limit int, autocomplete bool) ([]Feature, error) {
	fetch := func(ctx context.Context) (interface{}, error) {
		return c.doForward(ctx, query, limit, autocomplete)
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

	return result.([]Feature), nil
}

func (c *Client) doForward(ctx context.Context, query string, limit int, autocomplete bool) ([]Feature, error) {
	params := url.Values{}
	params.Set("access_token", c.token)
	params.Set("bbox", c.bbox)
	params.Set("limit", strconv.Itoa(limit))
	params.Set("types", "address")
	params.Set("autocomplete", strconv.FormatBool(autocomplete))

	path := fmt.Sprintf("/geocoding/v5/mapbox.places/%s.json?%s", url.PathEscape(query), params.Encode())

	body, err := c.http.Get(ctx, path, nil)
	if err != nil {
		return nil, fmt.Errorf("geocoding request failed: %w", err)
	}

	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("geocoding response malformed: %w", err)
	}

	return resp.Features, nil
}

// Region returns the serviceable bounds parsed from the configured bbox.
func Region(cfg *config.GeocoderConfig) geo.Bounds {
	minLng, minLat, maxLng, maxLat := cfg.BBoxCorners()
	return geo.Bounds{
		SouthWest: geo.LatLng{Latitude: minLat, Longitude: minLng},
		NorthEast: geo.LatLng{Latitude: maxLat, Longitude: maxLng},
	}
}
