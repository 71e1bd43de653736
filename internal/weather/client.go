package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/richxcame/busymap/pkg/common"
	"github.com/richxcame/busymap/pkg/config"
	"github.com/richxcame/busymap/pkg/geo"
	"github.com/richxcame/busymap/pkg/httpclient"
)

// Client calls the Open-Meteo style forecast API.
type Client struct {
	http     *httpclient.Client
	timezone string
}

// NewClient builds a weather client with retrying transport
func NewClient(cfg *config.WeatherConfig) *Client {
	return &Client{
		http: httpclient.NewClient(
			cfg.BaseURL,
			time.Duration(cfg.TimeoutSeconds)*time.Second,
			httpclient.WithDefaultRetry(),
		),
		timezone: cfg.Timezone,
	}
}

// FetchForecast requests the hourly forecast for the coordinates.
// Failures surface as errors like predictions do; the caller asked for
// the forecast explicitly.
func (c *Client) FetchForecast(ctx context.Context, coords geo.LatLng) (*Forecast, error) {
	params := url.Values{}
	params.Set("latitude", fmt.Sprintf("%.6f", coords.Latitude))
	params.Set("longitude", fmt.Sprintf("%.6f", coords.Longitude))
	params.Set("hourly", hourlyVariables)
	params.Set("timezone", c.timezone)

	body, err := c.http.Get(ctx, "/v1/forecast?"+params.Encode(), nil)
	if err != nil {
		return nil, common.NewUpstreamError("weather service unavailable", err)
	}

	var forecast Forecast
	if err := json.Unmarshal(body, &forecast); err != nil {
		return nil, common.NewUpstreamError("weather response malformed", err)
	}

	return &forecast, nil
}
