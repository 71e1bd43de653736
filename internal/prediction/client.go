package prediction

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/richxcame/busymap/pkg/common"
	"github.com/richxcame/busymap/pkg/config"
	"github.com/richxcame/busymap/pkg/httpclient"
)

// Client calls the prediction endpoints of the traffic API.
type Client struct {
	http *httpclient.Client
}

// NewClient builds a prediction client with retrying transport
func NewClient(cfg *config.TrafficConfig) *Client {
	return &Client{
		http: httpclient.NewClient(
			cfg.BaseURL,
			time.Duration(cfg.TimeoutSeconds)*time.Second,
			httpclient.WithDefaultRetry(),
		),
	}
}

// FetchPrediction requests a forecast. Unlike traffic points, failures
// here surface as errors: the forecast is an explicit user request and
// a silent blank would be indistinguishable from "no data".
func (c *Client) FetchPrediction(ctx context.Context, req Request) (*Prediction, error) {
	params := url.Values{}
	params.Set("place_query", req.PlaceQuery)
	params.Set("latitude", fmt.Sprintf("%.6f", req.Coordinates.Latitude))
	params.Set("longitude", fmt.Sprintf("%.6f", req.Coordinates.Longitude))
	if req.Date != nil {
		params.Set("date_iso", req.Date.Format("2006-01-02"))
	}

	path := "/api/predict"
	if req.WithSummary {
		path = "/api/predict-llm"
	}

	body, err := c.http.Get(ctx, path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, common.NewUpstreamError("prediction service unavailable", err)
	}

	var pred Prediction
	if err := json.Unmarshal(body, &pred); err != nil {
		return nil, common.NewUpstreamError("prediction response malformed", err)
	}

	return &pred, nil
}
