package weather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/richxcame/busymap/internal/query"
	"github.com/richxcame/busymap/pkg/common"
	"github.com/richxcame/busymap/pkg/config"
	"github.com/richxcame/busymap/pkg/geo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyDeterministic(t *testing.T) {
	coords := geo.LatLng{Latitude: 37.795432, Longitude: -122.393715}
	assert.Equal(t, Key(coords), Key(coords))
	assert.Equal(t, "weather:37.795432:-122.393715", Key(coords))
}

func TestClientParsesForecastResponse(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/forecast", r.URL.Path)
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"latitude": 37.79,
			"longitude": -122.39,
			"timezone": "America/Los_Angeles",
			"hourly": {
				"time": ["2025-06-01T00:00", "2025-06-01T01:00"],
				"temperature_2m": [13.1, 12.8],
				"precipitation": [0, 0.2],
				"cloud_cover": [40, 85],
				"windspeed_10m": [11.5, 9.3]
			}
		}`))
	}))
	defer server.Close()

	client := NewClient(&config.WeatherConfig{
		BaseURL:        server.URL,
		TimeoutSeconds: 5,
		Timezone:       "America/Los_Angeles",
	})

	forecast, err := client.FetchForecast(context.Background(), geo.LatLng{Latitude: 37.79, Longitude: -122.39})

	require.NoError(t, err)
	assert.Contains(t, gotQuery, "hourly=temperature_2m%2Cprecipitation%2Ccloud_cover%2Cwindspeed_10m")
	assert.Contains(t, gotQuery, "timezone=America%2FLos_Angeles")
	assert.Equal(t, "America/Los_Angeles", forecast.Timezone)
	require.Len(t, forecast.Hourly.Time, 2)
	assert.Equal(t, 13.1, forecast.Hourly.Temperature[0])
	assert.Equal(t, 0.2, forecast.Hourly.Precipitation[1])
	assert.Equal(t, 85.0, forecast.Hourly.CloudCover[1])
}

func TestClientWrapsUpstreamFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewClient(&config.WeatherConfig{BaseURL: server.URL, TimeoutSeconds: 5})

	_, err := client.FetchForecast(context.Background(), geo.LatLng{Latitude: 37.79, Longitude: -122.39})

	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusBadGateway, appErr.Code)
}

type fakeForecastFetcher struct {
	calls    int64
	forecast *Forecast
}

func (f *fakeForecastFetcher) FetchForecast(ctx context.Context, coords geo.LatLng) (*Forecast, error) {
	atomic.AddInt64(&f.calls, 1)
	return f.forecast, nil
}

func TestServiceRejectsInvalidCoordinates(t *testing.T) {
	fetcher := &fakeForecastFetcher{}
	svc := NewService(fetcher, query.New[*Forecast](time.Minute, time.Second))

	_, err := svc.Forecast(context.Background(), geo.LatLng{Latitude: 137, Longitude: 0})

	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusBadRequest, appErr.Code)
	assert.Equal(t, int64(0), atomic.LoadInt64(&fetcher.calls))
}

func TestServiceServesFreshForecastWithoutRefetch(t *testing.T) {
	fetcher := &fakeForecastFetcher{forecast: &Forecast{Timezone: "America/Los_Angeles"}}
	svc := NewService(fetcher, query.New[*Forecast](time.Minute, time.Second))

	coords := geo.LatLng{Latitude: 37.79, Longitude: -122.39}
	for i := 0; i < 3; i++ {
		forecast, err := svc.Forecast(context.Background(), coords)
		require.NoError(t, err)
		assert.Equal(t, "America/Los_Angeles", forecast.Timezone)
	}

	assert.Equal(t, int64(1), atomic.LoadInt64(&fetcher.calls))
}
