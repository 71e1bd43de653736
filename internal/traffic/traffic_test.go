package traffic

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/richxcame/busymap/internal/query"
	"github.com/richxcame/busymap/pkg/config"
	"github.com/richxcame/busymap/pkg/geo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sfBounds() geo.Bounds {
	return geo.Bounds{
		SouthWest: geo.LatLng{Latitude: 37.70, Longitude: -122.52},
		NorthEast: geo.LatLng{Latitude: 37.83, Longitude: -122.35},
	}
}

func TestBoundsKeyDeterministic(t *testing.T) {
	a := BoundsKey(sfBounds(), Filters{})
	b := BoundsKey(sfBounds(), Filters{})
	assert.Equal(t, a, b, "structurally equal bounds must produce identical keys")
	assert.Equal(t, "traffic:37.700000:-122.520000:37.830000:-122.350000:-:-", a)
}

func TestBoundsKeyIncludesFilters(t *testing.T) {
	dow, hour := 5, 18
	withFilters := BoundsKey(sfBounds(), Filters{DayOfWeek: &dow, HourOfDay: &hour})
	without := BoundsKey(sfBounds(), Filters{})

	assert.NotEqual(t, without, withFilters)
	assert.Equal(t, "traffic:37.700000:-122.520000:37.830000:-122.350000:5:18", withFilters)
}

func TestClassifyBusyness(t *testing.T) {
	tests := []struct {
		score float64
		want  BusynessLevel
	}{
		{0, LevelQuiet},
		{39.9, LevelQuiet},
		{40, LevelModerate},
		{64.9, LevelModerate},
		{65, LevelBusy},
		{72, LevelBusy},
		{100, LevelBusy},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyBusyness(tt.score), "score %.1f", tt.score)
	}
}

func TestClientParsesUpstreamResponse(t *testing.T) {
	var calls int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		assert.Equal(t, "/api/foot-traffic", r.URL.Path)
		assert.Equal(t, "37.700000", r.URL.Query().Get("sw_lat"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"places":[
			{"name":"Mission Cafe","coordinates":{"lat":37.76,"lng":-122.42},"avg_busyness":72},
			{"name":"Quiet Corner","coordinates":{"lat":37.78,"lng":-122.41},"avg_busyness":12},
			{"name":"No Coords","avg_busyness":50}
		],"source":"test"}}`))
	}))
	defer server.Close()

	client := NewClient(&config.TrafficConfig{BaseURL: server.URL, TimeoutSeconds: 2}, nil)

	points, err := client.FetchPoints(context.Background(), sfBounds(), Filters{})
	require.NoError(t, err)
	require.Len(t, points, 2, "places without coordinates are dropped")

	assert.Equal(t, "Mission Cafe", points[0].Name)
	assert.Equal(t, LevelBusy, points[0].Level)
	assert.Equal(t, LevelQuiet, points[1].Level)
	assert.Equal(t, int64(1), atomic.LoadInt64(&calls))
}

type fakeFetcher struct {
	calls int64
	fail  bool
	delay time.Duration
}

func (f *fakeFetcher) FetchPoints(ctx context.Context, bounds geo.Bounds, filters Filters) ([]Point, error) {
	atomic.AddInt64(&f.calls, 1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.fail {
		return nil, errors.New("upstream down")
	}
	return []Point{{Name: "p", AvgBusyness: 72, Level: LevelBusy}}, nil
}

func TestServiceCoalescesSameBounds(t *testing.T) {
	fetcher := &fakeFetcher{delay: 20 * time.Millisecond}
	svc := NewService(fetcher, query.New[[]Point](time.Minute, time.Second))

	done := make(chan struct{})
	for i := 0; i < 5; i++ {
		go func() {
			svc.Points(context.Background(), sfBounds(), Filters{})
			done <- struct{}{}
		}()
	}
	for i := 0; i < 5; i++ {
		<-done
	}

	assert.Equal(t, int64(1), atomic.LoadInt64(&fetcher.calls), "identical bounds must share one upstream call")
}

func TestServiceDegradesToEmptyOnFailure(t *testing.T) {
	fetcher := &fakeFetcher{fail: true}
	svc := NewService(fetcher, query.New[[]Point](time.Minute, time.Second))

	points := svc.Points(context.Background(), sfBounds(), Filters{})

	require.NotNil(t, points)
	assert.Empty(t, points, "traffic failures degrade to an empty set, never an error")
}

func TestServiceRefetchesAfterFailure(t *testing.T) {
	fetcher := &fakeFetcher{fail: true}
	svc := NewService(fetcher, query.New[[]Point](time.Minute, time.Second))

	svc.Points(context.Background(), sfBounds(), Filters{})
	fetcher.fail = false
	points := svc.Points(context.Background(), sfBounds(), Filters{})

	assert.Len(t, points, 1)
	assert.Equal(t, int64(2), atomic.LoadInt64(&fetcher.calls))
}
