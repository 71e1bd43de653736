package events

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
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyUsesDayPrecisionAndLowercase(t *testing.T) {
	morning := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	evening := time.Date(2025, 6, 1, 21, 0, 0, 0, time.UTC)

	assert.Equal(t, Key("Mission District", &morning), Key("Mission District", &evening))
	assert.Equal(t, "events:mission district:2025-06-01", Key("Mission District", &morning))
	assert.Equal(t, "events:mission district:-", Key("Mission District", nil))
}

func TestClientWithoutKeyServesSampleEvents(t *testing.T) {
	client := NewClient(&config.EventsConfig{BaseURL: "http://unused", TimeoutSeconds: 5})

	events, err := client.FetchEvents(context.Background(), "San Francisco", nil)

	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "Street Food Festival", events[0].Title)
}

func TestClientNormalizesProviderEvents(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search.json", r.URL.Path)
		gotQuery = r.URL.Query().Get("q")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"events_results":[
			{"title":"Jazz Night","date":{"when":"Fri, Jun 6, 8 PM"},"address":["123 Fillmore St","San Francisco, CA"],"venue":{"name":"The Fillmore"},"link":"https://example.com/jazz"},
			{"title":"Morning Run","date":{"start_date":"Jun 7"}},
			{"date":{"when":"untitled, dropped"}}
		]}`))
	}))
	defer server.Close()

	client := NewClient(&config.EventsConfig{
		BaseURL:        server.URL,
		APIKey:         "test-key",
		TimeoutSeconds: 5,
		Location:       "San Francisco, California",
	})

	date := time.Date(2025, 6, 6, 0, 0, 0, 0, time.UTC)
	events, err := client.FetchEvents(context.Background(), "live music", &date)

	require.NoError(t, err)
	assert.Equal(t, "live music 2025-06-06", gotQuery, "the date narrows the search text")
	require.Len(t, events, 2, "events without a title are dropped")

	assert.Equal(t, "Jazz Night", events[0].Title)
	assert.Equal(t, "Fri, Jun 6, 8 PM", events[0].When)
	assert.Equal(t, "123 Fillmore St, San Francisco, CA", events[0].Address)
	assert.Equal(t, "The Fillmore", events[0].Venue)

	assert.Equal(t, "Jun 7", events[1].When, "start_date backfills a missing when")
}

func TestClientWrapsUpstreamFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewClient(&config.EventsConfig{BaseURL: server.URL, APIKey: "test-key", TimeoutSeconds: 5})

	_, err := client.FetchEvents(context.Background(), "live music", nil)

	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusBadGateway, appErr.Code)
}

type fakeEventsFetcher struct {
	calls      int64
	lastSearch string
	events     []Event
}

func (f *fakeEventsFetcher) FetchEvents(ctx context.Context, search string, date *time.Time) ([]Event, error) {
	atomic.AddInt64(&f.calls, 1)
	f.lastSearch = search
	return f.events, nil
}

func TestServiceFallsBackToDefaultQuery(t *testing.T) {
	fetcher := &fakeEventsFetcher{events: []Event{{Title: "Farmers Market"}}}
	svc := NewService(fetcher, query.New[[]Event](time.Minute, time.Second), "San Francisco")

	events, err := svc.Events(context.Background(), "   ", nil)

	require.NoError(t, err)
	assert.Len(t, events, 1)
	assert.Equal(t, "San Francisco", fetcher.lastSearch)
}

func TestServiceServesFreshSearchWithoutRefetch(t *testing.T) {
	fetcher := &fakeEventsFetcher{}
	svc := NewService(fetcher, query.New[[]Event](time.Minute, time.Second), "San Francisco")

	for i := 0; i < 3; i++ {
		events, err := svc.Events(context.Background(), "live music", nil)
		require.NoError(t, err)
		require.NotNil(t, events, "nil upstream results normalize to an empty slice")
	}

	assert.Equal(t, int64(1), atomic.LoadInt64(&fetcher.calls))
}
