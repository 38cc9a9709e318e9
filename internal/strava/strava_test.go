package strava

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/verte-zerg/pcrtt/internal/model"
	"github.com/verte-zerg/pcrtt/internal/segment"
)

const testToken = "secret-token"

type fakeAPI struct {
	efforts      map[string][]map[string]any
	athletes     map[string]map[string]any
	leaderboard  map[string]any
	athleteCalls atomic.Int32

	mu        sync.Mutex
	lastQuery map[string]string
	lastAuth  string
}

func (f *fakeAPI) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /segments/{id}/all_efforts", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		writeJSON(w, f.efforts[r.PathValue("id")])
	})
	mux.HandleFunc("GET /segments/{id}/leaderboard", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		writeJSON(w, f.leaderboard)
	})
	mux.HandleFunc("GET /athletes/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.athleteCalls.Add(1)
		a, ok := f.athletes[r.PathValue("id")]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			writeJSON(w, map[string]any{"message": "Record Not Found"})
			return
		}
		writeJSON(w, a)
	})
	return mux
}

func (f *fakeAPI) record(r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastAuth = r.Header.Get("Authorization")
	f.lastQuery = map[string]string{}
	for k, v := range r.URL.Query() {
		f.lastQuery[k] = v[0]
	}
}

func (f *fakeAPI) seen() (string, map[string]string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastAuth, f.lastQuery
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(context.Background(), testToken,
		WithBaseURL(srv.URL),
		WithTimeout(5*time.Second),
		WithLogger(zaptest.NewLogger(t)),
	)
}

func effortJSONFixture(athleteID, activityID int64, secs int, start string, prRank any) map[string]any {
	return map[string]any{
		"id":               activityID * 10,
		"elapsed_time":     secs,
		"start_date_local": start,
		"pr_rank":          prRank,
		"athlete":          map[string]any{"id": athleteID},
		"activity":         map[string]any{"id": activityID},
	}
}

func testWindow(t *testing.T) model.Window {
	t.Helper()
	w, err := model.ParseWindow("2017-05-27", "2017-05-29")
	require.NoError(t, err)
	return w
}

func TestSegmentEffortsSendsWindowAndToken(t *testing.T) {
	api := &fakeAPI{efforts: map[string][]map[string]any{
		"10014031": {effortJSONFixture(1, 100, 300, "2017-05-27T09:00:00Z", 1)},
	}}
	client := newTestClient(t, api.handler())

	efforts, err := client.SegmentEfforts(context.Background(), 10014031, testWindow(t), 50)
	require.NoError(t, err)

	auth, query := api.seen()
	assert.Equal(t, "Bearer "+testToken, auth)
	assert.Equal(t, "2017-05-27T00:00:00Z", query["start_date_local"])
	assert.Equal(t, "2017-05-29T23:59:59Z", query["end_date_local"])
	assert.Equal(t, "50", query["per_page"])

	require.Len(t, efforts, 1)
	assert.Equal(t, int64(1), efforts[0].AthleteID)
	assert.Equal(t, int64(100), efforts[0].ActivityID)
	assert.Equal(t, 300, efforts[0].ElapsedSeconds)
	assert.True(t, efforts[0].IsPersonalBest())
}

func TestPersonalBestRequiresRankOne(t *testing.T) {
	two, one := 2, 1
	assert.False(t, SegmentEffort{}.IsPersonalBest())
	assert.False(t, SegmentEffort{PRRank: &two}.IsPersonalBest())
	assert.True(t, SegmentEffort{PRRank: &one}.IsPersonalBest())
}

func TestErrorsAreTransportErrors(t *testing.T) {
	cases := []struct {
		name    string
		handler http.HandlerFunc
		status  int
		substr  string
	}{
		{
			name: "unauthorized",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				writeJSON(w, map[string]any{"message": "Authorization Error"})
			},
			status: http.StatusUnauthorized,
			substr: "check the API token",
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "boom", http.StatusBadGateway)
			},
			status: http.StatusBadGateway,
			substr: "boom",
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte("{not json"))
			},
			substr: "failed to decode response",
		},
		{
			name: "malformed date",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(w, []map[string]any{effortJSONFixture(1, 1, 1, "yesterday", nil)})
			},
			substr: "malformed start_date_local",
		},
		{
			name: "negative elapsed time",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(w, []map[string]any{effortJSONFixture(1, 1, -5, "2017-05-27T09:00:00Z", nil)})
			},
			substr: "malformed elapsed_time -5",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(t, tc.handler)
			_, err := client.SegmentEfforts(context.Background(), 1, testWindow(t), 0)

			var tErr *model.TransportError
			require.True(t, errors.As(err, &tErr), "expected TransportError, got %v", err)
			assert.Equal(t, tc.status, tErr.StatusCode)
			assert.Contains(t, err.Error(), tc.substr)
		})
	}
}

func TestUnreachableServerIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	client := New(context.Background(), testToken, WithBaseURL(base))
	_, err := client.Athlete(context.Background(), 1)
	var tErr *model.TransportError
	require.True(t, errors.As(err, &tErr))
	assert.Equal(t, "get athlete", tErr.Op)
}

func TestFetcherResolvesEachAthleteOnce(t *testing.T) {
	api := &fakeAPI{
		efforts: map[string][]map[string]any{
			"10014031": {
				effortJSONFixture(1, 100, 300, "2017-05-27T09:00:00Z", 1),
				effortJSONFixture(2, 101, 290, "2017-05-27T10:00:00Z", nil),
				effortJSONFixture(1, 102, 295, "2017-05-28T09:00:00Z", 2),
			},
			"10014001": {
				effortJSONFixture(2, 103, 600, "2017-05-28T11:00:00Z", 1),
			},
		},
		athletes: map[string]map[string]any{
			"1": {"id": 1, "firstname": "Alice", "lastname": "Smith", "sex": "F"},
			"2": {"id": 2, "firstname": "Bob", "lastname": "Jones", "sex": "M"},
		},
	}
	client := newTestClient(t, api.handler())
	resolver := NewResolver(client, nil, zaptest.NewLogger(t))
	fetcher := NewFetcher(client, resolver)

	table := segment.Table{
		{Label: "TT1", ID: 10014031, Points: 1},
		{Label: "TT2", ID: 10014001, Points: 2},
	}
	records, err := fetcher.AllSegments(context.Background(), table, testWindow(t), 0)
	require.NoError(t, err)

	assert.Equal(t, int32(2), api.athleteCalls.Load())
	assert.Equal(t, 2, resolver.Fetches())
	require.Len(t, records, 4)

	first := records[0]
	assert.Equal(t, "TT1", first.SegmentLabel)
	assert.Equal(t, "Alice Smith", first.AthleteKey)
	assert.Equal(t, "F", first.Gender)
	assert.True(t, first.IsPersonalBest)
	assert.Equal(t, "https://www.strava.com/activities/100", first.ActivityURL)
	assert.Equal(t, time.Date(2017, 5, 27, 9, 0, 0, 0, time.UTC), first.OccurredAt)

	assert.False(t, records[2].IsPersonalBest, "pr_rank 2 is not a PB")
	assert.Equal(t, "TT2", records[3].SegmentLabel)
	assert.Equal(t, "Bob Jones", records[3].AthleteKey)
}

func TestFetcherFailsWhenAthleteLookupFails(t *testing.T) {
	api := &fakeAPI{
		efforts: map[string][]map[string]any{
			"1": {effortJSONFixture(9, 100, 300, "2017-05-27T09:00:00Z", nil)},
		},
	}
	client := newTestClient(t, api.handler())
	fetcher := NewFetcher(client, NewResolver(client, nil, nil))

	records, err := fetcher.SegmentEfforts(context.Background(), segment.Adhoc(1), testWindow(t), 0)
	assert.Nil(t, records)
	var tErr *model.TransportError
	require.True(t, errors.As(err, &tErr))
	assert.Equal(t, http.StatusNotFound, tErr.StatusCode)
}

func TestLeaderboardLeavesMetadataEmpty(t *testing.T) {
	api := &fakeAPI{leaderboard: map[string]any{
		"entry_count": 2,
		"entries": []map[string]any{
			{"athlete_name": "Jim W.", "elapsed_time": 280, "start_date_local": "2017-10-07T08:00:00Z", "rank": 1},
			{"athlete_name": "Ann K.", "elapsed_time": 290, "start_date_local": "2017-10-02T08:00:00Z", "rank": 2},
		},
	}}
	client := newTestClient(t, api.handler())
	fetcher := NewFetcher(client, NewResolver(client, nil, nil))

	w, err := model.ParseWindow("2017-10-07", "2017-10-08")
	require.NoError(t, err)
	now := time.Date(2017, 10, 9, 12, 0, 0, 0, time.UTC)

	records, err := fetcher.Leaderboard(context.Background(), segment.Default()[0], w, 100, now)
	require.NoError(t, err)

	_, query := api.seen()
	assert.Equal(t, RangeThisMonth, query["date_range"])
	assert.Equal(t, "100", query["per_page"])
	require.Len(t, records, 2)
	for _, r := range records {
		assert.Empty(t, r.Gender)
		assert.Empty(t, r.ActivityURL)
		assert.False(t, r.IsPersonalBest)
		assert.Equal(t, "TT1", r.SegmentLabel)
	}
	assert.Equal(t, "Jim W.", records[0].AthleteKey)
	assert.Equal(t, int32(0), api.athleteCalls.Load())
}

func TestDateRangeFor(t *testing.T) {
	now := time.Date(2017, 10, 15, 0, 0, 0, 0, time.UTC)
	mk := func(start string) model.Window {
		w, err := model.ParseWindow(start, "2017-10-15")
		require.NoError(t, err)
		return w
	}
	assert.Equal(t, RangeThisMonth, DateRangeFor(mk("2017-10-01"), now))
	assert.Equal(t, RangeThisYear, DateRangeFor(mk("2017-05-27"), now))
	assert.Equal(t, RangeAllTime, DateRangeFor(mk("2016-12-31"), now))
}

type memCache struct {
	athletes map[int64]model.Athlete
	puts     int
}

func (m *memCache) GetAthlete(_ context.Context, id int64) (model.Athlete, bool, error) {
	a, ok := m.athletes[id]
	return a, ok, nil
}

func (m *memCache) PutAthlete(_ context.Context, a model.Athlete) error {
	m.athletes[a.ID] = a
	m.puts++
	return nil
}

type countingSource struct {
	calls int
	err   error
}

func (c *countingSource) Athlete(_ context.Context, id int64) (model.Athlete, error) {
	c.calls++
	if c.err != nil {
		return model.Athlete{}, c.err
	}
	return model.Athlete{ID: id, FirstName: "Fetched", LastName: "Rider"}, nil
}

func TestResolverConsultsCacheBeforeSource(t *testing.T) {
	cache := &memCache{athletes: map[int64]model.Athlete{
		7: {ID: 7, FirstName: "Cached", LastName: "Rider"},
	}}
	src := &countingSource{}
	r := NewResolver(src, cache, zaptest.NewLogger(t))

	a, err := r.Resolve(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "Cached Rider", a.DisplayName())
	assert.Equal(t, 0, src.calls)

	for i := 0; i < 3; i++ {
		a, err = r.Resolve(context.Background(), 8)
		require.NoError(t, err)
	}
	assert.Equal(t, "Fetched Rider", a.DisplayName())
	assert.Equal(t, 1, src.calls)
	assert.Equal(t, 1, cache.puts)
	assert.Contains(t, cache.athletes, int64(8))
}

func TestResolverDoesNotRememberFailures(t *testing.T) {
	src := &countingSource{err: errors.New("down")}
	r := NewResolver(src, nil, nil)

	_, err := r.Resolve(context.Background(), 1)
	require.Error(t, err)
	_, err = r.Resolve(context.Background(), 1)
	require.Error(t, err)
	assert.Equal(t, 2, src.calls)
	assert.Equal(t, 0, r.Fetches())
}
