package tvmaze

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Guilhem-Bonnet/episode-owl/internal/domain"
	"github.com/Guilhem-Bonnet/episode-owl/internal/ports"
)

func newTestClient(url string) *Client {
	return New().WithBaseURL(url).WithRequestDelay(0).WithBackoff(time.Millisecond).WithRetryAttempts(1)
}

func TestClient_Search(t *testing.T) {
	var gotQuery string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/search/shows", r.URL.Path)
		gotQuery = r.URL.Query().Get("q")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"score":0.9,"show":{"id":169,"name":"Breaking Bad","premiered":"2008-01-20","status":"Ended","network":{"name":"AMC"}}},
			{"score":0.5,"show":{"id":3,"name":"Breaking Boundaries","premiered":null,"status":"Running","network":null,"webChannel":{"name":"Netflix"}}},
			{"score":0.1,"show":{"id":0,"name":""}}
		]`))
	}))
	defer ts.Close()

	got, err := newTestClient(ts.URL).Search(context.Background(), "breaking bad")
	require.NoError(t, err)
	require.Equal(t, "breaking bad", gotQuery)
	require.Len(t, got, 2)
	require.Equal(t, domain.Candidate{ID: 169, Name: "Breaking Bad", Year: 2008, Status: "Ended", Network: "AMC"}, got[0])
	require.Equal(t, "Netflix", got[1].Network)
	require.Zero(t, got[1].Year)
}

func TestClient_Episodes(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/shows/169/episodes", r.URL.Path)
		_, _ = w.Write([]byte(`[
			{"id":1,"name":"Pilot","season":1,"number":1,"airdate":"2008-01-20","type":"regular"},
			{"id":2,"name":"Special","season":0,"number":null,"airdate":"2008-02-01","type":"insignificant_special"},
			{"id":3,"name":"TBA","season":2,"number":1,"airdate":"","type":"regular"}
		]`))
	}))
	defer ts.Close()

	eps, err := newTestClient(ts.URL).Episodes(context.Background(), 169)
	require.NoError(t, err)
	require.Len(t, eps, 2)
	require.Equal(t, domain.SeasonEpisode(1, 1), eps[0].Position())
	require.Equal(t, "Pilot", eps[0].Title)
	require.Equal(t, time.Date(2008, 1, 20, 0, 0, 0, 0, time.UTC), eps[0].AirDate)
	require.True(t, eps[1].AirDate.IsZero())
}

func TestClient_NotFound(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer ts.Close()

	_, err := newTestClient(ts.URL).Episodes(context.Background(), 1)
	require.ErrorIs(t, err, ports.ErrNotFound)
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer ts.Close()

	eps, err := newTestClient(ts.URL).Episodes(context.Background(), 1)
	require.NoError(t, err)
	require.Empty(t, eps)
	require.EqualValues(t, 2, calls.Load())
}

func TestClient_TransportErrorAfterRetries(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer ts.Close()

	_, err := newTestClient(ts.URL).WithRetryAttempts(2).Search(context.Background(), "x")
	require.ErrorIs(t, err, ports.ErrTransport)
	require.EqualValues(t, 3, calls.Load())
}

func TestClient_BadJSONIsTransportError(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{not json`))
	}))
	defer ts.Close()

	_, err := newTestClient(ts.URL).Episodes(context.Background(), 1)
	require.ErrorIs(t, err, ports.ErrTransport)
	require.EqualValues(t, 1, calls.Load())
}

func TestClient_NetworkErrorIsTransportError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := ts.URL
	ts.Close()

	_, err := newTestClient(url).WithRetryAttempts(0).Search(context.Background(), "x")
	require.ErrorIs(t, err, ports.ErrTransport)
}
