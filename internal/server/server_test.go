package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marvimarv/tunequest-card-creator/internal/formatter"
	"github.com/marvimarv/tunequest-card-creator/internal/musicbrainz"
	"github.com/marvimarv/tunequest-card-creator/internal/services"
	"github.com/marvimarv/tunequest-card-creator/internal/tasks"
	th "github.com/marvimarv/tunequest-card-creator/internal/testing"
)

func newTestServer(t *testing.T, opts Options) *httptest.Server {
	t.Helper()
	srv, err := New(opts)
	require.NoError(t, err)
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	return ts
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestNew_RequiresLookup(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)
}

func TestYearHandler(t *testing.T) {
	lookup := &th.MockYearLookup{Results: map[string]musicbrainz.Result{
		"Yesterday":  th.FoundYear("1965"),
		"Rate Limit": {Outcome: musicbrainz.HardFailure, Status: http.StatusTooManyRequests, Attempts: 1},
		"Garbage":    {Outcome: musicbrainz.HardFailure, Attempts: 1},
		"Down":       {Outcome: musicbrainz.TransientFailure, Status: http.StatusServiceUnavailable, Attempts: 5},
	}}
	ts := newTestServer(t, Options{Lookup: lookup})

	tc := []struct {
		name        string
		query       string
		status      int
		body        string
		contentType string
	}{
		{name: "found", query: "track=Yesterday&artist=The+Beatles", status: 200, body: `{"year":"1965"}`, contentType: "application/json"},
		{name: "not found", query: "track=Unknown&artist=Nobody", status: 200, body: `{"year":null}`, contentType: "application/json"},
		{name: "missing artist", query: "track=Yesterday", status: 400, body: `{"error":"Missing track or artist query parameter."}`, contentType: "application/json"},
		{name: "blank track", query: "track=%20&artist=A", status: 400, body: `{"error":"Missing track or artist query parameter."}`, contentType: "application/json"},
		{name: "upstream status passed through", query: "track=Rate+Limit&artist=A", status: 429, body: "MusicBrainz API error: Too Many Requests", contentType: "text/plain"},
		{name: "unreadable upstream answer", query: "track=Garbage&artist=A", status: 502, body: "MusicBrainz API error: Bad Gateway", contentType: "text/plain"},
		{name: "retries exhausted", query: "track=Down&artist=A", status: 500, body: `{"error":"Failed to fetch from MusicBrainz after multiple retries."}`, contentType: "application/json"},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := get(t, ts.URL+"/musicbrainz/year?"+tt.query)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.body, strings.TrimSpace(body))
			assert.Contains(t, resp.Header.Get("Content-Type"), tt.contentType)
		})
	}

	assert.Equal(t, 5, lookup.Calls(), "invalid requests must not reach the lookup client")
}

func TestYearHandler_Cache(t *testing.T) {
	lookup := &th.MockYearLookup{Results: map[string]musicbrainz.Result{
		"Yesterday": th.FoundYear("1965"),
		"Down":      {Outcome: musicbrainz.TransientFailure, Attempts: 5},
	}}
	registry := prometheus.NewRegistry()
	ts := newTestServer(t, Options{Lookup: lookup, CacheTTL: time.Minute, Registry: registry})

	for range 3 {
		resp, body := get(t, ts.URL+"/musicbrainz/year?track=Yesterday&artist=The+Beatles")
		assert.Equal(t, 200, resp.StatusCode)
		assert.JSONEq(t, `{"year":"1965"}`, body)
	}
	assert.Equal(t, 1, lookup.Calls())

	for range 2 {
		resp, _ := get(t, ts.URL+"/musicbrainz/year?track=Down&artist=A")
		assert.Equal(t, 500, resp.StatusCode)
	}
	assert.Equal(t, 3, lookup.Calls(), "failures must not be cached")

	_, metrics := get(t, ts.URL+"/metrics")
	assert.Contains(t, metrics, "tunequest_lookup_cache_hits_total 2")
	assert.Contains(t, metrics, `tunequest_lookups_total{outcome="found"} 1`)
	assert.Contains(t, metrics, `tunequest_lookups_total{outcome="transient_failure"} 2`)
}

func TestYearHandler_ClientGone(t *testing.T) {
	lookup := &th.MockYearLookup{Results: map[string]musicbrainz.Result{
		"Down": {Outcome: musicbrainz.TransientFailure, Attempts: 1, Err: context.Canceled},
	}}
	srv, err := New(Options{Lookup: lookup, Registry: prometheus.NewRegistry()})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodGet, "/musicbrainz/year?track=Down&artist=A", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, 1, lookup.Calls())
	assert.Zero(t, rec.Body.Len(), "no answer for a client that went away")

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.NotContains(t, rec.Body.String(), `tunequest_lookups_total{outcome="transient_failure"}`)
}

func TestMiddleware(t *testing.T) {
	lookup := &th.MockYearLookup{}
	ts := newTestServer(t, Options{Lookup: lookup, CORSOrigin: "https://tunequest.example"})

	t.Run("CORS And Request ID", func(t *testing.T) {
		resp, _ := get(t, ts.URL+"/musicbrainz/year?track=A&artist=B")
		assert.Equal(t, "https://tunequest.example", resp.Header.Get("Access-Control-Allow-Origin"))
		assert.Len(t, resp.Header.Get(RequestIDHeader), 36)
	})

	t.Run("Preflight", func(t *testing.T) {
		before := lookup.Calls()
		req, err := http.NewRequest(http.MethodOptions, ts.URL+"/musicbrainz/year", nil)
		require.NoError(t, err)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()

		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		assert.Equal(t, "GET, OPTIONS", resp.Header.Get("Access-Control-Allow-Methods"))
		assert.Equal(t, before, lookup.Calls())
	})

	t.Run("Method Not Allowed", func(t *testing.T) {
		resp, err := http.Post(ts.URL+"/musicbrainz/year?track=A&artist=B", "text/plain", nil)
		require.NoError(t, err)
		resp.Body.Close()

		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
		assert.Equal(t, http.MethodGet, resp.Header.Get("Allow"))
		assert.NotEmpty(t, resp.Header.Get("Access-Control-Allow-Origin"))
	})

	t.Run("Health", func(t *testing.T) {
		resp, body := get(t, ts.URL+"/healthz")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.JSONEq(t, `{"status":"ok"}`, body)
	})
}

func TestRecover(t *testing.T) {
	router := NewBasicRouter()
	router.Use(Recover(th.DiscardLogger()))
	router.Handle(http.MethodGet, "/boom", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Internal server error."}`, rec.Body.String())
}

func TestRouter_MiddlewareOrder(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	router := NewBasicRouter()
	router.Use(mark("first"), mark("second"))
	router.Handle(http.MethodGet, "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	}))

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, []string{"first", "second", "handler"}, order)
}

// TestProxyRoundTrip runs the proxy client against the proxy server against a fake MusicBrainz.
func TestProxyRoundTrip(t *testing.T) {
	var upstreamCalls atomic.Int32
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upstreamCalls.Add(1)
		if strings.Contains(r.URL.Query().Get("query"), "Down") {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"count":2,"recordings":[
			{"id":"a","first-release-date":"1987-03-09"},
			{"id":"b","first-release-date":"1965-08-06"}
		]}`)
	}))
	defer upstream.Close()

	client := musicbrainz.NewClient(musicbrainz.Config{
		BaseURL:     upstream.URL,
		UserAgent:   "tunequest-test/1.0 ( test@example.com )",
		MaxAttempts: 2,
		Cooldown:    time.Millisecond,
	})
	defer client.Close()

	ts := newTestServer(t, Options{Lookup: client})
	proxy := services.NewMusicBrainzProxy(ts.URL+"/", nil, nil)

	res := proxy.LookupYear(context.Background(), "Yesterday", "The Beatles")
	assert.Equal(t, musicbrainz.Found, res.Outcome)
	assert.Equal(t, "1965", string(res.Year))

	res = proxy.LookupYear(context.Background(), "Down", "The Beatles")
	assert.Equal(t, musicbrainz.TransientFailure, res.Outcome)
	assert.Equal(t, int32(3), upstreamCalls.Load())
}

func TestIngestStream(t *testing.T) {
	items := []services.PlaylistItem{
		th.Item("t1", "Yesterday - Remastered 2009", "1965-08-06", "The Beatles"),
		{},
		th.Item("t2", "Wonderwall", "1995-10-02", "Oasis"),
	}
	source := &th.MockPlaylistSource{Pages: th.Pages(items, 50), ReleaseDates: map[string]string{}}
	ingester := tasks.NewIngester(source, tasks.NewReconciler(source, nil, 0, nil), tasks.IngesterOpts{})

	ts := newTestServer(t, Options{
		Lookup:   &th.MockYearLookup{},
		Ingester: ingester,
		Deck:     formatter.DeckOptions{Owner: "Marvin", CodeType: formatter.CodeSpotify},
	})
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ingest/ws"

	t.Run("Streams Progress And Deck", func(t *testing.T) {
		conn, _, err := websocket.DefaultDialer.Dial(wsURL+"?url=https://open.spotify.com/playlist/abc123", nil)
		require.NoError(t, err)
		defer conn.Close()

		var frames []IngestMessage
		for {
			var msg IngestMessage
			_, data, err := conn.ReadMessage()
			if err != nil {
				break
			}
			require.NoError(t, json.Unmarshal(data, &msg))
			frames = append(frames, msg)
		}

		require.NotEmpty(t, frames)
		final := frames[len(frames)-1]
		require.Equal(t, tasks.IngestDone, final.Phase, "final frame: %+v", final)
		require.NotNil(t, final.Deck)
		assert.Equal(t, "abc123", final.Deck.PlaylistID)
		assert.Equal(t, "Marvin", final.Deck.Owner)
		require.Len(t, final.Deck.Cards, 2)
		assert.Equal(t, "Yesterday", final.Deck.Cards[0].Track.Title)

		var tracks int
		for _, f := range frames[:len(frames)-1] {
			if f.Phase == tasks.ReconcileTrack {
				require.NotNil(t, f.Track)
				tracks++
			}
		}
		assert.Equal(t, 2, tracks)
	})

	t.Run("Rejects Invalid URL", func(t *testing.T) {
		_, resp, err := websocket.DefaultDialer.Dial(wsURL+"?url=https://example.com/abc", nil)
		require.Error(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}
