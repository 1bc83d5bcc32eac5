package musicbrainz

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/marvimarv/tunequest-card-creator/internal/shared"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
	)
}

const recordingsJSON = `{
	"count": 3,
	"recordings": [
		{"id": "r1", "title": "Yesterday", "score": 100, "first-release-date": "1985-06-01"},
		{"id": "r2", "title": "Yesterday", "score": 98, "first-release-date": "1965-08-06"},
		{"id": "r3", "title": "Yesterday", "score": 90, "first-release-date": ""}
	]
}`

func newTestClient(t *testing.T, url string, opts ...func(*Config)) *Client {
	t.Helper()
	cfg := Config{
		BaseURL:     url,
		UserAgent:   "tunequest-test/1.0 ( test@example.com )",
		MaxAttempts: 5,
		Cooldown:    5 * time.Millisecond,
		HTTPClient:  &http.Client{Timeout: 2 * time.Second},
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	c := NewClient(cfg)
	t.Cleanup(c.Close)
	return c
}

func TestLookupYear_Found(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/recording", r.URL.Path)
		assert.Equal(t, `recording:"Yesterday" AND artist:"The Beatles"`, r.URL.Query().Get("query"))
		assert.Equal(t, "json", r.URL.Query().Get("fmt"))
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		assert.Equal(t, "tunequest-test/1.0 ( test@example.com )", r.Header.Get("User-Agent"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(recordingsJSON))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	res := c.LookupYear(context.Background(), "Yesterday", "The Beatles")

	assert.Equal(t, Found, res.Outcome)
	assert.Equal(t, "1965", string(res.Year))
	assert.Equal(t, 1, res.Attempts)
	assert.Equal(t, http.StatusOK, res.Status)
	assert.True(t, res.Succeeded())
}

func TestLookupYear_NotFound(t *testing.T) {
	tc := []struct {
		name string
		body string
	}{
		{name: "no recordings", body: `{"count": 0, "recordings": []}`},
		{name: "no dates", body: `{"recordings": [{"id": "r1", "first-release-date": ""}, {"id": "r2"}]}`},
		{name: "placeholder date", body: `{"recordings": [{"id": "r1", "first-release-date": "0000"}]}`},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			res := newTestClient(t, srv.URL).LookupYear(context.Background(), "Song", "Artist")
			assert.Equal(t, NotFound, res.Outcome)
			assert.False(t, res.Year.Known())
			assert.True(t, res.Succeeded())
		})
	}
}

func TestLookupYear_RetriesUnavailable(t *testing.T) {
	t.Run("recovers after 503", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) <= 2 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			w.Write([]byte(recordingsJSON))
		}))
		defer srv.Close()

		res := newTestClient(t, srv.URL).LookupYear(context.Background(), "Yesterday", "The Beatles")
		assert.Equal(t, Found, res.Outcome)
		assert.Equal(t, 3, res.Attempts)
		assert.EqualValues(t, 3, calls.Load())
	})

	t.Run("exhausts retry budget", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		c := newTestClient(t, srv.URL, func(cfg *Config) { cfg.MaxAttempts = 4 })
		res := c.LookupYear(context.Background(), "Song", "Artist")

		assert.Equal(t, TransientFailure, res.Outcome)
		assert.Equal(t, 4, res.Attempts)
		assert.Equal(t, http.StatusServiceUnavailable, res.Status)
		assert.EqualValues(t, 4, calls.Load(), "exactly max attempts requests")
		assert.ErrorIs(t, res.Err, errUnavailable)
	})

	t.Run("cools down between attempts", func(t *testing.T) {
		var (
			mu    sync.Mutex
			times []time.Time
		)
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			times = append(times, time.Now())
			mu.Unlock()
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		c := newTestClient(t, srv.URL, func(cfg *Config) {
			cfg.MaxAttempts = 3
			cfg.Cooldown = 40 * time.Millisecond
		})
		res := c.LookupYear(context.Background(), "Song", "Artist")
		require.Equal(t, TransientFailure, res.Outcome)

		mu.Lock()
		defer mu.Unlock()
		require.Len(t, times, 3)
		for i := 1; i < len(times); i++ {
			assert.GreaterOrEqual(t, times[i].Sub(times[i-1]), 30*time.Millisecond)
		}
	})

	t.Run("spacing applies to retries", func(t *testing.T) {
		var (
			mu    sync.Mutex
			times []time.Time
		)
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			times = append(times, time.Now())
			mu.Unlock()
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		c := newTestClient(t, srv.URL, func(cfg *Config) {
			cfg.MaxAttempts = 4
			cfg.Cooldown = 0
			cfg.Spacing = 50 * time.Millisecond
		})
		res := c.LookupYear(context.Background(), "Song", "Artist")
		require.Equal(t, TransientFailure, res.Outcome)
		require.Equal(t, 4, res.Attempts)

		mu.Lock()
		defer mu.Unlock()
		require.Len(t, times, 4)
		for i := 1; i < len(times); i++ {
			assert.GreaterOrEqual(t, times[i].Sub(times[i-1]), 40*time.Millisecond,
				"attempts %d and %d are too close", i-1, i)
		}
	})

	t.Run("network errors are retried", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		url := srv.URL
		srv.Close()

		c := newTestClient(t, url, func(cfg *Config) { cfg.MaxAttempts = 2 })
		res := c.LookupYear(context.Background(), "Song", "Artist")

		assert.Equal(t, TransientFailure, res.Outcome)
		assert.Equal(t, 2, res.Attempts)
		assert.Zero(t, res.Status)
	})
}

func TestLookupYear_HardFailure(t *testing.T) {
	tc := []struct {
		name       string
		status     int
		body       string
		wantStatus int
	}{
		{name: "bad request", status: http.StatusBadRequest, body: "bad query", wantStatus: http.StatusBadRequest},
		{name: "rate limited", status: http.StatusTooManyRequests, wantStatus: http.StatusTooManyRequests},
		{name: "server error", status: http.StatusInternalServerError, wantStatus: http.StatusInternalServerError},
		{name: "malformed json", status: http.StatusOK, body: `{"recordings": [`, wantStatus: http.StatusBadGateway},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			res := newTestClient(t, srv.URL).LookupYear(context.Background(), "Song", "Artist")
			assert.Equal(t, HardFailure, res.Outcome)
			assert.Equal(t, tt.wantStatus, res.Status)
			assert.Equal(t, 1, res.Attempts)
			assert.EqualValues(t, 1, calls.Load(), "hard failures are not retried")
			assert.Error(t, res.Err)
		})
	}
}

func TestLookupYear_Spacing(t *testing.T) {
	var (
		mu    sync.Mutex
		times []time.Time
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		times = append(times, time.Now())
		mu.Unlock()
		w.Write([]byte(recordingsJSON))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, func(cfg *Config) { cfg.Spacing = 50 * time.Millisecond })

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res := c.LookupYear(context.Background(), "Yesterday", "The Beatles")
			assert.Equal(t, Found, res.Outcome)
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, times, 4)
	for i := 1; i < len(times); i++ {
		assert.GreaterOrEqual(t, times[i].Sub(times[i-1]), 40*time.Millisecond,
			"requests %d and %d are too close", i-1, i)
	}
}

func TestLookupYear_Cancellation(t *testing.T) {
	t.Run("cancelled before submit", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
		}))
		defer srv.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		res := newTestClient(t, srv.URL).LookupYear(ctx, "Song", "Artist")
		assert.Equal(t, TransientFailure, res.Outcome)
		assert.ErrorIs(t, res.Err, context.Canceled)
		assert.Zero(t, calls.Load())
	})

	t.Run("cancelled during cool-down", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		c := newTestClient(t, srv.URL, func(cfg *Config) { cfg.Cooldown = time.Minute })
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		start := time.Now()
		res := c.LookupYear(ctx, "Song", "Artist")
		assert.Equal(t, TransientFailure, res.Outcome)
		assert.Less(t, time.Since(start), 5*time.Second)
	})
}

func TestClose(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(recordingsJSON))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, UserAgent: "test"})
	c.Close()
	c.Close()

	res := c.LookupYear(context.Background(), "Song", "Artist")
	assert.Equal(t, TransientFailure, res.Outcome)
	assert.ErrorIs(t, res.Err, ErrClosed)
}

func TestQueryString(t *testing.T) {
	q := Query{Title: `Say "Hello"`, Artist: "Artist"}
	assert.Equal(t, `recording:"Say \"Hello\"" AND artist:"Artist"`, q.String())
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "found", Found.String())
	assert.Equal(t, "not_found", NotFound.String())
	assert.Equal(t, "transient_failure", TransientFailure.String())
	assert.Equal(t, "hard_failure", HardFailure.String())
	assert.Equal(t, "outcome(9)", Outcome(9).String())
}

func TestConfigFrom_Defaults(t *testing.T) {
	cfg := ConfigFrom(shared.DefaultConfig().MusicBrainz, nil)

	assert.Equal(t, DefaultBaseURL, cfg.BaseURL)
	assert.Equal(t, DefaultMaxAttempts, cfg.MaxAttempts)
	assert.Equal(t, DefaultCooldown, cfg.Cooldown)
	assert.Equal(t, DefaultSpacing, cfg.Spacing)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
}
