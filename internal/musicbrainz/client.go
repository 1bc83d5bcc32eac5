package musicbrainz

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/marvimarv/tunequest-card-creator/internal/shared"
)

const (
	DefaultBaseURL     = "https://musicbrainz.org/ws/2"
	DefaultMaxAttempts = 5
	DefaultCooldown    = 3000 * time.Millisecond
	DefaultSpacing     = 1100 * time.Millisecond
	DefaultTimeout     = 10 * time.Second

	searchLimit = 5
)

// ErrClosed is reported in [Result.Err] for lookups submitted after [Client.Close].
var ErrClosed = fmt.Errorf("musicbrainz client closed")

// Config configures a [Client].
//
// An empty BaseURL and a zero MaxAttempts or Timeout fall back to the package defaults.
// A zero Cooldown or Spacing disables that wait.
type Config struct {
	BaseURL     string
	UserAgent   string
	MaxAttempts int
	Cooldown    time.Duration
	Spacing     time.Duration
	Timeout     time.Duration
	HTTPClient  *http.Client
	Logger      *log.Logger
}

// ConfigFrom maps the [shared.MusicBrainzConfig] TOML section onto a client Config.
func ConfigFrom(c shared.MusicBrainzConfig, logger *log.Logger) Config {
	return Config{
		BaseURL:     c.BaseURL,
		UserAgent:   c.UserAgent,
		MaxAttempts: c.MaxAttempts,
		Cooldown:    c.Cooldown(),
		Spacing:     c.Spacing(),
		Timeout:     c.Timeout(),
		Logger:      logger,
	}
}

// Client looks up release years with MusicBrainz recording searches.
//
// All lookups are handed to one owner goroutine, which awaits the limiter before every
// outbound request, retries included. Call [Client.Close] to stop it.
type Client struct {
	baseURL     string
	userAgent   string
	maxAttempts int
	cooldown    time.Duration
	httpClient  *http.Client
	limiter     *rate.Limiter
	logger      *log.Logger

	jobs      chan job
	quit      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
	base      context.Context
	cancel    context.CancelFunc
}

type job struct {
	ctx   context.Context
	query Query
	reply chan Result
}

// NewClient starts the owner goroutine and returns a ready Client.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.Cooldown < 0 {
		cfg.Cooldown = 0
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard)
	}

	limit := rate.Inf
	if cfg.Spacing > 0 {
		limit = rate.Every(cfg.Spacing)
	}

	base, cancel := context.WithCancel(context.Background())
	c := &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		userAgent:   cfg.UserAgent,
		maxAttempts: cfg.MaxAttempts,
		cooldown:    cfg.Cooldown,
		httpClient:  cfg.HTTPClient,
		limiter:     rate.NewLimiter(limit, 1),
		logger:      shared.WithLogger(cfg.Logger, "component", "musicbrainz"),
		jobs:        make(chan job),
		quit:        make(chan struct{}),
		stopped:     make(chan struct{}),
		base:        base,
		cancel:      cancel,
	}

	go c.run()
	return c
}

// LookupYear searches for the recording and returns the earliest first-release year among
// the top candidates.
//
// It blocks until the owner goroutine has served every lookup queued ahead of this one.
// A cancelled ctx resolves to [TransientFailure].
func (c *Client) LookupYear(ctx context.Context, title, artist string) Result {
	j := job{ctx: ctx, query: Query{Title: title, Artist: artist}, reply: make(chan Result, 1)}

	select {
	case c.jobs <- j:
	case <-ctx.Done():
		return transient(0, 0, ctx.Err())
	case <-c.quit:
		return transient(0, 0, ErrClosed)
	}

	select {
	case r := <-j.reply:
		return r
	case <-ctx.Done():
		return transient(0, 0, ctx.Err())
	}
}

// Close stops the owner goroutine, aborting an in-flight lookup. It is safe to call more than once.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.quit)
		c.cancel()
	})
	<-c.stopped
}

func (c *Client) run() {
	defer close(c.stopped)
	for {
		select {
		case <-c.quit:
			return
		case j := <-c.jobs:
			j.reply <- c.resolve(j.ctx, j.query)
		}
	}
}

// retryState tracks one lookup. Pending is the only non-terminal state.
type retryState int

const (
	statePending retryState = iota
	stateResolved
	stateUnknown
	stateExhausted
)

// resolve drives the retry state machine for q until it reaches a terminal state.
func (c *Client) resolve(parent context.Context, q Query) Result {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()
	stop := context.AfterFunc(c.base, cancel)
	defer stop()

	logger := c.logger.With("track", q.Title, "artist", q.Artist)

	var (
		state    = statePending
		result   Result
		attempts int
	)

	for state == statePending {
		if err := ctx.Err(); err != nil {
			return transient(result.Status, attempts, err)
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return transient(result.Status, attempts, err)
		}

		attempts++
		resp, status, err := c.search(ctx, q)

		switch {
		case err == nil:
			if year := resp.earliestYear(); year.Known() {
				result, state = found(year, attempts), stateResolved
			} else {
				result, state = notFound(attempts), stateUnknown
			}
		case retryable(status, err):
			result = transient(status, attempts, err)
			if attempts >= c.maxAttempts {
				state = stateExhausted
				logger.Warn("retry budget exhausted", "attempts", attempts, "status", status, "err", err)
				break
			}
			logger.Debug("musicbrainz unavailable, cooling down", "attempt", attempts, "status", status, "cooldown", c.cooldown)
			if !sleep(ctx, c.cooldown) {
				return transient(status, attempts, ctx.Err())
			}
		default:
			result, state = hard(status, attempts, err), stateUnknown
			logger.Warn("musicbrainz request failed", "status", status, "err", err)
		}
	}

	logger.Debug("lookup resolved", "outcome", result.Outcome, "year", result.Year, "attempts", attempts)
	return result
}

// errUnavailable marks a 503 answer.
var errUnavailable = fmt.Errorf("%w: musicbrainz returned 503", shared.ErrServiceUnavailable)

// retryable reports whether a failed attempt should be retried after a cool-down:
// 503 answers and transport errors are, everything else is not.
func retryable(status int, err error) bool {
	if status == http.StatusServiceUnavailable {
		return true
	}
	return status == 0 && err != nil
}

// search performs one attempt. A zero status means no response arrived.
func (c *Client) search(ctx context.Context, q Query) (searchResponse, int, error) {
	var out searchResponse

	params := url.Values{}
	params.Set("query", q.String())
	params.Set("fmt", "json")
	params.Set("limit", fmt.Sprint(searchLimit))
	endpoint := c.baseURL + "/recording?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return out, http.StatusBadRequest, fmt.Errorf("failed to create musicbrainz request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return out, 0, fmt.Errorf("%w: %w", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusServiceUnavailable:
		io.Copy(io.Discard, resp.Body)
		return out, resp.StatusCode, errUnavailable
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return out, resp.StatusCode, fmt.Errorf("%w: musicbrainz returned %d: %s", shared.ErrAPIRequest, resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return out, http.StatusBadGateway, fmt.Errorf("failed to decode musicbrainz response: %w", err)
	}
	return out, resp.StatusCode, nil
}

// sleep waits for d or until ctx is done, reporting whether the full wait elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
