// Lookup proxy client for GET /musicbrainz/year
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/marvimarv/tunequest-card-creator/internal/models"
	"github.com/marvimarv/tunequest-card-creator/internal/musicbrainz"
	"github.com/marvimarv/tunequest-card-creator/internal/shared"
)

// YearResponse is the body of a successful proxy answer. Year is nil when no candidate had a date.
type YearResponse struct {
	Year *string `json:"year"`
}

// ErrorResponse is the JSON error body of the proxy.
type ErrorResponse struct {
	Error string `json:"error"`
}

// MusicBrainzProxy implements [YearLookup] against a running lookup proxy.
type MusicBrainzProxy struct {
	baseURL    string
	httpClient *http.Client
	logger     *log.Logger
}

// NewMusicBrainzProxy creates a proxy client for baseURL, e.g. "http://localhost:3005".
func NewMusicBrainzProxy(baseURL string, client *http.Client, logger *log.Logger) *MusicBrainzProxy {
	if baseURL == "" {
		baseURL = "http://localhost:3005"
	}
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}

	return &MusicBrainzProxy{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
		logger:     shared.WithLogger(logger, "service", "musicbrainz-proxy"),
	}
}

func (p *MusicBrainzProxy) Name() string {
	return "MusicBrainz proxy"
}

// LookupYear asks the proxy for the earliest release year of title by artist. A single
// request is made; the proxy owns spacing and retries.
func (p *MusicBrainzProxy) LookupYear(ctx context.Context, title, artist string) musicbrainz.Result {
	query := url.Values{}
	query.Set("track", title)
	query.Set("artist", artist)
	fullURL := p.baseURL + "/musicbrainz/year?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return musicbrainz.Result{Outcome: musicbrainz.HardFailure, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.logger.Warn("lookup failed", "track", title, "err", err)
		return musicbrainz.Result{Outcome: musicbrainz.TransientFailure, Attempts: 1, Err: fmt.Errorf("%w: %w", shared.ErrAPIRequest, err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return musicbrainz.Result{Outcome: musicbrainz.TransientFailure, Status: resp.StatusCode, Attempts: 1, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		var yr YearResponse
		if err := json.Unmarshal(body, &yr); err != nil {
			return musicbrainz.Result{Outcome: musicbrainz.HardFailure, Status: resp.StatusCode, Attempts: 1, Err: fmt.Errorf("failed to decode response: %w", err)}
		}
		if yr.Year == nil {
			return musicbrainz.Result{Outcome: musicbrainz.NotFound, Status: resp.StatusCode, Attempts: 1}
		}
		year := models.ParseYear(*yr.Year)
		if !year.Known() {
			return musicbrainz.Result{Outcome: musicbrainz.NotFound, Status: resp.StatusCode, Attempts: 1}
		}
		return musicbrainz.Result{Outcome: musicbrainz.Found, Year: year, Status: resp.StatusCode, Attempts: 1}
	case resp.StatusCode == http.StatusInternalServerError:
		p.logger.Warn("lookup failed", "track", title, "status", resp.StatusCode, "body", proxyMessage(body))
		return musicbrainz.Result{
			Outcome:  musicbrainz.TransientFailure,
			Status:   resp.StatusCode,
			Attempts: 1,
			Err:      fmt.Errorf("%w: lookup failed: %s", shared.ErrServiceUnavailable, proxyMessage(body)),
		}
	default:
		p.logger.Warn("lookup rejected", "track", title, "status", resp.StatusCode, "body", proxyMessage(body))
		return musicbrainz.Result{
			Outcome:  musicbrainz.HardFailure,
			Status:   resp.StatusCode,
			Attempts: 1,
			Err:      &StatusError{Service: p.Name(), StatusCode: resp.StatusCode},
		}
	}
}

// proxyMessage extracts the error text from a JSON or plain-text proxy body.
func proxyMessage(body []byte) string {
	var er ErrorResponse
	if err := json.Unmarshal(body, &er); err == nil && er.Error != "" {
		return er.Error
	}
	return strings.TrimSpace(string(body))
}
