// Spotify API implementation of [PlaylistSource]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/marvimarv/tunequest-card-creator/internal/shared"
)

const (
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"
)

// PlaylistFields is the field mask sent with every playlist page request.
const PlaylistFields = "offset,limit,next,items(track(id,name,artists(name),album(release_date)))"

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Artists []SpotifyArtist `json:"artists"`
	Album   SpotifyAlbum    `json:"album"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ReleaseDate string `json:"release_date"`
}

// ArtistNames returns the credited artist names in order.
func (t SpotifyTrack) ArtistNames() []string {
	names := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		names = append(names, a.Name)
	}
	return names
}

// PlaylistItem is a single playlist entry. Track is nil for removed or local tracks.
type PlaylistItem struct {
	Track *SpotifyTrack `json:"track"`
}

// PlaylistPage represents a paginated response of playlist items.
type PlaylistPage struct {
	Items  []PlaylistItem `json:"items"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
	Next   *string        `json:"next"`
}

// StatusError reports a non-2xx answer. It matches [shared.ErrAPIRequest] with [errors.Is].
type StatusError struct {
	Service    string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s API error: status %d", e.Service, e.StatusCode)
}

func (e *StatusError) Unwrap() error {
	return shared.ErrAPIRequest
}

// SpotifyService implements [PlaylistSource] against the Spotify Web API.
type SpotifyService struct {
	baseURL    string
	market     string
	httpClient *http.Client
	logger     *log.Logger
}

// SpotifyOption customizes a [SpotifyService].
type SpotifyOption func(*spotifyOptions)

type spotifyOptions struct {
	baseURL  string
	tokenURL string
	logger   *log.Logger
}

// WithSpotifyBaseURL points the service at another API root, e.g. a test server.
func WithSpotifyBaseURL(u string) SpotifyOption {
	return func(o *spotifyOptions) { o.baseURL = u }
}

// WithSpotifyTokenURL overrides the client-credentials token endpoint.
func WithSpotifyTokenURL(u string) SpotifyOption {
	return func(o *spotifyOptions) { o.tokenURL = u }
}

// WithSpotifyLogger sets the logger used for request tracing.
func WithSpotifyLogger(l *log.Logger) SpotifyOption {
	return func(o *spotifyOptions) { o.logger = l }
}

// NewSpotifyService creates a Spotify service for the given market.
//
// A configured access token is used as-is; otherwise client id and secret are exchanged
// for app tokens on demand, refreshed by [oauth2] when they expire.
func NewSpotifyService(ctx context.Context, creds shared.SpotifyConfig, market string, opts ...SpotifyOption) (*SpotifyService, error) {
	o := spotifyOptions{baseURL: spotifyBaseURL, tokenURL: spotifyTokenURL}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = log.New(io.Discard)
	}

	var client *http.Client
	switch {
	case creds.AccessToken != "":
		client = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: creds.AccessToken}))
	case creds.ClientID != "" && creds.ClientSecret != "":
		cc := &clientcredentials.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			TokenURL:     o.tokenURL,
		}
		client = cc.Client(ctx)
	case creds.ClientID == "":
		return nil, fmt.Errorf("%w: missing spotify client_id", shared.ErrMissingCredentials)
	default:
		return nil, fmt.Errorf("%w: missing spotify client_secret", shared.ErrMissingCredentials)
	}

	return &SpotifyService{
		baseURL:    o.baseURL,
		market:     market,
		httpClient: client,
		logger:     shared.WithLogger(o.logger, "service", "spotify"),
	}, nil
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// doRequest performs an authenticated GET request to the Spotify API and decodes the JSON body into result.
func (s *SpotifyService) doRequest(ctx context.Context, endpoint string, query url.Values, result any) error {
	apiURL := s.baseURL + endpoint
	if len(query) > 0 {
		apiURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	s.logger.Debug("spotify request", "endpoint", endpoint, "status", resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Service: s.Name(), StatusCode: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("%w: failed to decode response: %w", shared.ErrAPIRequest, err)
	}
	return nil
}

// PlaylistItems retrieves one page of a playlist, restricted to [PlaylistFields].
func (s *SpotifyService) PlaylistItems(ctx context.Context, playlistID string, limit, offset int) (*PlaylistPage, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	query := url.Values{}
	query.Set("market", s.market)
	query.Set("fields", PlaylistFields)
	query.Set("limit", fmt.Sprint(limit))
	query.Set("offset", fmt.Sprint(offset))

	var page PlaylistPage
	endpoint := fmt.Sprintf("/playlists/%s/tracks", url.PathEscape(playlistID))
	if err := s.doRequest(ctx, endpoint, query, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Track retrieves a single track by ID.
func (s *SpotifyService) Track(ctx context.Context, trackID string) (*SpotifyTrack, error) {
	query := url.Values{}
	query.Set("market", s.market)

	var track SpotifyTrack
	endpoint := fmt.Sprintf("/tracks/%s", url.PathEscape(trackID))
	if err := s.doRequest(ctx, endpoint, query, &track); err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", shared.ErrTrackNotFound, trackID)
		}
		return nil, err
	}
	return &track, nil
}

// TrackReleaseDate returns the album release date of a track.
func (s *SpotifyService) TrackReleaseDate(ctx context.Context, trackID string) (string, error) {
	track, err := s.Track(ctx, trackID)
	if err != nil {
		return "", err
	}
	return track.Album.ReleaseDate, nil
}
