// package services defines the collaborators the ingestion pipeline talks to over HTTP
//
// Spotify (playlist pages, per-track release dates), MusicBrainz (via the lookup proxy)
package services

import (
	"context"

	"github.com/marvimarv/tunequest-card-creator/internal/musicbrainz"
)

// Service is implemented by every HTTP collaborator.
type Service interface {
	// Name returns the name of the service (e.g., "Spotify", "MusicBrainz proxy")
	Name() string
}

// PlaylistSource pages through playlists and resolves the release date of a single track.
type PlaylistSource interface {
	Service

	// PlaylistItems returns one page of a playlist's items starting at offset.
	PlaylistItems(ctx context.Context, playlistID string, limit, offset int) (*PlaylistPage, error)

	// TrackReleaseDate returns the album release date of a track as Spotify reports it
	// ("1975-10-31", "1975-10" or "1975").
	TrackReleaseDate(ctx context.Context, trackID string) (string, error)
}

// YearLookup resolves the earliest release year of a recording.
//
// Implemented by [musicbrainz.Client] and [MusicBrainzProxy].
type YearLookup interface {
	LookupYear(ctx context.Context, title, artist string) musicbrainz.Result
}

var (
	_ PlaylistSource = (*SpotifyService)(nil)
	_ YearLookup     = (*MusicBrainzProxy)(nil)
	_ YearLookup     = (*musicbrainz.Client)(nil)
)
