// Package services implements the HTTP collaborators of the card creator.
//
// # Spotify
//
// [SpotifyService] reads playlist pages and single tracks from the Spotify Web API. It
// authenticates with the client-credentials grant from [clientcredentials.Config], or with a
// static access token from the config when one is set. No user login is involved, so the
// service can only read public and collaborative playlists.
//
// Playlist pages are requested with a field mask so each item carries only the track id,
// name, artist names and album release date.
//
// # MusicBrainz proxy
//
// [MusicBrainzProxy] speaks to a running `tunequest serve` instance over
// GET /musicbrainz/year and maps its answers onto [musicbrainz.Result]:
//   - 200 with a year : [musicbrainz.Found]
//   - 200 with null : [musicbrainz.NotFound]
//   - 500 : [musicbrainz.TransientFailure], the proxy already spent its retry budget
//   - any other status : [musicbrainz.HardFailure]
//   - transport errors : [musicbrainz.TransientFailure]
//
// The proxy serializes requests itself, so the client never waits or retries.
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrMissingCredentials] : neither client credentials nor an access token configured
//   - [shared.ErrAPIRequest] : HTTP request failed or returned a non-2xx status
//   - [shared.ErrTrackNotFound] : Spotify answered 404 for a track
package services
