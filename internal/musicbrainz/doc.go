// Package musicbrainz looks up the original release year of a recording in the
// MusicBrainz web service.
//
// A [Client] owns a single goroutine that serves every lookup in arrival order, so
// all callers share one request spacing and one client identity. Lookups that hit
// 503 Service Unavailable or a network error are retried after a cool-down until the
// attempt budget runs out. Every lookup ends in a [Result] carrying one of four
// outcomes; the client never returns a Go error.
package musicbrainz
