// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/marvimarv/tunequest-card-creator/internal/models"
	"github.com/marvimarv/tunequest-card-creator/internal/musicbrainz"
	"github.com/marvimarv/tunequest-card-creator/internal/services"
)

// Item builds a playlist item with a single album release date.
func Item(id, name, releaseDate string, artists ...string) services.PlaylistItem {
	tr := &services.SpotifyTrack{ID: id, Name: name, Album: services.SpotifyAlbum{ReleaseDate: releaseDate}}
	for _, a := range artists {
		tr.Artists = append(tr.Artists, services.SpotifyArtist{Name: a})
	}
	return services.PlaylistItem{Track: tr}
}

// Pages splits items into cursor-linked pages of pageSize, keyed by offset.
func Pages(items []services.PlaylistItem, pageSize int) map[int]*services.PlaylistPage {
	pages := map[int]*services.PlaylistPage{}
	for offset := 0; offset == 0 || offset < len(items); offset += pageSize {
		end := min(offset+pageSize, len(items))
		page := &services.PlaylistPage{Items: items[offset:end], Limit: pageSize, Offset: offset}
		if end < len(items) {
			next := fmt.Sprintf("https://api.spotify.com/v1/playlists/x/tracks?offset=%d", end)
			page.Next = &next
		}
		pages[offset] = page
	}
	return pages
}

// MockPlaylistSource is a test double for [services.PlaylistSource].
type MockPlaylistSource struct {
	mu sync.Mutex

	Pages        map[int]*services.PlaylistPage // keyed by offset
	ReleaseDates map[string]string              // keyed by track id
	PageErr      map[int]error                  // keyed by offset
	TrackErr     map[string]error               // keyed by track id

	// OnTrack, when set, runs at the start of every TrackReleaseDate call.
	OnTrack func(trackID string)

	PageCalls  []int
	TrackCalls []string
}

func (m *MockPlaylistSource) Name() string { return "mock" }

func (m *MockPlaylistSource) PlaylistItems(ctx context.Context, playlistID string, limit, offset int) (*services.PlaylistPage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PageCalls = append(m.PageCalls, offset)

	if err := m.PageErr[offset]; err != nil {
		return nil, err
	}
	page, ok := m.Pages[offset]
	if !ok {
		return nil, fmt.Errorf("no page at offset %d", offset)
	}
	return page, nil
}

func (m *MockPlaylistSource) TrackReleaseDate(ctx context.Context, trackID string) (string, error) {
	if m.OnTrack != nil {
		m.OnTrack(trackID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.TrackCalls = append(m.TrackCalls, trackID)

	if err := m.TrackErr[trackID]; err != nil {
		return "", err
	}
	return m.ReleaseDates[trackID], nil
}

// Calls returns the number of page and track requests made so far.
func (m *MockPlaylistSource) Calls() (pages, tracks int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.PageCalls), len(m.TrackCalls)
}

// MockYearLookup is a test double for [services.YearLookup]. Titles without an entry resolve to NotFound.
type MockYearLookup struct {
	mu      sync.Mutex
	Results map[string]musicbrainz.Result // keyed by title
	Queries []musicbrainz.Query
}

func (m *MockYearLookup) LookupYear(ctx context.Context, title, artist string) musicbrainz.Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Queries = append(m.Queries, musicbrainz.Query{Title: title, Artist: artist})

	if r, ok := m.Results[title]; ok {
		return r
	}
	return musicbrainz.Result{Outcome: musicbrainz.NotFound, Attempts: 1}
}

// Calls returns the number of lookups made so far.
func (m *MockYearLookup) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Queries)
}

// FoundYear is a Found result for year.
func FoundYear(year string) musicbrainz.Result {
	return musicbrainz.Result{Outcome: musicbrainz.Found, Year: models.Year(year), Status: 200, Attempts: 1}
}

// DiscardLogger returns a logger that writes nowhere.
func DiscardLogger() *log.Logger {
	return log.New(io.Discard)
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
