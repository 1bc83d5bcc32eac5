package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/marvimarv/tunequest-card-creator/internal/musicbrainz"
	"github.com/marvimarv/tunequest-card-creator/internal/shared"
)

func TestMusicBrainzProxy(t *testing.T) {
	tc := []struct {
		name        string
		status      int
		body        string
		wantOutcome musicbrainz.Outcome
		wantYear    string
		wantErr     error
	}{
		{name: "year found", status: http.StatusOK, body: `{"year":"1965"}`, wantOutcome: musicbrainz.Found, wantYear: "1965"},
		{name: "null year", status: http.StatusOK, body: `{"year":null}`, wantOutcome: musicbrainz.NotFound},
		{name: "garbage year", status: http.StatusOK, body: `{"year":"n/a"}`, wantOutcome: musicbrainz.NotFound},
		{name: "malformed body", status: http.StatusOK, body: `{"year":`, wantOutcome: musicbrainz.HardFailure},
		{
			name:        "retries exhausted",
			status:      http.StatusInternalServerError,
			body:        `{"error":"Failed to fetch from MusicBrainz after multiple retries."}`,
			wantOutcome: musicbrainz.TransientFailure,
			wantErr:     shared.ErrServiceUnavailable,
		},
		{
			name:        "upstream rejected",
			status:      http.StatusBadRequest,
			body:        "MusicBrainz API error: Bad Request",
			wantOutcome: musicbrainz.HardFailure,
			wantErr:     shared.ErrAPIRequest,
		},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/musicbrainz/year" {
					t.Errorf("unexpected path: %s", r.URL.Path)
				}
				if r.URL.Query().Get("track") != "Yesterday" || r.URL.Query().Get("artist") != "The Beatles" {
					t.Errorf("unexpected query: %s", r.URL.RawQuery)
				}
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			proxy := NewMusicBrainzProxy(srv.URL+"/", srv.Client(), nil)
			res := proxy.LookupYear(context.Background(), "Yesterday", "The Beatles")

			if res.Outcome != tt.wantOutcome {
				t.Errorf("Outcome = %v, want %v", res.Outcome, tt.wantOutcome)
			}
			if string(res.Year) != tt.wantYear {
				t.Errorf("Year = %q, want %q", res.Year, tt.wantYear)
			}
			if res.Status != tt.status {
				t.Errorf("Status = %d, want %d", res.Status, tt.status)
			}
			if tt.wantErr != nil && !errors.Is(res.Err, tt.wantErr) {
				t.Errorf("Err = %v, want %v", res.Err, tt.wantErr)
			}
		})
	}

	t.Run("unreachable proxy", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		url := srv.URL
		srv.Close()

		res := NewMusicBrainzProxy(url, nil, nil).LookupYear(context.Background(), "Song", "Artist")
		if res.Outcome != musicbrainz.TransientFailure {
			t.Errorf("Outcome = %v, want transient failure", res.Outcome)
		}
		if !errors.Is(res.Err, shared.ErrAPIRequest) {
			t.Errorf("Err = %v, want ErrAPIRequest", res.Err)
		}
	})

	t.Run("error message", func(t *testing.T) {
		if got := proxyMessage([]byte(`{"error":"boom"}`)); got != "boom" {
			t.Errorf("proxyMessage() = %q, want boom", got)
		}
		if got := proxyMessage([]byte(" plain text \n")); got != "plain text" {
			t.Errorf("proxyMessage() = %q, want plain text", got)
		}
	})
}
