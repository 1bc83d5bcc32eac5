package musicbrainz

import (
	"fmt"

	"github.com/marvimarv/tunequest-card-creator/internal/models"
)

// searchResponse is the subset of the recording search payload the client reads.
type searchResponse struct {
	Count      int         `json:"count"`
	Recordings []recording `json:"recordings"`
}

type recording struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	Score            int    `json:"score"`
	FirstReleaseDate string `json:"first-release-date"`
}

// earliestYear returns the smallest first-release year among the candidates.
func (s searchResponse) earliestYear() models.Year {
	years := make([]models.Year, 0, len(s.Recordings))
	for _, r := range s.Recordings {
		years = append(years, models.ParseYear(r.FirstReleaseDate))
	}
	return models.EarliestYear(years...)
}

// Query identifies the recording to look up.
type Query struct {
	Title  string
	Artist string
}

// String renders q in Lucene syntax: recording:"<title>" AND artist:"<artist>".
func (q Query) String() string {
	return fmt.Sprintf("recording:%q AND artist:%q", q.Title, q.Artist)
}
