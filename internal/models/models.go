// package models defines the data model for the card deck generator
package models

import "strings"

// Year is a 4-digit release year such as "1975". The zero value is [UnknownYear].
type Year string

// UnknownYear marks a track whose release year could not be determined.
const UnknownYear Year = ""

// Known reports whether y holds a usable 4-digit year.
func (y Year) Known() bool {
	return y != UnknownYear
}

func (y Year) String() string {
	if !y.Known() {
		return "unknown"
	}
	return string(y)
}

// ParseYear truncates a release date ("1975-10-31", "1975-10", "1975") to its year.
//
// Anything that does not start with four ASCII digits yields [UnknownYear], as does
// "0000", which Spotify uses as a placeholder for missing dates.
func ParseYear(date string) Year {
	date = strings.TrimSpace(date)
	if len(date) < 4 {
		return UnknownYear
	}
	for _, r := range date[:4] {
		if r < '0' || r > '9' {
			return UnknownYear
		}
	}
	if date[:4] == "0000" {
		return UnknownYear
	}
	return Year(date[:4])
}

// EarliestYear returns the smallest known year among years, or [UnknownYear] if none is known.
func EarliestYear(years ...Year) Year {
	earliest := UnknownYear
	for _, y := range years {
		if !y.Known() {
			continue
		}
		if !earliest.Known() || y < earliest {
			earliest = y
		}
	}
	return earliest
}

// Track represents a playlist entry ready for printing.
type Track struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Artists []string `json:"artists"`
	Year    Year     `json:"year"`
}

// PrimaryArtist returns the first credited artist, or an empty string.
func (t Track) PrimaryArtist() string {
	if len(t.Artists) == 0 {
		return ""
	}
	return t.Artists[0]
}

// ArtistLine joins all artist names the way they are printed on the card front.
func (t Track) ArtistLine() string {
	return strings.Join(t.Artists, ", ")
}

// URI returns the Spotify URI used as the scannable payload for the track.
func (t Track) URI() string {
	return "spotify:track:" + t.ID
}

// Card is a [Track] placed on a deck page.
type Card struct {
	Track      Track  `json:"track"`
	Page       int    `json:"page"`        // 1-based sheet number
	Row        int    `json:"row"`         // 0-based row on the sheet
	Column     int    `json:"column"`      // 0-based column on the front side
	BackColumn int    `json:"back_column"` // column on the back side, mirrored for duplex printing
	Code       string `json:"code"`        // payload or image URL for the back side
	Owner      string `json:"owner,omitempty"`
}
