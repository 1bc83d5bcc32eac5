package formatter

import (
	"fmt"
	"strings"

	"github.com/marvimarv/tunequest-card-creator/internal/models"
	"github.com/marvimarv/tunequest-card-creator/internal/shared"
)

// Sheet layout: 3 columns by 4 rows.
const (
	Columns      = 3
	Rows         = 4
	CardsPerPage = Columns * Rows
)

const scannablesURL = "https://scannables.scdn.co/uri/plain/jpeg/FFFFFF/black/320/"

// CodeType selects what is printed on the back of a card.
type CodeType string

const (
	// CodeQR encodes the track URI as a QR payload.
	CodeQR CodeType = "qr"
	// CodeSpotify links to Spotify's own scannable code image for the track.
	CodeSpotify CodeType = "spotify"
)

// ParseCodeType validates a code type from config or a flag. The empty string selects [CodeQR].
func ParseCodeType(s string) (CodeType, error) {
	switch CodeType(strings.ToLower(strings.TrimSpace(s))) {
	case "", CodeQR:
		return CodeQR, nil
	case CodeSpotify:
		return CodeSpotify, nil
	default:
		return "", fmt.Errorf("%w: code type must be qr or spotify, got %q", shared.ErrInvalidFlag, s)
	}
}

// Code returns the back-side payload for t.
func (c CodeType) Code(t models.Track) string {
	if c == CodeSpotify {
		return scannablesURL + t.URI()
	}
	return t.URI()
}

// Deck is a printable set of cards laid out on sheets.
type Deck struct {
	PlaylistID string        `json:"playlist_id,omitempty"`
	Owner      string        `json:"owner,omitempty"`
	CodeType   CodeType      `json:"code_type"`
	Pages      int           `json:"pages"`
	Cards      []models.Card `json:"cards"`
}

// DeckOptions configures [BuildDeck].
type DeckOptions struct {
	PlaylistID string
	Owner      string
	CodeType   CodeType
}

// BuildDeck lays tracks out in order, twelve per sheet. On the back side each row is
// mirrored so a card's code lands behind its front when the sheet is printed duplex.
func BuildDeck(tracks []models.Track, opts DeckOptions) *Deck {
	if opts.CodeType == "" {
		opts.CodeType = CodeQR
	}

	deck := &Deck{
		PlaylistID: opts.PlaylistID,
		Owner:      opts.Owner,
		CodeType:   opts.CodeType,
		Pages:      (len(tracks) + CardsPerPage - 1) / CardsPerPage,
		Cards:      make([]models.Card, 0, len(tracks)),
	}

	for i, t := range tracks {
		slot := i % CardsPerPage
		column := slot % Columns
		deck.Cards = append(deck.Cards, models.Card{
			Track:      t,
			Page:       i/CardsPerPage + 1,
			Row:        slot / Columns,
			Column:     column,
			BackColumn: Columns - 1 - column,
			Code:       opts.CodeType.Code(t),
			Owner:      opts.Owner,
		})
	}
	return deck
}

// Page returns the cards on the 1-based sheet n, or nil if n is out of range.
func (d *Deck) Page(n int) []models.Card {
	if n < 1 || n > d.Pages {
		return nil
	}
	start := (n - 1) * CardsPerPage
	end := min(start+CardsPerPage, len(d.Cards))
	return d.Cards[start:end]
}

// UnknownYears counts the cards whose year could not be determined.
func (d *Deck) UnknownYears() int {
	n := 0
	for _, c := range d.Cards {
		if !c.Track.Year.Known() {
			n++
		}
	}
	return n
}
