package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"

	"github.com/marvimarv/tunequest-card-creator/internal/models"
)

var (
	_ list.Item = cardItem{}
)

// cardItem wraps [models.Card] to implement [list.Item].
type cardItem struct {
	card models.Card
}

func (i cardItem) FilterValue() string { return i.card.Track.Title }
func (i cardItem) Title() string {
	return fmt.Sprintf("%s  %s", styles.Year(i.card.Track.Year), i.card.Track.Title)
}
func (i cardItem) Description() string {
	return fmt.Sprintf("%s • sheet %d, row %d, column %d", i.card.Track.ArtistLine(), i.card.Page, i.card.Row+1, i.card.Column+1)
}

func cardItems(cards []models.Card) []list.Item {
	items := make([]list.Item, len(cards))
	for i, c := range cards {
		items[i] = cardItem{card: c}
	}
	return items
}
