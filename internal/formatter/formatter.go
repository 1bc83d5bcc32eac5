// package formatter lays reconciled tracks out as a printable card deck and exports it to various formats (JSON, CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/marvimarv/tunequest-card-creator/internal/shared"
)

// Format is an export format name.
type Format string

const (
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "txt"
)

// ParseFormat validates a format flag. The empty string selects [FormatJSON].
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatJSON, nil
	case FormatJSON, FormatCSV, FormatMarkdown, FormatText:
		return f, nil
	case "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("%w: format must be json, csv, markdown or txt, got %q", shared.ErrInvalidFlag, s)
	}
}

// Extension returns the file extension, without the dot, used for f.
func (f Format) Extension() string {
	if f == FormatMarkdown {
		return "md"
	}
	return string(f)
}

// Export renders deck in format f.
func Export(deck *Deck, f Format) ([]byte, error) {
	switch f {
	case FormatCSV:
		return ExportToCSV(deck)
	case FormatMarkdown:
		return ExportToMarkdown(deck)
	case FormatText:
		return ExportToText(deck)
	case FormatJSON, "":
		return ExportToJSON(deck)
	default:
		return nil, fmt.Errorf("%w: unsupported format %q", shared.ErrInvalidFlag, f)
	}
}

// ExportToJSON renders the deck, including every card, as indented JSON.
func ExportToJSON(deck *Deck) ([]byte, error) {
	var buf bytes.Buffer
	if err := shared.WriteJSON(&buf, deck); err != nil {
		return nil, fmt.Errorf("failed to encode deck: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportToCSV converts a Deck to CSV format with one row per card.
func ExportToCSV(deck *Deck) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Page", "Row", "Column", "BackColumn", "ID", "Title", "Artists", "Year", "Code", "Owner"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, card := range deck.Cards {
		record := []string{
			strconv.Itoa(card.Page),
			strconv.Itoa(card.Row),
			strconv.Itoa(card.Column),
			strconv.Itoa(card.BackColumn),
			card.Track.ID,
			card.Track.Title,
			card.Track.ArtistLine(),
			string(card.Track.Year),
			card.Code,
			card.Owner,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a Deck to Markdown with one table per sheet.
func ExportToMarkdown(deck *Deck) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# TuneQuest deck\n\n")
	if deck.PlaylistID != "" {
		fmt.Fprintf(&buf, "**Playlist**: %s\n", deck.PlaylistID)
	}
	if deck.Owner != "" {
		fmt.Fprintf(&buf, "**Owner**: %s\n", deck.Owner)
	}
	fmt.Fprintf(&buf, "**Cards**: %d\n", len(deck.Cards))
	fmt.Fprintf(&buf, "**Pages**: %d\n\n", deck.Pages)

	for p := 1; p <= deck.Pages; p++ {
		fmt.Fprintf(&buf, "## Page %d\n\n", p)
		buf.WriteString("| # | Year | Title | Artist | Code |\n")
		buf.WriteString("|---|------|-------|--------|------|\n")
		for _, card := range deck.Page(p) {
			fmt.Fprintf(&buf, "| %d.%d | %s | %s | %s | %s |\n",
				card.Row+1, card.Column+1,
				card.Track.Year,
				escapeCell(card.Track.Title),
				escapeCell(card.Track.ArtistLine()),
				card.Code,
			)
		}
		buf.WriteString("\n")
	}

	return buf.Bytes(), nil
}

// ExportToText converts a Deck to plain text format
func ExportToText(deck *Deck) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Cards: %d\n", len(deck.Cards))
	fmt.Fprintf(&buf, "Pages: %d\n", deck.Pages)
	if deck.Owner != "" {
		fmt.Fprintf(&buf, "Owner: %s\n", deck.Owner)
	}
	buf.WriteString("\n")

	for i, card := range deck.Cards {
		fmt.Fprintf(&buf, "%d. [%s] %s - %s\n", i+1, card.Track.Year, card.Track.ArtistLine(), card.Track.Title)
	}

	return buf.Bytes(), nil
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// WriteDeck exports a deck to path in format f.
//
// Defaults to {playlist_id}_deck.{ext} as the filename.
func WriteDeck(deck *Deck, f Format, path string) (string, error) {
	if path == "" {
		base := deck.PlaylistID
		if base == "" {
			base = "tunequest"
		}
		path = fmt.Sprintf("%s_deck.%s", base, f.Extension())
	}

	data, err := Export(deck, f)
	if err != nil {
		return "", fmt.Errorf("failed to generate %s: %w", f, err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write deck file: %w", err)
	}

	return path, nil
}
