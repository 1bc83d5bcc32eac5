// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI follows one playlist ingestion from link to printable deck:
//  1. [IngestView] : Spinner, current phase and the most recent reconciled tracks
//  2. [DeckView] : Browse the finished cards with their sheet positions and save the deck
//  3. [FailedView] : Show why the ingestion stopped and offer a restart
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Progress updates flow through a channel from the Ingester, providing non-blocking status reporting during ingestion.
//
// Keyboard navigation uses vim-style bindings (j/k, s, r, ?, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
