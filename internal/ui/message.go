package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/marvimarv/tunequest-card-creator/internal/models"
	"github.com/marvimarv/tunequest-card-creator/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgProgressUpdate MsgKind = iota
	MsgIngestComplete
	MsgDeckSaved
)

type ingestResult struct {
	tracks []models.Track
	err    error
}

type deckSaved struct {
	path string
	err  error
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// ingestCompleteMsg is the constructor for [MsgIngestComplete]
func ingestCompleteMsg(tracks []models.Track, err error) Msg {
	return Msg{kind: MsgIngestComplete, data: ingestResult{tracks, err}}
}

// deckSavedMsg is the constructor for [MsgDeckSaved]
func deckSavedMsg(path string, err error) Msg {
	return Msg{kind: MsgDeckSaved, data: deckSaved{path, err}}
}
