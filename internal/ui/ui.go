package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/marvimarv/tunequest-card-creator/internal/formatter"
	"github.com/marvimarv/tunequest-card-creator/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	IngestView ViewState = iota
	DeckView
	FailedView
)

// recentLines is how many progress messages stay visible during ingestion.
const recentLines = 8

// Options configures the playlist ingested by the TUI and where its deck is saved.
type Options struct {
	PlaylistURL string
	Format      formatter.Format
	Output      string // Deck file path, empty for {playlist}_deck.{ext}
	Deck        formatter.DeckOptions
}

// Model represents the TUI application state.
type Model struct {
	ctx      context.Context
	cancel   context.CancelFunc
	view     ViewState
	ingester tasks.PlaylistIngester
	opts     Options

	width  int
	height int

	spinner      spinner.Model
	progressChan chan tasks.ProgressUpdate
	done         chan ingestResult
	progress     tasks.ProgressUpdate
	recent       []string
	tracks       int
	skipped      int

	deck     *formatter.Deck
	cardList list.Model
	saved    string
	err      error

	help help.Model
	keys keyMap
}

// NewModel creates a new TUI model that ingests opts.PlaylistURL with ingester.
func NewModel(ctx context.Context, ingester tasks.PlaylistIngester, opts Options) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.ok

	return &Model{
		ctx:      ctx,
		view:     IngestView,
		ingester: ingester,
		opts:     opts,
		spinner:  s,
		help:     help.New(),
		keys:     newKeyMap(),
	}
}

// Init starts the ingestion.
func (m *Model) Init() tea.Cmd {
	return m.startIngest()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.deck != nil {
			m.cardList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)

	case spinner.TickMsg:
		if m.view != IngestView {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateList(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgProgressUpdate:
		u := msg.data.(tasks.ProgressUpdate)
		m.progress = u
		switch u.Phase {
		case tasks.ReconcileTrack:
			m.tracks++
		case tasks.SkipTrack:
			m.skipped++
		}
		if u.Message != "" {
			m.recent = append(m.recent, u.Message)
			if len(m.recent) > recentLines {
				m.recent = m.recent[len(m.recent)-recentLines:]
			}
		}
		return m, m.waitForProgress()

	case MsgIngestComplete:
		res := msg.data.(ingestResult)
		m.progressChan, m.done = nil, nil
		if res.err != nil {
			m.err = res.err
			m.view = FailedView
			return m, nil
		}

		id, _ := tasks.PlaylistID(m.opts.PlaylistURL)
		deckOpts := m.opts.Deck
		deckOpts.PlaylistID = id
		m.deck = formatter.BuildDeck(res.tracks, deckOpts)

		m.cardList = list.New(cardItems(m.deck.Cards), list.NewDefaultDelegate(), 0, 0)
		m.cardList.Title = fmt.Sprintf("Deck %s: %d cards on %d sheets", id, len(m.deck.Cards), m.deck.Pages)
		m.cardList.SetShowHelp(false)
		if m.width > 0 {
			m.cardList.SetSize(m.width-4, m.height-8)
		}
		m.view = DeckView
		return m, nil

	case MsgDeckSaved:
		res := msg.data.(deckSaved)
		m.saved, m.err = res.path, res.err
		return m, nil
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case IngestView:
		return m.renderIngest()
	case DeckView:
		return m.renderDeck()
	case FailedView:
		return m.renderFailed()
	default:
		return ""
	}
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		if m.cancel != nil {
			m.cancel()
		}
		return m, tea.Quit
	case key.Matches(msg, m.keys.help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}

	switch m.view {
	case DeckView:
		if m.cardList.FilterState() == list.Filtering {
			break
		}
		switch {
		case key.Matches(msg, m.keys.save):
			return m, m.saveDeck()
		case key.Matches(msg, m.keys.restart):
			return m, m.restart()
		}
	case FailedView:
		if key.Matches(msg, m.keys.restart) {
			return m, m.restart()
		}
		return m, nil
	case IngestView:
		return m, nil
	}

	return m.updateList(msg)
}

func (m *Model) updateList(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.view != DeckView {
		return m, nil
	}
	var cmd tea.Cmd
	m.cardList, cmd = m.cardList.Update(msg)
	return m, cmd
}

func (m *Model) restart() tea.Cmd {
	m.view = IngestView
	m.progress = tasks.ProgressUpdate{}
	m.recent = nil
	m.tracks, m.skipped = 0, 0
	m.deck = nil
	m.saved = ""
	m.err = nil
	return m.startIngest()
}

func (m *Model) startIngest() tea.Cmd {
	if m.cancel != nil {
		m.cancel()
	}
	ctx, cancel := context.WithCancel(m.ctx)
	m.cancel = cancel

	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan ingestResult, 1)
	m.progressChan, m.done = progress, done

	go func() {
		tracks, err := m.ingester.Ingest(ctx, m.opts.PlaylistURL, progress)
		close(progress)
		done <- ingestResult{tracks, err}
	}()

	return tea.Batch(m.spinner.Tick, m.waitForProgress())
}

// waitForProgress reads the next update, or the final result once the ingestion has
// closed its progress channel.
func (m *Model) waitForProgress() tea.Cmd {
	progress, done := m.progressChan, m.done
	if progress == nil {
		return nil
	}
	return func() tea.Msg {
		if u, ok := <-progress; ok {
			return progressUpdateMsg(u)
		}
		res := <-done
		return ingestCompleteMsg(res.tracks, res.err)
	}
}

func (m *Model) saveDeck() tea.Cmd {
	deck, format, path := m.deck, m.opts.Format, m.opts.Output
	return func() tea.Msg {
		file, err := formatter.WriteDeck(deck, format, path)
		return deckSavedMsg(file, err)
	}
}

func (m *Model) renderIngest() string {
	title := styles.title.Render("Building TuneQuest deck")

	var phase string
	switch m.progress.Phase {
	case tasks.FetchPage:
		phase = fmt.Sprintf("Fetching page %d", m.progress.Step)
	case tasks.ReconcileTrack, tasks.SkipTrack:
		phase = "Reconciling release years"
	default:
		phase = "Starting..."
	}

	status := fmt.Sprintf("%s %s  %s", m.spinner.View(), phase,
		styles.help.Render(fmt.Sprintf("%d tracks, %d skipped", m.tracks, m.skipped)))

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.quit})
	return fmt.Sprintf("%s\n%s\n\n%s\n\n%s", title, status, strings.Join(m.recent, "\n"), helpView)
}

func (m *Model) renderDeck() string {
	var footer string
	switch {
	case m.err != nil:
		footer = styles.err.Render(fmt.Sprintf("✗ Save failed: %v", m.err))
	case m.saved != "":
		footer = styles.ok.Render(fmt.Sprintf("✓ Deck saved to %s", m.saved))
	default:
		if unknown := m.deck.UnknownYears(); unknown > 0 {
			footer = styles.warn.Render(fmt.Sprintf("%d cards without a year", unknown))
		}
	}

	return fmt.Sprintf("%s\n%s\n\n%s", m.cardList.View(), footer, m.help.View(m.keys))
}

func (m *Model) renderFailed() string {
	msg := styles.err.Render(fmt.Sprintf("✗ Ingestion failed: %v", m.err))
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.restart, m.keys.quit})
	return fmt.Sprintf("%s\n\n%s", msg, helpView)
}

// Run starts the TUI and blocks until the user quits.
func Run(ctx context.Context, ingester tasks.PlaylistIngester, opts Options) error {
	m := NewModel(ctx, ingester, opts)
	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}
